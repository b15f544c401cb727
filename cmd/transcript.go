package cmd

import (
	"github.com/Taichi-iskw/xscribe/cmd/transcript"
)

func init() {
	// nil service: each sub-command builds its own from configuration
	rootCmd.AddCommand(transcript.NewTranscriptCommand(nil))
}
