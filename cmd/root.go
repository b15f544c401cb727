package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xscribe",
	Short: "Transcribe the video of an X post",
	Long: `xscribe turns an X (Twitter) post URL into a timestamped transcript.

It fetches the post metadata, downloads the video, extracts mono 16kHz audio
with ffmpeg and runs speech recognition with whisper. Transcripts are stored
in PostgreSQL and can be served over HTTP with live progress on a websocket.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
