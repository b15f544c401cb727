package transcript

import (
	"github.com/spf13/cobra"
)

// NewTranscriptCommand creates the main transcript command
func NewTranscriptCommand(service Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Manage transcripts",
		Long:  `Create transcripts from X post videos, and get, list, and delete stored transcripts`,
	}

	// Add subcommands
	cmd.AddCommand(NewCreateCommand(service))
	cmd.AddCommand(NewGetCommand(service))
	cmd.AddCommand(NewListCommand(service))
	cmd.AddCommand(NewDeleteCommand(service))

	return cmd
}
