package transcript

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewGetCommand creates the get transcript command
func NewGetCommand(service Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [TRANSCRIPT_ID]",
		Short: "Get a stored transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			if _, err := NewFormatter(format); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			transcriptService, cleanup, err := resolveService(ctx, service, FactoryOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			transcript, err := transcriptService.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get transcript: %w", err)
			}

			return printTranscript(cmd, transcript, format)
		},
	}

	cmd.Flags().StringP("format", "f", "text", "Output format: text, json, srt")

	return cmd
}
