package transcript

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	transcriptRepo "github.com/Taichi-iskw/xscribe/internal/repository/transcript"
)

// NewListCommand creates the list transcripts command
func NewListCommand(service Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent transcripts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			transcriptService, cleanup, err := resolveService(ctx, service, FactoryOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			transcripts, err := transcriptService.List(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to list transcripts: %w", err)
			}

			if len(transcripts) == 0 {
				cmd.Println("No transcripts found")
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %d transcript(s):\n\n", len(transcripts))
			for _, t := range transcripts {
				fmt.Fprintf(out, "ID: %d\n", t.ID)
				fmt.Fprintf(out, "Title: %s\n", truncateString(t.VideoTitle, 60))
				fmt.Fprintf(out, "Author: @%s\n", t.Username)
				fmt.Fprintf(out, "Language: %s\n", t.Language)
				fmt.Fprintf(out, "Duration: %s\n", t.Duration)
				fmt.Fprintf(out, "Created: %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
				fmt.Fprintln(out, "---")
			}

			return nil
		},
	}

	cmd.Flags().Int("limit", transcriptRepo.DefaultListLimit, "Maximum number of transcripts to list")

	return cmd
}
