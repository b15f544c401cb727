package transcript

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewDeleteCommand creates the delete transcript command
func NewDeleteCommand(service Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [TRANSCRIPT_ID]",
		Short: "Delete a stored transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			confirm, _ := cmd.Flags().GetBool("confirm")
			if !confirm {
				cmd.Printf("Are you sure you want to delete transcript %d? Use --confirm flag to proceed.\n", id)
				return nil
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			transcriptService, cleanup, err := resolveService(ctx, service, FactoryOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			if err := transcriptService.Delete(ctx, id); err != nil {
				return fmt.Errorf("failed to delete transcript: %w", err)
			}

			cmd.Printf("Transcript %d deleted successfully\n", id)
			return nil
		},
	}

	cmd.Flags().Bool("confirm", false, "Confirm deletion without prompt")

	return cmd
}
