package transcript

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/xscribe/internal/model"
	"github.com/Taichi-iskw/xscribe/internal/service/pipeline"
)

// NewCreateCommand creates the create transcript command
func NewCreateCommand(service Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [POST_URL]",
		Short: "Transcribe the video of an X post",
		Long: `Fetch the post, download its video, extract the audio and transcribe it.
Progress is printed to stderr and the transcript to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postURL := args[0]

			// Get flags
			language, _ := cmd.Flags().GetString("language")
			timestamps, _ := cmd.Flags().GetString("timestamps")
			format, _ := cmd.Flags().GetString("format")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			// fail on a bad --format before spending minutes on the pipeline
			if _, err := NewFormatter(format); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			transcriptService, cleanup, err := resolveService(ctx, service, FactoryOptions{
				DryRun:       dryRun,
				Progress:     cmd.ErrOrStderr(),
				NeedPipeline: true,
			})
			if err != nil {
				return err
			}
			defer cleanup()

			transcript, err := transcriptService.Create(ctx, pipeline.Request{
				URL:             postURL,
				Language:        language,
				TimestampFormat: model.TimestampFormat(timestamps),
			})
			if err != nil {
				return fmt.Errorf("failed to create transcript: %w", err)
			}

			if dryRun {
				fmt.Fprintln(cmd.ErrOrStderr(), "DRY RUN: transcript was not saved")
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "Transcript created successfully (ID: %d)\n", transcript.ID)
			}

			return printTranscript(cmd, transcript, format)
		},
	}

	// Add flags
	cmd.Flags().StringP("language", "l", "auto", "Spoken language code (auto, en, ja, etc.)")
	cmd.Flags().StringP("timestamps", "t", string(model.TimestampSeconds), "Timestamp format: none, seconds, detailed")
	cmd.Flags().StringP("format", "f", "text", "Output format: text, json, srt")
	cmd.Flags().Bool("dry-run", false, "Run the pipeline without saving to database")

	return cmd
}
