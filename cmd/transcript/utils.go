package transcript

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/xscribe/internal/model"
)

// resolveService returns the injected service (tests) or builds a real one
func resolveService(ctx context.Context, service Service, opts FactoryOptions) (Service, func(), error) {
	if service != nil {
		return service, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	svc, cleanup, err := NewServiceFactory().CreateService(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create transcript service: %w", err)
	}
	return svc, cleanup, nil
}

// parseID parses a positive transcript ID argument
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid transcript ID: %s", arg)
	}
	return id, nil
}

// printTranscript renders transcript in the given output format to stdout
func printTranscript(cmd *cobra.Command, transcript *model.Transcript, format string) error {
	formatter, err := NewFormatter(format)
	if err != nil {
		return err
	}

	output, err := formatter.Format(transcript)
	if err != nil {
		return fmt.Errorf("failed to format transcript: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}
