package transcript

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Taichi-iskw/xscribe/internal/model"
)

// Formatter defines interface for output formatting
type Formatter interface {
	Format(transcript *model.Transcript) (string, error)
}

// NewFormatter returns the formatter for the named output format
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "text", "":
		return &TextFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "srt":
		return &SRTFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (expected text, json or srt)", format)
	}
}

// TextFormatter formats output as plain text
type TextFormatter struct{}

// Format formats a transcript as plain text
func (f *TextFormatter) Format(transcript *model.Transcript) (string, error) {
	var output strings.Builder

	if transcript.ID != 0 {
		output.WriteString(fmt.Sprintf("Transcript ID: %d\n", transcript.ID))
	}
	output.WriteString(fmt.Sprintf("Title: %s\n", transcript.VideoTitle))
	output.WriteString(fmt.Sprintf("Author: @%s\n", transcript.Username))
	output.WriteString(fmt.Sprintf("Source: %s\n", transcript.SourceURL))
	output.WriteString(fmt.Sprintf("Language: %s\n", transcript.Language))
	output.WriteString(fmt.Sprintf("Duration: %s\n", transcript.Duration))
	output.WriteString(fmt.Sprintf("Created At: %s\n", transcript.CreatedAt.Format(time.RFC3339)))
	output.WriteString(fmt.Sprintf("\n--- Segments (%d) ---\n", len(transcript.Segments)))

	for _, seg := range transcript.Segments {
		if seg.Timestamp == "" {
			output.WriteString(seg.Text + "\n")
			continue
		}
		output.WriteString(fmt.Sprintf("[%s] %s\n", seg.Timestamp, seg.Text))
	}

	return output.String(), nil
}

// JSONFormatter formats output as JSON
type JSONFormatter struct{}

// Format formats a transcript as indented JSON
func (f *JSONFormatter) Format(transcript *model.Transcript) (string, error) {
	jsonBytes, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(jsonBytes), nil
}

// estimatedSegmentSeconds is used where a segment's end (or start) is unknown
const estimatedSegmentSeconds = 3

// SRTFormatter formats output as SRT subtitle format.
// Segments only carry a start time, so each cue ends where the next one begins.
type SRTFormatter struct{}

// Format formats a transcript as SRT
func (f *SRTFormatter) Format(transcript *model.Transcript) (string, error) {
	if len(transcript.Segments) == 0 {
		return "", fmt.Errorf("no segments available for SRT format")
	}

	starts := make([]float64, len(transcript.Segments))
	for i, seg := range transcript.Segments {
		start, ok := parseTimestamp(seg.Timestamp)
		if !ok {
			// untimed transcripts: use estimated timing based on segment index
			start = float64(i * estimatedSegmentSeconds)
		}
		starts[i] = start
	}

	var output strings.Builder
	for i, seg := range transcript.Segments {
		end := starts[i] + estimatedSegmentSeconds
		if i+1 < len(starts) && starts[i+1] > starts[i] {
			end = starts[i+1]
		}

		// SRT format: sequence number, timing, content, blank line
		output.WriteString(fmt.Sprintf("%d\n", i+1))
		output.WriteString(fmt.Sprintf("%s --> %s\n", formatSRTTime(starts[i]), formatSRTTime(end)))
		output.WriteString(fmt.Sprintf("%s\n\n", seg.Text))
	}

	return output.String(), nil
}

// formatSRTTime renders seconds as HH:MM:SS,mmm
func formatSRTTime(seconds float64) string {
	totalMillis := int64(math.Round(seconds * 1000))
	hours := totalMillis / 3600000
	minutes := (totalMillis % 3600000) / 60000
	secs := (totalMillis % 60000) / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// parseTimestamp reads back a rendered segment timestamp: "M:SS", "HH:MM:SS.cc" or plain seconds
func parseTimestamp(ts string) (float64, bool) {
	if ts == "" {
		return 0, false
	}
	parts := strings.Split(ts, ":")
	total := 0.0
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return 0, false
		}
		total = total*60 + v
	}
	return total, true
}

// truncateString truncates a string to the specified number of runes
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
