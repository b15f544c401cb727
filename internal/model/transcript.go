package model

import (
	"fmt"
	"time"
)

// VideoReference identifies a resolved X post carrying a video
type VideoReference struct {
	PostID         string `json:"post_id"`
	VideoURL       string `json:"video_url"`
	Text           string `json:"text"`
	AuthorName     string `json:"author_name"`
	AuthorUsername string `json:"author_username"`
}

// Title returns a display title for the post, falling back to the author when the post has no text
func (v *VideoReference) Title() string {
	const maxRunes = 100
	text := []rune(v.Text)
	if len(text) == 0 {
		return fmt.Sprintf("Video by @%s", v.AuthorUsername)
	}
	if len(text) > maxRunes {
		return string(text[:maxRunes-3]) + "..."
	}
	return string(text)
}

// AudioArtifact is a transient mono 16kHz PCM WAV file produced by the extraction stage
type AudioArtifact struct {
	Path       string
	SampleRate int
	Channels   int
}

// TimestampFormat selects how segment start times are rendered
type TimestampFormat string

const (
	TimestampNone     TimestampFormat = "none"
	TimestampSeconds  TimestampFormat = "seconds"
	TimestampDetailed TimestampFormat = "detailed"
)

// Valid reports whether f is one of the supported formats
func (f TimestampFormat) Valid() bool {
	switch f {
	case TimestampNone, TimestampSeconds, TimestampDetailed:
		return true
	default:
		return false
	}
}

// TranscriptSegment is one chronologically ordered piece of transcript text
type TranscriptSegment struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// TranscriptionResult is the output of the transcription stage
type TranscriptionResult struct {
	Segments []TranscriptSegment
	Language string
	// LastStart is the start time in seconds of the final segment, used to derive duration
	LastStart float64
}

// Transcript represents a persisted transcript of one post's video
type Transcript struct {
	ID              int64               `json:"id" db:"id"`
	SourceURL       string              `json:"sourceUrl" db:"source_url"`
	VideoTitle      string              `json:"videoTitle" db:"video_title"`
	Username        string              `json:"username" db:"username"`
	Duration        string              `json:"duration" db:"duration"`
	Language        string              `json:"language" db:"language"`
	TimestampFormat TimestampFormat     `json:"timestampFormat" db:"timestamp_format"`
	Segments        []TranscriptSegment `json:"segments" db:"segments"`
	CreatedAt       time.Time           `json:"createdAt" db:"created_at"`
}
