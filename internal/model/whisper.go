package model

// WhisperSegment represents a single segment from Whisper output.
// Start and End are seconds relative to the submitted audio.
type WhisperSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// WhisperResult represents the JSON output of Whisper (CLI json output and verbose_json API responses)
type WhisperResult struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []WhisperSegment `json:"segments"`
}
