package pipeline

// State is a pipeline run's position in the stage sequence
type State string

const (
	StateIdle             State = "idle"
	StateFetchingMetadata State = "fetching_metadata"
	StateDownloading      State = "downloading"
	StateExtractingAudio  State = "extracting_audio"
	StateTranscribing     State = "transcribing"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

// Step numbers reported in progress events
const (
	StepMetadata      = 1
	StepDownload      = 2
	StepExtraction    = 3
	StepTranscription = 4
)

// isValidTransition enforces the allowed run state machine edges.
// Stages run strictly in order; any running state may fail.
func isValidTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateFetchingMetadata || to == StateFailed
	case StateFetchingMetadata:
		return to == StateDownloading || to == StateFailed
	case StateDownloading:
		return to == StateExtractingAudio || to == StateFailed
	case StateExtractingAudio:
		return to == StateTranscribing || to == StateFailed
	case StateTranscribing:
		return to == StateDone || to == StateFailed
	default:
		return false
	}
}

// OverallProgress weights each of the four steps equally
func OverallProgress(step, stepProgress int) int {
	v := (step-1)*25*100 + stepProgress*25
	// round half up on the x100 scale
	overall := (v + 50) / 100
	return min(100, max(0, overall))
}
