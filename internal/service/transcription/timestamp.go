package transcription

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Taichi-iskw/xscribe/internal/model"
)

// FormatTimestamp renders a segment start time (seconds) in the given format.
//
//	none     -> ""
//	seconds  -> m:ss (minutes unbounded, no hour component)
//	detailed -> hh:mm:ss.cc
//
// Unknown formats fall back to the plain number of seconds.
func FormatTimestamp(seconds float64, format model.TimestampFormat) string {
	switch format {
	case model.TimestampNone:
		return ""
	case model.TimestampSeconds:
		minutes := int(math.Floor(seconds / 60))
		secs := int(math.Floor(seconds)) % 60
		return fmt.Sprintf("%d:%02d", minutes, secs)
	case model.TimestampDetailed:
		minutes := int(math.Floor(seconds / 60))
		hours := minutes / 60
		secs := int(math.Floor(seconds)) % 60
		centis := int(math.Floor((seconds - math.Floor(seconds)) * 100))
		return fmt.Sprintf("%02d:%02d:%02d.%02d", hours, minutes%60, secs, centis)
	default:
		return strconv.FormatFloat(seconds, 'f', -1, 64)
	}
}
