package transcription

import (
	"fmt"
	"testing"

	"github.com/Taichi-iskw/xscribe/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		format  model.TimestampFormat
		want    string
	}{
		{75.5, model.TimestampDetailed, "00:01:15.50"},
		{0, model.TimestampDetailed, "00:00:00.00"},
		{3723.25, model.TimestampDetailed, "01:02:03.25"},
		{36000.75, model.TimestampDetailed, "10:00:00.75"},
		{59.999, model.TimestampDetailed, "00:00:59.99"},
		{0, model.TimestampSeconds, "0:00"},
		{9.9, model.TimestampSeconds, "0:09"},
		{75.5, model.TimestampSeconds, "1:15"},
		{3660, model.TimestampSeconds, "61:00"},
		{7325, model.TimestampSeconds, "122:05"},
		{75.5, model.TimestampNone, ""},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%v", tt.format, tt.seconds), func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTimestamp(tt.seconds, tt.format))
		})
	}
}

func TestFormatTimestamp_DetailedRoundTrip(t *testing.T) {
	// centiseconds restricted to quarters so the float sums are exact
	for _, h := range []int{0, 1, 9, 12} {
		for _, m := range []int{0, 1, 30, 59} {
			for _, s := range []int{0, 7, 59} {
				for _, cs := range []int{0, 25, 50, 75} {
					total := float64(h*3600+m*60+s) + float64(cs)/100
					want := fmt.Sprintf("%02d:%02d:%02d.%02d", h, m, s, cs)
					assert.Equal(t, want, FormatTimestamp(total, model.TimestampDetailed))
				}
			}
		}
	}
}

func TestFormatTimestamp_SecondsNeverHasHours(t *testing.T) {
	for _, x := range []float64{3600, 3661.5, 86399, 100000} {
		got := FormatTimestamp(x, model.TimestampSeconds)
		assert.Regexp(t, `^\d+:\d{2}$`, got)
	}
}

func TestFormatTimestamp_NoneAlwaysEmpty(t *testing.T) {
	for _, x := range []float64{0, 1.5, 3600, 1e9} {
		assert.Empty(t, FormatTimestamp(x, model.TimestampNone))
	}
}

// Unreachable with validated input; covers the defensive default only.
func TestFormatTimestamp_UnknownFormatFallback(t *testing.T) {
	assert.Equal(t, "75.5", FormatTimestamp(75.5, model.TimestampFormat("minutes")))
	assert.Equal(t, "3", FormatTimestamp(3, model.TimestampFormat("")))
}
