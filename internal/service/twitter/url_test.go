package twitter

import (
	"testing"

	apperrors "github.com/Taichi-iskw/xscribe/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePostURL(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantHandle string
		wantID     string
		wantErr    bool
	}{
		{name: "x.com", url: "https://x.com/jack/status/20", wantHandle: "jack", wantID: "20"},
		{name: "twitter.com with www", url: "https://www.twitter.com/NASA/status/1234567890123456789", wantHandle: "NASA", wantID: "1234567890123456789"},
		{name: "mobile with query", url: "https://mobile.twitter.com/some_user/status/42?s=20&t=abc", wantHandle: "some_user", wantID: "42"},
		{name: "trailing video path", url: "https://x.com/user/status/42/video/1", wantHandle: "user", wantID: "42"},
		{name: "surrounding whitespace", url: "  https://x.com/user/status/42  ", wantHandle: "user", wantID: "42"},
		{name: "empty", url: "", wantErr: true},
		{name: "profile url", url: "https://x.com/jack", wantErr: true},
		{name: "non numeric id", url: "https://x.com/jack/status/abc", wantErr: true},
		{name: "other domain", url: "https://youtube.com/jack/status/20", wantErr: true},
		{name: "lookalike domain", url: "https://notx.com/jack/status/20", wantErr: true},
		{name: "missing scheme", url: "x.com/jack/status/20", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePostURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHandle, got.Handle)
			assert.Equal(t, tt.wantID, got.PostID)
		})
	}
}
