package twitter

import (
	"regexp"
	"strings"

	"github.com/Taichi-iskw/xscribe/internal/errors"
)

// postURLPattern matches canonical X/Twitter post URLs, capturing the handle and the numeric post id
var postURLPattern = regexp.MustCompile(`^https?://(?:www\.|mobile\.)?(?:twitter\.com|x\.com)/([A-Za-z0-9_]{1,15})/status(?:es)?/(\d{1,20})(?:[/?#].*)?$`)

// PostURL is a validated post URL
type PostURL struct {
	Handle string
	PostID string
}

// ParsePostURL validates rawURL against the post URL shape without any network access
func ParsePostURL(rawURL string) (PostURL, error) {
	m := postURLPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return PostURL{}, errors.New(errors.CodeInvalidInput, "not an X post URL: "+rawURL)
	}
	return PostURL{Handle: m[1], PostID: m[2]}, nil
}
