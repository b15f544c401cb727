package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Taichi-iskw/xscribe/internal/errors"
	"github.com/Taichi-iskw/xscribe/internal/model"
)

// Client resolves X posts to downloadable videos
type Client interface {
	// ResolveVideo validates postURL and returns the post's best MP4 rendition
	ResolveVideo(ctx context.Context, postURL string) (*model.VideoReference, error)
	// DownloadVideo fetches raw video bytes
	DownloadVideo(ctx context.Context, videoURL string) ([]byte, error)
}

// Config carries credentials and collaborators for the X client
type Config struct {
	// BearerToken is the app-level credential, preferred when set
	BearerToken string
	// UserAccessToken is the user-level OAuth 2.0 credential used as fallback
	UserAccessToken string
	APIBaseURL      string
	HTTPClient      *http.Client
	Cache           Cache
	// MaxVideoBytes bounds a single download; zero means DefaultMaxVideoBytes
	MaxVideoBytes int64
}

const DefaultMaxVideoBytes = 512 << 20

// credential is one authenticated way of calling the API
type credential struct {
	kind  string
	token string
}

type client struct {
	credentials   []credential
	baseURL       string
	http          *http.Client
	cache         Cache
	maxVideoBytes int64
}

// NewClient creates a Client from cfg
func NewClient(cfg Config) Client {
	c := &client{
		baseURL:       strings.TrimRight(cfg.APIBaseURL, "/"),
		http:          cfg.HTTPClient,
		cache:         cfg.Cache,
		maxVideoBytes: cfg.MaxVideoBytes,
	}
	if c.baseURL == "" {
		c.baseURL = "https://api.x.com/2"
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.cache == nil {
		c.cache = noopCache{}
	}
	if c.maxVideoBytes <= 0 {
		c.maxVideoBytes = DefaultMaxVideoBytes
	}

	// priority order: app first, user second
	if t := strings.TrimSpace(cfg.BearerToken); t != "" {
		c.credentials = append(c.credentials, credential{kind: "app", token: t})
	}
	if t := strings.TrimSpace(cfg.UserAccessToken); t != "" {
		c.credentials = append(c.credentials, credential{kind: "user", token: t})
	}
	return c
}

// selectCredential picks the highest-priority configured credential
func (c *client) selectCredential() (credential, error) {
	if len(c.credentials) == 0 {
		return credential{}, errors.New(errors.CodeNoCredentials, "neither X_BEARER_TOKEN nor X_USER_ACCESS_TOKEN is configured")
	}
	return c.credentials[0], nil
}

// API response shapes for GET /2/tweets/:id with media and author expansions
type tweetResponse struct {
	Data *struct {
		ID          string `json:"id"`
		Text        string `json:"text"`
		AuthorID    string `json:"author_id"`
		Attachments struct {
			MediaKeys []string `json:"media_keys"`
		} `json:"attachments"`
	} `json:"data"`
	Includes struct {
		Media []media `json:"media"`
		Users []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Type   string `json:"type"`
	} `json:"errors"`
}

type media struct {
	MediaKey string    `json:"media_key"`
	Type     string    `json:"type"`
	Variants []variant `json:"variants"`
}

type variant struct {
	BitRate     int    `json:"bit_rate"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// ResolveVideo validates postURL and returns the post's best MP4 rendition
func (c *client) ResolveVideo(ctx context.Context, postURL string) (*model.VideoReference, error) {
	parsed, err := ParsePostURL(postURL)
	if err != nil {
		return nil, err
	}

	cred, err := c.selectCredential()
	if err != nil {
		return nil, err
	}

	if ref, ok := c.cache.Get(parsed.PostID); ok {
		return &ref, nil
	}

	tweet, err := c.fetchTweet(ctx, cred, parsed.PostID)
	if err != nil {
		return nil, err
	}

	ref, err := buildReference(parsed.PostID, tweet)
	if err != nil {
		return nil, err
	}

	c.cache.Add(parsed.PostID, *ref)
	return ref, nil
}

func (c *client) fetchTweet(ctx context.Context, cred credential, postID string) (*tweetResponse, error) {
	q := url.Values{}
	q.Set("expansions", "attachments.media_keys,author_id")
	q.Set("media.fields", "type,variants,duration_ms")
	q.Set("user.fields", "name,username")
	q.Set("tweet.fields", "text")
	endpoint := fmt.Sprintf("%s/tweets/%s?%s", c.baseURL, url.PathEscape(postID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to build X API request")
	}
	req.Header.Set("Authorization", "Bearer "+cred.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeExternal, "X API request failed")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.New(errors.CodeRateLimited, "X API returned 429 for "+cred.kind+" credential")
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errors.New(errors.CodeNoCredentials, "X API rejected the "+cred.kind+" credential")
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusForbidden:
		// 403 means the post exists but is protected or otherwise inaccessible
		return nil, errors.New(errors.CodePostNotFound, fmt.Sprintf("post %s not accessible (status %d)", postID, resp.StatusCode))
	case resp.StatusCode >= 300:
		return nil, errors.New(errors.CodeExternal, fmt.Sprintf("X API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var tweet tweetResponse
	if err := json.Unmarshal(body, &tweet); err != nil {
		return nil, errors.Wrap(err, errors.CodeExternal, "failed to decode X API response")
	}
	if tweet.Data == nil {
		detail := "post " + postID + " not found"
		if len(tweet.Errors) > 0 && tweet.Errors[0].Detail != "" {
			detail = tweet.Errors[0].Detail
		}
		return nil, errors.New(errors.CodePostNotFound, detail)
	}
	return &tweet, nil
}

func buildReference(postID string, tweet *tweetResponse) (*model.VideoReference, error) {
	attached := make(map[string]bool, len(tweet.Data.Attachments.MediaKeys))
	for _, key := range tweet.Data.Attachments.MediaKeys {
		attached[key] = true
	}

	var videoURL string
	for _, m := range tweet.Includes.Media {
		if m.Type != "video" || !attached[m.MediaKey] {
			continue
		}
		if best, ok := bestVariant(m.Variants); ok {
			videoURL = best.URL
			break
		}
	}
	if videoURL == "" {
		return nil, errors.New(errors.CodeNoVideoFound, "post "+postID+" has no video attachment")
	}

	ref := &model.VideoReference{
		PostID:   postID,
		VideoURL: videoURL,
		Text:     tweet.Data.Text,
	}
	for _, u := range tweet.Includes.Users {
		if u.ID == tweet.Data.AuthorID {
			ref.AuthorName = u.Name
			ref.AuthorUsername = u.Username
			break
		}
	}
	return ref, nil
}

// bestVariant returns the highest-bitrate MP4 variant; the first one wins ties
func bestVariant(variants []variant) (variant, bool) {
	var (
		best  variant
		found bool
	)
	for _, v := range variants {
		if v.ContentType != "video/mp4" || v.URL == "" {
			continue
		}
		if !found || v.BitRate > best.BitRate {
			best = v
			found = true
		}
	}
	return best, found
}

// DownloadVideo fetches raw video bytes
func (c *client) DownloadVideo(ctx context.Context, videoURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDownloadFailed, "invalid video URL")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDownloadFailed, "video download request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New(errors.CodeDownloadFailed, fmt.Sprintf("video download returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxVideoBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDownloadFailed, "failed to read video body")
	}
	if int64(len(data)) > c.maxVideoBytes {
		return nil, errors.New(errors.CodeDownloadFailed, fmt.Sprintf("video exceeds %d bytes", c.maxVideoBytes))
	}
	if len(data) == 0 {
		return nil, errors.New(errors.CodeDownloadFailed, "video download returned an empty body")
	}
	return data, nil
}
