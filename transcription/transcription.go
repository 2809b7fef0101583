package transcription

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Fragment is one timed caption unit as returned by the caption provider.
type Fragment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Fetcher retrieves the ordered caption fragments of a video.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) ([]Fragment, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, videoID string) ([]Fragment, error)

func (f FetcherFunc) Fetch(ctx context.Context, videoID string) ([]Fragment, error) {
	return f(ctx, videoID)
}

// JoinText flattens fragments into a single string, separated by one space,
// dropping the timing information.
func JoinText(fragments []Fragment) string {
	texts := make([]string, len(fragments))
	for i, fragment := range fragments {
		texts[i] = fragment.Text
	}
	return strings.Join(texts, " ")
}

var ErrTranscriptsDisabled = errors.New("transcripts are disabled")

type VideoUnavailableError struct {
	VideoID string
	Status  string
	Reason  string
}

func (e *VideoUnavailableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("video %s is unavailable (%s)", e.VideoID, e.Status)
	}
	return fmt.Sprintf("video %s is unavailable: %s", e.VideoID, e.Reason)
}

type NoTranscriptFoundError struct {
	VideoID   string
	Languages []string
	Available []string
}

func (e *NoTranscriptFoundError) Error() string {
	msg := fmt.Sprintf("no transcript found for video %s in languages %v", e.VideoID, e.Languages)
	if len(e.Available) > 0 {
		msg += fmt.Sprintf(" (available: %s)", strings.Join(e.Available, ", "))
	}
	return msg
}

// NormalizeVideoID extracts the id from a YouTube watch, short-link, shorts
// or embed URL. Any other input is returned trimmed but otherwise unchanged,
// leaving format checks to the provider.
func NormalizeVideoID(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")

	switch host {
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return id
		}
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 && parts[1] != "" {
			switch parts[0] {
			case "shorts", "embed", "live":
				return parts[1]
			}
		}
	}
	return raw
}
