package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/nijaru/yt-ask/errors"
	"github.com/nijaru/yt-ask/metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	providerName     = "youtube"
	maxResponseBytes = 8 << 20

	innertubeClientName    = "ANDROID"
	innertubeClientVersion = "20.10.38"
)

var (
	innertubeKeyPattern = regexp.MustCompile(`"INNERTUBE_API_KEY":\s*"([a-zA-Z0-9_-]+)"`)
	formattingTags      = regexp.MustCompile(`<[^>]*>`)
)

// YouTubeFetcher fetches captions through YouTube's public watch page,
// innertube player endpoint and timed-text tracks.
type YouTubeFetcher struct {
	client    *http.Client
	baseURL   string
	languages []string
	metrics   *metrics.Metrics
	logger    logrus.FieldLogger
}

type Option func(*YouTubeFetcher)

func WithHTTPClient(client *http.Client) Option {
	return func(f *YouTubeFetcher) {
		f.client = client
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *YouTubeFetcher) {
		f.metrics = m
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(f *YouTubeFetcher) {
		f.logger = logger
	}
}

// NewYouTubeFetcher creates a fetcher rooted at baseURL (normally
// https://www.youtube.com) preferring the given caption languages in order.
func NewYouTubeFetcher(baseURL string, languages []string, opts ...Option) *YouTubeFetcher {
	f := &YouTubeFetcher{
		client:    &http.Client{},
		baseURL:   strings.TrimRight(baseURL, "/"),
		languages: languages,
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *YouTubeFetcher) Fetch(ctx context.Context, videoID string) ([]Fragment, error) {
	const op = "YouTubeFetcher.Fetch"

	videoID = NormalizeVideoID(videoID)
	if videoID == "" {
		return nil, apperrors.InvalidInput(op, nil, "video_id is required")
	}

	logger := f.logger.WithField("video_id", videoID)
	start := time.Now()

	fragments, err := f.fetch(ctx, videoID)
	f.metrics.ObserveUpstream(providerName, start, err)
	if err != nil {
		logger.WithError(err).Warn("Transcript fetch failed")
		return nil, apperrors.Upstream(op, err, "")
	}

	logger.WithFields(logrus.Fields{
		"fragments": len(fragments),
		"duration":  time.Since(start),
	}).Info("Transcript fetched")
	return fragments, nil
}

func (f *YouTubeFetcher) fetch(ctx context.Context, videoID string) ([]Fragment, error) {
	apiKey, err := f.innertubeKey(ctx, videoID)
	if err != nil {
		return nil, err
	}

	tracks, err := f.captionTracks(ctx, videoID, apiKey)
	if err != nil {
		return nil, err
	}

	track, err := selectTrack(videoID, tracks, f.languages)
	if err != nil {
		return nil, err
	}

	return f.timedText(ctx, track)
}

func (f *YouTubeFetcher) innertubeKey(ctx context.Context, videoID string) (string, error) {
	watchURL := f.baseURL + "/watch?v=" + url.QueryEscape(videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "building watch page request")
	}
	req.Header.Set("Accept-Language", "en-US")

	body, err := f.do(req)
	if err != nil {
		return "", errors.Wrap(err, "fetching watch page")
	}

	match := innertubeKeyPattern.FindSubmatch(body)
	if match == nil {
		if bytes.Contains(body, []byte(`class="g-recaptcha"`)) {
			return "", errors.Errorf("youtube is blocking requests from this IP (captcha challenge) for video %s", videoID)
		}
		return "", errors.Errorf("could not read player configuration for video %s", videoID)
	}
	return string(match[1]), nil
}

type playerRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
		} `json:"client"`
	} `json:"context"`
	VideoID string `json:"videoId"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		Renderer *struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

func (t captionTrack) generated() bool {
	return t.Kind == "asr"
}

func (f *YouTubeFetcher) captionTracks(ctx context.Context, videoID, apiKey string) ([]captionTrack, error) {
	var payload playerRequest
	payload.Context.Client.ClientName = innertubeClientName
	payload.Context.Client.ClientVersion = innertubeClientVersion
	payload.VideoID = videoID

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encoding player request")
	}

	playerURL := f.baseURL + "/youtubei/v1/player?key=" + url.QueryEscape(apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, playerURL, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "building player request")
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := f.do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching player data")
	}

	var resp playerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "decoding player data")
	}

	if status := resp.PlayabilityStatus.Status; status != "OK" {
		return nil, &VideoUnavailableError{
			VideoID: videoID,
			Status:  status,
			Reason:  resp.PlayabilityStatus.Reason,
		}
	}

	if resp.Captions == nil || resp.Captions.Renderer == nil || len(resp.Captions.Renderer.CaptionTracks) == 0 {
		return nil, fmt.Errorf("%w for video %s", ErrTranscriptsDisabled, videoID)
	}
	return resp.Captions.Renderer.CaptionTracks, nil
}

// selectTrack walks the language preference list; for each language a
// manually created track wins over an auto-generated one.
func selectTrack(videoID string, tracks []captionTrack, languages []string) (captionTrack, error) {
	for _, lang := range languages {
		var generated *captionTrack
		for i := range tracks {
			if tracks[i].LanguageCode != lang {
				continue
			}
			if !tracks[i].generated() {
				return tracks[i], nil
			}
			if generated == nil {
				generated = &tracks[i]
			}
		}
		if generated != nil {
			return *generated, nil
		}
	}

	available := make([]string, 0, len(tracks))
	for _, track := range tracks {
		code := track.LanguageCode
		if track.generated() {
			code += " (auto)"
		}
		available = append(available, code)
	}
	return captionTrack{}, &NoTranscriptFoundError{
		VideoID:   videoID,
		Languages: languages,
		Available: available,
	}
}

type timedTextDocument struct {
	XMLName xml.Name        `xml:"transcript"`
	Texts   []timedTextNode `xml:"text"`
}

type timedTextNode struct {
	Start    string `xml:"start,attr"`
	Duration string `xml:"dur,attr"`
	Body     string `xml:",chardata"`
}

func (f *YouTubeFetcher) timedText(ctx context.Context, track captionTrack) ([]Fragment, error) {
	trackURL := strings.Replace(track.BaseURL, "&fmt=srv3", "", 1)
	if strings.HasPrefix(trackURL, "/") {
		trackURL = f.baseURL + trackURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building timed text request")
	}

	body, err := f.do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching timed text")
	}

	return parseTimedText(body)
}

func parseTimedText(data []byte) ([]Fragment, error) {
	var doc timedTextDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding timed text")
	}

	fragments := make([]Fragment, 0, len(doc.Texts))
	for _, node := range doc.Texts {
		if node.Body == "" {
			continue
		}
		start, err := strconv.ParseFloat(node.Start, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid start %q", node.Start)
		}
		var duration float64
		if node.Duration != "" {
			if duration, err = strconv.ParseFloat(node.Duration, 64); err != nil {
				return nil, errors.Wrapf(err, "invalid duration %q", node.Duration)
			}
		}
		fragments = append(fragments, Fragment{
			Text:     formattingTags.ReplaceAllString(html.UnescapeString(node.Body), ""),
			Start:    start,
			Duration: duration,
		})
	}
	return fragments, nil
}

func (f *YouTubeFetcher) do(req *http.Request) ([]byte, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.New("youtube is rate limiting requests (HTTP 429)")
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Path)
	}
	return body, nil
}
