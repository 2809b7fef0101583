package transcription

import (
	"context"
	"testing"
)

func TestJoinText(t *testing.T) {
	fragments := []Fragment{
		{Text: "a", Start: 0, Duration: 1},
		{Text: "b", Start: 1, Duration: 1},
		{Text: "c", Start: 2, Duration: 1},
	}

	if got := JoinText(fragments); got != "a b c" {
		t.Errorf("expected 'a b c', got '%s'", got)
	}
	if got := JoinText(nil); got != "" {
		t.Errorf("expected empty string, got '%s'", got)
	}
}

func TestNormalizeVideoID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"  dQw4w9WgXcQ  ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://example.com/watch?v=dQw4w9WgXcQ", "https://example.com/watch?v=dQw4w9WgXcQ"},
		{"https://www.youtube.com/feed/trending", "https://www.youtube.com/feed/trending"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeVideoID(tt.input); got != tt.want {
				t.Errorf("NormalizeVideoID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFetcherFunc(t *testing.T) {
	var got string
	fetcher := FetcherFunc(func(ctx context.Context, videoID string) ([]Fragment, error) {
		got = videoID
		return []Fragment{{Text: "hello"}}, nil
	})

	fragments, err := fetcher.Fetch(context.Background(), "abc")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "abc" || len(fragments) != 1 {
		t.Errorf("unexpected call: id=%q fragments=%v", got, fragments)
	}
}

func TestErrorMessages(t *testing.T) {
	unavailable := &VideoUnavailableError{VideoID: "abc", Status: "ERROR", Reason: "This video is private"}
	if unavailable.Error() != "video abc is unavailable: This video is private" {
		t.Errorf("unexpected message %q", unavailable.Error())
	}

	noReason := &VideoUnavailableError{VideoID: "abc", Status: "UNPLAYABLE"}
	if noReason.Error() != "video abc is unavailable (UNPLAYABLE)" {
		t.Errorf("unexpected message %q", noReason.Error())
	}

	notFound := &NoTranscriptFoundError{VideoID: "abc", Languages: []string{"en"}}
	if notFound.Error() != "no transcript found for video abc in languages [en]" {
		t.Errorf("unexpected message %q", notFound.Error())
	}
}
