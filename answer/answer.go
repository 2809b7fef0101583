// Package answer turns a transcript and a question into a single completion
// request and returns the model's reply.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/nijaru/yt-ask/errors"
	"github.com/nijaru/yt-ask/metrics"
	"github.com/sirupsen/logrus"
)

const (
	SystemInstruction = "You are a helpful assistant that answers questions based on video transcripts."

	// NotConfiguredAnswer is returned in place of a completion when no
	// provider credential was supplied at startup.
	NotConfiguredAnswer = "LLM not configured. Please set up an LLM client."

	// ErrorAnswerPrefix precedes the provider message when a failed
	// completion is reported inside the answer text.
	ErrorAnswerPrefix = "LLM error: "

	userTemplate = "Based on the following transcript, answer the question:\n\nTranscript: %s\n\nQuestion: %s\n\nAnswer:"
)

// Prompt is one completion request.
type Prompt struct {
	Model     string
	System    string
	User      string
	MaxTokens int
}

// Completer is a text-generation provider.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// ProviderError carries the message a provider attached to a failed call.
type ProviderError struct {
	Message string
	Err     error
}

func (e *ProviderError) Error() string { return e.Message }
func (e *ProviderError) Unwrap() error { return e.Err }

type Config struct {
	Model     string
	MaxTokens int
	// Strict reports provider failures as errors instead of answer text.
	Strict bool
}

type Generator struct {
	completer Completer
	config    Config
	metrics   *metrics.Metrics
	logger    logrus.FieldLogger
}

type Option func(*Generator)

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator wraps completer. A nil completer yields a generator that
// only ever reports that no model is configured.
func NewGenerator(completer Completer, cfg Config, opts ...Option) *Generator {
	g := &Generator{
		completer: completer,
		config:    cfg,
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BuildPrompt substitutes transcript and question into the fixed template
// verbatim. Nothing is escaped or truncated.
func BuildPrompt(transcript, question string) string {
	return fmt.Sprintf(userTemplate, transcript, question)
}

func (g *Generator) Configured() bool {
	return g.completer != nil
}

func (g *Generator) Generate(ctx context.Context, transcript, question string) (string, error) {
	const op = "Generator.Generate"

	if g.completer == nil {
		if g.config.Strict {
			return "", apperrors.Unavailable(op, nil, "LLM client is not configured")
		}
		g.logger.Warn("Answer requested but no LLM client is configured")
		return NotConfiguredAnswer, nil
	}

	prompt := Prompt{
		Model:     g.config.Model,
		System:    SystemInstruction,
		User:      BuildPrompt(transcript, question),
		MaxTokens: g.config.MaxTokens,
	}

	logger := g.logger.WithFields(logrus.Fields{
		"provider":          g.completer.Name(),
		"model":             prompt.Model,
		"transcript_length": len(transcript),
	})

	start := time.Now()
	text, err := g.completer.Complete(ctx, prompt)
	g.metrics.ObserveUpstream(g.completer.Name(), start, err)
	if err != nil {
		logger.WithError(err).Error("Completion failed")
		if g.config.Strict {
			return "", apperrors.Upstream(op, err, ErrorAnswerPrefix+err.Error())
		}
		return ErrorAnswerPrefix + err.Error(), nil
	}

	logger.WithField("duration", time.Since(start)).Info("Answer generated")
	return strings.TrimSpace(text), nil
}
