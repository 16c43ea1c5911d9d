package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"
	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/rode/internal/extract"
	"codeberg.org/snonux/rode/internal/lang"
	"codeberg.org/snonux/rode/internal/reverso"
)

var (
	// ErrEmptyWord is returned for blank input before anything is invoked.
	ErrEmptyWord = errors.New("word cannot be empty")

	// ErrNoCandidate is wrapped when neither heuristic found a usable string.
	ErrNoCandidate = errors.New("no usable candidate")
)

// Strategy records which stage produced the translation
type Strategy string

const (
	StrategyTranslation Strategy = "translation"
	StrategyContext     Strategy = "context"
)

// Result is a successful translation
type Result struct {
	Input          string                     `json:"input"`
	OutputLanguage string                     `json:"output_language"`
	OutputWord     string                     `json:"output_word"`
	SourceLanguage string                     `json:"source_language"`
	Strategy       Strategy                   `json:"strategy"`
	Details        map[string]reverso.Payload `json:"details"`
}

// UpstreamError reports that the helper could not produce a translation.
type UpstreamError struct {
	Stage   reverso.Mode
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	return e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Recorder is notified of every successful translation
type Recorder interface {
	Record(ctx context.Context, result *Result) error
}

// Option configures a Translator
type Option func(*Translator)

// WithRecorder sets the recorder called after each success.
func WithRecorder(r Recorder) Option {
	return func(t *Translator) {
		t.recorder = r
	}
}

// Translator runs the direct-then-context fallback for one language pair
type Translator struct {
	collaborator reverso.Collaborator
	pair         lang.Pair
	recorder     Recorder
}

// NewTranslator creates a new translator instance
func NewTranslator(collaborator reverso.Collaborator, pair lang.Pair, opts ...Option) *Translator {
	t := &Translator{
		collaborator: collaborator,
		pair:         pair.Normalized(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Pair returns the language pair the translator works on
func (t *Translator) Pair() lang.Pair {
	return t.pair
}

// TranslateWord translates a single word.
//
// The helper is asked for direct translations first. Only when that payload
// is not ok or yields no usable string is a second, independent invocation
// made in context mode. At most two helper processes run per call.
func (t *Translator) TranslateWord(ctx context.Context, word string) (*Result, error) {
	if strings.TrimSpace(word) == "" {
		return nil, ErrEmptyWord
	}

	logger := log.With().Str("word", word).Str("pair", t.pair.Label()).Logger()

	direct, err := t.invoke(ctx, word, reverso.ModeTranslation)
	if err != nil {
		return nil, t.invocationError(reverso.ModeTranslation, err)
	}

	if direct.OK() {
		if out, ok := extract.FromTranslation(direct); ok && out != "" {
			return t.succeed(ctx, word, out, StrategyTranslation, direct), nil
		}

		logger.Debug().Msg("Direct translation yielded no candidate, trying context")
	} else {
		logger.Debug().Str("message", direct.Message()).Msg("Direct translation failed, trying context")
	}

	fallback, err := t.invoke(ctx, word, reverso.ModeContext)
	if err != nil {
		return nil, t.invocationError(reverso.ModeContext, err)
	}

	if !fallback.OK() {
		message := fallback.Message()
		if message == "" {
			message = "Unknown error"
		}

		return nil, &UpstreamError{
			Stage:   reverso.ModeContext,
			Message: fmt.Sprintf("%s failed: %s", t.pair.Label(), message),
		}
	}

	out, ok := extract.FromContext(fallback)
	if !ok {
		return nil, &UpstreamError{
			Stage: reverso.ModeContext,
			Message: fmt.Sprintf("%s returned no usable %s candidate (context).",
				t.pair.Label(), lang.DisplayName(t.pair.Target)),
			Err: ErrNoCandidate,
		}
	}

	return t.succeed(ctx, word, out, StrategyContext, fallback), nil
}

// invoke runs one helper invocation and times it for the Server-Timing header.
func (t *Translator) invoke(ctx context.Context, word string, mode reverso.Mode) (reverso.Payload, error) {
	if header := servertiming.FromContext(ctx); header != nil {
		metric := header.NewMetric("helper-" + string(mode)).Start()
		defer metric.Stop()
	}

	start := time.Now()
	payload, err := t.collaborator.Invoke(ctx, reverso.Request{
		Text: word,
		From: t.pair.Source,
		To:   t.pair.Target,
		Mode: mode,
	})

	log.Debug().
		Str("word", word).
		Str("mode", string(mode)).
		Dur("dur", time.Since(start)).
		Bool("ok", err == nil && payload.OK()).
		Msg("Helper invoked")

	return payload, err
}

func (t *Translator) invocationError(stage reverso.Mode, err error) error {
	return &UpstreamError{
		Stage:   stage,
		Message: fmt.Sprintf("%s failed: %v", t.pair.Label(), err),
		Err:     err,
	}
}

func (t *Translator) succeed(ctx context.Context, word, out string, strategy Strategy, payload reverso.Payload) *Result {
	result := &Result{
		Input:          word,
		OutputLanguage: t.pair.Target,
		OutputWord:     out,
		SourceLanguage: t.pair.Source,
		Strategy:       strategy,
		Details:        map[string]reverso.Payload{t.pair.Slug("_") + "_raw": payload},
	}

	if t.recorder != nil {
		if err := t.recorder.Record(ctx, result); err != nil {
			log.Warn().Err(err).Str("word", word).Msg("Failed to record translation")
		}
	}

	return result
}
