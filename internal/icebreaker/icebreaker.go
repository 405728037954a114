// Package icebreaker produces short AI-written greetings and daily
// encouragement lines. Every call returns usable text: provider failures
// are replaced by fixed fallback phrases.
package icebreaker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/garnizeh/warmconnect/pkg/models"
)

var (
	ErrNoProvider    = errors.New("no language model configured")
	ErrProviderPanic = errors.New("language model panicked")
)

// Completion is one prompt sent to a language model.
type Completion struct {
	System      string
	Prompt      string
	Temperature float32
	TopP        float32
}

// Completer is a language model able to complete a prompt.
type Completer interface {
	Complete(ctx context.Context, c Completion) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, c Completion) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, c Completion) (string, error) {
	return f(ctx, c)
}

const defaultTimeout = 10 * time.Second

// Generator renders prompts and falls back to fixed phrases on any failure.
type Generator struct {
	completer Completer
	timeout   time.Duration
	logger    *slog.Logger
}

// New returns a Generator. completer may be nil, in which case every call
// returns the fallback text.
func New(completer Completer, timeout time.Duration, logger *slog.Logger) *Generator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Generator{completer: completer, timeout: timeout, logger: logger}
}

// Icebreaker writes a greeting from a myRole user to a nearby targetRole user
// whose current status line is targetStatus.
func (g *Generator) Icebreaker(ctx context.Context, lang string, myRole, targetRole models.Role, targetStatus string) string {
	set := promptsFor(lang)
	fb := FallbacksFor(lang)

	if strings.TrimSpace(targetStatus) == "" {
		targetStatus = set.defaultStatus
	}
	data := map[string]string{
		"MyRole":       roleLabel(myRole, lang, set.unknownRole),
		"TargetRole":   roleLabel(targetRole, lang, set.unknownRole),
		"TargetStatus": targetStatus,
	}
	prompt, err := RenderTemplate(set.icebreaker, data)
	if err != nil {
		g.logger.Error("icebreaker: render prompt", slog.Any("err", err))
		return fb.IcebreakerError
	}

	text, err := g.complete(ctx, Completion{
		System:      set.system,
		Prompt:      prompt,
		Temperature: 0.8,
		TopP:        0.95,
	})
	switch {
	case err != nil:
		g.logFailure("icebreaker", err)
		return fb.IcebreakerError
	case text == "":
		return fb.IcebreakerEmpty
	}

	return text
}

// Encouragement writes a short line of daily encouragement.
func (g *Generator) Encouragement(ctx context.Context, lang string) string {
	set := promptsFor(lang)
	fb := FallbacksFor(lang)

	text, err := g.complete(ctx, Completion{
		Prompt:      set.encouragement,
		Temperature: 1.0,
		TopP:        0.95,
	})
	if err != nil {
		g.logFailure("encouragement", err)
		return fb.Encouragement
	}
	if text == "" {
		return fb.Encouragement
	}

	return text
}

// Close releases the underlying provider when it holds resources.
func (g *Generator) Close() error {
	if g == nil {
		return nil
	}
	if c, ok := g.completer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (g *Generator) complete(ctx context.Context, c Completion) (text string, err error) {
	if g == nil || g.completer == nil {
		return "", ErrNoProvider
	}

	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrProviderPanic, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	out, err := g.completer.Complete(ctx, c)
	if err != nil {
		return "", err
	}
	g.logger.Debug("icebreaker: completion", slog.Duration("latency", time.Since(start)))

	return Clean(out), nil
}

func (g *Generator) logFailure(kind string, err error) {
	if errors.Is(err, ErrNoProvider) {
		g.logger.Debug("icebreaker: using fallback", slog.String("kind", kind))
		return
	}
	g.logger.Warn("icebreaker: provider failed, using fallback", slog.String("kind", kind), slog.Any("err", err))
}

var quotePairs = [][2]string{
	{`"`, `"`},
	{`'`, `'`},
	{"“", "”"},
	{"‘", "’"},
	{"「", "」"},
	{"『", "』"},
}

// Clean trims whitespace and strips quotes wrapping the whole text.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	for {
		stripped := false
		for _, q := range quotePairs {
			if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
				s = strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
				stripped = true
			}
		}
		if !stripped {
			return s
		}
	}
}

func roleLabel(r models.Role, lang, unknown string) string {
	if !r.Valid() {
		return unknown
	}
	return r.Label(lang)
}
