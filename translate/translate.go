// Package translate implements the cache-backed translation engine that
// drives the pipeline: mask, short-circuit, cache lookup, backend call with
// bounded retry, and failure recording.
//
// The engine is sequential by design. The free translation endpoint is
// rate-limited anyway and a run translates one script's worth of strings,
// so there is nothing to win from concurrency.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/samp-tools/pwnlate/cache"
	"github.com/samp-tools/pwnlate/gtrans"
	"github.com/samp-tools/pwnlate/mask"
)

// Backend is the external translation service, consumed as a black box.
// Implementations report retryable failures as gtrans.TransientError.
type Backend interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Outcome classifies what happened to a single literal.
type Outcome int

const (
	// OutcomeSkipped: nothing translatable in the literal; no cache lookup,
	// no network call.
	OutcomeSkipped Outcome = iota
	// OutcomeCached: served from the persistent cache; no network call.
	OutcomeCached
	// OutcomeTranslated: freshly translated by the backend and cached.
	OutcomeTranslated
	// OutcomeFailed: all attempts exhausted; recorded in the failure log and
	// left untranslated.
	OutcomeFailed
	// OutcomeDeferred: the session limit was reached; left for a later run.
	OutcomeDeferred
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeCached:
		return "cached"
	case OutcomeTranslated:
		return "translated"
	case OutcomeFailed:
		return "failed"
	case OutcomeDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// Result is the outcome of translating one literal.
type Result struct {
	// Masked is the masked form of the input literal.
	Masked mask.Masked
	// Text is the (possibly translated) masked text. For skipped, failed,
	// and deferred literals it equals Masked.Text.
	Text string
	// Outcome says which path the literal took.
	Outcome Outcome
}

// Options controls the engine.
type Options struct {
	// Backend performs the actual translation.
	Backend Backend
	// Cache is the persistent masked-text cache. Required.
	Cache *cache.Cache
	// FailureLog records literals that exhausted their retries. Optional.
	FailureLog *FailureLog
	// MaxRetries is the number of backend attempts per literal. Default: 5.
	MaxRetries int
	// RetryDelay is the base pause before a retry; doubles per attempt,
	// capped at one minute. Default: 3s.
	RetryDelay time.Duration
	// SessionLimit caps new backend translations per run (0 = unlimited).
	SessionLimit int
	// NeedsTranslation decides whether masked text contains anything worth
	// sending to the backend. Default: contains a Cyrillic rune.
	NeedsTranslation func(masked string) bool
	// OnLog emits progress messages.
	OnLog func(format string, args ...any)
	// OnError emits error messages.
	OnError func(format string, args ...any)
	// OnProgress is called after each literal with (done, total).
	OnProgress func(done, total int)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) effectiveMaxRetries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return 5
}

func (o *Options) effectiveRetryDelay() time.Duration {
	if o.RetryDelay > 0 {
		return o.RetryDelay
	}
	return 3 * time.Second
}

func (o *Options) needsTranslation(masked string) bool {
	if o.NeedsTranslation != nil {
		return o.NeedsTranslation(masked)
	}
	return ContainsCyrillic(masked)
}

// maxRetryBackoff caps the exponential retry pause.
const maxRetryBackoff = time.Minute

// errEmptyTranslation marks a backend reply with no text. An empty string is
// never a valid translation of a non-empty literal and must not reach the
// cache or the output.
var errEmptyTranslation = errors.New("backend returned an empty translation")

// ContainsCyrillic reports whether s contains at least one Cyrillic rune.
// It is the default test for "this masked text still needs translating":
// markers and whitespace never match, and neither do literals that carry no
// source-language text at all.
func ContainsCyrillic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}

// sourceScripts maps source language codes to the Unicode scripts their text
// is written in.
var sourceScripts = map[string][]*unicode.RangeTable{
	"ru": {unicode.Cyrillic},
	"uk": {unicode.Cyrillic},
	"be": {unicode.Cyrillic},
	"bg": {unicode.Cyrillic},
	"sr": {unicode.Cyrillic},
	"mk": {unicode.Cyrillic},
	"kk": {unicode.Cyrillic},
	"el": {unicode.Greek},
	"ar": {unicode.Arabic},
	"fa": {unicode.Arabic},
	"he": {unicode.Hebrew},
	"iw": {unicode.Hebrew},
	"hy": {unicode.Armenian},
	"ka": {unicode.Georgian},
	"th": {unicode.Thai},
	"ko": {unicode.Hangul},
	"ja": {unicode.Hiragana, unicode.Katakana, unicode.Han},
	"zh": {unicode.Han},
}

// NeedsTranslationFor returns the skip test for a source language: masked
// text needs translating when it contains at least one rune of that
// language's script. Languages with no script entry (the Latin-script ones)
// fall back to "contains any letter", which still skips marker-only and
// numeric literals.
func NeedsTranslationFor(lang string) func(string) bool {
	code := strings.ToLower(lang)
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}

	tables, ok := sourceScripts[code]
	if !ok {
		return containsAnyLetter
	}
	return func(s string) bool {
		for _, r := range s {
			for _, t := range tables {
				if unicode.Is(t, r) {
					return true
				}
			}
		}
		return false
	}
}

func containsAnyLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// Engine translates literals one at a time through the cache and backend.
type Engine struct {
	opts            Options
	newTranslations int
}

// NewEngine returns an engine with the given options.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Translate runs one raw literal through the pipeline stages up to and
// including the backend. The returned error is non-nil only for run-fatal
// conditions (context cancellation); a literal that cannot be translated is
// reported via OutcomeFailed, never as an error, so one bad string can never
// abort the run.
func (e *Engine) Translate(ctx context.Context, literal string) (Result, error) {
	m := mask.Mask(literal)
	res := Result{Masked: m, Text: m.Text}

	if !e.opts.needsTranslation(m.Text) {
		res.Outcome = OutcomeSkipped
		return res, nil
	}

	if cached, ok := e.opts.Cache.Get(m.Text); ok {
		res.Text = cached
		res.Outcome = OutcomeCached
		return res, nil
	}

	if e.opts.SessionLimit > 0 && e.newTranslations >= e.opts.SessionLimit {
		res.Outcome = OutcomeDeferred
		return res, nil
	}

	translated, err := e.callWithRetry(ctx, m.Text)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		e.opts.logError("failed to translate %q: %v", preview(literal), err)
		if e.opts.FailureLog != nil {
			if lerr := e.opts.FailureLog.Record(literal); lerr != nil {
				e.opts.logError("recording failure: %v", lerr)
			}
		}
		res.Outcome = OutcomeFailed
		return res, nil
	}

	translated = collapseLineBreaks(translated)
	e.opts.Cache.Put(m.Text, translated)
	if err := e.opts.Cache.Flush(); err != nil {
		// Losing a cache entry costs a future network call, not correctness.
		e.opts.logError("flushing cache: %v", err)
	}
	e.newTranslations++

	res.Text = translated
	res.Outcome = OutcomeTranslated
	return res, nil
}

// callWithRetry calls the backend up to MaxRetries times. Transient failures
// back off exponentially from RetryDelay; any other backend error also
// consumes an attempt, since the free endpoint is known to fail in creative
// ways that clear up on their own.
func (e *Engine) callWithRetry(ctx context.Context, masked string) (string, error) {
	attempts := e.opts.effectiveMaxRetries()
	delay := e.opts.effectiveRetryDelay()

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := delay * time.Duration(1<<(attempt-1))
			if wait > maxRetryBackoff {
				wait = maxRetryBackoff
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		out, err := e.opts.Backend.Translate(ctx, masked)
		if err == nil && strings.TrimSpace(out) == "" {
			err = errEmptyTranslation
		}
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		lastErr = err
		if gtrans.IsTransient(err) {
			e.opts.log("transient error for %q (attempt %d/%d): %v",
				preview(masked), attempt+1, attempts, err)
		} else {
			e.opts.logError("translation error for %q (attempt %d/%d): %v",
				preview(masked), attempt+1, attempts, err)
		}
	}

	return "", fmt.Errorf("exhausted %d attempts: %w", attempts, lastErr)
}

// preview shortens a string for log lines.
func preview(s string) string {
	const max = 30
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
