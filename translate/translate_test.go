package translate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samp-tools/pwnlate/cache"
	"github.com/samp-tools/pwnlate/gtrans"
	"github.com/samp-tools/pwnlate/mask"
	"github.com/samp-tools/pwnlate/pawnfile"
)

// fakeBackend counts calls and delegates to fn.
type fakeBackend struct {
	calls int
	fn    func(text string) (string, error)
}

func (b *fakeBackend) Translate(_ context.Context, text string) (string, error) {
	b.calls++
	return b.fn(text)
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.Load(filepath.Join(t.TempDir(), "cache.json"))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func testOptions(t *testing.T, b Backend) Options {
	t.Helper()
	return Options{
		Backend:    b,
		Cache:      newTestCache(t),
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}
}

func TestTokenOnlyLiteralNeverReachesBackend(t *testing.T) {
	backend := &fakeBackend{fn: func(string) (string, error) {
		return "", errors.New("must not be called")
	}}
	eng := NewEngine(testOptions(t, backend))

	for _, lit := range []string{"%d\\n", "", "   ", "{FF0000}%s"} {
		res, err := eng.Translate(context.Background(), lit)
		if err != nil {
			t.Fatalf("Translate(%q) error: %v", lit, err)
		}
		if res.Outcome != OutcomeSkipped {
			t.Errorf("Translate(%q) outcome = %v, want skipped", lit, res.Outcome)
		}
		if got := res.Masked.Unmask(res.Text); got != lit {
			t.Errorf("Translate(%q) output = %q, want input unchanged", lit, got)
		}
	}
	if backend.calls != 0 {
		t.Fatalf("backend called %d times for untranslatable literals", backend.calls)
	}
}

func TestCacheIdempotenceWithinRun(t *testing.T) {
	backend := &fakeBackend{fn: func(text string) (string, error) {
		return strings.ReplaceAll(text, "Привет", "Hello"), nil
	}}
	eng := NewEngine(testOptions(t, backend))

	first, err := eng.Translate(context.Background(), "Привет")
	if err != nil {
		t.Fatal(err)
	}
	if first.Outcome != OutcomeTranslated {
		t.Fatalf("first outcome = %v", first.Outcome)
	}

	second, err := eng.Translate(context.Background(), "Привет")
	if err != nil {
		t.Fatal(err)
	}
	if second.Outcome != OutcomeCached {
		t.Fatalf("second outcome = %v, want cached", second.Outcome)
	}
	if second.Text != first.Text {
		t.Fatalf("cached text %q != translated text %q", second.Text, first.Text)
	}
	if backend.calls != 1 {
		t.Fatalf("backend calls = %d, want 1", backend.calls)
	}
}

func TestCacheIdempotenceAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	backend := &fakeBackend{fn: func(text string) (string, error) {
		return "Hello", nil
	}}

	c1, err := cache.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	eng1 := NewEngine(Options{Backend: backend, Cache: c1, MaxRetries: 1, RetryDelay: time.Millisecond})
	if _, err := eng1.Translate(context.Background(), "Привет"); err != nil {
		t.Fatal(err)
	}

	// Second run: fresh cache object from the same file, backend must stay idle.
	c2, err := cache.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	eng2 := NewEngine(Options{Backend: backend, Cache: c2, MaxRetries: 1, RetryDelay: time.Millisecond})
	res, err := eng2.Translate(context.Background(), "Привет")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeCached {
		t.Fatalf("outcome = %v, want cached", res.Outcome)
	}
	if backend.calls != 1 {
		t.Fatalf("backend calls = %d, want 1 across two runs", backend.calls)
	}
}

func TestTransientFailureIsRetriedThenSucceeds(t *testing.T) {
	fails := 2
	backend := &fakeBackend{fn: func(text string) (string, error) {
		if fails > 0 {
			fails--
			return "", &gtrans.TransientError{Err: errors.New("connection reset")}
		}
		return "Hello", nil
	}}

	opts := testOptions(t, backend)
	opts.MaxRetries = 3
	eng := NewEngine(opts)

	res, err := eng.Translate(context.Background(), "Привет")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeTranslated {
		t.Fatalf("outcome = %v, want translated", res.Outcome)
	}
	if backend.calls != 3 {
		t.Fatalf("backend calls = %d, want 3", backend.calls)
	}
}

func TestExhaustedRetriesDegradeGracefully(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "failed.txt")

	backend := &fakeBackend{fn: func(string) (string, error) {
		return "", &gtrans.TransientError{Err: errors.New("no route to host")}
	}}
	opts := testOptions(t, backend)
	opts.MaxRetries = 3
	opts.FailureLog = NewFailureLog(logPath)
	eng := NewEngine(opts)

	res, err := eng.Translate(context.Background(), "Привет %d мир")
	if err != nil {
		t.Fatalf("a failed literal must not abort the run: %v", err)
	}
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", res.Outcome)
	}
	if backend.calls != 3 {
		t.Fatalf("backend calls = %d, want 3", backend.calls)
	}
	if got := res.Masked.Unmask(res.Text); got != "Привет %d мир" {
		t.Fatalf("failed literal output = %q, want original", got)
	}

	// The original unmasked literal is in the failure log.
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failure log missing: %v", err)
	}
	if !strings.Contains(string(data), "Привет %d мир") {
		t.Fatalf("failure log = %q, want the original literal", string(data))
	}

	n, err := CountFailures(logPath)
	if err != nil || n != 1 {
		t.Fatalf("CountFailures = %d, %v", n, err)
	}
}

func TestEmptyBackendResultIsNeverCachedOrSpliced(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "failed.txt")

	backend := &fakeBackend{fn: func(string) (string, error) {
		return "", nil
	}}
	opts := testOptions(t, backend)
	opts.FailureLog = NewFailureLog(logPath)
	eng := NewEngine(opts)

	res, err := eng.Translate(context.Background(), "Привет {COLOR}мир%d")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", res.Outcome)
	}
	if backend.calls != 2 {
		t.Fatalf("backend calls = %d, want every attempt consumed", backend.calls)
	}
	if got := res.Masked.Unmask(res.Text); got != "Привет {COLOR}мир%d" {
		t.Fatalf("output = %q, want the original literal with its tokens", got)
	}
	if v, ok := opts.Cache.Get(res.Masked.Text); ok {
		t.Fatalf("empty translation cached as %q", v)
	}
	if n, _ := CountFailures(logPath); n != 1 {
		t.Fatalf("CountFailures = %d, want 1", n)
	}
}

func TestSessionLimitDefersNewTranslations(t *testing.T) {
	backend := &fakeBackend{fn: func(string) (string, error) {
		return "Hello", nil
	}}
	opts := testOptions(t, backend)
	opts.SessionLimit = 1
	eng := NewEngine(opts)

	if _, err := eng.Translate(context.Background(), "первая строка"); err != nil {
		t.Fatal(err)
	}
	res, err := eng.Translate(context.Background(), "вторая строка")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeDeferred {
		t.Fatalf("outcome = %v, want deferred", res.Outcome)
	}
	if backend.calls != 1 {
		t.Fatalf("backend calls = %d, want 1", backend.calls)
	}

	// Cached entries are still served after the limit is hit.
	again, err := eng.Translate(context.Background(), "первая строка")
	if err != nil {
		t.Fatal(err)
	}
	if again.Outcome != OutcomeCached {
		t.Fatalf("outcome = %v, want cached", again.Outcome)
	}
}

func TestCancellationAbortsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := &fakeBackend{fn: func(string) (string, error) {
		cancel()
		return "", &gtrans.TransientError{Err: errors.New("reset")}
	}}
	eng := NewEngine(testOptions(t, backend))

	_, err := eng.Translate(ctx, "Привет")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRunDocumentEndToEnd(t *testing.T) {
	src := `SendClientMessage(playerid, -1, "Привет {COLOR}мир%d"); // "коммент"`
	doc := &pawnfile.Document{Text: src, Literals: pawnfile.Scan(src)}

	wantMasked := "Привет " + mask.Marker(0) + "мир" + mask.Marker(1)
	backend := &fakeBackend{fn: func(text string) (string, error) {
		if text != wantMasked {
			t.Errorf("backend received %q, want %q", text, wantMasked)
		}
		return "Hello " + mask.Marker(0) + "world" + mask.Marker(1), nil
	}}

	out, sum, err := RunDocument(context.Background(), doc, testOptions(t, backend))
	if err != nil {
		t.Fatal(err)
	}
	want := `SendClientMessage(playerid, -1, "Hello {COLOR}world%d"); // "коммент"`
	if out != want {
		t.Fatalf("RunDocument output:\n got %q\nwant %q", out, want)
	}
	if sum.Translated != 1 || sum.Total != 1 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestRunDocumentKeepsOriginalOnFailure(t *testing.T) {
	src := `a("Привет"); b("%d\n"); c("mixed Привет %s");`
	doc := &pawnfile.Document{Text: src, Literals: pawnfile.Scan(src)}

	backend := &fakeBackend{fn: func(string) (string, error) {
		return "", &gtrans.TransientError{Err: errors.New("down")}
	}}
	opts := testOptions(t, backend)
	opts.FailureLog = NewFailureLog(filepath.Join(t.TempDir(), "failed.txt"))

	out, sum, err := RunDocument(context.Background(), doc, opts)
	if err != nil {
		t.Fatal(err)
	}
	if out != src {
		t.Fatalf("document changed despite failures:\n got %q\nwant %q", out, src)
	}
	if sum.Failed != 2 || sum.Skipped != 1 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestRunDocumentProgress(t *testing.T) {
	src := `a("раз"); b("два");`
	doc := &pawnfile.Document{Text: src, Literals: pawnfile.Scan(src)}

	backend := &fakeBackend{fn: func(string) (string, error) { return "x", nil }}
	opts := testOptions(t, backend)

	var ticks []int
	opts.OnProgress = func(done, total int) {
		if total != 2 {
			t.Errorf("total = %d, want 2", total)
		}
		ticks = append(ticks, done)
	}

	if _, _, err := RunDocument(context.Background(), doc, opts); err != nil {
		t.Fatal(err)
	}
	if len(ticks) != 2 || ticks[0] != 1 || ticks[1] != 2 {
		t.Fatalf("progress ticks = %v", ticks)
	}
}

func TestCollapseLineBreaks(t *testing.T) {
	cases := []struct{ in, want string }{
		{"одна строка", "одна строка"},
		{"first\nsecond", "first second"},
		{"first\\\n   second", "first second"},
		{"first \r\n second", "first second"},
	}
	for _, tc := range cases {
		if got := collapseLineBreaks(tc.in); got != tc.want {
			t.Errorf("collapseLineBreaks(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestContainsCyrillic(t *testing.T) {
	if !ContainsCyrillic("abc д") {
		t.Error("Cyrillic not detected")
	}
	if ContainsCyrillic("plain ascii %d " + mask.Marker(3)) {
		t.Error("false positive on markers and ascii")
	}
}

func TestNeedsTranslationFor(t *testing.T) {
	cases := []struct {
		lang, text string
		want       bool
	}{
		{"ru", "Привет " + mask.Marker(0), true},
		{"ru", "already English", false},
		{"ru-RU", "Привет", true},
		{"RU", "Привет", true},
		{"el", "Καλημέρα", true},
		{"el", "good morning", false},
		{"ja", "こんにちは", true},
		{"ja", "hello", false},
		// Latin-script source: anything with letters may need translating,
		// marker-only and numeric literals still never do.
		{"de", "Hallo Welt", true},
		{"de", mask.Marker(0) + " 123 %", false},
		{"de", "", false},
	}

	for _, tc := range cases {
		needs := NeedsTranslationFor(tc.lang)
		if got := needs(tc.text); got != tc.want {
			t.Errorf("NeedsTranslationFor(%q)(%q) = %v, want %v", tc.lang, tc.text, got, tc.want)
		}
	}
}

func TestNonCyrillicSourceReachesBackend(t *testing.T) {
	backend := &fakeBackend{fn: func(text string) (string, error) {
		return "Hello world", nil
	}}
	opts := testOptions(t, backend)
	opts.NeedsTranslation = NeedsTranslationFor("de")
	eng := NewEngine(opts)

	res, err := eng.Translate(context.Background(), "Hallo Welt")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeTranslated {
		t.Fatalf("outcome = %v, want translated", res.Outcome)
	}
	if backend.calls != 1 {
		t.Fatalf("backend calls = %d, want 1", backend.calls)
	}
}
