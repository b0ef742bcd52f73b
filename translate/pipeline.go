package translate

import (
	"context"
	"regexp"

	"github.com/samp-tools/pwnlate/pawnfile"
)

// Summary aggregates per-literal outcomes for one run.
type Summary struct {
	Total      int
	Translated int
	Cached     int
	Skipped    int
	Deferred   int
	Failed     int
}

func (s *Summary) count(o Outcome) {
	switch o {
	case OutcomeTranslated:
		s.Translated++
	case OutcomeCached:
		s.Cached++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeDeferred:
		s.Deferred++
	case OutcomeFailed:
		s.Failed++
	}
}

// continuationRun matches a raw line break, together with an optional
// continuation backslash and surrounding indentation. Real line breaks from
// the source are masked before translation, so any raw break in backend
// output was introduced by the engine itself.
var continuationRun = regexp.MustCompile(`\\?[ \t]*\r?\n[ \t]*`)

// collapseLineBreaks joins backend-introduced line breaks in translated
// masked text into single spaces. Untranslated text never passes through
// here, so the mask round-trip identity is unaffected.
func collapseLineBreaks(s string) string {
	return continuationRun.ReplaceAllString(s, " ")
}

// RunDocument translates every literal of doc and returns the final document
// text with translations spliced in. Literals that were skipped, deferred,
// or failed keep their original text. The only error a run can return is
// context cancellation; everything else degrades to per-literal outcomes.
func RunDocument(ctx context.Context, doc *pawnfile.Document, opts Options) (string, *Summary, error) {
	eng := NewEngine(opts)
	sum := &Summary{Total: len(doc.Literals)}
	replacements := make(map[int]string)

	for i, lit := range doc.Literals {
		res, err := eng.Translate(ctx, lit.Text)
		if err != nil {
			return "", sum, err
		}
		sum.count(res.Outcome)

		switch res.Outcome {
		case OutcomeTranslated, OutcomeCached:
			final := res.Masked.Unmask(res.Text)
			replacements[i] = pawnfile.EscapeForPawn(final)
		}

		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(doc.Literals))
		}
	}

	return doc.Render(replacements), sum, nil
}
