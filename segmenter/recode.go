package segmenter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/corpuskit/lttl/corpus"
	"github.com/corpuskit/lttl/errs"
)

// CaseChange selects the case-folding step of Recode, applied before
// accent stripping and substitutions.
type CaseChange int

const (
	NoCaseChange CaseChange = iota
	Lower
	Upper
)

// Substitution is one (pattern, replacement) step of a Recode pipeline.
// Replacement uses the "&N" backreference dialect shared with Tokenize;
// Recode translates it to Go's "$N" before calling regexp.ReplaceAllString.
type Substitution struct {
	Regex       *regexp.Regexp
	Replacement string
}

// RecodeOptions configures Recode.
type RecodeOptions struct {
	CaseChange      CaseChange
	StripAccents    bool
	Substitutions   []Substitution
	CopyAnnotations bool
}

var dollarBackrefPattern = regexp.MustCompile(`&([0-9]+)`)

func translateBackrefs(replacement string) string {
	return dollarBackrefPattern.ReplaceAllString(replacement, "$$${1}")
}

var stripCombining = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func stripAccents(s string) string {
	out, _, err := transform.String(stripCombining, s)
	if err != nil {
		return s
	}
	return out
}

func applyRecodePipeline(content string, opts RecodeOptions) string {
	recoded := content
	switch opts.CaseChange {
	case Lower:
		recoded = strings.ToLower(recoded)
	case Upper:
		recoded = strings.ToUpper(recoded)
	}
	if opts.StripAccents {
		recoded = stripAccents(recoded)
	}
	for _, sub := range opts.Substitutions {
		recoded = sub.Regex.ReplaceAllString(recoded, translateBackrefs(sub.Replacement))
	}
	return recoded
}

// Recode applies opts' case-change/accent-stripping/substitution pipeline
// to every segment of input. A segment whose text actually changed gets a
// fresh backing string and a fresh segment over it; a segment left
// unchanged instead gets a segment over a *redirect* store entry pointing
// at its original string, so RealStrIndex can still recover the original
// even though the segment's own str_index differs from it. Consecutive
// unchanged segments sharing an original str_index share one redirect
// entry rather than minting a new one each time.
//
// input must be non-overlapping: recoding an overlapping segmentation
// would duplicate characters into the new backing strings.
func Recode(store *corpus.Store, input *corpus.Segmentation, label string, opts RecodeOptions) (*corpus.Segmentation, error) {
	nonOverlapping, err := input.IsNonOverlapping()
	if err != nil {
		return nil, err
	}
	if !nonOverlapping {
		return nil, errs.ConfigurationErrorf("recode: input segmentation is overlapping")
	}

	out := corpus.NewSegmentation(store, label)

	haveRun := false
	lastOriginal := -1
	var runRedirect int

	err = input.ForEach(func(_ int, seg corpus.Segment) error {
		content, err := corpus.Content(store, seg)
		if err != nil {
			return err
		}
		recoded := applyRecodePipeline(content, opts)

		var ann map[string]string
		if opts.CopyAnnotations {
			ann = make(map[string]string, len(seg.Annotations))
			for k, v := range seg.Annotations {
				ann[k] = v
			}
		} else {
			ann = map[string]string{}
		}

		if recoded != content {
			haveRun = false
			newIdx := store.AppendString(recoded)
			return out.Append(corpus.Segment{StrIndex: newIdx, Start: corpus.Unset, End: corpus.Unset, Annotations: ann})
		}

		if !haveRun || lastOriginal != seg.StrIndex {
			runRedirect = store.AppendRedirect(seg.StrIndex)
			lastOriginal = seg.StrIndex
			haveRun = true
		}
		return out.Append(corpus.Segment{StrIndex: runRedirect, Start: seg.Start, End: seg.End, Annotations: ann})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
