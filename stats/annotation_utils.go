package stats

import (
	"fmt"
	"math/rand"
	"unicode/utf8"

	"github.com/corpuskit/lttl/corpus"
)

// GetUnusedCharInSegmentation scans every segment's content (or, if key is
// non-empty, every segment's annotation value for key) and returns the code
// point one past the highest one observed. The result is guaranteed not to
// appear anywhere that was scanned, so it is safe to use as a delimiter
// that can never collide with real content.
func GetUnusedCharInSegmentation(store *corpus.Store, sg *corpus.Segmentation, key string) (rune, error) {
	var max rune = -1
	err := sg.ForEach(func(_ int, seg corpus.Segment) error {
		var text string
		if key == "" {
			c, err := corpus.Content(store, seg)
			if err != nil {
				return err
			}
			text = c
		} else {
			text = seg.Annotations[key]
		}
		for _, r := range text {
			if r > max {
				max = r
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// GenerateRandomAnnotationKey returns a random digit string of the given
// length that is not already used as an annotation key anywhere in sg.
func GenerateRandomAnnotationKey(sg *corpus.Segmentation, length int, rng *rand.Rand) (string, error) {
	existing, err := sg.GetAnnotationKeys()
	if err != nil {
		return "", err
	}
	used := make(map[string]bool, len(existing))
	for _, k := range existing {
		used[k] = true
	}
	for {
		digits := make([]byte, length)
		for i := range digits {
			digits[i] = byte('0' + rng.Intn(10))
		}
		candidate := string(digits)
		if !used[candidate] {
			return candidate, nil
		}
	}
}

// PrependUnitWithCategory returns a copy of seg whose annotation newKey
// holds categoryValue + delim + unitValue, where categoryValue is seg's
// annotation at catKey and unitValue is seg's annotation at unitKey (or its
// resolved content, if unitKey is empty).
func PrependUnitWithCategory(store *corpus.Store, seg corpus.Segment, delim rune, newKey, catKey, unitKey string) (corpus.Segment, error) {
	category := seg.Annotations[catKey]
	var unit string
	if unitKey == "" {
		c, err := corpus.Content(store, seg)
		if err != nil {
			return corpus.Segment{}, err
		}
		unit = c
	} else {
		unit = seg.Annotations[unitKey]
	}
	buf := make([]byte, 0, len(category)+utf8.RuneLen(delim)+len(unit))
	buf = append(buf, category...)
	buf = append(buf, []byte(string(delim))...)
	buf = append(buf, unit...)
	return seg.Deepcopy(map[string]string{newKey: string(buf)}, true), nil
}

// FormatRecodedKey is a convenience used by the variety-per-category
// measure: it produces the same "category<delim>unit" string as
// PrependUnitWithCategory without needing a Segment to attach it to.
func FormatRecodedKey(category string, delim rune, unit string) string {
	return fmt.Sprintf("%s%c%s", category, delim, unit)
}
