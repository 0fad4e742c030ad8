package segmenter

import "github.com/corpuskit/lttl/corpus"

// Bypass returns a deep copy of input under a new label: same segments, in
// the same order, each independently copied (so mutating the copy's
// annotations never affects input's).
func Bypass(store *corpus.Store, input *corpus.Segmentation, label string) (*corpus.Segmentation, error) {
	out := corpus.NewSegmentation(store, label)
	err := input.ForEach(func(_ int, seg corpus.Segment) error {
		return out.Append(seg.Deepcopy(nil, true))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
