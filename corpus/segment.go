package corpus

import "github.com/corpuskit/lttl/errs"

// Unset is the sentinel value for an absent Start or End offset. Offsets
// are UTF-8 byte offsets into the resolved string (not codepoint offsets):
// Go's regexp and string slicing are byte-indexed, and segments are almost
// always produced from regexp matches, so byte offsets let every Segmenter
// operation avoid a rune<->byte translation at each step.
const Unset = -1

// Segment is a (str_index, start, end) view into a Store, plus arbitrary
// string-valued annotations. Compare segments with Equal (see its doc for
// how offsets are compared), not ==, since Annotations is a map.
type Segment struct {
	StrIndex    int
	Start       int // Unset means "from the beginning"
	End         int // Unset means "to the end of the resolved string"
	Annotations map[string]string
}

// NewSegment builds a segment with Unset bounds (the whole resolved
// string) and no annotations.
func NewSegment(strIndex int) Segment {
	return Segment{StrIndex: strIndex, Start: Unset, End: Unset, Annotations: map[string]string{}}
}

func (seg Segment) effectiveStart() int {
	if seg.Start == Unset {
		return 0
	}
	return seg.Start
}

func (seg Segment) effectiveEnd(strLen int) int {
	if seg.End == Unset {
		return strLen
	}
	return seg.End
}

// EffectiveStart is effectiveStart exported for other packages (e.g.
// processor's concordance view) that need a segment's materialized start
// without resolving its string.
func (seg Segment) EffectiveStart() int {
	return seg.effectiveStart()
}

// EffectiveEnd is effectiveEnd exported for other packages; strLen is the
// length of seg's resolved string.
func (seg Segment) EffectiveEnd(strLen int) int {
	return seg.effectiveEnd(strLen)
}

// Equal reports whether two segments share a str_index and range, ignoring
// annotations. Start is compared after materializing Unset to 0; End is
// compared as stored, so an Unset End and an explicit End equal to the
// string's length compare unequal.
func (seg Segment) Equal(other Segment) bool {
	return seg.StrIndex == other.StrIndex &&
		seg.effectiveStart() == other.effectiveStart() &&
		seg.End == other.End
}

// RealStrIndex dereferences a single store redirect hop, letting downstream
// code recover the original string behind a recoded-but-unchanged segment.
func (seg Segment) RealStrIndex(store *Store) int {
	return store.RealIndex(seg.StrIndex)
}

// Content returns the substring this segment addresses.
func Content(store *Store, seg Segment) (string, error) {
	str, err := store.Resolve(seg.StrIndex)
	if err != nil {
		return "", err
	}
	start := seg.effectiveStart()
	end := seg.effectiveEnd(len(str))
	if start < 0 || end > len(str) || start > end {
		return "", errs.RangeErrorf("segment: invalid range [%d,%d) over string of length %d", start, end, len(str))
	}
	return str[start:end], nil
}

// Contains reports whether other is fully covered by seg: same resolved
// string, and other's materialized range is inside seg's.
func Contains(store *Store, seg, other Segment) bool {
	if seg.StrIndex != other.StrIndex {
		return false
	}
	if seg.effectiveStart() > other.effectiveStart() {
		return false
	}
	strLen, err := store.Resolve(seg.StrIndex)
	if err != nil {
		return false
	}
	n := len(strLen)
	return seg.effectiveEnd(n) >= other.effectiveEnd(n)
}

// Deepcopy returns a copy of seg. When update is true, annotations is
// merged on top of a copy of seg's existing annotations (later wins on key
// conflict); when update is false, annotations (or nil, for none) replaces
// them outright.
func (seg Segment) Deepcopy(annotations map[string]string, update bool) Segment {
	var merged map[string]string
	if update {
		merged = make(map[string]string, len(seg.Annotations)+len(annotations))
		for k, v := range seg.Annotations {
			merged[k] = v
		}
		for k, v := range annotations {
			merged[k] = v
		}
	} else if annotations == nil {
		merged = map[string]string{}
	} else {
		merged = make(map[string]string, len(annotations))
		for k, v := range annotations {
			merged[k] = v
		}
	}
	return Segment{StrIndex: seg.StrIndex, Start: seg.Start, End: seg.End, Annotations: merged}
}

// GetContainedSegmentIndices returns the indices, within segmentation, of
// segments whose resolved string equals seg's and whose materialized range
// lies within seg's. It never scans every segment: it relies on
// segmentation's str_index_ptr plus a binary search over the ascending
// (start) ordering within the contiguous run of matching str_index. If
// seg's str_index has no entry in segmentation (or any index access along
// the way fails), it returns nil rather than propagating an error, matching
// the reference implementation's deliberate fallback.
func GetContainedSegmentIndices(store *Store, seg Segment, segmentation *Segmentation) []int {
	strIndex := seg.StrIndex
	start := seg.effectiveStart()
	str, err := store.Resolve(strIndex)
	if err != nil {
		return nil
	}
	strLen := len(str)
	end := seg.effectiveEnd(strLen)

	startSearch, ok := segmentation.strIndexFirst(strIndex)
	if !ok {
		return nil
	}
	total := segmentation.Len()
	endSearch := total
	for _, v := range segmentation.strIndexPtrSnapshot() {
		if v > startSearch && v < endSearch {
			endSearch = v
		}
	}

	for endSearch-startSearch > 1 {
		mid := (endSearch + startSearch) / 2
		midSeg, err := segmentation.Get(mid)
		if err != nil {
			return nil
		}
		if midSeg.effectiveStart() >= start {
			endSearch = mid
		} else {
			startSearch = mid
		}
	}
	firstSeg, err := segmentation.Get(startSearch)
	if err != nil {
		return nil
	}
	if firstSeg.effectiveStart() >= start {
		// The binary search always lands one position before the first
		// in-range segment; back up once more so the loop below starts on
		// the right index even when that very first segment qualifies.
		startSearch--
	}

	var ret []int
	for i := startSearch + 1; i < total; i++ {
		cur, err := segmentation.Get(i)
		if err != nil {
			break
		}
		if cur.StrIndex != strIndex || cur.effectiveStart() > end {
			break
		}
		curEnd := cur.effectiveEnd(strLen)
		if end >= curEnd {
			ret = append(ret, i)
		}
	}
	return ret
}

// GetContainedSegments is GetContainedSegmentIndices, dereferenced to
// detached Segment copies.
func GetContainedSegments(store *Store, seg Segment, segmentation *Segmentation) []Segment {
	indices := GetContainedSegmentIndices(store, seg, segmentation)
	if len(indices) == 0 {
		return nil
	}
	out := make([]Segment, 0, len(indices))
	for _, i := range indices {
		s, err := segmentation.Get(i)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

// GetContainedSequenceIndices returns, among the indices contained in seg,
// the start of every run of `length` indices that are contiguous in
// segmentation's underlying sequence.
func GetContainedSequenceIndices(store *Store, seg Segment, segmentation *Segmentation, length int) []int {
	contained := GetContainedSegmentIndices(store, seg, segmentation)
	if len(contained) == 0 {
		return nil
	}
	var result []int
	runStart := 0
	for i := 1; i <= len(contained); i++ {
		if i == len(contained) || contained[i] != contained[i-1]+1 {
			run := contained[runStart:i]
			for idx := 0; idx+length <= len(run); idx++ {
				result = append(result, run[idx])
			}
			runStart = i
		}
	}
	return result
}
