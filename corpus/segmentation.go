package corpus

import (
	"runtime"
	"sort"

	farm "github.com/dgryski/go-farm"

	"github.com/corpuskit/lttl/errs"
)

type annoPair struct {
	Key, Value string
}

// Segmentation is an ordered sequence of segments, plus a str_index_ptr map
// giving the position of the first segment bearing each str_index. Most of
// a Segmentation's segments live in fixed-size sealed pages owned by the
// process-wide pager (see pager.go); the tail not yet sealed lives boxed in
// buffer. A Segmentation must be released with Close (or left to the
// finalizer) so its pages and any spill files are reclaimed.
type Segmentation struct {
	id    uint64
	store *Store
	label string

	buffer      []Segment
	sealedCount int
	total       int

	strIndexPtr map[int]int

	keyToID map[uint64][]int
	idToKey []annoPair
}

// NewSegmentation returns an empty segmentation backed by store.
func NewSegmentation(store *Store, label string) *Segmentation {
	sg := &Segmentation{
		id:          nextSegID(),
		store:       store,
		label:       label,
		strIndexPtr: map[int]int{},
		keyToID:     map[uint64][]int{},
	}
	runtime.SetFinalizer(sg, (*Segmentation).finalize)
	return sg
}

// NewSegmentationFromSegments builds a segmentation directly from a slice
// of segments, computing str_index_ptr up front. The segments are kept in
// the boxed buffer rather than immediately sealed into pages, mirroring the
// reference implementation's "from a list" constructor.
func NewSegmentationFromSegments(store *Store, segments []Segment, label string) *Segmentation {
	sg := NewSegmentation(store, label)
	sg.buffer = append([]Segment(nil), segments...)
	sg.total = len(segments)
	sg.strIndexPtr = buildStrIndexPtr(segments, nil, 0)
	return sg
}

func buildStrIndexPtr(segments []Segment, beforeFirst *Segment, offset int) map[int]int {
	ptr := map[int]int{}
	lastSeen := beforeFirst
	for i, s := range segments {
		if _, seen := ptr[s.StrIndex]; !seen && (lastSeen == nil || s.StrIndex != lastSeen.StrIndex) {
			ptr[s.StrIndex] = i + offset
		}
		seg := s
		lastSeen = &seg
	}
	return ptr
}

func (sg *Segmentation) finalize() {
	defaultPager.removeAll(sg.id)
}

// Close releases every page (and spill file) owned by this segmentation
// immediately, without waiting for garbage collection.
func (sg *Segmentation) Close() {
	defaultPager.removeAll(sg.id)
	runtime.SetFinalizer(sg, nil)
}

// Label returns the segmentation's label.
func (sg *Segmentation) Label() string { return sg.label }

// Store returns the backing string store this segmentation's segments
// refer into.
func (sg *Segmentation) Store() *Store { return sg.store }

// Len returns the number of segments in the segmentation.
func (sg *Segmentation) Len() int { return sg.total }

func (sg *Segmentation) strIndexFirst(strIndex int) (int, bool) {
	v, ok := sg.strIndexPtr[strIndex]
	return v, ok
}

func (sg *Segmentation) strIndexPtrSnapshot() map[int]int {
	return sg.strIndexPtr
}

func (sg *Segmentation) farmHashAnnotation(key, value string) uint64 {
	buf := make([]byte, 0, len(key)+len(value)+1)
	buf = append(buf, key...)
	buf = append(buf, 0)
	buf = append(buf, value...)
	return farm.Hash64WithSeed(buf, 0)
}

func (sg *Segmentation) internAnnotationTuple(key, value string) int {
	h := sg.farmHashAnnotation(key, value)
	for _, id := range sg.keyToID[h] {
		p := sg.idToKey[id]
		if p.Key == key && p.Value == value {
			return id
		}
	}
	id := len(sg.idToKey)
	sg.idToKey = append(sg.idToKey, annoPair{Key: key, Value: value})
	sg.keyToID[h] = append(sg.keyToID[h], id)
	return id
}

func (sg *Segmentation) internAnnotations(m map[string]string) []int32 {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ids := make([]int32, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, int32(sg.internAnnotationTuple(k, m[k])))
	}
	return ids
}

func (sg *Segmentation) decodeAnnotations(ids []int32) map[string]string {
	m := make(map[string]string, len(ids))
	for _, id := range ids {
		p := sg.idToKey[id]
		m[p.Key] = p.Value
	}
	return m
}

// pageOf reconstructs the boxed Segment at sealed position i (i must be <
// sg.sealedCount).
func (sg *Segmentation) pageOf(i int) (Segment, error) {
	pageID := i/ChunkSize + 1
	pg, ok, err := defaultPager.get(pageKey{sg.id, pageID})
	if err != nil {
		return Segment{}, err
	}
	if !ok {
		return Segment{}, errs.RangeErrorf("segmentation: missing page %d for segment %d", pageID, i)
	}
	within := i % ChunkSize
	t := pg.triples[within]
	var ann map[string]string
	if within < len(pg.annIDs) && pg.annIDs[within] != nil {
		ann = sg.decodeAnnotations(pg.annIDs[within])
	} else {
		ann = map[string]string{}
	}
	return Segment{
		StrIndex:    int(t.StrIndex),
		Start:       unpackOffset(t.Start),
		End:         unpackOffset(t.End),
		Annotations: ann,
	}, nil
}

// Get returns a detached copy of the segment at position i. Negative
// indices count from the end.
func (sg *Segmentation) Get(i int) (Segment, error) {
	if i < 0 {
		i += sg.total
	}
	if i < 0 || i >= sg.total {
		return Segment{}, errs.RangeErrorf("segmentation: index %d out of bounds (len %d)", i, sg.total)
	}
	if i >= sg.sealedCount {
		return sg.buffer[i-sg.sealedCount].Deepcopy(nil, true), nil
	}
	return sg.pageOf(i)
}

// ForEach calls fn with the index and a detached copy of every segment, in
// order, stopping (and returning the error) if fn returns one.
func (sg *Segmentation) ForEach(fn func(i int, seg Segment) error) error {
	for i := 0; i < sg.total; i++ {
		seg, err := sg.Get(i)
		if err != nil {
			return err
		}
		if err := fn(i, seg); err != nil {
			return err
		}
	}
	return nil
}

// All materializes every segment into a slice. Prefer ForEach for large
// segmentations that may be paged to disk.
func (sg *Segmentation) All() ([]Segment, error) {
	out := make([]Segment, 0, sg.total)
	err := sg.ForEach(func(_ int, seg Segment) error {
		out = append(out, seg)
		return nil
	})
	return out, err
}

func (sg *Segmentation) seal() error {
	if sg.sealedCount%ChunkSize != 0 && sg.sealedCount > 0 {
		lastPageID := sg.sealedCount/ChunkSize + 1
		pg, ok, err := defaultPager.get(pageKey{sg.id, lastPageID})
		if err != nil {
			return err
		}
		if ok {
			prefix := make([]Segment, len(pg.triples))
			for idx, t := range pg.triples {
				var ann map[string]string
				if idx < len(pg.annIDs) && pg.annIDs[idx] != nil {
					ann = sg.decodeAnnotations(pg.annIDs[idx])
				} else {
					ann = map[string]string{}
				}
				prefix[idx] = Segment{StrIndex: int(t.StrIndex), Start: unpackOffset(t.Start), End: unpackOffset(t.End), Annotations: ann}
			}
			sg.buffer = append(prefix, sg.buffer...)
			sg.sealedCount -= len(prefix)
		}
	}

	n := len(sg.buffer)
	if n > ChunkSize {
		n = ChunkSize
	}
	triples := make([]tripleRec, n)
	annIDs := make([][]int32, n)
	for idx := 0; idx < n; idx++ {
		s := sg.buffer[idx]
		triples[idx] = tripleRec{StrIndex: int32(s.StrIndex), Start: packOffset(s.Start), End: packOffset(s.End)}
		annIDs[idx] = sg.internAnnotations(s.Annotations)
	}
	pageID := sg.sealedCount/ChunkSize + 1
	if err := defaultPager.set(pageKey{sg.id, pageID}, &page{triples: triples, annIDs: annIDs}); err != nil {
		return err
	}
	sg.buffer = sg.buffer[n:]
	sg.sealedCount += n
	return nil
}

// Append adds one segment to the end of the segmentation.
func (sg *Segmentation) Append(seg Segment) error {
	if _, seen := sg.strIndexPtr[seg.StrIndex]; !seen {
		sg.strIndexPtr[seg.StrIndex] = sg.total
	}
	sg.buffer = append(sg.buffer, seg)
	sg.total++
	if len(sg.buffer) >= ChunkSize {
		return sg.seal()
	}
	return nil
}

// Extend appends a batch of segments in order.
func (sg *Segmentation) Extend(segs []Segment) error {
	if len(segs) == 0 {
		return nil
	}
	var newPtrs map[int]int
	if sg.total > 0 {
		last, err := sg.Get(sg.total - 1)
		if err != nil {
			return err
		}
		newPtrs = buildStrIndexPtr(segs, &last, sg.total)
	} else {
		newPtrs = buildStrIndexPtr(segs, nil, 0)
	}
	// Existing first-appearance positions always take precedence over ones
	// recomputed for the freshly appended tail.
	for k, v := range sg.strIndexPtr {
		newPtrs[k] = v
	}
	sg.strIndexPtr = newPtrs
	sg.buffer = append(sg.buffer, segs...)
	sg.total += len(segs)
	for len(sg.buffer) >= ChunkSize {
		if err := sg.seal(); err != nil {
			return err
		}
	}
	return nil
}

// SetLast replaces the final segment of the segmentation with seg. It is
// used by Segmenter transforms that merge a freshly produced segment into
// the one just appended (merge_duplicates); seg must share its str_index
// with the segment it replaces, since str_index_ptr is not recomputed.
func (sg *Segmentation) SetLast(seg Segment) error {
	if sg.total == 0 {
		return errs.RangeErrorf("segmentation: SetLast on an empty segmentation")
	}
	i := sg.total - 1
	if i >= sg.sealedCount {
		sg.buffer[i-sg.sealedCount] = seg
		return nil
	}
	pageID := i / ChunkSize + 1
	pg, ok, err := defaultPager.get(pageKey{sg.id, pageID})
	if err != nil {
		return err
	}
	if !ok {
		return errs.RangeErrorf("segmentation: missing page %d for segment %d", pageID, i)
	}
	within := i % ChunkSize
	pg.triples[within] = tripleRec{StrIndex: int32(seg.StrIndex), Start: packOffset(seg.Start), End: packOffset(seg.End)}
	pg.annIDs[within] = sg.internAnnotations(seg.Annotations)
	return defaultPager.set(pageKey{sg.id, pageID}, pg)
}

// GetAnnotationKeys returns the sorted union of annotation keys used by any
// segment in the segmentation.
func (sg *Segmentation) GetAnnotationKeys() ([]string, error) {
	keys := map[string]struct{}{}
	err := sg.ForEach(func(_ int, seg Segment) error {
		for k := range seg.Annotations {
			keys[k] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// Sort returns a segmentation whose segments are ordered by
// (str_index, start, end), preserving relative order for ties. If the
// receiver is already in that order, Sort returns it unchanged (it does not
// copy).
func (sg *Segmentation) Sort() (*Segmentation, error) {
	keys := make([]int, 0, len(sg.strIndexPtr))
	for k := range sg.strIndexPtr {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	alreadySorted := true
	last := 0
	for _, k := range keys {
		if sg.strIndexPtr[k] < last {
			alreadySorted = false
		}
		last = sg.strIndexPtr[k]
	}
	if alreadySorted {
		return sg, nil
	}

	sorted := NewSegmentation(sg.store, sg.label)
	for _, k := range keys {
		i := sg.strIndexPtr[k]
		for {
			seg, err := sg.Get(i)
			if err != nil {
				break
			}
			if seg.StrIndex != k {
				break
			}
			if err := sorted.Append(seg); err != nil {
				return nil, err
			}
			i++
			if i >= sg.total {
				break
			}
		}
	}
	return sorted, nil
}

// IsNonOverlapping reports whether no two segments of the segmentation
// address overlapping ranges of the same backing string. It sorts first
// (per Sort's semantics above), then sweeps the sorted order once: since
// segments sharing a str_index are then ascending by start, two segments
// overlap overall iff some consecutive pair within the same str_index run
// does, which is equivalent to or more efficient than (but never weaker
// than) the reference implementation's full pairwise sweep.
func (sg *Segmentation) IsNonOverlapping() (bool, error) {
	sorted, err := sg.Sort()
	if err != nil {
		return false, err
	}
	n := sorted.Len()
	if n < 2 {
		return true, nil
	}
	prev, err := sorted.Get(0)
	if err != nil {
		return false, err
	}
	prevStr, err := sg.store.Resolve(prev.StrIndex)
	if err != nil {
		return false, err
	}
	prevEnd := prev.effectiveEnd(len(prevStr))
	for i := 1; i < n; i++ {
		cur, err := sorted.Get(i)
		if err != nil {
			return false, err
		}
		if cur.StrIndex == prev.StrIndex && cur.effectiveStart() < prevEnd {
			return false, nil
		}
		curStr, err := sg.store.Resolve(cur.StrIndex)
		if err != nil {
			return false, err
		}
		prev = cur
		prevEnd = cur.effectiveEnd(len(curStr))
	}
	return true, nil
}
