package corpus

import (
	"bytes"
	"container/list"
	"encoding/binary"
	"encoding/gob"
	"io/ioutil"
	"sync"
	"sync/atomic"

	"blainsmith.com/go/seahash"
	"github.com/golang/snappy"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/klauspost/compress/flate"
	"github.com/minio/highwayhash"
	"golang.org/x/sys/unix"
	"v.io/x/lib/vlog"

	"github.com/corpuskit/lttl/errs"
)

// ChunkSize is the number of segments sealed into one page. It mirrors
// LTTL's CHUNK_SIZE constant.
var ChunkSize = 1000000

// CacheSize is the number of pages kept resident across the whole process
// before the least-recently-used one is spilled to a temporary file. It
// mirrors LTTL's CACHE_SIZE constant.
var CacheSize = 200

// offsetSentinel encodes an absent Start/End within a sealed page's fixed-
// width triple array (the page format can't store Go's -1 sentinel range,
// so it reuses the reference implementation's "max of the offset type").
const offsetSentinel = int32(1<<31 - 1)

type tripleRec struct {
	StrIndex int32
	Start    int32
	End      int32
}

func packOffset(v int) int32 {
	if v == Unset {
		return offsetSentinel
	}
	return int32(v)
}

func unpackOffset(v int32) int {
	if v == offsetSentinel {
		return Unset
	}
	return int(v)
}

// page is one sealed, fixed-size block of segments: a dense triple array
// plus a parallel array of interned annotation-record id lists.
type page struct {
	triples []tripleRec
	annIDs  [][]int32
}

type pageKey struct {
	segID  uint64
	pageID int
}

// highwayHashKey is a fixed all-zero key: pages are checksummed for
// accidental corruption across the spill/reload round-trip, not signed
// against tampering, so a random per-process key buys nothing and would
// make pages unrecoverable across a process restart that shares no state.
var highwayHashKey = make([]byte, 32)

// pager is the process-wide page cache described by the design: pages are
// addressed by (segmentation identity, page id), a bounded number are kept
// resident, and the rest live compressed and checksummed in temporary
// files. It is intentionally a single global instance, mirroring the
// reference implementation's module-level segments_cache/segments_access_time.
type pager struct {
	mu       sync.Mutex
	resident map[pageKey]*page
	order    *list.List
	elems    map[pageKey]*list.Element
	spilled  map[pageKey]*spillFile
}

type spillFile struct {
	path     string
	checksum [highwayhash.Size]byte

	// contentChecksum guards the decompressed triples+annotation payload,
	// a distinct concern from checksum (which guards the compressed bytes
	// actually read off disk): a codec bug that decompresses cleanly but
	// wrongly would pass the highwayhash check yet still corrupt the page.
	contentChecksum uint64
}

func newPager() *pager {
	return &pager{
		resident: map[pageKey]*page{},
		order:    list.New(),
		elems:    map[pageKey]*list.Element{},
		spilled:  map[pageKey]*spillFile{},
	}
}

var defaultPager = newPager()

var segIDCounter uint64

func nextSegID() uint64 {
	return atomic.AddUint64(&segIDCounter, 1)
}

func (p *pager) touch(key pageKey) {
	if el, ok := p.elems[key]; ok {
		p.order.MoveToFront(el)
		return
	}
	p.elems[key] = p.order.PushFront(key)
}

// evictOneLocked spills the least-recently-used resident page to a
// temporary file, freeing a resident slot. Must be called with p.mu held.
func (p *pager) evictOneLocked() error {
	el := p.order.Back()
	if el == nil {
		return nil
	}
	key := el.Value.(pageKey)
	pg := p.resident[key]
	if pg == nil {
		// Already spilled; nothing resident to evict.
		p.order.Remove(el)
		delete(p.elems, key)
		return nil
	}
	sf, err := spillPage(pg)
	if err != nil {
		return err
	}
	log.Debug.Printf("corpus: spilling page %+v to %s", key, sf.path)
	p.spilled[key] = sf
	delete(p.resident, key)
	p.order.Remove(el)
	delete(p.elems, key)
	return nil
}

// get returns the page for key, transparently reloading it from its spill
// file if necessary. ok is false if no page has ever been stored at key.
func (p *pager) get(key pageKey) (*page, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pg, ok := p.resident[key]; ok {
		p.touch(key)
		return pg, true, nil
	}
	sf, ok := p.spilled[key]
	if !ok {
		return nil, false, nil
	}
	pg, err := loadPage(sf)
	if err != nil {
		return nil, false, err
	}
	for len(p.resident) >= CacheSize {
		if err := p.evictOneLocked(); err != nil {
			return nil, false, err
		}
	}
	delete(p.spilled, key)
	p.resident[key] = pg
	p.touch(key)
	return pg, true, nil
}

// set stores (or replaces) the page at key.
func (p *pager) set(key pageKey, pg *page) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.resident[key]; !ok {
		if sf, ok := p.spilled[key]; ok {
			_ = removeSpillFile(sf)
			delete(p.spilled, key)
		}
		for len(p.resident) >= CacheSize {
			if err := p.evictOneLocked(); err != nil {
				return err
			}
		}
	}
	p.resident[key] = pg
	p.touch(key)
	return nil
}

// removeAll evicts and deletes every page owned by segID, removing any
// backing spill files. It is the pager-level half of a Segmentation's
// cleanup.
func (p *pager) removeAll(segID uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key := range p.resident {
		if key.segID != segID {
			continue
		}
		delete(p.resident, key)
		if el, ok := p.elems[key]; ok {
			p.order.Remove(el)
			delete(p.elems, key)
		}
	}
	for key, sf := range p.spilled {
		if key.segID != segID {
			continue
		}
		_ = removeSpillFile(sf)
		delete(p.spilled, key)
		if el, ok := p.elems[key]; ok {
			p.order.Remove(el)
			delete(p.elems, key)
		}
	}
}

func removeSpillFile(sf *spillFile) error {
	ctx := vcontext.Background()
	return file.Remove(ctx, sf.path)
}

type pageWire struct {
	Triples []tripleRec
	AnnIDs  [][]int32
}

// spillPage serializes a page to a fresh temporary file: the triple array
// is snappy-compressed (it's a dense numeric array, where snappy's
// byte-oriented LZ77 does well), the annotation-id array is separately
// compressed with flate (many short, highly repetitive integer lists,
// where a Huffman-backed codec tends to do better), and the whole payload
// is checksummed with highwayhash so a truncated or corrupted spill file is
// detected on reload rather than silently misread. A second checksum
// (seahash, over the uncompressed payload) is taken before compression and
// re-verified after decompression on reload, catching a codec bug that the
// highwayhash check (which only covers the bytes actually on disk) can't.
func spillPage(pg *page) (*spillFile, error) {
	var triplesBuf bytes.Buffer
	if err := gob.NewEncoder(&triplesBuf).Encode(pg.triples); err != nil {
		return nil, errs.Wrap(err, "corpus: encoding page triples")
	}
	var annBuf bytes.Buffer
	if err := gob.NewEncoder(&annBuf).Encode(pg.annIDs); err != nil {
		return nil, errs.Wrap(err, "corpus: encoding page annotations")
	}

	contentChecksum := seahash.Sum64(append(append([]byte(nil), triplesBuf.Bytes()...), annBuf.Bytes()...))

	triplesCompressed := snappy.Encode(nil, triplesBuf.Bytes())

	var annCompressed bytes.Buffer
	fw, err := flate.NewWriter(&annCompressed, flate.DefaultCompression)
	if err != nil {
		return nil, errs.Wrap(err, "corpus: creating flate writer")
	}
	if _, err := fw.Write(annBuf.Bytes()); err != nil {
		return nil, errs.Wrap(err, "corpus: flate-compressing page annotations")
	}
	if err := fw.Close(); err != nil {
		return nil, errs.Wrap(err, "corpus: closing flate writer")
	}

	var body bytes.Buffer
	writeUvarint(&body, uint64(len(triplesCompressed)))
	body.Write(triplesCompressed)
	writeUvarint(&body, uint64(annCompressed.Len()))
	body.Write(annCompressed.Bytes())

	sum := highwayhash.Sum(body.Bytes(), highwayHashKey)

	ctx := vcontext.Background()
	tmp, err := ioutil.TempFile("", "lttl-page-*.spill")
	if err != nil {
		return nil, errs.Wrap(err, "corpus: creating spill file")
	}
	path := tmp.Name()
	_ = tmp.Close()

	w, err := file.Create(ctx, path)
	if err != nil {
		return nil, errs.Wrap(err, "corpus: opening spill file for write")
	}
	writer := w.Writer(ctx)
	if _, err := writer.Write(body.Bytes()); err != nil {
		_ = w.Close(ctx)
		return nil, errs.Wrap(err, "corpus: writing spill file")
	}
	if f, ok := writer.(interface{ Fd() uintptr }); ok {
		_ = unix.Fsync(int(f.Fd()))
	}
	if err := w.Close(ctx); err != nil {
		return nil, errs.Wrap(err, "corpus: closing spill file")
	}

	return &spillFile{path: path, checksum: sum, contentChecksum: contentChecksum}, nil
}

func loadPage(sf *spillFile) (*page, error) {
	ctx := vcontext.Background()
	r, err := file.Open(ctx, sf.path)
	if err != nil {
		return nil, errs.Wrap(err, "corpus: opening spill file for read")
	}
	defer func() { _ = r.Close(ctx) }()
	body, err := ioutil.ReadAll(r.Reader(ctx))
	if err != nil {
		return nil, errs.Wrap(err, "corpus: reading spill file")
	}

	sum := highwayhash.Sum(body, highwayHashKey)
	if !bytes.Equal(sum, sf.checksum[:]) {
		vlog.Infof("corpus: checksum mismatch reloading spill file %s; page is corrupt", sf.path)
		return nil, errs.RangeErrorf("corpus: corrupt spill file %s", sf.path)
	}

	rest := body
	triplesLen, n := readUvarint(rest)
	rest = rest[n:]
	triplesCompressed := rest[:triplesLen]
	rest = rest[triplesLen:]
	annLen, n := readUvarint(rest)
	rest = rest[n:]
	annCompressed := rest[:annLen]

	triplesBuf, err := snappy.Decode(nil, triplesCompressed)
	if err != nil {
		return nil, errs.Wrap(err, "corpus: decompressing page triples")
	}
	fr := flate.NewReader(bytes.NewReader(annCompressed))
	annBuf, err := ioutil.ReadAll(fr)
	if err != nil {
		return nil, errs.Wrap(err, "corpus: decompressing page annotations")
	}
	_ = fr.Close()

	contentSum := seahash.Sum64(append(append([]byte(nil), triplesBuf...), annBuf...))
	if contentSum != sf.contentChecksum {
		return nil, errs.RangeErrorf("corpus: decompressed content checksum mismatch for spill file %s; page is corrupt", sf.path)
	}

	var wire pageWire
	if err := gob.NewDecoder(bytes.NewReader(triplesBuf)).Decode(&wire.Triples); err != nil {
		return nil, errs.Wrap(err, "corpus: decoding page triples")
	}
	if err := gob.NewDecoder(bytes.NewReader(annBuf)).Decode(&wire.AnnIDs); err != nil {
		return nil, errs.Wrap(err, "corpus: decoding page annotations")
	}
	return &page{triples: wire.Triples, annIDs: wire.AnnIDs}, nil
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func readUvarint(b []byte) (uint64, int) {
	v, n := binary.Uvarint(b)
	return v, n
}
