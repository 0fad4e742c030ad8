// Package input implements the corpus loader (C8 of the design): turning
// raw text — files named on a command line, stdin, or in-memory strings —
// into an Input segmentation over a freshly created Store, the entry point
// every downstream Segmenter/Processor pipeline starts from.
package input

import (
	"bufio"
	"io"
	"os"

	"github.com/grailbio/base/log"

	"github.com/corpuskit/lttl/corpus"
)

// AnnotationPath is the annotation key every loader sets to the document's
// origin (a file path, or "-" for stdin / a caller-supplied label for an
// in-memory string), so a pipeline can recover which document a segment
// came from after concatenation.
const AnnotationPath = "path"

// FromStrings builds a fresh Store and an Input segmentation with one
// top-level (whole-document) segment per (label, text) pair, in order.
func FromStrings(labels, texts []string) (*corpus.Store, *corpus.Segmentation, error) {
	if len(labels) != len(texts) {
		return nil, nil, os.ErrInvalid
	}
	store := corpus.NewStore()
	sg := corpus.NewSegmentation(store, "input")
	for i, text := range texts {
		idx := store.AppendString(text)
		seg := corpus.NewSegment(idx)
		seg.Annotations[AnnotationPath] = labels[i]
		if err := sg.Append(seg); err != nil {
			return nil, nil, err
		}
	}
	return store, sg, nil
}

// FromFiles reads each named file whole into memory and returns an Input
// segmentation over them, in the order given.
func FromFiles(paths []string) (*corpus.Store, *corpus.Segmentation, error) {
	texts := make([]string, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, nil, err
		}
		texts[i] = string(data)
		log.Debug.Printf("input: loaded %s (%d bytes)", p, len(data))
	}
	return FromStrings(paths, texts)
}

// FromReader reads r whole (e.g. stdin) as a single document labeled
// "-".
func FromReader(r io.Reader) (*corpus.Store, *corpus.Segmentation, error) {
	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, nil, err
	}
	return FromStrings([]string{"-"}, []string{string(data)})
}
