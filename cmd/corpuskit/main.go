/*
corpuskit is a minimal command-line driver over the corpus-analysis
kernel: it reads one or more text files (or stdin) into an Input
segmentation, tokenizes on whitespace, runs count_in_window and
variety_in_context, and prints both tables. It exists to exercise the
kernel end-to-end from a shell and carries no contract of its own.
*/
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"regexp"

	"github.com/grailbio/base/log"

	"github.com/corpuskit/lttl/corpus"
	"github.com/corpuskit/lttl/input"
	"github.com/corpuskit/lttl/processor"
	"github.com/corpuskit/lttl/segmenter"
	"github.com/corpuskit/lttl/table"
)

var (
	windowSize   = flag.Int("window-size", 5, "window size for count_in_window")
	resampleSize = flag.Int("resample-size", 0, "if >0, report expected variety of a subsample of this size instead of plain variety")
	seed         = flag.Int64("seed", 1, "pseudorandom seed for any resampling")
)

var whitespaceRule = []segmenter.Rule{{Regex: regexp.MustCompile(`\S+`), Mode: segmenter.Tokenize}}

func main() {
	flag.Parse()

	var (
		store *corpus.Store
		docs  *corpus.Segmentation
		err   error
	)
	if flag.NArg() == 0 {
		store, docs, err = input.FromReader(os.Stdin)
	} else {
		store, docs, err = input.FromFiles(flag.Args())
	}
	if err != nil {
		log.Fatalf("corpuskit: %v", err)
	}

	words, err := segmenter.Tokenize(store, docs, whitespaceRule, "words", segmenter.TokenizeOptions{})
	if err != nil {
		log.Fatalf("corpuskit: tokenize: %v", err)
	}
	log.Printf("corpuskit: %d documents, %d words", docs.Len(), words.Len())

	units := processor.UnitSpec{Segmentation: words}

	counts, err := processor.CountInWindow(store, units, *windowSize)
	if err != nil {
		log.Fatalf("corpuskit: count_in_window: %v", err)
	}
	fmt.Println("# count_in_window")
	fmt.Println(counts.ToString(table.RenderOptions{}))

	varietyOpts := processor.VarietyOptions{}
	if *resampleSize > 0 {
		varietyOpts.Resampling = *resampleSize
		varietyOpts.UnitWeighting = true
		varietyOpts.NumSubsamples = 30
		varietyOpts.Rand = rand.New(rand.NewSource(*seed))
	}
	rows, err := processor.VarietyInContext(store, units, processor.ContextSpec{Segmentation: docs}, varietyOpts)
	if err != nil {
		log.Fatalf("corpuskit: variety_in_context: %v", err)
	}
	fmt.Println("# variety_in_context")
	fmt.Println(processor.ToVarietyTable(rows).ToString(table.RenderOptions{}))
}
