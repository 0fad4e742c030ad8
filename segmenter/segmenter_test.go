package segmenter

import (
	"math/rand"
	"regexp"
	"testing"

	"github.com/corpuskit/lttl/corpus"
)

func oneSegmentInput(store *corpus.Store, text, label string) *corpus.Segmentation {
	idx := store.AppendString(text)
	sg := corpus.NewSegmentation(store, label)
	_ = sg.Append(corpus.NewSegment(idx))
	return sg
}

func TestConcatenateOrdersAndAutoNumbers(t *testing.T) {
	store := corpus.NewStore()
	a := oneSegmentInput(store, "hello", "a")
	b := oneSegmentInput(store, "world", "b")
	c := oneSegmentInput(store, "!", "c")

	out, err := Concatenate(store, []*corpus.Segmentation{a, b, c}, "joined", ConcatenateOptions{AutoNumberAs: "num"})
	if err != nil {
		t.Fatalf("Concatenate: %v", err)
	}
	if out.Len() != 3 {
		t.Fatalf("Len() = %d; want 3", out.Len())
	}
	all, _ := out.All()
	wantContents := []string{"hello", "world", "!"}
	for i, seg := range all {
		c, _ := corpus.Content(store, seg)
		if c != wantContents[i] {
			t.Fatalf("segment %d content = %q; want %q", i, c, wantContents[i])
		}
		if seg.Annotations["num"] != string(rune('1'+i)) {
			t.Fatalf("segment %d num annotation = %q", i, seg.Annotations["num"])
		}
	}
}

func TestTokenizeWordsMode(t *testing.T) {
	store := corpus.NewStore()
	input := oneSegmentInput(store, "the quick brown fox", "text")

	rules := []Rule{{Regex: regexp.MustCompile(`\S+`), Mode: Tokenize}}
	out, err := Tokenize(store, input, rules, "words", TokenizeOptions{})
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if out.Len() != 4 {
		t.Fatalf("Len() = %d; want 4", out.Len())
	}
	all, _ := out.All()
	want := []string{"the", "quick", "brown", "fox"}
	for i, seg := range all {
		c, _ := corpus.Content(store, seg)
		if c != want[i] {
			t.Fatalf("word %d = %q; want %q", i, c, want[i])
		}
	}
}

func TestTokenizeSplitMode(t *testing.T) {
	store := corpus.NewStore()
	input := oneSegmentInput(store, "a, b, c", "text")

	rules := []Rule{{Regex: regexp.MustCompile(`,\s*`), Mode: Split}}
	out, err := Tokenize(store, input, rules, "fields", TokenizeOptions{})
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	all, _ := out.All()
	want := []string{"a", "b", "c"}
	if len(all) != len(want) {
		t.Fatalf("got %d segments; want %d", len(all), len(want))
	}
	for i, seg := range all {
		c, _ := corpus.Content(store, seg)
		if c != want[i] {
			t.Fatalf("field %d = %q; want %q", i, c, want[i])
		}
	}
}

func TestSelectIncludeExclude(t *testing.T) {
	store := corpus.NewStore()
	input := oneSegmentInput(store, "placeholder", "text")
	rules := []Rule{{Regex: regexp.MustCompile(`\S+`), Mode: Tokenize}}
	words, err := Tokenize(store, input, rules, "words", TokenizeOptions{})
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}

	pattern := regexp.MustCompile(`^p`)
	pos, neg, err := Select(store, words, pattern, "", Include, "p-words")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if pos.Len() != 1 || neg.Len() != 0 {
		t.Fatalf("Select(include) pos=%d neg=%d; want 1,0", pos.Len(), neg.Len())
	}

	pos2, neg2, err := Select(store, words, pattern, "", Exclude, "not-p-words")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if pos2.Len() != 0 || neg2.Len() != 1 {
		t.Fatalf("Select(exclude) pos=%d neg=%d; want 0,1", pos2.Len(), neg2.Len())
	}
}

func TestSampleSystematic(t *testing.T) {
	store := corpus.NewStore()
	input := oneSegmentInput(store, "abcdefghij", "text")
	rules := []Rule{{Regex: regexp.MustCompile(`.`), Mode: Tokenize}}
	chars, err := Tokenize(store, input, rules, "chars", TokenizeOptions{})
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}

	out, err := Sample(store, chars, 5, Systematic, rand.New(rand.NewSource(1)), "sampled")
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if out.Len() != 5 {
		t.Fatalf("Len() = %d; want 5", out.Len())
	}
}

func TestRecodeLowercasesAndRedirects(t *testing.T) {
	store := corpus.NewStore()
	input := oneSegmentInput(store, "ABC", "text")

	out, err := Recode(store, input, "lower", RecodeOptions{CaseChange: Lower})
	if err != nil {
		t.Fatalf("Recode: %v", err)
	}
	seg, err := out.Get(0)
	if err != nil {
		t.Fatalf("Get(0): %v", err)
	}
	c, _ := corpus.Content(store, seg)
	if c != "abc" {
		t.Fatalf("recoded content = %q; want %q", c, "abc")
	}
}

func TestRecodeRedirectsUnchangedText(t *testing.T) {
	store := corpus.NewStore()
	orig := store.AppendString("already lower")
	sg := corpus.NewSegmentation(store, "text")
	if err := sg.Append(corpus.NewSegment(orig)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	out, err := Recode(store, sg, "lower", RecodeOptions{CaseChange: Lower})
	if err != nil {
		t.Fatalf("Recode: %v", err)
	}
	seg, err := out.Get(0)
	if err != nil {
		t.Fatalf("Get(0): %v", err)
	}
	if seg.StrIndex == orig {
		t.Fatalf("unchanged recode should redirect to a new entry, not reuse the original index")
	}
	if real := seg.RealStrIndex(store); real != orig {
		t.Fatalf("RealStrIndex = %d; want %d", real, orig)
	}
}

func TestImportXMLBasic(t *testing.T) {
	store := corpus.NewStore()
	input := oneSegmentInput(store, `<p id="1">hello</p><p id="2">world</p>`, "xml")

	out, err := ImportXML(store, input, "paragraphs", ImportXMLOptions{Element: "p"})
	if err != nil {
		t.Fatalf("ImportXML: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("Len() = %d; want 2", out.Len())
	}
	all, _ := out.All()
	if c, _ := corpus.Content(store, all[0]); c != "hello" {
		t.Fatalf("first paragraph = %q; want %q", c, "hello")
	}
	if all[0].Annotations["id"] != "1" {
		t.Fatalf("first paragraph id annotation = %q; want %q", all[0].Annotations["id"], "1")
	}
}

func TestImportXMLOrphanClosingTagErrors(t *testing.T) {
	store := corpus.NewStore()
	input := oneSegmentInput(store, `hello</p>`, "xml")

	if _, err := ImportXML(store, input, "paragraphs", ImportXMLOptions{Element: "p"}); err == nil {
		t.Fatalf("expected a parse error for an orphan closing tag")
	}
}

func TestBypassDeepCopiesAnnotations(t *testing.T) {
	store := corpus.NewStore()
	idx := store.AppendString("x")
	sg := corpus.NewSegmentation(store, "orig")
	s := corpus.NewSegment(idx)
	s.Annotations["k"] = "v"
	if err := sg.Append(s); err != nil {
		t.Fatalf("Append: %v", err)
	}

	copySg, err := Bypass(store, sg, "copy")
	if err != nil {
		t.Fatalf("Bypass: %v", err)
	}
	got, _ := copySg.Get(0)
	if got.Annotations["k"] != "v" {
		t.Fatalf("bypass copy lost annotation")
	}
}
