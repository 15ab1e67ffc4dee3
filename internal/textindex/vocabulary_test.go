package textindex

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"
)

const eps = 1e-9

var sampleDocs = []string{
	"Cowboy Bebop bounty hunters travel through space",
	"Space pirates fight across the galaxy",
	"A quiet slice of life story about a tea shop",
	"Bounty hunters chase pirates on a desert planet",
}

func TestBuildVocabulary_SortedDimensions(t *testing.T) {
	v := BuildVocabulary(sampleDocs, DefaultOptions())
	if v.Docs() != len(sampleDocs) {
		t.Errorf("Docs = %d, want %d", v.Docs(), len(sampleDocs))
	}

	prev := ""
	for i := 0; i < v.Size(); i++ {
		term, ok := v.Term(i)
		if !ok {
			t.Fatalf("Term(%d) missing", i)
		}
		if term <= prev {
			t.Fatalf("dimensions not in sorted order: %q after %q", term, prev)
		}
		prev = term
		idx, _, ok := v.Lookup(term)
		if !ok || idx != i {
			t.Errorf("Lookup(%q) = %d,%v; want %d", term, idx, ok, i)
		}
	}
}

func TestBuildVocabulary_DocFreqAndIDF(t *testing.T) {
	v := BuildVocabulary(sampleDocs, DefaultOptions())

	idx, df, ok := v.Lookup("bounty")
	if !ok {
		t.Fatal("bounty missing from vocabulary")
	}
	if df != 2 {
		t.Errorf("df(bounty) = %d, want 2", df)
	}
	if want := math.Log(4.0 / 2.0); math.Abs(v.IDF(idx)-want) > eps {
		t.Errorf("idf(bounty) = %v, want %v", v.IDF(idx), want)
	}

	if _, _, ok := v.Lookup("the"); ok {
		t.Error("stopword must not be in vocabulary")
	}
	if v.IDF(-1) != 0 || v.IDF(v.Size()) != 0 {
		t.Error("IDF out of range must be 0")
	}
}

func TestBuildVocabulary_Empty(t *testing.T) {
	v := BuildVocabulary(nil, DefaultOptions())
	if v.Size() != 0 {
		t.Fatalf("Size = %d, want 0", v.Size())
	}
	vec := v.Vectorize("anything at all")
	if !vec.IsZero() {
		t.Errorf("vector against empty vocabulary = %v, want zero", vec)
	}
	if d := vec.Dot(newVector(map[int]float64{0: 1})); d != 0 || math.IsNaN(d) {
		t.Errorf("dot with zero vector = %v", d)
	}
}

func TestBuildVocabulary_MinDocFreq(t *testing.T) {
	v := BuildVocabulary(sampleDocs, Options{MinDocFreq: 2})
	for i := 0; i < v.Size(); i++ {
		term, _ := v.Term(i)
		_, df, _ := v.Lookup(term)
		if df < 2 {
			t.Errorf("term %q has df %d below MinDocFreq", term, df)
		}
	}
	if _, _, ok := v.Lookup("galaxy"); ok {
		t.Error("galaxy appears once and must be dropped")
	}
}

func TestBuildVocabulary_MaxFeatures(t *testing.T) {
	v := BuildVocabulary(sampleDocs, Options{MaxFeatures: 3})
	if v.Size() != 3 {
		t.Fatalf("Size = %d, want 3", v.Size())
	}
	for _, term := range []string{"bounty", "hunters", "pirates"} {
		if _, _, ok := v.Lookup(term); !ok {
			t.Errorf("expected frequent term %q to survive", term)
		}
	}
}

func TestVectorize_Deterministic(t *testing.T) {
	v := BuildVocabulary(sampleDocs, DefaultOptions())
	a := v.Vectorize("space bounty hunters")
	b := v.Vectorize("space bounty hunters")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("vectors differ: %v vs %v", a, b)
	}

	rebuilt := BuildVocabulary(sampleDocs, DefaultOptions())
	if c := rebuilt.Vectorize("space bounty hunters"); !reflect.DeepEqual(a, c) {
		t.Errorf("rebuilt vocabulary gave a different vector: %v vs %v", a, c)
	}
}

func TestVectorize_UnitNorm(t *testing.T) {
	v := BuildVocabulary(sampleDocs, DefaultOptions())
	for _, doc := range sampleDocs {
		vec := v.Vectorize(doc)
		if vec.IsZero() {
			continue
		}
		if n := vec.Norm(); math.Abs(n-1) > 1e-9 {
			t.Errorf("norm(%q) = %v, want 1", doc, n)
		}
	}
}

func TestVectorize_UnknownTermsDropped(t *testing.T) {
	v := BuildVocabulary(sampleDocs, DefaultOptions())
	vec := v.Vectorize("zeppelin xylophone")
	if !vec.IsZero() {
		t.Errorf("unknown terms produced %v", vec)
	}

	mixed := v.Vectorize("zeppelin galaxy")
	idx, _, _ := v.Lookup("galaxy")
	if mixed.Len() != 1 || math.Abs(mixed.Weight(idx)-1) > eps {
		t.Errorf("mixed vector = %v, want only galaxy at weight 1", mixed)
	}
}

func TestVectorize_TermInEveryDocIsDropped(t *testing.T) {
	docs := []string{"robot fight", "robot dance", "robot sleep"}
	v := BuildVocabulary(docs, DefaultOptions())
	vec := v.Vectorize("robot")
	if !vec.IsZero() {
		t.Errorf("term with idf 0 must not contribute, got %v", vec)
	}
}

func TestVectorize_SelfSimilarity(t *testing.T) {
	v := BuildVocabulary(sampleDocs, DefaultOptions())
	a := v.Vectorize(sampleDocs[0])
	if d := a.Dot(a); math.Abs(d-1) > 1e-9 {
		t.Errorf("self dot = %v, want 1", d)
	}
}

// longDocs returns documents of several hundred distinct weighted terms.
func longDocs(n, terms int) []string {
	docs := make([]string, n)
	for i := range docs {
		var b strings.Builder
		for j := 0; j < terms; j++ {
			if (i+j)%3 == 0 {
				continue
			}
			for r := 0; r <= (i+j)%4; r++ {
				fmt.Fprintf(&b, "w%03d ", j)
			}
		}
		docs[i] = b.String()
	}
	return docs
}

func TestVectorize_LongTextBitIdentical(t *testing.T) {
	docs := longDocs(12, 300)
	v := BuildVocabulary(docs, DefaultOptions())
	text := docs[3] + docs[5]

	first := v.Vectorize(text)
	if first.Len() < 200 {
		t.Fatalf("vector has %d dims, want a long vector", first.Len())
	}
	for i := 0; i < 200; i++ {
		if got := v.Vectorize(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced a different vector", i)
		}
	}
}

func TestDot_LongVectorsStable(t *testing.T) {
	docs := longDocs(12, 300)
	v := BuildVocabulary(docs, DefaultOptions())
	a, b := v.Vectorize(docs[1]), v.Vectorize(docs[2])

	want := a.Dot(b)
	for i := 0; i < 500; i++ {
		if got := a.Dot(b); math.Float64bits(got) != math.Float64bits(want) {
			t.Fatalf("run %d: dot = %v, want %v", i, got, want)
		}
		if got := b.Dot(a); math.Float64bits(got) != math.Float64bits(want) {
			t.Fatalf("run %d: reversed dot = %v, want %v", i, got, want)
		}
	}
}
