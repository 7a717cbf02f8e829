package content

import (
	"testing"

	"github.com/rushteam/bookrec/core"
)

func testIndex() *Index {
	return Build(
		[]int64{1, 2, 3, 4},
		[]string{
			"scifi desert empire",
			"scifi desert sequel",
			"scifi cyberpunk hacker",
			"", // zero vector
		},
	)
}

func TestIndexSimilarity(t *testing.T) {
	ix := testIndex()

	if ix.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", ix.Len())
	}

	self, err := ix.Similarity(1, 1)
	if err != nil {
		t.Fatalf("Similarity(1, 1) error = %v", err)
	}
	if self != 1 {
		t.Errorf("Similarity(1, 1) = %v, want 1", self)
	}

	ab, _ := ix.Similarity(1, 2)
	ba, _ := ix.Similarity(2, 1)
	if ab != ba {
		t.Errorf("similarity not symmetric: %v vs %v", ab, ba)
	}
	if ab <= 0 || ab >= 1 {
		t.Errorf("Similarity(1, 2) = %v, want in (0, 1)", ab)
	}

	// books 1 and 2 share two terms, 1 and 3 share one: ranking must reflect it
	ac, _ := ix.Similarity(1, 3)
	if ac >= ab {
		t.Errorf("Similarity(1, 3) = %v >= Similarity(1, 2) = %v", ac, ab)
	}

	// zero vector book has 0 similarity to everything but itself
	zero, _ := ix.Similarity(1, 4)
	if zero != 0 {
		t.Errorf("Similarity(1, 4) = %v, want 0", zero)
	}
}

func TestIndexSimilarityUnknownBook(t *testing.T) {
	ix := testIndex()

	if _, err := ix.Similarity(1, 99); !core.IsUnknownBook(err) {
		t.Errorf("Similarity(1, 99) error = %v, want UNKNOWN_BOOK", err)
	}
	if _, err := ix.Similarity(99, 1); !core.IsUnknownBook(err) {
		t.Errorf("Similarity(99, 1) error = %v, want UNKNOWN_BOOK", err)
	}
	if ix.Has(99) {
		t.Error("Has(99) = true, want false")
	}
	if !ix.Has(4) {
		t.Error("Has(4) = false, want true")
	}
}

func TestMaxSimilarityToSeeds(t *testing.T) {
	ix := testIndex()

	// single seed equals pairwise similarity
	single, err := ix.MaxSimilarityToSeeds(3, []int64{1})
	if err != nil {
		t.Fatalf("MaxSimilarityToSeeds error = %v", err)
	}
	pair, _ := ix.Similarity(3, 1)
	if single != pair {
		t.Errorf("single-seed max = %v, want Similarity = %v", single, pair)
	}

	// max over several seeds picks the strongest
	multi, err := ix.MaxSimilarityToSeeds(1, []int64{2, 3, 4})
	if err != nil {
		t.Fatalf("MaxSimilarityToSeeds error = %v", err)
	}
	best, _ := ix.Similarity(1, 2)
	if multi != best {
		t.Errorf("max over seeds = %v, want %v", multi, best)
	}

	if _, err := ix.MaxSimilarityToSeeds(1, nil); !core.IsEmptySeedSet(err) {
		t.Errorf("empty seeds error = %v, want EMPTY_SEED_SET", err)
	}
	if _, err := ix.MaxSimilarityToSeeds(99, []int64{1}); !core.IsUnknownBook(err) {
		t.Errorf("unknown candidate error = %v, want UNKNOWN_BOOK", err)
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	ix := Build(nil, nil)

	if ix.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", ix.Len())
	}
	if _, err := ix.Similarity(1, 2); !core.IsUnknownBook(err) {
		t.Errorf("Similarity on empty index error = %v, want UNKNOWN_BOOK", err)
	}
}

func TestScoreTerms(t *testing.T) {
	ix := testIndex()

	scores := ix.ScoreTerms(map[string]float64{"cyberpunk": 1.0})
	if len(scores) != ix.Len() {
		t.Fatalf("len(scores) = %d, want %d", len(scores), ix.Len())
	}

	// only book 3 mentions cyberpunk
	ids := ix.IDs()
	for i, id := range ids {
		if id == 3 && scores[i] <= 0 {
			t.Errorf("score[book 3] = %v, want > 0", scores[i])
		}
		if id != 3 && scores[i] != 0 {
			t.Errorf("score[book %d] = %v, want 0", id, scores[i])
		}
	}

	// unknown terms are ignored, not an error
	for _, s := range ix.ScoreTerms(map[string]float64{"nonexistent": 5.0}) {
		if s != 0 {
			t.Errorf("score for unknown term = %v, want 0", s)
		}
	}

	// weighting two terms still yields scores bounded by 1
	for _, s := range ix.ScoreTerms(map[string]float64{"scifi": 2.0, "desert": 1.0}) {
		if s < 0 || s > 1+1e-12 {
			t.Errorf("score = %v, want within [0, 1]", s)
		}
	}
}
