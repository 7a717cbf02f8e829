package recall

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/bookrec/cf"
	"github.com/rushteam/bookrec/content"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/dataset"
)

// Fixture: three Dune-series books plus two cyberpunk books; user 7 only rated Dune.
func testCatalog(t *testing.T) *dataset.Catalog {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("books.csv", `book_id,goodreads_book_id,original_title
1,1,Dune
2,2,Dune Messiah
3,3,Children of Dune
4,4,Neuromancer
5,5,Count Zero
`)
	write("ratings.csv", `user_id,book_id,rating
7,1,5
`)
	write("tags.csv", `tag_id,tag_name
1,scifi
2,desert
3,empire
4,sequel
5,dynasty
6,cyberpunk
7,hacker
8,voodoo
`)
	write("book_tags.csv", `goodreads_book_id,tag_id,count
1,1,100
1,2,90
1,3,80
2,1,100
2,2,90
2,4,80
3,1,100
3,2,90
3,5,80
4,1,100
4,6,90
4,7,80
5,1,100
5,6,90
5,8,80
`)
	return dataset.Load(dir)
}

func testIndex(t *testing.T, c *dataset.Catalog) *content.Index {
	t.Helper()
	ids := c.CorpusIDs()
	texts := make([]string, len(ids))
	for i, id := range ids {
		b, _ := c.Book(id)
		texts[i] = b.TagText
	}
	return content.Build(ids, texts)
}

// testAdapter knows only books 2 and 4, and user 7 has no training ratings:
// both predictions equal the global mean 3.5, so ties follow candidate order.
func testAdapter() *cf.Adapter {
	return cf.NewAdapter(&cf.Model{
		GlobalMean: 3.5,
		K:          40,
		MinK:       1,
		UserIndex:  map[int64]int{7: 0},
		ItemIndex:  map[int64]int{2: 0, 4: 1},
		UserBias:   []float64{0},
		ItemBias:   []float64{0, 0},
		Sim:        [][]float64{{1, 0}, {0, 1}},
		Ratings:    [][]cf.RatedItem{{}},
	})
}

func testRctx(c *dataset.Catalog) *core.RecommendContext {
	return &core.RecommendContext{UserID: 7, Rated: c.UserRatings(7)}
}

func TestCFRecall(t *testing.T) {
	c := testCatalog(t)
	node := &CFRecall{Catalog: c, Index: testIndex(t, c), Adapter: testAdapter(), K: 2}

	items, err := node.Process(context.Background(), testRctx(c), nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	// candidates = unrated ∩ corpus ∩ model-known = {2, 4}; tied estimates keep catalog order
	if len(items) != 2 || items[0].ID != 2 || items[1].ID != 4 {
		t.Fatalf("items = %v, want books [2 4]", ids(items))
	}
	if items[0].Title != "Dune Messiah" {
		t.Errorf("items[0].Title = %q", items[0].Title)
	}
	if items[0].Labels["recall_source"].Value != "cf" {
		t.Errorf("recall_source = %q, want cf", items[0].Labels["recall_source"].Value)
	}
	if items[0].Score != 3.5 {
		t.Errorf("Score = %v, want 3.5", items[0].Score)
	}
}

func TestCFRecallTruncates(t *testing.T) {
	c := testCatalog(t)
	node := &CFRecall{Catalog: c, Index: testIndex(t, c), Adapter: testAdapter(), K: 1}

	items, err := node.Process(context.Background(), testRctx(c), nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != 2 {
		t.Fatalf("items = %v, want only book 2", ids(items))
	}
}

func TestCFRecallZeroK(t *testing.T) {
	c := testCatalog(t)
	node := &CFRecall{Catalog: c, Index: testIndex(t, c), Adapter: testAdapter(), K: 0}

	items, err := node.Process(context.Background(), testRctx(c), nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("K=0 items = %v, want none", ids(items))
	}
}

func TestCFRecallExcludesRated(t *testing.T) {
	c := testCatalog(t)
	node := &CFRecall{Catalog: c, Index: testIndex(t, c), Adapter: testAdapter(), K: 5}

	rctx := &core.RecommendContext{UserID: 7, Rated: map[int64]float64{1: 5, 2: 4}}
	items, err := node.Process(context.Background(), rctx, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	for _, it := range items {
		if _, rated := rctx.Rated[it.ID]; rated {
			t.Errorf("rated book %d appeared in recall", it.ID)
		}
	}
}

func TestContentExpand(t *testing.T) {
	c := testCatalog(t)
	node := &ContentExpand{Catalog: c, Index: testIndex(t, c), K: 2}

	seed := core.NewItem(2)
	seed.Title = "Dune Messiah"
	items, err := node.Process(context.Background(), testRctx(c), []*core.Item{seed})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// excluded = {1 rated, 2 seed}; book 3 shares scifi+desert with the seed,
	// books 4 and 5 tie (scifi only) so the lower id wins
	want := []int64{2, 3, 4}
	got := ids(items)
	if len(got) != len(want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("items = %v, want %v", got, want)
		}
	}
	if items[1].Labels["recall_source"].Value != "content" {
		t.Errorf("expanded item recall_source = %q, want content", items[1].Labels["recall_source"].Value)
	}
	// the CF prefix stays first, never re-sorted
	if items[0] != seed {
		t.Error("seed item no longer first")
	}
}

func TestContentExpandEmptySeeds(t *testing.T) {
	c := testCatalog(t)
	node := &ContentExpand{Catalog: c, Index: testIndex(t, c), K: 3}

	// no upstream results: degrade to passthrough, not an error
	items, err := node.Process(context.Background(), testRctx(c), nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %v, want none on empty seeds", ids(items))
	}

	// upstream results outside the corpus also pass through
	stray := core.NewItem(99)
	items, err = node.Process(context.Background(), testRctx(c), []*core.Item{stray})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(items) != 1 || items[0] != stray {
		t.Errorf("items = %v, want passthrough of input", ids(items))
	}
}

func TestContentExpandZeroK(t *testing.T) {
	c := testCatalog(t)
	node := &ContentExpand{Catalog: c, Index: testIndex(t, c), K: 0}

	seed := core.NewItem(2)
	items, err := node.Process(context.Background(), testRctx(c), []*core.Item{seed})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(items) != 1 || items[0] != seed {
		t.Errorf("K=0 should pass input through, got %v", ids(items))
	}
}

func ids(items []*core.Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it.ID)
		}
	}
	return out
}
