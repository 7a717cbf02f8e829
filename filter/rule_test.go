package filter

import (
	"context"
	"testing"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/utils"
)

func labeledItem(id int64, title string, score float64, source string) *core.Item {
	it := core.NewItem(id)
	it.Title = title
	it.Score = score
	if source != "" {
		it.PutLabel("recall_source", utils.Label{Value: source, Source: "recall"})
	}
	return it
}

func TestRuleFilter(t *testing.T) {
	tests := []struct {
		name string
		expr string
		item *core.Item
		want bool
	}{
		{
			name: "match by id",
			expr: "item.id == 42",
			item: labeledItem(42, "Banned", 3.0, "cf"),
			want: true,
		},
		{
			name: "no match by id",
			expr: "item.id == 42",
			item: labeledItem(7, "Fine", 3.0, "cf"),
			want: false,
		},
		{
			name: "label shorthand",
			expr: `label.recall_source == "content"`,
			item: labeledItem(1, "Similar", 0.2, "content"),
			want: true,
		},
		{
			name: "score threshold with label",
			expr: `label.recall_source == "content" && item.score < 0.1`,
			item: labeledItem(1, "Weak", 0.05, "content"),
			want: true,
		},
		{
			name: "title contains",
			expr: `item.title.contains("draft")`,
			item: labeledItem(1, "my draft novel", 3.0, "cf"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewRuleFilter(tt.expr)
			if err != nil {
				t.Fatalf("NewRuleFilter(%q) error = %v", tt.expr, err)
			}
			got, err := f.ShouldFilter(context.Background(), &core.RecommendContext{UserID: 7}, tt.item)
			if err != nil {
				t.Fatalf("ShouldFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewRuleFilterInvalid(t *testing.T) {
	if _, err := NewRuleFilter(""); err == nil {
		t.Error("empty expression accepted")
	}
	if _, err := NewRuleFilter("item.id =="); err == nil {
		t.Error("malformed expression accepted")
	}
	// compiles, but evaluates to a non-boolean
	f, err := NewRuleFilter("item.score")
	if err != nil {
		t.Fatalf("NewRuleFilter error = %v", err)
	}
	if _, err := f.ShouldFilter(context.Background(), nil, labeledItem(1, "", 1.0, "")); err == nil {
		t.Error("non-boolean result did not error")
	}
}

func TestFilterNode(t *testing.T) {
	ban42, err := NewRuleFilter("item.id == 42")
	if err != nil {
		t.Fatal(err)
	}
	node := &FilterNode{Filters: []Filter{ban42}}

	items := []*core.Item{
		labeledItem(1, "A", 3.0, "cf"),
		labeledItem(42, "Banned", 5.0, "cf"),
		labeledItem(2, "B", 2.0, "content"),
	}
	out, err := node.Process(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 2 || out[0].ID != 1 || out[1].ID != 2 {
		t.Fatalf("filtered result order broken: %v", out)
	}
	// the removed item carries an explain label
	if items[1].Labels["filtered"].Value != "true" {
		t.Error("banned item missing filtered label")
	}
}

func TestFilterNodeNoFilters(t *testing.T) {
	node := &FilterNode{}
	items := []*core.Item{labeledItem(1, "A", 3.0, "cf")}
	out, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 || out[0] != items[0] {
		t.Error("no-filter node must pass items through unchanged")
	}
}

func TestFilterNodeSkipsFailingFilter(t *testing.T) {
	// evaluates to non-boolean at runtime: the filter errors and is skipped
	broken, err := NewRuleFilter("item.score")
	if err != nil {
		t.Fatal(err)
	}
	node := &FilterNode{Filters: []Filter{broken}}

	items := []*core.Item{labeledItem(1, "A", 3.0, "cf")}
	out, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 {
		t.Error("failing filter dropped an item")
	}
}
