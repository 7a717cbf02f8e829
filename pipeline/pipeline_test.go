package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/bookrec/core"
)

// stubNode appends one item with a fixed id, or fails.
type stubNode struct {
	id   int64
	fail error
}

func (n *stubNode) Name() string { return "stub" }
func (n *stubNode) Kind() Kind   { return KindRecall }

func (n *stubNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.fail != nil {
		return nil, n.fail
	}
	return append(items, core.NewItem(n.id)), nil
}

func TestPipelineRunOrder(t *testing.T) {
	p := &Pipeline{Nodes: []Node{
		&stubNode{id: 1},
		&stubNode{id: 2},
		&stubNode{id: 3},
	}}

	items, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	for i, want := range []int64{1, 2, 3} {
		if items[i].ID != want {
			t.Errorf("items[%d].ID = %d, want %d", i, items[i].ID, want)
		}
	}
}

func TestPipelineRunStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{
		&stubNode{id: 1},
		&stubNode{fail: boom},
		&stubNode{id: 3},
	}}

	items, err := p.Run(context.Background(), nil, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want boom", err)
	}
	if items != nil {
		t.Errorf("items = %v, want nil on error", items)
	}
}

func TestPipelineEmpty(t *testing.T) {
	p := &Pipeline{}
	items, err := p.Run(context.Background(), nil, nil)
	if err != nil || items != nil {
		t.Errorf("empty pipeline = %v, %v", items, err)
	}
}
