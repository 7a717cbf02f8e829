package dsl

import (
	"testing"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/utils"
)

func TestEvalMatch(t *testing.T) {
	item := core.NewItem(5)
	item.Title = "Dune"
	item.Score = 4.4
	item.PutLabel("recall_source", utils.Label{Value: "cf", Source: "recall"})
	rctx := &core.RecommendContext{UserID: 7, Params: map[string]any{"n_cf": 2}}

	tests := []struct {
		expr string
		want bool
	}{
		{expr: "item.id == 5", want: true},
		{expr: "item.score > 4.0", want: true},
		{expr: `item.title == "Dune"`, want: true},
		{expr: `label.recall_source == "cf"`, want: true},
		{expr: `label.recall_source == "content"`, want: false},
		{expr: `"recall_source" in label`, want: true},
		{expr: `"cold_start" in label`, want: false},
		{expr: "rctx.user_id == 7", want: true},
		{expr: `item.labels.recall_source.source == "recall"`, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			e, err := NewEval(tt.expr)
			if err != nil {
				t.Fatalf("NewEval(%q) error = %v", tt.expr, err)
			}
			got, err := e.Match(item, rctx)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvalMissingLabelKey(t *testing.T) {
	e, err := NewEval(`label.missing == "x"`)
	if err != nil {
		t.Fatalf("NewEval error = %v", err)
	}
	// CEL errors on absent map keys; callers guard with `"key" in label`
	if _, err := e.Match(core.NewItem(1), nil); err == nil {
		t.Error("missing key did not error")
	}
}

func TestEvalNilItem(t *testing.T) {
	e, err := NewEval(`"recall_source" in label`)
	if err != nil {
		t.Fatalf("NewEval error = %v", err)
	}
	got, err := e.Match(nil, nil)
	if err != nil {
		t.Fatalf("Match(nil) error = %v", err)
	}
	if got {
		t.Error("nil item matched label membership")
	}
}
