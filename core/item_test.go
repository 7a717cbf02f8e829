package core

import (
	"testing"

	"github.com/rushteam/bookrec/pkg/utils"
)

func TestPutLabelMerge(t *testing.T) {
	it := NewItem(1)
	it.PutLabel("recall_source", utils.Label{Value: "cf", Source: "recall"})
	it.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})

	got := it.Labels["recall_source"]
	if got.Value != "cf|content" {
		t.Errorf("merged Value = %q, want %q", got.Value, "cf|content")
	}
	if got.Source != "recall,recall" {
		t.Errorf("merged Source = %q, want %q", got.Source, "recall,recall")
	}
}

func TestPutLabelNilMap(t *testing.T) {
	it := &Item{ID: 1}
	it.PutLabel("k", utils.Label{Value: "v"})
	if it.Labels["k"].Value != "v" {
		t.Error("PutLabel on nil map lost the label")
	}
}

func TestTitles(t *testing.T) {
	items := []*Item{
		{ID: 1, Title: "Dune"},
		nil,
		{ID: 2, Title: "Dune Messiah"},
	}
	got := Titles(items)
	if len(got) != 2 || got[0] != "Dune" || got[1] != "Dune Messiah" {
		t.Errorf("Titles() = %v, want [Dune, Dune Messiah] in order", got)
	}
	if got := Titles(nil); got == nil || len(got) != 0 {
		t.Errorf("Titles(nil) = %v, want empty non-nil slice", got)
	}
}

func TestHasRated(t *testing.T) {
	rctx := &RecommendContext{Rated: map[int64]float64{1: 5}}
	if !rctx.HasRated(1) {
		t.Error("HasRated(1) = false, want true")
	}
	if rctx.HasRated(2) {
		t.Error("HasRated(2) = true, want false")
	}

	var nilCtx *RecommendContext
	if nilCtx.HasRated(1) {
		t.Error("nil context HasRated = true, want false")
	}
}
