// Package rerank 提供重排阶段的 Node。级联的两级召回各自截断，
// TopNNode 只作为链尾的总量上限（n_cf + n_cb），不改变相对顺序。
package rerank

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

// TopNNode 是一个 Top-N 截断节点。
// N <= 0 或物品数不超过 N 时原样返回，不做任何重排。
type TopNNode struct {
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 {
		return items, nil
	}
	if len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
