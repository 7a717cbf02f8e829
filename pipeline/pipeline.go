package pipeline

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// Pipeline 是 bookrec 的核心抽象：把推荐逻辑拆成可组合的 Node 链。
// 级联混合推荐即一条固定顺序的链：CF 召回 → CB 扩展 → 规则过滤 → TopN。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
