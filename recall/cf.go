// Package recall 提供级联混合推荐的两级召回 Node：
// CFRecall 生成协同过滤前缀，ContentExpand 以 CF 结果为种子做内容扩展。
package recall

import (
	"context"

	"github.com/rushteam/bookrec/cf"
	"github.com/rushteam/bookrec/content"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/dataset"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// CFRecall 是级联第一级：协同过滤召回。
//
// 候选集 = 用户未评分 ∩ CB 语料 ∩ 模型已知物品。
// 两个交集条件都是刻意的：模型对未知物品打不了分，
// CB 阶段对没有标签向量的物品既不能做种子也不能打分，
// 不满足的图书直接静默出局。
//
// 候选不足 K 个不是错误 —— 用户把符合条件的书都读完时，空结果合法。
type CFRecall struct {
	Catalog *dataset.Catalog
	Index   *content.Index
	Adapter *cf.Adapter

	// K 是 CF 前缀长度（n_cf）。K <= 0 时本级不产出任何候选，
	// 级联直接进入空种子降级路径。
	K int
}

func (r *CFRecall) Name() string        { return "recall.cf" }
func (r *CFRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *CFRecall) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if r.K <= 0 || rctx == nil {
		return nil, nil
	}

	// 遍历按目录文件行序，保证候选顺序（并列时的排序依据）确定
	candidates := make([]int64, 0, len(r.Catalog.BookIDs()))
	for _, id := range r.Catalog.BookIDs() {
		if rctx.HasRated(id) {
			continue
		}
		if !r.Index.Has(id) {
			continue
		}
		if !r.Adapter.IsKnownItem(id) {
			continue
		}
		candidates = append(candidates, id)
	}

	preds := r.Adapter.TopCandidates(rctx.UserID, candidates, r.K)

	out := make([]*core.Item, 0, len(preds))
	for _, p := range preds {
		it := core.NewItem(p.BookID)
		it.Score = p.Est
		if b, ok := r.Catalog.Book(p.BookID); ok {
			it.Title = b.Title
		}
		it.PutLabel("recall_source", utils.Label{Value: "cf", Source: "recall"})
		if p.ColdStart {
			it.PutLabel("cold_start", utils.Label{Value: "true", Source: "recall"})
		}
		out = append(out, it)
	}
	return out, nil
}
