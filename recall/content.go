package recall

import (
	"context"
	"sort"

	"github.com/rushteam/bookrec/content"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/dataset"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// ContentExpand 是级联第二级：以上游（CF）结果为种子的内容扩展。
//
// 排除集 = 用户已评分 ∪ 上游结果，保证最终列表不含已读书、不重复。
// 候选打分用“与任一种子的最大相似度”；并列按 book_id 升序，
// 排序完全确定。扩展结果追加在上游结果之后 —— 协同信号优先，
// 内容相似只做补位，拼接后不再重排。
//
// 种子集为空（CF 空手而归，或 CF 结果都不在语料中 —— 上游过滤后
// 不应发生，但防御性处理）时直接透传上游结果：这是设计好的降级
// 路径，不是错误。
type ContentExpand struct {
	Catalog *dataset.Catalog
	Index   *content.Index

	// K 是 CB 补位长度（n_cb）。K <= 0 时结果就是 CF 前缀。
	K int
}

func (r *ContentExpand) Name() string        { return "recall.content_expand" }
func (r *ContentExpand) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *ContentExpand) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if r.K <= 0 {
		return items, nil
	}

	excluded := make(map[int64]struct{}, len(items))
	if rctx != nil {
		for id := range rctx.Rated {
			excluded[id] = struct{}{}
		}
	}

	seeds := make([]int64, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		excluded[it.ID] = struct{}{}
		if r.Index.Has(it.ID) {
			seeds = append(seeds, it.ID)
		}
	}
	if len(seeds) == 0 {
		// 降级：仅返回 CF 前缀
		return items, nil
	}

	type scoredBook struct {
		id    int64
		score float64
	}
	scored := make([]scoredBook, 0, r.Index.Len())
	for _, id := range r.Index.IDs() {
		if _, ok := excluded[id]; ok {
			continue
		}
		s, err := r.Index.MaxSimilarityToSeeds(id, seeds)
		if err != nil {
			return nil, err
		}
		scored = append(scored, scoredBook{id: id, score: s})
	}

	// 分数降序，并列按 book_id 升序：排除迭代顺序带来的不确定性
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].id < scored[j].id
	})
	if len(scored) > r.K {
		scored = scored[:r.K]
	}

	out := items
	for _, s := range scored {
		it := core.NewItem(s.id)
		it.Score = s.score
		if b, ok := r.Catalog.Book(s.id); ok {
			it.Title = b.Title
		}
		it.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
