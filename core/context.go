package core

import "github.com/rushteam/bookrec/pkg/utils"

// RecommendContext 承载一次推荐请求的用户信息，贯穿整个 Pipeline 透传。
// Engine 在进入 Pipeline 前填充 Rated（用户已评分集合），
// 各级 Node 只读，不回写共享存储。
type RecommendContext struct {
	UserID int64

	// Rated 是用户已评分的图书集合：book_id -> rating。
	// CF 阶段用它计算未评分候选集，CB 阶段用它构建排除集。
	Rated map[int64]float64

	// Labels 是用户级标签（如 cold_start），可驱动 Pipeline 行为。
	Labels map[string]utils.Label

	// Params 请求级上下文参数（n_cf、n_cb 等，供规则表达式使用）。
	Params map[string]any
}

// HasRated 判断用户是否已评分该图书。
func (rctx *RecommendContext) HasRated(bookID int64) bool {
	if rctx == nil || rctx.Rated == nil {
		return false
	}
	_, ok := rctx.Rated[bookID]
	return ok
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
