package cf

import (
	"math"
	"sort"
)

// 评分量表固定为 [0,5]，预测值裁剪到该区间。
const (
	RatingMin = 0.0
	RatingMax = 5.0
)

// Prediction 是一次评分预测的结果。
// ColdStart 标记该预测来自冷启动降级（用户或物品不在训练集），
// 此时 Est 为全局均值 —— 降级是设计行为，不是错误。
type Prediction struct {
	BookID    int64   `json:"book_id"`
	Est       float64 `json:"est"`
	ColdStart bool    `json:"cold_start"`
}

// Adapter 是协同过滤模型的适配层：对外只暴露
// 评分预测、O(1) 的训练集成员测试和稳定的 TopK 候选排序，
// 级联引擎不接触模型内部的 raw/inner 映射。
type Adapter struct {
	model *Model
}

func NewAdapter(m *Model) *Adapter {
	return &Adapter{model: m}
}

// IsKnownItem 判断图书是否在训练集的物品集合中。O(1)。
func (a *Adapter) IsKnownItem(bookID int64) bool {
	_, ok := a.model.ItemIndex[bookID]
	return ok
}

// IsKnownUser 判断用户是否在训练集中。O(1)。
func (a *Adapter) IsKnownUser(userID int64) bool {
	_, ok := a.model.UserIndex[userID]
	return ok
}

// PredictRating 预测用户对图书的评分，结果裁剪到 [0,5]。
// 用户或物品任一侧不在训练集时降级为全局均值（冷启动回退），
// 永不因未知 ID 报错 —— 调用方需要过滤时使用 IsKnownItem。
func (a *Adapter) PredictRating(userID, bookID int64) Prediction {
	u, userOK := a.model.UserIndex[userID]
	i, itemOK := a.model.ItemIndex[bookID]
	if !userOK || !itemOK {
		return Prediction{
			BookID:    bookID,
			Est:       clamp(a.model.GlobalMean),
			ColdStart: true,
		}
	}
	return Prediction{BookID: bookID, Est: clamp(a.model.estimate(u, i))}
}

// TopCandidates 为用户对候选集打分并取前 k 个：
// 先过滤掉训练集不认识的物品（预测对它们无意义），
// 再按预测值降序稳定排序 —— 并列时保持候选原序，结果确定可复现。
// k <= 0 时返回空。
func (a *Adapter) TopCandidates(userID int64, candidates []int64, k int) []Prediction {
	if k <= 0 {
		return nil
	}

	scored := make([]Prediction, 0, len(candidates))
	for _, id := range candidates {
		if !a.IsKnownItem(id) {
			continue
		}
		scored = append(scored, a.PredictRating(userID, id))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Est > scored[j].Est
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

func clamp(v float64) float64 {
	return math.Min(RatingMax, math.Max(RatingMin, v))
}
