// Package engine 实现级联排序引擎（Cascade Ranking Engine）：
// 对外暴露的每个操作都是只读存储之上的纯函数，跨请求不持有状态，
// 多个请求可在共享的不可变存储上完全并行。
package engine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/rushteam/bookrec/cf"
	"github.com/rushteam/bookrec/content"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/dataset"
	"github.com/rushteam/bookrec/feature"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/recall"
	"github.com/rushteam/bookrec/rerank"
)

// Params 是引擎的构造参数：启动时构建好的只读存储按引用注入
//（construct-then-inject），引擎自身不做任何加载。
type Params struct {
	Catalog *dataset.Catalog
	Index   *content.Index

	// Adapter 为 nil 表示 CF 模型不可用，依赖它的操作返回 UNAVAILABLE
	Adapter *cf.Adapter

	// Rules 是运营过滤规则，作用于级联最终结果。可为空。
	Rules []filter.Filter

	// Prefs 是冷启动画像推荐的偏好来源。可为 nil。
	Prefs feature.Provider

	Logger zerolog.Logger
}

// Engine 见包注释。
type Engine struct {
	catalog *dataset.Catalog
	index   *content.Index
	adapter *cf.Adapter
	rules   []filter.Filter
	prefs   feature.Provider
	log     zerolog.Logger
}

func New(p Params) *Engine {
	return &Engine{
		catalog: p.Catalog,
		index:   p.Index,
		adapter: p.Adapter,
		rules:   p.Rules,
		prefs:   p.Prefs,
		log:     p.Logger.With().Str("component", "engine").Logger(),
	}
}

func errUnavailable(what string) error {
	return core.NewDomainError(core.ModuleEngine, core.ErrorCodeUnavailable,
		fmt.Sprintf("engine: %s unavailable", what))
}

func errInvalid(msg string) error {
	return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: "+msg)
}

// cfReady 检查 CF 依赖的输入是否齐备。
func (e *Engine) cfReady() error {
	if e.catalog == nil || !e.catalog.BooksLoaded() {
		return errUnavailable("books table")
	}
	if !e.catalog.RatingsLoaded() {
		return errUnavailable("ratings table")
	}
	if e.adapter == nil {
		return errUnavailable("collaborative model")
	}
	return nil
}

// HybridCascade 执行级联混合推荐，返回有序标题列表：
// CF 前缀（按 CF 排名）在前，CB 补位（按相似度排名）在后，拼接后不再重排。
//
// 级联以 Pipeline 表达：CF 召回 → CB 扩展 → 规则过滤 → 总量截断。
// 未配置规则时输出即纯算法结果。种子集为空时返回仅 CF 前缀
//（可能为空列表）—— 设计好的降级路径，不是错误。
func (e *Engine) HybridCascade(ctx context.Context, userID int64, nCF, nCB int) ([]string, error) {
	if nCF < 0 || nCB < 0 {
		return nil, errInvalid("n_cf and n_cb must be >= 0")
	}
	if err := e.cfReady(); err != nil {
		return nil, err
	}
	if e.index == nil {
		return nil, errUnavailable("content similarity index")
	}

	rctx := &core.RecommendContext{
		UserID: userID,
		Rated:  e.catalog.UserRatings(userID),
		Params: map[string]any{"n_cf": nCF, "n_cb": nCB},
	}

	nodes := []pipeline.Node{
		&recall.CFRecall{Catalog: e.catalog, Index: e.index, Adapter: e.adapter, K: nCF},
		&recall.ContentExpand{Catalog: e.catalog, Index: e.index, K: nCB},
	}
	if len(e.rules) > 0 {
		nodes = append(nodes, &filter.FilterNode{Filters: e.rules})
	}
	nodes = append(nodes, &rerank.TopNNode{N: nCF + nCB})

	p := &pipeline.Pipeline{Nodes: nodes}
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}

	e.log.Debug().
		Int64("user_id", userID).
		Int("n_cf", nCF).
		Int("n_cb", nCB).
		Int("rated", len(rctx.Rated)).
		Int("results", len(items)).
		Msg("hybrid cascade")

	// 空结果返回空切片而非 nil，传输层序列化为 []
	return core.Titles(items), nil
}

// PairPrediction 是单个 (用户, 图书) 的评分预测结果。
// Rated/PriorRating 始终成对出现：未评分时 Rated=false、PriorRating=0，
// 字段不省略。
type PairPrediction struct {
	UserID      int64   `json:"user_id"`
	BookID      int64   `json:"book_id"`
	Title       string  `json:"title"`
	Rated       bool    `json:"rated"`
	PriorRating float64 `json:"prior_rating"`
	Estimate    float64 `json:"estimate"`
	ColdStart   bool    `json:"cold_start"`
}

// PredictForPair 查标题、查历史评分、给出模型估分（保留两位小数）。
// 不按模型是否认识该图书做过滤：未知图书/用户走冷启动回退，
// 目录里没有的图书返回 UNKNOWN_BOOK。
func (e *Engine) PredictForPair(_ context.Context, userID, bookID int64) (*PairPrediction, error) {
	title, err := e.catalog.Title(bookID)
	if err != nil {
		return nil, err
	}
	if e.adapter == nil {
		return nil, errUnavailable("collaborative model")
	}

	out := &PairPrediction{UserID: userID, BookID: bookID, Title: title}
	if prior, ok := e.catalog.Rating(userID, bookID); ok {
		out.Rated = true
		out.PriorRating = prior
	}

	pred := e.adapter.PredictRating(userID, bookID)
	out.Estimate = math.Round(pred.Est*100) / 100
	out.ColdStart = pred.ColdStart
	return out, nil
}

// TopNByActivity 返回评分最活跃的前 n 个用户及其评分条数。
// 纯聚合，不依赖模型。
func (e *Engine) TopNByActivity(_ context.Context, n int) ([]dataset.UserActivity, error) {
	return e.catalog.TopNByActivity(n)
}

// TopNCF 返回纯协同过滤的用户 Top-N：候选为用户未评分且模型已知的
// 全部图书（不要求在 CB 语料中），按预测评分降序。
func (e *Engine) TopNCF(_ context.Context, userID int64, n int) ([]string, error) {
	if n < 1 {
		return nil, errInvalid("n must be >= 1")
	}
	if err := e.cfReady(); err != nil {
		return nil, err
	}

	rated := e.catalog.UserRatings(userID)
	candidates := make([]int64, 0, len(e.catalog.BookIDs()))
	for _, id := range e.catalog.BookIDs() {
		if _, ok := rated[id]; ok {
			continue
		}
		if !e.adapter.IsKnownItem(id) {
			continue
		}
		candidates = append(candidates, id)
	}

	preds := e.adapter.TopCandidates(userID, candidates, n)
	titles := make([]string, 0, len(preds))
	for _, p := range preds {
		if b, ok := e.catalog.Book(p.BookID); ok {
			titles = append(titles, b.Title)
		}
	}
	return titles, nil
}

// RecommendByProfile 是冷启动画像推荐：从偏好提供方取用户的标签偏好，
// 按内容索引的词权重给全语料打分，排掉已评分图书后取前 n。
// 未配置提供方时返回 UNAVAILABLE；级联路径不受本操作影响。
func (e *Engine) RecommendByProfile(ctx context.Context, userID int64, n int) ([]string, error) {
	if n < 1 {
		return nil, errInvalid("n must be >= 1")
	}
	if e.prefs == nil {
		return nil, errUnavailable("preference provider")
	}
	if e.index == nil {
		return nil, errUnavailable("content similarity index")
	}
	if e.catalog == nil || !e.catalog.BooksLoaded() {
		return nil, errUnavailable("books table")
	}

	prefs, err := e.prefs.TagPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	rated := e.catalog.UserRatings(userID)
	scores := e.index.ScoreTerms(prefs)
	ids := e.index.IDs()

	type scoredBook struct {
		id    int64
		score float64
	}
	scored := make([]scoredBook, 0, len(ids))
	for i, id := range ids {
		if _, ok := rated[id]; ok {
			continue
		}
		if scores[i] <= 0 {
			continue
		}
		scored = append(scored, scoredBook{id: id, score: scores[i]})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].id < scored[j].id
	})
	if len(scored) > n {
		scored = scored[:n]
	}

	titles := make([]string, 0, len(scored))
	for _, s := range scored {
		if b, ok := e.catalog.Book(s.id); ok {
			titles = append(titles, b.Title)
		}
	}
	return titles, nil
}

// Health 汇总各数据表与模型/索引的可用状态。
type Health struct {
	Tables map[string]dataset.TableStatus `json:"tables"`
	Model  ComponentStatus                `json:"model"`
	Index  ComponentStatus                `json:"content_index"`
}

// ComponentStatus 是模型/索引的就绪状态。
type ComponentStatus struct {
	Ready bool `json:"ready"`
	Size  int  `json:"size,omitempty"`
}

// HealthReport 返回健康检查报告。
func (e *Engine) HealthReport() *Health {
	h := &Health{Tables: map[string]dataset.TableStatus{}}
	if e.catalog != nil {
		h.Tables = e.catalog.Status()
	}
	h.Model.Ready = e.adapter != nil
	if e.index != nil {
		h.Index = ComponentStatus{Ready: true, Size: e.index.Len()}
	}
	return h
}
