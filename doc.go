// Package bookrec 是一个图书推荐服务（Book Recommender）。
//
// 设计要点：
// - Pipeline-first: 级联混合推荐通过 Node 串联（CF 召回 → 内容扩展 → 过滤 → 截断）
// - 构建后注入: 数据集、内容索引、CF 模型在启动期一次性构建，请求路径只读无锁
// - 降级优先: 缺表/缺模型/空种子集走降级路径，而不是在请求期报错
package bookrec

import "github.com/rushteam/bookrec/pipeline"

// 轻量 facade：便于直接 import "bookrec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)
