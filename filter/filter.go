// Package filter 提供候选过滤：Filter 抽象 + 组合用的 FilterNode，
// 以及基于 CEL 规则表达式的运营过滤器。
package filter

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// Filter 是过滤器的抽象接口，用于判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}
