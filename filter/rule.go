package filter

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/dsl"
)

// RuleFilter 是规则过滤器：表达式命中的 Item 被剔除。
// 规则来自服务配置，典型用法是运营下架：
//
//	rules:
//	  - 'item.id == 1234'
//	  - 'label.recall_source == "content" && item.score < 0.01'
//
// 未配置规则时级联结果与纯算法输出完全一致。
type RuleFilter struct {
	eval *dsl.Eval
}

// NewRuleFilter 编译一条 CEL 规则。非法表达式在启动时报错，
// 不会进入请求路径。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	eval, err := dsl.NewEval(expr)
	if err != nil {
		return nil, err
	}
	return &RuleFilter{eval: eval}, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule(" + f.eval.Expr() + ")"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return false, nil
	}
	return f.eval.Match(item, rctx)
}
