package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/bookrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// getCELEnv 获取或创建 CEL 环境，定义变量
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Eval 是规则表达式解释器，使用 CEL (Common Expression Language) 实现。
// 表达式在 NewEval 时编译一次，之后可并发调用 Match。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.recall_source == "content" / label.cold_start == "true"
//   - 数值：item.score > 0.7 / item.id == 42
//   - 逻辑：label.recall_source == "cf" && item.score < 2.0
//   - 包含：item.title.contains("draft")
//
// 注意：CEL 访问不存在的 key 会报错，存在性检查用 "key" in label。
type Eval struct {
	expr string
	prg  cel.Program
}

// NewEval 编译一条规则表达式。表达式必须返回布尔值。
func NewEval(expr string) (*Eval, error) {
	if expr == "" {
		return nil, fmt.Errorf("dsl: empty expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: env error: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program error: %w", err)
	}
	return &Eval{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式（日志/观测用）。
func (e *Eval) Expr() string { return e.expr }

// Match 对单个 Item 执行表达式，返回布尔结果。
func (e *Eval) Match(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := e.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("dsl: eval error: %v", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any)
	labelAccessor := make(map[string]any)
	if item != nil {
		for k, v := range item.Labels {
			labels[k] = map[string]any{"value": v.Value, "source": v.Source}
			// label.recall_source 直接返回 value，兼容简写
			labelAccessor[k] = v.Value
		}
	}

	itemInput := map[string]any{}
	if item != nil {
		itemInput = map[string]any{
			"id":     item.ID,
			"title":  item.Title,
			"score":  item.Score,
			"labels": labels,
		}
	}

	rctxInput := map[string]any{}
	if rctx != nil {
		rctxInput = map[string]any{
			"user_id": rctx.UserID,
			"params":  rctx.Params,
		}
	}

	return map[string]any{
		"item":  itemInput,
		"label": labelAccessor,
		"rctx":  rctxInput,
	}
}
