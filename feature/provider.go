// Package feature 提供用户标签偏好的获取能力，服务于冷启动画像推荐：
// CF 模型不认识的用户，从在线特征存储取其偏好标签，再按内容索引打分。
package feature

import (
	"context"
	"fmt"

	"github.com/rushteam/bookrec/core"
)

// Provider 是用户偏好特征的领域接口。
// 返回 标签词 -> 权重，权重语义由特征生产方定义（点击量、显式勾选等）。
type Provider interface {
	// Name 返回提供方名称（日志/监控用）
	Name() string

	// TagPreferences 获取用户的标签偏好。查不到该用户返回 NOT_FOUND。
	TagPreferences(ctx context.Context, userID int64) (map[string]float64, error)

	// Close 关闭连接/释放资源
	Close() error
}

// ErrPreferencesNotFound 构造用户偏好缺失错误。
func ErrPreferencesNotFound(userID int64) error {
	return core.NewDomainError(core.ModuleFeature, core.ErrorCodeNotFound,
		fmt.Sprintf("feature: no tag preferences for user %d", userID))
}

// StaticProvider 是内存实现，用于测试/开发/小规模部署。
type StaticProvider struct {
	// Prefs 按用户存放偏好：user_id -> (tag -> weight)
	Prefs map[int64]map[string]float64
}

func (p *StaticProvider) Name() string { return "static" }

func (p *StaticProvider) TagPreferences(_ context.Context, userID int64) (map[string]float64, error) {
	prefs, ok := p.Prefs[userID]
	if !ok || len(prefs) == 0 {
		return nil, ErrPreferencesNotFound(userID)
	}
	return prefs, nil
}

func (p *StaticProvider) Close() error { return nil }

var _ Provider = (*StaticProvider)(nil)
