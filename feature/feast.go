package feature

import (
	"context"
	"fmt"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	"github.com/goccy/go-json"

	"github.com/rushteam/bookrec/core"
)

// FeastProvider 是基于官方 Feast Go SDK 的 gRPC 实现。
//
// 约定：偏好以 JSON 对象（tag -> weight）序列化后存放在单个字符串
// 特征里，实体键为用户 ID。例如特征 "reader_profile:tag_prefs"、
// 实体键 "user_id"。
//
// 工程特征：
//   - 实时性：好（gRPC 在线存储）
//   - 冷启动：这是它存在的全部意义
type FeastProvider struct {
	client *feastsdk.GrpcClient

	// Project 项目名称
	Project string

	// EntityKey 实体键名，例如 "user_id"
	EntityKey string

	// Feature 承载偏好 JSON 的特征引用，例如 "reader_profile:tag_prefs"
	Feature string
}

// NewFeastProvider 创建 Feast gRPC 偏好提供方。
func NewFeastProvider(host string, port int, project, entityKey, feature string) (*FeastProvider, error) {
	if port == 0 {
		port = 6565 // Feast 默认 gRPC 端口
	}
	if entityKey == "" {
		entityKey = "user_id"
	}
	if feature == "" {
		return nil, fmt.Errorf("feature: feast feature ref is required")
	}

	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("feature: create feast grpc client: %w", err)
	}
	return &FeastProvider{
		client:    client,
		Project:   project,
		EntityKey: entityKey,
		Feature:   feature,
	}, nil
}

func (p *FeastProvider) Name() string { return "feast" }

// TagPreferences 实现 Provider 接口。
func (p *FeastProvider) TagPreferences(ctx context.Context, userID int64) (map[string]float64, error) {
	req := &feastsdk.OnlineFeaturesRequest{
		Features: []string{p.Feature},
		Entities: []feastsdk.Row{
			{p.EntityKey: feastsdk.Int64Val(userID)},
		},
		Project: p.Project,
	}

	resp, err := p.client.GetOnlineFeatures(ctx, req)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeUnavailable,
			fmt.Sprintf("feature: feast get online features: %v", err))
	}

	rows := resp.Rows()
	if len(rows) == 0 {
		return nil, ErrPreferencesNotFound(userID)
	}

	val, ok := rows[0][p.Feature]
	if !ok || val == nil {
		return nil, ErrPreferencesNotFound(userID)
	}
	raw := val.GetStringVal()
	if raw == "" {
		return nil, ErrPreferencesNotFound(userID)
	}

	prefs := make(map[string]float64)
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return nil, fmt.Errorf("feature: decode tag preferences for user %d: %w", userID, err)
	}
	if len(prefs) == 0 {
		return nil, ErrPreferencesNotFound(userID)
	}
	return prefs, nil
}

// Close 关闭客户端连接。官方 SDK 的连接由 gRPC 库管理。
func (p *FeastProvider) Close() error {
	p.client = nil
	return nil
}

var _ Provider = (*FeastProvider)(nil)
