// Package cf 封装训练好的邻域协同过滤模型（KNN + baseline）。
// 模型由外部训练流程产出为 JSON 工件，本包只负责加载与预测；
// 训练过程（baseline 拟合、相似度计算）不在本服务范围内。
package cf

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-json"
)

// RatedItem 是训练集中某用户的一条评分（按内部物品编号）。
type RatedItem struct {
	Item   int     `json:"item"`
	Rating float64 `json:"rating"`
}

// Model 是训练工件的内存形态。
// 原始 ID（raw）与内部编号（inner）的映射来自训练集；
// Sim 为内部物品编号两两相似度，Ratings 按内部用户编号组织。
// 加载后只读。
type Model struct {
	GlobalMean float64 `json:"global_mean"`

	// K / MinK 是邻域大小参数（最多取 K 个邻居，不足 MinK 时退化为 baseline）。
	K    int `json:"k"`
	MinK int `json:"min_k"`

	UserIndex map[int64]int `json:"user_index"` // raw user id -> inner
	ItemIndex map[int64]int `json:"item_index"` // raw item id -> inner

	UserBias []float64 `json:"user_bias"`
	ItemBias []float64 `json:"item_bias"`

	Sim     [][]float64   `json:"sim"`
	Ratings [][]RatedItem `json:"ratings"`
}

// LoadModel 从 JSON 工件加载模型。文件缺失或结构不一致返回错误，
// 由启动流程把 CF 相关操作标记为不可用，而不是中断进程。
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cf: read model artifact: %w", err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("cf: decode model artifact: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) validate() error {
	nUsers := len(m.UserIndex)
	nItems := len(m.ItemIndex)
	if len(m.UserBias) != nUsers || len(m.Ratings) != nUsers {
		return fmt.Errorf("cf: user dimensions mismatch: %d users, %d biases, %d rating lists",
			nUsers, len(m.UserBias), len(m.Ratings))
	}
	if len(m.ItemBias) != nItems || len(m.Sim) != nItems {
		return fmt.Errorf("cf: item dimensions mismatch: %d items, %d biases, %d sim rows",
			nItems, len(m.ItemBias), len(m.Sim))
	}
	for i, row := range m.Sim {
		if len(row) != nItems {
			return fmt.Errorf("cf: sim row %d has %d columns, want %d", i, len(row), nItems)
		}
	}
	if m.K <= 0 {
		m.K = 40
	}
	if m.MinK <= 0 {
		m.MinK = 1
	}
	return nil
}

// baseline 计算 b_ui = μ + b_u + b_i（内部编号）。
func (m *Model) baseline(u, i int) float64 {
	return m.GlobalMean + m.UserBias[u] + m.ItemBias[i]
}

// estimate 对已知的 (内部用户, 内部物品) 做邻域预测：
// 在用户评过的物品中取与目标物品相似度为正的至多 K 个邻居，
// est = b_ui + Σ sim·(r - b_uj) / Σ sim；邻居不足 MinK 时退化为 b_ui。
func (m *Model) estimate(u, i int) float64 {
	type neighbor struct {
		sim float64
		dev float64
	}
	neighbors := make([]neighbor, 0, len(m.Ratings[u]))
	for _, r := range m.Ratings[u] {
		s := m.Sim[i][r.Item]
		if s <= 0 {
			continue
		}
		neighbors = append(neighbors, neighbor{sim: s, dev: r.Rating - m.baseline(u, r.Item)})
	}

	// 稳定排序：相似度并列时保持评分列表原序，预测完全确定
	sort.SliceStable(neighbors, func(a, b int) bool {
		return neighbors[a].sim > neighbors[b].sim
	})
	if len(neighbors) > m.K {
		neighbors = neighbors[:m.K]
	}

	est := m.baseline(u, i)
	if len(neighbors) < m.MinK {
		return est
	}

	var sumSim, sumDev float64
	for _, n := range neighbors {
		sumSim += n.sim
		sumDev += n.sim * n.dev
	}
	if sumSim == 0 {
		return est
	}
	return est + sumDev/sumSim
}
