package core

import "github.com/rushteam/bookrec/pkg/utils"

// Item 是推荐链路中的统一承载结构：图书 ID、标题、分数、标签。
// Score 用于排序决策；Labels 用于解释与观测（召回来源、冷启动标记等）。
type Item struct {
	ID     int64
	Title  string
	Score  float64
	Labels map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:     id,
		Score:  0,
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Titles 抽取一组 Item 的标题，保持原有顺序。
func Titles(items []*Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		out = append(out, it.Title)
	}
	return out
}
