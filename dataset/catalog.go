// Package dataset 实现只读的目录存储（Catalog Store）：
// books / ratings / tags / book_tags 四张表在进程启动时一次性加载，
// 之后整个生命周期只读，请求路径无需加锁。
package dataset

import (
	"fmt"
	"sort"

	"github.com/rushteam/bookrec/core"
)

// 表名常量（与 goodbooks-10k 数据集文件名对应）
const (
	TableBooks    = "books"
	TableRatings  = "ratings"
	TableTags     = "tags"
	TableBookTags = "book_tags"
)

// Book 是目录中的一本图书。加载后不可变。
type Book struct {
	ID          int64
	GoodreadsID int64
	Title       string

	// TagText 是按原始文件顺序空格拼接的标签文本，作为 CB 特征来源。
	// 只有出现在 book_tags 聚合中的图书才有 TagText（HasTags=true），
	// 其余图书被排除在 CB 语料之外。
	TagText string
	HasTags bool
}

// TableStatus 记录单张表的加载结果，用于健康检查。
// 加载失败不会中断启动，依赖该表的操作降级为 UNAVAILABLE。
type TableStatus struct {
	Loaded bool `json:"loaded"`
	Rows   int  `json:"rows"`
}

// UserActivity 是按评分数聚合的单个用户条目。
type UserActivity struct {
	UserID int64 `json:"user_id"`
	Count  int   `json:"count"`
}

// Catalog 是只读的内存目录。构造一次（Load），之后并发只读。
type Catalog struct {
	books     map[int64]*Book
	bookOrder []int64 // 文件行序，保证遍历确定性

	ratingsByUser map[int64]map[int64]float64
	userOrder     []int64 // 用户首次出现顺序，活跃度排名的平局依据

	status map[string]TableStatus
}

// errTableUnavailable 构造表未加载的降级错误。
func errTableUnavailable(table string) *core.DomainError {
	return core.NewDomainError(core.ModuleDataset, core.ErrorCodeUnavailable,
		fmt.Sprintf("dataset: table %q not loaded", table))
}

// Status 返回各表的加载状态（健康检查用）。
func (c *Catalog) Status() map[string]TableStatus {
	out := make(map[string]TableStatus, len(c.status))
	for k, v := range c.status {
		out[k] = v
	}
	return out
}

// BooksLoaded 判断 books 表是否可用。
func (c *Catalog) BooksLoaded() bool { return c.status[TableBooks].Loaded }

// RatingsLoaded 判断 ratings 表是否可用。
func (c *Catalog) RatingsLoaded() bool { return c.status[TableRatings].Loaded }

// Book 按 ID 查找图书。
func (c *Catalog) Book(id int64) (*Book, bool) {
	b, ok := c.books[id]
	return b, ok
}

// Title 返回图书标题；图书不在目录中时返回 UNKNOWN_BOOK。
func (c *Catalog) Title(id int64) (string, error) {
	if !c.BooksLoaded() {
		return "", errTableUnavailable(TableBooks)
	}
	b, ok := c.books[id]
	if !ok {
		return "", core.NewDomainError(core.ModuleDataset, core.ErrorCodeUnknownBook,
			fmt.Sprintf("dataset: book %d not in catalog", id))
	}
	return b.Title, nil
}

// BookIDs 返回全部图书 ID，按文件行序。调用方不得修改返回的切片。
func (c *Catalog) BookIDs() []int64 { return c.bookOrder }

// CorpusIDs 返回拥有标签文本的图书 ID（CB 语料），按文件行序。
func (c *Catalog) CorpusIDs() []int64 {
	out := make([]int64, 0, len(c.bookOrder))
	for _, id := range c.bookOrder {
		if c.books[id].HasTags {
			out = append(out, id)
		}
	}
	return out
}

// UserRatings 返回用户的全部评分：book_id -> rating。
// 用户不存在时返回空 map（零评分用户是合法输入）。
// 调用方不得修改返回的 map。
func (c *Catalog) UserRatings(userID int64) map[int64]float64 {
	if m, ok := c.ratingsByUser[userID]; ok {
		return m
	}
	return nil
}

// Rating 查找某个 (user, book) 的历史评分。
func (c *Catalog) Rating(userID, bookID int64) (float64, bool) {
	m, ok := c.ratingsByUser[userID]
	if !ok {
		return 0, false
	}
	r, ok := m[bookID]
	return r, ok
}

// TopNByActivity 按评分条数对用户降序排名，取前 n 个。
// 平局按用户在 ratings 文件中首次出现的顺序（稳定、确定）。
func (c *Catalog) TopNByActivity(n int) ([]UserActivity, error) {
	if !c.RatingsLoaded() {
		return nil, errTableUnavailable(TableRatings)
	}
	if n < 1 {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
			"dataset: n must be >= 1")
	}

	ranked := make([]UserActivity, 0, len(c.userOrder))
	for _, uid := range c.userOrder {
		ranked = append(ranked, UserActivity{UserID: uid, Count: len(c.ratingsByUser[uid])})
	}
	// 稳定排序保持首次出现顺序作为平局依据
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}
