package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// rawTable 是一张已解析的 CSV 表：列名 -> 列下标，加上数据行。
type rawTable struct {
	cols map[string]int
	rows [][]string
}

func (t *rawTable) field(row []string, col string) string {
	idx, ok := t.cols[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// loadCSV 读取单个 CSV 文件。任何失败（缺文件、坏表头）都返回 nil，
// 由调用方把该表标记为未加载，而不是中断启动。
func loadCSV(path string) *rawTable {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // goodbooks 数据存在不规整行，逐行容错
	header, err := r.Read()
	if err != nil {
		return nil
	}

	t := &rawTable{cols: make(map[string]int, len(header))}
	for i, name := range header {
		t.cols[strings.TrimSpace(name)] = i
	}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// 跳过坏行，保留已解析部分
			continue
		}
		t.rows = append(t.rows, row)
	}
	return t
}

// Load 从 dir 并发加载四张表并组装目录。
// 单表缺失只降级对应能力（状态标记为未加载），永不返回加载错误。
func Load(dir string) *Catalog {
	var books, ratings, tags, bookTags *rawTable

	// 四张表相互独立，启动时并发读取
	var g errgroup.Group
	g.Go(func() error { books = loadCSV(filepath.Join(dir, "books.csv")); return nil })
	g.Go(func() error { ratings = loadCSV(filepath.Join(dir, "ratings.csv")); return nil })
	g.Go(func() error { tags = loadCSV(filepath.Join(dir, "tags.csv")); return nil })
	g.Go(func() error { bookTags = loadCSV(filepath.Join(dir, "book_tags.csv")); return nil })
	_ = g.Wait()

	return assemble(books, ratings, tags, bookTags)
}

// assemble 把四张原始表组装为只读目录。拆出来便于测试构造。
func assemble(books, ratings, tags, bookTags *rawTable) *Catalog {
	c := &Catalog{
		books:         make(map[int64]*Book),
		ratingsByUser: make(map[int64]map[int64]float64),
		status:        make(map[string]TableStatus, 4),
	}

	c.status[TableBooks] = tableStatus(books)
	c.status[TableRatings] = tableStatus(ratings)
	c.status[TableTags] = tableStatus(tags)
	c.status[TableBookTags] = tableStatus(bookTags)

	if books != nil {
		for _, row := range books.rows {
			id, err := strconv.ParseInt(books.field(row, "book_id"), 10, 64)
			if err != nil {
				continue
			}
			if _, dup := c.books[id]; dup {
				continue
			}
			grID, _ := strconv.ParseInt(books.field(row, "goodreads_book_id"), 10, 64)
			c.books[id] = &Book{
				ID:          id,
				GoodreadsID: grID,
				Title:       books.field(row, "original_title"),
			}
			c.bookOrder = append(c.bookOrder, id)
		}
	}

	if ratings != nil {
		for _, row := range ratings.rows {
			uid, err1 := strconv.ParseInt(ratings.field(row, "user_id"), 10, 64)
			bid, err2 := strconv.ParseInt(ratings.field(row, "book_id"), 10, 64)
			val, err3 := strconv.ParseFloat(ratings.field(row, "rating"), 64)
			if err1 != nil || err2 != nil || err3 != nil {
				continue
			}
			m, ok := c.ratingsByUser[uid]
			if !ok {
				m = make(map[int64]float64)
				c.ratingsByUser[uid] = m
				c.userOrder = append(c.userOrder, uid)
			}
			m[bid] = val
		}
	}

	// book_tags ⋈ tags → 按原始行序聚合每本书的标签文本。
	// 聚合键是 goodreads_book_id，但与 books 的连接沿用原系统的
	// book_id 连接口径；没有聚合行的图书不进入 CB 语料。
	if tags != nil && bookTags != nil {
		tagNames := make(map[int64]string, len(tags.rows))
		for _, row := range tags.rows {
			tid, err := strconv.ParseInt(tags.field(row, "tag_id"), 10, 64)
			if err != nil {
				continue
			}
			tagNames[tid] = tags.field(row, "tag_name")
		}

		tagText := make(map[int64]*strings.Builder)
		for _, row := range bookTags.rows {
			grID, err1 := strconv.ParseInt(bookTags.field(row, "goodreads_book_id"), 10, 64)
			tid, err2 := strconv.ParseInt(bookTags.field(row, "tag_id"), 10, 64)
			if err1 != nil || err2 != nil {
				continue
			}
			name, ok := tagNames[tid]
			if !ok {
				continue
			}
			sb, ok := tagText[grID]
			if !ok {
				sb = &strings.Builder{}
				tagText[grID] = sb
			}
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(name)
		}

		for id, b := range c.books {
			if sb, ok := tagText[id]; ok {
				b.TagText = sb.String()
				b.HasTags = true
			}
		}
	}

	return c
}

func tableStatus(t *rawTable) TableStatus {
	if t == nil {
		return TableStatus{}
	}
	return TableStatus{Loaded: true, Rows: len(t.rows)}
}
