package content

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/bookrec/core"
)

// Index 是预计算的内容相似度索引。
// sim[i][j] = 书 i 与书 j 的 TF-IDF 余弦相似度，矩阵对称、对角线为 1。
// 附带 book_id ↔ 矩阵行 的双向映射；不在语料中的图书没有行。
// 构建一次后只读，可并发访问。
type Index struct {
	sim   *mat.SymDense
	rowOf map[int64]int
	idOf  []int64

	// 归一化 TF-IDF 向量与词表保留下来，用于按标签词打分
	//（冷启动画像推荐），不参与级联路径。
	vecs  []sparseVec
	vocab map[string]int
}

// Build 为给定图书构建索引。ids 与 tagText 一一对应（行序即 ids 序）；
// 每本语料内图书恰好占一行，空标签文本得到零向量。
func Build(ids []int64, tagText []string) *Index {
	vecs, vocab := vectorize(tagText)

	n := len(ids)
	ix := &Index{
		sim:   mat.NewSymDense(max(n, 1), nil),
		rowOf: make(map[int64]int, n),
		idOf:  append([]int64(nil), ids...),
		vecs:  vecs,
		vocab: vocab,
	}
	for i, id := range ids {
		ix.rowOf[id] = i
	}

	for i := 0; i < n; i++ {
		ix.sim.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			ix.sim.SetSym(i, j, vecs[i].dot(vecs[j]))
		}
	}
	return ix
}

// Len 返回语料大小。
func (ix *Index) Len() int { return len(ix.idOf) }

// Has 判断图书是否在 CB 语料中。O(1)。
func (ix *Index) Has(bookID int64) bool {
	_, ok := ix.rowOf[bookID]
	return ok
}

// IDs 返回语料中全部图书 ID，按行序。调用方不得修改。
func (ix *Index) IDs() []int64 { return ix.idOf }

func (ix *Index) errUnknown(bookID int64) error {
	return core.NewDomainError(core.ModuleContent, core.ErrorCodeUnknownBook,
		fmt.Sprintf("content: book %d not in similarity corpus", bookID))
}

// Similarity 返回两本书的余弦相似度，范围 [0,1]，对称。
// 任一 ID 不在语料中返回 UNKNOWN_BOOK。
func (ix *Index) Similarity(a, b int64) (float64, error) {
	ra, ok := ix.rowOf[a]
	if !ok {
		return 0, ix.errUnknown(a)
	}
	rb, ok := ix.rowOf[b]
	if !ok {
		return 0, ix.errUnknown(b)
	}
	return ix.sim.At(ra, rb), nil
}

// MaxSimilarityToSeeds 返回候选图书与种子集中任意一本的最大相似度。
// “max 而非平均”是刻意的启发式：奖励与任一种子强相关的候选。
// 种子集为空返回 EMPTY_SEED_SET；ID 不在语料中返回 UNKNOWN_BOOK。
func (ix *Index) MaxSimilarityToSeeds(bookID int64, seeds []int64) (float64, error) {
	if len(seeds) == 0 {
		return 0, core.NewDomainError(core.ModuleContent, core.ErrorCodeEmptySeeds,
			"content: empty seed set")
	}
	row, ok := ix.rowOf[bookID]
	if !ok {
		return 0, ix.errUnknown(bookID)
	}
	best := 0.0
	for i, s := range seeds {
		sr, ok := ix.rowOf[s]
		if !ok {
			return 0, ix.errUnknown(s)
		}
		v := ix.sim.At(row, sr)
		if i == 0 || v > best {
			best = v
		}
	}
	return best, nil
}

// ScoreTerms 按标签词偏好给全部语料打分：
// 偏好向量投影到词表、l2 归一化后，与每本书的归一化 TF-IDF 向量取点积。
// 返回与 IDs() 对齐的分数切片。词表外的偏好词被忽略。
func (ix *Index) ScoreTerms(prefs map[string]float64) []float64 {
	w := make([]float64, len(ix.vocab))
	for term, weight := range prefs {
		for _, tok := range tokenize(term) {
			if col, ok := ix.vocab[tok]; ok {
				w[col] += weight
			}
		}
	}
	if norm := floats.Norm(w, 2); norm > 0 {
		floats.Scale(1/norm, w)
	}

	scores := make([]float64, len(ix.idOf))
	for i, vec := range ix.vecs {
		var s float64
		for k, c := range vec.cols {
			s += vec.vals[k] * w[c]
		}
		scores[i] = s
	}
	return scores
}
