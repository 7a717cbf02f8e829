// Package content 实现内容相似度索引（Content Similarity Index）：
// 每本书的标签文本 → TF-IDF 向量（剔除英文停用词）→ 两两余弦相似度矩阵。
// 索引在启动时构建一次，之后只读。
package content

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// 词法与 sklearn TfidfVectorizer 默认行为对齐：小写化、至少两个词字符。
var tokenPattern = regexp.MustCompile(`\w\w+`)

func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, w := range raw {
		if isStopWord(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// sparseVec 是一本书的 TF-IDF 向量：词表列下标 -> 权重。
// l2 归一化后存储，两个归一化向量的点积即余弦相似度。
type sparseVec struct {
	cols []int
	vals []float64
}

func (v sparseVec) dot(u sparseVec) float64 {
	var s float64
	i, j := 0, 0
	for i < len(v.cols) && j < len(u.cols) {
		switch {
		case v.cols[i] == u.cols[j]:
			s += v.vals[i] * u.vals[j]
			i++
			j++
		case v.cols[i] < u.cols[j]:
			i++
		default:
			j++
		}
	}
	return s
}

// vectorize 构建语料的 TF-IDF 表示。
// idf 采用平滑形式 ln((1+n)/(1+df)) + 1，权重向量 l2 归一化；
// 空文本得到零向量，对任何文档的相似度为 0。
func vectorize(docs []string) (vecs []sparseVec, vocab map[string]int) {
	tokenized := make([][]string, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		toks := tokenize(doc)
		tokenized[i] = toks
		seen := make(map[string]struct{}, len(toks))
		for _, t := range toks {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	// 词表按字典序编号，保证列下标确定
	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	vocab = make(map[string]int, len(terms))
	for i, t := range terms {
		vocab[t] = i
	}

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	for i, t := range terms {
		idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	vecs = make([]sparseVec, len(docs))
	for i, toks := range tokenized {
		tf := make(map[int]float64, len(toks))
		for _, t := range toks {
			tf[vocab[t]]++
		}
		cols := make([]int, 0, len(tf))
		for c := range tf {
			cols = append(cols, c)
		}
		sort.Ints(cols)

		vals := make([]float64, len(cols))
		var norm float64
		for k, c := range cols {
			w := tf[c] * idf[c]
			vals[k] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for k := range vals {
				vals[k] /= norm
			}
		}
		vecs[i] = sparseVec{cols: cols, vals: vals}
	}
	return vecs, vocab
}
