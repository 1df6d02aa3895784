package artifact

import (
	"math"

	"github.com/rushteam/seedrank/core"
)

// normTolerance 是 L2 归一化行的范数容差
const normTolerance = 1e-3

// Embedding 是单个语义通道的物品向量矩阵（行主序 float32，行已 L2 归一化）。
// 相似度 = 点积。全零行视为该物品没有向量。
type Embedding struct {
	Name  string
	Index *IndexMap
	Dim   int
	Data  []float32

	empty []bool
}

// NewEmbedding 校验矩阵形状、数值与行范数。
func NewEmbedding(name string, index *IndexMap, dim int, data []float32) (*Embedding, error) {
	if index == nil {
		return nil, core.ArtifactViolation("embedding %s: missing index map", name)
	}
	if dim <= 0 {
		return nil, core.ArtifactViolation("embedding %s: invalid dim %d", name, dim)
	}
	rows := index.Len()
	if len(data) != rows*dim {
		return nil, core.ArtifactViolation("embedding %s: data length %d, want %d×%d", name, len(data), rows, dim)
	}
	e := &Embedding{Name: name, Index: index, Dim: dim, Data: data, empty: make([]bool, rows)}
	for r := 0; r < rows; r++ {
		sq := 0.0
		for _, v := range data[r*dim : (r+1)*dim] {
			f := float64(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, core.ArtifactViolation("embedding %s: non-finite value in row %d", name, r)
			}
			sq += f * f
		}
		norm := math.Sqrt(sq)
		switch {
		case norm < zeroNormEps:
			e.empty[r] = true
		case math.Abs(norm-1) > normTolerance:
			return nil, core.ArtifactViolation("embedding %s: row %d not L2-normalized (norm=%.4f)", name, r, norm)
		}
	}
	return e, nil
}

// Vector 返回物品向量（只读），物品不存在或为空行时返回 false。
func (e *Embedding) Vector(id int64) ([]float32, bool) {
	row, ok := e.Index.Row(id)
	if !ok || e.empty[row] {
		return nil, false
	}
	return e.Data[row*e.Dim : (row+1)*e.Dim], true
}

// RowVector 按行号返回向量，空行返回 false。
func (e *Embedding) RowVector(row int) ([]float32, bool) {
	if e.empty[row] {
		return nil, false
	}
	return e.Data[row*e.Dim : (row+1)*e.Dim], true
}

// Dot 返回两个同维向量的点积。
func Dot(a, b []float32) float64 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return float64(s)
}
