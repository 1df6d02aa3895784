package artifact

import (
	"math"

	"github.com/rushteam/seedrank/core"
)

// zeroNormEps 以下的用户向量视为零向量
const zeroNormEps = 1e-9

// MF 是矩阵分解产物：用户因子 P、物品因子 Q、全局偏置以及 Q 的行索引。
type MF struct {
	P     [][]float64
	Q     [][]float64
	Bias  float64
	Index *IndexMap

	dim      int
	meanUser []float64
	demoRow  []float64
}

// NewMF 校验并装载矩阵分解产物，同时派生平均用户向量与演示行（meanP·Q + bias）。
func NewMF(p, q [][]float64, bias float64, index *IndexMap) (*MF, error) {
	if len(p) == 0 || len(q) == 0 {
		return nil, core.ArtifactViolation("mf: empty factor matrix (P rows=%d, Q rows=%d)", len(p), len(q))
	}
	if index == nil {
		return nil, core.ArtifactViolation("mf: missing index map")
	}
	if len(q) != index.Len() {
		return nil, core.ArtifactViolation("mf: Q has %d rows but index map has %d entries", len(q), index.Len())
	}
	if math.IsNaN(bias) || math.IsInf(bias, 0) {
		return nil, core.ArtifactViolation("mf: non-finite bias")
	}
	dim := len(q[0])
	if dim == 0 {
		return nil, core.ArtifactViolation("mf: zero factor dimension")
	}
	for name, mat := range map[string][][]float64{"P": p, "Q": q} {
		for i, row := range mat {
			if len(row) != dim {
				return nil, core.ArtifactViolation("mf: %s row %d has dim %d, want %d", name, i, len(row), dim)
			}
			for _, v := range row {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return nil, core.ArtifactViolation("mf: %s row %d has non-finite value", name, i)
				}
			}
		}
	}

	m := &MF{P: p, Q: q, Bias: bias, Index: index, dim: dim}
	m.meanUser = make([]float64, dim)
	for _, row := range p {
		for k, v := range row {
			m.meanUser[k] += v
		}
	}
	for k := range m.meanUser {
		m.meanUser[k] /= float64(len(p))
	}
	m.demoRow = m.score(m.meanUser)
	return m, nil
}

// Dim 返回因子维度。
func (m *MF) Dim() int { return m.dim }

// MeanUser 返回平均用户向量（只读）。
func (m *MF) MeanUser() []float64 { return m.meanUser }

// DemoRow 返回平均用户对所有物品的打分，按 Index 行序对齐（只读）。
func (m *MF) DemoRow() []float64 { return m.demoRow }

func (m *MF) score(vec []float64) []float64 {
	out := make([]float64, len(m.Q))
	for i, row := range m.Q {
		s := m.Bias
		for k, v := range row {
			s += vec[k] * v
		}
		out[i] = s
	}
	return out
}

// UserScores 用用户口味向量对所有物品打分（vec·Q + bias）。
// 维度不符或范数约为 0 时返回不可用状态，而不是一组无意义的分数。
func (m *MF) UserScores(vec []float64) ([]float64, core.PersonalizationStatus) {
	if len(vec) == 0 {
		return nil, core.PersonalizationStatus{Reason: core.ReasonNoProfile}
	}
	if len(vec) != m.dim {
		return nil, core.PersonalizationStatus{Reason: core.ReasonDimensionMismatch}
	}
	norm := 0.0
	for _, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, core.PersonalizationStatus{Reason: core.ReasonZeroNorm}
		}
		norm += v * v
	}
	if math.Sqrt(norm) < zeroNormEps {
		return nil, core.PersonalizationStatus{Reason: core.ReasonZeroNorm}
	}
	return m.score(vec), core.PersonalizationStatus{Available: true}
}
