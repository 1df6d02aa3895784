package artifact

import (
	"math"
	"sort"

	"github.com/rushteam/seedrank/core"
)

// Neighborhood 是可选的邻域产物：演示用户行 × 物品的邻域分数和物品人气计数。
type Neighborhood struct {
	Index      *IndexMap
	Scores     [][]float64
	Popularity []float64

	demoRow    []float64
	percentile []float64
}

// NewNeighborhood 校验邻域产物并派生人气百分位（0 = 最热门，rank/(n-1)，同人气按 id 升序）。
// Scores 可以为空，此时只提供人气信号。
func NewNeighborhood(index *IndexMap, scores [][]float64, popularity []float64) (*Neighborhood, error) {
	if index == nil {
		return nil, core.ArtifactViolation("neighborhood: missing index map")
	}
	n := index.Len()
	if len(popularity) != n {
		return nil, core.ArtifactViolation("neighborhood: popularity has %d entries, index map has %d", len(popularity), n)
	}
	for i, v := range popularity {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, core.ArtifactViolation("neighborhood: non-finite popularity at row %d", i)
		}
	}
	for r, row := range scores {
		if len(row) != n {
			return nil, core.ArtifactViolation("neighborhood: score row %d has %d columns, want %d", r, len(row), n)
		}
	}

	nb := &Neighborhood{Index: index, Scores: scores, Popularity: popularity}
	nb.percentile = percentiles(index.IDs(), popularity)
	if len(scores) > 0 {
		// 演示行取所有用户行的列均值，与 MF 的平均用户口径一致
		nb.demoRow = make([]float64, n)
		for _, row := range scores {
			for j, v := range row {
				nb.demoRow[j] += v
			}
		}
		for j := range nb.demoRow {
			nb.demoRow[j] /= float64(len(scores))
		}
	}
	return nb, nil
}

// percentiles 按 (人气降序, id 升序) 排名，返回 rank/(n-1)，按行序对齐。
func percentiles(ids []int64, popularity []float64) []float64 {
	n := len(ids)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		pa, pb := popularity[order[a]], popularity[order[b]]
		if pa != pb {
			return pa > pb
		}
		return ids[order[a]] < ids[order[b]]
	})
	out := make([]float64, n)
	if n == 1 {
		return out
	}
	for rank, row := range order {
		out[row] = float64(rank) / float64(n-1)
	}
	return out
}

// DemoRow 返回演示用户的邻域分数，无分数矩阵时为 nil。
func (nb *Neighborhood) DemoRow() []float64 { return nb.demoRow }

// Percentile 返回物品的人气百分位。
func (nb *Neighborhood) Percentile(id int64) (float64, bool) {
	row, ok := nb.Index.Row(id)
	if !ok {
		return 0, false
	}
	return nb.percentile[row], true
}
