// Package blend 实现 ScoreBlender（按权重混合预计算的分数向量）与个性化混合。
package blend

import (
	"math"
	"sort"

	"github.com/rushteam/seedrank/core"
)

// 分量下标
const (
	compMF = iota
	compNeighborhood
	compPopularity
	numComponents
)

var componentNames = [numComponents]string{"cf", "neighborhood", "popularity"}

// Weights 是 CF（矩阵分解）、邻域、人气三个分量的权重。
type Weights struct {
	MF           float64 `koanf:"mf" yaml:"mf" json:"mf" validate:"gte=0"`
	Neighborhood float64 `koanf:"neighborhood" yaml:"neighborhood" json:"neighborhood" validate:"gte=0"`
	Popularity   float64 `koanf:"popularity" yaml:"popularity" json:"popularity" validate:"gte=0"`
}

func (w Weights) at(k int) float64 {
	switch k {
	case compMF:
		return w.MF
	case compNeighborhood:
		return w.Neighborhood
	default:
		return w.Popularity
	}
}

// Components 是按同一物品顺序对齐的原始分量向量。
//   - 整个分量缺失：nil
//   - 单个物品缺失：NaN
//
// Popularity 约定 1 = 最热门。
type Components struct {
	IDs          []int64
	MF           []float64
	Neighborhood []float64
	Popularity   []float64
}

// ScoreBlender 是无状态的分数混合器：构建后只读，可跨请求共享。
// raw 保留归一化前的分数，CF 是否为 0 以原始分数判断。
type ScoreBlender struct {
	ids   []int64
	index map[int64]int
	raw   [numComponents][]float64
	norm  [numComponents][]float64
}

// NewScoreBlender 对每个存在的分量做 min-max 归一化（忽略 NaN）。
func NewScoreBlender(c Components) *ScoreBlender {
	b := &ScoreBlender{
		ids:   c.IDs,
		index: make(map[int64]int, len(c.IDs)),
	}
	for i, id := range c.IDs {
		b.index[id] = i
	}
	for k, vec := range [numComponents][]float64{c.MF, c.Neighborhood, c.Popularity} {
		b.norm[k] = normalize(vec, len(c.IDs))
		if b.norm[k] != nil {
			b.raw[k] = vec
		}
	}
	return b
}

// WithMF 返回替换了 MF 分量的新 Blender（其余分量共享只读数据）。
// 用于把个性化 MF 向量代入，原 Blender 不受影响。
func (b *ScoreBlender) WithMF(raw []float64) *ScoreBlender {
	nb := &ScoreBlender{ids: b.ids, index: b.index, raw: b.raw, norm: b.norm}
	nb.norm[compMF] = normalize(raw, len(b.ids))
	nb.raw[compMF] = nil
	if nb.norm[compMF] != nil {
		nb.raw[compMF] = raw
	}
	return nb
}

// normalize 把原始向量线性映射到 [0,1]。长度不符视为分量缺失；常量向量映射为 0。
func normalize(raw []float64, n int) []float64 {
	if raw == nil || len(raw) != n {
		return nil
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	out := make([]float64, n)
	span := hi - lo
	for i, v := range raw {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			out[i] = math.NaN()
		case span <= 0:
			out[i] = 0
		default:
			out[i] = (v - lo) / span
		}
	}
	return out
}

// contributions 返回 pos 处各分量的原始贡献（权重 × 归一化值）以及是否参与。
// 权重为 0、分量缺失或该物品缺失的分量不参与。
func (b *ScoreBlender) contributions(pos int, w Weights) (contrib [numComponents]float64, fired [numComponents]bool) {
	for k := 0; k < numComponents; k++ {
		wk := w.at(k)
		vec := b.norm[k]
		if wk <= 0 || vec == nil || math.IsNaN(vec[pos]) {
			continue
		}
		contrib[k] = wk * vec[pos]
		fired[k] = true
	}
	return contrib, fired
}

// Blend 返回按权重混合后的分数向量（与 IDs 对齐）。
// 没有任何分量参与的物品（含全部权重为 0）得 0。
func (b *ScoreBlender) Blend(w Weights) []float64 {
	out := make([]float64, len(b.ids))
	for i := range b.ids {
		contrib, _ := b.contributions(i, w)
		out[i] = contrib[compMF] + contrib[compNeighborhood] + contrib[compPopularity]
	}
	return out
}

// Signal 返回单个物品的 CF 信号（三态）与占比。
// 参与的 CF 分量原始分数全部在 eps 内为 0 时才是 CFZero：归一化后的 0 只说明它是最低分。
func (b *ScoreBlender) Signal(id int64, w Weights, eps float64) core.CFSignal {
	pos, ok := b.index[id]
	if !ok {
		return core.CFSignal{State: core.CFAbsent}
	}
	contrib, fired := b.contributions(pos, w)
	sig := core.CFSignal{
		Hybrid: contrib[compMF] + contrib[compNeighborhood] + contrib[compPopularity],
		CFOnly: contrib[compMF] + contrib[compNeighborhood],
		Shares: sharesOf(contrib, fired),
	}
	if !fired[compMF] && !fired[compNeighborhood] {
		sig.State = core.CFAbsent
		return sig
	}
	sig.State = core.CFZero
	for _, k := range []int{compMF, compNeighborhood} {
		if fired[k] && math.Abs(b.raw[k][pos]) > eps {
			sig.State = core.CFPresent
		}
	}
	return sig
}

// sharesOf 只在参与的分量上归一化；总贡献为 0 时全部为 0。
func sharesOf(contrib [numComponents]float64, fired [numComponents]bool) core.Shares {
	total := 0.0
	for k := 0; k < numComponents; k++ {
		if fired[k] && contrib[k] > 0 {
			total += contrib[k]
		}
	}
	if total <= 0 {
		return core.Shares{}
	}
	share := func(k int) float64 {
		if !fired[k] || contrib[k] <= 0 {
			return 0
		}
		return contrib[k] / total
	}
	return core.Shares{
		CF:           share(compMF),
		Neighborhood: share(compNeighborhood),
		Popularity:   share(compPopularity),
	}
}

func componentMap(contrib [numComponents]float64, fired [numComponents]bool) map[string]float64 {
	out := make(map[string]float64, numComponents)
	for k := 0; k < numComponents; k++ {
		if fired[k] {
			out[componentNames[k]] = contrib[k]
		}
	}
	return out
}

// TopN 返回混合分数最高的 n 个物品，按 (-score, id) 排序并附带分量占比与分量贡献。
// exclude 返回 true 的物品以及没有任何分量参与的物品不会出现在结果中。
func (b *ScoreBlender) TopN(w Weights, n int, exclude func(int64) bool) []core.ScoredResult {
	if n <= 0 {
		return nil
	}
	type scored struct {
		pos   int
		score float64
	}
	scores := b.Blend(w)
	pool := make([]scored, 0, len(b.ids))
	for i, id := range b.ids {
		if exclude != nil && exclude(id) {
			continue
		}
		if _, fired := b.contributions(i, w); !fired[compMF] && !fired[compNeighborhood] && !fired[compPopularity] {
			continue
		}
		pool = append(pool, scored{pos: i, score: scores[i]})
	}
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].score != pool[j].score {
			return pool[i].score > pool[j].score
		}
		return b.ids[pool[i].pos] < b.ids[pool[j].pos]
	})
	if len(pool) > n {
		pool = pool[:n]
	}

	out := make([]core.ScoredResult, 0, len(pool))
	for _, s := range pool {
		contrib, fired := b.contributions(s.pos, w)
		out = append(out, core.ScoredResult{
			ItemID: b.ids[s.pos],
			Score:  s.score,
			Explanation: core.Explanation{
				Shares:     sharesOf(contrib, fired),
				Components: componentMap(contrib, fired),
			},
		})
	}
	return out
}

// Contribution 返回单个物品各参与分量的原始贡献（权重 × 归一化值），用于 Stage2 的解释信息。
// 物品不在 Blender 中时返回 nil。
func (b *ScoreBlender) Contribution(id int64, w Weights) map[string]float64 {
	pos, ok := b.index[id]
	if !ok {
		return nil
	}
	return componentMap(b.contributions(pos, w))
}
