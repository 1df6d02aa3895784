package blend

import "github.com/rushteam/seedrank/core"

// PersonalizeConfig 控制个性化混合的两端截断。
type PersonalizeConfig struct {
	// Upper 以上只用个性化结果，Lower 以下只用种子结果
	Upper float64 `koanf:"upper" yaml:"upper" json:"upper" validate:"gte=0,lte=1"`
	Lower float64 `koanf:"lower" yaml:"lower" json:"lower" validate:"gte=0,lte=1"`
}

func DefaultPersonalizeConfig() PersonalizeConfig {
	return PersonalizeConfig{Upper: 0.99, Lower: 0.01}
}

// Personalize 按强度 s 混合纯个性化列表与纯种子列表：
//   - s >= Upper：只返回个性化结果
//   - s <= Lower：只返回种子结果
//   - 否则在 ID 并集上计算 s·personal + (1-s)·seed（缺失记 0），分量占比同样按分量混合，
//     重新按 (-score, id) 排序并截断到 topN
func Personalize(personal, seed []core.ScoredResult, s float64, topN int, cfg PersonalizeConfig) []core.ScoredResult {
	switch {
	case s >= cfg.Upper:
		return truncate(personal, topN)
	case s <= cfg.Lower:
		return truncate(seed, topN)
	}

	type pair struct {
		p, q *core.ScoredResult
	}
	merged := make(map[int64]*pair, len(personal)+len(seed))
	order := make([]int64, 0, len(personal)+len(seed))
	for i := range personal {
		r := &personal[i]
		merged[r.ItemID] = &pair{p: r}
		order = append(order, r.ItemID)
	}
	for i := range seed {
		r := &seed[i]
		if pr, ok := merged[r.ItemID]; ok {
			pr.q = r
			continue
		}
		merged[r.ItemID] = &pair{q: r}
		order = append(order, r.ItemID)
	}

	out := make([]core.ScoredResult, 0, len(order))
	for _, id := range order {
		pr := merged[id]
		var ps, qs float64
		var psh, qsh core.Shares
		terms := make(map[string]float64)
		comps := make(map[string]float64)
		if pr.p != nil {
			ps, psh = pr.p.Score, pr.p.Explanation.Shares
			terms["personalized_score"] = ps
			for k, v := range pr.p.Explanation.Terms {
				terms[k] += s * v
			}
			for k, v := range pr.p.Explanation.Components {
				comps[k] += s * v
			}
		}
		if pr.q != nil {
			qs, qsh = pr.q.Score, pr.q.Explanation.Shares
			terms["seed_score"] = qs
			for k, v := range pr.q.Explanation.Terms {
				terms[k] += (1 - s) * v
			}
			for k, v := range pr.q.Explanation.Components {
				comps[k] += (1 - s) * v
			}
		}
		out = append(out, core.ScoredResult{
			ItemID: id,
			Score:  s*ps + (1-s)*qs,
			Explanation: core.Explanation{
				Shares:     mixShares(psh, qsh, s),
				Terms:      terms,
				Components: comps,
			},
		})
	}
	core.SortResults(out)
	return truncate(out, topN)
}

// mixShares 分量式混合两组占比，然后重新归一化为和 1（或全 0）。
func mixShares(p, q core.Shares, s float64) core.Shares {
	m := core.Shares{
		CF:           s*p.CF + (1-s)*q.CF,
		Neighborhood: s*p.Neighborhood + (1-s)*q.Neighborhood,
		Popularity:   s*p.Popularity + (1-s)*q.Popularity,
	}
	total := m.Sum()
	if total <= 0 {
		return core.Shares{}
	}
	return core.Shares{
		CF:           m.CF / total,
		Neighborhood: m.Neighborhood / total,
		Popularity:   m.Popularity / total,
	}
}

func truncate(in []core.ScoredResult, n int) []core.ScoredResult {
	if n > 0 && len(in) > n {
		in = in[:n]
	}
	out := make([]core.ScoredResult, len(in))
	copy(out, in)
	return out
}
