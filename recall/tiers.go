package recall

import (
	"context"
	"math"
	"sort"

	"github.com/rushteam/seedrank/artifact"
	"github.com/rushteam/seedrank/core"
	"github.com/rushteam/seedrank/feature"
	"github.com/rushteam/seedrank/semantic"
)

// NeuralSource 返回神经通道的 top-K 近邻，按 (-sim, id) 排序。
type NeuralSource struct {
	Query *semantic.Query
	K     int
}

func (s *NeuralSource) Name() string { return "recall.neural" }

func (s *NeuralSource) Recall(_ context.Context, rctx *core.RecommendContext) ([]int64, error) {
	neighbors := s.Query.TopK(s.K, 0, rctx.IsExcluded)
	out := make([]int64, len(neighbors))
	for i, nb := range neighbors {
		out[i] = nb.ID
	}
	return out, nil
}

// MetaStrictSource 返回种子加权类型重叠或主题重叠达到门限的物品，按 id 升序。
// 缺失的元数据不会让物品被惩罚，只是无法命中。
type MetaStrictSource struct {
	Snap       *artifact.Snapshot
	Profile    *feature.SeedProfile
	GenreFloor float64
	ThemeFloor float64
}

func (s *MetaStrictSource) Name() string { return "recall.meta_strict" }

func (s *MetaStrictSource) Recall(ctx context.Context, rctx *core.RecommendContext) ([]int64, error) {
	var out []int64
	for i, e := range s.Snap.Catalog.Entries() {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if rctx.IsExcluded(e.Item.ID) {
			continue
		}
		if s.Profile.GenreOverlap(e) >= s.GenreFloor || s.Profile.ThemeOverlap(e) >= s.ThemeFloor {
			out = append(out, e.Item.ID)
		}
	}
	return out, nil
}

// PopularitySource 返回最热门的 K 个物品，按 (人气降序, id 升序)。
type PopularitySource struct {
	Snap *artifact.Snapshot
	K    int
}

func (s *PopularitySource) Name() string { return "recall.popularity" }

func (s *PopularitySource) Recall(_ context.Context, rctx *core.RecommendContext) ([]int64, error) {
	if s.K <= 0 {
		return nil, nil
	}
	type ranked struct {
		id  int64
		pct float64
	}
	all := make([]ranked, 0, s.Snap.Catalog.Len())
	for _, id := range s.Snap.Catalog.IDs() {
		if rctx.IsExcluded(id) {
			continue
		}
		p, ok := s.Snap.Percentile(id)
		if !ok || math.IsNaN(p) {
			continue
		}
		all = append(all, ranked{id: id, pct: p})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].pct != all[j].pct {
			return all[i].pct < all[j].pct
		}
		return all[i].id < all[j].id
	})
	if len(all) > s.K {
		all = all[:s.K]
	}
	out := make([]int64, len(all))
	for i, r := range all {
		out[i] = r.id
	}
	return out, nil
}
