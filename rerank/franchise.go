// Package rerank 是排序后的选择型后处理：系列多样性上限与 Top-N 截断。
// 这里的 Node 只挑选、不改分。
package rerank

import (
	"context"
	"fmt"
	"sort"

	"github.com/rushteam/seedrank/catalog"
	"github.com/rushteam/seedrank/core"
	"github.com/rushteam/seedrank/feature"
	"github.com/rushteam/seedrank/pipeline"
	"github.com/rushteam/seedrank/pkg/utils"
)

// PositionCap 表示输出前 Within 个位置中最多保留 Max 个同系列作品。
type PositionCap struct {
	Within int `koanf:"within" yaml:"within" json:"within" validate:"gt=0"`
	Max    int `koanf:"max" yaml:"max" json:"max" validate:"gte=0"`
}

// FranchiseConfig 是系列多样性上限的参数。
type FranchiseConfig struct {
	TitleOverlapFloor float64       `koanf:"title_overlap_floor" yaml:"title_overlap_floor" json:"title_overlap_floor" validate:"gte=0,lte=1"`
	Caps              []PositionCap `koanf:"caps" yaml:"caps" json:"caps" validate:"dive"`
}

func DefaultFranchiseConfig() FranchiseConfig {
	return FranchiseConfig{
		TitleOverlapFloor: 0.5,
		Caps: []PositionCap{
			{Within: 20, Max: 6},
			{Within: 50, Max: 15},
		},
	}
}

// capAt 返回输出位置 pos（0-based）处生效的上限，caps 按 Within 升序。
func capAt(caps []PositionCap, pos int) (PositionCap, bool) {
	for _, pc := range caps {
		if pos < pc.Within {
			return pc, true
		}
	}
	return PositionCap{}, false
}

// FranchiseCap 是系列多样性 ReRank Node，仅在 discovery 模式下生效。
//   - 同系列判定：与任一种子标题 token 重叠 ≥ 门限，或包含种子的规范化标题短语
//   - 按输入顺序遍历，同系列作品在当前输出位置的累计数达到上限时跳过并记录
//   - completion 模式原样返回
type FranchiseCap struct {
	Catalog *catalog.Catalog
	Config  FranchiseConfig
}

func (n *FranchiseCap) Name() string        { return "rerank.franchise" }
func (n *FranchiseCap) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *FranchiseCap) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	diag := rctx.Diag()
	mode := rctx.Mode
	if mode == "" {
		mode = core.ModeDiscovery
	}
	diag.Franchise.Mode = mode
	diag.Franchise.Before = len(items)
	if mode == core.ModeCompletion || len(items) == 0 {
		diag.Franchise.After = len(items)
		return items, nil
	}

	caps := append([]PositionCap(nil), n.Config.Caps...)
	sort.Slice(caps, func(i, j int) bool { return caps[i].Within < caps[j].Within })
	profile := feature.NewSeedProfile(feature.SeedEntries(n.Catalog, rctx.Seeds), 0)

	out := make([]*core.Candidate, 0, len(items))
	count := 0
	for rank, c := range items {
		if c == nil {
			continue
		}
		if !n.franchiseLike(profile, c) {
			out = append(out, c)
			continue
		}
		if pc, ok := capAt(caps, len(out)); ok && count >= pc.Max {
			diag.Franchise.ItemsDropped = append(diag.Franchise.ItemsDropped, core.FranchiseDrop{
				ItemID: c.ID,
				Rank:   rank,
				Reason: fmt.Sprintf("franchise cap %d within top %d", pc.Max, pc.Within),
			})
			continue
		}
		count++
		c.PutLabel("franchise", utils.Label{Value: "true", Source: "rerank"})
		out = append(out, c)
	}
	diag.Franchise.After = len(out)
	return out, nil
}

func (n *FranchiseCap) franchiseLike(p *feature.SeedProfile, c *core.Candidate) bool {
	if c.Signals.TitleOverlap >= n.Config.TitleOverlapFloor {
		return true
	}
	e, ok := n.Catalog.Entry(c.ID)
	if !ok {
		return false
	}
	return p.TitleOverlap(e) >= n.Config.TitleOverlapFloor || p.PhraseContained(e)
}
