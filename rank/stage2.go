// Package rank 是 Stage2 精排：对短名单中的每个候选计算唯一的最终分数。
package rank

import (
	"context"
	"math"

	"github.com/rushteam/seedrank/artifact"
	"github.com/rushteam/seedrank/blend"
	"github.com/rushteam/seedrank/core"
	"github.com/rushteam/seedrank/feature"
	"github.com/rushteam/seedrank/pipeline"
	"github.com/rushteam/seedrank/pkg/utils"
	"github.com/rushteam/seedrank/semantic"
)

// Weights 是 Stage2 各打分项的系数。
type Weights struct {
	Genre      float64 `koanf:"genre" yaml:"genre" json:"genre" validate:"gte=0"`
	Coverage   float64 `koanf:"coverage" yaml:"coverage" json:"coverage" validate:"gte=0"`
	CF         float64 `koanf:"cf" yaml:"cf" json:"cf" validate:"gte=0"`
	Popularity float64 `koanf:"popularity" yaml:"popularity" json:"popularity" validate:"gte=0"`
	Stage1     float64 `koanf:"stage1" yaml:"stage1" json:"stage1" validate:"gte=0"`
	Neural     float64 `koanf:"neural" yaml:"neural" json:"neural" validate:"gte=0"`

	// Affinity 在 CF 有效时使用，AffinityNoCF 在 CF 缺失或为 0 时使用
	Affinity     float64 `koanf:"affinity" yaml:"affinity" json:"affinity" validate:"gte=0"`
	AffinityNoCF float64 `koanf:"affinity_no_cf" yaml:"affinity_no_cf" json:"affinity_no_cf" validate:"gte=0"`

	Demographic float64 `koanf:"demographic" yaml:"demographic" json:"demographic" validate:"gte=0"`
	Theme       float64 `koanf:"theme" yaml:"theme" json:"theme" validate:"gte=0"`
}

// ObscurityConfig 是冷门惩罚参数。
type ObscurityConfig struct {
	MissingRating float64 `koanf:"missing_rating" yaml:"missing_rating" json:"missing_rating" validate:"gte=0"`
	RatingFloor   float64 `koanf:"rating_floor" yaml:"rating_floor" json:"rating_floor" validate:"gte=0,lte=10"`
	LowRatingCoef float64 `koanf:"low_rating_coef" yaml:"low_rating_coef" json:"low_rating_coef" validate:"gte=0"`
	MembersFloor  int64   `koanf:"members_floor" yaml:"members_floor" json:"members_floor" validate:"gte=0"`
	LowMembers    float64 `koanf:"low_members" yaml:"low_members" json:"low_members" validate:"gte=0"`
}

// Penalty 返回冷门惩罚（正数）。
func (o ObscurityConfig) Penalty(it *core.CatalogItem) float64 {
	if it == nil {
		return 0
	}
	p := 0.0
	switch {
	case !it.HasRating:
		p += o.MissingRating
	case it.Rating < o.RatingFloor && o.RatingFloor > 0:
		p += o.LowRatingCoef * (o.RatingFloor - it.Rating) / o.RatingFloor
	}
	// Members 为 0 视为缺失，不惩罚
	if it.Members > 0 && it.Members < o.MembersFloor {
		p += o.LowMembers
	}
	return p
}

// ContentFirstConfig 是内容优先覆盖规则的参数。
type ContentFirstConfig struct {
	Enabled      bool    `koanf:"enabled" yaml:"enabled" json:"enabled"`
	MinNeuralSim float64 `koanf:"min_neural_sim" yaml:"min_neural_sim" json:"min_neural_sim" validate:"gte=0,lte=1"`
	Alpha        float64 `koanf:"alpha" yaml:"alpha" json:"alpha" validate:"gte=0"`
	QualityCoef  float64 `koanf:"quality_coef" yaml:"quality_coef" json:"quality_coef" validate:"gte=0"`
	QualityCap   float64 `koanf:"quality_cap" yaml:"quality_cap" json:"quality_cap" validate:"gte=0"`
}

// Config 是 Stage2 的全部参数。
type Config struct {
	Weights       Weights                `koanf:"weights" yaml:"weights" json:"weights"`
	Blend         blend.Weights          `koanf:"blend" yaml:"blend" json:"blend"`
	CFEpsilon     float64                `koanf:"cf_epsilon" yaml:"cf_epsilon" json:"cf_epsilon" validate:"gte=0"`
	PopularityMid float64                `koanf:"popularity_mid" yaml:"popularity_mid" json:"popularity_mid" validate:"gt=0,lte=1"`
	QualityFactor core.QualityFactorMode `koanf:"quality_factor" yaml:"quality_factor" json:"quality_factor" validate:"omitempty,oneof=off linear stepped"`
	Obscurity     ObscurityConfig        `koanf:"obscurity" yaml:"obscurity" json:"obscurity"`
	ContentFirst  ContentFirstConfig     `koanf:"content_first" yaml:"content_first" json:"content_first"`
}

func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Genre:        0.20,
			Coverage:     0.10,
			CF:           0.35,
			Popularity:   0.05,
			Stage1:       0.15,
			Neural:       0.25,
			Affinity:     0.05,
			AffinityNoCF: 0.12,
			Demographic:  0.01,
			Theme:        0.02,
		},
		Blend:         blend.Weights{MF: 0.6, Neighborhood: 0.3, Popularity: 0.1},
		CFEpsilon:     1e-9,
		PopularityMid: 0.5,
		QualityFactor: core.QualityLinear,
		Obscurity: ObscurityConfig{
			MissingRating: 0.02,
			RatingFloor:   6.0,
			LowRatingCoef: 0.04,
			MembersFloor:  1000,
			LowMembers:    0.02,
		},
		ContentFirst: ContentFirstConfig{
			Enabled:      true,
			MinNeuralSim: 0.30,
			Alpha:        0.5,
			QualityCoef:  0.05,
			QualityCap:   0.03,
		},
	}
}

// Stage2Node 是 Stage2 Rank Node：
//   - 按加权和为每个短名单候选打分，写入 Score / CF / Explanation
//   - 丢弃非正分数，按 (-score, id) 排序
//
// Blender 为空时使用快照的平均用户 Blender；个性化开启时由 Engine 传入混合后的 Blender。
type Stage2Node struct {
	Snap    *artifact.Snapshot
	Blender *blend.ScoreBlender
	Specs   [core.NumChannels]semantic.Spec
	Config  Config
}

func (n *Stage2Node) Name() string        { return "rank.stage2" }
func (n *Stage2Node) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *Stage2Node) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	diag := rctx.Diag()
	mode := rctx.QualityFactorMode
	if mode == "" {
		mode = n.Config.QualityFactor
	}
	blender := n.Blender
	if blender == nil {
		blender = n.Snap.Blender
	}

	out := make([]*core.Candidate, 0, len(items))
	for _, c := range items {
		if c == nil || rctx.IsExcluded(c.ID) {
			continue
		}
		var comps map[string]float64
		if blender != nil {
			c.CF = blender.Signal(c.ID, n.Config.Blend, n.Config.CFEpsilon)
			comps = blender.Contribution(c.ID, n.Config.Blend)
		} else {
			c.CF = core.CFSignal{State: core.CFAbsent}
		}
		terms := n.score(rctx, c, mode)
		if _, ok := terms["content_first"]; ok {
			diag.Rank.ContentFirst++
		}

		c.Score = sum(terms)
		c.Explanation = core.Explanation{Shares: c.CF.Shares, Terms: terms, Components: comps}
		diag.Rank.Scored++
		if c.Score <= 0 {
			diag.Rank.DroppedNonPositive++
			continue
		}
		c.PutLabel("rank_score", utils.FloatLabel(c.Score, "rank"))
		out = append(out, c)
	}
	core.SortCandidates(out)
	return out, nil
}

// termOrder 固定求和顺序，保证相同输入得到逐位相同的分数。
var termOrder = []string{
	"genre", "coverage", "cf", "popularity", "stage1", "neural", "affinity",
	"synopsis_lexical", "synopsis_dense", "synopsis_neural",
	"demographic", "theme", "obscurity", "content_first",
}

func sum(terms map[string]float64) float64 {
	total := 0.0
	for _, k := range termOrder {
		total += terms[k]
	}
	return total
}

// score 返回各打分项，减分项为负值。
func (n *Stage2Node) score(rctx *core.RecommendContext, c *core.Candidate, mode core.QualityFactorMode) map[string]float64 {
	w := n.Config.Weights
	sig := &c.Signals
	it := c.Item
	terms := make(map[string]float64, 12)
	put := func(k string, v float64) {
		if v != 0 && !math.IsNaN(v) {
			terms[k] = v
		}
	}

	put("genre", w.Genre*sig.GenreOverlap)
	put("coverage", w.Coverage*sig.SeedCoverage)
	put("cf", w.CF*c.CF.Hybrid)
	if p, ok := n.Snap.Percentile(c.ID); ok && p < n.Config.PopularityMid {
		put("popularity", w.Popularity*(n.Config.PopularityMid-p)/n.Config.PopularityMid)
	}
	put("stage1", w.Stage1*c.Stage1Score)
	put("neural", w.Neural*c.NeuralSim*feature.QualityFactor(mode, it))

	if c.CF.State == core.CFPresent {
		put("affinity", w.Affinity*sig.MetaAffinity)
	} else {
		put("affinity", w.AffinityNoCF*sig.MetaAffinity)
	}

	forced := c.Admission == core.AdmitForced
	for k := core.ChannelKind(0); k < core.NumChannels; k++ {
		if n.Snap.Embedding(k) == nil {
			continue
		}
		spec := n.Specs[k]
		sim := sig.Synopsis[k]
		v := 0.0
		if sig.HasSynopsis[k] {
			v += spec.Bonus(sim)
		}
		v -= spec.Penalty(sim, sig.GatePassed, forced)
		put("synopsis_"+k.String(), v)
	}

	if sig.SharesDemographic {
		put("demographic", w.Demographic)
	}
	put("theme", w.Theme*sig.ThemeOverlap)
	put("obscurity", -n.Config.Obscurity.Penalty(it))

	if delta := n.contentFirst(rctx, c); delta > 0 {
		terms["content_first"] = delta
	}
	return terms
}

// contentFirst 返回内容优先覆盖的非负增量。
// 条件：置信度 high、准入通道为神经、CF 缺失或为 0（三态判断）、神经相似度达到门限。
func (n *Stage2Node) contentFirst(rctx *core.RecommendContext, c *core.Candidate) float64 {
	cfg := n.Config.ContentFirst
	if !cfg.Enabled ||
		rctx.Confidence != core.ConfidenceHigh ||
		rctx.AdmissionChannel != core.ChannelNeural ||
		c.CF.State == core.CFPresent ||
		c.NeuralSim < cfg.MinNeuralSim {
		return 0
	}
	cfOnly := 0.0
	if c.CF.State == core.CFZero {
		cfOnly = c.CF.CFOnly
	}
	delta := cfg.Alpha * math.Max(0, c.NeuralSim-cfOnly)
	if c.Item != nil && c.Item.HasRating {
		delta += math.Min(cfg.QualityCap, cfg.QualityCoef*c.Item.Rating/10)
	}
	return delta
}
