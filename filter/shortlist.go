package filter

import (
	"context"
	"math"
	"sort"

	"github.com/rushteam/seedrank/artifact"
	"github.com/rushteam/seedrank/core"
	"github.com/rushteam/seedrank/feature"
	"github.com/rushteam/seedrank/pipeline"
	"github.com/rushteam/seedrank/pkg/utils"
	"github.com/rushteam/seedrank/semantic"
)

// FallbackWeights 是元数据兜底池排序分的权重。
type FallbackWeights struct {
	Genre    float64 `koanf:"genre" yaml:"genre" json:"genre" validate:"gte=0"`
	Coverage float64 `koanf:"coverage" yaml:"coverage" json:"coverage" validate:"gte=0"`
	Theme    float64 `koanf:"theme" yaml:"theme" json:"theme" validate:"gte=0"`
	Affinity float64 `koanf:"affinity" yaml:"affinity" json:"affinity" validate:"gte=0"`
}

// ShortlistConfig 是 Stage1 的全部参数。
type ShortlistConfig struct {
	Target int `koanf:"target" yaml:"target" json:"target" validate:"gt=0"`

	TitleOverlapFloor float64 `koanf:"title_overlap_floor" yaml:"title_overlap_floor" json:"title_overlap_floor" validate:"gte=0,lte=1"`
	GenreHighFloor    float64 `koanf:"genre_high_floor" yaml:"genre_high_floor" json:"genre_high_floor" validate:"gte=0,lte=1"`
	RescueThemeFloor  float64 `koanf:"rescue_theme_floor" yaml:"rescue_theme_floor" json:"rescue_theme_floor" validate:"gte=0,lte=1"`
	AdaptiveFloorMin  float64 `koanf:"adaptive_floor_min" yaml:"adaptive_floor_min" json:"adaptive_floor_min" validate:"gte=0,lte=1"`
	AdaptiveFloorMax  float64 `koanf:"adaptive_floor_max" yaml:"adaptive_floor_max" json:"adaptive_floor_max" validate:"gte=0,lte=1"`

	// 强制近邻子池（仅神经通道）：未通过格式门、但属于神经近邻 top-K 的候选仍可进入语义池
	ForcedEnabled bool    `koanf:"forced_enabled" yaml:"forced_enabled" json:"forced_enabled"`
	ForcedK       int     `koanf:"forced_k" yaml:"forced_k" json:"forced_k" validate:"gte=0"`
	ForcedFloor   float64 `koanf:"forced_floor" yaml:"forced_floor" json:"forced_floor" validate:"gte=0,lte=1"`

	FallbackWeights FallbackWeights    `koanf:"fallback_weights" yaml:"fallback_weights" json:"fallback_weights"`
	Confidence      ConfidenceConfig   `koanf:"confidence" yaml:"confidence" json:"confidence"`
	Gate            feature.GateConfig `koanf:"gate" yaml:"gate" json:"gate"`
}

func DefaultShortlistConfig() ShortlistConfig {
	return ShortlistConfig{
		Target:            600,
		TitleOverlapFloor: 0.5,
		GenreHighFloor:    0.5,
		RescueThemeFloor:  0.33,
		AdaptiveFloorMin:  0.2,
		AdaptiveFloorMax:  0.5,
		ForcedEnabled:     true,
		ForcedK:           300,
		ForcedFloor:       0.20,
		FallbackWeights:   FallbackWeights{Genre: 0.45, Coverage: 0.2, Theme: 0.2, Affinity: 0.15},
		Confidence:        DefaultConfidenceConfig(),
		Gate:              feature.DefaultGateConfig(),
	}
}

// ShortlistNode 是 Stage1 Filter Node：把 Stage0 候选路由到语义池 A 或元数据兜底池 B，
// 按置信度分配预算并交叉回填，输出不超过 Target 的短名单。
type ShortlistNode struct {
	Snap   *artifact.Snapshot
	Specs  [core.NumChannels]semantic.Spec
	Config ShortlistConfig
}

func (n *ShortlistNode) Name() string        { return "filter.shortlist" }
func (n *ShortlistNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *ShortlistNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	cfg := n.Config
	diag := rctx.Diag()
	if diag.Shortlist.Admissions == nil {
		diag.Shortlist.Admissions = make(map[core.Admission]int)
	}

	channel := rctx.AdmissionChannel
	var spec semantic.Spec
	if channel != core.ChannelNone {
		spec = n.Specs[channel]
	}
	x := feature.NewExtractor(feature.SeedEntries(n.Snap.Catalog, rctx.Seeds), feature.NewGate(cfg.Gate))
	adm := newAdmitter(cfg, channel, spec, x.Profile, n.forcedSet(rctx, channel, items))

	var forced, poolA, poolB []*core.Candidate
	for _, c := range items {
		if c == nil || rctx.IsExcluded(c.ID) {
			continue
		}
		e, ok := n.Snap.Catalog.Entry(c.ID)
		if !ok {
			continue
		}
		x.Extract(e, &c.Signals)

		c.Admission = adm.admit(c)
		diag.Shortlist.Admissions[c.Admission]++
		c.PutLabel("admission", utils.Label{Value: string(c.Admission), Source: "filter"})

		sim := 0.0
		if channel != core.ChannelNone {
			sim = c.Signals.Synopsis[channel]
		}
		switch c.Admission {
		case core.AdmitRejected:
			c.Pool = core.PoolFallback
			c.Stage1Score = adm.fallbackScore(&c.Signals)
			if c.Stage1Score > 0 || c.Provenance.FromPopularity {
				poolB = append(poolB, c)
			}
		case core.AdmitForced:
			c.Pool = core.PoolSemantic
			c.Stage1Score = sim
			forced = append(forced, c)
		case core.AdmitTitle:
			c.Pool = core.PoolSemantic
			c.Stage1Score = math.Max(sim, c.Signals.TitleOverlap)
			poolA = append(poolA, c)
		default:
			c.Pool = core.PoolSemantic
			c.Stage1Score = sim
			poolA = append(poolA, c)
		}
	}

	sort.Slice(forced, func(i, j int) bool {
		if forced[i].NeuralSim != forced[j].NeuralSim {
			return forced[i].NeuralSim > forced[j].NeuralSim
		}
		return forced[i].ID < forced[j].ID
	})
	sortByStage1(poolA)
	sortByStage1(poolB)
	semanticPool := append(forced, poolA...)

	score, tier := Confidence(cfg.Confidence, semanticPool, channel, spec.HighSim)
	rctx.Confidence = tier

	budget := int(math.Round(cfg.Confidence.Share(tier) * float64(cfg.Target)))
	takeA := min(len(semanticPool), budget)
	takeB := min(len(poolB), cfg.Target-takeA)
	// 兜底池不够时由语义池回填
	takeA += min(len(semanticPool)-takeA, cfg.Target-takeA-takeB)

	out := make([]*core.Candidate, 0, takeA+takeB)
	out = append(out, semanticPool[:takeA]...)
	out = append(out, poolB[:takeB]...)

	diag.Shortlist.Channel = channel.String()
	diag.Shortlist.SemanticPool = len(semanticPool)
	diag.Shortlist.FallbackPool = len(poolB)
	diag.Shortlist.Forced = len(forced)
	diag.Shortlist.TakenSemantic = takeA
	diag.Shortlist.TakenFallback = takeB
	diag.Shortlist.Target = cfg.Target
	diag.Shortlist.SemanticBudget = budget
	diag.Shortlist.ConfidenceTier = tier
	diag.Shortlist.ConfidenceScore = score
	return out, nil
}

// forcedSet 返回神经通道下相似度最高的 ForcedK 个候选（相似度 ≥ ForcedFloor）。
func (n *ShortlistNode) forcedSet(rctx *core.RecommendContext, channel core.ChannelKind, items []*core.Candidate) core.IDSet {
	cfg := n.Config
	if !cfg.ForcedEnabled || channel != core.ChannelNeural || cfg.ForcedK <= 0 {
		return nil
	}
	eligible := make([]*core.Candidate, 0, len(items))
	for _, c := range items {
		if c != nil && c.NeuralSim >= cfg.ForcedFloor && !rctx.IsExcluded(c.ID) {
			eligible = append(eligible, c)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].NeuralSim != eligible[j].NeuralSim {
			return eligible[i].NeuralSim > eligible[j].NeuralSim
		}
		return eligible[i].ID < eligible[j].ID
	})
	if len(eligible) > cfg.ForcedK {
		eligible = eligible[:cfg.ForcedK]
	}
	set := make(core.IDSet, len(eligible))
	for _, c := range eligible {
		set.Add(c.ID)
	}
	return set
}

func sortByStage1(items []*core.Candidate) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Stage1Score != items[j].Stage1Score {
			return items[i].Stage1Score > items[j].Stage1Score
		}
		return items[i].ID < items[j].ID
	})
}
