package filter

import (
	"math"
	"sort"

	"github.com/rushteam/seedrank/core"
)

// ConfidenceConfig 是置信度计算与分档参数。
type ConfidenceConfig struct {
	TopN       int     `koanf:"top_n" yaml:"top_n" json:"top_n" validate:"gt=0"`
	MinSupport int     `koanf:"min_support" yaml:"min_support" json:"min_support" validate:"gt=0"`
	LowBelow   float64 `koanf:"low_below" yaml:"low_below" json:"low_below" validate:"gte=0,lte=1"`
	MedBelow   float64 `koanf:"medium_below" yaml:"medium_below" json:"medium_below" validate:"gte=0,lte=1"`

	// 各档语义池占短名单目标的比例
	ShareNone   float64 `koanf:"share_none" yaml:"share_none" json:"share_none" validate:"gte=0,lte=1"`
	ShareLow    float64 `koanf:"share_low" yaml:"share_low" json:"share_low" validate:"gte=0,lte=1"`
	ShareMedium float64 `koanf:"share_medium" yaml:"share_medium" json:"share_medium" validate:"gte=0,lte=1"`
	ShareHigh   float64 `koanf:"share_high" yaml:"share_high" json:"share_high" validate:"gte=0,lte=1"`
}

func DefaultConfidenceConfig() ConfidenceConfig {
	return ConfidenceConfig{
		TopN:        50,
		MinSupport:  10,
		LowBelow:    0.30,
		MedBelow:    0.60,
		ShareNone:   0,
		ShareLow:    0.20,
		ShareMedium: 0.40,
		ShareHigh:   0.50,
	}
}

// Confidence 根据语义池前 TopN 个候选计算置信度：
//
//	simStat   = 0.5·mean + 0.5·p95
//	simNorm   = clamp(simStat / HighSim, 0, 1)
//	coherence = (平均类型重叠 + 平均种子覆盖 + 至少命中一个类型的比例) / 3
//	score     = (0.5·simNorm + 0.5·coherence) · min(1, n / MinSupport)
func Confidence(cfg ConfidenceConfig, semanticPool []*core.Candidate, channel core.ChannelKind, highSim float64) (float64, core.ConfidenceTier) {
	top := semanticPool
	if len(top) > cfg.TopN {
		top = top[:cfg.TopN]
	}
	n := len(top)
	if n == 0 {
		return 0, core.ConfidenceNone
	}

	sims := make([]float64, n)
	var overlapSum, coverageSum float64
	anyMatch := 0
	for i, c := range top {
		if channel != core.ChannelNone {
			sims[i] = c.Signals.Synopsis[channel]
		}
		overlapSum += c.Signals.GenreOverlap
		coverageSum += c.Signals.SeedCoverage
		if c.Signals.GenreOverlap > 0 {
			anyMatch++
		}
	}
	sort.Float64s(sims)
	mean := 0.0
	for _, s := range sims {
		mean += s
	}
	mean /= float64(n)
	// 最近秩法
	rank := int(math.Ceil(0.95*float64(n))) - 1
	if rank < 0 {
		rank = 0
	}
	p95 := sims[rank]

	simNorm := 0.0
	if highSim > 0 {
		simNorm = clamp01((0.5*mean + 0.5*p95) / highSim)
	}
	coherence := (overlapSum/float64(n) + coverageSum/float64(n) + float64(anyMatch)/float64(n)) / 3
	support := math.Min(1, float64(n)/float64(cfg.MinSupport))
	score := (0.5*simNorm + 0.5*coherence) * support
	return score, cfg.Tier(score)
}

// Tier 把置信度分数映射到档位。
func (cfg ConfidenceConfig) Tier(score float64) core.ConfidenceTier {
	switch {
	case score <= 0:
		return core.ConfidenceNone
	case score < cfg.LowBelow:
		return core.ConfidenceLow
	case score < cfg.MedBelow:
		return core.ConfidenceMedium
	default:
		return core.ConfidenceHigh
	}
}

// Share 返回档位对应的语义池占比。
func (cfg ConfidenceConfig) Share(tier core.ConfidenceTier) float64 {
	switch tier {
	case core.ConfidenceLow:
		return cfg.ShareLow
	case core.ConfidenceMedium:
		return cfg.ShareMedium
	case core.ConfidenceHigh:
		return cfg.ShareHigh
	default:
		return cfg.ShareNone
	}
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
