package filter

import (
	"math"

	"github.com/rushteam/seedrank/core"
	"github.com/rushteam/seedrank/feature"
	"github.com/rushteam/seedrank/semantic"
)

// admitter 按固定顺序判定单个候选的准入规则，先命中者生效。
type admitter struct {
	cfg     ShortlistConfig
	channel core.ChannelKind
	spec    semantic.Spec
	profile *feature.SeedProfile
	forced  core.IDSet

	// adaptiveFloor 是救援规则的类型重叠下限：单种子时为 1/种子类型数（截断），多种子时退化为高门限
	adaptiveFloor float64
}

func newAdmitter(cfg ShortlistConfig, channel core.ChannelKind, spec semantic.Spec, profile *feature.SeedProfile, forced core.IDSet) *admitter {
	a := &admitter{
		cfg:           cfg,
		channel:       channel,
		spec:          spec,
		profile:       profile,
		forced:        forced,
		adaptiveFloor: cfg.GenreHighFloor,
	}
	if len(profile.Seeds) == 1 && profile.GenreCount > 0 {
		f := 1 / float64(profile.GenreCount)
		a.adaptiveFloor = math.Max(cfg.AdaptiveFloorMin, math.Min(cfg.AdaptiveFloorMax, f))
	}
	return a
}

// admit 返回候选命中的规则：
//  1. 标题 token 重叠（系列兜底，绕过格式门）
//  2. 未通过格式门：属于强制近邻子池则准入，否则拒绝
//  3. 没有可用通道 → 拒绝
//  4. 标准：相似度 ≥ MinSim 且类型重叠 ≥ 高门限
//  5. 受众覆盖：神经通道，共享 shounen 且相似度 ≥ 受众门限
//  6. 救援：相似度 ≥ HighSim，且类型重叠 ≥ 自适应下限或主题重叠 ≥ 救援门限
//  7. 其余拒绝
func (a *admitter) admit(c *core.Candidate) core.Admission {
	sig := &c.Signals
	if sig.TitleOverlap >= a.cfg.TitleOverlapFloor {
		return core.AdmitTitle
	}
	if !sig.GatePassed {
		if a.forced.Has(c.ID) {
			return core.AdmitForced
		}
		return core.AdmitRejected
	}
	if a.channel == core.ChannelNone {
		return core.AdmitRejected
	}

	sim := sig.Synopsis[a.channel]
	if sim >= a.spec.MinSim && sig.GenreOverlap >= a.cfg.GenreHighFloor {
		return core.AdmitStandard
	}
	if a.channel == core.ChannelNeural && a.spec.DemographicMinSim > 0 &&
		sig.ShounenMatch && sim >= a.spec.DemographicMinSim {
		return core.AdmitDemographic
	}
	if sim >= a.spec.HighSim &&
		(sig.GenreOverlap >= a.adaptiveFloor || sig.ThemeOverlap >= a.cfg.RescueThemeFloor) {
		return core.AdmitRescue
	}
	return core.AdmitRejected
}

// fallbackScore 是元数据兜底池的排序分。
func (a *admitter) fallbackScore(sig *core.Signals) float64 {
	w := a.cfg.FallbackWeights
	return w.Genre*sig.GenreOverlap + w.Coverage*sig.SeedCoverage + w.Theme*sig.ThemeOverlap + w.Affinity*sig.MetaAffinity
}
