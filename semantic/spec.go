// Package semantic 提供三个语义相似度通道（词法 / 稠密 / 神经）。
//
// 三个通道共享同一套门限与加减分形状，差异只在 Spec 的参数上。
package semantic

import "github.com/rushteam/seedrank/core"

// Spec 是单个语义通道的门限与系数。
type Spec struct {
	Kind core.ChannelKind `koanf:"-" yaml:"-" json:"-"`

	MinSim  float64 `koanf:"min_sim" yaml:"min_sim" json:"min_sim" validate:"gte=0,lte=1"`
	HighSim float64 `koanf:"high_sim" yaml:"high_sim" json:"high_sim" validate:"gte=0,lte=1"`

	// 加分：超过 MinSim 后线性爬升，超过 HighSim 再叠加一段
	BonusCoef     float64 `koanf:"bonus_coef" yaml:"bonus_coef" json:"bonus_coef" validate:"gte=0"`
	HighBonusCoef float64 `koanf:"high_bonus_coef" yaml:"high_bonus_coef" json:"high_bonus_coef" validate:"gte=0"`

	// 减分：只作用于未通过格式门的候选，相似度越高减得越少
	PenaltyCoef         float64 `koanf:"penalty_coef" yaml:"penalty_coef" json:"penalty_coef" validate:"gte=0"`
	FlatOverridePenalty float64 `koanf:"flat_override_penalty" yaml:"flat_override_penalty" json:"flat_override_penalty" validate:"gte=0"`

	// DemographicMinSim 为 0 表示该通道不启用受众覆盖规则
	DemographicMinSim float64 `koanf:"demographic_min_sim" yaml:"demographic_min_sim" json:"demographic_min_sim" validate:"gte=0,lte=1"`
}

// DefaultSpecs 返回三个通道的默认参数，下标为 core.ChannelKind。
func DefaultSpecs() [core.NumChannels]Spec {
	return [core.NumChannels]Spec{
		core.ChannelLexical: {
			Kind:                core.ChannelLexical,
			MinSim:              0.15,
			HighSim:             0.35,
			BonusCoef:           0.04,
			HighBonusCoef:       0.02,
			PenaltyCoef:         0.03,
			FlatOverridePenalty: 0.01,
		},
		core.ChannelDense: {
			Kind:                core.ChannelDense,
			MinSim:              0.40,
			HighSim:             0.65,
			BonusCoef:           0.06,
			HighBonusCoef:       0.03,
			PenaltyCoef:         0.04,
			FlatOverridePenalty: 0.01,
		},
		core.ChannelNeural: {
			Kind:                core.ChannelNeural,
			MinSim:              0.30,
			HighSim:             0.55,
			BonusCoef:           0.10,
			HighBonusCoef:       0.05,
			PenaltyCoef:         0.05,
			FlatOverridePenalty: 0.01,
			DemographicMinSim:   0.40,
		},
	}
}

// Bonus 返回简介相似度加分，低于 MinSim 时为 0。
func (s Spec) Bonus(sim float64) float64 {
	if sim < s.MinSim {
		return 0
	}
	out := 0.0
	if s.MinSim < 1 {
		out += s.BonusCoef * (sim - s.MinSim) / (1 - s.MinSim)
	}
	if sim >= s.HighSim && s.HighSim < 1 {
		out += s.HighBonusCoef * (sim - s.HighSim) / (1 - s.HighSim)
	}
	return out
}

// Penalty 返回未通过格式门的候选的减分（正数，调用方负责减去）。
// forced 且相似度达到 HighSim 时改为固定小额减分。
func (s Spec) Penalty(sim float64, gatePassed, forced bool) float64 {
	if gatePassed {
		return 0
	}
	if forced && sim >= s.HighSim {
		return s.FlatOverridePenalty
	}
	if s.HighSim <= 0 {
		return 0
	}
	relief := sim / s.HighSim
	if relief >= 1 {
		return 0
	}
	if relief < 0 {
		relief = 0
	}
	return s.PenaltyCoef * (1 - relief)
}
