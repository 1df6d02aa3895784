package feature

import (
	"github.com/rushteam/seedrank/catalog"
	"github.com/rushteam/seedrank/pkg/textnorm"
)

// GateConfig 是类型/集数格式门。
type GateConfig struct {
	// BlockedTypes 中的类型直接不通过（音乐、PV、广告等）
	BlockedTypes []string `koanf:"blocked_types" yaml:"blocked_types" json:"blocked_types"`
	// 集数在 [1, ShortFormMaxEpisodes] 且非剧场版视为短篇
	ShortFormMaxEpisodes int `koanf:"short_form_max_episodes" yaml:"short_form_max_episodes" json:"short_form_max_episodes" validate:"gte=0"`
	// 种子中有集数 ≥ LongFormMinEpisodes（或未知）的 TV 作品时视为长篇种子
	LongFormMinEpisodes int `koanf:"long_form_min_episodes" yaml:"long_form_min_episodes" json:"long_form_min_episodes" validate:"gte=1"`
}

func DefaultGateConfig() GateConfig {
	return GateConfig{
		BlockedTypes:         []string{"Music", "PV", "CM"},
		ShortFormMaxEpisodes: 3,
		LongFormMinEpisodes:  10,
	}
}

// Gate 是预处理后的格式门。
type Gate struct {
	cfg     GateConfig
	blocked map[string]struct{}
}

func NewGate(cfg GateConfig) *Gate {
	g := &Gate{cfg: cfg, blocked: make(map[string]struct{}, len(cfg.BlockedTypes))}
	for _, t := range cfg.BlockedTypes {
		g.blocked[textnorm.Lower(t)] = struct{}{}
	}
	return g
}

// LongFormMinEpisodes 返回长篇种子的集数门限。
func (g *Gate) LongFormMinEpisodes() int { return g.cfg.LongFormMinEpisodes }

// Passes 判断候选是否通过格式门。类型缺失视为通过。
func (g *Gate) Passes(p *SeedProfile, e *catalog.Entry) bool {
	if e.TypeKey == "" {
		return true
	}
	if _, bad := g.blocked[e.TypeKey]; bad {
		return false
	}
	eps := e.Item.Episodes
	shortForm := eps >= 1 && eps <= g.cfg.ShortFormMaxEpisodes && e.TypeKey != "movie"
	if shortForm && p.LongForm {
		return false
	}
	return true
}
