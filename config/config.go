// Package config 汇总 seedrank 的全部可调参数，并负责按 默认值 → YAML 文件 → 环境变量
// 的顺序装载与校验。Pipeline 的 Node 构建也在这里完成，避免 pipeline 与各阶段包循环依赖。
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rushteam/seedrank/blend"
	"github.com/rushteam/seedrank/core"
	"github.com/rushteam/seedrank/filter"
	"github.com/rushteam/seedrank/rank"
	"github.com/rushteam/seedrank/recall"
	"github.com/rushteam/seedrank/rerank"
	"github.com/rushteam/seedrank/semantic"
)

// Config 是根配置。
type Config struct {
	Pool        recall.PoolConfig       `koanf:"pool" yaml:"pool" json:"pool"`
	Shortlist   filter.ShortlistConfig  `koanf:"shortlist" yaml:"shortlist" json:"shortlist"`
	Stage2      rank.Config             `koanf:"stage2" yaml:"stage2" json:"stage2"`
	Franchise   rerank.FranchiseConfig  `koanf:"franchise" yaml:"franchise" json:"franchise"`
	Channels    ChannelsConfig          `koanf:"channels" yaml:"channels" json:"channels"`
	Personalize blend.PersonalizeConfig `koanf:"personalize" yaml:"personalize" json:"personalize"`
	Request     RequestConfig           `koanf:"request" yaml:"request" json:"request"`
	Hygiene     HygieneConfig           `koanf:"hygiene" yaml:"hygiene" json:"hygiene"`
	Logging     LoggingConfig           `koanf:"logging" yaml:"logging" json:"logging"`
	Store       StoreConfig             `koanf:"store" yaml:"store" json:"store"`
	Feast       FeastConfig             `koanf:"feast" yaml:"feast" json:"feast"`

	// PipelineFile 为空时使用 DefaultPipelineYAML
	PipelineFile string `koanf:"pipeline_file" yaml:"pipeline_file" json:"pipeline_file"`
}

// ChannelsConfig 是三个语义通道的参数。
type ChannelsConfig struct {
	Lexical semantic.Spec `koanf:"lexical" yaml:"lexical" json:"lexical"`
	Dense   semantic.Spec `koanf:"dense" yaml:"dense" json:"dense"`
	Neural  semantic.Spec `koanf:"neural" yaml:"neural" json:"neural"`
}

// Specs 返回按 core.ChannelKind 下标排列的通道参数，并补齐 Kind。
func (c ChannelsConfig) Specs() [core.NumChannels]semantic.Spec {
	specs := [core.NumChannels]semantic.Spec{
		core.ChannelLexical: c.Lexical,
		core.ChannelDense:   c.Dense,
		core.ChannelNeural:  c.Neural,
	}
	for k := range specs {
		specs[k].Kind = core.ChannelKind(k)
	}
	return specs
}

// RequestConfig 是请求校验与默认值。
type RequestConfig struct {
	MaxSeeds    int       `koanf:"max_seeds" yaml:"max_seeds" json:"max_seeds" validate:"gte=1"`
	DefaultTopN int       `koanf:"default_top_n" yaml:"default_top_n" json:"default_top_n" validate:"gte=1"`
	MaxTopN     int       `koanf:"max_top_n" yaml:"max_top_n" json:"max_top_n" validate:"gte=1"`
	DefaultMode core.Mode `koanf:"default_mode" yaml:"default_mode" json:"default_mode" validate:"oneof=discovery completion"`
}

// HygieneConfig 是卫生排除规则（CEL 表达式）与静态黑名单。
type HygieneConfig struct {
	Rules     []string `koanf:"rules" yaml:"rules" json:"rules"`
	Blacklist []int64  `koanf:"blacklist" yaml:"blacklist" json:"blacklist"`
}

type LoggingConfig struct {
	Level string `koanf:"level" yaml:"level" json:"level" validate:"oneof=trace debug info warn error disabled"`
}

// StoreConfig 是已看过/拉黑列表的存储后端。
type StoreConfig struct {
	Backend       string `koanf:"backend" yaml:"backend" json:"backend" validate:"oneof=memory redis"`
	Addr          string `koanf:"addr" yaml:"addr" json:"addr" validate:"required_if=Backend redis"`
	DB            int    `koanf:"db" yaml:"db" json:"db" validate:"gte=0"`
	WatchedPrefix string `koanf:"watched_prefix" yaml:"watched_prefix" json:"watched_prefix"`
	BlockedPrefix string `koanf:"blocked_prefix" yaml:"blocked_prefix" json:"blocked_prefix"`
}

// FeastConfig 是用户口味向量的在线特征来源。
type FeastConfig struct {
	Enabled   bool          `koanf:"enabled" yaml:"enabled" json:"enabled"`
	Endpoint  string        `koanf:"endpoint" yaml:"endpoint" json:"endpoint" validate:"required_if=Enabled true"`
	Project   string        `koanf:"project" yaml:"project" json:"project"`
	Feature   string        `koanf:"feature" yaml:"feature" json:"feature"`
	EntityKey string        `koanf:"entity_key" yaml:"entity_key" json:"entity_key"`
	Timeout   time.Duration `koanf:"timeout" yaml:"timeout" json:"timeout" validate:"gte=0"`
}

// Default 返回参考常量组成的配置。
func Default() *Config {
	specs := semantic.DefaultSpecs()
	return &Config{
		Pool:      recall.DefaultPoolConfig(),
		Shortlist: filter.DefaultShortlistConfig(),
		Stage2:    rank.DefaultConfig(),
		Franchise: rerank.DefaultFranchiseConfig(),
		Channels: ChannelsConfig{
			Lexical: specs[core.ChannelLexical],
			Dense:   specs[core.ChannelDense],
			Neural:  specs[core.ChannelNeural],
		},
		Personalize: blend.DefaultPersonalizeConfig(),
		Request: RequestConfig{
			MaxSeeds:    5,
			DefaultTopN: 20,
			MaxTopN:     500,
			DefaultMode: core.ModeDiscovery,
		},
		Hygiene: HygieneConfig{
			Rules: []string{
				`item.type in ["Music", "PV", "CM"]`,
				`"Hentai" in item.genres`,
			},
		},
		Logging: LoggingConfig{Level: "info"},
		Store: StoreConfig{
			Backend:       "memory",
			WatchedPrefix: "user:watched",
			BlockedPrefix: "user:blocked",
		},
		Feast: FeastConfig{
			Project:   "seedrank",
			Feature:   "user_taste:vector",
			EntityKey: "user_id",
			Timeout:   2 * time.Second,
		},
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator 返回进程内共享的 validator（内部缓存结构体信息，并发安全）。
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate 先做 struct tag 范围校验，再做跨字段校验。
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (%s)", fe.Namespace(), fe.Tag(), fe.Param()))
			}
			return core.WrapDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, strings.Join(msgs, "; "), err)
		}
		return core.WrapDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "validate config", err)
	}

	var problems []string
	for k, s := range c.Channels.Specs() {
		if s.MinSim > s.HighSim {
			problems = append(problems, fmt.Sprintf("channels.%s: min_sim %.2f > high_sim %.2f", core.ChannelKind(k), s.MinSim, s.HighSim))
		}
	}
	caps := append([]rerank.PositionCap(nil), c.Franchise.Caps...)
	sort.Slice(caps, func(i, j int) bool { return caps[i].Within < caps[j].Within })
	for i := 1; i < len(caps); i++ {
		if caps[i].Within == caps[i-1].Within {
			problems = append(problems, fmt.Sprintf("franchise.caps: duplicate within %d", caps[i].Within))
		}
		if caps[i].Max < caps[i-1].Max {
			problems = append(problems, fmt.Sprintf("franchise.caps: max for top %d is below max for top %d", caps[i].Within, caps[i-1].Within))
		}
	}
	if c.Personalize.Lower > c.Personalize.Upper {
		problems = append(problems, "personalize: lower > upper")
	}
	if c.Request.DefaultTopN > c.Request.MaxTopN {
		problems = append(problems, "request: default_top_n > max_top_n")
	}
	if c.Shortlist.AdaptiveFloorMin > c.Shortlist.AdaptiveFloorMax {
		problems = append(problems, "shortlist: adaptive_floor_min > adaptive_floor_max")
	}
	if c.Shortlist.Confidence.LowBelow > c.Shortlist.Confidence.MedBelow {
		problems = append(problems, "shortlist.confidence: low_below > medium_below")
	}
	if len(problems) > 0 {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}
