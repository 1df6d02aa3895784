// Package engine 把快照、配置与 Pipeline 串成一次完整的推荐调用：
// 请求校验 → 排除集合 → Stage0/1/2 → 系列上限 → Top-N → 个性化混合。
//
// Recommend 是 (快照, 请求) 的纯函数：不做 I/O，不共享请求间可变状态。
// 需要外部数据（已看过列表、口味向量）时先用 Loader 填充请求。
package engine

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rushteam/seedrank/artifact"
	"github.com/rushteam/seedrank/blend"
	"github.com/rushteam/seedrank/config"
	"github.com/rushteam/seedrank/core"
	"github.com/rushteam/seedrank/pipeline"
	"github.com/rushteam/seedrank/pkg/dsl"
	"github.com/rushteam/seedrank/recall"
)

// Engine 是并发安全的推荐入口。快照通过 Swap 原子替换。
type Engine struct {
	cfg      *config.Config
	hygiene  *dsl.HygieneRules
	pipeline *pipeline.Config
	holder   *artifact.Holder
	logger   zerolog.Logger
}

// New 校验配置、编译卫生规则、装载阶段链，并发布初始快照。
//
//nolint:gocritic // zerolog.Logger 按值传递
func New(cfg *config.Config, snap *artifact.Snapshot, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	rules, err := dsl.Compile(cfg.Hygiene.Rules)
	if err != nil {
		return nil, fmt.Errorf("compile hygiene rules: %w", err)
	}
	pc, err := config.LoadPipeline(cfg)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, core.ArtifactViolation("engine: nil snapshot")
	}

	e := &Engine{
		cfg:      cfg,
		hygiene:  rules,
		pipeline: pc,
		logger:   logger.With().Str("component", "seedrank").Logger(),
	}
	e.holder = artifact.NewHolder(e.prepare(snap))
	e.logger.Info().
		Str("version", snap.Version).
		Int("catalog", snap.Catalog.Len()).
		Int("hygiene_rules", rules.Len()).
		Msg("engine ready")
	return e, nil
}

// NewLogger 按配置的级别创建 zerolog.Logger，w 为 nil 时写 stderr。
func NewLogger(cfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// prepare 计算快照的卫生排除集合（规则命中 ∪ 静态黑名单）。
func (e *Engine) prepare(snap *artifact.Snapshot) *artifact.Snapshot {
	excluded := e.hygiene.Excluded(snap.Catalog)
	ids := core.NewIDSet(e.cfg.Hygiene.Blacklist...)
	for id := range excluded {
		ids.Add(id)
	}
	return snap.WithHygiene(ids)
}

// Swap 发布新快照。进行中的请求继续使用旧快照。
func (e *Engine) Swap(snap *artifact.Snapshot) error {
	if snap == nil {
		return core.ArtifactViolation("engine: nil snapshot")
	}
	old := e.holder.Store(e.prepare(snap))
	e.logger.Info().
		Str("old_version", old.Version).
		Str("new_version", snap.Version).
		Msg("snapshot swapped")
	return nil
}

// Snapshot 返回当前快照（含卫生排除集合）。
func (e *Engine) Snapshot() *artifact.Snapshot {
	return e.holder.Load()
}

// Config 返回引擎使用的配置，调用方不应修改。
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Recommend 执行一次推荐。rctx 由调用方独占，执行过程中会写入派生字段与诊断信息。
// 非法请求返回 InvalidInput 错误；没有候选是合法结果（空列表）。
func (e *Engine) Recommend(ctx context.Context, rctx *core.RecommendContext) (*core.Response, error) {
	start := time.Now()
	snap := e.holder.Load()
	if err := e.prepareRequest(snap, rctx); err != nil {
		return nil, err
	}
	logger := e.requestLogger(rctx)
	diag := rctx.Diag()

	blender, status := e.personalization(snap, rctx)
	diag.Personalization = status

	p, err := e.pipeline.BuildPipeline(config.NewFactory(snap, e.cfg, blender))
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	out, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}

	seed := toResults(out)
	results := seed
	if status.Available {
		personal, _ := recall.Personal(snap, rctx, e.cfg.Stage2.Blend)
		results = blend.Personalize(personal, seed, status.Strength, rctx.TopN, e.cfg.Personalize)
	}

	logger.Debug().
		Int("pool", diag.Pool.Total).
		Int("pool_neural", diag.Pool.PostCap.Neural).
		Int("pool_meta", diag.Pool.PostCap.MetaStrict).
		Int("pool_popularity", diag.Pool.PostCap.Popularity).
		Str("channel", diag.Shortlist.Channel).
		Str("confidence", string(diag.Shortlist.ConfidenceTier)).
		Float64("confidence_score", diag.Shortlist.ConfidenceScore).
		Int("shortlist_semantic", diag.Shortlist.TakenSemantic).
		Int("shortlist_fallback", diag.Shortlist.TakenFallback).
		Int("scored", diag.Rank.Scored).
		Int("content_first", diag.Rank.ContentFirst).
		Int("franchise_dropped", len(diag.Franchise.ItemsDropped)).
		Bool("personalized", status.Available).
		Str("personalization_reason", status.Reason).
		Int("returned", len(results)).
		Dur("latency", time.Since(start)).
		Msg("recommendation complete")

	return &core.Response{
		RequestID:       rctx.RequestID,
		Results:         results,
		Personalization: status,
		Diagnostics:     diag,
	}, nil
}

// prepareRequest 校验请求、补齐默认值并构建排除集合。
func (e *Engine) prepareRequest(snap *artifact.Snapshot, rctx *core.RecommendContext) error {
	if rctx == nil {
		return core.InvalidInput("nil request")
	}
	rc := e.cfg.Request

	seeds := make([]int64, 0, len(rctx.Seeds))
	seen := core.NewIDSet()
	for _, id := range rctx.Seeds {
		if seen.Has(id) {
			continue
		}
		seen.Add(id)
		seeds = append(seeds, id)
	}
	if len(seeds) == 0 || len(seeds) > rc.MaxSeeds {
		return core.InvalidInput("expected 1-%d seeds, got %d", rc.MaxSeeds, len(seeds))
	}
	items := make([]*core.CatalogItem, 0, len(seeds))
	for _, id := range seeds {
		it, err := snap.Catalog.Lookup(id)
		if core.IsNotFound(err) {
			return core.InvalidInput("unknown seed id %d", id)
		} else if err != nil {
			return err
		}
		items = append(items, it)
	}

	s := rctx.PersonalizationStrength
	if math.IsNaN(s) || s < 0 || s > 1 {
		return core.InvalidInput("personalization strength %v out of [0,1]", s)
	}
	switch {
	case rctx.TopN < 0:
		return core.InvalidInput("top_n %d is negative", rctx.TopN)
	case rctx.TopN == 0:
		rctx.TopN = rc.DefaultTopN
	case rctx.TopN > rc.MaxTopN:
		rctx.TopN = rc.MaxTopN
	}
	switch rctx.Mode {
	case "":
		rctx.Mode = rc.DefaultMode
	case core.ModeDiscovery, core.ModeCompletion:
	default:
		return core.InvalidInput("unknown mode %q", rctx.Mode)
	}
	switch rctx.QualityFactorMode {
	case "", core.QualityOff, core.QualityLinear, core.QualityStepped:
	default:
		return core.InvalidInput("unknown quality factor mode %q", rctx.QualityFactorMode)
	}

	if rctx.RequestID == "" {
		rctx.RequestID = uuid.NewString()
	}
	rctx.Seeds = seeds
	rctx.SeedItems = items
	rctx.Exclusions = &core.Exclusions{
		Seeds:    seen,
		Watched:  core.NewIDSet(rctx.WatchedIDs...),
		Explicit: core.NewIDSet(rctx.ExcludeIDs...),
		Hygiene:  snap.Hygiene,
	}
	rctx.Confidence = ""
	rctx.AdmissionChannel = core.ChannelNone
	rctx.EffectiveStrength = 0
	rctx.Diagnostics = core.NewDiagnostics(rctx.RequestID)
	return nil
}

// personalization 决定 Stage2 使用的 Blender 与个性化状态。
// 强度不超过下限时 Stage2 使用平均用户 Blender，输出与不带口味向量时完全相同。
func (e *Engine) personalization(snap *artifact.Snapshot, rctx *core.RecommendContext) (*blend.ScoreBlender, core.PersonalizationStatus) {
	s := rctx.PersonalizationStrength
	if s == 0 {
		return nil, core.PersonalizationStatus{Reason: core.ReasonDisabled}
	}
	if len(rctx.UserVector) == 0 {
		reason := core.ReasonNoProfile
		if lbl, ok := rctx.GetLabel(tasteStatusLabel); ok && lbl.Value != "" {
			reason = lbl.Value
		}
		return nil, core.PersonalizationStatus{Reason: reason}
	}
	b, status := snap.PersonalBlender(rctx.UserVector, s)
	if !status.Available {
		return nil, status
	}
	rctx.EffectiveStrength = s
	if s <= e.cfg.Personalize.Lower {
		return nil, status
	}
	return b, status
}

func (e *Engine) requestLogger(rctx *core.RecommendContext) zerolog.Logger {
	return e.logger.With().
		Str("request_id", rctx.RequestID).
		Str("user_id", rctx.UserID).
		Str("mode", string(rctx.Mode)).
		Ints64("seeds", rctx.Seeds).
		Int("top_n", rctx.TopN).
		Logger()
}

func toResults(items []*core.Candidate) []core.ScoredResult {
	out := make([]core.ScoredResult, 0, len(items))
	for _, c := range items {
		if c == nil {
			continue
		}
		out = append(out, core.ScoredResult{
			ItemID:      c.ID,
			Score:       c.Score,
			Explanation: c.Explanation,
		})
	}
	return out
}
