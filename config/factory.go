package config

import (
	"fmt"

	"github.com/rushteam/seedrank/artifact"
	"github.com/rushteam/seedrank/blend"
	"github.com/rushteam/seedrank/core"
	"github.com/rushteam/seedrank/filter"
	"github.com/rushteam/seedrank/pipeline"
	"github.com/rushteam/seedrank/pkg/conv"
	"github.com/rushteam/seedrank/rank"
	"github.com/rushteam/seedrank/recall"
	"github.com/rushteam/seedrank/rerank"
	"github.com/rushteam/seedrank/semantic"
)

// DefaultPipelineYAML 是默认的阶段链：Stage0 → Stage1 → Stage2 → 系列上限 → 排除兜底 → Top-N。
const DefaultPipelineYAML = `
pipeline:
  name: seedrank
  nodes:
    - type: recall.pool
    - type: filter.shortlist
    - type: rank.stage2
    - type: rerank.franchise
    - type: filter.node
      config:
        filters:
          - type: exclusion
    - type: rerank.topn
`

// NewFactory 返回绑定到一个快照与一份配置的 NodeFactory，包含全部内置 Node 与通过
// Register 注册的扩展 Node。blender 为 nil 时 Stage2 使用快照的平均用户 Blender。
//
// 每个 Node 的 config 段可以覆盖少量参数，其余参数来自 cfg。
func NewFactory(snap *artifact.Snapshot, cfg *Config, blender *blend.ScoreBlender) *pipeline.NodeFactory {
	f := DefaultFactory()
	specs := cfg.Channels.Specs()
	channels := semantic.NewSet(snap, specs)

	f.Register("recall.pool", func(m map[string]interface{}) (pipeline.Node, error) {
		pc := cfg.Pool
		pc.Cap = conv.ConfigGetInt(m, "cap", pc.Cap)
		pc.NeuralK = conv.ConfigGetInt(m, "neural_k", pc.NeuralK)
		pc.PopularityK = conv.ConfigGetInt(m, "popularity_k", pc.PopularityK)
		if pc.Cap <= 0 {
			return nil, fmt.Errorf("recall.pool: cap must be positive, got %d", pc.Cap)
		}
		return &recall.PoolNode{Snap: snap, Channels: channels, Config: pc}, nil
	})

	f.Register("filter.shortlist", func(m map[string]interface{}) (pipeline.Node, error) {
		sc := cfg.Shortlist
		sc.Target = conv.ConfigGetInt(m, "target", sc.Target)
		sc.ForcedEnabled = conv.ConfigGet(m, "forced_enabled", sc.ForcedEnabled)
		if sc.Target <= 0 {
			return nil, fmt.Errorf("filter.shortlist: target must be positive, got %d", sc.Target)
		}
		return &filter.ShortlistNode{Snap: snap, Specs: specs, Config: sc}, nil
	})

	f.Register("rank.stage2", func(m map[string]interface{}) (pipeline.Node, error) {
		rc := cfg.Stage2
		if mode := conv.ConfigGet(m, "quality_factor", ""); mode != "" {
			switch q := core.QualityFactorMode(mode); q {
			case core.QualityOff, core.QualityLinear, core.QualityStepped:
				rc.QualityFactor = q
			default:
				return nil, fmt.Errorf("rank.stage2: unknown quality_factor %q", mode)
			}
		}
		rc.ContentFirst.Enabled = conv.ConfigGet(m, "content_first", rc.ContentFirst.Enabled)
		return &rank.Stage2Node{Snap: snap, Blender: blender, Specs: specs, Config: rc}, nil
	})

	f.Register("rerank.franchise", func(m map[string]interface{}) (pipeline.Node, error) {
		fc := cfg.Franchise
		fc.TitleOverlapFloor = conv.ConfigGetFloat(m, "title_overlap_floor", fc.TitleOverlapFloor)
		return &rerank.FranchiseCap{Catalog: snap.Catalog, Config: fc}, nil
	})

	return f
}

func buildTopNNode(m map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{N: conv.ConfigGetInt(m, "n", 0)}, nil
}

// buildFilterNode 支持的过滤器类型：exclusion（请求排除集合）、blacklist（item_ids 静态名单）。
func buildFilterNode(m map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := m["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		switch t := conv.ConfigGet(filterMap, "type", ""); t {
		case "exclusion":
			filters = append(filters, filter.ExclusionFilter{})
		case "blacklist":
			raw, _ := filterMap["item_ids"].([]interface{})
			ids := conv.ConvertSlice(raw, func(v interface{}) (int64, bool) {
				n, ok := conv.ToInt(v)
				return int64(n), ok
			})
			filters = append(filters, filter.NewBlacklistFilter(ids))
		default:
			return nil, fmt.Errorf("unknown filter type: %s", t)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}
