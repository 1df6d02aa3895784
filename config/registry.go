package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rushteam/seedrank/pipeline"
)

// NodeBuilder 与 pipeline.NodeBuilder 一致：根据 config 构建 Node。
// 不依赖快照的扩展 Node 在 init 中调用 Register(typeName, builder) 即可被配置驱动。
type NodeBuilder = pipeline.NodeBuilder

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// snapshotTypes 是绑定快照、由 NewFactory 注册的 Node 类型。
var snapshotTypes = []string{"recall.pool", "filter.shortlist", "rank.stage2", "rerank.franchise"}

func init() {
	Register("rerank.topn", buildTopNNode)
	Register("filter.node", buildFilterNode)
}

// Register 注册一种 Node 的构建逻辑。同名类型后注册的覆盖先注册的。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回全部可用的 Node 类型（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	seen := make(map[string]struct{}, len(defaultBuilders)+len(snapshotTypes))
	for t := range defaultBuilders {
		seen[t] = struct{}{}
	}
	for _, t := range snapshotTypes {
		seen[t] = struct{}{}
	}
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 返回只包含注册表中 Node 类型的 NodeFactory。
func DefaultFactory() *pipeline.NodeFactory {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultBuilders {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig 校验 pipeline 配置中所有 node 类型均受支持，且链路以 recall.pool 开头。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return fmt.Errorf("pipeline config is nil")
	}
	supported := SupportedTypes()
	set := make(map[string]struct{}, len(supported))
	for _, t := range supported {
		set[t] = struct{}{}
	}
	types := cfg.Types()
	for i, t := range types {
		if _, ok := set[t]; !ok {
			return fmt.Errorf("unsupported node type %q at position %d (supported: %v)", t, i, supported)
		}
	}
	if len(types) == 0 || types[0] != "recall.pool" {
		return fmt.Errorf("pipeline must start with recall.pool")
	}
	return nil
}

// LoadPipeline 读取 cfg.PipelineFile（为空时使用 DefaultPipelineYAML）并校验。
// 文件扩展名为 .json 时按 JSON 解析，其余按 YAML。
func LoadPipeline(cfg *Config) (*pipeline.Config, error) {
	var (
		pc  *pipeline.Config
		err error
	)
	switch {
	case cfg.PipelineFile == "":
		pc, err = pipeline.ParseYAML([]byte(DefaultPipelineYAML))
	case strings.EqualFold(filepath.Ext(cfg.PipelineFile), ".json"):
		pc, err = pipeline.LoadFromJSON(cfg.PipelineFile)
	default:
		pc, err = pipeline.LoadFromYAML(cfg.PipelineFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}
	if err := ValidatePipelineConfig(pc); err != nil {
		return nil, err
	}
	return pc, nil
}
