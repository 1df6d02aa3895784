package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Config 描述一条 Stage 链，YAML 与 JSON 结构相同：
//
//	pipeline:
//	  name: seedrank
//	  nodes:
//	    - type: recall.pool        # Stage0 候选池
//	      config: {cap: 2000}
//	    - type: filter.shortlist   # Stage1 准入与短名单
//	    - type: rank.stage2        # Stage2 精排
//	    - type: rerank.franchise   # 系列上限（仅 discovery）
//	    - type: rerank.topn
//
// 链路顺序即执行顺序；具体类型由 config 包的 NodeFactory 解析。
type Config struct {
	Pipeline struct {
		Name  string       `yaml:"name" json:"name"`
		Nodes []NodeConfig `yaml:"nodes" json:"nodes"`
	} `yaml:"pipeline" json:"pipeline"`
}

// NodeConfig 是链路中的一个 Stage：Type 选择构建器，Config 覆盖该 Stage 的阈值。
type NodeConfig struct {
	Type   string                 `yaml:"type" json:"type"`
	Config map[string]interface{} `yaml:"config" json:"config"`
}

// Types 按链路顺序返回各 Stage 的类型。
func (c *Config) Types() []string {
	types := make([]string, 0, len(c.Pipeline.Nodes))
	for _, nc := range c.Pipeline.Nodes {
		types = append(types, nc.Type)
	}
	return types
}

// LoadFromYAML 读取 YAML 格式的 Stage 链。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML 解析内存中的 YAML Stage 链（内置默认链路即由此解析）。
func ParseYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}

// LoadFromJSON 读取 JSON 格式的 Stage 链。
func LoadFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return &cfg, nil
}

// BuildPipeline 逐个 Stage 调用 factory 构建 Node。
// 工厂按请求构建（Stage 绑定快照与个性化 Blender），因此链路本身不缓存。
func (c *Config) BuildPipeline(factory *NodeFactory) (*Pipeline, error) {
	nodes := make([]Node, 0, len(c.Pipeline.Nodes))
	for i, nc := range c.Pipeline.Nodes {
		node, err := factory.Build(nc.Type, nc.Config)
		if err != nil {
			return nil, fmt.Errorf("build stage %d (%s): %w", i, nc.Type, err)
		}
		nodes = append(nodes, node)
	}
	return &Pipeline{Nodes: nodes}, nil
}

// NodeFactory 把 Stage 类型映射到构建器。
type NodeFactory struct {
	builders map[string]NodeBuilder
}

func NewNodeFactory() *NodeFactory {
	return &NodeFactory{builders: make(map[string]NodeBuilder)}
}

// Register 注册构建器，同名覆盖。
func (f *NodeFactory) Register(nodeType string, builder NodeBuilder) {
	f.builders[nodeType] = builder
}

// Build 构建一个 Stage。未知类型的错误里带上已注册类型。
func (f *NodeFactory) Build(nodeType string, config map[string]interface{}) (Node, error) {
	builder, ok := f.builders[nodeType]
	if !ok {
		return nil, fmt.Errorf("unknown node type %q (registered: %v)", nodeType, f.Types())
	}
	return builder(config)
}

// Types 返回已注册类型（排序）。
func (f *NodeFactory) Types() []string {
	types := make([]string, 0, len(f.builders))
	for t := range f.builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
