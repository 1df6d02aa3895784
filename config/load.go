package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix 是环境变量前缀。
const EnvPrefix = "SEEDRANK_"

// Load 按 默认值 → YAML 文件（path 非空时）→ 环境变量 的优先级装载配置并校验。
//
// 环境变量中用双下划线分隔层级：
//
//	SEEDRANK_STAGE2__WEIGHTS__NEURAL=0.3      -> stage2.weights.neural
//	SEEDRANK_REQUEST__DEFAULT_TOP_N=50       -> request.default_top_n
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitListFields(k); err != nil {
		return nil, fmt.Errorf("failed to process list fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "__", ".")
}

// listPaths 是允许用逗号分隔字符串覆盖的列表字段。
var listPaths = []string{
	"hygiene.blacklist",
	"shortlist.gate.blocked_types",
}

// splitListFields 把环境变量给出的 "a,b,c" 转成列表。
func splitListFields(k *koanf.Koanf) error {
	for _, p := range listPaths {
		s, ok := k.Get(p).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, v := range parts {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		if err := k.Set(p, out); err != nil {
			return fmt.Errorf("set %s: %w", p, err)
		}
	}
	return nil
}
