// Package dsl 用 CEL (Common Expression Language) 表达目录卫生规则。
//
// 规则在装载快照时编译一次，对每个目录条目求值，命中任一规则的物品进入卫生排除集合。
// 可用变量只有 item：
//
//	item.id / item.title / item.type / item.episodes / item.year
//	item.rating / item.has_rating / item.members
//	item.genres / item.themes / item.demographics / item.studios（字符串列表）
//
// 示例：
//   - `item.type == "Music"`
//   - `"Hentai" in item.genres`
//   - `item.year > 0 && item.year < 1970`
//   - `item.title.contains("Recap")`
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/seedrank/catalog"
	"github.com/rushteam/seedrank/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.MapType(cel.StringType, cel.DynType)),
		)
	})
	return celEnv, celEnvErr
}

// Rule 是一条编译好的规则。
type Rule struct {
	Expr string
	prg  cel.Program
}

// HygieneRules 是一组编译好的卫生规则，编译后只读，可并发求值。
type HygieneRules struct {
	rules []Rule
}

// Compile 编译全部表达式，任一表达式无效或不返回布尔值都会报错。
func Compile(exprs []string) (*HygieneRules, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	hr := &HygieneRules{rules: make([]Rule, 0, len(exprs))}
	for _, expr := range exprs {
		if expr == "" {
			continue
		}
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
				fmt.Sprintf("hygiene rule %q: compile error: %v", expr, issues.Err()))
		}
		if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
			return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
				fmt.Sprintf("hygiene rule %q: must return bool, got %s", expr, t))
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("hygiene rule %q: program error: %w", expr, err)
		}
		hr.rules = append(hr.rules, Rule{Expr: expr, prg: prg})
	}
	return hr, nil
}

// Len 返回规则数量。
func (h *HygieneRules) Len() int {
	if h == nil {
		return 0
	}
	return len(h.rules)
}

// Match 返回物品命中的第一条规则。
// 单条规则求值出错（比如字段类型不符）视为未命中，不中断整体计算。
func (h *HygieneRules) Match(it *core.CatalogItem) (string, bool) {
	if h == nil || it == nil {
		return "", false
	}
	input := map[string]interface{}{"item": buildInput(it)}
	for _, r := range h.rules {
		out, _, err := r.prg.Eval(input)
		if err != nil {
			continue
		}
		if b, ok := out.Value().(bool); ok && b {
			return r.Expr, true
		}
	}
	return "", false
}

// Excluded 对整个目录求值，返回卫生排除集合。
func (h *HygieneRules) Excluded(cat *catalog.Catalog) core.IDSet {
	out := make(core.IDSet)
	if h.Len() == 0 || cat == nil {
		return out
	}
	for _, e := range cat.Entries() {
		if _, hit := h.Match(e.Item); hit {
			out.Add(e.Item.ID)
		}
	}
	return out
}

// buildInput 构建 CEL 表达式的输入数据，缺失的列表字段为空列表。
func buildInput(it *core.CatalogItem) map[string]interface{} {
	list := func(v []string) []string {
		if v == nil {
			return []string{}
		}
		return v
	}
	return map[string]interface{}{
		"id":           it.ID,
		"title":        it.Title,
		"type":         it.Type,
		"episodes":     int64(it.Episodes),
		"year":         int64(it.Year),
		"rating":       it.Rating,
		"has_rating":   it.HasRating,
		"members":      it.Members,
		"genres":       list(it.Genres),
		"themes":       list(it.Themes),
		"demographics": list(it.Demographics),
		"studios":      list(it.Studios),
	}
}
