// Package seedrank 是一个以种子物品为条件的推荐排序引擎。
//
// 设计要点：
// - Pipeline-first: Stage0 候选池 → Stage1 短名单 → Stage2 精排 → 系列上限 → Top-N，均为可配置的 Node
// - 快照只读：目录与数值产物装载一次，刷新时原子替换，请求间不共享可变状态
// - 可解释：每个结果带 CF / 邻域 / 人气占比与各打分项明细，每个阶段输出诊断信息
//
// 入口见 engine.Engine；参数见 config.Config。
package seedrank

import "github.com/rushteam/seedrank/pipeline"

// 轻量 facade：便于用户直接 import "seedrank" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindRank   = pipeline.KindRank
	KindReRank = pipeline.KindReRank
)
