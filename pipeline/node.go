package pipeline

import (
	"context"

	"github.com/rushteam/seedrank/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall Kind = "recall" // Stage0：构建候选池
	KindFilter Kind = "filter" // Stage1：准入与短名单；排除过滤
	KindRank   Kind = "rank"   // Stage2：打分并排序
	KindReRank Kind = "rerank" // 系列上限、截断等只做选择的后处理
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入候选 -> 输出候选”的形态：Recall 生成、Filter 截断、Rank 打分、ReRank 重排。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Candidate,
	) ([]*core.Candidate, error)
}

// NodeBuilder 根据配置构建 Node。
type NodeBuilder func(map[string]interface{}) (Node, error)
