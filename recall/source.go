// Package recall 实现 Stage0 候选池：神经近邻、严格元数据、人气兜底三层召回，
// 以及纯个性化列表。
package recall

import (
	"context"

	"github.com/rushteam/seedrank/core"
)

// Source 是 Stage0 的一个召回层。返回的 ID 已经过排除过滤，并按该层自己的确定性顺序排列。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]int64, error)
}

// Tier 标识召回层，顺序即截断时的优先级。
type Tier int

const (
	TierNeural Tier = iota
	TierMetaStrict
	TierPopularity

	numTiers = 3
)
