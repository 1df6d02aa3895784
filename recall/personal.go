package recall

import (
	"github.com/rushteam/seedrank/artifact"
	"github.com/rushteam/seedrank/blend"
	"github.com/rushteam/seedrank/core"
)

// Personal 返回纯个性化列表：用户口味向量替换平均用户后，经 ScoreBlender 混合取 TopN。
// 排除规则与种子链路相同。个性化不可用时返回 nil 与原因。
func Personal(
	snap *artifact.Snapshot,
	rctx *core.RecommendContext,
	w blend.Weights,
) ([]core.ScoredResult, core.PersonalizationStatus) {
	b, status := snap.PersonalBlender(rctx.UserVector, 1)
	if !status.Available {
		return nil, status
	}
	return b.TopN(w, rctx.TopN, rctx.IsExcluded), status
}
