package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/seedrank/core"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链：Stage0 → Stage1 → Stage2 → 后处理。
type Pipeline struct {
	Nodes []Node
}

// Run 依次执行各 Node。每个 Node 之间检查 ctx，取消后立即返回。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
