package rerank

import (
	"context"

	"github.com/rushteam/seedrank/core"
	"github.com/rushteam/seedrank/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，通常放在链路最后。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.Stage2Node{...},       // 打分
//	        &rerank.FranchiseCap{...},   // 系列多样性
//	        &rerank.TopNNode{},          // 按请求的 top_n 截断
//	    },
//	}
type TopNNode struct {
	// N 要保留的数量，<= 0 时使用请求中的 TopN；两者都 <= 0 时不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	limit := n.N
	if limit <= 0 && rctx != nil {
		limit = rctx.TopN
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
