package semantic

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/seedrank/artifact"
	"github.com/rushteam/seedrank/core"
)

// admissionOrder 是准入通道的优先级：神经 > 稠密 > 词法。
var admissionOrder = [...]core.ChannelKind{core.ChannelNeural, core.ChannelDense, core.ChannelLexical}

// Set 持有三个可选通道，下标为 core.ChannelKind。
type Set struct {
	Channels [core.NumChannels]*Channel
}

// NewSet 用快照中的向量与各通道参数构建 Set，缺失的向量对应不可用通道。
func NewSet(snap *artifact.Snapshot, specs [core.NumChannels]Spec) *Set {
	s := &Set{}
	for k := 0; k < core.NumChannels; k++ {
		spec := specs[k]
		spec.Kind = core.ChannelKind(k)
		s.Channels[k] = &Channel{Spec: spec, Emb: snap.Embedding(core.ChannelKind(k))}
	}
	return s
}

// Channel 返回指定通道。
func (s *Set) Channel(kind core.ChannelKind) *Channel {
	if kind < 0 || int(kind) >= core.NumChannels {
		return nil
	}
	return s.Channels[kind]
}

// Result 是一次请求在所有通道上的查询结果。
type Result struct {
	Queries [core.NumChannels]*Query
}

// Query 返回通道查询结果，可能为 nil。
func (r *Result) Query(kind core.ChannelKind) *Query {
	if r == nil || kind < 0 || int(kind) >= core.NumChannels {
		return nil
	}
	return r.Queries[kind]
}

// Primary 返回本次请求的准入通道：按优先级第一个产生了相似度的通道。
func (r *Result) Primary() core.ChannelKind {
	for _, kind := range admissionOrder {
		if r.Query(kind).Usable() {
			return kind
		}
	}
	return core.ChannelNone
}

// Compute 并发计算每个可用通道的种子查询。
func (s *Set) Compute(ctx context.Context, seeds []int64) (*Result, error) {
	res := &Result{}
	eg, ctx := errgroup.WithContext(ctx)
	for k := 0; k < core.NumChannels; k++ {
		ch := s.Channels[k]
		if !ch.Available() {
			continue
		}
		k := k
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// 每个 goroutine 只写自己的下标
			res.Queries[k] = ch.Query(seeds)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
