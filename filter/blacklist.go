package filter

import (
	"context"

	"github.com/rushteam/seedrank/core"
)

// ExclusionFilter 过滤掉种子、已看过、显式排除与卫生规则命中的物品。
type ExclusionFilter struct{}

func (ExclusionFilter) Name() string { return "filter.exclusion" }

func (ExclusionFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, c *core.Candidate) (bool, error) {
	if c == nil {
		return true, nil
	}
	return rctx.IsExcluded(c.ID), nil
}

// BlacklistFilter 是静态黑名单过滤器，名单来自配置。
type BlacklistFilter struct {
	ItemIDs core.IDSet
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(itemIDs []int64) *BlacklistFilter {
	return &BlacklistFilter{ItemIDs: core.NewIDSet(itemIDs...)}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, c *core.Candidate) (bool, error) {
	if c == nil {
		return true, nil
	}
	return f.ItemIDs.Has(c.ID), nil
}
