package filter

import (
	"context"

	"github.com/rushteam/seedrank/core"
)

// WatchedLoader 在调用推荐之前从 Store 读取用户的已看过列表与拉黑列表，
// 合并进请求的 WatchedIDs / ExcludeIDs。Pipeline 内部不做任何 I/O。
//
// key 格式：{WatchedPrefix}:{UserID}、{BlockedPrefix}:{UserID}
type WatchedLoader struct {
	Store         *StoreAdapter
	WatchedPrefix string
	BlockedPrefix string
}

// NewWatchedLoader 创建 WatchedLoader，前缀为空时使用默认值。
func NewWatchedLoader(s core.Store, watchedPrefix, blockedPrefix string) *WatchedLoader {
	if watchedPrefix == "" {
		watchedPrefix = "user:watched"
	}
	if blockedPrefix == "" {
		blockedPrefix = "user:blocked"
	}
	return &WatchedLoader{
		Store:         NewStoreAdapter(s),
		WatchedPrefix: watchedPrefix,
		BlockedPrefix: blockedPrefix,
	}
}

// Load 填充 rctx。UserID 为空时不做任何事。
func (l *WatchedLoader) Load(ctx context.Context, rctx *core.RecommendContext) error {
	if rctx == nil || rctx.UserID == "" || l.Store == nil {
		return nil
	}
	watched, err := l.Store.Members(ctx, l.WatchedPrefix+":"+rctx.UserID)
	if err != nil {
		return core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "load watched ids", err)
	}
	blocked, err := l.Store.Members(ctx, l.BlockedPrefix+":"+rctx.UserID)
	if err != nil {
		return core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "load blocked ids", err)
	}
	rctx.WatchedIDs = append(rctx.WatchedIDs, watched...)
	rctx.ExcludeIDs = append(rctx.ExcludeIDs, blocked...)
	return nil
}
