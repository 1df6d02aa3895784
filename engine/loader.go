package engine

import (
	"context"
	"errors"

	"github.com/rushteam/seedrank/config"
	"github.com/rushteam/seedrank/core"
	"github.com/rushteam/seedrank/feast"
	"github.com/rushteam/seedrank/filter"
	"github.com/rushteam/seedrank/pkg/utils"
	"github.com/rushteam/seedrank/store"
)

// tasteStatusLabel 记录口味向量读取失败的原因，Recommend 据此上报个性化状态。
const tasteStatusLabel = "taste_status"

// TasteSource 读取用户口味向量。
type TasteSource interface {
	Fetch(ctx context.Context, userID string) ([]float64, core.PersonalizationStatus, error)
}

// Loader 在调用 Recommend 之前完成全部外部读取：已看过/拉黑列表与口味向量。
type Loader struct {
	Store   core.KeyValueStore
	Watched *filter.WatchedLoader
	Taste   TasteSource

	feast feast.Client
}

// NewLoader 按配置打开存储后端与 Feast 客户端。
func NewLoader(cfg *config.Config) (*Loader, error) {
	var kv core.KeyValueStore
	switch cfg.Store.Backend {
	case "redis":
		rs, err := store.NewRedisStore(cfg.Store.Addr, cfg.Store.DB)
		if err != nil {
			return nil, err
		}
		kv = rs
	default:
		kv = store.NewMemoryStore()
	}

	l := &Loader{
		Store:   kv,
		Watched: filter.NewWatchedLoader(kv, cfg.Store.WatchedPrefix, cfg.Store.BlockedPrefix),
	}
	if cfg.Feast.Enabled {
		client, err := feast.NewGrpcClient(cfg.Feast.Endpoint, cfg.Feast.Project, feast.WithTimeout(cfg.Feast.Timeout))
		if err != nil {
			_ = kv.Close()
			return nil, core.WrapDomainError(core.ModuleFeast, core.ErrorCodeUnavailable, "open feast client", err)
		}
		l.feast = client
		l.Taste = feast.NewTasteVectorSource(client, cfg.Feast.Feature, cfg.Feast.EntityKey, cfg.Feast.Project)
	}
	return l, nil
}

// Load 填充 rctx 的 WatchedIDs / ExcludeIDs，并在请求了个性化且未携带向量时读取口味向量。
// 口味向量后端不可用时返回错误，但已读取的列表仍然写入 rctx，调用方可以选择继续推荐。
func (l *Loader) Load(ctx context.Context, rctx *core.RecommendContext) error {
	if rctx == nil {
		return nil
	}
	if l.Watched != nil {
		if err := l.Watched.Load(ctx, rctx); err != nil {
			return err
		}
	}
	if l.Taste == nil || rctx.PersonalizationStrength == 0 || len(rctx.UserVector) > 0 {
		return nil
	}
	vec, status, err := l.Taste.Fetch(ctx, rctx.UserID)
	if err != nil {
		return err
	}
	if !status.Available {
		rctx.PutLabel(tasteStatusLabel, utils.Label{Value: status.Reason, Source: "feast"})
		return nil
	}
	rctx.UserVector = vec
	return nil
}

// Close 释放存储与 Feast 连接。
func (l *Loader) Close() error {
	var errs []error
	if l.Store != nil {
		errs = append(errs, l.Store.Close())
	}
	if l.feast != nil {
		errs = append(errs, l.feast.Close())
	}
	return errors.Join(errs...)
}
