package filter

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rushteam/seedrank/core"
)

// StoreAdapter 将 core.Store 适配为按 key 读取 ID 集合的接口。
//   - 实现了 KeyValueStore 时使用集合（SMembers）
//   - 否则从普通 key 读取 JSON 数组
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// Members 读取 key 下的物品 ID。key 不存在时返回空列表，无法解析的成员被跳过。
func (a *StoreAdapter) Members(ctx context.Context, key string) ([]int64, error) {
	if kv, ok := a.store.(core.KeyValueStore); ok {
		members, err := kv.SMembers(ctx, key)
		if err != nil {
			if core.IsStoreNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		ids := make([]int64, 0, len(members))
		for _, m := range members {
			if id, err := strconv.ParseInt(m, 10, 64); err == nil {
				ids = append(ids, id)
			}
		}
		return ids, nil
	}

	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
