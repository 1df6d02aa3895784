// Package store 是 core.Store / core.KeyValueStore 的实现。
//
// 注意：此包只包含实现，接口定义在 core 包。
// Store 只在请求进入 Pipeline 之前访问（读取已看过/拉黑列表），Pipeline 内部不做 I/O。
//
// 示例：
//
//	var kv core.KeyValueStore = store.NewMemoryStore()
//	_ = kv.SAdd(ctx, "user:watched:42", "5114", "9253")
package store
