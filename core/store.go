package core

import "context"

// Store 是存储的领域接口，由基础设施层（store 包）实现。
//
// 在本项目中 Store 只在请求进入 Pipeline 之前被访问：
// 读取用户已看过列表、屏蔽列表等协作方数据。Pipeline 内部不做任何 I/O。
//
// 实现：
//   - store.MemoryStore
//   - store.RedisStore
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// Close 关闭连接/释放资源
	Close() error
}

// KeyValueStore 是 Store 的扩展接口，支持集合操作。
//
// 扩展功能：
//   - 集合（Set）：用户已看过 / 屏蔽的物品 ID
//
// 如果后端不支持某些操作，可返回 ErrStoreNotSupported。
type KeyValueStore interface {
	Store

	// SAdd 向集合添加成员
	SAdd(ctx context.Context, key string, members ...string) error

	// SMembers 获取集合全部成员（key 不存在时返回空切片）
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")
)

// IsStoreNotFound 检查错误是否为 key 不存在
func IsStoreNotFound(err error) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Module == ModuleStore && domainErr.Code == ErrorCodeNotFound
}
