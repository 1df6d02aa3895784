// Package feast 从 Feast Feature Store 读取用户口味向量。
//
// 只在调用推荐之前使用（请求进入 Pipeline 前完成 I/O），Pipeline 内部不访问 Feast。
package feast

import (
	"context"
	"time"
)

// Client 是 Feast 在线特征客户端接口。
//
// 实现：
//   - GrpcClient：基于官方 SDK (github.com/feast-dev/feast/sdk/go)
//   - 测试中可以用内存实现替换
//
// 参考：https://github.com/feast-dev/feast
type Client interface {
	// GetOnlineFeatures 获取在线特征
	//
	// 参数：
	//   - features: 特征名称列表，例如 ["user_taste:vector"]
	//   - entityRows: 实体行，例如 [{"user_id": "42"}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求
type GetOnlineFeaturesRequest struct {
	Features   []string
	EntityRows []map[string]interface{}

	// Project 项目名称（可选，默认使用客户端配置）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应
type GetOnlineFeaturesResponse struct {
	// FeatureVectors 每个元素对应一个实体行
	FeatureVectors []FeatureVector
}

// FeatureVector 特征向量
type FeatureVector struct {
	// Values key 为特征名称；列表特征为 []float64
	Values    map[string]interface{}
	EntityRow map[string]interface{}
}

// ClientOption Feast 客户端配置选项
type ClientOption func(*ClientConfig)

// ClientConfig Feast 客户端配置
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration
	Auth     *AuthConfig
}

// AuthConfig 认证配置。gRPC 只支持 static（静态 Token）。
type AuthConfig struct {
	Type  string
	Token string
}

// WithTimeout 配置选项：设置超时时间
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithAuth 配置选项：设置认证信息
func WithAuth(auth *AuthConfig) ClientOption {
	return func(c *ClientConfig) {
		c.Auth = auth
	}
}
