package feast

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	"github.com/feast-dev/feast/sdk/go/protos/feast/types"
)

// GrpcClient 是基于官方 Feast Go SDK 的 gRPC 客户端实现。
type GrpcClient struct {
	client *feastsdk.GrpcClient

	Project  string
	Endpoint string
	Timeout  time.Duration
}

// NewGrpcClient 创建一个 Feast gRPC 客户端。endpoint 形如 "localhost:6565" 或 "grpc://localhost:6565"，
// 端口缺失时使用 6565。
func NewGrpcClient(endpoint, project string, opts ...ClientOption) (*GrpcClient, error) {
	host, port := parseEndpoint(endpoint)
	if port == 0 {
		port = 6565
	}

	config := &ClientConfig{
		Endpoint: fmt.Sprintf("%s:%d", host, port),
		Project:  project,
		Timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(config)
	}

	var client *feastsdk.GrpcClient
	var err error
	if config.Auth != nil && config.Auth.Type == "static" && config.Auth.Token != "" {
		security := feastsdk.SecurityConfig{
			EnableTLS:  false,
			Credential: feastsdk.NewStaticCredential(config.Auth.Token),
		}
		client, err = feastsdk.NewSecureGrpcClient(host, port, security)
	} else {
		client, err = feastsdk.NewGrpcClient(host, port)
	}
	if err != nil {
		return nil, fmt.Errorf("feast grpc client: %w", err)
	}

	return &GrpcClient{
		client:   client,
		Project:  project,
		Endpoint: config.Endpoint,
		Timeout:  config.Timeout,
	}, nil
}

// GetOnlineFeatures 获取在线特征（实现 Client 接口）
func (c *GrpcClient) GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	if len(req.Features) == 0 {
		return nil, fmt.Errorf("features are required")
	}
	if len(req.EntityRows) == 0 {
		return nil, fmt.Errorf("entity rows are required")
	}
	project := req.Project
	if project == "" {
		project = c.Project
	}
	if project == "" {
		return nil, fmt.Errorf("project is required")
	}

	entityRows := make([]feastsdk.Row, len(req.EntityRows))
	for i, row := range req.EntityRows {
		entityRow := make(feastsdk.Row, len(row))
		for k, v := range row {
			entityRow[k] = convertToSDKValue(v)
		}
		entityRows[i] = entityRow
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	sdkResp, err := c.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: req.Features,
		Entities: entityRows,
		Project:  project,
	})
	if err != nil {
		return nil, fmt.Errorf("feast get online features: %w", err)
	}

	rows := sdkResp.Rows()
	if len(rows) != len(req.EntityRows) {
		return nil, fmt.Errorf("response row count mismatch: expected %d, got %d", len(req.EntityRows), len(rows))
	}
	vectors := make([]FeatureVector, len(rows))
	for i, row := range rows {
		values := make(map[string]interface{}, len(req.Features))
		for _, name := range req.Features {
			if v, ok := row[name]; ok {
				if cv := convertFromSDKValue(v); cv != nil {
					values[name] = cv
				}
			}
		}
		vectors[i] = FeatureVector{Values: values, EntityRow: req.EntityRows[i]}
	}
	return &GetOnlineFeaturesResponse{FeatureVectors: vectors}, nil
}

// Close 关闭客户端连接（实现 Client 接口）。SDK 没有显式 Close，连接由 gRPC 库管理。
func (c *GrpcClient) Close() error {
	c.client = nil
	return nil
}

// parseEndpoint 解析端点地址，返回 host 和 port（缺失为 0）
func parseEndpoint(endpoint string) (string, int) {
	endpoint = strings.TrimPrefix(endpoint, "grpc://")
	host, portStr, found := strings.Cut(endpoint, ":")
	if !found {
		return endpoint, 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 0
	}
	return host, port
}

// convertToSDKValue 把实体键转换为 SDK 值类型
func convertToSDKValue(v interface{}) *types.Value {
	switch val := v.(type) {
	case string:
		return feastsdk.StrVal(val)
	case int:
		return feastsdk.Int64Val(int64(val))
	case int64:
		return feastsdk.Int64Val(val)
	case int32:
		return feastsdk.Int64Val(int64(val))
	case float64:
		return feastsdk.DoubleVal(val)
	case float32:
		return feastsdk.FloatVal(val)
	case bool:
		return feastsdk.BoolVal(val)
	case []byte:
		return feastsdk.BytesVal(val)
	default:
		return feastsdk.StrVal(fmt.Sprintf("%v", val))
	}
}

// convertFromSDKValue 把 SDK 值转换为 Go 值：数值列表统一为 []float64，标量数值统一为 float64。
func convertFromSDKValue(v *types.Value) interface{} {
	if v == nil {
		return nil
	}
	switch x := v.GetVal().(type) {
	case *types.Value_DoubleListVal:
		return append([]float64(nil), x.DoubleListVal.GetVal()...)
	case *types.Value_FloatListVal:
		src := x.FloatListVal.GetVal()
		out := make([]float64, len(src))
		for i, f := range src {
			out[i] = float64(f)
		}
		return out
	case *types.Value_DoubleVal:
		return x.DoubleVal
	case *types.Value_FloatVal:
		return float64(x.FloatVal)
	case *types.Value_Int64Val:
		return float64(x.Int64Val)
	case *types.Value_Int32Val:
		return float64(x.Int32Val)
	case *types.Value_BoolVal:
		if x.BoolVal {
			return float64(1)
		}
		return float64(0)
	case *types.Value_StringVal:
		return x.StringVal
	case *types.Value_BytesVal:
		return string(x.BytesVal)
	default:
		return nil
	}
}

var _ Client = (*GrpcClient)(nil)
