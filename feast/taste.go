package feast

import (
	"context"
	"math"

	"github.com/rushteam/seedrank/core"
)

// TasteVectorSource 从 Feast 在线存储读取用户口味向量（物品隐因子空间）。
// 向量缺失或不可用时返回 PersonalizationStatus，而不是错误；只有后端不可用才返回错误。
type TasteVectorSource struct {
	Client    Client
	Feature   string // 默认 "user_taste:vector"
	EntityKey string // 默认 "user_id"
	Project   string
}

// NewTasteVectorSource 创建口味向量读取器，空参数使用默认值。
func NewTasteVectorSource(client Client, feature, entityKey, project string) *TasteVectorSource {
	if feature == "" {
		feature = "user_taste:vector"
	}
	if entityKey == "" {
		entityKey = "user_id"
	}
	return &TasteVectorSource{Client: client, Feature: feature, EntityKey: entityKey, Project: project}
}

// Fetch 读取 userID 的口味向量。
func (s *TasteVectorSource) Fetch(ctx context.Context, userID string) ([]float64, core.PersonalizationStatus, error) {
	if userID == "" || s.Client == nil {
		return nil, core.PersonalizationStatus{Reason: core.ReasonNoProfile}, nil
	}
	resp, err := s.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   []string{s.Feature},
		EntityRows: []map[string]interface{}{{s.EntityKey: userID}},
		Project:    s.Project,
	})
	if err != nil {
		return nil, core.PersonalizationStatus{}, core.WrapDomainError(core.ModuleFeast, core.ErrorCodeUnavailable, "fetch taste vector", err)
	}
	if resp == nil || len(resp.FeatureVectors) == 0 {
		return nil, core.PersonalizationStatus{Reason: core.ReasonNoProfile}, nil
	}
	vec := toFloats(resp.FeatureVectors[0].Values[s.Feature])
	if len(vec) == 0 {
		return nil, core.PersonalizationStatus{Reason: core.ReasonNoRatings}, nil
	}
	norm := 0.0
	for _, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, core.PersonalizationStatus{Reason: core.ReasonZeroNorm}, nil
		}
		norm += v * v
	}
	if math.Sqrt(norm) < 1e-9 {
		return nil, core.PersonalizationStatus{Reason: core.ReasonZeroNorm}, nil
	}
	return vec, core.PersonalizationStatus{Available: true}, nil
}

func toFloats(v interface{}) []float64 {
	switch x := v.(type) {
	case []float64:
		return x
	case []float32:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
		return out
	case []interface{}:
		out := make([]float64, 0, len(x))
		for _, e := range x {
			f, ok := e.(float64)
			if !ok {
				return nil
			}
			out = append(out, f)
		}
		return out
	default:
		return nil
	}
}
