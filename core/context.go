package core

import "github.com/rushteam/seedrank/pkg/utils"

// Mode 控制系列多样性约束。
type Mode string

const (
	ModeDiscovery  Mode = "discovery"  // 限制同系列作品数量
	ModeCompletion Mode = "completion" // 完全放行
)

// QualityFactorMode 决定外部评分如何缩放神经相似度贡献。
// 作为请求/配置字段传递，不使用进程级全局开关，不同配置的请求可以并发执行。
type QualityFactorMode string

const (
	QualityOff     QualityFactorMode = "off"
	QualityLinear  QualityFactorMode = "linear"
	QualityStepped QualityFactorMode = "stepped"
)

// ConfidenceTier 是本次请求语义信号可靠性的粗粒度摘要。
type ConfidenceTier string

const (
	ConfidenceNone   ConfidenceTier = "none"
	ConfidenceLow    ConfidenceTier = "low"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceHigh   ConfidenceTier = "high"
)

// RecommendContext 承载一次请求的全部输入与阶段间状态，贯穿整个 Pipeline 透传。
// 每个请求独占一个实例，不能跨请求复用。
type RecommendContext struct {
	RequestID string
	UserID    string

	// Seeds 是 1-5 个种子物品 ID，永远不会出现在结果中
	Seeds      []int64
	WatchedIDs []int64
	ExcludeIDs []int64

	TopN int
	Mode Mode

	// PersonalizationStrength ∈ [0,1]；UserVector 为物品隐因子空间中的用户口味向量（可选）
	PersonalizationStrength float64
	UserVector              []float64

	// QualityFactorMode 为空时使用 Stage2 配置
	QualityFactorMode QualityFactorMode

	// 以下字段由 Engine 与各阶段填充
	SeedItems        []*CatalogItem
	Exclusions       *Exclusions
	Confidence       ConfidenceTier
	AdmissionChannel ChannelKind
	// EffectiveStrength 是实际使用的个性化强度（不可用时为 0）
	EffectiveStrength float64
	Diagnostics       *Diagnostics

	// Labels 是请求级标签
	Labels map[string]utils.Label
}

// IsExcluded 判断 id 是否为种子或在本次请求的任一排除层中。
func (rctx *RecommendContext) IsExcluded(id int64) bool {
	if rctx == nil {
		return false
	}
	for _, s := range rctx.Seeds {
		if s == id {
			return true
		}
	}
	return rctx.Exclusions.Has(id)
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// Diag 返回诊断记录，必要时创建。
func (rctx *RecommendContext) Diag() *Diagnostics {
	if rctx.Diagnostics == nil {
		rctx.Diagnostics = NewDiagnostics(rctx.RequestID)
	}
	return rctx.Diagnostics
}
