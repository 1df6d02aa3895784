package core

import "github.com/rushteam/seedrank/pkg/utils"

// CatalogItem 是目录中的一个条目（TV/Movie/OVA…）。
// 单次请求内不可变，由元数据协作方持有；数值字段缺失时保持零值。
type CatalogItem struct {
	ID           int64
	Title        string
	Genres       []string
	Themes       []string
	Demographics []string
	Studios      []string
	Type         string
	Episodes     int // 0 表示未知
	Year         int // 0 表示未知（取自日期字符串前 4 位）

	// Rating 是外部质量评分（0-10），HasRating=false 时视为缺失
	Rating    float64
	HasRating bool

	// Members 是人气计数
	Members  int64
	Synopsis string
}

// Provenance 记录候选来自 Stage0 的哪些召回层。
type Provenance struct {
	FromNeural     bool `json:"from_neural"`
	FromMetaStrict bool `json:"from_meta_strict"`
	FromPopularity bool `json:"from_popularity"`
}

// Candidate 是链路中每个候选的固定结构记录，每个阶段只填充一次自己负责的字段：
//   - Stage0：ID/Item/Provenance/NeuralSim/Signals.Synopsis
//   - Stage1：Pool/Admission/Stage1Score/其余 Signals
//   - Stage2：Score/CF/Explanation
//
// Labels 沿用 Label 的合并语义，用于 explain / 观测。
type Candidate struct {
	ID   int64
	Item *CatalogItem

	Provenance Provenance

	// NeuralSim 是神经通道下与任一种子的最大余弦相似度（截断到 [0,1]，缺失为 0）
	NeuralSim float64

	Pool        Pool
	Admission   Admission
	Stage1Score float64
	Signals     Signals

	Score       float64
	CF          CFSignal
	Explanation Explanation

	Labels map[string]utils.Label
}

// NewCandidate 创建一个 Stage0 候选。
func NewCandidate(item *CatalogItem) *Candidate {
	return &Candidate{
		ID:     item.ID,
		Item:   item,
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}
