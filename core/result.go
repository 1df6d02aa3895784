package core

import "sort"

// Shares 是 CF / 邻域 / 人气三个分量的占比，只在实际参与的分量上归一化：
// 三者非负且和为 1，或全部为 0（没有分量贡献）。
type Shares struct {
	CF           float64 `json:"cf"`
	Neighborhood float64 `json:"neighborhood"`
	Popularity   float64 `json:"popularity"`
}

// Sum 返回三个占比之和。
func (s Shares) Sum() float64 {
	return s.CF + s.Neighborhood + s.Popularity
}

// Explanation 是单个结果的可解释信息。
type Explanation struct {
	Shares Shares `json:"shares"`

	// Terms 是 Stage2 原始加减分明细（genre / coverage / cf / neural / synopsis_neural / obscurity …）
	Terms map[string]float64 `json:"terms,omitempty"`

	// Components 是 ScoreBlender 各分量的原始贡献（cf / neighborhood / popularity），权重 × 归一化值
	Components map[string]float64 `json:"components,omitempty"`
}

// ScoredResult 是最终输出的一条记录。Score 无界，越大越好，跨请求不可比较。
type ScoredResult struct {
	ItemID      int64       `json:"item_id"`
	Score       float64     `json:"score"`
	Explanation Explanation `json:"explanation"`
}

// SortResults 按 (-score, item_id) 排序，保证确定性。
func SortResults(results []ScoredResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ItemID < results[j].ItemID
	})
}

// SortCandidates 按 (-score, id) 排序。
func SortCandidates(items []*Candidate) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}

// Response 是一次推荐请求的完整输出。
type Response struct {
	RequestID       string                `json:"request_id"`
	Results         []ScoredResult        `json:"results"`
	Personalization PersonalizationStatus `json:"personalization"`
	Diagnostics     *Diagnostics          `json:"diagnostics,omitempty"`
}

// PersonalizationStatus 描述个性化是否可用。不可用不是错误，种子排序照常工作。
type PersonalizationStatus struct {
	Available bool    `json:"available"`
	Reason    string  `json:"reason,omitempty"`
	Strength  float64 `json:"strength"`
}

// 个性化不可用的原因
const (
	ReasonDisabled          = "disabled"
	ReasonNoProfile         = "no_profile"
	ReasonNoRatings         = "no_ratings"
	ReasonZeroNorm          = "zero_norm"
	ReasonDimensionMismatch = "dimension_mismatch"
	ReasonNoModel           = "no_model"
)
