package core

// Diagnostics 是每个阶段的观测记录，供回归/排查工具使用，不面向终端用户展示。
type Diagnostics struct {
	RequestID       string                `json:"request_id"`
	Pool            PoolDiagnostics       `json:"pool"`
	Shortlist       ShortlistDiagnostics  `json:"shortlist"`
	Rank            RankDiagnostics       `json:"rank"`
	Franchise       FranchiseDiagnostics  `json:"franchise"`
	Personalization PersonalizationStatus `json:"personalization"`
}

func NewDiagnostics(requestID string) *Diagnostics {
	return &Diagnostics{
		RequestID: requestID,
		Shortlist: ShortlistDiagnostics{
			Admissions: make(map[Admission]int),
		},
	}
}

// TierCounts 是 Stage0 三个召回层的计数。
type TierCounts struct {
	Neural     int `json:"neural"`
	MetaStrict int `json:"meta_strict"`
	Popularity int `json:"popularity"`
}

// PoolDiagnostics 记录 Stage0 各层截断前/后的数量以及层间重叠。
type PoolDiagnostics struct {
	Raw     TierCounts `json:"raw"`
	PostCap TierCounts `json:"post_cap"`

	OverlapNeuralMeta       int `json:"overlap_neural_meta"`
	OverlapNeuralPopularity int `json:"overlap_neural_popularity"`
	OverlapMetaPopularity   int `json:"overlap_meta_popularity"`

	Total int `json:"total"`
	Cap   int `json:"cap"`
}

// ShortlistDiagnostics 记录 Stage1 的组成与置信度。
type ShortlistDiagnostics struct {
	Channel         string            `json:"channel"`
	SemanticPool    int               `json:"semantic_pool"`
	FallbackPool    int               `json:"fallback_pool"`
	Forced          int               `json:"forced"`
	TakenSemantic   int               `json:"taken_semantic"`
	TakenFallback   int               `json:"taken_fallback"`
	Target          int               `json:"target"`
	SemanticBudget  int               `json:"semantic_budget"`
	ConfidenceTier  ConfidenceTier    `json:"confidence_tier"`
	ConfidenceScore float64           `json:"confidence_score"`
	Admissions      map[Admission]int `json:"admissions"`
}

// RankDiagnostics 记录 Stage2 打分情况。
type RankDiagnostics struct {
	Scored             int `json:"scored"`
	DroppedNonPositive int `json:"dropped_non_positive"`
	ContentFirst       int `json:"content_first"`
}

// FranchiseDrop 是被系列上限跳过的一个物品。
type FranchiseDrop struct {
	ItemID int64  `json:"item_id"`
	Rank   int    `json:"rank"` // 在输入序列中的 0-based 位置
	Reason string `json:"reason"`
}

// FranchiseDiagnostics 记录系列多样性约束前后的数量。
type FranchiseDiagnostics struct {
	Mode         Mode            `json:"mode"`
	Before       int             `json:"before"`
	After        int             `json:"after"`
	ItemsDropped []FranchiseDrop `json:"franchise_items_dropped,omitempty"`
}
