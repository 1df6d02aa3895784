package core

// ChannelKind 标识三个相互独立的语义相似度通道。
type ChannelKind int

const (
	ChannelLexical ChannelKind = iota // 词法（TF-IDF 一类）
	ChannelDense                      // 浅层稠密向量
	ChannelNeural                     // 深度神经向量

	NumChannels = 3
)

// ChannelNone 表示本次请求没有可用的准入通道。
const ChannelNone ChannelKind = -1

func (k ChannelKind) String() string {
	switch k {
	case ChannelLexical:
		return "lexical"
	case ChannelDense:
		return "dense"
	case ChannelNeural:
		return "neural"
	default:
		return "none"
	}
}

// Pool 是 Stage1 的路由结果。
type Pool string

const (
	PoolSemantic Pool = "semantic"
	PoolFallback Pool = "fallback"
)

// Admission 记录 Stage1 中命中的准入规则（先命中者生效）。
type Admission string

const (
	AdmitTitle       Admission = "title"       // 标题 token 重叠（系列兜底）
	AdmitForced      Admission = "forced"      // 强制近邻子池
	AdmitStandard    Admission = "standard"    // 相似度 + 高类型重叠
	AdmitDemographic Admission = "demographic" // shounen 受众覆盖（仅神经通道）
	AdmitRescue      Admission = "rescue"      // 高相似度救援
	AdmitRejected    Admission = "rejected"    // 进入元数据兜底池
)

// Signals 是 Stage1 预先计算、Stage2 直接消费的原始信号。
// 缺失数据一律为中性值（0 / false），从不报错。
type Signals struct {
	GenreOverlap float64 // 按种子加权的类型重叠
	SeedCoverage float64 // 与候选至少共享一个类型的种子占比
	ThemeOverlap float64 // 按种子加权的主题重叠
	MetaAffinity float64 // 制作公司/受众/类型/年代亲和度
	TitleOverlap float64 // 与任一种子的标题 token 重叠

	// Synopsis 是各通道的简介相似度，仅在达到该通道 MinSim 时 HasSynopsis=true
	Synopsis    [NumChannels]float64
	HasSynopsis [NumChannels]bool

	GatePassed        bool // 类型/集数格式门
	SharesDemographic bool
	ShounenMatch      bool
}

// CFState 是协同过滤信号的三态表示，避免用浮点数是否等于 0 来判断“没有信号”。
type CFState int

const (
	CFAbsent  CFState = iota // 该物品没有任何 CF 分量参与
	CFZero                   // 有分量参与，但 CF-only 分数在 epsilon 内为 0
	CFPresent                // 有有效的 CF 分数
)

func (s CFState) String() string {
	switch s {
	case CFZero:
		return "zero"
	case CFPresent:
		return "present"
	default:
		return "absent"
	}
}

// CFSignal 是 ScoreBlender 对单个物品给出的混合分数。
type CFSignal struct {
	State  CFState
	Hybrid float64 // MF + 邻域 + 人气 加权和
	CFOnly float64 // Hybrid 去掉人气分量
	Shares Shares
}
