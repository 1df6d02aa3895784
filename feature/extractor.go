package feature

import (
	"github.com/rushteam/seedrank/catalog"
	"github.com/rushteam/seedrank/core"
)

// Extractor 为候选计算与语义通道无关的元数据信号。
// 每个请求构建一次，之后对每个候选调用 Extract。
type Extractor struct {
	Profile *SeedProfile
	Gate    *Gate
}

// NewExtractor 基于种子条目与格式门构建 Extractor。
func NewExtractor(seeds []*catalog.Entry, gate *Gate) *Extractor {
	return &Extractor{
		Profile: NewSeedProfile(seeds, gate.LongFormMinEpisodes()),
		Gate:    gate,
	}
}

// Extract 填充候选的元数据信号，保留已有的语义相似度字段。
func (x *Extractor) Extract(e *catalog.Entry, sig *core.Signals) {
	p := x.Profile
	sig.GenreOverlap = p.GenreOverlap(e)
	sig.SeedCoverage = p.SeedCoverage(e)
	sig.ThemeOverlap = p.ThemeOverlap(e)
	sig.MetaAffinity = p.MetadataAffinity(e)
	sig.TitleOverlap = p.TitleOverlap(e)
	sig.GatePassed = x.Gate.Passes(p, e)
	sig.SharesDemographic = p.SharesDemographic(e)
	sig.ShounenMatch = p.SharesShounen(e)
}
