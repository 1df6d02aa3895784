package feature

import (
	"github.com/rushteam/seedrank/catalog"
	"github.com/rushteam/seedrank/pkg/textnorm"
)

// 元数据亲和度的分项权重
const (
	affinityStudio      = 0.4
	affinityDemographic = 0.3
	affinityType        = 0.2
	affinityEra         = 0.1

	// eraWindow 年份差在此范围内视为同一年代
	eraWindow = 5

	// minPhraseLen 种子短语至少这么长才参与短语包含判定，避免短标题误判
	minPhraseLen = 5
)

// MetadataAffinity 返回 [0,1] 的元数据亲和度：制作公司 0.4 / 受众 0.3 / 类型 0.2 / 年代 0.1。
func (p *SeedProfile) MetadataAffinity(e *catalog.Entry) float64 {
	score := 0.0
	if intersects(p.Studios, e.Studios) {
		score += affinityStudio
	}
	if intersects(p.Demographics, e.Demographics) {
		score += affinityDemographic
	}
	if _, ok := p.Types[e.TypeKey]; ok && e.TypeKey != "" {
		score += affinityType
	}
	if y := e.Item.Year; y > 0 {
		for _, sy := range p.Years {
			if d := y - sy; d <= eraWindow && d >= -eraWindow {
				score += affinityEra
				break
			}
		}
	}
	return score
}

// TitleOverlap 返回与任一种子的最大标题 token 重叠 |T_c ∩ T_s| / |T_s|。
func (p *SeedProfile) TitleOverlap(e *catalog.Entry) float64 {
	best := 0.0
	for _, s := range p.Seeds {
		if len(s.TitleTokens) == 0 {
			continue
		}
		hit := 0
		for tok := range s.TitleTokens {
			if _, ok := e.TitleTokens[tok]; ok {
				hit++
			}
		}
		if r := float64(hit) / float64(len(s.TitleTokens)); r > best {
			best = r
		}
	}
	return best
}

// PhraseContained 判断某个种子的规范化标题（至少 5 个字符）以整词形式出现在候选标题中。
func (p *SeedProfile) PhraseContained(e *catalog.Entry) bool {
	for _, s := range p.Seeds {
		if len([]rune(s.Phrase)) < minPhraseLen {
			continue
		}
		if textnorm.ContainsPhrase(e.Phrase, s.Phrase) {
			return true
		}
	}
	return false
}
