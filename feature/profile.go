// Package feature 计算候选相对种子集合的原始信号（类型/主题重叠、元数据亲和、标题重叠等）。
//
// 所有函数在数据缺失时返回中性值（0 / false），从不返回错误。
package feature

import (
	"github.com/rushteam/seedrank/catalog"
	"github.com/rushteam/seedrank/pkg/textnorm"
)

// SeedProfile 是种子集合的聚合视图，每个请求构建一次。
type SeedProfile struct {
	Seeds []*catalog.Entry

	// GenreWeights[g] = 拥有类型 g 的种子数
	GenreWeights map[string]float64
	ThemeWeights map[string]float64
	genreTotal   float64
	themeTotal   float64

	Demographics map[string]struct{}
	Studios      map[string]struct{}
	Types        map[string]struct{}
	Years        []int

	// GenreCount 是种子类型并集的大小
	GenreCount int
	// LongForm 表示种子中有长篇 TV 作品（集数 ≥ 门限或未知）
	LongForm bool
	Shounen  bool
}

// NewSeedProfile 聚合种子条目。longFormMinEpisodes 决定长篇 TV 的集数门限。
func NewSeedProfile(seeds []*catalog.Entry, longFormMinEpisodes int) *SeedProfile {
	p := &SeedProfile{
		Seeds:        seeds,
		GenreWeights: make(map[string]float64),
		ThemeWeights: make(map[string]float64),
		Demographics: make(map[string]struct{}),
		Studios:      make(map[string]struct{}),
		Types:        make(map[string]struct{}),
	}
	for _, s := range seeds {
		for g := range s.Genres {
			p.GenreWeights[g]++
			p.genreTotal++
		}
		for th := range s.Themes {
			p.ThemeWeights[th]++
			p.themeTotal++
		}
		for d := range s.Demographics {
			p.Demographics[d] = struct{}{}
			if isShounen(d) {
				p.Shounen = true
			}
		}
		for st := range s.Studios {
			p.Studios[st] = struct{}{}
		}
		if s.TypeKey != "" {
			p.Types[s.TypeKey] = struct{}{}
		}
		if s.Item.Year > 0 {
			p.Years = append(p.Years, s.Item.Year)
		}
		if s.TypeKey == "tv" && (s.Item.Episodes == 0 || s.Item.Episodes >= longFormMinEpisodes) {
			p.LongForm = true
		}
	}
	p.GenreCount = len(p.GenreWeights)
	return p
}

// isShounen 比较整个规范化后的受众键："Shōnen" 命中，"Shounen Ai" 不命中。
func isShounen(key string) bool {
	switch textnorm.Normalize(key) {
	case "shounen", "shonen":
		return true
	}
	return false
}

// weightedOverlap 返回候选命中的种子加权占比：Σ_{k∈cand} w(k) / Σ w。
func weightedOverlap(cand map[string]struct{}, weights map[string]float64, total float64) float64 {
	if total <= 0 || len(cand) == 0 {
		return 0
	}
	hit := 0.0
	for k := range cand {
		hit += weights[k]
	}
	return hit / total
}

// GenreOverlap 是按种子加权的类型重叠。单种子时即 |G_c ∩ G_s| / |G_s|。
func (p *SeedProfile) GenreOverlap(e *catalog.Entry) float64 {
	return weightedOverlap(e.Genres, p.GenreWeights, p.genreTotal)
}

// ThemeOverlap 是按种子加权的主题重叠。
func (p *SeedProfile) ThemeOverlap(e *catalog.Entry) float64 {
	return weightedOverlap(e.Themes, p.ThemeWeights, p.themeTotal)
}

// SeedCoverage 是与候选至少共享一个类型的种子占比。
func (p *SeedProfile) SeedCoverage(e *catalog.Entry) float64 {
	if len(p.Seeds) == 0 {
		return 0
	}
	covered := 0
	for _, s := range p.Seeds {
		if intersects(s.Genres, e.Genres) {
			covered++
		}
	}
	return float64(covered) / float64(len(p.Seeds))
}

// SharesDemographic 判断候选与任一种子是否有相同受众。
func (p *SeedProfile) SharesDemographic(e *catalog.Entry) bool {
	return intersects(p.Demographics, e.Demographics)
}

// SharesShounen 判断种子与候选是否都带有 shounen 受众标记。
func (p *SeedProfile) SharesShounen(e *catalog.Entry) bool {
	if !p.Shounen {
		return false
	}
	for d := range e.Demographics {
		if isShounen(d) {
			return true
		}
	}
	return false
}

func intersects(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

// SeedEntries 查找种子条目，目录中不存在的种子被跳过。
func SeedEntries(cat *catalog.Catalog, seeds []int64) []*catalog.Entry {
	out := make([]*catalog.Entry, 0, len(seeds))
	for _, id := range seeds {
		if e, ok := cat.Entry(id); ok {
			out = append(out, e)
		}
	}
	return out
}
