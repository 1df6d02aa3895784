package feature

import "github.com/rushteam/seedrank/core"

// QualityFactor 根据外部评分缩放神经相似度贡献，评分缺失时为 1。
func QualityFactor(mode core.QualityFactorMode, it *core.CatalogItem) float64 {
	if it == nil || !it.HasRating {
		return 1
	}
	r := it.Rating
	switch mode {
	case core.QualityLinear:
		x := (r - 5) / 4
		if x < 0 {
			x = 0
		} else if x > 1 {
			x = 1
		}
		return 0.6 + 0.4*x
	case core.QualityStepped:
		switch {
		case r >= 8:
			return 1
		case r >= 7:
			return 0.9
		case r >= 6:
			return 0.8
		default:
			return 0.7
		}
	default:
		return 1
	}
}
