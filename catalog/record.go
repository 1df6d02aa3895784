package catalog

import (
	"fmt"
	"strings"

	"github.com/rushteam/seedrank/core"
	"github.com/rushteam/seedrank/pkg/conv"
)

// Record 是目录表中的一行，字段值可以是列表或以 '|' 分隔的字符串。
//
// 支持的列：
//   - id（必填，整数）
//   - title / synopsis / type
//   - genres / themes / demographics / studios
//   - episodes
//   - aired（或 date、start_date）：日期字符串，年份取前 4 位
//   - rating（或 score）：0-10 外部评分
//   - members（或 popularity）：人气计数
type Record map[string]any

// FromRecords 把表行转为目录。id 缺失或非法属于契约违规；其余字段缺失只是缺失。
func FromRecords(rows []Record) (*Catalog, error) {
	items := make([]core.CatalogItem, 0, len(rows))
	for i, row := range rows {
		it, err := row.toItem()
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeArtifactContract,
				fmt.Sprintf("catalog: row %d", i), err)
		}
		items = append(items, it)
	}
	return New(items)
}

func (r Record) first(keys ...string) any {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func (r Record) toItem() (core.CatalogItem, error) {
	idf, ok := conv.ToFloat64(r["id"])
	if !ok || idf != float64(int64(idf)) {
		return core.CatalogItem{}, fmt.Errorf("invalid id %v", r["id"])
	}
	it := core.CatalogItem{
		ID:           int64(idf),
		Genres:       conv.ToStringList(r["genres"]),
		Themes:       conv.ToStringList(r["themes"]),
		Demographics: conv.ToStringList(r["demographics"]),
		Studios:      conv.ToStringList(r["studios"]),
	}
	it.Title, _ = conv.ToString(r["title"])
	it.Synopsis, _ = conv.ToString(r["synopsis"])
	if t, ok := conv.ToString(r["type"]); ok {
		it.Type = strings.TrimSpace(t)
	}
	if n, ok := conv.ToInt(r["episodes"]); ok && n > 0 {
		it.Episodes = n
	}
	if date, ok := conv.ToString(r.first("aired", "date", "start_date")); ok {
		it.Year = parseYear(date)
	}
	if rating, ok := conv.ToFloat64(r.first("rating", "score")); ok && rating >= 0 && rating <= 10 {
		it.Rating = rating
		it.HasRating = true
	}
	if members, ok := conv.ToFloat64(r.first("members", "popularity")); ok && members > 0 {
		it.Members = int64(members)
	}
	return it, nil
}

// parseYear 取日期字符串前 4 位作为年份，非法时返回 0。
func parseYear(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	year := 0
	for _, ch := range date[:4] {
		if ch < '0' || ch > '9' {
			return 0
		}
		year = year*10 + int(ch-'0')
	}
	return year
}
