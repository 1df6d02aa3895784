// Package catalog 是目录元数据表的内存表示。进程启动时装载一次，此后只读，可跨请求无锁共享。
package catalog

import (
	"fmt"
	"sort"

	"github.com/rushteam/seedrank/core"
	"github.com/rushteam/seedrank/pkg/textnorm"
)

// Entry 是目录条目及其一次性计算好的规范化字段。
type Entry struct {
	Item *core.CatalogItem
	Pos  int // 在按 ID 升序排列的目录中的位置

	TitleTokens map[string]struct{}
	Phrase      string // 规范化后的完整标题短语

	Genres       map[string]struct{}
	Themes       map[string]struct{}
	Demographics map[string]struct{}
	Studios      map[string]struct{}
	TypeKey      string
}

// Catalog 是按 ID 升序排列的目录。
type Catalog struct {
	entries []*Entry
	index   map[int64]int

	// membersPct 是按 Members 计算的人气百分位（0 = 最热门），Members 为 0 时视为缺失
	membersPct []float64
	hasMembers []bool
}

// New 根据条目构建目录，ID 重复属于契约违规。
func New(items []core.CatalogItem) (*Catalog, error) {
	sorted := make([]core.CatalogItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	c := &Catalog{
		entries: make([]*Entry, len(sorted)),
		index:   make(map[int64]int, len(sorted)),
	}
	for i := range sorted {
		it := &sorted[i]
		if _, dup := c.index[it.ID]; dup {
			return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeArtifactContract,
				"catalog: duplicate item id")
		}
		c.index[it.ID] = i
		c.entries[i] = newEntry(it, i)
	}
	c.computeMembersPercentile()
	return c, nil
}

func newEntry(it *core.CatalogItem, pos int) *Entry {
	return &Entry{
		Item:         it,
		Pos:          pos,
		TitleTokens:  textnorm.Tokens(it.Title),
		Phrase:       textnorm.Normalize(it.Title),
		Genres:       keySet(it.Genres),
		Themes:       keySet(it.Themes),
		Demographics: keySet(it.Demographics),
		Studios:      keySet(it.Studios),
		TypeKey:      textnorm.Lower(it.Type),
	}
}

func keySet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		if k := textnorm.Lower(v); k != "" {
			out[k] = struct{}{}
		}
	}
	return out
}

// computeMembersPercentile 按 (members desc, id asc) 排名，percentile = rank/(n-1)。
func (c *Catalog) computeMembersPercentile() {
	n := len(c.entries)
	c.membersPct = make([]float64, n)
	c.hasMembers = make([]bool, n)

	ranked := make([]int, 0, n)
	for i, e := range c.entries {
		if e.Item.Members > 0 {
			ranked = append(ranked, i)
		}
	}
	sort.Slice(ranked, func(a, b int) bool {
		ea, eb := c.entries[ranked[a]], c.entries[ranked[b]]
		if ea.Item.Members != eb.Item.Members {
			return ea.Item.Members > eb.Item.Members
		}
		return ea.Item.ID < eb.Item.ID
	})
	for r, pos := range ranked {
		c.hasMembers[pos] = true
		if len(ranked) > 1 {
			c.membersPct[pos] = float64(r) / float64(len(ranked)-1)
		}
	}
}

// Len 返回目录大小。
func (c *Catalog) Len() int { return len(c.entries) }

// Entries 返回按 ID 升序的条目（只读）。
func (c *Catalog) Entries() []*Entry { return c.entries }

// Entry 按 ID 查找条目。
func (c *Catalog) Entry(id int64) (*Entry, bool) {
	pos, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return c.entries[pos], true
}

// Item 按 ID 查找物品。
func (c *Catalog) Item(id int64) (*core.CatalogItem, bool) {
	e, ok := c.Entry(id)
	if !ok {
		return nil, false
	}
	return e.Item, true
}

// Lookup 与 Item 相同，但 ID 不存在时返回 NOT_FOUND 领域错误。
func (c *Catalog) Lookup(id int64) (*core.CatalogItem, error) {
	it, ok := c.Item(id)
	if !ok {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, fmt.Sprintf("item %d not in catalog", id))
	}
	return it, nil
}

// Pos 返回 ID 在目录中的位置。
func (c *Catalog) Pos(id int64) (int, bool) {
	pos, ok := c.index[id]
	return pos, ok
}

// IDs 返回按升序排列的全部 ID。
func (c *Catalog) IDs() []int64 {
	out := make([]int64, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Item.ID
	}
	return out
}

// MembersPercentile 返回按 Members 计算的人气百分位（0 = 最热门）。
func (c *Catalog) MembersPercentile(pos int) (float64, bool) {
	if pos < 0 || pos >= len(c.entries) || !c.hasMembers[pos] {
		return 0, false
	}
	return c.membersPct[pos], true
}
