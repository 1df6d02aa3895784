package core

import "sort"

// IDSet 是 int64 物品 ID 集合。
type IDSet map[int64]struct{}

func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id int64) bool {
	if s == nil {
		return false
	}
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(id int64) {
	s[id] = struct{}{}
}

// Sorted 返回升序 ID 列表。
func (s IDSet) Sorted() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Exclusions 是分层的排除集合：种子、已看过、显式排除、卫生规则。
// Hygiene 由 Engine 在装载快照时一次性计算，请求间只读共享，其余三层为请求私有。
type Exclusions struct {
	Seeds    IDSet
	Watched  IDSet
	Explicit IDSet
	Hygiene  IDSet
}

// Has 判断 id 是否应被排除。
func (e *Exclusions) Has(id int64) bool {
	if e == nil {
		return false
	}
	return e.Seeds.Has(id) || e.Watched.Has(id) || e.Explicit.Has(id) || e.Hygiene.Has(id)
}
