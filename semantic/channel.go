package semantic

import (
	"container/heap"
	"math"

	"github.com/rushteam/seedrank/artifact"
	"github.com/rushteam/seedrank/core"
)

// Channel 是一个已配置的语义通道：参数 + 向量产物（可缺失）。
type Channel struct {
	Spec Spec
	Emb  *artifact.Embedding
}

// Available 判断通道是否装载了向量。
func (c *Channel) Available() bool { return c != nil && c.Emb != nil }

// Neighbor 是一条近邻结果。
type Neighbor struct {
	ID  int64
	Sim float64
}

// Query 是一次种子查询的结果：每个物品到任一种子的最大相似度，按产物行序对齐。
type Query struct {
	Channel *Channel
	seeds   core.IDSet
	sims    []float64 // NaN = 该物品无向量
	usable  bool
}

// Query 对所有物品计算到种子集合的最大点积相似度（截断到 [0,1]）。
// 没有任何种子拥有向量时返回的 Query 不可用，所有相似度缺失。
func (c *Channel) Query(seeds []int64) *Query {
	q := &Query{Channel: c, seeds: core.NewIDSet(seeds...)}
	if !c.Available() {
		return q
	}
	seedVecs := make([][]float32, 0, len(seeds))
	for _, id := range seeds {
		if v, ok := c.Emb.Vector(id); ok {
			seedVecs = append(seedVecs, v)
		}
	}
	n := c.Emb.Index.Len()
	q.sims = make([]float64, n)
	q.usable = len(seedVecs) > 0
	for row := 0; row < n; row++ {
		v, ok := c.Emb.RowVector(row)
		if !ok || !q.usable {
			q.sims[row] = math.NaN()
			continue
		}
		best := 0.0
		for _, sv := range seedVecs {
			if s := artifact.Dot(v, sv); s > best {
				best = s
			}
		}
		q.sims[row] = math.Min(best, 1)
	}
	return q
}

// Usable 判断本次查询是否产生了相似度。
func (q *Query) Usable() bool { return q != nil && q.usable }

// Sim 返回候选到种子的相似度；通道缺失或物品无向量时返回 false。
func (q *Query) Sim(id int64) (float64, bool) {
	if !q.Usable() {
		return 0, false
	}
	row, ok := q.Channel.Emb.Index.Row(id)
	if !ok || math.IsNaN(q.sims[row]) {
		return 0, false
	}
	return q.sims[row], true
}

// Map 返回相似度达到 MinSim 的物品，不含种子。
func (q *Query) Map() map[int64]float64 {
	out := make(map[int64]float64)
	if !q.Usable() {
		return out
	}
	idx := q.Channel.Emb.Index
	for row, s := range q.sims {
		id := idx.ID(row)
		if math.IsNaN(s) || s < q.Channel.Spec.MinSim || q.seeds.Has(id) {
			continue
		}
		out[id] = s
	}
	return out
}

// TopK 返回相似度不低于 floor 的前 k 个近邻，按 (-sim, id) 排序，不含种子与被排除的物品。
func (q *Query) TopK(k int, floor float64, exclude func(int64) bool) []Neighbor {
	if !q.Usable() || k <= 0 {
		return nil
	}
	idx := q.Channel.Emb.Index
	h := make(neighborHeap, 0, k)
	for row, s := range q.sims {
		if math.IsNaN(s) || s < floor {
			continue
		}
		id := idx.ID(row)
		if q.seeds.Has(id) || (exclude != nil && exclude(id)) {
			continue
		}
		nb := Neighbor{ID: id, Sim: s}
		if len(h) < k {
			heap.Push(&h, nb)
			continue
		}
		if better(nb, h[0]) {
			h[0] = nb
			heap.Fix(&h, 0)
		}
	}
	out := make([]Neighbor, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(Neighbor)
	}
	return out
}

// better 按 (-sim, id) 比较：相似度更高或相同相似度下 id 更小者更好。
func better(a, b Neighbor) bool {
	if a.Sim != b.Sim {
		return a.Sim > b.Sim
	}
	return a.ID < b.ID
}

// neighborHeap 是以“最差”元素为堆顶的小顶堆，用于部分 top-K。
type neighborHeap []Neighbor

func (h neighborHeap) Len() int           { return len(h) }
func (h neighborHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h neighborHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *neighborHeap) Push(x any)        { *h = append(*h, x.(Neighbor)) }
func (h *neighborHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
