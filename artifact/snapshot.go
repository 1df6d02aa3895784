package artifact

import (
	"math"
	"sync/atomic"

	"github.com/rushteam/seedrank/blend"
	"github.com/rushteam/seedrank/catalog"
	"github.com/rushteam/seedrank/core"
)

// Bundle 是装载快照所需的原始产物，除 Catalog 外均可缺失。
type Bundle struct {
	MF           *MF
	Neighborhood *Neighborhood
	Embeddings   [core.NumChannels]*Embedding
	Version      string
}

// Snapshot 是一次装载得到的全部只读产物：目录、数值产物、语义向量与派生数据。
// 请求只持有 Snapshot 指针，刷新通过 Holder 原子替换。
type Snapshot struct {
	Catalog      *catalog.Catalog
	MF           *MF
	Neighborhood *Neighborhood
	Embeddings   [core.NumChannels]*Embedding
	Blender      *blend.ScoreBlender
	Hygiene      core.IDSet
	Version      string

	// percentile 按目录位置对齐，NaN 表示缺失
	percentile []float64
}

// NewSnapshot 校验跨产物一致性并派生 Blender 与人气百分位。
func NewSnapshot(cat *catalog.Catalog, b Bundle) (*Snapshot, error) {
	if cat == nil || cat.Len() == 0 {
		return nil, core.ArtifactViolation("snapshot: empty catalog")
	}
	if b.MF != nil && !overlaps(cat, b.MF.Index) {
		return nil, core.ArtifactViolation("snapshot: mf index shares no ids with catalog")
	}
	if b.Neighborhood != nil && !overlaps(cat, b.Neighborhood.Index) {
		return nil, core.ArtifactViolation("snapshot: neighborhood index shares no ids with catalog")
	}
	for k, e := range b.Embeddings {
		if e != nil && !overlaps(cat, e.Index) {
			return nil, core.ArtifactViolation("snapshot: %s embedding shares no ids with catalog", core.ChannelKind(k))
		}
	}

	s := &Snapshot{
		Catalog:      cat,
		MF:           b.MF,
		Neighborhood: b.Neighborhood,
		Embeddings:   b.Embeddings,
		Version:      b.Version,
	}

	ids := cat.IDs()
	s.percentile = make([]float64, len(ids))
	for pos, id := range ids {
		p, ok := math.NaN(), false
		if s.Neighborhood != nil {
			p, ok = s.Neighborhood.Percentile(id)
		} else {
			p, ok = cat.MembersPercentile(pos)
		}
		if !ok {
			p = math.NaN()
		}
		s.percentile[pos] = p
	}

	comps := blend.Components{IDs: ids}
	if s.MF != nil {
		comps.MF = align(ids, s.MF.Index, s.MF.DemoRow())
	}
	if s.Neighborhood != nil && s.Neighborhood.DemoRow() != nil {
		comps.Neighborhood = align(ids, s.Neighborhood.Index, s.Neighborhood.DemoRow())
	}
	comps.Popularity = make([]float64, len(ids))
	for pos, p := range s.percentile {
		comps.Popularity[pos] = 1 - p
	}
	s.Blender = blend.NewScoreBlender(comps)
	return s, nil
}

func overlaps(cat *catalog.Catalog, index *IndexMap) bool {
	for _, id := range index.IDs() {
		if _, ok := cat.Pos(id); ok {
			return true
		}
	}
	return false
}

// align 把按产物行序排列的向量对齐到目录顺序，缺失物品为 NaN。
func align(ids []int64, index *IndexMap, row []float64) []float64 {
	out := make([]float64, len(ids))
	for pos, id := range ids {
		r, ok := index.Row(id)
		if !ok {
			out[pos] = math.NaN()
			continue
		}
		out[pos] = row[r]
	}
	return out
}

// WithHygiene 返回带卫生排除集合的浅拷贝。
func (s *Snapshot) WithHygiene(ids core.IDSet) *Snapshot {
	cp := *s
	cp.Hygiene = ids
	return &cp
}

// Percentile 返回物品人气百分位（0 = 最热门）。
func (s *Snapshot) Percentile(id int64) (float64, bool) {
	pos, ok := s.Catalog.Pos(id)
	if !ok || math.IsNaN(s.percentile[pos]) {
		return 0, false
	}
	return s.percentile[pos], true
}

// Embedding 返回通道向量，缺失时为 nil。
func (s *Snapshot) Embedding(kind core.ChannelKind) *Embedding {
	if kind < 0 || int(kind) >= core.NumChannels {
		return nil
	}
	return s.Embeddings[kind]
}

// UserScores 用口味向量计算按目录顺序对齐的个性化 MF 分数。
func (s *Snapshot) UserScores(vec []float64) ([]float64, core.PersonalizationStatus) {
	if s.MF == nil {
		return nil, core.PersonalizationStatus{Reason: core.ReasonNoModel}
	}
	raw, status := s.MF.UserScores(vec)
	if !status.Available {
		return nil, status
	}
	return align(s.Catalog.IDs(), s.MF.Index, raw), status
}

// PersonalBlender 返回 MF 分量替换为 s·personal + (1-s)·meanUser（原始分数空间）的 Blender。
// strength = 1 时即纯个性化 Blender。
func (s *Snapshot) PersonalBlender(vec []float64, strength float64) (*blend.ScoreBlender, core.PersonalizationStatus) {
	personal, status := s.UserScores(vec)
	if !status.Available {
		return s.Blender, status
	}
	mean := align(s.Catalog.IDs(), s.MF.Index, s.MF.DemoRow())
	mixed := make([]float64, len(personal))
	for i := range personal {
		mixed[i] = strength*personal[i] + (1-strength)*mean[i]
	}
	status.Strength = strength
	return s.Blender.WithMF(mixed), status
}

// Holder 通过原子指针发布快照：刷新时整体替换，进行中的请求继续使用旧快照。
type Holder struct {
	p atomic.Pointer[Snapshot]
}

// NewHolder 创建持有初始快照的 Holder。
func NewHolder(s *Snapshot) *Holder {
	h := &Holder{}
	h.p.Store(s)
	return h
}

func (h *Holder) Load() *Snapshot { return h.p.Load() }

// Store 替换当前快照，返回旧快照。
func (h *Holder) Store(s *Snapshot) *Snapshot { return h.p.Swap(s) }
