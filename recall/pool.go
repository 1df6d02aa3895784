package recall

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/seedrank/artifact"
	"github.com/rushteam/seedrank/core"
	"github.com/rushteam/seedrank/feature"
	"github.com/rushteam/seedrank/pipeline"
	"github.com/rushteam/seedrank/pkg/utils"
	"github.com/rushteam/seedrank/semantic"
)

// PoolConfig 是 Stage0 的容量与门限。
type PoolConfig struct {
	NeuralK     int     `koanf:"neural_k" yaml:"neural_k" json:"neural_k" validate:"gte=0"`
	PopularityK int     `koanf:"popularity_k" yaml:"popularity_k" json:"popularity_k" validate:"gte=0"`
	Cap         int     `koanf:"cap" yaml:"cap" json:"cap" validate:"gt=0"`
	GenreFloor  float64 `koanf:"genre_floor" yaml:"genre_floor" json:"genre_floor" validate:"gte=0,lte=1"`
	ThemeFloor  float64 `koanf:"theme_floor" yaml:"theme_floor" json:"theme_floor" validate:"gte=0,lte=1"`
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		NeuralK:     1500,
		PopularityK: 100,
		Cap:         2000,
		GenreFloor:  0.5,
		ThemeFloor:  0.5,
	}
}

// PoolNode 是 Stage0 Recall Node：并发计算三个召回层，按 神经 → 元数据 → 人气 的
// 固定优先级合并去重并截断到 Cap。同时为候选填充各通道相似度，并确定本次请求的准入通道。
type PoolNode struct {
	Snap     *artifact.Snapshot
	Channels *semantic.Set
	Config   PoolConfig
}

func (n *PoolNode) Name() string        { return "recall.pool" }
func (n *PoolNode) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *PoolNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	sims, err := n.Channels.Compute(ctx, rctx.Seeds)
	if err != nil {
		return nil, err
	}
	rctx.AdmissionChannel = sims.Primary()

	seeds := feature.SeedEntries(n.Snap.Catalog, rctx.Seeds)
	profile := feature.NewSeedProfile(seeds, feature.DefaultGateConfig().LongFormMinEpisodes)

	var sources [numTiers]Source
	if q := sims.Query(core.ChannelNeural); q.Usable() {
		sources[TierNeural] = &NeuralSource{Query: q, K: n.Config.NeuralK}
	}
	if len(seeds) > 0 {
		sources[TierMetaStrict] = &MetaStrictSource{
			Snap:       n.Snap,
			Profile:    profile,
			GenreFloor: n.Config.GenreFloor,
			ThemeFloor: n.Config.ThemeFloor,
		}
	}
	sources[TierPopularity] = &PopularitySource{Snap: n.Snap, K: n.Config.PopularityK}

	var lists [numTiers][]int64
	eg, egCtx := errgroup.WithContext(ctx)
	for t, src := range sources {
		if src == nil {
			continue
		}
		t, src := t, src
		eg.Go(func() error {
			ids, err := src.Recall(egCtx, rctx)
			if err != nil {
				return err
			}
			lists[t] = ids
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := n.merge(lists, sources)
	n.fillSimilarity(out, sims)
	n.record(rctx.Diag(), lists, out)
	return out, nil
}

// merge 依次追加 A、B、C 三层并去重，同一物品合并来源标记，达到 Cap 后停止。
func (n *PoolNode) merge(lists [numTiers][]int64, sources [numTiers]Source) []*core.Candidate {
	byID := make(map[int64]*core.Candidate)
	out := make([]*core.Candidate, 0, n.Config.Cap)
	for t, ids := range lists {
		for _, id := range ids {
			c, seen := byID[id]
			if !seen {
				if len(out) >= n.Config.Cap {
					continue
				}
				item, ok := n.Snap.Catalog.Item(id)
				if !ok {
					continue
				}
				c = core.NewCandidate(item)
				byID[id] = c
				out = append(out, c)
			}
			switch Tier(t) {
			case TierNeural:
				c.Provenance.FromNeural = true
			case TierMetaStrict:
				c.Provenance.FromMetaStrict = true
			case TierPopularity:
				c.Provenance.FromPopularity = true
			}
			c.PutLabel("recall_source", utils.Label{Value: sources[t].Name(), Source: "recall"})
		}
	}
	return out
}

func (n *PoolNode) fillSimilarity(items []*core.Candidate, sims *semantic.Result) {
	for _, c := range items {
		for k := 0; k < core.NumChannels; k++ {
			kind := core.ChannelKind(k)
			s, ok := sims.Query(kind).Sim(c.ID)
			if !ok {
				continue
			}
			if kind == core.ChannelNeural {
				c.NeuralSim = s
			}
			c.Signals.Synopsis[k] = s
			c.Signals.HasSynopsis[k] = s >= n.Channels.Channel(kind).Spec.MinSim
		}
	}
}

func (n *PoolNode) record(d *core.Diagnostics, lists [numTiers][]int64, out []*core.Candidate) {
	d.Pool.Raw = core.TierCounts{
		Neural:     len(lists[TierNeural]),
		MetaStrict: len(lists[TierMetaStrict]),
		Popularity: len(lists[TierPopularity]),
	}
	var post core.TierCounts
	for _, c := range out {
		if c.Provenance.FromNeural {
			post.Neural++
		}
		if c.Provenance.FromMetaStrict {
			post.MetaStrict++
		}
		if c.Provenance.FromPopularity {
			post.Popularity++
		}
	}
	d.Pool.PostCap = post
	d.Pool.OverlapNeuralMeta = overlap(lists[TierNeural], lists[TierMetaStrict])
	d.Pool.OverlapNeuralPopularity = overlap(lists[TierNeural], lists[TierPopularity])
	d.Pool.OverlapMetaPopularity = overlap(lists[TierMetaStrict], lists[TierPopularity])
	d.Pool.Total = len(out)
	d.Pool.Cap = n.Config.Cap
}

func overlap(a, b []int64) int {
	set := core.NewIDSet(a...)
	cnt := 0
	for _, id := range b {
		if set.Has(id) {
			cnt++
		}
	}
	return cnt
}
