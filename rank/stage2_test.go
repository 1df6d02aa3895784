package rank

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/seedrank/artifact"
	"github.com/rushteam/seedrank/core"
	"github.com/rushteam/seedrank/filter"
	"github.com/rushteam/seedrank/internal/testdata"
	"github.com/rushteam/seedrank/pipeline"
	"github.com/rushteam/seedrank/recall"
	"github.com/rushteam/seedrank/semantic"
)

func run(t *testing.T, snap *artifact.Snapshot, rctx *core.RecommendContext, cfg Config) []*core.Candidate {
	t.Helper()
	specs := semantic.DefaultSpecs()
	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.PoolNode{Snap: snap, Channels: semantic.NewSet(snap, specs), Config: recall.DefaultPoolConfig()},
		&filter.ShortlistNode{Snap: snap, Specs: specs, Config: filter.DefaultShortlistConfig()},
		&Stage2Node{Snap: snap, Specs: specs, Config: cfg},
	}}
	out, err := p.Run(context.Background(), rctx, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return out
}

func TestStage2Node_Process(t *testing.T) {
	snap := testdata.Snapshot(t)
	rctx := &core.RecommendContext{Seeds: []int64{testdata.FMAB}}
	out := run(t, snap, rctx, DefaultConfig())

	if len(out) == 0 {
		t.Fatal("expected results")
	}
	pos := make(map[int64]int)
	for i, c := range out {
		if c.ID == testdata.FMAB {
			t.Fatal("seed must not be ranked")
		}
		if c.Score <= 0 {
			t.Errorf("non-positive score %v for %d", c.Score, c.ID)
		}
		if i > 0 {
			prev := out[i-1]
			if prev.Score < c.Score || (prev.Score == c.Score && prev.ID > c.ID) {
				t.Errorf("out of order at %d", i)
			}
		}
		if s := c.Explanation.Shares.Sum(); s != 0 && math.Abs(s-1) > 1e-6 {
			t.Errorf("item %d shares sum = %v", c.ID, s)
		}
		// 分量贡献之和即混合分数
		comp := 0.0
		for _, v := range c.Explanation.Components {
			comp += v
		}
		if math.Abs(comp-c.CF.Hybrid) > 1e-9 {
			t.Errorf("item %d components %v do not sum to hybrid %v", c.ID, c.Explanation.Components, c.CF.Hybrid)
		}
		if c.CF.State != core.CFAbsent && len(c.Explanation.Components) == 0 {
			t.Errorf("item %d: missing blender components", c.ID)
		}
		pos[c.ID] = i
	}

	hxh, ok1 := pos[testdata.HxH]
	yn, ok2 := pos[testdata.YourName]
	if !ok1 {
		t.Fatal("Hunter x Hunter missing from results")
	}
	if ok2 && hxh > yn {
		t.Errorf("Hunter x Hunter (%d) must outrank Your Name (%d)", hxh, yn)
	}

	d := rctx.Diag().Rank
	if d.Scored < len(out) || d.Scored-d.DroppedNonPositive != len(out) {
		t.Errorf("rank diagnostics = %+v, results = %d", d, len(out))
	}
}

func TestStage2Node_Deterministic(t *testing.T) {
	snap := testdata.Snapshot(t)
	first := run(t, snap, &core.RecommendContext{Seeds: []int64{testdata.FMAB, testdata.SteinsGate}}, DefaultConfig())
	for i := 0; i < 5; i++ {
		again := run(t, snap, &core.RecommendContext{Seeds: []int64{testdata.FMAB, testdata.SteinsGate}}, DefaultConfig())
		if len(again) != len(first) {
			t.Fatalf("run %d: len = %d, want %d", i, len(again), len(first))
		}
		for j := range first {
			if again[j].ID != first[j].ID || again[j].Score != first[j].Score {
				t.Fatalf("run %d: result %d = (%d, %v), want (%d, %v)",
					i, j, again[j].ID, again[j].Score, first[j].ID, first[j].Score)
			}
		}
	}
}

func TestStage2Node_NoArtifacts(t *testing.T) {
	snap := testdata.SnapshotWith(t, testdata.Options{NoMF: true, NoNeighborhood: true, NoEmbeddings: true})
	rctx := &core.RecommendContext{Seeds: []int64{testdata.FMAB}}
	out := run(t, snap, rctx, DefaultConfig())
	for _, c := range out {
		if c.CF.State == core.CFPresent {
			t.Errorf("item %d: CF state = %s without CF artifacts", c.ID, c.CF.State)
		}
		if _, ok := c.Explanation.Terms["cf"]; ok && c.CF.Hybrid == 0 {
			t.Errorf("item %d: zero cf term recorded", c.ID)
		}
	}
}

func TestStage2Node_ContentFirst(t *testing.T) {
	n := &Stage2Node{Config: DefaultConfig()}
	item := &core.CatalogItem{ID: 42, Rating: 8, HasRating: true}
	high := &core.RecommendContext{Confidence: core.ConfidenceHigh, AdmissionChannel: core.ChannelNeural}

	tests := []struct {
		name string
		rctx *core.RecommendContext
		c    *core.Candidate
		want float64
	}{
		{"absent cf", high,
			&core.Candidate{ID: 42, Item: item, NeuralSim: 0.8, CF: core.CFSignal{State: core.CFAbsent}},
			0.5*0.8 + 0.03},
		{"zero cf", high,
			&core.Candidate{ID: 42, Item: item, NeuralSim: 0.4, CF: core.CFSignal{State: core.CFZero, CFOnly: 1e-12}},
			0.5*(0.4-1e-12) + 0.03},
		{"present cf never triggers", high,
			&core.Candidate{ID: 42, Item: item, NeuralSim: 0.8, CF: core.CFSignal{State: core.CFPresent, CFOnly: 0.01}},
			0},
		{"below neural floor", high,
			&core.Candidate{ID: 42, Item: item, NeuralSim: 0.2, CF: core.CFSignal{State: core.CFAbsent}},
			0},
		{"medium confidence", &core.RecommendContext{Confidence: core.ConfidenceMedium, AdmissionChannel: core.ChannelNeural},
			&core.Candidate{ID: 42, Item: item, NeuralSim: 0.8}, 0},
		{"dense channel", &core.RecommendContext{Confidence: core.ConfidenceHigh, AdmissionChannel: core.ChannelDense},
			&core.Candidate{ID: 42, Item: item, NeuralSim: 0.8}, 0},
		{"missing rating", high,
			&core.Candidate{ID: 42, Item: &core.CatalogItem{ID: 42}, NeuralSim: 0.5}, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.contentFirst(tt.rctx, tt.c)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("contentFirst() = %v, want %v", got, tt.want)
			}
			if got < 0 {
				t.Error("content-first delta must be non-negative")
			}
		})
	}
}

func TestObscurityConfig_Penalty(t *testing.T) {
	o := DefaultConfig().Obscurity
	tests := []struct {
		name string
		it   *core.CatalogItem
		want float64
	}{
		{"nil", nil, 0},
		{"well rated popular", &core.CatalogItem{Rating: 8, HasRating: true, Members: 50_000}, 0},
		{"missing rating", &core.CatalogItem{Members: 50_000}, 0.02},
		{"low rating", &core.CatalogItem{Rating: 3, HasRating: true, Members: 50_000}, 0.04 * 3 / 6},
		{"few members", &core.CatalogItem{Rating: 8, HasRating: true, Members: 10}, 0.02},
		{"unknown members", &core.CatalogItem{Rating: 8, HasRating: true}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := o.Penalty(tt.it); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Penalty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStage2Node_PersonalBlender(t *testing.T) {
	snap := testdata.Snapshot(t)
	b, status := snap.PersonalBlender(testdata.TasteVector(), 1)
	if !status.Available {
		t.Fatalf("status = %+v", status)
	}
	specs := semantic.DefaultSpecs()
	rctx := &core.RecommendContext{Seeds: []int64{testdata.FMAB}}
	items := []*core.Candidate{}
	for _, id := range []int64{testdata.HxH, 7} {
		it, _ := snap.Catalog.Item(id)
		c := core.NewCandidate(it)
		c.Signals.GatePassed = true
		items = append(items, c)
	}
	mean := &Stage2Node{Snap: snap, Specs: specs, Config: DefaultConfig()}
	personal := &Stage2Node{Snap: snap, Blender: b, Specs: specs, Config: DefaultConfig()}

	m, _ := mean.Process(context.Background(), rctx, cloneAll(items))
	p, _ := personal.Process(context.Background(), rctx, cloneAll(items))
	cf := func(out []*core.Candidate, id int64) float64 {
		for _, c := range out {
			if c.ID == id {
				return c.CF.Hybrid
			}
		}
		return math.NaN()
	}
	// 口味向量偏好第二个隐因子，日常喜剧的 CF 分数应高于平均用户
	if !(cf(p, 7) > cf(m, 7)) {
		t.Errorf("personal cf %v, mean cf %v", cf(p, 7), cf(m, 7))
	}
}

func cloneAll(in []*core.Candidate) []*core.Candidate {
	out := make([]*core.Candidate, len(in))
	for i, c := range in {
		cp := *c
		cp.Labels = nil
		out[i] = &cp
	}
	return out
}
