package engine

import (
	"bytes"
	"context"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rushteam/seedrank/artifact"
	"github.com/rushteam/seedrank/config"
	"github.com/rushteam/seedrank/core"
	"github.com/rushteam/seedrank/internal/testdata"
	"github.com/rushteam/seedrank/recall"
)

func newEngine(t *testing.T, cfg *config.Config, snap *artifact.Snapshot) *Engine {
	t.Helper()
	e, err := New(cfg, snap, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func recommend(t *testing.T, e *Engine, rctx *core.RecommendContext) *core.Response {
	t.Helper()
	resp, err := e.Recommend(context.Background(), rctx)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	return resp
}

func checkOrdered(t *testing.T, results []core.ScoredResult) {
	t.Helper()
	for i := 1; i < len(results); i++ {
		a, b := results[i-1], results[i]
		if a.Score < b.Score || (a.Score == b.Score && a.ItemID >= b.ItemID) {
			t.Errorf("results out of order at %d: %+v then %+v", i, a, b)
		}
	}
}

func TestEngine_SeedScenario(t *testing.T) {
	e := newEngine(t, nil, testdata.Snapshot(t))
	resp := recommend(t, e, &core.RecommendContext{Seeds: []int64{testdata.FMAB}})

	if resp.RequestID == "" {
		t.Error("expected generated request id")
	}
	if len(resp.Results) == 0 {
		t.Fatal("expected results")
	}
	checkOrdered(t, resp.Results)

	pos := make(map[int64]int)
	for i, r := range resp.Results {
		if r.ItemID == testdata.FMAB {
			t.Fatal("seed returned")
		}
		if s := r.Explanation.Shares.Sum(); s != 0 && math.Abs(s-1) > 1e-6 {
			t.Errorf("item %d shares sum = %v", r.ItemID, s)
		}
		pos[r.ItemID] = i
	}
	hxh, ok := pos[testdata.HxH]
	if !ok {
		t.Fatal("Hunter x Hunter missing")
	}
	if yn, ok := pos[testdata.YourName]; ok && yn < hxh {
		t.Errorf("Your Name (%d) ranked above Hunter x Hunter (%d)", yn, hxh)
	}
	if resp.Personalization.Reason != core.ReasonDisabled {
		t.Errorf("personalization = %+v, want disabled", resp.Personalization)
	}
	if resp.Diagnostics == nil || resp.Diagnostics.Pool.Total == 0 {
		t.Errorf("diagnostics = %+v", resp.Diagnostics)
	}
}

func TestEngine_FranchiseScenario(t *testing.T) {
	e := newEngine(t, nil, testdata.FranchiseSnapshot(t))
	franchise := core.NewIDSet(testdata.FranchiseIDs()...)
	count := func(results []core.ScoredResult) int {
		n := 0
		for _, r := range results {
			if franchise.Has(r.ItemID) {
				n++
			}
		}
		return n
	}

	resp := recommend(t, e, &core.RecommendContext{Seeds: []int64{testdata.AoT}, TopN: 20, Mode: core.ModeDiscovery})
	if len(resp.Results) > 20 {
		t.Fatalf("len = %d, want <= 20", len(resp.Results))
	}
	if got := count(resp.Results); got > 6 {
		t.Errorf("discovery top-20 has %d franchise items", got)
	}
	if len(resp.Diagnostics.Franchise.ItemsDropped) == 0 {
		t.Error("expected franchise_items_dropped to be recorded")
	}

	resp = recommend(t, e, &core.RecommendContext{Seeds: []int64{testdata.AoT}, TopN: 20, Mode: core.ModeCompletion})
	if got := count(resp.Results); got <= 6 {
		t.Errorf("completion top-20 has %d franchise items, want more than 6", got)
	}
	if len(resp.Diagnostics.Franchise.ItemsDropped) != 0 {
		t.Error("completion must not drop items")
	}
}

func TestEngine_AllWatched(t *testing.T) {
	e := newEngine(t, nil, testdata.Snapshot(t))
	watched := []int64{2, 3, 4, 5, 6, 7, 8, 9, 10}
	resp, err := e.Recommend(context.Background(), &core.RecommendContext{Seeds: []int64{testdata.FMAB}, WatchedIDs: watched})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("results = %v, want empty", resp.Results)
	}
}

func TestEngine_Exclusions(t *testing.T) {
	cfg := config.Default()
	cfg.Hygiene.Rules = append(cfg.Hygiene.Rules, `item.title == "K-On!"`)
	cfg.Hygiene.Blacklist = []int64{9}
	e := newEngine(t, cfg, testdata.Snapshot(t))

	rctx := &core.RecommendContext{
		Seeds:      []int64{testdata.FMAB, testdata.FMAB},
		WatchedIDs: []int64{testdata.HxH},
		ExcludeIDs: []int64{testdata.SteinsGate},
		TopN:       50,
	}
	resp := recommend(t, e, rctx)
	banned := core.NewIDSet(testdata.FMAB, testdata.HxH, testdata.SteinsGate, 7, 9)
	for _, r := range resp.Results {
		if banned.Has(r.ItemID) {
			t.Errorf("excluded id %d returned", r.ItemID)
		}
	}
	if len(rctx.Seeds) != 1 {
		t.Errorf("duplicate seeds not collapsed: %v", rctx.Seeds)
	}
	if !e.Snapshot().Hygiene.Has(7) || !e.Snapshot().Hygiene.Has(9) {
		t.Error("hygiene set must include rule hits and blacklist")
	}
}

func TestEngine_Idempotent(t *testing.T) {
	e := newEngine(t, nil, testdata.Snapshot(t))
	req := func() *core.RecommendContext {
		return &core.RecommendContext{
			RequestID: "fixed",
			Seeds:     []int64{testdata.FMAB, testdata.SteinsGate},
			TopN:      5,
		}
	}
	first := recommend(t, e, req())
	if len(first.Results) > 5 {
		t.Errorf("len = %d, want <= 5", len(first.Results))
	}
	for i := 0; i < 5; i++ {
		again := recommend(t, e, req())
		if !reflect.DeepEqual(first.Results, again.Results) {
			t.Fatalf("run %d differs:\n%v\n%v", i, first.Results, again.Results)
		}
	}
}

func TestEngine_Personalization(t *testing.T) {
	snap := testdata.Snapshot(t)
	e := newEngine(t, nil, snap)
	base := func(s float64, vec []float64) *core.RecommendContext {
		return &core.RecommendContext{
			Seeds:                   []int64{testdata.FMAB},
			TopN:                    5,
			PersonalizationStrength: s,
			UserVector:              vec,
		}
	}

	t.Run("strength one equals personalized", func(t *testing.T) {
		rctx := base(1, testdata.TasteVector())
		resp := recommend(t, e, rctx)
		if !resp.Personalization.Available {
			t.Fatalf("personalization = %+v", resp.Personalization)
		}
		want, _ := recall.Personal(e.Snapshot(), rctx, e.Config().Stage2.Blend)
		if !reflect.DeepEqual(resp.Results, want) {
			t.Errorf("results = %v\nwant %v", resp.Results, want)
		}
	})

	t.Run("strength zero equals seed", func(t *testing.T) {
		seed := recommend(t, e, base(0, nil))
		zero := recommend(t, e, base(0, testdata.TasteVector()))
		if !reflect.DeepEqual(seed.Results, zero.Results) {
			t.Errorf("strength 0 = %v\nwant %v", zero.Results, seed.Results)
		}
	})

	t.Run("mid strength blends", func(t *testing.T) {
		rctx := base(0.5, testdata.TasteVector())
		resp := recommend(t, e, rctx)
		if !resp.Personalization.Available || rctx.EffectiveStrength != 0.5 {
			t.Errorf("personalization = %+v, effective = %v", resp.Personalization, rctx.EffectiveStrength)
		}
		if len(resp.Results) == 0 || len(resp.Results) > 5 {
			t.Errorf("len = %d", len(resp.Results))
		}
		checkOrdered(t, resp.Results)
		for _, r := range resp.Results {
			if r.ItemID == testdata.FMAB {
				t.Error("seed returned")
			}
		}
	})

	tests := []struct {
		name   string
		vec    []float64
		reason string
	}{
		{"no profile", nil, core.ReasonNoProfile},
		{"dimension mismatch", []float64{1, 2, 3}, core.ReasonDimensionMismatch},
		{"zero norm", []float64{0, 0}, core.ReasonZeroNorm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rctx := base(0.7, tt.vec)
			resp := recommend(t, e, rctx)
			if resp.Personalization.Available || resp.Personalization.Reason != tt.reason {
				t.Errorf("personalization = %+v, want reason %s", resp.Personalization, tt.reason)
			}
			if rctx.EffectiveStrength != 0 {
				t.Errorf("effective strength = %v", rctx.EffectiveStrength)
			}
			if len(resp.Results) == 0 {
				t.Error("seed ranking must still work")
			}
		})
	}
}

func TestEngine_InvalidRequest(t *testing.T) {
	e := newEngine(t, nil, testdata.Snapshot(t))
	tests := []struct {
		name string
		rctx *core.RecommendContext
	}{
		{"nil", nil},
		{"no seeds", &core.RecommendContext{}},
		{"too many seeds", &core.RecommendContext{Seeds: []int64{1, 2, 3, 4, 5, 6}}},
		{"unknown seed", &core.RecommendContext{Seeds: []int64{999}}},
		{"strength above one", &core.RecommendContext{Seeds: []int64{1}, PersonalizationStrength: 1.5}},
		{"strength nan", &core.RecommendContext{Seeds: []int64{1}, PersonalizationStrength: math.NaN()}},
		{"negative top n", &core.RecommendContext{Seeds: []int64{1}, TopN: -1}},
		{"bad mode", &core.RecommendContext{Seeds: []int64{1}, Mode: "random"}},
		{"bad quality mode", &core.RecommendContext{Seeds: []int64{1}, QualityFactorMode: "cubic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Recommend(context.Background(), tt.rctx)
			if !core.IsInvalidInput(err) {
				t.Errorf("Recommend() error = %v, want invalid input", err)
			}
		})
	}
}

func TestEngine_TopNDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Request.DefaultTopN = 2
	cfg.Request.MaxTopN = 4
	e := newEngine(t, cfg, testdata.Snapshot(t))

	rctx := &core.RecommendContext{Seeds: []int64{testdata.FMAB}}
	if resp := recommend(t, e, rctx); len(resp.Results) > 2 || rctx.TopN != 2 {
		t.Errorf("default top_n: len = %d, TopN = %d", len(resp.Results), rctx.TopN)
	}
	rctx = &core.RecommendContext{Seeds: []int64{testdata.FMAB}, TopN: 100}
	if resp := recommend(t, e, rctx); len(resp.Results) > 4 || rctx.TopN != 4 {
		t.Errorf("max top_n: len = %d, TopN = %d", len(resp.Results), rctx.TopN)
	}
}

func TestEngine_Swap(t *testing.T) {
	e := newEngine(t, nil, testdata.SnapshotWith(t, testdata.Options{NoEmbeddings: true}))
	before := recommend(t, e, &core.RecommendContext{Seeds: []int64{testdata.FMAB}})
	if before.Diagnostics.Shortlist.ConfidenceTier == core.ConfidenceHigh {
		t.Error("no embeddings should not give high confidence")
	}

	if err := e.Swap(nil); !core.IsArtifactContractViolation(err) {
		t.Errorf("Swap(nil) error = %v", err)
	}
	next := testdata.Snapshot(t)
	if err := e.Swap(next); err != nil {
		t.Fatalf("Swap() error = %v", err)
	}
	if e.Snapshot().Catalog != next.Catalog || e.Snapshot().Hygiene == nil {
		t.Error("swapped snapshot not published with hygiene")
	}
	recommend(t, e, &core.RecommendContext{Seeds: []int64{testdata.FMAB}})
}

func TestNew_Errors(t *testing.T) {
	snap := testdata.Snapshot(t)
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		snap   *artifact.Snapshot
	}{
		{"invalid config", func(c *config.Config) { c.Request.MaxSeeds = 0 }, snap},
		{"bad hygiene rule", func(c *config.Config) { c.Hygiene.Rules = []string{"item.year +"} }, snap},
		{"missing pipeline file", func(c *config.Config) { c.PipelineFile = "/nonexistent/pipeline.yaml" }, snap},
		{"nil snapshot", func(*config.Config) {}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			if _, err := New(cfg, tt.snap, zerolog.Nop()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEngine_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggingConfig{Level: "debug"}, &buf)
	e, err := New(nil, testdata.Snapshot(t), logger)
	if err != nil {
		t.Fatal(err)
	}
	recommend(t, e, &core.RecommendContext{RequestID: "req-1", Seeds: []int64{testdata.FMAB}})
	out := buf.String()
	for _, want := range []string{`"request_id":"req-1"`, `"message":"recommendation complete"`, `"component":"seedrank"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s", want)
		}
	}
}
