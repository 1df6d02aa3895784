package feature

import (
	"math"
	"testing"

	"github.com/rushteam/seedrank/catalog"
	"github.com/rushteam/seedrank/core"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]core.CatalogItem{
		{ID: 1, Title: "Attack on Titan", Genres: []string{"Action", "Drama"}, Themes: []string{"Military"},
			Demographics: []string{"Shounen"}, Studios: []string{"Wit Studio"}, Type: "TV", Episodes: 25, Year: 2013},
		{ID: 2, Title: "Attack on Titan Season 2", Genres: []string{"Action", "Drama", "Fantasy"},
			Demographics: []string{"Shōnen"}, Studios: []string{"Wit Studio"}, Type: "TV", Episodes: 12, Year: 2017},
		{ID: 3, Title: "Attack on Titan: Lost Girls", Genres: []string{"Action"}, Type: "OVA", Episodes: 2, Year: 2017},
		{ID: 4, Title: "Your Name", Genres: []string{"Romance"}, Type: "Movie", Episodes: 1, Year: 2016},
		{ID: 5, Title: "Titan Theme Song", Type: "Music", Episodes: 1},
		{ID: 6, Title: "Unknown Format", Genres: []string{"Drama"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return cat
}

func entry(t *testing.T, cat *catalog.Catalog, id int64) *catalog.Entry {
	t.Helper()
	e, ok := cat.Entry(id)
	if !ok {
		t.Fatalf("missing entry %d", id)
	}
	return e
}

func TestSeedProfile_Overlaps(t *testing.T) {
	cat := testCatalog(t)
	p := NewSeedProfile([]*catalog.Entry{entry(t, cat, 1)}, 10)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"genre full", p.GenreOverlap(entry(t, cat, 2)), 1},
		{"genre half", p.GenreOverlap(entry(t, cat, 3)), 0.5},
		{"genre none", p.GenreOverlap(entry(t, cat, 4)), 0},
		{"coverage", p.SeedCoverage(entry(t, cat, 3)), 1},
		{"coverage none", p.SeedCoverage(entry(t, cat, 4)), 0},
		{"theme missing", p.ThemeOverlap(entry(t, cat, 2)), 0},
		{"title sequel", p.TitleOverlap(entry(t, cat, 2)), 1},
		{"title none", p.TitleOverlap(entry(t, cat, 4)), 0},
		// 制作公司 + 类型 + 年代；受众键 "shounen" 与 "shonen" 不同
		{"affinity", p.MetadataAffinity(entry(t, cat, 2)), 0.7},
		{"affinity era only", p.MetadataAffinity(entry(t, cat, 4)), 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if !p.SharesShounen(entry(t, cat, 2)) {
		t.Error("shounen and shonen spellings must match")
	}
	if p.SharesShounen(entry(t, cat, 4)) {
		t.Error("unexpected shounen match")
	}
	if !p.LongForm {
		t.Error("25-episode TV seed must be long-form")
	}
}

func TestSeedProfile_MultiSeedWeighting(t *testing.T) {
	cat := testCatalog(t)
	p := NewSeedProfile([]*catalog.Entry{entry(t, cat, 1), entry(t, cat, 3)}, 10)
	// 权重：Action=2, Drama=1，总计 3
	if got := p.GenreOverlap(entry(t, cat, 3)); math.Abs(got-2.0/3) > 1e-9 {
		t.Errorf("GenreOverlap() = %v, want 2/3", got)
	}
	if got := p.SeedCoverage(entry(t, cat, 6)); got != 0.5 {
		t.Errorf("SeedCoverage() = %v, want 0.5", got)
	}
}

func TestPhraseContained(t *testing.T) {
	cat := testCatalog(t)
	p := NewSeedProfile([]*catalog.Entry{entry(t, cat, 1)}, 10)
	if !p.PhraseContained(entry(t, cat, 3)) {
		t.Error("seed phrase must be contained in spin-off title")
	}
	if p.PhraseContained(entry(t, cat, 5)) {
		t.Error("partial phrase must not match")
	}

	short, _ := catalog.New([]core.CatalogItem{{ID: 1, Title: "K"}, {ID: 2, Title: "K Project"}})
	sp := NewSeedProfile([]*catalog.Entry{entry(t, short, 1)}, 10)
	if sp.PhraseContained(entry(t, short, 2)) {
		t.Error("seed phrases shorter than 5 characters must be ignored")
	}
}

func TestGate_Passes(t *testing.T) {
	cat := testCatalog(t)
	g := NewGate(DefaultGateConfig())
	longSeed := NewSeedProfile([]*catalog.Entry{entry(t, cat, 1)}, g.LongFormMinEpisodes())
	movieSeed := NewSeedProfile([]*catalog.Entry{entry(t, cat, 4)}, g.LongFormMinEpisodes())

	tests := []struct {
		name    string
		profile *SeedProfile
		id      int64
		want    bool
	}{
		{"tv vs long seed", longSeed, 2, true},
		{"short ova vs long seed", longSeed, 3, false},
		{"movie is never short-form", longSeed, 4, true},
		{"blocked type", longSeed, 5, false},
		{"missing type passes", longSeed, 6, true},
		{"short ova vs movie seed", movieSeed, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Passes(tt.profile, entry(t, cat, tt.id)); got != tt.want {
				t.Errorf("Passes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQualityFactor(t *testing.T) {
	tests := []struct {
		name string
		mode core.QualityFactorMode
		item *core.CatalogItem
		want float64
	}{
		{"missing rating", core.QualityLinear, &core.CatalogItem{}, 1},
		{"off", core.QualityOff, &core.CatalogItem{Rating: 3, HasRating: true}, 1},
		{"linear low", core.QualityLinear, &core.CatalogItem{Rating: 4, HasRating: true}, 0.6},
		{"linear mid", core.QualityLinear, &core.CatalogItem{Rating: 7, HasRating: true}, 0.8},
		{"linear top", core.QualityLinear, &core.CatalogItem{Rating: 9.5, HasRating: true}, 1},
		{"stepped 8", core.QualityStepped, &core.CatalogItem{Rating: 8, HasRating: true}, 1},
		{"stepped 7.5", core.QualityStepped, &core.CatalogItem{Rating: 7.5, HasRating: true}, 0.9},
		{"stepped 6", core.QualityStepped, &core.CatalogItem{Rating: 6, HasRating: true}, 0.8},
		{"stepped low", core.QualityStepped, &core.CatalogItem{Rating: 5, HasRating: true}, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QualityFactor(tt.mode, tt.item); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("QualityFactor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractor(t *testing.T) {
	cat := testCatalog(t)
	x := NewExtractor([]*catalog.Entry{entry(t, cat, 1)}, NewGate(DefaultGateConfig()))
	sig := core.Signals{Synopsis: [core.NumChannels]float64{0, 0, 0.7}}
	x.Extract(entry(t, cat, 3), &sig)
	if sig.GatePassed {
		t.Error("short OVA must fail the gate for a long-form seed")
	}
	if sig.Synopsis[core.ChannelNeural] != 0.7 {
		t.Error("Extract must keep channel similarities")
	}
	if sig.TitleOverlap != 1 {
		t.Errorf("TitleOverlap = %v, want 1", sig.TitleOverlap)
	}
}

func TestSharesShounen_WholeKey(t *testing.T) {
	seed := core.CatalogItem{ID: 1, Title: "Seed", Demographics: []string{"Shounen"}}
	tests := []struct {
		name string
		demo []string
		want bool
	}{
		{"same key", []string{"Shounen"}, true},
		{"romanized variant", []string{"Shonen"}, true},
		{"macron", []string{"Shōnen"}, true},
		{"different demographic", []string{"Seinen"}, false},
		{"compound genre", []string{"Shounen-ai"}, false},
		{"compound with space", []string{"Shounen Ai"}, false},
		{"missing", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := catalog.New([]core.CatalogItem{seed, {ID: 2, Title: "Candidate", Demographics: tt.demo}})
			if err != nil {
				t.Fatal(err)
			}
			p := NewSeedProfile([]*catalog.Entry{entry(t, cat, 1)}, 10)
			if got := p.SharesShounen(entry(t, cat, 2)); got != tt.want {
				t.Errorf("SharesShounen(%v) = %v, want %v", tt.demo, got, tt.want)
			}
		})
	}
}
