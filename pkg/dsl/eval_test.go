package dsl

import (
	"testing"

	"github.com/rushteam/seedrank/catalog"
	"github.com/rushteam/seedrank/core"
)

func TestHygieneRules_Excluded(t *testing.T) {
	cat, err := catalog.New([]core.CatalogItem{
		{ID: 1, Title: "Fullmetal Alchemist: Brotherhood", Type: "TV", Year: 2009, Genres: []string{"Action"}},
		{ID: 2, Title: "Some Music Video", Type: "Music", Year: 2015},
		{ID: 3, Title: "Old Short", Type: "TV", Year: 1960},
		{ID: 4, Title: "Adult Title", Type: "OVA", Year: 2001, Genres: []string{"Hentai"}},
		{ID: 5, Title: "Unknown Year", Type: "TV"},
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		exprs []string
		want  []int64
	}{
		{"no rules", nil, nil},
		{"type", []string{`item.type == "Music"`}, []int64{2}},
		{"genre membership", []string{`"Hentai" in item.genres`}, []int64{4}},
		{"year with missing guard", []string{`item.year > 0 && item.year < 1970`}, []int64{3}},
		{"any rule", []string{`item.type == "Music"`, `"Hentai" in item.genres`}, []int64{2, 4}},
		{"title", []string{`item.title.contains("Video")`}, []int64{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := Compile(tt.exprs)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			got := rules.Excluded(cat).Sorted()
			if len(got) != len(tt.want) {
				t.Fatalf("Excluded() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Excluded()[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"syntax", `item.type ==`},
		{"non bool", `"abc"`},
		{"unknown variable", `user.id == 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compile([]string{tt.expr}); err == nil {
				t.Errorf("Compile(%q) expected error", tt.expr)
			}
		})
	}
}

func TestHygieneRules_Match(t *testing.T) {
	rules, err := Compile([]string{`item.episodes > 0 && item.episodes <= 1 && item.type == "TV"`})
	if err != nil {
		t.Fatal(err)
	}
	if expr, ok := rules.Match(&core.CatalogItem{ID: 9, Type: "TV", Episodes: 1}); !ok || expr == "" {
		t.Errorf("Match() = %q, %v", expr, ok)
	}
	if _, ok := rules.Match(&core.CatalogItem{ID: 9, Type: "TV"}); ok {
		t.Error("unknown episodes must not match")
	}
	var empty *HygieneRules
	if _, ok := empty.Match(&core.CatalogItem{}); ok {
		t.Error("nil rules must not match")
	}
}
