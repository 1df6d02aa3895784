package filter

import (
	"math"
	"testing"

	"github.com/rushteam/seedrank/core"
)

func pool(n int, sim, overlap, coverage float64) []*core.Candidate {
	out := make([]*core.Candidate, n)
	for i := range out {
		c := &core.Candidate{ID: int64(i + 1)}
		c.Signals.Synopsis[core.ChannelNeural] = sim
		c.Signals.GenreOverlap = overlap
		c.Signals.SeedCoverage = coverage
		out[i] = c
	}
	return out
}

func TestConfidence(t *testing.T) {
	cfg := DefaultConfidenceConfig()
	tests := []struct {
		name      string
		pool      []*core.Candidate
		channel   core.ChannelKind
		wantScore float64
		wantTier  core.ConfidenceTier
	}{
		{"empty", nil, core.ChannelNeural, 0, core.ConfidenceNone},
		{"strong and coherent", pool(10, 0.55, 1, 1), core.ChannelNeural, 1, core.ConfidenceHigh},
		{"thin support", pool(5, 0.55, 1, 1), core.ChannelNeural, 0.5, core.ConfidenceMedium},
		{"only coherence", pool(10, 0, 0.3, 0.3), core.ChannelNeural, 0.5 * (0.3 + 0.3 + 1) / 3, core.ConfidenceLow},
		{"no signal", pool(10, 0, 0, 0), core.ChannelNeural, 0, core.ConfidenceNone},
		{"no channel uses coherence only", pool(10, 0.9, 1, 1), core.ChannelNone, 0.5, core.ConfidenceMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, tier := Confidence(cfg, tt.pool, tt.channel, 0.55)
			if math.Abs(score-tt.wantScore) > 1e-9 {
				t.Errorf("score = %v, want %v", score, tt.wantScore)
			}
			if tier != tt.wantTier {
				t.Errorf("tier = %s, want %s", tier, tt.wantTier)
			}
		})
	}
}

func TestConfidence_TopNOnly(t *testing.T) {
	cfg := DefaultConfidenceConfig()
	cfg.TopN = 10
	// 前 10 个强信号，后面的噪声不参与
	p := append(pool(10, 0.55, 1, 1), pool(40, 0, 0, 0)...)
	score, tier := Confidence(cfg, p, core.ChannelNeural, 0.55)
	if math.Abs(score-1) > 1e-9 || tier != core.ConfidenceHigh {
		t.Errorf("Confidence() = %v, %s", score, tier)
	}
}

func TestConfidenceConfig_TierAndShare(t *testing.T) {
	cfg := DefaultConfidenceConfig()
	tests := []struct {
		score float64
		tier  core.ConfidenceTier
		share float64
	}{
		{0, core.ConfidenceNone, 0},
		{0.1, core.ConfidenceLow, 0.2},
		{0.3, core.ConfidenceMedium, 0.4},
		{0.6, core.ConfidenceHigh, 0.5},
	}
	for _, tt := range tests {
		if got := cfg.Tier(tt.score); got != tt.tier {
			t.Errorf("Tier(%v) = %s, want %s", tt.score, got, tt.tier)
		}
		if got := cfg.Share(tt.tier); got != tt.share {
			t.Errorf("Share(%s) = %v, want %v", tt.tier, got, tt.share)
		}
	}
}
