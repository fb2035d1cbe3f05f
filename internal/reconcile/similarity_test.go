package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b     string
		min, max float64
	}{
		{"GITHUB", "github", 1, 1},
		{"Adobe *Creative Cloud", "adobe creative cloud", 1, 1},
		{"SQ *BLUE BOTTLE COFFEE 0042", "blue bottle coffee", containmentScore, containmentScore},
		{"AMAZON MKTPLACE PMTS", "Amazon Marketplace", 0.55, 0.65},
		{"UBER TRIP", "Office rent", 0, 0.3},
		{"", "anything", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			got := similarity(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
			assert.InDelta(t, got, similarity(tt.b, tt.a), 1e-12)
		})
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "pos 1234 acme co", normalizeText("  POS#1234  ACME, Co. "))
}
