package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"Kraftwerk Nord", "KRAFTWERK NORD"},
		{"  Kraftwerk   Nord  GmbH ", "KRAFTWERK NORD"},
		{"Société Générale S.A.", "SOCIETE GENERALE"},
		{"Müller & Söhne GmbH & Co. KG", "MULLER AND SOHNE"},
		{"Sud-Chimie S.p.A.", "SUD CHIMIE"},
		{"100% Recycling_Co", "100 RECYCLING"},
		{"Iberia Cement, S.L.", "IBERIA CEMENT"},
		{"AG", "AG"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestTokenSet(t *testing.T) {
	f := TokenSet{}
	assert.InDelta(t, 1.0, f.Similarity("Kraftwerk Nord GmbH", "kraftwerk nord"), 1e-9)
	assert.InDelta(t, 1.0, f.Similarity("Nord Energie AG", "Energie Nord"), 1e-9)
	assert.InDelta(t, 1.0, f.Similarity("Nord Energie", "Kraftwerk Nord Energie AG"), 1e-9)
	assert.Less(t, f.Similarity("Kraftwerk Nord", "Usine Sud"), 0.5)
	assert.Zero(t, f.Similarity("", "Usine Sud"))
	assert.Zero(t, f.Similarity("Usine Sud", "  "))
}

func TestLevenshtein(t *testing.T) {
	f := Levenshtein{}
	assert.InDelta(t, 1.0, f.Similarity("Usine Sud SA", "usine sud"), 1e-9)
	assert.InDelta(t, 0.9, f.Similarity("Usine Sud", "Usine Sude"), 1e-9)
	assert.Less(t, f.Similarity("Nord Energie", "Energie Nord"), 1.0)
	assert.Zero(t, f.Similarity("", "x"))
}

func TestSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Kraftwerk Nord", "Nord Kraftwerk Hamburg"},
		{"Planta Este", "Planta Oeste"},
		{"Sud Chimie", "Usine Sud"},
	}
	for _, f := range []Func{TokenSet{}, Levenshtein{}} {
		for _, p := range pairs {
			ab := f.Similarity(p[0], p[1])
			ba := f.Similarity(p[1], p[0])
			assert.InDelta(t, ab, ba, 1e-9, "%T %v", f, p)
			assert.GreaterOrEqual(t, ab, 0.0)
			assert.LessOrEqual(t, ab, 1.0)
		}
	}
}

func TestByName(t *testing.T) {
	f, err := ByName("")
	require.NoError(t, err)
	assert.IsType(t, TokenSet{}, f)

	f, err = ByName("Levenshtein")
	require.NoError(t, err)
	assert.IsType(t, Levenshtein{}, f)

	_, err = ByName("soundex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown algorithm "soundex"`)
}

func TestBestMatch(t *testing.T) {
	candidates := []string{"Usine Sud", "Kraftwerk Nord", "Planta Este"}

	m, ok := BestMatch(TokenSet{}, "Kraftwerk Nord GmbH", candidates, 0.8)
	require.True(t, ok)
	assert.Equal(t, 1, m.Index)
	assert.Equal(t, "Kraftwerk Nord", m.Name)
	assert.InDelta(t, 1.0, m.Score, 1e-9)

	_, ok = BestMatch(TokenSet{}, "Something Else Entirely", candidates, 0.8)
	assert.False(t, ok)

	_, ok = BestMatch(TokenSet{}, "Kraftwerk Nord", nil, 0.8)
	assert.False(t, ok)

	// Ties keep the earliest candidate.
	m, ok = BestMatch(TokenSet{}, "Nord", []string{"Nord AG", "Nord GmbH"}, 0.8)
	require.True(t, ok)
	assert.Equal(t, 0, m.Index)
}

func TestRank(t *testing.T) {
	candidates := []string{"Usine Sud", "Usine Sude", "Kraftwerk Nord"}
	got := Rank(Levenshtein{}, "Usine Sud", candidates, 0.8)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, 1, got[1].Index)
	assert.Greater(t, got[0].Score, got[1].Score)
}
