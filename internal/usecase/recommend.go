package usecase

import (
	"sort"

	"perfumeshop/internal/domain/model"
)

// 相性の良い香調の組み合わせ（片方向で書き、init で双方向にする）
var complementaryPairs = map[string][]string{
	"vanilla":        {"amber", "sandalwood", "tonka"},
	"bergamot":       {"neroli", "vetiver", "lavender"},
	"rose":           {"oud", "patchouli", "musk"},
	"jasmine":        {"sandalwood", "musk", "orange blossom"},
	"lavender":       {"tonka", "cedar"},
	"oud":            {"saffron", "amber"},
	"lemon":          {"neroli", "ginger", "vetiver"},
	"patchouli":      {"amber", "vanilla"},
	"iris":           {"violet", "musk", "leather"},
	"cedar":          {"vetiver", "leather"},
	"pink pepper":    {"rose", "grapefruit"},
	"orange blossom": {"neroli", "honey"},
	"tuberose":       {"coconut", "musk"},
	"incense":        {"myrrh", "labdanum", "oud"},
}

var complements = buildComplements(complementaryPairs)

func buildComplements(pairs map[string][]string) map[string]map[string]struct{} {
	out := map[string]map[string]struct{}{}
	link := func(a, b string) {
		if out[a] == nil {
			out[a] = map[string]struct{}{}
		}
		out[a][b] = struct{}{}
	}
	for a, bs := range pairs {
		for _, b := range bs {
			link(a, b)
			link(b, a)
		}
	}
	return out
}

type Recommendation struct {
	Product model.Product `json:"product"`
	Score   int           `json:"score"`
}

// ScoreNotes は 相性の良い香調1つにつき2点、共通の香調1つにつき1点
func ScoreNotes(base, candidate []string) int {
	baseSet := make(map[string]struct{}, len(base))
	for _, n := range base {
		baseSet[n] = struct{}{}
	}

	score := 0
	for _, n := range candidate {
		if _, ok := baseSet[n]; ok {
			score++
			continue
		}
		for b := range baseSet {
			if _, ok := complements[b][n]; ok {
				score += 2
				break
			}
		}
	}
	return score
}

// RankRecommendations は 点数の高い順、同点なら同じgender、次にIDの小さい順。0点は除外
func RankRecommendations(base model.Product, candidates []model.Product, limit int) []Recommendation {
	baseNotes := base.Notes()
	out := make([]Recommendation, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == base.ID {
			continue
		}
		s := ScoreNotes(baseNotes, c.Notes())
		if s == 0 {
			continue
		}
		out = append(out, Recommendation{Product: c, Score: s})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ag, bg := a.Product.Gender == base.Gender, b.Product.Gender == base.Gender
		if ag != bg {
			return ag
		}
		return a.Product.ID < b.Product.ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
