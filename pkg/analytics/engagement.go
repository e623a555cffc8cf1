package analytics

import (
	"sort"

	"redscraper/pkg/database"
)

// TypePerformance aggregates engagement for one post type.
type TypePerformance struct {
	Count       int
	AvgScore    float64
	AvgComments float64
}

// Engagement summarizes a target's post engagement.
type Engagement struct {
	TotalPosts    int
	TotalScore    int
	TotalComments int
	AvgScore      float64
	AvgComments   float64
	ByType        map[string]TypePerformance
	TopByScore    []database.PostRow
}

// CalculateEngagement aggregates score and comment counts per post
// type and picks the ten highest-scoring posts.
func CalculateEngagement(posts []database.PostRow) Engagement {
	eng := Engagement{ByType: make(map[string]TypePerformance)}
	if len(posts) == 0 {
		return eng
	}

	type totals struct {
		count    int
		score    int
		comments int
	}
	byType := make(map[string]totals)

	for i := range posts {
		p := &posts[i]
		eng.TotalPosts++
		eng.TotalScore += p.Score
		eng.TotalComments += p.NumComments

		t := byType[string(p.PostType)]
		t.count++
		t.score += p.Score
		t.comments += p.NumComments
		byType[string(p.PostType)] = t
	}

	eng.AvgScore = float64(eng.TotalScore) / float64(eng.TotalPosts)
	eng.AvgComments = float64(eng.TotalComments) / float64(eng.TotalPosts)

	for postType, t := range byType {
		eng.ByType[postType] = TypePerformance{
			Count:       t.count,
			AvgScore:    float64(t.score) / float64(t.count),
			AvgComments: float64(t.comments) / float64(t.count),
		}
	}

	ranked := make([]database.PostRow, len(posts))
	copy(ranked, posts)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}
	eng.TopByScore = ranked

	return eng
}
