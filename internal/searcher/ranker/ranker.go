package ranker

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

const (
	// MaxResultDocumentCount caps every ranked result.
	MaxResultDocumentCount = 5
	// RelevanceEpsilon is the band within which two relevances are treated
	// as equal and the rating decides.
	RelevanceEpsilon = 1e-6
)

// ScoredDoc is one ranked result.
type ScoredDoc struct {
	ID        int     `json:"id"`
	Relevance float64 `json:"relevance"`
	Rating    int     `json:"rating"`
}

func (d ScoredDoc) String() string {
	return fmt.Sprintf("{ document_id = %d, relevance = %g, rating = %d }", d.ID, d.Relevance, d.Rating)
}

// IDF is ln(totalDocs / docFreq). It returns 0 when either count is not
// positive.
func IDF(totalDocs, docFreq int) float64 {
	if totalDocs <= 0 || docFreq <= 0 {
		return 0
	}
	return math.Log(float64(totalDocs) / float64(docFreq))
}

// Less orders a before b: higher relevance first, and within
// RelevanceEpsilon higher rating first.
func Less(a, b ScoredDoc) bool {
	if math.Abs(a.Relevance-b.Relevance) < RelevanceEpsilon {
		return a.Rating > b.Rating
	}
	return a.Relevance > b.Relevance
}

// Rank turns accumulated scores into an ordered result of at most limit
// documents. Candidates are laid out in ascending id order before a stable
// sort, so the output does not depend on map iteration order. A
// non-positive limit means MaxResultDocumentCount.
func Rank(scores map[int]float64, ratingOf func(id int) int, limit int) []ScoredDoc {
	if limit <= 0 {
		limit = MaxResultDocumentCount
	}
	ids := make([]int, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	result := make([]ScoredDoc, 0, len(ids))
	for _, id := range ids {
		result = append(result, ScoredDoc{
			ID:        id,
			Relevance: scores[id],
			Rating:    ratingOf(id),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return Less(result[i], result[j])
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}
