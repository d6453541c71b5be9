package promptpoll

import (
	"sort"
	"strings"
)

// Ratio is the share of successful answers equal to Answer after normalization.
type Ratio struct {
	Answer     string
	Count      int
	Proportion float64
}

// Ratios: Frequency of each distinct answer, ignoring case, periods and surrounding space. Failed calls are not counted.
// Sorted by descending count, ties by answer.
func Ratios(results ResultSet) []Ratio {
	counts := make(map[string]int)
	total := 0
	for _, r := range results {
		if !r.OK() {
			continue
		}
		counts[normalizeAnswer(r.Response)]++
		total++
	}

	ratios := make([]Ratio, 0, len(counts))
	for answer, count := range counts {
		ratios = append(ratios, Ratio{
			Answer:     answer,
			Count:      count,
			Proportion: float64(count) / float64(total),
		})
	}
	sort.Slice(ratios, func(i, j int) bool {
		if ratios[i].Count != ratios[j].Count {
			return ratios[i].Count > ratios[j].Count
		}
		return ratios[i].Answer < ratios[j].Answer
	})
	return ratios
}

func normalizeAnswer(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(s), ".", ""))
}
