package lexical

import "math"

// similarity is the normalized Levenshtein similarity of a and b on a 0-100
// scale, rounded to two decimals. Identical strings score 100; strings with
// nothing in common score 0.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 100
	}
	d := levenshtein(ra, rb)
	return round(100*(1-float64(d)/float64(longest)), 2)
}

// levenshtein computes the edit distance with a single rolling row.
func levenshtein(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prevDiag := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur := min(row[j]+1, row[j-1]+1, prevDiag+cost)
			prevDiag = row[j]
			row[j] = cur
		}
	}
	return row[len(b)]
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
