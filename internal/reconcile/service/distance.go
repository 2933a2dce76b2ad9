package service

// levenshtein returns the edit distance between a and b over runes
// (insert, delete, substitute; cost 1 each). Two rows of the DP table are kept,
// sized by the shorter string.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	al, bl := len(ra), len(rb)
	if bl == 0 {
		return al
	}

	prev := make([]int, bl+1)
	cur := make([]int, bl+1)
	for j := 0; j <= bl; j++ {
		prev[j] = j
	}

	for i := 1; i <= al; i++ {
		cur[0] = i
		for j := 1; j <= bl; j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			// insert / delete / substitute
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[bl]
}

func min3(a, b, c int) int { return min(min(a, b), c) }
