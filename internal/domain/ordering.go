package domain

import "strings"

// CompareArticleNumbers orders article numbers the way a reader of the
// code would: purely numeric labels compare by value, everything else
// falls back to lexicographic order, and numeric labels sort before
// non-numeric ones. "9" comes before "10", "10" before "10-bis".
func CompareArticleNumbers(a, b string) int {
	an, aok := leadingInt(a)
	bn, bok := leadingInt(b)
	switch {
	case aok && bok:
		if an != bn {
			if an < bn {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func leadingInt(s string) (int, bool) {
	n := 0
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		i++
	}
	return n, i > 0
}
