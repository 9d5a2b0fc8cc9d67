package utils

import "fmt"

// FormatCFA renders an amount in West African CFA francs with thousand
// separators, e.g. 12500 -> "12 500 FCFA".
func FormatCFA(v int64) string {
	if v <= 0 {
		return "0 FCFA"
	}
	s := fmt.Sprintf("%d", v)
	var out []byte
	n := len(s)
	for i := 0; i < n; i++ {
		out = append(out, s[i])
		pos := n - i - 1
		if pos > 0 && pos%3 == 0 {
			out = append(out, ' ')
		}
	}
	return string(out) + " FCFA"
}
