package shipmark

import "strings"

// tokenLength is the fixed length of a generated name token.
const tokenLength = 4

// NameTokens generates the candidate name tokens for a customer name,
// in the order the resolver tries them. For a two-part name the token
// is a prefix of length k from the first part joined with a prefix of
// length 4-k from the last part, for k = 1, 2, 3, uppercased. Parts
// shorter than the slice they contribute are padded by repeating their
// own letters, which also covers single-part names. The ordering is
// total and deterministic so that collision retries are reproducible.
func NameTokens(name string) []string {
	parts := strings.Fields(strings.ToUpper(name))
	if len(parts) == 0 {
		return nil
	}

	first := []rune(parts[0])
	last := first
	if len(parts) > 1 {
		last = []rune(parts[len(parts)-1])
	}

	seen := make(map[string]bool, tokenLength-1)
	tokens := make([]string, 0, tokenLength-1)
	for k := 1; k < tokenLength; k++ {
		token := repeatTo(first, k) + repeatTo(last, tokenLength-k)
		if !seen[token] {
			seen[token] = true
			tokens = append(tokens, token)
		}
	}

	return tokens
}

// repeatTo returns the first n runes of s repeated cyclically.
func repeatTo(s []rune, n int) string {
	if len(s) == 0 {
		return ""
	}
	out := make([]rune, n)
	for i := 0; i < n; i++ {
		out[i] = s[i%len(s)]
	}
	return string(out)
}
