package bulletin

import (
	"strings"
	"unicode"
)

// ChunkWords splits words into consecutive groups of at most size words.
// Concatenating the groups reproduces the input exactly.
func ChunkWords(words []string, size int) [][]string {
	if size <= 0 {
		size = normalWordsPerSlide
	}
	var chunks [][]string
	for i := 0; i < len(words); i += size {
		chunks = append(chunks, words[i:min(i+size, len(words))])
	}
	return chunks
}

// SplitSentences splits text after '.', '!' or '?' when the next rune is
// whitespace. The terminator stays with its sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// Accumulate packs whole sentences into slide texts of at most limit words.
// A sentence that alone exceeds the limit gets a slide of its own; sentences
// are never split.
func Accumulate(sentences []string, limit int) []string {
	var out []string
	var acc []string
	accWords := 0

	for _, s := range sentences {
		n := wordCount(s)
		if accWords+n > limit {
			if len(acc) > 0 {
				out = append(out, strings.Join(acc, " "))
				acc, accWords = []string{s}, n
			} else {
				out = append(out, s)
			}
			continue
		}
		acc = append(acc, s)
		accWords += n
	}
	if len(acc) > 0 {
		out = append(out, strings.Join(acc, " "))
	}
	return out
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
