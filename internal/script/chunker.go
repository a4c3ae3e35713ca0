package script

import (
	"strings"
	"unicode/utf8"
)

// Sentence terminators, full- and half-width. The terminator stays
// attached to the sentence that precedes it.
func isSentenceEnd(r rune) bool {
	switch r {
	case '。', '！', '？', '!', '?', '.':
		return true
	}
	return false
}

// Clause punctuation, the second-stage split for sentences that exceed
// the chunk budget on their own.
func isClauseEnd(r rune) bool {
	switch r {
	case '，', ',', '；', ';', '、':
		return true
	}
	return false
}

// Chunk splits text into ordered chunks of at most maxLen runes for
// individual synthesis calls. Splitting is progressive: sentences are
// packed greedily; a sentence longer than maxLen is split at clause
// punctuation; a clause still longer than maxLen is sliced at fixed
// width. Punctuation stays attached to the preceding piece, so
// concatenating the chunks reproduces the whitespace-normalized input
// up to the spaces trimmed at chunk edges. The function is pure:
// identical input yields identical output.
func Chunk(text string, maxLen int) []string {
	norm := normalizeWhitespace(text)
	if norm == "" {
		return nil
	}
	if maxLen <= 0 || utf8.RuneCountInString(norm) <= maxLen {
		return []string{norm}
	}

	var chunks []string
	var cur string
	flush := func() {
		if trimmed := strings.TrimSpace(cur); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		cur = ""
	}

	for _, sentence := range splitAfter(norm, isSentenceEnd) {
		if utf8.RuneCountInString(strings.TrimSpace(sentence)) > maxLen {
			// Oversized sentence: close the running chunk, then fall
			// back to clause and fixed-width splitting.
			flush()
			chunks = append(chunks, splitOversized(sentence, maxLen)...)
			continue
		}
		if cur != "" && utf8.RuneCountInString(cur)+utf8.RuneCountInString(sentence) > maxLen {
			flush()
		}
		cur += sentence
	}
	flush()
	return chunks
}

// splitOversized splits a single over-length sentence at clause
// punctuation, packing clauses greedily, and slices any clause that
// still exceeds maxLen at fixed rune width.
func splitOversized(sentence string, maxLen int) []string {
	var out []string
	var cur string
	flush := func() {
		if trimmed := strings.TrimSpace(cur); trimmed != "" {
			out = append(out, trimmed)
		}
		cur = ""
	}

	for _, clause := range splitAfter(sentence, isClauseEnd) {
		if utf8.RuneCountInString(strings.TrimSpace(clause)) > maxLen {
			flush()
			runes := []rune(strings.TrimSpace(clause))
			for start := 0; start < len(runes); start += maxLen {
				end := start + maxLen
				if end > len(runes) {
					end = len(runes)
				}
				if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
					out = append(out, piece)
				}
			}
			continue
		}
		if cur != "" && utf8.RuneCountInString(cur)+utf8.RuneCountInString(clause) > maxLen {
			flush()
		}
		cur += clause
	}
	flush()
	return out
}

// splitAfter slices s into pieces that each end just after a rune
// matched by end (runs of matching runes stay together), keeping the
// delimiters. The concatenation of the pieces is exactly s.
func splitAfter(s string, end func(rune) bool) []string {
	var pieces []string
	runes := []rune(s)
	start := 0
	for i := 0; i < len(runes); i++ {
		if !end(runes[i]) {
			continue
		}
		// Swallow consecutive terminators like "?!" or "。。。".
		for i+1 < len(runes) && end(runes[i+1]) {
			i++
		}
		pieces = append(pieces, string(runes[start:i+1]))
		start = i + 1
	}
	if start < len(runes) {
		pieces = append(pieces, string(runes[start:]))
	}
	return pieces
}
