package script

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkShortTextSingleChunk(t *testing.T) {
	chunks := Chunk("你好，这是一个对话。", 200)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "你好，这是一个对话。" {
		t.Errorf("chunk = %q", chunks[0])
	}
}

func TestChunkEmptyInput(t *testing.T) {
	tests := []string{"", "   ", "\n\t"}
	for _, input := range tests {
		if chunks := Chunk(input, 100); len(chunks) != 0 {
			t.Errorf("Chunk(%q) = %v, want empty", input, chunks)
		}
	}
}

func TestChunkSentencePacking(t *testing.T) {
	// Four ten-rune sentences with a 25-rune budget pack two per chunk.
	s := strings.Repeat("啊", 9) + "。"
	text := s + s + s + s

	chunks := Chunk(text, 25)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	for i, c := range chunks {
		if utf8.RuneCountInString(c) != 20 {
			t.Errorf("chunk %d has %d runes, want 20", i, utf8.RuneCountInString(c))
		}
	}
}

func TestChunkRespectsMaxLen(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
	}{
		{"mixed sentences", "短句。这是一个稍微长一点的句子，带有逗号。短。再来一句！", 10},
		{"english prose", "Hello there. This is a much longer sentence, with a clause. Bye.", 16},
		{"no punctuation at all", strings.Repeat("字", 95), 20},
		{"clause-only long sentence", strings.Repeat("词，", 30), 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Chunk(tt.text, tt.maxLen)
			if len(chunks) == 0 {
				t.Fatal("expected at least one chunk")
			}
			for i, c := range chunks {
				if n := utf8.RuneCountInString(c); n > tt.maxLen {
					t.Errorf("chunk %d has %d runes, exceeds max %d: %q", i, n, tt.maxLen, c)
				}
				if strings.TrimSpace(c) == "" {
					t.Errorf("chunk %d is empty", i)
				}
			}
		})
	}
}

func TestChunkReconstructsInput(t *testing.T) {
	text := "第一句话。第二句话比较长，里面还有逗号！Short one. And a final sentence to finish?"
	chunks := Chunk(text, 12)

	// Concatenating the chunks reproduces the normalized input, up to
	// the spaces trimmed at chunk boundaries.
	stripSpaces := func(s string) string { return strings.ReplaceAll(s, " ", "") }
	joined := stripSpaces(strings.Join(chunks, ""))
	want := stripSpaces(normalizeWhitespace(text))
	if joined != want {
		t.Errorf("reconstruction mismatch:\n got %q\nwant %q", joined, want)
	}
}

func TestChunkDeterministic(t *testing.T) {
	text := "确定性测试，第一部分；第二部分。然后是另一句话！最后一句。"
	first := Chunk(text, 8)
	second := Chunk(text, 8)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestChunkKeepsTerminatorsAttached(t *testing.T) {
	chunks := Chunk("一句话。另一句话！", 6)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if !strings.HasSuffix(chunks[0], "。") {
		t.Errorf("terminator should stay attached: %q", chunks[0])
	}
	if !strings.HasSuffix(chunks[1], "！") {
		t.Errorf("terminator should stay attached: %q", chunks[1])
	}
}

func TestChunkFixedWidthFallback(t *testing.T) {
	// 50 runes with no punctuation anywhere must be sliced at width 20.
	text := strings.Repeat("长", 50)
	chunks := Chunk(text, 20)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	wantLens := []int{20, 20, 10}
	for i, c := range chunks {
		if utf8.RuneCountInString(c) != wantLens[i] {
			t.Errorf("chunk %d has %d runes, want %d", i, utf8.RuneCountInString(c), wantLens[i])
		}
	}
}
