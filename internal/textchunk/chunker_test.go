package textchunk

import (
	"strings"
	"testing"
)

func TestChunker_ChunkKeepsExactSubstrings(t *testing.T) {
	text := "First sentence here. Second one follows! Third? Fourth sentence is last."
	c := NewChunker(30)
	chunks := c.Chunk(text)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.Index != i {
			t.Errorf("chunk %d Index=%d", i, ch.Index)
		}
		if text[ch.Offset:ch.Offset+len(ch.Text)] != ch.Text {
			t.Errorf("chunk %d is not a substring at its offset: %q", i, ch.Text)
		}
		if len(ch.Text) > 30 {
			t.Errorf("chunk %d exceeds limit: %d", i, len(ch.Text))
		}
	}
	if chunks[0].Text != "First sentence here." {
		t.Errorf("first chunk: %q", chunks[0].Text)
	}
}

func TestChunker_NeverSplitsMidSentence(t *testing.T) {
	text := "Alpha beta gamma. Delta epsilon zeta. Eta theta iota."
	chunks := NewChunker(40).Chunk(text)
	for _, ch := range chunks {
		if !strings.HasSuffix(ch.Text, ".") {
			t.Errorf("chunk does not end on a sentence boundary: %q", ch.Text)
		}
	}
}

func TestChunker_OverlongSentenceSplitsOnWords(t *testing.T) {
	text := strings.Repeat("word ", 40)
	chunks := NewChunker(24).Chunk(text)
	if len(chunks) < 5 {
		t.Fatalf("expected the sentence to be split, got %d chunks", len(chunks))
	}
	for _, ch := range chunks {
		if strings.HasPrefix(ch.Text, " ") || strings.HasSuffix(ch.Text, " ") {
			t.Errorf("chunk not trimmed: %q", ch.Text)
		}
		if strings.Contains(ch.Text, "wor ") || strings.HasSuffix(ch.Text, "wor") {
			t.Errorf("word was cut: %q", ch.Text)
		}
	}
}

func TestChunker_ShortAndEmpty(t *testing.T) {
	c := NewChunker(100)
	if c.Chunk("  \n\t ") != nil {
		t.Error("blank text should yield nil")
	}
	chunks := c.Chunk("  short text  ")
	if len(chunks) != 1 || chunks[0].Text != "short text" || chunks[0].Offset != 2 {
		t.Errorf("short text: %+v", chunks)
	}
	if got := NewChunker(0).Chunk("a. b. c."); len(got) != 1 {
		t.Errorf("zero limit should not split: %+v", got)
	}
}

func TestSentences(t *testing.T) {
	text := "Pi is 3.14 roughly. He said \"yes.\" Then\n\nA new paragraph\fNext page"
	spans := Sentences(text)
	var got []string
	for _, sp := range spans {
		got = append(got, text[sp.Start:sp.End])
	}
	want := []string{"Pi is 3.14 roughly.", "He said \"yes.\"", "Then", "A new paragraph", "Next page"}
	if len(got) != len(want) {
		t.Fatalf("Sentences = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if CollapseWhitespace("  a \n\t b  ") != "a b" {
		t.Error("expected trimmed and collapsed spaces")
	}
}
