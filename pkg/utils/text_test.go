package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("μμμ", 3); got != "μ..." {
		t.Errorf("rune boundary: got %q", got)
	}
}

func TestWordCount(t *testing.T) {
	if n := WordCount("  Paid in\nfull. "); n != 3 {
		t.Errorf("WordCount = %d", n)
	}
	if WordCount("") != 0 {
		t.Error("empty has no words")
	}
}
