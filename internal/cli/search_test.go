package cli

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	long := strings.Repeat("étoilé", 20)
	got := truncate(long, 60)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 60 {
		t.Errorf("rune count = %d, want 60", n)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated string %q has no ellipsis", got)
	}

	short := "héllo"
	if truncate(short, 60) != short {
		t.Errorf("short string was modified: %q", truncate(short, 60))
	}
}
