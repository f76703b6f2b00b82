package render

import (
	"strings"
	"testing"
)

func TestHardWrap(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		width    int
		expected []string
	}{
		{"keeps indentation", "<ul>\n  <li>a</li>\n</ul>", 20, []string{"<ul>", "  <li>a</li>", "</ul>"}},
		{"breaks long lines", "<p>abcdefgh</p>", 6, []string{"<p>abc", "defgh<", "/p>"}},
		{"expands tabs", "\t<b>", 10, []string{"    <b>"}},
		{"keeps blank lines", "a\n\nb", 5, []string{"a", "", "b"}},
		{"normalises CRLF", "a\r\nb", 5, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HardWrap(tt.text, tt.width)
			if strings.Join(result, "|") != strings.Join(tt.expected, "|") {
				t.Errorf("got %q, expected %q", result, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		width    int
		expected string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hi", 2, "hi"},
		{"hello", 3, "hel"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Truncate(tt.input, tt.width); got != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, expected %q", tt.input, tt.width, got, tt.expected)
			}
		})
	}
}

func TestTruncateLeft(t *testing.T) {
	if got := TruncateLeft("https://example.com/a/b", 10); got != "...com/a/b" {
		t.Errorf("got %q", got)
	}
	if got := TruncateLeft("short", 10); got != "short" {
		t.Errorf("got %q, expected unchanged", got)
	}
}

func TestStringWidthWide(t *testing.T) {
	if w := StringWidth("日本"); w != 4 {
		t.Errorf("expected width 4, got %d", w)
	}
	if w := StringWidth("e\u0301"); w != 1 {
		t.Errorf("combining mark should be zero width, got %d", w)
	}
}

func TestCanvas(t *testing.T) {
	c := NewCanvas(10, 5)

	if c.Width() != 10 || c.Height() != 5 {
		t.Errorf("wrong dimensions: got %dx%d, expected 10x5", c.Width(), c.Height())
	}

	c.Set(0, 0, 'X', Style{})
	if c.Get(0, 0).Rune != 'X' {
		t.Error("Set/Get failed")
	}

	c.Set(-1, 0, 'Y', Style{})
	c.Set(100, 0, 'Y', Style{})
	if c.Get(-1, 0).Rune != ' ' {
		t.Error("out of bounds Set should be ignored")
	}

	if n := c.WriteString(7, 1, "hello", Style{}); n != 3 {
		t.Errorf("WriteString should clip at the right edge, wrote %d cells", n)
	}
}

func TestCanvasPlainText(t *testing.T) {
	c := NewCanvas(12, 3)
	c.WriteString(0, 0, "div", Style{Bold: true})
	c.WriteString(2, 1, "<p>x</p>", Style{Reverse: true})

	got := c.PlainText()
	want := "div\n  <p>x</p>\n"
	if got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}
}

func TestCanvasResize(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(1, 1, 'Z', Style{})
	c.Resize(6, 3)
	if c.Width() != 6 || c.Height() != 3 {
		t.Fatalf("resize failed: %dx%d", c.Width(), c.Height())
	}
	if c.Get(1, 1).Rune != ' ' {
		t.Error("resize should clear the canvas")
	}
}
