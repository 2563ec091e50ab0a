package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/five82/shelf/internal/inventory"
)

// truncate shortens value to limit runes, ending with an ellipsis.
func truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// truncateMiddle shortens value in the middle, keeping more of the end.
func truncateMiddle(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 5 {
		return string(runes[:limit])
	}
	endLen := (limit - 3) * 2 / 3
	startLen := limit - 3 - endLen
	return string(runes[:startLen]) + "..." + string(runes[len(runes)-endLen:])
}

// padRight pads s with spaces to width runes.
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func checkbox(v bool) string {
	if v {
		return "[x]"
	}
	return "[ ]"
}

// formatPrice renders a price with two decimals and a dollar sign.
func formatPrice(p inventory.Product) string {
	return "$" + p.Price.Round(2).Pad(2).String()
}
