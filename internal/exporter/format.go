package exporter

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxSheetName is Excel's sheet name length limit, in characters
const maxSheetName = 31

// sheetName turns a section title into a valid, unique worksheet name
func sheetName(title string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Sheet"
	}
	name = truncate(name, maxSheetName)

	candidate := name
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate = truncate(name, maxSheetName-utf8.RuneCountInString(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// columnWidth estimates a readable width for a column of cells
func columnWidth(cells ...string) float64 {
	width := 10
	for _, c := range cells {
		// Multi-line JSON bodies size by their longest line
		for _, line := range strings.Split(c, "\n") {
			if n := utf8.RuneCountInString(line); n > width {
				width = n
			}
		}
	}
	if width > 80 {
		width = 80
	}
	return float64(width + 2)
}
