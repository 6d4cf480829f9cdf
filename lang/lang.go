package lang

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gertd/go-pluralize"
)

const (
	DefaultPattern   = "%s"
	DefaultSeparator = ","
	DefaultOperator  = "and"
)

type Enumerator struct {
	Pattern   string
	Separator string
	Operator  string
}

func (e Enumerator) Do(elements ...string) string {
	pattern, separator, operator := DefaultPattern, DefaultSeparator, DefaultOperator
	if e.Pattern != "" {
		pattern = e.Pattern
	}
	if e.Separator != "" {
		separator = e.Separator
	}
	if e.Operator != "" {
		operator = e.Operator
	}
	res := &bytes.Buffer{}
	for idx, element := range elements {
		if idx+2 < len(elements) {
			fmt.Fprintf(res, fmt.Sprintf("%s%%s ", pattern), element, separator)
		} else if idx+1 < len(elements) {
			fmt.Fprintf(res, fmt.Sprintf("%s%%s %%s ", pattern), element, separator, operator)
		} else {
			fmt.Fprintf(res, pattern, element)
		}
	}
	return res.String()
}

func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

const (
	columnWidth = 16
	lineWidth   = 78
)

// FormatColumns lays out names in capitalized columns, the way catalog
// listings (races, classes) are presented to the player.
func FormatColumns(names []string) string {
	perLine := lineWidth / columnWidth
	res := &bytes.Buffer{}
	for idx, name := range names {
		fmt.Fprintf(res, "  %-*s", columnWidth-2, Capitalize(name))
		if (idx+1)%perLine == 0 || idx+1 == len(names) {
			fmt.Fprintln(res)
		}
	}
	return res.String()
}

// Wrap breaks s into lines no wider than width, splitting on spaces.
// Words longer than width get a line of their own.
func Wrap(s string, width int) []string {
	if width < 1 {
		width = lineWidth
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	lines := []string{}
	line := words[0]
	for _, word := range words[1:] {
		if len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = word
		} else {
			line += " " + word
		}
	}
	return append(lines, line)
}

var plural = pluralize.NewClient()

// Count phrases a quantity with its noun: Count(9, "point") == "9 points".
func Count(n int, noun string) string {
	return fmt.Sprintf("%d %s", n, plural.Pluralize(noun, n, false))
}
