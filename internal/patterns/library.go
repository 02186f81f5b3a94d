// Package patterns holds the static indicator categories used by the
// heuristic classifier. The library is built once at startup and is
// read-only afterwards, so it is safe to share across concurrent scans.
package patterns

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule is a single text-matching rule belonging to a category.
type Rule struct {
	Expr string
}

// Category is a named group of rules representing one phishing heuristic.
// DetectedWeight and IdleWeight are the deterministic severities assigned
// when the category does or does not match.
type Category struct {
	Name           string
	Label          string
	Rules          []Rule
	DetectedWeight float64
	IdleWeight     float64

	compiled []*regexp.Regexp
}

// Matches reports whether any rule of the category matches content.
func (c *Category) Matches(content string) bool {
	for _, re := range c.compiled {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}

// Library is an immutable, ordered set of indicator categories.
type Library struct {
	categories []*Category
}

// New compiles the given categories into a library. Rules are made
// case-insensitive unless they already carry a flag group.
func New(categories []Category) (*Library, error) {
	compiled := make([]*Category, 0, len(categories))
	for i := range categories {
		c := categories[i]
		c.compiled = make([]*regexp.Regexp, 0, len(c.Rules))
		for _, rule := range c.Rules {
			expr := rule.Expr
			if !strings.HasPrefix(expr, "(?") {
				expr = "(?i)" + expr
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("failed to compile rule %q in category %s: %w", rule.Expr, c.Name, err)
			}
			c.compiled = append(c.compiled, re)
		}
		compiled = append(compiled, &c)
	}
	return &Library{categories: compiled}, nil
}

// Categories returns the categories in declaration order.
func (l *Library) Categories() []*Category {
	return l.categories
}

// MatchLines scans content line by line and returns the lines that
// trigger at least one category, with the triggering category names.
// Line numbers are 1-based.
func (l *Library) MatchLines(content string) []Line {
	var matched []Line
	for i, text := range strings.Split(content, "\n") {
		trimmed := strings.TrimRight(text, "\r")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		var indicators []string
		for _, c := range l.categories {
			if c.Matches(trimmed) {
				indicators = append(indicators, c.Name)
			}
		}
		if len(indicators) > 0 {
			matched = append(matched, Line{Number: i + 1, Text: trimmed, Indicators: indicators})
		}
	}
	return matched
}

// Line is one matched line of evidence produced by MatchLines.
type Line struct {
	Number     int
	Text       string
	Indicators []string
}
