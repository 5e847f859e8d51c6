package widget

import (
	"strings"
)

type declaration struct {
	prop  string
	value string
}

// parseStyle splits an inline style attribute into its declarations, keeping
// their order. Property names are lower-cased.
func parseStyle(style string) []declaration {
	var decls []declaration
	for _, part := range strings.Split(style, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		if prop == "" {
			continue
		}
		decls = append(decls, declaration{
			prop:  prop,
			value: strings.TrimSpace(value),
		})
	}
	return decls
}

func formatStyle(decls []declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.prop+": "+d.value)
	}
	return strings.Join(parts, "; ")
}

// styleValue returns the value of the last declaration of prop.
func styleValue(style string, prop string) (string, bool) {
	prop = strings.ToLower(prop)
	value, found := "", false
	for _, d := range parseStyle(style) {
		if d.prop == prop {
			value, found = d.value, true
		}
	}
	return value, found
}

// setStyleValue sets prop in the style, replacing any existing declarations
// of it.
func setStyleValue(style string, prop string, value string) string {
	prop = strings.ToLower(prop)
	decls := parseStyle(style)
	out := decls[:0]
	replaced := false
	for _, d := range decls {
		if d.prop != prop {
			out = append(out, d)
			continue
		}
		if !replaced {
			out = append(out, declaration{prop: prop, value: value})
			replaced = true
		}
	}
	if !replaced {
		out = append(out, declaration{prop: prop, value: value})
	}
	return formatStyle(out)
}
