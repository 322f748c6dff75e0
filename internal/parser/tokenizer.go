package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// PrepareLine splits one raw line into trimmed, comma-separated tokens. It
// returns nil for blank lines and whole-line comments. When the first token
// contains whitespace it is split once into keyword and remainder, so
// "forset 0-5, 8" yields "forset", "0-5", "8". Other tokens are only
// trimmed; empty tokens between consecutive commas are kept.
func PrepareLine(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "//") {
		return nil
	}

	parts := strings.Split(line, ",")
	tokens := make([]string, 0, len(parts)+1)
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if i == 0 {
			if cut := strings.IndexFunc(part, unicode.IsSpace); cut >= 0 {
				tokens = append(tokens, part[:cut], strings.TrimSpace(part[cut:]))
				continue
			}
		}
		tokens = append(tokens, part)
	}
	return tokens
}

// ParseNodeName normalizes numeric node ids to "node<id>".
func ParseNodeName(tok string) string {
	if isDigits(tok) {
		return "node" + tok
	}
	return tok
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func parseFloat(tok, what string) (float64, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("error converting %s: %w", what, err)
	}
	return v, nil
}

// parseIntFromFloat accepts "3" as well as "3.0".
func parseIntFromFloat(tok, what string) (int, error) {
	if v, err := strconv.Atoi(tok); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("error converting %s: %w", what, err)
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("error converting %s: %q is not an integer", what, tok)
	}
	return int(f), nil
}

// optFloat parses tok[i] when present, falling back to def.
func optFloat(tok []string, i int, def float64, what string) (float64, error) {
	if i >= len(tok) || tok[i] == "" {
		return def, nil
	}
	return parseFloat(tok[i], what)
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
