package config

import "strings"

type jsoncState int

const (
	jsoncNormal jsoncState = iota
	jsoncString
	jsoncLineComment
	jsoncBlockComment
)

// StripJSONC removes // and /* */ comments from a JSON-with-comments
// document and deletes trailing commas that precede a closing } or ].
// Every character outside a comment and outside a removed trailing
// comma is preserved verbatim — including "//" inside a string
// literal, which this state machine never treats as a comment opener.
func StripJSONC(src string) string {
	var out strings.Builder
	out.Grow(len(src))

	state := jsoncNormal
	backslashRun := 0
	runes := []rune(src)

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		var next rune
		hasNext := i+1 < len(runes)
		if hasNext {
			next = runes[i+1]
		}

		switch state {
		case jsoncString:
			out.WriteRune(c)
			if c == '\\' {
				backslashRun++
			} else {
				if c == '"' && backslashRun%2 == 0 {
					state = jsoncNormal
				}
				backslashRun = 0
			}

		case jsoncLineComment:
			if c == '\n' {
				out.WriteRune(c)
				state = jsoncNormal
			}
			// other characters inside the comment are dropped

		case jsoncBlockComment:
			if c == '\n' {
				out.WriteRune(c) // preserve newlines for line numbers
			}
			if c == '*' && hasNext && next == '/' {
				i++
				state = jsoncNormal
			}

		default: // jsoncNormal
			switch {
			case c == '"':
				out.WriteRune(c)
				state = jsoncString
				backslashRun = 0
			case c == '/' && hasNext && next == '/':
				state = jsoncLineComment
				i++
			case c == '/' && hasNext && next == '*':
				state = jsoncBlockComment
				i++
			default:
				out.WriteRune(c)
			}
		}
	}

	return removeTrailingCommas(out.String())
}

// removeTrailingCommas deletes any comma that is followed (ignoring
// whitespace) only by a closing } or ], i.e. a trailing comma left
// dangling once comments between it and the bracket are gone. Commas
// inside string literals are left untouched — in_string tracking here
// mirrors StripJSONC's own string handling.
func removeTrailingCommas(src string) string {
	runes := []rune(src)
	var out []rune

	inString := false
	backslashRun := 0

	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if inString {
			out = append(out, c)
			if c == '\\' {
				backslashRun++
			} else {
				if c == '"' && backslashRun%2 == 0 {
					inString = false
				}
				backslashRun = 0
			}
			continue
		}

		if c == '"' {
			inString = true
			backslashRun = 0
			out = append(out, c)
			continue
		}

		if c != ',' {
			out = append(out, c)
			continue
		}
		j := i + 1
		for j < len(runes) && isJSONWhitespace(runes[j]) {
			j++
		}
		if j < len(runes) && (runes[j] == '}' || runes[j] == ']') {
			continue // drop the trailing comma
		}
		out = append(out, c)
	}
	return string(out)
}

func isJSONWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
