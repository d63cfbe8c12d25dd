package index

import (
	"errors"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var errBinaryPayload = errors.New("payload is not text")

// RTF destinations whose content never reaches the rendered text.
var rtfSkipped = map[string]bool{
	"fonttbl":          true,
	"colortbl":         true,
	"expandedcolortbl": true,
	"stylesheet":       true,
	"info":             true,
	"pict":             true,
	"header":           true,
	"footer":           true,
	"listtable":        true,
}

// extractText turns a text payload into searchable plain text.
func extractText(ref string, data []byte) (string, error) {
	switch strings.ToLower(refExt(ref)) {
	case "txt", "text", "md", "csv":
		return string(data), nil
	case "rtf":
		return stripRTF(string(data)), nil
	case "html", "htm":
		return html.UnescapeString(bluemonday.StrictPolicy().Sanitize(string(data))), nil
	}
	if !utf8.Valid(data) {
		return "", errBinaryPayload
	}
	return string(data), nil
}

// stripRTF drops control words, groups of non-text destinations and braces.
func stripRTF(src string) string {
	var b strings.Builder
	depth, skipFrom := 0, -1
	emit := func(r rune) {
		if skipFrom < 0 {
			b.WriteRune(r)
		}
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case '{':
			depth++
		case '}':
			if skipFrom == depth {
				skipFrom = -1
			}
			depth--
		case '\r', '\n':
		case '\\':
			i++
			if i >= len(src) {
				break
			}
			n := src[i]
			switch {
			case n == '\\' || n == '{' || n == '}':
				emit(rune(n))
			case n == '~':
				emit(' ')
			case n == '*':
				if skipFrom < 0 {
					skipFrom = depth
				}
			case n == '\'':
				if i+2 < len(src) {
					if v, err := strconv.ParseUint(src[i+1:i+3], 16, 8); err == nil {
						emit(rune(v))
					}
					i += 2
				}
			case isLetter(n):
				start := i
				for i < len(src) && isLetter(src[i]) {
					i++
				}
				word := src[start:i]
				numStart := i
				if i < len(src) && src[i] == '-' {
					i++
				}
				for i < len(src) && src[i] >= '0' && src[i] <= '9' {
					i++
				}
				param := src[numStart:i]
				if i >= len(src) || src[i] != ' ' {
					i-- // delimiter belongs to the text
				}

				switch word {
				case "par", "line":
					emit('\n')
				case "tab":
					emit('\t')
				case "u":
					if v, err := strconv.Atoi(param); err == nil {
						if v < 0 {
							v += 65536
						}
						emit(rune(v))
						if i+1 < len(src) && !strings.ContainsRune(`\{}`, rune(src[i+1])) {
							i++ // ANSI fallback character
						}
					}
				default:
					if rtfSkipped[word] && skipFrom < 0 {
						skipFrom = depth
					}
				}
			}
		default:
			if skipFrom < 0 {
				b.WriteByte(c)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
