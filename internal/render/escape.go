package render

import "strings"

// EscapeText neutralizes the characters ffmpeg's drawtext filter treats
// specially. Backslashes are escaped first; any other order would
// double-escape the backslashes the later steps introduce.
func EscapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, `:`, `\:`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// UnescapeText is the exact inverse of EscapeText, used by the preview
// transform. It walks the string so sequences like `\\n` (an escaped
// backslash followed by 'n') are never misread as an escaped newline.
func UnescapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case '\\', '\'', ':', '%':
			b.WriteByte(s[i])
		default:
			// Not an escape we produce; keep both bytes.
			b.WriteByte(c)
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
