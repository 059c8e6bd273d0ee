package parser

import (
	"strings"

	"github.com/mvp-joe/phptdd/internal/tokenizer"
)

// lexPHP is a small stand-in for token_get_all() covering the constructs the
// tests use. Quoted strings come out as single constant tokens; punctuation
// comes out bare. Token kinds are not modeled.
func lexPHP(src string) []tokenizer.Token {
	var out []tokenizer.Token
	line := 1
	emit := func(text string) {
		out = append(out, tokenizer.Triple(0, text, line))
		line += strings.Count(text, "\n")
	}

	i := 0
	if strings.HasPrefix(src, "<?php") {
		j := len("<?php")
		if j < len(src) && src[j] == '\n' {
			j++
		}
		emit(src[:j])
		i = j
	}

	for i < len(src) {
		rest := src[i:]
		c := src[i]
		switch {
		case isSpace(c):
			j := i
			for j < len(src) && isSpace(src[j]) {
				j++
			}
			emit(src[i:j])
			i = j
		case strings.HasPrefix(rest, "#["):
			emit("#[")
			i += 2
		case strings.HasPrefix(rest, "//"), c == '#':
			j := strings.IndexByte(rest, '\n')
			if j < 0 {
				j = len(rest)
			} else {
				j++
			}
			emit(rest[:j])
			i += j
		case strings.HasPrefix(rest, "/*"):
			j := strings.Index(rest, "*/")
			if j < 0 {
				j = len(rest)
			} else {
				j += 2
			}
			emit(rest[:j])
			i += j
		case c == '\'' || c == '"':
			j := 1
			for j < len(rest) && rest[j] != c {
				if rest[j] == '\\' {
					j++
				}
				j++
			}
			if j < len(rest) {
				j++
			} else {
				j = len(rest)
			}
			emit(rest[:j])
			i += j
		case strings.HasPrefix(rest, "?->"):
			emit("?->")
			i += 3
		case strings.HasPrefix(rest, "->"), strings.HasPrefix(rest, "::"):
			emit(rest[:2])
			i += 2
		case isWord(c) || c == '$' || c == '\\':
			j := i + 1
			for j < len(src) && (isWord(src[j]) || src[j] == '\\') {
				j++
			}
			word := src[i:j]
			if len(word) > 1 && strings.HasSuffix(word, `\`) {
				emit(word[:len(word)-1])
				emit(`\`)
			} else {
				emit(word)
			}
			i = j
		default:
			out = append(out, tokenizer.Bare(string(c)))
			i++
		}
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isWord(c byte) bool {
	return c == '_' || c >= 0x80 ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
