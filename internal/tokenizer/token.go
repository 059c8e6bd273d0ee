package tokenizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Token is one element of PHP's token_get_all() output.
//
// token_get_all emits either a triple [kind, text, line] or, for unambiguous
// punctuation such as braces and semicolons, a bare one-character string with
// no kind code and no line number. Bare tokens decode with Kind and Line zero.
type Token struct {
	Kind int
	Text string
	Line int

	bare bool
}

// Bare builds a punctuation token as emitted without a kind code.
func Bare(text string) Token {
	return Token{Text: text, bare: true}
}

// Triple builds a token carrying a kind code and a line number.
func Triple(kind int, text string, line int) Token {
	return Token{Kind: kind, Text: text, Line: line}
}

// IsBare reports whether the token was emitted as a bare string.
func (t Token) IsBare() bool {
	return t.bare
}

// Is reports whether the token is the bare punctuation s.
func (t Token) Is(s string) bool {
	return t.bare && t.Text == s
}

// IsWhitespace reports whether the token is a whitespace run.
func (t Token) IsWhitespace() bool {
	return !t.bare && t.Text != "" && strings.TrimSpace(t.Text) == ""
}

// IsComment reports whether the token is a line, block, or doc comment.
// "#[" opens an attribute, not a comment.
func (t Token) IsComment() bool {
	if t.bare {
		return false
	}
	switch {
	case strings.HasPrefix(t.Text, "//"), strings.HasPrefix(t.Text, "/*"):
		return true
	case strings.HasPrefix(t.Text, "#"):
		return !strings.HasPrefix(t.Text, "#[")
	}
	return false
}

// UnmarshalJSON decodes either a bare string or a [kind, text, line] triple.
func (t *Token) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty token")
	}

	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("invalid bare token: %w", err)
		}
		*t = Bare(text)
		return nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	if len(parts) != 3 {
		return fmt.Errorf("invalid token: expected 3 elements, got %d", len(parts))
	}

	var tok Token
	if err := json.Unmarshal(parts[0], &tok.Kind); err != nil {
		return fmt.Errorf("invalid token kind: %w", err)
	}
	if err := json.Unmarshal(parts[1], &tok.Text); err != nil {
		return fmt.Errorf("invalid token text: %w", err)
	}
	if err := json.Unmarshal(parts[2], &tok.Line); err != nil {
		return fmt.Errorf("invalid token line: %w", err)
	}
	*t = tok
	return nil
}

// MarshalJSON encodes the token in the same shape token_get_all produced it.
func (t Token) MarshalJSON() ([]byte, error) {
	if t.bare {
		return json.Marshal(t.Text)
	}
	return json.Marshal([]interface{}{t.Kind, t.Text, t.Line})
}

// Decode parses a JSON token list.
func Decode(data []byte) ([]Token, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("invalid tokenizer output: empty response")
	}

	var tokens []Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("invalid tokenizer output: %w", err)
	}
	return tokens, nil
}
