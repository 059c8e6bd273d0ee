// Package entity models the PHP declarations the structural parser tracks:
// classes (and the class-like interface, trait and enum), functions, and use
// imports, each with an optional associated comment.
package entity

import (
	"fmt"
	"strings"
)

// TestClassMarker identifies generated test classes by name.
const TestClassMarker = "UnitTestCest"

// Kind is the entity variant.
type Kind int

const (
	KindClass Kind = iota + 1
	KindFunction
	KindUse
)

// String returns the lowercase variant name.
func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	case KindUse:
		return "use"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name written by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "class":
		*k = KindClass
	case "function":
		*k = KindFunction
	case "use":
		*k = KindUse
	default:
		return fmt.Errorf("unknown entity kind %q", text)
	}
	return nil
}

// Comment is a comment token's line span and raw text.
type Comment struct {
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Text      string `json:"text"`
}

// NewComment builds a comment starting at line. A trailing newline, which
// line comments carry, does not extend the span.
func NewComment(text string, line int) *Comment {
	body := strings.TrimRight(text, "\r\n")
	return &Comment{
		StartLine: line,
		EndLine:   line + strings.Count(body, "\n"),
		Text:      text,
	}
}

// Entity is a parsed declaration. All variants share this record; Methods is
// only populated for classes and ClassName only for methods.
//
// EndLine is 0 while the closing boundary has not been found. An entity that
// never closes is open to the end of the file.
type Entity struct {
	Kind      Kind     `json:"kind"`
	Keyword   string   `json:"keyword,omitempty"` // declaring keyword for class-likes: class, interface, trait, enum
	Name      string   `json:"name"`
	Namespace string   `json:"namespace,omitempty"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line,omitempty"`
	Depth     int      `json:"depth"`
	Comment   *Comment `json:"comment,omitempty"`

	// ClassName names the enclosing class of a method. It is a copy, not a
	// reference: the class owns its methods, never the other way round.
	ClassName string `json:"class_name,omitempty"`

	Methods []*Entity `json:"methods,omitempty"`
}

// Testable reports whether tests can be derived for the entity.
func (e *Entity) Testable() bool {
	switch e.Kind {
	case KindClass, KindFunction:
		return true
	case KindUse:
		return false
	default:
		return false
	}
}

// FullName is the namespace-qualified name.
func (e *Entity) FullName() string {
	if e.Namespace != "" {
		return e.Namespace + `\` + e.Name
	}
	return e.Name
}

// Identifier distinguishes entities within a document: methods are
// qualified by their class.
func (e *Entity) Identifier() string {
	switch e.Kind {
	case KindFunction:
		if e.ClassName != "" {
			return e.ClassName + "::" + e.Name
		}
		return e.Name
	default:
		return e.Name
	}
}

// IsTestEntity reports whether the entity is itself a generated test
// artifact: its own name, or its enclosing class's name, carries the marker.
func (e *Entity) IsTestEntity() bool {
	switch e.Kind {
	case KindClass:
		return strings.Contains(e.Name, TestClassMarker)
	case KindFunction:
		return strings.Contains(e.Name, TestClassMarker) || strings.Contains(e.ClassName, TestClassMarker)
	default:
		return strings.Contains(e.Name, TestClassMarker)
	}
}

// IsOpen reports whether the closing boundary was never found.
func (e *Entity) IsOpen() bool {
	return e.EndLine == 0
}

// Contains reports whether line falls within the entity's span.
func (e *Entity) Contains(line int) bool {
	if line < e.StartLine {
		return false
	}
	return e.IsOpen() || line <= e.EndLine
}
