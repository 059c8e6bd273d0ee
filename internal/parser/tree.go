// Package parser rebuilds PHP declaration structure from a flat
// token_get_all() stream and answers line-based entity queries.
//
// It is not a PHP grammar. It tracks brace depth, the stack of open class and
// function bodies, and the most recent comment, which is enough to give every
// class and function a line span, a nesting depth, and its doc comment.
package parser

import (
	"github.com/mvp-joe/phptdd/internal/entity"
)

// Tree is the result of one parse. It is built fresh for each parse and is
// not safe for concurrent mutation.
type Tree struct {
	// Entities holds top-level classes and free functions in declaration
	// order. Class methods hang off their class.
	Entities []*entity.Entity `json:"entities"`

	// Imports holds use declarations.
	Imports []*entity.Entity `json:"imports,omitempty"`

	// Nested holds declarations made inside a non-class entity's body, such
	// as a function defined inside a method. They are reachable by line
	// queries but are nobody's children.
	Nested []*entity.Entity `json:"nested,omitempty"`
}

// Walk visits every entity depth-first: each top-level entity followed by
// its methods, then imports, then nested declarations.
func (t *Tree) Walk(fn func(e *entity.Entity)) {
	for _, e := range t.Entities {
		fn(e)
		for _, m := range e.Methods {
			fn(m)
		}
	}
	for _, e := range t.Imports {
		fn(e)
	}
	for _, e := range t.Nested {
		fn(e)
	}
}

// EntityAtLine returns the innermost entity whose span contains line, or nil.
// An entity without an end line extends to the end of the file. Among
// candidates the greatest depth wins; at equal depth the later declaration
// wins.
func EntityAtLine(tree *Tree, line int) *entity.Entity {
	if tree == nil {
		return nil
	}

	var best *entity.Entity
	tree.Walk(func(e *entity.Entity) {
		if !e.Contains(line) {
			return
		}
		if best == nil ||
			e.Depth > best.Depth ||
			(e.Depth == best.Depth && e.StartLine > best.StartLine) {
			best = e
		}
	})
	return best
}
