// Package testfunc resolves which unit test function belongs to a parsed
// entity, reading directives from the entity's doc comment.
//
// Two directives are recognized on any line of the comment:
//
//	@testFunction testSomething   names the test function; the last one wins
//	@testDisableAutoRun           excludes the entity from auto-run
package testfunc

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mvp-joe/phptdd/internal/entity"
)

var (
	functionDirective = regexp.MustCompile(`@testFunction\s+([A-Za-z_\x{80}-\x{10FFFF}][A-Za-z0-9_\x{80}-\x{10FFFF}]*)`)
	disableDirective  = regexp.MustCompile(`@testDisableAutoRun`)
)

// LineSource gives access to 1-based document lines.
type LineSource interface {
	LineAt(line int) string
}

// Info is the test function resolved for an entity.
type Info struct {
	Entity          *entity.Entity `json:"entity"`
	AutoRunDisabled bool           `json:"auto_run_disabled"`
	FunctionName    string         `json:"function_name,omitempty"`
}

// HasTestFunction reports whether a test function name is known.
func (i *Info) HasTestFunction() bool {
	return i.FunctionName != ""
}

// Runnable reports whether a test can be run for the entity without first
// writing one: classes run their whole test class, everything else needs a
// name.
func (i *Info) Runnable() bool {
	return i.Entity.Kind == entity.KindClass || i.HasTestFunction()
}

// Resolve builds the Info for e, or returns nil when e is nil.
//
// Entities that already are test artifacts are seeded with their own name
// (empty for a class). Directive lines are read through lines; when lines is
// nil the comment's own text is scanned instead.
func Resolve(e *entity.Entity, lines LineSource) *Info {
	if e == nil {
		return nil
	}

	info := &Info{Entity: e}
	if e.IsTestEntity() && e.Kind == entity.KindFunction {
		info.FunctionName = e.Name
	}

	if e.Comment == nil {
		return info
	}

	for _, line := range commentLines(e.Comment, lines) {
		if m := functionDirective.FindStringSubmatch(line); m != nil {
			info.FunctionName = m[1]
		}
		if disableDirective.MatchString(line) {
			info.AutoRunDisabled = true
		}
	}
	return info
}

func commentLines(c *entity.Comment, lines LineSource) []string {
	if lines == nil {
		return strings.Split(c.Text, "\n")
	}
	out := make([]string, 0, c.EndLine-c.StartLine+1)
	for n := c.StartLine; n <= c.EndLine; n++ {
		out = append(out, lines.LineAt(n))
	}
	return out
}

// DefaultName derives the test function name used when no directive names
// one: "test" followed by the entity name with its first letter upper-cased.
// The class name of a method is never included.
func DefaultName(e *entity.Entity) string {
	return "test" + capitalize(e.Name)
}

// Name returns the resolved function name, falling back to DefaultName.
func (i *Info) Name() string {
	if i.HasTestFunction() {
		return i.FunctionName
	}
	return DefaultName(i.Entity)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
