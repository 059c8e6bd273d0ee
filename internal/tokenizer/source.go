// Package tokenizer bridges to PHP's token_get_all() by running the PHP
// interpreter as a subprocess.
//
// The interpreter is started with -n so no php.ini is read. Some PHP builds
// ship json and tokenizer as shared extensions that -n leaves unloaded; the
// first time json_encode is reported missing the source flips its capability
// flag, loads both extensions explicitly, and retries once.
package tokenizer

import (
	"context"
	"fmt"
	"regexp"
	"runtime"

	"github.com/sirupsen/logrus"
)

// DefaultBinary is the interpreter invoked when none is configured.
const DefaultBinary = "php"

// jsonUnavailable matches the interpreter's failure when the json extension
// is not loaded. It is the only retryable failure.
var jsonUnavailable = regexp.MustCompile(`undefined function json_encode`)

// failureKind classifies a failed invocation.
type failureKind int

const (
	failureFatal failureKind = iota
	failureRetryable
)

// classify decides whether a failed invocation may be retried with extensions
// loaded. A failure with extensions already enabled is always fatal.
func classify(err error, extensionsEnabled bool) failureKind {
	if err == nil || extensionsEnabled {
		return failureFatal
	}
	if jsonUnavailable.MatchString(err.Error()) {
		return failureRetryable
	}
	return failureFatal
}

// Source tokenizes PHP source text with an external interpreter.
type Source struct {
	runner Runner
	caps   Capabilities
	binary string
	script string
	goos   string
	logger logrus.FieldLogger
}

// Option configures a Source.
type Option func(*Source)

// WithRunner replaces the subprocess runner.
func WithRunner(r Runner) Option {
	return func(s *Source) { s.runner = r }
}

// WithBinary sets the interpreter path.
func WithBinary(binary string) Option {
	return func(s *Source) {
		if binary != "" {
			s.binary = binary
		}
	}
}

// WithScript uses an existing dump script instead of materializing the
// embedded one.
func WithScript(path string) Option {
	return func(s *Source) { s.script = path }
}

// WithGOOS overrides the host platform used to pick the extension suffix.
func WithGOOS(goos string) Option {
	return func(s *Source) { s.goos = goos }
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Source. caps is required; it is the only state shared
// between invocations.
func New(caps Capabilities, opts ...Option) *Source {
	s := &Source{
		runner: NewExecRunner(DefaultTimeout),
		caps:   caps,
		binary: DefaultBinary,
		goos:   runtime.GOOS,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tokenize returns the token_get_all() stream for source, unmodified.
//
// A failure reporting json_encode as undefined, while extensions are not yet
// enabled, is recovered by enabling them and retrying exactly once. Every
// other failure is returned as-is and never retried.
func (s *Source) Tokenize(ctx context.Context, source string) ([]Token, error) {
	enabled := s.caps.ExtensionsEnabled()

	tokens, err := s.invoke(ctx, source, enabled)
	if err == nil {
		return tokens, nil
	}
	if classify(err, enabled) != failureRetryable {
		return nil, err
	}

	s.logger.WithField("binary", s.binary).Info("json_encode unavailable, enabling PHP extensions and retrying")
	if perr := s.caps.EnableExtensions(); perr != nil {
		s.logger.WithError(perr).Warn("failed to persist PHP extension setting")
	}

	return s.invoke(ctx, source, true)
}

// invoke runs the interpreter once.
func (s *Source) invoke(ctx context.Context, source string, extensions bool) ([]Token, error) {
	script := s.script
	if script == "" {
		path, err := ensureScript()
		if err != nil {
			return nil, fmt.Errorf("tokenizer script unavailable: %w", err)
		}
		script = path
	}

	out, err := s.runner.Run(ctx, s.binary, Arguments(script, extensions, s.goos), []byte(source))
	if err != nil {
		return nil, err
	}
	return Decode(out)
}

// Arguments builds the interpreter argv. The four extension-loading
// arguments are only present when extensions is set.
func Arguments(script string, extensions bool, goos string) []string {
	args := []string{"-n"}
	if extensions {
		ext := SharedLibrarySuffix(goos)
		args = append(args,
			"-d", "extension=json"+ext,
			"-d", "extension=tokenizer"+ext,
		)
	}
	return append(args, script)
}

// SharedLibrarySuffix returns the PHP extension file suffix for a platform.
func SharedLibrarySuffix(goos string) string {
	if goos == "windows" {
		return ".dll"
	}
	return ".so"
}
