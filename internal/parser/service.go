package parser

import (
	"context"

	"github.com/mvp-joe/phptdd/internal/entity"
	"github.com/mvp-joe/phptdd/internal/tokenizer"
)

// Tokenizer turns PHP source into its token stream.
type Tokenizer interface {
	Tokenize(ctx context.Context, source string) ([]tokenizer.Token, error)
}

// Service parses document text. Every call tokenizes afresh; trees are never
// cached because the text they describe changes between calls.
type Service struct {
	tokenizer Tokenizer
}

// NewService creates a parser service backed by t.
func NewService(t Tokenizer) *Service {
	return &Service{tokenizer: t}
}

// Tokenize returns the raw token stream for text. Tokenizer errors are
// returned unchanged so their message can be shown as-is.
func (s *Service) Tokenize(ctx context.Context, text string) ([]tokenizer.Token, error) {
	return s.tokenizer.Tokenize(ctx, text)
}

// Parse tokenizes text and builds its tree.
func (s *Service) Parse(ctx context.Context, text string) (*Tree, error) {
	tokens, err := s.tokenizer.Tokenize(ctx, text)
	if err != nil {
		return nil, err
	}
	return BuildTree(tokens), nil
}

// EntityAtLine parses text and returns the innermost entity containing the
// 1-based line, or nil when none does.
func (s *Service) EntityAtLine(ctx context.Context, text string, line int) (*entity.Entity, error) {
	tree, err := s.Parse(ctx, text)
	if err != nil {
		return nil, err
	}
	return EntityAtLine(tree, line), nil
}
