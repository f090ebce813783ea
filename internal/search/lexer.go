// Package search parses boolean search expressions such as
//
//	"climate change" AND (policy OR regulation) NOT opinion
//
// into a query tree that can be matched against text.
package search

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType identifies a lexical token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenTerm
	TokenPhrase
	TokenAnd
	TokenOr
	TokenNot
	TokenLParen
	TokenRParen
)

// String returns a readable token name
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of query"
	case TokenTerm:
		return "term"
	case TokenPhrase:
		return "phrase"
	case TokenAnd:
		return "AND"
	case TokenOr:
		return "OR"
	case TokenNot:
		return "NOT"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	default:
		return "unknown"
	}
}

// Token is a single lexeme with its offset in the query
type Token struct {
	Type   TokenType
	Lexeme string
	Pos    int
}

// SyntaxError reports a malformed query
type SyntaxError struct {
	Pos     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at position %d", e.Message, e.Pos)
}

type lexer struct {
	source  []rune
	start   int
	current int
	tokens  []Token
}

// Tokenize splits a query into tokens
func Tokenize(query string) ([]Token, error) {
	l := &lexer{source: []rune(query)}
	for !l.isAtEnd() {
		l.start = l.current
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	l.tokens = append(l.tokens, Token{Type: TokenEOF, Pos: l.current})
	return l.tokens, nil
}

func (l *lexer) scanToken() error {
	r := l.advance()

	switch {
	case unicode.IsSpace(r):
		return nil
	case r == '(':
		l.add(TokenLParen)
	case r == ')':
		l.add(TokenRParen)
	case r == '&':
		l.match('&')
		l.add(TokenAnd)
	case r == '|':
		l.match('|')
		l.add(TokenOr)
	case r == '!' || r == '~':
		l.add(TokenNot)
	case r == '-' && l.start == 0, r == '-' && l.prevIsBoundary():
		// a leading dash negates the following term
		l.add(TokenNot)
	case r == '"':
		return l.phrase()
	default:
		l.term()
	}
	return nil
}

func (l *lexer) phrase() error {
	for !l.isAtEnd() && l.peek() != '"' {
		l.advance()
	}
	if l.isAtEnd() {
		return &SyntaxError{Pos: l.start, Message: "unterminated quoted phrase"}
	}
	l.advance()

	text := strings.TrimSpace(string(l.source[l.start+1 : l.current-1]))
	if text == "" {
		return &SyntaxError{Pos: l.start, Message: "empty quoted phrase"}
	}
	l.tokens = append(l.tokens, Token{Type: TokenPhrase, Lexeme: text, Pos: l.start})
	return nil
}

func (l *lexer) term() {
	for !l.isAtEnd() && !isDelimiter(l.peek()) {
		l.advance()
	}
	word := string(l.source[l.start:l.current])

	switch strings.ToUpper(word) {
	case "AND":
		l.add(TokenAnd)
	case "OR":
		l.add(TokenOr)
	case "NOT":
		l.add(TokenNot)
	default:
		l.tokens = append(l.tokens, Token{Type: TokenTerm, Lexeme: word, Pos: l.start})
	}
}

func (l *lexer) add(t TokenType) {
	l.tokens = append(l.tokens, Token{
		Type:   t,
		Lexeme: string(l.source[l.start:l.current]),
		Pos:    l.start,
	})
}

func (l *lexer) prevIsBoundary() bool {
	prev := l.source[l.start-1]
	return unicode.IsSpace(prev) || prev == '('
}

func (l *lexer) advance() rune {
	r := l.source[l.current]
	l.current++
	return r
}

func (l *lexer) match(expected rune) bool {
	if l.isAtEnd() || l.source[l.current] != expected {
		return false
	}
	l.current++
	return true
}

func (l *lexer) peek() rune {
	return l.source[l.current]
}

func (l *lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func isDelimiter(r rune) bool {
	switch r {
	case '(', ')', '"', '&', '|':
		return true
	}
	return unicode.IsSpace(r)
}
