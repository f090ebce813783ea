package search

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Node is an element of a parsed query tree
type Node interface {
	// Match reports whether the (lowercased) text satisfies the node
	Match(text string) bool
	String() string
}

// Term matches a single word as a substring
type Term struct {
	Value string
}

// Phrase matches an exact quoted sequence as a substring
type Phrase struct {
	Value string
}

// And matches when every operand matches
type And struct {
	Operands []Node
}

// Or matches when any operand matches
type Or struct {
	Operands []Node
}

// Not inverts its operand
type Not struct {
	Operand Node
}

func (t *Term) Match(text string) bool   { return strings.Contains(text, strings.ToLower(t.Value)) }
func (p *Phrase) Match(text string) bool { return strings.Contains(text, strings.ToLower(p.Value)) }
func (n *Not) Match(text string) bool    { return !n.Operand.Match(text) }

func (a *And) Match(text string) bool {
	for _, op := range a.Operands {
		if !op.Match(text) {
			return false
		}
	}
	return true
}

func (o *Or) Match(text string) bool {
	for _, op := range o.Operands {
		if op.Match(text) {
			return true
		}
	}
	return false
}

func (t *Term) String() string   { return t.Value }
func (p *Phrase) String() string { return fmt.Sprintf("%q", p.Value) }
func (n *Not) String() string    { return "NOT " + n.Operand.String() }
func (a *And) String() string    { return joinNodes(a.Operands, " AND ") }
func (o *Or) String() string     { return joinNodes(o.Operands, " OR ") }

func joinNodes(nodes []Node, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Query is a parsed search string
type Query struct {
	Raw  string
	Root Node
}

// Parse parses a search string into a Query
func Parse(raw string) (*Query, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &SyntaxError{Pos: 0, Message: "empty search string"}
	}

	tokens, err := Tokenize(raw)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.check(TokenEOF) {
		tok := p.peek()
		return nil, &SyntaxError{Pos: tok.Pos, Message: fmt.Sprintf("unexpected %s", tok.Type)}
	}
	return &Query{Raw: raw, Root: root}, nil
}

// MustParse is like Parse but panics on error. It is intended for tests and fixed queries.
func MustParse(raw string) *Query {
	q, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return q
}

// Match reports whether text satisfies the query, ignoring case
func (q *Query) Match(text string) bool {
	return q.Root.Match(strings.ToLower(text))
}

// String returns the original search string
func (q *Query) String() string {
	return q.Raw
}

// MarshalJSON encodes the query as its original search string
func (q *Query) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Raw)
}

type parser struct {
	tokens  []Token
	current int
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	operands := []Node{left}
	for p.match(TokenOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		operands = append(operands, right)
	}

	if len(operands) == 1 {
		return left, nil
	}
	return &Or{Operands: operands}, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	operands := []Node{left}
	for {
		// adjacent operands are implicitly joined with AND
		if !p.match(TokenAnd) && !p.startsOperand() {
			break
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		operands = append(operands, right)
	}

	if len(operands) == 1 {
		return left, nil
	}
	return &And{Operands: operands}, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.match(TokenNot) {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Not{Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.advance()

	switch tok.Type {
	case TokenTerm:
		return &Term{Value: tok.Lexeme}, nil
	case TokenPhrase:
		return &Phrase{Value: tok.Lexeme}, nil
	case TokenLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.match(TokenRParen) {
			return nil, &SyntaxError{Pos: tok.Pos, Message: "unbalanced parenthesis"}
		}
		return inner, nil
	case TokenEOF:
		return nil, &SyntaxError{Pos: tok.Pos, Message: "expected a term but reached the end of the query"}
	default:
		return nil, &SyntaxError{Pos: tok.Pos, Message: fmt.Sprintf("expected a term but found %s", tok.Type)}
	}
}

func (p *parser) startsOperand() bool {
	switch p.peek().Type {
	case TokenTerm, TokenPhrase, TokenNot, TokenLParen:
		return true
	}
	return false
}

func (p *parser) advance() Token {
	tok := p.tokens[p.current]
	if tok.Type != TokenEOF {
		p.current++
	}
	return tok
}

func (p *parser) match(t TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) check(t TokenType) bool {
	return p.peek().Type == t
}

func (p *parser) peek() Token {
	return p.tokens[p.current]
}
