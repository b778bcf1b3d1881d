// Package shorthand parses the compact configuration assignment language.
//
// The language is a flat sequence of `name = content ;` assignments where
// content is a literal, a list, or a nested object of further assignments.
// It is isomorphic to a JSON object tree restricted to the scalar and list
// kinds the configuration system supports.
//
//	smallerTableAmountRows=1000; ratioRows=10; overlapChance=42.0;
//	smallerTableSorted=true; sizes=[4,5,6,7];
package shorthand

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError reports the first unexpected character of a malformed
// shorthand string. Line and Column are 1-based.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("shorthand syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// DuplicateKeyError reports two assignments to the same name in one scope.
type DuplicateKeyError struct {
	Key    string
	Line   int
	Column int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate shorthand key %q at line %d, column %d", e.Key, e.Line, e.Column)
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenName
	tokenAssign
	tokenSemicolon
	tokenComma
	tokenLeftBracket
	tokenRightBracket
	tokenLeftBrace
	tokenRightBrace
	tokenBool
	tokenInt
	tokenFloat
	tokenString
)

func (t tokenType) String() string {
	switch t {
	case tokenEOF:
		return "end of input"
	case tokenName:
		return "name"
	case tokenAssign:
		return "'='"
	case tokenSemicolon:
		return "';'"
	case tokenComma:
		return "','"
	case tokenLeftBracket:
		return "'['"
	case tokenRightBracket:
		return "']'"
	case tokenLeftBrace:
		return "'{'"
	case tokenRightBrace:
		return "'}'"
	case tokenBool:
		return "boolean"
	case tokenInt:
		return "integer"
	case tokenFloat:
		return "float"
	case tokenString:
		return "string"
	default:
		return "unknown token"
	}
}

type token struct {
	typ    tokenType
	value  string
	line   int
	column int
}

type lexer struct {
	input  string
	pos    int
	line   int
	column int
}

func newLexer(input string) *lexer {
	return &lexer{input: input, line: 1, column: 1}
}

func (l *lexer) errorf(line, column int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: line, Column: column, Message: fmt.Sprintf(format, args...)}
}

func (l *lexer) advance() byte {
	c := l.input[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c == '-' || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (l *lexer) next() (token, error) {
	l.skipWhitespace()

	line, column := l.line, l.column
	if l.pos >= len(l.input) {
		return token{typ: tokenEOF, line: line, column: column}, nil
	}

	c := l.input[l.pos]
	switch {
	case c == '=':
		l.advance()
		return token{typ: tokenAssign, value: "=", line: line, column: column}, nil
	case c == ';':
		l.advance()
		return token{typ: tokenSemicolon, value: ";", line: line, column: column}, nil
	case c == ',':
		l.advance()
		return token{typ: tokenComma, value: ",", line: line, column: column}, nil
	case c == '[':
		l.advance()
		return token{typ: tokenLeftBracket, value: "[", line: line, column: column}, nil
	case c == ']':
		l.advance()
		return token{typ: tokenRightBracket, value: "]", line: line, column: column}, nil
	case c == '{':
		l.advance()
		return token{typ: tokenLeftBrace, value: "{", line: line, column: column}, nil
	case c == '}':
		l.advance()
		return token{typ: tokenRightBrace, value: "}", line: line, column: column}, nil
	case c == '"':
		return l.lexString(line, column)
	case c == '-' || isDigit(c):
		return l.lexNumber(line, column)
	case isNameStart(c):
		return l.lexName(line, column)
	default:
		return token{}, l.errorf(line, column, "unexpected character %q", c)
	}
}

func (l *lexer) lexString(line, column int) (token, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			return token{}, l.errorf(line, column, "unterminated string")
		}
		c := l.advance()
		switch c {
		case '"':
			return token{typ: tokenString, value: sb.String(), line: line, column: column}, nil
		case '\\':
			if l.pos >= len(l.input) {
				return token{}, l.errorf(line, column, "unterminated string")
			}
			escaped := l.advance()
			switch escaped {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(escaped)
			}
		default:
			sb.WriteByte(c)
		}
	}
}

func (l *lexer) lexNumber(line, column int) (token, error) {
	start := l.pos
	if l.input[l.pos] == '-' {
		l.advance()
		if l.pos >= len(l.input) || !isDigit(l.input[l.pos]) {
			return token{}, l.errorf(l.line, l.column, "expected digit after '-'")
		}
	}
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.advance()
	}

	typ := tokenInt
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.advance()
		if l.pos >= len(l.input) || !isDigit(l.input[l.pos]) {
			return token{}, l.errorf(l.line, l.column, "expected digit after '.'")
		}
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.advance()
		}
		typ = tokenFloat
	}

	return token{typ: typ, value: l.input[start:l.pos], line: line, column: column}, nil
}

func (l *lexer) lexName(line, column int) (token, error) {
	start := l.pos
	for l.pos < len(l.input) && isNameChar(l.input[l.pos]) {
		l.advance()
	}
	value := l.input[start:l.pos]
	if value == "true" || value == "false" {
		return token{typ: tokenBool, value: value, line: line, column: column}, nil
	}
	return token{typ: tokenName, value: value, line: line, column: column}, nil
}

type parser struct {
	lexer   *lexer
	current token
}

func (p *parser) advance() error {
	tok, err := p.lexer.next()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

func (p *parser) unexpected(expected string) *SyntaxError {
	return &SyntaxError{
		Line:    p.current.line,
		Column:  p.current.column,
		Message: fmt.Sprintf("expected %s, found %s", expected, p.current.typ),
	}
}

// Parse turns a shorthand string into a tree of map[string]any,
// []any, bool, string, int64 and float64 nodes. The empty input is a
// valid empty object.
func Parse(input string) (map[string]any, error) {
	p := &parser{lexer: newLexer(input)}
	if err := p.advance(); err != nil {
		return nil, err
	}

	object, err := p.parseAssignments()
	if err != nil {
		return nil, err
	}
	if p.current.typ != tokenEOF {
		return nil, p.unexpected("a name or end of input")
	}
	return object, nil
}

// parseAssignments reads `name = content ;` until the current token no
// longer starts an assignment.
func (p *parser) parseAssignments() (map[string]any, error) {
	object := map[string]any{}
	for p.current.typ == tokenName {
		name := p.current
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.current.typ != tokenAssign {
			return nil, p.unexpected("'='")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		content, err := p.parseContent()
		if err != nil {
			return nil, err
		}
		if p.current.typ != tokenSemicolon {
			return nil, p.unexpected("';'")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, exists := object[name.value]; exists {
			return nil, &DuplicateKeyError{Key: name.value, Line: name.line, Column: name.column}
		}
		object[name.value] = content
	}
	return object, nil
}

func (p *parser) parseContent() (any, error) {
	switch p.current.typ {
	case tokenBool:
		value := p.current.value == "true"
		return value, p.advance()
	case tokenInt:
		value, err := strconv.ParseInt(p.current.value, 10, 64)
		if err != nil {
			return nil, p.unexpected("a 64-bit integer")
		}
		return value, p.advance()
	case tokenFloat:
		value, err := strconv.ParseFloat(p.current.value, 64)
		if err != nil {
			return nil, p.unexpected("a float")
		}
		return value, p.advance()
	case tokenString:
		value := p.current.value
		return value, p.advance()
	case tokenLeftBracket:
		return p.parseList()
	case tokenLeftBrace:
		return p.parseObject()
	default:
		return nil, p.unexpected("a literal, list or object")
	}
}

func (p *parser) parseList() (any, error) {
	if err := p.advance(); err != nil { // consume '['
		return nil, err
	}
	list := []any{}
	if p.current.typ == tokenRightBracket {
		return list, p.advance()
	}
	for {
		content, err := p.parseContent()
		if err != nil {
			return nil, err
		}
		list = append(list, content)
		switch p.current.typ {
		case tokenComma:
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tokenRightBracket:
			return list, p.advance()
		default:
			return nil, p.unexpected("',' or ']'")
		}
	}
}

func (p *parser) parseObject() (any, error) {
	if err := p.advance(); err != nil { // consume '{'
		return nil, err
	}
	object, err := p.parseAssignments()
	if err != nil {
		return nil, err
	}
	if p.current.typ != tokenRightBrace {
		return nil, p.unexpected("'}' or a name")
	}
	return object, p.advance()
}
