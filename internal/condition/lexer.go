package condition

import (
	"errors"
	"fmt"
	"io"
)

type tokenType string

const (
	tokenTypeBoolean     tokenType = "BOOLEAN"
	tokenTypeIdentifier  tokenType = "IDENTIFIER"
	tokenTypeNumber      tokenType = "NUMBER"
	tokenTypePunctuation tokenType = "PUNCTUATION"
	tokenTypeString      tokenType = "STRING"
)

var (
	ErrInvalidCharacter  = errors.New("invalid character")
	ErrUnterminatedQuote = errors.New("unterminated string")
)

type token struct {
	tokenType tokenType
	value     string
}

type lexer struct {
	input    string
	position int
}

func newLexer(input string) *lexer {
	return &lexer{
		input: input,
	}
}

func (l *lexer) readToken() (*token, error) {
	l.advanceWhitespace()

	if l.position >= len(l.input) {
		return nil, io.EOF
	}

	c := l.input[l.position]

	switch {
	case isDigit(c):
		return l.readNumber(), nil

	case isIdentifierOpeningCharacter(c):
		return l.readIdentifier(), nil

	case c == '\'' || c == '"':
		return l.readString()

	case isPunctuationCharacter(c):
		return l.readPunctuation()
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidCharacter, string(c))
}

func (l *lexer) advanceWhitespace() {
	for l.position < len(l.input) {
		switch l.input[l.position] {
		case ' ', '\t', '\r', '\n':
			l.position++

		default:
			return
		}
	}
}

func (l *lexer) readNumber() *token {
	start := l.position

	for l.position < len(l.input) && (isDigit(l.input[l.position]) || l.input[l.position] == '.') {
		l.position++
	}

	return &token{
		tokenType: tokenTypeNumber,
		value:     l.input[start:l.position],
	}
}

func (l *lexer) readIdentifier() *token {
	start := l.position

	for l.position < len(l.input) && isIdentifierCharacter(l.input[l.position]) {
		l.position++
	}

	value := l.input[start:l.position]

	if value == "true" || value == "false" {
		return &token{
			tokenType: tokenTypeBoolean,
			value:     value,
		}
	}

	return &token{
		tokenType: tokenTypeIdentifier,
		value:     value,
	}
}

func (l *lexer) readString() (*token, error) {
	quote := l.input[l.position]
	l.position++

	start := l.position

	for l.position < len(l.input) {
		if l.input[l.position] == quote {
			value := l.input[start:l.position]
			l.position++

			return &token{
				tokenType: tokenTypeString,
				value:     value,
			}, nil
		}

		l.position++
	}

	return nil, ErrUnterminatedQuote
}

func (l *lexer) readPunctuation() (*token, error) {
	c := l.input[l.position]

	// two character operators first
	if l.position+1 < len(l.input) {
		pair := l.input[l.position : l.position+2]

		switch pair {
		case "==", "!=", "&&", "||":
			l.position += 2

			return &token{
				tokenType: tokenTypePunctuation,
				value:     pair,
			}, nil
		}
	}

	switch c {
	case '(', ')', ',', '!':
		l.position++

		return &token{
			tokenType: tokenTypePunctuation,
			value:     string(c),
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidCharacter, string(c))
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentifierOpeningCharacter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentifierCharacter(c byte) bool {
	return isIdentifierOpeningCharacter(c) || isDigit(c)
}

func isPunctuationCharacter(c byte) bool {
	switch c {
	case '(', ')', ',', '!', '=', '&', '|':
		return true
	}

	return false
}
