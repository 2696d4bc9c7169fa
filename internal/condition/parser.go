package condition

import (
	"fmt"
	"io"
	"strconv"
)

type operatorPrecedence int

const (
	operatorPrecedenceUnset    operatorPrecedence = 0
	operatorPrecedenceOr       operatorPrecedence = 5  // "||"
	operatorPrecedenceAnd      operatorPrecedence = 6  // "&&"
	operatorPrecedenceEquality operatorPrecedence = 10 // "==" "!="
)

var binaryOperators = map[string]operatorPrecedence{
	"||": operatorPrecedenceOr,
	"&&": operatorPrecedenceAnd,
	"==": operatorPrecedenceEquality,
	"!=": operatorPrecedenceEquality,
}

type parser struct {
	lexer  *lexer
	tokens []*token
	pos    int
}

func newParser(lexer *lexer) *parser {
	return &parser{
		lexer: lexer,
	}
}

func (p *parser) parse() (Expr, error) {
	expr, err := p.parseBinaryExpression(operatorPrecedenceUnset)
	if err != nil {
		return nil, err
	}

	// the whole input must be consumed
	if token, err := p.readToken(); err != io.EOF {
		if err != nil {
			return nil, err
		}

		return nil, fmt.Errorf("unexpected trailing token: %q", token.value)
	}

	return expr, nil
}

func (p *parser) parseBinaryExpression(minPrec operatorPrecedence) (Expr, error) {
	left, err := p.parsePrimaryExpression()
	if err != nil {
		return nil, err
	}

	for {
		token, err := p.readToken()
		if err == io.EOF {
			return left, nil
		}
		if err != nil {
			return nil, err
		}

		if token.tokenType != tokenTypePunctuation {
			return nil, fmt.Errorf("expected operator, got %q", token.value)
		}

		if token.value == ")" || token.value == "," {
			p.unreadToken()

			return left, nil
		}

		prec, isOp := binaryOperators[token.value]
		if !isOp {
			return nil, fmt.Errorf("unsupported operator: %s", token.value)
		}

		if prec < minPrec {
			// belongs to the caller
			p.unreadToken()

			return left, nil
		}

		right, err := p.parseBinaryExpression(prec + 1)
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}

		left = &Binary{
			Left:     left,
			Operator: token.value,
			Right:    right,
		}
	}
}

func (p *parser) parsePrimaryExpression() (Expr, error) {
	token, err := p.readToken()
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, err
	}

	switch token.tokenType {
	case tokenTypeBoolean:
		return &Literal{Value: token.value == "true"}, nil

	case tokenTypeString:
		return &Literal{Value: token.value}, nil

	case tokenTypeNumber:
		value, err := strconv.ParseFloat(token.value, 64)
		if err != nil {
			return nil, fmt.Errorf("parse number %q: %w", token.value, err)
		}

		return &Literal{Value: value}, nil

	case tokenTypeIdentifier:
		return p.parseIdentifierExpression(token.value)

	case tokenTypePunctuation:
		switch token.value {
		case "!":
			operand, err := p.parsePrimaryExpression()
			if err != nil {
				return nil, err
			}

			return &Unary{Operator: "!", Operand: operand}, nil

		case "(":
			expr, err := p.parseBinaryExpression(operatorPrecedenceUnset)
			if err != nil {
				return nil, err
			}

			if err := p.expectPunctuation(")"); err != nil {
				return nil, err
			}

			return expr, nil
		}
	}

	return nil, fmt.Errorf("unexpected token: %q", token.value)
}

func (p *parser) parseIdentifierExpression(name string) (Expr, error) {
	token, err := p.readToken()
	if err == io.EOF {
		return &Identifier{Name: name}, nil
	}
	if err != nil {
		return nil, err
	}

	if token.tokenType != tokenTypePunctuation || token.value != "(" {
		p.unreadToken()

		return &Identifier{Name: name}, nil
	}

	args, err := p.parseCallArgumentList()
	if err != nil {
		return nil, err
	}

	return &FunctionCall{
		Name: name,
		Args: args,
	}, nil
}

func (p *parser) parseCallArgumentList() ([]Expr, error) {
	args := make([]Expr, 0)

	// empty argument list
	token, err := p.readToken()
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, err
	}

	if token.tokenType == tokenTypePunctuation && token.value == ")" {
		return args, nil
	}

	p.unreadToken()

	for {
		arg, err := p.parseBinaryExpression(operatorPrecedenceUnset)
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		token, err := p.readToken()
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}

		if token.tokenType != tokenTypePunctuation {
			return nil, fmt.Errorf("expected ',' or ')', got %q", token.value)
		}

		switch token.value {
		case ",":
			continue

		case ")":
			return args, nil

		default:
			return nil, fmt.Errorf("expected ',' or ')', got %q", token.value)
		}
	}
}

func (p *parser) expectPunctuation(value string) error {
	token, err := p.readToken()
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	if err != nil {
		return err
	}

	if token.tokenType != tokenTypePunctuation || token.value != value {
		return fmt.Errorf("expected punctuation: %q", value)
	}

	return nil
}

func (p *parser) readToken() (*token, error) {
	if p.pos < len(p.tokens) {
		token := p.tokens[p.pos]
		p.pos++

		return token, nil
	}

	token, err := p.lexer.readToken()
	if err != nil {
		return nil, err
	}

	p.tokens = append(p.tokens, token)
	p.pos++

	return token, nil
}

func (p *parser) unreadToken() {
	if p.pos > 0 {
		p.pos--
	}
}
