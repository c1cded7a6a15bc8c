package ldf

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type TokenType int

const (
	TokenError TokenType = iota
	TokenEOF
	TokenIdentifier
	TokenNumber
	TokenString
	TokenLBrace
	TokenRBrace
	TokenColon
	TokenSemicolon
	TokenComma
	TokenEquals
	TokenComment
)

func (t TokenType) String() string {
	switch t {
	case TokenError:
		return "error"
	case TokenEOF:
		return "end of file"
	case TokenIdentifier:
		return "identifier"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenLBrace:
		return "'{'"
	case TokenRBrace:
		return "'}'"
	case TokenColon:
		return "':'"
	case TokenSemicolon:
		return "';'"
	case TokenComma:
		return "','"
	case TokenEquals:
		return "'='"
	case TokenComment:
		return "comment"
	}
	return "unknown"
}

type Position struct {
	Line   int
	Column int
}

type Token struct {
	Type     TokenType
	Value    string
	Position Position
}

const eof = -1

type Lexer struct {
	input     string
	start     int
	pos       int
	width     int
	line      int
	lineStart int
}

func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1}
}

func (l *Lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	if r == '\n' {
		l.line++
		l.lineStart = l.pos
	}
	return r
}

func (l *Lexer) backup() {
	l.pos -= l.width
	if l.width == 1 && l.pos < len(l.input) && l.input[l.pos] == '\n' {
		l.line--
		l.lineStart = strings.LastIndexByte(l.input[:l.pos], '\n') + 1
	}
}

func (l *Lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *Lexer) emit(t TokenType) Token {
	tok := Token{
		Type:  t,
		Value: l.input[l.start:l.pos],
		Position: Position{
			Line:   l.line,
			Column: l.start - l.lineStart + 1,
		},
	}
	l.start = l.pos
	return tok
}

func (l *Lexer) errorf(format string, args ...any) Token {
	tok := Token{
		Type:  TokenError,
		Value: fmt.Sprintf(format, args...),
		Position: Position{
			Line:   l.line,
			Column: l.start - l.lineStart + 1,
		},
	}
	l.start = l.pos
	return tok
}

// NextToken scans and returns the next token, including comments; the
// parser filters those out.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	l.start = l.pos

	switch r := l.next(); {
	case r == eof:
		return l.emit(TokenEOF)
	case r == '{':
		return l.emit(TokenLBrace)
	case r == '}':
		return l.emit(TokenRBrace)
	case r == ':':
		return l.emit(TokenColon)
	case r == ';':
		return l.emit(TokenSemicolon)
	case r == ',':
		return l.emit(TokenComma)
	case r == '=':
		return l.emit(TokenEquals)
	case r == '"':
		return l.lexString()
	case r == '/':
		return l.lexComment()
	case r == '-' || r == '+' || unicode.IsDigit(r):
		return l.lexNumber()
	case unicode.IsLetter(r) || r == '_':
		return l.lexIdentifier()
	default:
		return l.errorf("unexpected character %q", r)
	}
}

func (l *Lexer) skipWhitespace() {
	for {
		r := l.next()
		if r == eof {
			return
		}
		if !unicode.IsSpace(r) {
			l.backup()
			return
		}
	}
}

func (l *Lexer) lexIdentifier() Token {
	for {
		r := l.next()
		if r == eof {
			break
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			l.backup()
			break
		}
	}
	return l.emit(TokenIdentifier)
}

// lexNumber accepts decimal and float literals plus 0x-hex.
func (l *Lexer) lexNumber() Token {
	if l.input[l.start] == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.next()
		for isHexDigit(l.peek()) {
			l.next()
		}
		return l.emit(TokenNumber)
	}
	for {
		r := l.next()
		if r == eof {
			break
		}
		if !unicode.IsDigit(r) && r != '.' {
			l.backup()
			break
		}
	}
	return l.emit(TokenNumber)
}

// lexString consumes to the closing quote; the quotes stay part of the
// token value.
func (l *Lexer) lexString() Token {
	for {
		r := l.next()
		if r == eof {
			return l.errorf("unterminated string")
		}
		if r == '"' {
			break
		}
	}
	return l.emit(TokenString)
}

func (l *Lexer) lexComment() Token {
	switch l.peek() {
	case '/':
		for {
			r := l.next()
			if r == eof {
				break
			}
			if r == '\n' {
				l.backup()
				break
			}
		}
		return l.emit(TokenComment)
	case '*':
		l.next()
		for {
			r := l.next()
			if r == eof {
				return l.errorf("unterminated comment")
			}
			if r == '*' && l.peek() == '/' {
				l.next()
				break
			}
		}
		return l.emit(TokenComment)
	default:
		return l.errorf("unexpected character '/'")
	}
}

func isHexDigit(r rune) bool {
	return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
