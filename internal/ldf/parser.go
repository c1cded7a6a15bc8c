package ldf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/autosar-community/ecucgen/internal/model"
)

// placement is a signal reference inside a frame block, kept unresolved
// until the whole text is consumed so that section order never matters.
type placement struct {
	frame  *model.LINFrame
	signal string
	offset int64
	pos    Position
}

type Parser struct {
	lexer      *Lexer
	buf        []Token
	errors     []error
	network    *model.LINNetwork
	placements []placement
}

func NewParser(name, input string) *Parser {
	return &Parser{
		lexer:   NewLexer(input),
		network: model.NewLINNetwork(name),
	}
}

// Parse parses LIN description text into a network aggregate named name.
func Parse(name, input string) (*model.LINNetwork, error) {
	return NewParser(name, input).Parse()
}

// ParseFile reads one .ldf file (case-insensitive extension) and parses
// it; the network takes the file stem as its name. A master-less file is
// rejected here so it never loads silently unusable.
func ParseFile(path string) (*model.LINNetwork, error) {
	ext := filepath.Ext(path)
	if strings.ToLower(ext) != ".ldf" {
		return nil, &model.ParseError{
			File: path,
			Err:  fmt.Errorf("Unsupported file extension: %s. Expected one of: .ldf", ext),
		}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.ParseError{File: path, Err: err}
	}
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	network, err := Parse(stem, string(content))
	if err != nil {
		return nil, &model.ParseError{File: path, Err: err}
	}
	if _, ok := network.Master(); !ok {
		return nil, &model.ValidationError{Violations: []string{
			fmt.Sprintf("LIN network '%s' must have at least one master node", network.Name),
		}}
	}
	return network, nil
}

func (p *Parser) addError(pos Position, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, fmt.Errorf("%d:%d: %s", pos.Line, pos.Column, msg))
}

func (p *Parser) Errors() []error {
	return p.errors
}

func (p *Parser) fetchToken() Token {
	for {
		tok := p.lexer.NextToken()
		if tok.Type == TokenComment {
			continue
		}
		return tok
	}
}

func (p *Parser) next() Token {
	if len(p.buf) > 0 {
		tok := p.buf[0]
		p.buf = p.buf[1:]
		return tok
	}
	return p.fetchToken()
}

func (p *Parser) peek() Token {
	if len(p.buf) == 0 {
		p.buf = append(p.buf, p.fetchToken())
	}
	return p.buf[0]
}

// Parse consumes the whole description. Sections may appear in any order;
// a missing section leaves its part of the network empty.
func (p *Parser) Parse() (*model.LINNetwork, error) {
	for {
		tok := p.next()
		switch tok.Type {
		case TokenEOF:
			p.resolvePlacements()
			if len(p.errors) > 0 {
				return p.network, p.errors[0]
			}
			return p.network, nil
		case TokenError:
			p.addError(tok.Position, "%s", tok.Value)
			p.resolvePlacements()
			return p.network, p.errors[0]
		case TokenIdentifier:
			p.parseTopLevel(tok)
		case TokenSemicolon:
			// stray separator
		default:
			p.addError(tok.Position, "unexpected token %q", tok.Value)
		}
	}
}

func (p *Parser) parseTopLevel(name Token) {
	switch p.peek().Type {
	case TokenSemicolon:
		// bare marker such as LIN_description_file;
		p.next()
	case TokenEquals:
		p.next()
		p.parseHeaderStatement(name)
	case TokenLBrace:
		p.next()
		p.parseSection(name)
	default:
		p.addError(name.Position, "unexpected token %q after %q", p.peek().Value, name.Value)
		p.next()
	}
}

func (p *Parser) parseHeaderStatement(name Token) {
	value := p.next()
	switch name.Value {
	case "LIN_protocol_version":
		if value.Type == TokenString {
			p.network.ProtocolVersion = strings.Trim(value.Value, `"`)
		} else {
			p.addError(value.Position, "expected string for %s, got %q", name.Value, value.Value)
		}
	case "LIN_language_version":
		if value.Type == TokenString {
			p.network.LanguageVersion = strings.Trim(value.Value, `"`)
		} else {
			p.addError(value.Position, "expected string for %s, got %q", name.Value, value.Value)
		}
	case "LIN_speed":
		if value.Type == TokenNumber {
			if speed, ok := p.floatValue(value); ok {
				p.network.Speed = speed
			}
		} else {
			p.addError(value.Position, "expected number for %s, got %q", name.Value, value.Value)
		}
	default:
		// unknown header keys are tolerated
	}
	p.skipToSemicolon()
}

func (p *Parser) parseSection(name Token) {
	switch name.Value {
	case "Nodes":
		p.parseNodes()
	case "Signals":
		p.parseSignals()
	case "Frames":
		p.parseFrames()
	case "Schedule_tables":
		p.parseScheduleTables()
	default:
		p.skipSection(1)
	}
}

// skipSection discards a balanced brace block for sections this parser
// does not model.
func (p *Parser) skipSection(depth int) {
	for depth > 0 {
		tok := p.next()
		switch tok.Type {
		case TokenLBrace:
			depth++
		case TokenRBrace:
			depth--
		case TokenEOF:
			p.addError(tok.Position, "unexpected end of file inside section")
			return
		case TokenError:
			p.addError(tok.Position, "%s", tok.Value)
			return
		}
	}
}

func (p *Parser) parseNodes() {
	for {
		tok := p.next()
		switch tok.Type {
		case TokenRBrace:
			return
		case TokenEOF, TokenError:
			p.addError(tok.Position, "unexpected end of Nodes section")
			return
		case TokenIdentifier:
			switch tok.Value {
			case "Master":
				if _, ok := p.expect(TokenColon); !ok {
					p.skipToSemicolon()
					continue
				}
				name, ok := p.identifier()
				if !ok {
					p.skipToSemicolon()
					continue
				}
				p.network.AddNode(model.NewLINNode(name, model.LINMaster))
				// time base and jitter values are not modeled
				p.skipToSemicolon()
			case "Slaves":
				if _, ok := p.expect(TokenColon); !ok {
					p.skipToSemicolon()
					continue
				}
				for {
					name, ok := p.identifier()
					if !ok {
						break
					}
					p.network.AddNode(model.NewLINNode(name, model.LINSlave))
					if p.peek().Type != TokenComma {
						break
					}
					p.next()
				}
				p.skipToSemicolon()
			default:
				p.addError(tok.Position, "unexpected entry %q in Nodes section", tok.Value)
				p.skipToSemicolon()
			}
		default:
			p.addError(tok.Position, "unexpected token %q in Nodes section", tok.Value)
		}
	}
}

func (p *Parser) parseSignals() {
	for {
		tok := p.next()
		switch tok.Type {
		case TokenRBrace:
			return
		case TokenEOF, TokenError:
			p.addError(tok.Position, "unexpected end of Signals section")
			return
		case TokenIdentifier:
			p.parseSignal(tok)
		default:
			p.addError(tok.Position, "unexpected token %q in Signals section", tok.Value)
		}
	}
}

// parseSignal handles one `name: size, init, publisher, subscriber*;`
// declaration.
func (p *Parser) parseSignal(name Token) {
	if _, ok := p.expect(TokenColon); !ok {
		p.skipToSemicolon()
		return
	}
	sizeTok, ok := p.number()
	if !ok {
		p.skipToSemicolon()
		return
	}
	size, ok := p.intValue(sizeTok)
	if !ok {
		p.skipToSemicolon()
		return
	}
	if _, ok := p.expect(TokenComma); !ok {
		p.skipToSemicolon()
		return
	}
	initTok, ok := p.number()
	if !ok {
		p.skipToSemicolon()
		return
	}
	initValue, ok := p.intValue(initTok)
	if !ok {
		p.skipToSemicolon()
		return
	}
	if _, ok := p.expect(TokenComma); !ok {
		p.skipToSemicolon()
		return
	}
	publisher, ok := p.identifier()
	if !ok {
		p.skipToSemicolon()
		return
	}

	signal, err := model.NewLINSignal(name.Value, 0, int(size))
	if err != nil {
		p.addError(name.Position, "%v", err)
		p.skipToSemicolon()
		return
	}
	signal.InitValue = initValue
	signal.Publisher = publisher
	for p.peek().Type == TokenComma {
		p.next()
		sub, ok := p.identifier()
		if !ok {
			break
		}
		signal.Subscribers = append(signal.Subscribers, sub)
	}
	p.skipToSemicolon()
	p.network.AddSignal(signal)
}

func (p *Parser) parseFrames() {
	for {
		tok := p.next()
		switch tok.Type {
		case TokenRBrace:
			return
		case TokenEOF, TokenError:
			p.addError(tok.Position, "unexpected end of Frames section")
			return
		case TokenIdentifier:
			p.parseFrame(tok)
		default:
			p.addError(tok.Position, "unexpected token %q in Frames section", tok.Value)
		}
	}
}

// parseFrame handles one `name: id, publisher, length { signal, offset; … }`
// block.
func (p *Parser) parseFrame(name Token) {
	if _, ok := p.expect(TokenColon); !ok {
		p.skipToSemicolon()
		return
	}
	idTok, ok := p.number()
	if !ok {
		p.skipToSemicolon()
		return
	}
	id, ok := p.uintValue(idTok)
	if !ok {
		p.skipToSemicolon()
		return
	}
	if _, ok := p.expect(TokenComma); !ok {
		p.skipToSemicolon()
		return
	}
	publisher, ok := p.identifier()
	if !ok {
		p.skipToSemicolon()
		return
	}
	if _, ok := p.expect(TokenComma); !ok {
		p.skipToSemicolon()
		return
	}
	lenTok, ok := p.number()
	if !ok {
		p.skipToSemicolon()
		return
	}
	length, ok := p.intValue(lenTok)
	if !ok {
		p.skipToSemicolon()
		return
	}

	frame, err := model.NewLINFrame(name.Value, id, publisher, int(length))
	if err != nil {
		p.addError(name.Position, "%v", err)
		// the body still has to be consumed to stay in sync
	}
	if _, ok := p.expect(TokenLBrace); !ok {
		p.skipToSemicolon()
		return
	}
	for {
		tok := p.next()
		switch tok.Type {
		case TokenRBrace:
			if frame != nil {
				p.network.AddFrame(frame)
			}
			return
		case TokenEOF, TokenError:
			p.addError(tok.Position, "unexpected end of frame %q", name.Value)
			return
		case TokenIdentifier:
			sigName := tok.Value
			if _, ok := p.expect(TokenComma); !ok {
				p.skipToSemicolon()
				continue
			}
			offTok, ok := p.number()
			if !ok {
				p.skipToSemicolon()
				continue
			}
			offset, ok := p.intValue(offTok)
			if !ok {
				p.skipToSemicolon()
				continue
			}
			p.skipToSemicolon()
			if frame == nil {
				continue
			}
			p.placements = append(p.placements, placement{
				frame:  frame,
				signal: sigName,
				offset: offset,
				pos:    offTok.Position,
			})
		default:
			p.addError(tok.Position, "unexpected token %q in frame %q", tok.Value, name.Value)
		}
	}
}

func (p *Parser) parseScheduleTables() {
	for {
		tok := p.next()
		switch tok.Type {
		case TokenRBrace:
			return
		case TokenEOF, TokenError:
			p.addError(tok.Position, "unexpected end of Schedule_tables section")
			return
		case TokenIdentifier:
			p.parseScheduleTable(tok)
		default:
			p.addError(tok.Position, "unexpected token %q in Schedule_tables section", tok.Value)
		}
	}
}

// parseScheduleTable handles one `name { frame delay <ms> ms; … }` block.
// Entry positions follow appearance order.
func (p *Parser) parseScheduleTable(name Token) {
	if _, ok := p.expect(TokenLBrace); !ok {
		return
	}
	table := model.NewScheduleTable(name.Value)
	for {
		tok := p.next()
		switch tok.Type {
		case TokenRBrace:
			p.network.AddScheduleTable(table)
			return
		case TokenEOF, TokenError:
			p.addError(tok.Position, "unexpected end of schedule table %q", name.Value)
			return
		case TokenIdentifier:
			frameName := tok.Value
			kw := p.next()
			if kw.Type != TokenIdentifier || kw.Value != "delay" {
				p.addError(kw.Position, "expected 'delay', got %q", kw.Value)
				p.skipToSemicolon()
				continue
			}
			delayTok, ok := p.number()
			if !ok {
				p.skipToSemicolon()
				continue
			}
			delay, ok := p.floatValue(delayTok)
			if !ok {
				p.skipToSemicolon()
				continue
			}
			// trailing unit word
			p.skipToSemicolon()
			table.AddEntry(frameName, delay)
		default:
			p.addError(tok.Position, "unexpected token %q in schedule table %q", tok.Value, name.Value)
		}
	}
}

// resolvePlacements turns the recorded frame/signal references into
// position-specific signal copies. A reference to an undeclared signal is
// dropped.
func (p *Parser) resolvePlacements() {
	for _, pl := range p.placements {
		base, ok := p.network.SignalByName(pl.signal)
		if !ok {
			continue
		}
		placed, err := base.CopyAt(int(pl.offset))
		if err != nil {
			p.addError(pl.pos, "%v", err)
			continue
		}
		pl.frame.AddSignal(placed)
	}
}

// Helpers

func (p *Parser) expect(t TokenType) (Token, bool) {
	tok := p.next()
	if tok.Type != t {
		p.addError(tok.Position, "expected %s, got %q", t, tok.Value)
		return tok, false
	}
	return tok, true
}

func (p *Parser) identifier() (string, bool) {
	tok := p.next()
	if tok.Type != TokenIdentifier {
		p.addError(tok.Position, "expected identifier, got %q", tok.Value)
		return "", false
	}
	return tok.Value, true
}

func (p *Parser) number() (Token, bool) {
	tok := p.next()
	if tok.Type != TokenNumber {
		p.addError(tok.Position, "expected number, got %q", tok.Value)
		return tok, false
	}
	return tok, true
}

func (p *Parser) intValue(tok Token) (int64, bool) {
	v, err := strconv.ParseInt(tok.Value, 0, 64)
	if err != nil {
		p.addError(tok.Position, "invalid number %q", tok.Value)
		return 0, false
	}
	return v, true
}

func (p *Parser) uintValue(tok Token) (uint32, bool) {
	v, err := strconv.ParseUint(tok.Value, 0, 32)
	if err != nil {
		p.addError(tok.Position, "invalid number %q", tok.Value)
		return 0, false
	}
	return uint32(v), true
}

func (p *Parser) floatValue(tok Token) (float64, bool) {
	v, err := strconv.ParseFloat(tok.Value, 64)
	if err != nil {
		p.addError(tok.Position, "invalid number %q", tok.Value)
		return 0, false
	}
	return v, true
}

// skipToSemicolon makes progress past a malformed or unmodeled statement.
// It stops short of section ends so one bad line never eats a section.
func (p *Parser) skipToSemicolon() {
	for {
		switch p.peek().Type {
		case TokenSemicolon:
			p.next()
			return
		case TokenEOF, TokenRBrace, TokenError:
			return
		}
		p.next()
	}
}
