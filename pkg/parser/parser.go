package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openfroyo/uconfig/pkg/engine"
)

// SyntaxError reports a problem at a position in a configuration description.
type SyntaxError struct {
	File   string
	Line   int
	Column int
	Msg    string
	// Err is the construction error raised by the engine, if any.
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

// Unwrap returns the underlying engine error.
func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Parser reduces one configuration description into calls on an engine.Builder.
type Parser struct {
	l         *Lexer
	b         *engine.Builder
	curToken  Token
	peekToken Token

	// depth counts menus opened by this file, which must all be closed in it.
	depth int
}

// NewParser creates a parser reading from l and building into b at b's
// current menu.
func NewParser(l *Lexer, b *engine.Builder) *Parser {
	p := &Parser{l: l, b: b}
	// Load two tokens so cur/peek are valid.
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses src, named filename in positions, into b.
func Parse(filename, src string, b *engine.Builder) error {
	return NewParser(NewLexer(src, filename), b).ParseFile()
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) errorf(tok Token, format string, args ...interface{}) error {
	return &SyntaxError{
		File:   tok.File,
		Line:   tok.Line,
		Column: tok.Column,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// wrap attaches the position of tok to an engine construction error.
func (p *Parser) wrap(tok Token, err error) error {
	msg := err.Error()
	var ee *engine.EngineError
	if errors.As(err, &ee) {
		msg = ee.Message
	}
	return &SyntaxError{File: tok.File, Line: tok.Line, Column: tok.Column, Msg: msg, Err: err}
}

func (p *Parser) expect(typ TokenType, what string) (Token, error) {
	tok := p.curToken
	if tok.Type == TokIllegal {
		return tok, p.errorf(tok, "%s", tok.Lexeme)
	}
	if tok.Type != typ {
		return tok, p.errorf(tok, "expected %s, found %s", what, tok.describe())
	}
	p.nextToken()
	return tok, nil
}

// ParseFile parses statements until end of input.
func (p *Parser) ParseFile() error {
	for p.curToken.Type != TokEOF {
		if p.curToken.Type == TokEndMenu {
			if p.depth == 0 {
				return p.errorf(p.curToken, "endmenu without matching menu")
			}
			if err := p.b.PopMenu(); err != nil {
				return p.wrap(p.curToken, err)
			}
			p.depth--
			p.nextToken()
			continue
		}
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
	if p.depth > 0 {
		return p.errorf(p.curToken, "missing endmenu for %d open menu(s)", p.depth)
	}
	return nil
}

func (p *Parser) parseStatement() error {
	switch p.curToken.Type {
	case TokMenu:
		return p.parseMenu()
	case TokConfig:
		return p.parseConfig()
	case TokChoice:
		return p.parseChoice()
	case TokInclude:
		p.nextToken()
		tok, err := p.expect(TokString, "file name")
		if err != nil {
			return err
		}
		p.b.AddConfigFile(tok.Lexeme)
		return nil
	case TokIllegal:
		return p.errorf(p.curToken, "%s", p.curToken.Lexeme)
	default:
		return p.errorf(p.curToken, "expected menu, config, choice or include, found %s", p.curToken.describe())
	}
}

func (p *Parser) parseMenu() error {
	p.nextToken()
	prompt, err := p.expect(TokString, "menu prompt")
	if err != nil {
		return err
	}

	var dep *engine.Expr
	for p.curToken.Type == TokDepends {
		e, err := p.parseDependsOn()
		if err != nil {
			return err
		}
		dep = engine.Conjoin(dep, e)
	}

	p.b.PushMenu(prompt.Lexeme, dep)
	p.depth++
	return nil
}

// parseDependsOn parses "depends on EXPR".
func (p *Parser) parseDependsOn() (*engine.Expr, error) {
	p.nextToken()
	if _, err := p.expect(TokOn, `"on"`); err != nil {
		return nil, err
	}
	return p.parseExpr()
}

type configEntry struct {
	prompt  string
	value   *engine.Token
	selects []string
	dep     *engine.Expr
	help    string
}

func (p *Parser) parseConfig() error {
	start := p.curToken
	p.nextToken()
	sym, err := p.expect(TokIdent, "config symbol")
	if err != nil {
		return err
	}

	var entry configEntry
	for done := false; !done; {
		switch p.curToken.Type {
		case TokPrompt:
			p.nextToken()
			tok, err := p.expect(TokString, "prompt text")
			if err != nil {
				return err
			}
			entry.prompt = tok.Lexeme
		case TokHelp:
			p.nextToken()
			tok, err := p.expect(TokString, "help text")
			if err != nil {
				return err
			}
			entry.help = tok.Lexeme
		case TokDepends:
			e, err := p.parseDependsOn()
			if err != nil {
				return err
			}
			entry.dep = engine.Conjoin(entry.dep, e)
		case TokSelect:
			p.nextToken()
			tok, err := p.expect(TokIdent, "select symbol")
			if err != nil {
				return err
			}
			entry.selects = append(entry.selects, tok.Lexeme)
		case TokBoolType, TokIntType, TokHexType, TokStringType:
			if entry.value != nil {
				return p.errorf(p.curToken, "config %s declares more than one type", sym.Lexeme)
			}
			v, err := p.parseTypedValue()
			if err != nil {
				return err
			}
			entry.value = &v
		default:
			done = true
		}
	}

	if entry.value == nil {
		return p.errorf(start, "config %s has no bool, int, hex or string value", sym.Lexeme)
	}
	if _, err := p.b.AddConfigEntry(entry.prompt, sym.Lexeme, *entry.value, entry.selects, entry.dep, entry.help); err != nil {
		return p.wrap(sym, err)
	}
	return nil
}

// parseTypedValue parses "bool BOOL", "int INT", "hex INT" or "string STRING".
func (p *Parser) parseTypedValue() (engine.Token, error) {
	typ := p.curToken.Type
	p.nextToken()
	tok := p.curToken

	switch typ {
	case TokBoolType:
		switch tok.Type {
		case TokTrue, TokFalse:
			p.nextToken()
			return engine.BoolToken(tok.Type == TokTrue), nil
		}
		return engine.InvalidToken(), p.errorf(tok, "expected true or false, found %s", tok.describe())
	case TokIntType, TokHexType:
		base := 10
		if typ == TokHexType {
			base = 16
		}
		if tok.Type != TokInt {
			return engine.InvalidToken(), p.errorf(tok, "expected integer, found %s", tok.describe())
		}
		v, err := engine.ParseInt(tok.Lexeme, base)
		if err != nil {
			return engine.InvalidToken(), p.errorf(tok, "invalid integer %s", tok.Lexeme)
		}
		p.nextToken()
		return engine.IntToken(v, base), nil
	default:
		s, err := p.expect(TokString, "string value")
		if err != nil {
			return engine.InvalidToken(), err
		}
		return engine.StringToken(s.Lexeme), nil
	}
}

func (p *Parser) parseChoice() error {
	p.nextToken()
	sym, err := p.expect(TokIdent, "choice symbol")
	if err != nil {
		return err
	}

	var (
		prompt, help string
		dep          *engine.Expr
		options      []*engine.ExtendedToken
	)
	for p.curToken.Type != TokEndChoice {
		switch p.curToken.Type {
		case TokPrompt:
			p.nextToken()
			tok, err := p.expect(TokString, "prompt text")
			if err != nil {
				return err
			}
			prompt = tok.Lexeme
		case TokHelp:
			p.nextToken()
			tok, err := p.expect(TokString, "help text")
			if err != nil {
				return err
			}
			help = tok.Lexeme
		case TokDepends:
			e, err := p.parseDependsOn()
			if err != nil {
				return err
			}
			dep = engine.Conjoin(dep, e)
		case TokOption:
			opt, err := p.parseOption()
			if err != nil {
				return err
			}
			options = append(options, opt)
		case TokEOF:
			return p.errorf(p.curToken, "choice %s is missing endchoice", sym.Lexeme)
		default:
			return p.errorf(p.curToken, "unexpected %s in choice %s", p.curToken.describe(), sym.Lexeme)
		}
	}
	p.nextToken()

	if _, err := p.b.AddChoiceEntry(prompt, sym.Lexeme, options, dep, help); err != nil {
		return p.wrap(sym, err)
	}
	return nil
}

// parseOption parses "option (INT | STRING) [default] [if EXPR]".
func (p *Parser) parseOption() (*engine.ExtendedToken, error) {
	p.nextToken()
	tok := p.curToken

	var value engine.Token
	switch tok.Type {
	case TokInt:
		v, err := p.intLiteral(tok)
		if err != nil {
			return nil, err
		}
		value = v
	case TokString:
		value = engine.StringToken(tok.Lexeme)
	default:
		return nil, p.errorf(tok, "expected integer or string option, found %s", tok.describe())
	}
	p.nextToken()

	isDefault := false
	if p.curToken.Type == TokDefault {
		isDefault = true
		p.nextToken()
	}

	var cond *engine.Expr
	if p.curToken.Type == TokIf {
		p.nextToken()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		cond = e
	}

	return engine.NewOption(value, isDefault, cond), nil
}

// parseExpr parses an OR-expression. && binds tighter than ||, ! tighter than both.
func (p *Parser) parseExpr() (*engine.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.curToken.Type == TokOr {
		p.nextToken()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = engine.Or(left, right)
	}
	return left, nil
}

func (p *Parser) parseAnd() (*engine.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.curToken.Type == TokAnd {
		p.nextToken()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = engine.And(left, right)
	}
	return left, nil
}

func (p *Parser) parseUnary() (*engine.Expr, error) {
	switch p.curToken.Type {
	case TokNot:
		p.nextToken()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return engine.Not(e), nil
	case TokLParen:
		p.nextToken()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, `")"`); err != nil {
			return nil, err
		}
		return e, nil
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	switch p.curToken.Type {
	case TokEq, TokNotEq:
		op := p.curToken.Type
		p.nextToken()
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if op == TokEq {
			return engine.Equal(left, right), nil
		}
		return engine.NotEqual(left, right), nil
	}
	return engine.Literal(left), nil
}

func (p *Parser) parseOperand() (engine.Token, error) {
	tok := p.curToken
	switch tok.Type {
	case TokIdent:
		p.nextToken()
		return engine.SymbolToken(tok.Lexeme), nil
	case TokTrue, TokFalse:
		p.nextToken()
		return engine.BoolToken(tok.Type == TokTrue), nil
	case TokString:
		p.nextToken()
		return engine.StringToken(tok.Lexeme), nil
	case TokInt:
		v, err := p.intLiteral(tok)
		if err != nil {
			return engine.InvalidToken(), err
		}
		p.nextToken()
		return v, nil
	case TokIllegal:
		return engine.InvalidToken(), p.errorf(tok, "%s", tok.Lexeme)
	default:
		return engine.InvalidToken(), p.errorf(tok, "expected symbol or value, found %s", tok.describe())
	}
}

// intLiteral converts an integer token; a 0x prefix makes it a hex value.
func (p *Parser) intLiteral(tok Token) (engine.Token, error) {
	base := 10
	if strings.Contains(strings.ToLower(tok.Lexeme), "0x") {
		base = 16
	}
	v, err := engine.ParseInt(tok.Lexeme, base)
	if err != nil {
		return engine.InvalidToken(), p.errorf(tok, "invalid integer %s", tok.Lexeme)
	}
	return engine.IntToken(v, base), nil
}
