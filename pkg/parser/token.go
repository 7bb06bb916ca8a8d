package parser

import "fmt"

// TokenType identifies a lexical token.
type TokenType string

const (
	TokIllegal TokenType = "ILLEGAL"
	TokEOF     TokenType = "EOF"

	TokIdent  TokenType = "IDENT"
	TokString TokenType = "STRING"
	TokInt    TokenType = "INT"

	// Operators
	TokAnd    TokenType = "&&"
	TokOr     TokenType = "||"
	TokNot    TokenType = "!"
	TokEq     TokenType = "=="
	TokNotEq  TokenType = "!="
	TokLParen TokenType = "("
	TokRParen TokenType = ")"

	// Statements
	TokMenu      TokenType = "menu"
	TokEndMenu   TokenType = "endmenu"
	TokConfig    TokenType = "config"
	TokChoice    TokenType = "choice"
	TokEndChoice TokenType = "endchoice"
	TokInclude   TokenType = "include"

	// Attributes
	TokPrompt  TokenType = "prompt"
	TokDepends TokenType = "depends"
	TokOn      TokenType = "on"
	TokSelect  TokenType = "select"
	TokHelp    TokenType = "help"
	TokOption  TokenType = "option"
	TokDefault TokenType = "default"
	TokIf      TokenType = "if"

	// Types
	TokBoolType   TokenType = "bool"
	TokIntType    TokenType = "int"
	TokHexType    TokenType = "hex"
	TokStringType TokenType = "string"

	// Boolean literals
	TokTrue  TokenType = "true"
	TokFalse TokenType = "false"
)

var keywords = map[string]TokenType{
	"menu":      TokMenu,
	"endmenu":   TokEndMenu,
	"config":    TokConfig,
	"choice":    TokChoice,
	"endchoice": TokEndChoice,
	"include":   TokInclude,
	"prompt":    TokPrompt,
	"depends":   TokDepends,
	"on":        TokOn,
	"select":    TokSelect,
	"help":      TokHelp,
	"option":    TokOption,
	"default":   TokDefault,
	"if":        TokIf,
	"bool":      TokBoolType,
	"int":       TokIntType,
	"hex":       TokHexType,
	"string":    TokStringType,
	"true":      TokTrue,
	"false":     TokFalse,
}

// LookupIdent returns the keyword type of ident, or TokIdent.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokIdent
}

// Token is a lexeme with its position. For strings, Lexeme holds the
// unquoted, unescaped text.
type Token struct {
	Type   TokenType
	Lexeme string
	File   string
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %s:%d:%d", t.Type, t.Lexeme, t.File, t.Line, t.Column)
}

// describe names the token for error messages.
func (t Token) describe() string {
	switch t.Type {
	case TokEOF:
		return "end of file"
	case TokIdent:
		return "symbol " + t.Lexeme
	case TokString:
		return fmt.Sprintf("string %q", t.Lexeme)
	case TokInt:
		return "integer " + t.Lexeme
	case TokIllegal:
		return t.Lexeme
	default:
		return fmt.Sprintf("%q", string(t.Type))
	}
}
