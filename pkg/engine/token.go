package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// TokenKind identifies the variant held by a Token.
type TokenKind int

const (
	// TokenInvalid is the zero value, produced by failed lookups.
	TokenInvalid TokenKind = iota
	// TokenBool holds a boolean.
	TokenBool
	// TokenInt holds a signed integer and its declared base.
	TokenInt
	// TokenString holds free text.
	TokenString
	// TokenSymbol names another item.
	TokenSymbol
)

// String returns the lowercase name of the kind.
func (k TokenKind) String() string {
	switch k {
	case TokenBool:
		return "bool"
	case TokenInt:
		return "int"
	case TokenString:
		return "string"
	case TokenSymbol:
		return "symbol"
	default:
		return "invalid"
	}
}

// Token is a typed value. Only the field matching Kind is meaningful.
type Token struct {
	Kind TokenKind `json:"kind"`
	Bool bool      `json:"bool,omitempty"`
	Int  int64     `json:"int,omitempty"`
	// Base is 10 or 16 for integer tokens.
	Base int    `json:"base,omitempty"`
	Text string `json:"text,omitempty"`
}

// BoolToken returns a boolean token.
func BoolToken(v bool) Token {
	return Token{Kind: TokenBool, Bool: v}
}

// IntToken returns an integer token. Any base other than 16 is treated as 10.
func IntToken(v int64, base int) Token {
	if base != 16 {
		base = 10
	}
	return Token{Kind: TokenInt, Int: v, Base: base}
}

// StringToken returns a string token.
func StringToken(s string) Token {
	return Token{Kind: TokenString, Text: s}
}

// SymbolToken returns a token referring to the item named name.
func SymbolToken(name string) Token {
	return Token{Kind: TokenSymbol, Text: name}
}

// InvalidToken returns the invalid token.
func InvalidToken() Token {
	return Token{}
}

// Format renders the token the way it is persisted: booleans as true/false,
// integers in decimal or 0x-prefixed hex, strings and symbols as raw text.
func (t Token) Format() string {
	switch t.Kind {
	case TokenBool:
		return strconv.FormatBool(t.Bool)
	case TokenInt:
		if t.Base == 16 {
			if t.Int < 0 {
				return "-0x" + strconv.FormatInt(-t.Int, 16)
			}
			return "0x" + strconv.FormatInt(t.Int, 16)
		}
		return strconv.FormatInt(t.Int, 10)
	case TokenString, TokenSymbol:
		return t.Text
	default:
		return ""
	}
}

// Source renders the token as it appears in a configuration description.
func (t Token) Source() string {
	if t.Kind == TokenString {
		return strconv.Quote(t.Text)
	}
	return t.Format()
}

// Equal reports whether two tokens hold the same kind and value.
// Integers compare by value regardless of their declared base.
func (t Token) Equal(o Token) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TokenBool:
		return t.Bool == o.Bool
	case TokenInt:
		return t.Int == o.Int
	case TokenString, TokenSymbol:
		return t.Text == o.Text
	default:
		return true
	}
}

// ParseInt parses s as an integer. A 0x prefix always selects hex; otherwise
// the declared base is used.
func ParseInt(s string, base int) (int64, error) {
	s = strings.TrimSpace(s)
	neg := false
	digits := s
	if strings.HasPrefix(digits, "-") {
		neg = true
		digits = digits[1:]
	} else if strings.HasPrefix(digits, "+") {
		digits = digits[1:]
	}
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits = digits[2:]
		base = 16
	}
	if base != 16 {
		base = 10
	}
	if digits == "" {
		return 0, fmt.Errorf("empty integer %q", s)
	}
	v, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		v = -v
	}
	return v, nil
}

// ParseValue converts persisted or user-entered text into a token of the
// same kind as like, keeping like's declared base for integers.
func ParseValue(like Token, s string) (Token, error) {
	switch like.Kind {
	case TokenBool:
		switch s {
		case "true", "y", "yes", "1":
			return BoolToken(true), nil
		case "false", "n", "no", "0":
			return BoolToken(false), nil
		}
		return InvalidToken(), fmt.Errorf("not a boolean: %q", s)
	case TokenInt:
		v, err := ParseInt(s, like.Base)
		if err != nil {
			return InvalidToken(), err
		}
		return IntToken(v, like.Base), nil
	case TokenString:
		return StringToken(s), nil
	default:
		return InvalidToken(), fmt.Errorf("cannot parse a %s value", like.Kind)
	}
}
