// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines the tokens of the block language.
package token

// Token represents a block-language token type.
type Token int

const (
	EOF Token = iota
	NEWLINE
	INDENT
	DEDENT

	// Literals
	NAME
	NUMBER
	STRING

	// Delimiters and operators
	LPAREN // (
	RPAREN // )
	LBRACK // [
	RBRACK // ]
	COMMA  // ,
	COLON  // :
	ASSIGN // =
	EQ     // ==
	NE     // !=
	PLUS   // +
	AT     // @

	// Keywords
	DEF
	RETURN
	IF
	ELIF
	ELSE
	WITH
	PASS
	NOT
	AND
	OR
	NONE
	TRUE
	FALSE
)

var keywords = map[string]Token{
	"def":    DEF,
	"return": RETURN,
	"if":     IF,
	"elif":   ELIF,
	"else":   ELSE,
	"with":   WITH,
	"pass":   PASS,
	"not":    NOT,
	"and":    AND,
	"or":     OR,
	"None":   NONE,
	"True":   TRUE,
	"False":  FALSE,
}

// Lookup returns the keyword token for name, or NAME.
func Lookup(name string) Token {
	if t, ok := keywords[name]; ok {
		return t
	}
	return NAME
}

// Delimiter returns the token for a single-rune delimiter, or EOF if r is
// not one.
func Delimiter(r rune) Token {
	switch r {
	case '(':
		return LPAREN
	case ')':
		return RPAREN
	case '[':
		return LBRACK
	case ']':
		return RBRACK
	case ',':
		return COMMA
	case ':':
		return COLON
	case '+':
		return PLUS
	case '@':
		return AT
	}
	return EOF
}

var names = [...]string{
	EOF:     "EOF",
	NEWLINE: "NEWLINE",
	INDENT:  "INDENT",
	DEDENT:  "DEDENT",
	NAME:    "NAME",
	NUMBER:  "NUMBER",
	STRING:  "STRING",
	LPAREN:  "(",
	RPAREN:  ")",
	LBRACK:  "[",
	RBRACK:  "]",
	COMMA:   ",",
	COLON:   ":",
	ASSIGN:  "=",
	EQ:      "==",
	NE:      "!=",
	PLUS:    "+",
	AT:      "@",
	DEF:     "def",
	RETURN:  "return",
	IF:      "if",
	ELIF:    "elif",
	ELSE:    "else",
	WITH:    "with",
	PASS:    "pass",
	NOT:     "not",
	AND:     "and",
	OR:      "or",
	NONE:    "None",
	TRUE:    "True",
	FALSE:   "False",
}

// String returns the string representation of a token.
func (t Token) String() string {
	if t >= 0 && int(t) < len(names) {
		return names[t]
	}
	return "UNKNOWN"
}

// IsKeyword returns true for reserved words.
func (t Token) IsKeyword() bool {
	return t >= DEF && t <= FALSE
}

// EndsLine returns true for tokens after which a statement may not continue.
func (t Token) EndsLine() bool {
	switch t {
	case NEWLINE, EOF, DEDENT:
		return true
	}
	return false
}
