// Package lexer turns Ada 83 source text into a stream of tokens. It
// follows the teacher's state-function scanner design (see
// src/frontend/lexer.go / lexerStates.go): a goroutine walks the rune
// stream and emits items on a channel while the parser or test harness
// drains it one token at a time.
package lexer

import (
	"fmt"

	"github.com/AdaDoom3/Ada83-sub000/internal/bignum"
)

// Kind differentiates the roughly 100 token variants spec §3 calls for:
// delimiters, operators, reserved words, and literal categories.
type Kind int

const (
	EOF Kind = iota
	ERR

	IDENTIFIER
	INTEGER_LITERAL
	REAL_LITERAL
	BASED_LITERAL
	CHARACTER_LITERAL
	STRING_LITERAL

	// Delimiters and compound operators.
	DOT
	COMMA
	SEMICOLON
	COLON
	LPAREN
	RPAREN
	APOSTROPHE // tick, disambiguated against CHARACTER_LITERAL by the lexer.
	VBAR
	ARROW      // =>
	DOTDOT     // ..
	ASSIGN     // :=
	LLT        // <<
	GGT        // >>
	BOX        // <>
	EXPON      // **
	LE         // <=
	GE         // >=
	NE         // /=
	EQ
	LT
	GT
	PLUS
	MINUS
	AMP // &
	STAR
	SLASH

	// Reserved words. Ada is case-insensitive; the keyword table in
	// keywords.go maps every casing back to these.
	ABORT
	ABS
	ACCEPT
	ACCESS
	ALL
	AND
	ARRAY
	AT
	BEGIN
	BODY
	CASE
	CONSTANT
	DECLARE
	DELAY
	DELTA
	DIGITS
	DO
	ELSE
	ELSIF
	END
	ENTRY
	EXCEPTION
	EXIT
	FOR
	FUNCTION
	GENERIC
	GOTO
	IF
	IN
	IS
	LIMITED
	LOOP
	MOD
	NEW
	NOT
	NULL
	OF
	OR
	OTHERS
	OUT
	PACKAGE
	PRAGMA
	PRIVATE
	PROCEDURE
	RAISE
	RANGE
	RECORD
	REM
	RENAMES
	RETURN
	REVERSE
	SELECT
	SEPARATE
	SUBTYPE
	TASK
	TERMINATE
	THEN
	TYPE
	USE
	WHEN
	WHILE
	WITH
	XOR

	// Fused compound keywords (spec §3): produced by one-token lookahead
	// fusion when the lexer scans an AND or OR keyword.
	AND_THEN
	OR_ELSE
)

var kindNames = map[Kind]string{
	EOF: "EOF", ERR: "ERR", IDENTIFIER: "identifier",
	INTEGER_LITERAL: "integer literal", REAL_LITERAL: "real literal",
	BASED_LITERAL: "based literal", CHARACTER_LITERAL: "character literal",
	STRING_LITERAL: "string literal",
	DOT:            ".", COMMA: ",", SEMICOLON: ";", COLON: ":",
	LPAREN: "(", RPAREN: ")", APOSTROPHE: "'", VBAR: "|",
	ARROW: "=>", DOTDOT: "..", ASSIGN: ":=", LLT: "<<", GGT: ">>",
	BOX: "<>", EXPON: "**", LE: "<=", GE: ">=", NE: "/=",
	EQ: "=", LT: "<", GT: ">", PLUS: "+", MINUS: "-", AMP: "&",
	STAR: "*", SLASH: "/",
	AND_THEN: "and then", OR_ELSE: "or else",
}

// String renders the kind's canonical Ada spelling, falling back to the
// reserved-word table for keyword kinds.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	if s, ok := keywordSpelling[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a single lexeme with its source location and, for numeric
// literals, both an int64 evaluation (when it fits) and a big-integer
// evaluation (spec §3).
type Token struct {
	Kind     Kind
	Text     string // Lexeme text as it appeared in source; for STRING_LITERAL the contents without delimiters (doubled delimiters collapsed), for ERR the error message.
	File     string
	Line     int
	Col      int
	IntValue int64      // Valid when Kind == INTEGER_LITERAL/BASED_LITERAL and fits.
	BigValue bignum.Int // Always valid for INTEGER_LITERAL/BASED_LITERAL.
	HasI64   bool       // True if IntValue holds a faithful evaluation.
	CodePoint rune      // Valid when Kind == CHARACTER_LITERAL.
}

// Pos renders "file:line:col" the way every diagnostic in spec §7 is
// prefixed.
func (t Token) Pos() string {
	return fmt.Sprintf("%s:%d:%d", t.File, t.Line, t.Col)
}

func (t Token) String() string {
	if len(t.Text) > 10 {
		return fmt.Sprintf("%.10q... (%s)", t.Text, t.Pos())
	}
	return fmt.Sprintf("%q (%s)", t.Text, t.Pos())
}
