package lexer

import "strings"

// keywords maps every Ada 83 reserved word, in lower case, to its token
// Kind. Lookup lower-cases the candidate lexeme first, matching spec §3's
// "reserved-word recognition is case-insensitive".
var keywords = map[string]Kind{
	"abort": ABORT, "abs": ABS, "accept": ACCEPT, "access": ACCESS,
	"all": ALL, "and": AND, "array": ARRAY, "at": AT,
	"begin": BEGIN, "body": BODY,
	"case": CASE, "constant": CONSTANT,
	"declare": DECLARE, "delay": DELAY, "delta": DELTA, "digits": DIGITS, "do": DO,
	"else": ELSE, "elsif": ELSIF, "end": END, "entry": ENTRY, "exception": EXCEPTION, "exit": EXIT,
	"for": FOR, "function": FUNCTION,
	"generic": GENERIC, "goto": GOTO,
	"if": IF, "in": IN, "is": IS,
	"limited": LIMITED, "loop": LOOP,
	"mod": MOD,
	"new": NEW, "not": NOT, "null": NULL,
	"of": OF, "or": OR, "others": OTHERS, "out": OUT,
	"package": PACKAGE, "pragma": PRAGMA, "private": PRIVATE, "procedure": PROCEDURE,
	"raise": RAISE, "range": RANGE, "record": RECORD, "rem": REM, "renames": RENAMES,
	"return": RETURN, "reverse": REVERSE,
	"select": SELECT, "separate": SEPARATE, "subtype": SUBTYPE,
	"task": TASK, "terminate": TERMINATE, "then": THEN, "type": TYPE,
	"use": USE,
	"when": WHEN, "while": WHILE, "with": WITH,
	"xor": XOR,
}

// keywordSpelling is the inverse of keywords, used for diagnostics and
// token-stream pretty printing.
var keywordSpelling = func() map[Kind]string {
	m := make(map[Kind]string, len(keywords))
	for s, k := range keywords {
		m[k] = s
	}
	return m
}()

// lookupKeyword reports the Kind for a scanned word, case-insensitively,
// and whether it is a reserved word at all.
func lookupKeyword(word string) (Kind, bool) {
	k, ok := keywords[strings.ToLower(word)]
	return k, ok
}
