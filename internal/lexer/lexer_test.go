package lexer

import "testing"

// tok is a minimal expectation, mirroring the teacher's own lexer_test.go
// table of {val, typ, line, pos} tuples.
type tok struct {
	kind Kind
	text string
}

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	l := New("t.adb", src)
	go l.Run()
	var toks []Token
	for {
		tk := l.Next()
		if tk.Kind == EOF {
			break
		}
		if tk.Kind == ERR {
			t.Fatalf("lex error: %s", tk.Text)
		}
		toks = append(toks, tk)
	}
	return toks
}

func TestLexerHelloProcedure(t *testing.T) {
	src := `with Ada.Text_IO; use Ada.Text_IO;
procedure Hello is begin Put_Line("Hello, World!"); end;`

	exp := []tok{
		{WITH, "with"}, {IDENTIFIER, "Ada"}, {DOT, "."}, {IDENTIFIER, "Text_IO"}, {SEMICOLON, ";"},
		{USE, "use"}, {IDENTIFIER, "Ada"}, {DOT, "."}, {IDENTIFIER, "Text_IO"}, {SEMICOLON, ";"},
		{PROCEDURE, "procedure"}, {IDENTIFIER, "Hello"}, {IS, "is"}, {BEGIN, "begin"},
		{IDENTIFIER, "Put_Line"}, {LPAREN, "("}, {STRING_LITERAL, "Hello, World!"}, {RPAREN, ")"}, {SEMICOLON, ";"},
		{END, "end"}, {SEMICOLON, ";"},
	}

	got := scanAll(t, src)
	if len(got) != len(exp) {
		t.Fatalf("expected %d tokens, got %d: %v", len(exp), len(got), got)
	}
	for i, e := range exp {
		if got[i].Kind != e.kind || got[i].Text != e.text {
			t.Errorf("token %d: expected {%s %q}, got {%s %q}", i, e.kind, e.text, got[i].Kind, got[i].Text)
		}
	}
}

func TestLexerAndThenOrElseFusion(t *testing.T) {
	got := scanAll(t, "A and then B or else C and D")
	want := []Kind{IDENTIFIER, AND_THEN, IDENTIFIER, OR_ELSE, IDENTIFIER, AND, IDENTIFIER}
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(got))
	}
	for i, k := range want {
		if got[i].Kind != k {
			t.Errorf("token %d: expected %s, got %s", i, k, got[i].Kind)
		}
	}
}

func TestLexerTickDisambiguation(t *testing.T) {
	// After an identifier, a tick opens an attribute reference.
	got := scanAll(t, "X'First")
	if len(got) != 3 || got[1].Kind != APOSTROPHE {
		t.Fatalf("expected IDENTIFIER APOSTROPHE IDENTIFIER, got %v", got)
	}

	// In a value context, a tick opens a character literal.
	got = scanAll(t, "C := 'x';")
	foundChar := false
	for _, tk := range got {
		if tk.Kind == CHARACTER_LITERAL && tk.CodePoint == 'x' {
			foundChar = true
		}
	}
	if !foundChar {
		t.Fatalf("expected a character literal 'x', got %v", got)
	}
}

func TestLexerBasedLiteral(t *testing.T) {
	got := scanAll(t, "16#FF#")
	if len(got) != 1 || got[0].Kind != BASED_LITERAL {
		t.Fatalf("expected a single based literal, got %v", got)
	}
	if got[0].IntValue != 255 {
		t.Errorf("16#FF# = %d, want 255", got[0].IntValue)
	}
}

func TestLexerMalformedIdentifier(t *testing.T) {
	l := New("t.adb", "andor")
	go l.Run()
	tk := l.Next()
	if tk.Kind != ERR {
		t.Fatalf("expected ERR for malformed identifier, got %s", tk.Kind)
	}
}

func TestLexerComment(t *testing.T) {
	got := scanAll(t, "X := 1; -- a comment\nY := 2;")
	if len(got) != 8 {
		t.Fatalf("expected 8 tokens (comment skipped), got %d: %v", len(got), got)
	}
}
