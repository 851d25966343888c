// Package ast defines the single variant-tagged syntax-tree node type
// used for every stage after parsing, following the teacher's
// src/ir/nodetype.go design (one NodeType enum, one Node struct with a
// Children slice and an interface{} payload) generalized to Ada 83's
// richer grammar (spec §3).
package ast

import "fmt"

// Kind differentiates the 83 node kinds this front end uses for the
// constructs spec §3 lists.
type Kind int

const (
	// Structural
	CompilationUnit Kind = iota
	ContextClause
	WithClause
	UseClause
	List // generic child-list wrapper (association lists, declarative parts, statement sequences).
	ExceptionHandler
	Association

	// Expressions
	Identifier
	IntegerLiteral
	RealLiteral
	CharLiteral
	StringLiteral
	NullLiteral
	Aggregate
	BinaryOp
	UnaryOp
	AttributeRef
	QualifiedExpr
	FunctionCall
	IndexedComponent
	Slice
	SelectedComponent
	Allocator
	RangeExpr
	Conversion
	Dereference
	CheckExpr // inserted by constraint-check insertion, §4.7.
	OthersChoice

	// Type constructs
	IntegerRangeType
	EnumerationType
	FloatType
	FixedType
	ArrayType
	RecordType
	AccessType
	PrivateType
	SubtypeIndication
	DerivedType
	DiscriminantSpec
	ComponentDecl
	VariantPart
	Variant

	// Declarations
	ObjectDecl
	TypeDecl
	SubtypeDecl
	ExceptionDecl
	RenamingDecl
	ProcSpec
	FuncSpec
	ProcBody
	FuncBody
	PackageSpec
	PackageBody
	TaskSpec
	TaskBody
	GenericDecl
	GenericInstantiation
	EntryDecl
	RepClauseDecl
	ParameterSpec
	Pragma

	// Statements
	AssignStmt
	IfStmt
	ElsifPart
	CaseStmt
	CaseAlt
	LoopStmt
	IterWhile
	IterFor
	Block
	ExitStmt
	ReturnStmt
	GotoStmt
	RaiseStmt
	NullStmt
	CodeStmt
	AcceptStmt
	SelectStmt
	SelectAlt
	DelayStmt
	AbortStmt
	LabelStmt
	StmtSequence

	kindCount
)

var kindNames = [...]string{
	"CompilationUnit", "ContextClause", "WithClause", "UseClause", "List",
	"ExceptionHandler", "Association",
	"Identifier", "IntegerLiteral", "RealLiteral", "CharLiteral", "StringLiteral",
	"NullLiteral", "Aggregate", "BinaryOp", "UnaryOp", "AttributeRef",
	"QualifiedExpr", "FunctionCall", "IndexedComponent", "Slice",
	"SelectedComponent", "Allocator", "RangeExpr", "Conversion", "Dereference",
	"CheckExpr", "OthersChoice",
	"IntegerRangeType", "EnumerationType", "FloatType", "FixedType", "ArrayType",
	"RecordType", "AccessType", "PrivateType", "SubtypeIndication", "DerivedType",
	"DiscriminantSpec", "ComponentDecl", "VariantPart", "Variant",
	"ObjectDecl", "TypeDecl", "SubtypeDecl", "ExceptionDecl", "RenamingDecl",
	"ProcSpec", "FuncSpec", "ProcBody", "FuncBody", "PackageSpec", "PackageBody",
	"TaskSpec", "TaskBody", "GenericDecl", "GenericInstantiation", "EntryDecl",
	"RepClauseDecl", "ParameterSpec", "Pragma",
	"AssignStmt", "IfStmt", "ElsifPart", "CaseStmt", "CaseAlt", "LoopStmt",
	"IterWhile", "IterFor", "Block", "ExitStmt", "ReturnStmt", "GotoStmt",
	"RaiseStmt", "NullStmt", "CodeStmt", "AcceptStmt", "SelectStmt", "SelectAlt",
	"DelayStmt", "AbortStmt", "LabelStmt", "StmtSequence",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Node is the single node type every stage of the compiler operates on.
// Every node carries its source location; Type and Sym are populated by
// semantic analysis (spec §3, "AST nodes"). Data holds the kind-specific
// payload: an identifier name, a literal value, an operator token, etc.
type Node struct {
	Kind     Kind
	File     string
	Line     int
	Col      int
	Data     interface{}
	Type     interface{} // *sema.TypeInfo once resolved; interface{} to avoid an import cycle with sema.
	Sym      interface{} // *sema.Symbol once resolved.
	Children []*Node
}

// New allocates a Node with the given children already attached. Nodes in
// this implementation are heap-allocated and collected by the garbage
// collector rather than arena-owned; identifier names and string-literal
// text in Data are ordinary Go strings, not arena.Arena memory.
func New(kind Kind, file string, line, col int, data interface{}, children ...*Node) *Node {
	return &Node{Kind: kind, File: file, Line: line, Col: col, Data: data, Children: children}
}

// Pos renders the node's "file:line:col" location for diagnostics.
func (n *Node) Pos() string {
	return fmt.Sprintf("%s:%d:%d", n.File, n.Line, n.Col)
}

// Child returns the i-th child or nil if out of range, so callers can
// access fixed-shape payloads (e.g. Children[0] = condition of an if
// statement) without panicking on malformed trees.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}
