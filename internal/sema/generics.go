package sema

import "github.com/AdaDoom3/Ada83-sub000/internal/ast"

// maxCloneDepth bounds node_clone_substitute's recursion, guarding
// against a generic unit that (incorrectly, or via a mutually-recursive
// instantiation chain) nests deep enough to blow the Go stack (spec
// §4.8 "generics").
const maxCloneDepth = 1000

// Substitution maps a generic formal's name to the tree fragment its
// actual parameter supplies.
type Substitution map[string]*ast.Node

// CloneSubstitute deep-copies tmpl, replacing every Identifier node whose
// name matches a key in subst with a fresh clone of the corresponding
// actual parameter tree. It is the mechanism generic instantiation uses
// in place of template compilation: the generic unit's body is an
// ordinary ast.Node tree, cloned once per instantiation with formal
// names swapped for actuals before the clone runs through Resolve like
// any other declaration.
func CloneSubstitute(tmpl *ast.Node, subst Substitution) *ast.Node {
	return cloneSubstitute(tmpl, subst, 0)
}

func cloneSubstitute(n *ast.Node, subst Substitution, depth int) *ast.Node {
	if n == nil {
		return nil
	}
	if depth > maxCloneDepth {
		// Spec §4.8 treats runaway generic expansion as a fatal
		// condition rather than a recoverable diagnostic; callers that
		// want a clean error should check depth themselves before
		// calling CloneSubstitute on user-controlled nesting.
		panic("generic instantiation exceeded maximum clone depth")
	}

	if n.Kind == ast.Identifier {
		if name, ok := n.Data.(string); ok {
			if actual, found := subst[name]; found {
				return cloneSubstitute(actual, nil, depth+1)
			}
		}
	}

	children := make([]*ast.Node, len(n.Children))
	for i, c := range n.Children {
		children[i] = cloneSubstitute(c, subst, depth+1)
	}

	return &ast.Node{
		Kind:     n.Kind,
		File:     n.File,
		Line:     n.Line,
		Col:      n.Col,
		Data:     n.Data,
		Children: children,
	}
}

// BuildSubstitution pairs a generic unit's formal parameter names with
// the actual association list supplied at an instantiation site,
// positionally (spec §4.8 does not require named generic associations).
func BuildSubstitution(formalNames []string, actuals *ast.Node) Substitution {
	subst := make(Substitution, len(formalNames))
	if actuals == nil {
		return subst
	}
	for i, name := range formalNames {
		if i >= len(actuals.Children) {
			break
		}
		assoc := actuals.Children[i]
		if assoc.Kind == ast.Association {
			subst[name] = assoc.Child(1)
		} else {
			subst[name] = assoc
		}
	}
	return subst
}
