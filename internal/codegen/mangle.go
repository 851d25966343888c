package codegen

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/AdaDoom3/Ada83-sub000/internal/sema"
)

// mangler hands out the unique id component of every mangled subprogram
// name this emitter produces (spec §4.10's "PKG_S<scope>E<elab>__NAME.
// <arity>.<paramtype-hash>.<uid>.<paramname-hash>").
type mangler struct {
	uid int
}

func newMangler() *mangler {
	return &mangler{}
}

func (m *mangler) nextUID() int {
	m.uid++
	return m.uid
}

// Mangle builds the external symbol for a subprogram named name, declared
// at the given lexical scope depth and elaboration number, with the
// parameter types and names of sym's signature.
func (m *mangler) Mangle(pkg string, scopeDepth, elabNumber int, name string, sym *sema.Symbol, paramNames []string) string {
	var typeTags []string
	if sym != nil && sym.Type != nil {
		for _, p := range sym.Type.Params {
			typeTags = append(typeTags, typeTag(p))
		}
	}
	return fmt.Sprintf("%s_S%dE%d__%s.%d.%x.%d.%x",
		strings.ToUpper(pkg), scopeDepth, elabNumber, strings.ToUpper(name),
		len(typeTags), fnvHash(strings.Join(typeTags, ",")),
		m.nextUID(), fnvHash(strings.Join(paramNames, ",")))
}

func typeTag(t *sema.TypeInfo) string {
	if t == nil {
		return "?"
	}
	return t.Name
}

func fnvHash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
