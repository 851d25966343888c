package units

import (
	"os"
	"strings"

	"github.com/AdaDoom3/Ada83-sub000/internal/ast"
	"github.com/AdaDoom3/Ada83-sub000/internal/diag"
	"github.com/AdaDoom3/Ada83-sub000/internal/parser"
	"github.com/AdaDoom3/Ada83-sub000/internal/sema"
)

// Driver loads a compilation's main unit together with every unit it
// (transitively) names in a `with` clause, spec §4.9's "Discovery,
// parsing, and semantic analysis of with-referenced units".
type Driver struct {
	resolver *Resolver
	bag      *diag.Bag
	loaded   map[string]*Loaded
}

// Loaded is one compiled unit: its tree, the scope its declarations were
// entered into, and (when a sibling .ali existed) the external interface
// read instead of re-parsing the unit's own source.
type Loaded struct {
	Name  string
	Tree  *ast.Node
	Scope *sema.Scope
	ALI   *Interface
}

// NewDriver creates a Driver rooted at the given resolver and reporting
// into bag.
func NewDriver(resolver *Resolver, bag *diag.Bag) *Driver {
	return &Driver{resolver: resolver, bag: bag, loaded: make(map[string]*Loaded)}
}

// Load parses path as the compilation's main unit, then recursively
// resolves and analyzes every unit its context clause names, returning
// the main unit's Loaded record.
func (d *Driver) Load(path string) (*Loaded, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return d.loadSource(path, string(src))
}

func (d *Driver) loadSource(path, src string) (*Loaded, error) {
	tree, err := parser.Parse(path, src)
	if err != nil {
		return nil, err
	}

	for _, name := range withNames(tree) {
		d.loadDependency(name)
	}

	analyzer := sema.NewAnalyzer(d.bag, path)
	scope := analyzer.Resolve(tree)

	unitName := unitNameOf(tree)
	l := &Loaded{Name: unitName, Tree: tree, Scope: scope}
	d.loaded[strings.ToLower(unitName)] = l
	return l, nil
}

// loadDependency resolves and loads name if it has not already been
// loaded in this Driver, per spec §4.9's "register external symbols
// declared in it without parsing the source" when a sibling .ali exists.
func (d *Driver) loadDependency(name string) {
	key := strings.ToLower(name)
	if _, ok := d.loaded[key]; ok {
		return
	}

	res, found := d.resolver.Resolve(name)
	if !found {
		d.bag.Reportf(diag.Error, name, "could not locate unit %q on the include path", name)
		return
	}

	if res.ALIPath != "" {
		f, err := os.Open(res.ALIPath)
		if err == nil {
			defer f.Close()
			if iface, err := ReadALI(f); err == nil {
				d.loaded[key] = &Loaded{Name: name, ALI: &iface}
				return
			}
		}
	}

	src, err := os.ReadFile(res.SourcePath)
	if err != nil {
		d.bag.Reportf(diag.Error, res.SourcePath, "could not read unit %q: %s", name, err)
		return
	}
	if _, err := d.loadSource(res.SourcePath, string(src)); err != nil {
		d.bag.Reportf(diag.Error, res.SourcePath, "could not compile unit %q: %s", name, err)
	}
}

// withNames extracts every dotted name a compilation unit's context
// clause mentions in a `with` clause.
func withNames(unit *ast.Node) []string {
	if unit == nil || unit.Kind != ast.CompilationUnit {
		return nil
	}
	ctx := unit.Child(0)
	var names []string
	for _, item := range ctx.Children {
		if item.Kind != ast.WithClause {
			continue
		}
		for _, n := range item.Children {
			names = append(names, flattenDottedName(n))
		}
	}
	return names
}

func flattenDottedName(n *ast.Node) string {
	if n == nil {
		return ""
	}
	if n.Kind == ast.Identifier {
		s, _ := n.Data.(string)
		return s
	}
	if n.Kind == ast.SelectedComponent {
		return flattenDottedName(n.Child(0)) + "." + flattenDottedName(n.Child(1))
	}
	return ""
}

// unitNameOf derives a library unit's dotted name from its declaration
// node, used as the .ali file's `U` line and the Loaded map key.
func unitNameOf(unit *ast.Node) string {
	if unit == nil || unit.Kind != ast.CompilationUnit {
		return ""
	}
	lib := unit.Child(1)
	switch lib.Kind {
	case ast.PackageSpec, ast.PackageBody, ast.TaskSpec, ast.TaskBody:
		s, _ := lib.Data.(string)
		return s
	case ast.ProcSpec, ast.FuncSpec, ast.ProcBody, ast.FuncBody:
		s, _ := lib.Data.(string)
		return s
	case ast.GenericDecl:
		return unitNameOf(&ast.Node{Kind: ast.CompilationUnit, Children: []*ast.Node{unit.Child(0), lib.Child(1)}})
	default:
		return ""
	}
}
