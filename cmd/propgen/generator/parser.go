package generator

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// StructMeta describes one exported struct type of the parsed package.
type StructMeta struct {
	PackageName string
	Name        string
	Fields      []FieldMeta
}

// FieldMeta describes one exported field, embedded fields included.
type FieldMeta struct {
	Name     string
	Type     string
	Embedded bool
}

// ParseStructs parses the Go package in dir and returns its exported,
// non-generic struct types sorted by name. Test files and generated files
// are skipped.
func ParseStructs(dir string) ([]StructMeta, error) {
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, dir, func(fi fs.FileInfo) bool {
		name := fi.Name()
		return !strings.HasSuffix(name, "_test.go") && !strings.HasSuffix(name, "_gen.go")
	}, 0)
	if err != nil {
		return nil, err
	}

	var structs []StructMeta
	for pkgName, pkg := range pkgs {
		for _, file := range pkg.Files {
			for _, decl := range file.Decls {
				gd, ok := decl.(*ast.GenDecl)
				if !ok || gd.Tok != token.TYPE {
					continue
				}
				for _, node := range gd.Specs {
					ts := node.(*ast.TypeSpec)
					st, ok := ts.Type.(*ast.StructType)
					if !ok || !ts.Name.IsExported() || ts.TypeParams != nil {
						continue
					}
					structs = append(structs, StructMeta{
						PackageName: pkgName,
						Name:        ts.Name.Name,
						Fields:      parseFields(st),
					})
				}
			}
		}
	}

	sort.Slice(structs, func(i, j int) bool {
		if structs[i].PackageName != structs[j].PackageName {
			return structs[i].PackageName < structs[j].PackageName
		}
		return structs[i].Name < structs[j].Name
	})
	return structs, nil
}

func parseFields(st *ast.StructType) []FieldMeta {
	var fields []FieldMeta
	for _, field := range st.Fields.List {
		typ := exprToString(field.Type)

		if len(field.Names) == 0 {
			// Embedded: the field is named after its type.
			name := strings.TrimPrefix(typ, "*")
			if i := strings.LastIndex(name, "."); i >= 0 {
				name = name[i+1:]
			}
			if i := strings.Index(name, "["); i >= 0 {
				name = name[:i]
			}
			if ast.IsExported(name) {
				fields = append(fields, FieldMeta{Name: name, Type: typ, Embedded: true})
			}
			continue
		}

		for _, ident := range field.Names {
			if !ident.IsExported() {
				continue
			}
			fields = append(fields, FieldMeta{Name: ident.Name, Type: typ})
		}
	}
	return fields
}

func exprToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + exprToString(t.X)
	case *ast.SelectorExpr:
		return exprToString(t.X) + "." + t.Sel.Name
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + exprToString(t.Elt)
		}
		return "[" + exprToString(t.Len) + "]" + exprToString(t.Elt)
	case *ast.MapType:
		return "map[" + exprToString(t.Key) + "]" + exprToString(t.Value)
	case *ast.IndexExpr:
		return exprToString(t.X) + "[" + exprToString(t.Index) + "]"
	case *ast.BasicLit:
		return t.Value
	case *ast.InterfaceType:
		return "interface{}"
	case *ast.StructType:
		return "struct{...}"
	case *ast.FuncType:
		return "func(...)"
	case *ast.ChanType:
		return "chan " + exprToString(t.Value)
	}
	return "?"
}

// Filter keeps the structs matching include (all when empty) and not
// matching exclude. Patterns use path.Match syntax, e.g. "Internal*".
func Filter(structs []StructMeta, include, exclude []string) []StructMeta {
	if len(include) == 0 && len(exclude) == 0 {
		return structs
	}

	var result []StructMeta
	for _, s := range structs {
		if matchAny(exclude, s.Name) {
			continue
		}
		if len(include) > 0 && !matchAny(include, s.Name) {
			continue
		}
		result = append(result, s)
	}
	return result
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}

func toSnakeCase(s string) string {
	var res strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && (runes[i-1] < 'A' || runes[i-1] > 'Z' ||
				(i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z')) {
				res.WriteRune('_')
			}
			res.WriteRune(r + ('a' - 'A'))
		} else {
			res.WriteRune(r)
		}
	}
	return res.String()
}
