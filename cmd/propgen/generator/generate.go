package generator

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"golang.org/x/tools/imports"
)

const fixtureImport = "github.com/arllen133/fixture"

// Options controls where and how property tables are written.
type Options struct {
	// OutDir receives the generated files. Empty means next to the structs.
	OutDir string
	// ModelImport is the import path of the parsed package. It is required
	// when OutDir is a different package, and qualifies the struct types.
	ModelImport string
}

type fileData struct {
	Package     string
	ModelImport string
	Qualifier   string
	Struct      StructMeta
}

var propsTemplate = template.Must(template.New("props").Parse(`// Code generated by propgen. DO NOT EDIT.

package {{.Package}}

import (
	"github.com/arllen133/fixture"
{{- if .ModelImport}}
	{{.Struct.PackageName}} {{printf "%q" .ModelImport}}
{{- end}}
)

// {{.Struct.Name}}Props references the properties of {{.Qualifier}}{{.Struct.Name}} by name,
// for fixture.Settings calls such as DisablePropertyNamingFor.
var {{.Struct.Name}}Props = struct {
{{- range .Struct.Fields}}
	{{.Name}} fixture.PropertyRef // {{.Type}}
{{- end}}
}{
{{- range .Struct.Fields}}
	{{.Name}}: fixture.MustPropertyNamed[{{$.Qualifier}}{{$.Struct.Name}}]({{printf "%q" .Name}}),
{{- end}}
}
`))

// Render returns the formatted source of s's property table.
func Render(s StructMeta, opts Options) ([]byte, error) {
	data := fileData{Package: s.PackageName, Struct: s}
	if opts.ModelImport != "" && opts.OutDir != "" {
		data.ModelImport = opts.ModelImport
		data.Qualifier = s.PackageName + "."
		data.Package = filepath.Base(opts.OutDir)
	}

	var buf bytes.Buffer
	if err := propsTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", s.Name, err)
	}

	src, err := imports.Process(FileName(s), buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("format %s: %w\n%s", s.Name, err, buf.Bytes())
	}
	return src, nil
}

// FileName is the generated file's base name, e.g. "order_line_props_gen.go".
func FileName(s StructMeta) string {
	return toSnakeCase(s.Name) + "_props_gen.go"
}

// GenerateFile writes s's property table into dir and returns its path.
func GenerateFile(s StructMeta, dir string, opts Options) (string, error) {
	src, err := Render(s, opts)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	out := filepath.Join(dir, FileName(s))
	if err := os.WriteFile(out, src, 0o644); err != nil {
		return "", err
	}
	return out, nil
}
