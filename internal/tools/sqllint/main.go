// Command sqllint checks that every inline SQL constant starts with a unique
// --sql <uuid> audit marker. The SQL runner refuses statements without a
// marker and logs by marker instead of by SQL text, so a missing marker
// breaks execution and a duplicated one makes the logs ambiguous.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	sqlKeywordPattern = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with)\b`)
	markerPattern     = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

type location struct {
	file string
	line int
	name string
}

type linter struct {
	violations []string
	markers    map[string][]location
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"."}
	}

	l := &linter{markers: map[string][]location{}}
	for _, target := range targets {
		if err := l.lintTarget(target); err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
	}
	l.reportDuplicates()

	if len(l.violations) > 0 {
		fmt.Fprintln(os.Stderr, "sqllint: inline SQL audit problems")
		for _, v := range l.violations {
			fmt.Fprintf(os.Stderr, "  %s\n", v)
		}
		os.Exit(1)
	}
}

func (l *linter) lintTarget(target string) error {
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if filepath.Ext(target) == ".go" {
			return l.lintFile(target)
		}
		return nil
	}
	return filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		return l.lintFile(path)
	})
}

func (l *linter) lintFile(path string) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return err
	}
	ast.Inspect(file, func(n ast.Node) bool {
		spec, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for _, value := range spec.Values {
			lit, ok := value.(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			raw, err := unquote(lit.Value)
			if err != nil || !sqlKeywordPattern.MatchString(raw) {
				continue
			}
			pos := fset.Position(lit.Pos())
			loc := location{file: path, line: pos.Line, name: joinNames(spec.Names)}
			marker := firstLine(raw)
			if !markerPattern.MatchString(marker) {
				l.violations = append(l.violations,
					fmt.Sprintf("%s:%d missing or invalid --sql <uuid> marker (%s)", loc.file, loc.line, loc.name))
				continue
			}
			id := strings.TrimPrefix(marker, "--sql ")
			l.markers[id] = append(l.markers[id], loc)
		}
		return true
	})
	return nil
}

func (l *linter) reportDuplicates() {
	ids := make([]string, 0, len(l.markers))
	for id, locs := range l.markers {
		if len(locs) > 1 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		for _, loc := range l.markers[id] {
			l.violations = append(l.violations,
				fmt.Sprintf("%s:%d duplicate marker %s (%s)", loc.file, loc.line, id, loc.name))
		}
	}
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) == 0 {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}

func joinNames(idents []*ast.Ident) string {
	parts := make([]string, 0, len(idents))
	for _, ident := range idents {
		if ident == nil {
			continue
		}
		parts = append(parts, ident.Name)
	}
	return strings.Join(parts, ",")
}
