package arch_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"testing"
)

const internalPrefix = "github.com/papapumpkin/hubscan/internal/"

// root returns the module root, two levels above this file.
func root(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	return filepath.Join(filepath.Dir(file), "..", "..")
}

// internalPackages lists the directories under internal/ holding Go code,
// except this one.
func internalPackages(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(root(t), "internal"))
	if err != nil {
		t.Fatal(err)
	}
	var pkgs []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != "arch_test" {
			pkgs = append(pkgs, e.Name())
		}
	}
	sort.Strings(pkgs)
	return pkgs
}

// parseDir parses the non-test Go files of dir, relative to the module root.
func parseDir(t *testing.T, dir string) map[string]*ast.File {
	t.Helper()
	abs := filepath.Join(root(t), dir)
	entries, err := os.ReadDir(abs)
	if err != nil {
		t.Fatal(err)
	}
	files := make(map[string]*ast.File)
	fset := token.NewFileSet()
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(abs, name), nil, parser.SkipObjectResolution)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		files[filepath.Join(dir, name)] = f
	}
	return files
}

// imports returns the import paths of dir's non-test files, keyed by path
// with the first file importing it as value.
func imports(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for name, f := range parseDir(t, dir) {
		for _, spec := range f.Imports {
			p, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				t.Fatalf("%s: bad import %s", name, spec.Path.Value)
			}
			if prev, ok := out[p]; !ok || name < prev {
				out[p] = name
			}
		}
	}
	return out
}
