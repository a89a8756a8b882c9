package imports

import (
	"fmt"
	"sort"
	"strings"
)

// Edge is an import of a file, resolved against the loaded files.
type Edge struct {
	Import
	// Target is the path of the loaded file that satisfies the import.
	// It is empty if the import is unresolved.
	Target string
}

// Resolved reports whether e is satisfied by a loaded file.
func (e Edge) Resolved() bool {
	return e.Target != ""
}

// File is a node of a Graph.
type File struct {
	Path    string
	Imports []Edge
}

// Graph is the import graph of a set of loaded files.
type Graph struct {
	Main  string
	Files map[string]*File
	// Unresolved is the same list Unresolved returns.
	Unresolved []string
}

// NewGraph builds the import graph of files. Like Unresolved, it doesn't keep
// any state between calls.
func NewGraph(files map[string]string, main string) *Graph {
	g := &Graph{
		Main:       main,
		Files:      make(map[string]*File, len(files)),
		Unresolved: Unresolved(files, main),
	}
	for path, src := range files {
		f := &File{Path: path}
		for _, imp := range Parse(src) {
			e := Edge{Import: imp}
			switch {
			case imp.IsWellKnown():
			case hasKey(files, imp.Path):
				e.Target = imp.Path
			case hasKey(files, Normalize(path, imp.Path)):
				e.Target = Normalize(path, imp.Path)
			}
			f.Imports = append(f.Imports, e)
		}
		g.Files[path] = f
	}
	return g
}

func hasKey(files map[string]string, k string) bool {
	_, ok := files[k]
	return ok
}

// Aliases returns the relative import paths of the graph, keyed by the path
// as written in the importing file, mapped to the loaded file they resolve to.
// Relative paths that resolve to different files depending on the importer
// keep the first one in path order.
func (g *Graph) Aliases() map[string]string {
	aliases := make(map[string]string)
	for _, f := range g.sortedFiles() {
		for _, e := range f.Imports {
			if !e.Resolved() || e.Target == e.Path {
				continue
			}
			if _, ok := aliases[e.Path]; !ok {
				aliases[e.Path] = e.Target
			}
		}
	}
	return aliases
}

// CycleError reports an import cycle.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("import cycle: %s", strings.Join(e.Path, " -> "))
}

// Order returns every loaded file with each file placed after the files it
// imports. The walk starts at the main file and continues with the remaining
// files by path, so files the main file does not reach are included too.
// Unresolved and well-known imports are ignored. It returns a *CycleError if
// any loaded files import each other cyclically.
func (g *Graph) Order() ([]string, error) {
	const (
		visiting = iota + 1
		done
	)
	state := make(map[string]int, len(g.Files))
	var (
		order []string
		stack []string
	)

	var visit func(path string) error
	visit = func(path string) error {
		switch state[path] {
		case done:
			return nil
		case visiting:
			i := indexOf(stack, path)
			return &CycleError{Path: append(append([]string{}, stack[i:]...), path)}
		}
		state[path] = visiting
		stack = append(stack, path)
		for _, e := range g.Files[path].Imports {
			if !e.Resolved() {
				continue
			}
			if err := visit(e.Target); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[path] = done
		order = append(order, path)
		return nil
	}

	for _, f := range g.sortedFiles() {
		if err := visit(f.Path); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (g *Graph) sortedFiles() []*File {
	paths := make([]string, 0, len(g.Files))
	for p := range g.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	files := make([]*File, 0, len(paths))
	if f, ok := g.Files[g.Main]; ok {
		files = append(files, f)
	}
	for _, p := range paths {
		if p != g.Main {
			files = append(files, g.Files[p])
		}
	}
	return files
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}
