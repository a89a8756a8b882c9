// Package imports extracts import statements from raw .proto source text and
// resolves them against a set of loaded files.
//
// It works on source text only, independently of any descriptor, so it can
// tell which files are still missing before a file set is compiled.
package imports

import (
	"regexp"
	"sort"
	"strings"
)

// WellKnownPrefix is the path prefix of the bundled well-known type files.
// Imports under it are always satisfied.
const WellKnownPrefix = "google/protobuf/"

// Import is an import statement of a file.
type Import struct {
	// Path is the path as written in the statement.
	Path string
	// Public and Weak report the import modifier.
	Public bool
	Weak   bool
}

// IsRelative reports whether the path of i is relative to the importing file.
func (i Import) IsRelative() bool {
	return isRelative(i.Path)
}

func isRelative(p string) bool {
	return strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../")
}

// IsWellKnown reports whether i refers to a bundled well-known type file.
func (i Import) IsWellKnown() bool {
	return strings.HasPrefix(i.Path, WellKnownPrefix)
}

var importPattern = regexp.MustCompile(`import\s+(?:(public|weak)\s+)?(?:"([^"]*)"|'([^']*)')\s*;`)

// Parse extracts the import statements of src in the order they appear.
// Statements in comments are ignored.
func Parse(src string) []Import {
	var imports []Import
	for _, m := range importPattern.FindAllStringSubmatch(stripComments(src), -1) {
		path := m[2]
		if path == "" {
			path = m[3]
		}
		imports = append(imports, Import{
			Path:   path,
			Public: m[1] == "public",
			Weak:   m[1] == "weak",
		})
	}
	return imports
}

// stripComments replaces line and block comments with spaces. Comment markers
// inside string literals are kept.
func stripComments(src string) string {
	b := []byte(src)
	var quote byte
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote || c == '\n' {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '/' && i+1 < len(b) && b[i+1] == '/':
			for ; i < len(b) && b[i] != '\n'; i++ {
				b[i] = ' '
			}
		case c == '/' && i+1 < len(b) && b[i+1] == '*':
			b[i], b[i+1] = ' ', ' '
			for i += 2; i < len(b); i++ {
				if b[i] == '*' && i+1 < len(b) && b[i+1] == '/' {
					b[i], b[i+1] = ' ', ' '
					i++
					break
				}
				if b[i] != '\n' {
					b[i] = ' '
				}
			}
		}
	}
	return string(b)
}

// Normalize resolves target against the directory of origin if target is
// relative ("./" or "../" prefixed). Other targets are returned as is.
//
// Each ".." drops one directory; ".." above the root is ignored. "." and empty
// segments are dropped.
func Normalize(origin, target string) string {
	if !isRelative(target) {
		return target
	}
	stack := strings.Split(origin, "/")
	stack = stack[:len(stack)-1]
	for _, seg := range strings.Split(target, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}
	return strings.Join(stack, "/")
}

// Unresolved returns the import paths, as written, that no file of files
// satisfies. files maps a file path to its source text. An import is
// satisfied if either its literal path or its normalized path is a key of
// files. Imports of well-known types are always satisfied.
//
// Paths are reported once, imports of main first and then those of the other
// files in path order. The result is never nil.
func Unresolved(files map[string]string, main string) []string {
	unresolved := []string{}
	seen := make(map[string]struct{})
	for _, path := range order(files, main) {
		for _, imp := range Parse(files[path]) {
			if imp.IsWellKnown() || satisfied(files, path, imp.Path) {
				continue
			}
			if _, ok := seen[imp.Path]; ok {
				continue
			}
			seen[imp.Path] = struct{}{}
			unresolved = append(unresolved, imp.Path)
		}
	}
	return unresolved
}

func satisfied(files map[string]string, origin, target string) bool {
	if _, ok := files[target]; ok {
		return true
	}
	_, ok := files[Normalize(origin, target)]
	return ok
}

// order returns main (if loaded) followed by the other paths of files in sorted order.
func order(files map[string]string, main string) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		if p != main {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	if _, ok := files[main]; ok {
		paths = append([]string{main}, paths...)
	}
	return paths
}
