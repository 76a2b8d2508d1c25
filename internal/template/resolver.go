// Package template renders Markdown templates containing {file:...} include
// markers and {var:...} variable markers.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// includePattern matches {file:relative/path} markers.
	includePattern = regexp.MustCompile(`\{file:([^}]+)\}`)
	// varPattern matches {var:name} markers.
	varPattern = regexp.MustCompile(`\{var:([a-zA-Z0-9_\-]+)\}`)
)

// templateMarker identifies a file as a renderable template rather than a
// terminal snippet. Only files carrying the marker are rendered recursively.
const templateMarker = ".tpl."

// snippetsPrefix routes include paths to the shared snippets directory.
const snippetsPrefix = "snippets/"

// DefaultMaxDepth bounds include recursion when Config.MaxDepth is unset.
const DefaultMaxDepth = 20

// Config holds the settings shared by every render of one invocation.
type Config struct {
	// SnippetsDir is the absolute path of the shared snippets directory.
	SnippetsDir string

	// Variables is the merged variable mapping used for {var:...} markers.
	Variables map[string]string

	// MaxDepth bounds include recursion; zero means DefaultMaxDepth.
	MaxDepth int
}

// IsTemplate reports whether name follows the renderable-template convention:
// the base name contains ".tpl." and the extension is ".md".
func IsTemplate(name string) bool {
	base := filepath.Base(name)
	return strings.Contains(base, templateMarker) && strings.EqualFold(filepath.Ext(base), ".md")
}

// OutputPath derives the rendered output path for a template by stripping the
// first ".tpl." segment from the file name.
func OutputPath(path string) string {
	dir, name := filepath.Split(path)
	return dir + strings.Replace(name, templateMarker, ".", 1)
}

// Render fully expands the template at path: includes first (depth-first,
// recursively for nested templates), then variables. Any missing file,
// undefined variable, include cycle, or excessive depth fails the render.
func Render(path string, cfg Config) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve template path %s: %w", path, err)
	}

	r := &resolver{cfg: cfg, active: make(map[string]bool)}
	return r.render(abs, 0)
}

// resolver carries the state of one top-level render invocation. The active
// set tracks canonical paths on the current recursion path only; entries are
// removed when their render returns, so sibling includes of the same file do
// not trigger cycle detection.
type resolver struct {
	cfg    Config
	active map[string]bool
}

func (r *resolver) render(path string, depth int) (string, error) {
	maxDepth := r.cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if depth > maxDepth {
		return "", fmt.Errorf("include depth exceeded (> %d) in %s", maxDepth, path)
	}
	if r.active[path] {
		return "", fmt.Errorf("include cycle detected at %s", path)
	}
	r.active[path] = true
	defer delete(r.active, path)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("template not found: %s", path)
	}

	expanded, err := r.expandIncludes(string(data), path, depth)
	if err != nil {
		return "", err
	}

	return substituteVars(expanded, path, r.cfg.Variables)
}

// expandIncludes replaces every {file:...} marker in source. Nested templates
// are rendered in memory before splicing; terminal snippets inline verbatim.
func (r *resolver) expandIncludes(source, path string, depth int) (string, error) {
	matches := includePattern.FindAllStringSubmatchIndex(source, -1)
	if len(matches) == 0 {
		return source, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(source[last:m[0]])
		rel := strings.TrimSpace(source[m[2]:m[3]])
		target := r.resolveIncludePath(path, rel)

		if IsTemplate(target) {
			rendered, err := r.render(target, depth+1)
			if err != nil {
				return "", err
			}
			b.WriteString(rendered)
		} else {
			data, err := os.ReadFile(target)
			if err != nil {
				return "", fmt.Errorf("include %q in %s: snippet not found: %s", rel, path, target)
			}
			b.Write(data)
		}
		last = m[1]
	}
	b.WriteString(source[last:])

	return b.String(), nil
}

// resolveIncludePath resolves an include target to an absolute, cleaned path.
// Paths under the snippets prefix resolve against the snippets directory;
// everything else resolves against the including file's own directory. The
// cleaned form is the identity used for cycle detection, so two relative
// spellings of the same file are the same node.
func (r *resolver) resolveIncludePath(current, rel string) string {
	if after, ok := strings.CutPrefix(rel, snippetsPrefix); ok {
		return filepath.Join(r.cfg.SnippetsDir, after)
	}
	return filepath.Join(filepath.Dir(current), rel)
}

// substituteVars replaces every {var:...} marker. Undefined variables are a
// hard failure naming each variable and the originating document; there is no
// partial substitution.
func substituteVars(source, path string, variables map[string]string) (string, error) {
	var missing []string

	result := varPattern.ReplaceAllStringFunc(source, func(match string) string {
		name := varPattern.FindStringSubmatch(match)[1]
		value, ok := variables[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("undefined variable(s) %s in %s", strings.Join(missing, ", "), path)
	}

	return result, nil
}
