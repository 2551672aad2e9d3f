package ignore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	logger "github.com/sirupsen/logrus"
)

// DefaultFile is the ignore file looked up in the project root.
const DefaultFile = ".scopeignore"

// alwaysIgnored is prepended to every custom pattern list.
const alwaysIgnored = "node_modules/"

// DefaultPatterns apply when the project has no ignore file.
var DefaultPatterns = []string{
	"node_modules/",
	"[Tt]ests/",
	"[Tt]est/",
	"[Mm]ocks/",
	"[Mm]ock/",
	"[Ii]nterfaces/",
	"[Ii]nterface/",
	"*[Ii]nterface.sol",
	"*[Tt]est.sol",
	"*[Mm]ock.sol",
}

// rule is one compiled ignore line.
type rule struct {
	pattern  string
	negate   bool
	dirOnly  bool
	anchored bool
	globs    []glob.Glob
}

// Matcher decides whether a project-relative path is excluded from analysis.
// Rules are evaluated in order and the last matching rule wins.
type Matcher struct {
	rules []rule
}

// New compiles patterns written in .gitignore syntax.
func New(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		r, ok, err := compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		if ok {
			m.rules = append(m.rules, r)
		}
	}
	return m, nil
}

// Load builds the matcher for projectPath. When name exists in the project
// root its patterns replace the defaults; node_modules stays ignored.
func Load(projectPath, name string) (*Matcher, error) {
	if name == "" {
		name = DefaultFile
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(projectPath, name)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Infof("[ignore] %s not found, using default patterns", name)
		return New(DefaultPatterns)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	patterns := []string{alwaysIgnored}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	logger.Infof("[ignore] loaded %d patterns from %s", len(patterns)-1, name)
	return New(patterns)
}

// Match reports whether relPath (slash separated, relative to the project
// root) is ignored.
func (m *Matcher) Match(relPath string) bool {
	if m == nil {
		return false
	}
	relPath = strings.TrimPrefix(filepath.ToSlash(relPath), "./")
	return m.evaluate(strings.Split(relPath, "/"), false)
}

// MatchDir reports whether every file below relDir is ignored because a
// rule matches relDir or one of its parents.
func (m *Matcher) MatchDir(relDir string) bool {
	if m == nil {
		return false
	}
	relDir = strings.Trim(strings.TrimPrefix(filepath.ToSlash(relDir), "./"), "/")
	if relDir == "" || relDir == "." {
		return false
	}
	return m.evaluate(strings.Split(relDir, "/"), true)
}

func (m *Matcher) evaluate(parts []string, isDir bool) bool {
	ignored := false
	for i := range m.rules {
		if m.rules[i].matches(parts, isDir) {
			ignored = !m.rules[i].negate
		}
	}
	return ignored
}

// Patterns returns the source patterns in evaluation order.
func (m *Matcher) Patterns() []string {
	out := make([]string, 0, len(m.rules))
	for _, r := range m.rules {
		p := r.pattern
		if r.negate {
			p = "!" + p
		}
		out = append(out, p)
	}
	return out
}

func compile(line string) (rule, bool, error) {
	p := strings.TrimSpace(line)
	if p == "" || strings.HasPrefix(p, "#") {
		return rule{}, false, nil
	}

	r := rule{pattern: p}
	if strings.HasPrefix(p, "!") {
		r.negate = true
		p = p[1:]
		r.pattern = p
	}
	if strings.HasSuffix(p, "/") {
		r.dirOnly = true
		p = strings.TrimRight(p, "/")
	}
	if strings.HasPrefix(p, "/") {
		r.anchored = true
		p = strings.TrimLeft(p, "/")
	}
	if strings.Contains(p, "/") {
		r.anchored = true
	}
	if p == "" {
		return rule{}, false, nil
	}

	for _, variant := range expandDoubleStar(p) {
		g, err := glob.Compile(variant, '/')
		if err != nil {
			return rule{}, false, err
		}
		r.globs = append(r.globs, g)
	}
	return r, true, nil
}

// expandDoubleStar adds variants where a "**/" segment matches zero
// directories, since "a/**/b" must also match "a/b".
func expandDoubleStar(p string) []string {
	variants := []string{p}
	if strings.HasPrefix(p, "**/") {
		variants = append(variants, strings.TrimPrefix(p, "**/"))
	}
	if strings.Contains(p, "/**/") {
		variants = append(variants, strings.ReplaceAll(p, "/**/", "/"))
	}
	return variants
}

// matches checks the rule against every candidate the path exposes. A
// directory rule only considers directory components: all of them for a
// directory, the parents for a file.
func (r *rule) matches(parts []string, isDir bool) bool {
	limit := len(parts)
	if r.dirOnly && !isDir {
		limit--
	}
	for i := 0; i < limit; i++ {
		candidate := parts[i]
		if r.anchored {
			candidate = strings.Join(parts[:i+1], "/")
		}
		for _, g := range r.globs {
			if g.Match(candidate) {
				return true
			}
		}
	}
	return false
}
