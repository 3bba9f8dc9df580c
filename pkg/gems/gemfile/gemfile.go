package gemfile

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/railcar/pkg/errors"
	"github.com/matzehuels/railcar/pkg/gems"
)

// Manifest is a parsed Gemfile.
type Manifest struct {
	Path         string
	Sources      []string
	Dependencies []gems.Dependency
}

// Active returns the entries in the default group or any of groups.
func (m *Manifest) Active(groups ...string) []gems.Dependency {
	active := gems.ActiveGroups(groups...)
	var out []gems.Dependency
	for _, d := range m.Dependencies {
		if d.InGroups(active) {
			out = append(out, d)
		}
	}
	return out
}

// Get returns the entry for name.
func (m *Manifest) Get(name string) (gems.Dependency, bool) {
	for _, d := range m.Dependencies {
		if d.Name == name {
			return d, true
		}
	}
	return gems.Dependency{}, false
}

// ParseFile parses the Gemfile at path.
func ParseFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "gemfile")
		}
		return nil, err
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, err
	}
	m.Path = path
	return m, nil
}

var (
	gemPattern    = regexp.MustCompile(`^gem\s*\(?\s*['"]([^'"]+)['"]\s*(.*?)\)?$`)
	gemKeyword    = regexp.MustCompile(`^gem[\s(]`)
	groupPattern  = regexp.MustCompile(`^group\s*\(?(.*?)\)?\s+do(\s*\|.*\|)?$`)
	sourcePattern = regexp.MustCompile(`^source\s*\(?\s*['"]([^'"]+)['"]\s*\)?(\s+do)?$`)
	blockPattern  = regexp.MustCompile(`\bdo(\s*\|.*\|)?$|^(if|unless|case|begin|while|until)\b`)
	modifier      = regexp.MustCompile(`(^|\s+)(if|unless)\s.*$`)
	optionPattern = regexp.MustCompile(`^(?::(\w+)\s*=>|(\w+):)\s*(.+)$`)
)

// block is an open do...end block. Non-group blocks (platforms, path, git)
// are tracked only to match their end.
type block struct {
	groups []string
	source string
}

// Parse reads Gemfile entries from r.
//
// Entries declared more than once keep their first declaration; their
// groups are merged. A gem line without a quoted name is an
// ErrCodeInvalidManifest error.
func Parse(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	index := map[string]int{}
	var stack []block

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(stripComment(scanner.Text()))
		if line == "" {
			continue
		}

		switch {
		case line == "end":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case groupPattern.MatchString(line):
			args := groupPattern.FindStringSubmatch(line)[1]
			stack = append(stack, block{groups: symbols(args)})
		case sourcePattern.MatchString(line):
			match := sourcePattern.FindStringSubmatch(line)
			if match[2] != "" {
				stack = append(stack, block{source: match[1]})
			} else if !slices.Contains(m.Sources, match[1]) {
				m.Sources = append(m.Sources, match[1])
			}
		case gemKeyword.MatchString(line):
			dep, err := parseGem(line, stack)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "line %d", lineNo)
			}
			if i, ok := index[dep.Name]; ok {
				m.Dependencies[i].Groups = mergeGroups(m.Dependencies[i].Groups, dep.Groups)
				continue
			}
			index[dep.Name] = len(m.Dependencies)
			m.Dependencies = append(m.Dependencies, dep)
		case blockPattern.MatchString(line):
			stack = append(stack, block{})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "read gemfile")
	}
	return m, nil
}

func parseGem(line string, stack []block) (gems.Dependency, error) {
	match := gemPattern.FindStringSubmatch(line)
	if match == nil {
		return gems.Dependency{}, errors.New(errors.ErrCodeInvalidManifest, "malformed gem declaration: %s", line)
	}
	dep := gems.Dependency{Spec: gems.Spec{Name: match[1]}}
	if err := errors.ValidateGemName(dep.Name); err != nil {
		return gems.Dependency{}, err
	}

	var groups []string
	for _, b := range stack {
		groups = mergeGroups(groups, b.groups)
		if b.source != "" {
			dep.Source = b.source
		}
	}

	rest := modifier.ReplaceAllString(match[2], "")
	rest = strings.TrimPrefix(strings.TrimSpace(rest), ",")
	for _, arg := range splitArgs(rest) {
		if s, ok := unquote(arg); ok {
			dep.Requirements = append(dep.Requirements, s)
			continue
		}
		opt := optionPattern.FindStringSubmatch(arg)
		if opt == nil {
			return gems.Dependency{}, errors.New(errors.ErrCodeInvalidManifest, "unexpected argument %q for gem %s", arg, dep.Name)
		}
		key := opt[1] + opt[2]
		switch key {
		case "group", "groups":
			groups = mergeGroups(groups, symbols(opt[3]))
		case "source":
			if s, ok := unquote(opt[3]); ok {
				dep.Source = s
			}
		}
	}

	dep.Groups = groups
	dep.Version = exactVersion(dep.Requirements)
	return dep, nil
}

// exactVersion returns the version of a single exact requirement.
func exactVersion(reqs []string) string {
	if len(reqs) != 1 {
		return ""
	}
	v := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(reqs[0]), "="))
	if v == "" || strings.ContainsAny(v, "<>~!= ") {
		return ""
	}
	return v
}

// splitArgs splits s at commas outside quotes and brackets.
func splitArgs(s string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
		depth int
	)
	flush := func() {
		if arg := strings.TrimSpace(cur.String()); arg != "" {
			out = append(out, arg)
		}
		cur.Reset()
	}
	for _, c := range s {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '[' || c == '(':
			depth++
		case c == ']' || c == ')':
			depth--
		case c == ',' && depth == 0:
			flush()
			continue
		}
		cur.WriteRune(c)
	}
	flush()
	return out
}

func unquote(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	return "", false
}

var symbolPattern = regexp.MustCompile(`:?['"]?([A-Za-z_][\w-]*)['"]?`)

// symbols extracts names from ":a, :b", "[:a, :b]", "'a'" or "%w[a b]".
func symbols(s string) []string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "%w") || strings.HasPrefix(s, "%i") {
		s = strings.Trim(s[2:], "[](){}")
		return strings.Fields(s)
	}
	var out []string
	for _, m := range symbolPattern.FindAllStringSubmatch(s, -1) {
		if !slices.Contains(out, m[1]) {
			out = append(out, m[1])
		}
	}
	return out
}

func mergeGroups(dst, src []string) []string {
	for _, g := range src {
		if !slices.Contains(dst, g) {
			dst = append(dst, g)
		}
	}
	return dst
}

// stripComment removes a trailing # comment outside quotes.
func stripComment(line string) string {
	var quote rune
	for i, c := range line {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '#':
			return line[:i]
		}
	}
	return line
}
