package mux

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// defaultParamPattern matches a single path segment.
const defaultParamPattern = "[^/]+"

// paramNameRegexp validates parameter names in :name segments.
var paramNameRegexp = regexp.MustCompile(`^\w+$`)

// routePattern stores a compiled path template.
type routePattern struct {
	// template is the original template string.
	template string
	// regexp is the compiled, anchored, case-insensitive expression.
	regexp *regexp.Regexp
	// varsN are the parameter names in order of appearance.
	varsN []string
}

// newRoutePattern compiles a path template such as /users/:id/orders/:orderId.
//
// Literal text is matched verbatim, each :name segment captures one or more
// characters other than '/', a single trailing slash is optional and the
// match is case-insensitive and anchored at both ends. An empty template is
// the root path.
func newRoutePattern(tpl string) (*routePattern, error) {
	if tpl == "" {
		tpl = "/"
	}
	if !strings.HasPrefix(tpl, "/") {
		tpl = "/" + tpl
	}

	var (
		pattern bytes.Buffer
		varsN   []string
	)

	pattern.WriteString("(?i)^")

	segments := strings.Split(strings.TrimSuffix(tpl, "/"), "/")
	for i, seg := range segments {
		if i > 0 {
			pattern.WriteByte('/')
		}

		name, isParam := strings.CutPrefix(seg, ":")
		if !isParam {
			pattern.WriteString(regexp.QuoteMeta(seg))
			continue
		}

		if name == "" {
			return nil, fmt.Errorf("mux: missing name in parameter segment of %q", tpl)
		}
		if !paramNameRegexp.MatchString(name) {
			return nil, fmt.Errorf("mux: invalid parameter name %q in %q", name, tpl)
		}

		fmt.Fprintf(&pattern, "(%s)", defaultParamPattern)
		varsN = append(varsN, name)
	}

	pattern.WriteString("/?$")

	if err := checkDuplicateVars(varsN); err != nil {
		return nil, err
	}

	reg, err := compileRegexp(pattern.String())
	if err != nil {
		return nil, err
	}

	return &routePattern{
		template: tpl,
		regexp:   reg,
		varsN:    varsN,
	}, nil
}

// match tests path against the pattern and returns the captured parameters
// zipped with their names. The map is nil for templates without parameters.
func (p *routePattern) match(path string) (map[string]string, bool) {
	matches := p.regexp.FindStringSubmatch(path)
	if matches == nil {
		return nil, false
	}
	if len(p.varsN) == 0 {
		return nil, true
	}

	vars := make(map[string]string, len(p.varsN))
	for i, name := range p.varsN {
		if i+1 < len(matches) {
			vars[name] = matches[i+1]
		}
	}
	return vars, true
}

// checkDuplicateVars returns an error if any parameter name is repeated.
func checkDuplicateVars(vars []string) error {
	seen := make(map[string]bool, len(vars))
	for _, v := range vars {
		if seen[v] {
			return fmt.Errorf("mux: duplicated route parameter %q", v)
		}
		seen[v] = true
	}
	return nil
}
