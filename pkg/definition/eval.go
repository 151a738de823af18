package definition

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/wellmaintained/karton/internal/errors"
)

var evalRegex = regexp.MustCompile(`\$\(([a-zA-Z0-9._-]+)\)`)

// Eval replaces the variables in text and returns the new string.
//
// Variables have the form $(name). The valid names are:
//   - host.username: the user name on the host
//   - host.userhome: the home directory of the user on the host
//   - host.hostname: the host name
//
// Any other name is an error.
func (p *Properties) Eval(text string) (string, error) {
	matches := evalRegex.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text, nil
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		name := text[m[2]:m[3]]
		resolve, ok := p.evalMap[name]
		if !ok {
			return "", errors.NewDefinitionError(
				p.definitionPath,
				fmt.Sprintf("The variable \"$(%s)\" is not valid (in string %q); valid variables are %s.",
					name, text, strings.Join(p.Variables(), ", ")),
				nil)
		}
		sb.WriteString(text[last:m[0]])
		sb.WriteString(resolve())
		last = m[1]
	}
	sb.WriteString(text[last:])

	return sb.String(), nil
}

// Variables returns the names accepted by Eval, sorted.
func (p *Properties) Variables() []string {
	names := make([]string, 0, len(p.evalMap))
	for name := range p.evalMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
