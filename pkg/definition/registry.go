package definition

import (
	"fmt"
	"strings"
)

type property struct {
	name string
	get  func(p *Properties) interface{}
}

// registry lists the properties shown in diagnostic dumps, in display order.
var registry = []property{
	{"image_name", func(p *Properties) interface{} { return p.imageName }},
	{"username", func(p *Properties) interface{} { return p.username }},
	{"user_home", func(p *Properties) interface{} { return p.userHome }},
	{"distro", func(p *Properties) interface{} { return p.distro }},
	{"maintainer", func(p *Properties) interface{} {
		if m, ok := p.Maintainer(); ok {
			return m
		}
		return nil
	}},
	{"packages", func(p *Properties) interface{} { return p.Packages() }},
	{"additional_archs", func(p *Properties) interface{} { return p.AdditionalArchs() }},
}

// Field is a single property name and its current value.
type Field struct {
	Name  string
	Value interface{}
}

// String returns the value formatted the way the properties dump shows it.
func (f Field) String() string { return formatValue(f.Value) }

// Snapshot returns the current value of every property, in display order.
func (p *Properties) Snapshot() []Field {
	fields := make([]Field, 0, len(registry))
	for _, prop := range registry {
		fields = append(fields, Field{Name: prop.name, Value: prop.get(p)})
	}
	return fields
}

// String returns a dump of the properties meant for troubleshooting.
func (p *Properties) String() string {
	lines := []string{
		fmt.Sprintf("Properties(image_name=%q, definition_path=%q, host=%v)",
			p.imageName, p.definitionPath, p.host),
	}
	for _, f := range p.Snapshot() {
		lines = append(lines, fmt.Sprintf("    %s = %s", f.Name, formatValue(f.Value)))
	}
	return strings.Join(lines, "\n")
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "<unset>"
	case string:
		return fmt.Sprintf("%q", v)
	case []string:
		quoted := make([]string, len(v))
		for i, s := range v {
			quoted[i] = fmt.Sprintf("%q", s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}
