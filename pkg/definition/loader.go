package definition

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/wellmaintained/karton/internal/errors"
	"github.com/wellmaintained/karton/internal/logging"
	"github.com/wellmaintained/karton/pkg/host"
)

const (
	// FileName is the name of the definition file inside an image source directory.
	FileName = "definition.hcl"

	// EntrypointBlock is the block a definition file must contain.
	EntrypointBlock = "setup_image"

	hostVariable = "host"
)

// Path returns the path of the definition file inside srcDir.
func Path(srcDir string) string {
	return filepath.Join(srcDir, FileName)
}

// Load reads the definition file in srcDir, evaluates its setup_image block
// against fresh properties for imageName and returns them.
//
// Every failure is reported as an *errors.DefinitionError carrying the
// definition file path.
func Load(srcDir, imageName string, sys host.System) (*Properties, error) {
	definitionPath := Path(srcDir)
	logger := logging.GetLogger("definition")
	logger.Debug().Str("path", definitionPath).Str("image", imageName).Msg("Loading definition file")

	src, err := os.ReadFile(definitionPath)
	if err != nil {
		return nil, errors.NewDefinitionError(
			definitionPath,
			fmt.Sprintf("The definition file %q couldn't be opened: %v.", definitionPath, err),
			err)
	}

	file, diags := hclsyntax.ParseConfig(src, definitionPath, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, loadError(definitionPath, file, diags)
	}

	entry, err := findEntrypoint(definitionPath, file)
	if err != nil {
		return nil, err
	}

	props := NewProperties(imageName, definitionPath, sys)

	if cause, trace := invoke(entry, props, file); cause != nil {
		return nil, errors.NewDefinitionError(
			definitionPath,
			fmt.Sprintf("An error was raised while evaluating %q from the definition file %q: %s.\n\n%s",
				EntrypointBlock, definitionPath, strings.TrimSuffix(cause.Error(), "."), trace),
			cause)
	}

	logger.Debug().Str("path", definitionPath).Msg("Definition evaluated")
	return props, nil
}

func loadError(definitionPath string, file *hcl.File, diags hcl.Diagnostics) error {
	summary := "unknown error"
	if errs := diags.Errs(); len(errs) > 0 {
		summary = strings.TrimSuffix(errs[0].Error(), ".")
	}
	return errors.NewDefinitionError(
		definitionPath,
		fmt.Sprintf("The definition file %q couldn't be loaded because it contains an error: %s.\n\n%s",
			definitionPath, summary, renderDiagnostics(definitionPath, file, diags)),
		diags)
}

// findEntrypoint checks the shape of the top level of the file and returns
// the setup_image block.
func findEntrypoint(definitionPath string, file *hcl.File) (*hclsyntax.Block, error) {
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, errors.NewDefinitionError(definitionPath,
			fmt.Sprintf("The definition file %q couldn't be loaded: unsupported syntax.", definitionPath), nil)
	}

	if attr, exists := body.Attributes[EntrypointBlock]; exists {
		return nil, errors.NewDefinitionError(definitionPath, fmt.Sprintf(
			"The definition file %q does contain a %q attribute (at %s), but it should be a block "+
				"taking a single label which names the image properties.",
			definitionPath, EntrypointBlock, attr.NameRange), nil)
	}

	var diags hcl.Diagnostics
	for name, attr := range body.Attributes {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsupported argument",
			Detail:   fmt.Sprintf("An argument named %q is not expected here.", name),
			Subject:  attr.NameRange.Ptr(),
		})
	}

	var entry *hclsyntax.Block
	for _, block := range body.Blocks {
		if block.Type != EntrypointBlock {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported block type",
				Detail:   fmt.Sprintf("Blocks of type %q are not expected here.", block.Type),
				Subject:  block.TypeRange.Ptr(),
			})
			continue
		}
		if entry != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  fmt.Sprintf("Duplicate %q block", EntrypointBlock),
				Detail:   fmt.Sprintf("Only one %q block is allowed.", EntrypointBlock),
				Subject:  block.TypeRange.Ptr(),
			})
			continue
		}
		entry = block
	}
	if diags.HasErrors() {
		sort.SliceStable(diags, func(i, j int) bool {
			return diags[i].Subject.Start.Byte < diags[j].Subject.Start.Byte
		})
		return nil, loadError(definitionPath, file, diags)
	}

	if entry == nil {
		return nil, errors.NewDefinitionError(definitionPath, fmt.Sprintf(
			"The definition file %q doesn't contain a %q block (which should take a single label "+
				"naming the image properties).", definitionPath, EntrypointBlock), nil)
	}

	if len(entry.Labels) != 1 || !hclsyntax.ValidIdentifier(entry.Labels[0]) || entry.Labels[0] == hostVariable {
		return nil, errors.NewDefinitionError(definitionPath, fmt.Sprintf(
			"The definition file %q does contain a %q block, but it should take a single label "+
				"(a valid identifier other than %q) naming the image properties.",
			definitionPath, EntrypointBlock, hostVariable), nil)
	}

	return entry, nil
}

type setter func(p *Properties, v cty.Value) error

var setters = map[string]setter{
	"username":         stringSetter((*Properties).SetUsername),
	"user_home":        stringSetter((*Properties).SetUserHome),
	"distro":           stringSetter((*Properties).SetDistro),
	"maintainer":       stringSetter((*Properties).SetMaintainer),
	"packages":         listSetter((*Properties).AddPackages),
	"additional_archs": listSetter((*Properties).AddArchitectures),
}

func stringSetter(set func(*Properties, string) error) setter {
	return func(p *Properties, v cty.Value) error {
		v, err := convert.Convert(v, cty.String)
		if err != nil {
			return fmt.Errorf("a string is required: %w", err)
		}
		var s string
		if err := gocty.FromCtyValue(v, &s); err != nil {
			return fmt.Errorf("a string is required: %w", err)
		}
		return set(p, s)
	}
}

func listSetter(add func(*Properties, ...string) error) setter {
	return func(p *Properties, v cty.Value) error {
		v, err := convert.Convert(v, cty.List(cty.String))
		if err != nil {
			return fmt.Errorf("a list of strings is required: %w", err)
		}
		var items []string
		if err := gocty.FromCtyValue(v, &items); err != nil {
			return fmt.Errorf("a list of strings is required: %w", err)
		}
		return add(p, items...)
	}
}

// invoke evaluates the entrypoint block against props. Attributes are
// applied in source order, and each one sees the values set by the
// previous ones. It returns the first failure and a trace describing it.
func invoke(entry *hclsyntax.Block, props *Properties, file *hcl.File) (cause error, trace string) {
	defer func() {
		if r := recover(); r != nil {
			cause = fmt.Errorf("panic: %v", r)
			trace = string(debug.Stack())
		}
	}()

	definitionPath := props.DefinitionPath()
	label := entry.Labels[0]

	if len(entry.Body.Blocks) > 0 {
		block := entry.Body.Blocks[0]
		diags := hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported block type",
			Detail:   fmt.Sprintf("Blocks of type %q are not expected inside %q.", block.Type, EntrypointBlock),
			Subject:  block.TypeRange.Ptr(),
		}}
		return diags, renderDiagnostics(definitionPath, file, diags)
	}

	attrs := make([]*hclsyntax.Attribute, 0, len(entry.Body.Attributes))
	for _, attr := range entry.Body.Attributes {
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})

	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			hostVariable: hostValue(props.Host()),
		},
		Functions: functions(props),
	}

	for _, attr := range attrs {
		set, known := setters[attr.Name]
		if !known {
			diags := hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Unsupported argument",
				Detail:   fmt.Sprintf("An argument named %q is not expected here.", attr.Name),
				Subject:  attr.NameRange.Ptr(),
			}}
			return diags, renderDiagnostics(definitionPath, file, diags)
		}

		ctx.Variables[label] = props.ctyValue()

		val, diags := attr.Expr.Value(ctx)
		if diags.HasErrors() {
			return diagnosticsCause(diags), renderDiagnostics(definitionPath, file, diags)
		}

		if err := set(props, val); err != nil {
			diags := hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  fmt.Sprintf("Invalid value for %q", attr.Name),
				Detail:   err.Error(),
				Subject:  attr.Expr.Range().Ptr(),
			}}
			return err, renderDiagnostics(definitionPath, file, diags)
		}
	}

	return nil, ""
}

// diagnosticsCause returns the Go error behind a failed function call when
// there is one, so callers can inspect it, or the diagnostics otherwise.
func diagnosticsCause(diags hcl.Diagnostics) error {
	for _, diag := range diags {
		if extra, ok := hcl.DiagnosticExtra[hclsyntax.FunctionCallDiagExtra](diag); ok {
			if err := extra.FunctionCallError(); err != nil {
				return err
			}
		}
	}
	return diags
}

func renderDiagnostics(definitionPath string, file *hcl.File, diags hcl.Diagnostics) string {
	var buf bytes.Buffer
	files := map[string]*hcl.File{}
	if file != nil {
		files[definitionPath] = file
	}
	wr := hcl.NewDiagnosticTextWriter(&buf, files, 78, false)
	if err := wr.WriteDiagnostics(diags); err != nil {
		return diags.Error()
	}
	return strings.TrimRight(buf.String(), "\n")
}

func hostValue(sys host.System) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"username": cty.StringVal(sys.Username()),
		"userhome": cty.StringVal(sys.UserHome()),
		"hostname": cty.StringVal(sys.Hostname()),
	})
}

func (p *Properties) ctyValue() cty.Value {
	maintainer := cty.NullVal(cty.String)
	if m, ok := p.Maintainer(); ok {
		maintainer = cty.StringVal(m)
	}
	return cty.ObjectVal(map[string]cty.Value{
		"image_name":       cty.StringVal(p.imageName),
		"username":         cty.StringVal(p.username),
		"user_home":        cty.StringVal(p.userHome),
		"distro":           cty.StringVal(p.distro),
		"maintainer":       maintainer,
		"packages":         stringList(p.packages),
		"additional_archs": stringList(p.additionalArchs),
	})
}

func stringList(items []string) cty.Value {
	if len(items) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	vals := make([]cty.Value, len(items))
	for i, item := range items {
		vals[i] = cty.StringVal(item)
	}
	return cty.ListVal(vals)
}

func functions(props *Properties) map[string]function.Function {
	return map[string]function.Function{
		"eval": function.New(&function.Spec{
			Description: "Replaces $(...) variables in a string.",
			Params: []function.Parameter{
				{Name: "text", Type: cty.String},
			},
			Type: function.StaticReturnType(cty.String),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				out, err := props.Eval(args[0].AsString())
				if err != nil {
					return cty.UnknownVal(cty.String), err
				}
				return cty.StringVal(out), nil
			},
		}),
		"concat":    stdlib.ConcatFunc,
		"join":      stdlib.JoinFunc,
		"format":    stdlib.FormatFunc,
		"upper":     stdlib.UpperFunc,
		"lower":     stdlib.LowerFunc,
		"trimspace": stdlib.TrimSpaceFunc,
	}
}
