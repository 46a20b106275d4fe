package recipe

import (
	"bytes"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/irbind/errors"
)

// Recipe describes one module.
type Recipe struct {
	// Name is the module identifier.
	Name string `yaml:"name"`

	// SourceFilename is recorded in the module header. Optional.
	SourceFilename string `yaml:"source_filename,omitempty"`

	// Target is the target triple. Optional.
	Target string `yaml:"target,omitempty"`

	// Functions are declared in order before any body is built, so bodies may call
	// functions listed after them.
	Functions []Function `yaml:"functions"`
}

// Function describes a declaration or a definition.
type Function struct {
	Name   string  `yaml:"name"`
	Params []Param `yaml:"params,omitempty"`

	// Result is the return type. Defaults to void.
	Result string `yaml:"result,omitempty"`

	// Attributes are placed on the function itself.
	Attributes []string `yaml:"attributes,omitempty"`

	// ResultAttributes are placed on the return value.
	ResultAttributes []string `yaml:"result_attributes,omitempty"`

	// Body is empty for declarations.
	Body []Step `yaml:"body,omitempty"`
}

// Param describes one function parameter.
type Param struct {
	Name       string   `yaml:"name,omitempty"`
	Type       string   `yaml:"type"`
	Attributes []string `yaml:"attributes,omitempty"`
}

// Step is one instruction of a body.
type Step struct {
	Op   string   `yaml:"op"`
	Name string   `yaml:"name,omitempty"`
	Args []string `yaml:"args,omitempty"`

	// Type and Value are used by const.
	Type  string `yaml:"type,omitempty"`
	Value int64  `yaml:"value,omitempty"`

	// Pred is used by icmp.
	Pred string `yaml:"pred,omitempty"`

	// Callee is used by call.
	Callee string `yaml:"callee,omitempty"`
}

// Op names that are not binary opcodes.
const (
	OpConst = "const"
	OpICmp  = "icmp"
	OpCall  = "call"
	OpRet   = "ret"
)

// IsDeclaration reports whether f has no body.
func (f *Function) IsDeclaration() bool {
	return len(f.Body) == 0
}

// ResultType returns the declared result type, defaulting to void.
func (f *Function) ResultType() string {
	if f.Result == "" {
		return "void"
	}
	return f.Result
}

// Load reads and parses a recipe file.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindIO, err, "read recipe")
	}
	return Parse(data)
}

// Parse decodes a recipe and validates it. Unknown fields are rejected.
func Parse(data []byte) (*Recipe, error) {
	var r Recipe
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse recipe")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks the structure of r. Type and operand errors are reported when the
// recipe is built.
func (r *Recipe) Validate() error {
	if r.Name == "" {
		return invalid(nil, "name is required")
	}
	if len(r.Functions) == 0 {
		return invalid(nil, "functions list is required and must be non-empty")
	}
	seen := make(map[string]bool, len(r.Functions))
	for i := range r.Functions {
		f := &r.Functions[i]
		if f.Name == "" {
			return invalid([]string{"functions", strconv.Itoa(i)}, "function name is required")
		}
		if seen[f.Name] {
			return errors.Duplicate(errors.PhaseConfig, "function", f.Name)
		}
		seen[f.Name] = true
		for j, p := range f.Params {
			if p.Type == "" {
				return invalid([]string{f.Name, "params", strconv.Itoa(j)}, "parameter type is required")
			}
		}
		for j, s := range f.Body {
			if s.Op == "" {
				return invalid([]string{f.Name, "body", strconv.Itoa(j)}, "op is required")
			}
		}
		if !f.IsDeclaration() && f.Body[len(f.Body)-1].Op != OpRet {
			return invalid([]string{f.Name, "body"}, "body must end with ret")
		}
	}
	return nil
}

func invalid(path []string, detail string) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Path(path...).
		Detail("%s", detail).
		Build()
}
