package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/weft/internal/schema"
)

// Scenario is a declarative reconciliation test: host resources, a set of
// named templates, and a sequence of steps that change the host and check
// what the next pass did.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Resources are set on the host before the first pass.
	Resources map[string]any `yaml:"resources,omitempty"`

	// Templates are the named templates; Root is mounted under the root
	// entity.
	Templates map[string]*Template `yaml:"templates"`
	Root      string               `yaml:"root"`

	// Steps run in order, one pass each. The first pass builds Root.
	Steps []Step `yaml:"steps"`
}

// Template is a named, reusable view with its own reactive state.
type Template struct {
	// State declares mutable cells by name with their initial values. Cells
	// are created in name order and belong to the template instance.
	State map[string]any `yaml:"state,omitempty"`

	View Node `yaml:"view"`
}

// Node describes one view. Exactly one of its variant fields is set; a
// plain YAML string decodes as Text.
//
// Strings in Text and Attrs may interpolate expressions with {{expr}}:
//
//	res:<key>        host resource
//	cell:<name>      template state cell
//	inherit:<kind>   nearest ancestor component (attr:<key>, name, text)
//	item, item.<f>   current list item, or a field of it
//	index            current list position
type Node struct {
	Text string `yaml:"-"`

	Element  string            `yaml:"element,omitempty"`
	Attrs    map[string]string `yaml:"attrs,omitempty"`
	Children []Node            `yaml:"children,omitempty"`

	Fragment []Node `yaml:"fragment,omitempty"`

	If   string `yaml:"if,omitempty"`
	Then *Node  `yaml:"then,omitempty"`
	Else *Node  `yaml:"else,omitempty"`

	For      string `yaml:"for,omitempty"`
	Key      string `yaml:"key,omitempty"`
	Each     *Node  `yaml:"each,omitempty"`
	Fallback *Node  `yaml:"fallback,omitempty"`

	Use   string `yaml:"use,omitempty"`
	Empty bool   `yaml:"empty,omitempty"`

	isText bool
}

// TextNode returns a text node with the given content.
func TextNode(s string) Node { return Node{Text: s, isText: true} }

// UnmarshalYAML accepts a scalar as a text node.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*n = TextNode(value.Value)
		return nil
	}
	type plain Node
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*n = Node(p)
	return nil
}

func (n Node) variant() string {
	switch {
	case n.isText:
		return "text"
	case n.Element != "":
		return "element"
	case n.Fragment != nil:
		return "fragment"
	case n.If != "":
		return "if"
	case n.For != "":
		return "for"
	case n.Use != "":
		return "use"
	case n.Empty:
		return "empty"
	default:
		return ""
	}
}

// Step changes the host, runs one pass and checks the outcome.
type Step struct {
	Name string `yaml:"name"`

	// Set writes resources; Remove deletes them.
	Set    map[string]any `yaml:"set,omitempty"`
	Remove []string       `yaml:"remove,omitempty"`

	// Write assigns state cells by name in every live template instance
	// that declares them.
	Write map[string]any `yaml:"write,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect holds the checks for a step. Unset counts are not checked.
type Expect struct {
	// Tree is the expected host.Dump of the root entity's children.
	Tree *string `yaml:"tree,omitempty"`

	Patched   *int `yaml:"patched,omitempty"`
	Rendered  *int `yaml:"rendered,omitempty"`
	Built     *int `yaml:"built,omitempty"`
	Razed     *int `yaml:"razed,omitempty"`
	Spawned   *int `yaml:"spawned,omitempty"`
	Despawned *int `yaml:"despawned,omitempty"`
	Inserted  *int `yaml:"inserted,omitempty"`

	// Errors lists the pass error codes in the order they were raised.
	Errors []string `yaml:"errors,omitempty"`
}

// LoadScenario reads, schema-checks and parses a scenario YAML file.
// Returns an error if the file doesn't exist, violates the schema,
// contains unknown fields, or references undefined templates.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(filepath.Base(path), data)
}

// ParseScenario is LoadScenario for in-memory documents. filename is used
// in error positions.
func ParseScenario(filename string, data []byte) (*Scenario, error) {
	if err := schema.Validate(filename, data); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := normalizeScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// validateScenario checks the references the schema cannot see.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, ok := s.Templates[s.Root]; !ok {
		return fmt.Errorf("root: template %q is not defined", s.Root)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	names := make([]string, 0, len(s.Templates))
	for name := range s.Templates {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		tmpl := s.Templates[name]
		if tmpl == nil {
			return fmt.Errorf("templates.%s: view is required", name)
		}
		if err := validateNode(s, tmpl, tmpl.View, "templates."+name+".view"); err != nil {
			return err
		}
	}

	for i, step := range s.Steps {
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required", i)
		}
		if step.Expect == nil {
			continue
		}
		for _, code := range step.Expect.Errors {
			if !slices.Contains(errorCodes, code) {
				return fmt.Errorf("steps[%d].expect: unknown error code %q", i, code)
			}
		}
	}
	return nil
}

func validateNode(s *Scenario, tmpl *Template, n Node, path string) error {
	switch n.variant() {
	case "":
		return fmt.Errorf("%s: node has no variant", path)
	case "text":
		return validateInterpolation(tmpl, n.Text, path)
	case "element":
		for k, v := range n.Attrs {
			if err := validateInterpolation(tmpl, v, path+".attrs."+k); err != nil {
				return err
			}
		}
		return validateNodes(s, tmpl, n.Children, path+".children")
	case "fragment":
		return validateNodes(s, tmpl, n.Fragment, path+".fragment")
	case "if":
		if err := validateExpr(tmpl, n.If, path+".if"); err != nil {
			return err
		}
		for branch, b := range map[string]*Node{"then": n.Then, "else": n.Else} {
			if b == nil {
				continue
			}
			if err := validateNode(s, tmpl, *b, path+"."+branch); err != nil {
				return err
			}
		}
	case "for":
		if err := validateExpr(tmpl, n.For, path+".for"); err != nil {
			return err
		}
		if n.Each == nil {
			return fmt.Errorf("%s: each is required", path)
		}
		if err := validateNode(s, tmpl, *n.Each, path+".each"); err != nil {
			return err
		}
		if n.Fallback != nil {
			return validateNode(s, tmpl, *n.Fallback, path+".fallback")
		}
	case "use":
		if _, ok := s.Templates[n.Use]; !ok {
			return fmt.Errorf("%s: template %q is not defined", path, n.Use)
		}
	}
	return nil
}

func validateNodes(s *Scenario, tmpl *Template, nodes []Node, path string) error {
	for i, c := range nodes {
		if err := validateNode(s, tmpl, c, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func validateInterpolation(tmpl *Template, s, path string) error {
	for _, m := range placeholder.FindAllStringSubmatch(s, -1) {
		if err := validateExpr(tmpl, m[1], path); err != nil {
			return err
		}
	}
	return nil
}

func validateExpr(tmpl *Template, expr, path string) error {
	e, err := parseExpr(expr)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if e.kind == exprCell {
		if _, ok := tmpl.State[e.arg]; !ok {
			return fmt.Errorf("%s: cell %q is not declared in state", path, e.arg)
		}
	}
	return nil
}

// normalizeScenario converts YAML-decoded values into the forms templates
// read: integral floats become ints and nulls are rejected.
func normalizeScenario(s *Scenario) error {
	var err error
	if s.Resources, err = normalizeMap(s.Resources); err != nil {
		return fmt.Errorf("resources: %w", err)
	}
	for name, tmpl := range s.Templates {
		if tmpl == nil {
			continue
		}
		if tmpl.State, err = normalizeMap(tmpl.State); err != nil {
			return fmt.Errorf("templates.%s.state: %w", name, err)
		}
	}
	for i := range s.Steps {
		step := &s.Steps[i]
		if step.Set, err = normalizeMap(step.Set); err != nil {
			return fmt.Errorf("steps[%d].set: %w", i, err)
		}
		if step.Write, err = normalizeMap(step.Write); err != nil {
			return fmt.Errorf("steps[%d].write: %w", i, err)
		}
	}
	return nil
}

func normalizeMap(m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

// normalizeValue rejects nulls; a resource is removed with a step's
// remove list rather than set to null.
func normalizeValue(val any) (any, error) {
	switch v := val.(type) {
	case nil:
		return nil, fmt.Errorf("null values are not allowed (use remove)")
	case string, bool, int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
		return v, nil
	case []any:
		arr := make([]any, len(v))
		for i, elem := range v {
			ne, err := normalizeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = ne
		}
		return arr, nil
	case map[string]any:
		return normalizeMap(v)
	default:
		return nil, fmt.Errorf("unsupported type %T", val)
	}
}
