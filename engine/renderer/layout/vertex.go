package layout

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

var (
	// ErrMissingAttribute is returned when the mesh lacks a per-vertex attribute the program declares.
	ErrMissingAttribute = errors.New("missing required attribute")
	// ErrMissingInstanceAttributes is returned when per-instance attributes are declared but no instance set is supplied.
	ErrMissingInstanceAttributes = errors.New("missing instance attribute set")
	// ErrAttributeType is returned when the mesh supplies an attribute of a different component class.
	ErrAttributeType = errors.New("attribute type mismatch")
	// ErrStrideMismatch is returned when attributes sharing a binding come from streams of different strides.
	ErrStrideMismatch = errors.New("attribute stride mismatch")
)

// IsNil reports whether s is nil or holds a nil pointer, map, slice, func or interface.
func IsNil(s AttributeSource) bool {
	if s == nil {
		return true
	}
	switch v := reflect.ValueOf(s); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// MeshAttribute describes where a named attribute lives inside an interleaved stream.
type MeshAttribute struct {
	Type   ir.Type
	Offset int
	Stride int
}

// AttributeSource is a mesh or instance data set that exposes named attributes.
type AttributeSource interface {
	// Attribute returns the attribute with the given name.
	Attribute(name string) (MeshAttribute, bool)
}

// VertexAttribute is one attribute bound into a VertexBinding.
type VertexAttribute struct {
	Name     string
	Location int
	Type     ir.Type
	Offset   int
}

// VertexBinding is one interleaved vertex buffer binding.
type VertexBinding struct {
	Index int
	Rate  ir.InputRate
	// Integer is set for bindings that carry integer attributes.
	Integer    bool
	Stride     int
	Attributes []VertexAttribute
}

// VertexLayout lists the vertex buffer bindings a draw must provide.
type VertexLayout struct {
	Bindings []VertexBinding
}

// BuildVertexLayout matches the program's attributes against mesh and instance data.
//
// Per-vertex attributes are matched by name in declaration order against mesh. Integer and
// floating-point attributes are split into separate bindings. Per-instance attributes are
// matched against instances, which may be nil only when the program declares none. A nil
// pointer, map or slice wrapped in a non-nil interface counts as nil.
//
// Parameters:
//   - p: the program
//   - mesh: the per-vertex attribute source
//   - instances: the per-instance attribute source, or nil
//
// Returns:
//   - *VertexLayout: bindings ordered per-vertex float, per-vertex integer, per-instance float, per-instance integer
//   - error: wraps ErrMissingAttribute, ErrMissingInstanceAttributes, ErrAttributeType or ErrStrideMismatch
func BuildVertexLayout(p *ir.Program, mesh, instances AttributeSource) (*VertexLayout, error) {
	if IsNil(mesh) {
		mesh = nil
	}
	if IsNil(instances) {
		instances = nil
	}
	type key struct {
		rate    ir.InputRate
		integer bool
	}
	order := []key{{ir.PerVertex, false}, {ir.PerVertex, true}, {ir.PerInstance, false}, {ir.PerInstance, true}}
	groups := map[key]*VertexBinding{}

	for _, a := range p.Attributes {
		src := mesh
		if a.Rate == ir.PerInstance {
			if instances == nil {
				return nil, fmt.Errorf("layout: program %q declares instance attribute `%s`: %w", p.Name, a.Name, ErrMissingInstanceAttributes)
			}
			src = instances
		}
		if src == nil {
			return nil, fmt.Errorf("layout: mesh missing required attribute `%s`: %w", a.Name, ErrMissingAttribute)
		}
		ma, ok := src.Attribute(a.Name)
		if !ok {
			if a.Rate == ir.PerInstance {
				return nil, fmt.Errorf("layout: instance set missing required attribute `%s`: %w", a.Name, ErrMissingAttribute)
			}
			return nil, fmt.Errorf("layout: mesh missing required attribute `%s`: %w", a.Name, ErrMissingAttribute)
		}
		if ma.Type.IsInteger() != a.Type.IsInteger() {
			return nil, fmt.Errorf("layout: attribute `%s` is %s in the mesh but %s in program %q: %w", a.Name, ma.Type, a.Type, p.Name, ErrAttributeType)
		}

		k := key{a.Rate, a.Type.IsInteger()}
		vb, ok := groups[k]
		if !ok {
			vb = &VertexBinding{Rate: a.Rate, Integer: k.integer, Stride: ma.Stride}
			groups[k] = vb
		} else if vb.Stride != ma.Stride {
			return nil, fmt.Errorf("layout: attribute `%s` has stride %d, binding has %d: %w", a.Name, ma.Stride, vb.Stride, ErrStrideMismatch)
		}
		vb.Attributes = append(vb.Attributes, VertexAttribute{
			Name:     a.Name,
			Location: a.Location,
			Type:     a.Type,
			Offset:   ma.Offset,
		})
	}

	out := &VertexLayout{}
	for _, k := range order {
		vb, ok := groups[k]
		if !ok {
			continue
		}
		vb.Index = len(out.Bindings)
		out.Bindings = append(out.Bindings, *vb)
	}
	return out, nil
}
