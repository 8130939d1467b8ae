package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-shader/engine/mesh"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// ErrNoGeometry is returned when a render pipeline is drawn without geometry.
var ErrNoGeometry = errors.New("draw without geometry")

// vertexKey identifies the vertex buffers of one pipeline drawing one geometry and instance set.
type vertexKey struct {
	pipeline  pipeline.Pipeline
	geometry  mesh.Mesh
	instances mesh.Mesh
}

// vertexLayout returns the pipeline's vertex layout, deriving it from the draw's data when the
// pipeline was created without a mesh.
func vertexLayout(p pipeline.Pipeline, geometry, instances mesh.Mesh) (*layout.VertexLayout, error) {
	if geometry == nil {
		return nil, fmt.Errorf("%s: %w", p.PipelineKey(), ErrNoGeometry)
	}
	if vl := p.VertexLayout(); vl != nil {
		for _, b := range vl.Bindings {
			if b.Rate == ir.PerInstance && instances == nil {
				return nil, fmt.Errorf("%s: %w", p.PipelineKey(), layout.ErrMissingInstanceAttributes)
			}
		}
		return vl, nil
	}
	var src layout.AttributeSource
	if instances != nil {
		src = instances
	}
	return layout.BuildVertexLayout(p.Program(), geometry, src)
}

// source returns the mesh feeding binding b.
func source(b layout.VertexBinding, geometry, instances mesh.Mesh) mesh.Mesh {
	if b.Rate == ir.PerInstance {
		return instances
	}
	return geometry
}

// bindingStreams returns the bytes of every binding of vl in binding order.
func bindingStreams(vl *layout.VertexLayout, geometry, instances mesh.Mesh) [][]byte {
	streams := make([][]byte, len(vl.Bindings))
	for i, b := range vl.Bindings {
		streams[i] = source(b, geometry, instances).Stream(b.Integer)
	}
	return streams
}

// versions returns the content versions of geometry and instances.
func versions(geometry, instances mesh.Mesh) [2]uint64 {
	v := [2]uint64{geometry.Version()}
	if instances != nil {
		v[1] = instances.Version()
	}
	return v
}

func instanceCount(instances mesh.Mesh) int {
	if instances == nil {
		return 1
	}
	return instances.Count()
}
