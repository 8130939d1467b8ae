package mesh

// Quad returns a unit quad in the XY plane facing +Z, with white vertex colors.
func Quad(label string) Mesh {
	white := [4]float32{1, 1, 1, 1}
	n := [3]float32{0, 0, 1}
	vertices := []Vertex{
		{Position: [3]float32{-0.5, -0.5, 0}, Normal: n, TexCoord: [2]float32{0, 1}, Color: white},
		{Position: [3]float32{0.5, -0.5, 0}, Normal: n, TexCoord: [2]float32{1, 1}, Color: white},
		{Position: [3]float32{0.5, 0.5, 0}, Normal: n, TexCoord: [2]float32{1, 0}, Color: white},
		{Position: [3]float32{-0.5, 0.5, 0}, Normal: n, TexCoord: [2]float32{0, 0}, Color: white},
	}
	return NewMesh(label, WithVertices(vertices), WithIndices([]uint32{0, 1, 2, 2, 3, 0}))
}

// Cube returns a unit cube centred on the origin with per-face normals and UVs.
func Cube(label string) Mesh {
	faces := []struct {
		normal, u, v [3]float32
	}{
		{[3]float32{0, 0, 1}, [3]float32{1, 0, 0}, [3]float32{0, 1, 0}},
		{[3]float32{0, 0, -1}, [3]float32{-1, 0, 0}, [3]float32{0, 1, 0}},
		{[3]float32{1, 0, 0}, [3]float32{0, 0, -1}, [3]float32{0, 1, 0}},
		{[3]float32{-1, 0, 0}, [3]float32{0, 0, 1}, [3]float32{0, 1, 0}},
		{[3]float32{0, 1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, -1}},
		{[3]float32{0, -1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, 1}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	vertices := make([]Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(vertices))
		for _, c := range corners {
			var p [3]float32
			for i := range p {
				p[i] = 0.5 * (f.normal[i] + c[0]*f.u[i] + c[1]*f.v[i])
			}
			vertices = append(vertices, Vertex{
				Position: p,
				Normal:   f.normal,
				TexCoord: [2]float32{(c[0] + 1) / 2, (1 - c[1]) / 2},
				Color:    [4]float32{1, 1, 1, 1},
			})
		}
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}
	return NewMesh(label, WithVertices(vertices), WithIndices(indices))
}
