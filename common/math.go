package common

import (
	"github.com/chewxy/math32"
)

// Identity4 returns the 4x4 identity matrix.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns m * b. Both matrices are column-major (OpenGL/WebGPU convention).
//
// Parameters:
//   - b: right-hand matrix
//
// Returns:
//   - Mat4: the product
func (m Mat4) Mul(b Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ { // column of b
		for j := 0; j < 4; j++ { // row of m
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+j] * b[i*4+k]
			}
			out[i*4+j] = sum
		}
	}
	return out
}

// Transpose returns the transpose of m.
func (m Mat4) Transpose() Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[r*4+c] = m[c*4+r]
		}
	}
	return out
}

// Perspective creates a perspective projection matrix.
// depthZeroToOne selects WebGPU clip space [0, 1]; otherwise OpenGL's [-1, 1] is used.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//   - depthZeroToOne: whether the target clip space uses a [0, 1] depth range
//
// Returns:
//   - Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32, depthZeroToOne bool) Mat4 {
	f := 1 / math32.Tan(fovY/2)
	out := Mat4{}
	out[0] = f / aspect
	out[5] = f
	out[11] = -1
	if depthZeroToOne {
		out[10] = far / (near - far)
		out[14] = (near * far) / (near - far)
	} else {
		out[10] = (far + near) / (near - far)
		out[14] = (2 * far * near) / (near - far)
	}
	return out
}

// ModelMatrix constructs a model matrix from position, Euler rotation, and scale.
// The rotation order is Y * X * Z (yaw-pitch-roll).
//
// Parameters:
//   - pos: translation in world space
//   - rot: rotation angles in radians around each axis
//   - scale: scale factors along each axis
//
// Returns:
//   - Mat4: the model matrix
func ModelMatrix(pos, rot, scale Vec3) Mat4 {
	sx, cx := math32.Sincos(rot[0])
	sy, cy := math32.Sincos(rot[1])
	sz, cz := math32.Sincos(rot[2])

	return Mat4{
		(cy*cz + sy*sx*sz) * scale[0], (cx * sz) * scale[0], (-sy*cz + cy*sx*sz) * scale[0], 0,
		(cy*-sz + sy*sx*cz) * scale[1], (cx * cz) * scale[1], (sy*sz + cy*sx*cz) * scale[1], 0,
		(sy * cx) * scale[2], (-sx) * scale[2], (cy * cx) * scale[2], 0,
		pos[0], pos[1], pos[2], 1,
	}
}

// LookAt creates a view matrix that transforms world coordinates into camera space.
//
// Parameters:
//   - eye: camera position in world space
//   - center: target point the camera looks at
//   - up: up vector defining camera orientation (typically 0,1,0)
//
// Returns:
//   - Mat4: the view matrix
func LookAt(eye, center, up Vec3) Mat4 {
	z := eye.Sub(center).Normalize()
	x := up.Cross(z).Normalize()
	y := z.Cross(x)

	return Mat4{
		x[0], y[0], z[0], 0,
		x[1], y[1], z[1], 0,
		x[2], y[2], z[2], 0,
		-x.Dot(eye), -y.Dot(eye), -z.Dot(eye), 1,
	}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float32 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

// Cross returns the cross product v x o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// Length returns the euclidean length of v.
func (v Vec3) Length() float32 {
	return math32.Sqrt(v.Dot(v))
}

// Normalize returns v scaled to unit length. A zero vector is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}
