package math

import gomath "math"

func NewMat4Identity() Mat4 {
	m := Mat4{}
	m.Data[0] = 1
	m.Data[5] = 1
	m.Data[10] = 1
	m.Data[15] = 1
	return m
}

func NewMat4Translation(position Vec3) Mat4 {
	m := NewMat4Identity()
	m.Data[12] = position.X
	m.Data[13] = position.Y
	m.Data[14] = position.Z
	return m
}

func NewMat4Scale(scale Vec3) Mat4 {
	m := NewMat4Identity()
	m.Data[0] = scale.X
	m.Data[5] = scale.Y
	m.Data[10] = scale.Z
	return m
}

// NewMat4RotationZ builds a rotation of the given angle, in radians, around
// the Z axis.
func NewMat4RotationZ(rad float32) Mat4 {
	m := NewMat4Identity()
	c := float32(gomath.Cos(float64(rad)))
	s := float32(gomath.Sin(float64(rad)))
	m.Data[0] = c
	m.Data[1] = s
	m.Data[4] = -s
	m.Data[5] = c
	return m
}

// NewMat4Orthographic builds an orthographic projection with GL clip-space
// depth conventions.
func NewMat4Orthographic(left, right, bottom, top, near, far float32) Mat4 {
	m := NewMat4Identity()
	m.Data[0] = 2.0 / (right - left)
	m.Data[5] = 2.0 / (top - bottom)
	m.Data[10] = -2.0 / (far - near)
	m.Data[12] = -(right + left) / (right - left)
	m.Data[13] = -(top + bottom) / (top - bottom)
	m.Data[14] = -(far + near) / (far - near)
	return m
}

// NewMat4Perspective builds a perspective projection. fovRad is the vertical
// field of view in radians.
func NewMat4Perspective(fovRad, aspect, near, far float32) Mat4 {
	f := float32(1.0 / gomath.Tan(float64(fovRad)*0.5))
	m := Mat4{}
	m.Data[0] = f / aspect
	m.Data[5] = f
	m.Data[10] = (far + near) / (near - far)
	m.Data[11] = -1
	m.Data[14] = (2.0 * far * near) / (near - far)
	return m
}

// NewMat4LookAt builds a right-handed view matrix looking from eye toward
// target.
func NewMat4LookAt(eye, target, up Vec3) Mat4 {
	f := target.Sub(eye).Normalized()
	s := f.Cross(up).Normalized()
	u := s.Cross(f)

	m := NewMat4Identity()
	m.Data[0] = s.X
	m.Data[1] = u.X
	m.Data[2] = -f.X
	m.Data[4] = s.Y
	m.Data[5] = u.Y
	m.Data[6] = -f.Y
	m.Data[8] = s.Z
	m.Data[9] = u.Z
	m.Data[10] = -f.Z
	m.Data[12] = -s.Dot(eye)
	m.Data[13] = -u.Dot(eye)
	m.Data[14] = f.Dot(eye)
	return m
}

// Mul returns m * o, so that (m.Mul(o)).MulVec4(v) == m.MulVec4(o.MulVec4(v)).
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m.Data[k*4+r] * o.Data[c*4+k]
			}
			out.Data[c*4+r] = sum
		}
	}
	return out
}

// MulVec4 transforms v by m.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		X: m.Data[0]*v.X + m.Data[4]*v.Y + m.Data[8]*v.Z + m.Data[12]*v.W,
		Y: m.Data[1]*v.X + m.Data[5]*v.Y + m.Data[9]*v.Z + m.Data[13]*v.W,
		Z: m.Data[2]*v.X + m.Data[6]*v.Y + m.Data[10]*v.Z + m.Data[14]*v.W,
		W: m.Data[3]*v.X + m.Data[7]*v.Y + m.Data[11]*v.Z + m.Data[15]*v.W,
	}
}

// MulPoint transforms a 3D point by m, assuming w=1 and discarding the
// resulting w. Use MulVec4 when the perspective divide matters.
func (m Mat4) MulPoint(v Vec3) Vec3 {
	r := m.MulVec4(Vec4{X: v.X, Y: v.Y, Z: v.Z, W: 1})
	return r.XYZ()
}

func (m Mat4) Transpose() Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out.Data[r*4+c] = m.Data[c*4+r]
		}
	}
	return out
}

const singularEpsilon = 1e-8

// Inverse returns the inverse of m and true, or the identity matrix and false
// when m is singular. Callers are expected to fall back to a safe value on
// false rather than propagate garbage.
func (m Mat4) Inverse() (Mat4, bool) {
	a := m.Data
	var inv [16]float32

	inv[0] = a[5]*a[10]*a[15] - a[5]*a[11]*a[14] - a[9]*a[6]*a[15] +
		a[9]*a[7]*a[14] + a[13]*a[6]*a[11] - a[13]*a[7]*a[10]
	inv[4] = -a[4]*a[10]*a[15] + a[4]*a[11]*a[14] + a[8]*a[6]*a[15] -
		a[8]*a[7]*a[14] - a[12]*a[6]*a[11] + a[12]*a[7]*a[10]
	inv[8] = a[4]*a[9]*a[15] - a[4]*a[11]*a[13] - a[8]*a[5]*a[15] +
		a[8]*a[7]*a[13] + a[12]*a[5]*a[11] - a[12]*a[7]*a[9]
	inv[12] = -a[4]*a[9]*a[14] + a[4]*a[10]*a[13] + a[8]*a[5]*a[14] -
		a[8]*a[6]*a[13] - a[12]*a[5]*a[10] + a[12]*a[6]*a[9]
	inv[1] = -a[1]*a[10]*a[15] + a[1]*a[11]*a[14] + a[9]*a[2]*a[15] -
		a[9]*a[3]*a[14] - a[13]*a[2]*a[11] + a[13]*a[3]*a[10]
	inv[5] = a[0]*a[10]*a[15] - a[0]*a[11]*a[14] - a[8]*a[2]*a[15] +
		a[8]*a[3]*a[14] + a[12]*a[2]*a[11] - a[12]*a[3]*a[10]
	inv[9] = -a[0]*a[9]*a[15] + a[0]*a[11]*a[13] + a[8]*a[1]*a[15] -
		a[8]*a[3]*a[13] - a[12]*a[1]*a[11] + a[12]*a[3]*a[9]
	inv[13] = a[0]*a[9]*a[14] - a[0]*a[10]*a[13] - a[8]*a[1]*a[14] +
		a[8]*a[2]*a[13] + a[12]*a[1]*a[10] - a[12]*a[2]*a[9]
	inv[2] = a[1]*a[6]*a[15] - a[1]*a[7]*a[14] - a[5]*a[2]*a[15] +
		a[5]*a[3]*a[14] + a[13]*a[2]*a[7] - a[13]*a[3]*a[6]
	inv[6] = -a[0]*a[6]*a[15] + a[0]*a[7]*a[14] + a[4]*a[2]*a[15] -
		a[4]*a[3]*a[14] - a[12]*a[2]*a[7] + a[12]*a[3]*a[6]
	inv[10] = a[0]*a[5]*a[15] - a[0]*a[7]*a[13] - a[4]*a[1]*a[15] +
		a[4]*a[3]*a[13] + a[12]*a[1]*a[7] - a[12]*a[3]*a[5]
	inv[14] = -a[0]*a[5]*a[14] + a[0]*a[6]*a[13] + a[4]*a[1]*a[14] -
		a[4]*a[2]*a[13] - a[12]*a[1]*a[6] + a[12]*a[2]*a[5]
	inv[3] = -a[1]*a[6]*a[11] + a[1]*a[7]*a[10] + a[5]*a[2]*a[11] -
		a[5]*a[3]*a[10] - a[9]*a[2]*a[7] + a[9]*a[3]*a[6]
	inv[7] = a[0]*a[6]*a[11] - a[0]*a[7]*a[10] - a[4]*a[2]*a[11] +
		a[4]*a[3]*a[10] + a[8]*a[2]*a[7] - a[8]*a[3]*a[6]
	inv[11] = -a[0]*a[5]*a[11] + a[0]*a[7]*a[9] + a[4]*a[1]*a[11] -
		a[4]*a[3]*a[9] - a[8]*a[1]*a[7] + a[8]*a[3]*a[5]
	inv[15] = a[0]*a[5]*a[10] - a[0]*a[6]*a[9] - a[4]*a[1]*a[10] +
		a[4]*a[2]*a[9] + a[8]*a[1]*a[6] - a[8]*a[2]*a[5]

	det := a[0]*inv[0] + a[1]*inv[4] + a[2]*inv[8] + a[3]*inv[12]
	if gomath.Abs(float64(det)) < singularEpsilon {
		return NewMat4Identity(), false
	}

	invDet := 1.0 / det
	var out Mat4
	for i := 0; i < 16; i++ {
		out.Data[i] = inv[i] * invDet
	}
	return out, true
}
