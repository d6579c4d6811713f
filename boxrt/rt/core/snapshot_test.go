package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestSnapshotValidate(t *testing.T) {
	base := func() FrameSnapshot {
		return FrameSnapshot{
			Bodies: []BodyRecord{
				Cube(mgl32.Vec3{}, 0.5, mgl32.QuatIdent(), mgl32.Vec3{1, 0, 0}),
				Sphere(mgl32.Vec3{2, 0, 0}, 1, mgl32.Vec3{0, 0, 1}),
			},
			CameraEye:    mgl32.Vec3{10, 10, 10},
			CameraTarget: mgl32.Vec3{},
		}
	}
	s := base()
	assert.NoError(t, s.Validate())

	s = base()
	s.Bodies[0].Orientation = QuatXYZW(0, 0, 0, 2)
	assert.ErrorIs(t, s.Validate(), ErrNonUnitOrientation)

	// Sphere orientation is never used.
	s = base()
	s.Bodies[1].Orientation = mgl32.Quat{}
	assert.NoError(t, s.Validate())

	s = base()
	s.Bodies[1].Size = 0
	assert.ErrorIs(t, s.Validate(), ErrInvalidSnapshot)

	s = base()
	s.Bodies[0].Color = mgl32.Vec3{1.5, 0, 0}
	assert.ErrorIs(t, s.Validate(), ErrInvalidSnapshot)

	s = base()
	s.Bodies[0].Position[1] = float32(math.NaN())
	assert.ErrorIs(t, s.Validate(), ErrInvalidSnapshot)

	s = base()
	s.CameraTarget = s.CameraEye
	err := s.Validate()
	assert.ErrorIs(t, err, ErrDegenerateCamera)
	assert.True(t, IsConfigError(err))

	s = base()
	s.Bodies[0].Shape = ShapeKind(9)
	assert.ErrorIs(t, s.Validate(), ErrInvalidSnapshot)
}

func TestShapeKindString(t *testing.T) {
	assert.Equal(t, "cube", ShapeCube.String())
	assert.Equal(t, "sphere", ShapeSphere.String())
	assert.Equal(t, "shape(7)", ShapeKind(7).String())
}
