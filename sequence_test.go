package physobx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoSimulation() *StaticSimulation {
	return NewStaticSimulation(NewSceneBuilder().
		AddGround(0, 50).
		AddCubeGrid(Vec3(0, 2, 0), 2, [3]uint32{2, 2, 2}, 0.5, 1))
}

func TestSequenceWritesFrames(t *testing.T) {
	for _, overlap := range []bool{false, true} {
		t.Run(fmt.Sprintf("overlap=%v", overlap), func(t *testing.T) {
			r := newSoftRenderer(t)
			seq := NewSequence(r, demoSimulation(), t.TempDir(), 4)
			seq.Overlap = overlap
			res, err := seq.Run(context.Background())
			require.NoError(t, err)

			assert.NotEqual(t, uuid.Nil, res.RunID)
			assert.Equal(t, 4, res.Rendered)
			require.Len(t, res.Written, 4)
			for i, p := range res.Written {
				assert.Equal(t, fmt.Sprintf("frame_%04d.png", i), filepath.Base(p))
				_, err := os.Stat(p)
				assert.NoError(t, err)
			}
			assert.Equal(t, res.RunID.String(), filepath.Base(res.Dir))
		})
	}
}

func TestSequenceOverlapMatchesSequential(t *testing.T) {
	render := func(overlap bool) []byte {
		r := newSoftRenderer(t)
		seq := NewSequence(r, demoSimulation(), t.TempDir(), 3)
		seq.Overlap = overlap
		res, err := seq.Run(context.Background())
		require.NoError(t, err)
		b, err := os.ReadFile(res.Written[2])
		require.NoError(t, err)
		return b
	}
	assert.Equal(t, render(false), render(true))
}

func TestSequenceEvery(t *testing.T) {
	seq := NewSequence(newSoftRenderer(t), demoSimulation(), t.TempDir(), 7)
	seq.Every = 3
	res, err := seq.Run(context.Background())
	require.NoError(t, err)
	var names []string
	for _, p := range res.Written {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"frame_0000.png", "frame_0001.png", "frame_0002.png"}, names)
	assert.Equal(t, 3, res.Rendered)
}

func TestSequenceEveryNumbersWithoutGaps(t *testing.T) {
	seq := NewSequence(newSoftRenderer(t), demoSimulation(), t.TempDir(), 6)
	seq.Every = 2
	res, err := seq.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, res.Rendered)

	// ffmpeg's %04d input stops at the first missing index.
	for i := 0; i < res.Rendered; i++ {
		_, err := os.Stat(filepath.Join(res.Dir, fmt.Sprintf("frame_%04d.png", i)))
		require.NoError(t, err, "frame %d", i)
	}
	_, err = os.Stat(filepath.Join(res.Dir, fmt.Sprintf("frame_%04d.png", res.Rendered)))
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, seq.FFmpegCommand(res.Dir), "-framerate 15 ")
}

func TestSequenceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	seq := NewSequence(newSoftRenderer(t), demoSimulation(), t.TempDir(), 5)
	res, err := seq.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Zero(t, res.Rendered)
}

func TestSequenceValidation(t *testing.T) {
	seq := NewSequence(newSoftRenderer(t), demoSimulation(), t.TempDir(), 5)
	seq.FPS = 0
	_, err := seq.Run(context.Background())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewSequence(nil, demoSimulation(), t.TempDir(), 1).Run(context.Background())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFFmpegCommand(t *testing.T) {
	seq := NewSequence(nil, nil, "out", 10)
	cmd := seq.FFmpegCommand("out/run")
	assert.True(t, strings.HasPrefix(cmd, "ffmpeg -y -framerate 30 -i "))
	assert.Contains(t, cmd, filepath.Join("out/run", "frame_%04d.png"))
	assert.Contains(t, cmd, "-c:v libx264 -crf 18 -pix_fmt yuv420p")

	seq.Every = 4
	assert.Contains(t, seq.FFmpegCommand("out/run"), "-framerate 30/4 ")
}

// fallingSimulation drops every body by Speed*dt per step into a fresh
// slice, leaving earlier snapshots untouched.
type fallingSimulation struct {
	bodies []BodyRecord
	speed  float32
}

func (s *fallingSimulation) Step(dt float32) {
	next := slices.Clone(s.bodies)
	for i := range next {
		next[i].Position[1] -= s.speed * dt
	}
	s.bodies = next
}

func (s *fallingSimulation) Snapshot() FrameSnapshot {
	return FrameSnapshot{Bodies: s.bodies, CameraEye: DefaultCameraEye, CameraTarget: DefaultCameraTarget}
}

func TestSnapshotsSurviveLaterSteps(t *testing.T) {
	static := demoSimulation()
	snap := static.Snapshot()
	before := slices.Clone(snap.Bodies)
	for i := 0; i < 5; i++ {
		static.Step(0.1)
	}
	assert.Equal(t, before, snap.Bodies)

	fall := &fallingSimulation{bodies: demoSimulation().Bodies, speed: 3}
	snap = fall.Snapshot()
	before = slices.Clone(snap.Bodies)
	fall.Step(0.5)
	assert.Equal(t, before, snap.Bodies)
	assert.NotEqual(t, before, fall.Snapshot().Bodies)
}

func TestSequenceOverlapWithMovingBodies(t *testing.T) {
	render := func(overlap bool) [][]byte {
		sim := &fallingSimulation{bodies: demoSimulation().Bodies, speed: 30}
		seq := NewSequence(newSoftRenderer(t), sim, t.TempDir(), 4)
		seq.Overlap = overlap
		res, err := seq.Run(context.Background())
		require.NoError(t, err)
		var frames [][]byte
		for _, p := range res.Written {
			b, err := os.ReadFile(p)
			require.NoError(t, err)
			frames = append(frames, b)
		}
		return frames
	}
	seq, ovl := render(false), render(true)
	require.Len(t, ovl, 4)
	assert.Equal(t, seq, ovl)
	assert.NotEqual(t, ovl[0], ovl[3])
}
