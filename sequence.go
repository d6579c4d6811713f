package physobx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gekko3d/physobx/boxrt/rt/core"
)

// Sequence renders a simulation to numbered PNG frames under
// OutDir/RunID.
type Sequence struct {
	Renderer   *Renderer
	Simulation Simulation

	OutDir string
	Frames int
	FPS    int
	// Substeps physics steps of 1/(FPS*Substeps) seconds run per frame.
	Substeps int
	// Every writes only frames whose index is a multiple of Every. Written
	// files are numbered consecutively from 0 so ffmpeg reads them all.
	Every int
	// Overlap steps the simulation for frame N+1 on another goroutine while
	// frame N renders.
	Overlap bool

	RunID uuid.UUID
}

// SequenceResult summarizes a finished or cancelled run.
type SequenceResult struct {
	RunID    uuid.UUID
	Dir      string
	Rendered int
	Written  []string
	Elapsed  time.Duration
}

const framePattern = "frame_%04d.png"

func NewSequence(r *Renderer, sim Simulation, outDir string, frames int) *Sequence {
	return &Sequence{
		Renderer:   r,
		Simulation: sim,
		OutDir:     outDir,
		Frames:     frames,
		FPS:        30,
		Substeps:   2,
		Every:      1,
	}
}

func (s *Sequence) validate() error {
	if s.Renderer == nil || s.Simulation == nil {
		return fmt.Errorf("sequence needs a renderer and a simulation: %w", ErrInvalidConfig)
	}
	if s.Frames < 0 || s.FPS <= 0 || s.Substeps <= 0 || s.Every <= 0 {
		return fmt.Errorf("sequence frames %d fps %d substeps %d every %d: %w",
			s.Frames, s.FPS, s.Substeps, s.Every, ErrInvalidConfig)
	}
	return nil
}

func (s *Sequence) step() {
	dt := 1 / float32(s.FPS*s.Substeps)
	for i := 0; i < s.Substeps; i++ {
		s.Simulation.Step(dt)
	}
}

// FFmpegCommand is the command line that assembles the run into an H.264
// video. It is logged, never executed.
func (s *Sequence) FFmpegCommand(dir string) string {
	return strings.Join([]string{
		"ffmpeg", "-y",
		"-framerate", s.outputRate(),
		"-i", filepath.Join(dir, framePattern),
		"-c:v", "libx264", "-crf", "18", "-pix_fmt", "yuv420p",
		filepath.Join(dir, "out.mp4"),
	}, " ")
}

// outputRate is FPS/Every, written as a fraction when it is not whole.
func (s *Sequence) outputRate() string {
	if s.FPS%s.Every == 0 {
		return fmt.Sprint(s.FPS / s.Every)
	}
	return fmt.Sprintf("%d/%d", s.FPS, s.Every)
}

// Run renders Frames frames. ctx is checked between frames; a cancelled run
// returns the frames written so far along with ctx.Err().
func (s *Sequence) Run(ctx context.Context) (*SequenceResult, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if s.RunID == uuid.Nil {
		s.RunID = uuid.New()
	}
	res := &SequenceResult{RunID: s.RunID, Dir: filepath.Join(s.OutDir, s.RunID.String())}
	if err := os.MkdirAll(res.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	log := s.Renderer.Logger()
	log.Infof("sequence %s: %d frames at %d fps into %s", s.RunID, s.Frames, s.FPS, res.Dir)

	start := time.Now()
	var err error
	if s.Overlap {
		err = s.runOverlapped(ctx, res)
	} else {
		err = s.runSequential(ctx, res)
	}
	res.Elapsed = time.Since(start)
	if err != nil {
		return res, err
	}
	log.Infof("sequence %s: %d frames in %v", s.RunID, res.Rendered, res.Elapsed)
	log.Infof("assemble with: %s", s.FFmpegCommand(res.Dir))
	return res, nil
}

func (s *Sequence) runSequential(ctx context.Context, res *SequenceResult) error {
	for i := 0; i < s.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.step()
		snap := s.Simulation.Snapshot()
		if err := s.emit(i, &snap, res); err != nil {
			return err
		}
	}
	return nil
}

// runOverlapped hands snapshots over a channel of depth 1 so the producer
// is at most one frame ahead of the renderer.
func (s *Sequence) runOverlapped(ctx context.Context, res *SequenceResult) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snaps := make(chan core.FrameSnapshot, 1)
	go func() {
		defer close(snaps)
		for i := 0; i < s.Frames; i++ {
			s.step()
			select {
			case snaps <- s.Simulation.Snapshot():
			case <-ctx.Done():
				return
			}
		}
	}()

	i := 0
	for snap := range snaps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.emit(i, &snap, res); err != nil {
			return err
		}
		i++
	}
	return ctx.Err()
}

func (s *Sequence) emit(i int, snap *core.FrameSnapshot, res *SequenceResult) error {
	if i%s.Every != 0 {
		return nil
	}
	path := filepath.Join(res.Dir, fmt.Sprintf(framePattern, res.Rendered))
	if err := s.Renderer.SavePNG(snap, path); err != nil {
		return fmt.Errorf("frame %d: %w", i, err)
	}
	res.Rendered++
	res.Written = append(res.Written, path)
	s.Renderer.Logger().Debugf("frame %d/%d: %s", i+1, s.Frames, path)
	return nil
}
