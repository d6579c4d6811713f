package shaders

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/naga"
)

//go:embed common.wgsl
var commonWGSL string

//go:embed cube.wgsl
var cubeWGSL string

//go:embed sphere.wgsl
var sphereWGSL string

//go:embed ground.wgsl
var groundWGSL string

//go:embed sky.wgsl
var skyWGSL string

//go:embed shadow.wgsl
var ShadowWGSL string

//go:embed tonemap.wgsl
var TonemapWGSL string

// Forward programs share the bindings and lighting code in common.wgsl.
var (
	CubeWGSL   = commonWGSL + cubeWGSL
	SphereWGSL = commonWGSL + sphereWGSL
	GroundWGSL = commonWGSL + groundWGSL
	SkyWGSL    = commonWGSL + skyWGSL
)

type Program struct {
	Name   string
	Source string
}

func Programs() []Program {
	return []Program{
		{"shadow", ShadowWGSL},
		{"sky", SkyWGSL},
		{"ground", GroundWGSL},
		{"cube", CubeWGSL},
		{"sphere", SphereWGSL},
		{"tonemap", TonemapWGSL},
	}
}

// Compile translates one program to SPIR-V, which also runs the full WGSL
// front-end validation.
func Compile(p Program) ([]byte, error) {
	spirv, err := naga.Compile(p.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s shader: %w", p.Name, err)
	}
	return spirv, nil
}

// Unsupported reports whether err comes from WGSL the compiler does not
// handle yet rather than from a broken program.
func Unsupported(err error) bool {
	msg := err.Error()
	for _, s := range []string{"not yet implemented", "not implemented", "not supported", "unsupported", "unknown", "lowering error"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// Validate compiles every program and joins the failures. Programs that hit
// an Unsupported error are passed to skipped instead, when it is non-nil.
func Validate(skipped func(p Program, err error)) error {
	var errs []error
	for _, p := range Programs() {
		_, err := Compile(p)
		switch {
		case err == nil:
		case skipped != nil && Unsupported(err):
			skipped(p, err)
		default:
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
