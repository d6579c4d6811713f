package shaders

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// naga's Go port still lacks parts of WGSL; those programs are skipped
// rather than failed.
func skipUnsupported(t *testing.T, err error) {
	if Unsupported(err) {
		t.Skipf("Skipping: naga limitation: %v", err)
	}
}

func TestProgramsCompile(t *testing.T) {
	for _, p := range Programs() {
		t.Run(p.Name, func(t *testing.T) {
			require.NotEmpty(t, p.Source)
			spirv, err := Compile(p)
			if err != nil {
				skipUnsupported(t, err)
				t.Fatalf("%v", err)
			}
			require.GreaterOrEqual(t, len(spirv), 4)
			magic := uint32(spirv[0]) | uint32(spirv[1])<<8 | uint32(spirv[2])<<16 | uint32(spirv[3])<<24
			assert.Equal(t, uint32(0x07230203), magic)
		})
	}
}

func TestForwardProgramsShareBindings(t *testing.T) {
	for _, src := range []string{CubeWGSL, SphereWGSL, GroundWGSL, SkyWGSL} {
		assert.True(t, strings.HasPrefix(src, commonWGSL))
		assert.Contains(t, src, "fn vs_main")
		assert.Contains(t, src, "fn fs_main")
	}
	assert.Contains(t, ShadowWGSL, "fn vs_cube")
	assert.Contains(t, ShadowWGSL, "fn vs_sphere")
	assert.NotContains(t, ShadowWGSL, "@fragment")
}

func TestTonemapCurveConstants(t *testing.T) {
	assert.Contains(t, TonemapWGSL, "(x * (2.51 * x + 0.03)) / (x * (2.43 * x + 0.59) + 0.14)")
	assert.Equal(t, 1, strings.Count(TonemapWGSL, "aces("+"max"), "curve applied once")
}

func TestValidateReportsSkippedPrograms(t *testing.T) {
	var skipped []string
	err := Validate(func(p Program, err error) {
		assert.True(t, Unsupported(err))
		skipped = append(skipped, p.Name)
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(skipped), len(Programs()))
}

func TestCompileNamesBrokenProgram(t *testing.T) {
	_, err := Compile(Program{Name: "broken", Source: "fn vs_main( -> {"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken shader")
	assert.False(t, Unsupported(errors.New("expected ')' at 1:12")))
	assert.True(t, Unsupported(errors.New("textureSampleCompare: not yet implemented")))
}
