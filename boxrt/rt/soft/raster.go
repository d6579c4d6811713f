package soft

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// varyings are interpolated perspective-correctly across a triangle.
type varyings struct {
	World  mgl32.Vec3
	Normal mgl32.Vec3
	Local  mgl32.Vec3
}

func (v varyings) scale(s float32) varyings {
	return varyings{v.World.Mul(s), v.Normal.Mul(s), v.Local.Mul(s)}
}

func (v varyings) add(o varyings) varyings {
	return varyings{v.World.Add(o.World), v.Normal.Add(o.Normal), v.Local.Add(o.Local)}
}

type clipVertex struct {
	Clip mgl32.Vec4
	Attr varyings
}

type cullMode uint8

const (
	cullNone cullMode = iota
	cullBack
)

// depthBuffer is a row-major float depth target, row 0 at the top.
type depthBuffer struct {
	w, h  int
	depth []float32
}

func newDepthBuffer(w, h int) *depthBuffer {
	return &depthBuffer{w: w, h: h, depth: make([]float32, w*h)}
}

func (d *depthBuffer) clear(v float32) {
	for i := range d.depth {
		d.depth[i] = v
	}
}

// Size and Depth make a square depthBuffer a core.DepthMap.
func (d *depthBuffer) Size() int               { return d.w }
func (d *depthBuffer) Depth(x, y int) float32 { return d.depth[y*d.w+x] }

// fragmentFunc shades one covered pixel that passed the depth test.
type fragmentFunc func(x, y int, v varyings)

type rasterState struct {
	target     *depthBuffer
	cull       cullMode
	depthWrite bool
	// slopeBias scales the triangle's maximum depth slope per pixel and is
	// added to every fragment depth, like a hardware slope-scaled bias.
	slopeBias float32
	constBias float32
}

// clipNear clips a triangle against z >= 0 (the [0,1] depth near plane)
// and returns a convex polygon of up to 4 vertices.
func clipNear(tri [3]clipVertex, out []clipVertex) []clipVertex {
	out = out[:0]
	for i := 0; i < 3; i++ {
		a, b := tri[i], tri[(i+1)%3]
		da, db := a.Clip[2], b.Clip[2]
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			t := da / (da - db)
			out = append(out, clipVertex{
				Clip: a.Clip.Add(b.Clip.Sub(a.Clip).Mul(t)),
				Attr: a.Attr.add(b.Attr.add(a.Attr.scale(-1)).scale(t)),
			})
		}
	}
	return out
}

type screenVertex struct {
	x, y, z float32
	invW    float32
	attr    varyings // pre-divided by w
}

func (r *rasterState) toScreen(v clipVertex) screenVertex {
	invW := 1 / v.Clip[3]
	return screenVertex{
		x:    (v.Clip[0]*invW + 1) * 0.5 * float32(r.target.w),
		y:    (1 - v.Clip[1]*invW) * 0.5 * float32(r.target.h),
		z:    v.Clip[2] * invW,
		invW: invW,
		attr: v.Attr.scale(invW),
	}
}

// drawTriangle clips, culls and scan-converts one triangle, calling frag
// for every pixel center that passes the Less depth test.
func (r *rasterState) drawTriangle(tri [3]clipVertex, scratch []clipVertex, frag fragmentFunc) []clipVertex {
	if tri[0].Clip[3] <= 0 && tri[1].Clip[3] <= 0 && tri[2].Clip[3] <= 0 {
		return scratch
	}
	poly := clipNear(tri, scratch)
	for i := 1; i+1 < len(poly); i++ {
		r.fill(r.toScreen(poly[0]), r.toScreen(poly[i]), r.toScreen(poly[i+1]), frag)
	}
	return poly
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func (r *rasterState) fill(a, b, c screenVertex, frag fragmentFunc) {
	area := edge(a.x, a.y, b.x, b.y, c.x, c.y)
	if area == 0 {
		return
	}
	// Screen y points down, so counter-clockwise front faces have negative
	// area here.
	if r.cull == cullBack && area > 0 {
		return
	}
	if area > 0 {
		b, c = c, b
		area = -area
	}
	inv := 1 / area

	var bias float32
	if r.slopeBias != 0 || r.constBias != 0 {
		dzdx := ((b.z-a.z)*(c.y-a.y) - (c.z-a.z)*(b.y-a.y)) * inv
		dzdy := ((c.z-a.z)*(b.x-a.x) - (b.z-a.z)*(c.x-a.x)) * inv
		bias = r.constBias + r.slopeBias*max(abs32(dzdx), abs32(dzdy))
	}

	w, h := r.target.w, r.target.h
	minX := max(0, int(math.Floor(float64(min(a.x, b.x, c.x)))))
	maxX := min(w-1, int(math.Ceil(float64(max(a.x, b.x, c.x)))))
	minY := max(0, int(math.Floor(float64(min(a.y, b.y, c.y)))))
	maxY := min(h-1, int(math.Ceil(float64(max(a.y, b.y, c.y)))))

	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(b.x, b.y, c.x, c.y, px, py) * inv
			w1 := edge(c.x, c.y, a.x, a.y, px, py) * inv
			w2 := edge(a.x, a.y, b.x, b.y, px, py) * inv
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*a.z + w1*b.z + w2*c.z + bias
			if z < 0 || z > 1 {
				continue
			}
			idx := y*w + x
			if !(z < r.target.depth[idx]) {
				continue
			}
			if r.depthWrite {
				r.target.depth[idx] = z
			}
			if frag == nil {
				continue
			}
			invW := w0*a.invW + w1*b.invW + w2*c.invW
			attr := a.attr.scale(w0).add(b.attr.scale(w1)).add(c.attr.scale(w2)).scale(1 / invW)
			frag(x, y, attr)
		}
	}
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
