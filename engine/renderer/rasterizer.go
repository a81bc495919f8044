package renderer

import (
	"image"
	"image/color"

	"github.com/Carmen-Shannon/oxy-stereo/common"
	"github.com/Carmen-Shannon/oxy-stereo/engine/camera"
	"github.com/Carmen-Shannon/oxy-stereo/engine/light"
	"github.com/Carmen-Shannon/oxy-stereo/engine/model"
	"github.com/Carmen-Shannon/oxy-stereo/engine/scene"
	"github.com/chewxy/math32"
)

// Viewport is a pixel rectangle of the frame that a camera renders into.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// Empty reports whether the viewport covers no pixels.
func (v Viewport) Empty() bool {
	return v.Width <= 0 || v.Height <= 0
}

// Aspect returns width / height, or 1 for an empty viewport.
func (v Viewport) Aspect() float32 {
	if v.Empty() {
		return 1
	}
	return float32(v.Width) / float32(v.Height)
}

// SplitHorizontal divides the viewport into a left and a right half.
// An odd pixel column goes to the right half.
//
// Returns:
//   - Viewport: the left half
//   - Viewport: the right half
func (v Viewport) SplitHorizontal() (Viewport, Viewport) {
	half := v.Width / 2
	left := Viewport{X: v.X, Y: v.Y, Width: half, Height: v.Height}
	right := Viewport{X: v.X + half, Y: v.Y, Width: v.Width - half, Height: v.Height}
	return left, right
}

func (v Viewport) rect() image.Rectangle {
	return image.Rect(v.X, v.Y, v.X+v.Width, v.Y+v.Height)
}

// framebuffer is a color target with a matching depth buffer.
type framebuffer struct {
	color *image.RGBA
	depth []float32
}

func newFramebuffer(width, height int) *framebuffer {
	return &framebuffer{
		color: image.NewRGBA(image.Rect(0, 0, width, height)),
		depth: make([]float32, width*height),
	}
}

// clearRect fills the rectangle with the background color and resets its depth to the far plane.
func (f *framebuffer) clearRect(r image.Rectangle, background [3]float32) {
	r = r.Intersect(f.color.Rect)
	c := color.RGBA{
		R: uint8(common.Clamp(background[0], 0, 1)*255 + 0.5),
		G: uint8(common.Clamp(background[1], 0, 1)*255 + 0.5),
		B: uint8(common.Clamp(background[2], 0, 1)*255 + 0.5),
		A: 255,
	}
	w := f.color.Rect.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := f.color.Pix[y*f.color.Stride:]
		for x := r.Min.X; x < r.Max.X; x++ {
			o := x * 4
			row[o], row[o+1], row[o+2], row[o+3] = c.R, c.G, c.B, c.A
			f.depth[y*w+x] = 1
		}
	}
}

// rasterVertex is a vertex after the model-view-projection transform.
type rasterVertex struct {
	clip  [4]float32
	u, v  float32
	shade [3]float32
}

func lerpVertex(a, b rasterVertex, t float32) rasterVertex {
	var out rasterVertex
	for i := range out.clip {
		out.clip[i] = a.clip[i] + (b.clip[i]-a.clip[i])*t
	}
	out.u = a.u + (b.u-a.u)*t
	out.v = a.v + (b.v-a.v)*t
	for i := range out.shade {
		out.shade[i] = a.shade[i] + (b.shade[i]-a.shade[i])*t
	}
	return out
}

// screenVertex is a clipped vertex in viewport pixel space.
type screenVertex struct {
	x, y, z float32
	invW    float32
	u, v    float32
	shade   [3]float32
}

// rasterizer draws one camera view into a viewport of the framebuffer.
type rasterizer struct {
	fb       *framebuffer
	viewport Viewport
	bounds   image.Rectangle
}

func newRasterizer(fb *framebuffer, vp Viewport) *rasterizer {
	return &rasterizer{
		fb:       fb,
		viewport: vp,
		bounds:   vp.rect().Intersect(fb.color.Rect),
	}
}

// drawScene clears the viewport to the scene background and draws every mesh
// visible to the camera's layers. Opaque meshes are drawn before transparent
// ones and each group keeps scene order.
func (r *rasterizer) drawScene(s scene.Scene, cam camera.Camera) {
	r.fb.clearRect(r.bounds, s.Background())
	if r.bounds.Empty() {
		return
	}

	mask := cam.Layers()
	meshes := drawList(s, mask)
	lights := s.LightsFor(mask)

	viewProj := cam.ViewProjectionMatrix()
	for _, m := range meshes {
		r.drawMesh(m, viewProj, lights)
	}
}

func (r *rasterizer) drawMesh(m model.Mesh, viewProj [16]float32, lights []light.Light) {
	g := m.Geometry()
	mat := m.Material()
	if g == nil || mat == nil || g.VertexCount() == 0 {
		return
	}

	modelMatrix := m.ModelMatrix()
	var mvp [16]float32
	common.Mul4(mvp[:], viewProj[:], modelMatrix[:])
	frustum := common.ExtractFrustumFromMatrix(mvp[:])

	surf := newSurface(mat)
	lit := m.Primitive() == model.PrimitiveTriangles
	smooth := lit && !mat.FlatShading()

	count := g.VertexCount()
	local := make([][3]float32, count)
	verts := make([]rasterVertex, count)
	for i := 0; i < count; i++ {
		p := g.Position(i)
		n := g.Normal(i)
		uv := g.UV(i)
		if d := mat.Displace(uv[0], uv[1]); d != 0 {
			p[0] += n[0] * d
			p[1] += n[1] * d
			p[2] += n[2] * d
		}
		local[i] = p
		verts[i] = rasterVertex{
			clip: common.TransformPoint(mvp[:], p[0], p[1], p[2]),
			u:    uv[0],
			v:    uv[1],
		}
		if smooth {
			wx, wy, wz := common.TransformDirection(modelMatrix[:], n[0], n[1], n[2])
			verts[i].shade = irradiance(lights, [3]float32{wx, wy, wz})
		} else if !lit {
			verts[i].shade = [3]float32{1, 1, 1}
		}
	}

	idx := g.Indices
	if m.Primitive() == model.PrimitiveLines {
		for i := 0; i+1 < len(idx); i += 2 {
			a, b := idx[i], idx[i+1]
			r.drawLine(verts[a], verts[b], surf)
		}
		return
	}

	for i := 0; i+2 < len(idx); i += 3 {
		a, b, c := idx[i], idx[i+1], idx[i+2]
		if frustum.TriangleOutside(local[a], local[b], local[c]) {
			continue
		}
		va, vb, vc := verts[a], verts[b], verts[c]
		if !smooth {
			n := faceNormal(modelMatrix[:], local[a], local[b], local[c])
			s := irradiance(lights, n)
			va.shade, vb.shade, vc.shade = s, s, s
		}
		r.drawTriangle(va, vb, vc, surf)
	}
}

// faceNormal returns the world space normal of a triangle given in local space.
func faceNormal(modelMatrix []float32, a, b, c [3]float32) [3]float32 {
	wa := common.TransformPoint(modelMatrix, a[0], a[1], a[2])
	wb := common.TransformPoint(modelMatrix, b[0], b[1], b[2])
	wc := common.TransformPoint(modelMatrix, c[0], c[1], c[2])
	e1 := [3]float32{wb[0] - wa[0], wb[1] - wa[1], wb[2] - wa[2]}
	e2 := [3]float32{wc[0] - wa[0], wc[1] - wa[1], wc[2] - wa[2]}
	x, y, z := common.Normalize3(
		e1[1]*e2[2]-e1[2]*e2[1],
		e1[2]*e2[0]-e1[0]*e2[2],
		e1[0]*e2[1]-e1[1]*e2[0],
	)
	return [3]float32{x, y, z}
}

// irradiance sums the contribution of all lights for a surface normal.
func irradiance(lights []light.Light, normal [3]float32) [3]float32 {
	var out [3]float32
	for _, l := range lights {
		e := l.Irradiance(normal)
		out[0] += e[0]
		out[1] += e[1]
		out[2] += e[2]
	}
	return out
}

// clipNear clips a polygon against the near plane (clip z >= 0).
func clipNear(poly []rasterVertex) []rasterVertex {
	out := make([]rasterVertex, 0, len(poly)+1)
	for i := range poly {
		cur := poly[i]
		next := poly[(i+1)%len(poly)]
		curIn := cur.clip[2] >= 0
		nextIn := next.clip[2] >= 0
		if curIn {
			out = append(out, cur)
		}
		if curIn != nextIn {
			t := cur.clip[2] / (cur.clip[2] - next.clip[2])
			out = append(out, lerpVertex(cur, next, t))
		}
	}
	return out
}

func (r *rasterizer) project(v rasterVertex) screenVertex {
	invW := 1 / v.clip[3]
	vp := r.viewport
	return screenVertex{
		x:     float32(vp.X) + (v.clip[0]*invW*0.5+0.5)*float32(vp.Width),
		y:     float32(vp.Y) + (0.5-v.clip[1]*invW*0.5)*float32(vp.Height),
		z:     v.clip[2] * invW,
		invW:  invW,
		u:     v.u * invW,
		v:     v.v * invW,
		shade: [3]float32{v.shade[0] * invW, v.shade[1] * invW, v.shade[2] * invW},
	}
}

func (r *rasterizer) drawTriangle(a, b, c rasterVertex, mat surface) {
	poly := clipNear([]rasterVertex{a, b, c})
	if len(poly) < 3 {
		return
	}
	s0 := r.project(poly[0])
	for i := 1; i+1 < len(poly); i++ {
		r.fillTriangle(s0, r.project(poly[i]), r.project(poly[i+1]), mat)
	}
}

func edge(a, b screenVertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

func (r *rasterizer) fillTriangle(a, b, c screenVertex, mat surface) {
	area := edge(a, b, c.x, c.y)
	if math32.Abs(area) < 1e-8 {
		return
	}

	minX := int(math32.Floor(min(a.x, b.x, c.x)))
	maxX := int(math32.Ceil(max(a.x, b.x, c.x)))
	minY := int(math32.Floor(min(a.y, b.y, c.y)))
	maxY := int(math32.Ceil(max(a.y, b.y, c.y)))
	minX = max(minX, r.bounds.Min.X)
	minY = max(minY, r.bounds.Min.Y)
	maxX = min(maxX, r.bounds.Max.X-1)
	maxY = min(maxY, r.bounds.Max.Y-1)
	if minX > maxX || minY > maxY {
		return
	}

	invArea := 1 / area
	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(b, c, px, py) * invArea
			w1 := edge(c, a, px, py) * invArea
			w2 := edge(a, b, px, py) * invArea
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			z := w0*a.z + w1*b.z + w2*c.z
			if z < 0 || z > 1 {
				continue
			}
			iw := w0*a.invW + w1*b.invW + w2*c.invW
			if iw <= 0 {
				continue
			}
			pw := 1 / iw
			u := (w0*a.u + w1*b.u + w2*c.u) * pw
			v := (w0*a.v + w1*b.v + w2*c.v) * pw
			shade := [3]float32{
				(w0*a.shade[0] + w1*b.shade[0] + w2*c.shade[0]) * pw,
				(w0*a.shade[1] + w1*b.shade[1] + w2*c.shade[1]) * pw,
				(w0*a.shade[2] + w1*b.shade[2] + w2*c.shade[2]) * pw,
			}
			r.writeFragment(x, y, z, mat.shadeFragment(u, v, shade), mat)
		}
	}
}

func (r *rasterizer) drawLine(a, b rasterVertex, mat surface) {
	if a.clip[2] < 0 && b.clip[2] < 0 {
		return
	}
	if a.clip[2] < 0 {
		a = lerpVertex(a, b, a.clip[2]/(a.clip[2]-b.clip[2]))
	} else if b.clip[2] < 0 {
		b = lerpVertex(b, a, b.clip[2]/(b.clip[2]-a.clip[2]))
	}
	sa, sb := r.project(a), r.project(b)

	dx, dy := sb.x-sa.x, sb.y-sa.y
	steps := int(math32.Ceil(max(math32.Abs(dx), math32.Abs(dy))))
	if steps == 0 {
		steps = 1
	}
	// Guard against segments projected far off screen.
	if steps > 4*(r.viewport.Width+r.viewport.Height) {
		return
	}
	frag := mat.shadeFragment(0, 0, [3]float32{1, 1, 1})
	for i := 0; i <= steps; i++ {
		t := float32(i) / float32(steps)
		x := int(math32.Floor(sa.x + dx*t))
		y := int(math32.Floor(sa.y + dy*t))
		if x < r.bounds.Min.X || x >= r.bounds.Max.X || y < r.bounds.Min.Y || y >= r.bounds.Max.Y {
			continue
		}
		z := sa.z + (sb.z-sa.z)*t
		if z < 0 || z > 1 {
			continue
		}
		r.writeFragment(x, y, z, frag, mat)
	}
}

// writeFragment applies the depth test and blends an RGBA fragment in [0, 1] into the frame.
func (r *rasterizer) writeFragment(x, y int, z float32, frag [4]float32, mat surface) {
	di := y*r.fb.color.Rect.Dx() + x
	if mat.depthTest {
		if z >= r.fb.depth[di] {
			return
		}
		r.fb.depth[di] = z
	}

	o := r.fb.color.PixOffset(x, y)
	pix := r.fb.color.Pix[o : o+4 : o+4]
	if !mat.transparent {
		pix[0] = encodeSRGB(frag[0])
		pix[1] = encodeSRGB(frag[1])
		pix[2] = encodeSRGB(frag[2])
		pix[3] = 255
		return
	}
	alpha := common.Clamp(frag[3], 0, 1)
	for i := 0; i < 3; i++ {
		src := float32(encodeSRGB(frag[i]))
		pix[i] = uint8(src*alpha + float32(pix[i])*(1-alpha) + 0.5)
	}
}
