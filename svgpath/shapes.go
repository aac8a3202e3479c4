package svgpath

import "math"

// Reduction of basic shapes and elliptical arcs to path operations.

const (
	// kappa is the distance of the control points of the cubic
	// approximating a quarter of the unit circle.
	kappa = 0.5522847498307936

	// maxArcSpan is the largest angle approximated by a single cubic.
	maxArcSpan = math.Pi / 2
)

// AddRect adds a closed rectangle.
func (p *Path) AddRect(minX, minY, maxX, maxY float64) {
	p.AddPolyline([]float64{minX, minY, maxX, minY, maxX, maxY, minX, maxY}, true)
}

// AddRoundRect adds a rectangle with elliptical corners of radii (rx, ry),
// reduced to half of the sides if needed.
func (p *Path) AddRoundRect(minX, minY, maxX, maxY, rx, ry float64) {
	if rx <= 0 || ry <= 0 {
		p.AddRect(minX, minY, maxX, maxY)
		return
	}
	rx = math.Min(rx, (maxX-minX)/2)
	ry = math.Min(ry, (maxY-minY)/2)
	kx, ky := kappa*rx, kappa*ry

	p.Start(minX+rx, minY)
	p.Line(maxX-rx, minY)
	p.CubeBezier(maxX-rx+kx, minY, maxX, minY+ry-ky, maxX, minY+ry)
	p.Line(maxX, maxY-ry)
	p.CubeBezier(maxX, maxY-ry+ky, maxX-rx+kx, maxY, maxX-rx, maxY)
	p.Line(minX+rx, maxY)
	p.CubeBezier(minX+rx-kx, maxY, minX, maxY-ry+ky, minX, maxY-ry)
	p.Line(minX, minY+ry)
	p.CubeBezier(minX, minY+ry-ky, minX+rx-kx, minY, minX+rx, minY)
	p.Stop(true)
}

// AddEllipse adds a closed ellipse centered at (cx, cy),
// made of four cubics.
func (p *Path) AddEllipse(cx, cy, rx, ry float64) {
	kx, ky := kappa*rx, kappa*ry
	p.Start(cx+rx, cy)
	p.CubeBezier(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	p.CubeBezier(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	p.CubeBezier(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	p.CubeBezier(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	p.Stop(true)
}

// AddPolyline adds the points (x0, y0, x1, y1, ...) as a sequence
// of segments. Fewer than two points add nothing.
func (p *Path) AddPolyline(points []float64, closed bool) {
	if len(points) < 4 {
		return
	}
	p.Start(points[0], points[1])
	for i := 2; i+1 < len(points); i += 2 {
		p.Line(points[i], points[i+1])
	}
	p.Stop(closed)
}

// ellipse is an ellipse rotated by phi, parametrized by its angle.
type ellipse struct {
	cx, cy, rx, ry float64
	sin, cos       float64 // of the rotation
}

func (e ellipse) point(t float64) (float64, float64) {
	x, y := e.rx*math.Cos(t), e.ry*math.Sin(t)
	return e.cx + x*e.cos - y*e.sin, e.cy + x*e.sin + y*e.cos
}

// tangent is the derivative of point
func (e ellipse) tangent(t float64) (float64, float64) {
	x, y := -e.rx*math.Sin(t), e.ry*math.Cos(t)
	return x*e.cos - y*e.sin, x*e.sin + y*e.cos
}

// arcTo adds the elliptical arc from (x0, y0) to (x1, y1) with the
// SVG endpoint parameters. Radii too small to join the points are
// scaled up. Zero radii must be handled by the caller.
func (p *Path) arcTo(x0, y0, rx, ry, rotation float64, large, sweep bool, x1, y1 float64) {
	phi := rotation * math.Pi / 180
	e := ellipse{rx: math.Abs(rx), ry: math.Abs(ry), sin: math.Sin(phi), cos: math.Cos(phi)}

	// midpoint, in the ellipse axes
	mx, my := (x0-x1)/2, (y0-y1)/2
	px := e.cos*mx + e.sin*my
	py := -e.sin*mx + e.cos*my

	if l := px*px/(e.rx*e.rx) + py*py/(e.ry*e.ry); l > 1 {
		e.rx *= math.Sqrt(l)
		e.ry *= math.Sqrt(l)
	}

	rx2, ry2 := e.rx*e.rx, e.ry*e.ry
	num := rx2*ry2 - rx2*py*py - ry2*px*px
	den := rx2*py*py + ry2*px*px
	var coef float64
	if num > 0 && den > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	ccx, ccy := coef*e.rx*py/e.ry, -coef*e.ry*px/e.rx
	e.cx = e.cos*ccx - e.sin*ccy + (x0+x1)/2
	e.cy = e.sin*ccx + e.cos*ccy + (y0+y1)/2

	start := math.Atan2((py-ccy)/e.ry, (px-ccx)/e.rx)
	end := math.Atan2((-py-ccy)/e.ry, (-px-ccx)/e.rx)
	span := end - start
	if sweep && span < 0 {
		span += 2 * math.Pi
	} else if !sweep && span > 0 {
		span -= 2 * math.Pi
	}

	segs := int(math.Ceil(math.Abs(span)/maxArcSpan - 1e-9))
	if segs < 1 {
		segs = 1
	}
	step := span / float64(segs)
	k := 4. / 3 * math.Tan(step/4)

	ax, ay := x0, y0
	adx, ady := e.tangent(start)
	for i := 1; i <= segs; i++ {
		t := start + step*float64(i)
		bx, by := e.point(t)
		if i == segs {
			bx, by = x1, y1 // exact end point
		}
		bdx, bdy := e.tangent(t)
		p.CubeBezier(ax+k*adx, ay+k*ady, bx-k*bdx, by-k*bdy, bx, by)
		ax, ay, adx, ady = bx, by, bdx, bdy
	}
}
