package edgelabel

import (
	"image"
	"math"

	"github.com/paulmach/orb"
	"golang.org/x/image/vector"
)

// 单通道栅格，行优先，原点为左上角
type Raster struct {
	Width  int
	Height int
	Pix    []uint8
}

func NewRaster(width, height int) *Raster {
	return &Raster{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// 标准瓦片大小的全零栅格
func EmptyRaster(size int) *Raster {
	return NewRaster(size, size)
}

func (r *Raster) At(col, row int) uint8 {
	return r.Pix[row*r.Width+col]
}

func (r *Raster) Set(col, row int, v uint8) {
	r.Pix[row*r.Width+col] = v
}

func (r *Raster) Count(v uint8) (n int) {
	for _, p := range r.Pix {
		if p == v {
			n++
		}
	}
	return
}

// 各像素乘以f（新栅格）
func (r *Raster) Scale(f uint8) *Raster {
	ret := NewRaster(r.Width, r.Height)
	for i, p := range r.Pix {
		ret.Pix[i] = p * f
	}
	return ret
}

func (r *Raster) Gray() *image.Gray {
	return &image.Gray{Pix: r.Pix, Stride: r.Width, Rect: image.Rect(0, 0, r.Width, r.Height)}
}

// 覆盖率过半的像素记为占用
const coverageThreshold = 0x80

// 将非空矢量按1烧录到PixelExtent(extent)大小的全零栅格，面填充、线描线
func Rasterize(e GeometryEngine, gs []Geometry, extent BBox, pixelSize float64) *Raster {
	w, h := PixelExtent(extent, pixelSize)
	ret := NewRaster(w, h)
	b := &burner{
		dst:       ret,
		extent:    extent,
		pixelSize: pixelSize,
		z:         vector.NewRasterizer(w, h),
	}
	for _, g := range gs {
		if g == nil || e.IsEmpty(g) {
			continue
		}
		b.burn(e.Shape(g))
	}
	if b.filled {
		b.flushFill()
	}
	return ret
}

type burner struct {
	dst       *Raster
	extent    BBox
	pixelSize float64
	z         *vector.Rasterizer
	filled    bool
}

func (b *burner) burn(og orb.Geometry) {
	switch v := og.(type) {
	case orb.Polygon:
		b.fillPolygon(v)
	case orb.MultiPolygon:
		for _, p := range v {
			b.fillPolygon(p)
		}
	case orb.Bound:
		b.fillPolygon(v.ToPolygon())
	case orb.LineString:
		b.traceLine(v)
	case orb.Ring:
		b.traceLine(orb.LineString(v))
	case orb.MultiLineString:
		for _, ls := range v {
			b.traceLine(ls)
		}
	case orb.Point:
		b.plot(v)
	case orb.MultiPoint:
		for _, p := range v {
			b.plot(p)
		}
	case orb.Collection:
		for _, sub := range v {
			b.burn(sub)
		}
	}
}

// 外环统一为逆时针、内环为顺时针，使非零环绕累加得到各面的并集
func (b *burner) fillPolygon(p orb.Polygon) {
	for i, ring := range p {
		if len(ring) < 3 {
			continue
		}
		want := orb.CCW
		if i > 0 {
			want = orb.CW
		}
		pts := []orb.Point(ring)
		reverse := ring.Orientation() != want
		// 翻转y轴后所有环的方向同时反转，不影响非零环绕规则
		n := len(pts)
		at := func(k int) orb.Point {
			if reverse {
				return pts[n-1-k]
			}
			return pts[k]
		}
		px, py := toPixel(b.extent, b.pixelSize, at(0)[0], at(0)[1])
		b.z.MoveTo(float32(px), float32(py))
		for k := 1; k < n; k++ {
			px, py = toPixel(b.extent, b.pixelSize, at(k)[0], at(k)[1])
			b.z.LineTo(float32(px), float32(py))
		}
		b.z.ClosePath()
		b.filled = true
	}
}

func (b *burner) flushFill() {
	cov := image.NewAlpha(image.Rect(0, 0, b.dst.Width, b.dst.Height))
	b.z.Draw(cov, cov.Bounds(), image.Opaque, image.Point{})
	for i, a := range cov.Pix {
		if a >= coverageThreshold {
			b.dst.Pix[i] = 1
		}
	}
}

// 以半像素步长沿线段采样，落点所在像素记为占用
func (b *burner) traceLine(ls orb.LineString) {
	if len(ls) == 1 {
		b.plot(ls[0])
		return
	}
	for i := 1; i < len(ls); i++ {
		x0, y0 := toPixel(b.extent, b.pixelSize, ls[i-1][0], ls[i-1][1])
		x1, y1 := toPixel(b.extent, b.pixelSize, ls[i][0], ls[i][1])
		steps := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))*2)) + 1
		for s := 0; s <= steps; s++ {
			t := float64(s) / float64(steps)
			b.setPixel(x0+(x1-x0)*t, y0+(y1-y0)*t)
		}
	}
}

func (b *burner) plot(p orb.Point) {
	b.setPixel(toPixel(b.extent, b.pixelSize, p[0], p[1]))
}

// 落在右、下边缘上的点归入最后一列、行，越界半像素以上的点忽略
func (b *burner) setPixel(px, py float64) {
	col, ok := clampIndex(px, b.dst.Width)
	if !ok {
		return
	}
	row, ok := clampIndex(py, b.dst.Height)
	if !ok {
		return
	}
	b.dst.Set(col, row, 1)
}

func clampIndex(v float64, n int) (i int, ok bool) {
	if n <= 0 || v < -0.5 || v > float64(n)+0.5 {
		return
	}
	return min(max(int(math.Floor(v)), 0), n-1), true
}
