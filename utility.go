package edgelabel

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// 投影坐标（米）外包框
type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

func NewBBox(xmin, ymin, xmax, ymax float64) (b BBox, err error) {
	b = BBox{MinX: xmin, MinY: ymin, MaxX: xmax, MaxY: ymax}
	if !b.Valid() {
		err = fmt.Errorf("%w: [%v %v %v %v]", ErrInvalidBBox, xmin, ymin, xmax, ymax)
	}
	return
}

func (b BBox) Valid() bool {
	return b.MaxX > b.MinX && b.MaxY > b.MinY && !math.IsNaN(b.MinX) && !math.IsNaN(b.MinY)
}

func (b BBox) Width() float64 {
	return b.MaxX - b.MinX
}

func (b BBox) Height() float64 {
	return b.MaxY - b.MinY
}

func (b BBox) Union(o BBox) BBox {
	return BBox{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

func (b BBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinX, b.MinY}, Max: orb.Point{b.MaxX, b.MaxY}}
}

func FromBound(bd orb.Bound) BBox {
	return BBox{MinX: bd.Min[0], MinY: bd.Min[1], MaxX: bd.Max[0], MaxY: bd.Max[1]}
}

func (b BBox) Slice() []float64 {
	return []float64{b.MinX, b.MinY, b.MaxX, b.MaxY}
}

func (b BBox) WKT() string {
	return fmt.Sprintf("POLYGON((%[1]f %[2]f, %[1]f %[4]f, %[3]f %[4]f, %[3]f %[2]f, %[1]f %[2]f))", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// 外包框对应的像素宽高，每个方向至少1像素
func PixelExtent(b BBox, pixelSize float64) (width, height int) {
	width = max(int(math.Round((b.MaxX-b.MinX)/pixelSize)), 1)
	height = max(int(math.Round((b.MaxY-b.MinY)/pixelSize)), 1)
	return
}

// inner左上角在outer像素网格中的列、行偏移（四舍五入，保证相邻瓦片接缝对齐）
func PixelOffset(outer, inner BBox, pixelSize float64) (col, row int) {
	col = int(math.Round((inner.MinX - outer.MinX) / pixelSize))
	row = int(math.Round((outer.MaxY - inner.MaxY) / pixelSize))
	return
}

// PixelOffset的逆变换：像素左上角的投影坐标
func PixelOrigin(outer BBox, col, row int, pixelSize float64) (x, y float64) {
	x = outer.MinX + float64(col)*pixelSize
	y = outer.MaxY - float64(row)*pixelSize
	return
}

// 投影坐标到浮点像素坐标（y向下）
func toPixel(b BBox, pixelSize, x, y float64) (px, py float64) {
	px = (x - b.MinX) / pixelSize
	py = (b.MaxY - y) / pixelSize
	return
}
