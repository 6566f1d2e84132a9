package edgelabel

import (
	"fmt"
)

// 类别数（FB、LE、NBF）
const ClassChannels = 3

// 将src贴入dst，左上角位于(col,row)，超出部分丢弃
func EmbedRaster(dst, src *Raster, col, row int) {
	for sr := 0; sr < src.Height; sr++ {
		dr := row + sr
		if dr < 0 || dr >= dst.Height {
			continue
		}
		c0, c1 := max(col, 0), min(col+src.Width, dst.Width)
		if c0 >= c1 {
			return
		}
		copy(dst.Pix[dr*dst.Width+c0:dr*dst.Width+c1], src.Pix[sr*src.Width+c0-col:])
	}
}

// 按矢量自身外包框栅格化后贴入瓦片画布；无非空矢量时直接返回全零画布
func RasterizeToTile(e GeometryEngine, gs []Geometry, tile BBox, pixelSize float64, size int) *Raster {
	canvas := EmptyRaster(size)
	if len(gs) == 0 {
		return canvas
	}
	extent, ok := ExtentOf(e, gs)
	if !ok {
		return canvas
	}
	tight := Rasterize(e, gs, extent, pixelSize)
	col, row := PixelOffset(tile, extent, pixelSize)
	EmbedRaster(canvas, tight, col, row)
	return canvas
}

// 三通道分类栅格，像素交错存储：(row*Width+col)*3+channel
type ClassificationRaster struct {
	Width  int
	Height int
	Pix    []uint8
}

func NewClassificationRaster(width, height int) *ClassificationRaster {
	return &ClassificationRaster{Width: width, Height: height, Pix: make([]uint8, width*height*ClassChannels)}
}

func (c *ClassificationRaster) At(col, row int, ch Category) uint8 {
	return c.Pix[(row*c.Width+col)*ClassChannels+int(ch)]
}

// 取出单个通道
func (c *ClassificationRaster) Channel(ch Category) *Raster {
	ret := NewRaster(c.Width, c.Height)
	for i := range ret.Pix {
		ret.Pix[i] = c.Pix[i*ClassChannels+int(ch)]
	}
	return ret
}

// 三个0/1掩膜乘以MASK_SCALE后按FB、LE、NBF顺序叠为三通道
func ComposeClassification(fb, le, nbf *Raster) (ret *ClassificationRaster, err error) {
	for _, m := range []*Raster{le, nbf} {
		if m.Width != fb.Width || m.Height != fb.Height {
			err = fmt.Errorf("%w: %dx%d vs %dx%d", ErrRasterSizeMismatch, m.Width, m.Height, fb.Width, fb.Height)
			return
		}
	}
	ret = NewClassificationRaster(fb.Width, fb.Height)
	for i := range fb.Pix {
		ret.Pix[i*ClassChannels] = fb.Pix[i] * MASK_SCALE
		ret.Pix[i*ClassChannels+1] = le.Pix[i] * MASK_SCALE
		ret.Pix[i*ClassChannels+2] = nbf.Pix[i] * MASK_SCALE
	}
	return
}

func ComposeBoundary(boundary *Raster) *Raster {
	return boundary.Scale(MASK_SCALE)
}

// 三通道之和为0的像素记为MASK_SCALE
func NoClassMask(c *ClassificationRaster) *Raster {
	ret := NewRaster(c.Width, c.Height)
	for i := range ret.Pix {
		sum := 0
		for ch := 0; ch < ClassChannels; ch++ {
			sum += int(c.Pix[i*ClassChannels+ch])
		}
		if sum == 0 {
			ret.Pix[i] = MASK_SCALE
		}
	}
	return ret
}
