package edgelabel

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedRasterClips(t *testing.T) {
	src := NewRaster(3, 3)
	for i := range src.Pix {
		src.Pix[i] = 1
	}
	dst := NewRaster(4, 4)
	EmbedRaster(dst, src, 2, -1)
	assert.Equal(t, 4, dst.Count(1))
	assert.Equal(t, uint8(1), dst.At(2, 0))
	assert.Equal(t, uint8(1), dst.At(3, 1))
	assert.Equal(t, uint8(0), dst.At(2, 2))

	dst = NewRaster(4, 4)
	EmbedRaster(dst, src, 5, 0)
	assert.Equal(t, 0, dst.Count(1))
}

func TestRasterizeToTile(t *testing.T) {
	e := NewGridEngine(1)
	tile := BBox{0, 0, 96, 96}
	sq := e.Polygon(orbPts(10, 10, 10, 50, 50, 50, 50, 10)...)

	r := RasterizeToTile(e, []Geometry{sq}, tile, PIXEL_SIZE, IMAGE_SIZE_SMALL)
	require.Equal(t, IMAGE_SIZE_SMALL, r.Width)
	require.Equal(t, IMAGE_SIZE_SMALL, r.Height)
	assertBlock(t, r, 50, 230, 250, 430)

	// 空输入走全零画布
	for _, gs := range [][]Geometry{nil, {e.Polygon()}} {
		r = RasterizeToTile(e, gs, tile, PIXEL_SIZE, IMAGE_SIZE_SMALL)
		assert.Equal(t, IMAGE_SIZE_SMALL*IMAGE_SIZE_SMALL, len(r.Pix))
		assert.Equal(t, 0, r.Count(1))
	}
}

func TestRasterizeToTileUsesTileFrame(t *testing.T) {
	e := NewGridEngine(1)
	sq := rect(e, 10, 10, 50, 50)
	// 权威外包框与请求框有亚像素偏差
	tile := BBox{0.04, -0.03, 96.04, 95.97}
	r := RasterizeToTile(e, []Geometry{sq}, tile, PIXEL_SIZE, IMAGE_SIZE_SMALL)
	assertBlock(t, r, 50, 230, 250, 430)

	// 超出画布的部分被裁掉
	r = RasterizeToTile(e, []Geometry{rect(e, 90, 0, 100, 10)}, BBox{0, 0, 96, 96}, PIXEL_SIZE, IMAGE_SIZE_SMALL)
	assertBlock(t, r, 450, 430, 480, 480)
}

func TestComposeClassification(t *testing.T) {
	fb, le, nbf := NewRaster(2, 1), NewRaster(2, 1), NewRaster(2, 1)
	fb.Set(0, 0, 1)
	nbf.Set(0, 0, 1)
	le.Set(1, 0, 1)
	c, err := ComposeClassification(fb, le, nbf)
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 0, 255, 0, 255, 0}, c.Pix)
	assert.Equal(t, uint8(255), c.At(1, 0, LE))
	assert.Equal(t, []uint8{0, 255}, c.Channel(LE).Pix)

	_, err = ComposeClassification(fb, NewRaster(1, 2), nbf)
	assert.ErrorIs(t, err, ErrRasterSizeMismatch)
}

func TestComposeBoundary(t *testing.T) {
	b := NewRaster(2, 2)
	b.Set(1, 1, 1)
	assert.Equal(t, []uint8{0, 0, 0, 255}, ComposeBoundary(b).Pix)
}

func TestNoClassMaskRandom(t *testing.T) {
	rnd := rand.New(rand.NewPCG(42, 1))
	const w, h = 37, 23
	for round := 0; round < 20; round++ {
		masks := [ClassChannels]*Raster{}
		for i := range masks {
			masks[i] = NewRaster(w, h)
			for p := range masks[i].Pix {
				if rnd.IntN(3) == 0 {
					masks[i].Pix[p] = 1
				}
			}
		}
		c, err := ComposeClassification(masks[FB], masks[LE], masks[NBF])
		require.NoError(t, err)
		nc := NoClassMask(c)
		for p := range nc.Pix {
			want := uint8(0)
			if masks[FB].Pix[p] == 0 && masks[LE].Pix[p] == 0 && masks[NBF].Pix[p] == 0 {
				want = 255
			}
			require.Equal(t, want, nc.Pix[p], "pixel %d", p)
		}
		// 最后一行、列同样参与判断
		last := w*h - 1
		require.Equal(t, masks[FB].Pix[last]|masks[LE].Pix[last]|masks[NBF].Pix[last] == 0, nc.Pix[last] == 255)
	}
}
