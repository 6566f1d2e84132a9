package edgelabel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTile = "dop20_33_380_5900_1_mv_2018_0_0"

var testBBox = BBox{0, 0, 96, 96}

type closingEngine struct {
	*GridEngine
	closed *int
}

func (e closingEngine) Close() error {
	*e.closed++
	return nil
}

type failingSource struct{}

func (failingSource) FetchFeatures(ctx context.Context, bbox BBox) (*RawFeatures, error) {
	return nil, errors.New("wfs unavailable")
}

func newTestConverter(t *testing.T, raw *RawFeatures) (*Converter, *int) {
	t.Helper()
	closed := new(int)
	factory := func() (GeometryEngine, error) {
		return closingEngine{GridEngine: NewGridEngine(1), closed: closed}, nil
	}
	c, err := NewConverter(DefaultConfig(), StaticFeatures{Features: raw}, StaticExtents{testTile: testBBox}, factory)
	require.NoError(t, err)
	return c, closed
}

var squareParcel = WKT("POLYGON((10 10,10 50,50 50,50 10,10 10))")

func TestEdgeRasterNoFeatures(t *testing.T) {
	c, closed := newTestConverter(t, nil)
	r, err := c.EdgeRaster(context.Background(), testBBox, testTile)
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Equal(t, 0, *closed)

	// 全部解析失败同样视为无要素
	c, closed = newTestConverter(t, &RawFeatures{FB: []RawGeometry{WKT("POLYGON((")}})
	r, err = c.EdgeRaster(context.Background(), testBBox, testTile)
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Equal(t, 1, *closed)
}

func TestEdgeRasterSquare(t *testing.T) {
	c, closed := newTestConverter(t, &RawFeatures{FB: []RawGeometry{squareParcel}})
	r, err := c.EdgeRaster(context.Background(), testBBox, testTile)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, IMAGE_SIZE_SMALL, r.Width)
	assert.Equal(t, IMAGE_SIZE_SMALL, r.Height)
	assert.Equal(t, 4*200-4, r.Count(1))
	assert.Equal(t, uint8(1), r.At(50, 230))
	assert.Equal(t, uint8(1), r.At(249, 429))
	assert.Equal(t, uint8(0), r.At(150, 330))
	assert.Equal(t, 1, *closed)
}

func TestEdgeRasterErrors(t *testing.T) {
	c, err := NewConverter(DefaultConfig(), failingSource{}, StaticExtents{}, GridEngineFactory(1))
	require.NoError(t, err)
	_, err = c.EdgeRaster(context.Background(), testBBox, testTile)
	assert.ErrorContains(t, err, "wfs unavailable")

	c, _ = newTestConverter(t, &RawFeatures{FB: []RawGeometry{squareParcel}})
	_, err = c.EdgeRaster(context.Background(), testBBox, "unknown")
	assert.ErrorIs(t, err, ErrMissingTileExtent)

	_, err = c.EdgeRaster(context.Background(), BBox{1, 1, 0, 0}, testTile)
	assert.ErrorIs(t, err, ErrInvalidBBox)
}

func TestClassificationRasters(t *testing.T) {
	c, closed := newTestConverter(t, &RawFeatures{
		FB:  []RawGeometry{squareParcel},
		LE:  []RawGeometry{WKT("POLYGON((60 60,60 62,62 62,62 60,60 60))")},
		NBF: []RawGeometry{WKT("POLYGON((90 0,90 10,100 10,100 0,90 0))")},
	})
	boundary, classes, err := c.ClassificationRasters(context.Background(), testBBox, testTile, false)
	require.NoError(t, err)
	assert.Equal(t, 1, *closed)
	assert.Equal(t, IMAGE_SIZE_SMALL*IMAGE_SIZE_SMALL, len(boundary.Pix))
	assert.Equal(t, IMAGE_SIZE_SMALL, classes.Width)

	fb, le, nbf := classes.Channel(FB), classes.Channel(LE), classes.Channel(NBF)
	assert.Equal(t, 200*200, fb.Count(255))
	assert.Equal(t, 10*10, le.Count(255))
	// NBF超出bbox的部分被裁掉
	assert.Equal(t, 30*50, nbf.Count(255))
	assert.Equal(t, uint8(255), classes.At(479, 479, NBF))

	assert.Equal(t, uint8(255), boundary.At(50, 230))
	assert.Equal(t, uint8(0), boundary.At(150, 330))
	assert.Equal(t, len(boundary.Pix), boundary.Count(0)+boundary.Count(255))

	noClass := c.NoClassRaster(classes)
	assert.Equal(t, IMAGE_SIZE_SMALL*IMAGE_SIZE_SMALL-40000-100-1500, noClass.Count(255))
}

func TestClassificationRastersNoFeatures(t *testing.T) {
	c, _ := newTestConverter(t, &RawFeatures{})
	boundary, classes, err := c.ClassificationRasters(context.Background(), testBBox, testTile, true)
	require.NoError(t, err)
	assert.Equal(t, IMAGE_SIZE_SMALL*IMAGE_SIZE_SMALL, boundary.Count(0))
	assert.Equal(t, IMAGE_SIZE_SMALL*IMAGE_SIZE_SMALL*ClassChannels, len(classes.Pix))
	assert.Equal(t, IMAGE_SIZE_SMALL*IMAGE_SIZE_SMALL, c.NoClassRaster(classes).Count(255))
}

func TestClassificationRastersManipulated(t *testing.T) {
	raw := &RawFeatures{
		FB:  []RawGeometry{squareParcel},
		NBF: []RawGeometry{WKT("POLYGON((20 20,20 30,30 30,30 20,20 20))")},
	}
	c, _ := newTestConverter(t, raw)
	_, plain, err := c.ClassificationRasters(context.Background(), testBBox, testTile, false)
	require.NoError(t, err)
	assert.Equal(t, 50*50, plain.Channel(NBF).Count(255))

	// 内嵌的NBF被外围FB吸收
	boundary, classes, err := c.ClassificationRasters(context.Background(), testBBox, testTile, true)
	require.NoError(t, err)
	assert.Equal(t, 0, classes.Channel(NBF).Count(255))
	assert.Equal(t, 200*200, classes.Channel(FB).Count(255))
	assert.Equal(t, 4*200-4, boundary.Count(255))
}

func TestTileRand(t *testing.T) {
	c, _ := newTestConverter(t, nil)
	a, b := c.TileRand(testTile), c.TileRand(testTile)
	other := c.TileRand("dop20_other")
	same, diff := true, false
	for i := 0; i < 8; i++ {
		va, vb, vo := a.Float64(), b.Float64(), other.Float64()
		same = same && va == vb
		diff = diff || va != vo
	}
	assert.True(t, same)
	assert.True(t, diff)
}
