package edgelabel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGdalEngine(t *testing.T) *GdalEngine {
	t.Helper()
	e, err := NewGdalToolbox().NewEngine(DEFAULT_SRID)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestGdalEngineKinds(t *testing.T) {
	e := newTestGdalEngine(t)
	a, err := e.Parse(WKT("POLYGON((0 0,0 10,10 10,10 0,0 0))"))
	require.NoError(t, err)
	b, err := e.Parse(WKT("POLYGON((10 0,10 10,20 10,20 0,10 0))"))
	require.NoError(t, err)
	far, err := e.Parse(WKT("POLYGON((30 0,30 10,40 10,40 0,30 0))"))
	require.NoError(t, err)

	assert.Equal(t, KindPolygon, e.Kind(a))
	assert.Equal(t, KindPolygon, e.Kind(e.Union(a, b)))
	assert.Equal(t, KindMultiPolygon, e.Kind(e.Union(a, far)))
	assert.Len(t, e.Parts(e.Union(a, far)), 2)
	assert.True(t, e.IsEmpty(e.Intersection(a, far)))
	assert.InDelta(t, 50.0, e.Area(e.Difference(a, e.Polygon(orbPts(0, 0, 0, 10, 5, 10, 5, 0)...))), 1e-9)
	assert.Equal(t, BBox{0, 0, 20, 10}, e.Bounds(e.Union(a, b)))
}

func TestGdalEngineParseFormats(t *testing.T) {
	e := newTestGdalEngine(t)
	g, err := e.Parse(RawGeometry{Format: FormatGeoJSON, Data: `{"type":"LineString","coordinates":[[0,0],[5,5]]}`})
	require.NoError(t, err)
	assert.Equal(t, KindLine, e.Kind(g))

	_, err = e.Parse(WKT("POLYGON((0 0,"))
	assert.Error(t, err)
}

func TestGdalEngineCapAndRasterize(t *testing.T) {
	e := newTestGdalEngine(t)
	sq, err := e.Parse(WKT("POLYGON((10 10,10 50,50 50,50 10,10 10))"))
	require.NoError(t, err)
	bbox := BBox{0, 0, 96, 96}

	capped := Cap(e, []Geometry{sq}, bbox, false)
	require.Len(t, capped, 1)
	assert.InDelta(t, 1600.0, e.Area(capped[0]), 1e-6)

	r := RasterizeToTile(e, capped, bbox, PIXEL_SIZE, IMAGE_SIZE_SMALL)
	assert.Equal(t, 200*200, r.Count(1))
	assert.Equal(t, uint8(1), r.At(50, 230))
	assert.Equal(t, uint8(0), r.At(49, 230))
}

func TestGdalEngineWriteShapefile(t *testing.T) {
	e := newTestGdalEngine(t)
	a, err := e.Parse(WKT("MULTIPOLYGON(((0 0,0 1,1 1,1 0,0 0)),((5 5,5 6,6 6,6 5,5 5)))"))
	require.NoError(t, err)
	n, err := e.WriteShapefile(filepath.Join(t.TempDir(), "fb.shp"), []Geometry{a, e.empty()})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGdalEngineParsesWFSGML(t *testing.T) {
	e := newTestGdalEngine(t)
	raws, err := DecodeGMLFeatures([]byte(wfsGMLPayload), "", "")
	require.NoError(t, err)
	require.Len(t, raws, 1)
	for _, raw := range raws {
		g, err := e.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, KindPolygon, e.Kind(g))
		assert.Equal(t, BBox{0, 0, 2, 2}, e.Bounds(g))
		assert.InDelta(t, 4.0, e.Area(g), 1e-9)
	}
}

func TestNewGdalConverterWiresConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t1.ext"), []byte("0\n0\n96\n96\n"), 0o644))
	cfg := DefaultConfig()
	cfg.SRID = 25833
	cfg.BBoxSuffix = ".ext"

	c, err := NewGdalConverter(cfg, StaticFeatures{}, dir)
	require.NoError(t, err)
	b, err := c.extents.TileExtent("t1")
	require.NoError(t, err)
	assert.Equal(t, BBox{0, 0, 96, 96}, b)

	ge, err := c.newEngine()
	require.NoError(t, err)
	e, ok := ge.(*GdalEngine)
	require.True(t, ok)
	defer e.Close()
	assert.Equal(t, 25833, e.srid)

	cfg.SRID = 0
	_, err = NewGdalConverter(cfg, StaticFeatures{}, dir)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestGdalManipulateCutSkipsLinearIntersection(t *testing.T) {
	e := newTestGdalEngine(t)
	ring := e.Boundary(rect(e, 0, 0, 3, 3))
	require.Contains(t, []Kind{KindLine, KindMultiLine}, e.Kind(ring))
	set := &GeometrySet{FB: []Geometry{ring, rect(e, 0, 0, 10, 10)}}

	ed := Manipulate(e, set, BBox{0, 0, 20, 20}, &scriptedRand{t: t, draws: cornerTriangleDraws(0.99)})
	assert.Equal(t, CutToNBF, ed.Scenario)
	assert.Equal(t, 1, ed.Index)
	assert.Same(t, ring, set.FB[0])
	require.Len(t, set.NBF, 1)
	assert.InDelta(t, 50.0, e.Area(set.NBF[0]), 1e-9)
	assert.InDelta(t, 50.0, e.Area(set.FB[1]), 1e-9)
}
