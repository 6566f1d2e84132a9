package edgelabel

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

// 单个有效要素加一个空几何的WFS GetFeature响应
const wfsGMLPayload = `<?xml version="1.0" encoding="UTF-8"?>
<wfs:FeatureCollection xmlns:wfs="http://www.opengis.net/wfs" xmlns:gml="http://www.opengis.net/gml" xmlns:mv="http://www.geodaten-mv.de/dienste/gdimv_feldblock_wfs">
  <gml:featureMember>
    <mv:feldbloecke>
      <mv:the_geom><gml:Polygon srsName="EPSG:5650"><gml:exterior><gml:LinearRing><gml:posList>0 0 0 2 2 2 2 0 0 0</gml:posList></gml:LinearRing></gml:exterior></gml:Polygon></mv:the_geom>
      <mv:name>a</mv:name>
    </mv:feldbloecke>
  </gml:featureMember>
  <gml:featureMember>
    <mv:feldbloecke><mv:the_geom>  </mv:the_geom></mv:feldbloecke>
  </gml:featureMember>
</wfs:FeatureCollection>`

func orbPts(xy ...float64) []orb.Point {
	pts := make([]orb.Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		pts = append(pts, orb.Point{xy[i], xy[i+1]})
	}
	return pts
}

// 轴对齐矩形
func rect(e GeometryEngine, x0, y0, x1, y1 float64) Geometry {
	return e.Polygon(orbPts(x0, y0, x0, y1, x1, y1, x1, y0)...)
}

func mustParse(t *testing.T, e GeometryEngine, s string) Geometry {
	t.Helper()
	g, err := e.Parse(WKT(s))
	require.NoError(t, err)
	return g
}

// 依次回放固定随机数
type scriptedRand struct {
	t     *testing.T
	draws []float64
}

func (r *scriptedRand) Float64() float64 {
	r.t.Helper()
	require.NotEmpty(r.t, r.draws, "random source exhausted")
	v := r.draws[0]
	r.draws = r.draws[1:]
	return v
}
