package edgelabel

import (
	"github.com/paulmach/orb"
)

// 几何引擎返回的不透明矢量值，只能交回创建它的引擎使用
type Geometry interface{}

type Kind int

const (
	KindEmpty Kind = iota
	KindPoint
	KindLine
	KindPolygon
	KindMultiPoint
	KindMultiLine
	KindMultiPolygon
	KindCollection
)

var kindNames = [...]string{"EMPTY", "POINT", "LINESTRING", "POLYGON", "MULTIPOINT", "MULTILINESTRING", "MULTIPOLYGON", "GEOMETRYCOLLECTION"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "UNKNOWN"
	}
	return kindNames[k]
}

// 多部件（需逐部件处理）
func (k Kind) IsMulti() bool {
	return k == KindMultiPoint || k == KindMultiLine || k == KindMultiPolygon || k == KindCollection
}

// 栅格化核心所需的几何能力，所有操作返回新值，不修改输入
type GeometryEngine interface {
	// 由单个外环构建面，未闭合时自动闭合
	Polygon(ring ...orb.Point) Geometry
	Parse(raw RawGeometry) (Geometry, error)
	Union(a, b Geometry) Geometry
	Intersection(a, b Geometry) Geometry
	Difference(a, b Geometry) Geometry
	Boundary(g Geometry) Geometry
	IsEmpty(g Geometry) bool
	Kind(g Geometry) Kind
	// 拆分多部件矢量，单部件返回自身
	Parts(g Geometry) []Geometry
	Bounds(g Geometry) BBox
	// 导出坐标供栅格化使用
	Shape(g Geometry) orb.Geometry
	WKT(g Geometry) string
}

// 每个瓦片新建一个引擎；实现io.Closer的引擎在瓦片处理完后关闭
type EngineFactory func() (GeometryEngine, error)

func BBoxPolygon(e GeometryEngine, b BBox) Geometry {
	return e.Polygon(
		orb.Point{b.MinX, b.MinY},
		orb.Point{b.MinX, b.MaxY},
		orb.Point{b.MaxX, b.MaxY},
		orb.Point{b.MaxX, b.MinY},
	)
}

// 非空矢量的合并外包框
func ExtentOf(e GeometryEngine, gs []Geometry) (ext BBox, ok bool) {
	for _, g := range gs {
		if g == nil || e.IsEmpty(g) {
			continue
		}
		b := e.Bounds(g)
		if !ok {
			ext, ok = b, true
			continue
		}
		ext = ext.Union(b)
	}
	return
}
