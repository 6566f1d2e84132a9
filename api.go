package edgelabel

import "slices"

// 地类
type Category int

const (
	FB  Category = iota // 农田地块
	LE                  // 景观要素
	NBF                 // 不可补贴区域
)

var categoryNames = [...]string{"FB", "LE", "NBF"}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "UNKNOWN"
	}
	return categoryNames[c]
}

// 矢量原始表示格式
type Format int

const (
	FormatWKT Format = iota
	FormatGeoJSON
	FormatGML
)

func (f Format) String() string {
	switch f {
	case FormatWKT:
		return "wkt"
	case FormatGeoJSON:
		return "geojson"
	case FormatGML:
		return "gml"
	}
	return "unknown"
}

type RawGeometry struct {
	Format Format
	Data   string
}

func WKT(s string) RawGeometry {
	return RawGeometry{Format: FormatWKT, Data: s}
}

// 要素服务返回的三类原始矢量
type RawFeatures struct {
	FB  []RawGeometry
	LE  []RawGeometry
	NBF []RawGeometry
}

func (r *RawFeatures) Empty() bool {
	return r == nil || len(r.FB)+len(r.LE)+len(r.NBF) == 0
}

// 按地类分组的矢量集合。各类切片由集合独占，编辑时整体替换而非原地修改
type GeometrySet struct {
	FB  []Geometry
	LE  []Geometry
	NBF []Geometry
}

func (s *GeometrySet) Len() int {
	return len(s.FB) + len(s.LE) + len(s.NBF)
}

func (s *GeometrySet) Category(c Category) []Geometry {
	switch c {
	case FB:
		return s.FB
	case LE:
		return s.LE
	case NBF:
		return s.NBF
	}
	return nil
}

// 三类矢量依次拼接（新切片）
func (s *GeometrySet) All() []Geometry {
	return slices.Concat(s.FB, s.LE, s.NBF)
}

// 所有矢量的边界线，裁剪到bbox
func (s *GeometrySet) Boundaries(e GeometryEngine, bbox BBox) []Geometry {
	return Cap(e, s.All(), bbox, true)
}

func (s *GeometrySet) Clone() *GeometrySet {
	return &GeometrySet{
		FB:  slices.Clone(s.FB),
		LE:  slices.Clone(s.LE),
		NBF: slices.Clone(s.NBF),
	}
}
