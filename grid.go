package edgelabel

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/wgdzlh/edgelabel/log"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
)

// 网格单元 [x,x+1]×[y,y+1]（网格单位）
type cell struct {
	x, y int
}

// 单位边：横边 (x,y)-(x+1,y)，竖边 (x,y)-(x,y+1)
type gridEdge struct {
	x, y     int
	vertical bool
}

type gridGeom struct {
	cells map[cell]struct{}
	edges map[gridEdge]struct{}
}

func newGridGeom() *gridGeom {
	return &gridGeom{cells: map[cell]struct{}{}, edges: map[gridEdge]struct{}{}}
}

// 规则网格上的精确几何引擎：面为单元集合，线为单元边集合
type GridEngine struct {
	unit   float64
	logTag string
}

var _ GeometryEngine = (*GridEngine)(nil)

// unit为网格边长（米），<=0时取1
func NewGridEngine(unit float64) *GridEngine {
	if unit <= 0 {
		unit = 1
	}
	return &GridEngine{unit: unit, logTag: "GridEngine:"}
}

func GridEngineFactory(unit float64) EngineFactory {
	return func() (GeometryEngine, error) {
		return NewGridEngine(unit), nil
	}
}

func (e *GridEngine) geom(g Geometry) *gridGeom {
	switch v := g.(type) {
	case *gridGeom:
		if v != nil {
			return v
		}
	case nil:
	default:
		log.Error(e.logTag+"foreign geometry", zap.String("type", fmt.Sprintf("%T", g)), zap.Error(ErrForeignGeometry))
	}
	return newGridGeom()
}

func (e *GridEngine) Polygon(ring ...orb.Point) Geometry {
	ret := newGridGeom()
	if len(ring) < 3 {
		return ret
	}
	r := closeRing(ring)
	e.fillCells(ret, r.Bound(), func(p orb.Point) bool {
		return planar.RingContains(r, p)
	})
	return ret
}

func closeRing(pts []orb.Point) orb.Ring {
	r := make(orb.Ring, len(pts), len(pts)+1)
	copy(r, pts)
	if !r.Closed() {
		r = append(r, r[0])
	}
	return r
}

// 单元中心落在区域内即纳入
func (e *GridEngine) fillCells(dst *gridGeom, bd orb.Bound, inside func(orb.Point) bool) {
	x0 := int(math.Floor(bd.Min[0] / e.unit))
	x1 := int(math.Ceil(bd.Max[0] / e.unit))
	y0 := int(math.Floor(bd.Min[1] / e.unit))
	y1 := int(math.Ceil(bd.Max[1] / e.unit))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			center := orb.Point{(float64(x) + 0.5) * e.unit, (float64(y) + 0.5) * e.unit}
			if inside(center) {
				dst.cells[cell{x, y}] = struct{}{}
			}
		}
	}
}

func (e *GridEngine) Parse(raw RawGeometry) (ret Geometry, err error) {
	var og orb.Geometry
	switch raw.Format {
	case FormatWKT:
		og, err = wkt.Unmarshal(raw.Data)
	case FormatGeoJSON:
		var gj *geojson.Geometry
		if gj, err = geojson.UnmarshalGeometry([]byte(raw.Data)); err == nil {
			og = gj.Geometry()
		}
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, raw.Format)
	}
	if err != nil {
		return
	}
	g := newGridGeom()
	if err = e.addOrb(g, og); err != nil {
		return
	}
	ret = g
	return
}

func (e *GridEngine) addOrb(dst *gridGeom, og orb.Geometry) (err error) {
	switch v := og.(type) {
	case nil:
	case orb.Polygon:
		if len(v) == 0 {
			return
		}
		e.fillCells(dst, v.Bound(), func(p orb.Point) bool {
			return planar.PolygonContains(v, p)
		})
	case orb.MultiPolygon:
		for _, p := range v {
			if err = e.addOrb(dst, p); err != nil {
				return
			}
		}
	case orb.Bound:
		return e.addOrb(dst, v.ToPolygon())
	case orb.LineString:
		return e.addLine(dst, v)
	case orb.Ring:
		return e.addLine(dst, orb.LineString(v))
	case orb.MultiLineString:
		for _, ls := range v {
			if err = e.addLine(dst, ls); err != nil {
				return
			}
		}
	case orb.Collection:
		for _, sub := range v {
			if err = e.addOrb(dst, sub); err != nil {
				return
			}
		}
	default:
		err = fmt.Errorf("%w: grid engine cannot hold %s", ErrUnsupportedGeometry, og.GeoJSONType())
	}
	return
}

// 折线必须沿网格线且端点落在网格结点上
func (e *GridEngine) addLine(dst *gridGeom, ls orb.LineString) error {
	for i := 1; i < len(ls); i++ {
		x0, y0, ok0 := e.snap(ls[i-1])
		x1, y1, ok1 := e.snap(ls[i])
		if !ok0 || !ok1 || (x0 != x1 && y0 != y1) {
			return fmt.Errorf("%w: segment %v-%v is off grid", ErrUnsupportedGeometry, ls[i-1], ls[i])
		}
		if y0 == y1 {
			for x := min(x0, x1); x < max(x0, x1); x++ {
				dst.edges[gridEdge{x, y0, false}] = struct{}{}
			}
		} else {
			for y := min(y0, y1); y < max(y0, y1); y++ {
				dst.edges[gridEdge{x0, y, true}] = struct{}{}
			}
		}
	}
	return nil
}

func (e *GridEngine) snap(p orb.Point) (x, y int, ok bool) {
	fx, fy := p[0]/e.unit, p[1]/e.unit
	x, y = int(math.Round(fx)), int(math.Round(fy))
	ok = math.Abs(fx-float64(x)) < 1e-9 && math.Abs(fy-float64(y)) < 1e-9
	return
}

func (e *GridEngine) Union(a, b Geometry) Geometry {
	ga, gb := e.geom(a), e.geom(b)
	ret := newGridGeom()
	for _, g := range []*gridGeom{ga, gb} {
		for c := range g.cells {
			ret.cells[c] = struct{}{}
		}
		for ed := range g.edges {
			ret.edges[ed] = struct{}{}
		}
	}
	return ret
}

func (e *GridEngine) Intersection(a, b Geometry) Geometry {
	ga, gb := e.geom(a), e.geom(b)
	ret := newGridGeom()
	for c := range ga.cells {
		if _, ok := gb.cells[c]; ok {
			ret.cells[c] = struct{}{}
		}
	}
	for ed := range ga.edges {
		if _, ok := gb.edges[ed]; ok || touchesArea(ed, gb.cells) {
			ret.edges[ed] = struct{}{}
		}
	}
	for ed := range gb.edges {
		if touchesArea(ed, ga.cells) {
			ret.edges[ed] = struct{}{}
		}
	}
	return ret
}

func (e *GridEngine) Difference(a, b Geometry) Geometry {
	ga, gb := e.geom(a), e.geom(b)
	ret := newGridGeom()
	for c := range ga.cells {
		if _, ok := gb.cells[c]; !ok {
			ret.cells[c] = struct{}{}
		}
	}
	for ed := range ga.edges {
		if _, ok := gb.edges[ed]; ok {
			continue
		}
		if c0, c1 := adjacentCells(ed); inSet(gb.cells, c0) && inSet(gb.cells, c1) {
			continue
		}
		ret.edges[ed] = struct{}{}
	}
	return ret
}

// 面的边界：仅一侧单元在面内的边。线的边界为端点，此处不表示
func (e *GridEngine) Boundary(g Geometry) Geometry {
	gg := e.geom(g)
	ret := newGridGeom()
	for c := range gg.cells {
		sides := [4]struct {
			ed    gridEdge
			other cell
		}{
			{gridEdge{c.x, c.y, false}, cell{c.x, c.y - 1}},
			{gridEdge{c.x, c.y + 1, false}, cell{c.x, c.y + 1}},
			{gridEdge{c.x, c.y, true}, cell{c.x - 1, c.y}},
			{gridEdge{c.x + 1, c.y, true}, cell{c.x + 1, c.y}},
		}
		for _, s := range sides {
			if !inSet(gg.cells, s.other) {
				ret.edges[s.ed] = struct{}{}
			}
		}
	}
	return ret
}

func (e *GridEngine) IsEmpty(g Geometry) bool {
	gg := e.geom(g)
	return len(gg.cells) == 0 && len(gg.edges) == 0
}

func (e *GridEngine) Kind(g Geometry) Kind {
	gg := e.geom(g)
	switch {
	case len(gg.cells) == 0 && len(gg.edges) == 0:
		return KindEmpty
	case len(gg.cells) > 0 && len(gg.edges) > 0:
		return KindCollection
	case len(gg.cells) > 0:
		if len(cellComponents(gg.cells)) == 1 {
			return KindPolygon
		}
		return KindMultiPolygon
	}
	if len(edgeComponents(gg.edges)) == 1 {
		return KindLine
	}
	return KindMultiLine
}

func (e *GridEngine) Parts(g Geometry) (parts []Geometry) {
	gg := e.geom(g)
	if !e.Kind(gg).IsMulti() {
		return []Geometry{gg}
	}
	for _, comp := range cellComponents(gg.cells) {
		parts = append(parts, &gridGeom{cells: comp, edges: map[gridEdge]struct{}{}})
	}
	for _, comp := range edgeComponents(gg.edges) {
		parts = append(parts, &gridGeom{cells: map[cell]struct{}{}, edges: comp})
	}
	return
}

func (e *GridEngine) Bounds(g Geometry) (b BBox) {
	gg := e.geom(g)
	first := true
	grow := func(x0, y0, x1, y1 int) {
		nb := BBox{float64(x0) * e.unit, float64(y0) * e.unit, float64(x1) * e.unit, float64(y1) * e.unit}
		if first {
			b, first = nb, false
			return
		}
		b = b.Union(nb)
	}
	for c := range gg.cells {
		grow(c.x, c.y, c.x+1, c.y+1)
	}
	for ed := range gg.edges {
		if ed.vertical {
			grow(ed.x, ed.y, ed.x, ed.y+1)
		} else {
			grow(ed.x, ed.y, ed.x+1, ed.y)
		}
	}
	return
}

// 面按行合并为矩形，线按方向合并为最长线段
func (e *GridEngine) Shape(g Geometry) orb.Geometry {
	gg := e.geom(g)
	var (
		mp  orb.MultiPolygon
		mls orb.MultiLineString
		u   = e.unit
	)
	cells := sortedCells(gg.cells)
	for i := 0; i < len(cells); {
		j := i + 1
		for j < len(cells) && cells[j].y == cells[i].y && cells[j].x == cells[j-1].x+1 {
			j++
		}
		x0, x1 := float64(cells[i].x)*u, float64(cells[j-1].x+1)*u
		y0, y1 := float64(cells[i].y)*u, float64(cells[i].y+1)*u
		mp = append(mp, orb.Polygon{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}})
		i = j
	}
	edges := sortedEdges(gg.edges)
	for i := 0; i < len(edges); {
		a := edges[i]
		j := i + 1
		for j < len(edges) {
			b, prev := edges[j], edges[j-1]
			if b.vertical != a.vertical {
				break
			}
			if a.vertical && (b.x != a.x || b.y != prev.y+1) {
				break
			}
			if !a.vertical && (b.y != a.y || b.x != prev.x+1) {
				break
			}
			j++
		}
		last := edges[j-1]
		if a.vertical {
			mls = append(mls, orb.LineString{{float64(a.x) * u, float64(a.y) * u}, {float64(a.x) * u, float64(last.y+1) * u}})
		} else {
			mls = append(mls, orb.LineString{{float64(a.x) * u, float64(a.y) * u}, {float64(last.x+1) * u, float64(a.y) * u}})
		}
		i = j
	}
	switch {
	case len(mp) > 0 && len(mls) > 0:
		return orb.Collection{mp, mls}
	case len(mp) > 0:
		return mp
	case len(mls) > 0:
		return mls
	}
	return orb.Collection{}
}

func (e *GridEngine) WKT(g Geometry) string {
	return wkt.MarshalString(e.Shape(g))
}

// 面积（平方米）
func (e *GridEngine) Area(g Geometry) float64 {
	return float64(len(e.geom(g).cells)) * e.unit * e.unit
}

// 线长度（米）
func (e *GridEngine) Length(g Geometry) float64 {
	return float64(len(e.geom(g).edges)) * e.unit
}

// 两个矢量是否表示同一点集
func (e *GridEngine) Equal(a, b Geometry) bool {
	ga, gb := e.geom(a), e.geom(b)
	if len(ga.cells) != len(gb.cells) || len(ga.edges) != len(gb.edges) {
		return false
	}
	for c := range ga.cells {
		if !inSet(gb.cells, c) {
			return false
		}
	}
	for ed := range ga.edges {
		if _, ok := gb.edges[ed]; !ok {
			return false
		}
	}
	return true
}

func inSet(s map[cell]struct{}, c cell) bool {
	_, ok := s[c]
	return ok
}

// 边两侧的单元
func adjacentCells(ed gridEdge) (c0, c1 cell) {
	if ed.vertical {
		return cell{ed.x - 1, ed.y}, cell{ed.x, ed.y}
	}
	return cell{ed.x, ed.y - 1}, cell{ed.x, ed.y}
}

// 边位于闭区域内（含区域边界）
func touchesArea(ed gridEdge, cells map[cell]struct{}) bool {
	if len(cells) == 0 {
		return false
	}
	c0, c1 := adjacentCells(ed)
	return inSet(cells, c0) || inSet(cells, c1)
}

func sortedCells(s map[cell]struct{}) []cell {
	out := make([]cell, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b cell) int {
		return cmp.Or(cmp.Compare(a.y, b.y), cmp.Compare(a.x, b.x))
	})
	return out
}

// 竖边按列排在横边之后
func sortedEdges(s map[gridEdge]struct{}) []gridEdge {
	out := make([]gridEdge, 0, len(s))
	for ed := range s {
		out = append(out, ed)
	}
	slices.SortFunc(out, func(a, b gridEdge) int {
		if a.vertical != b.vertical {
			if a.vertical {
				return 1
			}
			return -1
		}
		if a.vertical {
			return cmp.Or(cmp.Compare(a.x, b.x), cmp.Compare(a.y, b.y))
		}
		return cmp.Or(cmp.Compare(a.y, b.y), cmp.Compare(a.x, b.x))
	})
	return out
}

// 4邻域连通分量，按最小(行,列)单元排序
func cellComponents(s map[cell]struct{}) (comps []map[cell]struct{}) {
	seen := make(map[cell]struct{}, len(s))
	for _, start := range sortedCells(s) {
		if inSet(seen, start) {
			continue
		}
		comp := map[cell]struct{}{}
		stack := []cell{start}
		seen[start] = struct{}{}
		for len(stack) > 0 {
			c := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp[c] = struct{}{}
			for _, n := range [4]cell{{c.x + 1, c.y}, {c.x - 1, c.y}, {c.x, c.y + 1}, {c.x, c.y - 1}} {
				if inSet(s, n) && !inSet(seen, n) {
					seen[n] = struct{}{}
					stack = append(stack, n)
				}
			}
		}
		comps = append(comps, comp)
	}
	return
}

type vertex struct {
	x, y int
}

func edgeEnds(ed gridEdge) (vertex, vertex) {
	if ed.vertical {
		return vertex{ed.x, ed.y}, vertex{ed.x, ed.y + 1}
	}
	return vertex{ed.x, ed.y}, vertex{ed.x + 1, ed.y}
}

// 共享结点的边属于同一分量
func edgeComponents(s map[gridEdge]struct{}) (comps []map[gridEdge]struct{}) {
	byVertex := map[vertex][]gridEdge{}
	for ed := range s {
		a, b := edgeEnds(ed)
		byVertex[a] = append(byVertex[a], ed)
		byVertex[b] = append(byVertex[b], ed)
	}
	seen := make(map[gridEdge]struct{}, len(s))
	for _, start := range sortedEdges(s) {
		if _, ok := seen[start]; ok {
			continue
		}
		comp := map[gridEdge]struct{}{}
		stack := []gridEdge{start}
		seen[start] = struct{}{}
		for len(stack) > 0 {
			ed := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp[ed] = struct{}{}
			a, b := edgeEnds(ed)
			for _, v := range [2]vertex{a, b} {
				for _, n := range byVertex[v] {
					if _, ok := seen[n]; !ok {
						seen[n] = struct{}{}
						stack = append(stack, n)
					}
				}
			}
		}
		comps = append(comps, comp)
	}
	return
}
