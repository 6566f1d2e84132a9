package edgelabel

import (
	"github.com/wgdzlh/edgelabel/log"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// 均匀分布[0,1)随机源，*rand.Rand满足该接口
type Rand interface {
	Float64() float64
}

// 一次编辑的具体情形
type Scenario int

const (
	AbsorbNBF      Scenario = iota // NBF并入FB
	AbsorbLE                       // LE并入FB
	CutToLE                        // 三角形切块划归LE
	CutToNBF                       // 三角形切块划归NBF
	CutDiscarded                   // 切块从FB移除但不归类
	InsertTriangle                 // 无相交FB，直接新增三角形FB
)

var scenarioNames = [...]string{"absorb-nbf", "absorb-le", "cut-to-le", "cut-to-nbf", "cut-discarded", "insert-triangle"}

func (s Scenario) String() string {
	if s < 0 || int(s) >= len(scenarioNames) {
		return "unknown"
	}
	return scenarioNames[s]
}

// 编辑结果
type Edit struct {
	Scenario Scenario
	// 新写入集合的矢量：并集、切块或三角形
	Committed Geometry
	// 被改动的FB下标（编辑后的切片中），新增三角形时为追加位置
	Index int
}

// 对集合做且仅做一次拓扑编辑：先吸收（NBF后LE），再随机三角切割，最后直接新增三角形；不重新裁剪
func Manipulate(e GeometryEngine, set *GeometrySet, bbox BBox, rnd Rand) Edit {
	logTag := "Manipulator:"
	if ed, ok := absorb(e, set, NBF); ok {
		log.Debug(logTag+"absorbed", zap.Stringer("scenario", ed.Scenario), zap.Int("fb", len(set.FB)))
		return ed
	}
	if ed, ok := absorb(e, set, LE); ok {
		log.Debug(logTag+"absorbed", zap.Stringer("scenario", ed.Scenario), zap.Int("fb", len(set.FB)))
		return ed
	}
	tri := randomTriangle(e, bbox, rnd)
	if ed, ok := cut(e, set, tri, rnd); ok {
		log.Debug(logTag+"cut parcel", zap.Stringer("scenario", ed.Scenario), zap.Int("idx", ed.Index))
		return ed
	}
	set.FB = append(set.FB[:len(set.FB):len(set.FB)], tri)
	log.Debug(logTag+"inserted triangle", zap.String("wkt", e.WKT(tri)))
	return Edit{Scenario: InsertTriangle, Committed: tri, Index: len(set.FB) - 1}
}

// 在src中寻找第一个与某FB并集为单个面的矢量
func absorb(e GeometryEngine, set *GeometrySet, src Category) (ed Edit, ok bool) {
	outer := set.Category(src)
	for i, s := range outer {
		for j, f := range set.FB {
			union := e.Union(f, s)
			if e.Kind(union) != KindPolygon {
				continue
			}
			rest := without(outer, i)
			switch src {
			case NBF:
				set.NBF = rest
				ed.Scenario = AbsorbNBF
			case LE:
				set.LE = rest
				ed.Scenario = AbsorbLE
			}
			set.FB = append(without(set.FB, j), union)
			ed.Committed = union
			ed.Index = len(set.FB) - 1
			return ed, true
		}
	}
	return
}

// 依次抽取x0,x1,x2与y0,y1,y2，均匀分布于bbox内
func randomTriangle(e GeometryEngine, bbox BBox, rnd Rand) Geometry {
	var xs, ys [3]float64
	for i := range xs {
		xs[i] = bbox.MinX + (bbox.MaxX-bbox.MinX)*rnd.Float64()
	}
	for i := range ys {
		ys[i] = bbox.MinY + (bbox.MaxY-bbox.MinY)*rnd.Float64()
	}
	return e.Polygon(orb.Point{xs[0], ys[0]}, orb.Point{xs[1], ys[1]}, orb.Point{xs[2], ys[2]})
}

func cut(e GeometryEngine, set *GeometrySet, tri Geometry, rnd Rand) (ed Edit, ok bool) {
	for i, f := range set.FB {
		inter := e.Intersection(tri, f)
		if e.IsEmpty(inter) {
			continue
		}
		var parts []Geometry
		switch e.Kind(inter) {
		case KindPolygon:
			parts = []Geometry{inter}
		case KindMultiPolygon, KindCollection:
			// 只取面状部件，线/点交集不参与切割
			for _, p := range e.Parts(inter) {
				if e.Kind(p) == KindPolygon {
					parts = append(parts, p)
				}
			}
		}
		if len(parts) == 0 {
			continue
		}
		part := parts[0]
		fb := make([]Geometry, len(set.FB))
		copy(fb, set.FB)
		fb[i] = e.Difference(f, part)
		set.FB = fb
		ed.Committed, ed.Index = part, i
		// 中间三分之一的切块不归入任何类别
		switch r := rnd.Float64(); {
		case r < 1.0/3:
			set.LE = append(set.LE[:len(set.LE):len(set.LE)], part)
			ed.Scenario = CutToLE
		case r >= 2.0/3:
			set.NBF = append(set.NBF[:len(set.NBF):len(set.NBF)], part)
			ed.Scenario = CutToNBF
		default:
			ed.Scenario = CutDiscarded
		}
		return ed, true
	}
	return
}

// 去掉下标i的新切片
func without(gs []Geometry, i int) []Geometry {
	ret := make([]Geometry, 0, len(gs)-1)
	ret = append(ret, gs[:i]...)
	return append(ret, gs[i+1:]...)
}
