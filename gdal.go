package edgelabel

import (
	"fmt"
	"sync"

	"github.com/wgdzlh/edgelabel/log"

	"github.com/lukeroth/gdal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"go.uber.org/zap"
)

type GdalToolbox struct {
	refMap map[int]gdal.SpatialReference
	rLock  sync.Mutex
	logTag string
}

// 由GDAL库C语言创建的内存对象，需要手动调用Destroy回收
type destroyable interface {
	Destroy()
}

var (
	emptyGeometry = gdal.Geometry{}
)

func NewGdalToolbox() *GdalToolbox {
	return &GdalToolbox{
		refMap: map[int]gdal.SpatialReference{},
		logTag: "GdalToolbox:",
	}
}

// 获取srid对应的坐标系（可复用，故无需回收）
func (g *GdalToolbox) getSridRef(srid int) (ref gdal.SpatialReference, err error) {
	g.rLock.Lock()
	defer g.rLock.Unlock()
	ref, ok := g.refMap[srid]
	if ok {
		return
	}
	ref = gdal.CreateSpatialReference("")
	if err = ref.FromEPSG(srid); err != nil {
		log.Error(g.logTag+"set ref srid failed", zap.Int("srid", srid), zap.Error(err))
		ref.Destroy()
		return
	}
	// 固定为(东向,北向)的传统GIS坐标序，避免坐标系定义的轴序导致坐标倒置
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	g.refMap[srid] = ref
	return
}

// 新建一个几何引擎会话，会话内创建的所有矢量在Close时统一回收
func (g *GdalToolbox) NewEngine(srid int) (e *GdalEngine, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	e = &GdalEngine{
		ref:    ref,
		srid:   srid,
		logTag: "GdalEngine:",
	}
	return
}

func (g *GdalToolbox) EngineFactory(srid int) EngineFactory {
	return func() (GeometryEngine, error) {
		return g.NewEngine(srid)
	}
}

// 按配置组装：GDAL引擎使用cfg.SRID，外包框从tileDir按cfg.BBoxSuffix读取
func NewGdalConverter(cfg Config, features FeatureSource, tileDir string) (*Converter, error) {
	return NewConverter(cfg, features, cfg.ExtentSource(tileDir), NewGdalToolbox().EngineFactory(cfg.SRID))
}

// 基于OGR的GeometryEngine，非并发安全，每个瓦片新建一个
type GdalEngine struct {
	ref    gdal.SpatialReference
	srid   int
	gc     []destroyable
	logTag string
}

var _ GeometryEngine = (*GdalEngine)(nil)

type gdalGeom struct {
	geo gdal.Geometry
}

func (e *GdalEngine) keep(geo gdal.Geometry) *gdalGeom {
	e.gc = append(e.gc, geo)
	return &gdalGeom{geo: geo}
}

func (e *GdalEngine) geom(g Geometry) (geo gdal.Geometry, ok bool) {
	v, ok := g.(*gdalGeom)
	if !ok || v == nil {
		if g != nil {
			log.Error(e.logTag+"foreign geometry", zap.String("type", fmt.Sprintf("%T", g)), zap.Error(ErrForeignGeometry))
		}
		return
	}
	return v.geo, true
}

// 回收会话内全部矢量
func (e *GdalEngine) Close() error {
	for _, v := range e.gc {
		v.Destroy()
	}
	e.gc = nil
	return nil
}

func (e *GdalEngine) empty() *gdalGeom {
	return e.keep(gdal.Create(gdal.GT_GeometryCollection))
}

func (e *GdalEngine) Polygon(ring ...orb.Point) Geometry {
	if len(ring) < 3 {
		log.Error(e.logTag+"build polygon failed", zap.Int("np", len(ring)), zap.Error(ErrNotEnoughRingPoints))
		return e.empty()
	}
	lr := gdal.Create(gdal.GT_LinearRing)
	for _, p := range ring {
		lr.AddPoint2D(p[0], p[1])
	}
	if !lr.IsRing() {
		lr.AddPoint2D(ring[0][0], ring[0][1])
	}
	ret := gdal.Create(gdal.GT_Polygon)
	if err := ret.AddGeometryDirectly(lr); err != nil {
		log.Error(e.logTag+"build polygon failed", zap.Error(err))
		lr.Destroy()
		ret.Destroy()
		return e.empty()
	}
	ret.SetSpatialReference(e.ref)
	return e.keep(ret)
}

func (e *GdalEngine) Parse(raw RawGeometry) (ret Geometry, err error) {
	var geo gdal.Geometry
	switch raw.Format {
	case FormatWKT:
		if geo, err = gdal.CreateFromWKT(raw.Data, e.ref); err != nil {
			return
		}
	case FormatGeoJSON:
		geo = gdal.CreateFromJson(raw.Data)
	case FormatGML:
		geo = gdal.CreateFromGML(raw.Data)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, raw.Format)
		return
	}
	if geo == emptyGeometry {
		err = fmt.Errorf("gdal could not build %s geometry", raw.Format)
		return
	}
	if geo.Type() == gdal.GT_Unknown {
		geo.Destroy()
		err = ErrGdalWrongGeoType
		return
	}
	if raw.Format != FormatWKT {
		geo.SetSpatialReference(e.ref)
	}
	ret = e.keep(geo)
	return
}

func (e *GdalEngine) Union(a, b Geometry) Geometry {
	ga, okA := e.geom(a)
	gb, okB := e.geom(b)
	switch {
	case okA && okB:
		return e.keep(ga.Union(gb))
	case okA:
		return e.keep(ga.Clone())
	case okB:
		return e.keep(gb.Clone())
	}
	return e.empty()
}

func (e *GdalEngine) Intersection(a, b Geometry) Geometry {
	ga, okA := e.geom(a)
	gb, okB := e.geom(b)
	if !okA || !okB {
		return e.empty()
	}
	return e.keep(ga.Intersection(gb))
}

func (e *GdalEngine) Difference(a, b Geometry) Geometry {
	ga, okA := e.geom(a)
	if !okA {
		return e.empty()
	}
	gb, okB := e.geom(b)
	if !okB {
		return e.keep(ga.Clone())
	}
	return e.keep(ga.Difference(gb))
}

func (e *GdalEngine) Boundary(g Geometry) Geometry {
	geo, ok := e.geom(g)
	if !ok {
		return e.empty()
	}
	return e.keep(geo.Boundary())
}

func (e *GdalEngine) IsEmpty(g Geometry) bool {
	geo, ok := e.geom(g)
	return !ok || geo.IsEmpty()
}

func (e *GdalEngine) Kind(g Geometry) Kind {
	geo, ok := e.geom(g)
	if !ok || geo.IsEmpty() {
		return KindEmpty
	}
	switch geo.Type() {
	case gdal.GT_Point, gdal.GT_Point25D:
		return KindPoint
	case gdal.GT_LineString, gdal.GT_LinearRing, gdal.GT_LineString25D:
		return KindLine
	case gdal.GT_Polygon, gdal.GT_Polygon25D:
		return KindPolygon
	case gdal.GT_MultiPoint, gdal.GT_MultiPoint25D:
		return KindMultiPoint
	case gdal.GT_MultiLineString, gdal.GT_MultiLineString25D:
		return KindMultiLine
	case gdal.GT_MultiPolygon, gdal.GT_MultiPolygon25D:
		return KindMultiPolygon
	}
	return KindCollection
}

// 子矢量归父矢量所有，这里复制一份交给会话管理
func (e *GdalEngine) Parts(g Geometry) (parts []Geometry) {
	geo, ok := e.geom(g)
	if !ok {
		return
	}
	if !e.Kind(g).IsMulti() {
		return []Geometry{g}
	}
	n := geo.GeometryCount()
	parts = make([]Geometry, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, e.keep(geo.Geometry(i).Clone()))
	}
	return
}

func (e *GdalEngine) Bounds(g Geometry) (b BBox) {
	geo, ok := e.geom(g)
	if !ok || geo.IsEmpty() {
		return
	}
	env := geo.Envelope()
	b = BBox{MinX: env.MinX(), MinY: env.MinY(), MaxX: env.MaxX(), MaxY: env.MaxY()}
	return
}

// 经WKB转为orb矢量供栅格化使用
func (e *GdalEngine) Shape(g Geometry) orb.Geometry {
	geo, ok := e.geom(g)
	if !ok || geo.IsEmpty() {
		return orb.Collection{}
	}
	// orb只支持二维WKB
	if geo.CoordinateDimension() > 2 {
		geo = e.keep(geo.Clone()).geo
		geo.FlattenTo2D()
	}
	data, err := geo.ToWKB()
	if err != nil {
		log.Error(e.logTag+"export wkb failed", zap.Error(err))
		return orb.Collection{}
	}
	og, err := wkb.Unmarshal(data)
	if err != nil {
		log.Error(e.logTag+"decode wkb failed", zap.Int("size", len(data)), zap.Error(err))
		return orb.Collection{}
	}
	return og
}

func (e *GdalEngine) WKT(g Geometry) string {
	geo, ok := e.geom(g)
	if !ok {
		return ""
	}
	wkt, err := geo.ToWKT()
	if err != nil {
		log.Error(e.logTag+"export wkt failed", zap.Error(err))
	}
	return wkt
}

// 面积（平方米）
func (e *GdalEngine) Area(g Geometry) float64 {
	geo, ok := e.geom(g)
	if !ok {
		return 0
	}
	return geo.Area()
}
