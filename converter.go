package edgelabel

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"math/rand/v2"

	"github.com/wgdzlh/edgelabel/log"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 瓦片矢量转标注栅格；每次调用独立的引擎会话与随机源，可并发使用
type Converter struct {
	cfg       Config
	features  FeatureSource
	extents   TileExtentSource
	newEngine EngineFactory
	logTag    string
}

func NewConverter(cfg Config, features FeatureSource, extents TileExtentSource, newEngine EngineFactory) (c *Converter, err error) {
	if err = cfg.Validate(); err != nil {
		return
	}
	c = &Converter{
		cfg:       cfg,
		features:  features,
		extents:   extents,
		newEngine: newEngine,
		logTag:    "Converter:",
	}
	return
}

// 单个瓦片的处理上下文
type tileJob struct {
	bbox   BBox
	tileID string
	e      GeometryEngine
	set    *GeometrySet
	log    *zap.Logger
}

func (j *tileJob) close() {
	if cl, ok := j.e.(io.Closer); ok {
		if err := cl.Close(); err != nil {
			j.log.Warn("close engine failed", zap.Error(err))
		}
	}
}

// 拉取并解析要素；无要素时返回ErrNoFeatures
func (c *Converter) open(ctx context.Context, bbox BBox, tileID string) (j *tileJob, err error) {
	lg := log.L().With(zap.String("req", uuid.NewString()), zap.String("tile", tileID))
	if !bbox.Valid() {
		err = fmt.Errorf("%w: %v", ErrInvalidBBox, bbox.Slice())
		return
	}
	raw, err := c.features.FetchFeatures(ctx, bbox)
	if err != nil {
		lg.Error(c.logTag+"fetch features failed", zap.Float64s("bbox", bbox.Slice()), zap.Error(err))
		err = fmt.Errorf("fetch features: %w", err)
		return
	}
	if raw.Empty() {
		lg.Info(c.logTag+"no features in bbox", zap.Float64s("bbox", bbox.Slice()))
		err = ErrNoFeatures
		return
	}
	e, err := c.newEngine()
	if err != nil {
		err = fmt.Errorf("create geometry engine: %w", err)
		return
	}
	set, errs := ParseFeatures(e, raw)
	j = &tileJob{bbox: bbox, tileID: tileID, e: e, set: set, log: lg}
	if set.Len() == 0 {
		lg.Warn(c.logTag+"all features malformed", zap.Int("skipped", len(errs)))
		j.close()
		j, err = nil, ErrNoFeatures
		return
	}
	lg.Debug(c.logTag+"features parsed", zap.Int("fb", len(set.FB)), zap.Int("le", len(set.LE)),
		zap.Int("nbf", len(set.NBF)), zap.Int("skipped", len(errs)))
	return
}

func (c *Converter) tileExtent(j *tileJob) (tile BBox, err error) {
	if tile, err = c.extents.TileExtent(j.tileID); err != nil {
		j.log.Error(c.logTag+"get tile extent failed", zap.Error(err))
		err = fmt.Errorf("tile extent: %w", err)
	}
	return
}

func (c *Converter) toTile(j *tileJob, gs []Geometry, tile BBox) *Raster {
	return RasterizeToTile(j.e, gs, tile, c.cfg.PixelSize, c.cfg.ImageSize)
}

// bbox内全部要素的0/1边界栅格，无要素时返回nil
func (c *Converter) EdgeRaster(ctx context.Context, bbox BBox, tileID string) (ret *Raster, err error) {
	j, err := c.open(ctx, bbox, tileID)
	if errors.Is(err, ErrNoFeatures) {
		err = nil
		return
	}
	if err != nil {
		return
	}
	defer j.close()
	tile, err := c.tileExtent(j)
	if err != nil {
		return
	}
	ret = c.toTile(j, j.set.Boundaries(j.e, bbox), tile)
	return
}

// 边界栅格与FB/LE/NBF分类栅格（均乘以MASK_SCALE），manipulate时先做一次编辑；无要素时返回全零栅格
func (c *Converter) ClassificationRasters(ctx context.Context, bbox BBox, tileID string, manipulate bool) (boundary *Raster, classes *ClassificationRaster, err error) {
	j, err := c.open(ctx, bbox, tileID)
	if errors.Is(err, ErrNoFeatures) {
		size := c.cfg.ImageSize
		return EmptyRaster(size), NewClassificationRaster(size, size), nil
	}
	if err != nil {
		return
	}
	defer j.close()
	if manipulate {
		ed := Manipulate(j.e, j.set, bbox, c.TileRand(tileID))
		j.log.Info(c.logTag+"features manipulated", zap.Stringer("scenario", ed.Scenario))
	}
	tile, err := c.tileExtent(j)
	if err != nil {
		return
	}
	edges := j.set.Boundaries(j.e, bbox)
	capped := &GeometrySet{
		FB:  Cap(j.e, j.set.FB, bbox, false),
		LE:  Cap(j.e, j.set.LE, bbox, false),
		NBF: Cap(j.e, j.set.NBF, bbox, false),
	}
	c.dump(j, capped, edges)
	boundary = ComposeBoundary(c.toTile(j, edges, tile))
	masks := [ClassChannels]*Raster{}
	for _, cat := range []Category{FB, LE, NBF} {
		masks[cat] = c.toTile(j, capped.Category(cat), tile)
	}
	if classes, err = ComposeClassification(masks[FB], masks[LE], masks[NBF]); err != nil {
		boundary = nil
	}
	return
}

// 导出失败不影响栅格生成
func (c *Converter) dump(j *tileJob, capped *GeometrySet, edges []Geometry) {
	if c.cfg.DebugDir == "" {
		return
	}
	w, ok := j.e.(ShapefileWriter)
	if !ok {
		j.log.Debug(c.logTag + "engine cannot write shapefiles")
		return
	}
	if err := dumpShapefiles(w, c.cfg.DebugDir, j.tileID, capped, edges); err != nil {
		j.log.Warn(c.logTag+"dump shapefiles failed", zap.String("dir", c.cfg.DebugDir), zap.Error(err))
	}
}

// 无类别像素掩膜
func (c *Converter) NoClassRaster(classes *ClassificationRaster) *Raster {
	return NoClassMask(classes)
}

// 瓦片的随机源，仅由配置种子与瓦片编号决定
func (c *Converter) TileRand(tileID string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(tileID))
	return rand.New(rand.NewPCG(c.cfg.Seed, h.Sum64()))
}
