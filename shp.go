package edgelabel

import (
	"os"
	"path/filepath"

	"github.com/wgdzlh/edgelabel/log"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

const (
	SHP_DRIVER_NAME = "ESRI Shapefile"
	SHP_LAYER_NAME  = "geometries"
	ENCODING_OPTION = "ENCODING=UTF-8"
	FILE_EXT_SHP    = ".shp"
)

// 可将矢量导出为shp以便核对标注的引擎
type ShapefileWriter interface {
	WriteShapefile(shp string, gs []Geometry) (n int, err error)
}

var _ ShapefileWriter = (*GdalEngine)(nil)

// 将矢量写入shp，多部件矢量拆分为单个要素写入，空矢量跳过，返回写入要素数
func (e *GdalEngine) WriteShapefile(shp string, gs []Geometry) (n int, err error) {
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Create(shp, nil)
	if !ok {
		err = ErrGdalDriverCreate
		return
	}
	defer ds.Destroy() // 生成shp文件 + 释放资源
	layer := ds.CreateLayer(SHP_LAYER_NAME, e.ref, gdal.GT_Unknown, []string{ENCODING_OPTION})
	def := layer.Definition()
	var parts []gdal.Geometry
	for _, g := range gs {
		if e.IsEmpty(g) {
			continue
		}
		for _, p := range e.Parts(g) {
			if geo, ok := e.geom(p); ok && !geo.IsEmpty() {
				parts = append(parts, geo)
			}
		}
	}
	for i, geo := range parts {
		feature := def.Create()
		if err = feature.SetFID(int64(i)); err == nil {
			if err = feature.SetGeometry(geo); err == nil {
				err = layer.Create(feature)
			}
		}
		feature.Destroy()
		if err != nil {
			log.Error(e.logTag+"write feature failed", zap.String("shp", shp), zap.Int("fid", i), zap.Error(err))
			return
		}
		n++
	}
	log.Info(e.logTag+"output geo to shapefile done", zap.String("shp", shp), zap.Int("total", len(gs)), zap.Int("features", n))
	return
}

// 将各类矢量分别导出到dir/<tile>_<类别>.shp
func dumpShapefiles(w ShapefileWriter, dir, tileID string, set *GeometrySet, boundaries []Geometry) (err error) {
	if err = os.MkdirAll(dir, os.ModePerm); err != nil {
		return
	}
	for _, layer := range []struct {
		name string
		gs   []Geometry
	}{
		{FB.String(), set.FB},
		{LE.String(), set.LE},
		{NBF.String(), set.NBF},
		{EDGES_EXTENT[1:], boundaries},
	} {
		shp := filepath.Join(dir, tileID+"_"+layer.name+FILE_EXT_SHP)
		if _, err = w.WriteShapefile(shp, layer.gs); err != nil {
			return
		}
	}
	return
}
