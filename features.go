package edgelabel

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/wgdzlh/edgelabel/log"
	"github.com/wgdzlh/edgelabel/utils"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// 要素服务：返回与bbox相交的三类原始矢量，无要素时返回空集合
type FeatureSource interface {
	FetchFeatures(ctx context.Context, bbox BBox) (*RawFeatures, error)
}

// 内存要素源，忽略bbox
type StaticFeatures struct {
	Features *RawFeatures
}

func (s StaticFeatures) FetchFeatures(ctx context.Context, bbox BBox) (*RawFeatures, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Features == nil {
		return &RawFeatures{}, nil
	}
	return s.Features, nil
}

// 默认的WFS矢量属性名
const DEFAULT_GEOM_PROPERTY = "the_geom"

// 三个图层的GeoJSON FeatureCollection转为WKT，无几何的要素跳过
func DecodeFeatureCollections(fb, le, nbf []byte, charset string) (ret *RawFeatures, err error) {
	ret = &RawFeatures{}
	for _, layer := range []struct {
		c       Category
		payload []byte
		dst     *[]RawGeometry
	}{{FB, fb, &ret.FB}, {LE, le, &ret.LE}, {NBF, nbf, &ret.NBF}} {
		if len(layer.payload) == 0 {
			continue
		}
		if *layer.dst, err = decodeFeatureCollection(layer.payload, charset); err != nil {
			err = fmt.Errorf("decode %s layer: %w", layer.c, err)
			return
		}
	}
	return
}

// 仅解出各要素的geometry成员，null几何留给调用方跳过
type featureCollection struct {
	Features []struct {
		Geometry json.RawMessage `json:"geometry"`
	} `json:"features"`
}

func decodeFeatureCollection(payload []byte, charset string) (gs []RawGeometry, err error) {
	if payload, err = utils.ToUTF8(payload, charset); err != nil {
		return
	}
	var fc featureCollection
	if err = json.Unmarshal(payload, &fc); err != nil {
		return
	}
	gs = make([]RawGeometry, 0, len(fc.Features))
	for i, f := range fc.Features {
		if len(f.Geometry) == 0 || string(f.Geometry) == "null" {
			continue
		}
		g, e := geojson.UnmarshalGeometry(f.Geometry)
		if e != nil {
			err = fmt.Errorf("feature %d: %w", i, e)
			return
		}
		gs = append(gs, WKT(wkt.MarshalString(g.Geometry())))
	}
	return
}

type gmlProperty struct {
	Inner string `xml:",innerxml"`
}

// 提取WFS GetFeature响应中各要素prop属性下的GML几何
func DecodeGMLFeatures(payload []byte, prop, charset string) (gs []RawGeometry, err error) {
	if payload, err = utils.ToUTF8(payload, charset); err != nil {
		return
	}
	if prop == "" {
		prop = DEFAULT_GEOM_PROPERTY
	}
	d := xml.NewDecoder(bytes.NewReader(payload))
	// 已转为UTF-8，忽略文档声明的编码
	d.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	for {
		tok, e := d.Token()
		if e == io.EOF {
			return
		}
		if e != nil {
			err = e
			return
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != prop {
			continue
		}
		var p gmlProperty
		if err = d.DecodeElement(&p, &se); err != nil {
			return
		}
		inner := bytes.TrimSpace([]byte(utils.PurifyForUtf8(p.Inner)))
		if len(inner) == 0 {
			continue
		}
		gs = append(gs, RawGeometry{Format: FormatGML, Data: string(inner)})
	}
}

// 解析全部原始矢量，格式错误的记录日志后跳过并返回其错误
func ParseFeatures(e GeometryEngine, raw *RawFeatures) (set *GeometrySet, errs []error) {
	logTag := "FeatureParser:"
	set = &GeometrySet{}
	if raw == nil {
		return
	}
	for _, layer := range []struct {
		c   Category
		src []RawGeometry
		dst *[]Geometry
	}{{FB, raw.FB, &set.FB}, {LE, raw.LE, &set.LE}, {NBF, raw.NBF, &set.NBF}} {
		gs := make([]Geometry, 0, len(layer.src))
		for _, r := range layer.src {
			g, err := e.Parse(r)
			if err != nil {
				me := &MalformedGeometryError{Category: layer.c, Raw: r, Err: err}
				log.Error(logTag+"skip malformed geometry", zap.Stringer("cat", layer.c),
					zap.String("raw", r.Data), zap.Error(me))
				errs = append(errs, me)
				continue
			}
			gs = append(gs, g)
		}
		*layer.dst = gs
	}
	return
}
