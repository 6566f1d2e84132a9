package edgelabel

import (
	"errors"
	"fmt"

	"github.com/wgdzlh/edgelabel/utils"
)

var (
	ErrNoFeatures          = errors.New("no features in bbox")
	ErrMalformedGeometry   = errors.New("malformed geometry")
	ErrUnsupportedFormat   = errors.New("unsupported geometry format")
	ErrUnsupportedGeometry = errors.New("unsupported geometry")
	ErrGdalWrongGeoType    = errors.New("gdal wrong geo type")
	ErrGdalDriverCreate    = errors.New("gdal driver create failed")
	ErrForeignGeometry     = errors.New("geometry belongs to another engine")
	ErrInvalidBBox         = errors.New("invalid bbox")
	ErrInvalidBBoxRecord   = errors.New("invalid bbox record")
	ErrInvalidWorldFile    = errors.New("invalid world file")
	ErrRasterSizeMismatch  = errors.New("raster size mismatch")
	ErrInvalidConfig       = errors.New("invalid config")
	ErrUnknownCharset      = utils.ErrUnknownCharset
	ErrMissingTileExtent   = errors.New("missing tile extent")
	ErrNotEnoughRingPoints = errors.New("not enough ring points")
)

// 单个矢量解析失败，携带原始表示
type MalformedGeometryError struct {
	Category Category
	Raw      RawGeometry
	Err      error
}

func (e *MalformedGeometryError) Error() string {
	return fmt.Sprintf("%s geometry (%s): %v", e.Category, e.Raw.Format, e.Err)
}

func (e *MalformedGeometryError) Unwrap() []error {
	return []error{ErrMalformedGeometry, e.Err}
}
