package edgelabel

import (
	"fmt"
	"os"

	"github.com/wgdzlh/edgelabel/log"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"
)

const (
	PIXEL_SIZE        = 0.2 // 米/像素
	IMAGE_SIZE_SMALL  = 480 // 标准瓦片边长（像素）
	BBOX_EXTENT       = "_bbox.txt"
	WORLD_FILE_EXT    = ".tfw"
	EDGES_EXTENT      = "_edges"
	DEFAULT_SRID      = 5650 // ETRS89 / UTM 33N (zE-N)
	MASK_SCALE        = 255
	DEFAULT_LOG_LEVEL = "info"
)
	MASK_SCALE          = 255
	DEFAULT_LOG_LEVEL   = "info"
)

type Config struct {
	PixelSize  float64 `toml:"pixel_size"`
	ImageSize  int     `toml:"image_size"`
	SRID       int     `toml:"srid"`
	Seed       uint64  `toml:"seed"`
	BBoxSuffix string  `toml:"bbox_suffix"`
	LogLevel   string  `toml:"log_level"`
	// 非空时将每个瓦片裁剪后的矢量导出为shp（仅支持GDAL引擎）
	DebugDir string `toml:"debug_dir"`
}

func DefaultConfig() Config {
	return Config{
		PixelSize:  PIXEL_SIZE,
		ImageSize:  IMAGE_SIZE_SMALL,
		SRID:       DEFAULT_SRID,
		Seed:       5,
		BBoxSuffix: BBOX_EXTENT,
		LogLevel:   DEFAULT_LOG_LEVEL,
	}
}

// 读取TOML配置，缺省项保留默认值
func LoadConfig(path string) (cfg Config, err error) {
	cfg = DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err = toml.Unmarshal(data, &cfg); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		return
	}
	err = cfg.Validate()
	return
}

func (c Config) Validate() error {
	if c.PixelSize <= 0 {
		return fmt.Errorf("%w: pixel_size must be positive, got %v", ErrInvalidConfig, c.PixelSize)
	}
	if c.ImageSize <= 0 {
		return fmt.Errorf("%w: image_size must be positive, got %d", ErrInvalidConfig, c.ImageSize)
	}
	if c.SRID <= 0 {
		return fmt.Errorf("%w: srid must be positive, got %d", ErrInvalidConfig, c.SRID)
	}
	if c.BBoxSuffix == "" {
		return fmt.Errorf("%w: bbox_suffix is empty", ErrInvalidConfig)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
	}
	return nil
}

// 读取配置并按log_level初始化全局日志
func Setup(path string) (cfg Config, err error) {
	if cfg, err = LoadConfig(path); err != nil {
		return
	}
	err = log.Init(cfg.LogLevel)
	return
}

// dir下按bbox_suffix命名的瓦片外包框记录
func (c Config) ExtentSource(dir string) FileExtentSource {
	return FileExtentSource{Dir: dir, Suffix: c.BBoxSuffix, Size: c.ImageSize}
}
