package edgelabel

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/wgdzlh/edgelabel/utils"
)

// 瓦片的权威外包框来源（瓦片切分时持久化的记录）
type TileExtentSource interface {
	TileExtent(tileID string) (BBox, error)
}

// 内存外包框记录
type StaticExtents map[string]BBox

func (s StaticExtents) TileExtent(tileID string) (b BBox, err error) {
	b, ok := s[tileID]
	if !ok {
		err = fmt.Errorf("%w: %s", ErrMissingTileExtent, tileID)
	}
	return
}

// 读取不超过n个非空行并解析为浮点数
func readFloats(r io.Reader, n int) (vs []float64, err error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() && len(vs) < n {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		v, e := strconv.ParseFloat(line, 64)
		if e != nil {
			err = e
			return
		}
		vs = append(vs, v)
	}
	err = sc.Err()
	return
}

// 读取换行分隔的xmin、ymin、xmax、ymax
func ParseBBoxRecord(r io.Reader) (b BBox, err error) {
	vs, err := readFloats(r, 4)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidBBoxRecord, err)
		return
	}
	if len(vs) != 4 {
		err = fmt.Errorf("%w: %d values", ErrInvalidBBoxRecord, len(vs))
		return
	}
	if b, err = NewBBox(vs[0], vs[1], vs[2], vs[3]); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidBBoxRecord, err)
	}
	return
}

func WriteBBoxRecord(w io.Writer, b BBox) (err error) {
	for _, v := range b.Slice() {
		if _, err = io.WriteString(w, strconv.FormatFloat(v, 'f', -1, 64)+"\n"); err != nil {
			return
		}
	}
	return
}

// 由六行world file（A,D,B,E,C,F，C/F为左上像素中心）与影像像素数求外包框，不支持旋转
func ParseWorldFile(r io.Reader, cols, rows int) (b BBox, err error) {
	vs, err := readFloats(r, 6)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidWorldFile, err)
		return
	}
	if len(vs) != 6 {
		err = fmt.Errorf("%w: %d values", ErrInvalidWorldFile, len(vs))
		return
	}
	a, d, bb, e, c, f := vs[0], vs[1], vs[2], vs[3], vs[4], vs[5]
	if d != 0 || bb != 0 || a <= 0 || e >= 0 || cols <= 0 || rows <= 0 {
		err = fmt.Errorf("%w: unsupported geotransform", ErrInvalidWorldFile)
		return
	}
	xmin := c - a/2
	ymax := f - e/2
	return NewBBox(xmin, ymax+e*float64(rows), xmin+a*float64(cols), ymax)
}

// 读取<Dir>/<tileID><Suffix>，缺失时回退到Size×Size影像的world file
type FileExtentSource struct {
	Dir    string
	Suffix string
	Size   int
}

func (s FileExtentSource) TileExtent(tileID string) (b BBox, err error) {
	suffix := s.Suffix
	if suffix == "" {
		suffix = BBOX_EXTENT
	}
	f, err := os.Open(utils.SidecarPath(s.Dir, tileID, suffix))
	if err == nil {
		defer f.Close()
		return ParseBBoxRecord(f)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return
	}
	wf, err := os.Open(utils.SidecarPath(s.Dir, tileID, WORLD_FILE_EXT))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrMissingTileExtent, tileID)
		}
		return
	}
	defer wf.Close()
	size := s.Size
	if size <= 0 {
		size = IMAGE_SIZE_SMALL
	}
	return ParseWorldFile(wf, size, size)
}
