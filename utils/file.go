package utils

import (
	"path/filepath"
	"strings"
)

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

// 瓦片编号即影像文件名（不含扩展名）
func TileID(imagePath string) string {
	return GetFilenameWithoutExt(imagePath)
}

// 与瓦片同目录、同名的附属文件路径，如<dir>/<tile>_bbox.txt
func SidecarPath(dir, tileID, suffix string) string {
	return filepath.Join(dir, tileID+suffix)
}
