// Package tile 提供 web mercator 瓦片金字塔的寻址模型
package tile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
)

// TileSize 默认瓦片大小
const TileSize = 256

// ZoomMin 最小级别
const ZoomMin = 0

// ZoomMax 最大级别
const ZoomMax = 30

// Constants representing TileFormat types
const (
	GZIP string = "gzip" // encoding = gzip
	ZLIB        = "zlib" // encoding = deflate
	PNG         = "png"
	JPG         = "jpg"
	PBF         = "pbf"
	WEBP        = "webp"
)

// Address 瓦片地址, 原点左上, 行向下列向右
type Address struct {
	Zoom   int
	Column int
	Row    int
}

// New 创建瓦片地址
func New(zoom, column, row int) Address {
	return Address{Zoom: zoom, Column: column, Row: row}
}

// FromMaptile 由 orb 瓦片转换
func FromMaptile(t maptile.Tile) Address {
	return Address{Zoom: int(t.Z), Column: int(t.X), Row: int(t.Y)}
}

// Maptile 转换为 orb 瓦片
func (a Address) Maptile() maptile.Tile {
	return maptile.New(uint32(a.Column), uint32(a.Row), maptile.Zoom(a.Zoom))
}

// Valid 地址是否落在金字塔内
func (a Address) Valid() bool {
	if a.Zoom < ZoomMin || a.Zoom > ZoomMax {
		return false
	}
	n := 1 << uint(a.Zoom)
	return a.Column >= 0 && a.Column < n && a.Row >= 0 && a.Row < n
}

// FlipY TMS 行号
func (a Address) FlipY() int {
	return (1 << uint(a.Zoom)) - a.Row - 1
}

func (a Address) String() string {
	return fmt.Sprintf("%d/%d/%d", a.Zoom, a.Column, a.Row)
}

// ParseAddress 解析 z/x/y 形式的地址
func ParseAddress(s string) (Address, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return Address{}, fmt.Errorf("invalid tile address %q, want z/x/y", s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Address{}, fmt.Errorf("invalid tile address %q: %w", s, err)
		}
		v[i] = n
	}
	a := New(v[0], v[1], v[2])
	if !a.Valid() {
		return Address{}, fmt.Errorf("tile address %s out of pyramid", a)
	}
	return a, nil
}
