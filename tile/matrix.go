package tile

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// WorldExtent web mercator 全球范围
const WorldExtent = 20037508.3427892

// MaxLatitude web mercator 纬度上限
const MaxLatitude = 85.05112877980659

// CRS 矢量瓦片统一使用的坐标系
const CRS = "EPSG:3857"

// WorldBound web mercator 全球范围
func WorldBound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{-WorldExtent, -WorldExtent},
		Max: orb.Point{WorldExtent, WorldExtent},
	}
}

// WGS84BoundToMercator 经纬度范围转 web mercator, 纬度先截断到有效区间
func WGS84BoundToMercator(b orb.Bound) orb.Bound {
	clampLat := func(lat float64) float64 {
		return math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))
	}
	clampLng := func(lng float64) float64 {
		return math.Max(-180, math.Min(180, lng))
	}
	min := project.WGS84.ToMercator(orb.Point{clampLng(b.Min.X()), clampLat(b.Min.Y())})
	max := project.WGS84.ToMercator(orb.Point{clampLng(b.Max.X()), clampLat(b.Max.Y())})
	return orb.Bound{Min: min, Max: max}
}

// MercatorBoundToWGS84 web mercator 范围转经纬度
func MercatorBoundToWGS84(b orb.Bound) orb.Bound {
	return orb.Bound{
		Min: project.Mercator.ToWGS84(b.Min),
		Max: project.Mercator.ToWGS84(b.Max),
	}
}

// Matrix 单个级别的瓦片矩阵
type Matrix struct {
	Zoom         int
	Extent       orb.Bound
	MatrixWidth  int
	MatrixHeight int
}

// FromWebMercator 创建 web mercator 金字塔指定级别的矩阵
func FromWebMercator(zoom int) Matrix {
	n := 1 << uint(zoom)
	return Matrix{
		Zoom:         zoom,
		Extent:       WorldBound(),
		MatrixWidth:  n,
		MatrixHeight: n,
	}
}

func (m Matrix) tileWidth() float64 {
	return (m.Extent.Max.X() - m.Extent.Min.X()) / float64(m.MatrixWidth)
}

func (m Matrix) tileHeight() float64 {
	return (m.Extent.Max.Y() - m.Extent.Min.Y()) / float64(m.MatrixHeight)
}

// Contains 地址是否在矩阵内
func (m Matrix) Contains(a Address) bool {
	return a.Zoom == m.Zoom &&
		a.Column >= 0 && a.Column < m.MatrixWidth &&
		a.Row >= 0 && a.Row < m.MatrixHeight
}

// TileExtent 瓦片的 mercator 范围
func (m Matrix) TileExtent(a Address) orb.Bound {
	w, h := m.tileWidth(), m.tileHeight()
	minX := m.Extent.Min.X() + float64(a.Column)*w
	maxY := m.Extent.Max.Y() - float64(a.Row)*h
	return orb.Bound{
		Min: orb.Point{minX, maxY - h},
		Max: orb.Point{minX + w, maxY},
	}
}

// TileRangeFromBound 覆盖 mercator 范围的瓦片区间
func (m Matrix) TileRangeFromBound(b orb.Bound) Range {
	w, h := m.tileWidth(), m.tileHeight()
	r := Range{
		StartColumn: int(math.Floor((b.Min.X() - m.Extent.Min.X()) / w)),
		EndColumn:   int(math.Floor((b.Max.X() - m.Extent.Min.X()) / w)),
		StartRow:    int(math.Floor((m.Extent.Max.Y() - b.Max.Y()) / h)),
		EndRow:      int(math.Floor((m.Extent.Max.Y() - b.Min.Y()) / h)),
	}
	return m.Clamp(r)
}

// Clamp 截断到矩阵范围
func (m Matrix) Clamp(r Range) Range {
	clamp := func(v, n int) int {
		if v < 0 {
			return 0
		}
		if v > n-1 {
			return n - 1
		}
		return v
	}
	if r.EndColumn < 0 || r.EndRow < 0 || r.StartColumn >= m.MatrixWidth || r.StartRow >= m.MatrixHeight {
		return Range{StartColumn: 0, EndColumn: -1, StartRow: 0, EndRow: -1}
	}
	return Range{
		StartColumn: clamp(r.StartColumn, m.MatrixWidth),
		EndColumn:   clamp(r.EndColumn, m.MatrixWidth),
		StartRow:    clamp(r.StartRow, m.MatrixHeight),
		EndRow:      clamp(r.EndRow, m.MatrixHeight),
	}
}

// Range 闭区间的瓦片范围
type Range struct {
	StartColumn int
	EndColumn   int
	StartRow    int
	EndRow      int
}

// SingleTile 只含一个瓦片的区间
func SingleTile(a Address) Range {
	return Range{StartColumn: a.Column, EndColumn: a.Column, StartRow: a.Row, EndRow: a.Row}
}

// IsValid 区间是否非空
func (r Range) IsValid() bool {
	return r.StartColumn >= 0 && r.StartRow >= 0 &&
		r.StartColumn <= r.EndColumn && r.StartRow <= r.EndRow
}

// Count 瓦片数
func (r Range) Count() int64 {
	if !r.IsValid() {
		return 0
	}
	return int64(r.EndColumn-r.StartColumn+1) * int64(r.EndRow-r.StartRow+1)
}

// Addresses 按行优先列出区间内的瓦片
func (r Range) Addresses(zoom int) []Address {
	if !r.IsValid() {
		return nil
	}
	out := make([]Address, 0, r.Count())
	for row := r.StartRow; row <= r.EndRow; row++ {
		for col := r.StartColumn; col <= r.EndColumn; col++ {
			out = append(out, New(zoom, col, row))
		}
	}
	return out
}

// Channel 将区间内的瓦片依次写入通道, 完成后关闭
func (r Range) Channel(zoom int, ch chan<- Address) {
	defer close(ch)
	if !r.IsValid() {
		return
	}
	for row := r.StartRow; row <= r.EndRow; row++ {
		for col := r.StartColumn; col <= r.EndColumn; col++ {
			ch <- New(zoom, col, row)
		}
	}
}
