// Package style 矢量瓦片的渲染与标注配置
package style

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"math/rand"
)

// ErrUnknownType 未知的渲染或标注类型
var ErrUnknownType = errors.New("unknown type")

// BasicType 目前唯一支持的渲染与标注类型
const BasicType = "basic"

// GeometryType 样式作用的几何类型
type GeometryType string

const (
	Point   GeometryType = "point"
	Line    GeometryType = "line"
	Polygon GeometryType = "polygon"
)

// Renderer 渲染器
type Renderer interface {
	Type() string
	Clone() Renderer
	Styles() []Style
	WriteXML() ([]byte, error)
	ReadXML(inner []byte) error
}

// Labeling 标注
type Labeling interface {
	Type() string
	Clone() Labeling
	Styles() []LabelStyle
	WriteXML() ([]byte, error)
	ReadXML(inner []byte) error
}

// NewRenderer 按类型创建渲染器
func NewRenderer(typ string) (Renderer, error) {
	switch typ {
	case BasicType:
		return &BasicRenderer{}, nil
	}
	return nil, fmt.Errorf("%w: renderer %q", ErrUnknownType, typ)
}

// NewLabeling 按类型创建标注
func NewLabeling(typ string) (Labeling, error) {
	switch typ {
	case BasicType:
		return &BasicLabeling{}, nil
	}
	return nil, fmt.Errorf("%w: labeling %q", ErrUnknownType, typ)
}

// Style 一条渲染样式, 级别为 -1 时不限制
type Style struct {
	XMLName      xml.Name     `xml:"style"`
	Name         string       `xml:"name,attr"`
	Layer        string       `xml:"layer,attr"`
	Geometry     GeometryType `xml:"geometry,attr"`
	Enabled      bool         `xml:"enabled,attr"`
	MinZoom      int          `xml:"min-zoom,attr"`
	MaxZoom      int          `xml:"max-zoom,attr"`
	Filter       string       `xml:"expression,attr,omitempty"`
	Color        string       `xml:"color,attr,omitempty"`
	OutlineColor string       `xml:"outline-color,attr,omitempty"`
	Opacity      float64      `xml:"opacity,attr,omitempty"`
	Width        float64      `xml:"width,attr,omitempty"`
	Size         float64      `xml:"size,attr,omitempty"`
}

// IsActive 样式在指定级别是否生效
func (s Style) IsActive(zoom int) bool {
	return s.Enabled && (s.MinZoom < 0 || zoom >= s.MinZoom) && (s.MaxZoom < 0 || zoom <= s.MaxZoom)
}

type stylesElem struct {
	XMLName xml.Name `xml:"styles"`
	Styles  []Style  `xml:"style"`
}

// BasicRenderer 按图层与几何类型分组的样式列表
type BasicRenderer struct {
	styles []Style
}

// NewBasicRenderer 创建渲染器
func NewBasicRenderer(styles []Style) *BasicRenderer {
	return &BasicRenderer{styles: append([]Style(nil), styles...)}
}

func (r *BasicRenderer) Type() string {
	return BasicType
}

func (r *BasicRenderer) Clone() Renderer {
	return NewBasicRenderer(r.styles)
}

func (r *BasicRenderer) Styles() []Style {
	return append([]Style(nil), r.styles...)
}

// SetStyles 替换样式
func (r *BasicRenderer) SetStyles(styles []Style) {
	r.styles = append([]Style(nil), styles...)
}

// StylesForZoom 指定级别生效的样式
func (r *BasicRenderer) StylesForZoom(zoom int) []Style {
	var out []Style
	for _, s := range r.styles {
		if s.IsActive(zoom) {
			out = append(out, s)
		}
	}
	return out
}

func (r *BasicRenderer) WriteXML() ([]byte, error) {
	return xml.Marshal(stylesElem{Styles: r.styles})
}

func (r *BasicRenderer) ReadXML(inner []byte) error {
	r.styles = nil
	if len(bytes.TrimSpace(inner)) == 0 {
		return nil
	}
	var elem stylesElem
	if err := xml.Unmarshal(inner, &elem); err != nil {
		return fmt.Errorf("read renderer styles: %w", err)
	}
	r.styles = elem.Styles
	return nil
}

// SimpleStyleWithRandomColors 面线点各一条随机颜色样式
func SimpleStyleWithRandomColors() []Style {
	polygon := randomColor()
	line := randomColor()
	point := randomColor()
	return []Style{
		{Name: "Polygons", Geometry: Polygon, Enabled: true, MinZoom: -1, MaxZoom: -1,
			Filter: "geometry_type(@geometry)='Polygon'", Color: polygon, OutlineColor: polygon, Opacity: 0.4, Width: 0.26},
		{Name: "Lines", Geometry: Line, Enabled: true, MinZoom: -1, MaxZoom: -1,
			Filter: "geometry_type(@geometry)='Line'", Color: line, Width: 0.26},
		{Name: "Points", Geometry: Point, Enabled: true, MinZoom: -1, MaxZoom: -1,
			Filter: "geometry_type(@geometry)='Point'", Color: point, OutlineColor: point, Size: 2},
	}
}

func randomColor() string {
	return fmt.Sprintf("#%02x%02x%02x", rand.Intn(256), rand.Intn(256), rand.Intn(256))
}
