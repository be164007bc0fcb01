package style

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// LabelStyle 一条标注样式
type LabelStyle struct {
	XMLName  xml.Name     `xml:"style"`
	Name     string       `xml:"name,attr"`
	Layer    string       `xml:"layer,attr"`
	Geometry GeometryType `xml:"geometry,attr,omitempty"`
	Enabled  bool         `xml:"enabled,attr"`
	MinZoom  int          `xml:"min-zoom,attr"`
	MaxZoom  int          `xml:"max-zoom,attr"`
	Field    string       `xml:"field,attr"`
	Color    string       `xml:"color,attr,omitempty"`
	Size     float64      `xml:"size,attr,omitempty"`
}

type labelStylesElem struct {
	XMLName xml.Name     `xml:"styles"`
	Styles  []LabelStyle `xml:"style"`
}

// BasicLabeling 按图层分组的标注列表
type BasicLabeling struct {
	styles []LabelStyle
}

// NewBasicLabeling 创建标注
func NewBasicLabeling(styles []LabelStyle) *BasicLabeling {
	return &BasicLabeling{styles: append([]LabelStyle(nil), styles...)}
}

func (l *BasicLabeling) Type() string {
	return BasicType
}

func (l *BasicLabeling) Clone() Labeling {
	return NewBasicLabeling(l.styles)
}

func (l *BasicLabeling) Styles() []LabelStyle {
	return append([]LabelStyle(nil), l.styles...)
}

func (l *BasicLabeling) WriteXML() ([]byte, error) {
	return xml.Marshal(labelStylesElem{Styles: l.styles})
}

func (l *BasicLabeling) ReadXML(inner []byte) error {
	l.styles = nil
	if len(bytes.TrimSpace(inner)) == 0 {
		return nil
	}
	var elem labelStylesElem
	if err := xml.Unmarshal(inner, &elem); err != nil {
		return fmt.Errorf("read labeling styles: %w", err)
	}
	l.styles = elem.Styles
	return nil
}
