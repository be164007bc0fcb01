package style

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// ErrConversion 样式文档无法转换
var ErrConversion = errors.New("style conversion failed")

// Unit 目标尺寸单位
type Unit string

const (
	UnitPixels      Unit = "px"
	UnitMillimeters Unit = "mm"
)

// ConversionContext 样式转换参数与告警
type ConversionContext struct {
	TargetUnit                Unit
	PixelSizeConversionFactor float64
	Warnings                  []string
}

// NewConversionContext 以像素为单位, 不做换算
func NewConversionContext() *ConversionContext {
	return &ConversionContext{TargetUnit: UnitPixels, PixelSizeConversionFactor: 1}
}

func (c *ConversionContext) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Debug(msg)
	c.Warnings = append(c.Warnings, msg)
}

func (c *ConversionContext) size(px float64) float64 {
	if c.TargetUnit == UnitMillimeters {
		return px * c.PixelSizeConversionFactor
	}
	return px
}

// Converter 样式转换器
type Converter interface {
	Convert(raw []byte, ctx *ConversionContext) (Renderer, Labeling, error)
}

// MapBoxGLConverter 将 MapBox GL 样式转为 basic 渲染与标注
type MapBoxGLConverter struct{}

// Convert 转换样式文档; 表达式类型的属性回退为默认值并记录告警
func (MapBoxGLConverter) Convert(raw []byte, ctx *ConversionContext) (Renderer, Labeling, error) {
	if ctx == nil {
		ctx = NewConversionContext()
	}
	if !gjson.ValidBytes(raw) {
		return nil, nil, fmt.Errorf("%w: invalid style JSON", ErrConversion)
	}
	layers := gjson.GetBytes(raw, "layers")
	if !layers.IsArray() {
		return nil, nil, fmt.Errorf("%w: could not find layers list in JSON", ErrConversion)
	}

	var styles []Style
	var labels []LabelStyle
	for _, l := range layers.Array() {
		id := l.Get("id").String()
		typ := l.Get("type").String()
		minZoom, maxZoom := -1, -1
		if v := l.Get("minzoom"); v.Exists() {
			minZoom = int(v.Int())
		}
		if v := l.Get("maxzoom"); v.Exists() {
			maxZoom = int(v.Int())
		}
		enabled := l.Get("layout.visibility").String() != "none"
		layer := l.Get("source-layer").String()
		paint := l.Get("paint")

		switch typ {
		case "fill":
			styles = append(styles, Style{
				Name: id, Layer: layer, Geometry: Polygon, Enabled: enabled,
				MinZoom: minZoom, MaxZoom: maxZoom,
				Color:        literalString(paint.Get("fill-color"), "#000000", id, ctx),
				OutlineColor: literalString(paint.Get("fill-outline-color"), "", id, ctx),
				Opacity:      literalNumber(paint.Get("fill-opacity"), 1, id, ctx),
			})
		case "line":
			styles = append(styles, Style{
				Name: id, Layer: layer, Geometry: Line, Enabled: enabled,
				MinZoom: minZoom, MaxZoom: maxZoom,
				Color:   literalString(paint.Get("line-color"), "#000000", id, ctx),
				Opacity: literalNumber(paint.Get("line-opacity"), 1, id, ctx),
				Width:   ctx.size(literalNumber(paint.Get("line-width"), 1, id, ctx)),
			})
		case "circle":
			styles = append(styles, Style{
				Name: id, Layer: layer, Geometry: Point, Enabled: enabled,
				MinZoom: minZoom, MaxZoom: maxZoom,
				Color:        literalString(paint.Get("circle-color"), "#000000", id, ctx),
				OutlineColor: literalString(paint.Get("circle-stroke-color"), "", id, ctx),
				Opacity:      literalNumber(paint.Get("circle-opacity"), 1, id, ctx),
				Size:         ctx.size(2 * literalNumber(paint.Get("circle-radius"), 5, id, ctx)),
			})
		case "symbol":
			field := labelField(l.Get("layout.text-field"))
			if field == "" {
				ctx.warn("%s: skipping symbol layer without text-field", id)
				continue
			}
			labels = append(labels, LabelStyle{
				Name: id, Layer: layer, Enabled: enabled,
				MinZoom: minZoom, MaxZoom: maxZoom,
				Field: field,
				Color: literalString(paint.Get("text-color"), "#000000", id, ctx),
				Size:  ctx.size(literalNumber(l.Get("layout.text-size"), 16, id, ctx)),
			})
		default:
			ctx.warn("%s: skipping unsupported layer type %s", id, typ)
		}
	}
	return NewBasicRenderer(styles), NewBasicLabeling(labels), nil
}

func literalString(v gjson.Result, def, id string, ctx *ConversionContext) string {
	if !v.Exists() {
		return def
	}
	if v.Type != gjson.String {
		ctx.warn("%s: could not parse non-literal value %s", id, v.Raw)
		return def
	}
	return v.String()
}

func literalNumber(v gjson.Result, def float64, id string, ctx *ConversionContext) float64 {
	if !v.Exists() {
		return def
	}
	if v.Type != gjson.Number {
		ctx.warn("%s: could not parse non-literal value %s", id, v.Raw)
		return def
	}
	return v.Float()
}

// labelField 支持 "{name}" 与 ["get", "name"] 两种写法
func labelField(v gjson.Result) string {
	switch {
	case v.Type == gjson.String:
		s := v.String()
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			return s[1 : len(s)-1]
		}
		return s
	case v.IsArray():
		arr := v.Array()
		if len(arr) == 2 && arr[0].String() == "get" {
			return arr[1].String()
		}
	}
	return ""
}
