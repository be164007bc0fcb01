// Package layer 将数据源组合为通用地图图层
package layer

import (
	"strings"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
	"github.com/teris-io/shortid"

	"vtlayer/style"
)

// StyleCategories 样式读写范围
type StyleCategories uint

const (
	CategorySymbology StyleCategories = 1 << iota
	CategoryLabeling

	AllStyleCategories = CategorySymbology | CategoryLabeling
)

// Has 是否包含类别
func (c StyleCategories) Has(flag StyleCategories) bool {
	return c&flag != 0
}

// MapLayer 图层通用状态
type MapLayer struct {
	layerType string
	id        string
	name      string
	source    string
	valid     bool
	errMsg    string
	extent    orb.Bound
	crs       string
	metadata  Metadata
	renderer  style.Renderer
	labeling  style.Labeling
	repaint   func()
}

func newMapLayer(layerType, source, name string) *MapLayer {
	return &MapLayer{
		layerType: layerType,
		id:        generateID(name),
		name:      name,
		source:    source,
	}
}

func generateID(name string) string {
	sid, err := shortid.Generate()
	if err != nil {
		log.Warnf("generate layer id error, details: %s", err)
	}
	prefix := strings.ReplaceAll(name, " ", "_")
	if prefix == "" {
		return sid
	}
	return prefix + "_" + sid
}

// Type 图层类型
func (l *MapLayer) Type() string {
	return l.layerType
}

func (l *MapLayer) ID() string {
	return l.id
}

func (l *MapLayer) Name() string {
	return l.name
}

func (l *MapLayer) SetName(name string) {
	l.name = name
}

// Source 数据源连接串
func (l *MapLayer) Source() string {
	return l.source
}

// IsValid 数据源是否可用
func (l *MapLayer) IsValid() bool {
	return l.valid
}

// ErrorMessage 数据源不可用时的诊断信息
func (l *MapLayer) ErrorMessage() string {
	return l.errMsg
}

func (l *MapLayer) setValid(valid bool, msg string) {
	l.valid = valid
	l.errMsg = msg
}

func (l *MapLayer) Extent() orb.Bound {
	return l.extent
}

// CRS 坐标系
func (l *MapLayer) CRS() string {
	return l.crs
}

func (l *MapLayer) Metadata() Metadata {
	return l.metadata
}

func (l *MapLayer) SetMetadata(m Metadata) {
	l.metadata = m
}

func (l *MapLayer) Renderer() style.Renderer {
	return l.renderer
}

// SetRenderer 替换渲染器
func (l *MapLayer) SetRenderer(r style.Renderer) {
	l.renderer = r
	l.triggerRepaint()
}

func (l *MapLayer) Labeling() style.Labeling {
	return l.labeling
}

// SetLabeling 替换标注, nil 表示不标注
func (l *MapLayer) SetLabeling(lb style.Labeling) {
	l.labeling = lb
	l.triggerRepaint()
}

// OnRepaint 注册重绘回调
func (l *MapLayer) OnRepaint(f func()) {
	l.repaint = f
}

func (l *MapLayer) triggerRepaint() {
	if l.repaint != nil {
		l.repaint()
	}
}
