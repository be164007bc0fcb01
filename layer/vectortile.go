package layer

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"

	"vtlayer/dsuri"
	"vtlayer/loader"
	"vtlayer/source"
	"vtlayer/style"
	"vtlayer/tile"
)

// VectorTileType 矢量瓦片图层类型
const VectorTileType = "vector-tile"

// PixelToMillimeter 96 DPI 下像素换算毫米
const PixelToMillimeter = 25.4 / 96.0

var (
	// ErrInvalidLayer 图层数据源不可用
	ErrInvalidLayer = errors.New("invalid layer")
	// ErrMissingRenderer 缺少 renderer 节点
	ErrMissingRenderer = errors.New("missing <renderer> tag")
)

// Options 图层依赖
type Options struct {
	Requester    source.Requester
	Fetcher      source.Fetcher
	Opener       source.ArchiveOpener
	Converter    style.Converter
	PathResolver source.PathResolver
}

// DefaultOptions 以加载器作为请求与瓦片获取实现
func DefaultOptions(l *loader.Loader) Options {
	return Options{
		Requester:    l,
		Fetcher:      l,
		Opener:       source.MBTilesOpener(l.Driver()),
		Converter:    style.MapBoxGLConverter{},
		PathResolver: source.ProjectPathResolver{},
	}
}

// VectorTileLayer 矢量瓦片图层
type VectorTileLayer struct {
	*MapLayer
	opts       Options
	src        source.TileSource
	sourceType string
	sourcePath string
}

// New 解析数据源并创建图层, 解析失败时图层不可用
func New(ctx context.Context, uri, name string, opts Options) *VectorTileLayer {
	if opts.Converter == nil {
		opts.Converter = style.MapBoxGLConverter{}
	}
	if opts.PathResolver == nil {
		opts.PathResolver = source.ProjectPathResolver{}
	}
	l := &VectorTileLayer{
		MapLayer: newMapLayer(VectorTileType, uri, name),
		opts:     opts,
	}
	l.loadDataSource(ctx)
	l.renderer = style.NewBasicRenderer(style.SimpleStyleWithRandomColors())
	return l
}

func (l *VectorTileLayer) loadDataSource(ctx context.Context) {
	l.src = nil
	l.sourceType, l.sourcePath = "", ""
	if uri, err := dsuri.Parse(l.source); err == nil {
		l.sourceType = uri.Param(source.ParamType)
		l.sourcePath = uri.Param(source.ParamURL)
	}
	resolver := source.NewResolver(l.opts.Requester, l.opts.Opener)
	desc, err := resolver.Resolve(ctx, l.source)
	if err != nil {
		log.Debugf("layer %s data source error, details: %s", l.name, err)
		l.extent = orb.Bound{}
		l.crs = ""
		l.setValid(false, err.Error())
		return
	}
	l.src = source.NewSource(desc, l.opts.Fetcher)
	l.sourceType = desc.Type
	l.sourcePath = desc.Path
	l.extent = desc.Extent
	l.crs = desc.CRS
	l.setValid(true, "")
}

// Descriptor 解析结果, 图层不可用时为 nil
func (l *VectorTileLayer) Descriptor() *source.Descriptor {
	if l.src == nil {
		return nil
	}
	return l.src.Descriptor()
}

// SourceType 加载器类型 xyz 或 mbtiles
func (l *VectorTileLayer) SourceType() string {
	return l.sourceType
}

// SourcePath URL 模板或文件路径
func (l *VectorTileLayer) SourcePath() string {
	return l.sourcePath
}

func (l *VectorTileLayer) SourceMinZoom() int {
	if d := l.Descriptor(); d != nil {
		return d.MinZoom
	}
	return source.DefaultMinZoom
}

func (l *VectorTileLayer) SourceMaxZoom() int {
	if d := l.Descriptor(); d != nil {
		return d.MaxZoom
	}
	return source.DefaultMaxZoom
}

// GetRawTile 获取原始瓦片, 失败或不存在时返回空
func (l *VectorTileLayer) GetRawTile(ctx context.Context, a tile.Address) []byte {
	if l.src == nil {
		return []byte{}
	}
	return l.src.RawTile(ctx, a)
}

// FetchRawTile 获取原始瓦片并返回失败原因
func (l *VectorTileLayer) FetchRawTile(ctx context.Context, a tile.Address) ([]byte, error) {
	if l.src == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLayer, l.errMsg)
	}
	return l.src.FetchRawTile(ctx, a)
}

// Clone 复制图层, 共享已解析的数据源
func (l *VectorTileLayer) Clone() *VectorTileLayer {
	c := &VectorTileLayer{
		MapLayer:   newMapLayer(VectorTileType, l.source, l.name),
		opts:       l.opts,
		src:        l.src,
		sourceType: l.sourceType,
		sourcePath: l.sourcePath,
	}
	c.valid, c.errMsg = l.valid, l.errMsg
	c.extent, c.crs = l.extent, l.crs
	c.metadata = l.metadata
	if l.renderer != nil {
		c.renderer = l.renderer.Clone()
	}
	if l.labeling != nil {
		c.labeling = l.labeling.Clone()
	}
	return c
}

// LoadDefaultStyle 加载服务默认样式, 返回错误信息与是否成功
func (l *VectorTileLayer) LoadDefaultStyle(ctx context.Context) (string, bool) {
	d := l.Descriptor()
	if d == nil || d.Kind != source.ArcGISVectorService || d.ArcGIS == nil {
		return "", true
	}
	raw, err := l.opts.Requester.Get(ctx, d.ArcGIS.DefaultStyleURL(), d.AuthCfg, d.Referer)
	if err != nil {
		log.Debugf("load default style error, details: %s", err)
		return "Error retrieving default style", false
	}
	cc := &style.ConversionContext{
		TargetUnit:                style.UnitMillimeters,
		PixelSizeConversionFactor: PixelToMillimeter,
	}
	r, lb, err := l.opts.Converter.Convert(raw, cc)
	if err != nil {
		return err.Error(), false
	}
	for _, w := range cc.Warnings {
		log.Debugf("style conversion warning: %s", w)
	}
	l.SetRenderer(r)
	l.SetLabeling(lb)
	return "", true
}

// LoadDefaultMetadata 从服务文档填充元数据
func (l *VectorTileLayer) LoadDefaultMetadata() (string, bool) {
	d := l.Descriptor()
	if d == nil || d.Kind != source.ArcGISVectorService || d.ArcGIS == nil {
		return "", true
	}
	cfg := d.ArcGIS
	m := Metadata{
		Identifier:       cfg.ServiceURI(),
		ParentIdentifier: cfg.ServiceItemID(),
		Type:             "dataset",
		Title:            cfg.Name(),
		Extent:           d.Extent,
		CRS:              d.CRS,
	}
	if rights := cfg.CopyrightText(); rights != "" {
		m.Rights = []string{rights}
	}
	m.AddLink(Link{Name: "Source", Type: "WWW:LINK", URL: cfg.ServiceURI()})
	l.metadata = m
	return "", true
}

// EncodedSource 转换为存储形式
func (l *VectorTileLayer) EncodedSource(raw string) string {
	return source.EncodeForStorage(raw, l.opts.PathResolver)
}

// DecodedSource 从存储形式还原
func (l *VectorTileLayer) DecodedSource(raw string) string {
	return source.DecodeFromStorage(raw, l.opts.PathResolver)
}
