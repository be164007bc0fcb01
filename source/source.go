// Package source 解析矢量瓦片数据源连接串
package source

import (
	"context"
	"errors"

	"github.com/paulmach/orb"

	"vtlayer/loader"
	"vtlayer/tile"
)

// 错误分类
var (
	ErrParse             = errors.New("parse error")
	ErrNetwork           = errors.New("network error")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrValidation        = errors.New("validation error")
	ErrUnknownSourceType = errors.New("unknown source type")
	ErrTileNotFound      = errors.New("tile not found")
)

// 默认级别范围
const (
	DefaultMinZoom = 0
	DefaultMaxZoom = 14
)

// 连接串参数
const (
	ParamType        = "type"
	ParamURL         = "url"
	ParamMinZoom     = "zmin"
	ParamMaxZoom     = "zmax"
	ParamServiceType = "serviceType"
	ParamReferer     = "referer"
	ParamAuthCfg     = "authcfg"

	ServiceTypeArcGIS = "arcgis"
)

// Kind 数据源类别
type Kind int

const (
	RemoteXYZ Kind = iota + 1
	ArcGISVectorService
	LocalMBTiles
)

func (k Kind) String() string {
	switch k {
	case RemoteXYZ:
		return "xyz"
	case ArcGISVectorService:
		return "arcgis"
	case LocalMBTiles:
		return "mbtiles"
	}
	return "unknown"
}

// Descriptor 解析后的数据源, 解析完成后不再修改
type Descriptor struct {
	Kind Kind
	// Type 加载器使用的类型, xyz 或 mbtiles
	Type    string
	Path    string
	MinZoom int
	MaxZoom int
	AuthCfg string
	Referer string
	Extent  orb.Bound
	CRS     string
	ArcGIS  *ArcGISServiceConfig
}

// InZoomRange 级别是否在数据源范围内
func (d *Descriptor) InZoomRange(zoom int) bool {
	return zoom >= d.MinZoom && zoom <= d.MaxZoom
}

// Requester 阻塞式网络请求
type Requester interface {
	Get(ctx context.Context, url, authcfg, referer string) ([]byte, error)
}

// Fetcher 瓦片加载器
type Fetcher interface {
	FetchRawTiles(ctx context.Context, sourceType, sourcePath string, m tile.Matrix, r tile.Range, authcfg, referer string) []loader.RawTile
	FetchTile(ctx context.Context, sourceType, sourcePath string, a tile.Address, authcfg, referer string) ([]byte, error)
}

// Archive 只读瓦片库
type Archive interface {
	MetadataValue(key string) string
	Extent() (orb.Bound, bool)
	Close() error
}

// ArchiveOpener 打开瓦片库
type ArchiveOpener func(path string) (Archive, error)

// IsValidTileURLTemplate 校验 URL 模板
func IsValidTileURLTemplate(template string) bool {
	return tile.IsValidTileURLTemplate(template)
}
