package source

import (
	"context"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"vtlayer/dsuri"
	"vtlayer/loader"
	"vtlayer/mbtiles"
	"vtlayer/tile"
)

// Resolver 数据源解析器
type Resolver struct {
	requester Requester
	open      ArchiveOpener
}

// NewResolver 创建解析器, open 为空时使用 mbtiles 默认驱动
func NewResolver(requester Requester, open ArchiveOpener) *Resolver {
	if open == nil {
		open = MBTilesOpener(mbtiles.DefaultDriver)
	}
	return &Resolver{requester: requester, open: open}
}

// MBTilesOpener 以指定驱动打开 MBTiles
func MBTilesOpener(driver string) ArchiveOpener {
	return func(path string) (Archive, error) {
		r, err := mbtiles.Open(path, driver)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// Resolve 解析连接串
func (r *Resolver) Resolve(ctx context.Context, connection string) (*Descriptor, error) {
	uri, err := dsuri.Parse(connection)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrParse, err)
	}

	d := &Descriptor{
		Type:    uri.Param(ParamType),
		Path:    uri.Param(ParamURL),
		MinZoom: DefaultMinZoom,
		MaxZoom: DefaultMaxZoom,
		AuthCfg: uri.AuthConfigID(),
		Referer: uri.Param(ParamReferer),
	}

	switch {
	case d.Type == loader.SourceXYZ && uri.Param(ParamServiceType) == ServiceTypeArcGIS:
		err = r.resolveArcGIS(ctx, d)
	case d.Type == loader.SourceXYZ:
		err = resolveXYZ(uri, d)
	case d.Type == loader.SourceMBTiles:
		err = r.resolveMBTiles(d)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownSourceType, d.Type)
	}
	if err != nil {
		log.Debugf("resolve vector tile source error, details: %s", err)
		return nil, err
	}
	if d.MinZoom > d.MaxZoom {
		return nil, fmt.Errorf("%w: zoom range %d - %d", ErrValidation, d.MinZoom, d.MaxZoom)
	}

	d.CRS = tile.CRS
	log.Debugf("source %s %s zoom range: %d - %d", d.Kind, d.Path, d.MinZoom, d.MaxZoom)
	return d, nil
}

func resolveXYZ(uri *dsuri.URI, d *Descriptor) error {
	if !tile.IsValidTileURLTemplate(d.Path) {
		return fmt.Errorf("%w: invalid format of URL for XYZ source: %s", ErrValidation, d.Path)
	}
	d.Kind = RemoteXYZ
	for key, dst := range map[string]*int{ParamMinZoom: &d.MinZoom, ParamMaxZoom: &d.MaxZoom} {
		if !uri.HasParam(key) {
			continue
		}
		v, err := strconv.Atoi(uri.Param(key))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrParse, key, uri.Param(key))
		}
		*dst = v
	}
	if d.MinZoom < tile.ZoomMin || d.MaxZoom > tile.ZoomMax {
		return fmt.Errorf("%w: zoom range %d - %d", ErrValidation, d.MinZoom, d.MaxZoom)
	}
	d.Extent = tile.WorldBound()
	return nil
}

func (r *Resolver) resolveArcGIS(ctx context.Context, d *Descriptor) error {
	if r.requester == nil {
		return fmt.Errorf("%w: no network requester", ErrNetwork)
	}
	serviceURI := d.Path
	raw, err := r.requester.Get(ctx, serviceURI, d.AuthCfg, d.Referer)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNetwork, err)
	}
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return fmt.Errorf("%w: service description of %s is not a JSON object", ErrParse, serviceURI)
	}
	cfg := newArcGISServiceConfig(raw, serviceURI)
	if cfg.Value("error").Exists() {
		return fmt.Errorf("%w: service %s returned error: %s", ErrNetwork, serviceURI, cfg.Value("error").Raw)
	}

	var first string
	if tiles := cfg.Tiles(); len(tiles) > 0 {
		first = tiles[0]
	}
	d.Path = serviceURI + "/" + first
	if !tile.IsValidTileURLTemplate(d.Path) {
		return fmt.Errorf("%w: invalid format of URL for XYZ source: %s", ErrValidation, d.Path)
	}

	d.Kind = ArcGISVectorService
	d.MinZoom = 0
	d.MaxZoom = cfg.MaxZoom()
	d.Extent = tile.WorldBound()
	d.ArcGIS = cfg
	return nil
}

func (r *Resolver) resolveMBTiles(d *Descriptor) error {
	reader, err := r.open(d.Path)
	if err != nil {
		return fmt.Errorf("%w: failed to open MBTiles file: %s: %w", ErrUnsupportedFormat, d.Path, err)
	}
	defer reader.Close()

	if format := reader.MetadataValue("format"); format != tile.PBF {
		return fmt.Errorf("%w: cannot open MBTiles for vector tiles. Format = %s", ErrUnsupportedFormat, format)
	}
	log.Debugf("mbtiles name: %s", reader.MetadataValue("name"))

	if v, err := strconv.Atoi(reader.MetadataValue("minzoom")); err == nil {
		d.MinZoom = v
	}
	if v, err := strconv.Atoi(reader.MetadataValue("maxzoom")); err == nil {
		d.MaxZoom = v
	}

	d.Kind = LocalMBTiles
	if b, ok := reader.Extent(); ok {
		d.Extent = tile.WGS84BoundToMercator(b)
	} else {
		d.Extent = tile.WorldBound()
	}
	return nil
}
