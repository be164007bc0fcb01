package source

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"vtlayer/loader"
	"vtlayer/tile"
)

// TileSource 可按地址提供原始瓦片的数据源
type TileSource interface {
	Descriptor() *Descriptor
	// FetchRawTile 区分瓦片不存在 (ErrTileNotFound) 与获取失败 (ErrNetwork)
	FetchRawTile(ctx context.Context, a tile.Address) ([]byte, error)
	// RawTile 获取失败或不存在时均返回空
	RawTile(ctx context.Context, a tile.Address) []byte
}

// Source 基于加载器的数据源
type Source struct {
	desc    *Descriptor
	fetcher Fetcher
}

// NewSource 创建数据源
func NewSource(desc *Descriptor, fetcher Fetcher) *Source {
	return &Source{desc: desc, fetcher: fetcher}
}

func (s *Source) Descriptor() *Descriptor {
	return s.desc
}

func (s *Source) FetchRawTile(ctx context.Context, a tile.Address) ([]byte, error) {
	if !a.Valid() || !s.desc.InZoomRange(a.Zoom) {
		return nil, fmt.Errorf("%w: %s outside zoom range %d - %d", ErrTileNotFound, a, s.desc.MinZoom, s.desc.MaxZoom)
	}
	data, err := s.fetcher.FetchTile(ctx, s.desc.Type, s.desc.Path, a, s.desc.AuthCfg, s.desc.Referer)
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, loader.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", ErrTileNotFound, err)
	default:
		return nil, fmt.Errorf("%w: %s", ErrNetwork, err)
	}
}

func (s *Source) RawTile(ctx context.Context, a tile.Address) []byte {
	if !a.Valid() || !s.desc.InZoomRange(a.Zoom) {
		log.Debugf("tile %s outside zoom range %d - %d", a, s.desc.MinZoom, s.desc.MaxZoom)
		return []byte{}
	}
	m := tile.FromWebMercator(a.Zoom)
	tiles := s.fetcher.FetchRawTiles(ctx, s.desc.Type, s.desc.Path, m, tile.SingleTile(a), s.desc.AuthCfg, s.desc.Referer)
	if len(tiles) == 0 {
		return []byte{}
	}
	return tiles[0].Data
}
