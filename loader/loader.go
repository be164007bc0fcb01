// Package loader 按瓦片区间阻塞式获取原始瓦片数据
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"vtlayer/mbtiles"
	"vtlayer/tile"
)

// 数据源类型
const (
	SourceXYZ     = "xyz"
	SourceMBTiles = "mbtiles"
)

// ErrRequest 网络请求失败, 包括超时与服务端错误
var ErrRequest = errors.New("request failed")

// ErrNotFound 瓦片不存在或为空
var ErrNotFound = errors.New("tile not found")

// StatusError 非 200 响应
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s status code: %d", ErrRequest, e.URL, e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrRequest
}

// RawTile 原始瓦片
type RawTile struct {
	Address tile.Address
	Data    []byte
}

// Options 加载器配置
type Options struct {
	Client    *http.Client
	Auth      AuthStore
	Cache     TileCache
	Driver    string
	UserAgent string
}

// Loader 瓦片加载器
type Loader struct {
	client    *http.Client
	auth      AuthStore
	cache     TileCache
	driver    string
	userAgent string
}

// New 创建加载器
func New(opts Options) *Loader {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{
		client:    client,
		auth:      opts.Auth,
		cache:     opts.Cache,
		driver:    opts.Driver,
		userAgent: opts.UserAgent,
	}
}

// Driver MBTiles sqlite 驱动名
func (l *Loader) Driver() string {
	return l.driver
}

// Get 阻塞式 GET 请求, 非 200 视为失败
func (l *Loader) Get(ctx context.Context, url, authcfg, referer string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRequest, err)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}
	if authcfg != "" && l.auth != nil {
		if err := l.auth.UpdateRequest(req, authcfg); err != nil {
			log.Warnf("apply auth config to %s error, details: %s", url, err)
		}
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRequest, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %s", ErrRequest, url, err)
	}
	return body, nil
}

// FetchRawTiles 获取区间内的瓦片, 失败或空瓦片不出现在结果中
func (l *Loader) FetchRawTiles(ctx context.Context, sourceType, sourcePath string, m tile.Matrix, r tile.Range, authcfg, referer string) []RawTile {
	r = m.Clamp(r)
	if !r.IsValid() {
		return nil
	}
	switch sourceType {
	case SourceXYZ:
		return l.fetchXYZ(ctx, sourcePath, m, r, authcfg, referer)
	case SourceMBTiles:
		return l.fetchMBTiles(sourcePath, m, r)
	default:
		log.Debugf("unknown tile source type: %s", sourceType)
		return nil
	}
}

func (l *Loader) fetchXYZ(ctx context.Context, template string, m tile.Matrix, r tile.Range, authcfg, referer string) []RawTile {
	var tiles []RawTile
	for _, a := range r.Addresses(m.Zoom) {
		key := template + "|" + a.String()
		if data, ok := l.cached(key); ok {
			tiles = append(tiles, RawTile{Address: a, Data: data})
			continue
		}
		start := time.Now()
		url := tile.FormatTileURL(template, a)
		body, err := l.Get(ctx, url, authcfg, referer)
		if err != nil {
			log.Debugf("fetch %s tile error, details: %s ~", a, err)
			continue
		}
		if len(body) == 0 {
			log.Debugf("nil tile %s ~", a)
			continue
		}
		l.store(key, body)
		tiles = append(tiles, RawTile{Address: a, Data: body})
		log.Debugf("tile(z:%d, x:%d, y:%d), %dms , %.2f kb, %s ...", a.Zoom, a.Column, a.Row,
			time.Since(start).Milliseconds(), float32(len(body))/1024.0, url)
	}
	return tiles
}

func (l *Loader) fetchMBTiles(path string, m tile.Matrix, r tile.Range) []RawTile {
	reader, err := mbtiles.Open(path, l.driver)
	if err != nil {
		log.Debugf("failed to open MBTiles file: %s, details: %s", path, err)
		return nil
	}
	defer reader.Close()

	var tiles []RawTile
	for _, a := range r.Addresses(m.Zoom) {
		data, err := reader.TileData(a.Zoom, a.Column, a.Row)
		if err != nil {
			log.Debugf("read %s tile error ~ %s", a, err)
			continue
		}
		if len(data) == 0 {
			continue
		}
		if mbtiles.IsGzipped(data) {
			raw, err := mbtiles.DecompressGzip(data)
			if err != nil {
				log.Debugf("failed to decompress tile %s ~ %s", a, err)
				continue
			}
			data = raw
		}
		tiles = append(tiles, RawTile{Address: a, Data: data})
	}
	return tiles
}

func (l *Loader) cached(key string) ([]byte, bool) {
	if l.cache == nil {
		return nil, false
	}
	return l.cache.Get(key)
}

func (l *Loader) store(key string, data []byte) {
	if l.cache != nil {
		l.cache.Set(key, data)
	}
}

// FetchTile 获取单个瓦片, 区分不存在 (ErrNotFound) 与请求失败 (ErrRequest)
func (l *Loader) FetchTile(ctx context.Context, sourceType, sourcePath string, a tile.Address, authcfg, referer string) ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %s out of pyramid", ErrNotFound, a)
	}
	switch sourceType {
	case SourceXYZ:
		key := sourcePath + "|" + a.String()
		if data, ok := l.cached(key); ok {
			return data, nil
		}
		body, err := l.Get(ctx, tile.FormatTileURL(sourcePath, a), authcfg, referer)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) && (se.Code == http.StatusNotFound || se.Code == http.StatusNoContent) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, a)
			}
			return nil, err
		}
		if len(body) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, a)
		}
		l.store(key, body)
		return body, nil
	case SourceMBTiles:
		reader, err := mbtiles.Open(sourcePath, l.driver)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrRequest, err)
		}
		defer reader.Close()
		data, err := reader.TileData(a.Zoom, a.Column, a.Row)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrRequest, err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, a)
		}
		if mbtiles.IsGzipped(data) {
			if data, err = mbtiles.DecompressGzip(data); err != nil {
				return nil, fmt.Errorf("%w: decompress %s: %s", ErrRequest, a, err)
			}
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: unknown tile source type %s", ErrRequest, sourceType)
}
