// Package mbtiles 读取 MBTiles 瓦片库
package mbtiles

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/shaxbee/go-spatialite"
)

// DefaultDriver 默认 sqlite 驱动
const DefaultDriver = "sqlite3"

// SpatialiteDriver 带 spatialite 扩展的驱动
const SpatialiteDriver = "spatialite"

// ErrOpen 瓦片库无法打开
var ErrOpen = errors.New("cannot open mbtiles")

// Reader 只读的 MBTiles 瓦片库
type Reader struct {
	path string
	db   *sql.DB
	stmt *sql.Stmt
}

// Open 以只读方式打开瓦片库
func Open(path, driver string) (*Reader, error) {
	if driver == "" {
		driver = DefaultDriver
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOpen, err)
	}
	db, err := sql.Open(driver, fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOpen, err)
	}
	var n int
	err = db.QueryRow("select count(*) from sqlite_master where type = 'table' and name = 'metadata'").Scan(&n)
	if err != nil || n == 0 {
		db.Close()
		if err == nil {
			err = errors.New("no metadata table")
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrOpen, path, err)
	}
	stmt, err := db.Prepare("select tile_data from tiles where zoom_level = ? and tile_column = ? and tile_row = ?")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s", ErrOpen, err)
	}
	return &Reader{path: path, db: db, stmt: stmt}, nil
}

// Path 文件路径
func (r *Reader) Path() string {
	return r.path
}

// Close 释放数据库连接
func (r *Reader) Close() error {
	return errors.Join(r.stmt.Close(), r.db.Close())
}

// MetadataValue 元数据值, 不存在时为空
func (r *Reader) MetadataValue(key string) string {
	var value string
	err := r.db.QueryRow("select value from metadata where name = ?", key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Debugf("read mbtiles metadata %s error, details: %s", key, err)
		}
		return ""
	}
	return value
}

// Metadata 全部元数据
func (r *Reader) Metadata() (map[string]string, error) {
	rows, err := r.db.Query("select name, value from metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metadata[name] = value
	}
	return metadata, rows.Err()
}

// Extent 元数据中 bounds 声明的经纬度范围
func (r *Reader) Extent() (orb.Bound, bool) {
	return ParseBounds(r.MetadataValue("bounds"))
}

// ParseBounds 解析 w,s,e,n
func ParseBounds(s string) (orb.Bound, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, false
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, false
		}
		v[i] = f
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, true
}

// TileData 读取 XYZ 行号的瓦片, 不存在时返回 nil
func (r *Reader) TileData(z, x, y int) ([]byte, error) {
	tmsY := (1 << uint(z)) - 1 - y
	var data []byte
	if err := r.stmt.QueryRow(z, x, tmsY).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// IsGzipped 是否为 gzip 压缩数据
func IsGzipped(data []byte) bool {
	return len(data) > 2 && data[0] == 0x1f && data[1] == 0x8b
}

// DecompressGzip 解压 gzip 数据
func DecompressGzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
