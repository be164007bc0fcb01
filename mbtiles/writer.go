package mbtiles

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"fmt"
)

// Create 创建瓦片库并写入元数据, 用于导出与测试
func Create(path string, metadata map[string]string) (*sql.DB, error) {
	db, err := sql.Open(DefaultDriver, path)
	if err != nil {
		return nil, err
	}
	stmts := []string{
		"create table if not exists tiles (zoom_level integer, tile_column integer, tile_row integer, tile_data blob);",
		"create table if not exists metadata (name text, value text);",
		"create unique index if not exists name on metadata (name);",
		"create unique index if not exists tile_index on tiles(zoom_level, tile_column, tile_row);",
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			db.Close()
			return nil, err
		}
	}
	for name, value := range metadata {
		if _, err := db.Exec("insert or replace into metadata (name, value) values (?, ?)", name, value); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// InsertTile 写入 XYZ 行号的瓦片, 未压缩的数据按 gzip 压缩保存
func InsertTile(db *sql.DB, z, x, y int, data []byte) error {
	if !IsGzipped(data) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	tmsY := (1 << uint(z)) - 1 - y
	_, err := db.Exec("insert or ignore into tiles (zoom_level, tile_column, tile_row, tile_data) values (?, ?, ?, ?);", z, x, tmsY, data)
	if err != nil {
		return fmt.Errorf("insert tile %d/%d/%d: %w", z, x, y, err)
	}
	return nil
}
