package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/encoding/mvt"

	"vtlayer/layer"
	"vtlayer/mbtiles"
	"vtlayer/tile"
)

// Tile 自定义瓦片存储
type Tile struct {
	T tile.Address
	C []byte
}

// decodeTile 解析 MVT, 支持 gzip 压缩数据
func decodeTile(data []byte) (mvt.Layers, error) {
	if mbtiles.IsGzipped(data) {
		return mvt.UnmarshalGzipped(data)
	}
	return mvt.Unmarshal(data)
}

// runTile 获取单个瓦片, 输出图层要素统计并保存
func runTile(l *layer.VectorTileLayer) error {
	a, err := tile.ParseAddress(tileAddress)
	if err != nil {
		return err
	}
	data, err := l.FetchRawTile(SafeExitInst.Context(), a)
	if err != nil {
		return fmt.Errorf("fetch tile %s: %w", a, err)
	}
	log.Infof("tile %s, %.2f kb", a, float32(len(data))/1024.0)

	layers, err := decodeTile(data)
	if err != nil {
		log.Warnf("decode tile %s error, details: %s", a, err)
	} else {
		for _, ly := range layers {
			log.Infof("  layer %s: %d features, extent %d", ly.Name, len(ly.Features), ly.Extent)
		}
	}

	return saveToFiles(Tile{T: a, C: data}, conf.Output.Directory)
}

// runInfo 输出图层摘要与工程文件
func runInfo(l *layer.VectorTileLayer) error {
	dir := conf.Output.Directory
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}
	htmlFile := filepath.Join(dir, l.Name()+".html")
	if err := os.WriteFile(htmlFile, []byte(l.HTMLMetadata()), os.ModePerm); err != nil {
		return err
	}
	doc, err := l.WriteXML()
	if err != nil {
		return err
	}
	xmlFile := filepath.Join(dir, l.Name()+".xml")
	if err := os.WriteFile(xmlFile, doc, os.ModePerm); err != nil {
		return err
	}
	m := l.Metadata()
	log.Infof("layer %s valid %v, title %q, extent %v, crs %s", l.Name(), l.IsValid(), m.Title, l.Extent(), l.CRS())
	log.Infof("summary saved to %s and %s", htmlFile, xmlFile)
	return nil
}
