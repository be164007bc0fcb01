package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"vtlayer/tile"
)

func saveToFiles(t Tile, rootdir string) error {
	dir := filepath.Join(rootdir, fmt.Sprintf(`%d`, t.T.Zoom), fmt.Sprintf(`%d`, t.T.Column))
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}
	fileName := filepath.Join(dir, fmt.Sprintf(`%d.%s`, t.T.Row, tile.PBF))
	return os.WriteFile(fileName, t.C, os.ModePerm)
}

func loadCollection(path string) (orb.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read file: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("unable to unmarshal feature: %w", err)
	}

	var collection orb.Collection
	for _, f := range fc.Features {
		collection = append(collection, f.Geometry)
	}

	return collection, nil
}

// prefetchBound 预取范围 (EPSG:3857), 未配置 GeoJSON 时取图层范围
func prefetchBound(path string, layerExtent orb.Bound) (orb.Bound, error) {
	if path == "" {
		return layerExtent, nil
	}
	c, err := loadCollection(path)
	if err != nil {
		return orb.Bound{}, err
	}
	if len(c) == 0 {
		return orb.Bound{}, fmt.Errorf("no features in %s", path)
	}
	return tile.WGS84BoundToMercator(c.Bound()), nil
}
