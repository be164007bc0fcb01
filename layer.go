package main

import (
	"net/http"
	"path/filepath"
	"time"

	"vtlayer/layer"
	"vtlayer/loader"
	"vtlayer/source"
)

// newTileCache 按配置创建瓦片缓存
func newTileCache() loader.TileCache {
	switch conf.Cache.Kind {
	case "lru":
		c, err := loader.NewLRUCache(conf.Cache.Size)
		if err != nil {
			log.Warnf("create lru cache error, details: %s", err)
			return nil
		}
		return c
	case "redis":
		c := loader.NewRedisCache(conf.Cache.RedisAddr, time.Duration(conf.Cache.TTL)*time.Second)
		SafeExitInst.Register(func() { c.Close() })
		return c
	}
	return nil
}

func newLoader() *loader.Loader {
	opts := loader.Options{
		Client:    &http.Client{Timeout: time.Duration(conf.HTTP.Timeout) * time.Second},
		Driver:    conf.MBTiles.Driver,
		UserAgent: conf.HTTP.UserAgent,
		Cache:     newTileCache(),
	}
	if len(conf.Auth) > 0 {
		opts.Auth = loader.NewStaticAuthStore(conf.Auth)
	}
	return loader.New(opts)
}

func projectDir() string {
	dir := conf.Layer.Project
	if dir == "" {
		dir = conf.Output.Directory
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// InitLayer 创建图层并加载默认样式与元数据
func InitLayer() *layer.VectorTileLayer {
	opts := layer.DefaultOptions(newLoader())
	opts.PathResolver = source.ProjectPathResolver{BaseDir: projectDir()}

	ctx := SafeExitInst.Context()
	uri := source.DecodeFromStorage(conf.Layer.Source, opts.PathResolver)
	l := layer.New(ctx, uri, conf.Layer.Name, opts)
	if !l.IsValid() {
		log.Errorf("layer %s is invalid, details: %s", l.Name(), l.ErrorMessage())
		return l
	}
	log.Infof("layer %s: type %s, path %s, zoom %d - %d", l.Name(), l.SourceType(), l.SourcePath(), l.SourceMinZoom(), l.SourceMaxZoom())

	if msg, ok := l.LoadDefaultStyle(ctx); !ok {
		log.Warnf("load default style error, details: %s", msg)
	}
	if msg, ok := l.LoadDefaultMetadata(); !ok {
		log.Warnf("load default metadata error, details: %s", msg)
	}
	return l
}
