// Package server 提供图层瓦片 HTTP 服务
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"

	"vtlayer/mbtiles"
	"vtlayer/source"
	"vtlayer/tile"
)

// MVTContentType 矢量瓦片 MIME
const MVTContentType = "application/vnd.mapbox-vector-tile"

// Layer 可发布的图层
type Layer interface {
	Name() string
	IsValid() bool
	SourceType() string
	SourcePath() string
	SourceMinZoom() int
	SourceMaxZoom() int
	Extent() orb.Bound
	CRS() string
	FetchRawTile(ctx context.Context, a tile.Address) ([]byte, error)
	HTMLMetadata() string
}

// Server 瓦片服务
type Server struct {
	layer  Layer
	engine *gin.Engine
}

// New 创建服务并注册路由
func New(l Layer) *Server {
	s := &Server{layer: l, engine: gin.New()}
	s.engine.Use(gin.Recovery(), accessLog())
	s.engine.GET("/tiles/:z/:x/:y", s.getTile)
	s.engine.GET("/metadata", s.getMetadata)
	s.engine.GET("/layer", s.getLayer)
	return s
}

// Handler HTTP 处理器
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run 监听 addr 直到 ctx 结束
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("serving layer %s on %s", s.layer.Name(), addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugf("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) getTile(c *gin.Context) {
	y := strings.TrimSuffix(c.Param("y"), ".pbf")
	a, err := tile.ParseAddress(c.Param("z") + "/" + c.Param("x") + "/" + y)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := s.layer.FetchRawTile(c.Request.Context(), a)
	switch {
	case errors.Is(err, source.ErrTileNotFound):
		c.Status(http.StatusNoContent)
		return
	case err != nil:
		log.Warnf("fetch tile %s error, details: %s", a, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if mbtiles.IsGzipped(data) {
		c.Header("Content-Encoding", "gzip")
	}
	c.Data(http.StatusOK, MVTContentType, data)
}

func (s *Server) getMetadata(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(s.layer.HTMLMetadata()))
}

func (s *Server) getLayer(c *gin.Context) {
	e := s.layer.Extent()
	c.JSON(http.StatusOK, gin.H{
		"name":    s.layer.Name(),
		"valid":   s.layer.IsValid(),
		"type":    s.layer.SourceType(),
		"path":    s.layer.SourcePath(),
		"minzoom": s.layer.SourceMinZoom(),
		"maxzoom": s.layer.SourceMaxZoom(),
		"crs":     s.layer.CRS(),
		"extent":  []float64{e.Min.X(), e.Min.Y(), e.Max.X(), e.Max.Y()},
	})
}
