package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"vtlayer/mbtiles"
	"vtlayer/tile"
)

func newTileServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/1/0/0.pbf":
			w.Write([]byte("tile-1-0-0"))
		case "/1/1/0.pbf":
			if r.Header.Get("Referer") != "http://ref.example" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.Write([]byte("tile-1-1-0"))
		case "/1/0/1.pbf":
			if u, p, ok := r.BasicAuth(); !ok || u != "cat" || p != "meow" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte("tile-1-0-1"))
		case "/1/1/1.pbf":
			// empty tile
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRawTilesXYZ(t *testing.T) {
	var hits int32
	srv := newTileServer(t, &hits)
	l := New(Options{Auth: NewStaticAuthStore([]Credential{{ID: "a1", Username: "cat", Password: "meow"}})})
	m := tile.FromWebMercator(1)
	template := srv.URL + "/{z}/{x}/{y}.pbf"

	got := l.FetchRawTiles(context.Background(), SourceXYZ, template, m, tile.SingleTile(tile.New(1, 0, 0)), "", "")
	if len(got) != 1 || string(got[0].Data) != "tile-1-0-0" {
		t.Fatalf("unexpected tiles %v", got)
	}

	if got := l.FetchRawTiles(context.Background(), SourceXYZ, template, m, tile.SingleTile(tile.New(1, 1, 0)), "", ""); len(got) != 0 {
		t.Errorf("expected no tile without referer, got %d", len(got))
	}
	if got := l.FetchRawTiles(context.Background(), SourceXYZ, template, m, tile.SingleTile(tile.New(1, 1, 0)), "", "http://ref.example"); len(got) != 1 {
		t.Errorf("expected tile with referer, got %d", len(got))
	}
	if got := l.FetchRawTiles(context.Background(), SourceXYZ, template, m, tile.SingleTile(tile.New(1, 0, 1)), "a1", ""); len(got) != 1 {
		t.Errorf("expected tile with basic auth, got %d", len(got))
	}

	all := l.FetchRawTiles(context.Background(), SourceXYZ, template, m, tile.Range{StartColumn: 0, EndColumn: 1, StartRow: 0, EndRow: 1}, "a1", "")
	if len(all) != 2 {
		t.Errorf("expected 2 tiles (forbidden and empty dropped), got %d", len(all))
	}
}

func TestFetchRawTilesOutOfMatrix(t *testing.T) {
	var hits int32
	srv := newTileServer(t, &hits)
	l := New(Options{})
	m := tile.FromWebMercator(1)
	got := l.FetchRawTiles(context.Background(), SourceXYZ, srv.URL+"/{z}/{x}/{y}.pbf", m, tile.SingleTile(tile.New(1, 5, 5)), "", "")
	if len(got) != 0 {
		t.Errorf("expected no tiles, got %d", len(got))
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Errorf("out of matrix tile should not hit the network")
	}
}

func TestFetchRawTilesCache(t *testing.T) {
	var hits int32
	srv := newTileServer(t, &hits)
	cache, err := NewLRUCache(8)
	if err != nil {
		t.Fatal(err)
	}
	l := New(Options{Cache: cache})
	m := tile.FromWebMercator(1)
	template := srv.URL + "/{z}/{x}/{y}.pbf"
	for i := 0; i < 3; i++ {
		got := l.FetchRawTiles(context.Background(), SourceXYZ, template, m, tile.SingleTile(tile.New(1, 0, 0)), "", "")
		if len(got) != 1 {
			t.Fatalf("round %d: got %d tiles", i, len(got))
		}
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("expected 1 network hit, got %d", n)
	}
	if cache.Len() != 1 {
		t.Errorf("cache len = %d", cache.Len())
	}
}

func TestFetchRawTilesMBTiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.mbtiles")
	db, err := mbtiles.Create(path, map[string]string{"format": "pbf"})
	if err != nil {
		t.Fatal(err)
	}
	if err := mbtiles.InsertTile(db, 3, 2, 1, []byte("raw")); err != nil {
		t.Fatal(err)
	}
	db.Close()

	l := New(Options{})
	m := tile.FromWebMercator(3)
	got := l.FetchRawTiles(context.Background(), SourceMBTiles, path, m, tile.SingleTile(tile.New(3, 2, 1)), "", "")
	if len(got) != 1 || string(got[0].Data) != "raw" {
		t.Fatalf("unexpected tiles %v", got)
	}
	if got := l.FetchRawTiles(context.Background(), SourceMBTiles, path, m, tile.SingleTile(tile.New(3, 2, 2)), "", ""); len(got) != 0 {
		t.Errorf("expected no tile, got %d", len(got))
	}
	if got := l.FetchRawTiles(context.Background(), SourceMBTiles, path+".missing", m, tile.SingleTile(tile.New(3, 2, 1)), "", ""); len(got) != 0 {
		t.Errorf("expected no tile from missing archive")
	}
}

func TestGetStatus(t *testing.T) {
	var hits int32
	srv := newTileServer(t, &hits)
	_, err := New(Options{}).Get(context.Background(), srv.URL+"/nope", "", "")
	if !errors.Is(err, ErrRequest) {
		t.Fatalf("expected ErrRequest, got %v", err)
	}
}

func TestStaticAuthStore(t *testing.T) {
	s := NewStaticAuthStore([]Credential{
		{ID: "tok", Token: "abc"},
		{ID: "hdr", Header: "X-Api-Key", Value: "k"},
	})
	req := httptest.NewRequest(http.MethodGet, "http://x", nil)
	if err := s.UpdateRequest(req, "tok"); err != nil {
		t.Fatal(err)
	}
	if req.Header.Get("Authorization") != "Bearer abc" {
		t.Errorf("Authorization = %q", req.Header.Get("Authorization"))
	}
	if err := s.UpdateRequest(req, "hdr"); err != nil {
		t.Fatal(err)
	}
	if req.Header.Get("X-Api-Key") != "k" {
		t.Errorf("X-Api-Key = %q", req.Header.Get("X-Api-Key"))
	}
	if err := s.UpdateRequest(req, "nope"); !errors.Is(err, ErrUnknownAuthConfig) {
		t.Errorf("expected ErrUnknownAuthConfig, got %v", err)
	}
}

func TestFetchTile(t *testing.T) {
	var hits int32
	srv := newTileServer(t, &hits)
	l := New(Options{})
	template := srv.URL + "/{z}/{x}/{y}.pbf"
	ctx := context.Background()

	data, err := l.FetchTile(ctx, SourceXYZ, template, tile.New(1, 0, 0), "", "")
	if err != nil || string(data) != "tile-1-0-0" {
		t.Fatalf("FetchTile = %q, %v", data, err)
	}
	if _, err := l.FetchTile(ctx, SourceXYZ, template, tile.New(1, 1, 1), "", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty tile: expected ErrNotFound, got %v", err)
	}
	if _, err := l.FetchTile(ctx, SourceXYZ, template, tile.New(2, 0, 0), "", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("404 tile: expected ErrNotFound, got %v", err)
	}
	if _, err := l.FetchTile(ctx, SourceXYZ, template, tile.New(1, 1, 0), "", ""); !errors.Is(err, ErrRequest) {
		t.Errorf("403 tile: expected ErrRequest, got %v", err)
	}
	if _, err := l.FetchTile(ctx, SourceXYZ, template, tile.New(1, 9, 9), "", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("invalid address: expected ErrNotFound, got %v", err)
	}
	if _, err := l.FetchTile(ctx, SourceMBTiles, filepath.Join(t.TempDir(), "x.mbtiles"), tile.New(1, 0, 0), "", ""); !errors.Is(err, ErrRequest) {
		t.Errorf("missing archive: expected ErrRequest, got %v", err)
	}
}
