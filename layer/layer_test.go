package layer

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"vtlayer/loader"
	"vtlayer/mbtiles"
	"vtlayer/source"
	"vtlayer/style"
	"vtlayer/tile"
)

const serviceDoc = `{
  "name": "Basemap",
  "copyrightText": "Esri",
  "serviceItemId": "item-1",
  "defaultStyles": "resources/styles",
  "maxzoom": 5,
  "tiles": ["tile/{z}/{y}/{x}.pbf"]
}`

const styleDoc = `{
  "version": 8,
  "layers": [
    {"id": "water", "type": "fill", "source-layer": "water", "paint": {"fill-color": "#0000ff"}},
    {"id": "places", "type": "symbol", "source-layer": "place", "layout": {"text-field": "{name}"}}
  ]
}`

func newArcGISServer(t *testing.T, serveStyle bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/arcgis", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(serviceDoc))
	})
	mux.HandleFunc("/arcgis/resources/styles", func(w http.ResponseWriter, r *http.Request) {
		if !serveStyle {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(styleDoc))
	})
	mux.HandleFunc("/arcgis/tile/1/0/1.pbf", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tile-1-1-0"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func arcgisURI(srv *httptest.Server) string {
	return "serviceType=arcgis&type=xyz&url=" + url.QueryEscape(srv.URL+"/arcgis")
}

func newOptions() Options {
	return DefaultOptions(loader.New(loader.Options{}))
}

func TestArcGISLayer(t *testing.T) {
	srv := newArcGISServer(t, true)
	ctx := context.Background()
	l := New(ctx, arcgisURI(srv), "basemap", newOptions())
	if !l.IsValid() {
		t.Fatalf("layer invalid: %s", l.ErrorMessage())
	}
	if l.Type() != VectorTileType {
		t.Errorf("type = %s", l.Type())
	}
	if !strings.HasPrefix(l.ID(), "basemap_") {
		t.Errorf("id = %s", l.ID())
	}
	if l.SourceType() != "xyz" || l.SourcePath() != srv.URL+"/arcgis/tile/{z}/{y}/{x}.pbf" {
		t.Errorf("source = %s %s", l.SourceType(), l.SourcePath())
	}
	if l.SourceMinZoom() != 0 || l.SourceMaxZoom() != 5 {
		t.Errorf("zoom = %d - %d", l.SourceMinZoom(), l.SourceMaxZoom())
	}
	if l.CRS() != tile.CRS || l.Extent() != tile.WorldBound() {
		t.Errorf("extent = %v %s", l.Extent(), l.CRS())
	}
	if r, ok := l.Renderer().(*style.BasicRenderer); !ok || len(r.Styles()) != 3 {
		t.Errorf("default renderer = %#v", l.Renderer())
	}

	if got := string(l.GetRawTile(ctx, tile.New(1, 1, 0))); got != "tile-1-1-0" {
		t.Errorf("GetRawTile = %q", got)
	}
	if got := l.GetRawTile(ctx, tile.New(6, 0, 0)); got == nil || len(got) != 0 {
		t.Errorf("out of zoom range should be empty, got %v", got)
	}
	if got := l.GetRawTile(ctx, tile.New(1, 0, 0)); len(got) != 0 {
		t.Errorf("missing tile should be empty, got %q", got)
	}
	if _, err := l.FetchRawTile(ctx, tile.New(1, 0, 0)); !errors.Is(err, source.ErrTileNotFound) {
		t.Errorf("FetchRawTile missing: %v", err)
	}
}

func TestLoadDefaultStyle(t *testing.T) {
	srv := newArcGISServer(t, true)
	l := New(context.Background(), arcgisURI(srv), "basemap", newOptions())
	repaints := 0
	l.OnRepaint(func() { repaints++ })

	msg, ok := l.LoadDefaultStyle(context.Background())
	if !ok {
		t.Fatalf("LoadDefaultStyle failed: %s", msg)
	}
	if repaints != 2 {
		t.Errorf("repaints = %d", repaints)
	}
	r := l.Renderer().(*style.BasicRenderer)
	if s := r.Styles(); len(s) != 1 || s[0].Color != "#0000ff" || s[0].Layer != "water" {
		t.Errorf("renderer styles = %+v", s)
	}
	lb := l.Labeling().(*style.BasicLabeling)
	s := lb.Styles()
	if len(s) != 1 || s[0].Field != "name" {
		t.Fatalf("labels = %+v", s)
	}
	if math.Abs(s[0].Size-16*PixelToMillimeter) > 1e-9 {
		t.Errorf("label size = %f", s[0].Size)
	}
}

func TestLoadDefaultStyleError(t *testing.T) {
	srv := newArcGISServer(t, false)
	l := New(context.Background(), arcgisURI(srv), "basemap", newOptions())
	before := l.Renderer()
	msg, ok := l.LoadDefaultStyle(context.Background())
	if ok || msg != "Error retrieving default style" {
		t.Errorf("LoadDefaultStyle = %q %v", msg, ok)
	}
	if l.Renderer() != before {
		t.Errorf("renderer replaced on failure")
	}
}

func TestLoadDefaultMetadata(t *testing.T) {
	srv := newArcGISServer(t, true)
	l := New(context.Background(), arcgisURI(srv), "basemap", newOptions())
	if _, ok := l.LoadDefaultMetadata(); !ok {
		t.Fatal("LoadDefaultMetadata failed")
	}
	m := l.Metadata()
	uri := srv.URL + "/arcgis"
	if m.Identifier != uri || m.ParentIdentifier != "item-1" || m.Type != "dataset" || m.Title != "Basemap" {
		t.Errorf("metadata = %+v", m)
	}
	if len(m.Rights) != 1 || m.Rights[0] != "Esri" {
		t.Errorf("rights = %v", m.Rights)
	}
	if len(m.Links) != 1 || m.Links[0] != (Link{Name: "Source", Type: "WWW:LINK", URL: uri}) {
		t.Errorf("links = %+v", m.Links)
	}

	l.SetMetadata(Metadata{Rights: []string{"stale"}, History: []string{"edited"}})
	if _, ok := l.LoadDefaultMetadata(); !ok {
		t.Fatal("second LoadDefaultMetadata failed")
	}
	again := l.Metadata()
	if len(again.Links) != 1 || len(again.Rights) != 1 || again.Rights[0] != "Esri" || len(again.History) != 0 {
		t.Errorf("metadata after reload = %+v", again)
	}

	html := l.HTMLMetadata()
	for _, want := range []string{"Information from provider", "basemap", "0 - 5", "Identification", "References", "History", "item-1"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestInvalidLayer(t *testing.T) {
	l := New(context.Background(), "type=xyz&url=bad", "broken", newOptions())
	if l.IsValid() || l.ErrorMessage() == "" {
		t.Fatalf("expected invalid layer, got %v %q", l.IsValid(), l.ErrorMessage())
	}
	if l.Renderer() == nil {
		t.Error("default renderer missing")
	}
	if got := l.GetRawTile(context.Background(), tile.New(0, 0, 0)); got == nil || len(got) != 0 {
		t.Errorf("GetRawTile = %v", got)
	}
	if _, err := l.FetchRawTile(context.Background(), tile.New(0, 0, 0)); !errors.Is(err, ErrInvalidLayer) {
		t.Errorf("FetchRawTile = %v", err)
	}
	if l.SourceType() != "xyz" || l.SourcePath() != "bad" {
		t.Errorf("source = %s %s", l.SourceType(), l.SourcePath())
	}
	if msg, ok := l.LoadDefaultStyle(context.Background()); !ok || msg != "" {
		t.Errorf("LoadDefaultStyle = %q %v", msg, ok)
	}
	if !strings.Contains(l.HTMLMetadata(), "Error") {
		t.Error("html should carry the error")
	}
}

func newMBTilesLayer(t *testing.T) (*VectorTileLayer, string, Options) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.mbtiles")
	db, err := mbtiles.Create(path, map[string]string{"format": "pbf", "minzoom": "0", "maxzoom": "4"})
	if err != nil {
		t.Fatal(err)
	}
	if err := mbtiles.InsertTile(db, 2, 1, 0, []byte("tile-2-1-0")); err != nil {
		t.Fatal(err)
	}
	db.Close()

	opts := newOptions()
	opts.PathResolver = source.ProjectPathResolver{BaseDir: dir}
	uri := "type=mbtiles&url=" + url.QueryEscape(path)
	return New(context.Background(), uri, "local", opts), uri, opts
}

func TestMBTilesLayer(t *testing.T) {
	l, _, _ := newMBTilesLayer(t)
	if !l.IsValid() {
		t.Fatalf("layer invalid: %s", l.ErrorMessage())
	}
	if l.SourceMaxZoom() != 4 {
		t.Errorf("max zoom = %d", l.SourceMaxZoom())
	}
	if got := string(l.GetRawTile(context.Background(), tile.New(2, 1, 0))); got != "tile-2-1-0" {
		t.Errorf("GetRawTile = %q", got)
	}
}

func TestXMLRoundTrip(t *testing.T) {
	l, uri, opts := newMBTilesLayer(t)
	l.SetLabeling(style.NewBasicLabeling([]style.LabelStyle{{Name: "places", Layer: "place", Enabled: true, MinZoom: -1, MaxZoom: -1, Field: "name"}}))

	data, err := l.WriteXML()
	if err != nil {
		t.Fatal(err)
	}
	doc := string(data)
	if !strings.HasPrefix(doc, `<maplayer type="vector-tile">`) {
		t.Errorf("root element: %s", doc)
	}
	if !strings.Contains(doc, url.QueryEscape("./test.mbtiles")) {
		t.Errorf("datasource not relative: %s", doc)
	}

	back := New(context.Background(), "", "", opts)
	if err := back.ReadXML(context.Background(), data); err != nil {
		t.Fatal(err)
	}
	if !back.IsValid() {
		t.Fatalf("restored layer invalid: %s", back.ErrorMessage())
	}
	if back.Source() != uri || back.Name() != "local" || back.ID() != l.ID() {
		t.Errorf("restored %s %s %s", back.Source(), back.Name(), back.ID())
	}
	if len(back.Renderer().(*style.BasicRenderer).Styles()) != 3 {
		t.Errorf("renderer not restored")
	}
	if back.Labeling() == nil || len(back.Labeling().Styles()) != 1 {
		t.Errorf("labeling not restored")
	}
}

func TestReadXMLInvalidSourceResetsState(t *testing.T) {
	l, _, _ := newMBTilesLayer(t)
	if l.Extent().IsEmpty() || l.CRS() == "" {
		t.Fatalf("expected resolved extent, got %v %q", l.Extent(), l.CRS())
	}
	doc := `<maplayer type="vector-tile"><id>x</id><datasource>type=mbtiles&amp;url=./missing.mbtiles</datasource><layername>gone</layername><renderer type="basic"><styles></styles></renderer></maplayer>`
	if err := l.ReadXML(context.Background(), []byte(doc)); err != nil {
		t.Fatal(err)
	}
	if l.IsValid() {
		t.Fatal("layer should be invalid")
	}
	if l.Extent() != (orb.Bound{}) || l.CRS() != "" {
		t.Errorf("stale state kept: %v %q", l.Extent(), l.CRS())
	}
	if l.Descriptor() != nil || len(l.GetRawTile(context.Background(), tile.New(2, 1, 0))) != 0 {
		t.Error("source still reachable")
	}
}

func TestReadSymbology(t *testing.T) {
	l, _, _ := newMBTilesLayer(t)

	if err := l.ReadSymbology([]byte(`<maplayer type="vector-tile"></maplayer>`), AllStyleCategories); !errors.Is(err, ErrMissingRenderer) {
		t.Errorf("missing renderer: %v", err)
	}
	err := l.ReadSymbology([]byte(`<maplayer><renderer type="fancy"></renderer></maplayer>`), AllStyleCategories)
	if !errors.Is(err, style.ErrUnknownType) || !errors.Is(err, source.ErrUnsupportedFormat) {
		t.Errorf("unknown renderer: %v", err)
	}

	l.SetLabeling(style.NewBasicLabeling(nil))
	doc := `<maplayer><renderer type="basic"><styles></styles></renderer><labeling type="fancy"></labeling></maplayer>`
	if err := l.ReadSymbology([]byte(doc), AllStyleCategories); err != nil {
		t.Fatalf("unknown labeling should not fail: %v", err)
	}
	if l.Labeling() != nil {
		t.Errorf("unknown labeling should leave no labeling")
	}

	lb := style.NewBasicLabeling(nil)
	l.SetLabeling(lb)
	if err := l.ReadSymbology([]byte(doc), CategorySymbology); err != nil {
		t.Fatal(err)
	}
	if l.Labeling() != lb {
		t.Errorf("labeling touched when not requested")
	}
}

func TestClone(t *testing.T) {
	l, _, _ := newMBTilesLayer(t)
	c := l.Clone()
	if c.ID() == l.ID() {
		t.Error("clone should get a fresh id")
	}
	if c.Source() != l.Source() || c.Name() != l.Name() || !c.IsValid() {
		t.Errorf("clone = %s %s %v", c.Source(), c.Name(), c.IsValid())
	}
	if c.Renderer() == l.Renderer() {
		t.Error("renderer should be cloned")
	}
	if got := string(c.GetRawTile(context.Background(), tile.New(2, 1, 0))); got != "tile-2-1-0" {
		t.Errorf("clone GetRawTile = %q", got)
	}
}

func TestStyleCategories(t *testing.T) {
	if !AllStyleCategories.Has(CategoryLabeling) || CategorySymbology.Has(CategoryLabeling) {
		t.Error("category flags")
	}
}
