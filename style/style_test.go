package style

import (
	"errors"
	"math"
	"testing"
)

func TestRegistry(t *testing.T) {
	if r, err := NewRenderer("basic"); err != nil || r.Type() != BasicType {
		t.Fatalf("basic renderer: %v %v", r, err)
	}
	if _, err := NewRenderer("fancy"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
	if l, err := NewLabeling("basic"); err != nil || l.Type() != BasicType {
		t.Fatalf("basic labeling: %v %v", l, err)
	}
	if _, err := NewLabeling("fancy"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}

func TestBasicRendererXML(t *testing.T) {
	r := NewBasicRenderer(SimpleStyleWithRandomColors())
	data, err := r.WriteXML()
	if err != nil {
		t.Fatal(err)
	}
	var back BasicRenderer
	if err := back.ReadXML(data); err != nil {
		t.Fatal(err)
	}
	got, want := back.Styles(), r.Styles()
	if len(got) != 3 {
		t.Fatalf("got %d styles", len(got))
	}
	for i := range want {
		if got[i].Name != want[i].Name || got[i].Color != want[i].Color || got[i].Geometry != want[i].Geometry {
			t.Errorf("style %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if err := back.ReadXML([]byte("  ")); err != nil || len(back.Styles()) != 0 {
		t.Errorf("empty inner xml: %v %v", back.Styles(), err)
	}
}

func TestBasicLabelingXML(t *testing.T) {
	l := NewBasicLabeling([]LabelStyle{{Name: "places", Layer: "place", Enabled: true, MinZoom: 3, MaxZoom: -1, Field: "name", Size: 3.5}})
	data, err := l.WriteXML()
	if err != nil {
		t.Fatal(err)
	}
	var back BasicLabeling
	if err := back.ReadXML(data); err != nil {
		t.Fatal(err)
	}
	if s := back.Styles(); len(s) != 1 || s[0].Field != "name" || s[0].MinZoom != 3 {
		t.Errorf("styles = %+v", s)
	}
}

func TestStylesForZoom(t *testing.T) {
	r := NewBasicRenderer([]Style{
		{Name: "all", Enabled: true, MinZoom: -1, MaxZoom: -1},
		{Name: "high", Enabled: true, MinZoom: 10, MaxZoom: -1},
		{Name: "off", Enabled: false, MinZoom: -1, MaxZoom: -1},
	})
	if n := len(r.StylesForZoom(5)); n != 1 {
		t.Errorf("zoom 5: %d styles", n)
	}
	if n := len(r.StylesForZoom(12)); n != 2 {
		t.Errorf("zoom 12: %d styles", n)
	}
	c := r.Clone().(*BasicRenderer)
	c.SetStyles(nil)
	if len(r.Styles()) != 3 {
		t.Errorf("clone shares styles with original")
	}
}

const testStyle = `{
  "version": 8,
  "layers": [
    {"id": "background", "type": "background"},
    {"id": "water", "type": "fill", "source-layer": "water", "minzoom": 2,
     "paint": {"fill-color": "#0000ff", "fill-opacity": 0.5}},
    {"id": "roads", "type": "line", "source-layer": "road", "maxzoom": 14,
     "paint": {"line-color": ["get", "color"], "line-width": 4}},
    {"id": "pois", "type": "circle", "source-layer": "poi", "layout": {"visibility": "none"},
     "paint": {"circle-radius": 3}},
    {"id": "labels", "type": "symbol", "source-layer": "place",
     "layout": {"text-field": "{name}", "text-size": 12}},
    {"id": "icons", "type": "symbol", "source-layer": "poi", "layout": {"icon-image": "x"}}
  ]
}`

func TestMapBoxGLConvert(t *testing.T) {
	ctx := &ConversionContext{TargetUnit: UnitMillimeters, PixelSizeConversionFactor: 25.4 / 96.0}
	r, l, err := MapBoxGLConverter{}.Convert([]byte(testStyle), ctx)
	if err != nil {
		t.Fatal(err)
	}
	styles := r.Styles()
	if len(styles) != 3 {
		t.Fatalf("got %d styles", len(styles))
	}
	water := styles[0]
	if water.Geometry != Polygon || water.Color != "#0000ff" || water.Opacity != 0.5 || water.MinZoom != 2 || water.Layer != "water" {
		t.Errorf("water = %+v", water)
	}
	roads := styles[1]
	if roads.Color != "#000000" || math.Abs(roads.Width-4*25.4/96.0) > 1e-9 || roads.MaxZoom != 14 {
		t.Errorf("roads = %+v", roads)
	}
	if styles[2].Enabled {
		t.Errorf("hidden layer should be disabled")
	}
	labels := l.Styles()
	if len(labels) != 1 || labels[0].Field != "name" || math.Abs(labels[0].Size-12*25.4/96.0) > 1e-9 {
		t.Errorf("labels = %+v", labels)
	}
	if len(ctx.Warnings) < 3 {
		t.Errorf("expected warnings for background, expression and icon layer, got %v", ctx.Warnings)
	}
}

func TestMapBoxGLConvertErrors(t *testing.T) {
	if _, _, err := (MapBoxGLConverter{}).Convert([]byte("{not json"), nil); !errors.Is(err, ErrConversion) {
		t.Errorf("expected ErrConversion, got %v", err)
	}
	if _, _, err := (MapBoxGLConverter{}).Convert([]byte(`{"version": 8}`), nil); !errors.Is(err, ErrConversion) {
		t.Errorf("expected ErrConversion, got %v", err)
	}
}
