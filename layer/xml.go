package layer

import (
	"context"
	"encoding/xml"
	"fmt"

	log "github.com/sirupsen/logrus"

	"vtlayer/source"
	"vtlayer/style"
)

type typedXML struct {
	Type  string `xml:"type,attr"`
	Inner []byte `xml:",innerxml"`
}

type layerXML struct {
	XMLName    xml.Name  `xml:"maplayer"`
	Type       string    `xml:"type,attr"`
	ID         string    `xml:"id"`
	DataSource string    `xml:"datasource"`
	LayerName  string    `xml:"layername"`
	Renderer   *typedXML `xml:"renderer"`
	Labeling   *typedXML `xml:"labeling"`
}

func parseLayerXML(data []byte) (*layerXML, error) {
	var node layerXML
	if err := xml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %s", source.ErrParse, err)
	}
	return &node, nil
}

// WriteXML 序列化图层, 数据源以存储形式写入
func (l *VectorTileLayer) WriteXML() ([]byte, error) {
	node := layerXML{
		Type:       VectorTileType,
		ID:         l.id,
		DataSource: l.EncodedSource(l.source),
		LayerName:  l.name,
	}
	if l.renderer != nil {
		inner, err := l.renderer.WriteXML()
		if err != nil {
			return nil, err
		}
		node.Renderer = &typedXML{Type: l.renderer.Type(), Inner: inner}
	}
	if l.labeling != nil {
		inner, err := l.labeling.WriteXML()
		if err != nil {
			return nil, err
		}
		node.Labeling = &typedXML{Type: l.labeling.Type(), Inner: inner}
	}
	out, err := xml.MarshalIndent(node, "", "  ")
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadXML 读取图层并重新加载数据源
func (l *VectorTileLayer) ReadXML(ctx context.Context, data []byte) error {
	node, err := parseLayerXML(data)
	if err != nil {
		return err
	}
	if node.Type != "" && node.Type != VectorTileType {
		return fmt.Errorf("%w: layer type %s", source.ErrUnsupportedFormat, node.Type)
	}
	if node.ID != "" {
		l.id = node.ID
	}
	if node.LayerName != "" {
		l.name = node.LayerName
	}
	l.source = l.DecodedSource(node.DataSource)
	l.loadDataSource(ctx)
	return l.readSymbology(node, AllStyleCategories)
}

// ReadSymbology 从图层文档读取渲染与标注
func (l *VectorTileLayer) ReadSymbology(data []byte, categories StyleCategories) error {
	node, err := parseLayerXML(data)
	if err != nil {
		return err
	}
	return l.readSymbology(node, categories)
}

func (l *VectorTileLayer) readSymbology(node *layerXML, categories StyleCategories) error {
	if node.Renderer == nil {
		return ErrMissingRenderer
	}
	if categories.Has(CategorySymbology) {
		r, err := style.NewRenderer(node.Renderer.Type)
		if err != nil {
			return fmt.Errorf("%w: %w", source.ErrUnsupportedFormat, err)
		}
		if err := r.ReadXML(node.Renderer.Inner); err != nil {
			return fmt.Errorf("%w: renderer: %s", source.ErrParse, err)
		}
		l.SetRenderer(r)
	}
	if categories.Has(CategoryLabeling) {
		l.SetLabeling(readLabeling(node.Labeling))
	}
	return nil
}

func readLabeling(node *typedXML) style.Labeling {
	if node == nil {
		return nil
	}
	lb, err := style.NewLabeling(node.Type)
	if err != nil {
		log.Errorf("unknown labeling type %q, details: %s", node.Type, err)
		return nil
	}
	if err := lb.ReadXML(node.Inner); err != nil {
		log.Errorf("read labeling error, details: %s", err)
		return nil
	}
	return lb
}
