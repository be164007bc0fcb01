package source

import (
	"github.com/tidwall/gjson"
)

// ArcGISServiceConfig ArcGIS 矢量瓦片服务描述文档
type ArcGISServiceConfig struct {
	raw        []byte
	doc        gjson.Result
	serviceURI string
}

func newArcGISServiceConfig(raw []byte, serviceURI string) *ArcGISServiceConfig {
	return &ArcGISServiceConfig{raw: raw, doc: gjson.ParseBytes(raw), serviceURI: serviceURI}
}

// Raw 原始文档
func (c *ArcGISServiceConfig) Raw() []byte {
	return c.raw
}

// Value 按 gjson 路径取值
func (c *ArcGISServiceConfig) Value(path string) gjson.Result {
	return c.doc.Get(path)
}

func (c *ArcGISServiceConfig) ServiceURI() string {
	return c.serviceURI
}

func (c *ArcGISServiceConfig) Name() string {
	return c.doc.Get("name").String()
}

func (c *ArcGISServiceConfig) CopyrightText() string {
	return c.doc.Get("copyrightText").String()
}

func (c *ArcGISServiceConfig) ServiceItemID() string {
	return c.doc.Get("serviceItemId").String()
}

func (c *ArcGISServiceConfig) DefaultStyles() string {
	return c.doc.Get("defaultStyles").String()
}

func (c *ArcGISServiceConfig) MaxZoom() int {
	return int(c.doc.Get("maxzoom").Int())
}

// Tiles 瓦片模板列表
func (c *ArcGISServiceConfig) Tiles() []string {
	var out []string
	for _, v := range c.doc.Get("tiles").Array() {
		out = append(out, v.String())
	}
	return out
}

// DefaultStyleURL 默认样式地址
func (c *ArcGISServiceConfig) DefaultStyleURL() string {
	return c.serviceURI + "/" + c.DefaultStyles()
}
