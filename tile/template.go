package tile

import (
	"strconv"
	"strings"
)

// IsValidTileURLTemplate 模板需包含 {x} {z} 以及 {y} 或 {-y}
func IsValidTileURLTemplate(template string) bool {
	return strings.Contains(template, "{x}") &&
		(strings.Contains(template, "{y}") || strings.Contains(template, "{-y}")) &&
		strings.Contains(template, "{z}")
}

// FormatTileURL 获取瓦片URL
func FormatTileURL(template string, a Address) string {
	url := strings.Replace(template, "{x}", strconv.Itoa(a.Column), -1)
	url = strings.Replace(url, "{y}", strconv.Itoa(a.Row), -1)
	url = strings.Replace(url, "{-y}", strconv.Itoa(a.FlipY()), -1)
	url = strings.Replace(url, "{z}", strconv.Itoa(a.Zoom), -1)
	return url
}
