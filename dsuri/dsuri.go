// Package dsuri 编解码 key=value&key=value 形式的数据源连接串
package dsuri

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformed 连接串无法解析
var ErrMalformed = errors.New("malformed data source uri")

// Param 单个参数, 解析得到的参数保留原始编码文本
type Param struct {
	Key   string
	Value string

	rawKey   string
	rawValue string
}

func (p Param) encode() string {
	key := p.rawKey
	if key == "" {
		key = escape(p.Key, false)
	}
	value := p.rawValue
	if value == "" && p.Value != "" {
		value = escape(p.Value, false)
	}
	return key + "=" + value
}

// URI 保持参数顺序的连接串
type URI struct {
	params []Param
}

// Parse 解析编码后的连接串
func Parse(encoded string) (*URI, error) {
	u := &URI{}
	if encoded == "" {
		return u, nil
	}
	for _, item := range strings.Split(encoded, "&") {
		if item == "" {
			continue
		}
		key, value, _ := strings.Cut(item, "=")
		k, err := url.PathUnescape(key)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %s", ErrMalformed, key, err)
		}
		v, err := url.PathUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("%w: value of %q: %s", ErrMalformed, k, err)
		}
		u.params = append(u.params, Param{Key: k, Value: v, rawKey: key, rawValue: value})
	}
	return u, nil
}

// Param 返回第一个同名参数的值
func (u *URI) Param(key string) string {
	for _, p := range u.params {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// HasParam 是否包含参数
func (u *URI) HasParam(key string) bool {
	for _, p := range u.params {
		if p.Key == key {
			return true
		}
	}
	return false
}

// SetParam 原位替换第一个同名参数, 不存在则追加.
// 新值沿用旧值的编码方式: 旧值完整转义时完整转义, 否则只转义分隔符
func (u *URI) SetParam(key, value string) {
	for i, p := range u.params {
		if p.Key == key {
			u.params[i].Value = value
			u.params[i].rawValue = escape(value, isFullyEscaped(p))
			return
		}
	}
	u.params = append(u.params, Param{Key: key, Value: value})
}

// RemoveParam 删除所有同名参数
func (u *URI) RemoveParam(key string) {
	kept := u.params[:0]
	for _, p := range u.params {
		if p.Key != key {
			kept = append(kept, p)
		}
	}
	u.params = kept
}

// AuthConfigID 认证配置编号
func (u *URI) AuthConfigID() string {
	return u.Param("authcfg")
}

// Params 参数副本
func (u *URI) Params() []Param {
	out := make([]Param, len(u.params))
	copy(out, u.params)
	return out
}

// Encode 编码为连接串, 未修改的参数按原文写回
func (u *URI) Encode() string {
	parts := make([]string, 0, len(u.params))
	for _, p := range u.params {
		parts = append(parts, p.encode())
	}
	return strings.Join(parts, "&")
}

func isFullyEscaped(p Param) bool {
	return p.rawValue != escape(p.Value, false) && p.rawValue == escape(p.Value, true)
}

// escape full 为 true 时等同 QueryEscape (空格写作 %20), 否则只转义控制字符、空格与 % & = #
func escape(s string, full bool) string {
	if full {
		return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c <= ' ' || c == 0x7f || c == '%' || c == '&' || c == '=' || c == '#':
			fmt.Fprintf(&b, "%%%02X", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
