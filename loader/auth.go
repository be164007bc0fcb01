package loader

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnknownAuthConfig 认证配置不存在
var ErrUnknownAuthConfig = errors.New("unknown auth config")

// AuthStore 按 authcfg 为请求附加认证信息
type AuthStore interface {
	UpdateRequest(req *http.Request, authcfg string) error
}

// Credential 一条认证配置
type Credential struct {
	ID       string `toml:"id"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Token    string `toml:"token"`
	Header   string `toml:"header"`
	Value    string `toml:"value"`
}

// StaticAuthStore 来自配置文件的认证配置
type StaticAuthStore map[string]Credential

// NewStaticAuthStore 以 ID 建立索引
func NewStaticAuthStore(creds []Credential) StaticAuthStore {
	s := make(StaticAuthStore, len(creds))
	for _, c := range creds {
		s[c.ID] = c
	}
	return s
}

// UpdateRequest 附加认证头
func (s StaticAuthStore) UpdateRequest(req *http.Request, authcfg string) error {
	c, ok := s[authcfg]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAuthConfig, authcfg)
	}
	switch {
	case c.Header != "":
		req.Header.Set(c.Header, c.Value)
	case c.Token != "":
		req.Header.Set("Authorization", "Bearer "+c.Token)
	case c.Username != "":
		req.SetBasicAuth(c.Username, c.Password)
	}
	return nil
}
