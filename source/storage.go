package source

import (
	"path/filepath"
	"strings"

	"vtlayer/dsuri"
	"vtlayer/loader"
)

// PathResolver 绝对路径与工程相对路径互转
type PathResolver interface {
	WritePath(path string) string
	ReadPath(path string) string
}

// ProjectPathResolver 相对于工程目录, 写出形如 ./a/b 或 ../a 的路径
type ProjectPathResolver struct {
	BaseDir string
}

func (p ProjectPathResolver) WritePath(path string) string {
	if p.BaseDir == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(p.BaseDir, path)
	if err != nil {
		return path
	}
	rel = filepath.ToSlash(rel)
	if rel != ".." && !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}

func (p ProjectPathResolver) ReadPath(path string) string {
	if p.BaseDir == "" {
		return path
	}
	if path == ".." || strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../") {
		return filepath.Join(p.BaseDir, filepath.FromSlash(path))
	}
	return path
}

// EncodeForStorage 本地路径改写为相对路径, 其余参数不变
func EncodeForStorage(raw string, resolver PathResolver) string {
	return rewritePath(raw, resolver.WritePath)
}

// DecodeFromStorage 相对路径还原为绝对路径, 其余参数不变
func DecodeFromStorage(raw string, resolver PathResolver) string {
	return rewritePath(raw, resolver.ReadPath)
}

func rewritePath(raw string, rewrite func(string) string) string {
	uri, err := dsuri.Parse(raw)
	if err != nil {
		return raw
	}
	path := uri.Param(ParamURL)
	switch uri.Param(ParamType) {
	case loader.SourceXYZ:
		if !isLocalFileURL(path) {
			return raw
		}
		uri.SetParam(ParamURL, fromLocalFile(rewrite(toLocalFile(path))))
	case loader.SourceMBTiles:
		uri.SetParam(ParamURL, rewrite(path))
	default:
		return raw
	}
	return uri.Encode()
}

func isLocalFileURL(u string) bool {
	return len(u) >= 5 && strings.EqualFold(u[:5], "file:")
}

// toLocalFile file:///a/b -> /a/b, file:./a -> ./a
func toLocalFile(u string) string {
	rest := u[5:]
	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		if i := strings.Index(rest, "/"); i > 0 {
			rest = rest[i:]
		}
	}
	return filepath.FromSlash(rest)
}

func fromLocalFile(path string) string {
	if filepath.IsAbs(path) {
		return "file://" + filepath.ToSlash(path)
	}
	return "file:" + filepath.ToSlash(path)
}
