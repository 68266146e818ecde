package request

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xavierroma/go-rakis/app/config"
	"github.com/xavierroma/go-rakis/app/fsys"
	"github.com/xavierroma/go-rakis/app/types"
)

// Parser turns a raw request buffer into a types.Request. Every failure it
// returns is a types.Status.
type Parser struct {
	fs           fsys.FS
	root         string // canonical document root
	defaultIndex string
	protocol     string
}

func NewParser(cfg *config.Config, fs fsys.FS) (*Parser, error) {
	root, err := fs.Canonicalize(cfg.DocRoot)
	if err != nil {
		return nil, fmt.Errorf("canonicalize doc root %s: %w", cfg.DocRoot, err)
	}
	return &Parser{
		fs:           fs,
		root:         root,
		defaultIndex: cfg.DefaultIndex,
		protocol:     cfg.ProtocolVersion,
	}, nil
}

// Parse validates the request line of raw. Only the first three
// space-separated tokens are looked at; headers are never interpreted.
func (p *Parser) Parse(raw string) (types.Request, error) {
	tokens := strings.Split(strings.ReplaceAll(raw, "\r\n", " "), " ")
	if len(tokens) < 3 {
		return types.Request{}, types.StatusBadRequest
	}

	method, ok := types.MethodFromToken(tokens[0])
	if !ok {
		return types.Request{}, types.StatusBadRequest
	}
	if method != types.Get {
		return types.Request{}, types.StatusNotImplemented
	}

	rel := target(tokens[1], p.defaultIndex)
	// an empty target names nothing, it must not resolve to the root itself
	if rel == "" {
		return types.Request{}, types.StatusNotFound
	}
	path, err := p.canonical(p.root + string(filepath.Separator) + rel)
	if err != nil {
		return types.Request{}, err
	}

	if tokens[2] != p.protocol {
		return types.Request{}, types.StatusBadRequest
	}

	return types.Request{
		Method:          types.Get,
		Path:            path,
		ProtocolVersion: tokens[2],
	}, nil
}

// target maps the request target to a path relative to the document root.
func target(t, defaultIndex string) string {
	if t == "/" {
		return defaultIndex
	}
	if len(t) > 1 && t[0] == '/' {
		return t[1:]
	}
	return t
}

// canonical resolves name on the filesystem and checks that the result did
// not leave the document root.
func (p *Parser) canonical(name string) (string, error) {
	path, err := p.fs.Canonicalize(name)
	if err != nil {
		// a missing file outside the root is still a traversal attempt
		if !p.contains(filepath.Clean(name)) {
			return "", types.StatusBadRequest
		}
		return "", types.StatusNotFound
	}
	if !p.contains(path) {
		return "", types.StatusBadRequest
	}
	return path, nil
}

func (p *Parser) contains(path string) bool {
	if path == p.root {
		return true
	}
	prefix := p.root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
