package response

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierroma/go-rakis/app/config"
	"github.com/xavierroma/go-rakis/app/fsys"
	"github.com/xavierroma/go-rakis/app/request"
	"github.com/xavierroma/go-rakis/app/types"
)

const notFoundHTML = "<h1>nothing here</h1>"

func setup(t *testing.T) (*config.Config, *request.Parser, *Resolver) {
	t.Helper()
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	root := filepath.Join(base, "www")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>index</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data.bin"), []byte{0x00, 0xff, 0x10, '\r', '\n'}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "404.html"), []byte(notFoundHTML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "secret.txt"), []byte("secret"), 0o644))

	cfg := config.Default()
	cfg.DocRoot = root
	cfg, err = cfg.Finalize()
	require.NoError(t, err)

	p, err := request.NewParser(&cfg, fsys.OS{})
	require.NoError(t, err)
	return &cfg, p, NewResolver(&cfg, fsys.OS{}, zerolog.Nop())
}

func TestResolveRequests(t *testing.T) {
	_, p, r := setup(t)

	tests := []struct {
		name    string
		request string
		want    string
	}{
		{"Default Index", "GET / HTTP/1.1\r\n\r\n", "HTTP/1.1 200 OK\r\n\r\n<h1>index</h1>"},
		{"Binary File", "GET /data.bin HTTP/1.1", "HTTP/1.1 200 OK\r\n\r\n\x00\xff\x10\r\n"},
		{"Missing File", "GET /missing.html HTTP/1.1", "HTTP/1.1 404 Not Found\r\n\r\n" + notFoundHTML},
		{"Traversal", "GET /../secret.txt HTTP/1.1", "HTTP/1.1 400 Bad request\r\n\r\n400 - BAD REQUEST"},
		{"Protocol Mismatch", "GET /index.html HTTP/1.0", "HTTP/1.1 400 Bad request\r\n\r\n400 - BAD REQUEST"},
		{"Too Short", "GET /", "HTTP/1.1 400 Bad request\r\n\r\n400 - BAD REQUEST"},
		{"Not Implemented", "POST /index.html HTTP/1.1", "HTTP/1.1 501 Not implemented\r\n\r\n"},
		{"Directory", "GET /sub HTTP/1.1", "HTTP/1.1 500 Internal Server Error\r\n\r\n"},
		{"Root Directory", "GET /. HTTP/1.1", "HTTP/1.1 500 Internal Server Error\r\n\r\n"},
		{"Empty Target", "GET  HTTP/1.1", "HTTP/1.1 404 Not Found\r\n\r\n" + notFoundHTML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Resolve(p.Parse(tt.request))
			assert.Equal(t, tt.want, string(res.Bytes()))
		})
	}
}

func TestResolveStatuses(t *testing.T) {
	_, _, r := setup(t)

	tests := []struct {
		err  error
		want string
	}{
		{types.StatusUnauthorized, "HTTP/1.1 401 Unauthorized\r\n\r\n401 - UNAUTHORIZED"},
		{types.StatusForbidden, "HTTP/1.1 403 Forbidden\r\n\r\n403 - FORBIDDEN"},
		{types.StatusInternalServerError, "HTTP/1.1 500 Internal Server Error\r\n\r\n"},
		{types.StatusContinue, "HTTP/1.1 500 Internal Server Error\r\n\r\n"},
		{types.StatusOK, "HTTP/1.1 500 Internal Server Error\r\n\r\n"},
		{types.Status(418), "HTTP/1.1 500 Internal Server Error\r\n\r\n"},
		{errors.New("boom"), "HTTP/1.1 500 Internal Server Error\r\n\r\n"},
		{fmt.Errorf("wrapped: %w", types.StatusForbidden), "HTTP/1.1 403 Forbidden\r\n\r\n403 - FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			res := r.Resolve(types.Request{}, tt.err)
			assert.Equal(t, tt.want, string(res.Bytes()))
		})
	}
}

func TestResolveBodyMatchesDisk(t *testing.T) {
	cfg, p, r := setup(t)
	path := filepath.Join(cfg.DocRoot, "index.html")

	req, err := p.Parse("GET / HTTP/1.1")
	require.NoError(t, err)

	// content changes between parse and resolve are served as they are on disk
	require.NoError(t, os.WriteFile(path, []byte("rewritten"), 0o644))
	res := r.Resolve(req, nil)
	assert.Equal(t, types.StatusOK, res.Status)
	assert.Equal(t, "rewritten", string(res.Body))
}

func TestResolveFileRemovedAfterParse(t *testing.T) {
	cfg, p, r := setup(t)

	req, err := p.Parse("GET /index.html HTTP/1.1")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(cfg.DocRoot, "index.html")))

	res := r.Resolve(req, nil)
	assert.Equal(t, "HTTP/1.1 500 Internal Server Error\r\n\r\n", string(res.Bytes()))
}

func TestResolveNonGetRequest(t *testing.T) {
	cfg, _, r := setup(t)
	req := types.Request{Method: types.Post, Path: filepath.Join(cfg.DocRoot, "index.html"), ProtocolVersion: "HTTP/1.1"}

	res := r.Resolve(req, nil)
	assert.Equal(t, types.StatusInternalServerError, res.Status)
	assert.Empty(t, res.Body)
}

func TestResolveNotFoundPageUnreadable(t *testing.T) {
	cfg, p, r := setup(t)
	require.NoError(t, os.Remove(cfg.NotFoundPage))

	res := r.Resolve(p.Parse("GET /missing.html HTTP/1.1"))
	assert.Equal(t, "HTTP/1.1 404 Not Found\r\n\r\n", string(res.Bytes()))
}
