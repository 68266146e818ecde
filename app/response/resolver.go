package response

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/xavierroma/go-rakis/app/config"
	"github.com/xavierroma/go-rakis/app/fsys"
	"github.com/xavierroma/go-rakis/app/types"
)

var (
	bodyBadRequest   = []byte("400 - BAD REQUEST")
	bodyUnauthorized = []byte("401 - UNAUTHORIZED")
	bodyForbidden    = []byte("403 - FORBIDDEN")
)

// Resolver picks the response for the outcome of a parse.
type Resolver struct {
	fs           fsys.FS
	notFoundPage string
	protocol     string
	logger       zerolog.Logger
}

func NewResolver(cfg *config.Config, fs fsys.FS, logger zerolog.Logger) *Resolver {
	return &Resolver{
		fs:           fs,
		notFoundPage: cfg.NotFoundPage,
		protocol:     cfg.ProtocolVersion,
		logger:       logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolve builds the response for req, or for err when the parse failed.
// Errors that are not a types.Status are answered with 500.
func (r *Resolver) Resolve(req types.Request, err error) types.Response {
	if err == nil {
		return r.serve(req)
	}

	var status types.Status
	if !errors.As(err, &status) {
		r.logger.Error().Err(err).Msg("unclassified request error")
		status = types.StatusInternalServerError
	}

	res := types.Response{ProtocolVersion: r.protocol, Status: status}
	switch status {
	case types.StatusNotFound:
		res.Body = r.notFoundBody()
	case types.StatusBadRequest:
		res.Body = bodyBadRequest
	case types.StatusUnauthorized:
		res.Body = bodyUnauthorized
	case types.StatusForbidden:
		res.Body = bodyForbidden
	case types.StatusNotImplemented, types.StatusInternalServerError:
		// no body
	default:
		// Continue, OK and anything outside the table are not parse failures
		res.Status = types.StatusInternalServerError
	}
	return res
}

func (r *Resolver) serve(req types.Request) types.Response {
	if req.Method != types.Get {
		r.logger.Error().Str("method", string(req.Method)).Msg("parsed request with unsupported method")
		return types.Response{ProtocolVersion: r.protocol, Status: types.StatusInternalServerError}
	}

	// the parser already saw the file; losing it now is a race, not a 404
	body, err := r.fs.ReadAll(req.Path)
	if err != nil {
		r.logger.Error().Err(err).Str("path", req.Path).Msg("read requested file")
		return types.Response{ProtocolVersion: r.protocol, Status: types.StatusInternalServerError}
	}
	return types.Response{ProtocolVersion: req.ProtocolVersion, Status: types.StatusOK, Body: body}
}

func (r *Resolver) notFoundBody() []byte {
	body, err := r.fs.ReadAll(r.notFoundPage)
	if err != nil {
		r.logger.Error().Err(err).Str("path", r.notFoundPage).Msg("read not found page")
		return nil
	}
	return body
}
