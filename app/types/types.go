package types

import (
	"fmt"
	"strings"
)

type Method string

const (
	Get     Method = "GET"
	Post    Method = "POST"
	Put     Method = "PUT"
	Delete  Method = "DELETE"
	Connect Method = "CONNECT"
	Trace   Method = "TRACE"
	Head    Method = "HEAD"
	Options Method = "OPTIONS"
)

// methodPrefixes is checked in order, first match wins.
var methodPrefixes = []struct {
	prefix string
	method Method
}{
	{"GET", Get},
	{"POST", Post},
	{"PUT", Put},
	{"UPDATE", Put},
	{"DELETE", Delete},
	{"CONNECT", Connect},
	{"TRACE", Trace},
	{"HEAD", Head},
	{"OPTION", Options},
}

// MethodFromToken matches the leading request-line token against the known
// methods by case-sensitive prefix.
func MethodFromToken(token string) (Method, bool) {
	for _, p := range methodPrefixes {
		if strings.HasPrefix(token, p.prefix) {
			return p.method, true
		}
	}
	return "", false
}

// Request is a request line that passed validation. Path is the canonical
// absolute path of the file to serve.
type Request struct {
	Method          Method
	Path            string
	ProtocolVersion string
}

type Status int

const (
	StatusContinue            Status = 100
	StatusOK                  Status = 200
	StatusBadRequest          Status = 400
	StatusUnauthorized        Status = 401
	StatusForbidden           Status = 403
	StatusNotFound            Status = 404
	StatusInternalServerError Status = 500
	StatusNotImplemented      Status = 501
)

var statusReasons = map[Status]string{
	StatusContinue:            "Continue",
	StatusOK:                  "OK",
	StatusBadRequest:          "Bad request",
	StatusUnauthorized:        "Unauthorized",
	StatusForbidden:           "Forbidden",
	StatusNotFound:            "Not Found",
	StatusInternalServerError: "Internal Server Error",
	StatusNotImplemented:      "Not implemented",
}

func (s Status) Code() int {
	return int(s)
}

func (s Status) Reason() string {
	return statusReasons[s]
}

func (s Status) String() string {
	return fmt.Sprintf("%d %s", s.Code(), s.Reason())
}

// Error lets a Status travel as the error of a failed parse.
func (s Status) Error() string {
	return s.String()
}

type Response struct {
	ProtocolVersion string
	Status          Status
	Body            []byte
}

// Bytes serializes the response as it goes on the wire: status line, blank
// line, body. No headers are written.
func (r Response) Bytes() []byte {
	line := fmt.Sprintf("%s %d %s\r\n\r\n", r.ProtocolVersion, r.Status.Code(), r.Status.Reason())
	out := make([]byte, 0, len(line)+len(r.Body))
	out = append(out, line...)
	return append(out, r.Body...)
}
