package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ktr0731/protoedit/fill"
	"github.com/ktr0731/protoedit/format/text"
	"github.com/ktr0731/protoedit/idl"
	"github.com/ktr0731/protoedit/imports"
	"github.com/ktr0731/protoedit/normalize"
	"github.com/ktr0731/protoedit/schema"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: RequestID(r.Context())})
}

// message resolves the type named by the URL. It writes an error response and
// returns nil if the type can't be resolved.
func (s *Server) message(w http.ResponseWriter, r *http.Request) protoreflect.MessageDescriptor {
	md, err := s.spec.ResolveMessage(chi.URLParam(r, "name"))
	switch {
	case err == nil:
		return md
	case errors.Is(err, idl.ErrUnknownSymbol):
		writeError(w, r, http.StatusNotFound, err)
	default:
		writeError(w, r, http.StatusBadRequest, err)
	}
	return nil
}

// readJSON reads the request body as a generic JSON value.
func readJSON(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read the request body")
	}
	if !gjson.ValidBytes(b) {
		return nil, errors.New("the request body is not valid JSON")
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "failed to decode the request body")
	}
	return v, nil
}

func (s *Server) listTypes(w http.ResponseWriter, r *http.Request) {
	names := append([]string{}, s.spec.MessageNames()...)
	sort.Strings(names)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"files": s.spec.Files(),
		"types": names,
	})
}

func (s *Server) schema(w http.ResponseWriter, r *http.Request) {
	md := s.message(w, r)
	if md == nil {
		return
	}
	s.metrics.operation("schema", nil)
	writeJSON(w, http.StatusOK, schema.Derive(md))
}

func (s *Server) defaults(w http.ResponseWriter, r *http.Request) {
	md := s.message(w, r)
	if md == nil {
		return
	}
	depth := s.depth
	if q := r.URL.Query().Get("depth"); q != "" {
		d, err := strconv.Atoi(q)
		if err != nil || d < 1 {
			writeError(w, r, http.StatusBadRequest, errors.Errorf("invalid depth %q", q))
			return
		}
		depth = d
	}
	s.metrics.operation("default", nil)
	writeJSON(w, http.StatusOK, fill.Defaults(md, fill.Options{MaxDepth: depth}))
}

func (s *Server) normalize(w http.ResponseWriter, r *http.Request) {
	md := s.message(w, r)
	if md == nil {
		return
	}
	in, err := readJSON(w, r)
	if err != nil {
		s.metrics.operation("normalize", err)
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	q := r.URL.Query()
	if q.Get("enums") != "false" {
		in = normalize.Enums(in, md)
	}
	if q.Get("bytes") != "false" {
		in = normalize.Bytes(in, md)
	}
	s.metrics.operation("normalize", nil)
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) text(w http.ResponseWriter, r *http.Request) {
	md := s.message(w, r)
	if md == nil {
		return
	}
	in, err := readJSON(w, r)
	if err != nil {
		s.metrics.operation("text", err)
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	msg := dynamicpb.NewMessage(md)
	err = fill.Decode(in, msg, protojson.UnmarshalOptions{Resolver: s.spec.TypeResolver()})
	s.metrics.operation("text", err)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, text.Format(msg))
}

type importsRequest struct {
	Main  string            `json:"main"`
	Files map[string]string `json:"files"`
}

type importsResponse struct {
	Unresolved []string `json:"unresolved"`
	Order      []string `json:"order,omitempty"`
	Cycle      []string `json:"cycle,omitempty"`
}

func (s *Server) imports(w http.ResponseWriter, r *http.Request) {
	var req importsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(&req); err != nil {
		s.metrics.operation("imports", err)
		writeError(w, r, http.StatusBadRequest, errors.Wrap(err, "failed to decode the request body"))
		return
	}
	if req.Files == nil {
		req.Files = map[string]string{}
	}

	g := imports.NewGraph(req.Files, req.Main)
	res := importsResponse{Unresolved: g.Unresolved}
	order, err := g.Order()
	var cerr *imports.CycleError
	switch {
	case err == nil:
		res.Order = order
	case errors.As(err, &cerr):
		res.Cycle = cerr.Path
	}
	s.metrics.operation("imports", nil)
	writeJSON(w, http.StatusOK, res)
}
