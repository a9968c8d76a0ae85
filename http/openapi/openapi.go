// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package openapi builds the OpenAPI document of the service from the
// request and response types of its routes and serves it, along with
// Swagger UI and ReDoc pages for browsing it.
package openapi

import (
	"bytes"
	"io"
	"net/http"
	"sync"

	"github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
	"gopkg.in/yaml.v3"
)

// Info describes the API as a whole.
type Info struct {
	Title       string
	Description string
	Version     string

	// ServerURL is the path, or absolute url, the API is served under.
	ServerURL string
}

// Response documents one possible response of an [Operation]. A nil
// Body documents a response without content.
type Response struct {
	Status int
	Body   any
}

// Operation documents one route.
//
// Request fields tagged with `path`, `query` or `header` become
// parameters. Fields tagged with `json` become the request body.
type Operation struct {
	Method    string
	Pattern   string
	Summary   string
	Tags      []string
	Request   any
	Responses []Response
}

// Document accumulates operations into an OpenAPI 3 document.
type Document struct {
	mu        sync.Mutex
	reflector *openapi3.Reflector
}

// New returns an empty [Document].
func New(info Info) *Document {
	spec := &openapi3.Spec{
		Openapi: "3.0.3",
	}
	spec.Info.
		WithTitle(info.Title).
		WithVersion(info.Version)
	if info.Description != "" {
		spec.Info.WithDescription(info.Description)
	}
	if info.ServerURL != "" {
		spec.Servers = append(spec.Servers, openapi3.Server{URL: info.ServerURL})
	}

	return &Document{
		reflector: &openapi3.Reflector{Spec: spec},
	}
}

// Add documents op.
func (d *Document) Add(op Operation) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	oc, err := d.reflector.NewOperationContext(op.Method, op.Pattern)
	if err != nil {
		return err
	}
	if op.Summary != "" {
		oc.SetSummary(op.Summary)
	}
	if len(op.Tags) > 0 {
		oc.SetTags(op.Tags...)
	}
	if op.Request != nil {
		oc.AddReqStructure(op.Request)
	}
	for _, resp := range op.Responses {
		oc.AddRespStructure(resp.Body, openapi.WithHTTPStatus(resp.Status))
	}
	return d.reflector.AddOperation(oc)
}

// JSON returns the document encoded as JSON.
func (d *Document) JSON() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.reflector.Spec.MarshalJSON()
}

// YAML returns the document encoded as YAML, with keys in the same
// order as [Document.JSON].
func (d *Document) YAML() ([]byte, error) {
	b, err := d.JSON()
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	err = yaml.Unmarshal(b, &node)
	if err != nil {
		return nil, err
	}
	blockStyle(&node)
	return yaml.Marshal(&node)
}

// JSON is valid YAML so the decoded nodes come back in flow style with
// every string double quoted.
func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle | yaml.DoubleQuotedStyle
	for _, c := range n.Content {
		blockStyle(c)
	}
}

type documentHandler struct {
	contentType string
	marshal     func() ([]byte, error)
}

func (h documentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, err := h.marshal()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", h.contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, bytes.NewReader(b))
}

// Handler serves the document as JSON.
func (d *Document) Handler() http.Handler {
	return documentHandler{
		contentType: "application/json",
		marshal:     d.JSON,
	}
}

// YAMLHandler serves the document as YAML.
func (d *Document) YAMLHandler() http.Handler {
	return documentHandler{
		contentType: "application/yaml",
		marshal:     d.YAML,
	}
}
