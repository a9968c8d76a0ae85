// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package openapi

import (
	"bytes"
	"html/template"
	"io"
	"net/http"
)

var swaggerUITemplate = template.Must(template.New("swagger-ui").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}} - Swagger UI</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
window.ui = SwaggerUIBundle({
  url: {{.SpecURL}},
  dom_id: "#swagger-ui",
  deepLinking: true,
  presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
  layout: "BaseLayout"
});
</script>
</body>
</html>
`))

var redocTemplate = template.Must(template.New("redoc").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} - ReDoc</title>
<style>body { margin: 0; padding: 0; }</style>
</head>
<body>
<redoc spec-url="{{.SpecURL}}"></redoc>
<script src="https://cdn.jsdelivr.net/npm/redoc@2/bundles/redoc.standalone.js"></script>
</body>
</html>
`))

type page struct {
	Title   string
	SpecURL string
}

type pageHandler struct {
	body []byte
}

func newPageHandler(tmpl *template.Template, title, specURL string) http.Handler {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, page{Title: title, SpecURL: specURL})
	if err != nil {
		panic(err)
	}
	return pageHandler{body: buf.Bytes()}
}

func (h pageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, bytes.NewReader(h.body))
}

// SwaggerUI serves a Swagger UI page which loads the document from specURL.
func SwaggerUI(title, specURL string) http.Handler {
	return newPageHandler(swaggerUITemplate, title, specURL)
}

// Redoc serves a ReDoc page which loads the document from specURL.
func Redoc(title, specURL string) http.Handler {
	return newPageHandler(redocTemplate, title, specURL)
}
