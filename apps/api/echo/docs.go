package echoapi

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
)

var pathParam = regexp.MustCompile(`:([A-Za-z]+)`)

const swaggerUI = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8"/>
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css"/>
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
<script>
  window.onload = () => { window.ui = SwaggerUIBundle({url: "/api-docs.json", dom_id: "#swagger-ui"}); };
</script>
</body>
</html>`

func (s *Server) registerDocs() {
	title := s.deps.Conf.AppName + " API"
	page := strings.Replace(swaggerUI, "{{.Title}}", title, 1)

	s.app.GET("/api-docs", func(ctx echo.Context) error {
		return ctx.HTML(http.StatusOK, page)
	})
	s.app.GET("/api-docs.json", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, s.openAPI(title))
	})
}

type (
	openAPIDoc struct {
		OpenAPI    string                              `json:"openapi"`
		Info       openAPIInfo                         `json:"info"`
		Paths      map[string]map[string]openAPIOp     `json:"paths"`
		Components map[string]map[string]openAPIScheme `json:"components"`
	}

	openAPIInfo struct {
		Title   string `json:"title"`
		Version string `json:"version"`
	}

	openAPIOp struct {
		Tags       []string                   `json:"tags,omitempty"`
		Summary    string                     `json:"summary,omitempty"`
		Parameters []openAPIParam             `json:"parameters,omitempty"`
		Security   []map[string][]string      `json:"security,omitempty"`
		Responses  map[string]openAPIResponse `json:"responses"`
	}

	openAPIParam struct {
		Name     string            `json:"name"`
		In       string            `json:"in"`
		Required bool              `json:"required"`
		Schema   map[string]string `json:"schema"`
	}

	openAPIResponse struct {
		Description string `json:"description"`
	}

	openAPIScheme struct {
		Type         string `json:"type"`
		Scheme       string `json:"scheme"`
		BearerFormat string `json:"bearerFormat"`
	}
)

// openAPI describes the registered routes.
func (s *Server) openAPI(title string) openAPIDoc {
	version := s.deps.Conf.Build
	if version == "" {
		version = "dev"
	}
	doc := openAPIDoc{
		OpenAPI: "3.0.3",
		Info:    openAPIInfo{Title: title, Version: version},
		Paths:   make(map[string]map[string]openAPIOp),
		Components: map[string]map[string]openAPIScheme{
			"securitySchemes": {
				"bearerAuth": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
			},
		},
	}

	for _, r := range s.routes {
		path := pathParam.ReplaceAllString(r.Path, "{$1}")
		op := openAPIOp{
			Summary:   r.Summary,
			Responses: map[string]openAPIResponse{"default": {Description: "JSON response; errors are {error}"}},
		}
		if r.Tag != "" {
			op.Tags = []string{r.Tag}
		}
		for _, m := range pathParam.FindAllStringSubmatch(r.Path, -1) {
			op.Parameters = append(op.Parameters, openAPIParam{
				Name: m[1], In: "path", Required: true, Schema: map[string]string{"type": "string"},
			})
		}
		if r.Secured {
			op.Security = []map[string][]string{{"bearerAuth": {}}}
		}

		ops, ok := doc.Paths[path]
		if !ok {
			ops = make(map[string]openAPIOp)
			doc.Paths[path] = ops
		}
		ops[strings.ToLower(r.Method)] = op
	}
	return doc
}
