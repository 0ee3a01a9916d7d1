package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/flytogether/docs"
)

const openAPIPath = "/api/openapi.yaml"

const redocPage = `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>FlyTogether API</title>
    <meta name="viewport" content="width=device-width, initial-scale=1" />
  </head>
  <body>
    <redoc spec-url="` + openAPIPath + `" hide-download-button></redoc>
    <script src="https://cdn.jsdelivr.net/npm/redoc/bundles/redoc.standalone.js"></script>
  </body>
</html>`

// registerDocs serves the embedded OpenAPI document and a ReDoc page over it.
func registerDocs(e *echo.Echo) {
	e.GET(openAPIPath, func(c echo.Context) error {
		return c.Blob(http.StatusOK, "application/yaml", docs.OpenAPI)
	})
	e.GET("/api/docs", func(c echo.Context) error {
		return c.HTML(http.StatusOK, redocPage)
	})
}
