package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterOpenAPI registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterOpenAPI(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, openapiHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Header("Content-Type", "application/json")
		c.String(http.StatusOK, openapiJSON)
	})
}

const openapiHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>collabspace — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the coordination endpoints.
const openapiJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "collabspace", "version": "v0.1.0" },
  "paths": {
    "/api/documents": {
      "post": { "summary": "Create document", "responses": { "201": { "description": "created" } } }
    },
    "/api/documents/{id}": {
      "get": { "summary": "Get document", "responses": { "200": { "description": "document" }, "404": { "description": "not found" } } },
      "put": { "summary": "Update document content/title under optimistic concurrency", "responses": { "200": { "description": "updated" }, "409": { "description": "version conflict (carries current version and content)" }, "423": { "description": "lock held by another user" } } },
      "delete": { "summary": "Delete document", "responses": { "200": { "description": "deleted" }, "403": { "description": "not creator or admin" } } }
    },
    "/api/documents/{id}/lock": {
      "post": { "summary": "Lock document for editing", "responses": { "200": { "description": "lock granted" }, "423": { "description": "already locked (carries holder and since)" } } }
    },
    "/api/documents/{id}/unlock": {
      "post": { "summary": "Unlock document", "responses": { "200": { "description": "unlocked (idempotent)" }, "423": { "description": "not lock holder" } } }
    },
    "/api/documents/{id}/collaborators": {
      "get": { "summary": "List active collaborators (lock holder first)", "responses": { "200": { "description": "collaborator list" } } }
    },
    "/api/teams/{id}/documents": {
      "get": { "summary": "List team documents", "responses": { "200": { "description": "documents" } } }
    },
    "/api/teams": {
      "post": { "summary": "Create team", "responses": { "201": { "description": "created" } } }
    },
    "/api/meetings": {
      "post": { "summary": "Schedule team meeting", "responses": { "201": { "description": "scheduled" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
