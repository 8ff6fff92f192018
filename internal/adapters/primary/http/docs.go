package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// docsHTML is the interactive documentation page, rendered over the cached
// OpenAPI descriptor.
const docsHTML = `<!doctype html>
<html>
  <head>
    <meta name="viewport" content="width=device-width,minimum-scale=1,initial-scale=1,user-scalable=yes">
    <title>RapiDoc</title>
    <script type="module" src="https://unpkg.com/rapidoc@9.1.3/dist/rapidoc-min.js"></script>
  </head>
  <body>
    <rapi-doc spec-url="/openapi.json"
      id="thedoc" render-style="read" schema-style="tree"
      show-components="true" show-info="true" show-header="true"
      allow-search="true"
      show-side-nav="false"
      allow-authentication="false" update-route="false" match-type="regex"
      theme="light">
    </rapi-doc>
  </body>
</html>
`

func (a *API) handleDocsPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(docsHTML))
}

// handleOpenAPI serves the machine-readable interface description. It is
// computed once, on first request, and cached for the process lifetime, so
// responses are byte-identical even under concurrent first requests.
func (a *API) handleOpenAPI(c *gin.Context) {
	a.docsOnce.Do(func() {
		doc, err := json.Marshal(a.openAPIDocument())
		if err != nil {
			log.WithError(err).Error("failed to build interface description")
			doc = []byte(`{"openapi":"3.0.3","info":{"title":"unavailable"},"paths":{}}`)
		}
		a.docsJSON = doc
	})
	c.Data(http.StatusOK, "application/json; charset=utf-8", a.docsJSON)
}

func (a *API) openAPIDocument() map[string]any {
	requestSchema := map[string]any{"type": "object"}
	if proto := a.model.Prototype(); proto != nil {
		if b, err := json.Marshal(proto.Descriptor()); err == nil {
			var m map[string]any
			if json.Unmarshal(b, &m) == nil {
				requestSchema = m
			}
		}
	}
	postBody := map[string]any{
		"required": true,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{
					"oneOf": []any{
						requestSchema,
						map[string]any{"type": "array", "items": requestSchema},
					},
				},
			},
		},
	}

	paths := map[string]any{
		"/ping": map[string]any{
			"get": map[string]any{
				"summary":   "Liveness check",
				"responses": jsonResponse("pong"),
			},
		},
		"/metadata": map[string]any{
			"get": map[string]any{
				"summary":   "Model provenance metadata",
				"responses": jsonResponse("metadata record"),
			},
		},
		"/prototype": map[string]any{
			"get": map[string]any{
				"summary":   "Portable input prototype descriptor",
				"responses": jsonResponse("prototype descriptor"),
			},
		},
		"/predict/": map[string]any{
			"post": map[string]any{
				"summary":     "Predict over one instance or a batch",
				"requestBody": postBody,
				"responses":   jsonResponse("ordered prediction outputs"),
			},
		},
	}
	for _, name := range a.endpoints {
		paths["/"+name+"/"] = map[string]any{
			"post": map[string]any{
				"summary":     "Auxiliary endpoint " + name,
				"requestBody": postBody,
				"responses":   jsonResponse("endpoint outputs"),
			},
		}
	}

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":       a.model.Name() + " model API",
			"description": a.model.Description(),
			"version":     "0.1.0",
		},
		"paths": paths,
	}
}

func jsonResponse(description string) map[string]any {
	return map[string]any{
		"200": map[string]any{
			"description": description,
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"type": "object"},
				},
			},
		},
	}
}
