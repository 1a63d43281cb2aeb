package handlers

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"strings"
)

//go:embed openapi.json
var openAPISpec []byte

// The docs page sits next to openapi.json under the same prefix.
const redocHTML = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <title>Fundhub API Docs</title>
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <style>
      body { margin: 0; padding: 0; }
      redoc { display: block; height: 100vh; }
    </style>
  </head>
  <body>
    <redoc spec-url="openapi.json"></redoc>
    <script src="https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"></script>
  </body>
</html>`

// OpenAPIJSON serves the API document with the server URL of the current
// request and the delegation token fields limited to whitelisted tokens.
func (a *App) OpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	var doc map[string]any
	if err := json.Unmarshal(openAPISpec, &doc); err != nil {
		a.fail(w, r, err)
		return
	}
	doc["servers"] = []map[string]string{{"url": serverURL(r)}}
	if a.Whitelist != nil {
		var symbols, addresses []string
		for _, t := range a.Whitelist.Tokens() {
			symbols = append(symbols, t.Symbol)
			if t.Address != "" {
				addresses = append(addresses, t.Address)
			}
		}
		props := schemaProperties(doc, "DelegationRequest")
		setEnum(props, "tokenSymbol", symbols, a.Whitelist.DefaultToken().Symbol)
		setEnum(props, "tokenAddress", addresses, "")
	}
	a.json(w, http.StatusOK, doc)
}

func (a *App) OpenAPIDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(redocHTML))
}

func serverURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(p, ",")[0]))
	}
	if r.Host == "" {
		return "/"
	}
	return scheme + "://" + r.Host
}

func schemaProperties(doc map[string]any, name string) map[string]any {
	components, _ := doc["components"].(map[string]any)
	schemas, _ := components["schemas"].(map[string]any)
	schema, _ := schemas[name].(map[string]any)
	props, _ := schema["properties"].(map[string]any)
	return props
}

func setEnum(props map[string]any, field string, values []string, def string) {
	prop, ok := props[field].(map[string]any)
	if !ok || len(values) == 0 {
		return
	}
	prop["enum"] = values
	if def != "" {
		prop["default"] = def
	}
}
