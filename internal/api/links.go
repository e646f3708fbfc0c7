package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/crud/settings>; rel="settings"`,
		`</api/crud/groups>; rel="groups"`,
		`</api/crud/views>; rel="views"`,
		`</api/crud/layers>; rel="layers"`,
	},
	"/api/crud/settings": {
		`</api/crud/groups>; rel="groups"`,
		`</api/crud/views>; rel="views"`,
		`</api/crud/attachment-categories>; rel="attachment-categories"`,
	},
	"/api/crud/groups": {
		`</api/crud/views>; rel="views"`,
		`</api/crud/settings>; rel="settings"`,
	},
	"/api/crud/groups/{id}": {
		`</api/crud/groups>; rel="collection"`,
	},
	"/api/crud/views": {
		`</api/crud/groups>; rel="groups"`,
		`</api/crud/layers>; rel="layers"`,
	},
	"/api/crud/views/{id}": {
		`</api/crud/views>; rel="collection"`,
	},
	"/api/crud/layers": {
		`</api/crud/views>; rel="views"`,
	},
	"/api/crud/layers/{id}": {
		`</api/crud/layers>; rel="collection"`,
	},
	"/api/crud/layers/{layerId}/features/{id}": {
		`</api/crud/layers>; rel="layers"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		// Item endpoints get a self link
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		return v, nil
	}
}
