// Package swagger is generated swag documentation for the CueMap HTTP API.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/cuemap/cuemap"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/memories": {
            "post": {
                "summary": "Create a memory",
                "description": "Stores content indexed by a set of cues.",
                "responses": {
                    "201": { "description": "created" }
                }
            }
        },
        "/memories/{id}": {
            "get": {
                "summary": "Get a memory by id",
                "responses": {
                    "200": { "description": "ok" },
                    "404": { "description": "not found" }
                }
            }
        },
        "/memories/{id}/reinforce": {
            "patch": {
                "summary": "Reinforce a memory",
                "responses": {
                    "200": { "description": "ok" }
                }
            }
        },
        "/recall": {
            "post": {
                "summary": "Recall memories by cue or natural-language query",
                "responses": {
                    "200": { "description": "ok" }
                }
            }
        },
        "/recall/grounded": {
            "post": {
                "summary": "Recall memories into a token-budgeted, citeable context block",
                "responses": {
                    "200": { "description": "ok" }
                }
            }
        },
        "/stats": {
            "get": {
                "summary": "Tenant stats",
                "responses": {
                    "200": { "description": "ok" }
                }
            }
        },
        "/aliases": {
            "post": {
                "summary": "Declare a weighted alias",
                "responses": {
                    "201": { "description": "created" }
                }
            },
            "get": {
                "summary": "List a cue's aliases",
                "responses": {
                    "200": { "description": "ok" }
                }
            }
        },
        "/aliases/merge": {
            "post": {
                "summary": "Merge several cues into one alias target",
                "responses": {
                    "200": { "description": "ok" }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "CueMap API",
	Description:      "Temporal-associative memory store: cue-indexed recall with reinforcement, pattern completion, and grounded retrieval.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
