// Package docs holds the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "SiteLens Maintainers",
            "url": "https://github.com/raysh454/sitelens"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/scan": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["scan"],
                "summary": "Basic scan",
                "description": "Fetches the page over plain HTTP and returns the website overview.",
                "parameters": [
                    {"description": "Scan target", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.ScanRequestBody"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "405": {"description": "Method Not Allowed", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "408": {"description": "Request Timeout", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/api/advanced-scan": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["scan"],
                "summary": "Rendered scan",
                "description": "Loads the page in a headless browser and returns the website overview with console errors and screenshots.",
                "parameters": [
                    {"description": "Scan target", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.ScanRequestBody"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "408": {"description": "Request Timeout", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/jobs/scan": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Start a background scan",
                "parameters": [
                    {"description": "Scan target", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.ScanRequestBody"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "List jobs",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object"}}}}
            }
        },
        "/jobs/{jobID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Get a job",
                "parameters": [{"type": "string", "description": "Job ID", "name": "jobID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["jobs"],
                "summary": "Cancel a job",
                "parameters": [{"type": "string", "description": "Job ID", "name": "jobID", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/scans": {
            "get": {
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "List stored scans",
                "parameters": [
                    {"type": "string", "description": "Site host", "name": "site", "in": "query"},
                    {"type": "integer", "description": "Maximum results", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object"}}}}
            }
        },
        "/scans/{scanID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Get a stored scan",
                "parameters": [{"type": "string", "description": "Scan ID", "name": "scanID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/scans/{baseID}/diff/{headID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Diff two scans of the same site",
                "parameters": [
                    {"type": "string", "description": "Older scan ID", "name": "baseID", "in": "path", "required": true},
                    {"type": "string", "description": "Newer scan ID", "name": "headID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/proxy": {
            "get": {
                "produces": ["text/html"],
                "tags": ["preview"],
                "summary": "Framable preview of a page",
                "parameters": [{"type": "string", "description": "Page URL", "name": "url", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "Rewritten HTML"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Liveness",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/server.HealthResponse"}}}
            }
        }
    },
    "definitions": {
        "server.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string", "example": "Invalid URL format"}}
        },
        "server.HealthResponse": {
            "type": "object",
            "properties": {"status": {"type": "string", "example": "ok"}}
        },
        "server.ScanRequestBody": {
            "type": "object",
            "properties": {
                "url": {"type": "string", "example": "https://example.com"},
                "deepScan": {"type": "boolean", "example": false},
                "skipScreenshots": {"type": "boolean", "example": false},
                "skipWhois": {"type": "boolean", "example": false},
                "mode": {"type": "string", "example": "basic"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "SiteLens API",
	Description:      "Website overview scans: technology, security headers, DNS, WHOIS, performance estimates and scan history.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
