// Package docs registers the Swagger document served under /swagger.
// The document is written by hand and only lists operations; request and
// response bodies are described on the handlers.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/trading-accounts": {
            "get": {"tags": ["trading-accounts"], "summary": "List trading accounts", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["trading-accounts"], "summary": "Register a trading account", "responses": {"201": {"description": "Created"}}}
        },
        "/market/price/{symbol}": {
            "get": {"tags": ["market"], "summary": "Get the current price of a symbol",
                "parameters": [{"type": "string", "description": "Stock code", "name": "symbol", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/balance": {
            "get": {"tags": ["market"], "summary": "Get account holdings", "responses": {"200": {"description": "OK"}}}
        },
        "/news": {
            "get": {"tags": ["market"], "summary": "Get news for a symbol", "responses": {"200": {"description": "OK"}}}
        },
        "/orders": {
            "get": {"tags": ["orders"], "summary": "List orders", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["orders"], "summary": "Place a cash order", "responses": {"201": {"description": "Created"}}}
        },
        "/strategies": {
            "get": {"tags": ["strategies"], "summary": "List strategies", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["strategies"], "summary": "Create a strategy", "responses": {"201": {"description": "Created"}}}
        },
        "/strategies/{id}": {
            "get": {"tags": ["strategies"], "summary": "Get a strategy by ID",
                "parameters": [{"type": "integer", "description": "Strategy ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["strategies"], "summary": "Update a strategy",
                "parameters": [{"type": "integer", "description": "Strategy ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["strategies"], "summary": "Delete a strategy",
                "parameters": [{"type": "integer", "description": "Strategy ID", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}}
        },
        "/strategies/{id}/evaluate": {
            "post": {"tags": ["strategies"], "summary": "Evaluate a strategy now",
                "parameters": [{"type": "integer", "description": "Strategy ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/signals/vwap": {
            "post": {"tags": ["signals"], "summary": "Compute VWAP, bands and a signal", "responses": {"200": {"description": "OK"}}}
        },
        "/signals/risk": {
            "post": {"tags": ["signals"], "summary": "Check stop loss and take profit", "responses": {"200": {"description": "OK"}}}
        },
        "/system/status": {
            "get": {"tags": ["system"], "summary": "Get system status", "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "KIS Trading API",
	Description:      "VWAP trading service on the Korea Investment & Securities Open API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
