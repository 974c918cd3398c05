// Package docs registers the OpenAPI description served at /swagger.
// Regenerate from the handler annotations with:
//
//	swag init -g cmd/api/main.go -o internal/docs
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
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a new user", "responses": {"201": {"description": "User registered and token generated"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login user", "responses": {"200": {"description": "User authenticated and token generated"}}}},
        "/profile": {"get": {"security": [{"BearerAuth": []}], "tags": ["user"], "summary": "Get user profile", "responses": {"200": {"description": "User profile"}}}},
        "/positions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["positions"], "summary": "Get positions", "responses": {"200": {"description": "Paginated positions"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["positions"], "summary": "Create a position", "responses": {"201": {"description": "Position created"}}}
        },
        "/positions/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["positions"], "summary": "Get position by ID", "responses": {"200": {"description": "Position details"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["positions"], "summary": "Update position", "responses": {"200": {"description": "Updated position"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["positions"], "summary": "Delete position", "responses": {"200": {"description": "Position deleted"}}}
        },
        "/positions/{id}/close": {"post": {"security": [{"BearerAuth": []}], "tags": ["positions"], "summary": "Close position", "responses": {"200": {"description": "Closed position"}}}},
        "/positions/{id}/price": {"put": {"security": [{"BearerAuth": []}], "tags": ["positions"], "summary": "Update position price", "responses": {"200": {"description": "Updated position"}}}},
        "/focus-stocks": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["focus-stocks"], "summary": "Get focus stocks", "responses": {"200": {"description": "Paginated focus stocks"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["focus-stocks"], "summary": "Create a focus stock", "responses": {"201": {"description": "Focus stock created"}}}
        },
        "/focus-stocks/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["focus-stocks"], "summary": "Get focus stock by ID", "responses": {"200": {"description": "Focus stock details"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["focus-stocks"], "summary": "Update focus stock", "responses": {"200": {"description": "Updated focus stock"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["focus-stocks"], "summary": "Delete focus stock", "responses": {"200": {"description": "Focus stock deleted"}}}
        },
        "/focus-stocks/{id}/take": {"post": {"security": [{"BearerAuth": []}], "tags": ["focus-stocks"], "summary": "Mark trade taken", "responses": {"200": {"description": "Focus stock and resulting position"}}}},
        "/focus-stocks/{id}/revert": {"post": {"security": [{"BearerAuth": []}], "tags": ["focus-stocks"], "summary": "Revert trade taken", "responses": {"200": {"description": "Reverted focus stock"}}}},
        "/teams": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["teams"], "summary": "Get teams", "responses": {"200": {"description": "Paginated teams"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["teams"], "summary": "Create a team", "responses": {"201": {"description": "Team created"}}}
        },
        "/teams/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["teams"], "summary": "Get team by ID", "responses": {"200": {"description": "Team details"}}}},
        "/teams/{id}/members": {"post": {"security": [{"BearerAuth": []}], "tags": ["teams"], "summary": "Add team member", "responses": {"201": {"description": "Member added"}}}},
        "/teams/{id}/members/{userId}": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["teams"], "summary": "Update team member role", "responses": {"200": {"description": "Updated member"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["teams"], "summary": "Remove team member", "responses": {"200": {"description": "Member removed"}}}
        },
        "/teams/{id}/report": {"get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Get team report", "responses": {"200": {"description": "Report"}}}},
        "/teams/{id}/trades": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["team-trades"], "summary": "Get team trades", "responses": {"200": {"description": "Paginated trades"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["team-trades"], "summary": "Create a team trade", "responses": {"201": {"description": "Trade created"}}}
        },
        "/teams/{id}/trades/{tradeId}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["team-trades"], "summary": "Get team trade by ID", "responses": {"200": {"description": "Trade details"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["team-trades"], "summary": "Update team trade", "responses": {"200": {"description": "Updated trade"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["team-trades"], "summary": "Delete team trade", "responses": {"200": {"description": "Trade deleted"}}}
        },
        "/teams/{id}/trades/{tradeId}/close": {"post": {"security": [{"BearerAuth": []}], "tags": ["team-trades"], "summary": "Close team trade", "responses": {"200": {"description": "Closed trade"}}}},
        "/teams/{id}/trades/{tradeId}/votes": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["team-trades"], "summary": "Get team trade votes", "responses": {"200": {"description": "Vote tally"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["team-trades"], "summary": "Vote on team trade", "responses": {"200": {"description": "Recorded vote"}}}
        },
        "/reports/me": {"get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Get personal report", "responses": {"200": {"description": "Report"}}}},
        "/ops/quotes/refresh": {"post": {"security": [{"ApiKeyAuth": []}], "tags": ["ops"], "summary": "Refresh quotes", "responses": {"200": {"description": "Refresh outcome"}}}}
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"},
        "BearerAuth": {"description": "Type \"Bearer\" followed by a space and JWT token.", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Tradebook API",
	Description:      "Tradebook is a trading journal that tracks positions, a focus-stock watchlist and team trade books with derived P&L.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
