// Package docs registers the OpenAPI document of the campaign listing API
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
        "/api/v1/campaigns": {
            "get": {
                "description": "List campaigns with pagination. Every query parameter besides page, limit and orderby is a filter value.",
                "produces": ["application/json"],
                "tags": ["Campaigns"],
                "summary": "List Campaigns",
                "parameters": [
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size", "name": "limit", "in": "query"},
                    {"type": "string", "description": "newest, oldest, budget_asc, budget_desc or title", "name": "orderby", "in": "query"},
                    {"type": "string", "description": "Title operator (icontains, iexact, istartswith, iendswith)", "name": "title_0", "in": "query"},
                    {"type": "string", "description": "Title value", "name": "title_1", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "Campaign statuses", "name": "status", "in": "query"},
                    {"type": "string", "description": "Segment", "name": "segment", "in": "query"},
                    {"type": "string", "description": "City", "name": "city", "in": "query"},
                    {"type": "string", "description": "Budget operator (exact, gt, gte, lt, lte)", "name": "budget_0", "in": "query"},
                    {"type": "number", "description": "Budget value", "name": "budget_1", "in": "query"},
                    {"type": "number", "description": "Lowest budget", "name": "budget_between_0", "in": "query"},
                    {"type": "number", "description": "Highest budget", "name": "budget_between_1", "in": "query"},
                    {"type": "integer", "description": "1 today, 2 past 7 days, 3 this month, 4 this year", "name": "created", "in": "query"},
                    {"type": "boolean", "description": "Archived", "name": "archived", "in": "query"},
                    {"type": "integer", "description": "Customer ID", "name": "customer", "in": "query"},
                    {"type": "string", "description": "Campaign UUID", "name": "uuid", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Campaigns retrieved successfully", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Invalid pagination, ordering or filter values", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/campaigns/export": {
            "get": {
                "description": "Export every campaign matching the query string filters as an XLSX workbook",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["Campaigns"],
                "summary": "Export Campaigns",
                "parameters": [
                    {"type": "string", "description": "newest, oldest, budget_asc, budget_desc or title", "name": "orderby", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "XLSX workbook", "schema": {"type": "file"}},
                    "400": {"description": "Invalid ordering or filter values", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "413": {"description": "Too many campaigns to export", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/campaigns/filters": {
            "get": {
                "description": "Render the campaign filters as an HTML form fragment, with errors for rejected values",
                "produces": ["text/html"],
                "tags": ["Campaigns"],
                "summary": "Campaign Filter Form",
                "responses": {
                    "200": {"description": "HTML form", "schema": {"type": "string"}}
                }
            }
        },
        "/api/v1/campaigns/{uuid}": {
            "get": {
                "description": "Get a campaign by UUID",
                "produces": ["application/json"],
                "tags": ["Campaigns"],
                "summary": "Get Campaign",
                "parameters": [
                    {"type": "string", "description": "Campaign UUID", "name": "uuid", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Campaign retrieved successfully", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Campaign not found", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check",
                "responses": {
                    "200": {"description": "Service is healthy", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "503": {"description": "A dependency is down", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "dto.ErrorDetail": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {}
            }
        },
        "dto.FilterErrorDetail": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "filter": {"type": "string"},
                "message": {"type": "string"},
                "part": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Filterkit Campaign API",
	Description:      "Filtered campaign listing, filter form and XLSX export",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
