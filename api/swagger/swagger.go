package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Future Human Journal Content API",
        "description": "Editorial backend: articles, content calendar, scheduled publishing",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Editorial console authentication"},
        {"name": "Articles", "description": "Article drafting and lifecycle"},
        {"name": "Calendar", "description": "Content calendar and scheduling"},
        {"name": "Publisher", "description": "Scheduled-publish loop"},
        {"name": "Analytics", "description": "Dashboard aggregates"},
        {"name": "Reports", "description": "Asynchronous editorial exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Token revoked or expired"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "security": [{"BearerAuth": []}],
                "summary": "Revoke the current session",
                "responses": {"204": {"description": "Logged out"}}
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Auth"],
                "security": [{"BearerAuth": []}],
                "summary": "Change password and revoke other sessions",
                "responses": {"204": {"description": "Password changed"}}
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "security": [{"BearerAuth": []}],
                "summary": "Current user profile",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/articles": {
            "get": {
                "tags": ["Articles"],
                "security": [{"BearerAuth": []}],
                "summary": "List articles",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["draft", "scheduled", "published"]},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Articles"],
                "security": [{"BearerAuth": []}],
                "summary": "Create an article",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateArticleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/articles/{id}": {
            "get": {
                "tags": ["Articles"],
                "security": [{"BearerAuth": []}],
                "summary": "Fetch an article",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Articles"],
                "security": [{"BearerAuth": []}],
                "summary": "Update article content fields",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Articles"],
                "security": [{"BearerAuth": []}],
                "summary": "Delete an article",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/articles/{id}/status": {
            "put": {
                "tags": ["Articles"],
                "security": [{"BearerAuth": []}],
                "summary": "Transition article status",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/calendar/events": {
            "get": {
                "tags": ["Calendar"],
                "security": [{"BearerAuth": []}],
                "summary": "List calendar events",
                "parameters": [
                    {"name": "article_id", "in": "query", "type": "string"},
                    {"name": "pending", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Calendar"],
                "security": [{"BearerAuth": []}],
                "summary": "Create a manual calendar entry",
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/calendar/events/{id}": {
            "put": {
                "tags": ["Calendar"],
                "security": [{"BearerAuth": []}],
                "summary": "Patch a calendar event",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "tags": ["Calendar"],
                "security": [{"BearerAuth": []}],
                "summary": "Delete a calendar event",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/calendar/schedule": {
            "post": {
                "tags": ["Calendar"],
                "security": [{"BearerAuth": []}],
                "summary": "Schedule an existing article or a new draft",
                "description": "Exactly one of article_id or draft must be provided. Drafts are persisted before the calendar entry is written, so every event references a real article id.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Ambiguous source"},
                    "404": {"description": "Article not found"}
                }
            }
        },
        "/publisher/status": {
            "get": {
                "tags": ["Publisher"],
                "security": [{"BearerAuth": []}],
                "summary": "Reconciliation loop status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/publisher/run": {
            "post": {
                "tags": ["Publisher"],
                "security": [{"BearerAuth": []}],
                "summary": "Run one reconciliation pass immediately",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/analytics/summary": {
            "get": {
                "tags": ["Analytics"],
                "security": [{"BearerAuth": []}],
                "summary": "Content dashboard summary",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/analytics/cadence": {
            "get": {
                "tags": ["Analytics"],
                "security": [{"BearerAuth": []}],
                "summary": "Publishing cadence over a trailing window",
                "parameters": [{"name": "window", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "security": [{"BearerAuth": []}],
                "summary": "Request an editorial export",
                "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "security": [{"BearerAuth": []}],
                "summary": "Export job status",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished export via signed token",
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "produces": ["text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Token invalid or expired"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateArticleRequest": {
            "type": "object",
            "required": ["title", "content", "category"],
            "properties": {
                "title": {"type": "string"},
                "slug": {"type": "string"},
                "excerpt": {"type": "string"},
                "content": {"type": "string"},
                "category": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string", "enum": ["draft", "scheduled", "published"]}
            }
        },
        "ScheduleRequest": {
            "type": "object",
            "required": ["scheduled_date", "platform"],
            "properties": {
                "article_id": {"type": "string"},
                "draft": {"$ref": "#/definitions/CreateArticleRequest"},
                "scheduled_date": {"type": "string", "format": "date-time"},
                "scheduled_time": {"type": "string"},
                "platform": {"type": "string"},
                "title": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"type": "object"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
