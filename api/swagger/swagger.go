package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Booking Page API",
        "description": "Hosts booking pages: field validation, slot availability and form submission",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Pages", "description": "Booking page lifecycle and submission"},
        {"name": "Fields", "description": "Form control events"},
        {"name": "Slots", "description": "Preset time slot buttons"},
        {"name": "Ops", "description": "Operational counters"}
    ],
    "paths": {
        "/pages": {
            "post": {
                "tags": ["Pages"],
                "summary": "Open a booking page",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/OpenPageRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid prefill", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pages/{id}": {
            "get": {
                "tags": ["Pages"],
                "summary": "Get page state",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Page not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Pages"],
                "summary": "Navigate away from a page",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Closed"},
                    "404": {"description": "Page not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pages/{id}/fields/{field}/focus": {
            "post": {
                "tags": ["Fields"],
                "summary": "Focus a form control",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "field", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pages/{id}/fields/{field}/blur": {
            "post": {
                "tags": ["Fields"],
                "summary": "Blur and validate a form control",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "field", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pages/{id}/fields/{field}/input": {
            "post": {
                "tags": ["Fields"],
                "summary": "Type into a form control",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "field", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FieldEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown field", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pages/{id}/fields/{field}/change": {
            "post": {
                "tags": ["Fields"],
                "summary": "Commit a form control value",
                "description": "A date change requests availability for the new date; date and time changes run the lead-time check.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "field", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FieldEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown field", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pages/{id}/slots/{slot}/select": {
            "post": {
                "tags": ["Slots"],
                "summary": "Click a preset time slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "slot", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pages/{id}/submit": {
            "post": {
                "tags": ["Pages"],
                "summary": "Submit the booking form",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Prevented or forwarded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Booking backend unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/stats": {
            "get": {
                "tags": ["Ops"],
                "summary": "Page host counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "OpenPageRequest": {
            "type": "object",
            "properties": {
                "currentUserEmail": {"type": "string"}
            }
        },
        "FieldEventRequest": {
            "type": "object",
            "properties": {
                "value": {"type": "string"}
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
