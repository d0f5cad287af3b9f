// Package docs registra la definición OpenAPI servida en /swagger/doc.json.
// Se regenera con `swag init -g cmd/api/main.go`.
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
        "/medications": {
            "get": {
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "Listar medicaciones",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/medications.MedicationResponse"}}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "Crear medicación",
                "parameters": [{"description": "Datos de la medicación", "name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/medications.MedicationResponse"}},
                    "400": {"description": "invalid json / validación", "schema": {"type": "string"}},
                    "409": {"description": "conflict", "schema": {"type": "string"}}
                }
            }
        },
        "/medications/{medicationID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "Obtener medicación",
                "parameters": [{"type": "string", "description": "ID de la medicación", "name": "medicationID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/medications.MedicationResponse"}},
                    "404": {"description": "medication not found", "schema": {"type": "string"}}
                }
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "Editar medicación",
                "parameters": [
                    {"type": "string", "description": "ID de la medicación", "name": "medicationID", "in": "path", "required": true},
                    {"description": "Campos a modificar", "name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/medications.MedicationResponse"}},
                    "400": {"description": "validación", "schema": {"type": "string"}},
                    "404": {"description": "medication not found", "schema": {"type": "string"}},
                    "409": {"description": "conflict", "schema": {"type": "string"}}
                }
            },
            "delete": {
                "tags": ["medications"],
                "summary": "Eliminar medicación",
                "parameters": [{"type": "string", "description": "ID de la medicación", "name": "medicationID", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "medication not found", "schema": {"type": "string"}}}
            }
        },
        "/medications/{medicationID}/stock": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "Fijar stock",
                "parameters": [
                    {"type": "string", "description": "ID de la medicación", "name": "medicationID", "in": "path", "required": true},
                    {"description": "Nuevo stock", "name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"stock": {"type": "integer"}}}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/medications.MedicationResponse"}}}
            }
        },
        "/medications/{medicationID}/doses": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["doses"],
                "summary": "Marcar toma",
                "parameters": [
                    {"type": "string", "description": "ID de la medicación", "name": "medicationID", "in": "path", "required": true},
                    {"description": "Horario (HH:MM) y fecha opcional (YYYY-MM-DD)", "name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"time": {"type": "string"}, "date": {"type": "string"}}}}
                ],
                "responses": {
                    "200": {"description": "already_recorded"},
                    "201": {"description": "recorded"},
                    "400": {"description": "horario no programado", "schema": {"type": "string"}},
                    "404": {"description": "medication not found", "schema": {"type": "string"}}
                }
            }
        },
        "/medications/{medicationID}/doses/all": {
            "post": {
                "produces": ["application/json"],
                "tags": ["doses"],
                "summary": "Marcar todas las tomas pendientes del día",
                "parameters": [{"type": "string", "description": "ID de la medicación", "name": "medicationID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/medications/{medicationID}/timeline": {
            "get": {
                "produces": ["application/json"],
                "tags": ["schedule"],
                "summary": "Timeline de una medicación",
                "parameters": [
                    {"type": "string", "description": "ID de la medicación", "name": "medicationID", "in": "path", "required": true},
                    {"type": "string", "enum": ["past", "next"], "description": "past: últimos días hasta hoy (default); next: próximos días desde hoy", "name": "direction", "in": "query"},
                    {"type": "string", "description": "Primer día (YYYY-MM-DD), ignora direction", "name": "from", "in": "query"},
                    {"type": "integer", "description": "Cantidad de días (máx. 92)", "name": "days", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/doses": {
            "get": {
                "produces": ["application/json"],
                "tags": ["doses"],
                "summary": "Listar tomas registradas",
                "parameters": [
                    {"type": "string", "description": "Día (YYYY-MM-DD)", "name": "date", "in": "query"},
                    {"type": "string", "description": "Desde (YYYY-MM-DD)", "name": "from", "in": "query"},
                    {"type": "string", "description": "Hasta (YYYY-MM-DD)", "name": "to", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/schedule/agenda": {
            "get": {
                "produces": ["application/json"],
                "tags": ["schedule"],
                "summary": "Agenda del día",
                "parameters": [{"type": "string", "description": "Día (YYYY-MM-DD), default hoy", "name": "date", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "fecha inválida", "schema": {"type": "string"}}}
            }
        },
        "/schedule/forecast": {
            "get": {
                "produces": ["application/json"],
                "tags": ["schedule"],
                "summary": "Proyección de stock",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Historial del catálogo",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/history/changes": {
            "get": {
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Cambios entre snapshots",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/adherence": {
            "get": {
                "produces": ["application/json"],
                "tags": ["adherence"],
                "summary": "Resumen de adherencia",
                "parameters": [
                    {"type": "string", "description": "Desde (YYYY-MM-DD)", "name": "from", "in": "query"},
                    {"type": "string", "description": "Hasta (YYYY-MM-DD)", "name": "to", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "rango inválido", "schema": {"type": "string"}}}
            }
        },
        "/export/doses.csv": {
            "get": {"produces": ["text/csv"], "tags": ["transfer"], "summary": "Exportar tomas", "responses": {"200": {"description": "archivo CSV", "schema": {"type": "string"}}}}
        },
        "/export/history.csv": {
            "get": {"produces": ["text/csv"], "tags": ["transfer"], "summary": "Exportar historial", "responses": {"200": {"description": "archivo CSV", "schema": {"type": "string"}}}}
        },
        "/export/medications.csv": {
            "get": {"produces": ["text/csv"], "tags": ["transfer"], "summary": "Exportar catálogo", "responses": {"200": {"description": "archivo CSV", "schema": {"type": "string"}}}}
        },
        "/import": {
            "post": {
                "consumes": ["text/csv", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["transfer"],
                "summary": "Importar medicaciones",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "archivo inválido", "schema": {"type": "string"}},
                    "409": {"description": "conflict", "schema": {"type": "string"}},
                    "413": {"description": "file too large", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "medications.MedicationResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "dosage": {"type": "integer"},
                "times": {"type": "array", "items": {"type": "string"}},
                "reminders": {"type": "array", "items": {"type": "boolean"}},
                "notes": {"type": "string"},
                "stock": {"type": "integer"},
                "low_stock": {"type": "boolean"},
                "recurrence": {
                    "type": "object",
                    "properties": {
                        "kind": {"type": "string", "enum": ["daily", "period"]},
                        "start": {"type": "string"},
                        "end": {"type": "string"}
                    }
                },
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
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
	Title:            "Medication Tracker API",
	Description:      "Catálogo de medicaciones, registro de tomas, agenda, adherencia e historial de cambios.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
