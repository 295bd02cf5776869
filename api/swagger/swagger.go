package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Graduate Administration API",
        "description": "Students, faculty, courses, semesters, jobs, grades, forms and notes of a graduate department, with spreadsheet import.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http"],
    "tags": [
        {"name": "Entities", "description": "CRUD for every entity kind. {resource} is one of admins, faculty, students, courses, semesters, jobs, grades, forms, notes"},
        {"name": "Students", "description": "Job history, grades, forms and notes of one student"},
        {"name": "Imports", "description": "Spreadsheet import and templates"},
        {"name": "Exports", "description": "CSV and PDF list exports"}
    ],
    "paths": {
        "/{resource}": {
            "get": {
                "tags": ["Entities"],
                "summary": "List entities matching a partial filter",
                "description": "Any declared field may be passed as a query parameter. Search fields (lastName, name, description, title) match case-insensitive substrings. Jobs also accept courseSemester.",
                "parameters": [
                    {"$ref": "#/parameters/resource"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid filter value", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Entities"],
                "summary": "Create an entity",
                "description": "Accepts a JSON object or a urlencoded/multipart form post.",
                "consumes": ["application/json", "application/x-www-form-urlencoded", "multipart/form-data"],
                "parameters": [
                    {"$ref": "#/parameters/resource"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "MISSING_REQUIRED_FIELD, INVALID_FORMAT or VALIDATION_ERROR", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "DUPLICATE_ENTITY", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/{resource}/{id}": {
            "get": {
                "tags": ["Entities"],
                "summary": "Get an entity with references populated",
                "parameters": [{"$ref": "#/parameters/resource"}, {"$ref": "#/parameters/id"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "NOT_FOUND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Entities"],
                "summary": "Replace an entity",
                "parameters": [
                    {"$ref": "#/parameters/resource"},
                    {"$ref": "#/parameters/id"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "NOT_FOUND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Entities"],
                "summary": "Delete an entity",
                "parameters": [{"$ref": "#/parameters/resource"}, {"$ref": "#/parameters/id"}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "NOT_FOUND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "REFERENTIAL_INTEGRITY_VIOLATION", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/{resource}/{id}/dependents": {
            "get": {
                "tags": ["Entities"],
                "summary": "List every relationship blocking deletion",
                "parameters": [{"$ref": "#/parameters/resource"}, {"$ref": "#/parameters/id"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/DependentsReport"}}
                }
            }
        },
        "/students/{id}/jobs/{jobId}": {
            "post": {
                "tags": ["Students"],
                "summary": "Add a job to the job history",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "jobId", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Added"}, "404": {"description": "NOT_FOUND"}}
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Remove a job from the job history",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "jobId", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Removed"}}
            }
        },
        "/students/{id}/grades/{gradeId}": {
            "post": {
                "tags": ["Students"],
                "summary": "Add a grade",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "gradeId", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Added"}, "404": {"description": "NOT_FOUND"}}
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Remove a grade",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "gradeId", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Removed"}}
            }
        },
        "/students/{id}/forms": {
            "get": {
                "tags": ["Students"],
                "summary": "Forms filed for a student",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/{id}/notes": {
            "get": {
                "tags": ["Students"],
                "summary": "Notes attached to a student",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/imports": {
            "post": {
                "tags": ["Imports"],
                "summary": "Import a spreadsheet",
                "description": "The first worksheet is read; its first two rows are ignored. Small sheets return the report (200); larger sheets are queued (202).",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "kind", "in": "formData", "required": true, "type": "string", "enum": ["course", "job", "faculty", "semester", "student"]},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Imported", "schema": {"$ref": "#/definitions/ImportReport"}},
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ImportJob"}},
                    "400": {"description": "Invalid upload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/imports/{id}": {
            "get": {
                "tags": ["Imports"],
                "summary": "Poll a queued import",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ImportJob"}},
                    "404": {"description": "NOT_FOUND"}
                }
            }
        },
        "/imports/templates/{kind}": {
            "get": {
                "tags": ["Imports"],
                "summary": "Download an empty import sheet",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [{"name": "kind", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "xlsx file"}}
            }
        },
        "/courses/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export courses",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"$ref": "#/parameters/format"}],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/students/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export students",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"$ref": "#/parameters/format"}],
                "responses": {"200": {"description": "File"}}
            }
        }
    },
    "parameters": {
        "resource": {
            "name": "resource", "in": "path", "required": true, "type": "string",
            "enum": ["admins", "faculty", "students", "courses", "semesters", "jobs", "grades", "forms", "notes"]
        },
        "id": {"name": "id", "in": "path", "required": true, "type": "string"},
        "format": {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        },
        "Violation": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "path": {"type": "string"},
                "count": {"type": "integer"}
            }
        },
        "DependentsReport": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "id": {"type": "string"},
                "deletable": {"type": "boolean"},
                "violations": {"type": "array", "items": {"$ref": "#/definitions/Violation"}}
            }
        },
        "RowResult": {
            "type": "object",
            "properties": {
                "row": {"type": "integer"},
                "status": {"type": "string", "enum": ["created", "skipped", "failed"]},
                "entityId": {"type": "string"},
                "code": {"type": "string", "enum": ["MISSING_REQUIRED_FIELD", "MALFORMED_IMPORT_ROW", "INVALID_FORMAT", "DUPLICATE_ENTITY", "VALIDATION_ERROR", "INTERNAL_ERROR"]},
                "error": {"type": "string"}
            }
        },
        "ImportReport": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "total": {"type": "integer"},
                "created": {"type": "integer"},
                "skipped": {"type": "integer"},
                "failed": {"type": "integer"},
                "rows": {"type": "array", "items": {"$ref": "#/definitions/RowResult"}},
                "errors": {"type": "array", "items": {"type": "string"}},
                "duration": {"type": "string"}
            }
        },
        "ImportJob": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "kind": {"type": "string"},
                "filename": {"type": "string"},
                "status": {"type": "string", "enum": ["queued", "processing", "completed", "failed"]},
                "rows": {"type": "integer"},
                "report": {"$ref": "#/definitions/ImportReport"},
                "error": {"type": "string"}
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
