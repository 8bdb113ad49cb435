package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Shift Ops API",
        "description": "Hospital shift scheduling, swap approval and compliance service",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login and token issuance"},
        {"name": "Shifts", "description": "Shift assignment roster"},
        {"name": "Swaps", "description": "Shift swap request approval chain"},
        {"name": "Restrictions", "description": "Validation, optimization and compliance"},
        {"name": "Notifications", "description": "Per-user notification feed"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/shifts": {
            "get": {
                "tags": ["Shifts"],
                "summary": "List shift assignments",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "employeeId", "in": "query", "type": "string"},
                    {"name": "location", "in": "query", "type": "string"},
                    {"name": "dateFrom", "in": "query", "type": "string"},
                    {"name": "dateTo", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Shifts"],
                "summary": "Create a shift assignment after rule validation",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ShiftCandidate"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Rule violation"}
                }
            }
        },
        "/shifts/{id}": {
            "get": {
                "tags": ["Shifts"],
                "summary": "Get one shift assignment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Shifts"],
                "summary": "Delete a shift assignment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/shift-swap-requests": {
            "post": {
                "tags": ["Swaps"],
                "summary": "Create a shift swap request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSwapRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            },
            "get": {
                "tags": ["Swaps"],
                "summary": "List swap requests visible to the caller",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/shift-swap-requests/{id}": {
            "get": {
                "tags": ["Swaps"],
                "summary": "Get one swap request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "patch": {
                "tags": ["Swaps"],
                "summary": "Advance a swap request through its approval chain",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSwapStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Transition not permitted"}
                }
            },
            "delete": {
                "tags": ["Swaps"],
                "summary": "Withdraw a swap request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Withdrawn"},
                    "403": {"description": "Not the requester"}
                }
            }
        },
        "/shift-restrictions/validate": {
            "post": {
                "tags": ["Restrictions"],
                "summary": "Validate one proposed shift assignment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ShiftCandidate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/shift-restrictions/validate-bulk": {
            "post": {
                "tags": ["Restrictions"],
                "summary": "Validate a batch of proposed shifts in order",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkValidationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/shift-restrictions/optimize": {
            "post": {
                "tags": ["Restrictions"],
                "summary": "Generate an optimized schedule proposal",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OptimizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/shift-restrictions/optimize/commit": {
            "post": {
                "tags": ["Restrictions"],
                "summary": "Persist a generated schedule proposal",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CommitScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "404": {"description": "Proposal not found or expired"}
                }
            }
        },
        "/shift-restrictions/rules": {
            "get": {
                "tags": ["Restrictions"],
                "summary": "Get the active scheduling policy",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/shift-restrictions/workload": {
            "get": {
                "tags": ["Restrictions"],
                "summary": "Get an employee workload snapshot for a month",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "employeeId", "in": "query", "required": true, "type": "string"},
                    {"name": "month", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/shift-restrictions/compliance-report": {
            "get": {
                "tags": ["Restrictions"],
                "summary": "Compliance report over a period",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "startDate", "in": "query", "required": true, "type": "string"},
                    {"name": "endDate", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List the caller's notifications",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "unread", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/notifications/{id}/read": {
            "patch": {
                "tags": ["Notifications"],
                "summary": "Mark one notification as read",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Marked"},
                    "404": {"description": "Not found"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "ShiftCandidate": {
            "type": "object",
            "properties": {
                "employeeId": {"type": "string"},
                "date": {"type": "string", "example": "2024-07-01"},
                "startTime": {"type": "string", "example": "07:00"},
                "endTime": {"type": "string", "example": "15:00"},
                "crossesMidnight": {"type": "boolean"},
                "location": {"type": "string"},
                "shiftType": {"type": "string"},
                "requiredRole": {"type": "string"}
            },
            "required": ["employeeId", "date", "startTime", "endTime", "location", "shiftType"]
        },
        "BulkValidationRequest": {
            "type": "object",
            "properties": {
                "candidates": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ShiftCandidate"}
                }
            },
            "required": ["candidates"]
        },
        "OptimizeRequest": {
            "type": "object",
            "properties": {
                "requirements": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ShiftRequirement"}
                }
            },
            "required": ["requirements"]
        },
        "ShiftRequirement": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "location": {"type": "string"},
                "shiftType": {"type": "string"},
                "requiredCount": {"type": "integer"},
                "preferredRoles": {"type": "array", "items": {"type": "string"}},
                "priority": {"type": "string", "enum": ["URGENT", "HIGH", "NORMAL", "LOW"]}
            },
            "required": ["date", "location", "shiftType", "requiredCount"]
        },
        "CommitScheduleRequest": {
            "type": "object",
            "properties": {
                "proposalId": {"type": "string"}
            },
            "required": ["proposalId"]
        },
        "CreateSwapRequest": {
            "type": "object",
            "properties": {
                "targetId": {"type": "string"},
                "requesterShiftId": {"type": "string"},
                "targetShiftId": {"type": "string"},
                "reason": {"type": "string"}
            },
            "required": ["targetId", "requesterShiftId", "reason"]
        },
        "UpdateSwapStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "approved"}
            },
            "required": ["status"]
        },
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
