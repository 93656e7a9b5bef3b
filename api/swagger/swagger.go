package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Portal API",
        "description": "Session-aware school management API: attendance, fees, content and dashboards.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": ["http", "https"],
    "tags": [
        {"name": "Auth"},
        {"name": "Attendance"},
        {"name": "Payments"},
        {"name": "Students"},
        {"name": "Users"},
        {"name": "Announcements"},
        {"name": "Media"},
        {"name": "Website"},
        {"name": "Dashboards"},
        {"name": "Exports"},
        {"name": "Health"}
    ],
    "paths": {
        "/health": {
            "get": {"tags": ["Health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "A dependency is down", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/metrics": {
            "get": {"tags": ["Health"], "summary": "Prometheus metrics", "responses": {"200": {"description": "OK"}}}
        },
        "/": {
            "get": {
                "tags": ["Website"],
                "summary": "Public homepage",
                "description": "Site settings, active theme, visible sections, published announcements, gallery, links and events.",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/media/{path}": {
            "get": {
                "tags": ["Media"],
                "summary": "Serve an uploaded file",
                "parameters": [{"name": "path", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download an export through its signed token",
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Export file expired", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/auth/login": {
            "get": {"tags": ["Auth"], "summary": "Login page state", "responses": {"200": {"description": "OK"}}},
            "post": {
                "tags": ["Auth"],
                "summary": "Log in and receive the session cookie",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {
                        "description": "Invalid email or password",
                        "schema": {"$ref": "#/definitions/ErrorBody"}
                    }
                }
            }
        },
        "/auth/sign-up": {
            "get": {"tags": ["Auth"], "summary": "Sign-up page state", "responses": {"200": {"description": "OK"}}},
            "post": {
                "tags": ["Auth"],
                "summary": "Self-service sign-up",
                "description": "The new account is always a student; any role in the body is ignored.",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/SignUpRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate the refresh token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "End the session",
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current principal",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/admin": {
            "get": {
                "tags": ["Dashboards"],
                "summary": "Admin dashboard",
                "responses": {
                    "200": {
                        "description": "OK (303 to /auth/login or / when not an admin)",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/admin/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance marking page",
                "parameters": [
                    {"name": "class", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/parent": {
            "get": {
                "tags": ["Dashboards"],
                "summary": "Parent dashboard",
                "parameters": [{"name": "child", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/student": {
            "get": {
                "tags": ["Dashboards"],
                "summary": "Student dashboard",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/admin/attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark attendance",
                "description": "Upserts every record keyed by (student_id, date). The batch is all-or-nothing.",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/MarkAttendanceRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SuccessFlag"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/attendance/history": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance history",
                "parameters": [
                    {"name": "startDate", "in": "query", "type": "string", "required": true},
                    {"name": "endDate", "in": "query", "type": "string", "required": true},
                    {"name": "class", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/attendance/students": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Class roster with existing marks",
                "parameters": [
                    {"name": "class", "in": "query", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/attendance/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue an attendance export",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ExportRequest"}
                    }
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create an account with an explicit role",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateUserRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/register/student": {
            "post": {
                "tags": ["Users"],
                "summary": "Register a student login and record",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/register/parent": {
            "post": {
                "tags": ["Users"],
                "summary": "Register a parent linked to a student",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "class", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create student",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/students/{id}": {
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete student",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/payments": {
            "get": {
                "tags": ["Payments"],
                "summary": "List payments with totals",
                "description": "totalPending sums pending and overdue amounts; totalPaid sums paid amounts.",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "student_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "post": {
                "tags": ["Payments"],
                "summary": "Create payment",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreatePaymentRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/payments/{id}": {
            "put": {
                "tags": ["Payments"],
                "summary": "Mark a payment paid",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "409": {"description": "Already paid", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/payments/reminder": {
            "post": {
                "tags": ["Payments"],
                "summary": "Send fee reminders",
                "description": "One reminder per pending or overdue payment, skipping payments reminded within the cooldown.",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/SendReminderRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ReminderResult"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/announcements": {
            "get": {
                "tags": ["Announcements"],
                "summary": "List announcements",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "post": {
                "tags": ["Announcements"],
                "summary": "Create announcement",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/announcements/{id}": {
            "delete": {
                "tags": ["Announcements"],
                "summary": "Delete announcement",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/gallery": {
            "get": {
                "tags": ["Media"],
                "summary": "List gallery images",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/gallery/upload": {
            "post": {
                "tags": ["Media"],
                "summary": "Upload a gallery image",
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true},
                    {"name": "title", "in": "formData", "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "415": {"description": "Unsupported media type", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/gallery/{id}": {
            "delete": {
                "tags": ["Media"],
                "summary": "Delete a gallery image",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/upload": {
            "post": {
                "tags": ["Media"],
                "summary": "Upload a file",
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true},
                    {"name": "folder", "in": "formData", "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "415": {"description": "Unsupported media type", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/metrics/snapshot": {
            "get": {
                "tags": ["Health"],
                "summary": "Metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/website-builder": {
            "get": {
                "tags": ["Website"],
                "summary": "Builder state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/website-builder/theme": {
            "post": {
                "tags": ["Website"],
                "summary": "Save or activate a theme version",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/website-builder/settings": {
            "put": {
                "tags": ["Website"],
                "summary": "Update site settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/website-builder/sections": {
            "post": {
                "tags": ["Website"],
                "summary": "Reorder and toggle homepage sections",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/website-builder/links": {
            "post": {
                "tags": ["Website"],
                "summary": "Create link",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/website-builder/links/{id}": {
            "delete": {
                "tags": ["Website"],
                "summary": "Delete link",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/website-builder/buttons": {
            "post": {
                "tags": ["Website"],
                "summary": "Create button",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/website-builder/buttons/{id}": {
            "delete": {
                "tags": ["Website"],
                "summary": "Delete button",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/website-builder/events": {
            "post": {
                "tags": ["Website"],
                "summary": "Create event",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/website-builder/events/{id}": {
            "delete": {
                "tags": ["Website"],
                "summary": "Delete event",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}},
            "required": ["email", "password"]
        },
        "SignUpRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}, "full_name": {"type": "string"}},
            "required": ["email", "password", "full_name"]
        },
        "CreateUserRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "teacher", "parent", "student"]},
                "password": {"type": "string"}
            },
            "required": ["email", "full_name", "role", "password"]
        },
        "AttendanceRecord": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "status": {"type": "string", "enum": ["present", "absent", "late", "excused"]},
                "notes": {"type": "string"}
            },
            "required": ["student_id", "date", "status"]
        },
        "MarkAttendanceRequest": {
            "type": "object",
            "properties": {"records": {"type": "array", "items": {"$ref": "#/definitions/AttendanceRecord"}}},
            "required": ["records"]
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"},
                "class": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf", "xlsx"]}
            },
            "required": ["start_date", "end_date", "format"]
        },
        "CreatePaymentRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "fee_type": {"type": "string"},
                "amount": {"type": "string", "example": "1500.00"},
                "due_date": {"type": "string", "format": "date"},
                "status": {"type": "string", "enum": ["pending", "paid", "overdue", "partial"]}
            },
            "required": ["student_id", "fee_type", "amount", "due_date"]
        },
        "SendReminderRequest": {"type": "object", "properties": {"student_id": {"type": "string"}}, "required": ["student_id"]},
        "ReminderResult": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "created": {"type": "integer"},
                "skipped": {"type": "array", "items": {"type": "string"}}
            }
        },
        "SuccessFlag": {"type": "object", "properties": {"success": {"type": "boolean"}}},
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "ErrorBody": {"type": "object", "properties": {"error": {"type": "string"}}},
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "object"},
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
