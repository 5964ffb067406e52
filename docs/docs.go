// Package docs holds the swagger document served at /swagger/index.html.
// Keep it in step with the controller annotations when routes change.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Service info",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/health": {
            "get": {
                "description": "Probes the LLM. A degraded oracle still answers 200 since fallback content keeps the service usable.",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/util.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/service.HealthStatus"}}}
                            ]
                        }
                    }
                }
            }
        },
        "/api/tests/generate": {
            "post": {
                "description": "Generates questions with the LLM, falling back to the built-in bank when it is slow or unusable",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tests"],
                "summary": "Generate a test",
                "parameters": [
                    {
                        "description": "Test parameters",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.GenerateTestRequest"}
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/util.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.Test"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/util.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/tests/grade": {
            "post": {
                "description": "Multiple-choice answers are matched exactly, code and text answers are scored by the LLM",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tests"],
                "summary": "Grade a test",
                "parameters": [
                    {
                        "description": "Answers",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.GradeTestRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/util.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.GradeResult"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/tests/sample": {
            "get": {
                "description": "Beginner test on the default topic: 5 mcq, 3 code or 3 text questions",
                "produces": ["application/json"],
                "tags": ["tests"],
                "summary": "Generate a sample test",
                "parameters": [
                    {
                        "enum": ["mcq", "code", "text"],
                        "type": "string",
                        "default": "mcq",
                        "description": "Question type",
                        "name": "type",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/util.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.Test"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/tests/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tests"],
                "summary": "Get a test",
                "parameters": [
                    {"type": "string", "description": "Test ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/util.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.Test"}}}
                            ]
                        }
                    },
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        }
    },
    "definitions": {
        "model.Answer": {
            "type": "object",
            "required": ["question_id"],
            "properties": {
                "answer": {"type": "string"},
                "question_id": {"type": "string"}
            }
        },
        "model.GradeResult": {
            "type": "object",
            "properties": {
                "certificate_eligible": {"type": "boolean"},
                "correct_answers": {"type": "integer"},
                "feedback": {"type": "array", "items": {"$ref": "#/definitions/model.QuestionFeedback"}},
                "grade": {"type": "string"},
                "graded_at": {"type": "string"},
                "max_possible_points": {"type": "integer"},
                "message": {"type": "string"},
                "overall_score": {"type": "number"},
                "passed": {"type": "boolean"},
                "questions_graded": {"type": "integer"},
                "student_id": {"type": "string"},
                "test_id": {"type": "string"},
                "test_total_points": {"type": "integer"},
                "test_type": {"type": "string"},
                "total_points": {"type": "integer"}
            }
        },
        "model.Question": {
            "type": "object",
            "properties": {
                "correct": {"type": "string"},
                "explanation": {"type": "string"},
                "id": {"type": "string"},
                "options": {"type": "object", "additionalProperties": {"type": "string"}},
                "points": {"type": "integer"},
                "question": {"type": "string"},
                "solution": {"type": "string"},
                "template": {"type": "string"},
                "test_cases": {"type": "array", "items": {"$ref": "#/definitions/model.TestCase"}},
                "type": {"type": "string"}
            }
        },
        "model.QuestionFeedback": {
            "type": "object",
            "properties": {
                "correct": {"type": "boolean"},
                "explanation": {"type": "string"},
                "max_points": {"type": "integer"},
                "points_earned": {"type": "integer"},
                "question_id": {"type": "string"},
                "score": {"type": "number"},
                "state": {"type": "string"}
            }
        },
        "model.Test": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "difficulty": {"type": "string"},
                "fallback_used": {"type": "boolean"},
                "question_count": {"type": "integer"},
                "questions": {"type": "array", "items": {"$ref": "#/definitions/model.Question"}},
                "test_id": {"type": "string"},
                "topic": {"type": "string"},
                "total_points": {"type": "integer"},
                "type": {"type": "string"}
            }
        },
        "model.TestCase": {
            "type": "object",
            "properties": {
                "expected": {"type": "string"},
                "input": {"type": "string"}
            }
        },
        "service.GenerateTestRequest": {
            "type": "object",
            "properties": {
                "difficulty": {"type": "string", "example": "beginner"},
                "question_count": {"type": "integer", "example": 5},
                "topic": {"type": "string", "example": "Python"},
                "type": {"type": "string", "example": "mcq"}
            }
        },
        "service.GradeTestRequest": {
            "type": "object",
            "required": ["test_id"],
            "properties": {
                "answers": {"type": "array", "items": {"$ref": "#/definitions/model.Answer"}},
                "code_answers": {"type": "array", "items": {"$ref": "#/definitions/model.Answer"}},
                "mcq_answers": {"type": "array", "items": {"$ref": "#/definitions/model.Answer"}},
                "student_id": {"type": "string", "example": "student-42"},
                "test_id": {"type": "string"},
                "text_answers": {"type": "array", "items": {"$ref": "#/definitions/model.Answer"}}
            }
        },
        "service.HealthStatus": {
            "type": "object",
            "properties": {
                "model": {"type": "string"},
                "oracle_connected": {"type": "boolean"},
                "reply": {"type": "string"},
                "status": {"type": "string"},
                "tests_in_memory": {"type": "integer"}
            }
        },
        "util.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Skill Assessment API",
	Description:      "Generates and grades programming skill assessments with an LLM, with built-in fallback questions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
