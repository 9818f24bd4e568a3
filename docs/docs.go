// Package docs registers the OpenAPI description of the recipe API with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/api/user/create/": {
            "post": {
                "tags": ["user"], "summary": "Create a user",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/UserCreate"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/User"}}, "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/api/user/token/": {
            "post": {
                "tags": ["user"], "summary": "Obtain an auth token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/Credentials"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Token"}}, "400": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/api/user/token/refresh/": {
            "post": {
                "tags": ["user"], "summary": "Exchange a refresh token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"type": "object", "properties": {"refresh_token": {"type": "string"}}}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Token"}}, "401": {"description": "Invalid token", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/api/user/me/": {
            "get": {"tags": ["user"], "summary": "Current user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/User"}}}},
            "put": {"tags": ["user"], "summary": "Replace profile", "security": [{"BearerAuth": []}], "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/UserCreate"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/User"}}}},
            "patch": {"tags": ["user"], "summary": "Update profile", "security": [{"BearerAuth": []}], "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/UserCreate"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/User"}}}}
        },
        "/api/user/users/": {
            "get": {"tags": ["user"], "summary": "List users (staff only)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/User"}}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/Error"}}}}
        },
        "/api/recipe/recipes/": {
            "get": {
                "tags": ["recipe"], "summary": "List recipes", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "tags", "type": "string", "description": "Comma separated list of tag IDs to filter"},
                    {"in": "query", "name": "ingredients", "type": "string", "description": "Comma separated list of ingredient IDs to filter"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Recipe"}}}}
            },
            "post": {
                "tags": ["recipe"], "summary": "Create a recipe", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/RecipeInput"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/RecipeDetail"}}}
            }
        },
        "/api/recipe/recipes/{id}/": {
            "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
            "get": {"tags": ["recipe"], "summary": "Recipe detail", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/RecipeDetail"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Error"}}}},
            "put": {"tags": ["recipe"], "summary": "Replace a recipe", "security": [{"BearerAuth": []}], "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/RecipeInput"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/RecipeDetail"}}}},
            "patch": {"tags": ["recipe"], "summary": "Update a recipe", "security": [{"BearerAuth": []}], "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/RecipeInput"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/RecipeDetail"}}}},
            "delete": {"tags": ["recipe"], "summary": "Delete a recipe", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No content"}}}
        },
        "/api/recipe/recipes/{id}/upload-image/": {
            "post": {
                "tags": ["recipe"], "summary": "Upload a recipe image", "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "formData", "name": "image", "type": "file", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/RecipeImage"}}, "400": {"description": "Invalid image", "schema": {"$ref": "#/definitions/Error"}}}
            }
        },
        "/api/recipe/events/": {
            "get": {"tags": ["recipe"], "summary": "Server-sent recipe events", "security": [{"BearerAuth": []}], "produces": ["text/event-stream"], "responses": {"200": {"description": "Event stream"}}}
        },
        "/api/recipe/tags/": {
            "get": {"tags": ["recipe"], "summary": "List tags", "security": [{"BearerAuth": []}], "parameters": [{"in": "query", "name": "assigned_only", "type": "integer", "enum": [0, 1]}], "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Attribute"}}}}}
        },
        "/api/recipe/tags/{id}/": {
            "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
            "put": {"tags": ["recipe"], "summary": "Rename a tag", "security": [{"BearerAuth": []}], "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/AttributeInput"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Attribute"}}}},
            "patch": {"tags": ["recipe"], "summary": "Rename a tag", "security": [{"BearerAuth": []}], "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/AttributeInput"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Attribute"}}}},
            "delete": {"tags": ["recipe"], "summary": "Delete a tag", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No content"}}}
        },
        "/api/recipe/ingredients/": {
            "get": {"tags": ["recipe"], "summary": "List ingredients", "security": [{"BearerAuth": []}], "parameters": [{"in": "query", "name": "assigned_only", "type": "integer", "enum": [0, 1]}], "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Attribute"}}}}}
        },
        "/api/recipe/ingredients/{id}/": {
            "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
            "put": {"tags": ["recipe"], "summary": "Rename an ingredient", "security": [{"BearerAuth": []}], "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/AttributeInput"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Attribute"}}}},
            "patch": {"tags": ["recipe"], "summary": "Rename an ingredient", "security": [{"BearerAuth": []}], "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/AttributeInput"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Attribute"}}}},
            "delete": {"tags": ["recipe"], "summary": "Delete an ingredient", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No content"}}}
        }
    },
    "definitions": {
        "Error": {"type": "object", "properties": {"error": {"type": "string"}, "fields": {"type": "object", "additionalProperties": {"type": "string"}}}},
        "UserCreate": {"type": "object", "required": ["email", "password"], "properties": {"email": {"type": "string"}, "password": {"type": "string", "minLength": 5}, "name": {"type": "string"}}},
        "User": {"type": "object", "properties": {"email": {"type": "string"}, "name": {"type": "string"}}},
        "Credentials": {"type": "object", "required": ["email", "password"], "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "Token": {"type": "object", "properties": {"token": {"type": "string"}, "refresh_token": {"type": "string"}, "expires_in": {"type": "integer"}}},
        "Attribute": {"type": "object", "properties": {"id": {"type": "string"}, "name": {"type": "string"}}},
        "AttributeInput": {"type": "object", "required": ["name"], "properties": {"name": {"type": "string", "maxLength": 255}}},
        "Recipe": {"type": "object", "properties": {
            "id": {"type": "string"}, "title": {"type": "string"}, "time_minutes": {"type": "integer"},
            "price": {"type": "string", "example": "5.25"}, "link": {"type": "string"}, "image": {"type": "string"},
            "tags": {"type": "array", "items": {"$ref": "#/definitions/Attribute"}},
            "ingredients": {"type": "array", "items": {"$ref": "#/definitions/Attribute"}}
        }},
        "RecipeDetail": {"allOf": [{"$ref": "#/definitions/Recipe"}, {"type": "object", "properties": {"description": {"type": "string"}}}]},
        "RecipeInput": {"type": "object", "required": ["title", "time_minutes", "price"], "properties": {
            "title": {"type": "string", "maxLength": 255}, "description": {"type": "string"}, "time_minutes": {"type": "integer", "minimum": 0},
            "price": {"type": "string", "example": "5.25"}, "link": {"type": "string", "maxLength": 255},
            "tags": {"type": "array", "items": {"$ref": "#/definitions/AttributeInput"}},
            "ingredients": {"type": "array", "items": {"$ref": "#/definitions/AttributeInput"}}
        }},
        "RecipeImage": {"type": "object", "properties": {"id": {"type": "string"}, "image": {"type": "string"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Recipe API",
	Description:      "Recipe API for storing recipes, tags, ingredients and recipe images.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
