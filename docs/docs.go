// Package docs holds the Swagger template served at /api/swagger/*. It is
// maintained by hand alongside the handler annotations.
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
        "/auth/signup": {
            "post": {
                "tags": [
                    "auth"
                ],
                "summary": "User signup",
                "description": "Register a new account. The username doubles as the login handle.",
                "responses": {
                    "201": {
                        "description": "Success"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "409": {
                        "description": "Error"
                    }
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": [
                    "auth"
                ],
                "summary": "User login",
                "description": "Authenticate with a handle or email and return a session token",
                "responses": {
                    "200": {
                        "description": "Success"
                    },
                    "401": {
                        "description": "Error"
                    }
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": [
                    "auth"
                ],
                "summary": "Logout",
                "description": "Revoke the current token. Live sockets of the user are closed.",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Success"
                    },
                    "401": {
                        "description": "Error"
                    }
                }
            }
        },
        "/ws/ticket": {
            "post": {
                "tags": [
                    "realtime"
                ],
                "summary": "Issue a WebSocket ticket",
                "description": "Returns a single-use ticket valid for 30 seconds",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Success"
                    },
                    "503": {
                        "description": "Error"
                    }
                }
            }
        },
        "/posts/{id}/comments": {
            "post": {
                "tags": [
                    "comments"
                ],
                "summary": "Comment on a post",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Success"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    }
                }
            }
        },
        "/posts/{id}/comments/{commentId}/like": {
            "post": {
                "tags": [
                    "comments"
                ],
                "summary": "Toggle comment like",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "name": "commentId",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Success"
                    }
                }
            }
        },
        "/posts/{id}/comments/{commentId}": {
            "delete": {
                "tags": [
                    "comments"
                ],
                "summary": "Delete a comment",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "name": "commentId",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Success"
                    },
                    "403": {
                        "description": "Error"
                    }
                }
            }
        },
        "/media": {
            "post": {
                "tags": [
                    "media"
                ],
                "summary": "Upload an image",
                "description": "Stores an image under a preset and returns its public URL",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Success"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "502": {
                        "description": "Error"
                    }
                }
            }
        },
        "/features": {
            "get": {
                "tags": [
                    "meta"
                ],
                "summary": "Feature flags",
                "responses": {
                    "200": {
                        "description": "Success"
                    }
                }
            }
        },
        "/feed": {
            "get": {
                "tags": [
                    "feed"
                ],
                "summary": "Global feed",
                "description": "All posts, newest first",
                "responses": {
                    "200": {
                        "description": "Success"
                    }
                }
            }
        },
        "/posts": {
            "post": {
                "tags": [
                    "posts"
                ],
                "summary": "Create a post",
                "description": "JSON body with text and optional imageUrl, or multipart with text and an image file",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Success"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "502": {
                        "description": "Error"
                    }
                }
            }
        },
        "/posts/{id}": {
            "get": {
                "tags": [
                    "posts"
                ],
                "summary": "Get a post",
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Success"
                    },
                    "404": {
                        "description": "Error"
                    }
                }
            },
            "delete": {
                "tags": [
                    "posts"
                ],
                "summary": "Delete a post",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Success"
                    },
                    "403": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    }
                }
            }
        },
        "/posts/{id}/like": {
            "post": {
                "tags": [
                    "posts"
                ],
                "summary": "Toggle like",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Success"
                    }
                }
            }
        },
        "/posts/{id}/retweet": {
            "post": {
                "tags": [
                    "posts"
                ],
                "summary": "Retweet",
                "description": "Creates a retweet, optionally with a quote comment",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Success"
                    }
                }
            }
        },
        "/users": {
            "get": {
                "tags": [
                    "users"
                ],
                "summary": "List users",
                "responses": {
                    "200": {
                        "description": "Success"
                    }
                }
            }
        },
        "/users/me": {
            "get": {
                "tags": [
                    "users"
                ],
                "summary": "Current user's profile",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Success"
                    }
                }
            },
            "put": {
                "tags": [
                    "users"
                ],
                "summary": "Update profile",
                "description": "Multipart form with optional profileName, bio, photo and banner",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Success"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "502": {
                        "description": "Error"
                    }
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": [
                    "users"
                ],
                "summary": "User profile",
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Success"
                    },
                    "404": {
                        "description": "Error"
                    }
                }
            }
        },
        "/users/by-username/{username}": {
            "get": {
                "tags": [
                    "users"
                ],
                "summary": "Look up a user by username",
                "parameters": [
                    {
                        "type": "string",
                        "name": "username",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Success"
                    },
                    "404": {
                        "description": "Error"
                    }
                }
            }
        },
        "/users/{id}/posts": {
            "get": {
                "tags": [
                    "users"
                ],
                "summary": "Posts authored by a user",
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Success"
                    }
                }
            }
        },
        "/users/{id}/replies": {
            "get": {
                "tags": [
                    "users"
                ],
                "summary": "Comments written by a user with their parent posts",
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Success"
                    }
                }
            }
        },
        "/users/{id}/follow": {
            "post": {
                "tags": [
                    "users"
                ],
                "summary": "Toggle follow",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Success"
                    },
                    "400": {
                        "description": "Error"
                    }
                }
            }
        },
        "/users/{id}/followers": {
            "get": {
                "tags": [
                    "users"
                ],
                "summary": "Followers of a user",
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Success"
                    }
                }
            }
        },
        "/users/{id}/following": {
            "get": {
                "tags": [
                    "users"
                ],
                "summary": "Users a user follows",
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Success"
                    }
                }
            }
        },
        "/ws": {
            "get": {
                "tags": [
                    "realtime"
                ],
                "summary": "Notification socket",
                "description": "Upgrade with ?ticket=<ticket> from POST /ws/ticket",
                "responses": {
                    "101": {
                        "description": "Switching Protocols"
                    }
                }
            }
        },
        "/ws/feed": {
            "get": {
                "tags": [
                    "realtime"
                ],
                "summary": "Live feed socket",
                "responses": {
                    "101": {
                        "description": "Switching Protocols"
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Twitter Clone API",
	Description:      "Posts, comments, likes, follows and live feeds.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
