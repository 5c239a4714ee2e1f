// Package docs contains the generated OpenAPI description served by the
// Swagger UI route. Code generated by swag; edits belong in the handler
// annotations, not here.
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
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Staff login",
                "operationId": "staffLogin",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/chatbot/resolve": {
            "get": {
                "tags": ["Chatbot"],
                "summary": "Resolve a chatbot entry link",
                "operationId": "resolveGuidebook",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "No matching guidebook"}
                }
            }
        },
        "/chatbot/sessions": {
            "post": {
                "tags": ["Chatbot"],
                "summary": "Start a chat session",
                "operationId": "startSession",
                "responses": {
                    "201": {"description": "Created"},
                    "404": {"description": "Guidebook not found"}
                }
            }
        },
        "/chatbot/sessions/{id}/messages": {
            "get": {
                "tags": ["Chatbot"],
                "summary": "List a session's messages",
                "operationId": "listTurns",
                "responses": {
                    "200": {"description": "OK"},
                    "304": {"description": "Not Modified"},
                    "404": {"description": "Session not found"}
                }
            },
            "post": {
                "tags": ["Chatbot"],
                "summary": "Send a message and get the assistant reply",
                "operationId": "postTurn",
                "responses": {
                    "200": {"description": "Assistant reply"},
                    "409": {"description": "Session awaiting contact or ended"}
                }
            }
        },
        "/chatbot/sessions/{id}/contact": {
            "post": {
                "tags": ["Chatbot"],
                "summary": "Leave contact details",
                "operationId": "submitContact",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid phone/email"},
                    "409": {"description": "Session not awaiting contact"}
                }
            }
        },
        "/chatbot/sessions/{id}/contact/skip": {
            "post": {
                "tags": ["Chatbot"],
                "summary": "Skip the contact request",
                "operationId": "skipContact",
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Session not awaiting contact"}
                }
            }
        },
        "/chatbot/sessions/{id}/end": {
            "post": {
                "tags": ["Chatbot"],
                "summary": "End a chat session",
                "operationId": "endSession",
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Session already ended"}
                }
            }
        },
        "/guidebooks": {
            "get": {
                "tags": ["Guidebooks"],
                "summary": "List guidebooks (paginated)",
                "operationId": "listGuidebooks",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Guidebooks"],
                "summary": "Create a guidebook",
                "operationId": "createGuidebook",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/guidebooks/{id}": {
            "get": {
                "tags": ["Guidebooks"],
                "summary": "Fetch a guidebook",
                "operationId": "getGuidebook",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Guidebooks"],
                "summary": "Update a guidebook",
                "operationId": "updateGuidebook",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/guidebooks/{id}/qr": {
            "get": {
                "tags": ["Chatbot"],
                "summary": "Guidebook chat QR code",
                "operationId": "guidebookQR",
                "produces": ["image/png"],
                "responses": {"200": {"description": "PNG image"}, "404": {"description": "Not found"}}
            }
        },
        "/properties": {
            "get": {
                "tags": ["Properties"],
                "summary": "List properties",
                "operationId": "listProperties",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Properties"],
                "summary": "Register a property",
                "operationId": "createProperty",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/properties/{id}": {
            "get": {
                "tags": ["Properties"],
                "summary": "Fetch a property",
                "operationId": "getProperty",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Properties"],
                "summary": "Update a property",
                "operationId": "updateProperty",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/properties/{id}/guidebook": {
            "get": {
                "tags": ["Properties"],
                "summary": "Fetch a property's guidebook mapping",
                "operationId": "getPropertyGuidebook",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not mapped"}}
            },
            "put": {
                "tags": ["Properties"],
                "summary": "Map a property to a guidebook",
                "operationId": "assignGuidebook",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/mappings": {
            "get": {
                "tags": ["Properties"],
                "summary": "List all property-to-guidebook mappings",
                "operationId": "listMappings",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/managers": {
            "get": {
                "tags": ["Managers"],
                "summary": "List property managers",
                "operationId": "listManagers",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Managers"],
                "summary": "Register a property manager",
                "operationId": "registerManager",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Email already registered"}}
            }
        },
        "/managers/{id}": {
            "get": {
                "tags": ["Managers"],
                "summary": "Fetch a property manager",
                "operationId": "getManager",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/sessions": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Browse chat sessions",
                "operationId": "listSessions",
                "responses": {"200": {"description": "OK"}, "304": {"description": "Not Modified"}}
            }
        },
        "/sessions/{id}/messages": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Read a session transcript",
                "operationId": "sessionTranscript",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/escalations": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Browse the escalation queue",
                "operationId": "listEscalations",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/stats": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Usage dashboard",
                "operationId": "stats",
                "responses": {"200": {"description": "OK"}}
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

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Guidebook Chatbot API",
	Description:      "Property guidebook authoring console and public guest chatbot.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
