// Package docs is generated by swag init from the handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "BusinessConnect Sénégal",
            "email": "support@businessconnect.sn"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Connexion",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Inscription",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Liste des offres d'emploi",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/marketplace": {
            "get": {
                "produces": ["application/json"],
                "tags": ["marketplace"],
                "summary": "Liste des annonces",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/subscriptions/plans": {
            "get": {
                "produces": ["application/json"],
                "tags": ["subscriptions"],
                "summary": "Catalogue des abonnements",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/subscriptions/webhook": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["subscriptions"],
                "summary": "Notification CinetPay",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid signature"}
                }
            }
        },
        "/forum/topics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["forum"],
                "summary": "Liste des sujets",
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

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:5000",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "BusinessConnect Sénégal API",
	Description:      "API de la plateforme BusinessConnect: offres d'emploi, marketplace, forum et abonnements.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
