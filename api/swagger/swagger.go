package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Meals API",
        "description": "Surplus canteen food claims, pickup verification and NGO donations",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "FoodItems", "description": "Surplus food posted by canteen staff"},
        {"name": "Claims", "description": "Reservation, verification and pickup"},
        {"name": "Donations", "description": "Expired stock handed to NGOs"},
        {"name": "Stats", "description": "Public impact figures"},
        {"name": "Notifications", "description": "Per-user notices"}
    ],
    "paths": {
        "/food-items": {
            "get": {
                "tags": ["FoodItems"],
                "summary": "List claimable food items",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["FoodItems"],
                "summary": "Post surplus food",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFoodItemRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/food-items/mine": {
            "get": {
                "tags": ["FoodItems"],
                "summary": "List items posted by the caller",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/food-items/{id}": {
            "put": {
                "tags": ["FoodItems"],
                "summary": "Update a posted item",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Not the poster"}
                }
            },
            "delete": {
                "tags": ["FoodItems"],
                "summary": "Archive a posted item",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Archived"},
                    "403": {"description": "Not the poster"}
                }
            }
        },
        "/food-claims": {
            "post": {
                "tags": ["Claims"],
                "summary": "Reserve a food item",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateClaimRequest"}}
                ],
                "responses": {
                    "201": {"description": "Reserved"},
                    "400": {"description": "Item unavailable, insufficient quantity or already claimed"}
                }
            }
        },
        "/food-claims/mine": {
            "get": {
                "tags": ["Claims"],
                "summary": "List the caller's claims",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/food-claims/active": {
            "get": {
                "tags": ["Claims"],
                "summary": "List reservations awaiting pickup",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/food-claims/verify": {
            "post": {
                "tags": ["Claims"],
                "summary": "Verify a claim code at the counter",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VerifyClaimRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/food-claims/{id}/complete": {
            "post": {
                "tags": ["Claims"],
                "summary": "Record pickup of a reserved claim",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Completed"},
                    "400": {"description": "Claim or item expired"},
                    "409": {"description": "Claim not reserved"}
                }
            }
        },
        "/food-claims/{id}/cancel": {
            "post": {
                "tags": ["Claims"],
                "summary": "Cancel the caller's reservation",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/donations": {
            "get": {
                "tags": ["Donations"],
                "summary": "List donations",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "mine", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/donations/export": {
            "get": {
                "tags": ["Donations"],
                "summary": "Download the donation report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/donations/sweep": {
            "post": {
                "tags": ["Donations"],
                "summary": "Move expired stock into donations",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/donations/{id}/reserve": {
            "put": {
                "tags": ["Donations"],
                "summary": "Reserve a donation for an NGO",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReserveDonationRequest"}}
                ],
                "responses": {
                    "200": {"description": "Reserved"},
                    "409": {"description": "Donation not available"}
                }
            }
        },
        "/donations/{id}/collect": {
            "put": {
                "tags": ["Donations"],
                "summary": "Mark a reserved donation as collected",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Collected"},
                    "409": {"description": "Donation not reserved"}
                }
            }
        },
        "/stats": {
            "get": {
                "tags": ["Stats"],
                "summary": "Campus impact statistics",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Storage unavailable"}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List notifications",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/notifications/{id}/read": {
            "put": {
                "tags": ["Notifications"],
                "summary": "Mark a notification as read",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Marked"}
                }
            }
        }
    },
    "definitions": {
        "CreateFoodItemRequest": {
            "type": "object",
            "required": ["name", "canteenName", "quantityAvailable", "availableUntil"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "canteenName": {"type": "string"},
                "canteenLocation": {"type": "string"},
                "imageUrl": {"type": "string"},
                "quantityAvailable": {"type": "integer", "minimum": 1},
                "availableUntil": {"type": "string", "format": "date-time"}
            }
        },
        "CreateClaimRequest": {
            "type": "object",
            "required": ["foodItemId"],
            "properties": {
                "foodItemId": {"type": "string"},
                "quantity": {"type": "integer", "minimum": 1, "maximum": 50}
            }
        },
        "VerifyClaimRequest": {
            "type": "object",
            "required": ["claimCode"],
            "properties": {
                "claimCode": {"type": "string", "example": "AB3-9XZ"}
            }
        },
        "ReserveDonationRequest": {
            "type": "object",
            "required": ["ngoName", "ngoContactPerson", "ngoPhoneNumber"],
            "properties": {
                "ngoName": {"type": "string"},
                "ngoContactPerson": {"type": "string"},
                "ngoPhoneNumber": {"type": "string"}
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
