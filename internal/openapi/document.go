// Package openapi builds the OpenAPI 3.1 document served at /openapi.json.
package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"
)

const bearerScheme = "bearerAuth"

// Document describes the englishhub HTTP API. baseURL becomes the single
// server entry and may be empty.
func Document(baseURL, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "EnglishHub API",
			Description: "Catalog of YouTube lessons for English learners, and the admin session that curates it.",
			Version:     version,
		},
	}
	if baseURL != "" {
		doc.Servers = openapi3.Servers{{URL: baseURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = componentSchemas()
	components.SecuritySchemes = openapi3.SecuritySchemes{
		bearerScheme: &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:         "http",
				Scheme:       "bearer",
				BearerFormat: "JWT",
				Description:  "Session token from POST /api/v1/admin/session.",
			},
		},
	}
	doc.Components = &components

	doc.Paths = openapi3.NewPaths()
	addSystemPaths(doc)
	addContentPaths(doc)
	addSessionPaths(doc)
	return doc
}

func addSystemPaths(doc *openapi3.T) {
	doc.Paths.Set("/healthz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Liveness probe",
			OperationID: "healthz",
			Responses:   newResponses("200", "Process is up", ref("Health")),
		},
	})
	doc.Paths.Set("/readyz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Readiness probe",
			Description: "Pings the storage backend. Responds 503 while it is unreachable.",
			OperationID: "readyz",
			Responses:   newResponses("200", "Storage is reachable", ref("Health"), "503"),
		},
	})
}

func addContentPaths(doc *openapi3.T) {
	categoryQuery := openapi3.NewQueryParameter("category").
		WithDescription("Only return items in this category.").
		WithSchema(categorySchema())
	idPath := openapi3.NewPathParameter("id").
		WithDescription("Content id.").
		WithSchema(openapi3.NewUUIDSchema())
	categoryPath := openapi3.NewPathParameter("category").
		WithSchema(categorySchema())

	doc.Paths.Set("/api/v1/content", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"content"},
			Summary:     "List content",
			Description: "Every item, newest first. With ?category= only that category.",
			OperationID: "listContent",
			Parameters:  openapi3.Parameters{{Value: categoryQuery}},
			Responses:   newResponses("200", "Catalog items", ref("ContentList"), "400", "503"),
		},
		Post: &openapi3.Operation{
			Tags:        []string{"content"},
			Summary:     "Add content",
			OperationID: "createContent",
			Security:    adminOnly(),
			RequestBody: jsonBody("New catalog item", "NewContent"),
			Responses:   newResponses("201", "Stored item", ref("Content"), "400", "401", "503"),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"content"},
			Summary:     "Delete all content",
			OperationID: "deleteAllContent",
			Security:    adminOnly(),
			Responses:   newResponses("200", "Catalog emptied", ref("Success"), "401", "503"),
		},
	})

	doc.Paths.Set("/api/v1/content/{id}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{{Value: idPath}},
		Get: &openapi3.Operation{
			Tags:        []string{"content"},
			Summary:     "Get one item",
			OperationID: "getContent",
			Responses:   newResponses("200", "Catalog item", ref("Content"), "404", "503"),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"content"},
			Summary:     "Delete one item",
			Description: "Deleting an id that does not exist succeeds.",
			OperationID: "deleteContent",
			Security:    adminOnly(),
			Responses:   newResponses("200", "Item removed", ref("Success"), "401", "503"),
		},
	})

	doc.Paths.Set("/api/v1/categories/{category}/content", &openapi3.PathItem{
		Parameters: openapi3.Parameters{{Value: categoryPath}},
		Get: &openapi3.Operation{
			Tags:        []string{"content"},
			Summary:     "List content in a category",
			OperationID: "listContentByCategory",
			Responses:   newResponses("200", "Catalog items", ref("ContentList"), "400", "503"),
		},
	})
}

func addSessionPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/v1/admin/session", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"admin"},
			Summary:     "Log in",
			Description: "Exchanges admin credentials for a session token. Rate limited per client IP.",
			OperationID: "login",
			RequestBody: jsonBody("Admin credentials", "LoginRequest"),
			Responses:   newResponses("200", "Session issued", ref("LoginResponse"), "400", "401", "429", "503"),
		},
		Get: &openapi3.Operation{
			Tags:        []string{"admin"},
			Summary:     "Check the session",
			Description: "Reports whether the presented bearer token is a live admin session. Never fails with 401.",
			OperationID: "sessionStatus",
			Security:    optionalAdmin(),
			Responses:   newResponses("200", "Session state", ref("SessionStatus")),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"admin"},
			Summary:     "Log out",
			OperationID: "logout",
			Security:    optionalAdmin(),
			Responses:   newResponses("200", "Session revoked", ref("Success")),
		},
	})

	doc.Paths.Set("/api/v1/admin/password", &openapi3.PathItem{
		Put: &openapi3.Operation{
			Tags:        []string{"admin"},
			Summary:     "Change the admin password",
			OperationID: "changePassword",
			Security:    adminOnly(),
			RequestBody: jsonBody("Current and new password", "PasswordChange"),
			Responses:   newResponses("200", "Password rotated", ref("Success"), "400", "401", "403", "503"),
		},
	})
}

func adminOnly() *openapi3.SecurityRequirements {
	return &openapi3.SecurityRequirements{{bearerScheme: {}}}
}

// optionalAdmin accepts a bearer token or none at all.
func optionalAdmin() *openapi3.SecurityRequirements {
	return &openapi3.SecurityRequirements{{bearerScheme: {}}, {}}
}

func jsonBody(description, schema string) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Description: description,
			Required:    true,
			Content:     openapi3.NewContentWithJSONSchemaRef(ref(schema)),
		},
	}
}

var errorDescriptions = map[string]string{
	"400": "Bad request",
	"401": "Unauthorized",
	"403": "Forbidden",
	"404": "Not found",
	"429": "Too many requests",
	"503": "Storage unavailable",
}

// newResponses builds a success response plus the listed error responses and
// a 500, all error bodies sharing the ErrorResponse envelope.
func newResponses(status, description string, schema *openapi3.SchemaRef, errorCodes ...string) *openapi3.Responses {
	responses := openapi3.NewResponses(openapi3.WithName(status, openapi3.NewResponse().
		WithDescription(description).
		WithContent(openapi3.NewContentWithJSONSchemaRef(schema))))

	errorRef := ref("ErrorResponse")
	for _, code := range append(errorCodes, "500") {
		desc, ok := errorDescriptions[code]
		if !ok {
			desc = "Internal server error"
		}
		responses.Set(code, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription(desc).
				WithContent(openapi3.NewContentWithJSONSchemaRef(errorRef)),
		})
	}
	return responses
}
