package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/englishhub/englishhub/internal/model"
)

func ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

func prop(s *openapi3.Schema) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: s}
}

func enumOf[T ~string](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func categorySchema() *openapi3.Schema {
	s := openapi3.NewStringSchema()
	s.Enum = enumOf(model.Categories)
	return s
}

func difficultySchema() *openapi3.Schema {
	s := openapi3.NewStringSchema()
	s.Enum = enumOf(model.Difficulties)
	return s
}

// componentSchemas returns every named schema the paths refer to.
func componentSchemas() openapi3.Schemas {
	titleLen := uint64(model.MaxTitleLength)
	urlLen := uint64(model.MaxURLLength)
	authorLen := uint64(model.MaxCreatedByLength)
	readOnly := func(s *openapi3.Schema) *openapi3.Schema {
		s.ReadOnly = true
		return s
	}

	return openapi3.Schemas{
		"ErrorResponse": prop(&openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": prop(&openapi3.Schema{
					Type: &openapi3.Types{"object"},
					Properties: openapi3.Schemas{
						"code":    prop(&openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}),
						"message": prop(openapi3.NewStringSchema()),
					},
				}),
			},
		}),

		"Content": prop(&openapi3.Schema{
			Type:        &openapi3.Types{"object"},
			Description: "A catalog item: one YouTube lesson.",
			Properties: openapi3.Schemas{
				"id":          prop(readOnly(openapi3.NewUUIDSchema())),
				"title":       prop(&openapi3.Schema{Type: &openapi3.Types{"string"}, MaxLength: &titleLen}),
				"description": prop(openapi3.NewStringSchema()),
				"youtube_url": prop(&openapi3.Schema{Type: &openapi3.Types{"string"}, MaxLength: &urlLen}),
				"embed_url": prop(readOnly(&openapi3.Schema{
					Type:        &openapi3.Types{"string"},
					Description: "Player URL derived from youtube_url. Omitted when no video id can be found.",
				})),
				"category":   prop(categorySchema()),
				"difficulty": prop(difficultySchema()),
				"created_by": prop(openapi3.NewStringSchema()),
				"created_at": prop(readOnly(openapi3.NewDateTimeSchema())),
			},
			Required: []string{"id", "title", "description", "youtube_url", "category", "difficulty", "created_by", "created_at"},
		}),

		"NewContent": prop(&openapi3.Schema{
			Type:        &openapi3.Types{"object"},
			Description: "Fields of a new catalog item. Strings are trimmed; category and difficulty are case-insensitive.",
			Properties: openapi3.Schemas{
				"title":       prop(&openapi3.Schema{Type: &openapi3.Types{"string"}, MaxLength: &titleLen}),
				"description": prop(openapi3.NewStringSchema()),
				"youtube_url": prop(&openapi3.Schema{Type: &openapi3.Types{"string"}, MaxLength: &urlLen}),
				"category":    prop(categorySchema()),
				"difficulty":  prop(difficultySchema()),
				"created_by": prop(&openapi3.Schema{
					Type:        &openapi3.Types{"string"},
					Description: "Defaults to the username of the session.",
					MaxLength:   &authorLen,
				}),
			},
			Required: []string{"title", "youtube_url", "category", "difficulty"},
		}),

		"ContentList": prop(&openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"resource": prop(&openapi3.Schema{
					Type:  &openapi3.Types{"array"},
					Items: ref("Content"),
				}),
				"meta": prop(&openapi3.Schema{
					Type: &openapi3.Types{"object"},
					Properties: openapi3.Schemas{
						"count":    prop(&openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}),
						"category": prop(categorySchema()),
					},
				}),
			},
		}),

		"LoginRequest": prop(&openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"username": prop(openapi3.NewStringSchema()),
				"password": prop(&openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "password"}),
			},
			Required: []string{"username", "password"},
		}),

		"LoginResponse": prop(&openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"session_token": prop(openapi3.NewStringSchema()),
				"token_type":    prop(openapi3.NewStringSchema()),
				"expires_in": prop(&openapi3.Schema{
					Type:        &openapi3.Types{"integer"},
					Format:      "int64",
					Description: "Seconds until the token expires.",
				}),
				"username": prop(openapi3.NewStringSchema()),
			},
		}),

		"SessionStatus": prop(&openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"is_admin": prop(openapi3.NewBoolSchema()),
			},
		}),

		"PasswordChange": prop(&openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"username": prop(&openapi3.Schema{
					Type:        &openapi3.Types{"string"},
					Description: "Must match the session when given.",
				}),
				"current_password": prop(&openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "password"}),
				"new_password":     prop(&openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "password"}),
			},
			Required: []string{"current_password", "new_password"},
		}),

		"Success": prop(&openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"success": prop(openapi3.NewBoolSchema()),
			},
		}),

		"Health": prop(&openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"status": prop(openapi3.NewStringSchema()),
				"checks": prop(&openapi3.Schema{
					Type:                 &openapi3.Types{"object"},
					AdditionalProperties: openapi3.AdditionalProperties{Schema: prop(openapi3.NewStringSchema())},
				}),
			},
		}),
	}
}
