package vector

import (
	"context"

	"github.com/weaviate/weaviate/entities/models"
)

// SchemaClient defines the interface for Weaviate schema operations
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

// EnsureSchema creates the chunk class if it does not exist and backfills
// any property added since the class was first created. Vectors are
// supplied by the ingestion pipeline, so the class carries no vectorizer.
func EnsureSchema(ctx context.Context, client SchemaClient, className string) error {
	exists, err := client.ClassExists(ctx, className)
	if err != nil {
		return err
	}

	properties := []*models.Property{
		{
			Name:     "content",
			DataType: []string{"text"},
		},
		{
			Name:     "url",
			DataType: []string{"string"}, // URL as string (exact match)
		},
		{
			Name:     "header",
			DataType: []string{"text"},
		},
		{
			Name:     "headerType",
			DataType: []string{"string"},
		},
		{
			Name:     "module",
			DataType: []string{"string"},
		},
		{
			Name:     "contentType",
			DataType: []string{"string"},
		},
	}

	if !exists {
		class := &models.Class{
			Class:       className,
			Description: "A heading-bounded chunk of documentation text",
			Vectorizer:  "none",
			Properties:  properties,
		}
		return client.CreateClass(ctx, class)
	}

	// Class exists, check for missing properties
	class, err := client.GetClass(ctx, className)
	if err != nil {
		return err
	}

	existingProps := make(map[string]bool)
	for _, p := range class.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, className, p); err != nil {
				return err
			}
		}
	}

	return nil
}
