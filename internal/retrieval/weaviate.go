package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const (
	defaultClass = "KnowledgeChunk"
	contentField = "content"
	sourceField  = "source"
)

// WeaviateRetriever queries a Weaviate class with nearText semantic search.
type WeaviateRetriever struct {
	client *weaviate.Client
	class  string
}

func NewWeaviate(rawURL, class string) (*WeaviateRetriever, error) {
	if class == "" {
		class = defaultClass
	}

	cfg := weaviate.Config{Host: rawURL, Scheme: "http"}
	if strings.HasPrefix(rawURL, "https://") {
		cfg.Scheme = "https"
		cfg.Host = strings.TrimPrefix(rawURL, "https://")
	} else if strings.HasPrefix(rawURL, "http://") {
		cfg.Host = strings.TrimPrefix(rawURL, "http://")
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}
	return &WeaviateRetriever{client: client, class: class}, nil
}

func (r *WeaviateRetriever) Query(ctx context.Context, query string, topK int) ([]Passage, error) {
	if topK <= 0 {
		return nil, nil
	}

	nearText := r.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	fields := []graphql.Field{
		{Name: contentField},
		{Name: sourceField},
	}

	result, err := r.client.GraphQL().Get().
		WithClassName(r.class).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(topK).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate query: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate query error: %s", result.Errors[0].Message)
	}

	return parsePassages(result, r.class), nil
}

// parsePassages extracts passages from a GraphQL response, skipping
// malformed objects.
func parsePassages(result *models.GraphQLResponse, class string) []Passage {
	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	objects, ok := data[class].([]interface{})
	if !ok {
		return nil
	}

	passages := make([]Passage, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}
		doc, ok := m[contentField].(string)
		if !ok || doc == "" {
			continue
		}
		source, _ := m[sourceField].(string)
		passages = append(passages, Passage{Document: doc, Source: source})
	}
	return passages
}
