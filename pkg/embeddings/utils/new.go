package embedderutils

import (
	"fmt"

	"github.com/recallhq/recall/pkg/embeddings"
	"github.com/recallhq/recall/pkg/embeddings/chargram"
	"github.com/recallhq/recall/pkg/embeddings/ollama"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Dimensions   int
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "ollama":
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case "chargram":
		return chargram.NewEmbedder(chargram.Config{
			Dimensions: o.Dimensions,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
