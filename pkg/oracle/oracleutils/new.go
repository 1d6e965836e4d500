package oracleutils

import (
	"fmt"

	"github.com/recallhq/recall/pkg/oracle"
	"github.com/recallhq/recall/pkg/oracle/openai"
)

type NewOracleOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
}

func NewOracle(o *NewOracleOpts) (oracle.Oracle, error) {
	switch o.ProviderType {
	case "openai":
		return openai.NewOracle(openai.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
			APIKey:  o.APIKey,
		})
	default:
		return nil, fmt.Errorf("unsupported oracle provider: %s", o.ProviderType)
	}
}
