package streamutils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/recallhq/recall/pkg/eventstream"
	"github.com/recallhq/recall/pkg/eventstream/kafka"
	"github.com/recallhq/recall/pkg/eventstream/nop"
)

type NewPublisherOpts struct {
	ProviderType string

	// Brokers is a comma-separated list of Kafka bootstrap addresses.
	Brokers string

	Topic  string
	Logger *zap.Logger
}

func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case "kafka":
		var brokers []string
		for _, b := range strings.Split(o.Brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		return kafka.NewPublisher(kafka.Config{
			Brokers: brokers,
			Topic:   o.Topic,
		}, o.Logger)
	case "nop", "":
		return nop.NewPublisher(), nil
	default:
		return nil, fmt.Errorf("unsupported eventstream provider: %s", o.ProviderType)
	}
}
