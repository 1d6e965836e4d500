package config

const (
	defaultStorageProvider = "sqlite"
	defaultStorageTarget   = "recall.db"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "embeddinggemma"
	defaultEmbeddingDimensions = 768

	defaultOracleProvider = "openai"
	defaultOracleTarget   = "http://localhost:11434/v1"
	defaultOracleModel    = "llama3.2"

	defaultNotifyProvider = "nop"

	defaultPollIntervalSeconds = 60

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "recall.events"

	defaultConfidenceThreshold = 0.75
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
			Target:   defaultStorageTarget,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Oracle: OracleConfig{
			Provider: defaultOracleProvider,
			Target:   defaultOracleTarget,
			Model:    defaultOracleModel,
		},
		Notify: NotifyConfig{
			Provider: defaultNotifyProvider,
		},
		Scheduler: SchedulerConfig{
			PollIntervalSeconds: defaultPollIntervalSeconds,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
		Search: SearchConfig{
			ConfidenceThreshold: defaultConfidenceThreshold,
		},
	}
}
