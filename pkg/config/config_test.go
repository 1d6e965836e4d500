package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/recallhq/recall/pkg/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())

		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("NewDefaultConfig", func() {
		It("populates every section", func() {
			cfg := config.NewDefaultConfig()

			Expect(cfg.Storage.Provider).To(Equal("sqlite"))
			Expect(cfg.Storage.Target).To(Equal("recall.db"))
			Expect(cfg.Embedding.Provider).To(Equal("ollama"))
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
			Expect(cfg.Oracle.Provider).To(Equal("openai"))
			Expect(cfg.Notify.Provider).To(Equal("nop"))
			Expect(cfg.Scheduler.PollIntervalSeconds).To(Equal(uint(60)))
			Expect(cfg.EventStream.Provider).To(Equal("nop"))
			Expect(cfg.EventStream.Topic).To(Equal("recall.events"))
			Expect(cfg.Search.ConfidenceThreshold).To(Equal(0.75))
		})
	})

	Describe("ParseConfigTOML", func() {
		It("parses a full config", func() {
			data := []byte(`
version = 0

[storage]
provider = "postgres"
target = "postgres://localhost:5432/recall"

[embedding]
provider = "chargram"
dimensions = 384

[notify]
provider = "webhook"
target = "https://hooks.example.com/recall"

[scheduler]
poll_interval_seconds = 30

[eventstream]
provider = "kafka"
brokers = "localhost:9092"
`)
			cfg, err := config.ParseConfigTOML(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Storage.Provider).To(Equal("postgres"))
			Expect(cfg.Embedding.Provider).To(Equal("chargram"))
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(384)))
			Expect(cfg.Notify.Provider).To(Equal("webhook"))
			Expect(cfg.Scheduler.PollIntervalSeconds).To(Equal(uint(30)))
			Expect(cfg.EventStream.Brokers).To(Equal("localhost:9092"))
		})

		It("rejects an unsupported version", func() {
			_, err := config.ParseConfigTOML([]byte("version = 99"))
			Expect(err).To(MatchError(ContainSubstring("unsupported config version")))
		})

		It("rejects malformed TOML", func() {
			_, err := config.ParseConfigTOML([]byte("[storage\nprovider ="))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Configer", func() {
		It("returns defaults when no config file exists", func() {
			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("round-trips save and load", func() {
			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Storage.Provider = "inmemory"
			cfg.Notify.Provider = "discord"
			cfg.Notify.Token = "bot-token"

			Expect(cfger.SaveConfig(cfg)).To(Succeed())

			loaded, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Storage.Provider).To(Equal("inmemory"))
			Expect(loaded.Notify.Provider).To(Equal("discord"))
			Expect(loaded.Notify.Token).To(Equal("bot-token"))
		})

		It("fills zero-value fields with defaults on load", func() {
			path := filepath.Join(tmpDir, "config.toml")
			Expect(os.WriteFile(path, []byte(`
[storage]
provider = "inmemory"
`), 0o600)).To(Succeed())

			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Storage.Provider).To(Equal("inmemory"))
			Expect(cfg.Embedding.Provider).To(Equal("ollama"))
			Expect(cfg.Scheduler.PollIntervalSeconds).To(Equal(uint(60)))
		})

		It("rejects saving a nil config", func() {
			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfger.SaveConfig(nil)).To(MatchError(ContainSubstring("nil config")))
		})
	})

	Describe("SetConfigValue and GetConfigValue", func() {
		var cfger *config.Configer

		BeforeEach(func() {
			var err error
			cfger, err = config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})

		It("sets and gets a string key", func() {
			Expect(cfger.SetConfigValue("notify.target", "https://hooks.example.com")).To(Succeed())

			val, err := cfger.GetConfigValue("notify.target")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("https://hooks.example.com"))
		})

		It("sets and gets a numeric key", func() {
			Expect(cfger.SetConfigValue("scheduler.poll_interval_seconds", "15")).To(Succeed())

			val, err := cfger.GetConfigValue("scheduler.poll_interval_seconds")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("15"))
		})

		It("rejects a non-numeric value for a numeric key", func() {
			err := cfger.SetConfigValue("embedding.dimensions", "lots")
			Expect(err).To(HaveOccurred())
		})

		It("rejects unknown keys", func() {
			Expect(cfger.SetConfigValue("nope.nope", "x")).To(MatchError(ContainSubstring("unknown config key")))

			_, err := cfger.GetConfigValue("nope.nope")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})
	})

	Describe("ValidConfigKeys", func() {
		It("lists every supported key exactly once", func() {
			keys := config.ValidConfigKeys()
			Expect(keys).To(ContainElements(
				"storage.provider",
				"embedding.dimensions",
				"oracle.api_key",
				"notify.token",
				"scheduler.poll_interval_seconds",
				"eventstream.brokers",
				"search.confidence_threshold",
			))

			seen := map[string]bool{}
			for _, k := range keys {
				Expect(seen[k]).To(BeFalse(), "duplicate key %q", k)
				seen[k] = true
				Expect(config.IsValidConfigKey(k)).To(BeTrue())
			}
		})
	})

	Describe("PresetConfig", func() {
		It("returns the local preset", func() {
			cfg, err := config.PresetConfig("local")
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Embedding.Provider).To(Equal("chargram"))
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(384)))
		})

		It("returns the postgres preset", func() {
			cfg, err := config.PresetConfig("postgres")
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Storage.Provider).To(Equal("postgres"))
		})

		It("is case-insensitive", func() {
			cfg, err := config.PresetConfig("OLLAMA")
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Oracle.Target).To(Equal("http://localhost:11434/v1"))
		})

		It("rejects unknown presets", func() {
			_, err := config.PresetConfig("mystery")
			Expect(err).To(MatchError(ContainSubstring("unknown preset")))
		})
	})

	Describe("InitViper", func() {
		It("applies defaults when no file exists", func() {
			v, err := config.InitViper(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.GetString("storage.provider")).To(Equal("sqlite"))
			Expect(v.GetUint("scheduler.poll_interval_seconds")).To(Equal(uint(60)))
		})

		It("reads values from config.toml", func() {
			path := filepath.Join(tmpDir, "config.toml")
			Expect(os.WriteFile(path, []byte(`
[storage]
provider = "postgres"
`), 0o600)).To(Succeed())

			v, err := config.InitViper(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.GetString("storage.provider")).To(Equal("postgres"))
		})

		It("prefers environment variables over the file", func() {
			path := filepath.Join(tmpDir, "config.toml")
			Expect(os.WriteFile(path, []byte(`
[storage]
provider = "postgres"
`), 0o600)).To(Succeed())

			Expect(os.Setenv("RECALL_STORAGE_PROVIDER", "inmemory")).To(Succeed())
			DeferCleanup(func() { os.Unsetenv("RECALL_STORAGE_PROVIDER") })

			v, err := config.InitViper(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.GetString("storage.provider")).To(Equal("inmemory"))
		})
	})
})
