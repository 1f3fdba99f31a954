package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/todo-service/config"
)

var envVars = []string{
	"SERVER_PORT", "HTTP_PORT", "PORT",
	"SERVER_ADDRESS", "HTTP_ADDRESS",
	"SERVER_ENVIRONMENT", "SERVER_BASE_URL",
	"STORE_BACKEND", "LOGGING_LEVEL",
	"CORS_ALLOWED_ORIGINS", "METRICS_ENABLED", "METRICS_PATH",
}

func setenv(key, value string) {
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(os.Unsetenv, key)
}

func validConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Address:      "0.0.0.0",
			Port:         8080,
			Environment:  config.EnvDev,
			ReadTimeout:  "15s",
			WriteTimeout: "15s",
			IdleTimeout:  "60s",
		},
		Logging: config.LoggingConfig{Level: config.LogLevelInfo},
		Store:   config.StoreConfig{Backend: config.StoreMemory},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"*"}},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics", BufferSize: 100},
	}
}

var _ = Describe("Config", func() {
	var tempDir string

	BeforeEach(func() {
		for _, key := range envVars {
			if value, ok := os.LookupEnv(key); ok {
				Expect(os.Unsetenv(key)).To(Succeed())
				DeferCleanup(os.Setenv, key, value)
			}
		}

		wd, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.Chdir, wd)

		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, tempDir)

		Expect(os.Chdir(tempDir)).To(Succeed())
	})

	Describe("Load", func() {
		Context("with a valid config file", func() {
			BeforeEach(func() {
				configContent := `
server:
  address: "127.0.0.1"
  port: 9090
  environment: "staging"
  base_url: "https://todo.example.com"

logging:
  level: "debug"

store:
  backend: "sqlite"

cors:
  allowed_origins:
    - "https://app.example.com"

metrics:
  enabled: true
  path: "/internal/metrics"
`
				err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(configContent), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("loads every section", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.HTTPAddr()).To(Equal("127.0.0.1:9090"))
				Expect(cfg.Server.Environment).To(Equal(config.EnvStaging))
				Expect(cfg.Server.BaseURL).To(Equal("https://todo.example.com"))
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelDebug))
				Expect(cfg.Store.Backend).To(Equal(config.StoreSQLite))
				Expect(cfg.CORS.AllowedOrigins).To(Equal([]string{"https://app.example.com"}))
				Expect(cfg.Metrics.Path).To(Equal("/internal/metrics"))
			})

			It("keeps defaults for keys the file omits", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Metrics.BufferSize).To(Equal(1000))
				read, write, idle := cfg.Server.Timeouts()
				Expect(read).To(Equal(15 * time.Second))
				Expect(write).To(Equal(15 * time.Second))
				Expect(idle).To(Equal(60 * time.Second))
			})

			It("lets the environment override the file", func() {
				setenv("SERVER_PORT", "7070")
				setenv("STORE_BACKEND", "memory")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Port).To(Equal(7070))
				Expect(cfg.Store.Backend).To(Equal(config.StoreMemory))
			})
		})

		Context("with a config file in ./config", func() {
			BeforeEach(func() {
				Expect(os.Mkdir(filepath.Join(tempDir, "config"), 0755)).To(Succeed())
				err := os.WriteFile(filepath.Join(tempDir, "config", "config.yaml"), []byte("server:\n  port: 8181\n"), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("finds it", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Port).To(Equal(8181))
			})
		})

		Context("with environment variables only", func() {
			It("fails fast when no port is configured", func() {
				cfg, err := config.Load()
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("port: is required"))
				Expect(cfg).To(BeNil())
			})

			It("uses defaults once a port is set", func() {
				setenv("PORT", "8080")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.HTTPAddr()).To(Equal("0.0.0.0:8080"))
				Expect(cfg.Server.Environment).To(Equal(config.EnvDev))
				Expect(cfg.Store.Backend).To(Equal(config.StoreMemory))
				Expect(cfg.CORS.AllowedOrigins).To(Equal([]string{"*"}))
				Expect(cfg.Metrics.Enabled).To(BeTrue())
			})

			It("accepts the historical http.port and http.address names", func() {
				setenv("HTTP_PORT", "8282")
				setenv("HTTP_ADDRESS", "localhost")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.HTTPAddr()).To(Equal("localhost:8282"))
			})

			It("prefers SERVER_PORT over PORT", func() {
				setenv("SERVER_PORT", "9000")
				setenv("PORT", "9001")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Port).To(Equal(9000))
			})

			It("splits comma separated origins", func() {
				setenv("PORT", "8080")
				setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.CORS.AllowedOrigins).To(Equal([]string{"https://a.example.com", "https://b.example.com"}))
			})

			It("rejects an unknown store backend", func() {
				setenv("PORT", "8080")
				setenv("STORE_BACKEND", "postgres")

				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Validate", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = validConfig()
		})

		It("accepts a complete configuration", func() {
			Expect(cfg.Validate()).To(Succeed())
		})

		DescribeTable("rejects invalid values",
			func(mutate func(*config.Config)) {
				mutate(cfg)
				Expect(cfg.Validate()).NotTo(Succeed())
			},
			Entry("missing port", func(c *config.Config) { c.Server.Port = 0 }),
			Entry("port out of range", func(c *config.Config) { c.Server.Port = 70000 }),
			Entry("bad host", func(c *config.Config) { c.Server.Address = "not a host" }),
			Entry("unknown environment", func(c *config.Config) { c.Server.Environment = "qa" }),
			Entry("base url without scheme", func(c *config.Config) { c.Server.BaseURL = "todo.example.com" }),
			Entry("base url with path", func(c *config.Config) { c.Server.BaseURL = "http://todo.example.com/api" }),
			Entry("bad timeout", func(c *config.Config) { c.Server.ReadTimeout = "soon" }),
			Entry("unknown log level", func(c *config.Config) { c.Logging.Level = "trace" }),
			Entry("unknown store", func(c *config.Config) { c.Store.Backend = "redis" }),
			Entry("no origins", func(c *config.Config) { c.CORS.AllowedOrigins = nil }),
			Entry("empty origin", func(c *config.Config) { c.CORS.AllowedOrigins = []string{""} }),
			Entry("relative metrics path", func(c *config.Config) { c.Metrics.Path = "metrics" }),
			Entry("metrics path on the todo route", func(c *config.Config) { c.Metrics.Path = "/todo" }),
			Entry("metrics path with a wildcard", func(c *config.Config) { c.Metrics.Path = "/metrics/{name}" }),
			Entry("metrics path with an open brace", func(c *config.Config) { c.Metrics.Path = "/metrics/{" }),
			Entry("metrics path with a space", func(c *config.Config) { c.Metrics.Path = "/my metrics" }),
			Entry("zero metrics buffer", func(c *config.Config) { c.Metrics.BufferSize = 0 }),
		)

		It("keys errors by their config names", func() {
			cfg.Server.Port = 0
			cfg.Metrics.Path = "/metrics/{"

			err := cfg.Validate()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("server: (port: is required; set SERVER_PORT, HTTP_PORT or PORT.)"))
			Expect(err.Error()).To(ContainSubstring("metrics: (path: must not contain braces or whitespace.)"))
		})

		It("skips metrics checks when metrics are disabled", func() {
			cfg.Metrics = config.MetricsConfig{Enabled: false}
			Expect(cfg.Validate()).To(Succeed())
		})

		It("allows an empty listen address", func() {
			cfg.Server.Address = ""
			Expect(cfg.Validate()).To(Succeed())
			Expect(cfg.Server.HTTPAddr()).To(Equal(":8080"))
		})

		It("allows a base url with a trailing slash", func() {
			cfg.Server.BaseURL = "http://todo.example.com/"
			Expect(cfg.Validate()).To(Succeed())
		})
	})
})
