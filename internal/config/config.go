package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Timeline TimelineConfig `yaml:"timeline" mapstructure:"timeline"`
	Gap      GapConfig      `yaml:"gap" mapstructure:"gap"`
	Archive  ArchiveConfig  `yaml:"archive" mapstructure:"archive"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	OCR      OCRConfig      `yaml:"ocr" mapstructure:"ocr"`
	Site     SiteConfig     `yaml:"site" mapstructure:"site"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// TimelineConfig locates the ledger, change log and corruption table files.
type TimelineConfig struct {
	AppearancesPath string `yaml:"appearances_path" mapstructure:"appearances_path"`
	ChangesPath     string `yaml:"changes_path" mapstructure:"changes_path"`
	CorruptionTable string `yaml:"corruption_table" mapstructure:"corruption_table"`
}

// GapConfig is the known publication void: the interval with no archived
// source documents, during which listings and removals were unobservable.
type GapConfig struct {
	Start string `yaml:"start" mapstructure:"start"` // YYYY-MM-DD
	End   string `yaml:"end" mapstructure:"end"`     // YYYY-MM-DD
}

// ArchiveConfig configures the fetched-document index backend.
type ArchiveConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite or postgres
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	PDFDir      string `yaml:"pdf_dir" mapstructure:"pdf_dir"`
}

// FetchConfig configures PDF retrieval from the publication sources.
type FetchConfig struct {
	UserAgent      string          `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs    int             `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries     int             `yaml:"max_retries" mapstructure:"max_retries"`
	MaxConcurrent  int             `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	RatePerSecond  float64         `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	MHLWPageURL    string          `yaml:"mhlw_page_url" mapstructure:"mhlw_page_url"`
	HCrisisSources []HCrisisSource `yaml:"hcrisis_sources" mapstructure:"hcrisis_sources"`
}

// HCrisisSource is one archived PDF hosted on H-CRISIS.
type HCrisisSource struct {
	URL  string `yaml:"url" mapstructure:"url"`
	Date string `yaml:"date" mapstructure:"date"` // YYYY-MM-DD publication date
}

// OCRConfig configures PDF text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey    string `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel  string `yaml:"mistral_ocr_model" mapstructure:"mistral_ocr_model"`
}

// SiteConfig configures static site generation.
type SiteConfig struct {
	DocsDir string `yaml:"docs_dir" mapstructure:"docs_dir"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ROUKI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("timeline.appearances_path", "timeline/appearances.tsv")
	v.SetDefault("timeline.changes_path", "timeline/changes.tsv")
	v.SetDefault("timeline.corruption_table", "config/corruption.yaml")
	v.SetDefault("gap.start", "2018-08-01")
	v.SetDefault("gap.end", "2020-11-30")
	v.SetDefault("archive.driver", "sqlite")
	v.SetDefault("archive.sqlite_path", "archive/index.db")
	v.SetDefault("archive.pdf_dir", "archive/pdf")
	v.SetDefault("fetch.user_agent", "rouki-cli/1.0 (+https://github.com/rouki-watch/rouki-cli)")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.max_concurrent", 3)
	v.SetDefault("fetch.rate_per_second", 1.0)
	v.SetDefault("fetch.mhlw_page_url", "https://www.mhlw.go.jp/kinkyu/151106.html")
	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.mistral_ocr_model", "pixtral-large-latest")
	v.SetDefault("site.docs_dir", "docs")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
