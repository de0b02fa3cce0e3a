package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Pool     PoolConfig
	Raster   RasterConfig
	Pipeline PipelineConfig
	Output   OutputConfig
	OCR      OCRConfig
	S3       S3Config
	Log      LogConfig
}

// PoolConfig sizes the execution slot pool per resource class.
type PoolConfig struct {
	CPUSlots         int `mapstructure:"cpu_slots"`
	AcceleratorSlots int `mapstructure:"accelerator_slots"`
}

// RasterConfig holds settings for the external rasterizing subprocess.
type RasterConfig struct {
	GhostscriptBin string        `mapstructure:"ghostscript_bin"`
	PdfToTextBin   string        `mapstructure:"pdftotext_bin"`
	DPI            int           `mapstructure:"dpi"`
	TargetSize     int           `mapstructure:"target_size"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// PipelineConfig holds default stage-enable flags for a run. Flags passed
// on the command line take precedence.
type PipelineConfig struct {
	ScratchDir               string `mapstructure:"scratch_dir"`
	UseSemanticDetection     bool   `mapstructure:"use_semantic_detection"`
	UseClassifierPostprocess bool   `mapstructure:"use_classifier_postprocess"`
	UseRulePostprocess       bool   `mapstructure:"use_rule_postprocess"`
	SkipTextExtraction       bool   `mapstructure:"skip_text_extraction"`
	VisualizeProposals       bool   `mapstructure:"visualize_proposals"`
}

// OutputConfig holds result output settings.
type OutputConfig struct {
	Dir        string `mapstructure:"dir"`
	XLSXReport bool   `mapstructure:"xlsx_report"`
}

// OCRConfig holds OCR engine settings.
type OCRConfig struct {
	Languages []string `mapstructure:"languages"`
}

// S3Config holds AWS S3 settings for publishing run outputs. An empty
// bucket disables publishing.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	KeyPrefix string `mapstructure:"key_prefix"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the PAGELIFT_
// prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PAGELIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Pool defaults
	v.SetDefault("pool.cpu_slots", 8)
	v.SetDefault("pool.accelerator_slots", 1)

	// Raster defaults
	v.SetDefault("raster.ghostscript_bin", "gs")
	v.SetDefault("raster.pdftotext_bin", "pdftotext")
	v.SetDefault("raster.dpi", 600)
	v.SetDefault("raster.target_size", 1920)
	v.SetDefault("raster.timeout", "120s")

	// Pipeline defaults
	v.SetDefault("pipeline.scratch_dir", "/tmp/pagelift")
	v.SetDefault("pipeline.use_semantic_detection", true)
	v.SetDefault("pipeline.use_classifier_postprocess", false)
	v.SetDefault("pipeline.use_rule_postprocess", false)
	v.SetDefault("pipeline.skip_text_extraction", true)
	v.SetDefault("pipeline.visualize_proposals", false)

	// Output defaults
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.xlsx_report", false)

	// OCR defaults
	v.SetDefault("ocr.languages", "eng")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.key_prefix", "pagelift")
	v.SetDefault("s3.endpoint", "")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}
