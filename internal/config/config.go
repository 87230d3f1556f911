// Package config defines the uploader configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/icpml/canister-uploader/internal/hfcache"
	"gopkg.in/yaml.v3"
)

// maxMessageSize is the replica's ingress message ceiling. The chunk size must
// stay below this with headroom for the candid literal overhead.
const maxMessageSize = 2 * 1024 * 1024

// ModelConfig identifies the model files to upload.
type ModelConfig struct {
	// GGUFRepo is the Hugging Face repository holding the quantized weights.
	GGUFRepo string `yaml:"ggufRepo"`
	// GGUFFile is the weights file within GGUFRepo.
	GGUFFile string `yaml:"ggufFile"`
	// BaseRepo is the repository holding tokenizer.json and config.json.
	BaseRepo string `yaml:"baseRepo"`
}

func (c *ModelConfig) validate() error {
	if c.GGUFRepo == "" {
		return fmt.Errorf("ggufRepo must be set")
	}
	if c.GGUFFile == "" {
		return fmt.Errorf("ggufFile must be set")
	}
	if c.BaseRepo == "" {
		return fmt.Errorf("baseRepo must be set")
	}
	return nil
}

// CanisterConfig is the canister and transport configuration.
type CanisterConfig struct {
	// Name is the canister to upload to.
	Name string `yaml:"name"`
	// DfxBin is the dfx binary, looked up on the PATH when not absolute.
	DfxBin string `yaml:"dfxBin"`
	// ChunkSize bounds a single weights chunk in bytes.
	ChunkSize int `yaml:"chunkSize"`
	// CallTimeout bounds a single dfx invocation.
	CallTimeout time.Duration `yaml:"callTimeout"`
}

func (c *CanisterConfig) validate() error {
	if c.Name == "" {
		return fmt.Errorf("name must be set")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunkSize must be greater than 0")
	}
	if c.ChunkSize >= maxMessageSize {
		return fmt.Errorf("chunkSize must be less than the %d-byte message limit", maxMessageSize)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("callTimeout must be greater than 0")
	}
	return nil
}

// S3Config is the S3 configuration.
type S3Config struct {
	EndpointURL string `yaml:"endpointUrl"`
	Region      string `yaml:"region"`
	Bucket      string `yaml:"bucket"`
}

// PrefetchConfig is the optional object-store prefetch configuration. When
// enabled, model files missing from the local cache are downloaded from S3
// before the upload starts.
type PrefetchConfig struct {
	Enable bool `yaml:"enable"`
	// PathPrefix is prepended to the repository path to form the object key.
	PathPrefix string   `yaml:"pathPrefix"`
	S3         S3Config `yaml:"s3"`
}

func (c *PrefetchConfig) validate() error {
	if !c.Enable {
		return nil
	}
	if c.S3.Region == "" {
		return fmt.Errorf("s3 region must be set")
	}
	if c.S3.Bucket == "" {
		return fmt.Errorf("s3 bucket must be set")
	}
	return nil
}

// DaemonConfig is the daemon-mode configuration.
type DaemonConfig struct {
	// Port is the port the upload server listens on.
	Port int `yaml:"port"`
}

// Config is the configuration.
type Config struct {
	// CacheDir is the Hugging Face hub cache directory.
	CacheDir string `yaml:"cacheDir"`

	Model    ModelConfig    `yaml:"model"`
	Canister CanisterConfig `yaml:"canister"`
	Prefetch PrefetchConfig `yaml:"prefetch"`
	Daemon   DaemonConfig   `yaml:"daemon"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.CacheDir == "" {
		return fmt.Errorf("cacheDir must be set")
	}
	if err := c.Model.validate(); err != nil {
		return fmt.Errorf("model: %s", err)
	}
	if err := c.Canister.validate(); err != nil {
		return fmt.Errorf("canister: %s", err)
	}
	if err := c.Prefetch.validate(); err != nil {
		return fmt.Errorf("prefetch: %s", err)
	}
	return nil
}

// DefaultConfig returns the configuration used when no config file is given.
func DefaultConfig() Config {
	return Config{
		CacheDir: hfcache.DefaultDir(),
		Model: ModelConfig{
			GGUFRepo: "unsloth/Qwen3-0.6B-GGUF",
			GGUFFile: "Qwen3-0.6B-Q8_0.gguf",
			BaseRepo: "Qwen/Qwen3-0.6B",
		},
		Canister: CanisterConfig{
			Name: "qwen3_backend",
			// The candid literal doubles the payload (hex) and adds framing,
			// so leave headroom under the message limit.
			ChunkSize:   1_900_000,
			DfxBin:      "dfx",
			CallTimeout: 5 * time.Minute,
		},
		Daemon: DaemonConfig{
			Port: 8090,
		},
	}
}

// Parse parses the configuration file at the given path, returning a new
// Config struct. Fields not set in the file keep their defaults.
func Parse(path string) (Config, error) {
	config := DefaultConfig()

	if path == "" {
		return config, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("config: read: %s", err)
	}

	if err = yaml.Unmarshal(b, &config); err != nil {
		return config, fmt.Errorf("config: unmarshal: %s", err)
	}
	return config, nil
}
