package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/letsencrypt/pkider/ca"
	"github.com/letsencrypt/pkider/sign"
)

// Config is the configuration file of the pkider server.
type Config struct {
	Pkider struct {
		ListenAddress string   `json:"listenAddress" yaml:"listenAddress"`
		KeyType       string   `json:"keyType" yaml:"keyType"`
		Digest        string   `json:"digest" yaml:"digest"`
		LeafValidity  Duration `json:"leafValidity" yaml:"leafValidity"`
		CAValidity    Duration `json:"caValidity" yaml:"caValidity"`
		MaxDepth      int      `json:"maxDepth" yaml:"maxDepth"`
		MaxSize       int      `json:"maxSize" yaml:"maxSize"`
		LogLevel      string   `json:"logLevel" yaml:"logLevel"`
	} `json:"pkider" yaml:"pkider"`
}

// CAConfig returns the CA settings of c.
func (c Config) CAConfig() ca.Config {
	return ca.Config{
		KeyType:      c.Pkider.KeyType,
		Digest:       sign.Digest(c.Pkider.Digest),
		CAValidity:   c.Pkider.CAValidity.Duration,
		LeafValidity: c.Pkider.LeafValidity.Duration,
		MaxDepth:     c.Pkider.MaxDepth,
		MaxSize:      c.Pkider.MaxSize,
	}
}

// Duration is a time.Duration written as a string such as "2160h" in
// configuration files.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.set(s)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.set(s)
}

func (d *Duration) set(s string) error {
	if s == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// NewLogger builds a JSON logger writing to stderr at level, "info" when
// empty.
func NewLogger(level string) (*zap.Logger, error) {
	logLevel := zapcore.InfoLevel
	if level != "" {
		if err := logLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
	}
	cfg := zap.Config{
		Encoding:         "json",
		Level:            zap.NewAtomicLevelAt(logLevel),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "message",

			LevelKey:    "level",
			EncodeLevel: zapcore.CapitalLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.ISO8601TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}
	return cfg.Build()
}
