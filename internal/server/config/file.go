package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/peerlink/internal/flagx"
	"github.com/dmitrijs2005/peerlink/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. The same struct is
// decoded from JSON or YAML depending on the file extension. Zero values
// leave the corresponding Config field untouched.
type FileConfig struct {
	HTTPAddr                    string         `json:"http_addr" yaml:"http_addr"`
	GRPCHealthAddr              string         `json:"grpc_health_addr" yaml:"grpc_health_addr"`
	DatabaseDriver              string         `json:"database_driver" yaml:"database_driver"`
	DatabaseDSN                 string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                   string         `json:"secret_key" yaml:"secret_key"`
	KeySecret                   string         `json:"key_secret" yaml:"key_secret"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	S3RootUser                  string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                    string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	BlobBackend                 string         `json:"blob_backend" yaml:"blob_backend"`
	FilePassphrase              string         `json:"file_passphrase" yaml:"file_passphrase"`
	FileSalt                    string         `json:"file_salt" yaml:"file_salt"`
	NATSURL                     string         `json:"nats_url" yaml:"nats_url"`
	LogFormat                   string         `json:"log_format" yaml:"log_format"`
	LogLevel                    string         `json:"log_level" yaml:"log_level"`
	AllowedOrigins              []string       `json:"allowed_origins" yaml:"allowed_origins"`
	KeyLookupRate               float64        `json:"key_lookup_rate" yaml:"key_lookup_rate"`
	KeyLookupBurst              int            `json:"key_lookup_burst" yaml:"key_lookup_burst"`
}

// parseFile loads the file named by -c/-config (or $PEERLINK_CONFIG) into
// config. Files ending in .yaml or .yml are read as YAML, everything else as
// JSON. An unreadable or malformed file panics.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()

	// nothing to load
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc, err := decodeFile(path, data)
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func decodeFile(path string, data []byte) (*FileConfig, error) {
	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, fc); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, fc); err != nil {
			return nil, err
		}
	}
	return fc, nil
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.GRPCHealthAddr, fc.GRPCHealthAddr)
	setString(&c.DatabaseDriver, fc.DatabaseDriver)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.SecretKey, fc.SecretKey)
	setString(&c.KeySecret, fc.KeySecret)
	if fc.AccessTokenValidityDuration.Duration != 0 {
		c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&c.BlobBackend, fc.BlobBackend)
	setString(&c.FilePassphrase, fc.FilePassphrase)
	setString(&c.FileSalt, fc.FileSalt)
	setString(&c.NATSURL, fc.NATSURL)
	setString(&c.LogFormat, fc.LogFormat)
	setString(&c.LogLevel, fc.LogLevel)
	if len(fc.AllowedOrigins) > 0 {
		c.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.KeyLookupRate > 0 {
		c.KeyLookupRate = fc.KeyLookupRate
	}
	if fc.KeyLookupBurst > 0 {
		c.KeyLookupBurst = fc.KeyLookupBurst
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
