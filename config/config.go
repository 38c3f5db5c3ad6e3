/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
)

// EnvPrefix prefixes the environment variables read by ApplyEnv.
const EnvPrefix = "RECORDSTORE"

// AWS holds the connection settings of the DynamoDB backend.
type AWS struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

// Index names the type index of every table.
type Index struct {
	Name         string `yaml:"name"`
	PartitionKey string `yaml:"partition_key"`
	SortKey      string `yaml:"sort_key"`
}

// Config is the store configuration.
type Config struct {
	Backend string `yaml:"backend"`
	AWS     AWS    `yaml:"aws"`
	// Table backs the default container.
	Table string `yaml:"table"`
	// Containers maps custom container identifiers to table names.
	Containers map[string]string `yaml:"containers"`
	Index      Index             `yaml:"index"`
	LogLevel   string            `yaml:"log_level"`
	// User overrides the current user identity.
	User string `yaml:"user"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Backend:  BackendMemory,
		Table:    "records",
		LogLevel: "warning",
		Index: Index{
			Name:         "GSI1",
			PartitionKey: "GSI1PK",
			SortKey:      "GSI1SK",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies the
// environment. An empty path skips the file. A .env file in the working
// directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()
		if err := cfg.decode(f); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads a YAML document over the defaults without consulting the
// environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from environment variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if val, ok := lookup(key); ok && val != "" {
			*dst = val
		}
	}

	set(EnvPrefix+"_BACKEND", &c.Backend)
	set(EnvPrefix+"_TABLE", &c.Table)
	set(EnvPrefix+"_ENDPOINT", &c.AWS.Endpoint)
	set(EnvPrefix+"_LOG_LEVEL", &c.LogLevel)
	set(EnvPrefix+"_USER", &c.User)
	set("AWS_REGION", &c.AWS.Region)
	set("AWS_ACCESS_KEY_ID", &c.AWS.AccessKey)
	set("AWS_SECRET_ACCESS_KEY", &c.AWS.SecretKey)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendDynamoDB:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Backend != BackendDynamoDB {
		return nil
	}

	if c.Table == "" {
		return fmt.Errorf("dynamodb backend needs a table")
	}
	if c.Index.Name == "" || c.Index.PartitionKey == "" || c.Index.SortKey == "" {
		return fmt.Errorf("index needs a name, a partition key and a sort key")
	}
	if (c.AWS.AccessKey == "") != (c.AWS.SecretKey == "") {
		return fmt.Errorf("aws access key and secret key must be set together")
	}
	for id, table := range c.Containers {
		if id == "" || table == "" {
			return fmt.Errorf("container %q has no table", id)
		}
	}
	return nil
}

// Level parses LogLevel. An empty level is warning.
func (c *Config) Level() (logrus.Level, error) {
	if c.LogLevel == "" {
		return logrus.WarnLevel, nil
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("invalid log level: %w", err)
	}
	return level, nil
}

// ContainerIDs lists the custom container identifiers in order.
func (c *Config) ContainerIDs() []string {
	ids := make([]string, 0, len(c.Containers))
	for id := range c.Containers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// String renders the configuration as YAML with the secret key masked.
func (c *Config) String() string {
	cp := *c
	if cp.AWS.SecretKey != "" {
		cp.AWS.SecretKey = strings.Repeat("*", 8)
	}
	data, err := yaml.Marshal(&cp)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(data)
}
