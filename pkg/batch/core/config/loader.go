package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

// Package config provides utilities for loading and managing application configuration
// from various sources, including YAML files and environment variables.

const moduleName = "config"

// loadConfig loads configuration from a file and environment variables.
// Precedence, lowest first: NewConfig defaults, embedded YAML (with ${VAR} expansion), environment.
// Environment names derive from yaml tags, so midas.data_dir is MIDAS_DATA_DIR.
func loadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Debugf(".env file (%s) not loaded: %v", envFilePath, err)
		}
	}

	cfg := NewConfig()

	var yamlConfig Config
	if len(embeddedConfig) > 0 {
		// Placeholders such as ${MIDAS_ROOT} are resolved after the .env file is loaded.
		expanded, err := NewOsEnvironmentExpander().Expand(embeddedConfig)
		if err != nil {
			return nil, exception.NewBatchError(moduleName, "failed to expand environment variables in config", err)
		}
		if err := yaml.Unmarshal(expanded, &yamlConfig); err != nil {
			return nil, exception.NewBatchError(moduleName, "failed to unmarshal embedded config", err)
		}
	}
	mergeConfig(cfg, &yamlConfig)

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to load config from environment variables", err)
	}
	cfg.EmbeddedConfig = embeddedConfig
	return cfg, nil
}

// LoadConfig loads configuration from the .env file, embedded YAML and environment variables.
// It is expected to be called once during application startup.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	return loadConfig(envFilePath, embeddedConfig)
}

// mergeConfig copies non-zero values from source into dest.
func mergeConfig(dest, source *Config) {
	mergeMidasConfig(&dest.Midas, &source.Midas)
	if source.System.Logging.Level != "" {
		dest.System.Logging.Level = source.System.Logging.Level
	}
	if source.Metrics.Textfile != "" {
		dest.Metrics.Textfile = source.Metrics.Textfile
	}
	if source.Tracing.Enabled {
		dest.Tracing.Enabled = true
	}
	if source.Tracing.OTLPEndpoint != "" {
		dest.Tracing.OTLPEndpoint = source.Tracing.OTLPEndpoint
	}
	if source.Tracing.Insecure {
		dest.Tracing.Insecure = true
	}
	if source.Tracing.ServiceName != "" {
		dest.Tracing.ServiceName = source.Tracing.ServiceName
	}
	for key, value := range source.Storage {
		if dest.Storage == nil {
			dest.Storage = make(map[string]interface{})
		}
		dest.Storage[key] = value
	}
}

func mergeMidasConfig(dest, source *MidasConfig) {
	if source.DataDir != "" {
		dest.DataDir = source.DataDir
	}
	if source.MetadataDir != "" {
		dest.MetadataDir = source.MetadataDir
	}
	if source.TmpDir != "" {
		dest.TmpDir = source.TmpDir
	}
	if source.LargeOutputThreshold != 0 {
		dest.LargeOutputThreshold = source.LargeOutputThreshold
	}
	if source.IDBatchSize != 0 {
		dest.IDBatchSize = source.IDBatchSize
	}
	if source.ChunkSize != 0 {
		dest.ChunkSize = source.ChunkSize
	}
	if source.ProgressInterval != 0 {
		dest.ProgressInterval = source.ProgressInterval
	}
}

// loadStructFromEnv recursively loads configuration values into a struct from environment variables.
// It uses the "yaml" tag to determine the environment variable name.
// Maps and interface values are left to YAML.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// setField sets the value of a reflect.Value field based on its kind.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}
