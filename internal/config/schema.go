package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	SchemaFileName = "config.schema.json"
	SampleFileName = "config.yaml"
)

// GenerateSchema reflects Config into a JSON schema.
func GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t {
			case reflect.TypeOf(commission_fee.Broker("")):
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			case reflect.TypeOf(datasource.DateFormat("")):
				return &jsonschema.Schema{
					Type: "string",
					Enum: datasource.AllDateFormats,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(&Config{})
	schema.Title = "backtest-config"
	schema.Description = "Configuration schema for the equities backtester"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON returns GenerateSchema as indented JSON.
func GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(GenerateSchema(), "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeSchemaFailed, "failed to marshal schema", err)
	}

	return string(schemaBytes), nil
}

// SampleYAML returns DefaultConfig as YAML.
func SampleYAML() ([]byte, error) {
	out, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSchemaFailed, "failed to marshal sample config", err)
	}

	return out, nil
}

// WriteSchemaAndSample writes config.schema.json and config.yaml into dir.
func WriteSchemaAndSample(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(errors.ErrCodeSchemaFailed, err, "failed to create %s", dir)
	}

	schema, err := GenerateSchemaJSON()
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, SchemaFileName), []byte(schema), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeSchemaFailed, "failed to write schema", err)
	}

	sample, err := SampleYAML()
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, SampleFileName), sample, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeSchemaFailed, "failed to write sample config", err)
	}

	return nil
}
