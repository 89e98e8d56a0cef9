// Package config loads generator options. Values are layered: built-in
// defaults, then an optional YAML file, then OASBAKE_ environment variables
// where a double underscore separates nested keys:
//
//	OASBAKE_PREFIX=/api
//	OASBAKE_NAMESPACES__ENTITIES=app,hr
//	OASBAKE_OUTPUT__JSON=webroot/swagger.json
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/vitalvas/oasbake/oaserr"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "OASBAKE_"

// Config holds the generator options.
type Config struct {
	// Prefix limits documented routes to those below it.
	Prefix string `koanf:"prefix"`
	// ExceptionSchema names the schema referenced by error responses that
	// declare no schema of their own.
	ExceptionSchema      string     `koanf:"exception_schema"`
	RequestContentTypes  []string   `koanf:"request_content_types"`
	ResponseContentTypes []string   `koanf:"response_content_types"`
	Namespaces           Namespaces `koanf:"namespaces"`
	Info                 Info       `koanf:"info"`
	// BaseDocument is a YAML or JSON document the generated paths and
	// schemas are merged into.
	BaseDocument string `koanf:"base_document"`
	// Manifest is a YAML file declaring routes, tables, classes and
	// metadata records.
	Manifest  string `koanf:"manifest"`
	Output    Output `koanf:"output"`
	HotReload bool   `koanf:"hot_reload"`
}

// Namespaces lists the package names searched when resolving short class
// names.
type Namespaces struct {
	Controllers []string `koanf:"controllers"`
	Entities    []string `koanf:"entities"`
	Tables      []string `koanf:"tables"`
}

// Info fills the info object when the base document has none.
type Info struct {
	Title       string `koanf:"title"`
	Version     string `koanf:"version"`
	Description string `koanf:"description"`
}

// Output lists the files written after generation.
type Output struct {
	JSON string `koanf:"json"`
	YAML string `koanf:"yaml"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Prefix:               "/",
		ExceptionSchema:      "Exception",
		RequestContentTypes:  []string{"application/x-www-form-urlencoded"},
		ResponseContentTypes: []string{"application/json"},
		Info: Info{
			Title:   "API",
			Version: "1.0.0",
		},
		Output: Output{
			JSON: "swagger.json",
		},
	}
}

// listKeys are split on commas when read from the environment.
var listKeys = []string{
	"request_content_types",
	"response_content_types",
	"namespaces.controllers",
	"namespaces.entities",
	"namespaces.tables",
}

// Load reads the configuration. An empty path skips the file layer.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("%w: load defaults: %w", oaserr.ErrConfig, err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("%w: load %s: %w", oaserr.ErrConfig, path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("%w: load environment: %w", oaserr.ErrConfig, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: decode: %w", oaserr.ErrConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if slices.Contains(listKeys, key) {
		parts := strings.Split(value, ",")
		for i, p := range parts {
			parts[i] = strings.TrimSpace(p)
		}
		return key, parts
	}
	return key, value
}

// Validate checks option values that would otherwise fail late.
func (c Config) Validate() error {
	var errs []error
	if !strings.HasPrefix(c.Prefix, "/") {
		errs = append(errs, fmt.Errorf("prefix %q must start with a slash", c.Prefix))
	}
	if len(c.RequestContentTypes) == 0 {
		errs = append(errs, errors.New("request_content_types must not be empty"))
	}
	if len(c.ResponseContentTypes) == 0 {
		errs = append(errs, errors.New("response_content_types must not be empty"))
	}
	for _, mime := range slices.Concat(c.RequestContentTypes, c.ResponseContentTypes) {
		if !strings.Contains(mime, "/") {
			errs = append(errs, fmt.Errorf("invalid content type %q", mime))
		}
	}
	if c.Output.JSON == "" && c.Output.YAML == "" {
		errs = append(errs, errors.New("no output file configured"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", oaserr.ErrConfig, err)
	}
	return nil
}

// EntityNamespaces returns the entity namespaces followed by the table
// namespaces, without duplicates.
func (c Config) EntityNamespaces() []string {
	out := slices.Clone(c.Namespaces.Entities)
	for _, ns := range c.Namespaces.Tables {
		if !slices.Contains(out, ns) {
			out = append(out, ns)
		}
	}
	return out
}
