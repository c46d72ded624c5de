// Package config defines the host configuration: runtime limits, caching and logging.
//
// The guestcall command runs on Default(). Embedders and the guestcall-config
// tool load TOML or YAML files with Load, which overlays the file onto the
// defaults and validates the result.
package config

import (
	"bytes"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/guestcall/domain/errors"
)

// validate is a package-level singleton; validator.New is expensive.
var validate = validator.New()

// Config is the complete host configuration.
type Config struct {
	Runtime Runtime `toml:"runtime" yaml:"runtime" json:"runtime"`
	Log     Log     `toml:"log" yaml:"log" json:"log"`
}

// Runtime configures the WebAssembly runtime context.
type Runtime struct {
	// NativeModule is the import module name under which host functions are exported.
	NativeModule string `toml:"native_module" yaml:"native_module" json:"native_module" validate:"required,ne=wasi_snapshot_preview1" jsonschema:"description=Import module name for host functions; guests are built against it,default=env"`

	// MemoryLimitPages caps guest linear memory, in 64KiB pages.
	MemoryLimitPages uint32 `toml:"memory_limit_pages" yaml:"memory_limit_pages" json:"memory_limit_pages" validate:"min=1,max=65536" jsonschema:"description=Guest memory limit in 64KiB pages,minimum=1,maximum=65536,default=16"`

	// CloseOnContextDone interrupts running guest code when the call context ends.
	CloseOnContextDone bool `toml:"close_on_context_done" yaml:"close_on_context_done" json:"close_on_context_done" jsonschema:"description=Abort guest calls when the context is cancelled,default=true"`

	// CompilationCacheDir persists compiled guests across processes. Empty keeps the cache in memory.
	CompilationCacheDir string `toml:"compilation_cache_dir" yaml:"compilation_cache_dir" json:"compilation_cache_dir,omitempty" jsonschema:"description=Directory for the on-disk compilation cache"`

	// ModuleCacheSize bounds the number of compiled guests kept per runtime.
	ModuleCacheSize int `toml:"module_cache_size" yaml:"module_cache_size" json:"module_cache_size" validate:"min=1,max=1024" jsonschema:"description=Compiled guest modules kept per runtime,minimum=1,maximum=1024,default=8"`
}

// Log configures host logging.
type Log struct {
	Level  string `toml:"level" yaml:"level" json:"level" validate:"oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=warn"`
	Format string `toml:"format" yaml:"format" json:"format" validate:"oneof=text json" jsonschema:"enum=text,enum=json,default=text"`
}

// Default returns the configuration the guestcall command runs with.
func Default() Config {
	return Config{
		Runtime: Runtime{
			NativeModule:       "env",
			MemoryLimitPages:   16,
			CloseOnContextDone: true,
			ModuleCacheSize:    8,
		},
		Log: Log{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads a TOML (.toml) or YAML (.yaml, .yml) file, overlays it onto
// Default() and validates the result. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = decodeTOML(data, &cfg)
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	default:
		return Config{}, fmt.Errorf("config load failed (%s): unsupported extension %q", path, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeTOML(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// An empty document leaves the defaults in place.
		if stdErrors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// Validate checks cfg against its validation tags. The first failing field
// is reported as a *errors.ConfigError.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if stdErrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &errors.ConfigError{
			Field: strings.TrimPrefix(fe.Namespace(), "Config."),
			Err:   fmt.Errorf("failed on '%s' rule (value: %v)", fe.Tag(), fe.Value()),
		}
	}
	return &errors.ConfigError{Err: err}
}

// Schema renders the JSON schema of Config.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&Config{})

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return out, nil
}
