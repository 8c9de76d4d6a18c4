// Package config provides the generic configuration plumbing used by the portal:
// .env file loading, YAML overlays and environment variable overrides driven by
// struct tags.
//
// Environment Variables and .env Files:
//
// LoadEnvFiles loads .env files before any override is applied. Files are
// loaded in the following priority order (higher priority wins, and variables
// already present in the process environment are never replaced):
//
//  1. Environment variable ENV_FILE (if set, loads only this file)
//  2. <dir>/.env.local (if exists)
//  3. <dir>/.env (if exists)
//
// Example config struct:
//
//	type MyConfig struct {
//	    Port  int    `yaml:"port" env:"MY_PORT"`
//	    Host  string `yaml:"host" env:"MY_HOST"`
//	    Debug bool   `yaml:"debug" env:"DEBUG"`
//	}
//
//	cfg := MyConfig{Port: 8080}
//	if err := config.Overlay("config.yml", &cfg); err != nil { ... }
//	if err := config.ApplyEnvOverrides(&cfg); err != nil { ... }
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvFileVar names the variable that points at an explicit .env file.
const EnvFileVar = "ENV_FILE"

// LoadEnvFiles loads .env files from dir in priority order.
// Missing files are not an error.
func LoadEnvFiles(dir string) error {
	if envFile := os.Getenv(EnvFileVar); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	// godotenv never overrides variables that are already set, so the
	// first file loaded wins for any key it defines.
	for _, name := range []string{".env.local", ".env"} {
		path := filepath.Join(dir, name)
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	return nil
}

// Overlay reads a YAML file onto an already populated struct. Keys absent from
// the file keep their current values. A missing file is not an error, which
// lets profiles run without any file on disk.
func Overlay[T any](path string, cfg *T) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	return nil
}

// ApplyEnvOverrides uses struct tags to apply environment variable values.
// Tag format: `env:"VAR_NAME"`. Unset or empty variables leave the field alone.
// A value that does not parse as the field's type is a *ValidationError
// naming the variable; every such failure is returned, joined.
func ApplyEnvOverrides(cfg any) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return errors.Join(applyEnvToStruct(v)...)
}

func applyEnvToStruct(v reflect.Value) []error {
	if v.Kind() != reflect.Struct {
		return nil
	}

	var errs []error

	t := v.Type()
	for i := range v.NumField() {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Time{}) {
			errs = append(errs, applyEnvToStruct(field)...)
			continue
		}

		if field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			errs = append(errs, applyEnvToStruct(field.Elem())...)
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		envVal, ok := os.LookupEnv(envTag)
		if !ok || envVal == "" {
			continue
		}

		if err := setFieldFromString(field, envVal); err != nil {
			errs = append(errs, &ValidationError{
				Field:   envTag,
				Message: fmt.Sprintf("cannot use %q as %s: %v", envVal, field.Type(), err),
			})
		}
	}
	return errs
}

func setFieldFromString(field reflect.Value, val string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(val)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(val)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(val, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(i)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(val, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(val, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := parseBool(val)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			field.Set(reflect.ValueOf(SplitList(val)))
		}
	}
	return nil
}

var errNotBool = errors.New("expected true/false, 1/0, yes/no or on/off")

// parseBool accepts the usual spellings, case-insensitively.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, errNotBool
	}
}

// SplitList splits a comma separated value, trimming blanks and dropping
// empty items.
func SplitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetConfigPath returns the config path from CONFIG_PATH env var or the default.
func GetConfigPath(defaultPath string) string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return defaultPath
}
