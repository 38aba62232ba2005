package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/leeforge/compact/env_mode"
	apperrors "github.com/leeforge/compact/errors"
	"github.com/leeforge/compact/utils"
)

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"bound":     "bound",
	"quality":   "quality",
	"policy":    "policy",
	"max-edge":  "max_edge",
	"output":    "output",
	"dir":       "source_dir",
	"ext":       "extensions",
	"workers":   "workers",
	"filter":    "interpolation",
	"report":    "report",
	"watch":     "watch",
	"strict":    "strict",
	"log-level": "log.level",
	"log-file":  "log.file",
}

// RegisterFlags declares the command-line flags Load binds.
func RegisterFlags(fs *pflag.FlagSet) {
	var d AppConfig
	_ = defaults.Set(&d)

	fs.StringP("bound", "b", d.Bound, "maximum output size as \"width,height\"; an empty or non-numeric side is unbounded")
	fs.StringP("quality", "q", d.Quality, "low, medium, high, lossless or a number 0-255")
	fs.StringP("policy", "p", d.Policy, "resize policy: longest-edge, fit or independent")
	fs.Int("max-edge", d.MaxEdge, "longest-edge limit; 0 uses the smaller bound side")
	fs.StringP("output", "o", d.Output, "output directory")
	fs.StringP("dir", "d", d.SourceDir, "source directory scanned when no filename is given")
	fs.StringSlice("ext", d.Extensions, "extensions picked up from the source directory (case-sensitive)")
	fs.IntP("workers", "j", d.Workers, "parallel workers; 0 uses one per CPU")
	fs.String("filter", d.Interpolation, "resampling filter: nearest, bilinear, bicubic, mitchell, lanczos2, lanczos3")
	fs.String("report", d.Report, "write a JSON report to this path")
	fs.Bool("watch", d.Watch, "keep running and compress images as they appear")
	fs.Bool("strict", d.Strict, "exit non-zero when any file fails")
	fs.String("log-level", d.Log.Level, "debug, info, warn or error")
	fs.String("log-file", d.Log.File, "also write JSON logs to this rotating file")
	fs.String("config", "", "config file (default: layered compact*.yaml in the working directory)")
}

// Load resolves AppConfig from defaults, config files, the environment and
// flags, in increasing order of precedence.
func Load(opts Options) (*AppConfig, error) {
	base := DefaultOptions()
	if opts.BasePath == "" {
		opts.BasePath = base.BasePath
	}
	if opts.FileName == "" {
		opts.FileName = base.FileName
	}
	if opts.FileType == "" {
		opts.FileType = base.FileType
	}
	if opts.EnvPrefix == "" {
		opts.EnvPrefix = base.EnvPrefix
	}

	cfg := &AppConfig{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to set defaults: %w", err)
	}

	v, err := createViper(opts, cfg)
	if err != nil {
		return nil, err
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperrors.WrapWithType(err, apperrors.ErrorTypeInvalidFormat, "failed to unmarshal config")
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints on cfg.
func Validate(cfg *AppConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeInvalidFormat, "config validation failed")
	}
	return nil
}

func createViper(opts Options, cfg *AppConfig) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(opts.FileType)

	// Every key needs a default so AutomaticEnv sees it during Unmarshal.
	registerDefaults(v, "", reflect.ValueOf(cfg).Elem())

	paths, err := configFilePaths(opts)
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		layer := viper.New()
		layer.SetConfigFile(path)
		if err := layer.ReadInConfig(); err != nil {
			return nil, apperrors.WrapWithType(err, apperrors.ErrorTypeInvalidFormat,
				fmt.Sprintf("error reading config file %s", path))
		}
		if err := v.MergeConfigMap(layer.AllSettings()); err != nil {
			return nil, fmt.Errorf("failed to merge %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(opts.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if flag := opts.Flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	return v, nil
}

func registerDefaults(v *viper.Viper, prefix string, val reflect.Value) {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if field.Type.Kind() == reflect.Struct {
			registerDefaults(v, key, val.Field(i))
			continue
		}
		v.SetDefault(key, val.Field(i).Interface())
	}
}

// configFilePaths returns the explicit file, or the layered files found in
// BasePath: name, name.local, then name.<mode> and name.<mode>.local for each
// alias of the current mode.
func configFilePaths(opts Options) ([]string, error) {
	if opts.File != "" {
		if !utils.IsFile(opts.File) {
			return nil, apperrors.New(apperrors.ErrorTypeInvalidFormat,
				fmt.Sprintf("config file %s not found", opts.File)).WithDetail("path", opts.File)
		}
		return []string{opts.File}, nil
	}

	names := []string{opts.FileName, opts.FileName + ".local"}
	for _, alias := range env_mode.Mode().Aliases() {
		names = append(names, opts.FileName+"."+alias, opts.FileName+"."+alias+".local")
	}

	var paths []string
	for _, name := range names {
		path := filepath.Join(opts.BasePath, name+"."+opts.FileType)
		if utils.IsFile(path) {
			paths = append(paths, path)
		}
	}
	return paths, nil
}
