package config

import (
	"github.com/spf13/pflag"

	"github.com/leeforge/compact/logging"
	"github.com/leeforge/compact/media/storage"
)

// AppConfig is everything a run needs. Raw strings are parsed by Resolve.
type AppConfig struct {
	Bound         string   `mapstructure:"bound" json:"bound" yaml:"bound" default:"1600,1600" validate:"required"`
	Quality       string   `mapstructure:"quality" json:"quality" yaml:"quality" default:"medium" validate:"required"`
	Policy        string   `mapstructure:"policy" json:"policy" yaml:"policy" default:"longest-edge"`
	MaxEdge       int      `mapstructure:"max_edge" json:"max_edge" yaml:"max_edge" validate:"gte=0"`
	Output        string   `mapstructure:"output" json:"output" yaml:"output" default:"compacted" validate:"required"`
	SourceDir     string   `mapstructure:"source_dir" json:"source_dir" yaml:"source_dir" default:"."`
	Extensions    []string `mapstructure:"extensions" json:"extensions" yaml:"extensions" default:"[\"jpg\",\"jpeg\",\"png\"]" validate:"min=1,dive,required"`
	Workers       int      `mapstructure:"workers" json:"workers" yaml:"workers" validate:"gte=0"`
	Interpolation string   `mapstructure:"interpolation" json:"interpolation" yaml:"interpolation" default:"lanczos3"`
	Report        string   `mapstructure:"report" json:"report" yaml:"report"`
	Watch         bool     `mapstructure:"watch" json:"watch" yaml:"watch"`
	Strict        bool     `mapstructure:"strict" json:"strict" yaml:"strict"`

	// File is the positional filename; it only comes from the command line.
	File string `mapstructure:"-" json:"file,omitempty" yaml:"-"`

	Log     logging.Config `mapstructure:"log" json:"log" yaml:"log"`
	Storage StorageConfig  `mapstructure:"storage" json:"storage" yaml:"storage"`
}

type StorageConfig struct {
	OSS storage.OSSConfig `mapstructure:"oss" json:"oss" yaml:"oss"`
}

type Options struct {
	// File is an explicit config file. It must exist when set.
	File string
	// BasePath is searched for layered FileName files when File is empty.
	BasePath  string
	FileName  string
	FileType  string
	EnvPrefix string
	Flags     *pflag.FlagSet
}

func DefaultOptions() Options {
	return Options{
		BasePath:  ".",
		FileName:  "compact",
		FileType:  "yaml",
		EnvPrefix: "COMPACT",
	}
}
