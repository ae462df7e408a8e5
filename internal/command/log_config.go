package command

import (
	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/logging"
)

// resolveLogConfig resolves log options from flags and config. Non-empty
// flag values take precedence over the config, which falls back to the
// schema defaults.
func resolveLogConfig(flagFile, flagLevel string, cfg *config.Config) logging.Options {
	schema := config.DefaultSchema()
	opts := logging.Options{
		Level:     flagLevel,
		File:      flagFile,
		MaxSizeMB: schema.GetInt(cfg, "", "log.max-size-mb"),
		MaxFiles:  schema.GetInt(cfg, "", "log.max-files"),
		Format:    schema.GetString(cfg, "", "log.format"),
	}
	if opts.Level == "" {
		opts.Level = schema.GetString(cfg, "", "log.level")
	}
	if opts.File == "" {
		opts.File = schema.GetString(cfg, "", "log.file")
	}
	return opts
}
