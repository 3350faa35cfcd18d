// internal/config/validate.go
package config

import "fmt"

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validLogFormats = map[string]bool{
	"text": true, "json": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}
	if !validLogFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format: must be text or json; got %q", c.Log.Format))
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		errs = append(errs, "log: rotation limits must not be negative")
	}

	if c.Library.Root == "" {
		errs = append(errs, "library.root: required")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path: required")
	}

	if c.Thumbnails.Timeout.Duration < 0 {
		errs = append(errs, fmt.Sprintf("thumbnails.timeout: must be positive, got %s", c.Thumbnails.Timeout))
	}
	if c.Thumbnails.PrewarmWorkers < 0 {
		errs = append(errs, fmt.Sprintf("thumbnails.prewarm_workers: must be positive, got %d", c.Thumbnails.PrewarmWorkers))
	}

	return errs
}
