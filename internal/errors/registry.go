package errors

import (
	"sort"
	"sync"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

var registryMu sync.RWMutex

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Configuration errors (E100-E199)

	"E101": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "The configuration file named on the command line does not exist.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file is not valid YAML or has values of the wrong type.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid listen address",
		Detail:   "server.address must be host:port, for example \":8080\" or \"127.0.0.1:8080\".",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Unknown transport driver",
		Detail:   "transport.driver must be \"hub\" (this process only) or \"redis\" (every process sharing a redis).",
	},
	"E105": {
		Category: CategoryConfig,
		Message:  "Unknown snapshot driver",
		Detail:   "snapshot.driver must be empty, \"memory\", \"pebble\", \"postgres\" or \"s3\".",
	},
	"E106": {
		Category: CategoryConfig,
		Message:  "Missing redis address",
		Detail:   "The redis transport needs transport.redis.addr.",
	},
	"E107": {
		Category: CategoryConfig,
		Message:  "Missing snapshot location",
		Detail:   "The selected snapshot driver needs a path, URL or bucket.",
	},
	"E108": {
		Category: CategoryConfig,
		Message:  "Invalid limit",
		Detail:   "Durations, rates and sizes must not be negative.",
	},
	"E109": {
		Category: CategoryConfig,
		Message:  "Invalid environment variable",
		Detail:   "A TETHER_* environment variable could not be parsed.",
	},
	"E110": {
		Category: CategoryConfig,
		Message:  "Invalid log settings",
		Detail:   "log.level must be debug, info, warn or error and log.format text or json.",
	},
	"E111": {
		Category: CategoryConfig,
		Message:  "Cannot write configuration file",
	},

	// Runtime errors (E200-E299)

	"E201": {
		Category: CategoryRuntime,
		Message:  "Cannot bind model",
		Detail:   "The model could not be attached to its channel.",
	},
	"E202": {
		Category: CategoryRuntime,
		Message:  "HTTP server failed",
	},
	"E203": {
		Category: CategoryCLI,
		Message:  "Unknown model",
		Detail:   "No model is registered under that name.",
	},

	// Transport and storage errors (E300-E399)

	"E301": {
		Category: CategoryTransport,
		Message:  "Cannot connect to redis",
	},
	"E302": {
		Category: CategoryStorage,
		Message:  "Cannot connect to Postgres",
	},
	"E303": {
		Category: CategoryStorage,
		Message:  "Cannot open Pebble database",
	},
	"E304": {
		Category: CategoryStorage,
		Message:  "Cannot use S3 bucket",
	},
	"E305": {
		Category: CategoryStorage,
		Message:  "Cannot read snapshot",
		Detail:   "The snapshot store could not return the saved state of the channel.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[code] = template
}
