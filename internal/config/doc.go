// Package config loads the configuration of the tether command.
//
// Settings come from, in increasing precedence: built-in defaults, the YAML
// file (tether.yaml), and TETHER_* environment variables. A .env file next
// to the configuration file is loaded into the environment first without
// overriding variables that are already set.
//
// # Configuration File Structure
//
//	server:
//	  address: ":8080"
//	  basePath: /tether
//	  metricsPath: /metrics
//	channel: counter
//	debounce: 300ms
//	transport:
//	  driver: redis
//	  redis:
//	    addr: localhost:6379
//	    prefix: "tether:"
//	snapshot:
//	  driver: pebble
//	  interval: 1s
//	  pebble:
//	    path: ./data
//	rateLimit:
//	  perSecond: 50
//	  burst: 100
//	log:
//	  level: info
//	  format: text
//
// # Usage
//
//	cfg, err := config.Load("tether.yaml")
//	if err != nil {
//	    errors.PrintError(err)
//	    os.Exit(1)
//	}
package config
