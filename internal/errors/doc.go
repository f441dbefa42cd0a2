// Package errors provides coded, actionable errors for the tether command.
//
// Every error has a code that maps to a registered message and detail:
//   - E1xx: configuration (tether.yaml, .env, TETHER_* variables)
//   - E2xx: runtime (binding models, serving HTTP)
//   - E3xx: transport and storage (redis, Postgres, Pebble, S3)
//
// Errors found in a configuration file can carry the file location, in which
// case Format prints the surrounding lines.
//
// # Usage
//
//	err := errors.New("E104").
//	    WithDetail(`transport.driver is "nats"`).
//	    WithSuggestion(`Use "hub" or "redis"`)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E104: Unknown transport driver
//	//
//	//   transport.driver is "nats"
//	//
//	//   Hint: Use "hub" or "redis"
package errors
