// Package config provides configuration loading and validation for tomopipe.
//
// It uses Viper to load a config.yml plus a .env file from standard
// locations, binds environment variables over file values, and unmarshals
// the result into the module's aggregate Config.
//
// # Usage
//
//	var cfg config.Config
//	if err := config.Load("tomopipe", &cfg); err != nil {
//	    log.Fatal(err)
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
