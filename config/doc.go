// Package config loads service configuration with Viper.
//
// Values come from a YAML file (./cmd/<service>/config.yml, ./config/config.yml
// or ./config.yml), an optional .env file loaded through godotenv, and the
// process environment. Service configs embed ServiceConfig and implement
// ApplyDefaults and Validate.
//
//	var cfg AppConfig
//	err := config.LoadConfig("transcriber", &cfg,
//	    config.WithEnvPrefix("TRANSCRIBER"),
//	    config.WithEnvAlias("PORT", "server.port"))
package config
