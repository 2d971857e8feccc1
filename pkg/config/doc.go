// Package config loads configuration structs from environment variables.
//
// It wraps github.com/joho/godotenv for .env files and
// github.com/caarlos0/env/v11 for tag based parsing. Each config type is parsed
// once and cached for the life of the process:
//
//	type Config struct {
//		Env        string `env:"APP_ENV" envDefault:"development"`
//		SchemaFile string `env:"FORM_SCHEMA_FILE,required"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Nested structs are parsed too, so a service can embed library configs such as
// formdata.Config and httpserver.Config into its own struct.
//
// Errors can be matched with errors.Is against ErrParsingConfig,
// ErrInvalidConfigType, ErrNilPointer and ErrLoadingEnvFile. Reset clears the
// cache between tests.
package config
