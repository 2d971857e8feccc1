package main

import (
	"github.com/dmitrymomot/formkit/pkg/file"
	"github.com/dmitrymomot/formkit/pkg/formdata"
	"github.com/dmitrymomot/formkit/pkg/httpserver"
	"github.com/dmitrymomot/formkit/pkg/ratelimiter"
	"github.com/dmitrymomot/formkit/pkg/redis"
)

// Config is the process configuration.
type Config struct {
	Env        string `env:"APP_ENV" envDefault:"development"`
	Name       string `env:"APP_NAME" envDefault:"formkit"`
	SchemaFile string `env:"FORM_SCHEMA_FILE" envDefault:"forms.yaml"`

	StorageDriver   string `env:"STORAGE_DRIVER" envDefault:"local"` // local or s3
	StorageLocalDir string `env:"STORAGE_LOCAL_DIR" envDefault:"./uploads"`
	StorageBaseURL  string `env:"STORAGE_BASE_URL" envDefault:"/uploads/"`

	S3       file.S3Config
	HTTP     httpserver.Config
	Formdata formdata.Config
	Quota    ratelimiter.Config
	Redis    redis.Config
}
