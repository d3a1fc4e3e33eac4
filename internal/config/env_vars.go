package config

import (
	"fmt"
	"strings"
	"time"
)

// EnvVars holds the ambient settings shared by the Lambda and the dev server.
type EnvVars struct {
	AppName        string        `env:"APP_NAME" envDefault:"Studio Auth Gateway"`
	Environment    string        `env:"ENV" envDefault:"DEV"`
	Port           string        `env:"PORT" envDefault:"8080"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"json"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT" envDefault:"5s"`
	CallTimeout    time.Duration `env:"CALL_TIMEOUT" envDefault:"5s"`
	HandlerTimeout time.Duration `env:"HANDLER_TIMEOUT" envDefault:"9s"`
}

func (e EnvVars) GetPort() string {
	port := e.Port
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Environment == "" {
		return "DEV"
	}
	return e.Environment
}

func (e EnvVars) IsDev() bool {
	return strings.EqualFold(e.GetEnv(), "DEV")
}
