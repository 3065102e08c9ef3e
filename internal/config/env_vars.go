package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	baseURLVar    = "BASE_URL"
	envVar        = "ENV"
	defaultPort   = "8080"
	defaultApp    = "Tracklight"
	defaultDomain = "http://localhost:8080"
)

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetEnv() string
}

type EnvVars struct {
	port    string
	appName string
	baseURL string
	env     string
}

var _ EnvConfig = EnvVars{}

func loadEnvVars() EnvVars {
	return EnvVars{
		port:    GetEnv(portEnvVar, defaultPort),
		appName: GetEnv(appNameVar, defaultApp),
		baseURL: GetEnv(baseURLVar, defaultDomain),
		env:     GetEnv(envVar, "DEV"),
	}
}

func (e EnvVars) GetPort() string {
	port := e.port
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.appName
}

// GetBaseURL returns the public base URL of this server (e.g. "https://tracklight.example.com").
// Used to build the OAuth redirect URI.
func (e EnvVars) GetBaseURL() string {
	return e.baseURL
}

func (e EnvVars) GetEnv() string {
	return e.env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
