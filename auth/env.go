package auth

import (
	"context"
	"os"
)

// envVars maps environment variable names to cookie names.
var envVars = map[string]string{
	"INSTAGRAM_SESSIONID":  "sessionid",
	"INSTAGRAM_CSRFTOKEN":  "csrftoken",
	"INSTAGRAM_DS_USER_ID": "ds_user_id",
}

// EnvSource reads session cookies from environment variables.
type EnvSource struct{}

// Cookies returns session cookies from environment variables.
func (EnvSource) Cookies(_ context.Context) (map[string]string, error) {
	cookies := make(map[string]string)
	for envVar, cookieName := range envVars {
		if value := os.Getenv(envVar); value != "" {
			cookies[cookieName] = value
		}
	}

	if len(cookies) == 0 {
		return nil, nil //nolint:nilnil // no env vars set is not an error
	}
	return cookies, nil
}

// EnvVarNames returns the environment variable names consulted by EnvSource.
func EnvVarNames() []string {
	names := make([]string, 0, len(envVars))
	for name := range envVars {
		names = append(names, name)
	}
	return names
}
