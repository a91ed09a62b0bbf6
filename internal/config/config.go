// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	AppID        string
	AppSecret    string
	RedirectURI  string
	OAuthScopes  []string
	GraphBaseURL string
	ListenAddr   string
	DBPath       string
}

// defaultScopes are the Graph API permissions requested when
// METABRIDGE_OAUTH_SCOPES is not set.
var defaultScopes = []string{"ads_management", "ads_read", "business_management"}

// Load reads configuration from environment variables and returns a validated
// Config. METABRIDGE_APP_ID, METABRIDGE_APP_SECRET and METABRIDGE_REDIRECT_URI
// are required; the process refuses to start without them. Optional variables
// with defaults: METABRIDGE_OAUTH_SCOPES (ads_management,ads_read,
// business_management), METABRIDGE_GRAPH_BASE_URL
// (https://graph.facebook.com/v23.0), METABRIDGE_LISTEN_ADDR (127.0.0.1:8080),
// METABRIDGE_DB_PATH (metabridge.db).
func Load() (*Config, error) {
	appID := os.Getenv("METABRIDGE_APP_ID")
	if appID == "" {
		return nil, fmt.Errorf("METABRIDGE_APP_ID is required")
	}

	appSecret := os.Getenv("METABRIDGE_APP_SECRET")
	if appSecret == "" {
		return nil, fmt.Errorf("METABRIDGE_APP_SECRET is required")
	}

	redirectURI := os.Getenv("METABRIDGE_REDIRECT_URI")
	if redirectURI == "" {
		return nil, fmt.Errorf("METABRIDGE_REDIRECT_URI is required")
	}

	scopes := defaultScopes
	if v, ok := os.LookupEnv("METABRIDGE_OAUTH_SCOPES"); ok && v != "" {
		scopes = nil
		for _, scope := range strings.Split(v, ",") {
			scope = strings.TrimSpace(scope)
			if scope != "" {
				scopes = append(scopes, scope)
			}
		}
		if scopes == nil {
			scopes = defaultScopes
		}
	}

	graphBaseURL := "https://graph.facebook.com/v23.0"
	if v, ok := os.LookupEnv("METABRIDGE_GRAPH_BASE_URL"); ok && v != "" {
		graphBaseURL = v
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("METABRIDGE_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "metabridge.db"
	if v, ok := os.LookupEnv("METABRIDGE_DB_PATH"); ok {
		dbPath = v
	}

	return &Config{
		AppID:        appID,
		AppSecret:    appSecret,
		RedirectURI:  redirectURI,
		OAuthScopes:  scopes,
		GraphBaseURL: graphBaseURL,
		ListenAddr:   listenAddr,
		DBPath:       dbPath,
	}, nil
}
