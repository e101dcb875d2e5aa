package client

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"github.com/caarlos0/go-shellwords"

	"github.com/dotcommander/yteam/internal/config"
)

// resolveKey returns the credential of p: api_key, then api_key_env, then
// the output of api_key_cmd.
func resolveKey(ctx context.Context, p config.Profile) (string, error) {
	key := p.APIKey
	if key == "" && p.APIKeyEnv != "" {
		key = os.Getenv(p.APIKeyEnv)
	}
	if key == "" && p.APIKeyCmd != "" {
		args, err := shellwords.Parse(p.APIKeyCmd)
		if err != nil {
			return "", fmt.Errorf("parse api_key_cmd: %w", err)
		}
		if len(args) == 0 {
			return "", fmt.Errorf("api_key_cmd is empty")
		}
		// #nosec G204 -- api_key_cmd is explicitly configured by the local user.
		out, err := exec.CommandContext(ctx, args[0], args[1:]...).Output()
		if err != nil {
			return "", fmt.Errorf("run api_key_cmd: %w", err)
		}
		key = strings.TrimSpace(string(out))
	}
	return key, nil
}

func keyRequired(api string) bool {
	switch api {
	case apiBedrock, apiOllama:
		return false
	}
	return true
}

// resolveBaseURL validates raw and fills in the endpoint of providers that
// have a well-known one.
func resolveBaseURL(api, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		switch api {
		case apiOllama:
			return "http://localhost:11434/v1", nil
		case apiCompat, apiAzure:
			return "", fmt.Errorf("base_url is required")
		}
		return "", nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid base_url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid base_url %q: missing host", raw)
	}
	return strings.TrimSuffix(raw, "/"), nil
}
