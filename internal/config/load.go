package config

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const maxRemoteTextBytes = 2 * 1024 * 1024

// LoadText resolves a system message or task text.
//
// Supported inputs:
//   - raw strings
//   - http(s) URLs
//   - file:// paths
//
// For markdown files loaded via file://, YAML frontmatter is stripped.
func LoadText(ctx context.Context, src string) (string, error) {
	if strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "http://") {
		return fetchText(ctx, src)
	}

	path, ok := strings.CutPrefix(src, "file://")
	if !ok {
		return src, nil
	}
	bts, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".md") {
		return StripYAMLFrontmatter(string(bts))
	}
	return string(bts), nil
}

func fetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch text: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch text: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bts, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return "", fmt.Errorf("fetch text: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(bts)))
	}
	bts, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteTextBytes))
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	if len(bts) >= maxRemoteTextBytes {
		return "", fmt.Errorf("read text: response too large (>%d bytes)", maxRemoteTextBytes)
	}
	return string(bts), nil
}

// StripYAMLFrontmatter removes YAML frontmatter from markdown content.
func StripYAMLFrontmatter(content string) (string, error) {
	lines := strings.Split(content, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return content, nil
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return "", fmt.Errorf("invalid markdown frontmatter: missing closing delimiter")
	}

	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:end], "\n")), &parsed); err != nil {
		return "", fmt.Errorf("invalid markdown frontmatter: %w", err)
	}
	return strings.TrimLeft(strings.Join(lines[end+1:], "\n"), "\r\n"), nil
}
