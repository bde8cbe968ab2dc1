package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sokol-samples/webpage/internal/log"
)

const templateHeader = `Webpage Configuration

Builds the samples gallery under {workspace}/fips-deploy/sokol-webpage.
Unset keys fall back to built-in defaults.`

// keyComments documents top-level keys in the generated config file.
var keyComments = map[string]string{
	"build_config": "Build profile used to compile the samples",
	"source_url":   "Prefix joined with a sample's source file to link its source",
	"toolchain":    "Project build tool and target SDK location",
	"serve":        "Local preview (webpage serve)",
	"history":      "Deploy history database",
	"tracing":      "OpenTelemetry tracing of deploy steps",
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() (string, error) {
	var doc yaml.Node
	if err := doc.Encode(Defaults()); err != nil {
		return "", fmt.Errorf("encoding defaults: %w", err)
	}
	doc.HeadComment = templateHeader

	if doc.Kind == yaml.MappingNode {
		for i := 0; i < len(doc.Content)-1; i += 2 {
			key := doc.Content[i]
			if comment, ok := keyComments[key.Value]; ok {
				key.HeadComment = comment
			}
		}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()
	return buf.String(), nil
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// The file is written atomically (temp file, then rename).
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	content, err := DefaultConfigTemplate()
	if err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".webpage.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.WriteString(content); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		_ = os.Remove(tempPath)
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
