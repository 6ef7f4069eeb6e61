package release

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

type versionManifest struct {
	Version string `yaml:"version" toml:"version"`
}

// ReadVersion reads the version declared in the manifest at path. YAML and TOML manifests
// declare it in a top-level "version" key, any other file contains only the version.
func ReadVersion(path string) (*semver.Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read manifest %s", path)
	}

	var raw string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var manifest versionManifest
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return nil, eris.Wrapf(err, "failed to parse %s", path)
		}
		raw = manifest.Version
	case ".toml":
		var manifest versionManifest
		if _, err := toml.Decode(string(data), &manifest); err != nil {
			return nil, eris.Wrapf(err, "failed to parse %s", path)
		}
		raw = manifest.Version
	default:
		raw = string(data)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, eris.Errorf("%s does not declare a version", path)
	}

	version, err := semver.NewVersion(raw)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid version %q in %s", raw, path)
	}
	return version, nil
}

// ParseTag converts a release tag like "v1.2.3" into a version
func ParseTag(tag, prefix string) (*semver.Version, error) {
	version, err := semver.NewVersion(strings.TrimPrefix(tag, prefix))
	if err != nil {
		return nil, eris.Wrapf(err, "release tag %s is not a valid version", tag)
	}
	return version, nil
}
