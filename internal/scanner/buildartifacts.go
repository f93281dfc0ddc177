// Build-artifact directory detection from language-specific TOML
// manifests, so a custom Rust/Python output directory is excluded even
// when it isn't named "target" or "dist". Grounded on the teacher's
// internal/config/build_artifact_detector.go, trimmed to the TOML-backed
// detectors (Cargo.toml, pyproject.toml) — the teacher's JSON-backed
// package.json/tsconfig.json detectors are out of scope here since
// they parse nothing go-toml backs.
package scanner

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// detectTOMLBuildExcludes scans root for Cargo.toml / pyproject.toml
// and returns glob-style exclude patterns for any custom build output
// directory they declare.
func detectTOMLBuildExcludes(root string) []string {
	var patterns []string
	patterns = append(patterns, detectCargoOutputs(root)...)
	patterns = append(patterns, detectPyprojectOutputs(root)...)
	return patterns
}

func detectCargoOutputs(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, "Cargo.toml"))
	if err != nil {
		return nil
	}
	var cargo struct {
		Profile struct {
			Release struct {
				TargetDir string `toml:"target-dir"`
			} `toml:"release"`
		} `toml:"profile"`
	}
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return nil
	}
	if dir := cargo.Profile.Release.TargetDir; dir != "" {
		return []string{"**/" + dir + "/**"}
	}
	return nil
}

func detectPyprojectOutputs(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return nil
	}
	var pyproject struct {
		Tool struct {
			Poetry struct {
				Build struct {
					TargetDir string `toml:"target-dir"`
				} `toml:"build"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &pyproject); err != nil {
		return nil
	}
	if dir := pyproject.Tool.Poetry.Build.TargetDir; dir != "" {
		return []string{"**/" + dir + "/**"}
	}
	return nil
}
