package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"runlevelctl/pkg/logging"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

const manifestPattern = "*.hcl"

// hclManifestFile is the top-level structure of a component manifest.
type hclManifestFile struct {
	Components []*ComponentDefinition `hcl:"component,block"`
}

// LoadManifests reads every *.hcl file in dir, in name order, and returns the
// components they declare. A missing directory holds no manifests.
func LoadManifests(dir string) ([]ComponentDefinition, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, manifestPattern))
	if err != nil {
		return nil, fmt.Errorf("failed to list manifests in %s: %w", dir, err)
	}
	sort.Strings(files)

	parser := hclparse.NewParser()
	var components []ComponentDefinition
	for _, file := range files {
		fileComponents, err := parseManifest(parser, file)
		if err != nil {
			return nil, err
		}
		logging.Debug("Config", "Loaded %d component(s) from %s", len(fileComponents), file)
		components = append(components, fileComponents...)
	}
	return components, nil
}

// parseManifest parses a single HCL file and returns the components found within it.
func parseManifest(parser *hclparse.Parser, filePath string) ([]ComponentDefinition, error) {
	hclFile, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
	}

	var parsed hclManifestFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filePath, diags)
	}

	components := make([]ComponentDefinition, 0, len(parsed.Components))
	for _, c := range parsed.Components {
		components = append(components, *c)
	}
	return components, nil
}
