package collector

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-set/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/mod/modfile"
)

// manifestParser extracts dependency names from one manifest file.
type manifestParser func(path string, data []byte) ([]string, error)

// manifests maps the manifest file names looked up in the project root to
// their parsers.
var manifests = map[string]manifestParser{
	"package.json":   parsePackageJSON,
	"go.mod":         parseGoMod,
	"Cargo.toml":     parseCargoToml,
	"pyproject.toml": parsePyproject,
}

// DependencyCollector lists the dependencies declared by the manifests in
// the project root.
type DependencyCollector struct{}

// Collect returns the deduplicated, sorted dependency names of every
// manifest found. A manifest that cannot be parsed becomes a warning.
func (dc *DependencyCollector) Collect(ctx context.Context, root string) (Result, error) {
	names := lo.Keys(manifests)
	sort.Strings(names)

	deps := set.New[string](32)
	var warnings []string
	for _, name := range names {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}

		path := filepath.Join(root, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				warnings = append(warnings, errors.Wrapf(err, "reading %s", name).Error())
			}
			continue
		}

		found, err := manifests[name](path, data)
		if err != nil {
			warnings = append(warnings, errors.Wrapf(err, "parsing %s", name).Error())
			continue
		}
		deps.InsertSlice(found)
	}

	result := deps.Slice()
	sort.Strings(result)
	return Result{Dependencies: result, Warnings: warnings}, nil
}

func parsePackageJSON(_ string, data []byte) ([]string, error) {
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}
	return append(lo.Keys(pkg.Dependencies), lo.Keys(pkg.DevDependencies)...), nil
}

func parseGoMod(path string, data []byte) ([]string, error) {
	ast, err := modfile.ParseLax(path, data, nil)
	if err != nil {
		return nil, err
	}
	return lo.Map(ast.Require, func(r *modfile.Require, _ int) string {
		return r.Mod.Path
	}), nil
}

func parseCargoToml(_ string, data []byte) ([]string, error) {
	var cargo struct {
		Dependencies      map[string]any `toml:"dependencies"`
		DevDependencies   map[string]any `toml:"dev-dependencies"`
		BuildDependencies map[string]any `toml:"build-dependencies"`
	}
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return nil, err
	}
	var result []string
	for _, table := range []map[string]any{cargo.Dependencies, cargo.DevDependencies, cargo.BuildDependencies} {
		result = append(result, lo.Keys(table)...)
	}
	return result, nil
}

func parsePyproject(_ string, data []byte) ([]string, error) {
	var py struct {
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &py); err != nil {
		return nil, err
	}

	result := lo.FilterMap(py.Project.Dependencies, func(req string, _ int) (string, bool) {
		name := requirementName(req)
		return name, name != ""
	})
	for name := range py.Tool.Poetry.Dependencies {
		if name != "python" {
			result = append(result, name)
		}
	}
	return result, nil
}

// requirementName returns the distribution name of a PEP 508 requirement
// such as "requests[socks] >=2.31; python_version > '3.8'".
func requirementName(req string) string {
	req = strings.TrimSpace(req)
	if i := strings.IndexAny(req, " <>=!~;[(@"); i >= 0 {
		req = req[:i]
	}
	return req
}
