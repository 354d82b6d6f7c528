package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Project Loading
// =============================================================================

// LoadProject loads the compose files in dir, interpolated with env, the way
// `docker compose` will see them.
func LoadProject(ctx context.Context, projectName, dir string, files []string, env map[string]string) (*types.Project, error) {
	configFiles := make([]types.ConfigFile, 0, len(files))
	for _, name := range files {
		path := filepath.Join(dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, NewBackendError("LoadProject", "", fmt.Sprintf("%s does not exist", path), ErrComposeFileMissing)
			}
			return nil, NewBackendError("LoadProject", "", err.Error(), err)
		}

		var dict map[string]interface{}
		if err := yaml.Unmarshal(content, &dict); err != nil || dict == nil {
			return nil, NewBackendError("LoadProject", "", fmt.Sprintf("%s: invalid YAML syntax", name), ErrInvalidProject)
		}

		configFiles = append(configFiles, types.ConfigFile{
			Filename: path,
			Content:  content,
			Config:   dict,
		})
	}

	project, err := loader.LoadWithContext(ctx, types.ConfigDetails{
		WorkingDir:  dir,
		ConfigFiles: configFiles,
		Environment: types.Mapping(env),
	}, func(opts *loader.Options) {
		opts.SetProjectName(projectName, true)
		opts.SkipNormalization = true
		opts.SkipExtends = true
	})
	if err != nil {
		return nil, NewBackendError("LoadProject", "", err.Error(), ErrInvalidProject)
	}

	return project, nil
}

// ProjectName normalizes a project prefix the way docker compose does, which
// is also the value it writes to the project label.
func ProjectName(prefix string) string {
	return loader.NormalizeProjectName(prefix)
}

// RequireServices checks that every name is a service of project.
func RequireServices(project *types.Project, names ...string) error {
	for _, name := range names {
		if _, ok := project.Services[name]; !ok {
			return NewBackendError("RequireServices", name, "service is not defined", ErrServiceUndefined)
		}
	}
	return nil
}

// ServiceNames returns the project's services in a stable order.
func ServiceNames(project *types.Project) []string {
	names := make([]string, 0, len(project.Services))
	for name := range project.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
