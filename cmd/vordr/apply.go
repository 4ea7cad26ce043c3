package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/vordr/pkg/types"
	"github.com/cuemby/vordr/pkg/volume"
)

func newApplyCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a configuration file",
		Long: `Apply volume definitions from a YAML file.

Volumes that already exist are left untouched. A file may hold several
documents separated by "---".

Examples:
  # Apply a volume definition
  vordr apply -f volume.yaml

  # Apply multiple volumes
  vordr apply -f volumes.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename, _ := cmd.Flags().GetString("file")

			data, err := os.ReadFile(filename)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}

			resources, err := parseManifest(data)
			if err != nil {
				return err
			}

			s, err := env.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			for _, resource := range resources {
				if err := applyResource(cmd.OutOrStdout(), s.manager, resource); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringP("file", "f", "", "YAML file to apply (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// Resource is one document of an apply manifest
type Resource struct {
	APIVersion string                 `yaml:"apiVersion"`
	Kind       string                 `yaml:"kind"`
	Metadata   ResourceMetadata       `yaml:"metadata"`
	Spec       map[string]interface{} `yaml:"spec"`
}

type ResourceMetadata struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

// parseManifest decodes every non-empty YAML document in data
func parseManifest(data []byte) ([]*Resource, error) {
	var resources []*Resource

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var resource Resource
		err := decoder.Decode(&resource)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		if resource.Kind == "" && resource.Metadata.Name == "" {
			continue
		}
		resources = append(resources, &resource)
	}

	if len(resources) == 0 {
		return nil, fmt.Errorf("no resources found")
	}
	return resources, nil
}

func applyResource(w io.Writer, mgr *volume.Manager, resource *Resource) error {
	switch resource.Kind {
	case "Volume":
		return applyVolume(w, mgr, resource)
	default:
		return fmt.Errorf("unsupported resource kind: %s", resource.Kind)
	}
}

func applyVolume(w io.Writer, mgr *volume.Manager, resource *Resource) error {
	name := resource.Metadata.Name

	vol, err := mgr.Create(volume.CreateRequest{
		Name:    name,
		Driver:  getString(resource.Spec, "driver", types.DefaultVolumeDriver),
		Labels:  keyValueTokens(resource.Metadata.Labels),
		Options: keyValueTokens(getStringMap(resource.Spec, "driverOpts")),
	})
	if errors.Is(err, volume.ErrAlreadyExists) {
		fmt.Fprintf(w, "Volume already exists: %s (skipping)\n", name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create volume %s: %w", name, err)
	}

	fmt.Fprintf(w, "✓ Volume created: %s (ID: %s)\n", vol.Name, vol.ID)
	return nil
}

// keyValueTokens renders a map as sorted key=value tokens
func keyValueTokens(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	tokens := make([]string, 0, len(m))
	for k, v := range m {
		tokens = append(tokens, k+"="+v)
	}
	sort.Strings(tokens)
	return tokens
}

// Helper functions
func getString(m map[string]interface{}, key, defaultValue string) string {
	if v, ok := m[key]; ok && v != nil {
		return fmt.Sprintf("%v", v)
	}
	return defaultValue
}

func getStringMap(m map[string]interface{}, key string) map[string]string {
	raw, ok := m[key].(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}
