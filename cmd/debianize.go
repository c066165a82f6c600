package cmd

import (
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	v1 "github.com/mwanner/cargo-debianize/pkg/api/v1"
	"github.com/mwanner/cargo-debianize/pkg/crate"
	"github.com/mwanner/cargo-debianize/pkg/debianize"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/util/yaml"
)

var debianizeCmd = &cobra.Command{
	Use:   "debianize",
	Short: "create or update the debian/ directory of a crate",
	RunE:  runDebianize,
}

const (
	flagManifest = "manifest-path"
	flagConfig   = "config"
)

func init() {
	debianizeCmd.Flags().StringP(flagManifest, "m", "Cargo.toml", "path to the crate manifest")
	debianizeCmd.Flags().StringP(flagConfig, "c", "", "path to a configuration file with field overrides")

	_ = debianizeCmd.MarkFlagFilename(flagManifest, ".toml")
	_ = debianizeCmd.MarkFlagFilename(flagConfig, ".yaml", ".yml")
}

func runDebianize(cmd *cobra.Command, _ []string) error {
	log := logr.FromContextOrDiscard(cmd.Context())

	manifestPath, _ := cmd.Flags().GetString(flagManifest)
	configPath, _ := cmd.Flags().GetString(flagConfig)

	cfg, err := buildConfig(configPath)
	if err != nil {
		return err
	}

	project, err := crate.LoadManifest(cmd.Context(), manifestPath)
	if err != nil {
		return err
	}
	for _, warning := range project.Warnings {
		log.Info("manifest warning", "warning", warning)
	}

	return debianize.Run(cmd.Context(), filepath.Dir(manifestPath), project, cfg)
}

// buildConfig layers the override file over the environment-derived
// maintainer identity and the built-in defaults.
func buildConfig(path string) (debianize.Config, error) {
	cfg := debianize.DefaultConfig()
	cfg.MaintainerName = os.Getenv("DEBFULLNAME")
	cfg.MaintainerEmail = os.Getenv("DEBEMAIL")

	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return debianize.Config{}, err
	}
	defer f.Close()

	var overrides v1.Debianize
	if err := yaml.NewYAMLOrJSONDecoder(f, 4).Decode(&overrides); err != nil {
		return debianize.Config{}, err
	}
	if overrides.Spec.MaintainerName != "" {
		cfg.MaintainerName = overrides.Spec.MaintainerName
	}
	if overrides.Spec.MaintainerEmail != "" {
		cfg.MaintainerEmail = overrides.Spec.MaintainerEmail
	}
	if overrides.Spec.Team != "" {
		cfg.Team = overrides.Spec.Team
	}
	if overrides.Spec.Section != "" {
		cfg.Section = overrides.Spec.Section
	}
	if overrides.Spec.StandardsVersion != "" {
		cfg.StandardsVersion = overrides.Spec.StandardsVersion
	}
	return cfg, nil
}
