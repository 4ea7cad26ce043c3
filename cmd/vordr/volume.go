package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/vordr/pkg/types"
	"github.com/cuemby/vordr/pkg/volume"
)

func newVolumeCmd(env *environment) *cobra.Command {
	volumeCmd := &cobra.Command{
		Use:   "volume",
		Short: "Manage volumes",
	}

	volumeCmd.AddCommand(newVolumeCreateCmd(env))
	volumeCmd.AddCommand(newVolumeListCmd(env))
	volumeCmd.AddCommand(newVolumeRemoveCmd(env))
	volumeCmd.AddCommand(newVolumeInspectCmd(env))
	volumeCmd.AddCommand(newVolumePruneCmd(env))
	volumeCmd.AddCommand(newVolumeMountSpecCmd(env))

	return volumeCmd
}

func newVolumeCreateCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, _ := cmd.Flags().GetString("driver")
			labels, _ := cmd.Flags().GetStringArray("label")
			opts, _ := cmd.Flags().GetStringArray("opt")

			s, err := env.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			vol, err := s.manager.Create(volume.CreateRequest{
				Name:    args[0],
				Driver:  driver,
				Labels:  labels,
				Options: opts,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), vol.Name)
			return nil
		},
	}

	cmd.Flags().StringP("driver", "d", types.DefaultVolumeDriver, "Volume driver")
	cmd.Flags().StringArrayP("label", "l", nil, "Set metadata label (key=value)")
	cmd.Flags().StringArrayP("opt", "o", nil, "Set driver options (key=value)")

	return cmd
}

func newVolumeListCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List volumes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			quiet, _ := cmd.Flags().GetBool("quiet")
			filterTokens, _ := cmd.Flags().GetStringArray("filter")

			filters, err := volume.ParseFilters(filterTokens)
			if err != nil {
				return err
			}

			cfg, err := env.load(cmd)
			if err != nil {
				return err
			}

			// Listing never creates the database
			if _, err := os.Stat(cfg.DBPath); errors.Is(err, fs.ErrNotExist) {
				printVolumes(cmd.OutOrStdout(), nil, quiet)
				return nil
			}

			s, err := openSession(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			volumes, err := s.manager.List(filters)
			if err != nil {
				return err
			}

			printVolumes(cmd.OutOrStdout(), volumes, quiet)
			return nil
		},
	}

	cmd.Flags().BoolP("quiet", "q", false, "Only show volume names")
	cmd.Flags().StringArrayP("filter", "f", nil, "Filter volumes (name=, driver=, label=key[=value])")

	return cmd
}

func printVolumes(w io.Writer, volumes []*types.Volume, quiet bool) {
	if quiet {
		for _, vol := range volumes {
			fmt.Fprintln(w, vol.Name)
		}
		return
	}

	fmt.Fprintf(w, "%-20s %s\n", "DRIVER", "VOLUME NAME")
	for _, vol := range volumes {
		fmt.Fprintf(w, "%-20s %s\n", vol.Driver, vol.Name)
	}
}

func newVolumeRemoveCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm NAME",
		Aliases: []string{"remove"},
		Short:   "Remove a volume",
		Long: `Remove a volume's directory and its record.

A volume whose removal was interrupted shows State "removing" in inspect
and ls. Running rm again finishes the removal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := env.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			vol, err := s.manager.Remove(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), vol.Name)
			return nil
		},
	}

	// A missing mountpoint is always tolerated; the flag exists for compatibility
	cmd.Flags().BoolP("force", "f", false, "Force removal")

	return cmd
}

func newVolumeInspectCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect NAME",
		Short: "Show volume details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := env.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			info, err := s.manager.Inspect(args[0])
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), info)
		},
	}
}

func newVolumePruneCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove unused volumes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.load(cmd)
			if err != nil {
				return err
			}

			// Nothing to prune without a database, and pruning never creates one
			if _, err := os.Stat(cfg.DBPath); errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "Volume pruning not yet implemented")
				return nil
			}

			s, err := openSession(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			pruned, err := s.manager.Prune()
			if err != nil {
				return err
			}

			if len(pruned) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Volume pruning not yet implemented")
				return nil
			}
			for _, name := range pruned {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	cmd.Flags().BoolP("all", "a", false, "Remove all unused volumes, not just anonymous ones")
	cmd.Flags().BoolP("force", "f", false, "Do not prompt for confirmation")

	return cmd
}

func newVolumeMountSpecCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount-spec NAME",
		Short: "Print the OCI bind mount for a volume",
		Long: `Print the OCI runtime-spec mount entry that binds a volume into a
container at --target. The output can be merged into a config.json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _ := cmd.Flags().GetString("target")
			readOnly, _ := cmd.Flags().GetBool("read-only")

			s, err := env.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			mount, err := s.manager.MountSpec(args[0], target, readOnly)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), mount)
		},
	}

	cmd.Flags().String("target", "", "Absolute path inside the container (required)")
	cmd.Flags().Bool("read-only", false, "Mount the volume read-only")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
