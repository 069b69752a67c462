// Command nsbctl inspects and edits the overlay's settings file while the
// overlay is not running.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"notsobright/internal/config"
	"notsobright/internal/hotkey"
	"notsobright/internal/overlay"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:          "nsbctl",
		Short:        "Inspect and edit NotSoBright settings",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <user config dir>/NotSoBright/config.json)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log recovery details to stderr")

	open := func() (*config.Service, *zap.Logger, error) {
		logger := zap.NewNop()
		if verbose {
			var err error
			if logger, err = zap.NewDevelopment(); err != nil {
				return nil, nil, err
			}
		}
		path := configPath
		if path == "" {
			var err error
			if path, err = config.DefaultPath(); err != nil {
				return nil, nil, err
			}
		}
		svc, err := config.New(path, logger)
		return svc, logger, err
	}

	root.AddCommand(
		newPathCmd(open),
		newShowCmd(open),
		newSetCmd(open),
		newResetCmd(open),
		newHotkeysCmd(open),
	)
	return root
}

type openFunc func() (*config.Service, *zap.Logger, error)

func newPathCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := open()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), svc.Path())
			return nil
		},
	}
}

func newShowCmd(open openFunc) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := open()
			if err != nil {
				return err
			}
			cfg, source := svc.LoadWithSource()
			switch format {
			case "yaml":
				fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n", source)
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return err
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			default:
				return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	return cmd
}

func newSetCmd(open openFunc) *cobra.Command {
	var (
		opacity float64
		bounds  = overlay.DefaultBounds()
		tint    string
		mode    string
		hotkeys map[string]string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings used at the next start",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := open()
			if err != nil {
				return err
			}
			cfg := svc.Load()
			flags := cmd.Flags()

			if flags.Changed("opacity") {
				if err := bounds.Validate(); err != nil {
					return err
				}
				state := overlay.NewState(bounds)
				state.SetOpacity(opacity)
				cfg.OpacityPercent = state.Opacity()
			}
			if flags.Changed("tint") {
				if !overlay.IsValidHexColor(tint) {
					return fmt.Errorf("invalid tint colour %q", tint)
				}
				cfg.TintColor = tint
			}
			if flags.Changed("mode") {
				if err := cfg.Mode.UnmarshalText([]byte(mode)); err != nil {
					return err
				}
			}
			if flags.Changed("hotkey") {
				if cfg.Hotkeys == nil {
					cfg.Hotkeys = map[string]string{}
				}
				for action, combo := range hotkeys {
					if !knownAction(action) {
						return fmt.Errorf("unknown hotkey action %q", action)
					}
					if _, _, err := hotkey.ParseCombination(combo); err != nil {
						return fmt.Errorf("hotkey %s: %w", action, err)
					}
					cfg.Hotkeys[action] = combo
				}
			}
			logger.Debug("saving settings", zap.String("path", svc.Path()))
			return svc.Save(cfg)
		},
	}
	f := cmd.Flags()
	f.Float64Var(&opacity, "opacity", 0, "opacity percent")
	f.Float64Var(&bounds.Min, "min-opacity", bounds.Min, "lowest opacity percent, as passed to the overlay")
	f.Float64Var(&bounds.Max, "max-opacity", bounds.Max, "highest opacity percent, as passed to the overlay")
	f.StringVar(&tint, "tint", "", "tint colour, e.g. #202020")
	f.StringVar(&mode, "mode", "", "interaction mode: edit or passive")
	f.StringToStringVar(&hotkeys, "hotkey", nil, "shortcut override, e.g. toggle-mode=Ctrl+Alt+M")
	return cmd
}

func knownAction(name string) bool {
	for _, b := range hotkey.DefaultBindings() {
		if string(b.Action) == name {
			return true
		}
	}
	return false
}

func newResetCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := open()
			if err != nil {
				return err
			}
			if err := svc.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "settings reset")
			return nil
		},
	}
}

type bindingEntry struct {
	Action string `yaml:"action"`
	Keys   string `yaml:"keys"`
}

func newHotkeysCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "hotkeys",
		Short: "List the global shortcuts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := open()
			if err != nil {
				return err
			}
			cfg := svc.Load()
			bindings := hotkey.ResolveBindings(cfg.Hotkeys, logger)
			entries := make([]bindingEntry, 0, len(bindings))
			for _, b := range bindings {
				entries = append(entries, bindingEntry{Action: string(b.Action), Keys: b.String()})
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			if err := enc.Encode(entries); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
