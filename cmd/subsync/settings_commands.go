package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"subsync/internal/settings"
)

type settingsView struct {
	Export       string                `json:"export" yaml:"export"`
	Presentation settings.Presentation `json:"presentation" yaml:"presentation"`
}

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change subtitle presentation settings",
	}

	settingsCmd.AddCommand(newSettingsShowCommand(ctx))
	settingsCmd.AddCommand(newSettingsExportCommand(ctx))
	settingsCmd.AddCommand(newSettingsImportCommand(ctx))
	settingsCmd.AddCommand(newSettingsResetCommand(ctx))
	settingsCmd.AddCommand(newSettingsPresetCommand(ctx))

	return settingsCmd
}

// withKeeper runs fn against the persisted settings and writes any change
// back before the store closes.
func withKeeper(cmd *cobra.Command, ctx *commandContext, fn func(*settings.Keeper) error) error {
	keeper, st, err := ctx.openKeeper(cmd.Context())
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}
	if err := fn(keeper); err != nil {
		return err
	}
	return keeper.Flush(cmd.Context())
}

func newSettingsShowCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current presentation settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := validateFormat(format)
			if err != nil {
				return err
			}
			return withKeeper(cmd, ctx, func(keeper *settings.Keeper) error {
				view := settingsView{Export: keeper.Export(), Presentation: keeper.Current()}
				if outFormat != formatTable {
					return writeStructured(cmd.OutOrStdout(), outFormat, view)
				}
				return printSettingsTable(cmd.OutOrStdout(), view)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "Output format: table, json or yaml")
	return cmd
}

func printSettingsTable(out io.Writer, view settingsView) error {
	p := view.Presentation
	rows := [][]string{
		{"Font size", strconv.Itoa(p.FontSize)},
		{"Font colour", p.FontColor.Hex()},
		{"Outline size", strconv.FormatFloat(p.OutlineSize, 'f', -1, 64)},
		{"Outline colour", p.OutlineColor.Hex()},
		{"Background colour", p.BackgroundColor.Hex()},
		{"Background opacity", strconv.FormatFloat(p.BackgroundOpacity, 'f', -1, 64)},
		{"Vertical margin", strconv.Itoa(p.VerticalMargin)},
		{"Horizontal margin", strconv.Itoa(p.HorizontalMargin)},
		{"Alignment", p.Alignment.String()},
	}
	fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, nil, 0))
	fmt.Fprintf(out, "Export: %s\n", view.Export)
	return nil
}

func newSettingsExportCommand(ctx *commandContext) *cobra.Command {
	var copyToClipboard bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the settings export string",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeeper(cmd, ctx, func(keeper *settings.Keeper) error {
				value := keeper.Export()
				fmt.Fprintln(cmd.OutOrStdout(), value)
				if copyToClipboard {
					if err := clipboard.WriteAll(value); err != nil {
						return fmt.Errorf("copy to clipboard: %w", err)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&copyToClipboard, "copy", false, "Also copy the string to the clipboard")
	return cmd
}

func newSettingsImportCommand(ctx *commandContext) *cobra.Command {
	var paste bool
	var reset bool

	cmd := &cobra.Command{
		Use:   "import [export-string]",
		Short: "Apply a settings export string",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value string
			switch {
			case paste:
				text, err := clipboard.ReadAll()
				if err != nil {
					return fmt.Errorf("read clipboard: %w", err)
				}
				value = text
			case len(args) == 1:
				value = args[0]
			default:
				return fmt.Errorf("an export string or --paste is required")
			}
			value = strings.TrimSpace(value)

			return withKeeper(cmd, ctx, func(keeper *settings.Keeper) error {
				if reset {
					keeper.ImportReset(value)
				} else {
					keeper.Import(value)
				}
				fmt.Fprintln(cmd.OutOrStdout(), keeper.Export())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&paste, "paste", false, "Read the string from the clipboard")
	cmd.Flags().BoolVar(&reset, "reset", false, "Start from defaults instead of the current settings")
	return cmd
}

func newSettingsResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default presentation settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeeper(cmd, ctx, func(keeper *settings.Keeper) error {
				keeper.Reset()
				fmt.Fprintln(cmd.OutOrStdout(), keeper.Export())
				return nil
			})
		},
	}
}

func newSettingsPresetCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset [number]",
		Short: "List presets, or apply one by number",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeeper(cmd, ctx, func(keeper *settings.Keeper) error {
				out := cmd.OutOrStdout()
				if len(args) == 0 {
					presets := keeper.Presets()
					if len(presets) == 0 {
						fmt.Fprintln(out, "No presets configured")
						return nil
					}
					rows := make([][]string, 0, len(presets))
					for i, preset := range presets {
						rows = append(rows, []string{strconv.Itoa(i + 1), preset})
					}
					fmt.Fprintln(out, renderTable([]string{"#", "Preset"}, rows, map[int]bool{0: true}, 80))
					return nil
				}
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid preset number %q", args[0])
				}
				if _, err := keeper.ApplyPreset(n - 1); err != nil {
					return err
				}
				fmt.Fprintln(out, keeper.Export())
				return nil
			})
		},
	}
	return cmd
}
