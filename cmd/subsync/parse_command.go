package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"subsync/internal/cues"
	"subsync/internal/replication"
	"subsync/internal/tracker"
)

type parseReport struct {
	Source     string     `json:"source" yaml:"source"`
	CueCount   int        `json:"cue_count" yaml:"cue_count"`
	Start      float64    `json:"start" yaml:"start"`
	End        float64    `json:"end" yaml:"end"`
	Characters int        `json:"characters" yaml:"characters"`
	Chunks     int        `json:"chunks" yaml:"chunks"`
	ChunkSize  int        `json:"chunk_size" yaml:"chunk_size"`
	Active     *string    `json:"active,omitempty" yaml:"active,omitempty"`
	Cues       []cues.Cue `json:"cues" yaml:"cues"`
}

func newParseCommand(ctx *commandContext) *cobra.Command {
	var (
		format   string
		limit    int
		noFilter bool
		at       float64
	)

	cmd := &cobra.Command{
		Use:   "parse <file|url|->",
		Short: "Parse a subtitle file and list its cues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			outFormat, err := validateFormat(format)
			if err != nil {
				return err
			}

			raw, err := readSource(cmd.Context(), cfg, args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			set, err := cues.Parse(raw, cues.Options{
				Budget:     cfg.FrameBudget(),
				FilterTags: cfg.Parser.FilterTags && !noFilter,
			})
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			characters := utf8.RuneCountInString(raw)
			start, end := set.Span()
			report := parseReport{
				Source:     args[0],
				CueCount:   len(set),
				Start:      start,
				End:        end,
				Characters: characters,
				Chunks:     replication.ChunkCount(characters, cfg.Sync.ChunkSize),
				ChunkSize:  cfg.Sync.ChunkSize,
				Cues:       set,
			}
			if cmd.Flags().Changed("at") {
				text := tracker.New(set).Observe(at).Text
				report.Active = &text
			}
			if limit > 0 && len(report.Cues) > limit {
				report.Cues = report.Cues[:limit]
			}

			out := cmd.OutOrStdout()
			if outFormat != formatTable {
				return writeStructured(out, outFormat, report)
			}

			rows := make([][]string, 0, len(report.Cues))
			for i, cue := range report.Cues {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					formatSeconds(cue.Start),
					formatSeconds(cue.End),
					cue.Text,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Start", "End", "Text"}, rows, map[int]bool{0: true}, 60))
			fmt.Fprintf(out, "Parsed %d cues from %s to %s\n", report.CueCount, formatSeconds(start), formatSeconds(end))
			fmt.Fprintf(out, "Payload: %d characters in %d chunk(s) of %d\n", characters, report.Chunks, report.ChunkSize)
			if report.Active != nil {
				active := strings.ReplaceAll(*report.Active, "\n", " / ")
				if active == "" {
					active = "(nothing)"
				}
				fmt.Fprintf(out, "At %s: %s\n", formatSeconds(at), active)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "Output format: table, json or yaml")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many cues (0 = all)")
	cmd.Flags().BoolVar(&noFilter, "no-filter", false, "Keep inline formatting tags")
	cmd.Flags().Float64Var(&at, "at", 0, "Also show the text active at this playback time in seconds")
	return cmd
}
