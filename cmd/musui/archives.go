package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/musui/musui-server/internal/catalog"
	"github.com/musui/musui-server/internal/model"
	"github.com/musui/musui-server/internal/tui/brewview"
)

var courses = catalog.Default()

func archivesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "archives",
		Aliases: []string{"archive", "a"},
		Short:   "List and manage your archives",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List your archives, newest first",
			RunE: func(cmd *cobra.Command, args []string) error {
				list, err := a.recorder.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, "아직 기록이 없습니다.")
				}
				for _, arc := range list {
					printSummary(out, arc)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show one archive with all notes",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				arc, ok := a.recorder.Local().Get(args[0])
				if !ok {
					c, err := a.requireClient()
					if err != nil {
						return err
					}
					if arc, err = c.Get(cmd.Context(), args[0]); err != nil {
						return err
					}
				}
				printDetail(cmd.OutOrStdout(), arc)
				return nil
			},
		},
		addCmd(a),
		visibilityCmd(a, "publish", true),
		visibilityCmd(a, "unpublish", false),
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete an archive",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.requireClient()
				if err != nil {
					return err
				}
				if err := c.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "삭제됨:", args[0])
				return nil
			},
		},
	)
	return cmd
}

func addCmd(a *app) *cobra.Command {
	var in model.ManualInput
	var laps string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a tea outside a guided session",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseLaps(laps)
			if err != nil {
				return err
			}
			in.Laps = parsed
			res, err := a.recorder.SaveManual(cmd.Context(), in)
			if err != nil {
				return err
			}
			printSaved(cmd, res.ID, res.Local)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.TeaName, "name", "", "tea name")
	f.StringVar(&in.TeaType, "type", "", "tea type")
	f.StringVar(&in.Origin, "origin", "", "origin")
	f.StringVar(&in.BrandOrPurchase, "brand", "", "brand or where it was bought")
	f.StringVar(&laps, "laps", "", "comma separated lap seconds, e.g. 20,25,40")
	f.BoolVar(&in.IsPublic, "public", false, "publish to the community feed")
	return cmd
}

func visibilityCmd(a *app, use string, isPublic bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.recorder.SetVisibility(cmd.Context(), args[0], isPublic); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

// parseLaps reads "20,25,40". Empty input means the defaults apply.
func parseLaps(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid lap %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func printSummary(w io.Writer, arc *model.Archive) {
	vis := "비공개"
	if arc.IsPublic {
		vis = "공개"
	}
	titles := make([]string, 0, len(arc.Items))
	for _, it := range arc.Items {
		titles = append(titles, it.Describe(courses).Title)
	}
	fmt.Fprintf(w, "%s  %s  %s  %s\n", arc.ID, arc.CreatedAt.Local().Format("2006-01-02 15:04"), vis, strings.Join(titles, ", "))
}

func printDetail(w io.Writer, arc *model.Archive) {
	printSummary(w, arc)
	for i, it := range arc.Items {
		d := it.Describe(courses)
		fmt.Fprintf(w, "  %d. %s [%s] %s / %s\n", i+1, d.Title, d.Category, d.Origin, d.BrandOrPurchase)
		laps := make([]string, len(it.LapSeconds()))
		for j, l := range it.LapSeconds() {
			laps[j] = brewview.FormatClock(l)
		}
		if len(laps) > 0 {
			fmt.Fprintf(w, "     laps: %s\n", strings.Join(laps, " "))
		}
		switch v := it.(type) {
		case model.GuidedItem:
			if v.Memo != "" {
				fmt.Fprintf(w, "     memo: %s\n", v.Memo)
			}
		case model.ManualItem:
			for k, n := range v.InfusionNotes {
				fmt.Fprintf(w, "     infusion %d: %s\n", k+1, formatNote(n))
			}
		}
	}
}

func formatNote(n model.InfusionNote) string {
	var parts []string
	if n.Aroma != "" {
		parts = append(parts, "aroma "+n.Aroma)
	}
	if n.Body != nil {
		parts = append(parts, "body "+strconv.Itoa(*n.Body))
	}
	if n.Aftertaste != "" {
		parts = append(parts, "aftertaste "+n.Aftertaste)
	}
	if len(parts) == 0 {
		return model.Blank
	}
	return strings.Join(parts, ", ")
}
