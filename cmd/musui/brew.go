package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/musui/musui-server/internal/brew"
	"github.com/musui/musui-server/internal/catalog"
	"github.com/musui/musui-server/internal/tui/brewview"
)

func brewCmd(a *app) *cobra.Command {
	var start string
	var public bool
	cmd := &cobra.Command{
		Use:   "brew",
		Short: "Run a guided session and archive it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := catalog.Default()
			session := brew.NewSession(cat, start, nil)
			final, err := tea.NewProgram(brewview.New(session, cat.Len())).Run()
			if err != nil {
				return err
			}
			archive := final.(brewview.Model).Archive()
			if archive == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "기록 없이 세션을 마쳤습니다.")
				return nil
			}

			res, err := a.recorder.SaveSession(cmd.Context(), archive)
			if err != nil {
				return err
			}
			if public {
				if err := a.recorder.SetVisibility(cmd.Context(), res.ID, true); err != nil {
					return fmt.Errorf("archived as %s but could not publish: %w", res.ID, err)
				}
			}
			printSaved(cmd, res.ID, res.Local)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "course id to start from")
	cmd.Flags().BoolVar(&public, "public", false, "publish the archive to the community feed")
	return cmd
}

func printSaved(cmd *cobra.Command, id string, local bool) {
	where := "서버"
	if local {
		where = "이 기기(임시)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "저장됨: %s (%s)\n", id, where)
}
