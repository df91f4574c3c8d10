package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/musui/musui-server/internal/catalog"
	"github.com/musui/musui-server/internal/feed"
	"github.com/musui/musui-server/internal/model"
)

func feedCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the community feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := a.recorder.Feed(cmd.Context(), feed.NewAssembler(courses))
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				author := model.Blank
				if e.AuthorDisplayName != nil {
					author = *e.AuthorDisplayName
				}
				fmt.Fprintf(out, "%-10s %s · %s · %s · %s\n", author, e.Title, e.Category, e.Origin, e.BrandOrPurchase)
				if e.Href != "" {
					fmt.Fprintf(out, "%10s %s\n", "", e.Href)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n entries")
	return cmd
}

func profileCmd(a *app) *cobra.Command {
	var name string
	var clear bool
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change your display name",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.requireClient()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case clear:
				if err := c.SetDisplayName(cmd.Context(), nil); err != nil {
					return err
				}
				fmt.Fprintln(out, "닉네임을 지웠습니다.")
				return nil
			case cmd.Flags().Changed("set-name"):
				if err := c.SetDisplayName(cmd.Context(), &name); err != nil {
					return err
				}
				fmt.Fprintln(out, "닉네임:", strings.TrimSpace(name))
				return nil
			}
			p, err := c.Profile(cmd.Context())
			if err != nil {
				return err
			}
			if p == nil || p.DisplayName == nil {
				fmt.Fprintln(out, "닉네임이 없습니다.")
				return nil
			}
			fmt.Fprintln(out, "닉네임:", *p.DisplayName)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "set-name", "", "set the display name")
	cmd.Flags().BoolVar(&clear, "clear-name", false, "remove the display name")
	cmd.MarkFlagsMutuallyExclusive("set-name", "clear-name")
	return cmd
}

func coursesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "courses",
		Short: "List the guided session courses",
		RunE: func(cmd *cobra.Command, args []string) error {
			list := courses.Courses()
			if a.client != nil {
				if remote, err := a.client.Courses(cmd.Context()); err == nil && len(remote) > 0 {
					list = remote
				} else if err != nil {
					a.log.Debug().Err(err).Msg("using the built-in catalog")
				}
			}
			printCourses(cmd, list)
			return nil
		},
	}
}

func printCourses(cmd *cobra.Command, list []catalog.Course) {
	out := cmd.OutOrStdout()
	for i, c := range list {
		fmt.Fprintf(out, "%d. %-10s %s", i+1, c.ID, c.Title)
		if c.Subtitle != "" {
			fmt.Fprintf(out, " - %s", c.Subtitle)
		}
		fmt.Fprintln(out)
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.requireClient()
			if err != nil {
				return err
			}
			u, err := c.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if u == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "로그인하지 않았습니다.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", u.ID, u.Email)
			return nil
		},
	}
}
