package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/service"
)

func (a *app) projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List registered projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.current(ctx); err != nil {
				return err
			}
			projects, err := a.svc.Projects.List(ctx, a.store)
			if err != nil {
				return err
			}
			w := out(cmd)
			title(w, "Projects")
			if len(projects) == 0 {
				muted(w, "No projects yet. Run `commitdash projects register`.")
			}
			for _, p := range projects {
				fmt.Fprintf(w, "%-22s %s  %s\n", p.ID, p.Name, mutedStyle.Render(p.Repository.FullName))
			}
			return nil
		},
	}
	cmd.AddCommand(a.projectRegisterCmd(), a.projectShowCmd(), a.projectDeleteCmd())
	return cmd
}

func (a *app) projectRegisterCmd() *cobra.Command {
	var (
		in     service.ProjectInput
		repoID string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a project over a saved repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.current(ctx)
			if err != nil {
				return err
			}
			if in.Repository, err = a.svc.Catalog.SavedRepository(ctx, sess, repoID); err != nil {
				return err
			}
			p, err := a.svc.Projects.Register(ctx, a.store, in)
			if err != nil {
				return err
			}
			success(out(cmd), "Registered %s as %s.", p.Name, p.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "project name")
	f.StringVar(&in.Description, "description", "", "project description")
	f.StringVar(&repoID, "repo", "", "saved repository id")
	f.StringVar(&in.Settings.Branch, "branch", "", "branch to watch (default: the repository's)")
	f.StringSliceVar(&in.Settings.WatchPaths, "watch", nil, "paths to watch (repeatable or comma separated)")
	f.BoolVar(&in.Settings.WebhookEnabled, "webhook", false, "enable the webhook")
	f.BoolVar(&in.Settings.AutoComment, "auto-comment", false, "comment new commits automatically")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("repo")
	return cmd
}

func (a *app) projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project and its recent commits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.current(ctx)
			if err != nil {
				return err
			}
			p, err := a.svc.Projects.Get(ctx, a.store, sess, args[0])
			if err != nil {
				return err
			}

			w := out(cmd)
			printProject(cmd, p)
			commits, err := a.svc.Commits.ListCommits(ctx, sess, p.Repository.Owner, p.Repository.Name)
			if err != nil {
				warn(w, "Commits could not be loaded: %s", err)
				return nil
			}
			printCommits(w, commits, time.Now())
			return nil
		},
	}
}

func printProject(cmd *cobra.Command, p model.Project) {
	w := out(cmd)
	title(w, p.Name)
	if p.Description != "" {
		fmt.Fprintln(w, p.Description)
	}
	muted(w, "%s on %s", p.Repository.FullName, p.Settings.Branch)
	if len(p.Settings.WatchPaths) > 0 {
		muted(w, "watching %v", p.Settings.WatchPaths)
	}
}

func (a *app) projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a registered project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.current(ctx); err != nil {
				return err
			}
			if err := a.svc.Projects.Delete(ctx, a.store, args[0]); err != nil {
				return err
			}
			success(out(cmd), "Deleted %s.", args[0])
			return nil
		},
	}
}
