package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/model"
)

func (a *app) reposCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repos",
		Short: "List your GitHub repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.current(cmd.Context())
			if err != nil {
				return err
			}
			repos, fallback := a.svc.Catalog.ListGitHubRepositories(cmd.Context(), sess)

			w := out(cmd)
			title(w, "GitHub repositories")
			if fallback {
				warn(w, "GitHub could not be reached. Showing sample repositories.")
			}
			for _, r := range repos {
				line := fmt.Sprintf("%-10d %s", r.ID, r.Name)
				if r.Language != "" {
					line += "  [" + r.Language + "]"
				}
				fmt.Fprintln(w, line)
				if r.Description != "" {
					muted(w, "           %s", r.Description)
				}
			}
			muted(w, "Save one with `commitdash save <id>`.")
			return nil
		},
	}
}

func (a *app) savedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "saved",
		Short: "List saved repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.current(ctx)
			if err != nil {
				return err
			}
			repos, err := a.svc.Catalog.ListSavedRepositories(ctx, sess)
			if err != nil {
				return err
			}

			w := out(cmd)
			title(w, "Saved repositories")
			if len(repos) == 0 {
				muted(w, "Nothing saved yet. Run `commitdash repos`.")
				return nil
			}
			selected := a.svc.Catalog.SelectedRepository(ctx, a.store)
			for _, r := range repos {
				marker := " "
				if selected != nil && selected.ID == r.ID {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %-22s %s (%s)\n", marker, r.ID, r.RepositoryFullName, r.Branch())
			}
			return nil
		},
	}
}

func (a *app) saveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <github-id>",
		Short: "Save a GitHub repository from `commitdash repos`",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.current(ctx)
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return apperror.ValidationFailed("githubId", fmt.Sprintf("%q is not a repository id", args[0]))
			}
			saved, err := a.svc.Catalog.SaveRepositoryByID(ctx, sess, id)
			if err != nil {
				return err
			}
			success(out(cmd), "Saved %s as %s.", saved.RepositoryFullName, saved.ID)
			return nil
		},
	}
}

func (a *app) unsaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unsave <saved-id>",
		Short: "Remove a saved repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.current(ctx)
			if err != nil {
				return err
			}
			if err := a.svc.Catalog.DeleteSavedRepository(ctx, sess, args[0]); err != nil {
				return err
			}
			success(out(cmd), "Removed %s.", args[0])
			return nil
		},
	}
}

func (a *app) selectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <saved-id>",
		Short: "Choose the repository the commit commands work on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.current(ctx)
			if err != nil {
				return err
			}
			repo, err := a.svc.Catalog.SavedRepository(ctx, sess, args[0])
			if err != nil {
				return err
			}
			if err := a.svc.Catalog.SelectRepository(ctx, a.store, repo); err != nil {
				return err
			}
			success(out(cmd), "Selected %s.", repo.RepositoryFullName)
			return nil
		},
	}
}

// target resolves --repo owner/name, or the selected repository.
func (a *app) target(cmd *cobra.Command, repoFlag string) (owner, name, branch string, err error) {
	if repoFlag != "" {
		owner, name, err = model.SplitFullName(repoFlag)
		return owner, name, model.DefaultBranch, err
	}
	sel := a.svc.Catalog.SelectedRepository(cmd.Context(), a.store)
	if sel == nil {
		return "", "", "", apperror.ValidationFailed("repo", "no repository selected, run `commitdash select <id>` or pass --repo owner/name")
	}
	owner, name, err = sel.OwnerAndName()
	return owner, name, sel.Branch(), err
}
