package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/commit-dashboard/internal/apperror"
	"github.com/sakif/commit-dashboard/internal/commitview"
	"github.com/sakif/commit-dashboard/internal/model"
	"github.com/sakif/commit-dashboard/internal/service"
)

// cliDevice names the CLI's comment workflows; one process is one device.
const cliDevice = "cli"

func printCommits(w io.Writer, commits []model.CommitSummary, now time.Time) {
	for _, c := range commits {
		msg := commitview.TruncateMessage(commitview.FirstLine(c.Message), commitview.DefaultMaxMessage)
		fmt.Fprintf(w, "%s %s %s\n",
			shaStyle.Render(c.ShortSHA),
			msg,
			mutedStyle.Render(c.AuthorName+", "+commitview.RelativeTime(c.AuthorDate, now)),
		)
	}
}

func (a *app) commitsCmd() *cobra.Command {
	var (
		repoFlag     string
		illustrative bool
	)
	cmd := &cobra.Command{
		Use:   "commits",
		Short: "List recent commits of the selected repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.current(ctx)
			if err != nil {
				return err
			}
			owner, name, _, err := a.target(cmd, repoFlag)
			if err != nil {
				return err
			}

			w := out(cmd)
			title(w, owner+"/"+name)
			commits, err := a.svc.Commits.ListCommits(ctx, sess, owner, name)
			if err != nil {
				if !illustrative {
					return fmt.Errorf("%w (pass --illustrative to see example data)", err)
				}
				warn(w, "%s", commitview.IllustrativeLabel)
				printCommits(w, commitview.IllustrativeCommits(time.Now()), time.Now())
				return nil
			}
			if len(commits) == 0 {
				muted(w, "No commits.")
			}
			printCommits(w, commits, time.Now())
			return nil
		},
	}
	cmd.Flags().StringVar(&repoFlag, "repo", "", "owner/name instead of the selected repository")
	cmd.Flags().BoolVar(&illustrative, "illustrative", false, "show labelled example commits when loading fails")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	var (
		repoFlag string
		patches  bool
	)
	cmd := &cobra.Command{
		Use:   "show <sha>",
		Short: "Show one commit with its changed files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.current(ctx)
			if err != nil {
				return err
			}
			owner, name, _, err := a.target(cmd, repoFlag)
			if err != nil {
				return err
			}
			d, err := a.svc.Commits.GetCommitDetail(ctx, sess, owner, name, args[0])
			if err != nil {
				return err
			}

			w := out(cmd)
			title(w, commitview.ShortSHA(d.SHA)+" "+commitview.FirstLine(d.Message))
			muted(w, "%s <%s>, %s", d.AuthorName, d.AuthorEmail, commitview.RelativeTime(d.AuthorDate, time.Now()))
			if body := strings.TrimSpace(strings.TrimPrefix(d.Message, commitview.FirstLine(d.Message))); body != "" {
				fmt.Fprintln(w, body)
			}
			fmt.Fprintf(w, "+%d -%d in %d files\n", d.Stats.Additions, d.Stats.Deletions, len(d.Files))
			for _, f := range d.Files {
				fmt.Fprintf(w, "  %s %s %s\n", badge(f.Status), f.Filename,
					mutedStyle.Render(fmt.Sprintf("+%d -%d", f.Additions, f.Deletions)))
				if patches && f.Patch != "" {
					fmt.Fprintln(w, f.Patch)
				}
			}
			if d.HTMLURL != "" {
				muted(w, "%s", d.HTMLURL)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&repoFlag, "repo", "", "owner/name instead of the selected repository")
	cmd.Flags().BoolVar(&patches, "patch", false, "print each file's diff")
	return cmd
}

// parseEdits splits "comment-id=new content" arguments.
func parseEdits(raw []string) ([][2]string, error) {
	edits := make([][2]string, 0, len(raw))
	for _, e := range raw {
		id, content, ok := strings.Cut(e, "=")
		if !ok || strings.TrimSpace(id) == "" {
			return nil, apperror.ValidationFailed("edit", fmt.Sprintf("%q is not of the form id=content", e))
		}
		edits = append(edits, [2]string{strings.TrimSpace(id), content})
	}
	return edits, nil
}

func printPreview(w io.Writer, snap service.WorkflowSnapshot) {
	for _, c := range snap.Comments {
		fmt.Fprintf(w, "%s %s\n", shaStyle.Render(c.ID), mutedStyle.Render(fmt.Sprintf("%s:%d", c.FileName, c.LineNumber)))
		fmt.Fprintf(w, "    %s\n", c.Content)
	}
}

func (a *app) commentsCmd() *cobra.Command {
	var (
		repoFlag string
		edits    []string
		apply    bool
	)
	cmd := &cobra.Command{
		Use:   "comments <sha>",
		Short: "Generate AI code comments for a commit, optionally edit and apply them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.current(ctx); err != nil {
				return err
			}
			parsed, err := parseEdits(edits)
			if err != nil {
				return err
			}
			owner, name, branch, err := a.target(cmd, repoFlag)
			if err != nil {
				return err
			}

			w := out(cmd)
			wf := a.svc.Comments.Workflow(cliDevice, owner, name, args[0])
			muted(w, "Generating comments...")
			snap, err := wf.Generate(ctx, branch)
			if err != nil {
				return err
			}
			for _, e := range parsed {
				if snap, err = wf.EditComment(ctx, e[0], e[1]); err != nil {
					return err
				}
			}

			title(w, "Comment preview")
			printPreview(w, snap)
			if !apply {
				muted(w, "Pass --apply to push these comments to %s.", branch)
				return nil
			}

			muted(w, "Applying...")
			snap, err = wf.Apply(ctx, branch)
			if err != nil {
				return err
			}
			if snap.Notice != nil {
				fmt.Fprintln(w, noticeStyle.Render(snap.Notice.Message+"\n"+snap.Notice.CommitURL))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&repoFlag, "repo", "", "owner/name instead of the selected repository")
	cmd.Flags().StringArrayVar(&edits, "edit", nil, "replace a comment before applying, as id=content (repeatable)")
	cmd.Flags().BoolVar(&apply, "apply", false, "apply and push the comments")
	return cmd
}
