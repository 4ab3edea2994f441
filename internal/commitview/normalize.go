package commitview

import (
	"fmt"
	"time"

	"github.com/sakif/commit-dashboard/internal/model"
)

// Placeholders used when a payload carries no usable value.
const (
	NoMessage     = "No message"
	UnknownAuthor = "Unknown"
)

const shortSHALen = 7

// Normalize maps one raw commit to a CommitSummary. owner and repo are only
// used to build the commit URL when the payload has none; now is used when
// the payload has no parseable date.
//
// Resolution order per field (first non-empty wins):
//
//	Message     message → commit.message → "No message"
//	AuthorName  authorName or string author → commit.author.name → author.login → "Unknown"
//	AuthorLogin author.login → commit.author.name → "Unknown"
//	AuthorEmail commit.author.email → ""
//	AuthorDate  date → commit.author.date → now
//	HTMLURL     html_url → https://github.com/{owner}/{repo}/commit/{sha}
func Normalize(raw RawCommit, owner, repo string, now time.Time) model.CommitSummary {
	var git RawGitData
	if raw.Commit != nil {
		git = *raw.Commit
	}
	var gitAuthor RawGitAuthor
	if git.Author != nil {
		gitAuthor = *git.Author
	}

	url := raw.HTMLURL
	if url == "" {
		url = fmt.Sprintf("https://github.com/%s/%s/commit/%s", owner, repo, raw.SHA)
	}

	return model.CommitSummary{
		SHA:             raw.SHA,
		ShortSHA:        ShortSHA(raw.SHA),
		Message:         first(raw.Message, git.Message, NoMessage),
		AuthorName:      first(raw.AuthorName, raw.Author.Name, gitAuthor.Name, raw.Author.Login, UnknownAuthor),
		AuthorLogin:     first(raw.Author.Login, gitAuthor.Name, UnknownAuthor),
		AuthorEmail:     gitAuthor.Email,
		AuthorAvatarURL: raw.Author.AvatarURL,
		AuthorDate:      firstTime(now, raw.Date, gitAuthor.Date),
		HTMLURL:         url,
	}
}

// NormalizeAll normalizes a list, keeping the order it was received in.
func NormalizeAll(raws []RawCommit, owner, repo string, now time.Time) []model.CommitSummary {
	out := make([]model.CommitSummary, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw, owner, repo, now))
	}
	return out
}

// NormalizeDetail maps a single-commit payload, including its files. Stats
// are taken from the payload when present, otherwise summed from the files.
func NormalizeDetail(raw RawCommit, owner, repo string, now time.Time) model.CommitDetail {
	files := make([]model.FileChange, 0, len(raw.Files))
	for _, f := range raw.Files {
		files = append(files, model.FileChange{
			Filename:  f.Filename,
			Status:    model.FileStatus(f.Status),
			Additions: f.Additions,
			Deletions: f.Deletions,
			Changes:   f.Changes,
			Patch:     f.Patch,
		})
	}

	parents := make([]string, 0, len(raw.Parents))
	for _, p := range raw.Parents {
		parents = append(parents, p.SHA)
	}

	stats := DiffStats(files)
	if raw.Stats != nil {
		stats = model.CommitStats{
			Additions: raw.Stats.Additions,
			Deletions: raw.Stats.Deletions,
			Total:     raw.Stats.Total,
		}
	}

	return model.CommitDetail{
		CommitSummary: Normalize(raw, owner, repo, now),
		Files:         files,
		ParentSHAs:    parents,
		Stats:         stats,
	}
}

// DiffStats sums additions and deletions over files.
func DiffStats(files []model.FileChange) model.CommitStats {
	var s model.CommitStats
	for _, f := range files {
		s.Additions += f.Additions
		s.Deletions += f.Deletions
	}
	s.Total = s.Additions + s.Deletions
	return s
}

// ShortSHA returns the 7-character abbreviation of sha.
func ShortSHA(sha string) string {
	if len(sha) <= shortSHALen {
		return sha
	}
	return sha[:shortSHALen]
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstTime(fallback time.Time, values ...string) time.Time {
	for _, v := range values {
		if v == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return fallback
}
