package commitview

import (
	"time"

	"github.com/sakif/commit-dashboard/internal/model"
)

// IllustrativeLabel must be shown next to IllustrativeCommits wherever they
// are rendered.
const IllustrativeLabel = "Example data: the commit list could not be loaded"

// IllustrativeCommits is a fixed example history for a screen that chooses
// to show something after a failed fetch. It is never returned by the
// commit service itself.
func IllustrativeCommits(now time.Time) []model.CommitSummary {
	const avatar = "https://ui-avatars.com/api/?name=John+Doe&background=random"
	day := 24 * time.Hour

	raws := []RawCommit{
		{SHA: "abc123def456", Message: "Initial commit", Date: now.Format(time.RFC3339)},
		{SHA: "def456ghi789", Message: "Add README file", Date: now.Add(-day).Format(time.RFC3339)},
		{SHA: "ghi789jkl012", Message: "Fix bug in login component", Date: now.Add(-2 * day).Format(time.RFC3339)},
	}
	out := make([]model.CommitSummary, 0, len(raws))
	for _, raw := range raws {
		raw.AuthorName = "John Doe"
		raw.Author = RawAuthor{Login: "johndoe", AvatarURL: avatar}
		raw.Commit = &RawGitData{Author: &RawGitAuthor{Email: "john@example.com"}}
		out = append(out, Normalize(raw, "example", "example", now))
	}
	return out
}
