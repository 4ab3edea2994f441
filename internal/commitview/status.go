package commitview

import "github.com/sakif/commit-dashboard/internal/model"

// Indicator is how a file status is drawn: a hex colour and a one-letter badge.
type Indicator struct {
	Color string `json:"color"`
	Badge string `json:"badge"`
	Label string `json:"label"`
}

// Neutral is used for statuses GitHub may add later (copied, changed, ...).
var Neutral = Indicator{Color: "#6c757d", Badge: "•"}

var indicators = map[model.FileStatus]Indicator{
	model.FileAdded:    {Color: "#28a745", Badge: "A", Label: "added"},
	model.FileModified: {Color: "#ffc107", Badge: "M", Label: "modified"},
	model.FileRemoved:  {Color: "#dc3545", Badge: "D", Label: "removed"},
	model.FileRenamed:  {Color: "#17a2b8", Badge: "R", Label: "renamed"},
}

// StatusIndicator never fails: unknown statuses get Neutral labelled with
// the raw status.
func StatusIndicator(status model.FileStatus) Indicator {
	if ind, ok := indicators[status]; ok {
		return ind
	}
	ind := Neutral
	ind.Label = string(status)
	return ind
}
