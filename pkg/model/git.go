package model

// GitAnalytics is the contribution history of a repository.
type GitAnalytics struct {
	Repository Repository             `json:"repository" yaml:"repository"`
	Authors    []AuthorContribution   `json:"authors" yaml:"authors"`
	Modules    map[string]ModuleStats `json:"modules" yaml:"modules"`   // Keyed by module path
	Timeline   []TimelineEntry        `json:"timeline" yaml:"timeline"` // Ascending by date
}

// Repository describes the analyzed repository.
type Repository struct {
	Name         string    `json:"name" yaml:"name"`
	Branch       string    `json:"branch" yaml:"branch"`
	TotalCommits int       `json:"total_commits" yaml:"total_commits"`
	Contributors int       `json:"contributors" yaml:"contributors"`
	DateRange    DateRange `json:"date_range" yaml:"date_range"`
}

// DateRange spans the first and last commit.
type DateRange struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// AuthorContribution is one author's share of the history.
type AuthorContribution struct {
	Name         string  `json:"name" yaml:"name"`
	Email        string  `json:"email,omitempty" yaml:"email,omitempty"`
	Commits      int     `json:"commits" yaml:"commits"`
	LinesAdded   int     `json:"lines_added" yaml:"lines_added"`
	LinesDeleted int     `json:"lines_deleted" yaml:"lines_deleted"`
	Percentage   float64 `json:"percentage" yaml:"percentage"`
}

// ModuleStats is the change history of one module.
type ModuleStats struct {
	Commits      int      `json:"commits" yaml:"commits"`
	Authors      []string `json:"authors" yaml:"authors"`
	LastModified string   `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
	Churn        int      `json:"churn" yaml:"churn"`
}

// TimelineEntry is the activity on one date.
type TimelineEntry struct {
	Date    string   `json:"date" yaml:"date"`
	Commits int      `json:"commits" yaml:"commits"`
	Authors []string `json:"authors" yaml:"authors"`
	Modules []string `json:"modules" yaml:"modules"`
}
