package normalize

import (
	"math"
	"sort"
	"time"

	"github.com/simonhull/firebird-suite/heron/pkg/model"
	"github.com/simonhull/firebird-suite/heron/pkg/payload"
)

// percentTolerance is how far author percentages may drift from 100 before
// they are recomputed from commit counts.
const percentTolerance = 1.0

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02", "2006-01"}

func (n *Normalizer) gitAnalytics(sec payload.Value) *model.GitAnalytics {
	repo := sec.First("repository_info", "repository")
	dates := repo.First("date_range", "dates")

	g := &model.GitAnalytics{
		Repository: model.Repository{
			Name:         repo.First("name", "repository").String(unknownName),
			Branch:       repo.First("branch", "current_branch").String(unknownName),
			TotalCommits: max(repo.First("total_commits", "commits").Int(0), 0),
			Contributors: max(repo.First("contributors", "contributor_count", "total_contributors").Int(0), 0),
			DateRange: model.DateRange{
				Start: dates.First("start", "first_commit", "from").String(""),
				End:   dates.First("end", "last_commit", "to").String(""),
			},
		},
		Authors:  authors(sec.First("author_contributions", "authors")),
		Modules:  n.moduleStats(sec.First("module_statistics", "modules")),
		Timeline: n.timeline(sec.First("commit_timeline", "timeline")),
	}

	if g.Repository.TotalCommits == 0 {
		for _, a := range g.Authors {
			g.Repository.TotalCommits += a.Commits
		}
	}
	if g.Repository.Contributors == 0 {
		g.Repository.Contributors = len(g.Authors)
	}
	balancePercentages(g.Authors)
	return g
}

func authors(v payload.Value) []model.AuthorContribution {
	out := []model.AuthorContribution{}
	for _, item := range v.List() {
		if !item.IsObject() {
			continue
		}
		out = append(out, model.AuthorContribution{
			Name:         item.First("name", "author").String(unknownName),
			Email:        item.Get("email").String(""),
			Commits:      max(item.First("commits", "commit_count").Int(0), 0),
			LinesAdded:   max(item.First("lines_added", "insertions").Int(0), 0),
			LinesDeleted: max(item.First("lines_deleted", "deletions").Int(0), 0),
			Percentage:   item.First("percentage", "contribution_percentage").Float(-1),
		})
	}
	return out
}

// balancePercentages recomputes author percentages from commit counts when
// any is missing or their sum is not within tolerance of 100.
func balancePercentages(authors []model.AuthorContribution) {
	if len(authors) == 0 {
		return
	}
	var sum float64
	missing := false
	total := 0
	for _, a := range authors {
		if a.Percentage < 0 {
			missing = true
		}
		sum += a.Percentage
		total += a.Commits
	}
	if !missing && math.Abs(sum-100) <= percentTolerance {
		return
	}
	for i := range authors {
		if total == 0 {
			authors[i].Percentage = 0
			continue
		}
		authors[i].Percentage = math.Round(float64(authors[i].Commits)/float64(total)*10000) / 100
	}
}

// moduleStats accepts an object keyed by module path or a list of entries
// carrying a path.
func (n *Normalizer) moduleStats(v payload.Value) map[string]model.ModuleStats {
	out := map[string]model.ModuleStats{}
	add := func(key string, item payload.Value) {
		p := n.relPath(key)
		if _, dup := out[p]; dup {
			return
		}
		out[p] = model.ModuleStats{
			Commits:      max(item.First("commits", "commit_count").Int(0), 0),
			Authors:      item.First("authors", "contributors").Strings(),
			LastModified: item.First("last_modified", "last_commit").String(""),
			Churn:        max(item.First("churn", "changes").Int(0), 0),
		}
	}

	if v.IsObject() {
		for _, key := range v.Keys() {
			add(key, v.Get(key))
		}
		return out
	}
	for _, item := range v.List() {
		if item.IsObject() {
			add(item.First("path", "module", "file").String(""), item)
		}
	}
	return out
}

func (n *Normalizer) timeline(v payload.Value) []model.TimelineEntry {
	out := []model.TimelineEntry{}
	for _, item := range v.List() {
		if !item.IsObject() {
			continue
		}
		mods := item.Get("modules").Strings()
		for i, m := range mods {
			mods[i] = n.relPath(m)
		}
		out = append(out, model.TimelineEntry{
			Date:    item.First("date", "day").String(unknownName),
			Commits: max(item.First("commits", "commit_count", "count").Int(0), 0),
			Authors: item.Get("authors").Strings(),
			Modules: mods,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return dateKey(out[i].Date) < dateKey(out[j].Date)
	})
	return out
}

// dateKey makes dates in any accepted layout compare chronologically as
// strings. Unparseable dates compare by their raw text.
func dateKey(s string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return s
}
