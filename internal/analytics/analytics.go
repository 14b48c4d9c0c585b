// Package analytics computes role-scoped summaries over report snapshots.
package analytics

import (
	"math"
	"sort"

	"faultdesk/internal/models"
	contextutils "faultdesk/internal/utils"
)

// TopN is the length of every ranking.
const TopN = 5

// Category groups process types into coaching themes.
type Category string

const (
	CategoryTraining   Category = "training"
	CategoryBehavioral Category = "behavioral"
	CategoryExecution  Category = "execution"
)

// Categorize maps a process type to its theme.
func Categorize(p models.ProcessType) Category {
	switch p {
	case models.ProcessWrongProcess, models.ProcessWrongDepartment, models.ProcessFirstPointResolution:
		return CategoryTraining
	case models.ProcessBehavior:
		return CategoryBehavioral
	default:
		return CategoryExecution
	}
}

// Breakdown is the share of approved reports per theme, in percent with one decimal.
type Breakdown struct {
	Total         int     `json:"total"`
	TrainingPct   float64 `json:"trainingPct"`
	BehavioralPct float64 `json:"behavioralPct"`
	ExecutionPct  float64 `json:"executionPct"`
}

// Hotspot is a scenario tag and how often it occurs.
type Hotspot struct {
	Tag   models.ScenarioTag `json:"tag"`
	Count int                `json:"count"`
}

// Impact ranks a receiver by approved reports and names their most frequent process type.
type Impact struct {
	UserID       string             `json:"userId"`
	UserName     string             `json:"userName"`
	Count        int                `json:"count"`
	PrimaryIssue models.ProcessType `json:"primaryIssue"`
}

// StatusCounts tallies reports by workflow state.
type StatusCounts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Approved   int `json:"approved"`
	Rejected   int `json:"rejected"`
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	Closed     int `json:"closed"`
}

// Summary is the analytics payload for one viewer.
type Summary struct {
	ScopeUserID     string       `json:"scopeUserId,omitempty"`
	Counts          StatusCounts `json:"counts"`
	Categories      Breakdown    `json:"categories"`
	RejectionRate   float64      `json:"rejectionRate"`
	Hotspots        []Hotspot    `json:"hotspots"`
	ColleagueImpact []Impact     `json:"colleagueImpact,omitempty"`
}

// Percent returns part/total*100 rounded to one decimal, or 0 when total is 0.
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

func approved(items []models.Feedback) []models.Feedback {
	out := make([]models.Feedback, 0, len(items))
	for _, f := range items {
		if f.ApprovalStatus == models.ApprovalApproved {
			out = append(out, f)
		}
	}
	return out
}

// CategorySplit partitions the Approved reports in items by theme.
func CategorySplit(items []models.Feedback) Breakdown {
	var training, behavioral, execution int
	ok := approved(items)
	for _, f := range ok {
		switch Categorize(f.ProcessType) {
		case CategoryTraining:
			training++
		case CategoryBehavioral:
			behavioral++
		case CategoryExecution:
			execution++
		}
	}
	total := len(ok)
	return Breakdown{
		Total:         total,
		TrainingPct:   Percent(training, total),
		BehavioralPct: Percent(behavioral, total),
		ExecutionPct:  Percent(execution, total),
	}
}

// RejectionRate is the share of senderID's reports that were rejected.
func RejectionRate(items []models.Feedback, senderID string) float64 {
	var sent, rejected int
	for _, f := range items {
		if f.FromUserID != senderID {
			continue
		}
		sent++
		if f.ApprovalStatus == models.ApprovalRejected {
			rejected++
		}
	}
	return Percent(rejected, sent)
}

// OverallRejectionRate is the share of all reports in items that were rejected.
func OverallRejectionRate(items []models.Feedback) float64 {
	var rejected int
	for _, f := range items {
		if f.ApprovalStatus == models.ApprovalRejected {
			rejected++
		}
	}
	return Percent(rejected, len(items))
}

// ScenarioHotspots ranks non-empty scenario tags of Approved reports, highest
// count first. Ties keep first-encounter order.
func ScenarioHotspots(items []models.Feedback, n int) []Hotspot {
	counts := make(map[models.ScenarioTag]int)
	var order []models.ScenarioTag
	for _, f := range approved(items) {
		if f.ScenarioTag == models.ScenarioNone {
			continue
		}
		if _, seen := counts[f.ScenarioTag]; !seen {
			order = append(order, f.ScenarioTag)
		}
		counts[f.ScenarioTag]++
	}

	out := make([]Hotspot, 0, len(order))
	for _, tag := range order {
		out = append(out, Hotspot{Tag: tag, Count: counts[tag]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// ColleagueImpact ranks receivers of Approved reports, highest count first.
// Ties, both in the ranking and for the primary issue, keep first-encounter order.
func ColleagueImpact(items []models.Feedback, usersByID map[string]models.User, n int) []Impact {
	type tally struct {
		count   int
		issues  map[models.ProcessType]int
		ordered []models.ProcessType
	}
	byUser := make(map[string]*tally)
	var order []string

	for _, f := range approved(items) {
		t, ok := byUser[f.ToUserID]
		if !ok {
			t = &tally{issues: make(map[models.ProcessType]int)}
			byUser[f.ToUserID] = t
			order = append(order, f.ToUserID)
		}
		t.count++
		if _, seen := t.issues[f.ProcessType]; !seen {
			t.ordered = append(t.ordered, f.ProcessType)
		}
		t.issues[f.ProcessType]++
	}

	out := make([]Impact, 0, len(order))
	for _, id := range order {
		t := byUser[id]
		var primary models.ProcessType
		best := 0
		for _, p := range t.ordered {
			if t.issues[p] > best {
				best = t.issues[p]
				primary = p
			}
		}
		name := "Unknown"
		if u, ok := usersByID[id]; ok {
			name = u.DisplayName()
		}
		out = append(out, Impact{UserID: id, UserName: name, Count: t.count, PrimaryIssue: primary})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Count tallies items by approval and resolution state.
func Count(items []models.Feedback) StatusCounts {
	c := StatusCounts{Total: len(items)}
	for _, f := range items {
		switch f.ApprovalStatus {
		case models.ApprovalPending:
			c.Pending++
		case models.ApprovalApproved:
			c.Approved++
			switch f.ResolutionStatus {
			case models.ResolutionOpen:
				c.Open++
			case models.ResolutionInProgress:
				c.InProgress++
			case models.ResolutionClosed:
				c.Closed++
			}
		case models.ApprovalRejected:
			c.Rejected++
		}
	}
	return c
}

func receivedBy(items []models.Feedback, userID string) []models.Feedback {
	out := make([]models.Feedback, 0)
	for _, f := range items {
		if f.ToUserID == userID {
			out = append(out, f)
		}
	}
	return out
}

// Summarize builds the analytics view for viewer. A USER is always scoped to the
// reports they received, with the rejection rate of what they sent. Manager-tier
// viewers see everything, or the reports received by selectedUserID when set,
// plus the colleague impact ranking.
func Summarize(viewer models.User, items []models.Feedback, users []models.User, selectedUserID string) (Summary, error) {
	usersByID := make(map[string]models.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	if !viewer.Role.IsManagerTier() {
		if selectedUserID != "" && selectedUserID != viewer.ID {
			return Summary{}, contextutils.WrapError(contextutils.ErrForbidden, "analytics for other users require a manager role")
		}
		scoped := receivedBy(items, viewer.ID)
		return Summary{
			ScopeUserID:   viewer.ID,
			Counts:        Count(approved(scoped)),
			Categories:    CategorySplit(scoped),
			RejectionRate: RejectionRate(items, viewer.ID),
			Hotspots:      ScenarioHotspots(scoped, TopN),
		}, nil
	}

	scoped := items
	rejection := OverallRejectionRate(items)
	if selectedUserID != "" {
		if _, ok := usersByID[selectedUserID]; !ok {
			return Summary{}, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "user %s not found", selectedUserID)
		}
		scoped = receivedBy(items, selectedUserID)
		rejection = RejectionRate(items, selectedUserID)
	}

	return Summary{
		ScopeUserID:     selectedUserID,
		Counts:          Count(scoped),
		Categories:      CategorySplit(scoped),
		RejectionRate:   rejection,
		Hotspots:        ScenarioHotspots(scoped, TopN),
		ColleagueImpact: ColleagueImpact(scoped, usersByID, TopN),
	}, nil
}
