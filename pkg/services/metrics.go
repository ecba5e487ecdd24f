package services

import (
	"math"

	"github.com/hartline/clientops/pkg/models"
)

// BoardMetrics is a derived snapshot of a project's board health.
type BoardMetrics struct {
	Progress     int `json:"progress"`
	OverdueCount int `json:"overdue_count"`
	BlockedCount int `json:"blocked_count"`
	TaskCount    int `json:"task_count"`
}

// Progress returns the percentage of tasks sitting in the project's done
// stage, rounded to the nearest integer. The done stage is the one flagged
// terminal, falling back to the highest-position stage when none is flagged.
// Returns 0 when the project has no tasks or no stages.
func Progress(tasks []*models.ProjectTask, stages []*models.ProjectStage) int {
	if len(tasks) == 0 || len(stages) == 0 {
		return 0
	}

	doneStage := stages[0]

	for _, stage := range stages {
		if stage.Position >= doneStage.Position {
			doneStage = stage
		}
	}

	for _, stage := range stages {
		if stage.IsTerminal {
			doneStage = stage

			break
		}
	}

	done := 0

	for _, task := range tasks {
		if task.StageID == doneStage.ID {
			done++
		}
	}

	return int(math.Round(float64(done) / float64(len(tasks)) * 100))
}

// OverdueCount counts tasks strictly past their due date. Dates are
// YYYY-MM-DD strings, so the comparison is plain lexicographic ordering.
// Tasks without a due date are never overdue; a task due today is not
// overdue yet.
func OverdueCount(tasks []*models.ProjectTask, today string) int {
	count := 0

	for _, task := range tasks {
		if task.DueDate != nil && *task.DueDate < today {
			count++
		}
	}

	return count
}

// BlockedCount counts tasks currently flagged blocked.
func BlockedCount(tasks []*models.ProjectTask) int {
	count := 0

	for _, task := range tasks {
		if task.IsBlocked {
			count++
		}
	}

	return count
}
