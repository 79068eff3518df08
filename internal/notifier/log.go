package notifier

import (
	"log/slog"

	"github.com/jmallari/jobmill/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes newly discovered jobs to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each job via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each job with company, title, location, and URL.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(jobs []model.Job) error {
	for _, j := range jobs {
		args := []any{"company", j.CompanyName, "title", j.Title, "location", j.Location, "url", j.JobURL}
		if j.EmploymentType != nil {
			args = append(args, "employment_type", *j.EmploymentType)
		}
		n.logger.Info("new job", args...)
	}
	return nil
}
