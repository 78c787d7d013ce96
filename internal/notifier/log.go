package notifier

import (
	"log/slog"
	"strings"

	"github.com/amishk599/autojob/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes newly cached records to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each record via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each record with company, role, location, salary, tags and date.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(records []model.JobRecord) error {
	for _, r := range records {
		n.logger.Info("new job record",
			"company", r.Company,
			"role", r.Role,
			"location", r.Location,
			"salary", r.Salary,
			"tags", strings.Join(r.Tags, ","),
			"date", r.Date,
		)
	}
	return nil
}
