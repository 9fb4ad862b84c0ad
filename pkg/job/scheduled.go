package job

import (
	"github.com/riverqueue/river"
	"github.com/robfig/cron/v3"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// parseCronSchedule accepts 5-field expressions and descriptors such as "@hourly".
func parseCronSchedule(expr string) (river.PeriodicSchedule, error) {
	return scheduleParser.Parse(expr)
}

// ValidateSchedule reports whether NewManager would accept expr.
func ValidateSchedule(expr string) error {
	_, err := scheduleParser.Parse(expr)
	return err
}
