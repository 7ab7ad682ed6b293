package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений: 5 полей плюс дескрипторы
// (@hourly, @daily, @every 30s).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseExpr разбирает выражение расписания.
func ParseExpr(expr string) (cron.Schedule, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidExpr, expr, err)
	}
	return schedule, nil
}

// ValidateCronExpr проверяет валидность выражения расписания.
func ValidateCronExpr(expr string) error {
	_, err := ParseExpr(expr)
	return err
}

// CalculateNextDue вычисляет следующее время срабатывания в часовом
// поясе loc. Результат возвращается в UTC.
func CalculateNextDue(schedule cron.Schedule, from time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return schedule.Next(from.In(loc)).UTC()
}
