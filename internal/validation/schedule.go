package validation

import (
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"

	"github.com/newslynx/recipes/internal/schema"
)

var timeOfDayLayouts = []string{"15:04", "15:04:05", "3:04pm", "3:04 pm", "3pm", "3 pm"}

// validateSchedule rejects recipes that set both a wall-clock trigger and an interval
// trigger, then derives the "scheduled" flag. Drafts are never scheduled.
func (rs *recipeSchema) validateSchedule() error {
	timeOfDay := triggerSet(rs.recipe["time_of_day"])
	crontab := triggerSet(rs.recipe["crontab"])
	minutes := triggerSet(rs.recipe["minutes"])

	if timeOfDay && (crontab || minutes) {
		return NewSchemaError("A recipe cannot have 'time_of_day' and an interval ('crontab' or 'minutes') set.")
	}

	if rs.mode == schema.ModeDraft {
		rs.recipe[schema.ScheduledKey] = false
		return nil
	}

	if timeOfDay {
		if err := checkTimeOfDay(rs.recipe["time_of_day"]); err != nil {
			return err
		}
	}
	if crontab {
		if err := checkCrontab(rs.recipe["crontab"]); err != nil {
			return err
		}
	}
	if minutes {
		if err := checkMinutes(rs.recipe["minutes"]); err != nil {
			return err
		}
	}

	rs.recipe[schema.ScheduledKey] = timeOfDay || crontab || minutes
	return nil
}

// triggerSet reports whether a trigger value is present: non-null, non-blank, non-zero
func triggerSet(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case bool:
		return val
	}
	if f, isNum := toFloat64(v); isNum {
		return f != 0
	}
	return true
}

func checkTimeOfDay(v any) error {
	s, isStr := v.(string)
	if isStr {
		s = strings.ToLower(strings.TrimSpace(s))
		for _, layout := range timeOfDayLayouts {
			if _, err := time.Parse(layout, s); err == nil {
				return nil
			}
		}
	}
	return NewSchemaError("time_of_day must be a time like '14:30' or '2:30 pm' but was passed '%s'.", display(v))
}

func checkCrontab(v any) error {
	s, isStr := v.(string)
	if !isStr {
		return NewSchemaError("crontab must be a string but was passed '%s'.", display(v))
	}
	if _, err := cron.ParseStandard(s); err != nil {
		return NewSchemaError("crontab '%s' is not a valid cron expression: %s.", s, err.Error())
	}
	return nil
}

func checkMinutes(v any) error {
	if f, isNum := toFloat64(v); isNum && f > 0 {
		return nil
	}
	return NewSchemaError("minutes must be a positive number but was passed '%s'.", display(v))
}

// toFloat64 converts Go numbers; text and booleans never count as numbers here
func toFloat64(value any) (float64, bool) {
	switch value.(type) {
	case nil, string, []byte, bool:
		return 0, false
	}
	f, err := cast.ToFloat64E(value)
	return f, err == nil
}
