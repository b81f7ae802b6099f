package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/teambition/rrule-go"
)

const defaultMaxOccurrences = 366

// ValidateRule checks that a recurring rule is bounded. Unbounded rules are
// rejected before any generation happens.
func ValidateRule(r model.RecurrenceRule) error {
	if !r.Recurring() {
		return nil
	}

	if r.Until == nil && r.Count <= 0 {
		return model.ErrRecurrenceBoundsMissing
	}

	return nil
}

// EncodeRule serializes a rule as an RFC 5545 RRULE string for persistence.
// The encoding round-trips frequency, interval, day-of-week set, until date
// and occurrence count without loss.
func EncodeRule(r model.RecurrenceRule, anchor time.Time) (string, error) {
	if !r.Recurring() {
		return "", nil
	}

	var freq rrule.Frequency
	switch r.Frequency {
	case model.FrequencyDaily:
		freq = rrule.DAILY
	case model.FrequencyWeekly:
		freq = rrule.WEEKLY
	case model.FrequencyMonthly:
		freq = rrule.MONTHLY
	default:
		return "", fmt.Errorf("unknown frequency: %v", r.Frequency)
	}

	opt := rrule.ROption{
		Freq:     freq,
		Interval: interval(r),
		Dtstart:  anchor.UTC(),
		Count:    r.Count,
	}

	if r.Until != nil {
		opt.Until = r.Until.UTC()
	}

	for _, d := range r.DaysOfWeek {
		opt.Byweekday = append(opt.Byweekday, rruleWeekday(d))
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return "", fmt.Errorf("creating rule: %w", err)
	}

	return rule.String(), nil
}

// DecodeRule parses a stored RRULE string back into the rule it was encoded
// from. An empty string decodes to a non-recurring rule.
func DecodeRule(s string) (model.RecurrenceRule, error) {
	if s == "" {
		return model.RecurrenceRule{}, nil
	}

	opt, err := rrule.StrToROption(s)
	if err != nil {
		return model.RecurrenceRule{}, fmt.Errorf("parse repeat rule %q: %w", s, err)
	}

	res := model.RecurrenceRule{
		Interval: opt.Interval,
		Count:    opt.Count,
	}

	switch opt.Freq {
	case rrule.DAILY:
		res.Frequency = model.FrequencyDaily
	case rrule.WEEKLY:
		res.Frequency = model.FrequencyWeekly
	case rrule.MONTHLY:
		res.Frequency = model.FrequencyMonthly
	default:
		return model.RecurrenceRule{}, fmt.Errorf("unsupported frequency in rule %q", s)
	}

	if res.Interval == 0 {
		res.Interval = 1
	}

	if !opt.Until.IsZero() {
		until := opt.Until.UTC()
		res.Until = &until
	}

	for _, d := range opt.Byweekday {
		res.DaysOfWeek = append(res.DaysOfWeek, goWeekday(d))
	}

	return res, nil
}

// Expand turns an anchor interval plus a recurrence rule into the ordered
// list of concrete occurrence intervals. Every occurrence inherits the
// anchor's duration. The result is deterministic for identical inputs.
//
// maxOccurrences is a safety cap on top of the rule's own until/count
// bounds; zero or negative means the default cap.
func Expand(anchor Interval, rule model.RecurrenceRule, maxOccurrences int) ([]Interval, error) {
	if err := ValidateRule(rule); err != nil {
		return nil, err
	}

	if !rule.Recurring() {
		return []Interval{anchor}, nil
	}

	if maxOccurrences <= 0 {
		maxOccurrences = defaultMaxOccurrences
	}

	var starts []time.Time
	var err error

	if rule.Frequency == model.FrequencyMonthly {
		starts = expandMonthly(anchor.Start, rule, maxOccurrences)
	} else {
		starts, err = expandWithRRule(anchor.Start, rule, maxOccurrences)
		if err != nil {
			return nil, err
		}
	}

	duration := anchor.Duration()
	res := make([]Interval, len(starts))
	for i, s := range starts {
		res[i] = Interval{Start: s, End: s.Add(duration)}
	}

	return res, nil
}

func expandWithRRule(anchor time.Time, rule model.RecurrenceRule, cap int) ([]time.Time, error) {
	var freq rrule.Frequency
	switch rule.Frequency {
	case model.FrequencyDaily:
		freq = rrule.DAILY
	case model.FrequencyWeekly:
		freq = rrule.WEEKLY
	default:
		return nil, fmt.Errorf("unknown frequency: %v", rule.Frequency)
	}

	opt := rrule.ROption{
		Freq:     freq,
		Interval: interval(rule),
		Dtstart:  anchor.UTC(),
		Count:    rule.Count,
	}

	days := append([]time.Weekday(nil), rule.DaysOfWeek...)
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	for _, d := range days {
		opt.Byweekday = append(opt.Byweekday, rruleWeekday(d))
	}

	if rule.Until != nil {
		opt.Until = rule.Until.UTC()
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("make rule: %w", err)
	}

	starts := r.All()

	// The RRULE UNTIL bound is inclusive; ours is exclusive.
	if rule.Until != nil {
		for len(starts) > 0 && !starts[len(starts)-1].Before(rule.Until.UTC()) {
			starts = starts[:len(starts)-1]
		}
	}

	if len(starts) > cap {
		starts = starts[:cap]
	}

	return starts, nil
}

// expandMonthly is computed directly rather than through an RRULE: RFC 5545
// monthly recurrence skips months without the anchor's day-of-month, whereas
// a rehearsal anchored on the 29th–31st must fall on the last valid day of
// short months instead of disappearing or rolling over.
func expandMonthly(anchor time.Time, rule model.RecurrenceRule, cap int) []time.Time {
	anchor = anchor.UTC()
	day := anchor.Day()

	var starts []time.Time
	for k := 0; ; k += interval(rule) {
		base := time.Date(anchor.Year(), anchor.Month(), 1, anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), time.UTC)
		month := base.AddDate(0, k, 0)

		d := day
		if last := daysInMonth(month.Year(), month.Month()); d > last {
			d = last
		}

		candidate := time.Date(month.Year(), month.Month(), d, anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), time.UTC)

		if rule.Until != nil && !candidate.Before(rule.Until.UTC()) {
			break
		}

		starts = append(starts, candidate)

		if rule.Count > 0 && len(starts) == rule.Count {
			break
		}
		if len(starts) == cap {
			break
		}
	}

	return starts
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func interval(r model.RecurrenceRule) int {
	if r.Interval <= 0 {
		return 1
	}
	return r.Interval
}

func rruleWeekday(d time.Weekday) rrule.Weekday {
	switch d {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}

func goWeekday(d rrule.Weekday) time.Weekday {
	switch d {
	case rrule.MO:
		return time.Monday
	case rrule.TU:
		return time.Tuesday
	case rrule.WE:
		return time.Wednesday
	case rrule.TH:
		return time.Thursday
	case rrule.FR:
		return time.Friday
	case rrule.SA:
		return time.Saturday
	default:
		return time.Sunday
	}
}
