package buttercup

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	timezoneRegex = regexp.MustCompile(`(?i)UTC(?:(?P<hours>[+-]\d+(?:\.\d+)?)(?::(?P<minutes>\d+))?)?`)

	// an amount followed by a unit, e.g. "2.4 years ago"
	relativeTimeRegex = regexp.MustCompile(`^(?P<amount>\d+(?:\.\d+)?)\s*(?P<unit>\w*)\s*(?:ago\s*)?$`)
)

type timeUnit struct {
	name     string
	regex    *regexp.Regexp
	duration time.Duration
}

// hours is the default unit, so its whole pattern is optional
var timeUnits = []timeUnit{
	{name: "seconds", regex: regexp.MustCompile(`^s(?:ec(?:ond)?s?)?$`), duration: time.Second},
	{name: "minutes", regex: regexp.MustCompile(`^min(?:ute)?s?$`), duration: time.Minute},
	{name: "hours", regex: regexp.MustCompile(`^(?:h(?:ours?)?)?$`), duration: time.Hour},
	{name: "days", regex: regexp.MustCompile(`^d(?:ays?)?$`), duration: 24 * time.Hour},
	{name: "weeks", regex: regexp.MustCompile(`^w(?:eeks?)?$`), duration: 7 * 24 * time.Hour},
	{name: "months", regex: regexp.MustCompile(`^m(?:onths?)?$`), duration: 30 * 24 * time.Hour},
	{name: "years", regex: regexp.MustCompile(`^y(?:ears?)?$`), duration: 365 * 24 * time.Hour},
}

// ExtractUTCOffset reads a timezone like "UTC+2" or "UTC-5:30" following the username
// in a display name and returns the offset in seconds.
func ExtractUTCOffset(displayName string) int {
	match := usernameRegex.FindStringSubmatch(displayName)
	if match == nil {
		return 0
	}
	rest := match[usernameRegex.SubexpIndex("rest")]
	if rest == "" {
		return 0
	}

	tz := timezoneRegex.FindStringSubmatch(rest)
	if tz == nil {
		return 0
	}

	var offset int
	hours := tz[timezoneRegex.SubexpIndex("hours")]
	if hours != "" {
		h, _ := strconv.ParseFloat(hours, 64)
		offset += int(math.Floor(h * 60 * 60))
	}
	if minutes := tz[timezoneRegex.SubexpIndex("minutes")]; minutes != "" {
		m, _ := strconv.Atoi(minutes)
		if strings.HasPrefix(hours, "-") {
			offset -= m * 60
		} else {
			offset += m * 60
		}
	}
	return offset
}

func UTCOffsetString(offset int) string {
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, offset/(60*60), offset%(60*60)/60)
}

// FormatAbsoluteTime formats t leaving out the date when it is today and any trailing zero time parts.
func FormatAbsoluteTime(t time.Time, now time.Time) string {
	ty, tm, td := t.Date()
	ny, nm, nd := now.UTC().Date()

	var layout string
	if ty != ny || tm != nm || td != nd {
		layout = "2006-01-02"
		if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 {
			if t.Second() != 0 {
				layout += " 15:04:05"
			} else {
				layout += " 15:04"
			}
		}
	} else if t.Second() != 0 {
		layout = "15:04:05"
	} else {
		layout = "15:04"
	}
	return t.Format(layout)
}

func FormatRelativeTime(amount float64, unit string) string {
	amountStr := strings.TrimRight(strings.TrimRight(strconv.FormatFloat(amount, 'f', 6, 64), "0"), ".")
	if amount == 1 {
		unit = strings.TrimSuffix(unit, "s")
	}
	return fmt.Sprintf("%s %s ago", amountStr, unit)
}

// ParseTime parses relative times like "2 hours ago" and absolute times like "2021-09-14".
// Absolute times without a timezone are UTC. It returns the time and a readable form of it.
func ParseTime(s string) (time.Time, string, error) {
	return parseTime(s, time.Now().UTC())
}

func parseTime(s string, now time.Time) (time.Time, string, error) {
	if match := relativeTimeRegex.FindStringSubmatch(s); match != nil {
		amount, err := strconv.ParseFloat(match[relativeTimeRegex.SubexpIndex("amount")], 64)
		if err == nil {
			unit := match[relativeTimeRegex.SubexpIndex("unit")]
			for _, u := range timeUnits {
				if !u.regex.MatchString(unit) {
					continue
				}
				nanos := amount * float64(u.duration)
				if nanos >= math.MaxInt64 {
					return time.Time{}, "", &TimeParseError{TimeStr: s}
				}
				return now.Add(-time.Duration(nanos)), FormatRelativeTime(amount, u.name), nil
			}
		}
	}

	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, "", &TimeParseError{TimeStr: s}
	}
	return t, FormatAbsoluteTime(t, now), nil
}

// ParseTimeConstraints parses the optional after and before arguments of a command.
// "start", "end" and "none" leave the corresponding bound open.
func ParseTimeConstraints(after string, before string) (*time.Time, *time.Time, string, error) {
	return parseTimeConstraints(after, before, time.Now().UTC())
}

func parseTimeConstraints(after string, before string, now time.Time) (*time.Time, *time.Time, string, error) {
	var (
		afterTime  *time.Time
		beforeTime *time.Time
		afterStr   = "the start"
		beforeStr  = "now"
	)

	if after != "" && after != "start" && after != "none" {
		t, str, err := parseTime(after, now)
		if err != nil {
			return nil, nil, "", err
		}
		afterTime, afterStr = &t, str
	}
	if before != "" && before != "end" && before != "none" {
		t, str, err := parseTime(before, now)
		if err != nil {
			return nil, nil, "", err
		}
		beforeTime, beforeStr = &t, str
	}

	return afterTime, beforeTime, fmt.Sprintf("from %s until %s", afterStr, beforeStr), nil
}
