package buttercup

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// DurationString formats how long something took, e.g. "1.5 mins" or "320 ms".
func DurationString(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	day := 24 * time.Hour
	days := int(d / day)
	rem := d % day
	seconds := int(rem / time.Second)
	micros := int(rem % time.Second / time.Microsecond)

	switch {
	case days >= 365:
		return fmt.Sprintf("%.1f years", float64(days)/365)
	case days >= 7:
		return fmt.Sprintf("%.1f weeks", float64(days)/7)
	case days >= 1:
		return fmt.Sprintf("%.1f days", float64(days)+float64(seconds)/86400)
	case seconds >= 3600:
		return fmt.Sprintf("%.1f hours", float64(seconds)/3600)
	case seconds >= 60:
		return fmt.Sprintf("%.1f mins", float64(seconds)/60)
	case seconds > 5:
		return fmt.Sprintf("%.1f secs", float64(seconds)+float64(micros)/1000000)
	}
	return fmt.Sprintf("%.0f ms", float64(seconds*1000)+float64(micros)/1000)
}

// ProgressBar renders a textual bar like "[#####     ]". Counts above total overflow to the right of the bar.
func ProgressBar(count int, total int, width int, displayCount bool, asCode bool) string {
	var barCount int
	if total > 0 {
		barCount = int(math.RoundToEven(float64(count) / float64(total) * float64(width)))
	} else if count > 0 {
		barCount = width
	}
	if barCount < 0 {
		barCount = 0
	}
	innerBarCount := barCount
	if innerBarCount > width {
		innerBarCount = width
	}
	innerSpaceCount := width - innerBarCount
	outerBarCount := barCount - innerBarCount

	bar := "[" + strings.Repeat("#", innerBarCount) + strings.Repeat(" ", innerSpaceCount) + "]" + strings.Repeat("#", outerBarCount)
	if asCode {
		bar = "`" + bar + "`"
	}
	if displayCount {
		bar += printer.Sprintf(" (%d/%d)", count, total)
	}
	return bar
}

// JoinWithAnd joins items like "a, b and c".
func JoinWithAnd(items []string) string {
	if len(items) <= 2 {
		return strings.Join(items, " and ")
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

// DiscordTimestamp returns a timestamp Discord renders in the reader's timezone.
// See https://discord.com/developers/docs/reference#message-formatting-timestamp-styles
func DiscordTimestamp(t time.Time, style string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Round(time.Second).Unix(), style)
}

// SubredditFromURL extracts the subreddit of a Reddit link such as
// https://reddit.com/r/thatHappened/comments/qzhtyb/the_more_you_read/hlmkuau/
func SubredditFromURL(url string) string {
	parts := strings.Split(url, "/")
	if len(parts) < 5 || parts[4] == "" {
		return "Reddit"
	}
	return "r/" + parts[4]
}

func cutString(str string, maxLen int) string {
	runes := []rune(str)
	if len(runes) > maxLen {
		return string(runes[0:maxLen-1]) + "…"
	}
	return string(runes)
}
