package buttercup

import (
	"testing"
	"time"
)

func TestDurationString(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{d: 320 * time.Millisecond, want: "320 ms"},
		{d: 1500 * time.Millisecond, want: "1500 ms"},
		{d: 10500 * time.Millisecond, want: "10.5 secs"},
		{d: 90 * time.Second, want: "1.5 mins"},
		{d: 2 * time.Hour, want: "2.0 hours"},
		{d: 36 * time.Hour, want: "1.5 days"},
		{d: 14 * 24 * time.Hour, want: "2.0 weeks"},
		{d: 730 * 24 * time.Hour, want: "2.0 years"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := DurationString(tt.d); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name         string
		count        int
		total        int
		displayCount bool
		asCode       bool
		want         string
	}{
		{name: "half", count: 5, total: 10, want: "[#####     ]"},
		{name: "empty", count: 0, total: 10, want: "[          ]"},
		{name: "overflow", count: 15, total: 10, want: "[##########]#####"},
		{name: "code with count", count: 1234, total: 10000, displayCount: true, asCode: true, want: "`[#         ]` (1,234/10,000)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProgressBar(tt.count, tt.total, 10, tt.displayCount, tt.asCode); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestJoinWithAnd(t *testing.T) {
	tests := []struct {
		items []string
		want  string
	}{
		{items: nil, want: ""},
		{items: []string{"a"}, want: "a"},
		{items: []string{"a", "b"}, want: "a and b"},
		{items: []string{"a", "b", "c"}, want: "a, b and c"},
		{items: []string{"a", "b", "c", "d"}, want: "a, b, c and d"},
	}
	for _, tt := range tests {
		if got := JoinWithAnd(tt.items); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestDiscordTimestamp(t *testing.T) {
	ts := time.Date(2021, 9, 3, 10, 0, 0, 0, time.UTC)
	if got := DiscordTimestamp(ts, "R"); got != "<t:1630663200:R>" {
		t.Errorf("unexpected timestamp %q", got)
	}
}

func TestSubredditFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://reddit.com/r/thatHappened/comments/qzhtyb/the_more_you_read/hlmkuau/", want: "r/thatHappened"},
		{url: "https://reddit.com/", want: "Reddit"},
		{url: "", want: "Reddit"},
	}
	for _, tt := range tests {
		if got := SubredditFromURL(tt.url); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.url, tt.want, got)
		}
	}
}

func TestRanks(t *testing.T) {
	tests := []struct {
		gamma   int
		rank    string
		next    string
		hasNext bool
	}{
		{gamma: 0, rank: "Visitor", next: "Initiate", hasNext: true},
		{gamma: 1, rank: "Initiate", next: "Pink", hasNext: true},
		{gamma: 512, rank: "Gold", next: "Diamond", hasNext: true},
		{gamma: 20000, rank: "Sapphire", hasNext: false},
	}
	for _, tt := range tests {
		if rank := RankOf(tt.gamma); rank.Name != tt.rank {
			t.Errorf("gamma %d: expected rank %s, got %s", tt.gamma, tt.rank, rank.Name)
		}
		next, ok := NextRank(tt.gamma)
		if ok != tt.hasNext || next.Name != tt.next {
			t.Errorf("gamma %d: expected next rank %q (%t), got %q (%t)", tt.gamma, tt.next, tt.hasNext, next.Name, ok)
		}
	}
}
