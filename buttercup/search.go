package buttercup

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"

	"github.com/topi314/buttercup/blossom"
)

// control emojis of the search result pages
const (
	FirstPageEmoji    = "\u23EE\uFE0F"
	PreviousPageEmoji = "\u25C0\uFE0F"
	NextPageEmoji     = "\u25B6\uFE0F"
	LastPageEmoji     = "\u23ED\uFE0F"
)

const (
	maxOccurrences         = 4
	maxOccurrenceContext   = 20
	searchEmbedColor       = 0x5865f2
	maxEmbedDescriptionLen = 4096
)

var headerRegex = regexp.MustCompile(`(?i)^\s*\*(?P<format>\w+)\s*Transcription:?(?:\s*(?P<type>[\w ]+))?\*`)

// SearchSession is the state of one search result message.
type SearchSession struct {
	Query    string
	AuthorID *int
	// CurPage is the 0-based page shown on Discord.
	CurPage       int
	DiscordUserID snowflake.ID
	// ResponseData is the last fetched Blossom page, nil before the first request.
	ResponseData *blossom.Page[blossom.Transcription]
	// RequestPage is the 0-based Blossom page of ResponseData.
	RequestPage int
}

// TranscriptionType reads the type of a transcription from its header, e.g. "*Image Transcription: Tweet*".
func TranscriptionType(text string) string {
	header := strings.SplitN(text, "---", 2)[0]
	match := headerRegex.FindStringSubmatch(header)
	if match == nil {
		return "Post"
	}
	if trType := strings.TrimSpace(match[headerRegex.SubexpIndex("type")]); trType != "" {
		return trType
	}
	return strings.TrimSpace(match[headerRegex.SubexpIndex("format")])
}

// FormatOccurrence shows the occurrence of query at the character position pos of line
// with some context and underlines it.
func FormatOccurrence(line string, lineNum int, pos int, query string) string {
	runes := []rune(line)
	queryLen := len([]rune(query))
	end := pos + queryLen
	if end > len(runes) {
		end = len(runes)
	}

	lineNumStr := fmt.Sprintf("L%d: ", lineNum)
	before := runes[:pos]
	beforeStr := string(before)
	if len(before) > maxOccurrenceContext {
		beforeStr = "..." + string(before[len(before)-maxOccurrenceContext:])
	}
	offset := len([]rune(lineNumStr)) + len([]rune(beforeStr))

	after := runes[end:]
	afterStr := string(after)
	if len(after) > maxOccurrenceContext {
		afterStr = string(after[:maxOccurrenceContext]) + "..."
	}

	contextLine := lineNumStr + beforeStr + string(runes[pos:end]) + afterStr + "\n"
	underline := strings.Repeat(" ", offset) + strings.Repeat("-", queryLen) + "\n"
	return contextLine + underline
}

// ResultDescription describes a single search result with up to four occurrences of query.
func ResultDescription(tr blossom.Transcription, num int, query string) string {
	needle := lowerRunes(query)
	total := countRunes(lowerRunes(tr.Text), needle)

	var url string
	if tr.URL != nil {
		url = *tr.URL
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d. [%s on %s](%s) %s\n```\n", num, TranscriptionType(tr.Text), SubredditFromURL(url), url, DiscordTimestamp(tr.CreateTime, "R")))

	var count int
	for i, line := range splitLines(tr.Text) {
		haystack := lowerRunes(line)
		pos := indexRunes(haystack, needle, 0)
		for pos >= 0 && count < maxOccurrences {
			sb.WriteString(FormatOccurrence(line, i+1, pos, query))
			count++
			pos = indexRunes(haystack, needle, pos+len(needle))
		}
		if count >= maxOccurrences {
			break
		}
	}
	sb.WriteString("```\n")

	if count < total {
		sb.WriteString(printer.Sprintf("... and %d more occurrence(s)\n\n", total-count))
	}
	return sb.String()
}

// Searcher renders the pages of a search. Discord pages are smaller than the pages
// requested from Blossom, so one request serves several Discord pages.
type Searcher struct {
	Blossom         BlossomAPI
	DiscordPageSize int
	RequestPageSize int
}

type SearchResult struct {
	Session   SearchSession
	NoResults bool
	Content   string
	Embed     discord.Embed
	Controls  []string
}

// Page renders the page pageMod pages away from the current page of session.
func (s Searcher) Page(ctx context.Context, session SearchSession, pageMod int, start time.Time) (*SearchResult, error) {
	discordPage := session.CurPage + pageMod
	if discordPage < 0 {
		discordPage = 0
	}
	requestPage := discordPage * s.DiscordPageSize / s.RequestPageSize

	data := session.ResponseData
	if data == nil || requestPage != session.RequestPage {
		var err error
		data, err = s.Blossom.SearchTranscriptions(ctx, blossom.TranscriptionQuery{
			Text:     session.Query,
			AuthorID: session.AuthorID,
			PageSize: s.RequestPageSize,
			Page:     requestPage + 1,
		})
		if err != nil {
			return nil, err
		}
	}

	if data.Count == 0 {
		return &SearchResult{
			Session:   session,
			NoResults: true,
			Content:   fmt.Sprintf("No results for `%s` found (%s).", session.Query, DurationString(time.Since(start))),
		}, nil
	}

	newSession := SearchSession{
		Query:         session.Query,
		AuthorID:      session.AuthorID,
		CurPage:       discordPage,
		DiscordUserID: session.DiscordUserID,
		ResponseData:  data,
		RequestPage:   requestPage,
	}

	requestOffset := requestPage * s.RequestPageSize
	discordOffset := discordPage * s.DiscordPageSize
	resultOffset := clamp(discordOffset-requestOffset, 0, len(data.Results))
	resultEnd := clamp(resultOffset+s.DiscordPageSize, 0, len(data.Results))

	var description string
	for i, tr := range data.Results[resultOffset:resultEnd] {
		description += ResultDescription(tr, discordOffset+i+1, session.Query)
	}

	totalPages := s.totalPages(data.Count)

	var controls []string
	if discordPage > 0 {
		controls = append(controls, FirstPageEmoji, PreviousPageEmoji)
	}
	if discordPage < totalPages-1 {
		controls = append(controls, NextPageEmoji, LastPageEmoji)
	}

	return &SearchResult{
		Session: newSession,
		Content: fmt.Sprintf("Here are your results for `%s` (%s):", session.Query, DurationString(time.Since(start))),
		Embed: discord.NewEmbedBuilder().
			SetTitle(cutString(fmt.Sprintf("Results for \"%s\"", session.Query), 256)).
			SetDescription(cutString(description, maxEmbedDescriptionLen)).
			SetColor(searchEmbedColor).
			SetFooterText(printer.Sprintf("Page %d/%d (%d results)", discordPage+1, totalPages, data.Count)).
			Build(),
		Controls: controls,
	}, nil
}

func (s Searcher) totalPages(count int) int {
	return int(math.Ceil(float64(count) / float64(s.DiscordPageSize)))
}

// PageModForReaction returns by how many pages a control emoji moves the search,
// false if the emoji is no control or the move is not possible.
func (s Searcher) PageModForReaction(emoji string, session SearchSession) (int, bool) {
	var lastPage int
	if session.ResponseData != nil {
		lastPage = s.totalPages(session.ResponseData.Count) - 1
	}
	page := session.CurPage

	switch {
	case emoji == FirstPageEmoji && page > 0:
		return -page, true
	case emoji == PreviousPageEmoji && page > 0:
		return -1, true
	case emoji == NextPageEmoji && page < lastPage:
		return 1, true
	case emoji == LastPageEmoji && page < lastPage:
		return lastPage - page, true
	}
	return 0, false
}

// ReactionPageMod looks up the search shown in messageID and returns how many pages the
// reaction emoji of userID moves it. Reactions of the bot, of users other than the one
// who started the search and on messages without a search are ignored.
func (s Searcher) ReactionPageMod(ctx context.Context, cache SearchCache, botID snowflake.ID, messageID snowflake.ID, userID snowflake.ID, emoji string) (*SearchSession, int, bool, error) {
	if userID == botID {
		return nil, 0, false, nil
	}

	session, err := cache.Get(ctx, messageID)
	if errors.Is(err, ErrSearchNotFound) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to get search for message %s: %w", messageID, err)
	}

	// only the user who started the search may turn the pages
	if session.DiscordUserID != userID {
		return nil, 0, false, nil
	}

	pageMod, ok := s.PageModForReaction(emoji, *session)
	if !ok {
		return nil, 0, false, nil
	}
	return session, pageMod, true, nil
}

// CachedPage renders a page like Page and stores the new session for messageID.
// Searches without results are not stored.
func (s Searcher) CachedPage(ctx context.Context, cache SearchCache, messageID snowflake.ID, session SearchSession, pageMod int, start time.Time) (*SearchResult, error) {
	result, err := s.Page(ctx, session, pageMod, start)
	if err != nil {
		return nil, err
	}
	if result.NoResults {
		return result, nil
	}
	if err = cache.Set(ctx, messageID, result.Session); err != nil {
		return nil, fmt.Errorf("failed to cache search: %w", err)
	}
	return result, nil
}

func clamp(v int, lo int, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// lowerRunes lower cases s rune by rune so positions match the original string.
func lowerRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

func indexRunes(haystack []rune, needle []rune, start int) int {
	if len(needle) == 0 {
		return -1
	}
	for i := start; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func countRunes(haystack []rune, needle []rune) int {
	var count int
	for pos := indexRunes(haystack, needle, 0); pos >= 0; pos = indexRunes(haystack, needle, pos+len(needle)) {
		count++
	}
	return count
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(strings.ReplaceAll(text, "\r", "\n"), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
