package buttercup

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/topi314/buttercup/blossom"
)

var usernameRegex = regexp.MustCompile(`^(?P<prefix>(?P<leading_slash>/)?u/)?(?P<username>\S+)(?P<rest>.*)$`)

// BlossomAPI is the part of the Blossom API the bot needs.
type BlossomAPI interface {
	GetUser(ctx context.Context, username string) (*blossom.Volunteer, error)
	TotalGamma(ctx context.Context) (int, error)
	SearchTranscriptions(ctx context.Context, q blossom.TranscriptionQuery) (*blossom.Page[blossom.Transcription], error)
	Heatmap(ctx context.Context, q blossom.HeatmapQuery) ([]blossom.HeatmapEntry, error)
}

// ExtractUsername extracts the Reddit username from a Discord display name like "/u/name UTC+2".
func ExtractUsername(displayName string) (string, error) {
	match := usernameRegex.FindStringSubmatch(displayName)
	if match == nil {
		return "", ErrNoUsername
	}
	return match[usernameRegex.SubexpIndex("username")], nil
}

// EscapeFormatting escapes the Discord markdown characters used in Reddit usernames.
func EscapeFormatting(s string) string {
	return strings.NewReplacer("_", `\_`, "*", `\*`).Replace(s)
}

func isEveryone(username string) bool {
	switch strings.ToLower(username) {
	case "all", "everyone", "everybody":
		return true
	}
	return false
}

func resolveUsername(username string, invoker string) (string, error) {
	if strings.ToLower(username) == "me" {
		username = invoker
	}
	return ExtractUsername(username)
}

// InitialUsername returns the display form of username without asking Blossom whether it exists.
func InitialUsername(username string, invoker string) (string, error) {
	if isEveryone(username) {
		return "everyone", nil
	}
	name, err := resolveUsername(username, invoker)
	if err != nil {
		return "", err
	}
	return "u/" + EscapeFormatting(name), nil
}

// Users resolves command arguments to Blossom volunteers.
type Users struct {
	Blossom BlossomAPI
}

// Get returns the volunteer for username. "me" resolves to the invoker and
// "all", "everyone" or "everybody" return a nil volunteer meaning all volunteers.
func (u Users) Get(ctx context.Context, username string, invoker string) (*blossom.Volunteer, error) {
	if isEveryone(username) {
		return nil, nil
	}

	name, err := resolveUsername(username, invoker)
	if err != nil {
		return nil, err
	}

	user, err := u.Blossom.GetUser(ctx, name)
	if errors.Is(err, blossom.ErrUserNotFound) {
		return nil, &UserNotFoundError{Username: name}
	}
	if err != nil {
		return nil, err
	}

	// there are no stats for volunteers without transcriptions
	if user.Gamma == 0 {
		return nil, &NewUserError{Username: user.Username}
	}
	return user, nil
}

// Gamma returns the gamma of user or the total gamma of all volunteers for a nil user.
func (u Users) Gamma(ctx context.Context, user *blossom.Volunteer) (int, error) {
	if user != nil {
		return user.Gamma, nil
	}
	return u.Blossom.TotalGamma(ctx)
}

func Username(user *blossom.Volunteer) string {
	if user == nil {
		return "everyone"
	}
	return "u/" + EscapeFormatting(user.Username)
}

func UserID(user *blossom.Volunteer) *int {
	if user == nil {
		return nil
	}
	id := user.ID
	return &id
}
