package buttercup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"

	"github.com/topi314/buttercup/blossom"
)

const commandTimeout = 30 * time.Second

var Commands = []discord.ApplicationCommandCreate{
	discord.SlashCommandCreate{
		Name:        "search",
		Description: "Searches for transcriptions that contain the given text.",
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionString{
				Name:        "query",
				Description: "The text to search for (case-insensitive).",
				Required:    true,
			},
			discord.ApplicationCommandOptionString{
				Name:        "username",
				Description: "Only search the transcriptions of this user.",
				Required:    false,
			},
		},
	},
	discord.SlashCommandCreate{
		Name:        "heatmap",
		Description: "Display the activity heatmap for the given user.",
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionString{
				Name:        "username",
				Description: "The user to get the heatmap for.",
				Required:    false,
			},
			discord.ApplicationCommandOptionString{
				Name:        "after",
				Description: "The start date for the heatmap data.",
				Required:    false,
			},
			discord.ApplicationCommandOptionString{
				Name:        "before",
				Description: "The end date for the heatmap data.",
				Required:    false,
			},
		},
	},
	discord.SlashCommandCreate{
		Name:        "info",
		Description: "get info about me",
	},
}

func (b *Bot) OnApplicationCommand(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var err error
	switch data.CommandName() {
	case "search":
		err = b.OnSearch(ctx, data, event)
	case "heatmap":
		err = b.OnHeatmap(ctx, data, event)
	case "info":
		err = b.OnInfo(event)
	default:
		return
	}
	b.countCommand(ctx, data.CommandName(), err)
	if IsUserError(err) {
		b.Logger.Debugf("invalid input for command %s: %s", data.CommandName(), err)
	} else if err != nil {
		b.Logger.Errorf("error handling command %s: %s", data.CommandName(), err)
	}
}

func (b *Bot) OnSearch(ctx context.Context, data discord.SlashCommandInteractionData, event *events.ApplicationCommandInteractionCreate) error {
	start := time.Now()
	query := data.String("query")

	// the first message shows that the bot is responsive, it is edited with the results later
	if err := event.CreateMessage(discord.MessageCreate{
		Content: fmt.Sprintf("Searching for `%s`...", query),
	}); err != nil {
		return err
	}

	session := SearchSession{
		Query:         query,
		DiscordUserID: event.User().ID,
	}
	if username, ok := data.OptString("username"); ok {
		user, err := b.Users.Get(ctx, username, displayName(event))
		if err != nil {
			return b.respondError(event, err)
		}
		session.AuthorID = UserID(user)
	}

	msg, err := event.Client().Rest().GetInteractionResponse(event.ApplicationID(), event.Token())
	if err != nil {
		return err
	}

	if err = b.showSearchPage(ctx, msg.ChannelID, msg.ID, session, 0, start); err != nil {
		return b.respondError(event, err)
	}
	return nil
}

func (b *Bot) OnMessageReactionAdd(event *events.MessageReactionAdd) {
	if event.Emoji.Name == nil {
		return
	}
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	session, pageMod, ok, err := b.Searcher.ReactionPageMod(ctx, b.Searches, event.Client().ID(), event.MessageID, event.UserID, *event.Emoji.Name)
	if err != nil {
		b.Logger.Errorf("failed to handle reaction: %s", err)
		return
	}
	if !ok {
		return
	}

	if err = b.showSearchPage(ctx, event.ChannelID, event.MessageID, *session, pageMod, start); err != nil {
		b.Logger.Errorf("failed to show search page: %s", err)
		_, _ = event.Client().Rest().UpdateMessage(event.ChannelID, event.MessageID, discord.MessageUpdate{
			Content: json.Ptr(errorMessage(err)),
		})
	}
}

// showSearchPage renders a search page into the message and adds the page controls.
func (b *Bot) showSearchPage(ctx context.Context, channelID snowflake.ID, messageID snowflake.ID, session SearchSession, pageMod int, start time.Time) error {
	rest := b.Client.Rest()

	// previous controls
	if err := rest.RemoveAllReactions(channelID, messageID); err != nil {
		b.Logger.Debugf("failed to clear reactions of message %s: %s", messageID, err)
	}

	result, err := b.Searcher.CachedPage(ctx, b.Searches, messageID, session, pageMod, start)
	if err != nil {
		return err
	}
	b.countSearchPage(ctx, pageMod)

	if result.NoResults {
		_, err = rest.UpdateMessage(channelID, messageID, discord.MessageUpdate{
			Content: json.Ptr(result.Content),
			Embeds:  &[]discord.Embed{},
		})
		return err
	}

	if _, err = rest.UpdateMessage(channelID, messageID, discord.MessageUpdate{
		Content: json.Ptr(result.Content),
		Embeds:  &[]discord.Embed{result.Embed},
	}); err != nil {
		return err
	}

	for _, emoji := range result.Controls {
		if err = rest.AddReaction(channelID, messageID, emoji); err != nil {
			return fmt.Errorf("failed to add control %s: %w", emoji, err)
		}
	}
	return nil
}

func (b *Bot) OnHeatmap(ctx context.Context, data discord.SlashCommandInteractionData, event *events.ApplicationCommandInteractionCreate) error {
	start := time.Now()
	username := data.String("username")
	if username == "" {
		username = "me"
	}

	after, before, timeStr, err := ParseTimeConstraints(data.String("after"), data.String("before"))
	if err != nil {
		return respondUserError(event, err)
	}

	invoker := displayName(event)
	initialName, err := InitialUsername(username, invoker)
	if err != nil {
		return respondUserError(event, err)
	}

	if err = event.CreateMessage(discord.MessageCreate{
		Content: fmt.Sprintf("Getting the heatmap for %s %s...", initialName, timeStr),
	}); err != nil {
		return err
	}

	result, err := b.Heatmapper.Generate(ctx, HeatmapRequest{
		Username: username,
		Invoker:  invoker,
		After:    after,
		Before:   before,
		TimeStr:  timeStr,
		Start:    start,
	})
	if err != nil {
		return b.respondError(event, err)
	}

	_, err = event.Client().Rest().UpdateInteractionResponse(event.ApplicationID(), event.Token(), discord.MessageUpdate{
		Content: json.Ptr(result.Content),
		Files: []*discord.File{
			discord.NewFile(HeatmapFileName, "", result.Image),
		},
	})
	return err
}

func (b *Bot) OnInfo(event *events.ApplicationCommandInteractionCreate) error {
	return event.CreateMessage(discord.MessageCreate{
		Content: fmt.Sprintf("I'm Buttercup, a bot for the volunteers of r/TranscribersOfReddit.\nYou can search transcriptions with `/search <query>` and see when you transcribe the most with `/heatmap`.\nVersion: `%s`", b.Version),
		Flags:   discord.MessageFlagEphemeral,
	})
}

// respondError replaces the interaction response with a description of err.
func (b *Bot) respondError(event *events.ApplicationCommandInteractionCreate, err error) error {
	if _, updateErr := event.Client().Rest().UpdateInteractionResponse(event.ApplicationID(), event.Token(), discord.MessageUpdate{
		Content: json.Ptr(errorMessage(err)),
		Embeds:  &[]discord.Embed{},
	}); updateErr != nil {
		return errors.Join(err, updateErr)
	}
	return err
}

// respondUserError answers the interaction with an ephemeral description of err.
func respondUserError(event *events.ApplicationCommandInteractionCreate, err error) error {
	if createErr := event.CreateMessage(discord.MessageCreate{
		Content: errorMessage(err),
		Flags:   discord.MessageFlagEphemeral,
	}); createErr != nil {
		return errors.Join(err, createErr)
	}
	return err
}

// errorMessage translates err into a message for the user.
func errorMessage(err error) string {
	var (
		userNotFoundErr *UserNotFoundError
		newUserErr      *NewUserError
		invalidArgErr   *InvalidArgumentError
		timeParseErr    *TimeParseError
		blossomErr      *blossom.Error
	)
	switch {
	case errors.Is(err, ErrNoUsername):
		return "Please provide a username."
	case errors.As(err, &userNotFoundErr):
		return fmt.Sprintf("I couldn't find the user u/%s, is the name spelled correctly?", EscapeFormatting(userNotFoundErr.Username))
	case errors.As(err, &newUserErr):
		return fmt.Sprintf("u/%s hasn't transcribed anything yet, there are no stats to show.", EscapeFormatting(newUserErr.Username))
	case errors.As(err, &invalidArgErr):
		return fmt.Sprintf("Invalid value `%s` for `%s`.", invalidArgErr.Value, invalidArgErr.Argument)
	case errors.As(err, &timeParseErr):
		return fmt.Sprintf("I don't understand the time `%s`. Try something like `2021-09-03` or `2 weeks`.", timeParseErr.TimeStr)
	case errors.As(err, &blossomErr):
		return fmt.Sprintf("Blossom returned an error (status %d), please try again later.", blossomErr.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return "Blossom took too long to respond, please try again later."
	}
	return "Something went wrong, please try again later."
}

// displayName returns the server nickname of the invoker or their username.
func displayName(event *events.ApplicationCommandInteractionCreate) string {
	if member := event.Member(); member != nil && member.Nick != nil {
		return *member.Nick
	}
	return event.User().Username
}
