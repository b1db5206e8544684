package buttercup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/disgoorg/disgo/discord"

	"github.com/topi314/buttercup/blossom"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: ErrNoUsername, want: "Please provide a username."},
		{err: fmt.Errorf("wrapped: %w", &UserNotFoundError{Username: "Tim_Burton"}), want: `u/Tim\_Burton`},
		{err: &NewUserError{Username: "newbie"}, want: "hasn't transcribed anything yet"},
		{err: &TimeParseError{TimeStr: "someday"}, want: "`someday`"},
		{err: &InvalidArgumentError{Argument: "after", Value: "x"}, want: "Invalid value `x` for `after`"},
		{err: fmt.Errorf("error getting heatmap: %w", &blossom.Error{StatusCode: 502}), want: "status 502"},
		{err: context.DeadlineExceeded, want: "took too long"},
		{err: errors.New("boom"), want: "Something went wrong"},
	}
	for _, tt := range tests {
		if got := errorMessage(tt.err); !strings.Contains(got, tt.want) {
			t.Errorf("%v: expected message containing %q, got %q", tt.err, tt.want, got)
		}
	}
}

func TestCommands(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range Commands {
		slash, ok := cmd.(discord.SlashCommandCreate)
		if !ok {
			t.Fatalf("unexpected command type %T", cmd)
		}
		names[slash.Name] = true
	}
	for _, name := range []string{"search", "heatmap", "info"} {
		if !names[name] {
			t.Errorf("expected command %s to be registered", name)
		}
	}
}
