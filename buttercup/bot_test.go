package buttercup

import (
	"context"
	"testing"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/log"
)

// base64 of the application id 123456789012345678
const testToken = "MTIzNDU2Nzg5MDEyMzQ1Njc4.test.token"

func TestSetupDispatchesEventsAsync(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Discord.Token = testToken
	b := New(cfg, "test", log.Default(), nil, nil)
	if err := b.Setup(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer b.Client.Close(context.Background())

	release := make(chan struct{})
	defer close(release)
	b.Client.AddEventListeners(bot.NewListenerFunc(func(*events.Ready) {
		<-release
	}))

	done := make(chan struct{})
	go func() {
		b.Client.EventManager().DispatchEvent(&events.Ready{
			GenericEvent: events.NewGenericEvent(b.Client, 0, 0),
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected a slow listener not to block event dispatch")
	}
}
