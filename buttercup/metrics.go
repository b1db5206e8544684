package buttercup

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func (b *Bot) InitMetrics() error {
	if !b.Cfg.Otel.Enabled || b.Meter == nil {
		return nil
	}

	var err error
	if b.CommandsCounter, err = b.Meter.Int64Counter("buttercup_commands",
		metric.WithDescription("The number of commands executed"),
	); err != nil {
		return err
	}

	if b.SearchPagesCounter, err = b.Meter.Int64Counter("buttercup_search_pages",
		metric.WithDescription("The number of search result pages shown"),
	); err != nil {
		return err
	}

	return b.Blossom.InitMetrics(b.Meter)
}

func (b *Bot) countCommand(ctx context.Context, command string, err error) {
	if b.CommandsCounter == nil {
		return
	}
	status := "success"
	if IsUserError(err) {
		status = "user_error"
	} else if err != nil {
		status = "error"
	}
	b.CommandsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("status", status),
	))
}

func (b *Bot) countSearchPage(ctx context.Context, pageMod int) {
	if b.SearchPagesCounter == nil {
		return
	}
	b.SearchPagesCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("initial", pageMod == 0),
	))
}
