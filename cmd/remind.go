package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/cli"
	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/notify"
	"github.com/pocketsafe/pocketsafe/internal/reminder"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	flagRemindDryRun    bool
	flagRemindLookahead int
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run one reminder scan for subscriptions and bills",
	RunE:  runRemind,
}

func init() {
	remindCmd.Flags().BoolVar(&flagRemindDryRun, "dry-run", false, "List due reminders without delivering them")
	remindCmd.Flags().IntVar(&flagRemindLookahead, "lookahead", 0, "Lookahead window in days (default from config)")
	rootCmd.AddCommand(remindCmd)
}

type reminderRow struct {
	ev        model.ReminderEvent
	delivered bool
}

func runRemind(_ *cobra.Command, _ []string) error {
	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	lookahead := app.cfg.Reminders.LookaheadDays
	if flagRemindLookahead != 0 {
		lookahead = flagRemindLookahead
	}
	lookahead = lookaheadDays(lookahead)

	ctx, cancel := commandContext()
	defer cancel()

	var rows []reminderRow
	if flagRemindDryRun {
		events, err := upcomingReminders(ctx, app, time.Now(), lookahead)
		if err != nil {
			return err
		}
		for _, ev := range events {
			rows = append(rows, reminderRow{ev: ev})
		}
	} else {
		notifier := deliveryChannels(ctx, app)
		if len(notifier) == 0 {
			progressf("  No notification channels configured; reminders are only listed.\n")
		}
		var scanErr error
		for _, kind := range model.Kinds {
			s := reminder.New(app.store, notifier, app.log, reminder.Config{
				Kind:          kind,
				LookaheadDays: lookahead,
				Observer: func(ev model.ReminderEvent, delivered bool) {
					rows = append(rows, reminderRow{ev: ev, delivered: delivered})
				},
			})
			// Each kind scans independently; one failing does not skip the other.
			if _, err := s.Scan(ctx); err != nil {
				scanErr = multierr.Append(scanErr, err)
			}
		}
		printReminders(rows, app.cfg.General.Currency, lookahead, false)
		return scanErr
	}

	printReminders(rows, app.cfg.General.Currency, lookahead, true)
	return nil
}

// deliveryChannels returns the configured channels, each limited to one send
// per reminder per UTC day. Delivery records older than a month are dropped.
func deliveryChannels(ctx context.Context, app *appContext) notify.Multi {
	cutoff := time.Now().UTC().AddDate(0, -1, 0).Format(time.DateOnly)
	if _, err := app.store.PruneSentReminders(ctx, cutoff); err != nil {
		app.log.Warn("pruning sent reminders failed", zap.Error(err))
	}
	return notify.FromConfig(app.cfg, app.log).Once(app.store, nil, app.log)
}

// upcomingReminders evaluates every kind without delivering anything.
func upcomingReminders(ctx context.Context, app *appContext, now time.Time, lookahead int) ([]model.ReminderEvent, error) {
	var all []model.ReminderEvent
	for _, kind := range model.Kinds {
		obligations, err := app.store.ListActiveUnsettled(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("list %s obligations: %w", kind, err)
		}
		all = append(all, reminder.Due(obligations, kind, now, lookahead)...)
	}
	return all, nil
}

func printReminders(rows []reminderRow, currency string, lookahead int, dryRun bool) {
	fmt.Println()
	if len(rows) == 0 {
		fmt.Printf("  Nothing due in the next %d days.\n\n", lookahead)
		return
	}

	headers := []string{"Kind", "Name", "Amount", "Due", "When", "ID", "Delivered"}
	if dryRun {
		headers = headers[:6]
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		line := []string{
			string(r.ev.Kind),
			r.ev.Name,
			cli.FormatMoney(r.ev.Amount, currency),
			cli.FormatDate(r.ev.DueAt),
			cli.FormatDue(r.ev.DaysRemaining),
			fmt.Sprint(r.ev.NotificationID),
		}
		if !dryRun {
			delivered := "yes"
			if !r.delivered {
				delivered = "failed"
			}
			line = append(line, delivered)
		}
		out = append(out, line)
	}

	title := fmt.Sprintf("Reminders (next %d days)", lookahead)
	if dryRun {
		title += "  dry run"
	}
	fmt.Print(cli.RenderTable(cli.Table{Title: title, Headers: headers, Rows: out}))
	fmt.Println()
}
