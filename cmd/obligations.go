package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/cli"
	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/schedule"
	"github.com/pocketsafe/pocketsafe/internal/source"

	"github.com/spf13/cobra"
)

var (
	flagObKind    string
	flagObName    string
	flagObAmount  string
	flagObDue     string
	flagObEvery   string
	flagObAnchor  int
	flagObCatchUp bool
)

var obligationsCmd = &cobra.Command{
	Use:     "obligations",
	Aliases: []string{"ob", "bills", "subs"},
	Short:   "Manage recurring subscriptions and bills",
	RunE:    runObligationsList,
}

var obligationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subscriptions and bills by due date",
	RunE:  runObligationsList,
}

var obligationsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a subscription or bill",
	RunE:  runObligationsAdd,
}

var obligationsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of an obligation",
	Args:  cobra.ExactArgs(1),
	RunE:  runObligationsEdit,
}

var obligationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an obligation",
	Args:  cobra.ExactArgs(1),
	RunE:  runObligationsDelete,
}

var obligationsSettleCmd = &cobra.Command{
	Use:   "settle <id>",
	Short: "Mark the current cycle as paid; no more reminders until advanced",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setSettled(args[0], true) },
}

var obligationsUnsettleCmd = &cobra.Command{
	Use:   "unsettle <id>",
	Short: "Clear the settled flag",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setSettled(args[0], false) },
}

var obligationsAdvanceCmd = &cobra.Command{
	Use:   "advance <id>",
	Short: "Move an obligation to its next due date",
	Args:  cobra.ExactArgs(1),
	RunE:  runObligationsAdvance,
}

var obligationsPauseCmd = &cobra.Command{
	Use:   "pause <id>",
	Short: "Stop reminding about an obligation",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setActive(args[0], false) },
}

var obligationsResumeCmd = &cobra.Command{
	Use:   "resume <id>",
	Short: "Resume reminders for a paused obligation",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setActive(args[0], true) },
}

var obligationsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Add or update obligations from a YAML file",
	Long: `Add or update obligations from a YAML file. Entries with an id replace the
stored obligation with that id; entries without one are added. The whole file
is validated before anything is written.`,
	Args: cobra.ExactArgs(1),
	RunE: runObligationsImport,
}

var obligationsExportCmd = &cobra.Command{
	Use:   "export <file.yaml>",
	Short: "Write every obligation to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runObligationsExport,
}

func init() {
	obligationsCmd.PersistentFlags().StringVarP(&flagObKind, "kind", "k", "", "subscription or bill (default all for list)")

	for _, c := range []*cobra.Command{obligationsAddCmd, obligationsEditCmd} {
		c.Flags().StringVar(&flagObName, "name", "", "Display name")
		c.Flags().StringVar(&flagObAmount, "amount", "", "Amount per cycle")
		c.Flags().StringVar(&flagObDue, "due", "", "Next due date, YYYY-MM-DD")
		c.Flags().StringVar(&flagObEvery, "every", "monthly", "Recurrence: daily, weekly, monthly, quarterly, yearly")
		c.Flags().IntVar(&flagObAnchor, "anchor", 0, "Day of month to keep when advancing (default: day of --due)")
	}
	_ = obligationsAddCmd.MarkFlagRequired("name")
	_ = obligationsAddCmd.MarkFlagRequired("amount")
	_ = obligationsAddCmd.MarkFlagRequired("due")

	obligationsAdvanceCmd.Flags().BoolVar(&flagObCatchUp, "catch-up", false, "Keep advancing until the due date is in the future")

	obligationsCmd.AddCommand(
		obligationsListCmd, obligationsAddCmd, obligationsEditCmd, obligationsDeleteCmd,
		obligationsSettleCmd, obligationsUnsettleCmd, obligationsAdvanceCmd,
		obligationsPauseCmd, obligationsResumeCmd, obligationsImportCmd, obligationsExportCmd,
	)
	rootCmd.AddCommand(obligationsCmd)
}

// kindFlag parses --kind. An empty value means every kind.
func kindFlag() (model.Kind, error) {
	if flagObKind == "" {
		return "", nil
	}
	return model.ParseKind(flagObKind)
}

func runObligationsList(_ *cobra.Command, _ []string) error {
	kind, err := kindFlag()
	if err != nil {
		return err
	}

	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := commandContext()
	defer cancel()

	obligations, err := app.store.ListObligations(ctx, kind)
	if err != nil {
		return err
	}

	fmt.Println()
	if len(obligations) == 0 {
		fmt.Println("  No subscriptions or bills yet.")
		fmt.Println("  Add one with: pocketsafe obligations add --kind bill --name Rent --amount 1200 --due 2025-07-01")
		fmt.Println()
		return nil
	}

	now := time.Now()
	cur := app.cfg.General.Currency
	rows := make([][]string, 0, len(obligations))
	for _, o := range obligations {
		rows = append(rows, []string{
			o.Name,
			string(o.Kind),
			cli.FormatMoney(o.Amount, cur),
			cli.FormatDate(o.DueAt),
			cli.FormatDue(schedule.DaysUntil(o.DueAt, now)),
			string(o.Recurrence),
			obligationState(o),
			o.ID,
		})
	}

	title := "Obligations"
	if kind != "" {
		title = kindTitle(kind)
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("%s (%d)", title, len(obligations)),
		Headers: []string{"Name", "Kind", "Amount", "Due", "When", "Every", "State", "ID"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

func obligationState(o model.Obligation) string {
	switch {
	case !o.Active:
		return "paused"
	case o.Settled:
		return "settled"
	default:
		return "open"
	}
}

func kindTitle(k model.Kind) string {
	if k == model.KindBill {
		return "Bills"
	}
	return "Subscriptions"
}

func runObligationsAdd(_ *cobra.Command, _ []string) error {
	if flagObKind == "" {
		return errors.New("--kind is required (subscription or bill)")
	}
	o := model.Obligation{Active: true}
	if err := applyObligationFlags(&o, func(string) bool { return true }); err != nil {
		return err
	}

	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := commandContext()
	defer cancel()

	if err := app.store.UpsertObligation(ctx, &o); err != nil {
		return err
	}
	fmt.Printf("  Added %s %q due %s, %s (id %s)\n",
		o.Kind, o.Name, cli.FormatDate(o.DueAt), o.Recurrence, o.ID)
	return nil
}

func runObligationsEdit(cmd *cobra.Command, args []string) error {
	changed := func(name string) bool { return cmd.Flags().Changed(name) }
	if !changed("kind") && !changed("name") && !changed("amount") && !changed("due") && !changed("every") && !changed("anchor") {
		return errors.New("nothing to change: pass at least one of --kind, --name, --amount, --due, --every or --anchor")
	}

	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := commandContext()
	defer cancel()

	o, err := app.store.GetObligation(ctx, args[0])
	if err != nil {
		return err
	}
	if changed("due") && !changed("anchor") {
		// A new due date sets a new anchor.
		o.AnchorDay = 0
	}
	if err := applyObligationFlags(&o, changed); err != nil {
		return err
	}
	if err := app.store.UpsertObligation(ctx, &o); err != nil {
		return err
	}
	fmt.Printf("  Updated %q: %s due %s, %s\n",
		o.Name, cli.FormatMoney(o.Amount, app.cfg.General.Currency), cli.FormatDate(o.DueAt), o.Recurrence)
	return nil
}

// applyObligationFlags copies the flags selected by set onto o.
func applyObligationFlags(o *model.Obligation, set func(name string) bool) error {
	if set("kind") && flagObKind != "" {
		k, err := model.ParseKind(flagObKind)
		if err != nil {
			return err
		}
		o.Kind = k
	}
	if set("name") {
		o.Name = strings.TrimSpace(flagObName)
	}
	if set("amount") {
		a, err := model.ParseAmount(flagObAmount)
		if err != nil {
			return err
		}
		o.Amount = a
	}
	if set("due") {
		d, err := source.ParseDate(flagObDue)
		if err != nil {
			return err
		}
		o.DueAt = d
	}
	if set("every") {
		r, err := model.ParseRecurrence(flagObEvery)
		if err != nil {
			return err
		}
		o.Recurrence = r
	}
	if set("anchor") {
		if flagObAnchor < 0 || flagObAnchor > 31 {
			return fmt.Errorf("--anchor must be a day of month (1-31), got %d", flagObAnchor)
		}
		o.AnchorDay = flagObAnchor
	}
	return nil
}

func runObligationsDelete(_ *cobra.Command, args []string) error {
	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := commandContext()
	defer cancel()

	if err := app.store.DeleteObligation(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("  Deleted obligation %s\n", args[0])
	return nil
}

func setSettled(id string, settled bool) error {
	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := commandContext()
	defer cancel()

	if err := app.store.MarkSettled(ctx, id, settled); err != nil {
		return err
	}
	if settled {
		fmt.Printf("  Settled %s. Run `pocketsafe obligations advance %s` when the next cycle starts.\n", id, id)
	} else {
		fmt.Printf("  Unsettled %s\n", id)
	}
	return nil
}

func setActive(id string, active bool) error {
	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := commandContext()
	defer cancel()

	if err := app.store.SetActive(ctx, id, active); err != nil {
		return err
	}
	if active {
		fmt.Printf("  Resumed %s\n", id)
	} else {
		fmt.Printf("  Paused %s\n", id)
	}
	return nil
}

func runObligationsAdvance(_ *cobra.Command, args []string) error {
	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := commandContext()
	defer cancel()

	var o model.Obligation
	if flagObCatchUp {
		o, err = app.store.AdvancePast(ctx, args[0], time.Now())
	} else {
		o, err = app.store.Advance(ctx, args[0])
	}
	if err != nil {
		return err
	}
	fmt.Printf("  %s next due %s (%s)\n", o.Name, cli.FormatDate(o.DueAt), cli.FormatDue(schedule.DaysUntil(o.DueAt, time.Now())))
	return nil
}

func runObligationsImport(_ *cobra.Command, args []string) error {
	obligations, err := source.ParseObligationsYAML(args[0])
	if err != nil {
		return err
	}

	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := commandContext()
	defer cancel()

	for i := range obligations {
		if err := app.store.UpsertObligation(ctx, &obligations[i]); err != nil {
			return fmt.Errorf("saving %q: %w", obligations[i].Name, err)
		}
	}
	fmt.Printf("  Imported %d obligations from %s\n", len(obligations), args[0])
	return nil
}

func runObligationsExport(_ *cobra.Command, args []string) error {
	kind, err := kindFlag()
	if err != nil {
		return err
	}

	app, err := openApp("console")
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := commandContext()
	defer cancel()

	obligations, err := app.store.ListObligations(ctx, kind)
	if err != nil {
		return err
	}
	if err := source.WriteObligationsYAML(args[0], obligations); err != nil {
		return err
	}
	fmt.Printf("  Exported %d obligations to %s\n", len(obligations), args[0])
	return nil
}
