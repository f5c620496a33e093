package cmd

import (
	"fmt"
	"strings"

	"github.com/andrejsstepanovs/ora2pgconf/db"
	"github.com/andrejsstepanovs/ora2pgconf/inspect"
	"github.com/andrejsstepanovs/ora2pgconf/sync"
	"github.com/spf13/cobra"
)

func newSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the project catalog with the directories on disk",
		Args:  cobra.NoArgs,
		RunE:  app.handleSync,
	}
}

func newInspectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <project>",
		Short: "Show the state of a project's configuration files",
		Args:  cobra.ExactArgs(1),
		RunE:  app.handleInspect,
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <project>",
		Short: "List rendered ora2pg.conf versions recorded in the catalog",
		Args:  cobra.ExactArgs(1),
		RunE:  app.handleHistory,
	}
	cmd.Flags().Int("limit", 10, "number of entries to show, 0 for all")
	return cmd
}

func (a *App) handleSync(cmd *cobra.Command, _ []string) error {
	conn, err := a.catalog()
	if err != nil {
		return err
	}

	result, err := sync.RunSync(cmd.Context(), a.manager, conn, a.log)
	if err != nil {
		return fmt.Errorf("error during sync operation: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added: %s\n", joinOrNone(result.Added))
	fmt.Fprintf(cmd.OutOrStdout(), "Removed: %s\n", joinOrNone(result.Removed))
	fmt.Fprintf(cmd.OutOrStdout(), "Unchanged: %d\n", result.Unchanged)
	return nil
}

func (a *App) handleInspect(cmd *cobra.Command, args []string) error {
	report, err := inspect.Run(a.manager, a.store, a.optionalCatalog(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Project:        %s\n", report.Project)
	fmt.Fprintf(out, "config/:        %s\n", yesNo(report.ConfigDir))
	fmt.Fprintf(out, "JSON document:  %s\n", yesNo(report.ConfigJSON))
	if report.ConfigJSON {
		if report.KeysValid {
			fmt.Fprintln(out, "Keys:           valid")
		} else {
			fmt.Fprintf(out, "Keys:           invalid (%s)\n", report.KeysProblem)
		}
	}
	fmt.Fprintf(out, "ora2pg.conf:    %s\n", yesNo(report.ConfigFile))
	fmt.Fprintf(out, "Files:          %s\n", joinOrNone(report.Files))
	if report.LastRender != nil {
		fmt.Fprintf(out, "Last render:    %s (%s, %d bytes)\n",
			report.LastRender.RenderedAt.Format("2006-01-02 15:04:05"), report.LastRender.Checksum, report.LastRender.Size)
	}
	return nil
}

func (a *App) handleHistory(cmd *cobra.Command, args []string) error {
	conn, err := a.catalog()
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	records, err := db.GetRenderHistory(conn, args[0], limit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No renders recorded for project '%s'\n", args[0])
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%d\n", r.ID, r.RenderedAt.Format("2006-01-02 15:04:05"), r.Checksum, r.Size)
	}
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
