package cmd

import (
	"fmt"

	"github.com/andrejsstepanovs/ora2pgconf/db"
	"github.com/andrejsstepanovs/ora2pgconf/file"
	"github.com/andrejsstepanovs/ora2pgconf/schema"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create, list and delete project directories",
	}

	createCmd := &cobra.Command{
		Use:   "create <project>",
		Short: "Create the project directory and its config/ subdirectory",
		Args:  cobra.ExactArgs(1),
		RunE:  app.handleProjectCreate,
	}
	createCmd.Flags().Bool("init", false, "write an empty ora2pg-conf.json with every section in canonical order")

	cmd.AddCommand(
		createCmd,
		&cobra.Command{
			Use:   "list",
			Short: "List project directories",
			Args:  cobra.NoArgs,
			RunE:  app.handleProjectList,
		},
		&cobra.Command{
			Use:   "files <project>",
			Short: "List files in the project directory",
			Args:  cobra.ExactArgs(1),
			RunE:  app.handleProjectFiles,
		},
		&cobra.Command{
			Use:   "delete <project>",
			Short: "Delete the project directory and everything in it",
			Args:  cobra.ExactArgs(1),
			RunE:  app.handleProjectDelete,
		},
	)
	return cmd
}

func (a *App) handleProjectCreate(cmd *cobra.Command, args []string) error {
	name := args[0]

	res := a.manager.CreateProjectDirectory(name)
	if !res.OK() {
		return res.Err
	}

	if res.Outcome == file.AlreadyDone {
		fmt.Fprintf(cmd.OutOrStdout(), "Project '%s' already exists\n", name)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Project '%s' created\n", name)
	}

	if conn := a.optionalCatalog(); conn != nil {
		if err := db.UpsertProject(conn, name); err != nil {
			a.log.Error("failed to add project to catalog", zap.String("project", name), zap.Error(err))
		}
	}

	initialize, _ := cmd.Flags().GetBool("init")
	if !initialize {
		return nil
	}
	if a.manager.FileExists(a.manager.Layout().ConfigJSON(name)) {
		fmt.Fprintf(cmd.OutOrStdout(), "Keeping existing %s\n", a.manager.Layout().ConfigJSON(name))
		return nil
	}
	if err := a.store.SaveConfigJSON(name, schema.Skeleton()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", a.manager.Layout().ConfigJSON(name))
	return nil
}

func (a *App) handleProjectList(cmd *cobra.Command, _ []string) error {
	dirs, err := a.manager.ListProjectDirectories()
	if err != nil {
		return err
	}

	for _, dir := range dirs {
		fmt.Fprintln(cmd.OutOrStdout(), dir)
	}
	return nil
}

func (a *App) handleProjectFiles(cmd *cobra.Command, args []string) error {
	files, err := a.manager.ListProjectFiles(args[0])
	if err != nil {
		return err
	}

	for _, f := range files {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	return nil
}

func (a *App) handleProjectDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	res := a.manager.DeleteProjectDirectory(name)
	if !res.OK() {
		return res.Err
	}

	if conn := a.optionalCatalog(); conn != nil {
		if err := db.DeleteProject(conn, name); err != nil {
			a.log.Error("failed to remove project from catalog", zap.String("project", name), zap.Error(err))
		}
	}

	if res.Outcome == file.AlreadyDone {
		fmt.Fprintf(cmd.OutOrStdout(), "Project '%s' does not exist\n", name)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Project '%s' deleted\n", name)
	return nil
}
