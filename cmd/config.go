package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/andrejsstepanovs/ora2pgconf/file"
	"github.com/andrejsstepanovs/ora2pgconf/models"
	"github.com/andrejsstepanovs/ora2pgconf/schema"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage a project's ora2pg-conf.json and the rendered ora2pg.conf",
	}

	saveCmd := &cobra.Command{
		Use:   "save <project> <file|->",
		Short: "Replace ora2pg-conf.json with the given JSON document ('-' reads stdin)",
		Args:  cobra.ExactArgs(2),
		RunE:  app.handleConfigSave,
	}
	saveCmd.Flags().Bool("skip-validation", false, "save even when the top level keys are not in canonical order")

	renderCmd := &cobra.Command{
		Use:   "render <project>",
		Short: "Render ora2pg.conf, refusing to overwrite unless --force is set",
		Args:  cobra.ExactArgs(1),
		RunE:  app.handleConfigRender,
	}
	renderCmd.Flags().Bool("force", false, "overwrite an existing ora2pg.conf")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <project>",
			Short: "Print ora2pg-conf.json",
			Args:  cobra.ExactArgs(1),
			RunE:  app.handleConfigShow,
		},
		&cobra.Command{
			Use:   "validate <project>",
			Short: "Check that the top level keys match the canonical order",
			Args:  cobra.ExactArgs(1),
			RunE:  app.handleConfigValidate,
		},
		saveCmd,
		&cobra.Command{
			Use:   "set <project> <path> <value>",
			Short: "Set one option, e.g. 'set hr COMMON.ORACLE_HOME /opt/oracle'. Values that are not JSON are stored as strings",
			Args:  cobra.ExactArgs(3),
			RunE:  app.handleConfigSet,
		},
		&cobra.Command{
			Use:   "create <project>",
			Short: "Render ora2pg.conf once. Prints CREATED, CONFLICT or NOT-FOUND",
			Args:  cobra.ExactArgs(1),
			RunE:  app.handleConfigCreate,
		},
		renderCmd,
		&cobra.Command{
			Use:   "delete <project>",
			Short: "Delete the rendered ora2pg.conf",
			Args:  cobra.ExactArgs(1),
			RunE:  app.handleConfigDelete,
		},
	)
	return cmd
}

func (a *App) handleConfigShow(cmd *cobra.Command, args []string) error {
	obj, err := a.store.GetConfigObject(args[0])
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(obj.Pretty())
	return err
}

func (a *App) handleConfigValidate(cmd *cobra.Command, args []string) error {
	obj, err := a.store.GetConfigObject(args[0])
	if err != nil {
		return err
	}

	if err := schema.Validate(obj); err != nil {
		return fmt.Errorf("invalid ora2pg-conf.json for project '%s': %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Project '%s' configuration is valid\n", args[0])
	return nil
}

func (a *App) handleConfigSave(cmd *cobra.Command, args []string) error {
	name, source := args[0], args[1]

	var content []byte
	var err error
	if source == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
	} else {
		content, err = os.ReadFile(source)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", models.ErrRead, source, err)
	}

	obj, err := models.ParseConfigObject(content)
	if err != nil {
		return err
	}

	skip, _ := cmd.Flags().GetBool("skip-validation")
	if !skip {
		if err := schema.Validate(obj); err != nil {
			return fmt.Errorf("refusing to save: %w", err)
		}
	}

	if err := a.store.SaveConfigJSON(name, obj); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", a.manager.Layout().ConfigJSON(name))
	return nil
}

func (a *App) handleConfigSet(cmd *cobra.Command, args []string) error {
	name, path, value := args[0], args[1], args[2]

	if err := a.store.SetValue(name, path, jsonValue(value)); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s for project '%s'\n", path, name)
	return nil
}

// jsonValue keeps valid JSON as is and encodes anything else as a JSON string.
func jsonValue(value string) []byte {
	if gjson.Valid(value) {
		return []byte(value)
	}

	doc, err := sjson.Set("{}", "v", value)
	if err != nil {
		return []byte(`""`)
	}
	return []byte(gjson.Get(doc, "v").Raw)
}

func (a *App) handleConfigCreate(cmd *cobra.Command, args []string) error {
	status, err := a.renderer().CreateConfigFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), status)
	if status != models.StatusCreated {
		return fmt.Errorf("config file for project '%s' was not created: %s", args[0], status)
	}
	return nil
}

func (a *App) handleConfigRender(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	if !force {
		return a.handleConfigCreate(cmd, args)
	}

	if err := a.renderer().RegenerateConfigFile(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s\n", a.manager.Layout().ConfigFile(args[0]))
	return nil
}

func (a *App) handleConfigDelete(cmd *cobra.Command, args []string) error {
	res := a.renderer().DeleteConfigFile(args[0])
	if !res.OK() {
		return res.Err
	}

	if res.Outcome == file.AlreadyDone {
		fmt.Fprintf(cmd.OutOrStdout(), "No config file for project '%s'\n", args[0])
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", res.Path)
	return nil
}
