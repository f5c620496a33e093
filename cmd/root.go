package cmd

import (
	"database/sql"
	"errors"
	"os"

	"github.com/andrejsstepanovs/ora2pgconf/appconfig"
	"github.com/andrejsstepanovs/ora2pgconf/client"
	"github.com/andrejsstepanovs/ora2pgconf/db"
	"github.com/andrejsstepanovs/ora2pgconf/logging"
	"github.com/andrejsstepanovs/ora2pgconf/project"
	"github.com/andrejsstepanovs/ora2pgconf/render"
	"github.com/andrejsstepanovs/ora2pgconf/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App holds the dependencies shared by all commands. They are built once in
// the root command's PersistentPreRunE.
type App struct {
	configPath  string
	projectDir  string
	resourceDir string

	cfg       *appconfig.Config
	log       *zap.Logger
	manager   *project.Manager
	store     *store.Store
	catalogDB *sql.DB
}

var errCatalogDisabled = errors.New("project catalog is disabled (catalog.enabled=false)")

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "ora2pgconf",
		Short:             "Manage ora2pg project directories and configuration files",
		SilenceUsage:      true,
		PersistentPreRunE: app.setup,
	}

	cmd.PersistentFlags().StringVar(&app.configPath, "config", "", "path to a YAML settings file")
	cmd.PersistentFlags().StringVar(&app.projectDir, "project-dir", "", "project root directory (overrides project_directory)")
	cmd.PersistentFlags().StringVar(&app.resourceDir, "resource-dir", "", "template directory or URL (overrides resource_directory)")

	cmd.AddCommand(
		newProjectCmd(app),
		newConfigCmd(app),
		newSyncCmd(app),
		newInspectCmd(app),
		newHistoryCmd(app),
	)
	return cmd
}

func (a *App) setup(_ *cobra.Command, _ []string) error {
	cfg, err := appconfig.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.projectDir != "" {
		cfg.ProjectDirectory = a.projectDir
	}
	if a.resourceDir != "" {
		cfg.ResourceDirectory = a.resourceDir
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	layout := project.NewLayout(cfg.ProjectDirectory)
	a.cfg = cfg
	a.log = logger
	a.manager = project.NewManager(layout, logger)
	a.store = store.New(layout)
	return nil
}

func (a *App) close() {
	if a.catalogDB != nil {
		_ = a.catalogDB.Close()
		a.catalogDB = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// catalog opens the sqlite catalog on first use.
func (a *App) catalog() (*sql.DB, error) {
	if !a.cfg.Catalog.Enabled {
		return nil, errCatalogDisabled
	}
	if a.catalogDB != nil {
		return a.catalogDB, nil
	}

	conn, err := db.InitDB(a.cfg.CatalogPath())
	if err != nil {
		return nil, err
	}
	a.catalogDB = conn
	return conn, nil
}

// optionalCatalog is catalog for commands that work without one.
func (a *App) optionalCatalog() *sql.DB {
	conn, err := a.catalog()
	if err != nil {
		if !errors.Is(err, errCatalogDisabled) {
			a.log.Warn("project catalog unavailable", zap.String("path", a.cfg.CatalogPath()), zap.Error(err))
		}
		return nil
	}
	return conn
}

func (a *App) renderer() *render.Renderer {
	var source render.TemplateSource
	if a.cfg.RemoteResources() {
		source = render.NewHTTPSource(a.cfg.ResourceDirectory, a.cfg.TemplateName, client.Options{
			Timeout:       a.cfg.Fetch.Timeout,
			RetryInterval: a.cfg.Fetch.RetryInterval,
		})
	} else {
		source = render.NewDirSource(a.cfg.ResourceDirectory, a.cfg.TemplateName)
	}

	var recorder render.Recorder
	if conn := a.optionalCatalog(); conn != nil {
		recorder = db.Catalog{DB: conn}
	}

	return render.New(a.manager.Layout(), a.store, source, recorder, a.log)
}

// Execute initializes and runs the root command. It is the single entry point
// for the command-line interface.
func Execute() {
	app := &App{}
	rootCmd := newRootCmd(app)
	err := rootCmd.Execute()
	app.close()
	if err != nil {
		// Cobra prints the error, so we just need to exit.
		os.Exit(1)
	}
}
