package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andrejsstepanovs/ora2pgconf/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cli struct {
	root      string
	resources string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	return &cli{
		root:      t.TempDir(),
		resources: filepath.Join("..", "resources"),
	}
}

func (c *cli) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	app := &App{}
	t.Cleanup(app.close)

	rootCmd := newRootCmd(app)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(args, "--project-dir", c.root, "--resource-dir", c.resources))

	err := rootCmd.Execute()
	app.close()
	return out.String(), err
}

func canonicalDocument(oracleHome string) string {
	parts := make([]string, 0, len(schema.Categories))
	for _, name := range schema.Names() {
		if name == "COMMON" {
			parts = append(parts, `"COMMON":{"ORACLE_HOME":"`+oracleHome+`"}`)
			continue
		}
		parts = append(parts, `"`+name+`":{}`)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func TestProjectLifecycle(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "", "project", "create", "hr")
	require.NoError(t, err)
	assert.Contains(t, out, "Project 'hr' created")
	assert.DirExists(t, filepath.Join(c.root, "hr", "config"))

	out, err = c.run(t, "", "project", "create", "hr")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	_, err = c.run(t, "", "project", "create", "sales", "--init")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(c.root, "sales", "config", "ora2pg-conf.json"))

	require.NoError(t, os.WriteFile(filepath.Join(c.root, "hr", "notes.txt"), []byte("x"), 0o644))

	out, err = c.run(t, "", "project", "list")
	require.NoError(t, err)
	assert.Equal(t, "hr\nsales\n", out)

	out, err = c.run(t, "", "project", "files", "hr")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt\n", out)

	out, err = c.run(t, "", "project", "delete", "hr")
	require.NoError(t, err)
	assert.Contains(t, out, "Project 'hr' deleted")
	assert.NoDirExists(t, filepath.Join(c.root, "hr"))

	_, err = c.run(t, "", "project", "create", "../escape")
	assert.Error(t, err)
}

func TestConfigWorkflow(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "", "config", "create", "hr")
	assert.Error(t, err)
	assert.Contains(t, out, "NOT-FOUND")

	_, err = c.run(t, "", "project", "create", "hr")
	require.NoError(t, err)

	// out of order documents are refused unless validation is skipped
	_, err = c.run(t, `{"INPUT":{},"COMMON":{}}`, "config", "save", "hr", "-")
	assert.ErrorContains(t, err, "refusing to save")

	_, err = c.run(t, canonicalDocument("/usr/lib/oracle"), "config", "save", "hr", "-")
	require.NoError(t, err)

	out, err = c.run(t, "", "config", "validate", "hr")
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	_, err = c.run(t, "", "config", "set", "hr", "INPUT.ORACLE_DSN", "dbi:Oracle:host=db;sid=XE")
	require.NoError(t, err)

	out, err = c.run(t, "", "config", "show", "hr")
	require.NoError(t, err)
	assert.Contains(t, out, `"ORACLE_DSN": "dbi:Oracle:host=db;sid=XE"`)

	out, err = c.run(t, "", "config", "create", "hr")
	require.NoError(t, err)
	assert.Equal(t, "CREATED\n", out)

	rendered, err := os.ReadFile(filepath.Join(c.root, "hr", "config", "ora2pg.conf"))
	require.NoError(t, err)
	assert.Contains(t, string(rendered), "ORACLE_HOME\t/usr/lib/oracle\n")
	assert.Contains(t, string(rendered), "ORACLE_DSN\tdbi:Oracle:host=db;sid=XE\n")

	out, err = c.run(t, "", "config", "create", "hr")
	assert.Error(t, err)
	assert.Contains(t, out, "CONFLICT")

	_, err = c.run(t, "", "config", "set", "hr", "COMMON.ORACLE_HOME", "/opt/oracle")
	require.NoError(t, err)
	_, err = c.run(t, "", "config", "render", "hr", "--force")
	require.NoError(t, err)

	rendered, err = os.ReadFile(filepath.Join(c.root, "hr", "config", "ora2pg.conf"))
	require.NoError(t, err)
	assert.Contains(t, string(rendered), "ORACLE_HOME\t/opt/oracle\n")

	out, err = c.run(t, "", "history", "hr", "--limit", "0")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)

	out, err = c.run(t, "", "inspect", "hr")
	require.NoError(t, err)
	assert.Contains(t, out, "Keys:           valid")
	assert.Contains(t, out, "ora2pg.conf:    yes")
	assert.Contains(t, out, "Last render:")

	out, err = c.run(t, "", "config", "delete", "hr")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted")

	out, err = c.run(t, "", "config", "delete", "hr")
	require.NoError(t, err)
	assert.Contains(t, out, "No config file")
}

func TestSyncCommand(t *testing.T) {
	c := newCLI(t)
	require.NoError(t, os.MkdirAll(filepath.Join(c.root, "hr", "config"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(c.root, "sales", "config"), 0o755))

	out, err := c.run(t, "", "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Added: hr, sales")

	require.NoError(t, os.RemoveAll(filepath.Join(c.root, "sales")))

	out, err = c.run(t, "", "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Added: none")
	assert.Contains(t, out, "Removed: sales")
	assert.Contains(t, out, "Unchanged: 1")
}

func TestCatalogDisabled(t *testing.T) {
	t.Setenv("ORA2PG_CATALOG_ENABLED", "false")
	c := newCLI(t)

	_, err := c.run(t, "", "project", "create", "hr")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(c.root, ".ora2pg-catalog.db"))

	_, err = c.run(t, "", "sync")
	assert.ErrorContains(t, err, "catalog is disabled")
}

func TestJSONValue(t *testing.T) {
	assert.Equal(t, `10`, string(jsonValue("10")))
	assert.Equal(t, `true`, string(jsonValue("true")))
	assert.Equal(t, `["TABLE","VIEW"]`, string(jsonValue(`["TABLE","VIEW"]`)))
	assert.Equal(t, `"/opt/oracle"`, string(jsonValue("/opt/oracle")))
	assert.Equal(t, `"say \"hi\""`, string(jsonValue(`say "hi"`)))
}
