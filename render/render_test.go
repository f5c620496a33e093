package render

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andrejsstepanovs/ora2pgconf/client"
	"github.com/andrejsstepanovs/ora2pgconf/file"
	"github.com/andrejsstepanovs/ora2pgconf/models"
	"github.com/andrejsstepanovs/ora2pgconf/project"
	"github.com/andrejsstepanovs/ora2pgconf/schema"
	"github.com/andrejsstepanovs/ora2pgconf/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testTemplate = `ORACLE_HOME	{{ .config.COMMON.ORACLE_HOME }}
ORACLE_DSN	{{ .config.INPUT.ORACLE_DSN | upper }}
`

type memoryRecorder struct {
	records []models.RenderRecord
	err     error
}

func (m *memoryRecorder) RecordRender(record models.RenderRecord) error {
	m.records = append(m.records, record)
	return m.err
}

type fixture struct {
	layout   project.Layout
	store    *store.Store
	renderer *Renderer
	recorder *memoryRecorder
	logs     *observer.ObservedLogs
}

func newFixture(t *testing.T, templateText string) *fixture {
	t.Helper()
	resources := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(resources, "ora2pg.tmpl"), []byte(templateText), 0o644))
	return newFixtureWithSource(t, NewDirSource(resources, "ora2pg.tmpl"))
}

func newFixtureWithSource(t *testing.T, source TemplateSource) *fixture {
	t.Helper()
	layout := project.NewLayout(t.TempDir())
	st := store.New(layout)
	core, logs := observer.New(zapcore.DebugLevel)
	recorder := &memoryRecorder{}

	return &fixture{
		layout:   layout,
		store:    st,
		renderer: New(layout, st, source, recorder, zap.New(core)),
		recorder: recorder,
		logs:     logs,
	}
}

func (f *fixture) seedProject(t *testing.T, name string) models.ConfigObject {
	t.Helper()
	require.NoError(t, os.MkdirAll(f.layout.ConfigDir(name), 0o755))

	obj := schema.Skeleton()
	obj, err := obj.SetRaw("COMMON.ORACLE_HOME", []byte(`"/usr/lib/oracle"`))
	require.NoError(t, err)
	obj, err = obj.SetRaw("INPUT.ORACLE_DSN", []byte(`"dbi:oracle:host=db"`))
	require.NoError(t, err)

	require.NoError(t, f.store.SaveConfigJSON(name, obj))
	return obj
}

func TestRender(t *testing.T) {
	f := newFixture(t, testTemplate)
	obj := f.seedProject(t, "hr")

	content, err := f.renderer.Render(context.Background(), obj)
	require.NoError(t, err)
	assert.Equal(t, "ORACLE_HOME\t/usr/lib/oracle\nORACLE_DSN\tDBI:ORACLE:HOST=DB\n", string(content))
}

func TestRender_TemplateErrors(t *testing.T) {
	testCases := []struct {
		name   string
		source TemplateSource
	}{
		{name: "missing template", source: NewDirSource(t.TempDir(), "missing.tmpl")},
		{name: "malformed template", source: writeTemplate(t, "{{ .config.COMMON ")},
		{name: "execution failure", source: writeTemplate(t, "{{ .config.MISSING.ORACLE_HOME.value }}")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixtureWithSource(t, tc.source)
			obj := f.seedProject(t, "hr")

			_, err := f.renderer.Render(context.Background(), obj)
			assert.ErrorIs(t, err, models.ErrTemplate)

			err = f.renderer.SaveConfigFile(context.Background(), "hr", obj)
			assert.ErrorIs(t, err, models.ErrTemplate)
			assert.NoFileExists(t, f.layout.ConfigFile("hr"))
		})
	}
}

func writeTemplate(t *testing.T, text string) TemplateSource {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.tmpl"), []byte(text), 0o644))
	return NewDirSource(dir, "bad.tmpl")
}

func TestSaveConfigFile_OverwritesAndRecords(t *testing.T) {
	f := newFixture(t, testTemplate)
	obj := f.seedProject(t, "hr")
	require.NoError(t, os.WriteFile(f.layout.ConfigFile("hr"), []byte("old content"), 0o644))

	require.NoError(t, f.renderer.SaveConfigFile(context.Background(), "hr", obj))

	content, err := os.ReadFile(f.layout.ConfigFile("hr"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "/usr/lib/oracle")

	require.Len(t, f.recorder.records, 1)
	assert.Equal(t, "hr", f.recorder.records[0].Project)
	assert.Equal(t, len(content), f.recorder.records[0].Size)
	assert.Equal(t, Checksum(content), f.recorder.records[0].Checksum)
}

func TestSaveConfigFile_WriteError(t *testing.T) {
	f := newFixture(t, testTemplate)

	err := f.renderer.SaveConfigFile(context.Background(), "hr", schema.Skeleton())
	assert.ErrorIs(t, err, models.ErrWrite)
	assert.Empty(t, f.recorder.records)
}

func TestSaveConfigFile_RecorderFailureIsLogged(t *testing.T) {
	f := newFixture(t, testTemplate)
	obj := f.seedProject(t, "hr")
	f.recorder.err = errors.New("catalog is locked")

	require.NoError(t, f.renderer.SaveConfigFile(context.Background(), "hr", obj))
	assert.Equal(t, 1, f.logs.FilterMessage("failed to record render").Len())
}

func TestCreateConfigFile(t *testing.T) {
	f := newFixture(t, testTemplate)
	f.seedProject(t, "hr")
	ctx := context.Background()

	status, err := f.renderer.CreateConfigFile(ctx, "hr")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCreated, status)

	first, err := os.ReadFile(f.layout.ConfigFile("hr"))
	require.NoError(t, err)

	// change the source document, the rendered file must not follow
	require.NoError(t, f.store.SetValue("hr", "COMMON.ORACLE_HOME", []byte(`"/changed"`)))

	status, err = f.renderer.CreateConfigFile(ctx, "hr")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConflict, status)

	second, err := os.ReadFile(f.layout.ConfigFile("hr"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, f.recorder.records, 1)
}

func TestCreateConfigFile_NotFound(t *testing.T) {
	f := newFixture(t, testTemplate)

	status, err := f.renderer.CreateConfigFile(context.Background(), "hr")
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotFound, status)
	assert.NoDirExists(t, f.layout.ProjectDir("hr"))
}

func TestCreateConfigFile_PropagatesErrors(t *testing.T) {
	f := newFixture(t, testTemplate)
	require.NoError(t, os.MkdirAll(f.layout.ConfigDir("empty"), 0o755))
	require.NoError(t, os.MkdirAll(f.layout.ConfigDir("broken"), 0o755))
	require.NoError(t, os.WriteFile(f.layout.ConfigJSON("broken"), []byte("{"), 0o644))

	_, err := f.renderer.CreateConfigFile(context.Background(), "empty")
	assert.ErrorIs(t, err, models.ErrRead)

	_, err = f.renderer.CreateConfigFile(context.Background(), "broken")
	assert.ErrorIs(t, err, models.ErrParse)

	_, err = f.renderer.CreateConfigFile(context.Background(), "..")
	assert.Error(t, err)
}

type shortWriter struct {
	f *os.File
}

func (w shortWriter) Write(p []byte) (int, error) {
	n, _ := w.f.Write(p[:len(p)/2])
	return n, errors.New("no space left on device")
}

func (w shortWriter) Close() error {
	return w.f.Close()
}

func TestCreateConfigFile_PartialWriteIsRemoved(t *testing.T) {
	f := newFixture(t, testTemplate)
	f.seedProject(t, "hr")

	openFile = func(path string, flags int) (io.WriteCloser, error) {
		fh, err := os.OpenFile(path, flags, 0o644)
		if err != nil {
			return nil, err
		}
		return shortWriter{f: fh}, nil
	}
	t.Cleanup(func() {
		openFile = func(path string, flags int) (io.WriteCloser, error) {
			return os.OpenFile(path, flags, 0o644)
		}
	})

	_, err := f.renderer.CreateConfigFile(context.Background(), "hr")
	assert.ErrorIs(t, err, models.ErrWrite)
	assert.NoFileExists(t, f.layout.ConfigFile("hr"))
	assert.Empty(t, f.recorder.records)
}

func TestRegenerateConfigFile(t *testing.T) {
	f := newFixture(t, testTemplate)
	f.seedProject(t, "hr")
	ctx := context.Background()

	status, err := f.renderer.CreateConfigFile(ctx, "hr")
	require.NoError(t, err)
	require.Equal(t, models.StatusCreated, status)

	require.NoError(t, f.store.SetValue("hr", "COMMON.ORACLE_HOME", []byte(`"/changed"`)))
	require.NoError(t, f.renderer.RegenerateConfigFile(ctx, "hr"))

	content, err := os.ReadFile(f.layout.ConfigFile("hr"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "ORACLE_HOME\t/changed\n")
	assert.Len(t, f.recorder.records, 2)
}

func TestDeleteConfigFile(t *testing.T) {
	f := newFixture(t, testTemplate)
	f.seedProject(t, "hr")

	_, err := f.renderer.CreateConfigFile(context.Background(), "hr")
	require.NoError(t, err)

	assert.Equal(t, file.Done, f.renderer.DeleteConfigFile("hr").Outcome)
	assert.NoFileExists(t, f.layout.ConfigFile("hr"))
	assert.FileExists(t, f.layout.ConfigJSON("hr"))

	assert.Equal(t, file.AlreadyDone, f.renderer.DeleteConfigFile("hr").Outcome)
	assert.Equal(t, 0, f.logs.Len())
}

func TestDeleteConfigFile_FailureIsLogged(t *testing.T) {
	f := newFixture(t, testTemplate)
	f.seedProject(t, "hr")
	// a non-empty directory in place of the file cannot be unlinked
	require.NoError(t, os.MkdirAll(filepath.Join(f.layout.ConfigFile("hr"), "nested"), 0o755))

	res := f.renderer.DeleteConfigFile("hr")
	assert.Equal(t, file.Failed, res.Outcome)
	assert.Error(t, res.Err)
	assert.Equal(t, 1, f.logs.FilterMessage("failed to delete config file").Len())
}

func TestHTTPSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testTemplate))
	}))
	defer server.Close()

	remote := newFixtureWithSource(t, NewHTTPSource(server.URL, "ora2pg.tmpl",
		client.Options{Timeout: 5 * time.Second, RetryInterval: 10 * time.Millisecond}))
	local := newFixture(t, testTemplate)

	obj := remote.seedProject(t, "hr")

	remoteContent, err := remote.renderer.Render(context.Background(), obj)
	require.NoError(t, err)
	localContent, err := local.renderer.Render(context.Background(), obj)
	require.NoError(t, err)
	assert.Equal(t, localContent, remoteContent)
}

func TestDefaultTemplate(t *testing.T) {
	f := newFixtureWithSource(t, NewDirSource(filepath.Join("..", "resources"), "ora2pg-config-file.tmpl"))
	obj := f.seedProject(t, "hr")

	obj, err := obj.SetRaw("DATA.DATA_LIMIT", []byte(`10000`))
	require.NoError(t, err)
	obj, err = obj.SetRaw("OUTPUT.FILE_PER_TABLE", []byte(`true`))
	require.NoError(t, err)
	obj, err = obj.SetRaw("EXPORT.TYPE", []byte(`["TABLE","VIEW"]`))
	require.NoError(t, err)
	obj, err = obj.SetRaw("EXPORT.EXCLUDE", []byte(`""`))
	require.NoError(t, err)
	obj, err = obj.SetRaw("DATA.BIG", []byte(`12345678901234567890`))
	require.NoError(t, err)
	obj, err = obj.SetRaw("DATA.SMALL", []byte(`0.00001`))
	require.NoError(t, err)
	obj, err = obj.SetRaw("PERFORMANCE.JOBS", []byte(`-4`))
	require.NoError(t, err)

	content, err := f.renderer.Render(context.Background(), obj)
	require.NoError(t, err)
	out := string(content)

	assert.Contains(t, out, "# COMMON\n")
	assert.Contains(t, out, "ORACLE_HOME\t/usr/lib/oracle\n")
	assert.Contains(t, out, "ORACLE_DSN\tdbi:oracle:host=db\n")
	assert.Contains(t, out, "DATA_LIMIT\t10000\n")
	assert.Contains(t, out, "BIG\t12345678901234567890\n")
	assert.Contains(t, out, "SMALL\t0.00001\n")
	assert.Contains(t, out, "JOBS\t-4\n")
	assert.Contains(t, out, "FILE_PER_TABLE\t1\n")
	assert.Contains(t, out, "TYPE\tTABLE VIEW\n")
	assert.NotContains(t, out, "EXCLUDE")
	// empty sections are left out
	assert.NotContains(t, out, "# MYSQL")
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, Checksum([]byte("a")), Checksum([]byte("a")))
	assert.NotEqual(t, Checksum([]byte("a")), Checksum([]byte("b")))
	assert.Len(t, Checksum(nil), 16)
}
