package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChairReports/internal/app"
	"ChairReports/internal/config"
	"ChairReports/internal/domain"
	"ChairReports/internal/infrastructure/kv"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "chairreports", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"serve", "tick", "dispatch", "period", "preview", "last-mail"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	cfg := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "c", cfg.Shorthand)
}

func run(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CHAIR_REPORTS_CONFIG", "")

	var out bytes.Buffer
	cmd := newRootCommand(opts)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, &RootOptions{}, "period", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestPeriodText(t *testing.T) {
	out, err := run(t, &RootOptions{}, "period", "--frequency", "weekly", "--at", "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, "weekly 2025-W01 [2024-12-30T00:00:00Z, 2025-01-06T00:00:00Z)\n", out)
}

func TestPeriodJSON(t *testing.T) {
	out, err := run(t, &RootOptions{}, "period", "-f", "biweekly", "--at", "2025-03-20T08:00:00Z", "--format", "json")
	require.NoError(t, err)

	var view periodView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, domain.FrequencyBiweekly, view.Frequency)
	assert.Equal(t, "2025-03-2", view.ID)
	require.NotNil(t, view.Start)
	assert.Equal(t, 16, view.Start.Day())
}

func TestPeriodNone(t *testing.T) {
	out, err := run(t, &RootOptions{}, "period", "-f", "none", "--at", "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, "none: no period\n", out)
}

func TestPeriodBadInstant(t *testing.T) {
	_, err := run(t, &RootOptions{}, "period", "--at", "yesterday")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTickPrintsSummary(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	const catalogSQL = "SELECT id, name, kind, layout, chair_emails, publish_start, publish_end, report_frequency FROM catalog_items WHERE kind = $1 ORDER BY sort_order, id"
	cols := []string{"id", "name", "kind", "layout", "chair_emails", "publish_start", "publish_end", "report_frequency"}
	mock.ExpectQuery(regexp.QuoteMeta(catalogSQL)).WithArgs("banquet").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("gala", "Awards Gala", "banquet", nil, "{chair@example.org}", nil, nil, "none"))
	mock.ExpectQuery(regexp.QuoteMeta(catalogSQL)).WithArgs("addon").WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectQuery(regexp.QuoteMeta(catalogSQL)).WithArgs("catalog").WillReturnRows(sqlmock.NewRows(cols))

	opts := &RootOptions{NewApp: func(cfg config.Config, logger *slog.Logger) (*app.Application, error) {
		return app.New(cfg, logger, app.WithDB(db), app.WithKV(kv.NewMemoryStore()))
	}}

	out, err := run(t, opts, "tick", "--at", "2025-03-05T09:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "sent=0 skipped=1 errors=0")
	assert.Contains(t, out, "reason=report frequency is none")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenAppFailure(t *testing.T) {
	opts := &RootOptions{NewApp: func(config.Config, *slog.Logger) (*app.Application, error) {
		return nil, errors.New("no database")
	}}

	_, err := run(t, opts, "tick")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorContains(t, err, "no database")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "x", errors.New("y"))))
}
