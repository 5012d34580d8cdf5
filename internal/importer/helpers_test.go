package importer

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	"portfolio/app/internal/db"
	"portfolio/app/internal/demo"
)

func setupRepository(t *testing.T) *demo.GormRepository {
	t.Helper()

	gormDB, err := db.Open(db.Options{
		Path:   filepath.Join(t.TempDir(), "import.db"),
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close(gormDB))
	})

	logger := silentLogger()
	require.NoError(t, demo.Migrate(context.Background(), gormDB, logger))

	repo, err := demo.NewRepository(gormDB, logger)
	require.NoError(t, err)
	return repo
}

func newTestImporter(t *testing.T, repo demo.Repository) (*Importer, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer
	imp, err := New(Options{
		Repository: repo,
		Logger:     silentLogger(),
		Output:     &out,
		NoColor:    true,
	})
	require.NoError(t, err)
	return imp, &out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
