package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/pressledger/internal/infrastructure/config"
	"github.com/xiebiao/pressledger/internal/infrastructure/persistence/blob"
	"github.com/xiebiao/pressledger/pkg/logger"
)

func TestNewRemote_None(t *testing.T) {
	remote, cleanup, err := NewRemote(context.Background(), config.RemoteConfig{}, logger.Nop())
	require.NoError(t, err)
	defer cleanup()
	assert.Nil(t, remote)
}

func TestNewRemote_Memory(t *testing.T) {
	remote, cleanup, err := NewRemote(context.Background(), config.RemoteConfig{Backend: config.BackendMemory, Timeout: time.Second}, logger.Nop())
	require.NoError(t, err)
	defer cleanup()

	_, err = remote.Get(context.Background(), "inventory.csv")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestNewRemote_SQLite(t *testing.T) {
	cfg := config.RemoteConfig{
		Backend:  config.BackendSQLite,
		Database: config.DatabaseConfig{Path: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())},
	}
	remote, cleanup, err := NewRemote(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer cleanup()

	ctx := context.Background()
	v, err := remote.Create(ctx, "pressledger/history.csv", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestNewRemote_UnknownBackend(t *testing.T) {
	_, _, err := NewRemote(context.Background(), config.RemoteConfig{Backend: "s3"}, logger.Nop())
	assert.Error(t, err)
}

// TestNewFromConfig_LocalOnly 未配置远程仓库时,保存只写本地文件
func TestNewFromConfig_LocalOnly(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Dir: t.TempDir(), InventoryFile: "inventory.csv", HistoryFile: "history.csv"},
	}
	m, cleanup, err := NewFromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer cleanup()

	sess, _, err := m.Load(context.Background())
	require.NoError(t, err)
	report, err := m.Save(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, "local_only", string(report.Status))
}
