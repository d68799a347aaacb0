// Package persistence 会话数据的加载与保存
//
// 加载按数据源优先级依次尝试:远程仓库 → 本地文件 → 内置示例。
// 保存总是先写本地文件,再尽力写远程仓库;远程没有合并逻辑,最后一次成功的保存覆盖之前的内容。
package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/xiebiao/pressledger/internal/domain/inventory"
	"github.com/xiebiao/pressledger/internal/infrastructure/config"
	"github.com/xiebiao/pressledger/internal/infrastructure/persistence/blob"
	"github.com/xiebiao/pressledger/internal/infrastructure/persistence/localfile"
	"github.com/xiebiao/pressledger/internal/infrastructure/persistence/tabular"
	apperrors "github.com/xiebiao/pressledger/pkg/errors"
	"github.com/xiebiao/pressledger/pkg/logger"
	"github.com/xiebiao/pressledger/pkg/metrics"
	"github.com/xiebiao/pressledger/pkg/tracing"
)

// ErrLocalParse 本地文件无法读取或解析(启动失败)
var ErrLocalParse = apperrors.New(apperrors.ErrCodeLocalParse, "本地数据文件损坏")

// 保存目标
const (
	TargetLocal  = "local"
	TargetRemote = "remote"
)

// Layout 数据表与文件名、远程路径的对应关系
type Layout struct {
	InventoryFile string
	HistoryFile   string
	RemotePrefix  string
}

// DefaultLayout 默认文件名
func DefaultLayout() Layout {
	return Layout{InventoryFile: "inventory.csv", HistoryFile: "history.csv"}
}

// NewLayout 从配置生成布局
func NewLayout(storage config.StorageConfig, remote config.RemoteConfig) Layout {
	return Layout{
		InventoryFile: storage.InventoryFile,
		HistoryFile:   storage.HistoryFile,
		RemotePrefix:  remote.PathPrefix,
	}
}

// File 表对应的本地文件名
func (l Layout) File(table string) string {
	if table == inventory.TableHistory {
		return l.HistoryFile
	}
	return l.InventoryFile
}

// RemotePath 表在远程仓库中的路径
func (l Layout) RemotePath(table string) string {
	return config.RemoteConfig{PathPrefix: l.RemotePrefix}.Path(l.File(table))
}

// Manager 持久化管理器,实现inventory.Store
type Manager struct {
	local   *localfile.Store
	remote  blob.Store // nil表示local_only
	layout  Layout
	log     *logger.Logger
	sources []source
}

var _ inventory.Store = (*Manager)(nil)

// NewManager 创建持久化管理器
// remote为nil时只使用本地文件
func NewManager(local *localfile.Store, remote blob.Store, layout Layout, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	m := &Manager{local: local, remote: remote, layout: layout, log: log}
	if remote != nil {
		m.sources = append(m.sources, &remoteSource{store: remote, layout: layout})
	}
	m.sources = append(m.sources, &localSource{store: local, layout: layout}, seedSource{})
	return m
}

// Load 加载库存表和流水表
// 两张表独立选择数据源,一张表的远程失败不影响另一张
func (m *Manager) Load(ctx context.Context) (sess *inventory.Session, report *inventory.LoadReport, err error) {
	ctx, span := tracing.StartSpan(ctx, "persistence.Load")
	defer func() { tracing.End(span, err) }()

	report = &inventory.LoadReport{}

	var table *inventory.Table
	report.Inventory, err = m.loadTable(ctx, inventory.TableInventory, func(data []byte) error {
		t, err := tabular.DecodeInventory(data)
		table = t
		return err
	})
	if err != nil {
		return nil, report, err
	}

	var history *inventory.Log
	report.History, err = m.loadTable(ctx, inventory.TableHistory, func(data []byte) error {
		h, err := tabular.DecodeHistory(data)
		history = h
		return err
	})
	if err != nil {
		return nil, report, err
	}

	// 书名重复时按第一条处理,这里只提示
	if dups := table.DuplicateTitles(); len(dups) > 0 {
		m.log.From(ctx).Warn().Strs("titles", dups).Msg("inventory contains duplicate titles, first row wins")
	}

	return inventory.NewSession(table, history), report, nil
}

// loadTable 依次尝试各数据源,decode成功即停止
func (m *Manager) loadTable(ctx context.Context, table string, decode func([]byte) error) (inventory.TableLoad, error) {
	result := inventory.TableLoad{Table: table}

	for _, src := range m.sources {
		data, err := src.Read(ctx, table)
		if err == nil {
			err = decode(data)
			if err == nil {
				result.Source = src.Name()
				result.Attempts = append(result.Attempts, inventory.Attempt{Source: src.Name(), Outcome: inventory.OutcomeLoaded})
				metrics.RecordLoad(table, src.Name())
				m.log.From(ctx).Info().Str("table", table).Str("source", src.Name()).Msg("table loaded")
				return result, nil
			}
			result.Attempts = append(result.Attempts, inventory.Attempt{Source: src.Name(), Outcome: inventory.OutcomeCorrupt, Err: err})
			if src.Fatal() {
				return result, ErrLocalParse.WithCause(err)
			}
			m.log.Warn(m.log.WithField(ctx, "table", table), "remote table corrupt, falling back", err)
			continue
		}

		switch {
		case errors.Is(err, errAbsent):
			result.Attempts = append(result.Attempts, inventory.Attempt{Source: src.Name(), Outcome: inventory.OutcomeAbsent})
		case src.Fatal():
			result.Attempts = append(result.Attempts, inventory.Attempt{Source: src.Name(), Outcome: inventory.OutcomeCorrupt, Err: err})
			return result, ErrLocalParse.WithCause(err)
		default:
			result.Attempts = append(result.Attempts, inventory.Attempt{Source: src.Name(), Outcome: inventory.OutcomeUnavailable, Err: err})
			m.log.Warn(m.log.WithField(ctx, "table", table), "remote store unavailable, falling back", err)
		}
	}

	// seedSource总会返回数据,走到这里说明示例数据本身编码失败
	return result, apperrors.New(apperrors.ErrCodeInternal, "no source could provide table "+table)
}

// Save 保存整个会话
// 调用方持有会话;本地写入失败返回错误,远程失败只写入报告
func (m *Manager) Save(ctx context.Context, s *inventory.Session) (report *inventory.SaveReport, err error) {
	ctx, span := tracing.StartSpan(ctx, "persistence.Save")
	defer func() { tracing.End(span, err) }()

	start := time.Now()
	defer func() { metrics.ObserveHistogram(metrics.PersistDuration, time.Since(start).Seconds()) }()

	// 1. 编码
	inv, err := tabular.EncodeInventory(s.Items())
	if err != nil {
		return nil, err
	}
	hist, err := tabular.EncodeHistory(s.History())
	if err != nil {
		return nil, err
	}
	contents := []struct {
		table string
		data  []byte
	}{
		{inventory.TableInventory, inv},
		{inventory.TableHistory, hist},
	}

	// 2. 本地文件(无条件写入)
	report = &inventory.SaveReport{Status: inventory.StatusLocalOnly}
	for _, c := range contents {
		if err := m.local.Write(m.layout.File(c.table), c.data); err != nil {
			metrics.RecordPersist(c.table, TargetLocal, "failure")
			report.Status = inventory.StatusDegraded
			report.Failures = append(report.Failures, inventory.Failure{Table: c.table, Target: TargetLocal, Err: err})
			m.log.Error(ctx, "local write failed", err)
			return report, err
		}
		metrics.RecordPersist(c.table, TargetLocal, "success")
	}

	if m.remote == nil {
		return report, nil
	}

	// 3. 远程仓库(尽力而为)
	report.Status = inventory.StatusSynced
	for _, c := range contents {
		if err := m.push(ctx, c.table, c.data); err != nil {
			result := "failure"
			if errors.Is(err, blob.ErrConflict) {
				result = "conflict"
			}
			metrics.RecordPersist(c.table, TargetRemote, result)
			report.Status = inventory.StatusDegraded
			report.Failures = append(report.Failures, inventory.Failure{Table: c.table, Target: TargetRemote, Err: err})
			m.log.Warn(m.log.WithField(ctx, "table", c.table), "remote write failed", err)
			continue
		}
		metrics.RecordPersist(c.table, TargetRemote, "success")
	}
	return report, nil
}

// push 写入一张表:存在则按当前版本号更新,不存在则创建
// 版本号过期(ErrConflict)不重新获取,直接报告
func (m *Manager) push(ctx context.Context, table string, data []byte) error {
	path := m.layout.RemotePath(table)

	obj, err := m.remote.Get(ctx, path)
	switch {
	case err == nil:
		_, err = m.remote.Update(ctx, path, data, obj.Version)
		return err
	case errors.Is(err, blob.ErrNotFound):
		_, err = m.remote.Create(ctx, path, data)
		return err
	default:
		return err
	}
}
