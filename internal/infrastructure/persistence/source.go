package persistence

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/pressledger/internal/domain/inventory"
	"github.com/xiebiao/pressledger/internal/infrastructure/persistence/blob"
	"github.com/xiebiao/pressledger/internal/infrastructure/persistence/localfile"
	"github.com/xiebiao/pressledger/internal/infrastructure/persistence/tabular"
)

// 数据源名称
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
	SourceSeed   = "seed"
)

// errAbsent 数据源中没有这张表
var errAbsent = errors.New("table absent")

// source 按优先级排列的数据源
type source interface {
	Name() string
	// Read 读取表的原始内容,不存在时返回errAbsent
	Read(ctx context.Context, table string) ([]byte, error)
	// Fatal 该数据源的读取/解析失败是否终止加载
	Fatal() bool
}

// remoteSource 远程仓库
type remoteSource struct {
	store  blob.Store
	layout Layout
}

func (s *remoteSource) Name() string { return SourceRemote }
func (s *remoteSource) Fatal() bool  { return false }

func (s *remoteSource) Read(ctx context.Context, table string) ([]byte, error) {
	obj, err := s.store.Get(ctx, s.layout.RemotePath(table))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, errAbsent
		}
		return nil, err
	}
	return obj.Content, nil
}

// localSource 本地文件
type localSource struct {
	store  *localfile.Store
	layout Layout
}

func (s *localSource) Name() string { return SourceLocal }
func (s *localSource) Fatal() bool  { return true }

func (s *localSource) Read(_ context.Context, table string) ([]byte, error) {
	data, err := s.store.Read(s.layout.File(table))
	if err != nil {
		if errors.Is(err, localfile.ErrNotExist) {
			return nil, errAbsent
		}
		return nil, err
	}
	return data, nil
}

// seedSource 内置示例数据,总是可用
type seedSource struct{}

func (seedSource) Name() string { return SourceSeed }
func (seedSource) Fatal() bool  { return true }

func (seedSource) Read(_ context.Context, table string) ([]byte, error) {
	if table == inventory.TableInventory {
		return tabular.EncodeInventory(SeedInventory())
	}
	return tabular.EncodeHistory(inventory.NewLog())
}

// SeedInventory 首次使用时的示例库存
func SeedInventory() *inventory.Table {
	return inventory.NewTable(
		inventory.NewItem("인하의 역사", decimal.NewFromInt(15000), "979-11-87", 50, 10),
		inventory.NewItem("파이썬 정복", decimal.NewFromInt(25000), "979-11-99", 5, 10),
	)
}
