package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/pressledger/internal/infrastructure/persistence/blob"
)

// BlobModel 远程文件表
// 设计说明:
// 1. Path是主键,每个数据文件一行
// 2. Version用于乐观锁:更新时 WHERE version = 期望版本,影响行数为0即冲突
type BlobModel struct {
	Path      string    `gorm:"primaryKey;size:255;comment:文件路径"`
	Content   []byte    `gorm:"not null;comment:文件内容(CSV)"`
	Version   int64     `gorm:"not null;default:1;comment:版本号"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BlobModel) TableName() string {
	return "ledger_blobs"
}

// BlobStore 基于SQL数据库的远程仓库
type BlobStore struct {
	db *gorm.DB
}

// NewBlobStore 创建数据库远程仓库
func NewBlobStore(db *gorm.DB) *BlobStore {
	return &BlobStore{db: db}
}

func (s *BlobStore) Get(ctx context.Context, path string) (*blob.Object, error) {
	var m BlobModel
	err := s.db.WithContext(ctx).Where("path = ?", path).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, blob.ErrNotFound
		}
		return nil, fmt.Errorf("读取远程文件失败: %w", err)
	}
	return &blob.Object{Content: m.Content, Version: strconv.FormatInt(m.Version, 10)}, nil
}

func (s *BlobStore) Create(ctx context.Context, path string, content []byte) (string, error) {
	m := BlobModel{Path: path, Content: content, Version: 1}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDuplicateError(err) {
			return "", blob.ErrConflict
		}
		return "", fmt.Errorf("创建远程文件失败: %w", err)
	}
	return "1", nil
}

func (s *BlobStore) Update(ctx context.Context, path string, content []byte, version string) (string, error) {
	expected, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return "", blob.ErrConflict
	}

	result := s.db.WithContext(ctx).
		Model(&BlobModel{}).
		Where("path = ? AND version = ?", path, expected).
		Updates(map[string]interface{}{
			"content":    content,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return "", fmt.Errorf("更新远程文件失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", blob.ErrConflict
	}
	return strconv.FormatInt(expected+1, 10), nil
}
