// Package blob 远程仓库适配层
//
// 远程仓库以"路径 → 内容+版本号"的方式保存数据文件,写入时需要携带
// 读取时拿到的版本号(乐观锁)。具体后端见persistence/redis、persistence/database。
package blob

import (
	"context"

	apperrors "github.com/xiebiao/pressledger/pkg/errors"
)

// Object 远程文件
type Object struct {
	Content []byte
	Version string // 不透明的版本号,只用于下一次Update
}

// Store 远程仓库接口
type Store interface {
	// Get 读取文件,不存在时返回ErrNotFound
	Get(ctx context.Context, path string) (*Object, error)

	// Create 创建文件,已存在时返回ErrConflict
	Create(ctx context.Context, path string, content []byte) (string, error)

	// Update 按版本号覆盖文件,版本号不匹配(或文件不存在)时返回ErrConflict
	Update(ctx context.Context, path string, content []byte, version string) (string, error)
}

var (
	// ErrNotFound 远程文件不存在
	ErrNotFound = apperrors.New(apperrors.ErrCodeBlobNotFound, "远程文件不存在")

	// ErrConflict 远程文件版本冲突
	ErrConflict = apperrors.New(apperrors.ErrCodeRemoteConflict, "远程文件已被修改")

	// ErrUnavailable 远程仓库不可用(网络错误、超时、熔断)
	ErrUnavailable = apperrors.New(apperrors.ErrCodeRemoteUnavailable, "远程仓库不可用")
)
