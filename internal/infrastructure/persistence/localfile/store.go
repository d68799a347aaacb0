// Package localfile 本地文件存储
//
// 基于afero文件系统抽象:生产环境使用OsFs,测试使用MemMapFs。
package localfile

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	apperrors "github.com/xiebiao/pressledger/pkg/errors"
)

// ErrNotExist 文件不存在
var ErrNotExist = errors.New("local file does not exist")

// Store 本地文件存储
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore 创建本地文件存储
func NewStore(fs afero.Fs, dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{fs: fs, dir: dir}
}

// NewOsStore 使用真实文件系统
func NewOsStore(dir string) *Store {
	return NewStore(afero.NewOsFs(), dir)
}

// Path 文件完整路径
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Read 读取文件
// 文件不存在时返回ErrNotExist,其他读取失败原样包装返回
func (s *Store) Read(name string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, apperrors.ErrStorageError.WithCause(err)
	}
	return data, nil
}

// Write 原子写入:先写临时文件,再重命名覆盖
// 写入中途失败不会留下半截文件
func (s *Store) Write(name string, data []byte) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return apperrors.ErrStorageError.WithCause(err)
	}

	tmp, err := afero.TempFile(s.fs, s.dir, "."+name+".tmp-*")
	if err != nil {
		return apperrors.ErrStorageError.WithCause(err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return apperrors.ErrStorageError.WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return apperrors.ErrStorageError.WithCause(err)
	}
	if err := s.fs.Rename(tmpName, s.Path(name)); err != nil {
		_ = s.fs.Remove(tmpName)
		return apperrors.ErrStorageError.WithCause(err)
	}
	return nil
}
