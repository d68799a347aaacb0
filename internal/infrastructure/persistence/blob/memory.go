package blob

import (
	"context"
	"strconv"
	"sync"
)

// MemoryStore 内存远程仓库
// 用于本地开发(remote.backend=memory)和测试
type MemoryStore struct {
	mu    sync.Mutex
	files map[string]memoryFile
}

type memoryFile struct {
	content []byte
	version int64
}

// NewMemoryStore 创建内存仓库
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string]memoryFile)}
}

func (m *MemoryStore) Get(_ context.Context, path string) (*Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[path]
	if !ok {
		return nil, ErrNotFound
	}
	return &Object{Content: clone(f.content), Version: strconv.FormatInt(f.version, 10)}, nil
}

func (m *MemoryStore) Create(_ context.Context, path string, content []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[path]; ok {
		return "", ErrConflict
	}
	m.files[path] = memoryFile{content: clone(content), version: 1}
	return "1", nil
}

func (m *MemoryStore) Update(_ context.Context, path string, content []byte, version string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[path]
	if !ok || strconv.FormatInt(f.version, 10) != version {
		return "", ErrConflict
	}
	f.version++
	f.content = clone(content)
	m.files[path] = f
	return strconv.FormatInt(f.version, 10), nil
}

// Put 直接写入(模拟外部修改)
func (m *MemoryStore) Put(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.files[path]
	f.version++
	f.content = clone(content)
	m.files[path] = f
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
