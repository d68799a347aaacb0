package redis

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/pressledger/internal/infrastructure/persistence/blob"
)

//go:embed blob_create.lua
var createLua string

//go:embed blob_update.lua
var updateLua string

var (
	createScript = redis.NewScript(createLua)
	updateScript = redis.NewScript(updateLua)
)

// BlobStore 基于Redis的远程仓库
//
// Key设计:{prefix}:blob:{path} → Hash{content, version}
// 创建和更新都在Lua脚本中完成"检查版本 + 写入",保证原子性
type BlobStore struct {
	client redis.UniversalClient
	prefix string
}

// NewBlobStore 创建Redis远程仓库
func NewBlobStore(client redis.UniversalClient, prefix string) *BlobStore {
	return &BlobStore{client: client, prefix: prefix}
}

// LoadScripts 预加载Lua脚本
// 之后的调用走EVALSHA;未预加载时Script.Run会自动回退到EVAL
func (s *BlobStore) LoadScripts(ctx context.Context) error {
	if err := createScript.Load(ctx, s.client).Err(); err != nil {
		return fmt.Errorf("加载创建脚本失败: %w", err)
	}
	if err := updateScript.Load(ctx, s.client).Err(); err != nil {
		return fmt.Errorf("加载更新脚本失败: %w", err)
	}
	return nil
}

func (s *BlobStore) key(path string) string {
	return fmt.Sprintf("%s:blob:%s", s.prefix, path)
}

func (s *BlobStore) Get(ctx context.Context, path string) (*blob.Object, error) {
	fields, err := s.client.HGetAll(ctx, s.key(path)).Result()
	if err != nil {
		return nil, fmt.Errorf("读取远程文件失败: %w", err)
	}
	if len(fields) == 0 {
		return nil, blob.ErrNotFound
	}
	return &blob.Object{
		Content: []byte(fields["content"]),
		Version: fields["version"],
	}, nil
}

func (s *BlobStore) Create(ctx context.Context, path string, content []byte) (string, error) {
	n, err := createScript.Run(ctx, s.client, []string{s.key(path)}, content).Int64()
	if err != nil {
		return "", fmt.Errorf("创建远程文件失败: %w", err)
	}
	if n < 0 {
		return "", blob.ErrConflict
	}
	return strconv.FormatInt(n, 10), nil
}

func (s *BlobStore) Update(ctx context.Context, path string, content []byte, version string) (string, error) {
	n, err := updateScript.Run(ctx, s.client, []string{s.key(path)}, content, version).Int64()
	if err != nil {
		return "", fmt.Errorf("更新远程文件失败: %w", err)
	}
	if n < 0 {
		return "", blob.ErrConflict
	}
	return strconv.FormatInt(n, 10), nil
}
