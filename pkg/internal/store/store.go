// Package store 定义文件与用户记录的持久化边界，以及可替换的后端实现.
//
// 后端:
//   - MemoryStore: 进程内存储，迭代顺序即插入顺序
//   - GormStore:   关系型数据库（postgres / mysql / sqlite），访问码单独成表并建索引
//   - KVStore:     任意 kv.KVStore（memory / redis / nats / groupcache），记录以 JSON 保存
//   - CachedStore: 装饰器，GetFile 读穿缓存
//
// 所有实现都必须满足 SetCodeUsedIfUnused 的比较并设置语义：
// 并发兑换同一访问码时只有一个调用方得到 true.
package store

import (
	"context"
	"errors"

	"github.com/yeisme/codevault/pkg/internal/model"
)

var (
	// ErrNotFound 记录不存在.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicateID 插入的 id 已存在.
	ErrDuplicateID = errors.New("store: duplicate id")
)

// FileFilter 文件精确匹配过滤条件，零值字段不参与过滤.
type FileFilter struct {
	OwnerID string
}

// Match 判断文件是否满足过滤条件.
func (f FileFilter) Match(file *model.File) bool {
	return f.OwnerID == "" || file.OwnerID == f.OwnerID
}

// UserFilter 用户精确匹配过滤条件，零值字段不参与过滤.
type UserFilter struct {
	ID             string
	Email          string
	Provider       string
	ProviderUserID string
}

// IsZero 没有任何条件.
func (f UserFilter) IsZero() bool {
	return f == UserFilter{}
}

// Match 判断用户是否满足过滤条件.
func (f UserFilter) Match(u *model.User) bool {
	return (f.ID == "" || u.ID == f.ID) &&
		(f.Email == "" || u.Email == f.Email) &&
		(f.Provider == "" || u.Provider == f.Provider) &&
		(f.ProviderUserID == "" || u.ProviderUserID == f.ProviderUserID)
}

// Store 持久化边界. 每个操作都可能阻塞，调用方通过 ctx 控制超时.
type Store interface {
	// ListFiles 返回满足过滤条件的文件，顺序为后端迭代顺序.
	ListFiles(ctx context.Context, filter FileFilter) ([]*model.File, error)
	// GetFile 按 id 获取文件，不存在返回 ErrNotFound.
	GetFile(ctx context.Context, id string) (*model.File, error)
	// PutFile 插入文件，id 已存在返回 ErrDuplicateID.
	PutFile(ctx context.Context, file *model.File) error
	// DeleteFile 删除文件，幂等.
	DeleteFile(ctx context.Context, id string) error
	// UpdateFileAccessCodes 整体替换访问码列表，文件不存在返回 ErrNotFound.
	UpdateFileAccessCodes(ctx context.Context, id string, codes []model.AccessCode) error
	// SetCodeUsedIfUnused 当且仅当 code 存在且未使用时将其标记为已使用并返回 true.
	SetCodeUsedIfUnused(ctx context.Context, fileID, code string) (bool, error)

	// ListUsers 返回全部用户.
	ListUsers(ctx context.Context) ([]*model.User, error)
	// PutUser 插入用户，id 已存在返回 ErrDuplicateID.
	PutUser(ctx context.Context, user *model.User) error
	// FindUser 返回第一个满足过滤条件的用户，不存在返回 ErrNotFound.
	FindUser(ctx context.Context, filter UserFilter) (*model.User, error)

	// Close 释放后端资源.
	Close() error
}

// CodeFinder 可选能力：按未使用访问码直接定位候选文件（借助索引），返回顺序与 ListFiles 一致.
type CodeFinder interface {
	FindFilesByUnusedCode(ctx context.Context, code string) ([]*model.File, error)
}

// Pinger 可选能力：健康检查.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Stats 存储统计.
type Stats struct {
	Files       int `json:"files"`
	Owners      int `json:"owners"`
	Users       int `json:"users"`
	UnusedCodes int `json:"unused_codes"`
	UsedCodes   int `json:"used_codes"`
}

// Collect 通过 Store 接口统计记录数量，适用于任意后端.
func Collect(ctx context.Context, s Store) (Stats, error) {
	files, err := s.ListFiles(ctx, FileFilter{})
	if err != nil {
		return Stats{}, err
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		return Stats{}, err
	}

	owners := make(map[string]struct{})
	st := Stats{Files: len(files), Users: len(users)}

	for _, f := range files {
		owners[f.OwnerID] = struct{}{}
		unused := f.UnusedCodes()
		st.UnusedCodes += unused
		st.UsedCodes += len(f.AccessCodes) - unused
	}

	st.Owners = len(owners)

	return st, nil
}
