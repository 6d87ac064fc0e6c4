package store

import (
	"context"
	"sync"

	"github.com/yeisme/codevault/pkg/internal/model"
)

// MemoryStore 进程内存储，迭代顺序即插入顺序. 读写均返回副本.
type MemoryStore struct {
	mu    sync.RWMutex
	files []*model.File
	index map[string]int
	users []*model.User
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore 创建空的内存存储.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[string]int)}
}

// ListFiles 按插入顺序返回匹配的文件.
func (m *MemoryStore) ListFiles(ctx context.Context, filter FileFilter) ([]*model.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.File, 0, len(m.files))
	for _, f := range m.files {
		if filter.Match(f) {
			out = append(out, f.Clone())
		}
	}

	return out, nil
}

// GetFile 按 id 获取.
func (m *MemoryStore) GetFile(ctx context.Context, id string) (*model.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.index[id]
	if !ok {
		return nil, ErrNotFound
	}

	return m.files[i].Clone(), nil
}

// PutFile 追加文件.
func (m *MemoryStore) PutFile(ctx context.Context, file *model.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[file.ID]; ok {
		return ErrDuplicateID
	}

	m.index[file.ID] = len(m.files)
	m.files = append(m.files, file.Clone())

	return nil
}

// DeleteFile 删除文件并重建下标，保持剩余文件的相对顺序.
func (m *MemoryStore) DeleteFile(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return nil
	}

	m.files = append(m.files[:i], m.files[i+1:]...)
	delete(m.index, id)

	for j := i; j < len(m.files); j++ {
		m.index[m.files[j].ID] = j
	}

	return nil
}

// UpdateFileAccessCodes 替换访问码列表.
func (m *MemoryStore) UpdateFileAccessCodes(ctx context.Context, id string, codes []model.AccessCode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return ErrNotFound
	}

	m.files[i].AccessCodes = append([]model.AccessCode(nil), codes...)

	return nil
}

// SetCodeUsedIfUnused 在写锁内完成检查与更新.
func (m *MemoryStore) SetCodeUsedIfUnused(ctx context.Context, fileID, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[fileID]
	if !ok {
		return false, nil
	}

	return m.files[i].MarkCodeUsed(code), nil
}

// ListUsers 返回全部用户.
func (m *MemoryStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		c := *u
		out = append(out, &c)
	}

	return out, nil
}

// PutUser 追加用户.
func (m *MemoryStore) PutUser(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.ID == user.ID {
			return ErrDuplicateID
		}
	}

	c := *user
	m.users = append(m.users, &c)

	return nil
}

// FindUser 线性查找.
func (m *MemoryStore) FindUser(ctx context.Context, filter UserFilter) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if filter.Match(u) {
			c := *u
			return &c, nil
		}
	}

	return nil, ErrNotFound
}

// Ping 内存存储始终可用.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close 无操作.
func (m *MemoryStore) Close() error {
	return nil
}
