package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"

	"github.com/yeisme/codevault/pkg/internal/model"
	"github.com/yeisme/codevault/pkg/internal/storage/kv"
)

const (
	kvFilePrefix = "cv.file."
	kvUserPrefix = "cv.user."
	lockStripes  = 64
)

// kvFileRecord KV 中保存的文件记录，Seq 决定列表顺序.
type kvFileRecord struct {
	Seq  int64      `json:"seq"`
	File model.File `json:"file"`
}

// kvUserRecord KV 中保存的用户记录. Credential 在 model.User 上不参与 JSON，这里单独保存.
type kvUserRecord struct {
	Seq        int64      `json:"seq"`
	User       model.User `json:"user"`
	Credential string     `json:"credential"`
}

// KVStore 以 JSON 记录保存在任意 kv.KVStore 中.
//
// 写操作按 id 经 xxhash 分片加锁，比较并设置在锁内完成读改写. 锁只在本进程内生效，
// 多实例共享同一 KV 时兑换的原子性无法保证，应改用 db 后端.
type KVStore struct {
	kv    kv.KVStore
	locks [lockStripes]sync.Mutex
	seq   seqClock
}

var _ Store = (*KVStore)(nil)

// NewKVStore 包装 KV 后端.
func NewKVStore(backend kv.KVStore) *KVStore {
	return &KVStore{kv: backend}
}

func (s *KVStore) lock(id string) func() {
	m := &s.locks[xxhash.Sum64String(id)%lockStripes]
	m.Lock()

	return m.Unlock
}

func (s *KVStore) loadFile(ctx context.Context, id string) (*kvFileRecord, error) {
	raw, err := s.kv.Get(ctx, kvFilePrefix+id)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("kv get file %s: %w", id, err)
	}

	var rec kvFileRecord
	if err := sonic.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode file %s: %w", id, err)
	}

	s.seq.observe(rec.Seq)

	return &rec, nil
}

func (s *KVStore) saveFile(ctx context.Context, rec *kvFileRecord) error {
	raw, err := sonic.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode file %s: %w", rec.File.ID, err)
	}

	if err := s.kv.Set(ctx, kvFilePrefix+rec.File.ID, raw, 0); err != nil {
		return fmt.Errorf("kv set file %s: %w", rec.File.ID, err)
	}

	return nil
}

// ListFiles 读取全部文件记录并按插入序号排序.
func (s *KVStore) ListFiles(ctx context.Context, filter FileFilter) ([]*model.File, error) {
	keys, err := s.kv.Keys(ctx, kvFilePrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("kv list files: %w", err)
	}

	recs := make([]*kvFileRecord, 0, len(keys))

	for _, key := range keys {
		rec, err := s.loadFile(ctx, strings.TrimPrefix(key, kvFilePrefix))
		if errors.Is(err, ErrNotFound) {
			continue // 列举后被并发删除
		}

		if err != nil {
			return nil, err
		}

		if filter.Match(&rec.File) {
			recs = append(recs, rec)
		}
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })

	out := make([]*model.File, 0, len(recs))
	for _, rec := range recs {
		f := rec.File
		out = append(out, &f)
	}

	return out, nil
}

// GetFile 按 id 获取.
func (s *KVStore) GetFile(ctx context.Context, id string) (*model.File, error) {
	rec, err := s.loadFile(ctx, id)
	if err != nil {
		return nil, err
	}

	return &rec.File, nil
}

// PutFile 插入文件.
func (s *KVStore) PutFile(ctx context.Context, file *model.File) error {
	defer s.lock(file.ID)()

	exists, err := s.kv.Exists(ctx, kvFilePrefix+file.ID)
	if err != nil {
		return fmt.Errorf("kv exists file %s: %w", file.ID, err)
	}

	if exists {
		return ErrDuplicateID
	}

	return s.saveFile(ctx, &kvFileRecord{Seq: s.seq.next(), File: *file.Clone()})
}

// DeleteFile 删除文件，幂等.
func (s *KVStore) DeleteFile(ctx context.Context, id string) error {
	defer s.lock(id)()

	if err := s.kv.Delete(ctx, kvFilePrefix+id); err != nil && !errors.Is(err, kv.ErrKeyNotFound) {
		return fmt.Errorf("kv delete file %s: %w", id, err)
	}

	return nil
}

// UpdateFileAccessCodes 替换访问码列表.
func (s *KVStore) UpdateFileAccessCodes(ctx context.Context, id string, codes []model.AccessCode) error {
	defer s.lock(id)()

	return s.updateCodesLocked(ctx, id, func(*kvFileRecord) ([]model.AccessCode, bool) {
		return append([]model.AccessCode(nil), codes...), true
	})
}

// updateCodesLocked 调用方需持有 id 对应的分片锁.
func (s *KVStore) updateCodesLocked(ctx context.Context, id string, fn func(*kvFileRecord) ([]model.AccessCode, bool)) error {
	rec, err := s.loadFile(ctx, id)
	if err != nil {
		return err
	}

	codes, changed := fn(rec)
	if !changed {
		return nil
	}

	rec.File.AccessCodes = codes

	return s.saveFile(ctx, rec)
}

// SetCodeUsedIfUnused 在分片锁内读改写.
func (s *KVStore) SetCodeUsedIfUnused(ctx context.Context, fileID, code string) (bool, error) {
	defer s.lock(fileID)()

	flipped := false

	err := s.updateCodesLocked(ctx, fileID, func(rec *kvFileRecord) ([]model.AccessCode, bool) {
		flipped = rec.File.MarkCodeUsed(code)
		return rec.File.AccessCodes, flipped
	})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return flipped, nil
}

func (s *KVStore) loadUsers(ctx context.Context) ([]*kvUserRecord, error) {
	keys, err := s.kv.Keys(ctx, kvUserPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("kv list users: %w", err)
	}

	recs := make([]*kvUserRecord, 0, len(keys))

	for _, key := range keys {
		raw, err := s.kv.Get(ctx, key)
		if errors.Is(err, kv.ErrKeyNotFound) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("kv get user %s: %w", key, err)
		}

		var rec kvUserRecord
		if err := sonic.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", key, err)
		}

		rec.User.Credential = rec.Credential
		s.seq.observe(rec.Seq)
		recs = append(recs, &rec)
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })

	return recs, nil
}

// ListUsers 返回全部用户.
func (s *KVStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	recs, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*model.User, 0, len(recs))
	for _, rec := range recs {
		u := rec.User
		out = append(out, &u)
	}

	return out, nil
}

// PutUser 插入用户.
func (s *KVStore) PutUser(ctx context.Context, user *model.User) error {
	defer s.lock(kvUserPrefix + user.ID)()

	key := kvUserPrefix + user.ID

	exists, err := s.kv.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("kv exists user %s: %w", user.ID, err)
	}

	if exists {
		return ErrDuplicateID
	}

	raw, err := sonic.Marshal(kvUserRecord{Seq: s.seq.next(), User: *user, Credential: user.Credential})
	if err != nil {
		return fmt.Errorf("encode user %s: %w", user.ID, err)
	}

	if err := s.kv.Set(ctx, key, raw, 0); err != nil {
		return fmt.Errorf("kv set user %s: %w", user.ID, err)
	}

	return nil
}

// FindUser 线性扫描全部用户.
func (s *KVStore) FindUser(ctx context.Context, filter UserFilter) (*model.User, error) {
	recs, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	for _, rec := range recs {
		if filter.Match(&rec.User) {
			u := rec.User
			return &u, nil
		}
	}

	return nil, ErrNotFound
}

// Ping 通过一次读请求检测可用性.
func (s *KVStore) Ping(ctx context.Context) error {
	_, err := s.kv.Exists(ctx, kvFilePrefix+"ping")
	return err
}

// Close KV 连接由存储管理器持有，这里不关闭.
func (s *KVStore) Close() error {
	return nil
}
