package service_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/codevault/pkg/configs"
	ctxPkg "github.com/yeisme/codevault/pkg/context"
	"github.com/yeisme/codevault/pkg/internal/model"
	"github.com/yeisme/codevault/pkg/internal/service"
	"github.com/yeisme/codevault/pkg/internal/storage"
	"github.com/yeisme/codevault/pkg/internal/storage/kv"
	"github.com/yeisme/codevault/pkg/internal/store"
)

// fastAuth 降低 bcrypt 成本以加快测试.
var fastAuth = configs.AuthConfig{BcryptCost: 4, TokenSecret: "test-secret"}

// newContext 返回携带内存 Store 的 context.
func newContext(t *testing.T) (context.Context, store.Store) {
	t.Helper()

	s := store.NewMemoryStore()

	return ctxPkg.WithStorageManager(context.Background(), storage.NewWithStore(s)), s
}

// backends 返回需要满足同样业务语义的 Store 后端.
func backends(t *testing.T) map[string]store.Store {
	t.Helper()

	mem, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	return map[string]store.Store{
		"memory": store.NewMemoryStore(),
		"kv":     store.NewKVStore(mem),
	}
}

func seedUser(t *testing.T, s store.Store, id string) {
	t.Helper()

	require.NoError(t, s.PutUser(context.Background(), &model.User{ID: id, Email: id + "@example.com"}))
}

func upload(t *testing.T, ctx context.Context, svc *service.FileService, owner string, codes ...string) *model.File {
	t.Helper()

	f, err := svc.CreateFile(ctx, service.CreateFileInput{
		OwnerID:  owner,
		Name:     "notes.txt",
		MimeType: "text/plain",
		Content:  []byte("hello"),
		Codes:    codes,
	})
	require.NoError(t, err)

	return f
}

// fakeBlobs 内存对象存储.
type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}, types: map[string]string{}}
}

func (b *fakeBlobs) PutContent(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[key] = buf.Bytes()
	b.types[key] = contentType

	return nil
}

func (b *fakeBlobs) RemoveContent(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, key)

	return nil
}

func (b *fakeBlobs) PresignGet(_ context.Context, key, filename string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://blobs.test/%s?filename=%s&ttl=%d", key, filename, int(ttl.Seconds())), nil
}

func (b *fakeBlobs) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.objects[key]

	return ok
}

// mockStore 可编排失败的 Store.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListFiles(ctx context.Context, filter store.FileFilter) ([]*model.File, error) {
	args := m.Called(ctx, filter)
	files, _ := args.Get(0).([]*model.File)

	return files, args.Error(1)
}

func (m *mockStore) GetFile(ctx context.Context, id string) (*model.File, error) {
	args := m.Called(ctx, id)
	f, _ := args.Get(0).(*model.File)

	return f, args.Error(1)
}

func (m *mockStore) PutFile(ctx context.Context, file *model.File) error {
	return m.Called(ctx, file).Error(0)
}

func (m *mockStore) DeleteFile(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) UpdateFileAccessCodes(ctx context.Context, id string, codes []model.AccessCode) error {
	return m.Called(ctx, id, codes).Error(0)
}

func (m *mockStore) SetCodeUsedIfUnused(ctx context.Context, fileID, code string) (bool, error) {
	args := m.Called(ctx, fileID, code)

	return args.Bool(0), args.Error(1)
}

func (m *mockStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*model.User)

	return users, args.Error(1)
}

func (m *mockStore) PutUser(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockStore) FindUser(ctx context.Context, filter store.UserFilter) (*model.User, error) {
	args := m.Called(ctx, filter)
	u, _ := args.Get(0).(*model.User)

	return u, args.Error(1)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
