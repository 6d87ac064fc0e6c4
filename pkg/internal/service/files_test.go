package service_test

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/codevault/pkg/configs"
	"github.com/yeisme/codevault/pkg/internal/model"
	"github.com/yeisme/codevault/pkg/internal/service"
	"github.com/yeisme/codevault/pkg/internal/store"
)

func TestCreateFileAssignsFields(t *testing.T) {
	ctx, st := newContext(t)
	seedUser(t, st, "usr_a")

	f := upload(t, ctx, service.NewFileService(ctx), "usr_a", "A1", "A2")

	assert.True(t, strings.HasPrefix(f.ID, service.FileIDPrefix))
	assert.Equal(t, "notes.txt", f.Name)
	assert.Equal(t, "5 B", f.Size)
	assert.Equal(t, "text/plain", f.Type)
	assert.Equal(t, "usr_a", f.OwnerID)
	assert.Equal(t, "data:text/plain;base64,"+base64.StdEncoding.EncodeToString([]byte("hello")), f.Content)
	assert.NotEmpty(t, f.UploadDate)
	assert.Equal(t, []model.AccessCode{{Code: "A1"}, {Code: "A2"}}, f.AccessCodes)
}

func TestCreateFileSniffsMimeType(t *testing.T) {
	ctx, st := newContext(t)
	seedUser(t, st, "usr_a")

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

	f, err := service.NewFileService(ctx).CreateFile(ctx, service.CreateFileInput{
		OwnerID: "usr_a", Name: "pixel.png", Content: png, Codes: []string{"P1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.Type)
	assert.True(t, strings.HasPrefix(f.Content, "data:image/png;base64,"))
}

func TestCreateFileCodeValidation(t *testing.T) {
	ctx, st := newContext(t)
	seedUser(t, st, "usr_a")

	svc := service.NewFileService(ctx)

	cases := map[string][]string{
		"duplicate":  {"A", "A"},
		"empty":      {"A", ""},
		"whitespace": {"   "},
		"none":       nil,
		"too many":   {"A", "B", "C", "D"},
	}

	for name, codes := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateFile(ctx, service.CreateFileInput{
				OwnerID: "usr_a", Name: "a.txt", Content: []byte("x"), Codes: codes,
			})
			assert.ErrorIs(t, err, service.ErrInvalidAccessCodes)
		})
	}

	files, err := svc.ListFiles(ctx, "usr_a")
	require.NoError(t, err)
	assert.Empty(t, files)

	upload(t, ctx, svc, "usr_a", "only")
}

func TestCreateFileRequiresKnownOwner(t *testing.T) {
	ctx, _ := newContext(t)
	svc := service.NewFileService(ctx)

	_, err := svc.CreateFile(ctx, service.CreateFileInput{Name: "a", Content: []byte("x"), Codes: []string{"A"}})
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = svc.CreateFile(ctx, service.CreateFileInput{OwnerID: "usr_ghost", Name: "a", Content: []byte("x"), Codes: []string{"A"}})
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestCreateFileSizeLimit(t *testing.T) {
	ctx, st := newContext(t)
	seedUser(t, st, "usr_a")

	svc := service.NewFileService(ctx, service.WithShareConfig(configs.ShareConfig{MaxUploadMB: 1}))

	_, err := svc.CreateFile(ctx, service.CreateFileInput{
		OwnerID: "usr_a", Name: "big.bin", Content: make([]byte, 1<<20+1), Codes: []string{"A"},
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestQuota(t *testing.T) {
	ctx, st := newContext(t)
	seedUser(t, st, "usr_a")

	svc := service.NewFileService(ctx)

	var last *model.File
	for i := 0; i < configs.DefaultMaxFilesPerOwner-1; i++ {
		last = upload(t, ctx, svc, "usr_a", "c")
	}

	// 14 个时仍可上传，之后达到 15
	upload(t, ctx, svc, "usr_a", "c")

	files, err := svc.ListFiles(ctx, "usr_a")
	require.NoError(t, err)
	assert.Len(t, files, configs.DefaultMaxFilesPerOwner)

	_, err = svc.CreateFile(ctx, service.CreateFileInput{OwnerID: "usr_a", Name: "16", Content: []byte("x"), Codes: []string{"c"}})
	assert.ErrorIs(t, err, service.ErrQuotaExceeded)

	_, err = svc.CreateLink(ctx, service.CreateLinkInput{OwnerID: "usr_a", Name: "16", URL: "https://example.com", Codes: []string{"c"}})
	assert.ErrorIs(t, err, service.ErrQuotaExceeded)

	require.NoError(t, svc.DeleteFile(ctx, "usr_a", last.ID))

	upload(t, ctx, svc, "usr_a", "c")
}

func TestQuotaIsPerOwner(t *testing.T) {
	ctx, st := newContext(t)
	seedUser(t, st, "usr_a")
	seedUser(t, st, "usr_b")

	svc := service.NewFileService(ctx, service.WithShareConfig(configs.ShareConfig{MaxFilesPerOwner: 1}))

	upload(t, ctx, svc, "usr_a", "c")
	upload(t, ctx, svc, "usr_b", "c")
}

func TestOwnershipIsolation(t *testing.T) {
	ctx, st := newContext(t)
	seedUser(t, st, "usr_a")
	seedUser(t, st, "usr_b")

	svc := service.NewFileService(ctx)
	fa := upload(t, ctx, svc, "usr_a", "a")
	fb := upload(t, ctx, svc, "usr_b", "b")

	files, err := svc.ListFiles(ctx, "usr_a")
	require.NoError(t, err)

	for _, f := range files {
		assert.Equal(t, "usr_a", f.OwnerID)
	}

	assert.Len(t, files, 1)

	_, err = svc.GetFile(ctx, "usr_a", fb.ID)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	assert.ErrorIs(t, svc.DeleteFile(ctx, "usr_b", fa.ID), service.ErrUnauthorized)

	got, err := svc.GetFile(ctx, "usr_a", fa.ID)
	require.NoError(t, err)
	assert.Equal(t, fa.ID, got.ID)

	_, err = svc.GetFile(ctx, "usr_a", "fl_missing")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.ListFiles(ctx, "")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx, st := newContext(t)
	seedUser(t, st, "usr_a")

	svc := service.NewFileService(ctx)
	upload(t, ctx, svc, "usr_a", "a")

	before, err := st.ListFiles(ctx, store.FileFilter{})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFile(ctx, "usr_a", "fl_does_not_exist"))

	after, err := st.ListFiles(ctx, store.FileFilter{})
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCreateLink(t *testing.T) {
	ctx, st := newContext(t)
	seedUser(t, st, "usr_a")

	svc := service.NewFileService(ctx)

	f, err := svc.CreateLink(ctx, service.CreateLinkInput{
		OwnerID: "usr_a", Name: "Report", URL: "https://example.com/report.pdf", Codes: []string{"L1", "", "L2"},
	})
	require.NoError(t, err)

	assert.True(t, f.IsLink())
	assert.Equal(t, model.SizeLink, f.Size)
	assert.Equal(t, "https://example.com/report.pdf", f.Content)
	assert.Equal(t, []model.AccessCode{{Code: "L1"}, {Code: "L2"}}, f.AccessCodes)

	content, err := svc.ResolveContent(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, f.Content, content)

	_, err = svc.CreateLink(ctx, service.CreateLinkInput{OwnerID: "usr_a", Name: "x", URL: "not a url", Codes: []string{"a"}})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = svc.CreateLink(ctx, service.CreateLinkInput{OwnerID: "usr_a", Name: "x", URL: "https://example.com", Codes: []string{"", " "}})
	assert.ErrorIs(t, err, service.ErrInvalidAccessCodes)

	_, err = svc.CreateLink(ctx, service.CreateLinkInput{OwnerID: "usr_a", URL: "https://example.com", Codes: []string{"a"}})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestCodesMustBeAlphanumeric(t *testing.T) {
	ctx, st := newContext(t)
	seedUser(t, st, "usr_a")

	svc := service.NewFileService(ctx)

	for _, code := range []string{"bad code", "ab-cd", "x/y", "码1", strings.Repeat("a", 65)} {
		_, err := svc.CreateFile(ctx, service.CreateFileInput{OwnerID: "usr_a", Name: "a", Content: []byte("x"), Codes: []string{code}})
		assert.ErrorIs(t, err, service.ErrInvalidAccessCodes, code)

		_, err = svc.CreateLink(ctx, service.CreateLinkInput{OwnerID: "usr_a", Name: "a", URL: "https://example.com", Codes: []string{code}})
		assert.ErrorIs(t, err, service.ErrInvalidAccessCodes, code)
	}

	f, err := svc.CreateFile(ctx, service.CreateFileInput{OwnerID: "usr_a", Name: "a", Content: []byte("x"), Codes: []string{" Ab12 "}})
	require.NoError(t, err)
	assert.Equal(t, []model.AccessCode{{Code: "Ab12"}}, f.AccessCodes)
}

func TestObjectStorageContent(t *testing.T) {
	ctx, st := newContext(t)
	seedUser(t, st, "usr_a")

	blobs := newFakeBlobs()
	svc := service.NewFileService(ctx,
		service.WithBlobStore(blobs),
		service.WithShareConfig(configs.ShareConfig{ContentBackend: configs.ContentBackendS3}))

	f := upload(t, ctx, svc, "usr_a", "S1")

	assert.Empty(t, f.Content)
	assert.Equal(t, "usr_a/"+f.ID, f.StorageKey)
	assert.True(t, blobs.has(f.StorageKey))

	u, err := svc.ResolveContent(ctx, f)
	require.NoError(t, err)
	assert.Contains(t, u, f.StorageKey)
	assert.Contains(t, u, "ttl=900")

	require.NoError(t, svc.DeleteFile(ctx, "usr_a", f.ID))
	assert.False(t, blobs.has(f.StorageKey))
}

func TestObjectStorageMissing(t *testing.T) {
	ctx, st := newContext(t)
	seedUser(t, st, "usr_a")

	svc := service.NewFileService(ctx,
		service.WithShareConfig(configs.ShareConfig{ContentBackend: configs.ContentBackendS3}))

	_, err := svc.CreateFile(ctx, service.CreateFileInput{OwnerID: "usr_a", Name: "a", Content: []byte("x"), Codes: []string{"A"}})
	assert.ErrorIs(t, err, service.ErrStoreUnavailable)
}

func TestGenerateCodes(t *testing.T) {
	svc := service.NewFileService(context.Background())

	codes, err := svc.GenerateCodes(3)
	require.NoError(t, err)
	require.Len(t, codes, 3)

	seen := map[string]bool{}

	for _, c := range codes {
		assert.Len(t, c, configs.DefaultCodeLength)
		assert.Regexp(t, "^[A-Za-z0-9]+$", c)
		assert.False(t, seen[c])
		seen[c] = true
	}

	_, err = svc.GenerateCodes(0)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = svc.GenerateCodes(configs.DefaultMaxCodesPerFile + 1)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
