package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/yeisme/codevault/pkg/configs"
	"github.com/yeisme/codevault/pkg/internal/model"
	"github.com/yeisme/codevault/pkg/internal/store"
	nlog "github.com/yeisme/codevault/pkg/log"
	"github.com/yeisme/codevault/pkg/metrics"
	"github.com/yeisme/codevault/pkg/rule"
	"github.com/yeisme/codevault/pkg/tracing"
)

const (
	kindFile = "file"
	kindLink = "link"
)

// FileService 负责分享的创建、查看与删除，不处理 HTTP 细节.
type FileService struct {
	options
}

// NewFileService 从 context 获取 Store、对象存储与事件发布器.
func NewFileService(c context.Context, opts ...Option) *FileService {
	return &FileService{options: newOptions(c, opts...)}
}

// CreateFileInput 上传参数. MimeType 为空时按内容探测.
type CreateFileInput struct {
	OwnerID  string
	Name     string
	MimeType string
	Content  []byte
	Codes    []string
}

// CreateFile 上传文件并设置访问码.
func (s *FileService) CreateFile(ctx context.Context, in CreateFileInput) (*model.File, error) {
	ctx, span := tracing.StartSpan(ctx, "service.CreateFile")
	defer span.End()

	f, err := s.createFile(ctx, in)
	countUpload(kindFile, err)

	return f, err
}

func (s *FileService) createFile(ctx context.Context, in CreateFileInput) (*model.File, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidInput("file name is required")
	}

	if int64(len(in.Content)) > s.share.MaxUploadBytes() {
		return nil, invalidInput("file exceeds %s", humanize.IBytes(uint64(s.share.MaxUploadBytes())))
	}

	codes, err := validateCodes(in.Codes, s.share.MaxCodesPerFile)
	if err != nil {
		return nil, err
	}

	if err := s.checkOwnerAndQuota(ctx, in.OwnerID); err != nil {
		return nil, err
	}

	mimeType := strings.TrimSpace(in.MimeType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimetype.Detect(in.Content).String()
	}

	f := &model.File{
		ID:          newID(FileIDPrefix),
		Name:        name,
		UploadDate:  time.Now().UTC().Format(time.RFC3339),
		Size:        humanize.IBytes(uint64(len(in.Content))),
		AccessCodes: codes,
		Type:        mimeType,
		OwnerID:     in.OwnerID,
	}

	if s.share.ContentBackend == configs.ContentBackendS3 {
		if s.blobs == nil {
			return nil, unavailable("put content", errors.New("object storage not configured"))
		}

		f.StorageKey = objectKey(in.OwnerID, f.ID)
		if err := s.blobs.PutContent(ctx, f.StorageKey, bytes.NewReader(in.Content), int64(len(in.Content)), mimeType); err != nil {
			return nil, unavailable("put content", err)
		}
	} else {
		f.Content = dataURL(mimeType, in.Content)
	}

	if err := s.put(ctx, f); err != nil {
		if f.StorageKey != "" {
			s.removeBlob(ctx, f.StorageKey)
		}

		return nil, err
	}

	nlog.FromContext(ctx).Info().
		Str("file_id", f.ID).
		Str("owner", f.OwnerID).
		Str("type", f.Type).
		Str("size", f.Size).
		Msg("file uploaded")

	s.events.FileUploaded(ctx, f)

	return f, nil
}

// CreateLinkInput 链接分享参数.
type CreateLinkInput struct {
	OwnerID string
	Name    string
	URL     string
	Codes   []string
}

// CreateLink 创建链接分享. 空白访问码槽位被忽略，至少保留一个.
func (s *FileService) CreateLink(ctx context.Context, in CreateLinkInput) (*model.File, error) {
	ctx, span := tracing.StartSpan(ctx, "service.CreateLink")
	defer span.End()

	f, err := s.createLink(ctx, in)
	countUpload(kindLink, err)

	return f, err
}

func (s *FileService) createLink(ctx context.Context, in CreateLinkInput) (*model.File, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidInput("link name is required")
	}

	raw := strings.TrimSpace(in.URL)

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, invalidInput("link must be an absolute URL")
	}

	kept := make([]string, 0, len(in.Codes))

	for _, c := range in.Codes {
		if strings.TrimSpace(c) != "" {
			kept = append(kept, c)
		}
	}

	codes, err := validateCodes(kept, s.share.MaxCodesPerFile)
	if err != nil {
		return nil, err
	}

	if err := s.checkOwnerAndQuota(ctx, in.OwnerID); err != nil {
		return nil, err
	}

	f := &model.File{
		ID:          newID(FileIDPrefix),
		Name:        name,
		UploadDate:  time.Now().UTC().Format(time.RFC3339),
		Size:        model.SizeLink,
		AccessCodes: codes,
		Content:     raw,
		Type:        model.TypeLink,
		OwnerID:     in.OwnerID,
	}

	if err := s.put(ctx, f); err != nil {
		return nil, err
	}

	nlog.FromContext(ctx).Info().Str("file_id", f.ID).Str("owner", f.OwnerID).Msg("link shared")

	s.events.FileUploaded(ctx, f)

	return f, nil
}

// ListFiles 返回拥有者的全部分享.
func (s *FileService) ListFiles(ctx context.Context, ownerID string) ([]*model.File, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	var files []*model.File

	err := s.call(ctx, "list files", func(ctx context.Context) error {
		var e error

		files, e = s.store.ListFiles(ctx, store.FileFilter{OwnerID: ownerID})

		return e
	})

	return files, err
}

// GetFile 拥有者视角查看文件.
func (s *FileService) GetFile(ctx context.Context, ownerID, id string) (*model.File, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	f, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if f.OwnerID != ownerID {
		return nil, ErrUnauthorized
	}

	return f, nil
}

// DeleteFile 删除拥有者的文件；文件不存在时视为成功.
func (s *FileService) DeleteFile(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return ErrUnauthorized
	}

	f, err := s.get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}

	if err != nil {
		return err
	}

	if f.OwnerID != ownerID {
		return ErrUnauthorized
	}

	if err := s.call(ctx, "delete file", func(ctx context.Context) error {
		return s.store.DeleteFile(ctx, id)
	}); err != nil {
		return err
	}

	if f.StorageKey != "" {
		s.removeBlob(ctx, f.StorageKey)
	}

	nlog.FromContext(ctx).Info().Str("file_id", id).Str("owner", ownerID).Msg("file deleted")

	s.events.FileDeleted(ctx, f)

	return nil
}

// GenerateCodes 生成 n 个随机访问码，n 不超过单文件访问码上限.
func (s *FileService) GenerateCodes(n int) ([]string, error) {
	if n <= 0 || n > s.share.MaxCodesPerFile {
		return nil, invalidInput("code count must be between 1 and %d", s.share.MaxCodesPerFile)
	}

	return GenerateCodes(n, s.share.CodeLength)
}

// ResolveContent 返回可直接访问的内容地址：内嵌内容原样返回，对象存储内容返回预签名 URL.
func (s *FileService) ResolveContent(ctx context.Context, f *model.File) (string, error) {
	if f.StorageKey == "" {
		return f.Content, nil
	}

	if s.blobs == nil {
		return "", unavailable("presign", errors.New("object storage not configured"))
	}

	u, err := s.blobs.PresignGet(ctx, f.StorageKey, f.Name, s.share.PresignTTL)
	if err != nil {
		return "", unavailable("presign", err)
	}

	return u, nil
}

// Quota 单个用户的文件数量上限.
func (s *FileService) Quota() int {
	return s.share.MaxFilesPerOwner
}

// MaxUploadBytes 单次上传大小上限.
func (s *FileService) MaxUploadBytes() int64 {
	return s.share.MaxUploadBytes()
}

func (s *FileService) get(ctx context.Context, id string) (*model.File, error) {
	var f *model.File

	err := s.call(ctx, "get file", func(ctx context.Context) error {
		var e error

		f, e = s.store.GetFile(ctx, id)

		return e
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}

	return f, err
}

func (s *FileService) put(ctx context.Context, f *model.File) error {
	err := s.call(ctx, "put file", func(ctx context.Context) error {
		return s.store.PutFile(ctx, f)
	})
	if errors.Is(err, store.ErrDuplicateID) {
		// ULID 冲突只会来自外部写入同名 id
		return unavailable("put file", err)
	}

	return err
}

// checkOwnerAndQuota 校验拥有者存在且未达到文件数上限.
func (s *FileService) checkOwnerAndQuota(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return ErrUnauthorized
	}

	err := s.call(ctx, "find owner", func(ctx context.Context) error {
		_, e := s.store.FindUser(ctx, store.UserFilter{ID: ownerID})
		return e
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrUnauthorized
	}

	if err != nil {
		return err
	}

	owned, err := s.ListFiles(ctx, ownerID)
	if err != nil {
		return err
	}

	if len(owned) >= s.share.MaxFilesPerOwner {
		return fmt.Errorf("%w: %d of %d files used", ErrQuotaExceeded, len(owned), s.share.MaxFilesPerOwner)
	}

	return nil
}

func (s *FileService) removeBlob(ctx context.Context, key string) {
	if s.blobs == nil {
		return
	}

	if err := s.blobs.RemoveContent(ctx, key); err != nil {
		nlog.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("remove content failed")
	}
}

// validateCodes 去除首尾空白后拒绝空白、重复、缺失或超量的访问码，访问码只允许字母和数字.
func validateCodes(codes []string, limit int) ([]model.AccessCode, error) {
	if len(codes) == 0 {
		return nil, invalidCodes("at least one access code is required")
	}

	if len(codes) > limit {
		return nil, invalidCodes(fmt.Sprintf("at most %d access codes per file", limit))
	}

	seen := make(map[string]struct{}, len(codes))
	out := make([]model.AccessCode, 0, len(codes))

	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, invalidCodes("access codes must not be empty")
		}

		if rule.ValidateVar(c, "max=64,accesscode") != nil {
			return nil, invalidCodes("access codes must be letters and digits, at most 64")
		}

		if _, dup := seen[c]; dup {
			return nil, invalidCodes("access codes must be unique")
		}

		seen[c] = struct{}{}
		out = append(out, model.AccessCode{Code: c})
	}

	return out, nil
}

func dataURL(mimeType string, content []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(content)
}

// objectKey 对象键：<owner>/<file id>.
func objectKey(ownerID, fileID string) string {
	return ownerID + "/" + fileID
}

func countUpload(kind string, err error) {
	result := metrics.ResultOK

	switch {
	case err == nil:
	case errors.Is(err, ErrStoreUnavailable):
		result = metrics.ResultUnavailable
	default:
		result = metrics.ResultRejected
	}

	metrics.UploadsTotal.WithLabelValues(kind, result).Inc()
}
