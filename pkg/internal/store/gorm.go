package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeisme/codevault/pkg/internal/model"
)

// GormStore 基于 gorm 的关系型存储.
//
// 表: files / access_codes / users. 访问码按 (file_id, position) 保序，code 与 used 建索引，
// 兑换时以条件 UPDATE ... WHERE used = false 实现比较并设置.
type GormStore struct {
	db  *gorm.DB
	seq seqClock
}

var (
	_ Store      = (*GormStore)(nil)
	_ CodeFinder = (*GormStore)(nil)
)

// NewGormStore 包装已打开的 gorm 连接，连接的生命周期由调用方管理.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate 自动建表.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&model.FileRecord{},
		&model.AccessCodeRecord{},
		&model.UserRecord{},
	)
}

func orderedCodes(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func recordsToFiles(recs []model.FileRecord) []*model.File {
	out := make([]*model.File, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].ToModel())
	}

	return out
}

// ListFiles 按插入顺序返回匹配的文件.
func (s *GormStore) ListFiles(ctx context.Context, filter FileFilter) ([]*model.File, error) {
	q := s.db.WithContext(ctx).Preload("AccessCodes", orderedCodes)
	if filter.OwnerID != "" {
		q = q.Where("owner_id = ?", filter.OwnerID)
	}

	var recs []model.FileRecord
	if err := q.Order("seq ASC, id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	return recordsToFiles(recs), nil
}

// GetFile 按 id 获取.
func (s *GormStore) GetFile(ctx context.Context, id string) (*model.File, error) {
	var rec model.FileRecord

	err := s.db.WithContext(ctx).Preload("AccessCodes", orderedCodes).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", id, err)
	}

	return rec.ToModel(), nil
}

// PutFile 在事务中插入文件及其访问码.
func (s *GormStore) PutFile(ctx context.Context, file *model.File) error {
	rec := file.ToRecord(s.seq.next())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.FileRecord{}).Where("id = ?", file.ID).Count(&n).Error; err != nil {
			return err
		}

		if n > 0 {
			return ErrDuplicateID
		}

		return tx.Create(&rec).Error
	})

	switch {
	case errors.Is(err, ErrDuplicateID), errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateID
	case err != nil:
		return fmt.Errorf("put file %s: %w", file.ID, err)
	}

	return nil
}

// DeleteFile 删除文件及其访问码，幂等.
func (s *GormStore) DeleteFile(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", id).Delete(&model.AccessCodeRecord{}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).Delete(&model.FileRecord{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete file %s: %w", id, err)
	}

	return nil
}

// UpdateFileAccessCodes 在事务中重写访问码行.
func (s *GormStore) UpdateFileAccessCodes(ctx context.Context, id string, codes []model.AccessCode) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.FileRecord{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}

		if n == 0 {
			return ErrNotFound
		}

		if err := tx.Where("file_id = ?", id).Delete(&model.AccessCodeRecord{}).Error; err != nil {
			return err
		}

		rows := model.CodeRecords(id, codes)
		if len(rows) == 0 {
			return nil
		}

		return tx.Create(&rows).Error
	})

	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}

	if err != nil {
		return fmt.Errorf("update access codes %s: %w", id, err)
	}

	return nil
}

// SetCodeUsedIfUnused 以条件更新实现比较并设置：影响一行即成功.
// 若同一文件内存在重复访问码，按 position 依次尝试.
func (s *GormStore) SetCodeUsedIfUnused(ctx context.Context, fileID, code string) (bool, error) {
	db := s.db.WithContext(ctx)

	for {
		var rec model.AccessCodeRecord

		err := db.Where("file_id = ? AND code = ? AND used = ?", fileID, code, false).
			Order("position ASC").
			First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}

		if err != nil {
			return false, fmt.Errorf("find access code: %w", err)
		}

		res := db.Model(&model.AccessCodeRecord{}).
			Where("id = ? AND used = ?", rec.ID, false).
			Update("used", true)
		if res.Error != nil {
			return false, fmt.Errorf("mark access code used: %w", res.Error)
		}

		if res.RowsAffected == 1 {
			return true, nil
		}
	}
}

// FindFilesByUnusedCode 借助 access_codes.code 索引定位候选文件.
func (s *GormStore) FindFilesByUnusedCode(ctx context.Context, code string) ([]*model.File, error) {
	db := s.db.WithContext(ctx)

	ids := db.Model(&model.AccessCodeRecord{}).
		Select("file_id").
		Where("code = ? AND used = ?", code, false)

	var recs []model.FileRecord

	err := db.Preload("AccessCodes", orderedCodes).
		Where("id IN (?)", ids).
		Order("seq ASC, id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("find files by code: %w", err)
	}

	return recordsToFiles(recs), nil
}

// ListUsers 返回全部用户.
func (s *GormStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	var recs []model.UserRecord
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]*model.User, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].ToModel())
	}

	return out, nil
}

// PutUser 插入用户.
func (s *GormStore) PutUser(ctx context.Context, user *model.User) error {
	rec := user.ToRecord()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.UserRecord{}).Where("id = ?", user.ID).Count(&n).Error; err != nil {
			return err
		}

		if n > 0 {
			return ErrDuplicateID
		}

		return tx.Create(&rec).Error
	})

	switch {
	case errors.Is(err, ErrDuplicateID), errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateID
	case err != nil:
		return fmt.Errorf("put user %s: %w", user.ID, err)
	}

	return nil
}

// FindUser 结构体条件查询，零值字段被 gorm 忽略.
func (s *GormStore) FindUser(ctx context.Context, filter UserFilter) (*model.User, error) {
	var rec model.UserRecord

	cond := model.UserRecord{
		ID:             filter.ID,
		Email:          filter.Email,
		Provider:       filter.Provider,
		ProviderUserID: filter.ProviderUserID,
	}

	err := s.db.WithContext(ctx).Where(&cond).Order("created_at ASC, id ASC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	return rec.ToModel(), nil
}

// Ping 检测数据库连通性.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

// Close 连接由存储管理器持有，这里不关闭.
func (s *GormStore) Close() error {
	return nil
}
