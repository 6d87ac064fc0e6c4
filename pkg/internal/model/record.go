package model

import (
	"time"
)

// FileRecord files 表.
type FileRecord struct {
	ID         string `gorm:"primaryKey;size:64"`
	Name       string `gorm:"size:512"`
	UploadDate string `gorm:"size:64"`
	Size       string `gorm:"size:32"`
	Content    string `gorm:"type:text"`
	Type       string `gorm:"size:255"`
	OwnerID    string `gorm:"size:64;index"`
	StorageKey string `gorm:"size:1024"`
	// Seq 保留插入顺序，列表按它排序
	Seq         int64              `gorm:"index"`
	AccessCodes []AccessCodeRecord `gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
}

// TableName 表名.
func (FileRecord) TableName() string { return "files" }

// AccessCodeRecord access_codes 表，code 列建索引用于兑换查找.
type AccessCodeRecord struct {
	ID       uint   `gorm:"primaryKey"`
	FileID   string `gorm:"size:64;index:idx_file_pos,unique"`
	Position int    `gorm:"index:idx_file_pos,unique"`
	Code     string `gorm:"size:64;index"`
	Used     bool   `gorm:"index"`
}

// TableName 表名.
func (AccessCodeRecord) TableName() string { return "access_codes" }

// UserRecord users 表.
type UserRecord struct {
	ID             string `gorm:"primaryKey;size:64"`
	Email          string `gorm:"size:320;index"`
	Credential     string `gorm:"size:255"`
	Provider       string `gorm:"size:64;index:idx_provider_user"`
	ProviderUserID string `gorm:"size:255;index:idx_provider_user"`
	CreatedAt      time.Time
}

// TableName 表名.
func (UserRecord) TableName() string { return "users" }

// ToRecord 转换为数据库行.
func (f *File) ToRecord(seq int64) FileRecord {
	rec := FileRecord{
		ID:         f.ID,
		Name:       f.Name,
		UploadDate: f.UploadDate,
		Size:       f.Size,
		Content:    f.Content,
		Type:       f.Type,
		OwnerID:    f.OwnerID,
		StorageKey: f.StorageKey,
		Seq:        seq,
	}
	rec.AccessCodes = CodeRecords(f.ID, f.AccessCodes)

	return rec
}

// CodeRecords 按列表顺序生成访问码行.
func CodeRecords(fileID string, codes []AccessCode) []AccessCodeRecord {
	out := make([]AccessCodeRecord, 0, len(codes))
	for i, ac := range codes {
		out = append(out, AccessCodeRecord{FileID: fileID, Position: i, Code: ac.Code, Used: ac.Used})
	}

	return out
}

// ToModel 转换为领域记录，AccessCodes 需按 Position 预先排序.
func (r *FileRecord) ToModel() *File {
	f := &File{
		ID:          r.ID,
		Name:        r.Name,
		UploadDate:  r.UploadDate,
		Size:        r.Size,
		Content:     r.Content,
		Type:        r.Type,
		OwnerID:     r.OwnerID,
		StorageKey:  r.StorageKey,
		AccessCodes: make([]AccessCode, 0, len(r.AccessCodes)),
	}
	for _, ac := range r.AccessCodes {
		f.AccessCodes = append(f.AccessCodes, AccessCode{Code: ac.Code, Used: ac.Used})
	}

	return f
}

// ToRecord 转换为数据库行.
func (u *User) ToRecord() UserRecord {
	return UserRecord{
		ID:             u.ID,
		Email:          u.Email,
		Credential:     u.Credential,
		Provider:       u.Provider,
		ProviderUserID: u.ProviderUserID,
	}
}

// ToModel 转换为领域记录.
func (r *UserRecord) ToModel() *User {
	return &User{
		ID:             r.ID,
		Email:          r.Email,
		Credential:     r.Credential,
		Provider:       r.Provider,
		ProviderUserID: r.ProviderUserID,
	}
}
