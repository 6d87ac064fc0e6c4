// Package model 定义访问码分享的领域记录：文件、访问码、用户与会话.
package model

// TypeLink 链接分享的 type 取值，此时 content 为外部 URL.
const TypeLink = "link"

// SizeLink 链接分享的 size 取值.
const SizeLink = "Link"

// AccessCode 单个一次性访问码. Used 只会从 false 变为 true.
type AccessCode struct {
	Code string `json:"code"`
	Used bool   `json:"used"`
}

// File 一条分享记录.
//
// Type 为 "link" 时 Content 是外部 URL；否则 Type 是 MIME 类型，Content 为 data URL，
// 或者在内容存放于对象存储时为空并由 StorageKey 指向对象.
type File struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	UploadDate  string       `json:"uploadDate"`
	Size        string       `json:"size"`
	AccessCodes []AccessCode `json:"accessCodes"`
	Content     string       `json:"content"`
	Type        string       `json:"type"`
	OwnerID     string       `json:"ownerId"`
	StorageKey  string       `json:"storageKey,omitempty"`
}

// IsLink 是否为链接分享.
func (f *File) IsLink() bool {
	return f.Type == TypeLink
}

// HasUnusedCode 判断文件是否持有指定的未使用访问码.
func (f *File) HasUnusedCode(code string) bool {
	for _, ac := range f.AccessCodes {
		if ac.Code == code && !ac.Used {
			return true
		}
	}

	return false
}

// MarkCodeUsed 把第一个匹配且未使用的访问码标记为已使用，返回是否发生了变更.
func (f *File) MarkCodeUsed(code string) bool {
	for i := range f.AccessCodes {
		if f.AccessCodes[i].Code == code && !f.AccessCodes[i].Used {
			f.AccessCodes[i].Used = true

			return true
		}
	}

	return false
}

// UnusedCodes 返回未使用访问码数量.
func (f *File) UnusedCodes() int {
	n := 0

	for _, ac := range f.AccessCodes {
		if !ac.Used {
			n++
		}
	}

	return n
}

// Clone 深拷贝，避免调用方修改存储中的切片.
func (f *File) Clone() *File {
	if f == nil {
		return nil
	}

	c := *f
	c.AccessCodes = append([]AccessCode(nil), f.AccessCodes...)

	return &c
}
