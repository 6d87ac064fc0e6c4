package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// FileUploadedPayload 分享创建事件。不携带内容本身，只有元数据.
type FileUploadedPayload struct {
	FileID     string   `json:"file_id"`
	OwnerID    string   `json:"owner_id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Size       string   `json:"size"`
	CodeCount  int      `json:"code_count"`
	StorageKey string   `json:"storage_key,omitempty"`
}

// FileDeletedPayload 分享删除事件.
type FileDeletedPayload struct {
	FileID     string `json:"file_id"`
	OwnerID    string `json:"owner_id"`
	StorageKey string `json:"storage_key,omitempty"`
}

// CodeRedeemedPayload 访问码兑换事件.
type CodeRedeemedPayload struct {
	FileID         string `json:"file_id"`
	OwnerID        string `json:"owner_id"`
	Code           string `json:"code"`
	ClaimantEmail  string `json:"claimant_email"`
	RemainingCodes int    `json:"remaining_codes"`
}

// UserRegisteredPayload 用户注册事件.
type UserRegisteredPayload struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Provider string `json:"provider,omitempty"` // 空表示密码账号
}
