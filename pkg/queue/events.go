package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- 基于业务封装 events --------------------------

// PublishFileUploaded 发布 cv.file.uploaded 事件.
func PublishFileUploaded(pub message.Publisher, payload FileUploadedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicFileUploaded, payload, opts...)
}

// ParseFileUploaded 将 watermill 消息解析为 FileUploadedPayload 信封.
func ParseFileUploaded(msg *message.Message) (Message[FileUploadedPayload], error) {
	return ParseWatermillMessage[FileUploadedPayload](msg)
}

// PublishFileDeleted 发布 cv.file.deleted 事件.
func PublishFileDeleted(pub message.Publisher, payload FileDeletedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicFileDeleted, payload, opts...)
}

// ParseFileDeleted 将 watermill 消息解析为 FileDeletedPayload 信封.
func ParseFileDeleted(msg *message.Message) (Message[FileDeletedPayload], error) {
	return ParseWatermillMessage[FileDeletedPayload](msg)
}

// PublishCodeRedeemed 发布 cv.code.redeemed 事件.
func PublishCodeRedeemed(pub message.Publisher, payload CodeRedeemedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicCodeRedeemed, payload, opts...)
}

// ParseCodeRedeemed 将 watermill 消息解析为 CodeRedeemedPayload 信封.
func ParseCodeRedeemed(msg *message.Message) (Message[CodeRedeemedPayload], error) {
	return ParseWatermillMessage[CodeRedeemedPayload](msg)
}

// PublishUserRegistered 发布 cv.user.registered 事件.
func PublishUserRegistered(pub message.Publisher, payload UserRegisteredPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicUserRegistered, payload, opts...)
}

// ParseUserRegistered 将 watermill 消息解析为 UserRegisteredPayload 信封.
func ParseUserRegistered(msg *message.Message) (Message[UserRegisteredPayload], error) {
	return ParseWatermillMessage[UserRegisteredPayload](msg)
}

func publish[T any](pub message.Publisher, topic string, payload T, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(topic, msg)
}
