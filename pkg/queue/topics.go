package queue

// 主题命名规范：cv.<域>.<动作>，保持稳定且向后兼容.
// NATS 以 "." 分隔层级，因此可用 "cv.>" 订阅全部事件.

const (
	// 文件领域.
	TopicFileUploaded = "cv.file.uploaded" // 文件或链接分享已创建
	TopicFileDeleted  = "cv.file.deleted"  // 拥有者删除了分享

	// 访问码领域.
	TopicCodeRedeemed = "cv.code.redeemed" // 访问码被兑换，已置为 used

	// 用户领域.
	TopicUserRegistered = "cv.user.registered" // 新用户（密码或第三方）注册
)

// AllTopics 返回全部主题，订阅方按此列表逐个订阅.
func AllTopics() []string {
	return []string{
		TopicFileUploaded,
		TopicFileDeleted,
		TopicCodeRedeemed,
		TopicUserRegistered,
	}
}
