package types

// Health 状态取值.
const (
	HealthOK        = "ok"
	HealthUnhealthy = "unhealthy"
	HealthDisabled  = "disabled"
)

// ComponentHealth 单个组件的健康状态.
type ComponentHealth struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// HealthResponse 汇总健康检查. 任一已启用组件不健康时 Status 为 unhealthy.
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Components []ComponentHealth `json:"components"`
}
