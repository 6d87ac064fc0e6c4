// Package metrics 提供监控指标功能.
// 支持 Prometheus 标准，收集 HTTP、分享业务与运行时指标.
//
// Example:
//
//	import "github.com/yeisme/codevault/pkg/metrics"
//
//	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.RedemptionsTotal.WithLabelValues(metrics.ResultOK).Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/codevault/pkg/configs"
)

// 业务结果标签.
const (
	ResultOK          = "ok"
	ResultInvalid     = "invalid"
	ResultUnavailable = "unavailable"
	ResultRejected    = "rejected"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 活跃连接数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)

	// RedemptionsTotal 访问码兑换次数，按结果区分.
	RedemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: configs.AppName,
			Name:      "redemptions_total",
			Help:      "Access code redemption attempts by result",
		},
		[]string{"result"},
	)

	// UploadsTotal 分享创建次数，kind 为 file 或 link.
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: configs.AppName,
			Name:      "uploads_total",
			Help:      "Share creations by kind and result",
		},
		[]string{"kind", "result"},
	)

	// EventsConsumed 已消费事件数.
	EventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: configs.AppName,
			Name:      "events_consumed_total",
			Help:      "Domain events consumed by topic",
		},
		[]string{"topic"},
	)

	// StoreFiles 等存储统计由定时任务刷新.
	StoreFiles = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: configs.AppName,
		Name:      "store_files",
		Help:      "Number of shared files in the store",
	})

	StoreOwners = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: configs.AppName,
		Name:      "store_owners",
		Help:      "Number of distinct owners with at least one file",
	})

	StoreUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: configs.AppName,
		Name:      "store_users",
		Help:      "Number of registered users",
	})

	StoreCodes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: configs.AppName,
		Name:      "store_access_codes",
		Help:      "Number of access codes by state",
	}, []string{"state"})

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()

	initOnce sync.Once
)

// InitMetrics 初始化Metrics，重复调用只注册一次.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	initOnce.Do(func() {
		if config.RuntimeMetrics {
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		// 默认标签附加到本服务注册的全部指标上
		reg := prometheus.WrapRegistererWith(prometheus.Labels(config.Labels), registry)

		reg.MustRegister(RequestCounter, RequestDuration, ActiveConnections)
		reg.MustRegister(RedemptionsTotal, UploadsTotal, EventsConsumed)
		reg.MustRegister(StoreFiles, StoreOwners, StoreUsers, StoreCodes)
	})

	return nil
}

// StartMetricsServer 在调试引擎上挂载 /metrics 与可选的 pprof.
func StartMetricsServer(config configs.MetricsConfig, debugEngine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	debugEngine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if config.Pprof {
		debugEngine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
