package handle

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/codevault/pkg/configs"
	ctxPkg "github.com/yeisme/codevault/pkg/context"
	"github.com/yeisme/codevault/pkg/internal/store"
	"github.com/yeisme/codevault/pkg/internal/types"
)

const healthTimeout = 2 * time.Second

// errDisabled 组件未启用，不计入汇总状态.
var errDisabled = errors.New("component disabled")

type healthCheck struct {
	name  string
	probe func(ctx context.Context) error
}

var healthChecks = []healthCheck{
	{"store", probeStore},
	{"db", probeDB},
	{"kv", probeKV},
	{"s3", probeS3},
	{"mq", probeMQ},
}

func probeStore(ctx context.Context) error {
	s := ctxPkg.GetStore(ctx)
	if s == nil {
		return errors.New("store not initialized")
	}

	if p, ok := s.(store.Pinger); ok {
		return p.Ping(ctx)
	}

	return nil
}

func probeDB(ctx context.Context) error {
	m := ctxPkg.GetManager(ctx)
	if m == nil || m.DB == nil {
		return errDisabled
	}

	return m.DB.Ping(ctx)
}

func probeKV(ctx context.Context) error {
	c := ctxPkg.GetKVClient(ctx)
	if c == nil {
		return errDisabled
	}

	return c.Ping(ctx)
}

func probeS3(ctx context.Context) error {
	c := ctxPkg.GetS3Client(ctx)
	if c == nil {
		return errDisabled
	}

	return c.HealthCheck(ctx)
}

func probeMQ(ctx context.Context) error {
	if ctxPkg.GetMQClient(ctx) == nil {
		return errDisabled
	}

	return nil
}

func runCheck(ctx context.Context, hc healthCheck) types.ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	res := types.ComponentHealth{Component: hc.name, Status: types.HealthOK}

	switch err := hc.probe(ctx); {
	case errors.Is(err, errDisabled):
		res.Status = types.HealthDisabled
	case err != nil:
		res.Status = types.HealthUnhealthy
		res.Error = err.Error()
	}

	return res
}

func writeComponent(c *gin.Context, res types.ComponentHealth) {
	status := http.StatusOK
	if res.Status == types.HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, res)
}

// HealthComponent 返回单个组件的健康检查处理器，组件名取自 healthChecks.
func HealthComponent(name string) gin.HandlerFunc {
	for _, hc := range healthChecks {
		if hc.name == name {
			return func(c *gin.Context) {
				writeComponent(c, runCheck(c.Request.Context(), hc))
			}
		}
	}

	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown component"})
	}
}

// HealthComponents 可单独检查的组件名.
func HealthComponents() []string {
	names := make([]string, 0, len(healthChecks))
	for _, hc := range healthChecks {
		names = append(names, hc.name)
	}

	return names
}

// Health 并行检查全部组件.
//
//	@Summary	健康检查
//	@Tags		运维
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Failure	503	{object}	types.HealthResponse
//	@Router		/api/v1/health [get]
func Health(c *gin.Context) {
	results := make([]types.ComponentHealth, len(healthChecks))

	g, ctx := errgroup.WithContext(c.Request.Context())
	for i, hc := range healthChecks {
		g.Go(func() error {
			results[i] = runCheck(ctx, hc)
			return nil
		})
	}

	_ = g.Wait()

	resp := types.HealthResponse{Status: types.HealthOK, Version: configs.AppVersion, Components: results}
	status := http.StatusOK

	for _, r := range results {
		if r.Status == types.HealthUnhealthy {
			resp.Status = types.HealthUnhealthy
			status = http.StatusServiceUnavailable

			break
		}
	}

	c.JSON(status, resp)
}
