package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/codevault/pkg/internal/types"
	"github.com/yeisme/codevault/pkg/middleware"
)

// ListJobs 定时任务状态.
//
//	@Summary	定时任务
//	@Tags		运维
//	@Produce	json
//	@Success	200	{object}	types.JobsResponse
//	@Failure	401	{object}	map[string]string
//	@Router		/api/v1/jobs [get]
func ListJobs(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusOK, types.JobsResponse{Jobs: nil})
		return
	}

	c.JSON(http.StatusOK, types.JobsResponse{Jobs: sched.GetJobInfos()})
}

// RunJob 立即执行一次指定任务.
//
//	@Summary	立即执行任务
//	@Tags		运维
//	@Param		name	path	string	true	"任务名"
//	@Success	202
//	@Failure	401	{object}	map[string]string
//	@Failure	403	{object}	map[string]string
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/jobs/{name}/run [post]
func RunJob(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "scheduler not running"})
		return
	}

	if err := sched.RunNow(c.Param("name")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusAccepted)
}
