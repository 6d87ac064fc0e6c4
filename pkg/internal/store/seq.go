package store

import (
	"sync"
	"time"
)

// seqClock 生成单调递增的插入序号（纳秒时间戳，冲突时顺延）.
type seqClock struct {
	mu   sync.Mutex
	last int64
}

func (c *seqClock) next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	seq := time.Now().UnixNano()
	if seq <= c.last {
		seq = c.last + 1
	}

	c.last = seq

	return seq
}

// observe 让时钟不小于已存在的序号，用于从持久化数据恢复.
func (c *seqClock) observe(seq int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq > c.last {
		c.last = seq
	}
}
