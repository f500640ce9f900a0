package service

import (
	"sync"
	"time"
)

// Monitor 进程内指标：下单、级联删除与基础设施错误
type Monitor struct {
	mu sync.RWMutex

	// 错误统计
	DBErrors    int64
	MQErrors    int64
	RedisErrors int64

	// 下单统计
	CheckoutRequests  int64
	CheckoutSuccess   int64
	CheckoutNoStock   int64
	CheckoutFailed    int64
	OrderEventsPosted int64

	// 后台级联删除次数
	CascadeDeletes int64

	LastDBError    time.Time
	LastMQError    time.Time
	LastCheckout   time.Time
	LastCascadeDel time.Time
}

var globalMonitor = &Monitor{}

// GetMonitor 获取全局监控实例
func GetMonitor() *Monitor {
	return globalMonitor
}

func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

func (m *Monitor) RecordMQError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MQErrors++
	m.LastMQError = time.Now()
}

func (m *Monitor) RecordRedisError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RedisErrors++
}

// RecordCheckoutRequest 记录一次结算请求
func (m *Monitor) RecordCheckoutRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CheckoutRequests++
	m.LastCheckout = time.Now()
}

func (m *Monitor) RecordCheckoutSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CheckoutSuccess++
}

// RecordCheckoutNoStock 因库存不足回滚
func (m *Monitor) RecordCheckoutNoStock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CheckoutNoStock++
}

func (m *Monitor) RecordCheckoutFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CheckoutFailed++
}

func (m *Monitor) RecordOrderEvent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderEventsPosted++
}

func (m *Monitor) RecordCascadeDelete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CascadeDeletes++
	m.LastCascadeDel = time.Now()
}

// GetStats 获取统计信息，/admin/api/metrics 直接输出
func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	successRate := float64(0)
	if m.CheckoutRequests > 0 {
		successRate = float64(m.CheckoutSuccess) / float64(m.CheckoutRequests) * 100
	}

	return map[string]interface{}{
		"errors": map[string]interface{}{
			"db":    m.DBErrors,
			"mq":    m.MQErrors,
			"redis": m.RedisErrors,
		},
		"checkout": map[string]interface{}{
			"requests":      m.CheckoutRequests,
			"success":       m.CheckoutSuccess,
			"no_stock":      m.CheckoutNoStock,
			"failed":        m.CheckoutFailed,
			"success_rate":  successRate,
			"events_posted": m.OrderEventsPosted,
		},
		"admin": map[string]interface{}{
			"cascade_deletes": m.CascadeDeletes,
		},
		"last_events": map[string]interface{}{
			"db_error":       m.LastDBError,
			"mq_error":       m.LastMQError,
			"checkout":       m.LastCheckout,
			"cascade_delete": m.LastCascadeDel,
		},
	}
}

// Reset 重置统计（用于测试）
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors = 0
	m.MQErrors = 0
	m.RedisErrors = 0
	m.CheckoutRequests = 0
	m.CheckoutSuccess = 0
	m.CheckoutNoStock = 0
	m.CheckoutFailed = 0
	m.OrderEventsPosted = 0
	m.CascadeDeletes = 0
}
