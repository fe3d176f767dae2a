package database

import (
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PoolRecorder 连接池指标出口
type PoolRecorder interface {
	RecordDBPool(name string, open, inUse, idle int, waitCount int64)
}

// PoolMonitorConfig 连接池监控配置
type PoolMonitorConfig struct {
	Name           string
	Interval       time.Duration
	AlertThreshold int           // 打开连接数超过该值时告警
	MaxWait        time.Duration // 两次采样之间新增的等待时长超过该值时告警
}

// PoolSnapshot 连接池快照
type PoolSnapshot struct {
	Timestamp       time.Time
	OpenConnections int
	InUse           int
	Idle            int
	WaitCount       int64
	WaitDuration    time.Duration
}

// PoolMonitor 定期采样 sql.DB 连接池状态
type PoolMonitor struct {
	db       *sql.DB
	config   PoolMonitorConfig
	recorder PoolRecorder
	log      *zap.Logger

	mu   sync.RWMutex
	last PoolSnapshot

	stopCh chan struct{}
	once   sync.Once
}

// NewPoolMonitor 创建连接池监控器，Start 之后才开始采样
func NewPoolMonitor(db *sql.DB, config PoolMonitorConfig, recorder PoolRecorder, log *zap.Logger) *PoolMonitor {
	if config.Interval <= 0 {
		config.Interval = 15 * time.Second
	}
	if config.Name == "" {
		config.Name = "primary"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PoolMonitor{
		db:       db,
		config:   config,
		recorder: recorder,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// NewGormPoolMonitor gorm 连接的便捷构造
func NewGormPoolMonitor(db *gorm.DB, config PoolMonitorConfig, recorder PoolRecorder, log *zap.Logger) (*PoolMonitor, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return NewPoolMonitor(sqlDB, config, recorder, log), nil
}

// Start 开始监控
func (pm *PoolMonitor) Start() {
	go func() {
		ticker := time.NewTicker(pm.config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				pm.Collect()
			case <-pm.stopCh:
				return
			}
		}
	}()
}

// Stop 停止监控，可重复调用
func (pm *PoolMonitor) Stop() {
	pm.once.Do(func() { close(pm.stopCh) })
}

// Collect 采样一次并返回快照
func (pm *PoolMonitor) Collect() PoolSnapshot {
	stats := pm.db.Stats()
	snapshot := PoolSnapshot{
		Timestamp:       time.Now(),
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		WaitCount:       stats.WaitCount,
		WaitDuration:    stats.WaitDuration,
	}

	pm.mu.Lock()
	prev := pm.last
	pm.last = snapshot
	pm.mu.Unlock()

	pm.checkAlerts(prev, snapshot)

	if pm.recorder != nil {
		pm.recorder.RecordDBPool(pm.config.Name, snapshot.OpenConnections, snapshot.InUse, snapshot.Idle, snapshot.WaitCount)
	}
	return snapshot
}

// Last 最近一次采样结果
func (pm *PoolMonitor) Last() PoolSnapshot {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.last
}

// checkAlerts 检查告警条件
func (pm *PoolMonitor) checkAlerts(prev, cur PoolSnapshot) {
	if pm.config.AlertThreshold > 0 && cur.OpenConnections > pm.config.AlertThreshold {
		pm.log.Warn("Database pool connections high",
			zap.String("pool", pm.config.Name),
			zap.Int("open", cur.OpenConnections),
			zap.Int("threshold", pm.config.AlertThreshold))
	}

	// 累计值，按增量判断
	waited := cur.WaitDuration - prev.WaitDuration
	if pm.config.MaxWait > 0 && waited > pm.config.MaxWait {
		pm.log.Warn("Database pool wait time high",
			zap.String("pool", pm.config.Name),
			zap.Int64("waits", cur.WaitCount-prev.WaitCount),
			zap.Duration("waited", waited))
	}
}
