package server

import "sync/atomic"

// RoomMetrics 房间运行期指标（监控与调试用），全部走原子操作
type RoomMetrics struct {
	TickCount       int64 // 模拟 Tick 次数
	TotalTickNs     int64 // Tick 累计耗时（纳秒）
	Broadcasts      int64 // 快照广播次数
	BulletsFired    int64 // 开火数
	MessagesDropped int64 // 放置信件数
	CiviliansKilled int64 // 平民被击杀数
}

func (m *RoomMetrics) IncBroadcast()      { atomic.AddInt64(&m.Broadcasts, 1) }
func (m *RoomMetrics) IncBulletFired()    { atomic.AddInt64(&m.BulletsFired, 1) }
func (m *RoomMetrics) IncMessageDropped() { atomic.AddInt64(&m.MessagesDropped, 1) }
func (m *RoomMetrics) IncCivilianKilled() { atomic.AddInt64(&m.CiviliansKilled, 1) }

func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":       tick,
		"avg_tick_ms":      avgMs,
		"broadcasts":       atomic.LoadInt64(&m.Broadcasts),
		"bullets_fired":    atomic.LoadInt64(&m.BulletsFired),
		"messages_dropped": atomic.LoadInt64(&m.MessagesDropped),
		"civilians_killed": atomic.LoadInt64(&m.CiviliansKilled),
	}
}
