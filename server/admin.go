package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// HandleAdminConfig 只读地暴露生效中的模拟常量
// （配置在启动期固定，运行期不可改）
// GET /admin/config
func HandleAdminConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg := map[string]any{
			"tick_interval_ms":      tickInterval.Milliseconds(),
			"broadcast_interval_ms": broadcastInterval.Milliseconds(),
			"start_countdown_ms":    startCountdown.Milliseconds(),
			"map_width":             MapWidth,
			"map_height":            MapHeight,
			"room_capacity":         RoomCapacity,
			"max_civilian_kills":    MaxCivilianKills,
			"civilian_count":        CivilianCount,
			"max_dropped_messages":  MaxDroppedMessages,
			"max_dropped_arrows":    MaxDroppedArrows,
			"bullet_speed":          BulletSpeed,
			"bullet_max_range":      BulletMaxRange,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cfg)
	}
}

// HandleMetrics 输出房间运行指标
// GET /metrics          → 全部房间
// GET /metrics?room=id  → 指定房间
func HandleMetrics(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if roomID := r.URL.Query().Get("room"); roomID != "" {
			room := reg.Room(roomID)
			if room == nil {
				http.Error(w, "room not found", http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"room":    room.ID,
				"state":   room.State(),
				"metrics": room.Metrics().Snapshot(),
			})
			return
		}
		rooms := reg.Rooms()
		payload := make([]map[string]any, 0, len(rooms))
		for _, room := range rooms {
			payload = append(payload, map[string]any{
				"room":    room.ID,
				"state":   room.State(),
				"metrics": room.Metrics().Snapshot(),
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"rooms":        payload,
			"games_played": reg.GamesPlayed(),
		})
	}
}

// HandleStatus 极简状态页：累计完成的对局数
// GET /status
func HandleStatus(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<h1>Games played: %d</h1>", reg.GamesPlayed())
	}
}
