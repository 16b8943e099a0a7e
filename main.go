package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"courierhunt/server"
)

// 入口：启动 HTTP + WebSocket 服务，并组装房间注册表
func main() {
	var addr string
	var logFile string
	flag.StringVar(&addr, "addr", ":8080", "server listen address, e.g. :8080")
	flag.StringVar(&logFile, "log", "courierhunt.log", "log file path")
	flag.Parse()

	if err := server.InitLogger(logFile); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	reg := server.NewRegistry()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWS(reg))
	// 前后端分离：/ 映射到 web 目录的静态客户端
	mux.Handle("/", http.FileServer(http.Dir("web")))
	// 管理与监控接口
	mux.HandleFunc("/admin/config", server.HandleAdminConfig())
	mux.HandleFunc("/metrics", server.HandleMetrics(reg))
	mux.HandleFunc("/status", server.HandleStatus(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		server.Log.Infof("courierhunt listening on %s; open http://localhost%v/", addr, addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")
}
