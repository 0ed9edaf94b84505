// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"promohub/internal/pkg/config"
	"promohub/internal/pkg/logger"
	"promohub/internal/pkg/nacos"
	"promohub/internal/pkg/tracing"
	"promohub/internal/pkg/utils"
)

// AppCtx 传给服务的路由注册回调，携带共享的组装材料。
type AppCtx struct {
	Mux *http.ServeMux
}

// AppInfo 描述启动一个服务所需的全部信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx)
	// Run 是可选的长生命周期后台任务（例如消费循环）。
	// 它返回错误时整个进程退出，交给编排系统重启。
	Run func(ctx context.Context) error
}

// Init 加载配置并初始化全局 logger，必须在 StartService 之前调用。
func Init(serviceName string) {
	if _, err := config.Load(); err != nil {
		panic("bootstrap: load config: " + err.Error())
	}
	logger.Init(serviceName)
}

// StartService 封装所有服务共用的启动与优雅关停流程：
// tracer、nacos 注册、HTTP server（/healthz、/metrics）、后台任务、信号处理。
func StartService(info AppInfo) {
	cfg := config.GetCurrentConfig()

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		zlog.Fatal().Err(err).Msg("init tracer provider")
	}

	naming, err := nacos.NewClient(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
	if err != nil {
		zlog.Fatal().Err(err).Msg("init nacos client")
	}

	ip, err := utils.GetOutboundIP()
	if err != nil {
		zlog.Fatal().Err(err).Msg("resolve outbound ip")
	}
	if err := naming.Register(info.ServiceName, ip, info.Port); err != nil {
		zlog.Fatal().Err(err).Msg("register service")
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux})
	}

	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		zlog.Info().Str("addr", server.Addr).Msgf("%s listening", info.ServiceName)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	if info.Run != nil {
		g.Go(func() error { return info.Run(gctx) })
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		zlog.Info().Msgf("shutting down %s", info.ServiceName)
	case <-gctx.Done():
		zlog.Error().Msgf("%s background task failed, shutting down", info.ServiceName)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// 关停顺序和启动相反：先摘流量，再停任务，最后冲刷 trace。
	if err := naming.Deregister(info.ServiceName, ip, info.Port); err != nil {
		zlog.Warn().Err(err).Msg("deregister service")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Warn().Err(err).Msg("shutdown http server")
	}
	cancel()
	if err := g.Wait(); err != nil && err != context.Canceled {
		zlog.Error().Err(err).Msg("background task exited with error")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		zlog.Warn().Err(err).Msg("shutdown tracer provider")
	}
	zlog.Info().Msgf("%s gracefully shut down", info.ServiceName)
}
