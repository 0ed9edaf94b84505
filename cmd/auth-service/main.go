// cmd/auth-service/main.go
package main

import (
	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"promohub/internal/pkg/bootstrap"
	"promohub/internal/pkg/config"
	"promohub/internal/pkg/database"
	"promohub/internal/pkg/errsink"
	"promohub/internal/service/auth/application"
	"promohub/internal/service/auth/infrastructure"
	"promohub/internal/service/auth/interfaces"
)

const serviceName = "auth-service"

// main 是应用的"组装根" (Composition Root)：
// 创建并组装所有依赖项，然后把控制权交给 bootstrap。
func main() {
	bootstrap.Init(serviceName)
	cfg := config.GetCurrentConfig()

	db, err := database.Open(cfg.Infra.Mysql.Addr, cfg.Infra.Mysql.User, cfg.Infra.Mysql.Password, cfg.Infra.Mysql.Database)
	if err != nil {
		zlog.Fatal().Err(err).Msg("open mysql")
	}
	if err := infrastructure.AutoMigrate(db); err != nil {
		zlog.Fatal().Err(err).Msg("auto migrate")
	}

	producer := infrastructure.NewLifecycleProducer(cfg.Infra.Kafka.Brokers, cfg.Broker.MaxRetries)
	defer producer.Close()

	sink := errsink.NewReportingSink()
	svc := application.NewUserService(
		infrastructure.NewGormUserRepository(db),
		producer,
		infrastructure.NewBcryptHasher(),
		sink,
		otel.Tracer(serviceName),
	)
	handler := interfaces.NewAuthHandler(svc, sink)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8081,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
	})
}
