// cmd/admin-service/main.go
package main

import (
	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"promohub/internal/pkg/bootstrap"
	"promohub/internal/pkg/config"
	"promohub/internal/pkg/database"
	"promohub/internal/pkg/errsink"
	"promohub/internal/service/admin/application"
	"promohub/internal/service/admin/interfaces"
	loyaltyinfra "promohub/internal/service/loyalty/infrastructure"
)

const serviceName = "admin-service"

func main() {
	bootstrap.Init(serviceName)
	cfg := config.GetCurrentConfig()

	db, err := database.Open(cfg.Infra.Mysql.Addr, cfg.Infra.Mysql.User, cfg.Infra.Mysql.Password, cfg.Infra.Mysql.Database)
	if err != nil {
		zlog.Fatal().Err(err).Msg("open mysql")
	}
	if err := loyaltyinfra.AutoMigrate(db); err != nil {
		zlog.Fatal().Err(err).Msg("auto migrate")
	}

	sink := errsink.NewReportingSink()
	svc := application.NewAdminService(
		loyaltyinfra.NewGormPromoCodeRepository(db),
		loyaltyinfra.NewGormTariffRepository(db),
		loyaltyinfra.NewGormAccessRepository(db),
		loyaltyinfra.NewGormGroupRepository(db),
		otel.Tracer(serviceName),
	)
	handler := interfaces.NewAdminHandler(svc, sink)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8084,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
	})
}
