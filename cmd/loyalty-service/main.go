// cmd/loyalty-service/main.go
package main

import (
	"time"

	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"promohub/internal/pkg/bootstrap"
	"promohub/internal/pkg/config"
	"promohub/internal/pkg/database"
	"promohub/internal/pkg/errsink"
	"promohub/internal/pkg/redis"
	"promohub/internal/service/loyalty/application"
	"promohub/internal/service/loyalty/infrastructure"
	"promohub/internal/service/loyalty/interfaces"
)

const serviceName = "loyalty-service"

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

	rdb := redis.NewClient(cfg.Infra.Redis.Addr, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
	defer rdb.Close()

	tracer := otel.Tracer(serviceName)
	sink := errsink.NewReportingSink()

	accessSvc := application.NewAccessService(infrastructure.NewGormAccessRepository(db), tracer)
	promoSvc := application.NewPromoCodeService(
		infrastructure.NewPromoCacheAdapter(rdb),
		infrastructure.NewGormPromoCodeRepository(db),
		infrastructure.NewGormUserReadModelRepository(db),
		accessSvc,
		time.Duration(cfg.Loyalty.PromoCacheTTLSeconds)*time.Second,
		tracer,
	)
	purchaseSvc := application.NewPurchaseService(
		infrastructure.NewGormTariffRepository(db),
		infrastructure.NewGormRedemptionRepository(db),
		promoSvc,
		tracer,
	)
	handler := interfaces.NewLoyaltyHandler(promoSvc, purchaseSvc, sink)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8082,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
	})
}
