// cmd/sync-worker/main.go
package main

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"promohub/internal/pkg/bootstrap"
	"promohub/internal/pkg/config"
	"promohub/internal/pkg/database"
	"promohub/internal/pkg/errsink"
	"promohub/internal/service/replicator/application"
	"promohub/internal/service/replicator/infrastructure"
	"promohub/internal/zookeeper"
)

const (
	serviceName   = "sync-worker"
	consumerGroup = "sync-worker"
)

func main() {
	bootstrap.Init(serviceName)
	cfg := config.GetCurrentConfig()

	db, err := database.Open(cfg.Infra.Mysql.Addr, cfg.Infra.Mysql.User, cfg.Infra.Mysql.Password, cfg.Infra.Mysql.Database)
	if err != nil {
		zlog.Fatal().Err(err).Msg("open mysql")
	}

	// 用 ZooKeeper 的 leader 锁保证同一时刻只有一个实例写副本表。
	// consumer group 已经保证分区不重复消费，锁防的是运维误开多副本。
	zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers)
	if err != nil {
		zlog.Fatal().Err(err).Msg("connect zookeeper")
	}
	lock, err := zookeeper.NewLeaderLock(zkConn, "user-replica-writer")
	if err != nil {
		zlog.Fatal().Err(err).Msg("create leader lock")
	}
	if err := lock.Acquire(30 * time.Second); err != nil {
		zlog.Fatal().Err(err).Msg("acquire leader lock")
	}
	defer lock.Release()

	sink := errsink.NewReportingSink()
	svc := application.NewReplicatorService(
		infrastructure.NewGormReplicaRepository(db),
		otel.Tracer(serviceName),
	)
	consumer := infrastructure.NewConsumerAdapter(cfg.Infra.Kafka.Brokers, consumerGroup, svc, sink, cfg.Broker.MaxRetries)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8083,
		Run: func(ctx context.Context) error {
			return consumer.Run(ctx)
		},
	})
}
