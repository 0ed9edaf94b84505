// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"promohub/internal/pkg/tracing"
)

// Init 配置全局 zerolog：Unix 时间戳 + service 字段。
func Init(serviceName string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zlog.Logger = zerolog.New(os.Stderr).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Ctx 返回一个绑定了 trace_id 的 logger。
// 如果上下文中没有有效的 span，则退回全局 logger。
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	if traceID := tracing.GetTraceIDFromContext(ctx); traceID != "" {
		l := zlog.With().Str("trace_id", traceID).Logger()
		return &l
	}
	return &zlog.Logger
}
