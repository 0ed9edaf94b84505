// internal/pkg/errsink/sink.go
package errsink

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"promohub/internal/pkg/logger"
)

// Sink 是对外部错误上报系统的抽象。
// 服务边界捕获的每一个错误都必须先经过 Sink，之后才能翻译成对外的通用错误。
type Sink interface {
	Capture(ctx context.Context, component string, err error)
}

var capturedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "errsink_captured_total",
	Help: "Errors reported to the external error sink, by component.",
}, []string{"component"})

// ReportingSink 把错误写进结构化日志并打点计数，保证每一次失败都可被告警。
type ReportingSink struct{}

func NewReportingSink() *ReportingSink {
	return &ReportingSink{}
}

func (s *ReportingSink) Capture(ctx context.Context, component string, err error) {
	if err == nil {
		return
	}
	capturedTotal.WithLabelValues(component).Inc()
	logger.Ctx(ctx).Error().
		Str("component", component).
		Err(err).
		Msg("captured error")
}
