package worker

import (
	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-api/internal/events"
	"github.com/quickdesk/helpdesk-api/internal/service"
)

// StartEventWorkers registers the audit log and, when a relay is given, the
// RabbitMQ forwarder on the dispatcher.
func StartEventWorkers(dispatcher events.Dispatcher, audit *service.AuditService, relay *events.RabbitMQRelay, logger *zap.Logger) {
	if audit != nil {
		audit.RegisterHandlers()
	}
	if relay == nil {
		logger.Info("event relay disabled; events are only logged")
		return
	}
	events.SubscribeAll(dispatcher, relay.Handle)
	logger.Info("event relay enabled")
}
