package services

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mistriconnect/technician-backend/pkg/notify"
)

// notifyAsync fires a notification without blocking or failing the caller.
// Delivery is best-effort: a committed workflow decision stands whether or
// not the technician could be told about it.
func notifyAsync(gateway notify.Gateway, technicianID uuid.UUID, event string, data map[string]interface{}) {
	go func() {
		if err := gateway.Notify(technicianID.String(), event, data); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"technician_id": technicianID,
				"event":         event,
				"gateway":       gateway.GetName(),
			}).Warn("Failed to deliver notification")
		}
	}()
}
