package notify

import "github.com/sirupsen/logrus"

// DevGateway logs events instead of delivering them. Used in development and
// in tests.
type DevGateway struct {
	logger *logrus.Logger
}

// NewDevGateway creates a logging-only notification gateway
func NewDevGateway(logger *logrus.Logger) *DevGateway {
	return &DevGateway{logger: logger}
}

// Notify logs the event
func (g *DevGateway) Notify(technicianID, event string, data map[string]interface{}) error {
	g.logger.WithFields(logrus.Fields{
		"technician_id": technicianID,
		"event":         event,
		"data":          data,
	}).Info("DEV MODE: notification")
	return nil
}

// GetName returns the gateway name
func (g *DevGateway) GetName() string {
	return "dev"
}
