// Package notifications sends desktop alerts for glucose readings and predicted peaks
package notifications

import (
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/mrcode/glucopredict/internal/models"
)

// Alert type constants
const (
	alertUrgentLow     = "urgent_low"
	alertLow           = "low"
	alertUrgentHigh    = "urgent_high"
	alertHigh          = "high"
	alertPredictedHigh = "predicted_high"

	statusNormal = "normal"
)

// SendFunc delivers a notification
type SendFunc func(title, message string) error

// Manager decides when to alert and remembers when each alert type last fired
type Manager struct {
	settings      *models.Settings
	lastAlertTime map[string]time.Time
	mu            sync.Mutex

	notify SendFunc
	alert  SendFunc
	now    func() time.Time
}

// NewManager creates a notification manager that uses system notifications
func NewManager(settings *models.Settings) *Manager {
	return &Manager{
		settings:      settings,
		lastAlertTime: make(map[string]time.Time),
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		alert: func(title, message string) error {
			return beeep.Alert(title, message, "")
		},
		now: time.Now,
	}
}

// WithSender replaces both the silent and the audible delivery with send
func (m *Manager) WithSender(send SendFunc) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notify = send
	m.alert = send
	return m
}

// CheckReading alerts when a recorded reading is outside the configured targets.
// A reading back in range resets the reading alerts so the next excursion alerts at once.
func (m *Manager) CheckReading(reading models.GlucoseReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := m.settings.GetGlucoseStatus(reading.Value)
	if status == statusNormal {
		m.clearAlertState(alertUrgentLow, alertLow, alertUrgentHigh, alertHigh)
		return nil
	}

	alertType := m.shouldAlert(status)
	if alertType == "" {
		return nil
	}

	title, message := m.formatReading(reading.Value, alertType)
	return m.fire(alertType, title, message)
}

// CheckPrediction alerts when a meal is predicted to peak in a moderate or severe high band
func (m *Manager) CheckPrediction(prediction *models.GlucosePrediction) error {
	if prediction == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.settings.EnableHighAlert || prediction.PeakBand.Severity() < models.BandModerateHigh.Severity() {
		return nil
	}

	title := "📈 High Peak Predicted"
	message := fmt.Sprintf("This meal may peak at %s after %d min", m.formatValue(prediction.Peak.Glucose), prediction.Peak.Minute)
	return m.fire(alertPredictedHigh, title, message)
}

// fire sends the notification unless the same alert type is still within its repeat window.
// The caller must hold m.mu.
func (m *Manager) fire(alertType, title, message string) error {
	if lastTime, ok := m.lastAlertTime[alertType]; ok {
		if m.settings.RepeatAlertMinutes <= 0 {
			// No repeat, only alert once per status change
			return nil
		}
		repeatDuration := time.Duration(m.settings.RepeatAlertMinutes) * time.Minute
		if m.now().Sub(lastTime) < repeatDuration {
			return nil
		}
	}

	send := m.notify
	if m.settings.EnableSoundAlerts {
		send = m.alert
	}
	if err := send(title, message); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	m.lastAlertTime[alertType] = m.now()
	return nil
}

// shouldAlert maps a status from Settings.GetGlucoseStatus to an enabled alert type
func (m *Manager) shouldAlert(status string) string {
	switch status {
	case alertUrgentLow, alertLow:
		if m.settings.EnableLowAlert {
			return status
		}
	case alertUrgentHigh, alertHigh:
		if m.settings.EnableHighAlert {
			return status
		}
	}
	return ""
}

func (m *Manager) formatValue(mgdl float64) string {
	if m.settings.Unit == "mmol/L" {
		return fmt.Sprintf("%.1f mmol/L", models.ToMmol(mgdl))
	}
	return fmt.Sprintf("%.0f mg/dL", mgdl)
}

// formatReading creates the notification title and message
func (m *Manager) formatReading(mgdl float64, alertType string) (string, string) {
	value := m.formatValue(mgdl)

	switch alertType {
	case alertUrgentLow:
		return "⚠️ URGENT LOW GLUCOSE", "Glucose is critically low: " + value
	case alertLow:
		return "⬇️ Low Glucose", "Glucose is low: " + value
	case alertUrgentHigh:
		return "⚠️ URGENT HIGH GLUCOSE", "Glucose is critically high: " + value
	default:
		return "⬆️ High Glucose", "Glucose is high: " + value
	}
}

// clearAlertState forgets when the given alert types last fired.
// The caller must hold m.mu.
func (m *Manager) clearAlertState(alertTypes ...string) {
	for _, alertType := range alertTypes {
		delete(m.lastAlertTime, alertType)
	}
}

// SendTestNotification sends a test notification
func (m *Manager) SendTestNotification() error {
	m.mu.Lock()
	send := m.notify
	m.mu.Unlock()

	return send("GlucoPredict", "Test notification - alerts are working!")
}
