// Package notify publishes freshly produced analysis results onto a
// NATS subject for downstream consumers. Publishing is best-effort: a
// broker hiccup is logged and never fails the analysis that produced
// the record.
package notify

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vigilops/vigil-backend/internal/alerts"
	"github.com/vigilops/vigil-backend/internal/store"
)

// Event is the wire shape published per analysis record. Alert is nil
// when the classifier found nothing alert-worthy.
type Event struct {
	Record store.AnalysisRecord `json:"record"`
	Alert  *alerts.Alert        `json:"alert,omitempty"`
}

// Publisher implements analysis.Notifier over a NATS connection.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

func NewPublisher(url, subject string, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name("vigil-backend"),
		nats.Timeout(5 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	logger.Info("nats connection established", "url", url, "subject", subject)

	return &Publisher{conn: conn, subject: subject, logger: logger}, nil
}

func (p *Publisher) AnalysisProduced(record store.AnalysisRecord, alert *alerts.Alert) {
	payload, err := json.Marshal(Event{Record: record, Alert: alert})
	if err != nil {
		p.logger.Warn("notify marshal failed", "record_id", record.ID, "error", err)
		return
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn("notify publish failed", "record_id", record.ID, "error", err)
	}
}

func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Shutdown drains the connection so queued publishes flush, closing
// immediately if the drain fails.
func (p *Publisher) Shutdown() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("nats drain failed, closing immediately", "error", err)
		p.conn.Close()
	}
}
