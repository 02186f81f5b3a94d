// Package mailgate runs an SMTP front end that feeds incoming mail
// through the classification engine, stamps verdict headers, and records
// each scan in the local store.
package mailgate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/technova/phishing-shield/internal/core"
	"github.com/technova/phishing-shield/internal/trust"
	"github.com/technova/phishing-shield/internal/utils"
)

// Gate is an SMTP server that classifies every message it receives.
type Gate struct {
	engine        *core.Engine
	store         core.ScanStore
	trusted       *trust.Checker
	textProc      *utils.TextProcessor
	logger        *zap.Logger
	server        *smtp.Server
	listenAddr    string
	blockPhishing bool
	verdictHeader string
	riskHeader    string
	reasonHeader  string
	relayEnabled  bool
	relayAddr     string
	relayPort     int
}

// Options configures a Gate.
type Options struct {
	ListenAddr    string
	BlockPhishing bool
	VerdictHeader string
	RiskHeader    string
	ReasonHeader  string
	RelayEnabled  bool
	RelayAddr     string
	RelayPort     int
}

// New creates a mail gate over the classification engine.
func New(engine *core.Engine, store core.ScanStore, trusted *trust.Checker, logger *zap.Logger, opts Options) *Gate {
	return &Gate{
		engine:        engine,
		store:         store,
		trusted:       trusted,
		textProc:      utils.NewTextProcessor(logger),
		logger:        logger,
		listenAddr:    opts.ListenAddr,
		blockPhishing: opts.BlockPhishing,
		verdictHeader: opts.VerdictHeader,
		riskHeader:    opts.RiskHeader,
		reasonHeader:  opts.ReasonHeader,
		relayEnabled:  opts.RelayEnabled,
		relayAddr:     opts.RelayAddr,
		relayPort:     opts.RelayPort,
	}
}

// Start begins accepting SMTP connections.
func (g *Gate) Start() error {
	g.server = smtp.NewServer(&smtpBackend{gate: g})
	g.server.Addr = g.listenAddr
	g.server.Domain = "localhost"
	g.server.ReadTimeout = 30 * time.Second
	g.server.WriteTimeout = 30 * time.Second
	g.server.MaxMessageBytes = 30 * 1024 * 1024
	g.server.MaxRecipients = 50
	g.server.AllowInsecureAuth = true

	g.logger.Info("Mail gate starting", zap.String("address", g.listenAddr))

	go func() {
		if err := g.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				g.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop shuts the SMTP server down.
func (g *Gate) Stop() error {
	if g.server != nil {
		return g.server.Close()
	}
	return nil
}

// relay forwards the stamped message to the downstream SMTP hop.
func (g *Gate) relay(sender string, recipients []string, data []byte) error {
	addr := fmt.Sprintf("%s:%d", g.relayAddr, g.relayPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := false
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt, nil); err != nil {
			g.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", rcpt),
				zap.Error(err))
			continue
		}
		accepted = true
	}
	if !accepted {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		g.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// recordScan persists the scan outcome. Store failures are logged but
// never affect mail flow.
func (g *Gate) recordScan(ctx context.Context, content string, result *core.ClassificationResult) {
	features := make([]string, 0, len(result.TriggeredFeatures))
	explanations := make([]core.ExplanationEntry, 0, len(result.TriggeredFeatures))
	for _, f := range result.TriggeredFeatures {
		if !f.Detected {
			continue
		}
		features = append(features, f.Name)
		reason := f.Reason
		if reason == "" {
			reason = result.Explanation
		}
		explanations = append(explanations, core.ExplanationEntry{
			Feature:             f.Name,
			Value:               f.Severity * core.ExplanationValueScale,
			Reason:              reason,
			ContributionPercent: f.ContributionPercent,
		})
	}

	rec := &core.ScanRecord{
		ID:                uuid.New().String(),
		Timestamp:         time.Now().UTC(),
		MessageType:       core.MessageEmail,
		Content:           content,
		Verdict:           result.Prediction,
		Confidence:        result.Confidence,
		RiskLevel:         result.RiskLevel,
		TriggeredFeatures: features,
		OperatorDecision:  core.DecisionPending,
		Explainability: &core.Explainability{
			Explanations:     explanations,
			HighlightedLines: result.HighlightedLines,
			ClassPercentages: result.ClassPercentages,
		},
	}
	if err := g.store.Add(ctx, rec); err != nil {
		g.logger.Error("Failed to record scan", zap.Error(err), zap.String("scan_id", rec.ID))
	}
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	gate *Gate
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		gate:       b.gate,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	gate       *Gate
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// Logout ends the session
func (s *smtpSession) Logout() error {
	return nil
}

// AuthPlain handles PLAIN authentication (not needed for the gate)
func (s *smtpSession) AuthPlain(_, _ string) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data classifies the message, stamps verdict headers, and relays or
// accepts it.
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.gate.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.gate.logger.Error("Failed to parse message", zap.Error(err))
		return err
	}

	content, err := extractText(msg)
	if err != nil {
		s.gate.logger.Error("Failed to extract message text", zap.Error(err))
		return err
	}
	content = s.gate.textProc.SanitizeUTF8(content)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if s.gate.trusted.IsTrusted(s.sender) {
		s.gate.logger.Info("Skipping scan for trusted sender", zap.String("sender", s.sender))
		return s.deliver(rawData, nil)
	}

	result, err := s.gate.engine.Analyze(ctx, content)
	if err != nil {
		// Never bounce mail because analysis failed; deliver with an
		// error marker instead.
		s.gate.logger.Error("Failed to analyze message",
			zap.Error(err),
			zap.String("sender", s.sender))
		return s.deliver(rawData, &core.ClassificationResult{
			Prediction:  core.VerdictSafe,
			RiskLevel:   core.RiskLow,
			Explanation: fmt.Sprintf("analysis error: %v", err),
		})
	}

	s.gate.recordScan(ctx, content, result)

	if result.Prediction == core.VerdictPhishing && s.gate.blockPhishing {
		s.gate.logger.Info("Rejecting phishing message",
			zap.String("sender", s.sender),
			zap.Float64("confidence", result.Confidence),
			zap.String("risk_level", string(result.RiskLevel)))
		return fmt.Errorf("550 rejected as phishing (confidence: %.2f)", result.Confidence)
	}

	return s.deliver(rawData, result)
}

// deliver prepends the verdict headers to the raw message and relays it
// downstream when relaying is enabled.
func (s *smtpSession) deliver(rawData []byte, result *core.ClassificationResult) error {
	var stamped bytes.Buffer
	if result != nil {
		fmt.Fprintf(&stamped, "%s: %s\r\n", s.gate.verdictHeader, result.Prediction)
		fmt.Fprintf(&stamped, "%s: %s\r\n", s.gate.riskHeader, result.RiskLevel)
		fmt.Fprintf(&stamped, "%s: %s\r\n", s.gate.reasonHeader, sanitizeHeaderValue(result.Explanation))
	}
	stamped.Write(rawData)

	if !s.gate.relayEnabled {
		return nil
	}
	if err := s.gate.relay(s.sender, s.recipients, stamped.Bytes()); err != nil {
		s.gate.logger.Error("Failed to relay message",
			zap.Error(err),
			zap.String("sender", s.sender))
		return err
	}
	return nil
}

func sanitizeHeaderValue(v string) string {
	v = strings.ReplaceAll(v, "\r", " ")
	return strings.ReplaceAll(v, "\n", " ")
}
