package intake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/mikey/llm-email-assistant/internal/config"
	"github.com/mikey/llm-email-assistant/internal/core"
	"github.com/mikey/llm-email-assistant/internal/ports"
	"github.com/mikey/llm-email-assistant/internal/sender"
	"go.uber.org/zap"
)

// deliverFunc hands a message to the next hop
type deliverFunc func(from string, to []string, data []byte) error

var headerValueCleaner = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// SMTPIntake is an SMTP content filter. Each message is run through the
// assistant, tagged with the outcome in X-Assistant-* headers and relayed to
// the downstream MTA. Optionally the drafted reply is sent as well.
type SMTPIntake struct {
	assistant ports.Assistant
	logger    *zap.Logger
	cfg       config.ServerConfig
	server    *smtp.Server
	listener  net.Listener
	deliver   deliverFunc
	now       func() time.Time
}

// NewSMTPIntake creates a new SMTP intake
func NewSMTPIntake(assistant ports.Assistant, logger *zap.Logger, cfg config.ServerConfig) *SMTPIntake {
	in := &SMTPIntake{
		assistant: assistant,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
	in.deliver = in.sendToRelay
	return in
}

// Start binds the listen address and serves SMTP in the background
func (in *SMTPIntake) Start() error {
	in.server = smtp.NewServer(&smtpBackend{intake: in})

	// Configure the server
	in.server.Addr = in.cfg.ListenAddress
	in.server.Domain = in.cfg.Domain
	in.server.ReadTimeout = 30 * time.Second
	in.server.WriteTimeout = 30 * time.Second
	in.server.MaxMessageBytes = in.cfg.MaxMessageBytes
	in.server.MaxRecipients = 50

	ln, err := net.Listen("tcp", in.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", in.cfg.ListenAddress, err)
	}
	in.listener = ln

	in.logger.Info("SMTP intake starting",
		zap.String("address", ln.Addr().String()),
		zap.Bool("relay_enabled", in.cfg.Relay.Enabled),
		zap.Bool("send_replies", in.cfg.SendReplies))

	go func() {
		if err := in.server.Serve(ln); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			in.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound listen address once started
func (in *SMTPIntake) Addr() string {
	if in.listener == nil {
		return in.cfg.ListenAddress
	}
	return in.listener.Addr().String()
}

// Stop stops the SMTP intake
func (in *SMTPIntake) Stop() error {
	if in.server != nil {
		return in.server.Close()
	}
	return nil
}

// handleMessage processes one received message and delivers the result.
// Processing failures never bounce the message: it is relayed untouched
// apart from an error header.
func (in *SMTPIntake) handleMessage(from string, recipients []string, raw []byte) error {
	logger := in.logger.With(zap.String("sender", from), zap.String("sender_domain", sender.Domain(from)))

	var result *core.ProcessingResult
	record, msg, err := parseRecord(raw, from, recipients)
	if err == nil {
		result, err = in.process(record)
	}
	if err != nil {
		logger.Error("Failed to process email", zap.Error(err))
	}

	annotated := in.annotate(raw, result, err)

	if in.cfg.Relay.Enabled {
		if err := in.deliver(from, recipients, annotated); err != nil {
			logger.Error("Failed to relay email", zap.Error(err))
			return err
		}
	} else {
		logger.Warn("Relay disabled, processed message is not forwarded")
	}

	if result == nil {
		return nil
	}

	logger.Info("Processed email",
		zap.String("intent", string(result.Classification.Intent)),
		zap.String("sentiment", string(result.Classification.Sentiment)),
		zap.Bool("escalate", result.Escalation.Escalate),
		zap.String("reason", result.Escalation.Reason))

	if in.cfg.SendReplies {
		if result.Escalation.Escalate {
			logger.Info("Reply held for human review", zap.String("reason", result.Escalation.Reason))
		} else if err := in.sendReply(result, msg.Header.Get("Message-ID")); err != nil {
			// The original message was already relayed, so this is not fatal
			logger.Error("Failed to send reply", zap.Error(err))
		}
	}

	return nil
}

// process runs the assistant, bounded by the configured processing timeout
func (in *SMTPIntake) process(record *core.EmailRecord) (*core.ProcessingResult, error) {
	ctx := context.Background()
	if in.cfg.ProcessTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.cfg.ProcessTimeout)
		defer cancel()
	}
	return in.assistant.Process(ctx, record, core.ProcessOptions{})
}

// annotate prepends the assistant headers to the raw message, leaving the
// original headers and body byte for byte intact
func (in *SMTPIntake) annotate(raw []byte, result *core.ProcessingResult, procErr error) []byte {
	h := in.cfg.Headers
	var buf bytes.Buffer

	if result != nil {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.Intent, result.Classification.Intent)
		fmt.Fprintf(&buf, "%s: %s\r\n", h.Sentiment, result.Classification.Sentiment)
		fmt.Fprintf(&buf, "%s: %t\r\n", h.Escalate, result.Escalation.Escalate)
		if result.Escalation.Reason != "" {
			fmt.Fprintf(&buf, "%s: %s\r\n", h.Reason, headerValueCleaner.Replace(result.Escalation.Reason))
		}
	}
	if procErr != nil {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.Error, headerValueCleaner.Replace(procErr.Error()))
	}

	buf.Write(raw)
	return buf.Bytes()
}

// sendReply composes the drafted reply and submits it through the relay
func (in *SMTPIntake) sendReply(result *core.ProcessingResult, inReplyTo string) error {
	reply := result.Reply
	from := sender.Normalize(reply.From)
	to := sender.Split(reply.To)
	if from == "" || len(to) == 0 {
		return fmt.Errorf("reply has no usable addresses")
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", reply.From)
	fmt.Fprintf(&buf, "To: %s\r\n", reply.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", reply.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", in.now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Message-ID: <%s@%s>\r\n", uuid.NewString(), in.cfg.Domain)
	if inReplyTo != "" {
		fmt.Fprintf(&buf, "In-Reply-To: %s\r\n", inReplyTo)
		fmt.Fprintf(&buf, "References: %s\r\n", inReplyTo)
	}
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	buf.WriteString("\r\n")
	body := strings.ReplaceAll(strings.ReplaceAll(reply.Body, "\r\n", "\n"), "\n", "\r\n")
	buf.WriteString(body)
	buf.WriteString("\r\n")

	if err := in.deliver(from, to, buf.Bytes()); err != nil {
		return err
	}
	in.logger.Info("Reply sent", zap.String("to", reply.To), zap.String("subject", reply.Subject))
	return nil
}

// sendToRelay sends a message to the downstream MTA using go-smtp
func (in *SMTPIntake) sendToRelay(from string, recipients []string, data []byte) error {
	relayAddr := net.JoinHostPort(in.cfg.Relay.Address, fmt.Sprint(in.cfg.Relay.Port))

	// Get hostname for EHLO
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	// Connect to the server with a timeout
	conn, err := net.DialTimeout("tcp", relayAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}

	// Set a deadline for the connection
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			in.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// The message is already accepted
		in.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	intake *SMTPIntake
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{intake: b.intake}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	intake     *SMTPIntake
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
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

// Data reads the message and hands it to the intake
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.intake.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}
	if err := s.intake.handleMessage(s.sender, s.recipients, raw); err != nil {
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 4, 1},
			Message:      "Temporary failure relaying message",
		}
	}
	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
