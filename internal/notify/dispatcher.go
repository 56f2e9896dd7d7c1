package notify

import (
	"context"
	"errors"
	"fmt"

	appmetrics "github.com/jhon-henao13/Fixly/prometheus"
	"go.uber.org/zap"
)

var (
	// ErrUnknownTemplate is returned for template names with no definition
	ErrUnknownTemplate = errors.New("unknown notification template")

	// ErrNotificationFailed wraps every delivery failure
	ErrNotificationFailed = errors.New("notification failed")
)

// Dispatcher renders templates and hands them to the configured senders
type Dispatcher struct {
	mail   Sender
	sms    SMSSender
	from   string
	logger *zap.Logger
}

// NewDispatcher creates a Dispatcher. A nil sender falls back to logging.
func NewDispatcher(mail Sender, sms SMSSender, from string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mail == nil {
		mail = NewLogSender(logger)
	}
	if sms == nil {
		sms = NewLogSender(logger)
	}
	return &Dispatcher{mail: mail, sms: sms, from: from, logger: logger}
}

// Notify emails address using the named template
func (d *Dispatcher) Notify(ctx context.Context, address, name string, data any) error {
	if address == "" {
		return nil
	}
	r, err := Render(name, data)
	if err != nil {
		return err
	}

	err = d.mail.Send(ctx, Message{
		From:    d.from,
		To:      address,
		Subject: r.Subject,
		Text:    r.Text,
	})
	if err != nil {
		appmetrics.RecordNotificationFailure("email")
		return fmt.Errorf("%w: email to %s: %v", ErrNotificationFailed, address, err)
	}

	d.logger.Debug("Email sent", zap.String("template", name), zap.String("to", address))
	return nil
}

// NotifySMS texts phone using the named template
func (d *Dispatcher) NotifySMS(ctx context.Context, phone, name string, data any) error {
	if phone == "" {
		return nil
	}
	r, err := Render(name, data)
	if err != nil {
		return err
	}

	if err := d.sms.SendSMS(ctx, phone, r.SMS); err != nil {
		appmetrics.RecordNotificationFailure("sms")
		return fmt.Errorf("%w: sms to %s: %v", ErrNotificationFailed, phone, err)
	}

	d.logger.Debug("SMS sent", zap.String("template", name), zap.String("to", phone))
	return nil
}
