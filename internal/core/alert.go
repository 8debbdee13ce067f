package core

import (
	"context"
	"errors"

	"github.com/ccodesido/zentiumassist-all/pkg"
	"go.uber.org/zap"
)

// Alerter receives crisis alerts for known patients.  The chat path never
// fails because an alerter did.
type Alerter interface {
	CrisisAlert(ctx context.Context, alert pkg.CrisisAlert) error
}

// LogAlerter records crisis alerts at warning level.  It is always part of
// the alert chain.
type LogAlerter struct {
	Logger *zap.Logger
}

func (a LogAlerter) CrisisAlert(_ context.Context, alert pkg.CrisisAlert) error {
	a.Logger.Warn("crisis alert",
		zap.String("patient_id", alert.PatientID),
		zap.String("professional_id", alert.ProfessionalID),
		zap.String("message_id", alert.MessageID),
		zap.String("keyword", alert.Keyword),
		zap.String("label", alert.Label),
		zap.Time("detected_at", alert.DetectedAt),
	)
	return nil
}

// MultiAlerter fans an alert out to every alerter and joins their errors.
type MultiAlerter []Alerter

func (m MultiAlerter) CrisisAlert(ctx context.Context, alert pkg.CrisisAlert) error {
	var errs []error
	for _, a := range m {
		if err := a.CrisisAlert(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
