package domain

import "context"

// OTPStore keeps short-lived single-use codes keyed by subject.
type OTPStore interface {
	Issue(ctx context.Context, subject string) (string, error)
	Consume(ctx context.Context, subject, code string) error
}
