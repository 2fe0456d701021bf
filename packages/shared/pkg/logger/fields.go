package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	LeaseIDContextKey    contextKey = "lease.id"
	AccountIDContextKey  contextKey = "account.id"
	TemplateIDContextKey contextKey = "template.id"
	UserEmailContextKey  contextKey = "user.email"
)

func WithContextLeaseID(ctx context.Context, leaseID string) context.Context {
	return context.WithValue(ctx, LeaseIDContextKey, leaseID)
}

func WithContextAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, AccountIDContextKey, accountID)
}

func WithContextUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, UserEmailContextKey, email)
}

func stringFromContext(ctx context.Context, key contextKey) *string {
	value, ok := ctx.Value(key).(string)
	if !ok {
		return nil
	}

	return &value
}

func WithLeaseID(leaseID string) zap.Field {
	return zap.String(string(LeaseIDContextKey), leaseID)
}

func WithAccountID(accountID string) zap.Field {
	return zap.String(string(AccountIDContextKey), accountID)
}

func WithTemplateID(templateID string) zap.Field {
	return zap.String(string(TemplateIDContextKey), templateID)
}

func WithUserEmail(email string) zap.Field {
	return zap.String(string(UserEmailContextKey), email)
}

func WithEventType(eventType string) zap.Field {
	return zap.String("event.type", eventType)
}

func WithServiceInstanceID(instanceID string) zap.Field {
	return zap.String("service.instance.id", instanceID)
}

func FieldsFromContext(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}

	var attrs []zap.Field

	if leaseID := stringFromContext(ctx, LeaseIDContextKey); leaseID != nil {
		attrs = append(attrs, WithLeaseID(*leaseID))
	}

	if accountID := stringFromContext(ctx, AccountIDContextKey); accountID != nil {
		attrs = append(attrs, WithAccountID(*accountID))
	}

	if email := stringFromContext(ctx, UserEmailContextKey); email != nil {
		attrs = append(attrs, WithUserEmail(*email))
	}

	return attrs
}
