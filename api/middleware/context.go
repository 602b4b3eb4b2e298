package middleware

import "context"

type contextKey string

const (
	ctxUserID        contextKey = "user_id"
	ctxRole          contextKey = "role"
	ctxEmployeeType  contextKey = "employee_type"
	ctxAuthenticated contextKey = "authenticated"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func EmployeeTypeFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxEmployeeType).(string); ok {
		return v
	}
	return ""
}

// IsAuthenticated reports whether Auth or OptionalAuth established an
// identity for this request.
func IsAuthenticated(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, ok := ctx.Value(ctxAuthenticated).(bool)
	return ok && v
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxAuthenticated, true)
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// WithEmployeeType injects the employee subtype into the context.
func WithEmployeeType(ctx context.Context, employeeType string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxEmployeeType, employeeType)
}
