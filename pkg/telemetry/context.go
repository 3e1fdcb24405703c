package telemetry

import (
	"context"
)

type requestContextName string

const (
	methodContextName requestContextName = "method"
	routeContextName  requestContextName = "route"
)

// RequestInfo holds the HTTP method and matched route pattern of a request.
type RequestInfo struct {
	Method string
	Route  string
}

// ContextWithRequestInfo saves the request method and route in context.
func ContextWithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	ctx = context.WithValue(ctx, methodContextName, info.Method)
	return context.WithValue(ctx, routeContextName, info.Route)
}

func getContextInfo(ctx context.Context, key requestContextName) string {
	stringVal, ok := ctx.Value(key).(string)
	if !ok {
		stringVal = "unknown"
	}
	return stringVal
}

// RequestInfoFromContext returns the method and route stored in context.
func RequestInfoFromContext(ctx context.Context) RequestInfo {
	return RequestInfo{
		Method: getContextInfo(ctx, methodContextName),
		Route:  getContextInfo(ctx, routeContextName),
	}
}
