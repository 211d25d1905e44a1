package bankapi

import "context"

// RequestOptions are per-request flags read by the interceptors.
type RequestOptions struct {
	// SkipErrorNotification keeps the classifier from notifying about
	// 400, 403 and 500 answers. Screens that render their own inline
	// errors set it.
	SkipErrorNotification bool
	// SkipAuthExpiry keeps a 401 from forcing logout. Set on calls to
	// authentication endpoints, where 401 means bad credentials.
	SkipAuthExpiry bool
}

type requestOptionsKey struct{}

// WithRequestOptions attaches opts to every request sent with ctx.
func WithRequestOptions(ctx context.Context, opts RequestOptions) context.Context {
	return context.WithValue(ctx, requestOptionsKey{}, opts)
}

// OptionsFrom returns the options attached to ctx, or the zero value.
func OptionsFrom(ctx context.Context) RequestOptions {
	if ctx == nil {
		return RequestOptions{}
	}
	opts, _ := ctx.Value(requestOptionsKey{}).(RequestOptions)
	return opts
}

// authEndpoint marks ctx as a call to an authentication endpoint.
func authEndpoint(ctx context.Context) context.Context {
	return WithRequestOptions(ctx, RequestOptions{
		SkipErrorNotification: true,
		SkipAuthExpiry:        true,
	})
}
