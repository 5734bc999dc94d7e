// Package calendar holds the external calendar adapters. Each adapter turns a
// provider's event listing into availability.ExternalEvent values for one
// connection and time range.
package calendar

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"availability-service/internal/availability"
)

const busySummary = "Busy"

type Options struct {
	// GoogleEndpoint and GraphEndpoint replace the public API base URLs.
	GoogleEndpoint string
	GraphEndpoint  string
	// Transport is the base round tripper; http.DefaultTransport when nil.
	Transport http.RoundTripper
	// Attempts bounds tries per request, including the first.
	Attempts int
	Logger   *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Transport == nil {
		o.Transport = http.DefaultTransport
	}
	if o.Attempts < 1 {
		o.Attempts = 1
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Adapters returns one adapter per supported provider.
func Adapters(opts Options) map[availability.Provider]availability.CalendarAdapter {
	return map[availability.Provider]availability.CalendarAdapter{
		availability.ProviderGoogle:    NewGoogle(opts),
		availability.ProviderMicrosoft: NewOutlook(opts),
		availability.ProviderApple:     NewApple(opts),
	}
}

// bearerClient authenticates every request with the connection's stored
// access token. Refreshing tokens is the job of whoever stores them.
func bearerClient(token string, base http.RoundTripper) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   otelhttp.NewTransport(base),
		},
	}
}

func summaryOrBusy(s string) string {
	if s == "" {
		return busySummary
	}
	return s
}
