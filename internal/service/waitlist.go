package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sourzer/sourzer-web/internal/metrics"
)

// WaitlistAPI posts sign-ups to the external waitlist endpoint.
// *apiclient.Client satisfies it.
type WaitlistAPI interface {
	JoinWaitlist(ctx context.Context, payload domain.WaitlistPayload) domain.SubmissionResult[json.RawMessage]
}

// WaitlistService turns a validated waitlist form into the payload the
// external endpoint expects.
type WaitlistService struct {
	api                WaitlistAPI
	defaultCountryCode string
	defaultRegChannel  string
	logger             *slog.Logger
}

// NewWaitlistService creates a new WaitlistService. Empty defaults fall back
// to domain.DefaultWaitlistCountryCode and domain.DefaultWaitlistRegChannel.
func NewWaitlistService(api WaitlistAPI, defaultCountryCode, defaultRegChannel string, logger *slog.Logger) *WaitlistService {
	return &WaitlistService{
		api:                api,
		defaultCountryCode: defaultCountryCode,
		defaultRegChannel:  defaultRegChannel,
		logger:             logger,
	}
}

// Join sends one sign-up.
func (s *WaitlistService) Join(ctx context.Context, sub domain.WaitlistSubmission) domain.SubmissionResult[json.RawMessage] {
	payload := sub.Payload(s.defaultCountryCode, s.defaultRegChannel)
	res := s.api.JoinWaitlist(ctx, payload)
	if res.OK {
		metrics.WaitlistSignups.Inc()
		s.logger.Info("waitlist sign-up", "country_code", payload.CountryCode, "reg_channel", payload.RegChannel)
	}
	return res
}
