package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"shopify-oauth-layer/internal/application"
	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/infrastructure/metrics"

	"github.com/rs/zerolog"
)

// Response bodies
const (
	helloMessage           = "Hello World!"
	installSuccessMessage  = "Successfully fetched products and reviews"
	webhookSuccessMessage  = "Webhook received successfully"
	webhookFailureMessage  = "Failed to process webhook event"
	webhookTooLargeMessage = "Webhook payload too large"
)

// unknownTopicLabel replaces topics no handler accepts in metric labels
const unknownTopicLabel = "unknown"

// WebhookVerifier checks the signature of a webhook request
type WebhookVerifier interface {
	VerifyWebhook(r *http.Request) (bool, error)
}

// WebhookOptions controls how webhook deliveries are accepted
type WebhookOptions struct {
	MaxBodyBytes int64
	VerifyHMAC   bool
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, helloMessage)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// installHandler redirects the merchant to the shop's OAuth consent screen
func installHandler(svc *application.ShopifyService, m *metrics.Metrics, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authURL, err := svc.BeginInstall(r.Context(), r.URL.Query().Get("shop"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		m.InstallsStarted.Inc()
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// callbackHandler completes the OAuth handshake
func callbackHandler(svc *application.ShopifyService, m *metrics.Metrics, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		params := application.CallbackParams{
			Code:  query.Get("code"),
			Shop:  query.Get("shop"),
			State: query.Get("state"),
			Query: query,
		}

		result, err := svc.CompleteInstall(r.Context(), params)
		if err != nil {
			m.InstallsCompleted.WithLabelValues(metrics.OutcomeFailure).Inc()
			writeError(w, logger, err)
			return
		}
		m.InstallsCompleted.WithLabelValues(metrics.OutcomeSuccess).Inc()

		logger.Info().
			Str("shop", result.Shop).
			Int("products", result.ProductCount).
			Int("reviews", result.ReviewCount).
			Str("registrationTask", result.RegistrationJob).
			Msg("App installed")

		writeText(w, http.StatusOK, installSuccessMessage)
	}
}

// webhookHandler receives Shopify webhook deliveries
func webhookHandler(
	svc *application.ShopifyService,
	dispatcher *application.WebhookDispatcher,
	verifier WebhookVerifier,
	opts WebhookOptions,
	m *metrics.Metrics,
	logger zerolog.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		topic := r.Header.Get("X-Shopify-Topic")
		if topic == "" {
			topic = domain.TopicOrdersCreate
		}
		shop := r.Header.Get("X-Shopify-Shop-Domain")

		// Topic labels come from verified requests for handled topics only, so
		// unauthenticated callers cannot add metric series
		status := http.StatusOK
		metricTopic := unknownTopicLabel
		defer func() {
			m.WebhooksReceived.WithLabelValues(metricTopic, statusClass(status)).Inc()
		}()

		// Read the whole body first so oversized deliveries are refused before
		// any signature work
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, opts.MaxBodyBytes))
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				logger.Warn().Str("topic", topic).Str("shop", shop).Int64("limit", maxErr.Limit).Msg("Webhook payload too large")
				status = http.StatusRequestEntityTooLarge
				http.Error(w, webhookTooLargeMessage, status)
				return
			}
			logger.Error().Err(err).Msg("Failed to read webhook payload")
			status = http.StatusBadRequest
			http.Error(w, "Failed to read request body", status)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(payload))

		verified := false
		if opts.VerifyHMAC {
			ok, err := verifier.VerifyWebhook(r)
			if err != nil || !ok {
				status = writeError(w, logger, errors.Join(domain.ErrInvalidSignature, err))
				return
			}
			verified = true
		}
		if dispatcher.CanHandle(topic) {
			metricTopic = topic
		}

		if !json.Valid(payload) {
			status = writeError(w, logger, fmt.Errorf("%w: malformed JSON for topic %s", domain.ErrPayloadParse, topic))
			return
		}

		event := svc.ProcessWebhook(ctx, topic, shop, payload, verified)

		if err := dispatcher.Dispatch(ctx, event); err != nil {
			if errors.Is(err, domain.ErrPayloadParse) {
				status = writeError(w, logger, err)
				return
			}
			logger.Error().
				Err(err).
				Str("eventId", event.ID).
				Str("topic", topic).
				Str("shop", shop).
				Msg("Failed to dispatch webhook event")

			// Return 500 to trigger Shopify retry
			status = http.StatusInternalServerError
			http.Error(w, webhookFailureMessage, status)
			return
		}

		writeText(w, http.StatusOK, webhookSuccessMessage)
	}
}

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}
