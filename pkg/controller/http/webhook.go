package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mooring/pkg/domain/interfaces"
	"github.com/m-mizutani/mooring/pkg/domain/model"
	"github.com/m-mizutani/mooring/pkg/domain/types"
)

// WebhookHandler handles GitHub webhooks
type WebhookHandler struct {
	secret    string
	noVerify  bool
	webhookUC interfaces.WebhookUseCase
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(secret string, noVerify bool, webhookUC interfaces.WebhookUseCase) *WebhookHandler {
	return &WebhookHandler{
		secret:    secret,
		noVerify:  noVerify,
		webhookUC: webhookUC,
	}
}

// Handle processes webhook requests
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	// Read payload
	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("Failed to read request body", "error", err)
		writeError(w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Verify signature
	signature := r.Header.Get(types.HeaderSignature)
	if !h.verifySignature(body, signature) {
		logger.Warn("Invalid webhook signature")
		writeError(w, goerr.New("invalid signature"), http.StatusUnauthorized)
		return
	}

	deliveryID := r.Header.Get(types.HeaderDelivery)
	if deliveryID == "" {
		logger.Warn("Missing delivery identifier")
		writeError(w, goerr.New("missing delivery identifier"), http.StatusBadRequest)
		return
	}

	// Parse event using GitHub SDK
	eventType := r.Header.Get(types.HeaderEvent)
	payload, err := github.ParseWebHook(eventType, body)
	if err != nil {
		logger.Error("Failed to parse webhook payload", "error", err)
		writeError(w, goerr.Wrap(err, "invalid JSON payload"), http.StatusBadRequest)
		return
	}

	// Build the typed event. Unrecognized shapes fail closed to an
	// unknown event, which the pipeline ignores.
	receivedAt := time.Now()
	var event *model.WebhookEvent
	switch e := payload.(type) {
	case *github.PushEvent:
		event = model.FromPushEvent(deliveryID, e, receivedAt)
	case *github.PullRequestEvent:
		event = model.FromPullRequestEvent(deliveryID, e, receivedAt)
	default:
		event = &model.WebhookEvent{
			ID:         deliveryID,
			Type:       model.EventTypeUnknown,
			ReceivedAt: receivedAt,
		}
	}

	// Process event via UseCase
	result, err := h.webhookUC.ProcessEvent(ctx, event)
	if err != nil {
		logger.Error("Failed to process webhook event", "error", err)
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	// Duplicate deliveries respond with success: the original processing
	// already succeeded and the source must not retry.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": string(result.Status),
	}); err != nil {
		logger.Error("Failed to encode success response", "error", err)
	}
}

// verifySignature verifies the webhook signature. With no secret configured
// the handler fails closed unless the explicit no-verify mode is enabled.
func (h *WebhookHandler) verifySignature(payload []byte, signature string) bool {
	if h.noVerify {
		return true
	}
	if h.secret == "" || signature == "" {
		return false
	}

	// Remove "sha256=" prefix if present
	signature = strings.TrimPrefix(signature, "sha256=")

	// Calculate HMAC-SHA256
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(payload)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedMAC))
}
