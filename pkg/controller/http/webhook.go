package http

import (
	"io"
	"net/http"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
)

// WebhookHandler handles push webhooks
type WebhookHandler struct {
	secret   string
	deployUC interfaces.DeployUseCase
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(secret string, deployUC interfaces.DeployUseCase) *WebhookHandler {
	return &WebhookHandler{
		secret:   secret,
		deployUC: deployUC,
	}
}

// Handle processes webhook requests. Only authenticated push events
// reach the orchestrator; everything else is acknowledged and
// discarded.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("failed to read request body", "error", err)
		writeError(w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Verification runs over the raw bytes before any parsing.
	if !VerifySignature(h.secret, body, r.Header.Get("X-Hub-Signature-256")) {
		logger.Warn("invalid webhook signature")
		writeError(w, goerr.New("invalid signature"), http.StatusUnauthorized)
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	if eventType != "push" {
		logger.Debug("ignoring non-push event", "type", eventType)
		respondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	payload, err := github.ParseWebHook(eventType, body)
	if err != nil {
		logger.Error("failed to parse webhook payload", "error", err)
		writeError(w, goerr.Wrap(err, "invalid push payload"), http.StatusBadRequest)
		return
	}
	event, ok := payload.(*github.PushEvent)
	if !ok {
		writeError(w, goerr.New("unexpected payload type"), http.StatusBadRequest)
		return
	}

	push := &model.PushNotification{
		RepoName:   event.GetRepo().GetName(),
		Ref:        event.GetRef(),
		CommitID:   event.GetAfter(),
		Pusher:     event.GetPusher().GetName(),
		ReceivedAt: time.Now(),
	}

	results, err := h.deployUC.ProcessPush(ctx, push)
	if err != nil {
		logger.Error("failed to process push event", "error", err)
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"results": results,
	})
}
