package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	controller "github.com/m-mizutani/stevedore/pkg/controller/http"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
)

type fakeDeployUseCase struct {
	results []model.DeploymentResult
	err     error
	calls   []*model.PushNotification
}

func (f *fakeDeployUseCase) ProcessPush(ctx context.Context, push *model.PushNotification) ([]model.DeploymentResult, error) {
	f.calls = append(f.calls, push)
	return f.results, f.err
}

const pushPayload = `{
	"ref": "refs/heads/main",
	"after": "0123456789abcdef",
	"repository": {"name": "svc", "full_name": "acme/svc"},
	"pusher": {"name": "alice"}
}`

func TestWebhookHandler_ValidPush(t *testing.T) {
	secret := "test-secret"
	uc := &fakeDeployUseCase{
		results: []model.DeploymentResult{
			model.NewDeploymentResult("svc", "main", true, "ok"),
		},
	}
	handler := controller.NewWebhookHandler(secret, uc)

	body := []byte(pushPayload)
	req := httptest.NewRequest(http.MethodPost, "/hooks/push", bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", sign(secret, body))
	req.Header.Set("X-GitHub-Event", "push")
	w := httptest.NewRecorder()

	handler.Handle(w, req)

	gt.Number(t, w.Code).Equal(http.StatusOK)
	gt.Number(t, len(uc.calls)).Equal(1)

	push := uc.calls[0]
	gt.Value(t, push.RepoName).Equal("svc")
	gt.Value(t, push.Ref).Equal("refs/heads/main")
	gt.Value(t, push.CommitID).Equal("0123456789abcdef")
	gt.Value(t, push.Pusher).Equal("alice")

	var resp struct {
		Status  string                   `json:"status"`
		Results []model.DeploymentResult `json:"results"`
	}
	gt.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	gt.Value(t, resp.Status).Equal("ok")
	gt.Number(t, len(resp.Results)).Equal(1)
	gt.Value(t, resp.Results[0].Repository).Equal("svc")
}

func TestWebhookHandler_InvalidSignature(t *testing.T) {
	uc := &fakeDeployUseCase{}
	handler := controller.NewWebhookHandler("test-secret", uc)

	body := []byte(pushPayload)
	req := httptest.NewRequest(http.MethodPost, "/hooks/push", bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
	req.Header.Set("X-GitHub-Event", "push")
	w := httptest.NewRecorder()

	handler.Handle(w, req)

	gt.Number(t, w.Code).Equal(http.StatusUnauthorized)
	// Rejection must have no side effects.
	gt.Number(t, len(uc.calls)).Equal(0)
}

func TestWebhookHandler_MissingSignature(t *testing.T) {
	uc := &fakeDeployUseCase{}
	handler := controller.NewWebhookHandler("test-secret", uc)

	body := []byte(pushPayload)
	req := httptest.NewRequest(http.MethodPost, "/hooks/push", bytes.NewReader(body))
	req.Header.Set("X-GitHub-Event", "push")
	w := httptest.NewRecorder()

	handler.Handle(w, req)

	gt.Number(t, w.Code).Equal(http.StatusUnauthorized)
	gt.Number(t, len(uc.calls)).Equal(0)
}

func TestWebhookHandler_NonPushEventIgnored(t *testing.T) {
	secret := "test-secret"
	uc := &fakeDeployUseCase{}
	handler := controller.NewWebhookHandler(secret, uc)

	body := []byte(`{"zen": "Keep it logically awesome."}`)
	req := httptest.NewRequest(http.MethodPost, "/hooks/push", bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", sign(secret, body))
	req.Header.Set("X-GitHub-Event", "ping")
	w := httptest.NewRecorder()

	handler.Handle(w, req)

	gt.Number(t, w.Code).Equal(http.StatusOK)
	gt.Number(t, len(uc.calls)).Equal(0)

	var resp map[string]string
	gt.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	gt.Value(t, resp["status"]).Equal("ignored")
}

func TestWebhookHandler_MalformedPayload(t *testing.T) {
	secret := "test-secret"
	uc := &fakeDeployUseCase{}
	handler := controller.NewWebhookHandler(secret, uc)

	body := []byte(`{not json`)
	req := httptest.NewRequest(http.MethodPost, "/hooks/push", bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", sign(secret, body))
	req.Header.Set("X-GitHub-Event", "push")
	w := httptest.NewRecorder()

	handler.Handle(w, req)

	gt.Number(t, w.Code).Equal(http.StatusBadRequest)
	gt.Number(t, len(uc.calls)).Equal(0)
}
