package handler

import (
	"context"
	"net/http"
	"testing"

	"docbuilder/internal/domain"
	"docbuilder/internal/infra/compliance"
)

func TestIntegrationHandler_ListRemote(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/v1/integration/templates", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusOK, rr.Code, rr.Body.String())
	}
	var res compliance.ListResult
	decode(t, rr, &res)
	if !res.Success || len(res.Templates) != 1 {
		t.Fatalf("unexpected listing %+v", res)
	}
	if res.Templates[0].Name != "Fire Check" || res.Templates[0].Category != "Inspection" {
		t.Errorf("unexpected remote template %+v", res.Templates[0])
	}
}

func TestIntegrationHandler_PullAndPush(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/integration/templates/remote-1/pull", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("pull: expected status %d, got %d (%s)", http.StatusCreated, rr.Code, rr.Body.String())
	}
	var pulled domain.Template
	decode(t, rr, &pulled)
	if pulled.Name != "Fire Check (Imported)" || pulled.SourceTemplateID != "remote-1" {
		t.Fatalf("unexpected pulled template %+v", pulled)
	}
	if pulled.ID == "remote-1" {
		t.Errorf("expected a fresh local id")
	}
	if _, err := env.storage.GetTemplate(context.Background(), pulled.ID); err != nil {
		t.Fatalf("expected the pulled template to be stored: %v", err)
	}

	rr = env.do(http.MethodPost, "/api/v1/templates/"+pulled.ID+"/push", `{}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("push: expected status %d, got %d (%s)", http.StatusOK, rr.Code, rr.Body.String())
	}
	var pushed map[string]interface{}
	decode(t, rr, &pushed)
	if pushed["success"] != true {
		t.Errorf("unexpected push response %v", pushed)
	}

	if rr = env.do(http.MethodPost, "/api/v1/templates/missing/push", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("push missing: expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}
