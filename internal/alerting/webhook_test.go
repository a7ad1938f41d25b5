package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/helm-preview/helm-preview/internal/model"
)

func TestWebhookSender_Name(t *testing.T) {
	cfg := &WebhookConfig{
		URL: "https://example.com/webhook",
	}
	sender := NewWebhookSender(cfg)
	if sender.Name() != "webhook" {
		t.Errorf("WebhookSender.Name() = %s, want webhook", sender.Name())
	}
}

func TestWebhookSender_Send(t *testing.T) {
	var received map[string]interface{}
	var receivedHeaders http.Header
	var receivedMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeaders = r.Header
		receivedMethod = r.Method
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &WebhookConfig{
		URL: server.URL,
		Headers: map[string]string{
			"Authorization":   "Bearer test-token",
			"X-Custom-Header": "custom-value",
		},
	}
	sender := NewWebhookSender(cfg)

	err := sender.Send(context.Background(), testNotification(model.SeverityDanger))
	if err != nil {
		t.Fatalf("WebhookSender.Send() error = %v", err)
	}

	if received == nil {
		t.Fatal("No payload received")
	}
	if received["release"] != "web" {
		t.Errorf("release = %v, want web", received["release"])
	}
	if received["max_severity"] != "danger" {
		t.Errorf("max_severity = %v, want danger", received["max_severity"])
	}
	report, ok := received["report"].(map[string]interface{})
	if !ok {
		t.Fatalf("report = %v, want an object", received["report"])
	}
	if _, ok := report["summary"].(map[string]interface{}); !ok {
		t.Errorf("report.summary = %v, want an object", report["summary"])
	}
	if resources, ok := report["resources"].([]interface{}); !ok || len(resources) == 0 {
		t.Errorf("report.resources = %v, want a non-empty list", report["resources"])
	}
	if receivedMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", receivedMethod)
	}

	if receivedHeaders.Get("Authorization") != "Bearer test-token" {
		t.Error("Authorization header not set correctly")
	}
	if receivedHeaders.Get("X-Custom-Header") != "custom-value" {
		t.Error("X-Custom-Header not set correctly")
	}
	if receivedHeaders.Get("Content-Type") != "application/json" {
		t.Error("Content-Type header not set correctly")
	}
}

func TestWebhookSender_CustomMethod(t *testing.T) {
	var receivedMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sender := NewWebhookSender(&WebhookConfig{URL: server.URL, Method: http.MethodPut})
	if err := sender.Send(context.Background(), testNotification(model.SeverityWarning)); err != nil {
		t.Fatalf("WebhookSender.Send() error = %v", err)
	}
	if receivedMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", receivedMethod)
	}
}

func TestWebhookSender_Send_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	sender := NewWebhookSender(&WebhookConfig{URL: server.URL})
	err := sender.Send(context.Background(), testNotification(model.SeverityWarning))
	if err == nil {
		t.Fatal("WebhookSender.Send() should return error on 500 status")
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "upstream unavailable") {
		t.Errorf("error = %v, want status and body", err)
	}
}

func TestWebhookSender_Send_InvalidURL(t *testing.T) {
	sender := NewWebhookSender(&WebhookConfig{URL: "http://invalid-url-that-does-not-exist.local"})
	if err := sender.Send(context.Background(), testNotification(model.SeverityWarning)); err == nil {
		t.Error("WebhookSender.Send() should return error for invalid URL")
	}
}
