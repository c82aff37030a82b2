package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/valentine-be/internal/auth"
	"github.com/hongminglow/valentine-be/internal/storage/postgres"
)

// TestAuthIntegration exercises the signup/login/flow endpoints against a live Postgres.
func TestAuthIntegration(t *testing.T) {
	if os.Getenv("RUN_AUTH_INTEGRATION") != "true" {
		t.Skip("set RUN_AUTH_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	store, err := postgres.NewUserStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	defer store.Close()

	mux := newTestMux(t, auth.ModeEnforced, store)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	username := fmt.Sprintf("apitest_%d", time.Now().UnixNano())
	password := fmt.Sprintf("Pass!%d", time.Now().UnixNano())

	if status := post(t, ts.URL+"/signup", "", map[string]string{"username": username, "password": password}, nil); status != http.StatusCreated {
		t.Fatalf("signup status = %d", status)
	}
	if status := post(t, ts.URL+"/signup", "", map[string]string{"username": username, "password": "other"}, nil); status != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d", status)
	}

	var loggedIn struct {
		Data loginData `json:"data"`
	}
	if status := post(t, ts.URL+"/login", "", map[string]string{"username": username, "password": password}, &loggedIn); status != http.StatusOK {
		t.Fatalf("login status = %d", status)
	}
	if strings.TrimSpace(loggedIn.Data.Token) == "" {
		t.Fatal("login response missing token")
	}
	if loggedIn.Data.State.Screen != "buildup" {
		t.Fatalf("screen after login = %q", loggedIn.Data.State.Screen)
	}

	if status := post(t, ts.URL+"/login", "", map[string]string{"username": username, "password": "nope"}, nil); status != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", status)
	}

	var next struct {
		Data stateView `json:"data"`
	}
	if status := post(t, ts.URL+"/flow/trigger", loggedIn.Data.Token, map[string]string{"trigger": "ready"}, &next); status != http.StatusOK {
		t.Fatalf("trigger status = %d", status)
	}
	if next.Data.Screen != "proposal" {
		t.Fatalf("screen after ready = %q", next.Data.Screen)
	}

	t.Logf("created user %s and walked to the proposal screen", username)
}

func post(t *testing.T, url, token string, payload, out any) int {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
		"../../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
