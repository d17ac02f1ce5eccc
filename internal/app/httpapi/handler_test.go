package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	app "github.com/NeoReef/game-backend/internal/app"
	"github.com/NeoReef/game-backend/pkg/logger"
)

const owner = "0x00112233445566778899aabbccddeeff00112233"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	application, err := app.New(app.Stores{}, nil, logger.NewDefault("test"))
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	srv := httptest.NewServer(NewHandler(application, logger.NewDefault("test")))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestRegisterAndGetPlayer(t *testing.T) {
	srv := newServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/players/register", map[string]string{"address": owner})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d: %v", resp.StatusCode, body)
	}
	if body["address"] != owner {
		t.Fatalf("unexpected body %v", body)
	}
	// Registration mints the starter pack.
	if body["fish_count"].(float64) != 2 {
		t.Fatalf("expected fish_count 2, got %v", body["fish_count"])
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/players/"+owner, nil)
	if resp.StatusCode != http.StatusOK || body["address"] != owner {
		t.Fatalf("get status %d body %v", resp.StatusCode, body)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	srv := newServer(t)

	// Validation -> 400
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/players/register", map[string]string{"address": "nope"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad address: %d", resp.StatusCode)
	}

	// Not found -> 404
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/players/"+owner, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown player: %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/fish/999", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown fish: %d", resp.StatusCode)
	}

	// Conflict -> 409
	if resp, _ := doJSON(t, http.MethodPost, srv.URL+"/players/register", map[string]string{"address": owner}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/players/"+owner+"/starter-pack", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second starter pack: %d", resp.StatusCode)
	}
}

func TestFeedAndInspectFish(t *testing.T) {
	srv := newServer(t)

	if resp, _ := doJSON(t, http.MethodPost, srv.URL+"/players/register", map[string]string{"address": owner}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: %d", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/fish/feed", map[string]any{
		"owner":    owner,
		"fish_ids": []int64{1, 2},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("feed status %d: %v", resp.StatusCode, body)
	}
	if body["xp_per_fish"].(float64) != 10 {
		t.Fatalf("expected base xp without decorations, got %v", body["xp_per_fish"])
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/fish/1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get fish status %d", resp.StatusCode)
	}
	if body["xp"].(float64) != 10 || body["state"] != "Baby" {
		t.Fatalf("unexpected fish view %v", body)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/fish/1/family-tree", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("family tree status %d", resp.StatusCode)
	}
	ancestors, ok := body["ancestors"].([]any)
	if !ok || len(ancestors) != 1 {
		t.Fatalf("expected self-only ancestry, got %v", body)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newServer(t)

	for _, path := range []string{"/health", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status %d", path, resp.StatusCode)
		}
	}
}

func TestInvalidPathID(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(fmt.Sprintf("%s/tanks/abc", srv.URL))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", resp.StatusCode)
	}
}
