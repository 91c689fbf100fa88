package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vton/internal/catalog"
	"vton/internal/credentials"
	"vton/internal/http/handlers"
	"vton/internal/http/httpapi"
	"vton/internal/shop"
	"vton/internal/vton"
)

type stubCodec struct {
	mu   sync.Mutex
	urls []string
}

func (s *stubCodec) EncodeFromURL(ctx context.Context, url string) (string, error) {
	s.mu.Lock()
	s.urls = append(s.urls, url)
	s.mu.Unlock()
	return "data:image/jpeg;base64,encoded-" + url, nil
}

func (s *stubCodec) EncodeFromFile(filename, mediaType string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return "data:image/jpeg;base64,encoded-" + filename, nil
}

type stubGenerator struct{}

func (stubGenerator) Submit(ctx context.Context, subjectImage string, garments []vton.GarmentInput) (string, error) {
	return "data:image/jpeg;base64,generated", nil
}

func newTestServer(t *testing.T) (*httptest.Server, *handlers.App) {
	t.Helper()

	db, err := catalog.Open(filepath.Join(t.TempDir(), "shop.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := zerolog.Nop()
	store, err := catalog.NewStore(db, logger)
	if err != nil {
		t.Fatalf("init catalog: %v", err)
	}
	creds, err := credentials.NewStore(db)
	if err != nil {
		t.Fatalf("init credentials: %v", err)
	}
	gate := credentials.NewGate(creds, logger)

	codec := &stubCodec{}
	app := &handlers.App{
		Catalog:     store,
		Cart:        shop.NewCart(),
		Selection:   shop.NewSelection(),
		Credentials: creds,
		Gate:        gate,
		Codec:       codec,
		Sessions: vton.NewManager(vton.MachineOptions{
			Generator:      stubGenerator{},
			Encoder:        codec,
			Logger:         logger,
			CloseDelay:     10 * time.Millisecond,
			AutoStartDelay: 5 * time.Millisecond,
		}),
		DefaultModelURL: "https://example.com/model.jpg",
		Logger:          logger,
	}

	srv := httptest.NewServer(httpapi.NewRouter(app, logger, nil))
	t.Cleanup(srv.Close)
	return srv, app
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func TestProductEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/v1/products/", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	products, ok := body["products"].([]any)
	if !ok || len(products) == 0 {
		t.Fatalf("expected seeded products, got %v", body)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/products/w-eth-001", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if body["id"] != "w-eth-001" {
		t.Fatalf("unexpected product payload: %v", body)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/products/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing product status = %d", resp.StatusCode)
	}
	errObj, _ := body["error"].(map[string]any)
	if errObj["code"] != "not_found" {
		t.Fatalf("unexpected error payload: %v", body)
	}
}

func TestCartAddAndRemove(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/cart/", map[string]string{"garment_id": "w-eth-001"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add status = %d", resp.StatusCode)
	}
	if items := body["items"].([]any); len(items) != 1 {
		t.Fatalf("expected 1 cart item, got %d", len(items))
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/cart/", map[string]string{"garment_id": "missing"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown garment status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v1/cart/w-eth-001", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("remove status = %d", resp.StatusCode)
	}

	_, body = doJSON(t, http.MethodGet, srv.URL+"/v1/cart/", nil)
	if items := body["items"].([]any); len(items) != 0 {
		t.Fatalf("expected empty cart, got %v", items)
	}
}

func TestSelectionToggle(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := doJSON(t, http.MethodPost, srv.URL+"/v1/selection/toggle", map[string]string{"garment_id": "w-eth-001"})
	if body["selected"] != true {
		t.Fatalf("first toggle should select: %v", body)
	}
	_, body = doJSON(t, http.MethodPost, srv.URL+"/v1/selection/toggle", map[string]string{"garment_id": "w-eth-001"})
	if body["selected"] != false {
		t.Fatalf("second toggle should deselect: %v", body)
	}
	if items := body["items"].([]any); len(items) != 0 {
		t.Fatalf("expected empty selection, got %v", items)
	}
}

func TestCredentialSetReleasesGate(t *testing.T) {
	srv, app := newTestServer(t)

	_, body := doJSON(t, http.MethodGet, srv.URL+"/v1/credentials/gemini/", nil)
	if body["configured"] != false {
		t.Fatalf("expected unconfigured state, got %v", body)
	}

	released := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		released <- app.Gate.PromptForCredential(ctx)
	}()

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/v1/credentials/gemini/", map[string]string{"api_key": "test-key"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set status = %d", resp.StatusCode)
	}
	if err := <-released; err != nil {
		t.Fatalf("prompt should resolve after key set: %v", err)
	}

	_, body = doJSON(t, http.MethodGet, srv.URL+"/v1/credentials/gemini/", nil)
	if body["configured"] != true {
		t.Fatalf("expected configured state, got %v", body)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/tryon/sessions/", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	id, _ := body["session_id"].(string)
	if id == "" {
		t.Fatalf("missing session id: %v", body)
	}
	base := srv.URL + "/v1/tryon/sessions/" + id

	resp, body = doJSON(t, http.MethodPost, base+"/open", map[string]any{"garment_ids": []string{"w-eth-001", "m-wes-001"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("open status = %d", resp.StatusCode)
	}
	snap := body
	if snap["stage"] != "UPLOAD" {
		t.Fatalf("open should land in upload, got %v", snap["stage"])
	}

	resp, snap = doJSON(t, http.MethodPost, base+"/subject", map[string]string{"source": "default"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("subject status = %d", resp.StatusCode)
	}
	if subj, _ := snap["subject_image"].(string); !strings.Contains(subj, "encoded-https://example.com/model.jpg") {
		t.Fatalf("subject should come from the default model image, got %q", subj)
	}

	resp, _ = doJSON(t, http.MethodPost, base+"/generate", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("generate status = %d", resp.StatusCode)
	}

	deadline := time.After(2 * time.Second)
	for {
		_, snap = doJSON(t, http.MethodGet, base+"/", nil)
		if snap["stage"] == "RESULT" {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("generation never resolved, last snapshot %v", snap)
		case <-time.After(10 * time.Millisecond):
		}
	}
	if snap["result_image"] != "data:image/jpeg;base64,generated" {
		t.Fatalf("unexpected result image %v", snap["result_image"])
	}

	resp, _ = doJSON(t, http.MethodPost, base+"/navigate", map[string]string{"direction": "sideways"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad direction status = %d", resp.StatusCode)
	}

	resp, snap = doJSON(t, http.MethodPost, base+"/close", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("close status = %d", resp.StatusCode)
	}
	if snap["is_open"] != false {
		t.Fatalf("close should mark session closed: %v", snap)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/v1/tryon/sessions/unknown/", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown session status = %d", resp.StatusCode)
	}
}

func TestSessionSubjectUpload(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := doJSON(t, http.MethodPost, srv.URL+"/v1/tryon/sessions/", nil)
	base := srv.URL + "/v1/tryon/sessions/" + body["session_id"].(string)
	doJSON(t, http.MethodPost, base+"/open", map[string]any{"garment_ids": []string{"w-eth-001"}})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="image"; filename="me.jpg"`},
		"Content-Type":        {"image/jpeg"},
	})
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("fake-jpeg-bytes")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, base+"/subject", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	var snap map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if subj, _ := snap["subject_image"].(string); !strings.Contains(subj, "encoded-me.jpg") {
		t.Fatalf("subject should come from the uploaded file, got %q", subj)
	}
}

func TestSessionGalleryOpen(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := doJSON(t, http.MethodPost, srv.URL+"/v1/tryon/sessions/", nil)
	base := srv.URL + "/v1/tryon/sessions/" + body["session_id"].(string)

	images := []string{"a", "b", "c"}
	resp, snap := doJSON(t, http.MethodPost, base+"/gallery", map[string]any{"images": images, "index": 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("gallery status = %d", resp.StatusCode)
	}
	if snap["stage"] != "RESULT" || snap["result_image"] != "b" {
		t.Fatalf("gallery open should show image b, got %v", snap)
	}

	resp, _ = doJSON(t, http.MethodPost, base+"/gallery", map[string]any{"images": []string{}, "index": 0})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty gallery status = %d", resp.StatusCode)
	}

	_, snap = doJSON(t, http.MethodPost, base+"/navigate", map[string]string{"direction": "next"})
	if snap["result_image"] != "c" {
		t.Fatalf("navigate next should show image c, got %v", snap["result_image"])
	}
}
