package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendMessageGeneratesClientID(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(WireMessage{ID: 10, ClientID: gotBody["client_id"], Content: gotBody["content"]})
	}))
	defer srv.Close()

	api := NewAPI(srv.URL, "tok123")
	msg, err := api.SendMessage(context.Background(), 1, "", "hello", "")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody["client_id"] == "" {
		t.Error("client_id was not generated")
	}
	if msg.ID != 10 || msg.ClientID != gotBody["client_id"] {
		t.Errorf("response = %+v", msg)
	}
}

func TestSendMessageReusesClientIDOnRetry(t *testing.T) {
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		ids = append(ids, body["client_id"])
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(WireMessage{ID: uint(len(ids)), ClientID: body["client_id"]})
	}))
	defer srv.Close()

	api := NewAPI(srv.URL, "tok")
	if _, err := api.SendMessage(context.Background(), 1, "retry-1", "hi", ""); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, err := api.SendMessage(context.Background(), 1, "retry-1", "hi", ""); err != nil {
		t.Fatalf("retry: %v", err)
	}

	if len(ids) != 2 || ids[0] != "retry-1" || ids[1] != "retry-1" {
		t.Errorf("client ids = %v, want retry-1 twice", ids)
	}
}

func TestAPIErrorSurfacesStatusAndCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Not a participant", "code": "not_a_participant"})
	}))
	defer srv.Close()

	api := NewAPI(srv.URL, "tok")
	_, err := api.MarkSeen(context.Background(), 5)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.Code != "not_a_participant" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestFetchMessagesParsesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.RawQuery; got != "cursor=7&limit=2" {
			t.Errorf("query = %q", got)
		}
		_ = json.NewEncoder(w).Encode(MessagePage{
			Messages:   []WireMessage{{ID: 6}, {ID: 5}},
			HasMore:    true,
			NextCursor: 5,
		})
	}))
	defer srv.Close()

	api := NewAPI(srv.URL, "tok")
	page, err := api.FetchMessages(context.Background(), 1, 7, 2)
	if err != nil {
		t.Fatalf("FetchMessages: %v", err)
	}
	if len(page.Messages) != 2 || !page.HasMore || page.NextCursor != 5 {
		t.Errorf("page = %+v", page)
	}
}
