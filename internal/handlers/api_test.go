package handlers

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"palabras/internal/enrichment"
	"palabras/internal/models"
	"palabras/internal/service"
)

func TestWordLifecycle(t *testing.T) {
	srv := newTestServer(t)
	ana := srv.register(t, "ana@example.com")

	rec := srv.do(t, http.MethodPost, "/api/words", ana.token, map[string]string{"term": " Hablar ", "category": "Verbos"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var item models.VocabularyItem
	decodeBody(t, rec, &item)
	if item.ID == 0 || item.Term != "hablar" || item.Category != "Verbos" {
		t.Fatalf("created item = %+v", item)
	}

	srv.wordBank.Wait()

	path := fmt.Sprintf("/api/words/%d", item.ID)
	rec = srv.do(t, http.MethodGet, path+"/enrichment", ana.token, nil)
	var state enrichment.State
	decodeBody(t, rec, &state)
	if rec.Code != http.StatusOK || state.Status != models.EnrichmentDone {
		t.Errorf("enrichment = %d %+v, want done", rec.Code, state)
	}

	rec = srv.do(t, http.MethodGet, path, ana.token, nil)
	decodeBody(t, rec, &item)
	if item.PrimaryDefinition != "to speak" || item.Enrichment == nil {
		t.Errorf("enriched item = %+v", item)
	}

	rec = srv.do(t, http.MethodPut, path, ana.token, map[string]string{"category": "Favoritos"})
	decodeBody(t, rec, &item)
	if rec.Code != http.StatusOK || item.Category != "Favoritos" {
		t.Errorf("update = %d %+v", rec.Code, item)
	}

	rec = srv.do(t, http.MethodGet, "/api/words?category=Favoritos", ana.token, nil)
	var items []models.VocabularyItem
	decodeBody(t, rec, &items)
	if len(items) != 1 {
		t.Errorf("filtered list = %d items, want 1", len(items))
	}

	rec = srv.do(t, http.MethodDelete, path, ana.token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = srv.do(t, http.MethodDelete, path, ana.token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}

	rec = srv.do(t, http.MethodGet, "/api/words", ana.token, nil)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty list body = %q, want []", rec.Body.String())
	}
}

func TestWordErrors(t *testing.T) {
	srv := newTestServer(t)
	ana := srv.register(t, "ana@example.com")
	ben := srv.register(t, "ben@example.com")

	rec := srv.do(t, http.MethodPost, "/api/words", ana.token, map[string]string{"term": "casa"})
	var item models.VocabularyItem
	decodeBody(t, rec, &item)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		want   int
	}{
		{"blank term", http.MethodPost, "/api/words", ana.token, map[string]string{"term": "  "}, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/api/words", ana.token, "not an object", http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/words/abc", ana.token, nil, http.StatusBadRequest},
		{"other user's item", http.MethodGet, fmt.Sprintf("/api/words/%d", item.ID), ben.token, nil, http.StatusNotFound},
		{"other user's delete", http.MethodDelete, fmt.Sprintf("/api/words/%d", item.ID), ben.token, nil, http.StatusNotFound},
		{"other user's bank", http.MethodGet, fmt.Sprintf("/api/students/%d/words", ana.user.ID), ben.token, nil, http.StatusForbidden},
		{"unknown round", http.MethodPost, "/api/study/rounds", ana.token, map[string]interface{}{
			"kind": "bingo", "outcomes": []models.RoundOutcome{{ItemID: item.ID, Correct: true}},
		}, http.StatusBadRequest},
		{"ai disabled", http.MethodPost, "/api/ai/translate", ana.token, map[string]string{"text": "hola"}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, tt.method, tt.path, tt.token, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestWordQuota(t *testing.T) {
	srv := newTestServer(t)
	ana := srv.register(t, "ana@example.com")

	for i := 0; i < 5; i++ {
		rec := srv.do(t, http.MethodPost, "/api/words", ana.token, map[string]string{"term": fmt.Sprintf("palabra%d", i)})
		if rec.Code != http.StatusCreated {
			t.Fatalf("add %d status = %d", i, rec.Code)
		}
	}

	rec := srv.do(t, http.MethodPost, "/api/words", ana.token, map[string]string{"term": "otra"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over quota status = %d, want 429", rec.Code)
	}
	var body errorResponse
	decodeBody(t, rec, &body)
	if body.Feature != string(models.FeatureWordsAdded) || body.Limit == nil || *body.Limit != 5 {
		t.Errorf("limit body = %+v", body)
	}

	rec = srv.do(t, http.MethodGet, "/api/usage", ana.token, nil)
	var summary service.UsageSummary
	decodeBody(t, rec, &summary)
	if summary.Remaining[models.FeatureWordsAdded] != 0 || summary.Counters[models.FeatureWordsAdded] != 5 {
		t.Errorf("usage = %+v", summary)
	}

	until := time.Now().Add(time.Hour)
	if err := srv.users.SetPremium(context.Background(), ana.user.ID, true, &until); err != nil {
		t.Fatalf("SetPremium() error = %v", err)
	}
	rec = srv.do(t, http.MethodPost, "/api/words", ana.token, map[string]string{"term": "otra"})
	if rec.Code != http.StatusCreated {
		t.Errorf("premium add status = %d, want 201", rec.Code)
	}
}

func TestStudyRoundAndProgress(t *testing.T) {
	srv := newTestServer(t)
	ana := srv.register(t, "ana@example.com")

	rec := srv.do(t, http.MethodPost, "/api/words", ana.token, map[string]string{"term": "perro"})
	var item models.VocabularyItem
	decodeBody(t, rec, &item)

	rec = srv.do(t, http.MethodPost, "/api/study/rounds", ana.token, map[string]interface{}{
		"kind":     service.RoundQuiz,
		"outcomes": []models.RoundOutcome{{ItemID: item.ID, Correct: true}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("round status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var round struct {
		Results []service.RoundResult `json:"results"`
	}
	decodeBody(t, rec, &round)
	if len(round.Results) != 1 || round.Results[0].Mastery <= 0 {
		t.Errorf("round results = %+v", round.Results)
	}

	rec = srv.do(t, http.MethodGet, "/api/review?smart=true", ana.token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("review status = %d", rec.Code)
	}
	rec = srv.do(t, http.MethodGet, "/api/review?smart=maybe", ana.token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad smart flag status = %d, want 400", rec.Code)
	}

	rec = srv.do(t, http.MethodGet, "/api/progress", ana.token, nil)
	var snapshot models.ProgressSnapshot
	decodeBody(t, rec, &snapshot)
	if snapshot.Level < 1 || snapshot.StreakDays != 1 {
		t.Errorf("progress = %+v", snapshot)
	}
}

func TestTutorCanManageStudentWords(t *testing.T) {
	srv := newTestServer(t)
	student := srv.register(t, "student@example.com")
	tutor := srv.register(t, "tutor@example.com")

	rec := srv.do(t, http.MethodPost, "/api/tutors/invite", student.token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("invite status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var invite models.TutorInvite
	decodeBody(t, rec, &invite)

	rec = srv.do(t, http.MethodPost, "/api/tutors/accept", student.token, map[string]string{"code": invite.Code})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("self accept status = %d, want 400", rec.Code)
	}
	rec = srv.do(t, http.MethodPost, "/api/tutors/accept", tutor.token, map[string]string{"code": invite.Code})
	if rec.Code != http.StatusOK {
		t.Fatalf("accept status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, "/api/tutors/students", tutor.token, nil)
	var links []models.TutorLink
	decodeBody(t, rec, &links)
	if len(links) != 1 || links[0].StudentID != student.user.ID {
		t.Fatalf("students = %+v", links)
	}

	base := fmt.Sprintf("/api/students/%d/words", student.user.ID)
	rec = srv.do(t, http.MethodPost, base, tutor.token, map[string]string{"term": "gato"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("tutor add status = %d", rec.Code)
	}
	var item models.VocabularyItem
	decodeBody(t, rec, &item)
	if item.UserID != student.user.ID {
		t.Errorf("item owner = %d, want student %d", item.UserID, student.user.ID)
	}

	rec = srv.do(t, http.MethodGet, "/api/words", student.token, nil)
	var items []models.VocabularyItem
	decodeBody(t, rec, &items)
	if len(items) != 1 {
		t.Errorf("student bank = %d items, want 1", len(items))
	}

	// The item must be addressed under its owner's path
	rec = srv.do(t, http.MethodGet, fmt.Sprintf("/api/students/%d/words/%d", tutor.user.ID, item.ID), tutor.token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("mismatched owner path status = %d, want 404", rec.Code)
	}

	rec = srv.do(t, http.MethodDelete, fmt.Sprintf("/api/tutors/students/%d", student.user.ID), tutor.token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("remove student status = %d", rec.Code)
	}
	rec = srv.do(t, http.MethodGet, base, tutor.token, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("after unlink status = %d, want 403", rec.Code)
	}
}

func TestSpreadsheetImportExport(t *testing.T) {
	srv := newTestServer(t)
	ana := srv.register(t, "ana@example.com")

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "words.csv")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	fmt.Fprint(part, "term,category,definition\nhablar,Verbos,to speak\n,Vacío,\ncomer,Verbos,to eat\n")
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/words/import", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ana.token)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var report service.ImportReport
	decodeBody(t, rec, &report)
	if report.Added != 2 || report.LimitReached {
		t.Errorf("report = %+v, want 2 added", report)
	}

	rec = srv.do(t, http.MethodGet, "/api/words/export.xlsx", ana.token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("export should be a zip-based workbook")
	}
}

func TestPaymentWebhook(t *testing.T) {
	srv := newTestServer(t)
	ana := srv.register(t, "ana@example.com")

	event := []byte(fmt.Sprintf(`{"id":"evt_1","type":"subscription.activated","data":{"userId":%d}}`, ana.user.ID))
	send := func(signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(event))
		req.Header.Set(webhookSignatureKey, signature)
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := send("t=1,v1=00"); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad signature status = %d, want 401", rec.Code)
	}

	rec := send(srv.webhooks.Sign(event, time.Now()))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"applied":true`) {
		t.Fatalf("webhook = %d %s", rec.Code, rec.Body.String())
	}
	rec = send(srv.webhooks.Sign(event, time.Now()))
	if !strings.Contains(rec.Body.String(), `"applied":false`) {
		t.Errorf("replay body = %s, want applied false", rec.Body.String())
	}

	user, err := srv.users.GetUserByID(context.Background(), ana.user.ID)
	if err != nil || !user.HasPremium(time.Now()) {
		t.Errorf("user premium = %+v, %v", user, err)
	}
}
