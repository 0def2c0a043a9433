package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pavelanni/toetsgen/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func registerTeacher(t *testing.T, s *Store, email string) int64 {
	t.Helper()
	id, err := s.Register(context.Background(), model.User{
		Email:        email,
		SchoolName:   "Het Lyceum",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return id
}

func TestRegister(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := registerTeacher(t, s, "docent@school.nl")

	u, err := s.GetUserByID(ctx, id)
	if err != nil || u == nil {
		t.Fatalf("GetUserByID: %v, %v", u, err)
	}
	if u.Role != model.UserRoleTeacher || u.SchoolName != "Het Lyceum" {
		t.Errorf("user = %+v", u)
	}

	req, err := s.GetAccessRequest(ctx, "docent@school.nl")
	if err != nil {
		t.Fatalf("GetAccessRequest: %v", err)
	}
	if req.Status != model.RequestPending || req.Description != "School: Het Lyceum" {
		t.Errorf("access request = %+v", req)
	}

	// Duplicate e-mail, also with different case.
	_, err = s.Register(ctx, model.User{Email: "Docent@School.nl", SchoolName: "X", PasswordHash: "h"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
	if n, _ := s.UserCount(ctx); n != 1 {
		t.Errorf("UserCount = %d, want 1", n)
	}
}

func TestGetUserByEmailMissing(t *testing.T) {
	s := newTestStore(t)
	u, err := s.GetUserByEmail(context.Background(), "nobody@school.nl")
	if err != nil || u != nil {
		t.Errorf("GetUserByEmail = %v, %v; want nil, nil", u, err)
	}
}

func TestApprovalStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, found, err := s.ApprovalStatus(ctx, "a@school.nl"); err != nil || found {
		t.Fatalf("ApprovalStatus on empty db: found=%v err=%v", found, err)
	}

	registerTeacher(t, s, "a@school.nl")

	// Pending stays pending until changed externally.
	for range 2 {
		status, found, err := s.ApprovalStatus(ctx, "a@school.nl")
		if err != nil || !found || status != model.RequestPending {
			t.Fatalf("ApprovalStatus = %q, %v, %v", status, found, err)
		}
	}

	if err := s.SetAccessStatus(ctx, "a@school.nl", model.RequestApproved); err != nil {
		t.Fatalf("SetAccessStatus: %v", err)
	}
	status, _, _ := s.ApprovalStatus(ctx, "A@school.nl")
	if status != model.RequestApproved {
		t.Errorf("status = %q, want approved", status)
	}

	if err := s.SetAccessStatus(ctx, "missing@school.nl", model.RequestApproved); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.SetAccessStatus(ctx, "a@school.nl", "rejected"); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestApprovalStatusCancelled(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := s.ApprovalStatus(ctx, "a@school.nl"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestListAccessRequests(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	registerTeacher(t, s, "a@school.nl")
	registerTeacher(t, s, "b@school.nl")
	if err := s.UpsertAccessRequest(ctx, model.AccessRequest{Email: "admin@localhost", Description: "Administrator", Status: model.RequestApproved}); err != nil {
		t.Fatalf("UpsertAccessRequest: %v", err)
	}

	tests := []struct {
		status model.RequestStatus
		want   int
	}{
		{"", 3},
		{model.RequestPending, 2},
		{model.RequestApproved, 1},
	}
	for _, tt := range tests {
		reqs, err := s.ListAccessRequests(ctx, tt.status)
		if err != nil {
			t.Fatalf("ListAccessRequests(%q): %v", tt.status, err)
		}
		if len(reqs) != tt.want {
			t.Errorf("ListAccessRequests(%q) = %d, want %d", tt.status, len(reqs), tt.want)
		}
	}

	all, _ := s.ListAccessRequests(ctx, "")
	if all[len(all)-1].Status != model.RequestApproved {
		t.Error("approved requests should be listed after pending ones")
	}
}

func TestTrainingRequestDoesNotAffectApproval(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	registerTeacher(t, s, "a@school.nl")
	if err := s.SetAccessStatus(ctx, "a@school.nl", model.RequestApproved); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateTrainingRequest(ctx, "a@school.nl", "TRAINING AANVRAAG | School: X"); err != nil {
		t.Fatalf("CreateTrainingRequest: %v", err)
	}

	status, _, _ := s.ApprovalStatus(ctx, "a@school.nl")
	if status != model.RequestApproved {
		t.Errorf("status = %q, want approved", status)
	}
	reqs, err := s.ListTrainingRequests(ctx)
	if err != nil || len(reqs) != 1 || reqs[0].Status != model.RequestPending {
		t.Errorf("ListTrainingRequests = %+v, %v", reqs, err)
	}
}

func TestAuthSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	uid := registerTeacher(t, s, "a@school.nl")

	token, err := s.CreateAuthSession(ctx, uid)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64", len(token))
	}

	sess, err := s.GetAuthSession(ctx, token)
	if err != nil || sess == nil || sess.UserID != uid {
		t.Fatalf("GetAuthSession = %+v, %v", sess, err)
	}

	if err := s.DeleteAuthSession(ctx, token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	if sess, _ := s.GetAuthSession(ctx, token); sess != nil {
		t.Error("session should be gone after delete")
	}
}

func TestAuthSessionExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	uid := registerTeacher(t, s, "a@school.nl")

	past := time.Now().Add(-time.Hour)
	if _, err := s.db.Exec(
		`INSERT INTO auth_sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		"old", uid, past.Add(-authSessionTTL), past,
	); err != nil {
		t.Fatal(err)
	}

	sess, err := s.GetAuthSession(ctx, "old")
	if err != nil || sess != nil {
		t.Errorf("expired session = %+v, %v; want nil", sess, err)
	}
	if err := s.CleanupExpiredSessions(ctx); err != nil {
		t.Errorf("CleanupExpiredSessions: %v", err)
	}
}

func TestDrafts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	uid := registerTeacher(t, s, "a@school.nl")

	if d, err := s.GetDraft(ctx, uid); err != nil || d != nil {
		t.Fatalf("GetDraft on empty = %q, %v", d, err)
	}

	for _, data := range []string{`{"v":1}`, `{"v":2}`} {
		if err := s.SaveDraft(ctx, uid, []byte(data)); err != nil {
			t.Fatalf("SaveDraft: %v", err)
		}
	}
	d, err := s.GetDraft(ctx, uid)
	if err != nil || string(d) != `{"v":2}` {
		t.Errorf("GetDraft = %q, %v", d, err)
	}

	if err := s.DeleteDraft(ctx, uid); err != nil {
		t.Fatal(err)
	}
	if d, _ := s.GetDraft(ctx, uid); d != nil {
		t.Error("draft should be deleted")
	}
}

func TestTests(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	uid := registerTeacher(t, s, "a@school.nl")
	other := registerTeacher(t, s, "b@school.nl")

	cfg := model.TestConfiguration{Taxonomy: model.TaxonomyKTI, Subject: "Geschiedenis", Level: "HAVO 4"}
	test := &model.GeneratedTest{
		Title:     "De Gouden Eeuw",
		Taxonomy:  model.TaxonomyKTI,
		Questions: []model.Question{{ID: 1, Text: "Wie was Rembrandt?", TaxonomyLabel: "K", Points: 2}},
		Matrix:    []model.MatrixRow{{Topic: "Kunst", Counts: map[string]int{"K": 1, "T": 0, "I": 0}}},
	}

	id, err := s.SaveTest(ctx, uid, cfg, test)
	if err != nil {
		t.Fatalf("SaveTest: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("id = %q, want a UUID", id)
	}

	rec, err := s.GetTest(ctx, id)
	if err != nil {
		t.Fatalf("GetTest: %v", err)
	}
	if rec.UserID != uid || rec.Config.Subject != "Geschiedenis" || rec.Test.Questions[0].Text != "Wie was Rembrandt?" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Test.Matrix[0].Counts["K"] != 1 {
		t.Errorf("matrix = %+v", rec.Test.Matrix)
	}

	if _, err := s.GetTest(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	list, err := s.ListTests(ctx, uid)
	if err != nil || len(list) != 1 || list[0].Title != "De Gouden Eeuw" || list[0].Taxonomy != model.TaxonomyKTI {
		t.Errorf("ListTests = %+v, %v", list, err)
	}
	if list, _ := s.ListTests(ctx, other); len(list) != 0 {
		t.Errorf("other user sees %d tests", len(list))
	}

	if err := s.DeleteTest(ctx, other, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleting another user's test: %v", err)
	}
	if err := s.DeleteTest(ctx, uid, id); err != nil {
		t.Errorf("DeleteTest: %v", err)
	}
}

func TestFeedback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	uid := registerTeacher(t, s, "a@school.nl")

	if _, err := s.AddFeedback(ctx, model.Feedback{Name: "Anoniem", Message: "Top tool"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddFeedback(ctx, model.Feedback{UserID: &uid, Name: "Jan", Message: "Graag meer vraagtypes"}); err != nil {
		t.Fatal(err)
	}

	list, err := s.ListFeedback(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListFeedback = %v, %v", list, err)
	}
	if list[0].UserID == nil || *list[0].UserID != uid {
		t.Errorf("newest feedback user = %v", list[0].UserID)
	}
	if list[1].UserID != nil {
		t.Error("anonymous feedback should have no user")
	}
}
