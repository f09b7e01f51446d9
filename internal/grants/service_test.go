package grants

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"vault-backend/internal/documents"
)

type fakeDocs struct {
	docs map[string]documents.Document
}

func (f *fakeDocs) Get(ctx context.Context, ownerID, docID string) (documents.Document, error) {
	doc, ok := f.docs[docID]
	if !ok || doc.OwnerID != ownerID {
		return documents.Document{}, documents.ErrNotFound
	}
	return doc, nil
}

type captureSender struct {
	mu    sync.Mutex
	sent  []map[string]string
	fail  bool
	calls int
}

func (s *captureSender) Send(ctx context.Context, recipientEmail string, vars map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail {
		return errors.New("email service down")
	}
	s.sent = append(s.sent, vars)
	return nil
}

func newTestService(now time.Time) (*Service, *captureSender, *fakeDocs) {
	docs := &fakeDocs{docs: map[string]documents.Document{
		"doc-1": {
			ID:         "doc-1",
			OwnerID:    "alice",
			OwnerEmail: "alice@example.com",
			DocType:    documents.DocTypePANCard,
			Hint:       "blue file",
			FileURL:    "https://files.example.com/alice/pan.pdf",
		},
	}}
	sender := &captureSender{}
	svc := &Service{
		Repo:     NewMemoryRepo(),
		Docs:     docs,
		Notifier: sender,
		Store:    downloadOnlyStore{},
		BaseURL:  "https://vault.example.com",
		Now:      func() time.Time { return now },
	}
	return svc, sender, docs
}

// downloadOnlyStore satisfies object.ObjectStore for service tests; grants
// never save files.
type downloadOnlyStore struct{}

func (downloadOnlyStore) Save(ctx context.Context, ownerID, fileName string, r io.Reader) (string, int64, string, error) {
	return "", 0, "", errors.New("grants never save files")
}

func (downloadOnlyStore) DownloadURL(ctx context.Context, fileURL string) (string, error) {
	return fileURL + "?download=1", nil
}

func TestCreateGrantSnapshotsDocumentAndEmailsRecipient(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, sender, _ := newTestService(now)
	ctx := context.Background()

	grant, err := svc.Create(ctx, "alice", CreateRequest{
		DocumentID:     "doc-1",
		RecipientEmail: "Friend@Example.com",
		Permission:     "download",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if grant.RecipientEmail != "friend@example.com" {
		t.Fatalf("recipient = %q, expected normalized", grant.RecipientEmail)
	}
	if !grant.OneTime {
		t.Fatalf("grants should default to one-time")
	}
	if got, want := grant.ExpiresAt, now.Add(24*time.Hour); !got.Equal(want) {
		t.Fatalf("expiry = %v, want %v", got, want)
	}
	if grant.FileURL != "https://files.example.com/alice/pan.pdf" || grant.DocType != "PAN Card" || grant.Hint != "blue file" {
		t.Fatalf("snapshot fields wrong: %+v", grant)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sender.sent))
	}
	vars := sender.sent[0]
	if vars["link"] != "https://vault.example.com/shared/"+grant.Token {
		t.Fatalf("link = %q", vars["link"])
	}
	if vars["access_type"] != "View + Download" {
		t.Fatalf("access_type = %q", vars["access_type"])
	}
	if vars["doc_type"] != "PAN Card" {
		t.Fatalf("doc_type = %q", vars["doc_type"])
	}
}

func TestCreateGrantRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService(time.Now().UTC())
	ctx := context.Background()

	cases := []CreateRequest{
		{DocumentID: "", RecipientEmail: "a@b.com", Permission: "view"},
		{DocumentID: "doc-1", RecipientEmail: "not-an-email", Permission: "view"},
		{DocumentID: "doc-1", RecipientEmail: "a@b.com", Permission: "admin"},
	}
	for i, req := range cases {
		if _, err := svc.Create(ctx, "alice", req); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}

	if _, err := svc.Create(ctx, "alice", CreateRequest{DocumentID: "nope", RecipientEmail: "a@b.com", Permission: "view"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown document: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Create(ctx, "bob", CreateRequest{DocumentID: "doc-1", RecipientEmail: "a@b.com", Permission: "view"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign document: expected ErrNotFound, got %v", err)
	}
}

func TestCreateGrantSurvivesNotificationFailure(t *testing.T) {
	svc, sender, _ := newTestService(time.Now().UTC())
	sender.fail = true
	ctx := context.Background()

	grant, err := svc.Create(ctx, "alice", CreateRequest{
		DocumentID:     "doc-1",
		RecipientEmail: "a@b.com",
		Permission:     "view",
	})
	if !errors.Is(err, ErrNotificationFailed) {
		t.Fatalf("expected ErrNotificationFailed, got %v", err)
	}
	if grant.ID == "" || grant.Token == "" {
		t.Fatalf("grant should still be created: %+v", grant)
	}

	// The grant is live despite the failed email.
	access, err := svc.Validate(ctx, grant.Token)
	if err != nil {
		t.Fatalf("Validate after failed email: %v", err)
	}
	if access.DocumentID != "doc-1" {
		t.Fatalf("access = %+v", access)
	}
}

func TestValidateHonorsExpiry(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(created)
	ctx := context.Background()

	persistent := false
	grant, err := svc.Create(ctx, "alice", CreateRequest{
		DocumentID:     "doc-1",
		RecipientEmail: "a@b.com",
		Permission:     "view",
		OneTime:        &persistent,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	svc.Now = func() time.Time { return created.Add(23 * time.Hour) }
	if _, err := svc.Validate(ctx, grant.Token); err != nil {
		t.Fatalf("Validate at 23h: %v", err)
	}

	svc.Now = func() time.Time { return created.Add(25 * time.Hour) }
	if _, err := svc.Validate(ctx, grant.Token); !errors.Is(err, ErrExpired) {
		t.Fatalf("Validate at 25h: expected ErrExpired, got %v", err)
	}
}

func TestValidateUnknownToken(t *testing.T) {
	svc, _, _ := newTestService(time.Now().UTC())
	if _, err := svc.Validate(context.Background(), "no-such-token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOneTimeGrantAllowsExactlyOneAccess(t *testing.T) {
	svc, _, _ := newTestService(time.Now().UTC())
	ctx := context.Background()

	grant, err := svc.Create(ctx, "alice", CreateRequest{
		DocumentID:     "doc-1",
		RecipientEmail: "a@b.com",
		Permission:     "view",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const attempts = 16
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Validate(ctx, grant.Token)
		}(i)
	}
	wg.Wait()

	wins := 0
	for i, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrConsumed):
		default:
			t.Fatalf("attempt %d: unexpected error %v", i, err)
		}
	}
	if wins != 1 {
		t.Fatalf("one-time grant: %d validations succeeded, want exactly 1", wins)
	}
}

func TestGrantSnapshotIsImmuneToDocumentEdits(t *testing.T) {
	svc, _, docs := newTestService(time.Now().UTC())
	ctx := context.Background()

	persistent := false
	grant, err := svc.Create(ctx, "alice", CreateRequest{
		DocumentID:     "doc-1",
		RecipientEmail: "a@b.com",
		Permission:     "view",
		OneTime:        &persistent,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	doc := docs.docs["doc-1"]
	doc.Hint = "moved to red file"
	doc.FileURL = "https://files.example.com/alice/pan-v2.pdf"
	docs.docs["doc-1"] = doc

	access, err := svc.Validate(ctx, grant.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if access.Hint != "blue file" || access.FileURL != "https://files.example.com/alice/pan.pdf" {
		t.Fatalf("snapshot leaked later edits: %+v", access)
	}
}

func TestDownloadRejectsViewOnlyWithoutConsuming(t *testing.T) {
	svc, _, _ := newTestService(time.Now().UTC())
	ctx := context.Background()

	grant, err := svc.Create(ctx, "alice", CreateRequest{
		DocumentID:     "doc-1",
		RecipientEmail: "a@b.com",
		Permission:     "view",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Download(ctx, grant.Token); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// The rejected download must not have burned the one-time grant.
	if _, err := svc.Validate(ctx, grant.Token); err != nil {
		t.Fatalf("Validate after rejected download: %v", err)
	}
}

func TestDownloadConsumesOneTimeGrant(t *testing.T) {
	svc, _, _ := newTestService(time.Now().UTC())
	ctx := context.Background()

	grant, err := svc.Create(ctx, "alice", CreateRequest{
		DocumentID:     "doc-1",
		RecipientEmail: "a@b.com",
		Permission:     "download",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	url, err := svc.Download(ctx, grant.Token)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if url != grant.FileURL+"?download=1" {
		t.Fatalf("download url = %q", url)
	}

	if _, err := svc.Download(ctx, grant.Token); !errors.Is(err, ErrConsumed) {
		t.Fatalf("second download: expected ErrConsumed, got %v", err)
	}
}

func TestRevokeEnforcesOwnership(t *testing.T) {
	svc, _, _ := newTestService(time.Now().UTC())
	ctx := context.Background()

	grant, err := svc.Create(ctx, "alice", CreateRequest{
		DocumentID:     "doc-1",
		RecipientEmail: "a@b.com",
		Permission:     "view",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Revoke(ctx, "bob", grant.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign revoke: expected ErrForbidden, got %v", err)
	}
	if err := svc.Revoke(ctx, "alice", grant.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := svc.Validate(ctx, grant.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("revoked grant should be gone, got %v", err)
	}
}

func TestRevokeByDocumentRemovesAllGrants(t *testing.T) {
	svc, _, _ := newTestService(time.Now().UTC())
	ctx := context.Background()

	var tokens []string
	for i := 0; i < 3; i++ {
		grant, err := svc.Create(ctx, "alice", CreateRequest{
			DocumentID:     "doc-1",
			RecipientEmail: "a@b.com",
			Permission:     "view",
		})
		if err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
		tokens = append(tokens, grant.Token)
	}

	revoked, err := svc.RevokeByDocument(ctx, "doc-1", "alice")
	if err != nil {
		t.Fatalf("RevokeByDocument: %v", err)
	}
	if revoked != 3 {
		t.Fatalf("revoked = %d, want 3", revoked)
	}
	for _, token := range tokens {
		if _, err := svc.Validate(ctx, token); !errors.Is(err, ErrNotFound) {
			t.Fatalf("grant %s should be gone, got %v", token, err)
		}
	}
}
