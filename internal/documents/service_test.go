package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

type fakeStore struct {
	saves int
	fail  bool
}

func (s *fakeStore) Save(ctx context.Context, ownerID, fileName string, r io.Reader) (string, int64, string, error) {
	if s.fail {
		return "", 0, "", errors.New("store unavailable")
	}
	s.saves++
	n, _ := io.Copy(io.Discard, r)
	return "https://files.example.com/" + ownerID + "/" + fileName, n, "application/octet-stream", nil
}

func (s *fakeStore) DownloadURL(ctx context.Context, fileURL string) (string, error) {
	return fileURL + "?download=1", nil
}

type fakeRevoker struct {
	revoked map[string]int
	err     error
}

func (r *fakeRevoker) RevokeByDocument(ctx context.Context, docID, ownerID string) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.revoked == nil {
		r.revoked = make(map[string]int)
	}
	r.revoked[docID] = 2
	return 2, nil
}

func newTestService() (*Service, *fakeStore, *fakeRevoker) {
	store := &fakeStore{}
	revoker := &fakeRevoker{}
	svc := &Service{Store: store, Repo: NewMemoryRepo(), Grants: revoker}
	return svc, store, revoker
}

func TestServiceCreateStoresFileAndRecord(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "owner-1", "a@example.com", "PAN Card", "  blue file  ", "pan.pdf", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if doc.ID == "" {
		t.Fatalf("expected generated document id")
	}
	if doc.DocType != DocTypePANCard {
		t.Fatalf("doc type = %q", doc.DocType)
	}
	if doc.Hint != "blue file" {
		t.Fatalf("hint = %q, expected trimmed", doc.Hint)
	}
	if doc.FileURL == "" {
		t.Fatalf("expected file url from store")
	}
	if store.saves != 1 {
		t.Fatalf("store saves = %d", store.saves)
	}

	got, err := svc.Get(ctx, "owner-1", doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FileURL != doc.FileURL {
		t.Fatalf("Get file url = %q, want %q", got.FileURL, doc.FileURL)
	}
}

func TestServiceCreateRejectsBadInput(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "owner-1", "a@example.com", "Tax Return", "", "f.pdf", strings.NewReader("x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown doc type: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Create(ctx, "owner-1", "a@example.com", "Passport", "", "", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing file: expected ErrInvalidInput, got %v", err)
	}
	if store.saves != 0 {
		t.Fatalf("store should not be touched on validation failure, saves = %d", store.saves)
	}
}

func TestServiceCreateStoreFailureLeavesNoRecord(t *testing.T) {
	svc, store, _ := newTestService()
	store.fail = true
	ctx := context.Background()

	if _, err := svc.Create(ctx, "owner-1", "a@example.com", "Passport", "", "p.pdf", strings.NewReader("x")); err == nil {
		t.Fatalf("expected store error")
	}
	docs, err := svc.List(ctx, "owner-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no records after failed upload, got %d", len(docs))
	}
}

func TestServiceListIsOwnerScoped(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, "alice", "alice@example.com", "Certificate", "", fmt.Sprintf("a%d.pdf", i), strings.NewReader("x")); err != nil {
			t.Fatalf("Create alice: %v", err)
		}
	}
	if _, err := svc.Create(ctx, "bob", "bob@example.com", "Passport", "", "b.pdf", strings.NewReader("x")); err != nil {
		t.Fatalf("Create bob: %v", err)
	}

	aliceDocs, err := svc.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List alice: %v", err)
	}
	if len(aliceDocs) != 3 {
		t.Fatalf("alice docs = %d", len(aliceDocs))
	}
	for _, doc := range aliceDocs {
		if doc.OwnerID != "alice" {
			t.Fatalf("listing leaked document owned by %q", doc.OwnerID)
		}
	}
}

func TestServiceGetDoesNotCrossOwners(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "alice", "alice@example.com", "Voter ID", "", "v.pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Get(ctx, "bob", doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-owner get: expected ErrNotFound, got %v", err)
	}
}

func TestServiceUpdateHint(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "owner-1", "a@example.com", "Ration Card", "old drawer", "r.pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	hint := "new drawer"
	updated, err := svc.Update(ctx, "owner-1", doc.ID, UpdateRequest{Hint: &hint})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Hint != "new drawer" {
		t.Fatalf("hint = %q", updated.Hint)
	}
	if updated.FileURL != doc.FileURL {
		t.Fatalf("file url changed on hint-only update")
	}

	empty := "   "
	if _, err := svc.Update(ctx, "owner-1", doc.ID, UpdateRequest{Hint: &empty}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty hint: expected ErrInvalidInput, got %v", err)
	}
}

func TestServiceUpdateReplacesFile(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "owner-1", "a@example.com", "Passport", "", "old.pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(ctx, "owner-1", doc.ID, UpdateRequest{FileName: "new.pdf", File: strings.NewReader("y")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.FileURL == doc.FileURL {
		t.Fatalf("file url should change when the file is replaced")
	}
	if updated.Hint != doc.Hint {
		t.Fatalf("hint should be unchanged")
	}
}

func TestServiceDeleteRevokesGrants(t *testing.T) {
	svc, _, revoker := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "owner-1", "a@example.com", "Passport", "", "p.pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	revoked, err := svc.Delete(ctx, "owner-1", doc.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if revoked != 2 {
		t.Fatalf("revoked = %d", revoked)
	}
	if _, ok := revoker.revoked[doc.ID]; !ok {
		t.Fatalf("revoker was not called for %s", doc.ID)
	}
	if _, err := svc.Get(ctx, "owner-1", doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected document gone, got %v", err)
	}
}

func TestServiceDeleteReportsRevocationFailure(t *testing.T) {
	svc, _, revoker := newTestService()
	revoker.err = errors.New("grant store down")
	ctx := context.Background()

	doc, err := svc.Create(ctx, "owner-1", "a@example.com", "Passport", "", "p.pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.Delete(ctx, "owner-1", doc.ID)
	if !errors.Is(err, ErrGrantRevocation) {
		t.Fatalf("expected ErrGrantRevocation, got %v", err)
	}
	// The record itself is gone; only the cascade failed.
	if _, err := svc.Get(ctx, "owner-1", doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected document gone despite revocation failure, got %v", err)
	}
}
