package session

import (
	"context"
	"testing"
	"time"

	"github.com/abram-kaleb/slidenauli/internal/bulletin"
	"github.com/abram-kaleb/slidenauli/internal/classify"
	"github.com/abram-kaleb/slidenauli/internal/document"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h := ContentHashHex([]byte{}); h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestNew_UniqueIDs(t *testing.T) {
	a, b := New(), New()
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty IDs, got %q and %q", a.ID, b.ID)
	}
	if a.Status != StatusUploaded {
		t.Errorf("expected status %q, got %q", StatusUploaded, a.Status)
	}
}

func TestSession_StateTransitions(t *testing.T) {
	sess := New()
	transitions := []struct {
		status Status
		phase  string
	}{
		{StatusParsing, "parsing"},
		{StatusClassifying, "classifying"},
		{StatusSegmenting, "segmenting"},
		{StatusRendering, "rendering"},
		{StatusWriting, "writing"},
	}
	for _, tr := range transitions {
		before := sess.UpdatedAt
		time.Sleep(time.Millisecond)
		sess.SetStatus(tr.status, tr.phase)
		if sess.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, sess.Status)
		}
		if sess.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, sess.Phase)
		}
		if !sess.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestSetService_UnchangedContentKeepsDocument(t *testing.T) {
	sess := New()
	if !sess.SetService("tata.docx", []byte("one")) {
		t.Fatal("expected first upload to count as a change")
	}
	doc := &document.Document{Paragraphs: []string{"MINGGU ADVENT I"}}
	sess.SetDocument(sess.Service(), doc, classify.General)
	sess.SetAdvice([]classify.Advisory{{Level: classify.Info, Message: "ok"}}, bulletin.Normal)

	if sess.SetService("renamed.docx", []byte("one")) {
		t.Error("expected identical content to be reported unchanged")
	}
	u := sess.Service()
	if u.Document() != doc {
		t.Error("expected parsed document to be kept")
	}
	if u.Filename != "renamed.docx" {
		t.Errorf("expected %q, got %q", "renamed.docx", u.Filename)
	}
	if len(sess.Snapshot().Advisories) != 1 {
		t.Error("expected advisories to survive an unchanged upload")
	}

	if !sess.SetService("tata.docx", []byte("two")) {
		t.Error("expected new content to be reported changed")
	}
	if sess.Service().Document() != nil {
		t.Error("expected new content to drop the parsed document")
	}
	if len(sess.Snapshot().Advisories) != 0 {
		t.Error("expected advisories to reset after a content change")
	}
}

func TestSetBulletin_EmptyRemoves(t *testing.T) {
	sess := New()
	sess.SetBulletin("warta.docx", []byte("w"))
	if sess.Bulletin() == nil {
		t.Fatal("expected bulletin upload")
	}
	if !sess.SetBulletin("", nil) {
		t.Error("expected removal to count as a change")
	}
	if sess.Bulletin() != nil {
		t.Error("expected bulletin to be removed")
	}
	if sess.SetBulletin("", nil) {
		t.Error("expected removing nothing to be unchanged")
	}
}

func TestAdviceDue(t *testing.T) {
	sess := New()
	sess.SetService("tata.txt", []byte("a"))
	if !sess.AdviceDue() {
		t.Fatal("expected advice due after upload")
	}
	sess.SetAdvice([]classify.Advisory{{Level: classify.Info, Message: "ok"}}, bulletin.Normal)
	if sess.AdviceDue() {
		t.Error("expected advice recorded")
	}
	sess.SetService("tata.txt", []byte("a"))
	if sess.AdviceDue() {
		t.Error("expected unchanged upload to keep advice")
	}
	sess.SetBulletin("warta.txt", []byte("w"))
	sess.SetAdvice(nil, bulletin.Normal)
	sess.SetBulletin("", nil)
	if !sess.AdviceDue() {
		t.Error("expected advice due after bulletin removal")
	}
}

func TestSnapshot(t *testing.T) {
	sess := New()
	snap := sess.Snapshot()
	if snap.Advisories == nil || snap.Errors == nil {
		t.Error("expected non-nil slices in snapshot")
	}
	if snap.Service != nil || snap.LastRender != nil {
		t.Error("expected empty session snapshot")
	}

	sess.SetService("tata.docx", []byte("abc"))
	sess.SetDocument(sess.Service(), &document.Document{
		Paragraphs: []string{"a", "b"},
		Images:     []document.Image{{Name: "media/image1.png"}},
	}, classify.Youth)
	sess.SetAdvice(nil, bulletin.Wide)
	sess.AddError("parse: boom")
	sess.SetRendered(RenderSummary{Dialect: "remaja", Slides: 12})

	snap = sess.Snapshot()
	if snap.Service.Paragraphs != 2 || snap.Service.Images != 1 || snap.Service.Size != 3 {
		t.Errorf("unexpected file info %+v", snap.Service)
	}
	if snap.Dialect != "remaja" {
		t.Errorf("expected dialect %q, got %q", "remaja", snap.Dialect)
	}
	if snap.Layout != bulletin.Wide {
		t.Errorf("expected layout %q, got %q", bulletin.Wide, snap.Layout)
	}
	if snap.Status != StatusRendered || snap.LastRender == nil || snap.LastRender.Slides != 12 {
		t.Errorf("unexpected render state %q %+v", snap.Status, snap.LastRender)
	}
	if len(snap.Errors) != 1 || snap.Errors[0] != "parse: boom" {
		t.Errorf("expected one error, got %q", snap.Errors)
	}
}

func TestSnapshot_BulletinAsServiceHasNoDialect(t *testing.T) {
	sess := New()
	sess.SetService("warta.docx", []byte("x"))
	sess.SetDocument(sess.Service(), &document.Document{}, classify.BulletinGeneral)
	if d := sess.Snapshot().Dialect; d != "" {
		t.Errorf("expected no dialect, got %q", d)
	}
}

func TestStore_PutGetDelete(t *testing.T) {
	store := NewStore(time.Hour)
	sess := New()
	store.Put(sess)

	if got := store.Get(sess.ID); got != sess {
		t.Fatal("expected to get session back")
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing session")
	}
	if !store.Delete(sess.ID) {
		t.Error("expected delete to report an existing session")
	}
	if store.Delete(sess.ID) {
		t.Error("expected second delete to report nothing")
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d", store.Len())
	}
}

func TestStore_TTLCleanup(t *testing.T) {
	store := NewStore(50 * time.Millisecond)

	expired := New()
	store.Put(expired)
	time.Sleep(100 * time.Millisecond)

	fresh := New()
	store.Put(fresh)

	if n := store.Cleanup(); n != 1 {
		t.Errorf("expected 1 expired session, got %d", n)
	}
	if store.Get(expired.ID) != nil {
		t.Error("expected expired session to be cleaned up")
	}
	if store.Get(fresh.ID) == nil {
		t.Error("expected fresh session to survive cleanup")
	}
}

func TestStore_RunStopsWithContext(t *testing.T) {
	store := NewStore(time.Millisecond)
	store.Put(New())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
	if store.Len() != 0 {
		t.Error("expected background cleanup to evict the idle session")
	}
}
