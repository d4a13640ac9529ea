package connectors

import (
	"path/filepath"
	"testing"

	"cetpredict/internal"
	"cetpredict/internal/storage"
)

type fakeConnector struct {
	messages []internal.FetchedMailMessage
}

func (f *fakeConnector) FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error) {
	if len(f.messages) > max {
		return f.messages[:max], nil
	}
	return f.messages, nil
}

func TestFetchAndStoreSkipsKnownCirculars(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "cutoffs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	conn := &fakeConnector{messages: []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "<round1@board>", Subject: "Round 1 cutoffs", Raw: []byte("raw message")},
	}}
	svc := NewFetchService(db, filepath.Join(tmp, "raw"), conn)

	first, err := svc.FetchAndStore("INBOX", 10)
	if err != nil {
		t.Fatal(err)
	}
	if first.Stored != 1 || first.Skipped != 0 {
		t.Fatalf("first=%+v", first)
	}

	second, err := svc.FetchAndStore("INBOX", 10)
	if err != nil {
		t.Fatal(err)
	}
	if second.Stored != 0 || second.Skipped != 1 {
		t.Fatalf("second=%+v", second)
	}

	row, err := db.GetCircularByProviderMessageID("imap", "<round1@board>")
	if err != nil {
		t.Fatal(err)
	}
	if row == nil || row.Status != "fetched" {
		t.Fatalf("row=%+v", row)
	}
}
