package connectors

import "cetpredict/internal"

// MailConnector fetches admission-board circulars from one mailbox provider.
// Implementations return raw RFC 822 messages; attachment parsing and
// ingestion happen downstream in the pipeline.
type MailConnector interface {
	FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error)
}
