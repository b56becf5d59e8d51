package ports

import (
	"context"
	"io"
	"time"

	"github.com/rentahome/kyc-service/internal/core/domain"
)

// Document is an uploaded file on its way to storage.
type Document struct {
	Body        io.Reader
	Size        int64
	ContentType string
	Filename    string
}

// StoredDocument identifies a stored file.
type StoredDocument struct {
	Ref string
	URL string
}

// DocumentStore keeps tier2 evidence documents.
type DocumentStore interface {
	Store(ctx context.Context, doc Document, folder string) (StoredDocument, error)
	PresignURL(ctx context.Context, ref string, ttl time.Duration) (string, error)
}

// ReferralNotifier is the referral subsystem hook fired on first tier1 completion.
type ReferralNotifier interface {
	MarkReferralVerified(ctx context.Context, userID string) error
}

// EventPublisher broadcasts tier completion events to the rest of the platform.
type EventPublisher interface {
	PublishTierVerified(ctx context.Context, event domain.CompletionEvent) error
}

// Mailer sends plain notification emails.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SubmissionLocker serializes submissions for one user. Lock returns
// domain.ErrConflict while another submission holds the lock.
type SubmissionLocker interface {
	Lock(ctx context.Context, userID string) (unlock func(context.Context) error, err error)
}

// EmailTokenStore keeps hashed email verification tokens. Lookup returns
// domain.ErrInvalidToken for unknown or expired hashes; Consume deletes the
// hash and returns the same error when it was already gone.
type EmailTokenStore interface {
	Save(ctx context.Context, tokenHash, userID string, ttl time.Duration) error
	Lookup(ctx context.Context, tokenHash string) (userID string, err error)
	Consume(ctx context.Context, tokenHash string) error
}

// CompletionSink accepts tier completion events for best-effort processing.
// Enqueue never blocks the caller.
type CompletionSink interface {
	Enqueue(event domain.CompletionEvent)
}
