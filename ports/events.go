package ports

import "context"

// BadgeMinted is emitted after a mint transaction is accepted.
type BadgeMinted struct {
	Identity  string `json:"identity"`
	Recipient string `json:"recipient"`
	BadgeType string `json:"badge_type"`
	TxHash    string `json:"tx_hash"`
	Tokens    int64  `json:"tokens"`
}

// CredentialIssued is emitted after a credential record is appended.
type CredentialIssued struct {
	Identity       string `json:"identity"`
	BadgeType      string `json:"badge_type"`
	MetadataURI    string `json:"metadata_uri"`
	CertificateURI string `json:"certificate_uri"`
}

// EventPublisher publishes domain events to other instances
type EventPublisher interface {
	PublishBadgeMinted(ctx context.Context, event BadgeMinted) error
	PublishCredentialIssued(ctx context.Context, event CredentialIssued) error
}
