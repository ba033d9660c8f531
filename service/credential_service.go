package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/ports"
)

var unsafeFilenameChars = regexp.MustCompile(`[^\w\-]`)

// SanitizeFilename replaces everything except word characters and hyphens with '_'
func SanitizeFilename(s string) string {
	return unsafeFilenameChars.ReplaceAllString(s, "_")
}

// IssueRequest carries the participant-supplied credential details
type IssueRequest struct {
	Identity    string `json:"user_address"`
	StudentName string `json:"student_name"`
	Cohort      string `json:"class_semester"`
	Institution string `json:"university"`
	BadgeType   string `json:"badge_type"`
}

// IssueResult locates the published credential
type IssueResult struct {
	MetadataURI    string `json:"metadata_uri"`
	CertificateURL string `json:"certificate_url"`
}

// CredentialService publishes credential metadata and certificates.
//
// The certificate embeds a QR code pointing at its metadata while the metadata
// names the certificate's CID, so metadata is pinned twice: once before
// rendering with an empty image reference, and again once the image is pinned.
type CredentialService struct {
	ledger   ports.Ledger
	content  ports.ContentStore
	renderer ports.Renderer
	records  ports.RecordStore
	events   ports.EventPublisher
	options
	reserve reservation
}

// NewCredentialService creates a credential service. events may be nil.
func NewCredentialService(
	ledger ports.Ledger,
	content ports.ContentStore,
	renderer ports.Renderer,
	records ports.RecordStore,
	events ports.EventPublisher,
	opts ...Option,
) (*CredentialService, error) {
	if ledger == nil || content == nil || renderer == nil || records == nil {
		return nil, errors.New("ledger, content store, renderer and record store are required")
	}

	o := newOptions(opts)
	return &CredentialService{
		ledger:   ledger,
		content:  content,
		renderer: renderer,
		records:  records,
		events:   events,
		options:  o,
		reserve: reservation{
			ledger:   ledger,
			workflow: "credential",
			timeout:  o.policy.ExternalTimeout,
			logger:   o.logger,
			metrics:  o.metrics,
		},
	}, nil
}

// Issue spends the flat issuance cost and publishes a credential. Nothing is
// recorded and the cost is refunded if any step fails.
func (s *CredentialService) Issue(ctx context.Context, req IssueRequest) (IssueResult, error) {
	if req.Identity == "" || req.StudentName == "" || req.Cohort == "" || req.Institution == "" || req.BadgeType == "" {
		return IssueResult{}, core.ErrMissingField
	}

	cost := s.policy.MinimumMint
	balance, err := s.ledger.BalanceOf(ctx, req.Identity)
	if err != nil {
		return IssueResult{}, fmt.Errorf("read balance: %w", err)
	}
	if balance < cost {
		s.metrics.Credential("insufficient")
		return IssueResult{}, fmt.Errorf("%w: issuance costs %d, balance is %d", core.ErrInsufficientTokens, cost, balance)
	}

	var result IssueResult
	_, err = s.reserve.run(ctx, req.Identity, cost, func(ctx context.Context) error {
		var err error
		result, err = s.publish(ctx, req, cost)
		return err
	})
	if err != nil {
		s.metrics.Credential("failure")
		return IssueResult{}, err
	}

	s.metrics.Credential("success")
	s.logger.InfoContext(ctx, "credential issued",
		"identity", req.Identity,
		"badge_type", req.BadgeType,
		"metadata_uri", result.MetadataURI)

	if s.events != nil {
		err := s.events.PublishCredentialIssued(ctx, ports.CredentialIssued{
			Identity:       req.Identity,
			BadgeType:      req.BadgeType,
			MetadataURI:    result.MetadataURI,
			CertificateURI: result.CertificateURL,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "failed to publish credential issued event", "error", err)
		}
	}

	return result, nil
}

// Records lists every issued credential
func (s *CredentialService) Records(ctx context.Context) ([]core.CredentialRecord, error) {
	return s.records.List(ctx)
}

func (s *CredentialService) publish(ctx context.Context, req IssueRequest, cost int64) (IssueResult, error) {
	granted := s.now()
	grantDate := core.GrantDate(granted)
	pinName := req.StudentName + "-" + req.BadgeType
	attributes := []core.Attribute{
		{"Student": req.StudentName},
		{"Class": req.Cohort},
		{"University": req.Institution},
		{"Date": grantDate},
		{"Badge Type": req.BadgeType},
		{"Tokens Used": cost},
	}

	draftCID, err := s.pinJSON(ctx, pinName, core.Metadata{Attributes: attributes})
	if err != nil {
		return IssueResult{}, fmt.Errorf("%w: pin draft metadata: %w", core.ErrPublicationFailed, err)
	}

	image, err := s.renderer.Render(ctx, ports.CertificateDetails{
		Name:        req.StudentName,
		Cohort:      req.Cohort,
		Institution: req.Institution,
		MetadataURL: s.content.URL(draftCID),
		BadgeLabel:  req.BadgeType,
		GrantDate:   granted,
	})
	if err != nil {
		return IssueResult{}, fmt.Errorf("%w: render certificate: %w", core.ErrPublicationFailed, err)
	}

	filename := fmt.Sprintf("generated_%s_%s.png", SanitizeFilename(req.StudentName), SanitizeFilename(req.BadgeType))
	imageCID, err := s.pinBytes(ctx, image, filename)
	if err != nil {
		return IssueResult{}, fmt.Errorf("%w: pin certificate: %w", core.ErrPublicationFailed, err)
	}
	certificateURL := s.content.URL(imageCID)

	finalCID, err := s.pinJSON(ctx, pinName, core.Metadata{
		ImageCID:       imageCID,
		CertificateURL: certificateURL,
		Attributes:     attributes,
	})
	if err != nil {
		return IssueResult{}, fmt.Errorf("%w: pin metadata: %w", core.ErrPublicationFailed, err)
	}
	metadataURI := s.content.URL(finalCID)

	err = s.records.Append(ctx, core.CredentialRecord{
		Identity:       req.Identity,
		StudentName:    req.StudentName,
		Cohort:         req.Cohort,
		Institution:    req.Institution,
		BadgeType:      req.BadgeType,
		GrantDate:      grantDate,
		MetadataURI:    metadataURI,
		CertificateURI: certificateURL,
		TokensUsed:     cost,
	})
	if err != nil {
		return IssueResult{}, fmt.Errorf("%w: %w", core.ErrRecordPersistenceFailed, err)
	}

	return IssueResult{MetadataURI: metadataURI, CertificateURL: certificateURL}, nil
}

func (s *CredentialService) pinJSON(ctx context.Context, name string, content core.Metadata) (string, error) {
	defer s.metrics.ObserveExternal("ipfs", time.Now())
	return s.content.PinJSON(ctx, name, content)
}

func (s *CredentialService) pinBytes(ctx context.Context, data []byte, filename string) (string, error) {
	defer s.metrics.ObserveExternal("ipfs", time.Now())
	return s.content.PinBytes(ctx, data, filename)
}
