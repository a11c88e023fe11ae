package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"

	"github.com/garyjia/ehs-tracker/internal/application/dispatcher"
	"github.com/garyjia/ehs-tracker/internal/application/port"
	"github.com/garyjia/ehs-tracker/internal/domain/event"
	"github.com/garyjia/ehs-tracker/internal/domain/workflow"
)

var (
	ErrEvidenceEmpty    = errors.New("evidence file is empty")
	ErrEvidenceTooLarge = errors.New("evidence file too large")
	ErrEvidenceType     = errors.New("evidence file type not allowed")
)

// DefaultAllowedEvidenceTypes are the photo formats accepted when none are configured
var DefaultAllowedEvidenceTypes = []string{"image/jpeg", "image/png", "image/webp", "image/heic"}

// EvidenceConfig limits what may be uploaded
type EvidenceConfig struct {
	MaxBytes     int64
	AllowedTypes []string
}

// EvidenceUpload describes a stored evidence photo
type EvidenceUpload struct {
	Ref      string `json:"ref"`
	MimeType string `json:"mime_type"`
	Size     int    `json:"size"`
}

// EvidenceBlob is a stored evidence photo with its content
type EvidenceBlob struct {
	Ref      string
	MimeType string
	Content  []byte
}

// EvidenceService validates and stores photo evidence. The returned refs are
// what SubmitResponse records on an item.
type EvidenceService interface {
	Upload(ctx context.Context, ownerID, filename string, content []byte) (*EvidenceUpload, error)
	Fetch(ctx context.Context, ref string) (*EvidenceBlob, error)
}

type evidenceServiceImpl struct {
	store      port.EvidenceStore
	config     EvidenceConfig
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

// NewEvidenceService creates a new EvidenceService. d may be nil.
func NewEvidenceService(store port.EvidenceStore, config EvidenceConfig, d dispatcher.Dispatcher, logger Logger) EvidenceService {
	if len(config.AllowedTypes) == 0 {
		config.AllowedTypes = DefaultAllowedEvidenceTypes
	}
	return &evidenceServiceImpl{
		store:      store,
		config:     config,
		dispatcher: d,
		logger:     logger,
	}
}

// Upload checks size and sniffed content type, then stores the blob under ownerID
func (s *evidenceServiceImpl) Upload(ctx context.Context, ownerID, filename string, content []byte) (*EvidenceUpload, error) {
	if ownerID == "" {
		return nil, workflow.ErrUnauthorized
	}
	if len(content) == 0 {
		return nil, ErrEvidenceEmpty
	}
	if s.config.MaxBytes > 0 && int64(len(content)) > s.config.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrEvidenceTooLarge, len(content), s.config.MaxBytes)
	}

	mtype := mimetype.Detect(content)
	if !s.allowed(mtype) {
		return nil, fmt.Errorf("%w: %s", ErrEvidenceType, mtype.String())
	}

	ref, err := s.store.PutBlob(ctx, ownerID, "evidence"+mtype.Extension(), content)
	if err != nil {
		s.logger.Error("Failed to store evidence", "error", err, "owner_id", ownerID, "filename", filename)
		return nil, fmt.Errorf("%w: %w", workflow.ErrPersistenceFailure, err)
	}

	s.logger.Info("Evidence stored",
		"ref", ref,
		"owner_id", ownerID,
		"filename", filename,
		"mime_type", mtype.String(),
		"size", len(content),
	)

	if s.dispatcher != nil {
		evt := event.NewEvent(event.TypeEvidenceAdded, "", ownerID, map[string]interface{}{
			"ref":       ref,
			"mime_type": mtype.String(),
		})
		s.dispatcher.DispatchAsync(ctx, evt)
	}

	return &EvidenceUpload{Ref: ref, MimeType: mtype.String(), Size: len(content)}, nil
}

// Fetch reads a stored blob back
func (s *evidenceServiceImpl) Fetch(ctx context.Context, ref string) (*EvidenceBlob, error) {
	rc, err := s.store.Open(ctx, ref)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", workflow.ErrPersistenceFailure, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", workflow.ErrPersistenceFailure, err)
	}

	return &EvidenceBlob{
		Ref:      ref,
		MimeType: mimetype.Detect(content).String(),
		Content:  content,
	}, nil
}

func (s *evidenceServiceImpl) allowed(mtype *mimetype.MIME) bool {
	for _, t := range s.config.AllowedTypes {
		if mtype.Is(t) {
			return true
		}
	}
	return false
}
