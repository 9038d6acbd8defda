// Package attachments stores uploaded files: payloads go to a blob store
// under a fresh storage key, metadata to the persistent store.
package attachments

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"elnimport/internal/blob"
	"elnimport/internal/logging"
	"elnimport/pkg/domain"
)

// NewAttachment describes a file to store.
type NewAttachment struct {
	Filename    string
	ContentType string
	CreatedBy   string
	CreatedFor  string
}

// Service creates, annotates, reads and destroys attachments.
type Service struct {
	store  domain.PersistentStore
	blobs  blob.Store
	logger logging.Logger
	newKey func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service.
func New(store domain.PersistentStore, blobs blob.Store, opts ...Option) *Service {
	s := &Service{store: store, blobs: blobs, logger: logging.Nop(), newKey: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnnotationKey returns the blob key holding the annotation of the payload stored under identifier.
func AnnotationKey(identifier string) string {
	return annotationPrefix(identifier) + ".svg"
}

func annotationPrefix(identifier string) string {
	return "annotations/" + identifier
}

// Create uploads r and persists a transferred Attachment record in its own
// transaction. The payload is removed again when the record cannot be stored.
func (s *Service) Create(ctx context.Context, in NewAttachment, r io.Reader) (domain.Attachment, error) {
	if in.Filename == "" {
		return domain.Attachment{}, domain.ValidationError{Entity: domain.EntityAttachment, Field: "filename", Message: "required"}
	}
	key := s.newKey()
	info, err := s.blobs.Put(ctx, key, r, blob.PutOptions{
		ContentType: in.ContentType,
		Metadata:    map[string]string{"filename": in.Filename},
	})
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("store attachment payload %s: %w", in.Filename, err)
	}
	record := domain.Attachment{
		Identifier:  key,
		Filename:    in.Filename,
		ContentType: in.ContentType,
		Size:        info.Size,
		Checksum:    info.ETag,
		Transferred: true,
		State:       domain.AttachmentStateQueueing,
		ConState:    domain.ConStateNone,
		CreatedBy:   in.CreatedBy,
		CreatedFor:  in.CreatedFor,
	}
	var created domain.Attachment
	err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.Attachments().Create(record)
		return err
	})
	if err != nil {
		if _, derr := s.blobs.Delete(ctx, key); derr != nil {
			err = errors.Join(err, derr)
		}
		return domain.Attachment{}, err
	}
	s.logger.Debug("attachment stored", "id", created.ID, "identifier", key, "filename", in.Filename, "size", info.Size)
	return created, nil
}

// UpdateAnnotation stores svg as the attachment's annotation, replacing any previous one.
func (s *Service) UpdateAnnotation(ctx context.Context, id string, svg []byte) (domain.Attachment, error) {
	current, err := s.Find(ctx, id)
	if err != nil {
		return domain.Attachment{}, err
	}
	key := AnnotationKey(current.Identifier)
	if _, err := s.blobs.Delete(ctx, key); err != nil {
		return domain.Attachment{}, fmt.Errorf("replace annotation %s: %w", key, err)
	}
	if _, err := s.blobs.Put(ctx, key, bytes.NewReader(svg), blob.PutOptions{ContentType: "image/svg+xml"}); err != nil {
		return domain.Attachment{}, fmt.Errorf("store annotation %s: %w", key, err)
	}
	var updated domain.Attachment
	err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.Attachments().Update(id, func(a *domain.Attachment) error {
			a.AnnotationKey = key
			return nil
		})
		return err
	})
	if err != nil {
		_, _ = s.blobs.Delete(ctx, key)
		return domain.Attachment{}, err
	}
	return updated, nil
}

// Find returns the committed attachment record.
func (s *Service) Find(ctx context.Context, id string) (domain.Attachment, error) {
	var found domain.Attachment
	err := s.store.View(ctx, func(tx domain.Transaction) error {
		a, ok := tx.Attachments().Find(id)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityAttachment, ID: id}
		}
		found = a
		return nil
	})
	return found, err
}

// Open returns the record and a reader over its payload; the caller closes it.
func (s *Service) Open(ctx context.Context, id string) (domain.Attachment, io.ReadCloser, error) {
	a, err := s.Find(ctx, id)
	if err != nil {
		return domain.Attachment{}, nil, err
	}
	_, rc, err := s.blobs.Get(ctx, a.Identifier)
	if err != nil {
		return domain.Attachment{}, nil, err
	}
	return a, rc, nil
}

// Destroy removes the records and their payloads. Unknown ids are ignored;
// every payload deletion is attempted and failures are joined.
func (s *Service) Destroy(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	var removed []domain.Attachment
	err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		removed = removed[:0]
		for _, id := range ids {
			a, ok := tx.Attachments().Find(id)
			if !ok {
				continue
			}
			if err := tx.Attachments().Delete(id); err != nil {
				return err
			}
			removed = append(removed, a)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("destroy attachments: %w", err)
	}
	var errs []error
	for _, a := range removed {
		if _, err := s.blobs.Delete(ctx, a.Identifier); err != nil {
			errs = append(errs, fmt.Errorf("delete payload %s: %w", a.Identifier, err))
		}
		// Annotations are found by key rather than through the record, so
		// blobs left behind by an interrupted UpdateAnnotation go too.
		annotations, err := s.blobs.List(ctx, annotationPrefix(a.Identifier))
		if err != nil {
			errs = append(errs, fmt.Errorf("list annotations of %s: %w", a.Identifier, err))
			continue
		}
		for _, info := range annotations {
			if _, err := s.blobs.Delete(ctx, info.Key); err != nil {
				errs = append(errs, fmt.Errorf("delete annotation %s: %w", info.Key, err))
			}
		}
	}
	s.logger.Debug("attachments destroyed", "count", len(removed))
	return errors.Join(errs...)
}
