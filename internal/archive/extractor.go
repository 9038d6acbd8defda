// Package archive reads an export archive: it parses the manifest, stores
// attachment entries through an attachment creator, and stages inline
// images on local disk for later lookup.
package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"elnimport/internal/attachments"
	"elnimport/internal/logging"
	"elnimport/internal/manifest"
	"elnimport/pkg/domain"
)

// AnnotationSuffix marks the annotation sibling of an attachment entry.
const AnnotationSuffix = "_annotation"

var (
	attachmentPattern = regexp.MustCompile(`^attachments/([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})`)
	imagePattern      = regexp.MustCompile(`^images/(samples|reactions|molecules|research_plans)/(\w{1,128}\.\w{1,4})$`)
)

// Image categories.
const (
	ImageSamples       = "samples"
	ImageReactions     = "reactions"
	ImageMolecules     = "molecules"
	ImageResearchPlans = "research_plans"
)

// AttachmentCreator stores attachment payloads and records.
type AttachmentCreator interface {
	Create(ctx context.Context, in attachments.NewAttachment, r io.Reader) (domain.Attachment, error)
	UpdateAnnotation(ctx context.Context, id string, svg []byte) (domain.Attachment, error)
	Destroy(ctx context.Context, ids ...string) error
}

// Result is the outcome of a successful extraction.
type Result struct {
	Manifest    *manifest.Manifest
	Attachments []domain.Attachment
	StagingDir  string
	Images      int
}

// AttachmentIDs lists the created attachment record ids in archive order.
func (r *Result) AttachmentIDs() []string {
	ids := make([]string, len(r.Attachments))
	for i, a := range r.Attachments {
		ids[i] = a.ID
	}
	return ids
}

// Extractor splits archives into manifest, attachments and staged images.
type Extractor struct {
	creator AttachmentCreator
	logger  logging.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the extractor logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExtractor constructs an Extractor.
func NewExtractor(creator AttachmentCreator, opts ...Option) *Extractor {
	e := &Extractor{creator: creator, logger: logging.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract buffers src into stagingDir, then walks the archive entries.
// Attachments are owned by actor. On error every attachment created so far
// is destroyed; removing stagingDir is left to its owner.
func (e *Extractor) Extract(ctx context.Context, src io.Reader, stagingDir, actor string) (_ *Result, err error) {
	res := &Result{Manifest: manifest.Empty(), StagingDir: stagingDir}
	defer func() {
		if err == nil || len(res.Attachments) == 0 {
			return
		}
		if derr := e.creator.Destroy(context.WithoutCancel(ctx), res.AttachmentIDs()...); derr != nil {
			err = errors.Join(err, fmt.Errorf("destroy staged attachments: %w", derr))
		}
		res.Attachments = nil
	}()

	buffered, size, err := buffer(src, stagingDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = buffered.Close()
		_ = os.Remove(buffered.Name())
	}()
	zr, err := zip.NewReader(buffered, size)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	byName := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		byName[f.Name] = f
	}

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		switch {
		case f.Name == manifest.FileName:
			raw, err := readEntry(f)
			if err != nil {
				return nil, err
			}
			m, err := manifest.Parse(raw)
			if err != nil {
				return nil, err
			}
			res.Manifest = m
		case attachmentPattern.MatchString(f.Name):
			if strings.HasSuffix(f.Name, AnnotationSuffix) {
				continue
			}
			a, err := e.stageAttachment(ctx, f, byName[f.Name+AnnotationSuffix], actor)
			if a.ID != "" {
				res.Attachments = append(res.Attachments, a)
			}
			if err != nil {
				return nil, err
			}
		default:
			match := imagePattern.FindStringSubmatch(f.Name)
			if match == nil {
				e.logger.Debug("archive entry ignored", "entry", f.Name)
				continue
			}
			if err := stageImage(f, filepath.Join(stagingDir, "images", match[1], match[2])); err != nil {
				return nil, err
			}
			res.Images++
		}
	}
	e.logger.Debug("archive extracted", "attachments", len(res.Attachments), "images", res.Images, "entities", res.Manifest.Len())
	return res, nil
}

func (e *Extractor) stageAttachment(ctx context.Context, f, annotation *zip.File, actor string) (domain.Attachment, error) {
	filename := strings.TrimPrefix(f.Name, "attachments/")
	rc, err := f.Open()
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()
	a, err := e.creator.Create(ctx, attachments.NewAttachment{
		Filename:    filename,
		ContentType: mime.TypeByExtension(filepath.Ext(filename)),
		CreatedBy:   actor,
		CreatedFor:  actor,
	}, rc)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("stage attachment %s: %w", filename, err)
	}
	if annotation == nil {
		return a, nil
	}
	svg, err := readEntry(annotation)
	if err != nil {
		return a, err
	}
	if _, err := e.creator.UpdateAnnotation(ctx, a.ID, svg); err != nil {
		return a, fmt.Errorf("annotate %s: %w", filename, err)
	}
	return a, nil
}

func buffer(src io.Reader, dir string) (*os.File, int64, error) {
	tmp, err := os.CreateTemp(dir, "archive-*.zip")
	if err != nil {
		return nil, 0, fmt.Errorf("buffer archive: %w", err)
	}
	size, err := io.Copy(tmp, src)
	if err == nil {
		_, err = tmp.Seek(0, io.SeekStart)
	}
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, 0, fmt.Errorf("buffer archive: %w", err)
	}
	return tmp, size, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return b, nil
}

func stageImage(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("stage %s: %w", f.Name, err)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("stage %s: %w", f.Name, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("stage %s: %w", f.Name, err)
	}
	return out.Close()
}

// ImagePath returns where an image of category and filename is staged.
// Filenames outside the archive image pattern yield "".
func ImagePath(stagingDir, category, filename string) string {
	if !imagePattern.MatchString("images/" + category + "/" + filename) {
		return ""
	}
	return filepath.Join(stagingDir, "images", category, filename)
}
