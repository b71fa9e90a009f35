package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/fernandovmc/ai-workspaces/internal/model"
	"github.com/fernandovmc/ai-workspaces/internal/pdf"
	"github.com/fernandovmc/ai-workspaces/internal/util"
)

const (
	MimePDF   = "application/pdf"
	MimePlain = "text/plain"
	MimeDoc   = "application/msword"
	MimeDocx  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// UnsupportedContent is stored for types without a text extractor.
	UnsupportedContent = "(Content extraction not supported for this file type)"
)

var (
	ErrUnsupportedType = errors.New("file type not allowed, only PDF, TXT, DOC and DOCX are accepted")
	ErrFileTooLarge    = errors.New("file exceeds the upload limit")
	ErrNoFile          = errors.New("file is required")
)

var extensionTypes = map[string]string{
	".pdf":  MimePDF,
	".txt":  MimePlain,
	".doc":  MimeDoc,
	".docx": MimeDocx,
}

type DocumentStore interface {
	AddDocument(ctx context.Context, d *model.Document) error
	ListDocuments(ctx context.Context, workspaceID int64) ([]model.Document, error)
	GetDocument(ctx context.Context, workspaceID, id int64) (*model.Document, error)
	DeleteDocument(ctx context.Context, workspaceID, id int64) error
}

type DocumentService struct {
	store    DocumentStore
	dir      string
	maxBytes int64
	log      *slog.Logger
}

func NewDocumentService(store DocumentStore, uploadDir string, maxBytes int64, log *slog.Logger) *DocumentService {
	if log == nil {
		log = slog.Default()
	}
	return &DocumentService{store: store, dir: uploadDir, maxBytes: maxBytes, log: log.With("component", "documents")}
}

// MimeType returns the accepted type of a file, preferring the declared
// one and falling back to the extension. Empty means not accepted.
func MimeType(name, declared string) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && allowedType(mt) {
			return mt
		}
	}
	return extensionTypes[strings.ToLower(filepath.Ext(name))]
}

func allowedType(mt string) bool {
	switch mt {
	case MimePDF, MimePlain, MimeDoc, MimeDocx:
		return true
	}
	return false
}

// Upload stores the file under the upload directory, extracts its text
// and records it in the workspace.
func (s *DocumentService) Upload(ctx context.Context, workspaceID int64, name, mimeType string, r io.Reader) (*model.Document, error) {
	mt := MimeType(name, mimeType)
	if mt == "" {
		return nil, ErrUnsupportedType
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare upload dir: %w", err)
	}
	path := filepath.Join(s.dir, util.Timestamped(name))
	if err := s.save(path, r); err != nil {
		os.Remove(path)
		return nil, err
	}

	content, err := extractContent(path, mt)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}

	doc := &model.Document{
		WorkspaceID: workspaceID,
		Name:        filepath.Base(name),
		FilePath:    path,
		MimeType:    mt,
		Content:     content,
	}
	if err := s.store.AddDocument(ctx, doc); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("save document: %w", err)
	}
	s.log.Info("document uploaded", "workspace", workspaceID, "document", doc.ID, "name", doc.Name, "mime", mt, "chars", len(content))
	return doc, nil
}

func (s *DocumentService) save(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		return ErrFileTooLarge
	}
	return f.Close()
}

func extractContent(path, mt string) (string, error) {
	switch mt {
	case MimePDF:
		return pdf.ExtractText(path)
	case MimePlain:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return pdf.Normalize(string(data)), nil
	default:
		return UnsupportedContent, nil
	}
}

func (s *DocumentService) List(ctx context.Context, workspaceID int64) ([]model.Document, error) {
	return s.store.ListDocuments(ctx, workspaceID)
}

func (s *DocumentService) Get(ctx context.Context, workspaceID, id int64) (*model.Document, error) {
	return s.store.GetDocument(ctx, workspaceID, id)
}

// Delete removes the stored file and the document row.
func (s *DocumentService) Delete(ctx context.Context, workspaceID, id int64) error {
	doc, err := s.store.GetDocument(ctx, workspaceID, id)
	if err != nil {
		return err
	}
	if doc.FilePath != "" {
		if err := os.Remove(doc.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("remove document file", "path", doc.FilePath, "err", err)
		}
	}
	return s.store.DeleteDocument(ctx, workspaceID, id)
}
