package backend

import (
	"bytes"
	"context"
	"io"
	"path"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/envelope"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
)

// MaxDocumentSize caps a single upload.
const MaxDocumentSize = 10 << 20

// UploadDocument stores the bytes in blob storage and records the metadata.
func (b *Backend) UploadDocument(ctx context.Context, ownerID, name, contentType string, data []byte) envelope.Response[model.Document] {
	return run(ctx, b, "UploadDocument", "Document uploaded successfully", func() (model.Document, error) {
		name = path.Base(strings.TrimSpace(name))
		if name == "" || name == "." || name == "/" {
			return model.Document{}, envelope.Invalid("file name is required", map[string]string{"name": "required"})
		}
		if len(data) == 0 {
			return model.Document{}, envelope.Invalid("file is empty", map[string]string{"file": "required"})
		}
		if len(data) > MaxDocumentSize {
			return model.Document{}, envelope.Invalid("file exceeds the 10 MB limit", map[string]string{"file": "max"})
		}
		if _, err := get(b.st.Users, ownerID); err != nil {
			return model.Document{}, err
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		id := b.st.NewID()
		key := path.Join("documents", ownerID, id)
		info, err := b.blobs.Put(ctx, key, bytes.NewReader(data), contentType)
		if err != nil {
			return model.Document{}, err
		}
		doc := model.Document{
			ID:          id,
			OwnerID:     ownerID,
			Name:        name,
			ContentType: contentType,
			Size:        info.Size,
			BlobKey:     key,
			CreatedAt:   b.st.Now(),
		}
		if err := b.st.Documents.Insert(doc, nil); err != nil {
			if derr := b.blobs.Delete(ctx, key); derr != nil {
				b.log.Warn("orphaned blob", zap.String("key", key), zap.Error(derr))
			}
			return model.Document{}, err
		}
		return doc, nil
	})
}

// DownloadDocument returns a document's bytes to its owner or an admin.
// Anyone else gets not_found.
func (b *Backend) DownloadDocument(ctx context.Context, id, requesterID string) envelope.Response[envelope.Binary] {
	return run(ctx, b, "DownloadDocument", "Document retrieved successfully", func() (envelope.Binary, error) {
		doc, err := get(b.st.Documents, id)
		if err != nil {
			return envelope.Binary{}, err
		}
		if doc.OwnerID != requesterID {
			u, err := b.st.Users.Get(requesterID)
			if err != nil || u.Role != model.RoleAdmin {
				return envelope.Binary{}, envelope.NotFound("document", id)
			}
		}
		_, rc, err := b.blobs.Get(ctx, doc.BlobKey)
		if err != nil {
			return envelope.Binary{}, err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return envelope.Binary{}, err
		}
		return envelope.Binary{Name: doc.Name, ContentType: doc.ContentType, Data: data}, nil
	})
}

// ListMyDocuments lists the owner's uploads, newest first.
func (b *Backend) ListMyDocuments(ctx context.Context, ownerID string) envelope.Response[[]model.Document] {
	return run(ctx, b, "ListMyDocuments", "Documents retrieved successfully", func() ([]model.Document, error) {
		docs := b.st.Documents.Where(func(d model.Document) bool { return d.OwnerID == ownerID })
		slices.SortStableFunc(docs, func(x, y model.Document) int { return y.CreatedAt.Compare(x.CreatedAt) })
		return docs, nil
	})
}
