package supabase

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// BucketVisibility selects which bucket a StorageClient talks to. Previews
// and watermarked files live in the public bucket and are served by plain
// URL; originals and processed full versions live in the private bucket and
// are only ever handed out as short-lived signed URLs.
type BucketVisibility int

const (
	BucketPublic BucketVisibility = iota
	BucketPrivate
)

const signedURLExpirySeconds = 60 * 60

type StorageClient struct {
	client     *storage.Client
	bucket     string
	baseURL    string
	visibility BucketVisibility
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string, visibility BucketVisibility) (*StorageClient, error) {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:     client,
		bucket:     bucket,
		baseURL:    baseURL,
		visibility: visibility,
	}, nil
}

// UploadFile stores data at storagePath and returns the URL clients should
// use to fetch it: a plain public URL for the public bucket, a signed URL
// for the private one.
func (s *StorageClient) UploadFile(storagePath string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	if s.visibility == BucketPublic {
		return s.PublicURL(storagePath), nil
	}
	return s.SignedURL(storagePath)
}

func (s *StorageClient) PublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, storagePath)
}

func (s *StorageClient) SignedURL(storagePath string) (string, error) {
	resp, err := s.client.CreateSignedUrl(s.bucket, storagePath, signedURLExpirySeconds)
	if err != nil {
		return "", fmt.Errorf("failed to sign url: %w", err)
	}
	return resp.SignedURL, nil
}

func (s *StorageClient) DownloadFile(storagePath string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}

	return data, nil
}

func (s *StorageClient) DeleteFile(storagePath string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{storagePath})
	return err
}

func (s *StorageClient) ListFolder(prefix string) ([]string, error) {
	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	paths := make([]string, 0, len(files))
	for _, file := range files {
		paths = append(paths, path.Join(prefix, file.Name))
	}
	return paths, nil
}

// FolderAsZip downloads every file under prefix and packs them into a single
// zip archive, keeping only the base filenames.
func (s *StorageClient) FolderAsZip(prefix string) ([]byte, error) {
	paths, err := s.ListFolder(prefix)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, storagePath := range paths {
		data, err := s.DownloadFile(storagePath)
		if err != nil {
			return nil, err
		}

		w, err := zw.Create(path.Base(storagePath))
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", storagePath, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write %s to archive: %w", storagePath, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
