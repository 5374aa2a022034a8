package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Archiver stores rendered documents.
type Archiver interface {
	Upload(ctx context.Context, path, contentType string, file io.Reader) error
}

// SupabaseStorage uploads objects to a Supabase Storage bucket over its
// REST API.
type SupabaseStorage struct {
	baseURL string
	apiKey  string
	bucket  string
	client  *http.Client
}

func NewStorageService(
	baseURL string,
	apiKey string,
	bucket string,
) *SupabaseStorage {
	return &SupabaseStorage{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		bucket:  bucket,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether uploads can be attempted.
func (s *SupabaseStorage) Configured() bool {
	return s.baseURL != "" && s.apiKey != "" && s.bucket != ""
}

// Upload writes file to path inside the bucket, replacing an existing
// object.
func (s *SupabaseStorage) Upload(
	ctx context.Context,
	path string,
	contentType string,
	file io.Reader,
) error {
	if !s.Configured() {
		return fmt.Errorf("storage upload failed: archive bucket not configured")
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/storage/v1/object/"+s.bucket+"/"+strings.TrimLeft(path, "/"),
		file,
	)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("storage upload failed: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
