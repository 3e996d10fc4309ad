// Package storage uploads off-chain metadata and media to the content
// store and hands back a retrievable public URI.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

type Client struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewClient(supabaseURL, serviceRoleKey, bucket string) (*Client, error) {
	baseURL := supabaseURL
	if len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &Client{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// UploadMetadata marshals an off-chain metadata document and uploads it
// under the entity's id. Returns the public URI the on-chain record will
// point at.
func (s *Client) UploadMetadata(entityKind string, entityID uuid.UUID, doc interface{}) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}

	storagePath := fmt.Sprintf("%s/%s/metadata.json", entityKind, entityID.String())

	contentType := "application/json"
	upsert := true
	_, err = s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload metadata: %w", err)
	}

	return s.PublicURL(storagePath), nil
}

// UploadMedia uploads raw media bytes for an entity.
func (s *Client) UploadMedia(entityKind string, entityID uuid.UUID, filename, contentType string, data []byte) (string, error) {
	storagePath := fmt.Sprintf("%s/%s/%s", entityKind, entityID.String(), filename)

	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload media: %w", err)
	}

	return s.PublicURL(storagePath), nil
}

func (s *Client) PublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		s.baseURL, s.bucket, storagePath)
}

func (s *Client) DeleteFile(storagePath string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{storagePath})
	return err
}
