package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/drifthq/driftchat-backend/internal/repository"
	"github.com/drifthq/driftchat-backend/internal/storage"
	"github.com/google/uuid"
)

var ErrStorageNotConfigured = errors.New("storage not configured")

// AttachmentService stores message image attachments. Upload happens
// before the message is appended; the client sends the returned URL in the
// message body.
type AttachmentService struct {
	conversationRepo repository.ConversationRepositoryInterface
	s3               *storage.S3Storage
}

func NewAttachmentService(conversationRepo repository.ConversationRepositoryInterface, s3 *storage.S3Storage) *AttachmentService {
	return &AttachmentService{conversationRepo: conversationRepo, s3: s3}
}

// Attachment describes one stored attachment object.
type Attachment struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// UploadAttachment processes an uploaded image and stores it as a JPEG
// scoped under the conversation. Only participants can upload.
func (s *AttachmentService) UploadAttachment(ctx context.Context, conversationID, userID uint, fileReader io.Reader, publicAPIBaseURL string) (*Attachment, error) {
	if s.s3 == nil {
		return nil, ErrStorageNotConfigured
	}
	publicAPIBaseURL = strings.TrimRight(strings.TrimSpace(publicAPIBaseURL), "/")
	if publicAPIBaseURL == "" {
		return nil, errors.New("missing public api base url")
	}

	isParticipant, err := s.conversationRepo.IsParticipant(conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !isParticipant {
		return nil, ErrNotAParticipant
	}

	opts := storage.DefaultAttachmentOptions()
	jpegBytes, contentType, outSize, err := storage.ProcessAttachmentImage(fileReader, opts)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("attachments/%d/%s.jpg", conversationID, uuid.NewString())
	if _, err := s.s3.PutObject(ctx, key, bytes.NewReader(jpegBytes), outSize, contentType); err != nil {
		return nil, err
	}

	return &Attachment{
		URL:         publicAPIBaseURL + "/media/" + key,
		Key:         key,
		ContentType: contentType,
		SizeBytes:   outSize,
	}, nil
}
