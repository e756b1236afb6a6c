package httpapi

import (
	"time"

	"github.com/dmitrijs2005/peerlink/internal/server/models"
)

const (
	maxJSONBody  = 1 << 20
	maxShareBody = 32 << 20
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type verifyPasswordRequest struct {
	Password string `json:"password"`
}

type changePasswordRequest struct {
	Password    string `json:"password"`
	NewPassword string `json:"new_password"`
}

type generateKeyRequest struct {
	DisplayName string `json:"display_name"`
}

type generateKeyResponse struct {
	UniqueKey string `json:"unique_key"`
}

type sendRequestRequest struct {
	UniqueKey string `json:"unique_key"`
}

type requesterRequest struct {
	RequesterEmail string `json:"requester_email"`
}

type acceptResponse struct {
	Message     string `json:"message"`
	ConnectedTo string `json:"connected_to"`
}

type disconnectResponse struct {
	Message string `json:"message"`
	Peer    string `json:"peer"`
	Partial bool   `json:"partial,omitempty"`
}

// statusResponse carries connected_to as null when not connected.
type statusResponse struct {
	IsConnected     bool     `json:"is_connected"`
	ConnectedTo     *string  `json:"connected_to"`
	PendingRequests []string `json:"pending_requests"`
}

// shareRequest carries content base64-encoded.
type shareRequest struct {
	ReceiverEmail string `json:"receiver_email"`
	Name          string `json:"name"`
	Content       []byte `json:"content"`
}

type shareResponse struct {
	ID string `json:"id"`
}

type fileDTO struct {
	ID            string    `json:"id"`
	SenderEmail   string    `json:"sender_email"`
	ReceiverEmail string    `json:"receiver_email"`
	Name          string    `json:"name"`
	Size          int64     `json:"size"`
	SharedAt      time.Time `json:"shared_at"`
	IsRead        bool      `json:"is_read"`
}

type listFilesResponse struct {
	Files []fileDTO `json:"files"`
}

type urlResponse struct {
	URL string `json:"url"`
}

func toFileDTO(f *models.SharedFile) fileDTO {
	return fileDTO{
		ID:            f.ID,
		SenderEmail:   f.Sender,
		ReceiverEmail: f.Receiver,
		Name:          f.Name,
		Size:          f.Size,
		SharedAt:      f.SharedAt,
		IsRead:        f.IsRead,
	}
}
