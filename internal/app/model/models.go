package model

import "time"

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

const (
	UploadNotUploaded UploadStatus = "not uploaded"
	UploadUploaded    UploadStatus = "uploaded"
)

const (
	KindVideo AssetKind = "video"
	KindImage AssetKind = "image"
)

type RequestStatus string

type UploadStatus string

// AssetKind doubles as the secondary store's resource type qualifier.
type AssetKind string

func (k AssetKind) Extension() string {
	if k == KindVideo {
		return "mp4"
	}
	return "jpg"
}

func (k AssetKind) ContentType() string {
	if k == KindVideo {
		return "video/mp4"
	}
	return "image/jpeg"
}

func (k AssetKind) Valid() bool {
	return k == KindVideo || k == KindImage
}

type Metadata struct {
	Title         string
	Description   string
	CategoryID    string
	Audience      string
	PrivacyStatus string
}

// MadeForKids reports the audience flag the way the editor form stores it.
func (m Metadata) MadeForKids() bool {
	return m.Audience == "yes"
}

type Request struct {
	ID                string
	VideoURL          string
	ThumbnailURL      string
	VideoPublicID     string
	ThumbnailPublicID string
	Metadata          Metadata
	RefreshToken      string
	Status            RequestStatus
	UploadStatus      UploadStatus
	FromUser          string
	ToUser            string
	RequestedAt       time.Time
	RespondedAt       *time.Time
}

func (r *Request) Published() bool {
	return r.UploadStatus == UploadUploaded
}

// NeedsReapproval is true when an approved request lost its response time
// because the stored refresh token could not be renewed.
func (r *Request) NeedsReapproval() bool {
	return r.Status == StatusApproved && r.RespondedAt == nil
}

type Asset struct {
	URL      string
	PublicID string
	Kind     AssetKind
}

type PendingDelete struct {
	ID        int64
	PublicID  string
	RequestID string
	Kind      AssetKind
	CreatedAt time.Time
}
