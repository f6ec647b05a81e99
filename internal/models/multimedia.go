package models

import (
	"time"
)

// Multimedia types accepted on upload.
const (
	MultimediaImage = "image"
	MultimediaVideo = "video"
	MultimediaAudio = "audio"
	MultimediaOther = "other"
)

// Multimedia is a file attachment owned by exactly one Heritage.
type Multimedia struct {
	ID          string    `json:"id"`
	HeritageID  string    `json:"heritage_id"`
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	MetaInfo    string    `json:"meta_info"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	StorageKey  string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasFile reports whether the record has bytes in the media store.
func (m *Multimedia) HasFile() bool {
	return m.StorageKey != ""
}

// CreateMultimediaRequest holds the non-file fields of a multipart upload.
type CreateMultimediaRequest struct {
	Type     string `form:"type" binding:"omitempty,oneof=image video audio other"`
	URL      string `form:"url" binding:"omitempty,url,max=512"`
	MetaInfo string `form:"meta_info" binding:"max=1024"`
}

// MediaType returns the requested type, defaulting to image.
func (r *CreateMultimediaRequest) MediaType() string {
	if r.Type == "" {
		return MultimediaImage
	}
	return r.Type
}
