package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateHeritageRequest_PartialUpdate(t *testing.T) {
	h := Heritage{ID: "h-1", Title: "Hagia Sophia", Location: "Istanbul", Tags: []string{"byzantine"}}

	title := "Ayasofya"
	req := UpdateHeritageRequest{Title: &title}
	req.Apply(&h)

	assert.Equal(t, "Ayasofya", h.Title)
	assert.Equal(t, "Istanbul", h.Location)
	assert.Equal(t, []string{"byzantine"}, h.Tags)
}

func TestCreateHeritageRequest_ReplacementClearsOmittedFields(t *testing.T) {
	h := Heritage{ID: "h-1", Title: "Old", Location: "Istanbul", Tags: []string{"byzantine"}}

	req := CreateHeritageRequest{Title: "New"}
	req.Replacement().Apply(&h)

	assert.Equal(t, "New", h.Title)
	assert.Equal(t, "", h.Location)
	assert.NotNil(t, h.Tags)
	assert.Empty(t, h.Tags)
}

func TestMultimedia_StorageKeyIsNotSerialized(t *testing.T) {
	m := Multimedia{ID: "m-1", HeritageID: "h-1", StorageKey: "multimedia/m-1/photo.png"}

	data, err := json.Marshal(m)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "multimedia/m-1/photo.png")
	assert.True(t, m.HasFile())
}

func TestCreateMultimediaRequest_DefaultType(t *testing.T) {
	assert.Equal(t, MultimediaImage, (&CreateMultimediaRequest{}).MediaType())
	assert.Equal(t, MultimediaVideo, (&CreateMultimediaRequest{Type: "video"}).MediaType())
}

func TestUser_PasswordHashIsNotSerialized(t *testing.T) {
	u := User{ID: "u-1", Username: "ayse", PasswordHash: "$2a$10$secret"}

	data, err := json.Marshal(u)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "secret")
	assert.Contains(t, string(data), `"username":"ayse"`)
}

func TestErrorResponse_Structure(t *testing.T) {
	response := ErrorResponse{
		Error:   "not_found",
		Message: "heritage not found",
	}

	data, err := json.Marshal(response)
	assert.NoError(t, err)

	var parsed map[string]interface{}
	err = json.Unmarshal(data, &parsed)
	assert.NoError(t, err)

	assert.Equal(t, "not_found", parsed["error"])
	assert.Equal(t, "heritage not found", parsed["message"])
}
