package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/heritago/backend/internal/database"
	"github.com/heritago/backend/internal/models"
	"github.com/heritago/backend/internal/storage"
)

func testHeritage(id, title string) *models.Heritage {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.Heritage{
		ID:        id,
		Title:     title,
		Location:  "Istanbul",
		Tags:      []string{"byzantine"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateHeritage_Success(t *testing.T) {
	env := setupTestHandler(t)

	expected := testHeritage("h-1", "Hagia Sophia")
	env.heritages.On("CreateHeritage", mock.Anything, mock.MatchedBy(func(req *models.CreateHeritageRequest) bool {
		return req.Title == "Hagia Sophia"
	})).Return(expected, nil)
	env.heritageCache.On("Set", mock.Anything, "h-1", expected).Return(nil)
	env.search.On("Index", mock.Anything, testHeritageIndex, "h-1", expected).Return(nil)

	w := env.do(http.MethodPost, "/api/v1/heritages", models.CreateHeritageRequest{
		Title:    "Hagia Sophia",
		Location: "Istanbul",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var response models.Heritage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "h-1", response.ID)
	assert.Equal(t, "Hagia Sophia", response.Title)
	env.assertExpectations(t)
}

func TestCreateHeritage_IndexFailureDoesNotFailRequest(t *testing.T) {
	env := setupTestHandler(t)

	expected := testHeritage("h-1", "Hagia Sophia")
	env.heritages.On("CreateHeritage", mock.Anything, mock.Anything).Return(expected, nil)
	env.heritageCache.On("Set", mock.Anything, "h-1", expected).Return(nil)
	env.search.On("Index", mock.Anything, testHeritageIndex, "h-1", expected).Return(assert.AnError)

	w := env.do(http.MethodPost, "/api/v1/heritages", models.CreateHeritageRequest{Title: "Hagia Sophia"})

	assert.Equal(t, http.StatusCreated, w.Code)
	env.assertExpectations(t)
}

func TestCreateHeritage_InvalidBody(t *testing.T) {
	env := setupTestHandler(t)

	w := env.do(http.MethodPost, "/api/v1/heritages", []byte(`{"description":"no title"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", decodeError(t, w).Error)
	env.assertExpectations(t)
}

func TestListHeritages_CacheHit(t *testing.T) {
	env := setupTestHandler(t)

	cached := []models.Heritage{*testHeritage("h-1", "Hagia Sophia")}
	env.heritageCache.On("GetAll", mock.Anything).Return(cached, true, nil)

	w := env.do(http.MethodGet, "/api/v1/heritages", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []models.Heritage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response, 1)
	env.assertExpectations(t)
}

func TestListHeritages_CacheMiss(t *testing.T) {
	env := setupTestHandler(t)

	heritages := []models.Heritage{
		*testHeritage("h-1", "Hagia Sophia"),
		*testHeritage("h-2", "Galata Tower"),
	}
	env.heritageCache.On("GetAll", mock.Anything).Return(nil, false, nil)
	env.heritages.On("ListHeritages", mock.Anything).Return(heritages, nil)
	env.heritageCache.On("SetAll", mock.Anything, heritages).Return(nil)

	w := env.do(http.MethodGet, "/api/v1/heritages", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []models.Heritage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 2)
	assert.Equal(t, "h-1", response[0].ID)
	assert.Equal(t, "h-2", response[1].ID)
	env.assertExpectations(t)
}

func TestListHeritages_EmptyIsArray(t *testing.T) {
	env := setupTestHandler(t)

	env.heritageCache.On("GetAll", mock.Anything).Return(nil, false, nil)
	env.heritages.On("ListHeritages", mock.Anything).Return([]models.Heritage{}, nil)
	env.heritageCache.On("SetAll", mock.Anything, []models.Heritage{}).Return(nil)

	w := env.do(http.MethodGet, "/api/v1/heritages", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	env.assertExpectations(t)
}

func TestGetHeritage_NotFound(t *testing.T) {
	env := setupTestHandler(t)

	env.heritageCache.On("Get", mock.Anything, "missing").Return(nil, nil)
	env.heritages.On("GetHeritage", mock.Anything, "missing").Return(nil, database.ErrNotFound)

	w := env.do(http.MethodGet, "/api/v1/heritages/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Error)
	env.assertExpectations(t)
}

func TestGetHeritage_CacheHit(t *testing.T) {
	env := setupTestHandler(t)

	env.heritageCache.On("Get", mock.Anything, "h-1").Return(testHeritage("h-1", "Hagia Sophia"), nil)

	w := env.do(http.MethodGet, "/api/v1/heritages/h-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	env.assertExpectations(t)
}

func TestReplaceHeritage_ClearsOmittedFields(t *testing.T) {
	env := setupTestHandler(t)

	updated := testHeritage("h-1", "Ayasofya")
	updated.Location = ""
	env.heritages.On("UpdateHeritage", mock.Anything, "h-1", mock.MatchedBy(func(req *models.UpdateHeritageRequest) bool {
		return req.Title != nil && *req.Title == "Ayasofya" &&
			req.Location != nil && *req.Location == "" &&
			req.Tags != nil && len(*req.Tags) == 0
	})).Return(updated, nil)
	env.heritageCache.On("Set", mock.Anything, "h-1", updated).Return(nil)
	env.search.On("Index", mock.Anything, testHeritageIndex, "h-1", updated).Return(nil)

	w := env.do(http.MethodPut, "/api/v1/heritages/h-1", models.CreateHeritageRequest{Title: "Ayasofya"})

	assert.Equal(t, http.StatusOK, w.Code)
	env.assertExpectations(t)
}

func TestUpdateHeritage_Partial(t *testing.T) {
	env := setupTestHandler(t)

	updated := testHeritage("h-1", "Ayasofya")
	env.heritages.On("UpdateHeritage", mock.Anything, "h-1", mock.MatchedBy(func(req *models.UpdateHeritageRequest) bool {
		return req.Title != nil && *req.Title == "Ayasofya" && req.Location == nil
	})).Return(updated, nil)
	env.heritageCache.On("Set", mock.Anything, "h-1", updated).Return(nil)
	env.search.On("Index", mock.Anything, testHeritageIndex, "h-1", updated).Return(nil)

	w := env.do(http.MethodPatch, "/api/v1/heritages/h-1", []byte(`{"title":"Ayasofya"}`))

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.Heritage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Istanbul", response.Location)
	env.assertExpectations(t)
}

func TestUpdateHeritage_NotFound(t *testing.T) {
	env := setupTestHandler(t)

	env.heritages.On("UpdateHeritage", mock.Anything, "missing", mock.Anything).Return(nil, database.ErrNotFound)

	w := env.do(http.MethodPatch, "/api/v1/heritages/missing", []byte(`{"title":"x"}`))

	assert.Equal(t, http.StatusNotFound, w.Code)
	env.assertExpectations(t)
}

func TestDeleteHeritage_RemovesStoredFiles(t *testing.T) {
	env := setupTestHandler(t)

	key := "multimedia/m-1/photo.png"
	require.NoError(t, env.media.Put(context.Background(), key, strings.NewReader("png-bytes"), 9, "image/png"))

	attachments := []models.Multimedia{
		{ID: "m-1", HeritageID: "h-1", StorageKey: key},
		{ID: "m-2", HeritageID: "h-1", URL: "https://example.org/photo.png"},
	}
	env.multimedia.On("ListMultimedia", mock.Anything, "h-1").Return(attachments, nil)
	env.heritages.On("DeleteHeritage", mock.Anything, "h-1").Return(nil)
	env.heritageCache.On("Delete", mock.Anything, "h-1").Return(nil)
	env.search.On("Remove", mock.Anything, testHeritageIndex, "h-1").Return(nil)

	w := env.do(http.MethodDelete, "/api/v1/heritages/h-1", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)

	_, _, err := env.media.Get(context.Background(), key)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	env.assertExpectations(t)
}

func TestDeleteHeritage_NotFound(t *testing.T) {
	env := setupTestHandler(t)

	env.multimedia.On("ListMultimedia", mock.Anything, "missing").Return([]models.Multimedia{}, nil)
	env.heritages.On("DeleteHeritage", mock.Anything, "missing").Return(database.ErrNotFound)

	w := env.do(http.MethodDelete, "/api/v1/heritages/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	env.assertExpectations(t)
}
