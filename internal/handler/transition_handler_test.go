package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/siliya-electrical-api/internal/dto"
	"github.com/noah-isme/siliya-electrical-api/internal/models"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
)

type fakeTransitionSrv struct {
	last dto.StatusTransitionRequest
}

func (f *fakeTransitionSrv) Transition(_ context.Context, req dto.StatusTransitionRequest, _ *models.JWTClaims) (interface{}, error) {
	f.last = req
	if req.ID == "missing" {
		return nil, appErrors.ErrNotFound
	}
	return &models.Payment{ID: req.ID, Status: models.PaymentStatus(req.Status)}, nil
}

func TestTransitionHandler(t *testing.T) {
	srv := &fakeTransitionSrv{}
	r := newTestRouter(adminUser())
	r.POST("/admin/transitions", NewTransitionHandler(srv).Transition)

	rec := perform(r, http.MethodPost, "/admin/transitions", dto.StatusTransitionRequest{Entity: "payment", ID: "p-1", Status: "confirmed"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "payment", srv.last.Entity)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"status":"confirmed"`)

	rec = perform(r, http.MethodPost, "/admin/transitions", dto.StatusTransitionRequest{Entity: "payment", ID: "missing", Status: "confirmed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
