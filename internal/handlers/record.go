package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/record-service-go/internal/events"
	"github.com/serroba/record-service-go/internal/record"
	"go.uber.org/zap"
)

// RecordHandler handles record read and write operations.
type RecordHandler struct {
	store          record.Repository
	publishWritten events.Publish[events.RecordWritten]
	logger         *zap.Logger
}

// NewRecordHandler creates a new record handler.
func NewRecordHandler(
	store record.Repository,
	publishWritten events.Publish[events.RecordWritten],
	logger *zap.Logger,
) *RecordHandler {
	return &RecordHandler{
		store:          store,
		publishWritten: publishWritten,
		logger:         logger,
	}
}

func (h *RecordHandler) GetRecord(ctx context.Context, req *GetRecordRequest) (*MessageResponse, error) {
	if req.Name == "" {
		return nil, huma.Error400BadRequest("name is required")
	}

	logger := h.requestLogger(ctx).With(zap.String("name", req.Name))

	if _, err := h.store.Get(ctx, req.Name); err != nil {
		if errors.Is(err, record.ErrNotFound) {
			logger.Debug("record not found")

			return nil, huma.Error404NotFound("record not found")
		}

		logger.Error("failed to get record", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to get record")
	}

	logger.Debug("got record")

	return greeting(req.Name), nil
}

func (h *RecordHandler) SetRecord(ctx context.Context, req *SetRecordRequest) (*MessageResponse, error) {
	if req.Name == "" {
		return nil, huma.Error400BadRequest("name is required")
	}

	logger := h.requestLogger(ctx).With(zap.String("name", req.Name))

	rec, created, err := h.store.Set(ctx, req.Name)
	if err != nil {
		if errors.Is(err, record.ErrIntegrity) {
			logger.Error("record integrity violation", zap.Error(err))
		} else {
			logger.Error("failed to set record", zap.Error(err))
		}

		return nil, huma.Error500InternalServerError("failed to set record")
	}

	logger.Debug("set record", zap.Int64("id", rec.ID), zap.Bool("created", created))

	meta := RequestMetaFromContext(ctx)
	event := &events.RecordWritten{
		ID:        rec.ID,
		Name:      rec.Name,
		Created:   created,
		WrittenAt: time.Now(),
		RequestID: meta.RequestID,
		ClientIP:  meta.ClientIP,
	}

	if err := h.publishWritten(event); err != nil {
		logger.Error("failed to publish record written event", zap.Error(err))
	}

	return greeting(req.Name), nil
}

func (h *RecordHandler) requestLogger(ctx context.Context) *zap.Logger {
	meta := RequestMetaFromContext(ctx)
	if meta.RequestID == "" {
		return h.logger
	}

	return h.logger.With(zap.String("request_id", meta.RequestID))
}

func greeting(name string) *MessageResponse {
	resp := &MessageResponse{}
	resp.Body.Message = fmt.Sprintf("Hello, %s", name)

	return resp
}
