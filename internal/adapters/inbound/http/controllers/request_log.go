package controllers

import (
	"net/http"

	apperrors "invokesigned/internal/shared_kernel/errors"

	"go.uber.org/zap"
)

func logRequestError(logger *zap.Logger, r *http.Request, path string, appErr *apperrors.AppError) {
	if logger == nil {
		return
	}

	fields := []zap.Field{
		zap.String("path", path),
		zap.String("method", r.Method),
		zap.String("code", appErr.Code),
		zap.String("message", appErr.Message),
	}
	if appErr.Type == apperrors.TypeInternal {
		logger.Error("request error", fields...)
		return
	}
	logger.Info("request error", fields...)
}
