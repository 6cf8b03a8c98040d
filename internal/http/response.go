package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

func WriteJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	header map[string]string,
	body map[string]interface{},
) {
	c, span := otel.Tracer.Start(c, "WriteJsonResponse")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "WriteJsonResponse").Logger()

	w.Header().Set(KeyHeaderContentType, ValueHeaderAppJson)
	for k, v := range header {
		w.Header().Add(k, v)
	}

	statusCode := http.StatusOK
	if v, ok := body["statusCode"].(int); ok {
		statusCode = v
	}
	w.WriteHeader(statusCode)

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
}

// WriteFailed writes the failed envelope with err as message.
func WriteFailed(c context.Context, w http.ResponseWriter, statusCode int, err error) {
	WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     StatusFailed,
		"statusCode": statusCode,
		"message":    err.Error(),
	})
}

func WriteSuccess(
	c context.Context,
	w http.ResponseWriter,
	statusCode int,
	message string,
	data map[string]interface{},
) {
	body := map[string]interface{}{
		"status":     StatusSuccess,
		"statusCode": statusCode,
		"message":    message,
	}
	if data != nil {
		body["data"] = data
	}
	WriteJsonResponse(c, w, map[string]string{}, body)
}
