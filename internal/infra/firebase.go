package infra

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

func clientOptions(cfg config.Firebase) []option.ClientOption {
	credFile := strings.TrimSpace(cfg.CredentialsFile)
	if credFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(credFile)}
}

// NewFirestoreClient falls back to application default credentials when no credentials file is set.
func NewFirestoreClient(c context.Context, cfg config.Firebase) (*firestore.Client, error) {
	c, span := otel.Tracer.Start(c, "NewFirestoreClient")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "NewFirestoreClient").
		Str(log.KeyProcess, "initializing firestore client").
		Str("projectId", cfg.ProjectID).
		Logger()

	logger.Info().Msg("initializing firestore client")
	client, err := firestore.NewClient(c, cfg.ProjectID, clientOptions(cfg)...)
	if err != nil {
		err = fmt.Errorf("failed initializing firestore client project=%s with error=%w", cfg.ProjectID, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("initialized firestore client")

	return client, nil
}

func NewFirebaseAuthClient(c context.Context, cfg config.Firebase) (*firebaseauth.Client, error) {
	c, span := otel.Tracer.Start(c, "NewFirebaseAuthClient")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "NewFirebaseAuthClient").
		Str("projectId", cfg.ProjectID).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing firebase app").Logger()
	logger.Info().Msg("initializing firebase app")
	app, err := firebase.NewApp(c, &firebase.Config{ProjectID: cfg.ProjectID}, clientOptions(cfg)...)
	if err != nil {
		err = fmt.Errorf("failed initializing firebase app with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("initialized firebase app")

	logger = logger.With().Str(log.KeyProcess, "initializing firebase auth").Logger()
	logger.Info().Msg("initializing firebase auth")
	authClient, err := app.Auth(c)
	if err != nil {
		err = fmt.Errorf("failed initializing firebase auth with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("initialized firebase auth")

	return authClient, nil
}
