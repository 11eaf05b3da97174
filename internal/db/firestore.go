package db

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"keyvault-backend-go/internal/config"
)

// FirebaseClients holds the Firebase Admin SDK clients the service uses.
// Firestore is nil unless it was requested.
type FirebaseClients struct {
	Auth      *auth.Client
	Firestore *firestore.Client
}

// Close releases the Firestore connection, if any.
func (c *FirebaseClients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}

// credentialsOption picks the credential source: a service account file, a base64
// encoded service account JSON, or Application Default Credentials (nil option).
func credentialsOption(appConfig *config.Config, logger *zap.Logger) (option.ClientOption, error) {
	switch {
	case appConfig.GoogleApplicationCredentials != "":
		logger.Info("Initializing Firebase with credentials file", zap.String("path", appConfig.GoogleApplicationCredentials))
		if _, err := os.Stat(appConfig.GoogleApplicationCredentials); os.IsNotExist(err) {
			// ADC may still be configured independently.
			logger.Warn("Credentials file does not exist", zap.String("path", appConfig.GoogleApplicationCredentials))
		}
		return option.WithCredentialsFile(appConfig.GoogleApplicationCredentials), nil
	case appConfig.FirebaseServiceAccountJSONBase64 != "":
		logger.Info("Initializing Firebase with Base64 encoded service account JSON")
		decodedJSON, err := base64.StdEncoding.DecodeString(appConfig.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FIREBASE_SERVICE_ACCOUNT_JSON_BASE64: %w", err)
		}
		return option.WithCredentialsJSON(decodedJSON), nil
	default:
		logger.Info("Initializing Firebase using Application Default Credentials (ADC)")
		return nil, nil
	}
}

// InitFirebase initializes the Firebase Admin SDK and returns the Auth client, plus
// a Firestore client when withFirestore is set.
func InitFirebase(ctx context.Context, appConfig *config.Config, withFirestore bool, logger *zap.Logger) (*FirebaseClients, error) {
	if appConfig == nil {
		return nil, errors.New("InitFirebase: appConfig cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	credsOption, err := credentialsOption(appConfig, logger)
	if err != nil {
		return nil, err
	}

	var firebaseAppConfig *firebase.Config
	if appConfig.FirebaseProjectID != "" {
		firebaseAppConfig = &firebase.Config{ProjectID: appConfig.FirebaseProjectID}
	}

	var opts []option.ClientOption
	if credsOption != nil {
		opts = append(opts, credsOption)
	}
	app, err := firebase.NewApp(ctx, firebaseAppConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	clients := &FirebaseClients{}
	clients.Auth, err = app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Auth: %w", err)
	}
	logger.Info("Firebase Auth client initialized")

	if withFirestore {
		clients.Firestore, err = app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("app.Firestore: %w", err)
		}
		logger.Info("Firestore client initialized")
	}
	return clients, nil
}
