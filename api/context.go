package api

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type keyType string

const (
	userIDKey keyType = "userID"
)

// ctxWithUserID adds the authenticated user's ID to the context
func ctxWithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// ctxGetUserID retrieves the authenticated user's ID from the context
func ctxGetUserID(ctx context.Context) (uuid.UUID, error) {
	if ctxValue := ctx.Value(userIDKey); ctxValue == nil {
		return uuid.Nil, errors.New("key not found in context")
	} else if userID, ok := ctxValue.(uuid.UUID); !ok {
		return uuid.Nil, errors.New("value is not of type `uuid.UUID`")
	} else {
		return userID, nil
	}
}
