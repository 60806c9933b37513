package quizzes

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"showdown-backend/internal/shared/metrics"
)

var tracer = otel.Tracer("showdown-backend/internal/quizzes")

// Service loads and saves the per-user quiz document.
type Service struct {
	Repo Repo
}

// Get returns the last saved quiz for a user.
func (s *Service) Get(ctx context.Context, userID string) (Quiz, error) {
	ctx, span := tracer.Start(ctx, "quizzes.Get", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	rec, err := s.Repo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			metrics.IncQuizFailures()
			span.RecordError(err)
			span.SetStatus(codes.Error, "load failed")
		}
		return Quiz{}, err
	}

	doc, err := DecodeDocument(rec.Data)
	if err != nil {
		metrics.IncQuizFailures()
		span.RecordError(err)
		span.SetStatus(codes.Error, "corrupt document")
		return Quiz{}, fmt.Errorf("%w: %w", ErrDataCorruption, err)
	}

	metrics.IncQuizLoads()
	return Quiz{UserID: rec.UserID, Data: doc, UpdatedAt: rec.UpdatedAt}, nil
}

// Save replaces the user's quiz with doc. Concurrent saves resolve last-write-wins.
func (s *Service) Save(ctx context.Context, userID string, doc Document) (Quiz, error) {
	ctx, span := tracer.Start(ctx, "quizzes.Save", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	text, err := EncodeDocument(doc)
	if err != nil {
		return Quiz{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	// Return the stored form so Save and a later Get agree on value types.
	stored, err := DecodeDocument(text)
	if err != nil {
		return Quiz{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	rec, err := s.Repo.Upsert(ctx, userID, text)
	if err != nil {
		metrics.IncQuizFailures()
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return Quiz{}, err
	}

	metrics.IncQuizSaves()
	return Quiz{UserID: rec.UserID, Data: stored, UpdatedAt: rec.UpdatedAt}, nil
}
