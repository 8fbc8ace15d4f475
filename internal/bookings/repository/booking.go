package repository

import (
	"context"
	"fmt"
	"time"

	"lodge/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const CollectionName = "Bookings"

// BookingRepository is the append-only booking log.
type BookingRepository interface {
	Append(ctx context.Context, record model.BookingRecord) error
	// Ping reports whether Append is expected to succeed.
	Ping(ctx context.Context) error
}

type mongoBookingRepository struct {
	db           *mongo.Database
	collection   *mongo.Collection
	writeTimeout time.Duration
}

func NewMongoBookingRepository(db *mongo.Database, writeTimeout time.Duration) BookingRepository {
	return &mongoBookingRepository{
		db:           db,
		collection:   db.Collection(CollectionName),
		writeTimeout: writeTimeout,
	}
}

// withTimeout never extends a deadline the caller already set.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Append(ctx context.Context, record model.BookingRecord) error {
	ctx, cancel := withTimeout(ctx, r.writeTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.writeTimeout)
	defer cancel()

	return r.db.Client().Ping(ctx, readpref.Primary())
}
