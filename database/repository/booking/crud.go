package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicbot/models"
	"clinicbot/services/conversation"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const queryTimeout = 5 * time.Second

// AppendBooking inserts a new booking, filling ID, status and CreatedAt when
// empty. An existing booking with the same ID is left as is.
func (r *MongoBookingRepo) AppendBooking(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := newContext(ctx, queryTimeout)
	defer cancel()

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if booking.Status == "" {
		booking.Status = models.BookingStatusConfirmed
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = r.now()
	}

	filter := bson.M{"id": booking.ID}
	update := bson.M{"$setOnInsert": booking}
	res, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("bookings: insert: %w", err)
	}
	if res.UpsertedCount == 0 {
		return conversation.ErrBookingExists
	}
	return nil
}

// FindLatestBookingByPhone returns the most recent confirmed booking for phone.
func (r *MongoBookingRepo) FindLatestBookingByPhone(ctx context.Context, phone string) (*models.Booking, error) {
	ctx, cancel := newContext(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"phone": phone, "status": models.BookingStatusConfirmed}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var booking models.Booking
	err := r.coll.FindOne(ctx, filter, opts).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, conversation.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: find latest: %w", err)
	}
	return &booking, nil
}

// MarkCancelled flips a confirmed booking to cancelled.
func (r *MongoBookingRepo) MarkCancelled(ctx context.Context, bookingID string) error {
	ctx, cancel := newContext(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"id": bookingID, "status": models.BookingStatusConfirmed}
	update := bson.M{"$set": bson.M{
		"status":       models.BookingStatusCancelled,
		"cancelled_at": r.now(),
	}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("bookings: cancel: %w", err)
	}
	if res.MatchedCount == 0 {
		return conversation.ErrBookingNotFound
	}
	return nil
}
