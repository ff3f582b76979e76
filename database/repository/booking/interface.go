package bookingRepo

import (
	"context"
	"time"

	"clinicbot/models"

	"go.mongodb.org/mongo-driver/mongo"
)

const collectionName = "bookings"

// BookingRepository persists clinic bookings.
type BookingRepository interface {
	AppendBooking(ctx context.Context, booking *models.Booking) error
	FindLatestBookingByPhone(ctx context.Context, phone string) (*models.Booking, error)
	MarkCancelled(ctx context.Context, bookingID string) error
}

type MongoBookingRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoBookingRepo returns a BookingRepository backed by the given database
// and makes sure its indexes exist.
func NewMongoBookingRepo(db *mongo.Database) (*MongoBookingRepo, error) {
	repo := &MongoBookingRepo{
		coll: db.Collection(collectionName),
		now:  time.Now,
	}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}
