package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhubafrica/points-service/internal/application/usecase"
)

// Collection names.
const (
	usersCollection       = "users"
	enrollmentsCollection = "enrollments"
	interestsCollection   = "courseinterests"
	awardsCollection      = "pointawards"
	coursesCollection     = "courses"
	waitlistsCollection   = "waitlists"
)

func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongo")
	}
	return client, nil
}

// EnsureIndexes creates the uniqueness constraints the fact store relies on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "referredBy", Value: 1}}},
		},
		enrollmentsCollection: {
			{Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "courseId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		interestsCollection: {
			{Keys: bson.D{{Key: "courseId", Value: 1}, {Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		awardsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		waitlistsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "courseId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "courseId", Value: 1}, {Key: "status", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "create indexes on %s", name)
		}
	}
	return nil
}

func Stores(db *mongo.Database) usecase.Stores {
	return usecase.Stores{
		Users:       NewUserRepository(db),
		Enrollments: NewEnrollmentRepository(db),
		Interests:   NewInterestRepository(db),
		Awards:      NewAwardRepository(db),
		Courses:     NewCourseRepository(db),
		Waitlists:   NewWaitlistRepository(db),
	}
}
