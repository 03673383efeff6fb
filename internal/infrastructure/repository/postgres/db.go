package postgres

import (
	"fmt"

	"github.com/pkg/errors"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jhubafrica/points-service/internal/application/usecase"
	"github.com/jhubafrica/points-service/internal/domain"
)

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.User, c.Password, c.Name, c.Port)
}

func Open(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(pgdriver.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}
	return db, nil
}

// Migrate creates or updates every table the service reads or writes.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.User{},
		&domain.Achievement{},
		&domain.Enrollment{},
		&domain.CourseInterest{},
		&domain.PointAward{},
		&domain.Course{},
		&domain.WaitlistEntry{},
	)
	return errors.Wrap(err, "migrate")
}

func Stores(db *gorm.DB) usecase.Stores {
	return usecase.Stores{
		Users:       NewUserRepository(db),
		Enrollments: NewEnrollmentRepository(db),
		Interests:   NewInterestRepository(db),
		Awards:      NewAwardRepository(db),
		Courses:     NewCourseRepository(db),
		Waitlists:   NewWaitlistRepository(db),
	}
}
