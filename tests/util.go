package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/libwork/core"
	"github.com/trezcool/libwork/core/lifecycle"
	"github.com/trezcool/libwork/core/seat"
	"github.com/trezcool/libwork/core/student"
	logsvc "github.com/trezcool/libwork/services/logger"
	"github.com/trezcool/libwork/storage/database"
)

// Secret is the admin secret of every test Service.
const Secret = "Avinash"

// NewLogger returns a logger that discards its output.
func NewLogger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), core.NewTestConfig())
}

// NewService returns a lifecycle.Service over store, gated by Secret.
func NewService(t *testing.T, store lifecycle.Store) *lifecycle.Service {
	secret, err := lifecycle.NewAdminSecret(Secret)
	if err != nil {
		t.Fatalf("NewAdminSecret() failed: %v", err)
	}
	translator := core.NewTranslator()
	return lifecycle.NewService(store, secret, core.NewValidator(translator), translator, NewLogger())
}

// CreateStudent inserts an active student and its default seat allocation.
func CreateStudent(t *testing.T, store lifecycle.Store, name, mobile string, createdAt ...time.Time) student.Student {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	ns := student.NewStudent{
		Details:       student.Details{FullName: name, FatherName: "Father of " + name, Address: "Patna"},
		Mobile:        mobile,
		AdmissionDate: tstamp.Format("2006-01-02"),
	}
	stdt := ns.Build(uuid.New().String(), tstamp)

	ctx := context.Background()
	err := store.Atomic(ctx, func(repos lifecycle.Repositories) error {
		var err error
		if stdt, err = repos.Students.CreateStudent(ctx, stdt); err != nil {
			return err
		}
		_, err = repos.Allocations.CreateAllocation(ctx, seat.DefaultAllocation(mobile, tstamp))
		return err
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return stdt
}

// PrepareDB connects to the postgres test database, migrates it and empties every
// table. The test is skipped when TEST_DATABASE_HOST is not set.
func PrepareDB(t *testing.T) *sqlx.DB {
	if os.Getenv("TEST_DATABASE_HOST") == "" {
		t.Skip("TEST_DATABASE_HOST not set, skipping postgres test")
	}
	_ = os.Setenv("ENV", "TEST")
	conf := core.NewConfig()

	if err := database.CreateIfNotExist(conf); err != nil {
		t.Fatalf("CreateIfNotExist() failed: %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db.DB); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if _, err = db.Exec("TRUNCATE students, wow_seat_records, bookings, settings"); err != nil {
		t.Fatalf("truncating tables failed: %v", err)
	}
	return db
}
