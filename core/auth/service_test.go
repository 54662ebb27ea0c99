package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/libwork/core"
	"github.com/trezcool/libwork/core/auth"
	inmemdb "github.com/trezcool/libwork/storage/database/inmem"
	testutil "github.com/trezcool/libwork/tests"
)

func setup(t *testing.T) (*auth.Service, *inmemdb.DB) {
	db := inmemdb.NewDB()
	repos := db.Repos()
	conf := core.NewTestConfig()
	return auth.NewService(repos.Settings, repos.Students, core.NewValidator(core.NewTranslator()), conf), db
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	ravi := testutil.CreateStudent(t, db, "Ravi Kumar", "9998887770")

	gone := testutil.CreateStudent(t, db, "Anil Das", "9998887771")
	gonePwd := gone.Password
	gone.Remove(time.Now())
	_, err := db.Repos().Students.UpdateStudent(ctx, gone)
	require.NoError(t, err)

	tests := []struct {
		name     string
		creds    auth.Credentials
		wantSess auth.Session
		wantErr  error
	}{
		{name: "owner default", creds: auth.Credentials{Type: "owner", Mobile: "6201530654", Password: "Avinash"}, wantSess: auth.OwnerSession("6201530654")},
		{name: "owner wrong password", creds: auth.Credentials{Type: "owner", Mobile: "6201530654", Password: "avinash"}, wantErr: auth.ErrInvalidCredentials},
		{name: "owner wrong mobile", creds: auth.Credentials{Type: "owner", Mobile: "6201530655", Password: "Avinash"}, wantErr: auth.ErrInvalidCredentials},
		{name: "student", creds: auth.Credentials{Type: "Student", Mobile: " 9998887770 ", Password: "RAVI7770"}, wantSess: auth.StudentSession(ravi.Mobile, ravi.FullName)},
		{name: "student wrong password", creds: auth.Credentials{Type: "student", Mobile: "9998887770", Password: "RAVI0000"}, wantErr: auth.ErrInvalidCredentials},
		{name: "removed student", creds: auth.Credentials{Type: "student", Mobile: "9998887771", Password: gonePwd}, wantErr: auth.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := svc.Login(ctx, tt.creds)
			if err != tt.wantErr {
				t.Fatalf("Login() error = %v, wantErr %v", err, tt.wantErr)
			}
			assert.Equal(t, tt.wantSess, sess)
		})
	}
}

func TestService_LoginValidation(t *testing.T) {
	svc, _ := setup(t)

	for _, creds := range []auth.Credentials{
		{Type: "admin", Mobile: "6201530654", Password: "Avinash"},
		{Type: "owner", Mobile: "", Password: "Avinash"},
		{Type: "owner", Mobile: "6201530654"},
	} {
		_, err := svc.Login(context.Background(), creds)
		assert.Error(t, err, "%+v", creds)
		assert.False(t, errors.Is(err, auth.ErrInvalidCredentials))
	}
}

func TestService_SetOwner(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	owner, err := svc.OwnerCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "6201530654", owner.Mobile)
	assert.Equal(t, "Avinash", owner.Password)

	require.NoError(t, svc.SetOwner(ctx, "9000000000", "s3cret"))

	_, err = svc.Login(ctx, auth.Credentials{Type: "owner", Mobile: "6201530654", Password: "Avinash"})
	assert.Equal(t, auth.ErrInvalidCredentials, err)

	sess, err := svc.Login(ctx, auth.Credentials{Type: "owner", Mobile: "9000000000", Password: "s3cret"})
	require.NoError(t, err)
	assert.True(t, sess.IsOwner())
	assert.False(t, sess.IsStudent())
}
