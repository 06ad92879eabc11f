package invites

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/crevva/arewa-tasty-backend/pkg/config"
	"github.com/crevva/arewa-tasty-backend/pkg/db"
	"github.com/crevva/arewa-tasty-backend/pkg/db/models"
	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/crevva/arewa-tasty-backend/pkg/mailer"
	"github.com/crevva/arewa-tasty-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var tokenPattern = regexp.MustCompile(`token=([0-9a-f]{64})`)

type captureMailer struct {
	sent []mailer.Message
	fail bool
}

func (m *captureMailer) Send(ctx context.Context, msg mailer.Message) error {
	if m.fail {
		return fmt.Errorf("mail api down")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) lastToken(t *testing.T) string {
	t.Helper()
	if len(m.sent) == 0 {
		t.Fatal("no invite email sent")
	}
	match := tokenPattern.FindStringSubmatch(m.sent[len(m.sent)-1].HTML)
	if match == nil {
		t.Fatalf("no token in invite email: %s", m.sent[len(m.sent)-1].HTML)
	}
	return match[1]
}

func openInviteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.BackofficeInvite{}, &models.BackofficeUser{}, &models.UserProfile{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newInviteService(t *testing.T, conn *gorm.DB, mail mailer.Mailer) *service {
	t.Helper()
	svc, err := NewService(
		db.NewFromConn(conn),
		NewRepository(conn),
		mail,
		config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
		72*time.Hour,
		"https://arewatasty.com",
		nil,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc.(*service)
}

func TestCreateSendsTokenAndStoresHashOnly(t *testing.T) {
	conn := openInviteDB(t)
	mail := &captureMailer{}
	svc := newInviteService(t, conn, mail)

	invite, err := svc.Create(context.Background(), CreateInput{
		Email:       " Staff.Person@Example.COM ",
		Role:        enums.RoleStaff,
		InvitedByID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if invite.Email != "staff.person@example.com" {
		t.Fatalf("email = %q, want normalized", invite.Email)
	}

	token := mail.lastToken(t)
	if invite.TokenHash != security.HashToken(token) {
		t.Fatal("stored hash does not match emailed token")
	}
	if invite.TokenHash == token {
		t.Fatal("raw token persisted")
	}
}

func TestCreateRejectsDuplicatePending(t *testing.T) {
	conn := openInviteDB(t)
	mail := &captureMailer{}
	svc := newInviteService(t, conn, mail)

	input := CreateInput{Email: "staff@example.com", Role: enums.RoleStaff, InvitedByID: uuid.New()}
	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(context.Background(), input); !IsDuplicatePendingInvite(err) {
		t.Fatalf("second create: err = %v, want duplicate pending invite", err)
	}
}

func TestPendingInviteUniquePerEmailInStore(t *testing.T) {
	conn := openInviteDB(t)
	mail := &captureMailer{}
	svc := newInviteService(t, conn, mail)
	repo := NewRepository(conn)

	invite, err := svc.Create(context.Background(), CreateInput{Email: "ops@example.com", Role: enums.RoleStaff, InvitedByID: uuid.New()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Writing straight through the repository skips the service's pending
	// check, the way a racing request would. The store must refuse the row.
	second := &models.BackofficeInvite{
		Email:       "ops@example.com",
		Role:        enums.RoleStaff,
		TokenHash:   security.HashToken("a second raw token"),
		Status:      enums.InviteStatusPending,
		ExpiresAt:   time.Now().Add(72 * time.Hour),
		InvitedByID: uuid.New(),
	}
	if err := repo.Create(context.Background(), second); !db.ConflictOn(err, "email") {
		t.Fatalf("err = %v, want unique conflict on email", err)
	}

	var pending int64
	conn.Model(&models.BackofficeInvite{}).Where("status = ?", enums.InviteStatusPending).Count(&pending)
	if pending != 1 {
		t.Fatalf("pending rows = %d, want 1", pending)
	}

	// Terminal rows do not hold the slot.
	if err := svc.Revoke(context.Background(), invite.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	second.ID = uuid.Nil
	if err := repo.Create(context.Background(), second); err != nil {
		t.Fatalf("create after revoke: %v", err)
	}
}

func TestCreateRejectsSuperadminRole(t *testing.T) {
	svc := newInviteService(t, openInviteDB(t), &captureMailer{})

	_, err := svc.Create(context.Background(), CreateInput{
		Email:       "boss@example.com",
		Role:        enums.RoleSuperadmin,
		InvitedByID: uuid.New(),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestCreateDeletesInviteWhenEmailFails(t *testing.T) {
	conn := openInviteDB(t)
	mail := &captureMailer{fail: true}
	svc := newInviteService(t, conn, mail)

	_, err := svc.Create(context.Background(), CreateInput{
		Email:       "staff@example.com",
		Role:        enums.RoleStaff,
		InvitedByID: uuid.New(),
	})
	if err == nil {
		t.Fatal("expected email failure to propagate")
	}

	var count int64
	conn.Model(&models.BackofficeInvite{}).Count(&count)
	if count != 0 {
		t.Fatalf("invite rows = %d, want 0 after failed email", count)
	}
}

func TestValidateReportsEachState(t *testing.T) {
	conn := openInviteDB(t)
	mail := &captureMailer{}
	svc := newInviteService(t, conn, mail)

	if _, err := svc.Create(context.Background(), CreateInput{Email: "staff@example.com", Role: enums.RoleStaff, InvitedByID: uuid.New()}); err != nil {
		t.Fatalf("create: %v", err)
	}
	token := mail.lastToken(t)

	validation, err := svc.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !validation.Valid || validation.Email != "staff@example.com" || validation.Role != enums.RoleStaff {
		t.Fatalf("validation = %+v", validation)
	}

	validation, err = svc.Validate(context.Background(), "0000000000000000000000000000000000000000000000000000000000000000")
	if err != nil {
		t.Fatalf("validate unknown: %v", err)
	}
	if validation.Valid {
		t.Fatal("unknown token reported valid")
	}
}

func TestValidateSweepsExpiredLazily(t *testing.T) {
	conn := openInviteDB(t)
	mail := &captureMailer{}
	svc := newInviteService(t, conn, mail)

	if _, err := svc.Create(context.Background(), CreateInput{Email: "staff@example.com", Role: enums.RoleStaff, InvitedByID: uuid.New()}); err != nil {
		t.Fatalf("create: %v", err)
	}
	token := mail.lastToken(t)

	// Move the clock past the TTL; no background job runs.
	svc.now = func() time.Time { return time.Now().Add(73 * time.Hour) }

	validation, err := svc.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if validation.Valid || validation.Status != enums.InviteStatusExpired {
		t.Fatalf("validation = %+v, want expired", validation)
	}

	var invite models.BackofficeInvite
	conn.First(&invite)
	if invite.Status != enums.InviteStatusExpired {
		t.Fatalf("stored status = %s, want flipped to expired", invite.Status)
	}
}

func TestAcceptCreatesBackofficeUserOnce(t *testing.T) {
	conn := openInviteDB(t)
	mail := &captureMailer{}
	svc := newInviteService(t, conn, mail)

	if _, err := svc.Create(context.Background(), CreateInput{Email: "staff@example.com", Role: enums.RoleStaff, InvitedByID: uuid.New()}); err != nil {
		t.Fatalf("create: %v", err)
	}
	token := mail.lastToken(t)

	boUser, err := svc.Accept(context.Background(), AcceptInput{
		Token:    token,
		FullName: "Staff Person",
		Password: "long-enough-password",
	})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if boUser.Role != enums.RoleStaff || boUser.Status != enums.BackofficeUserActive {
		t.Fatalf("backoffice user = %+v", boUser)
	}

	var profile models.UserProfile
	if err := conn.First(&profile, "email = ?", "staff@example.com").Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	ok, err := security.VerifyPassword("long-enough-password", profile.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("credential not usable: ok=%v err=%v", ok, err)
	}

	// Single use: second acceptance must fail and create nothing new.
	if _, err := svc.Accept(context.Background(), AcceptInput{Token: token, Password: "another-password"}); err == nil {
		t.Fatal("second accept succeeded")
	}
	var users, profiles int64
	conn.Model(&models.BackofficeUser{}).Count(&users)
	conn.Model(&models.UserProfile{}).Count(&profiles)
	if users != 1 || profiles != 1 {
		t.Fatalf("users = %d, profiles = %d, want 1 each", users, profiles)
	}
}

func TestAcceptRejectsExpiredToken(t *testing.T) {
	conn := openInviteDB(t)
	mail := &captureMailer{}
	svc := newInviteService(t, conn, mail)

	if _, err := svc.Create(context.Background(), CreateInput{Email: "staff@example.com", Role: enums.RoleStaff, InvitedByID: uuid.New()}); err != nil {
		t.Fatalf("create: %v", err)
	}
	token := mail.lastToken(t)

	svc.now = func() time.Time { return time.Now().Add(73 * time.Hour) }

	_, err := svc.Accept(context.Background(), AcceptInput{Token: token, Password: "long-enough-password"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("err = %v, want state conflict", err)
	}
	var users int64
	conn.Model(&models.BackofficeUser{}).Count(&users)
	if users != 0 {
		t.Fatalf("users = %d, want 0", users)
	}
}

func TestRevokePendingInvite(t *testing.T) {
	conn := openInviteDB(t)
	mail := &captureMailer{}
	svc := newInviteService(t, conn, mail)

	invite, err := svc.Create(context.Background(), CreateInput{Email: "staff@example.com", Role: enums.RoleStaff, InvitedByID: uuid.New()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Revoke(context.Background(), invite.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	// Second revoke: nothing pending anymore.
	if err := svc.Revoke(context.Background(), invite.ID); !IsInviteNotPendingOrMissing(err) {
		t.Fatalf("err = %v, want invite not pending or missing", err)
	}
	if err := svc.Revoke(context.Background(), uuid.New()); !IsInviteNotPendingOrMissing(err) {
		t.Fatalf("missing invite: err = %v, want invite not pending or missing", err)
	}

	token := mail.lastToken(t)
	validation, err := svc.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("validate revoked: %v", err)
	}
	if validation.Valid || validation.Status != enums.InviteStatusRevoked {
		t.Fatalf("validation = %+v, want revoked", validation)
	}
}

func TestCreateAllowsNewInviteAfterExpiry(t *testing.T) {
	conn := openInviteDB(t)
	mail := &captureMailer{}
	svc := newInviteService(t, conn, mail)

	input := CreateInput{Email: "staff@example.com", Role: enums.RoleStaff, InvitedByID: uuid.New()}
	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Fatalf("first create: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(73 * time.Hour) }

	// The sweep runs inside Create, so the stale pending invite no longer blocks.
	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Fatalf("create after expiry: %v", err)
	}

	var expired int64
	conn.Model(&models.BackofficeInvite{}).Where("status = ?", enums.InviteStatusExpired).Count(&expired)
	if expired != 1 {
		t.Fatalf("expired rows = %d, want 1", expired)
	}
}
