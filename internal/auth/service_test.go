package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"buzzatt/internal/apperr"
	"buzzatt/internal/model"
)

// fakeUsers implements UserStore in memory.
type fakeUsers struct {
	mu     sync.Mutex
	byMail map[string]*Account
	nextID int64
	err    error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byMail: make(map[string]*Account)}
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if acc, ok := f.byMail[email]; ok {
		cp := *acc
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUsers) Create(_ context.Context, u model.User, hash string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byMail[u.Email]; ok {
		return model.User{}, ErrDuplicateEmail
	}
	f.nextID++
	u.ID = f.nextID
	f.byMail[u.Email] = &Account{User: u, PasswordHash: hash}
	return u, nil
}

func strPtr(s string) *string { return &s }

func newTestService(t *testing.T, users UserStore) *Service {
	t.Helper()
	svc, err := NewService(users, NewMemoryRevocations(), Options{
		Issuer:     testIssuer,
		SigningKey: testKey,
		TokenTTL:   30 * time.Minute,
		BcryptCost: bcrypt.MinCost,
	}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func studentInput(email, matric string) RegisterInput {
	in := RegisterInput{
		Email:       email,
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Department:  "Computing",
		Faculty:     "Science",
		Password:    "s3cret",
		ProfileType: model.ProfileStudent,
	}
	if matric != "" {
		in.MatricNumber = strPtr(matric)
	}
	return in
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("student with matric number", func(t *testing.T) {
		svc := newTestService(t, newFakeUsers())
		u, err := svc.Register(ctx, studentInput("ada@example.com", "M1"))
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if u.ID == 0 || u.MatricNumber == nil || *u.MatricNumber != "M1" {
			t.Errorf("unexpected user: %+v", u)
		}
	})

	t.Run("student without matric number", func(t *testing.T) {
		svc := newTestService(t, newFakeUsers())
		_, err := svc.Register(ctx, studentInput("ada@example.com", ""))
		if !errors.Is(err, ErrMissingMatricNumber) {
			t.Fatalf("expected ErrMissingMatricNumber, got %v", err)
		}
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("kind = %v, want validation", apperr.KindOf(err))
		}

		in := studentInput("ada@example.com", "")
		in.MatricNumber = strPtr("   ")
		if _, err := svc.Register(ctx, in); !errors.Is(err, ErrMissingMatricNumber) {
			t.Errorf("blank matric number should count as missing, got %v", err)
		}
	})

	t.Run("lecturer without matric number", func(t *testing.T) {
		svc := newTestService(t, newFakeUsers())
		in := studentInput("turing@example.com", "")
		in.ProfileType = model.ProfileLecturer
		u, err := svc.Register(ctx, in)
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if u.MatricNumber != nil {
			t.Errorf("lecturer matric number = %v, want nil", *u.MatricNumber)
		}
	})

	t.Run("duplicate email keeps first user", func(t *testing.T) {
		users := newFakeUsers()
		svc := newTestService(t, users)
		first, err := svc.Register(ctx, studentInput("ada@example.com", "M1"))
		if err != nil {
			t.Fatal(err)
		}

		second := studentInput("ada@example.com", "M2")
		second.FirstName = "Impostor"
		_, err = svc.Register(ctx, second)
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}
		if apperr.KindOf(err) != apperr.KindConflict {
			t.Errorf("kind = %v, want conflict", apperr.KindOf(err))
		}

		stored, _ := users.FindByEmail(ctx, "ada@example.com")
		if stored.ID != first.ID || stored.FirstName != "Ada" || *stored.MatricNumber != "M1" {
			t.Errorf("first user modified: %+v", stored.User)
		}
	})

	t.Run("password is hashed", func(t *testing.T) {
		users := newFakeUsers()
		svc := newTestService(t, users)
		if _, err := svc.Register(ctx, studentInput("ada@example.com", "M1")); err != nil {
			t.Fatal(err)
		}
		stored, _ := users.FindByEmail(ctx, "ada@example.com")
		if stored.PasswordHash == "s3cret" || !CheckPassword("s3cret", stored.PasswordHash) {
			t.Error("password not stored as a bcrypt hash")
		}
	})

	t.Run("invalid profile type", func(t *testing.T) {
		svc := newTestService(t, newFakeUsers())
		in := studentInput("ada@example.com", "M1")
		in.ProfileType = "admin"
		if _, err := svc.Register(ctx, in); apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		users := newFakeUsers()
		users.err = errors.New("connection refused")
		svc := newTestService(t, users)
		if _, err := svc.Register(ctx, studentInput("ada@example.com", "M1")); apperr.KindOf(err) != apperr.KindDependency {
			t.Errorf("expected dependency error, got %v", err)
		}
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeUsers())
	if _, err := svc.Register(ctx, studentInput("ada@example.com", "M1")); err != nil {
		t.Fatal(err)
	}

	t.Run("success", func(t *testing.T) {
		res, err := svc.Login(ctx, "ada@example.com", "s3cret")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if res.TokenType != "bearer" || res.Email != "ada@example.com" || res.ProfileType != model.ProfileStudent {
			t.Errorf("unexpected bundle: %+v", res)
		}
		if res.MatricNumber == nil || *res.MatricNumber != "M1" {
			t.Errorf("matric number missing from bundle")
		}
		claims, err := svc.Authenticate(ctx, res.AccessToken)
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if claims.Subject != "ada@example.com" {
			t.Errorf("subject = %q", claims.Subject)
		}
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, wrongPw := svc.Login(ctx, "ada@example.com", "nope")
		_, unknown := svc.Login(ctx, "nobody@example.com", "s3cret")
		if !errors.Is(wrongPw, ErrInvalidCredentials) || !errors.Is(unknown, ErrInvalidCredentials) {
			t.Fatalf("got %v and %v, want ErrInvalidCredentials for both", wrongPw, unknown)
		}
		if wrongPw.Error() != unknown.Error() {
			t.Errorf("messages differ: %q vs %q", wrongPw, unknown)
		}
	})
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeUsers())
	in := studentInput("turing@example.com", "")
	in.ProfileType = model.ProfileLecturer
	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatal(err)
	}
	res, err := svc.Login(ctx, "turing@example.com", "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := svc.Authenticate(ctx, res.AccessToken)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Authenticate(ctx, res.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("revoked token accepted: %v", err)
	}
}

func TestAuthenticateRejectsForeignTokens(t *testing.T) {
	svc := newTestService(t, newFakeUsers())
	foreign, _ := Issue("ada@example.com", model.ProfileLecturer, testIssuer, "another-key", time.Minute)
	if _, err := svc.Authenticate(context.Background(), foreign.Value); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewServiceRequiresKey(t *testing.T) {
	if _, err := NewService(newFakeUsers(), nil, Options{}, nil); err == nil {
		t.Error("expected error without signing key")
	}
}
