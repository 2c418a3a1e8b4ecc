package service

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kasunwathsala/solar-dashboard-data-api/internal/models"
)

type stubAuthRepo struct {
	createID  int
	createErr error
	user      *models.User
	getErr    error

	lastUsername string
	lastHash     string
}

func (s *stubAuthRepo) Create(username, passwordHash string) (int, error) {
	s.lastUsername = username
	s.lastHash = passwordHash
	return s.createID, s.createErr
}

func (s *stubAuthRepo) GetByUsername(username string) (*models.User, error) {
	s.lastUsername = username
	return s.user, s.getErr
}

func TestAuthSignUp_HashesPassword(t *testing.T) {
	repo := &stubAuthRepo{createID: 3}
	svc := NewAuthService(repo, "test-key", time.Hour)

	id, err := svc.SignUp("operator", "s3cret")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if id != 3 {
		t.Fatalf("id: want 3, got %d", id)
	}
	if repo.lastHash == "s3cret" {
		t.Fatal("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(repo.lastHash), []byte("s3cret")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestAuthSignUp_EmptyPassword(t *testing.T) {
	svc := NewAuthService(&stubAuthRepo{}, "test-key", time.Hour)
	if _, err := svc.SignUp("operator", "   "); err == nil {
		t.Fatal("expected error for blank password")
	}
}

func TestAuthGenerateAndParseToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	repo := &stubAuthRepo{user: &models.User{ID: 42, Username: "operator", PasswordHash: string(hash)}}
	svc := NewAuthService(repo, "test-key", time.Hour)

	token, err := svc.GenerateToken("operator", "s3cret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	id, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if id != 42 {
		t.Fatalf("user id: want 42, got %d", id)
	}
}

func TestAuthGenerateToken_WrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	repo := &stubAuthRepo{user: &models.User{ID: 1, PasswordHash: string(hash)}}
	svc := NewAuthService(repo, "test-key", time.Hour)

	if _, err := svc.GenerateToken("operator", "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("want ErrInvalidPassword, got %v", err)
	}
}

func TestAuthGenerateToken_UnknownUser(t *testing.T) {
	svc := NewAuthService(&stubAuthRepo{}, "test-key", time.Hour)
	if _, err := svc.GenerateToken("ghost", "s3cret"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}

func TestAuthParseToken_WrongKey(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	repo := &stubAuthRepo{user: &models.User{ID: 1, PasswordHash: string(hash)}}

	issuer := NewAuthService(repo, "key-a", time.Hour)
	token, err := issuer.GenerateToken("operator", "s3cret")
	if err != nil {
		t.Fatal(err)
	}

	verifier := NewAuthService(repo, "key-b", time.Hour)
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatal("token signed with a different key must not parse")
	}
}

func TestAuthParseToken_Garbage(t *testing.T) {
	svc := NewAuthService(&stubAuthRepo{}, "test-key", time.Hour)
	if _, err := svc.ParseToken("not.a.token"); err == nil {
		t.Fatal("expected parse error")
	}
}
