package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"lynkledger/internal/auth"
	"lynkledger/internal/db"
	"lynkledger/internal/logger"
	"lynkledger/internal/models"
	"lynkledger/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// UserService registers organizations, signs users in and manages roles.
type UserService struct {
	txRunner      db.TxRunner
	users         UserStore
	organizations OrganizationStore
	audit         AuditStore
	secret        string
	tokenTTL      time.Duration
	log           zerolog.Logger
}

func NewUserService(txRunner db.TxRunner, users UserStore, organizations OrganizationStore, audit AuditStore, secret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		txRunner:      txRunner,
		users:         users,
		organizations: organizations,
		audit:         audit,
		secret:        secret,
		tokenTTL:      tokenTTL,
		log:           logger.WithComponent("users"),
	}
}

type RegisterRequest struct {
	OrganizationName string
	Currency         string
	Username         string
	Email            string
	Password         string
	RemoteAddr       string
	UserAgent        string
}

type Session struct {
	Token        string              `json:"token"`
	User         models.User         `json:"user"`
	Organization models.Organization `json:"organization"`
}

func validateCredentials(username, email, password string) error {
	if err := validator.ValidateUsername(username); err != nil {
		return invalid("username", err.Error())
	}
	if err := validator.ValidateEmail(email); err != nil {
		return invalid("email", err.Error())
	}
	if err := validator.ValidatePassword(password); err != nil {
		return invalid("password", err.Error())
	}
	return nil
}

// Register creates an organization with the caller as its owner.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (Session, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if req.Currency == "" {
		req.Currency = "USD"
	}
	if strings.TrimSpace(req.OrganizationName) == "" {
		return Session{}, invalid("organization_name", "is required")
	}
	if err := validator.ValidateCurrency(req.Currency); err != nil {
		return Session{}, invalid("currency", err.Error())
	}
	if err := validateCredentials(req.Username, req.Email, req.Password); err != nil {
		return Session{}, err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return Session{}, err
	}
	org := models.Organization{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(req.OrganizationName),
		Currency: req.Currency,
	}
	user := models.User{
		ID:             uuid.NewString(),
		OrganizationID: org.ID,
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   hash,
		Role:           models.RoleOwner,
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.organizations.Create(ctx, tx, org); err != nil {
			return err
		}
		if err := s.users.Create(ctx, tx, user); err != nil {
			return conflict(err, "username or email")
		}
		return s.audit.Log(ctx, tx, org.ID, user.ID, "register", "user", user.ID, auditData(map[string]string{
			"ip":         req.RemoteAddr,
			"user_agent": req.UserAgent,
		}))
	})
	if err != nil {
		return Session{}, err
	}
	s.log.Info().Str("organization_id", org.ID).Str("user_id", user.ID).Msg("organization registered")
	return s.session(user, org)
}

// Login checks the password and issues a token scoped to the user's
// organization.
func (s *UserService) Login(ctx context.Context, email, password, remoteAddr, userAgent string) (Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	org, err := s.organizations.GetByID(ctx, user.OrganizationID)
	if err != nil {
		return Session{}, notFound(err, "organization")
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.audit.Log(ctx, tx, user.OrganizationID, user.ID, "login", "user", user.ID, auditData(map[string]string{
			"ip":         remoteAddr,
			"user_agent": userAgent,
		}))
	})
	if err != nil {
		return Session{}, err
	}
	return s.session(user, org)
}

func (s *UserService) session(user models.User, org models.Organization) (Session, error) {
	token, err := auth.GenerateToken(s.secret, auth.Subject{
		UserID:         user.ID,
		OrganizationID: org.ID,
		Role:           string(user.Role),
	}, s.tokenTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user, Organization: org}, nil
}

// Me loads the user behind a token. A user moved to another organization no
// longer matches the token.
func (s *UserService) Me(ctx context.Context, orgID, userID string) (Session, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Session{}, notFound(err, "user")
	}
	if user.OrganizationID != orgID {
		return Session{}, missing("user")
	}
	org, err := s.organizations.GetByID(ctx, orgID)
	if err != nil {
		return Session{}, notFound(err, "organization")
	}
	return Session{User: user, Organization: org}, nil
}

type AddUserRequest struct {
	Username string
	Email    string
	Password string
	Role     models.Role
}

// AddUser creates another member of the organization.
func (s *UserService) AddUser(ctx context.Context, orgID, actorID string, req AddUserRequest) (models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateCredentials(req.Username, req.Email, req.Password); err != nil {
		return models.User{}, err
	}
	if req.Role == "" {
		req.Role = models.RoleViewer
	}
	if !req.Role.Valid() {
		return models.User{}, invalid("role", "unknown role")
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   hash,
		Role:           req.Role,
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.users.Create(ctx, tx, user); err != nil {
			return conflict(err, "username or email")
		}
		return s.audit.Log(ctx, tx, orgID, actorID, "user.create", "user", user.ID, auditData(map[string]string{"role": string(user.Role)}))
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, orgID string) ([]models.User, error) {
	return s.users.ListByOrganization(ctx, orgID)
}

// SetRole changes a member's role. The organization always keeps at least
// one owner.
func (s *UserService) SetRole(ctx context.Context, orgID, actorID, userID string, role models.Role) (models.User, error) {
	if !role.Valid() {
		return models.User{}, invalid("role", "unknown role")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, notFound(err, "user")
	}
	if user.OrganizationID != orgID {
		return models.User{}, missing("user")
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if user.Role == models.RoleOwner && role != models.RoleOwner {
			owners, err := s.users.CountOwners(ctx, tx, orgID)
			if err != nil {
				return err
			}
			if owners <= 1 {
				return ErrLastOwner
			}
		}
		rows, err := s.users.SetRole(ctx, tx, orgID, userID, role)
		if err != nil {
			return err
		}
		if err := stale(rows, "user"); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, orgID, actorID, "user.role", "user", userID, auditData(map[string]string{
			"from": string(user.Role),
			"to":   string(role),
		}))
	})
	if err != nil {
		return models.User{}, err
	}
	user.Role = role
	return user, nil
}
