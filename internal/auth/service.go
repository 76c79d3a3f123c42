package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/internal/identity"
	"growf/platform-backend/internal/users"
)

const minPasswordLength = 8

type RegisterRequest struct {
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Name     string        `json:"name"`
	Role     identity.Role `json:"role"`

	// Profile fields. OrganizationName or CompanyName depending on Role.
	OrganizationName string `json:"organizationName"`
	CompanyName      string `json:"companyName"`
	Sector           string `json:"sector"`
	Location         string `json:"location"`
	Size             string `json:"size"`
	Siret            string `json:"siret"`
	Website          string `json:"website"`
	Description      string `json:"description"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is returned by Register and Login.
type Session struct {
	Token        string              `json:"token"`
	ExpiresAt    time.Time           `json:"expiresAt"`
	User         *users.User         `json:"user"`
	Organization *users.Organization `json:"organization,omitempty"`
	Company      *users.Company      `json:"company,omitempty"`
}

type Service struct {
	users      users.Repository
	tokens     *TokenManager
	bcryptCost int
	logger     *zap.Logger
}

func NewService(repo users.Repository, tokens *TokenManager, bcryptCost int, logger *zap.Logger) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{users: repo, tokens: tokens, bcryptCost: bcryptCost, logger: logger}
}

// Register creates a company or organization account with its profile.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	fields := map[string]string{}
	if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = "must be a valid email address"
	}
	if len(req.Password) < minPasswordLength {
		fields["password"] = "must be at least 8 characters"
	}
	if req.Role != identity.RoleCompany && req.Role != identity.RoleOrganization {
		fields["role"] = "must be COMPANY or ORGANIZATION"
	}
	if req.Role == identity.RoleCompany && strings.TrimSpace(req.CompanyName) == "" {
		fields["companyName"] = "is required"
	}
	if req.Role == identity.RoleOrganization && strings.TrimSpace(req.OrganizationName) == "" {
		fields["organizationName"] = "is required"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidation("invalid registration", fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := &users.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		Role:         req.Role,
	}
	var org *users.Organization
	var company *users.Company
	switch req.Role {
	case identity.RoleOrganization:
		org = &users.Organization{
			Name:        strings.TrimSpace(req.OrganizationName),
			Description: req.Description,
			Website:     req.Website,
		}
	case identity.RoleCompany:
		company = &users.Company{
			Name:     strings.TrimSpace(req.CompanyName),
			Sector:   req.Sector,
			Location: req.Location,
			Size:     req.Size,
			Siret:    strings.ReplaceAll(req.Siret, " ", ""),
		}
	}

	if err := s.users.CreateUser(ctx, user, org, company); err != nil {
		if apperrors.Is(err, apperrors.CodeConflict) {
			return nil, apperrors.Conflict("email already registered")
		}
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	return s.session(user, org, company)
}

// Login checks credentials. Unknown email and wrong password fail identically.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	invalid := apperrors.New(apperrors.CodeUnauthorized, "invalid email or password", nil)

	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, invalid
	}

	org, company, err := s.profiles(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.session(user, org, company)
}

// Me returns the caller's account and profile.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*Session, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	org, company, err := s.profiles(ctx, user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Organization: org, Company: company}, nil
}

func (s *Service) profiles(ctx context.Context, user *users.User) (*users.Organization, *users.Company, error) {
	switch user.Role {
	case identity.RoleOrganization:
		org, err := s.users.GetOrganizationByUserID(ctx, user.ID)
		if err != nil && !apperrors.Is(err, apperrors.CodeNotFound) {
			return nil, nil, err
		}
		return org, nil, nil
	case identity.RoleCompany:
		company, err := s.users.GetCompanyByUserID(ctx, user.ID)
		if err != nil && !apperrors.Is(err, apperrors.CodeNotFound) {
			return nil, nil, err
		}
		return nil, company, nil
	default:
		return nil, nil, nil
	}
}

func (s *Service) session(user *users.User, org *users.Organization, company *users.Company) (*Session, error) {
	p := identity.Principal{UserID: user.ID, Role: user.Role}
	if org != nil {
		p.OrganizationID = &org.ID
	}
	if company != nil {
		p.CompanyID = &company.ID
	}
	token, expiresAt, err := s.tokens.Issue(p)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user, Organization: org, Company: company}, nil
}
