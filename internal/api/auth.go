package api

import (
	"context"
	"net/http"
	"net/url"

	apperrors "github.com/studybridge/client-go/internal/errors"
	"github.com/studybridge/client-go/internal/token"
)

// AdminAccount is the backend's record of an admin, keyed by its token. The
// field is plural ("admintokens") on the wire even though it carries a single
// token.
type AdminAccount struct {
	Name        string `json:"name"`
	AdminTokens string `json:"admintokens"`
}

type StudentAccount struct {
	Name string `json:"name"`
}

type RegisterAdminParams struct {
	Name        string `json:"name"`
	Password    string `json:"password"`
	AdminTokens string `json:"admintokens"`
}

type RegisterStudentParams struct {
	Name        string `json:"name"`
	Password    string `json:"password"`
	Token       string `json:"token"`
	AdminTokens string `json:"admintokens"`
}

// CheckAdmin verifies that an admin token exists. A 404 means the credential
// is unknown, which surfaces as an authentication failure, not as absence.
func (c *Client) CheckAdmin(ctx context.Context, adminToken string) (*AdminAccount, error) {
	adminToken = token.Normalize(adminToken)
	if adminToken == "" {
		return nil, apperrors.MissingRequired("admin token")
	}

	var account AdminAccount
	status, err := c.get(ctx, "/check-admin-credentials", url.Values{"token": {adminToken}}, &account, http.StatusNotFound)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, apperrors.Unauthorized("unknown admin token")
	}
	account.AdminTokens = token.Normalize(account.AdminTokens)
	return &account, nil
}

// CheckStudent verifies that a student token exists.
func (c *Client) CheckStudent(ctx context.Context, studentToken string) (*StudentAccount, error) {
	studentToken = token.Normalize(studentToken)
	if studentToken == "" {
		return nil, apperrors.MissingRequired("student token")
	}

	var account StudentAccount
	status, err := c.get(ctx, "/check-user-credentials", url.Values{"token": {studentToken}}, &account, http.StatusNotFound)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, apperrors.Unauthorized("unknown student token")
	}
	return &account, nil
}

func (c *Client) RegisterAdmin(ctx context.Context, params RegisterAdminParams) error {
	params.AdminTokens = token.Normalize(params.AdminTokens)
	if params.Name == "" || params.Password == "" || params.AdminTokens == "" {
		return apperrors.ValidationError("name, password and admin token are all required")
	}
	_, err := c.post(ctx, "/save-login-signIn_admin", nil, params)
	return err
}

// RegisterStudent creates a student account. The backend answers 409 when the
// derived token already exists, surfaced as AlreadyExists.
func (c *Client) RegisterStudent(ctx context.Context, params RegisterStudentParams) error {
	params.Token = token.Normalize(params.Token)
	params.AdminTokens = token.Normalize(params.AdminTokens)
	if params.Name == "" || params.Password == "" || params.Token == "" {
		return apperrors.ValidationError("name, password and token are all required")
	}
	_, err := c.post(ctx, "/save-login-signIn", nil, params)
	return err
}

// Enroll links a student to an admin.
func (c *Client) Enroll(ctx context.Context, adminToken, studentToken string) error {
	body := struct {
		AdminToken string `json:"adminToken"`
		UserToken  string `json:"userToken"`
	}{
		AdminToken: token.Normalize(adminToken),
		UserToken:  token.Normalize(studentToken),
	}
	if body.AdminToken == "" {
		return apperrors.MissingRequired("admin token")
	}
	if body.UserToken == "" {
		return apperrors.MissingRequired("student token")
	}
	_, err := c.post(ctx, "/add-student", nil, body)
	return err
}
