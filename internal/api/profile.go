package api

import (
	"context"
	"net/url"

	apperrors "github.com/studybridge/client-go/internal/errors"
	"github.com/studybridge/client-go/internal/token"
)

// Profile is the student progress record shown on the dashboard. TimeSpent is
// cumulative seconds; the client adds the elapsed session time before flushing
// at logout.
type Profile struct {
	Name            string  `json:"name,omitempty"`
	Token           string  `json:"token,omitempty"`
	TotalProgress   float64 `json:"totalProgress"`
	ProgressPerDays float64 `json:"progressPerDays"`
	TimeSpent       float64 `json:"timeSpent"`
}

type EnrolledStudent struct {
	Name      string `json:"name"`
	UserToken string `json:"userToken"`
}

func (c *Client) FetchProfile(ctx context.Context, studentToken string) (*Profile, error) {
	studentToken = token.Normalize(studentToken)
	if studentToken == "" {
		return nil, apperrors.MissingRequired("student token")
	}

	var profile Profile
	if _, err := c.get(ctx, "/fetchAll", url.Values{"token": {studentToken}}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// SaveProgress flushes accumulated progress back to the backend. Called best
// effort at logout; failures are reported but never block the logout itself.
func (c *Client) SaveProgress(ctx context.Context, profile Profile) error {
	profile.Token = token.Normalize(profile.Token)
	if profile.Token == "" {
		return apperrors.MissingRequired("student token")
	}
	_, err := c.post(ctx, "/user-progress", nil, profile)
	return err
}

// ListEnrolled returns the students enrolled under an admin.
func (c *Client) ListEnrolled(ctx context.Context, adminToken string) ([]EnrolledStudent, error) {
	adminToken = token.Normalize(adminToken)
	if adminToken == "" {
		return nil, apperrors.MissingRequired("admin token")
	}

	var out struct {
		Students []EnrolledStudent `json:"students"`
	}
	if _, err := c.get(ctx, "/get-admin-enroll-by-token", url.Values{"adminToken": {adminToken}}, &out); err != nil {
		return nil, err
	}
	for i := range out.Students {
		out.Students[i].UserToken = token.Normalize(out.Students[i].UserToken)
	}
	return out.Students, nil
}
