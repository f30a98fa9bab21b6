package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/studybridge/client-go/internal/errors"
	"github.com/studybridge/client-go/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second)
}

func TestCheckAdmin(t *testing.T) {
	t.Run("returns account for known token", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/check-admin-credentials", r.URL.Path)
			assert.Equal(t, "a1b2c3", r.URL.Query().Get("token"))
			json.NewEncoder(w).Encode(map[string]string{"name": "Ms. Grant", "admintokens": "a1b2c3"})
		})

		account, err := client.CheckAdmin(context.Background(), "a1b2c3")
		require.NoError(t, err)
		assert.Equal(t, "Ms. Grant", account.Name)
		assert.Equal(t, "a1b2c3", account.AdminTokens)
	})

	t.Run("normalizes quoted token before the request", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "a1b2c3", r.URL.Query().Get("token"))
			json.NewEncoder(w).Encode(map[string]string{"name": "Ms. Grant", "admintokens": "a1b2c3"})
		})

		_, err := client.CheckAdmin(context.Background(), `  "a1b2c3" `)
		require.NoError(t, err)
	})

	t.Run("maps 404 to authentication failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		account, err := client.CheckAdmin(context.Background(), "nope99")
		assert.Nil(t, account)
		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetCode(err))
	})

	t.Run("rejects empty token locally", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		})

		_, err := client.CheckAdmin(context.Background(), `""`)
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
		assert.Zero(t, calls.Load())
	})
}

func TestCheckStudent(t *testing.T) {
	t.Run("returns account for known token", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/check-user-credentials", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]string{"name": "Leo"})
		})

		account, err := client.CheckStudent(context.Background(), "ab12cd")
		require.NoError(t, err)
		assert.Equal(t, "Leo", account.Name)
	})

	t.Run("maps 404 to authentication failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.CheckStudent(context.Background(), "ab12cd")
		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetCode(err))
	})
}

func TestRegisterStudent(t *testing.T) {
	t.Run("posts registration body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/save-login-signIn", r.URL.Path)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Leo", body["name"])
			assert.Equal(t, "ab12cd", body["token"])
			assert.Equal(t, "a1b2c3", body["admintokens"])
		})

		err := client.RegisterStudent(context.Background(), RegisterStudentParams{
			Name: "Leo", Password: "secret1", Token: "ab12cd", AdminTokens: "a1b2c3",
		})
		assert.NoError(t, err)
	})

	t.Run("maps 409 to already exists", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "duplicate account", http.StatusConflict)
		})

		err := client.RegisterStudent(context.Background(), RegisterStudentParams{
			Name: "Leo", Password: "secret1", Token: "ab12cd",
		})
		assert.Equal(t, apperrors.ErrCodeAlreadyExists, apperrors.GetCode(err))
	})
}

func TestSearchConversation(t *testing.T) {
	t.Run("student search uses personConvoWithToken", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/searchConversation", r.URL.Path)
			assert.Equal(t, "ab12cd", r.URL.Query().Get("personConvoWithToken"))
			assert.Empty(t, r.URL.Query().Get("adminToken"))
			json.NewEncoder(w).Encode(conversationDTO{
				AdminToken:           "a1b2c3",
				PersonConvoWithToken: "ab12cd",
				Messages: []messageDTO{
					{MessageContent: "hello", MessageType: "sent", TimeStamp: "2026-08-01T10:00:00Z"},
				},
			})
		})

		conv, err := client.SearchConversation(context.Background(), "", "ab12cd")
		require.NoError(t, err)
		require.NotNil(t, conv)
		assert.Equal(t, "a1b2c3", conv.AdminToken)
		assert.Equal(t, "ab12cd", conv.StudentToken)
		require.Len(t, conv.Messages, 1)
		assert.Equal(t, "hello", conv.Messages[0].Content)
		assert.Equal(t, model.DirectionToAdmin, conv.Messages[0].Direction)
		assert.Equal(t, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), conv.Messages[0].SentAt)
	})

	t.Run("admin search uses token pair", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "a1b2c3", r.URL.Query().Get("adminToken"))
			assert.Equal(t, "ab12cd", r.URL.Query().Get("personToken"))
			json.NewEncoder(w).Encode(conversationDTO{AdminToken: "a1b2c3", PersonConvoWithToken: "ab12cd"})
		})

		conv, err := client.SearchConversation(context.Background(), "a1b2c3", "ab12cd")
		require.NoError(t, err)
		assert.NotNil(t, conv)
		assert.Empty(t, conv.Messages)
	})

	t.Run("404 means absent, not error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		conv, err := client.SearchConversation(context.Background(), "", "ab12cd")
		assert.NoError(t, err)
		assert.Nil(t, conv)
	})

	t.Run("server error is transient", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.SearchConversation(context.Background(), "", "ab12cd")
		assert.True(t, apperrors.IsTransient(err))
	})

	t.Run("unreachable backend is transient", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		client := New(srv.URL, time.Second)

		_, err := client.SearchConversation(context.Background(), "", "ab12cd")
		assert.True(t, apperrors.IsTransient(err))
	})

	t.Run("tolerates unparseable timestamps", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(conversationDTO{
				AdminToken: "a1b2c3",
				Messages:   []messageDTO{{MessageContent: "old one", MessageType: "recieved", TimeStamp: "yesterday"}},
			})
		})

		conv, err := client.SearchConversation(context.Background(), "", "ab12cd")
		require.NoError(t, err)
		require.Len(t, conv.Messages, 1)
		assert.Equal(t, "old one", conv.Messages[0].Content)
		assert.True(t, conv.Messages[0].SentAt.IsZero())
	})
}

func TestAddMessage(t *testing.T) {
	msg := func() model.Message {
		return model.Message{
			Content:   "hello",
			Direction: model.DirectionToAdmin,
			SentAt:    time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		}
	}

	t.Run("posts message with token pair in query", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/addMessageToPerson", r.URL.Path)
			assert.Equal(t, "a1b2c3", r.URL.Query().Get("adminToken"))
			assert.Equal(t, "ab12cd", r.URL.Query().Get("personToken"))
			var body messageDTO
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "hello", body.MessageContent)
			assert.Equal(t, "sent", body.MessageType)
			assert.Equal(t, "2026-08-01T10:00:00Z", body.TimeStamp)
		})

		assert.NoError(t, client.AddMessage(context.Background(), "a1b2c3", "ab12cd", msg()))
	})

	t.Run("rejects empty content without a request", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		})

		m := msg()
		m.Content = "   "
		err := client.AddMessage(context.Background(), "a1b2c3", "ab12cd", m)
		assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetCode(err))
		assert.Zero(t, calls.Load())
	})

	t.Run("rejects missing admin token locally", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		})

		err := client.AddMessage(context.Background(), "", "ab12cd", msg())
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
		assert.Zero(t, calls.Load())
	})
}

func TestFetchProfile(t *testing.T) {
	t.Run("decodes progress fields", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/fetchAll", r.URL.Path)
			assert.Equal(t, "ab12cd", r.URL.Query().Get("token"))
			json.NewEncoder(w).Encode(Profile{Name: "Leo", TotalProgress: 62.5, ProgressPerDays: 4, TimeSpent: 1800})
		})

		profile, err := client.FetchProfile(context.Background(), "ab12cd")
		require.NoError(t, err)
		assert.Equal(t, "Leo", profile.Name)
		assert.Equal(t, 62.5, profile.TotalProgress)
	})
}

func TestListEnrolled(t *testing.T) {
	t.Run("unwraps students array and normalizes tokens", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/get-admin-enroll-by-token", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]any{
				"students": []map[string]string{
					{"name": "Leo", "userToken": `"ab12cd"`},
					{"name": "Mia", "userToken": "ef34gh"},
				},
			})
		})

		students, err := client.ListEnrolled(context.Background(), "a1b2c3")
		require.NoError(t, err)
		require.Len(t, students, 2)
		assert.Equal(t, "ab12cd", students[0].UserToken)
		assert.Equal(t, "ef34gh", students[1].UserToken)
	})
}
