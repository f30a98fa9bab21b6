package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/studybridge/client-go/internal/errors"
	"github.com/studybridge/client-go/internal/model"
	"github.com/studybridge/client-go/internal/token"
)

type conversationDTO struct {
	AdminToken           string       `json:"adminToken"`
	PersonConvoWithToken string       `json:"personConvoWithToken"`
	Messages             []messageDTO `json:"messages"`
}

type messageDTO struct {
	MessageContent string `json:"messageContent"`
	MessageType    string `json:"messageType"`
	TimeStamp      string `json:"timeStamp"`
}

// SearchConversation fetches the conversation for a token pair. A student
// client passes an empty adminToken and searches by its own token alone; the
// admin side passes both. A nil, nil return means the conversation does not
// exist yet, which is a valid state distinct from an empty conversation.
func (c *Client) SearchConversation(ctx context.Context, adminToken, studentToken string) (*model.Conversation, error) {
	adminToken = token.Normalize(adminToken)
	studentToken = token.Normalize(studentToken)
	if studentToken == "" {
		return nil, apperrors.MissingRequired("student token")
	}

	query := url.Values{}
	if adminToken != "" {
		query.Set("adminToken", adminToken)
		query.Set("personToken", studentToken)
	} else {
		query.Set("personConvoWithToken", studentToken)
	}

	var dto conversationDTO
	status, err := c.get(ctx, "/searchConversation", query, &dto, http.StatusNotFound)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}

	conv := &model.Conversation{
		AdminToken:   token.Normalize(dto.AdminToken),
		StudentToken: token.Normalize(dto.PersonConvoWithToken),
		Messages:     make([]model.Message, 0, len(dto.Messages)),
	}
	if conv.StudentToken == "" {
		conv.StudentToken = studentToken
	}
	for _, m := range dto.Messages {
		conv.Messages = append(conv.Messages, m.toModel())
	}
	return conv, nil
}

// AddMessage appends a message to the conversation for a token pair. Content
// must already be validated non-empty; this is the last guard before the
// wire.
func (c *Client) AddMessage(ctx context.Context, adminToken, studentToken string, msg model.Message) error {
	adminToken = token.Normalize(adminToken)
	studentToken = token.Normalize(studentToken)
	if adminToken == "" {
		return apperrors.MissingRequired("admin token")
	}
	if studentToken == "" {
		return apperrors.MissingRequired("student token")
	}
	if strings.TrimSpace(msg.Content) == "" {
		return apperrors.ValidationError("message content must not be empty")
	}
	if !msg.Direction.Valid() {
		return apperrors.ValidationError("invalid message direction")
	}

	query := url.Values{
		"adminToken":  {adminToken},
		"personToken": {studentToken},
	}
	body := messageDTO{
		MessageContent: msg.Content,
		MessageType:    string(msg.Direction),
		TimeStamp:      msg.SentAt.UTC().Format(time.RFC3339),
	}
	_, err := c.post(ctx, "/addMessageToPerson", query, body)
	return err
}

func (m messageDTO) toModel() model.Message {
	sentAt, err := time.Parse(time.RFC3339, m.TimeStamp)
	if err != nil {
		// Older records carry free-form timestamps; keep the message, drop the time.
		log.Debug().Str("timeStamp", m.TimeStamp).Msg("unparseable message timestamp")
		sentAt = time.Time{}
	}
	return model.Message{
		Content:   m.MessageContent,
		Direction: model.Direction(m.MessageType),
		SentAt:    sentAt,
	}
}
