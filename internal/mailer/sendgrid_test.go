package mailer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sgAddress struct {
	Email string `json:"email"`
}

type sgPayload struct {
	From             sgAddress `json:"from"`
	Subject          string    `json:"subject"`
	Personalizations []struct {
		To []sgAddress `json:"to"`
		CC []sgAddress `json:"cc"`
	} `json:"personalizations"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
	Attachments []struct {
		Content  string `json:"content"`
		Filename string `json:"filename"`
		Type     string `json:"type"`
	} `json:"attachments"`
}

func TestSendGridProvider_Send(t *testing.T) {
	var payload sgPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))

		w.Header().Set("X-Message-Id", "msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := NewSendGridProvider("sg-key", srv.URL)
	resp, err := p.Send(context.Background(), &Message{
		From:    "cetltech@calstatela.edu",
		To:      []string{"a@example.edu", "b@example.edu"},
		CC:      []string{"c@example.edu"},
		Subject: "This week at CETL",
		HTML:    "<p>hello</p>",
		Attachments: []Attachment{
			{Filename: "week.ics", ContentType: "text/calendar", Content: []byte("BEGIN:VCALENDAR")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []string{"msg-1"}, resp.Headers["X-Message-Id"])

	assert.Equal(t, "cetltech@calstatela.edu", payload.From.Email)
	assert.Equal(t, "This week at CETL", payload.Subject)
	require.Len(t, payload.Personalizations, 1)
	assert.Equal(t, []sgAddress{{"a@example.edu"}, {"b@example.edu"}}, payload.Personalizations[0].To)
	assert.Equal(t, []sgAddress{{"c@example.edu"}}, payload.Personalizations[0].CC)
	require.Len(t, payload.Content, 1)
	assert.Equal(t, "text/html", payload.Content[0].Type)
	assert.Equal(t, "<p>hello</p>", payload.Content[0].Value)
	require.Len(t, payload.Attachments, 1)
	assert.Equal(t, "week.ics", payload.Attachments[0].Filename)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("BEGIN:VCALENDAR")), payload.Attachments[0].Content)
}

func TestSendGridProvider_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"errors":[{"message":"The provided authorization grant is invalid"}]}`)
	}))
	defer srv.Close()

	resp, err := NewSendGridProvider("bad", srv.URL).Send(context.Background(), &Message{To: []string{"a@example.edu"}})

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Body, "authorization grant")
}

func TestSendGridProvider_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	resp, err := NewSendGridProvider("k", url).Send(context.Background(), &Message{})
	assert.Error(t, err)
	assert.Nil(t, resp)
}
