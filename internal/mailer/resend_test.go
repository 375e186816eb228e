package mailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resendPayload struct {
	From        string   `json:"from"`
	To          []string `json:"to"`
	Cc          []string `json:"cc"`
	Subject     string   `json:"subject"`
	Html        string   `json:"html"`
	Attachments []struct {
		Filename string `json:"filename"`
	} `json:"attachments"`
}

func newTestResendProvider(t *testing.T, handler http.HandlerFunc) *ResendProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)

	p := NewResendProvider("re_test")
	p.client.BaseURL = base
	return p
}

func TestResendProvider_Send(t *testing.T) {
	var payload resendPayload
	p := newTestResendProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"re-msg-1"}`)
	})

	resp, err := p.Send(context.Background(), &Message{
		From:    "cetltech@calstatela.edu",
		To:      []string{"a@example.edu"},
		CC:      []string{"c@example.edu"},
		Subject: "This week at CETL",
		HTML:    "<p>hello</p>",
		Attachments: []Attachment{
			{Filename: "week.ics", ContentType: "text/calendar", Content: []byte("BEGIN:VCALENDAR")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "re-msg-1", resp.Body)

	assert.Equal(t, "cetltech@calstatela.edu", payload.From)
	assert.Equal(t, []string{"a@example.edu"}, payload.To)
	assert.Equal(t, []string{"c@example.edu"}, payload.Cc)
	assert.Equal(t, "This week at CETL", payload.Subject)
	assert.Equal(t, "<p>hello</p>", payload.Html)
	require.Len(t, payload.Attachments, 1)
	assert.Equal(t, "week.ics", payload.Attachments[0].Filename)
}

func TestResendProvider_Rejected(t *testing.T) {
	p := newTestResendProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"statusCode":422,"name":"validation_error","message":"Invalid from field"}`)
	})

	resp, err := p.Send(context.Background(), &Message{To: []string{"a@example.edu"}})

	require.Error(t, err)
	assert.Nil(t, resp)
}
