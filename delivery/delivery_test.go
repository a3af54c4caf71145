package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coreybb/denima/models"
	"github.com/jhillyerd/enmime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	from  string
	to    []string
	msg   []byte
	fails bool
}

func (c *captureSender) Send(reversePath string, recipients []string, msg []byte) error {
	if c.fails {
		return errors.New("relay down")
	}
	c.from, c.to, c.msg = reversePath, recipients, msg
	return nil
}

func testOrder() *models.Order {
	return &models.Order{
		ID:            "0d9c7a4e-1111-4111-8111-111111111111",
		ProductName:   "Desk lamp",
		CustomerName:  "Ann",
		CustomerEmail: "ann@example.com",
		Quantity:      2,
		TotalPrice:    25,
		Status:        models.OrderStatusPending,
	}
}

func TestSMTPProviderBuildsMessage(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(NewSMTPProviderWithSender(sender, "shop@example.com", "Denima"), "Denima")

	require.NoError(t, n.OrderPlaced(context.Background(), testOrder()))
	assert.Equal(t, "shop@example.com", sender.from)
	assert.Equal(t, []string{"ann@example.com"}, sender.to)

	env, err := enmime.ReadEnvelope(bytes.NewReader(sender.msg))
	require.NoError(t, err)
	assert.Equal(t, "Denima: order 0d9c7a4e received", env.GetHeader("Subject"))
	assert.Contains(t, env.Text, "Desk lamp")
	assert.Contains(t, env.Text, "Total:    25.00")
}

func TestNotifierWrapsProviderErrors(t *testing.T) {
	n := NewNotifier(NewSMTPProviderWithSender(&captureSender{fails: true}, "shop@example.com", "Denima"), "Denima")
	err := n.OrderPlaced(context.Background(), testOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp provider")
}

func TestNotifierWithoutProviderIsNoop(t *testing.T) {
	assert.NoError(t, NewNotifier(nil, "Denima").OrderPlaced(context.Background(), testOrder()))
}

func TestSendGridProvider(t *testing.T) {
	var got sgMailPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := NewSendGridProvider("key", "shop@example.com", "Denima")
	p.endpoint = srv.URL
	require.NoError(t, p.Send(context.Background(), Message{ToEmail: "ann@example.com", Subject: "hi", Text: "body"}))
	assert.Equal(t, "ann@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "hi", got.Subject)
	assert.Equal(t, "text/plain", got.Content[0].Type)
}

func TestSendGridProviderReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewSendGridProvider("key", "shop@example.com", "Denima")
	p.endpoint = srv.URL
	err := p.Send(context.Background(), Message{ToEmail: "ann@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
