package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpamClient_SpamVerdict(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req spamRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "buy cheap pills", req.Message)

		json.NewEncoder(w).Encode(spamResponse{Prediction: "spam"})
	}))
	defer ts.Close()

	client := NewSpamClient(ts.URL, 5*time.Second)

	verdict, err := client.Check(context.Background(), "buy cheap pills")

	assert.NoError(t, err)
	assert.Equal(t, VerdictSpam, verdict)
}

func TestSpamClient_HamVerdict(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(spamResponse{Prediction: "ham"})
	}))
	defer ts.Close()

	client := NewSpamClient(ts.URL, 5*time.Second)

	verdict, err := client.Check(context.Background(), "hello there")

	assert.NoError(t, err)
	assert.Equal(t, VerdictHam, verdict)
}

func TestSpamClient_DisabledWithoutURL(t *testing.T) {
	client := NewSpamClient("", 5*time.Second)

	verdict, err := client.Check(context.Background(), "anything")

	assert.NoError(t, err)
	assert.Equal(t, VerdictHam, verdict)
}

func TestSpamClient_ServerErrorDegradesToHam(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewSpamClient(ts.URL, 5*time.Second)

	verdict, err := client.Check(context.Background(), "hello")

	assert.Error(t, err)
	assert.Equal(t, VerdictHam, verdict)
}

func TestSpamClient_TimeoutDegradesToHam(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(spamResponse{Prediction: "spam"})
	}))
	defer ts.Close()

	client := NewSpamClient(ts.URL, 20*time.Millisecond)

	verdict, err := client.Check(context.Background(), "hello")

	assert.Error(t, err)
	assert.Equal(t, VerdictHam, verdict)
}
