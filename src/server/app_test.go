package server_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theleywin/talent-nest-network/src/connections"
	"github.com/theleywin/talent-nest-network/src/lib"
	"github.com/theleywin/talent-nest-network/src/models"
	"github.com/theleywin/talent-nest-network/src/notifications"
	"github.com/theleywin/talent-nest-network/src/server"
	"github.com/theleywin/talent-nest-network/src/testutil"
	"github.com/theleywin/talent-nest-network/src/users"
)

type harness struct {
	t      *testing.T
	app    *fiber.App
	tokens *lib.JWT
}

func newHarness(t *testing.T) (*harness, *models.User, *models.User) {
	t.Helper()
	s := testutil.NewSQLStore(t)
	notes := notifications.NewService(s, s, nil)
	tokens := lib.NewJWT("integration-secret", time.Hour)

	app := server.NewApp(server.Deps{
		Store:         s,
		Verifier:      tokens,
		Connections:   connections.NewService(s, s, notes),
		Notifications: notes,
		Users:         users.NewService(s, 20),
		API:           lib.APIConfig{DefaultPageSize: 20, MaxPageSize: 100, MaxSearchResult: 20},
	})

	return &harness{t: t, app: app, tokens: tokens},
		testutil.CreateUser(t, s, "alice"),
		testutil.CreateUser(t, s, "bob")
}

// do sends a request as user (nil for anonymous) and decodes the JSON body into out.
func (h *harness) do(user *models.User, method, path string, body any, out any) int {
	h.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		token, err := h.tokens.GenerateJWT(user.ID)
		require.NoError(h.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(h.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type message struct {
	Message string `json:"message"`
}

func TestConnectionLifecycleOverHTTP(t *testing.T) {
	h, alice, bob := newHarness(t)

	var request models.ConnectionRequestDto
	require.Equal(t, http.StatusCreated, h.do(alice, "POST", "/api/v1/connections/send/"+bob.ID, nil, &request))
	assert.Equal(t, models.ConnectionStatusPending, request.Status)
	assert.Equal(t, "bob", request.Receiver.Username)

	var msg message
	assert.Equal(t, http.StatusBadRequest, h.do(alice, "POST", "/api/v1/connections/send/"+bob.ID, nil, &msg))
	assert.Equal(t, "Connection request already sent", msg.Message)

	var pending []models.ConnectionRequestDto
	require.Equal(t, http.StatusOK, h.do(bob, "GET", "/api/v1/connections/pending?limit=5", nil, &pending))
	require.Len(t, pending, 1)

	var status models.ConnectionStatusView
	require.Equal(t, http.StatusOK, h.do(bob, "GET", "/api/v1/connections/status/"+alice.ID, nil, &status))
	assert.Equal(t, models.RelationshipReceived, status.Status)
	assert.Equal(t, request.ID, status.RequestID)

	assert.Equal(t, http.StatusForbidden, h.do(alice, "POST", "/api/v1/connections/accept/"+request.ID, nil, &msg))
	assert.Equal(t, http.StatusNotFound, h.do(bob, "POST", "/api/v1/connections/accept/"+models.NewID(), nil, &msg))
	require.Equal(t, http.StatusOK, h.do(bob, "POST", "/api/v1/connections/accept/"+request.ID, nil, &msg))
	assert.Equal(t, http.StatusBadRequest, h.do(bob, "POST", "/api/v1/connections/accept/"+request.ID, nil, &msg))
	assert.Equal(t, "Request already processed", msg.Message)

	var conns []models.UserSummary
	require.Equal(t, http.StatusOK, h.do(alice, "GET", "/api/v1/connections", nil, &conns))
	require.Len(t, conns, 1)
	assert.Equal(t, bob.ID, conns[0].ID)

	var count struct{ Count int64 }
	require.Equal(t, http.StatusOK, h.do(alice, "GET", "/api/v1/notifications/unread/count", nil, &count))
	assert.EqualValues(t, 1, count.Count)

	var list []models.NotificationDto
	require.Equal(t, http.StatusOK, h.do(alice, "GET", "/api/v1/notifications", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationTypeConnectionAccepted, list[0].Type)

	var read models.NotificationDto
	assert.Equal(t, http.StatusForbidden, h.do(bob, "PUT", "/api/v1/notifications/"+list[0].ID+"/read", nil, &msg))
	require.Equal(t, http.StatusOK, h.do(alice, "PUT", "/api/v1/notifications/"+list[0].ID+"/read", nil, &read))
	assert.True(t, read.Read)

	require.Equal(t, http.StatusOK, h.do(bob, "PUT", "/api/v1/notifications/read/all", nil, &msg))
	require.Equal(t, http.StatusOK, h.do(bob, "GET", "/api/v1/notifications/unread/count", nil, &count))
	assert.Zero(t, count.Count)

	require.Equal(t, http.StatusOK, h.do(alice, "DELETE", "/api/v1/connections/"+bob.ID, nil, &msg))
	require.Equal(t, http.StatusOK, h.do(alice, "GET", "/api/v1/connections/status/"+bob.ID, nil, &status))
	assert.Equal(t, models.RelationshipNotConnected, status.Status)
}

func TestRejectAndCancelOverHTTP(t *testing.T) {
	h, alice, bob := newHarness(t)

	var request models.ConnectionRequestDto
	require.Equal(t, http.StatusCreated, h.do(alice, "POST", "/api/v1/connections/send/"+bob.ID, nil, &request))

	var msg message
	assert.Equal(t, http.StatusForbidden, h.do(bob, "POST", "/api/v1/connections/cancel/"+request.ID, nil, &msg))
	require.Equal(t, http.StatusOK, h.do(bob, "POST", "/api/v1/connections/reject/"+request.ID, nil, &msg))
	assert.Equal(t, http.StatusBadRequest, h.do(alice, "POST", "/api/v1/connections/cancel/"+request.ID, nil, &msg))

	var revived models.ConnectionRequestDto
	require.Equal(t, http.StatusCreated, h.do(alice, "POST", "/api/v1/connections/send/"+bob.ID, nil, &revived))
	assert.Equal(t, request.ID, revived.ID)
	require.Equal(t, http.StatusOK, h.do(alice, "POST", "/api/v1/connections/cancel/"+revived.ID, nil, &msg))
}

func TestBadInputOverHTTP(t *testing.T) {
	h, alice, _ := newHarness(t)

	var msg message
	assert.Equal(t, http.StatusUnauthorized, h.do(nil, "GET", "/api/v1/connections", nil, &msg))
	assert.Equal(t, "Unauthorized - No Token Provided", msg.Message)

	assert.Equal(t, http.StatusBadRequest, h.do(alice, "POST", "/api/v1/connections/send/not-an-id", nil, &msg))
	assert.Equal(t, http.StatusBadRequest, h.do(alice, "POST", "/api/v1/connections/send/"+alice.ID, nil, &msg))
	assert.Equal(t, http.StatusNotFound, h.do(alice, "POST", "/api/v1/connections/send/"+models.NewID(), nil, &msg))
	assert.Equal(t, http.StatusBadRequest, h.do(alice, "GET", "/api/v1/notifications?page=-2", nil, &msg))
}

func TestUserRoutes(t *testing.T) {
	h, alice, bob := newHarness(t)

	var msg message
	require.Equal(t, http.StatusOK, h.do(alice, "POST", "/api/v1/users/follow/"+bob.ID, nil, &msg))

	var profile models.UserProfile
	require.Equal(t, http.StatusOK, h.do(alice, "GET", "/api/v1/users/"+bob.ID, nil, &profile))
	require.Len(t, profile.Followers, 1)
	assert.Equal(t, "alice", profile.Followers[0].Username)

	require.Equal(t, http.StatusOK, h.do(alice, "PUT", "/api/v1/users/profile", map[string]string{"bio": "hello"}, &profile))
	assert.Equal(t, "hello", profile.Bio)

	require.Equal(t, http.StatusOK, h.do(alice, "GET", "/api/v1/users/me", nil, &profile))
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "hello", profile.Bio)

	var found []models.UserSummary
	require.Equal(t, http.StatusOK, h.do(alice, "GET", "/api/v1/search/users?query=BO", nil, &found))
	require.Len(t, found, 1)
	assert.Equal(t, bob.ID, found[0].ID)

	require.Equal(t, http.StatusOK, h.do(alice, "POST", "/api/v1/users/unfollow/"+bob.ID, nil, &msg))
	var conns []models.UserSummary
	require.Equal(t, http.StatusOK, h.do(alice, "GET", "/api/v1/users/"+bob.ID+"/connections", nil, &conns))
	assert.Empty(t, conns)
}

func TestHealthAndMetrics(t *testing.T) {
	h, _, _ := newHarness(t)

	var health map[string]string
	require.Equal(t, http.StatusOK, h.do(nil, "GET", "/healthz", nil, &health))
	assert.Equal(t, "ok", health["status"])

	resp, err := h.app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "talentnest_api_requests_total")
}
