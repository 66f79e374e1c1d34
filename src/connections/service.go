// Package connections implements the connection request lifecycle between
// two users: pending, then accepted, rejected or cancelled. A rejected
// request is revived in place when the same sender asks again.
package connections

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/theleywin/talent-nest-network/src/apperr"
	"github.com/theleywin/talent-nest-network/src/logging"
	"github.com/theleywin/talent-nest-network/src/metrics"
	"github.com/theleywin/talent-nest-network/src/models"
	"github.com/theleywin/talent-nest-network/src/store"
)

// Notifier creates notifications for connection events.
type Notifier interface {
	Create(ctx context.Context, recipient, sender string, typ models.NotificationType, content, link string) (*models.NotificationDto, error)
}

type Service struct {
	users    store.UserStore
	requests store.RequestStore
	notifier Notifier
	now      func() time.Time
}

func NewService(users store.UserStore, requests store.RequestStore, notifier Notifier) *Service {
	return &Service{
		users:    users,
		requests: requests,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

var (
	errRequestNotFound   = apperr.NotFound("Request not found")
	errNotAuthorized     = apperr.Forbidden("Not authorized")
	errAlreadyProcessed  = apperr.Conflict("Request already processed")
	errAlreadyRequested  = apperr.Conflict("Connection request already sent")
	errAlreadyConnected  = apperr.Conflict("Users are already connected")
	errUserNotFound      = apperr.NotFound("User not found")
	errConnectionMissing = apperr.NotFound("Connection does not exist")
)

// Send creates a pending request from sender to receiver, or revives the
// pair's rejected request keeping its id. Only the ordered pair is checked:
// a pending request in the other direction does not block it.
func (s *Service) Send(ctx context.Context, senderID, receiverID string) (*models.ConnectionRequestDto, error) {
	if senderID == receiverID {
		return nil, apperr.Validation("You can't send a connection request to yourself")
	}

	ok, err := s.users.UserExists(ctx, receiverID)
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	if !ok {
		return nil, errUserNotFound
	}
	sender, err := s.users.FindUser(ctx, senderID)
	if err != nil {
		return nil, userErr(err)
	}
	if sender.IsConnectedTo(receiverID) {
		metrics.ConnectionConflicts.WithLabelValues("send").Inc()
		return nil, errAlreadyConnected
	}

	_, err = s.requests.FindRequestByPair(ctx, senderID, receiverID, models.ConnectionStatusPending)
	switch {
	case err == nil:
		metrics.ConnectionConflicts.WithLabelValues("send").Inc()
		return nil, errAlreadyRequested
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperr.Internal("Server error", err)
	}

	request, err := s.createOrRevive(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	metrics.ConnectionTransitions.WithLabelValues(string(models.ConnectionStatusPending)).Inc()

	s.notify(ctx, receiverID, senderID, models.NotificationTypeConnectionRequest,
		fmt.Sprintf("%s sent you a connection request", sender.Username),
		"/profile/"+senderID)

	return s.populate(ctx, request)
}

func (s *Service) createOrRevive(ctx context.Context, senderID, receiverID string) (*models.ConnectionRequest, error) {
	now := s.now()

	previous, err := s.requests.FindRequestByPair(ctx, senderID, receiverID, models.ConnectionStatusRejected)
	switch {
	case err == nil:
		err = s.requests.ReviveRequest(ctx, previous.ID, now)
		if errors.Is(err, store.ErrDuplicate) || errors.Is(err, store.ErrStale) {
			metrics.ConnectionConflicts.WithLabelValues("send").Inc()
			return nil, errAlreadyRequested
		}
		if err != nil {
			return nil, apperr.Internal("Server error", err)
		}
		previous.Status = models.ConnectionStatusPending
		previous.CreatedAt = now
		previous.UpdatedAt = now
		logging.Info().Str("request", previous.ID).Msg("revived rejected connection request")
		return previous, nil

	case !errors.Is(err, store.ErrNotFound):
		return nil, apperr.Internal("Server error", err)
	}

	request := &models.ConnectionRequest{
		ID:        models.NewID(),
		Sender:    senderID,
		Receiver:  receiverID,
		Status:    models.ConnectionStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.requests.CreateRequest(ctx, request)
	if errors.Is(err, store.ErrDuplicate) {
		metrics.ConnectionConflicts.WithLabelValues("send").Inc()
		return nil, errAlreadyRequested
	}
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	return request, nil
}

// Accept lets the receiver accept a pending request and connects both users.
// Retrying an accept that already went through re-applies the connection
// edges before reporting the conflict, so a half-written accept converges.
func (s *Service) Accept(ctx context.Context, requestID, actor string) error {
	request, err := s.receivedBy(ctx, requestID, actor)
	if err != nil {
		return err
	}
	if request.Status != models.ConnectionStatusPending {
		return s.alreadyProcessed(ctx, request, "accept")
	}

	err = s.requests.AcceptRequest(ctx, request, s.now())
	switch {
	case errors.Is(err, store.ErrStale):
		current, ferr := s.requests.FindRequest(ctx, requestID)
		if ferr != nil {
			return errAlreadyProcessed
		}
		return s.alreadyProcessed(ctx, current, "accept")
	case errors.Is(err, store.ErrNotFound):
		return errRequestNotFound
	case err != nil:
		return apperr.Internal("Server error", err)
	}
	metrics.ConnectionTransitions.WithLabelValues(string(models.ConnectionStatusAccepted)).Inc()

	username := actor
	if summaries, err := s.users.Summaries(ctx, []string{actor}); err == nil {
		if sum, ok := summaries[actor]; ok {
			username = sum.Username
		}
	}
	s.notify(ctx, request.Sender, actor, models.NotificationTypeConnectionAccepted,
		fmt.Sprintf("%s accepted your connection request", username),
		"/profile/"+actor)
	return nil
}

func (s *Service) alreadyProcessed(ctx context.Context, request *models.ConnectionRequest, op string) error {
	if request.Status == models.ConnectionStatusAccepted {
		if err := s.users.ConnectUsers(ctx, request.Sender, request.Receiver); err != nil {
			logging.Error().Err(err).Str("request", request.ID).Msg("failed to repair connection edges")
		}
	}
	metrics.ConnectionConflicts.WithLabelValues(op).Inc()
	return errAlreadyProcessed
}

// Reject lets the receiver decline a pending request.
func (s *Service) Reject(ctx context.Context, requestID, actor string) error {
	request, err := s.receivedBy(ctx, requestID, actor)
	if err != nil {
		return err
	}
	return s.transition(ctx, request, models.ConnectionStatusRejected, "reject")
}

// Cancel lets the sender withdraw a pending request.
func (s *Service) Cancel(ctx context.Context, requestID, actor string) error {
	request, err := s.findRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.Sender != actor {
		return errNotAuthorized
	}
	return s.transition(ctx, request, models.ConnectionStatusCancelled, "cancel")
}

func (s *Service) transition(ctx context.Context, request *models.ConnectionRequest, to models.ConnectionStatus, op string) error {
	if request.Status != models.ConnectionStatusPending {
		metrics.ConnectionConflicts.WithLabelValues(op).Inc()
		return errAlreadyProcessed
	}

	err := s.requests.TransitionRequest(ctx, request.ID, models.ConnectionStatusPending, to, s.now())
	switch {
	case errors.Is(err, store.ErrStale):
		metrics.ConnectionConflicts.WithLabelValues(op).Inc()
		return errAlreadyProcessed
	case errors.Is(err, store.ErrNotFound):
		return errRequestNotFound
	case err != nil:
		return apperr.Internal("Server error", err)
	}
	metrics.ConnectionTransitions.WithLabelValues(string(to)).Inc()
	return nil
}

func (s *Service) findRequest(ctx context.Context, requestID string) (*models.ConnectionRequest, error) {
	request, err := s.requests.FindRequest(ctx, requestID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errRequestNotFound
	}
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	return request, nil
}

func (s *Service) receivedBy(ctx context.Context, requestID, actor string) (*models.ConnectionRequest, error) {
	request, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Receiver != actor {
		return nil, errNotAuthorized
	}
	return request, nil
}

// ListPending returns pending requests the user sent or received, newest first.
func (s *Service) ListPending(ctx context.Context, userID string, page store.Page) ([]models.ConnectionRequestDto, error) {
	requests, err := s.requests.ListPending(ctx, userID, page)
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}

	ids := make([]string, 0, 2*len(requests))
	for _, r := range requests {
		ids = append(ids, r.Sender, r.Receiver)
	}
	summaries, err := s.users.Summaries(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}

	out := make([]models.ConnectionRequestDto, 0, len(requests))
	for i := range requests {
		out = append(out, toDto(&requests[i], summaries))
	}
	return out, nil
}

// Status describes the relationship between userID and otherID.
func (s *Service) Status(ctx context.Context, userID, otherID string) (*models.ConnectionStatusView, error) {
	if userID == otherID {
		return nil, apperr.Validation("Cannot check connection status with yourself")
	}

	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return nil, userErr(err)
	}
	if user.IsConnectedTo(otherID) {
		return &models.ConnectionStatusView{Status: models.RelationshipConnected}, nil
	}

	pending, err := s.requests.FindPendingBetween(ctx, userID, otherID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &models.ConnectionStatusView{Status: models.RelationshipNotConnected}, nil
	case err != nil:
		return nil, apperr.Internal("Server error", err)
	case pending.Sender == userID:
		return &models.ConnectionStatusView{Status: models.RelationshipPending}, nil
	default:
		return &models.ConnectionStatusView{Status: models.RelationshipReceived, RequestID: pending.ID}, nil
	}
}

// ListConnections returns the user's connections in insertion order.
func (s *Service) ListConnections(ctx context.Context, userID string) ([]models.UserSummary, error) {
	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return nil, userErr(err)
	}
	list, err := store.ResolveSummaries(ctx, s.users, user.Connections)
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	return list, nil
}

// Remove drops the connection between userID and otherID on both sides.
func (s *Service) Remove(ctx context.Context, userID, otherID string) error {
	if userID == otherID {
		return apperr.Validation("You cannot remove yourself as a connection")
	}

	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return userErr(err)
	}
	if !user.IsConnectedTo(otherID) {
		return errConnectionMissing
	}
	if err := s.users.DisconnectUsers(ctx, userID, otherID); err != nil {
		return apperr.Internal("Failed to remove connection", err)
	}
	return nil
}

// notify creates a notification. Failures are logged only: the state change
// already happened.
func (s *Service) notify(ctx context.Context, recipient, sender string, typ models.NotificationType, content, link string) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Create(ctx, recipient, sender, typ, content, link); err != nil {
		logging.Error().Err(err).
			Str("recipient", recipient).
			Str("type", string(typ)).
			Msg("failed to create notification")
	}
}

func (s *Service) populate(ctx context.Context, r *models.ConnectionRequest) (*models.ConnectionRequestDto, error) {
	summaries, err := s.users.Summaries(ctx, []string{r.Sender, r.Receiver})
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	dto := toDto(r, summaries)
	return &dto, nil
}

func toDto(r *models.ConnectionRequest, summaries map[string]models.UserSummary) models.ConnectionRequestDto {
	sender, ok := summaries[r.Sender]
	if !ok {
		sender = models.UserSummary{ID: r.Sender}
	}
	receiver, ok := summaries[r.Receiver]
	if !ok {
		receiver = models.UserSummary{ID: r.Receiver}
	}
	return models.ConnectionRequestDto{
		ID:        r.ID,
		Sender:    sender,
		Receiver:  receiver,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func userErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return errUserNotFound
	}
	return apperr.Internal("Server error", err)
}
