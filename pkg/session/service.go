package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/voxcal/voxcal/internal/utils"
	"golang.org/x/oauth2"
)

type Service interface {
	Create(ctx context.Context, timezone string) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	// UpdateDetails merges partial into the stored record and reports the
	// resulting readiness.
	UpdateDetails(ctx context.Context, id string, partial DetailRecord) (Session, bool, error)
	// SetDetails replaces the stored record wholesale.
	SetDetails(ctx context.Context, id string, details DetailRecord) (Session, bool, error)
	Reset(ctx context.Context, id string) (Session, error)
	StoreTokens(ctx context.Context, id string, tok *oauth2.Token) error
	SetState(ctx context.Context, id string, state State) (Session, error)
	RecordCreatedEvent(ctx context.Context, id, eventId, eventLink string) (Session, error)
}

type ServiceImpl struct {
	repo            Repository
	defaultTimezone string
	clock           utils.Clock
}

func NewService(repo Repository, defaultTimezone string, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{
		repo:            repo,
		defaultTimezone: defaultTimezone,
		clock:           clock,
	}
}

func (s *ServiceImpl) Create(ctx context.Context, timezone string) (Session, error) {
	tz := strings.TrimSpace(timezone)
	if tz == "" {
		tz = s.defaultTimezone
	}
	newSession := Session{
		Id:        uuid.New().String(),
		Timezone:  tz,
		State:     StateIdle,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, newSession); err != nil {
		return Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	log.Infof("new session created: %s (timezone: %s)", newSession.Id, tz)
	return newSession, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id string) (Session, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) UpdateDetails(ctx context.Context, id string, partial DetailRecord) (Session, bool, error) {
	updated, err := s.repo.Update(ctx, id, func(sess *Session) {
		sess.Details = sess.Details.Merge(partial)
		advanceCollectionState(sess)
	})
	if err != nil {
		return Session{}, false, err
	}
	ready := updated.Details.IsReady()
	log.Debugf("session %s details updated, ready=%t: %+v", id, ready, updated.Details)
	return updated, ready, nil
}

func (s *ServiceImpl) SetDetails(ctx context.Context, id string, details DetailRecord) (Session, bool, error) {
	updated, err := s.repo.Update(ctx, id, func(sess *Session) {
		sess.Details = details
		advanceCollectionState(sess)
	})
	if err != nil {
		return Session{}, false, err
	}
	return updated, updated.Details.IsReady(), nil
}

func (s *ServiceImpl) Reset(ctx context.Context, id string) (Session, error) {
	return s.repo.Update(ctx, id, func(sess *Session) {
		sess.Details = DetailRecord{}
		sess.State = StateIdle
		sess.EventId = ""
		sess.EventLink = ""
	})
}

func (s *ServiceImpl) StoreTokens(ctx context.Context, id string, tok *oauth2.Token) error {
	_, err := s.repo.Update(ctx, id, func(sess *Session) {
		sess.Tokens = tok
		sess.Authed = tok != nil
	})
	return err
}

func (s *ServiceImpl) SetState(ctx context.Context, id string, state State) (Session, error) {
	return s.repo.Update(ctx, id, func(sess *Session) {
		sess.State = state
	})
}

func (s *ServiceImpl) RecordCreatedEvent(ctx context.Context, id, eventId, eventLink string) (Session, error) {
	return s.repo.Update(ctx, id, func(sess *Session) {
		sess.EventId = eventId
		sess.EventLink = eventLink
		sess.State = StateDone
	})
}

// advanceCollectionState moves idle/collecting/ready sessions to the state the
// current record implies. Creating and done are owned by the creation path and
// are left untouched.
func advanceCollectionState(sess *Session) {
	switch sess.State {
	case StateIdle, StateCollecting, StateReady:
		if sess.Details.IsReady() {
			sess.State = StateReady
		} else {
			sess.State = StateCollecting
		}
	}
}
