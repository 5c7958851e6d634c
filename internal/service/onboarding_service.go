package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/store"
	"storefront-service/internal/util"
	"storefront-service/internal/validate"
	"storefront-service/internal/wizard"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrSessionNotFound is returned for unknown or expired onboarding sessions.
	ErrSessionNotFound = errors.New("onboarding session not found")

	// ErrLaunchFailed is the retryable launch failure. The session keeps
	// its step and aggregate so the merchant can simply try again.
	ErrLaunchFailed = errors.New("store launch failed, please try again")

	// ErrIncompleteOnboarding means required sections are still missing.
	ErrIncompleteOnboarding = errors.New("onboarding is incomplete")
)

// slugReservationTTL bounds how long a failed launch can hold a slug.
const slugReservationTTL = 10 * time.Minute

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// onboardingSession pairs a wizard with its launch outcome. The mutex
// serializes concurrent requests on one session; the wizard itself is
// not safe for concurrent use.
type onboardingSession struct {
	mu        sync.Mutex
	wizard    *wizard.Wizard
	storeID   int64
	createdAt time.Time
}

// OnboardingService manages wizard sessions and performs the launch:
// slug allocation, the simulated provisioning step and store creation.
type OnboardingService struct {
	repo   store.Repository
	redis  *redisclient.Client
	events *broker.EventPublisher
	logger *zap.Logger

	failureRate float64
	rng         *rand.Rand

	mu       sync.Mutex
	sessions map[string]*onboardingSession
}

// NewOnboardingService creates a new onboarding service. failureRate is
// the probability in [0,1) that a launch attempt fails; redis and events
// may be nil.
func NewOnboardingService(repo store.Repository, redis *redisclient.Client, events *broker.EventPublisher, failureRate float64) *OnboardingService {
	return &OnboardingService{
		repo:        repo,
		redis:       redis,
		events:      events,
		logger:      util.GetLogger(),
		failureRate: failureRate,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		sessions:    make(map[string]*onboardingSession),
	}
}

// SessionState is the wire view of an onboarding session.
type SessionState struct {
	SessionID string           `json:"session_id"`
	Step      int              `json:"step"`
	StepName  string           `json:"step_name"`
	Aggregate wizard.Aggregate `json:"aggregate"`
	StoreID   int64            `json:"store_id,omitempty"`
}

// StartSession creates a fresh wizard session
func (os *OnboardingService) StartSession(ctx context.Context) *SessionState {
	_, span := util.StartSpan(ctx, "OnboardingService.StartSession")
	defer span.End()

	id := uuid.New().String()
	sess := &onboardingSession{wizard: wizard.New(), createdAt: time.Now()}

	os.mu.Lock()
	os.sessions[id] = sess
	os.mu.Unlock()

	os.logger.Info("Onboarding session started", zap.String("session_id", id))
	return os.state(id, sess)
}

// GetSession returns the current state of a session
func (os *OnboardingService) GetSession(ctx context.Context, sessionID string) (*SessionState, error) {
	sess, err := os.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return os.state(sessionID, sess), nil
}

// Next submits the current step's payload. Field errors leave the step
// unchanged and are returned for the client to render next to the form.
func (os *OnboardingService) Next(ctx context.Context, sessionID string, payload json.RawMessage) (*SessionState, validate.FieldErrors, error) {
	_, span := util.StartSpan(ctx, "OnboardingService.Next")
	defer span.End()

	sess, err := os.session(sessionID)
	if err != nil {
		return nil, nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	step := sess.wizard.Step()
	fieldErrs, err := sess.wizard.Next(payload)
	if err != nil {
		return nil, nil, err
	}
	if fieldErrs != nil {
		util.WizardStepRejectionsTotal.WithLabelValues(wizard.StepName(step)).Inc()
		os.logger.Info("Wizard step rejected",
			zap.String("session_id", sessionID),
			zap.Int("step", step),
			zap.Int("field_errors", len(fieldErrs)))
		return os.state(sessionID, sess), fieldErrs, nil
	}
	return os.state(sessionID, sess), nil, nil
}

// Back moves the session one step back without validating or clearing
// anything.
func (os *OnboardingService) Back(ctx context.Context, sessionID string) (*SessionState, error) {
	sess, err := os.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.wizard.Back()
	return os.state(sessionID, sess), nil
}

// Launch performs the final submission. A simulated provisioning step
// fails with the configured probability; failures are retryable and do
// not disturb the session. On success the store and its settings are
// created, a StoreCreated event is published and the session remembers
// the store ID so repeated launches are idempotent.
func (os *OnboardingService) Launch(ctx context.Context, sessionID string) (*models.Store, error) {
	ctx, span := util.StartSpan(ctx, "OnboardingService.Launch")
	defer span.End()

	sess, err := os.session(sessionID)
	if err != nil {
		return nil, err
	}
	// Held across the whole launch so a concurrent retry cannot slip
	// past the idempotency check and create a second store.
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.storeID != 0 {
		return os.repo.GetStoreByID(ctx, sess.storeID)
	}

	if ready, missing := sess.wizard.ReadyToLaunch(); !ready {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteOnboarding, strings.Join(missing, ", "))
	}
	agg := sess.wizard.Aggregate()

	slug, err := os.allocateSlug(ctx, agg.StoreInfo.StoreName)
	if err != nil {
		return nil, err
	}

	// Simulated provisioning failure. The aggregate is untouched so the
	// merchant can retry the launch as-is.
	if os.roll() < os.failureRate {
		os.releaseSlug(ctx, slug)
		util.StoreLaunchFailuresTotal.WithLabelValues("provisioning").Inc()
		os.logger.Warn("Store launch failed",
			zap.String("session_id", sessionID),
			zap.String("slug", slug))
		return nil, ErrLaunchFailed
	}

	st := &models.Store{
		Name:         agg.StoreInfo.StoreName,
		Slug:         slug,
		Description:  agg.StoreInfo.StoreDescription,
		Category:     agg.StoreInfo.Category,
		Currency:     agg.StoreInfo.Currency,
		Theme:        agg.Template.Template,
		Status:       models.StoreStatusActive,
		BusinessName: agg.BusinessInfo.BusinessName,
		OwnerName:    agg.BusinessInfo.OwnerName,
		Email:        agg.BusinessInfo.Email,
		Phone:        agg.BusinessInfo.Phone,
		Address:      agg.BusinessInfo.Address,
		City:         agg.BusinessInfo.City,
		PostalCode:   agg.BusinessInfo.PostalCode,
	}
	settings := &models.StoreSettings{
		PrimaryColor:   agg.Customization.PrimaryColor,
		SecondaryColor: agg.Customization.SecondaryColor,
		Font:           agg.Customization.Font,
		Layout:         agg.Customization.Layout,
		PaymentMethods: agg.Payment.PaymentMethods,
		BankAccount:    agg.Payment.BankAccount,
		TaxNumber:      agg.Payment.TaxNumber,
	}

	if err := os.repo.CreateStore(ctx, st, settings); err != nil {
		os.releaseSlug(ctx, slug)
		util.StoreLaunchFailuresTotal.WithLabelValues("storage").Inc()
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	sess.storeID = st.ID
	util.StoresCreatedTotal.Inc()
	os.logger.Info("Store launched",
		zap.String("session_id", sessionID),
		zap.Int64("store_id", st.ID),
		zap.String("slug", st.Slug))

	if os.events != nil {
		event := &models.StoreCreatedEvent{
			BaseEvent: newBaseEvent(models.EventTypeStoreCreated),
			StoreID:   st.ID,
			Slug:      st.Slug,
			Name:      st.Name,
			Category:  st.Category,
			Currency:  st.Currency,
		}
		if err := os.events.PublishStoreCreated(ctx, event); err != nil {
			os.logger.Warn("Failed to publish StoreCreated event", zap.Error(err))
		}
	}
	return st, nil
}

// allocateSlug derives a URL slug from the store name and finds a free
// variant, reserving it in redis against concurrent launches.
func (os *OnboardingService) allocateSlug(ctx context.Context, name string) (string, error) {
	base := Slugify(name)

	for i := 0; i < 10; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i+1)
		}

		taken, err := os.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if taken {
			continue
		}

		if os.redis != nil {
			reserved, err := os.redis.ReserveSlug(ctx, candidate, slugReservationTTL)
			if err != nil {
				os.logger.Warn("Slug reservation failed", zap.String("slug", candidate), zap.Error(err))
			} else if !reserved {
				continue
			}
		}
		return candidate, nil
	}
	return "", fmt.Errorf("could not allocate a free slug for %q", name)
}

func (os *OnboardingService) releaseSlug(ctx context.Context, slug string) {
	if os.redis == nil {
		return
	}
	if err := os.redis.ReleaseSlug(ctx, slug); err != nil {
		os.logger.Warn("Failed to release slug", zap.String("slug", slug), zap.Error(err))
	}
}

// roll draws from the shared rng under the service lock; rand.Rand is
// not safe for concurrent use.
func (os *OnboardingService) roll() float64 {
	os.mu.Lock()
	defer os.mu.Unlock()
	return os.rng.Float64()
}

func (os *OnboardingService) session(id string) (*onboardingSession, error) {
	os.mu.Lock()
	defer os.mu.Unlock()
	sess, ok := os.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (os *OnboardingService) state(id string, sess *onboardingSession) *SessionState {
	return &SessionState{
		SessionID: id,
		Step:      sess.wizard.Step(),
		StepName:  wizard.StepName(sess.wizard.Step()),
		Aggregate: sess.wizard.Aggregate(),
		StoreID:   sess.storeID,
	}
}

// Slugify lowercases a name and collapses everything outside [a-z0-9]
// into single hyphens.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugPattern.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "store"
	}
	return s
}
