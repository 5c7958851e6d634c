package service

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"testing"

	"storefront-service/internal/store"
	"storefront-service/internal/wizard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOnboardingFixture(t *testing.T, failureRate float64) (*OnboardingService, store.Repository) {
	t.Helper()
	repo := store.NewMemory()
	require.NoError(t, store.SeedDemo(context.Background(), repo))

	svc := NewOnboardingService(repo, nil, nil, failureRate)
	svc.rng = rand.New(rand.NewSource(42))
	return svc, repo
}

var wizardPayloads = map[int]string{
	wizard.StepStoreInfo: `{
		"store_name": "Vintage Finds",
		"store_description": "Curated vintage clothing and accessories",
		"category": "Fashion & Clothing",
		"currency": "MKD"
	}`,
	wizard.StepBusinessInfo: `{
		"business_name": "Vintage Finds DOO",
		"owner_name": "Elena Trajkovska",
		"email": "elena@vintagefinds.mk",
		"phone": "+38970111222",
		"address": "Orce Nikolov 77",
		"city": "Skopje",
		"postal_code": "1000"
	}`,
	wizard.StepTemplate:      `{"template": "classic"}`,
	wizard.StepCustomization: `{"primary_color": "#112233"}`,
	wizard.StepPayment:       `{"payment_methods": ["card", "cash"], "bank_account": "200000123456789"}`,
}

func completeOnboarding(t *testing.T, svc *OnboardingService, sessionID string) {
	t.Helper()
	for step := wizard.StepStoreInfo; step < wizard.StepReview; step++ {
		state, fieldErrs, err := svc.Next(context.Background(), sessionID, json.RawMessage(wizardPayloads[step]))
		require.NoError(t, err)
		require.Nil(t, fieldErrs, "step %d unexpectedly rejected", step)
		require.Equal(t, step+1, state.Step)
	}
}

func TestOnboardingLaunchHappyPath(t *testing.T) {
	svc, repo := newOnboardingFixture(t, 0)
	ctx := context.Background()

	state := svc.StartSession(ctx)
	assert.Equal(t, wizard.StepStoreInfo, state.Step)

	completeOnboarding(t, svc, state.SessionID)

	st, err := svc.Launch(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Vintage Finds", st.Name)
	assert.Equal(t, "vintage-finds", st.Slug)
	assert.Equal(t, "classic", st.Theme)
	assert.Equal(t, "active", st.Status)

	settings, err := repo.GetStoreSettings(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "#112233", settings.PrimaryColor)
	assert.Equal(t, []string{"card", "cash"}, settings.PaymentMethods)
	// Untouched customization fields keep their defaults.
	assert.Equal(t, "Inter", settings.Font)
	assert.Equal(t, "grid-3", settings.Layout)
}

func TestOnboardingLaunchIsIdempotent(t *testing.T) {
	svc, _ := newOnboardingFixture(t, 0)
	ctx := context.Background()

	state := svc.StartSession(ctx)
	completeOnboarding(t, svc, state.SessionID)

	first, err := svc.Launch(ctx, state.SessionID)
	require.NoError(t, err)

	second, err := svc.Launch(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestOnboardingStepRejectionKeepsStep(t *testing.T) {
	svc, _ := newOnboardingFixture(t, 0)
	ctx := context.Background()

	state := svc.StartSession(ctx)

	payload := json.RawMessage(`{
		"store_name": "V",
		"store_description": "too short",
		"category": "Fashion & Clothing",
		"currency": "MKD"
	}`)
	after, fieldErrs, err := svc.Next(ctx, state.SessionID, payload)
	require.NoError(t, err)
	require.NotNil(t, fieldErrs)
	assert.Equal(t, "must be at least 2 characters", fieldErrs["store_name"])
	assert.Equal(t, wizard.StepStoreInfo, after.Step)
}

func TestOnboardingLaunchFailureIsRetryable(t *testing.T) {
	svc, _ := newOnboardingFixture(t, 1.0)
	ctx := context.Background()

	state := svc.StartSession(ctx)
	completeOnboarding(t, svc, state.SessionID)

	_, err := svc.Launch(ctx, state.SessionID)
	require.ErrorIs(t, err, ErrLaunchFailed)

	// The session survives the failure untouched.
	after, err := svc.GetSession(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepReview, after.Step)
	require.NotNil(t, after.Aggregate.StoreInfo)
	assert.Equal(t, "Vintage Finds", after.Aggregate.StoreInfo.StoreName)

	svc.failureRate = 0
	st, err := svc.Launch(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "vintage-finds", st.Slug)
}

func TestOnboardingLaunchRequiresAllSections(t *testing.T) {
	svc, _ := newOnboardingFixture(t, 0)
	ctx := context.Background()

	state := svc.StartSession(ctx)

	_, err := svc.Launch(ctx, state.SessionID)
	require.ErrorIs(t, err, ErrIncompleteOnboarding)
	assert.Contains(t, err.Error(), "store_info")
}

func TestOnboardingBackNeverClears(t *testing.T) {
	svc, _ := newOnboardingFixture(t, 0)
	ctx := context.Background()

	state := svc.StartSession(ctx)
	_, fieldErrs, err := svc.Next(ctx, state.SessionID, json.RawMessage(wizardPayloads[wizard.StepStoreInfo]))
	require.NoError(t, err)
	require.Nil(t, fieldErrs)

	after, err := svc.Back(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepStoreInfo, after.Step)
	assert.NotNil(t, after.Aggregate.StoreInfo)

	// Floor at step 1.
	after, err = svc.Back(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepStoreInfo, after.Step)
}

func TestOnboardingSlugCollisionGetsSuffix(t *testing.T) {
	svc, _ := newOnboardingFixture(t, 0)
	ctx := context.Background()

	state := svc.StartSession(ctx)
	payload := json.RawMessage(`{
		"store_name": "Demo Bakery",
		"store_description": "Another bakery with the same name",
		"category": "Food & Beverages",
		"currency": "MKD"
	}`)
	_, fieldErrs, err := svc.Next(ctx, state.SessionID, payload)
	require.NoError(t, err)
	require.Nil(t, fieldErrs)
	for step := wizard.StepBusinessInfo; step < wizard.StepReview; step++ {
		_, fieldErrs, err := svc.Next(ctx, state.SessionID, json.RawMessage(wizardPayloads[step]))
		require.NoError(t, err)
		require.Nil(t, fieldErrs)
	}

	st, err := svc.Launch(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "demo-bakery-2", st.Slug)
}

func TestOnboardingConcurrentLaunchCreatesOneStore(t *testing.T) {
	svc, repo := newOnboardingFixture(t, 0)
	ctx := context.Background()

	state := svc.StartSession(ctx)
	completeOnboarding(t, svc, state.SessionID)

	const workers = 8
	ids := make([]int64, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			st, err := svc.Launch(ctx, state.SessionID)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = st.ID
		}(i)
	}
	wg.Wait()

	// Every launch resolved to the same store; no suffixed duplicate
	// slipped through the idempotency check.
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	taken, err := repo.SlugExists(ctx, "vintage-finds-2")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestOnboardingUnknownSession(t *testing.T) {
	svc, _ := newOnboardingFixture(t, 0)
	_, err := svc.GetSession(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "vintage-finds", Slugify("Vintage Finds"))
	assert.Equal(t, "my-store", Slugify("  My  Store!!  "))
	assert.Equal(t, "store", Slugify("???"))
}
