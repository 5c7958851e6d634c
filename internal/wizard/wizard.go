// Package wizard implements the store-onboarding state machine: a fixed
// sequence of steps, each gated by its own schema, accumulating validated
// output into an aggregate that the launch step reads back.
package wizard

import (
	"encoding/json"
	"errors"
	"fmt"

	"storefront-service/internal/validate"

	validatorv10 "github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidPayload means the step payload was not decodable into the
	// current step's schema at all (malformed JSON or the wrong shape).
	ErrInvalidPayload = errors.New("invalid step payload")

	// ErrAtFinalStep rejects Next on the review step; launching is a
	// separate operation.
	ErrAtFinalStep = errors.New("already at final step")
)

// Wizard holds the current step and the partial aggregate. It is a pure
// state machine; the create-store effect lives in the onboarding service.
type Wizard struct {
	step      int
	aggregate Aggregate
	validator *validatorv10.Validate
}

// New returns a wizard at step 1 with default customization already
// merged, mirroring the onboarding form's initial state.
func New() *Wizard {
	defaults := DefaultCustomization()
	return &Wizard{
		step:      StepStoreInfo,
		aggregate: Aggregate{Customization: &defaults},
		validator: validate.New(),
	}
}

// Step returns the current step, 1..TotalSteps.
func (w *Wizard) Step() int {
	return w.step
}

// Aggregate returns the sections collected so far.
func (w *Wizard) Aggregate() Aggregate {
	return w.aggregate
}

// Next validates payload against the current step's schema. On acceptance
// the step's output is merged into the aggregate and the step advances
// (never past the review step). On rejection the step is unchanged and
// every failing field is reported; a rejection is a normal return, not an
// error. A non-nil error means the payload was not decodable at all or
// the wizard is already at the review step.
func (w *Wizard) Next(payload json.RawMessage) (validate.FieldErrors, error) {
	if w.step >= StepReview {
		return nil, ErrAtFinalStep
	}

	switch w.step {
	case StepStoreInfo:
		var in StoreInfo
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if errs := validate.Struct(w.validator, in); errs != nil {
			return errs, nil
		}
		w.aggregate.StoreInfo = &in

	case StepBusinessInfo:
		var in BusinessInfo
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if errs := validate.Struct(w.validator, in); errs != nil {
			return errs, nil
		}
		w.aggregate.BusinessInfo = &in

	case StepTemplate:
		var in Template
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if errs := validate.Struct(w.validator, in); errs != nil {
			return errs, nil
		}
		w.aggregate.Template = &in

	case StepCustomization:
		// Start from the current (defaulted) values so a partial
		// submission only overrides what it names.
		in := *w.aggregate.Customization
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &in); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
			}
		}
		if errs := validate.Struct(w.validator, in); errs != nil {
			return errs, nil
		}
		w.aggregate.Customization = &in

	case StepPayment:
		var in PaymentSetup
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if errs := validate.Struct(w.validator, in); errs != nil {
			return errs, nil
		}
		w.aggregate.Payment = &in
	}

	w.step++
	return nil, nil
}

// Back moves one step back, to a floor of step 1. It never validates and
// never clears previously merged sections.
func (w *Wizard) Back() int {
	if w.step > StepStoreInfo {
		w.step--
	}
	return w.step
}

// ReadyToLaunch re-checks that every required section is present. It
// defends against any path that reached the review step incompletely;
// the returned slice names the missing sections.
func (w *Wizard) ReadyToLaunch() (bool, []string) {
	missing := w.aggregate.MissingSections()
	return len(missing) == 0, missing
}
