package wizard

// Onboarding wizard steps
const (
	StepStoreInfo = iota + 1
	StepBusinessInfo
	StepTemplate
	StepCustomization
	StepPayment
	StepReview

	TotalSteps = StepReview
)

// StepName returns the display name for a step.
func StepName(step int) string {
	switch step {
	case StepStoreInfo:
		return "Store Information"
	case StepBusinessInfo:
		return "Business Information"
	case StepTemplate:
		return "Choose Template"
	case StepCustomization:
		return "Customize Design"
	case StepPayment:
		return "Payment Setup"
	case StepReview:
		return "Review & Launch"
	}
	return "Unknown"
}

// StoreInfo is the output of step 1.
type StoreInfo struct {
	StoreName        string `json:"store_name" validate:"required,min=2"`
	StoreDescription string `json:"store_description" validate:"required,min=10"`
	Category         string `json:"category" validate:"required,oneof='Fashion & Clothing' 'Electronics & Tech' 'Home & Garden' 'Health & Beauty' 'Sports & Outdoors' 'Books & Media' 'Food & Beverages' 'Jewelry & Accessories' 'Art & Crafts' Other"`
	Currency         string `json:"currency" validate:"required,oneof=MKD EUR USD"`
}

// BusinessInfo is the output of step 2.
type BusinessInfo struct {
	BusinessName string `json:"business_name" validate:"required,min=2"`
	OwnerName    string `json:"owner_name" validate:"required,min=2"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required,min=8"`
	Address      string `json:"address" validate:"required,min=5"`
	City         string `json:"city" validate:"required,min=2"`
	PostalCode   string `json:"postal_code" validate:"required,min=4"`
}

// Template is the output of step 3: a selection from the fixed theme set.
type Template struct {
	Template string `json:"template" validate:"required,oneof=modern classic minimal bold"`
}

// Customization is the output of step 4. It carries defaults, so an empty
// submission is valid.
type Customization struct {
	PrimaryColor   string `json:"primary_color" validate:"required,hexcolor"`
	SecondaryColor string `json:"secondary_color" validate:"required,hexcolor"`
	Font           string `json:"font" validate:"required"`
	Layout         string `json:"layout" validate:"required,oneof=grid-2 grid-3 grid-4 list"`
}

// DefaultCustomization mirrors the wizard's initial design state.
func DefaultCustomization() Customization {
	return Customization{
		PrimaryColor:   "#ff532a",
		SecondaryColor: "#f97316",
		Font:           "Inter",
		Layout:         "grid-3",
	}
}

// PaymentSetup is the output of step 5. At least one payment method is
// required; bank account and tax number stay optional.
type PaymentSetup struct {
	PaymentMethods []string `json:"payment_methods" validate:"min=1,dive,oneof=card paypal bank cash"`
	BankAccount    string   `json:"bank_account,omitempty" validate:"omitempty,min=5"`
	TaxNumber      string   `json:"tax_number,omitempty"`
}

// Aggregate accumulates validated step outputs. A section is nil until
// its step's validator has accepted input; readers must treat every
// section as potentially absent until its step has been passed.
type Aggregate struct {
	StoreInfo     *StoreInfo     `json:"store_info,omitempty"`
	BusinessInfo  *BusinessInfo  `json:"business_info,omitempty"`
	Template      *Template      `json:"template,omitempty"`
	Customization *Customization `json:"customization,omitempty"`
	Payment       *PaymentSetup  `json:"payment,omitempty"`
}

// MissingSections lists the required sections a launch would still need.
// Customization is excluded: it always has defaults.
func (a *Aggregate) MissingSections() []string {
	var missing []string
	if a.StoreInfo == nil {
		missing = append(missing, "store_info")
	}
	if a.BusinessInfo == nil {
		missing = append(missing, "business_info")
	}
	if a.Template == nil {
		missing = append(missing, "template")
	}
	if a.Payment == nil {
		missing = append(missing, "payment")
	}
	return missing
}
