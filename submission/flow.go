// Package submission holds the report form and submits it to the backend.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"civicsync-client/backend"
	"civicsync-client/executor"
	"civicsync-client/models"
	"civicsync-client/utils"

	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
)

const (
	MissingFieldsText   = "Please fill all required fields"
	UnknownCategoryText = "Please choose a valid category"
	SubmittedText     = "Issue submitted successfully!"
	SubmittedTimeout  = 3 * time.Second
	FailedPrefix      = "Failed to submit issue: "
	FallbackReason    = "Submission failed"

	// DefaultAddress is sent when no address was picked.
	DefaultAddress = "Map location"

	// RefreshDelay is the wait before the full reload after a submit.
	RefreshDelay = 500 * time.Millisecond
)

var (
	// ErrMissingFields is returned when the form is incomplete.
	ErrMissingFields = errors.New("submission: missing required fields")

	// ErrUnknownCategory is returned for a filled in category outside the
	// known set.
	ErrUnknownCategory = errors.New("submission: unknown category")
)

// Creator creates issues on the backend.
type Creator interface {
	CreateIssue(ctx context.Context, issue models.NewIssue) (models.Issue, error)
}

// Store receives the created issue.
type Store interface {
	Add(issue models.Issue, open bool) bool
}

// Centerer reports the map center the issue is placed at.
type Centerer interface {
	Center() models.Point
}

// Refresher schedules the reload that follows a submit.
type Refresher interface {
	ScheduleRefresh(ctx context.Context, d time.Duration)
}

// Form is the report form.
type Form struct {
	Title       string               `json:"title" validate:"required"`
	Description string               `json:"description" validate:"required"`
	Category    models.IssueCategory `json:"category" validate:"required,category"`
	Address     string               `json:"address"`
}

func (f Form) trimmed() Form {
	return Form{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Category:    models.IssueCategory(strings.TrimSpace(string(f.Category))),
		Address:     strings.TrimSpace(f.Address),
	}
}

// NewValidator returns a validator that knows the "category" rule.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.IssueCategory(fl.Field().String()).Valid()
	})
	return v
}

// Flow is safe for concurrent use.
type Flow struct {
	exec      *executor.Executor
	creator   Creator
	store     Store
	center    Centerer
	refresher Refresher
	validate  *validator.Validate

	emit      sync.Mutex
	mu        sync.Mutex
	form      Form
	observers []func(Form)
	lifetime  context.Context
}

// NewFlow wires a submission flow.
func NewFlow(exec *executor.Executor, creator Creator, store Store, center Centerer, refresher Refresher) *Flow {
	return &Flow{
		exec:      exec,
		creator:   creator,
		store:     store,
		center:    center,
		refresher: refresher,
		validate:  NewValidator(),
		lifetime:  context.Background(),
	}
}

// Bind ties the follow-up refreshes of later submits to ctx, so they stop
// with the client instead of the request that triggered them.
func (f *Flow) Bind(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lifetime = ctx
}

func (f *Flow) lifetimeContext() context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lifetime
}

// OnChange registers fn for every form change.
func (f *Flow) OnChange(fn func(Form)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, fn)
}

func (f *Flow) update(fn func(*Form)) {
	f.emit.Lock()
	defer f.emit.Unlock()

	f.mu.Lock()
	fn(&f.form)
	form := f.form
	observers := f.observers
	f.mu.Unlock()
	for _, o := range observers {
		o(form)
	}
}

// SetFields replaces the user-entered fields and keeps the address.
func (f *Flow) SetFields(title, description string, category models.IssueCategory) {
	f.update(func(form *Form) {
		form.Title = title
		form.Description = description
		form.Category = category
	})
}

// SetAddress sets the address sent with the next submit.
func (f *Flow) SetAddress(address string) {
	f.update(func(form *Form) { form.Address = address })
}

// Address returns the address sent with the next submit.
func (f *Flow) Address() string {
	return f.Form().Address
}

// Form returns the current form values.
func (f *Flow) Form() Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

// Counter is the description length indicator.
func (f *Flow) Counter() string {
	n := utf8.RuneCountInString(f.Form().Description)
	return fmt.Sprintf("%d / %d", n, models.DescriptionSoftLimit)
}

// Reset clears every field including the address.
func (f *Flow) Reset() {
	f.update(func(form *Form) { *form = Form{} })
}

// Submit sends the current form.
func (f *Flow) Submit(ctx context.Context) error {
	return f.submit(ctx, f.Form())
}

func (f *Flow) submit(ctx context.Context, form Form) error {
	clean := form.trimmed()
	if err := f.validate.Struct(clean); err != nil {
		if onlyCategoryRule(err) {
			f.exec.Messages().Show(UnknownCategoryText, 0)
			return fmt.Errorf("%w: %q", ErrUnknownCategory, clean.Category)
		}
		f.exec.Messages().Show(MissingFieldsText, 0)
		return fmt.Errorf("%w: %v", ErrMissingFields, err)
	}

	center := f.center.Center()
	payload := models.NewIssue{
		Title:       clean.Title,
		Description: clean.Description,
		Category:    clean.Category,
		Latitude:    center.Lat,
		Longitude:   center.Lng,
		Status:      models.StatusReported,
		Address:     utils.FirstNonEmpty(clean.Address, DefaultAddress),
	}

	_, err := executor.Run(ctx, f.exec, executor.Request[models.Issue]{
		Name: "Submit issue",
		Call: func(ctx context.Context) (models.Issue, error) {
			return f.creator.CreateIssue(ctx, payload)
		},
		OnSuccess: func(created models.Issue) executor.Notice {
			if !f.store.Add(created, true) {
				log.WithField("id", created.ID).Warn("created issue has no usable position")
			}
			f.Reset()
			f.refresher.ScheduleRefresh(f.lifetimeContext(), RefreshDelay)
			log.WithFields(log.Fields{
				"id":       created.ID,
				"category": payload.Category,
			}).Info("issue submitted")
			return executor.Notice{Text: SubmittedText, Timeout: SubmittedTimeout}
		},
		OnFailure: func(err error) executor.Notice {
			return executor.Notice{Text: FailedPrefix + Reason(err)}
		},
		Retry: func(ctx context.Context) { _ = f.submit(ctx, form) },
	})
	return err
}

// onlyCategoryRule reports whether every required field is present and the
// category rule alone failed.
func onlyCategoryRule(err error) bool {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return false
	}
	for _, fe := range fieldErrs {
		if fe.Tag() != "category" {
			return false
		}
	}
	return true
}

// Reason is the user-facing explanation of a failed submit.
func Reason(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return FallbackReason
}
