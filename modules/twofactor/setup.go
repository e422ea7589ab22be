package twofactor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/settlex/settlex/handler"
	"github.com/settlex/settlex/pkg/audit"
	"github.com/settlex/settlex/pkg/device"
	"github.com/settlex/settlex/pkg/logger"
	"github.com/settlex/settlex/pkg/metrics"
	"github.com/settlex/settlex/pkg/provision"
	"github.com/settlex/settlex/pkg/ratelimiter"
	"github.com/settlex/settlex/pkg/session"
	"github.com/settlex/settlex/pkg/urls"
	"github.com/settlex/settlex/pkg/wizard"
	"github.com/settlex/settlex/svc/auth"
)

// SetupService serves the two-factor setup wizard.
type SetupService struct {
	cfg          Config
	devices      *device.Service
	sessions     *session.Manager
	resolver     urls.Resolver
	storage      *wizard.Storage
	machine      *wizard.Machine
	steps        map[wizard.Step]wizard.StepHandler
	views        Views
	metrics      *metrics.Metrics
	limiter      *ratelimiter.Limiter
	auditor      auditor
	errorHandler handler.ErrorHandler
	logger       *slog.Logger
}

// SetupOption configures a SetupService.
type SetupOption func(*SetupService)

// WithViews replaces the built-in step page. A nil StepPage is ignored.
func WithViews(v Views) SetupOption {
	return func(s *SetupService) {
		if v.StepPage != nil {
			s.views = v
		}
	}
}

func WithMetrics(m *metrics.Metrics) SetupOption {
	return func(s *SetupService) {
		s.metrics = m
	}
}

// WithLimiter throttles token guesses per user.
func WithLimiter(l *ratelimiter.Limiter) SetupOption {
	return func(s *SetupService) {
		s.limiter = l
	}
}

// WithAudit records device creation, token checks and enrollment.
func WithAudit(l audit.Logger) SetupOption {
	return func(s *SetupService) {
		s.auditor.trail = l
	}
}

func WithErrorHandler(h handler.ErrorHandler) SetupOption {
	return func(s *SetupService) {
		s.errorHandler = h
	}
}

func WithLogger(log *slog.Logger) SetupOption {
	return func(s *SetupService) {
		if log != nil {
			s.logger = log
		}
	}
}

// NewSetupService creates the wizard. The limiter, audit trail and metrics
// are optional.
func NewSetupService(cfg Config, devices *device.Service, sessions *session.Manager, resolver urls.Resolver, opts ...SetupOption) *SetupService {
	s := &SetupService{
		cfg:      cfg,
		devices:  devices,
		sessions: sessions,
		resolver: resolver,
		storage:  wizard.NewStorage(RouteSetup),
		machine:  wizard.NewMachine(),
		views:    DefaultViews(),
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("twofactor.setup"))
	s.auditor.logger = s.logger

	encoder := provision.NewEncoder(cfg.Issuer)
	if cfg.QRSize > 0 {
		encoder.QRSize = cfg.QRSize
	}
	s.steps = map[wizard.Step]wizard.StepHandler{
		wizard.StepWelcome:    welcomeStep{},
		wizard.StepGenerator:  generatorStep{devices: devices, encoder: encoder, auditor: s.auditor, logger: s.logger},
		wizard.StepValidation: validationStep{devices: devices, limiter: s.limiter, metrics: s.metrics, auditor: s.auditor, logger: s.logger},
	}
	return s
}

// Handle serves the wizard at the mount root for GET and POST.
func (s *SetupService) Handle() http.Handler {
	r := chi.NewRouter()
	h := handler.Wrap(s.setup, handler.WithErrorHandler[struct{}](s.errorHandler))
	r.Get("/", h)
	r.Post("/", h)
	return r
}

// setup answers both the entry GET and the step POSTs.
func (s *SetupService) setup(ctx handler.Context, _ struct{}) handler.Response {
	r := ctx.Request()
	user := auth.GetUserFromContext(r.Context())
	sess, ok := session.FromContext(r.Context())
	if user == nil || !ok {
		return redirectToLogin(s.resolver, r)
	}

	if user.Privileged() {
		return handler.Redirect(s.cfg.AdminURL)
	}

	enrolled, err := s.hasDefaultDevice(r.Context(), user.ID)
	if err != nil {
		return handler.Fail(err)
	}
	if enrolled {
		return handler.Redirect(s.cfg.LandingURL)
	}

	if r.Method != http.MethodPost {
		s.storage.Reset(sess)
		return s.render(r.Context(), sess, user, wizard.NewState(), nil)
	}
	return s.submit(r, sess, user)
}

func (s *SetupService) submit(r *http.Request, sess *session.Session, user *auth.User) handler.Response {
	ctx := r.Context()
	state := s.storage.Load(sess)

	if err := r.ParseForm(); err != nil {
		return handler.Fail(handler.ErrBadRequest)
	}
	form := r.PostForm

	step, err := wizard.ParseStep(form.Get(wizard.CurrentStepField))
	if err != nil || step != state.Current {
		s.logger.InfoContext(ctx, "stale wizard submission",
			logger.UserID(user.ID),
			logger.Step(form.Get(wizard.CurrentStepField)),
		)
		return s.render(ctx, sess, user, state, wizard.NewValidationError("", msgStaleForm))
	}

	stepHandler, ok := s.steps[step]
	if !ok {
		return s.render(ctx, sess, user, wizard.NewState(), nil)
	}

	d, err := s.boundDevice(ctx, state, user)
	if err != nil {
		s.metrics.WizardStep(step.String(), metrics.ResultError)
		return handler.Fail(err)
	}
	data, err := stepHandler.Submit(ctx, state, d, form)
	if err != nil {
		var verr *wizard.ValidationError
		if errors.As(err, &verr) {
			s.metrics.WizardStep(step.String(), metrics.ResultInvalid)
			return s.render(ctx, sess, user, state, verr)
		}
		s.metrics.WizardStep(step.String(), metrics.ResultError)
		return handler.Fail(err)
	}

	next, err := s.machine.Advance(ctx, state, step, data)
	if err != nil {
		if errors.Is(err, wizard.ErrStepIncomplete) {
			state.Current = firstIncomplete(state)
			return s.render(ctx, sess, user, state, wizard.NewValidationError("", msgIncomplete))
		}
		return handler.Fail(err)
	}
	s.metrics.WizardStep(step.String(), metrics.ResultAdvanced)

	if next == wizard.StepDone {
		return s.done(ctx, sess, user, state)
	}
	return s.render(ctx, sess, user, state, nil)
}

// done confirms the validated device, marks the session verified and ends
// the run.
func (s *SetupService) done(ctx context.Context, sess *session.Session, user *auth.User, state *wizard.State) handler.Response {
	data, _ := state.StepData(wizard.StepValidation)
	id, err := uuid.Parse(data[dataDeviceID])
	if err != nil {
		return s.restartValidation(ctx, sess, user, state)
	}
	d, err := s.devices.Get(ctx, id, user.ID)
	if errors.Is(err, device.ErrNotFound) {
		return s.restartValidation(ctx, sess, user, state)
	}
	if err != nil {
		return handler.Fail(err)
	}

	confirmed, err := s.devices.Confirm(ctx, d)
	if err != nil {
		return handler.Fail(err)
	}

	s.storage.Reset(sess)
	if err := s.sessions.Verify(ctx, sess, confirmed.ID); err != nil {
		return handler.Fail(err)
	}

	s.metrics.Enrolled()
	s.auditor.record(ctx, audit.ActionDeviceEnrolled, audit.ResultSuccess, user.ID, confirmed.ID)
	s.logger.InfoContext(ctx, "two-factor setup completed",
		logger.UserID(user.ID),
		logger.DeviceID(confirmed.ID),
		logger.Event("twofactor.enrolled"),
	)
	return handler.Redirect(s.cfg.LandingURL)
}

// render prepares step state.Current, persists the state and returns the page.
func (s *SetupService) render(ctx context.Context, sess *session.Session, user *auth.User, state *wizard.State, verr *wizard.ValidationError) handler.Response {
	stepHandler, ok := s.steps[state.Current]
	if !ok {
		state = wizard.NewState()
		stepHandler = s.steps[state.Current]
	}

	d, err := s.boundDevice(ctx, state, user)
	if err != nil {
		return handler.Fail(err)
	}
	view, err := stepHandler.Prepare(ctx, state, d)
	if err != nil {
		return handler.Fail(err)
	}
	view.Errors = verr

	s.storage.Save(sess, state)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return handler.Fail(err)
	}

	return handler.Templ(s.views.StepPage(newStepPageParams(view)))
}

// boundDevice loads the device recorded in state. A missing or foreign
// device yields nil; any other lookup failure is returned so the step is
// not re-run against a fresh device.
func (s *SetupService) boundDevice(ctx context.Context, state *wizard.State, user *auth.User) (*device.Device, error) {
	id, ok := state.DeviceID()
	if !ok {
		return nil, nil
	}
	d, err := s.devices.Get(ctx, id, user.ID)
	switch {
	case errors.Is(err, device.ErrNotFound):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "failed to load wizard device",
			logger.UserID(user.ID),
			logger.DeviceID(id),
			logger.Error(err),
		)
		return nil, err
	}
	return d, nil
}

func (s *SetupService) hasDefaultDevice(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, err := s.devices.DefaultDevice(ctx, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, device.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func redirectToLogin(resolver urls.Resolver, r *http.Request) handler.Response {
	login, err := resolver.Reverse("login")
	if err != nil {
		return handler.Fail(handler.ErrUnauthorized)
	}
	return handler.RedirectWithCode(login+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
}

// resolve reverses name, falling back to path when it is not registered.
func resolve(resolver urls.Resolver, name, path string) string {
	p, err := resolver.Reverse(name)
	if err != nil {
		return path
	}
	return p
}

func firstIncomplete(state *wizard.State) wizard.Step {
	for _, step := range wizard.Steps() {
		if !state.Validated(step) {
			return step
		}
	}
	return wizard.StepWelcome
}

// restartValidation drops the validation result and asks for a new token.
func (s *SetupService) restartValidation(ctx context.Context, sess *session.Session, user *auth.User, state *wizard.State) handler.Response {
	delete(state.Data, wizard.StepValidation)
	state.Current = wizard.StepValidation
	return s.render(ctx, sess, user, state, wizard.NewValidationError("", msgDeviceMissing))
}
