package form

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prasetyowira/qrtag/constant"
	"github.com/prasetyowira/qrtag/domain/export"
	"github.com/prasetyowira/qrtag/domain/symbol"
	"github.com/prasetyowira/qrtag/domain/tagger"
	"github.com/prasetyowira/qrtag/infrastructure/cache"
	"github.com/prasetyowira/qrtag/infrastructure/logger"
)

// Settings tune the form service
type Settings struct {
	// Delay before a requested generation completes.
	Delay time.Duration
	// Margin includes the quiet zone around rendered symbols.
	Margin bool
}

// Service represents the domain service driving form sessions
type Service struct {
	repo     Repository
	cache    *cache.NamespaceLRU
	renderer symbol.Renderer
	tagger   *tagger.Tagger
	settings Settings

	newID    func() string
	now      func() time.Time
	inflight sync.WaitGroup

	// serializes cache lookups with pinning, so eviction never races a
	// session being handed out and each id has one live object
	residency sync.Mutex
}

// NewService creates a new form service
func NewService(repo Repository, lru *cache.NamespaceLRU, renderer symbol.Renderer, tg *tagger.Tagger, settings Settings) *Service {
	ctx := logger.NewRequestContext()

	logger.CtxDebug(ctx, "Creating form service", logger.LoggerInfo{
		ContextFunction: constant.CtxDomain,
		Data: map[string]interface{}{
			constant.DataService: "form",
			constant.DataDelay:   settings.Delay.String(),
		},
	})

	if tg == nil {
		tg = tagger.New(nil, nil)
	}

	return &Service{
		repo:     repo,
		cache:    lru,
		renderer: renderer,
		tagger:   tg,
		settings: settings,
		newID:    func() string { return uuid.New().String() },
		now:      time.Now,
	}
}

// CreateSession starts a new form session in the Idle state
func (s *Service) CreateSession(ctx context.Context) (*View, error) {
	now := s.now()
	snap := Snapshot{
		ID:        s.newID(),
		Counter:   1,
		Format:    symbol.FormatRaster,
		Color:     DefaultColor,
		Size:      DefaultSize,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.SaveSession(ctx, &snap); err != nil {
		logger.CtxError(ctx, "Failed to store session", logger.LoggerInfo{
			ContextFunction: constant.CtxCreateSession,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeStorageFailure,
				Message: err.Error(),
				Type:    constant.ErrTypeStorage,
			},
		})
		return nil, err
	}

	sess := newSession(snap)
	s.residency.Lock()
	s.cache.Set(constant.SessionNamespace, snap.ID, sess)
	s.residency.Unlock()

	logger.CtxInfo(ctx, "Session created", logger.LoggerInfo{
		ContextFunction: constant.CtxCreateSession,
		Data: map[string]interface{}{
			constant.DataSessionID: snap.ID,
		},
	})

	v := sess.view()
	return &v, nil
}

// GetSession returns the current view of a session
func (s *Service) GetSession(ctx context.Context, id string) (*View, error) {
	sess, err := s.load(ctx, id, constant.CtxGetSession)
	if err != nil {
		return nil, err
	}
	defer s.release(sess)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.deleted {
		return nil, ErrSessionNotFound
	}
	v := sess.view()
	return &v, nil
}

// DeleteSession drops the session, its history and any pending generation
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	sess, err := s.load(ctx, id, constant.CtxDeleteSession)
	if err != nil {
		return err
	}
	defer s.release(sess)

	sess.mu.Lock()
	sess.deleted = true
	sess.generation++
	if sess.timer != nil {
		sess.timer.Stop()
	}
	if sess.resolve(true) != nil {
		s.inflight.Done()
	}
	sess.mu.Unlock()

	s.cache.Invalidate(constant.SessionNamespace, id)

	if err := s.repo.DeleteSession(ctx, id); err != nil {
		logger.CtxError(ctx, "Failed to delete session", logger.LoggerInfo{
			ContextFunction: constant.CtxDeleteSession,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeStorageFailure,
				Message: err.Error(),
				Type:    constant.ErrTypeStorage,
			},
			Data: map[string]interface{}{
				constant.DataSessionID: id,
			},
		})
		return err
	}

	logger.CtxInfo(ctx, "Session deleted", logger.LoggerInfo{
		ContextFunction: constant.CtxDeleteSession,
		Data: map[string]interface{}{
			constant.DataSessionID: id,
		},
	})
	return nil
}

// SetInput replaces the raw URL typed into the form. Changing the input
// while a generation is pending abandons that generation.
func (s *Service) SetInput(ctx context.Context, id, input string) (*View, error) {
	return s.update(ctx, id, constant.CtxSetInput, func(sess *session) bool {
		if sess.snap.Input == input {
			return false
		}
		sess.snap.Input = input
		if sess.state == StateGenerating {
			s.abandon(ctx, sess, constant.CtxSetInput)
		}
		return true
	})
}

// SetFormat selects the export format
func (s *Service) SetFormat(ctx context.Context, id string, format symbol.Format) (*View, error) {
	if !format.Valid() {
		logger.CtxWarn(ctx, "Unknown export format", logger.LoggerInfo{
			ContextFunction: constant.CtxSetFormat,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeUnknownFormat,
				Message: constant.ErrUnknownFormat,
				Type:    constant.ErrTypeValidation,
			},
			Data: map[string]interface{}{
				constant.DataFormat: string(format),
			},
		})
		return nil, symbol.ErrUnknownFormat
	}

	return s.update(ctx, id, constant.CtxSetFormat, func(sess *session) bool {
		if sess.snap.Format == format {
			return false
		}
		sess.snap.Format = format
		return true
	})
}

// SetColor applies a color edit. Values not matching the partial hex pattern
// are ignored, as are commits of incomplete colors; accepted reports which
// happened. Uncommitted edits only change the draft.
func (s *Service) SetColor(ctx context.Context, id, value string, commit bool) (accepted bool, view *View, err error) {
	accepted = MatchPartialHex(value) && (!commit || MatchHex(value))
	if !accepted {
		logger.CtxDebug(ctx, "Color edit ignored", logger.LoggerInfo{
			ContextFunction: constant.CtxSetColor,
			Data: map[string]interface{}{
				constant.DataSessionID: id,
				constant.DataColor:     value,
				constant.DataCommit:    commit,
			},
		})
		view, err = s.GetSession(ctx, id)
		return false, view, err
	}

	view, err = s.update(ctx, id, constant.CtxSetColor, func(sess *session) bool {
		sess.colorDraft = value
		if !commit || sess.snap.Color == value {
			return false
		}
		sess.snap.Color = value
		s.rerender(ctx, sess)
		return true
	})
	return err == nil, view, err
}

// SetViewport recomputes the symbol size for a viewport width
func (s *Service) SetViewport(ctx context.Context, id string, width int) (*View, error) {
	size := SizeForViewport(width)
	return s.update(ctx, id, constant.CtxSetViewport, func(sess *session) bool {
		if sess.snap.Size == size {
			return false
		}
		sess.snap.Size = size
		s.rerender(ctx, sess)
		return true
	})
}

// Generate schedules tagging and rendering of the current input. It returns
// nil when the input is empty and ErrGenerationInProgress while another
// generation is pending.
func (s *Service) Generate(ctx context.Context, id string) (*Pending, error) {
	sess, err := s.load(ctx, id, constant.CtxGenerate)
	if err != nil {
		return nil, err
	}
	defer s.release(sess)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.deleted {
		return nil, ErrSessionNotFound
	}

	if sess.state == StateGenerating {
		logger.CtxWarn(ctx, "Generation already in progress", logger.LoggerInfo{
			ContextFunction: constant.CtxGenerate,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeGenerationBusy,
				Message: constant.ErrGenerationInProgress,
				Type:    constant.ErrTypeGeneration,
			},
			Data: map[string]interface{}{
				constant.DataSessionID:  id,
				constant.DataGeneration: sess.generation,
			},
		})
		return nil, ErrGenerationInProgress
	}

	if sess.snap.Input == "" {
		logger.CtxDebug(ctx, "Empty input, nothing to generate", logger.LoggerInfo{
			ContextFunction: constant.CtxGenerate,
			Data: map[string]interface{}{
				constant.DataSessionID: id,
			},
		})
		return nil, nil
	}

	sess.prevState = sess.state
	sess.state = StateGenerating
	sess.generation++
	gen := sess.generation
	p := &Pending{Generation: gen, done: make(chan struct{})}
	sess.pending = p
	sess.pins.Add(1)

	// the request context ends with the request; keep only its ID
	bg := logger.WithRequestID(context.Background(), logger.RequestID(ctx))
	s.inflight.Add(1)
	sess.timer = time.AfterFunc(s.settings.Delay, func() {
		s.complete(bg, sess, gen)
	})

	logger.CtxInfo(ctx, "Generation scheduled", logger.LoggerInfo{
		ContextFunction: constant.CtxGenerate,
		Data: map[string]interface{}{
			constant.DataSessionID:  id,
			constant.DataGeneration: gen,
			constant.DataDelay:      s.settings.Delay.String(),
		},
	})

	return p, nil
}

// complete runs when the generation delay elapses
func (s *Service) complete(ctx context.Context, sess *session, gen uint64) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.deleted || sess.generation != gen || sess.pending == nil {
		logger.CtxDebug(ctx, "Stale generation dropped", logger.LoggerInfo{
			ContextFunction: constant.CtxComplete,
			Data: map[string]interface{}{
				constant.DataSessionID:  sess.snap.ID,
				constant.DataGeneration: gen,
			},
		})
		return
	}
	defer s.inflight.Done()

	tagged, next := s.tagger.Tag(sess.snap.Input, sess.snap.Counter)
	sess.snap.Counter = next
	sess.snap.UpdatedAt = s.now()

	sym, err := s.renderer.Render(tagged, s.renderOptions(sess.snap))
	if err != nil {
		logger.CtxError(ctx, "Failed to render symbol", logger.LoggerInfo{
			ContextFunction: constant.CtxComplete,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeRenderFailure,
				Message: err.Error(),
				Type:    constant.ErrTypeGeneration,
			},
			Data: map[string]interface{}{
				constant.DataSessionID: sess.snap.ID,
				constant.DataTaggedURL: tagged,
			},
		})
		// the counter value is spent even though nothing was shown
		sess.state = sess.prevState
		s.persist(ctx, sess, constant.CtxComplete)
		sess.resolve(true)
		return
	}

	sess.snap.TaggedURL = tagged
	sess.sym = sym
	sess.state = StateReady
	s.persist(ctx, sess, constant.CtxComplete)

	record := Generation{
		SessionID: sess.snap.ID,
		Sequence:  next - 1,
		Reference: export.ReferenceFromURL(tagged),
		TaggedURL: tagged,
		Format:    sess.snap.Format,
		CreatedAt: sess.snap.UpdatedAt,
	}
	if err := s.repo.AppendGeneration(ctx, &record); err != nil {
		logger.CtxWarn(ctx, "Failed to record generation", logger.LoggerInfo{
			ContextFunction: constant.CtxComplete,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeHistoryFailure,
				Message: err.Error(),
				Type:    constant.ErrTypeStorage,
			},
			Data: map[string]interface{}{
				constant.DataSessionID: sess.snap.ID,
			},
		})
	}

	sess.resolve(false)

	logger.CtxInfo(ctx, "Generation completed", logger.LoggerInfo{
		ContextFunction: constant.CtxComplete,
		Data: map[string]interface{}{
			constant.DataSessionID:  sess.snap.ID,
			constant.DataGeneration: gen,
			constant.DataReference:  record.Reference,
			constant.DataCounter:    next,
		},
	})
}

// Symbol returns the symbol currently displayed, or nil before the first
// generation.
func (s *Service) Symbol(ctx context.Context, id string) (symbol.Symbol, *View, error) {
	sess, err := s.load(ctx, id, constant.CtxSymbol)
	if err != nil {
		return nil, nil, err
	}
	defer s.release(sess)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.deleted {
		return nil, nil, ErrSessionNotFound
	}
	v := sess.view()
	return sess.sym, &v, nil
}

// Export serializes the displayed symbol. An empty format uses the session's
// selection. Nothing generated yet yields a nil file and no error.
func (s *Service) Export(ctx context.Context, id string, format symbol.Format) (*export.File, error) {
	sym, view, err := s.Symbol(ctx, id)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = view.Format
	}

	if sym == nil {
		logger.CtxDebug(ctx, "Nothing to export", logger.LoggerInfo{
			ContextFunction: constant.CtxExport,
			Data: map[string]interface{}{
				constant.DataSessionID: id,
			},
		})
		return nil, nil
	}

	file, err := export.Export(sym, format, view.TaggedURL)
	if err != nil {
		logger.CtxError(ctx, "Failed to export symbol", logger.LoggerInfo{
			ContextFunction: constant.CtxExport,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeExportFailure,
				Message: err.Error(),
				Type:    constant.ErrTypeExport,
			},
			Data: map[string]interface{}{
				constant.DataSessionID: id,
				constant.DataFormat:    string(format),
			},
		})
		return nil, err
	}

	logger.CtxInfo(ctx, "Symbol exported", logger.LoggerInfo{
		ContextFunction: constant.CtxExport,
		Data: map[string]interface{}{
			constant.DataSessionID: id,
			constant.DataFilename:  file.Name,
			constant.DataBytes:     len(file.Data),
		},
	})
	return file, nil
}

// History lists the generations completed in this session, oldest first
func (s *Service) History(ctx context.Context, id string) ([]Generation, error) {
	if _, err := s.GetSession(ctx, id); err != nil {
		return nil, err
	}

	gens, err := s.repo.ListGenerations(ctx, id)
	if err != nil {
		logger.CtxError(ctx, "Failed to list generations", logger.LoggerInfo{
			ContextFunction: constant.CtxHistory,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeHistoryFailure,
				Message: err.Error(),
				Type:    constant.ErrTypeStorage,
			},
			Data: map[string]interface{}{
				constant.DataSessionID: id,
			},
		})
		return nil, err
	}
	return gens, nil
}

// Drain waits for scheduled generations to settle or ctx to end
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// load fetches a live session, restoring it from the repository on a miss.
// The session comes back pinned; callers release it when done.
func (s *Service) load(ctx context.Context, id, function string) (*session, error) {
	if id == "" {
		logger.CtxWarn(ctx, "Session id cannot be empty", logger.LoggerInfo{
			ContextFunction: function,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeEmptySessionID,
				Message: constant.ErrEmptySessionID,
				Type:    constant.ErrTypeValidation,
			},
		})
		return nil, ErrEmptySessionID
	}

	s.residency.Lock()
	val, err := s.cache.GetOrLoad(constant.SessionNamespace, id, func() (interface{}, error) {
		snap, err := s.repo.FindSession(ctx, id)
		if err != nil {
			return nil, err
		}
		sess := newSession(*snap)
		s.rerender(ctx, sess)
		logger.CtxDebug(ctx, "Session restored from storage", logger.LoggerInfo{
			ContextFunction: function,
			Data: map[string]interface{}{
				constant.DataSessionID: id,
				constant.DataState:     string(sess.state),
			},
		})
		return sess, nil
	})
	if err == nil {
		val.(*session).pins.Add(1)
	}
	s.residency.Unlock()
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			logger.CtxInfo(ctx, "Session not found", logger.LoggerInfo{
				ContextFunction: function,
				Data: map[string]interface{}{
					constant.DataSessionID: id,
				},
			})
			return nil, ErrSessionNotFound
		}
		logger.CtxError(ctx, "Failed to load session", logger.LoggerInfo{
			ContextFunction: function,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeSessionNotFound,
				Message: err.Error(),
				Type:    constant.ErrTypeRetrieval,
			},
			Data: map[string]interface{}{
				constant.DataSessionID: id,
			},
		})
		return nil, err
	}

	return val.(*session), nil
}

// release drops the pin taken by load
func (s *Service) release(sess *session) {
	sess.pins.Add(-1)
}

// update applies fn under the session lock and persists when fn reports a change
func (s *Service) update(ctx context.Context, id, function string, fn func(sess *session) bool) (*View, error) {
	sess, err := s.load(ctx, id, function)
	if err != nil {
		return nil, err
	}
	defer s.release(sess)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.deleted {
		return nil, ErrSessionNotFound
	}

	if fn(sess) {
		sess.snap.UpdatedAt = s.now()
		if err := s.persist(ctx, sess, function); err != nil {
			return nil, err
		}
	}

	logger.CtxDebug(ctx, "Session updated", logger.LoggerInfo{
		ContextFunction: function,
		Data: map[string]interface{}{
			constant.DataSessionID: id,
			constant.DataState:     string(sess.state),
		},
	})

	v := sess.view()
	return &v, nil
}

// abandon drops the pending generation. Callers hold sess.mu.
func (s *Service) abandon(ctx context.Context, sess *session, function string) {
	if sess.pending == nil {
		return
	}
	gen := sess.pending.Generation
	sess.timer.Stop()
	sess.generation++
	sess.state = sess.prevState
	sess.resolve(true)
	s.inflight.Done()

	logger.CtxInfo(ctx, "Pending generation abandoned", logger.LoggerInfo{
		ContextFunction: function,
		Error: &logger.CustomError{
			Code:    constant.ErrCodeGenerationAbandoned,
			Message: "input changed during generation",
			Type:    constant.ErrTypeGeneration,
		},
		Data: map[string]interface{}{
			constant.DataSessionID:  sess.snap.ID,
			constant.DataGeneration: gen,
		},
	})
}

// persist stores the session snapshot. Callers hold sess.mu.
func (s *Service) persist(ctx context.Context, sess *session, function string) error {
	snap := sess.snap
	if err := s.repo.SaveSession(ctx, &snap); err != nil {
		logger.CtxError(ctx, "Failed to store session", logger.LoggerInfo{
			ContextFunction: function,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeStorageFailure,
				Message: err.Error(),
				Type:    constant.ErrTypeStorage,
			},
			Data: map[string]interface{}{
				constant.DataSessionID: snap.ID,
			},
		})
		return err
	}
	return nil
}

// rerender refreshes the displayed symbol after a presentation change.
// Callers hold sess.mu.
func (s *Service) rerender(ctx context.Context, sess *session) {
	if sess.snap.TaggedURL == "" {
		return
	}
	sym, err := s.renderer.Render(sess.snap.TaggedURL, s.renderOptions(sess.snap))
	if err != nil {
		logger.CtxWarn(ctx, "Failed to re-render symbol", logger.LoggerInfo{
			ContextFunction: constant.CtxSymbol,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeRenderFailure,
				Message: err.Error(),
				Type:    constant.ErrTypeGeneration,
			},
			Data: map[string]interface{}{
				constant.DataSessionID: sess.snap.ID,
			},
		})
		return
	}
	sess.sym = sym
}

func (s *Service) renderOptions(snap Snapshot) symbol.Options {
	fg, err := ParseHex(snap.Color)
	if err != nil {
		fg, _ = ParseHex(DefaultColor)
	}
	return symbol.Options{
		Size:       snap.Size,
		Foreground: fg,
		Background: color.White,
		Margin:     s.settings.Margin,
	}
}
