package vton

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"vton/internal/domain"
)

// Generator performs one try-on round trip against the backend.
type Generator interface {
	Submit(ctx context.Context, subjectImage string, garments []GarmentInput) (string, error)
}

// ImageEncoder turns a catalog image URL into transport form.
type ImageEncoder interface {
	EncodeFromURL(ctx context.Context, url string) (string, error)
}

// Direction moves the gallery cursor.
type Direction string

const (
	DirectionNext Direction = "next"
	DirectionPrev Direction = "prev"
)

const (
	defaultCloseDelay     = 300 * time.Millisecond
	defaultAutoStartDelay = 500 * time.Millisecond
)

// MachineOptions wires one machine's collaborators. Generator and Encoder
// are required; zero delays fall back to the storefront defaults.
type MachineOptions struct {
	Generator      Generator
	Encoder        ImageEncoder
	Logger         zerolog.Logger
	CloseDelay     time.Duration
	AutoStartDelay time.Duration
}

// Machine owns one TryOnSession and mediates every transition. All
// mutations happen under its lock; the only asynchronous work is the
// generation round trip, whose resolution is applied through an epoch
// check so a result arriving after a close, retry, or reopen is discarded
// instead of resurrecting stale state.
type Machine struct {
	mu      sync.Mutex
	session Session
	// epoch advances on every superseding transition; in-flight work
	// captures the epoch at launch and applies only when it still matches.
	epoch uint64

	gen            Generator
	enc            ImageEncoder
	logger         zerolog.Logger
	closeDelay     time.Duration
	autoStartDelay time.Duration
}

func NewMachine(opts MachineOptions) *Machine {
	closeDelay := opts.CloseDelay
	if closeDelay <= 0 {
		closeDelay = defaultCloseDelay
	}
	autoStartDelay := opts.AutoStartDelay
	if autoStartDelay <= 0 {
		autoStartDelay = defaultAutoStartDelay
	}
	return &Machine{
		session:        emptySession(),
		gen:            opts.Generator,
		enc:            opts.Encoder,
		logger:         opts.Logger,
		closeDelay:     closeDelay,
		autoStartDelay: autoStartDelay,
	}
}

// Snapshot returns a read-only copy of the current session.
func (m *Machine) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.clone()
}

// OpenTryOn starts a fresh try-on for the supplied garments, clearing any
// prior subject image, result, error, and gallery state.
func (m *Machine) OpenTryOn(garments []domain.Garment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.session = Session{
		IsOpen:   true,
		Stage:    StageUpload,
		Garments: append([]domain.Garment(nil), garments...),
	}
}

// OpenGallery opens a read-only compare/zoom view over a fixed image
// sequence. No garments are involved; subject and result both point at the
// active image (single-image view, not before/after compare).
func (m *Machine) OpenGallery(images []string, initialIndex int) error {
	if len(images) == 0 {
		return fmt.Errorf("%w: gallery requires at least one image", domain.ErrInvalidInput)
	}
	if initialIndex < 0 {
		initialIndex = 0
	}
	if initialIndex >= len(images) {
		initialIndex = len(images) - 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.session = Session{
		IsOpen:             true,
		Stage:              StageResult,
		SubjectImage:       images[initialIndex],
		ResultImage:        images[initialIndex],
		GalleryImages:      append([]string(nil), images...),
		ActiveGalleryIndex: initialIndex,
	}
	return nil
}

// OpenProcessing is the landing-page shortcut: the session opens directly
// into Processing and, when a subject image is already present with no
// result, arms a debounced one-shot auto-start so the processing surface
// can mount before the network call fires.
func (m *Machine) OpenProcessing(garments []domain.Garment, subjectImage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++

	if subjectImage == "" || len(garments) == 0 {
		// Not eligible for processing yet; open onto the upload surface.
		m.session = Session{
			IsOpen:       true,
			Stage:        StageUpload,
			Garments:     append([]domain.Garment(nil), garments...),
			SubjectImage: subjectImage,
		}
		return
	}

	m.session = Session{
		IsOpen:       true,
		Stage:        StageProcessing,
		Garments:     append([]domain.Garment(nil), garments...),
		SubjectImage: subjectImage,
	}

	epoch := m.epoch
	time.AfterFunc(m.autoStartDelay, func() { m.autoStart(epoch) })
}

func (m *Machine) autoStart(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// The captured epoch ties the trigger to the open that armed it: any
	// later transition supersedes it, and it can never refire after a
	// failure because the timer runs once.
	if m.epoch != epoch {
		return
	}
	if m.session.Stage != StageProcessing || m.session.SubjectImage == "" ||
		m.session.ResultImage != "" || len(m.session.Garments) == 0 {
		return
	}
	m.launchLocked(context.Background())
}

// SetSubjectImage stores the encoded subject image without advancing the
// stage.
func (m *Machine) SetSubjectImage(image string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.SubjectImage = image
}

// StartGeneration kicks off the asynchronous round trip. With zero
// garments it is a no-op: no stage change and no network call. A missing
// subject image is an input error because Processing requires one.
func (m *Machine) StartGeneration(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.session.Garments) == 0 {
		return nil
	}
	if m.session.SubjectImage == "" {
		return fmt.Errorf("%w: subject image required", domain.ErrInvalidInput)
	}

	// The round trip outlives the triggering request; only close, retry,
	// or reopen supersede it, via the epoch.
	m.launchLocked(context.WithoutCancel(ctx))
	return nil
}

func (m *Machine) launchLocked(ctx context.Context) {
	m.session.ErrorMessage = ""
	m.session.Stage = StageProcessing
	m.epoch++

	epoch := m.epoch
	subject := m.session.SubjectImage
	garments := append([]domain.Garment(nil), m.session.Garments...)
	go m.run(ctx, epoch, subject, garments)
}

func (m *Machine) run(ctx context.Context, epoch uint64, subject string, garments []domain.Garment) {
	inputs := make([]GarmentInput, len(garments))
	g, gctx := errgroup.WithContext(ctx)
	for i, garment := range garments {
		i, garment := i, garment
		g.Go(func() error {
			encoded, err := m.enc.EncodeFromURL(gctx, garment.Image)
			if err != nil {
				return err
			}
			if encoded == "" {
				return fmt.Errorf("%w: empty encode for garment %s", domain.ErrCodec, garment.ID)
			}
			inputs[i] = GarmentInput{
				Image:       encoded,
				Description: garment.Description,
				Category:    garment.Category,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.finish(epoch, "", err)
		return
	}

	result, err := m.gen.Submit(ctx, subject, inputs)
	m.finish(epoch, result, err)
}

func (m *Machine) finish(epoch uint64, result string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.epoch {
		m.logger.Debug().Uint64("epoch", epoch).Msg("vton: discarding stale generation resolution")
		return
	}

	if err != nil {
		m.logger.Warn().Err(err).Msg("vton: generation failed")
		m.session.ErrorMessage = userMessage(err)
		m.session.Stage = StageUpload
		return
	}

	m.session.ResultImage = result
	m.session.Stage = StageResult
}

// NavigateGallery moves the cursor with wraparound and repoints both the
// subject and result references at the active image. Galleries of zero or
// one image are a no-op.
func (m *Machine) NavigateGallery(dir Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.session.GalleryImages)
	if n <= 1 {
		return
	}

	idx := m.session.ActiveGalleryIndex
	switch dir {
	case DirectionNext:
		idx = (idx + 1) % n
	case DirectionPrev:
		idx = (idx - 1 + n) % n
	default:
		return
	}

	m.session.ActiveGalleryIndex = idx
	m.session.SubjectImage = m.session.GalleryImages[idx]
	m.session.ResultImage = m.session.GalleryImages[idx]
}

// Retry returns the shopper to the upload surface so they can try another
// photo. Subject and result stay visible until replaced.
func (m *Machine) Retry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.session.Stage = StageUpload
}

// Close marks the session not-visible immediately and resets all fields
// after the close delay, so state does not vanish mid exit animation. A
// reopen during the window cancels the pending reset.
func (m *Machine) Close() {
	m.mu.Lock()
	m.epoch++
	epoch := m.epoch
	m.session.IsOpen = false
	delay := m.closeDelay
	m.mu.Unlock()

	time.AfterFunc(delay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.epoch != epoch {
			return
		}
		m.session = emptySession()
	})
}

// DismissError clears the error banner only; stage, garments, and images
// are untouched so the shopper can correct and resubmit.
func (m *Machine) DismissError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.ErrorMessage = ""
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrSafetyBlocked):
		return "Blocked by safety filters. Try a different photo."
	case errors.Is(err, domain.ErrCodec):
		return "Could not prepare the garment images. Please try again."
	case errors.Is(err, domain.ErrGeneration):
		return err.Error()
	default:
		return "Failed to generate virtual try-on. Please try again."
	}
}
