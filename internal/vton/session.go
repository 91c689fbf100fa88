package vton

import "vton/internal/domain"

// Stage is the current surface of the try-on flow. An error is not a
// stage of its own: it rides on Upload or Result as ErrorMessage and must
// be dismissed explicitly.
type Stage string

const (
	StageIdle       Stage = "IDLE"
	StageUpload     Stage = "UPLOAD"
	StageProcessing Stage = "PROCESSING"
	StageResult     Stage = "RESULT"
)

// Session is the state owned by one try-on machine. Snapshots of it are
// the read-only projection handed to the UI layer.
type Session struct {
	IsOpen       bool             `json:"is_open"`
	Stage        Stage            `json:"stage"`
	Garments     []domain.Garment `json:"garments"`
	SubjectImage string           `json:"subject_image,omitempty"`
	ResultImage  string           `json:"result_image,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`

	// Gallery mode: a fixed ordered image sequence browsed read-only.
	GalleryImages      []string `json:"gallery_images,omitempty"`
	ActiveGalleryIndex int      `json:"active_gallery_index"`
}

func emptySession() Session {
	return Session{Stage: StageIdle}
}

func (s Session) clone() Session {
	out := s
	out.Garments = append([]domain.Garment(nil), s.Garments...)
	out.GalleryImages = append([]string(nil), s.GalleryImages...)
	return out
}
