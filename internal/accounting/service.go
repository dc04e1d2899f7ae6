package accounting

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
)

var (
	// ErrDuplicateCode indicates a segment code or city name collision.
	ErrDuplicateCode = errors.New("accounting: duplicate code")
	// ErrDuplicateDeclaration indicates a declaration already exists for the
	// period, city and segment.
	ErrDuplicateDeclaration = errors.New("accounting: declaration already exists for period")
	// ErrSegmentInUse indicates declarations still reference the segment.
	ErrSegmentInUse = errors.New("accounting: segment is referenced by declarations")
	// ErrCityInUse indicates declarations still reference the city.
	ErrCityInUse = errors.New("accounting: city is referenced by declarations")
	// ErrInvalidPeriod indicates a period outside the YYYY-MM format.
	ErrInvalidPeriod = errors.New("accounting: invalid period, want YYYY-MM")
	// ErrNotDraft indicates an edit attempt on a submitted declaration.
	ErrNotDraft = errors.New("accounting: declaration is not a draft")
)

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	ListSegments(ctx context.Context) ([]Segment, error)
	GetSegment(ctx context.Context, id int64) (Segment, error)
	CreateSegment(ctx context.Context, code, label, description string) (Segment, error)
	UpdateSegment(ctx context.Context, id int64, label, description string) (Segment, error)
	DeleteSegment(ctx context.Context, id int64) error
	ListCities(ctx context.Context) ([]City, error)
	CreateCity(ctx context.Context, name, region string) (City, error)
	UpdateCity(ctx context.Context, id int64, name, region string) (City, error)
	DeleteCity(ctx context.Context, id int64) error
	ListDeclarations(ctx context.Context, period string) ([]Declaration, error)
	GetDeclaration(ctx context.Context, id int64) (Declaration, error)
	CreateDeclaration(ctx context.Context, period string, cityID, segmentID, amountCents int64) (Declaration, error)
	UpdateDeclaration(ctx context.Context, id, amountCents int64) (Declaration, error)
	DeleteDeclaration(ctx context.Context, id int64) error
	SubmitDeclaration(ctx context.Context, id int64) (Declaration, error)
}

// Service implements accounting operations.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService constructs the accounting service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ListSegments returns all analytic segments.
func (s *Service) ListSegments(ctx context.Context) ([]Segment, error) {
	return s.repo.ListSegments(ctx)
}

// GetSegment returns one segment.
func (s *Service) GetSegment(ctx context.Context, id int64) (Segment, error) {
	return s.repo.GetSegment(ctx, id)
}

// CreateSegment adds an analytic segment.
func (s *Service) CreateSegment(ctx context.Context, code, label, description string) (Segment, error) {
	seg, err := s.repo.CreateSegment(ctx, code, label, description)
	if err != nil {
		return Segment{}, err
	}
	s.logger.Info("segment created", "segment_id", seg.ID, "code", seg.Code)
	return seg, nil
}

// UpdateSegment changes label and description. The code is immutable once
// declarations reference it.
func (s *Service) UpdateSegment(ctx context.Context, id int64, label, description string) (Segment, error) {
	return s.repo.UpdateSegment(ctx, id, label, description)
}

// DeleteSegment removes an unused segment.
func (s *Service) DeleteSegment(ctx context.Context, id int64) error {
	return s.repo.DeleteSegment(ctx, id)
}

// ExportSegments writes all segments as CSV.
func (s *Service) ExportSegments(ctx context.Context, w io.Writer) error {
	segments, err := s.repo.ListSegments(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"code", "label", "description"}); err != nil {
		return fmt.Errorf("accounting: export segments: %w", err)
	}
	for _, seg := range segments {
		if err := cw.Write([]string{seg.Code, seg.Label, seg.Description}); err != nil {
			return fmt.Errorf("accounting: export segments: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ListCities returns all cities.
func (s *Service) ListCities(ctx context.Context) ([]City, error) {
	return s.repo.ListCities(ctx)
}

// CreateCity adds a city.
func (s *Service) CreateCity(ctx context.Context, name, region string) (City, error) {
	return s.repo.CreateCity(ctx, name, region)
}

// UpdateCity changes name and region.
func (s *Service) UpdateCity(ctx context.Context, id int64, name, region string) (City, error) {
	return s.repo.UpdateCity(ctx, id, name, region)
}

// DeleteCity removes an unused city.
func (s *Service) DeleteCity(ctx context.Context, id int64) error {
	return s.repo.DeleteCity(ctx, id)
}

// ListDeclarations returns declarations, optionally filtered by period.
func (s *Service) ListDeclarations(ctx context.Context, period string) ([]Declaration, error) {
	if period != "" && !periodPattern.MatchString(period) {
		return nil, ErrInvalidPeriod
	}
	return s.repo.ListDeclarations(ctx, period)
}

// GetDeclaration returns one declaration.
func (s *Service) GetDeclaration(ctx context.Context, id int64) (Declaration, error) {
	return s.repo.GetDeclaration(ctx, id)
}

// CreateDeclaration opens a draft declaration for a period, city and segment.
func (s *Service) CreateDeclaration(ctx context.Context, period string, cityID, segmentID, amountCents int64) (Declaration, error) {
	if !periodPattern.MatchString(period) {
		return Declaration{}, ErrInvalidPeriod
	}
	d, err := s.repo.CreateDeclaration(ctx, period, cityID, segmentID, amountCents)
	if err != nil {
		return Declaration{}, err
	}
	s.logger.Info("declaration created", "declaration_id", d.ID, "period", d.Period)
	return d, nil
}

// UpdateDeclaration changes the amount of a draft. Submitted declarations
// are immutable.
func (s *Service) UpdateDeclaration(ctx context.Context, id, amountCents int64) (Declaration, error) {
	d, err := s.repo.UpdateDeclaration(ctx, id, amountCents)
	if err != nil {
		return Declaration{}, s.draftError(ctx, id, err)
	}
	return d, nil
}

// DeleteDeclaration removes a draft.
func (s *Service) DeleteDeclaration(ctx context.Context, id int64) error {
	if err := s.repo.DeleteDeclaration(ctx, id); err != nil {
		return s.draftError(ctx, id, err)
	}
	return nil
}

// SubmitDeclaration finalizes a draft. Submission is terminal.
func (s *Service) SubmitDeclaration(ctx context.Context, id int64) (Declaration, error) {
	d, err := s.repo.SubmitDeclaration(ctx, id)
	if err != nil {
		return Declaration{}, s.draftError(ctx, id, err)
	}
	s.logger.Info("declaration submitted", "declaration_id", d.ID, "period", d.Period)
	return d, nil
}

// draftError distinguishes "not found" from "exists but already submitted"
// for draft-only operations.
func (s *Service) draftError(ctx context.Context, id int64, err error) error {
	d, getErr := s.repo.GetDeclaration(ctx, id)
	if getErr == nil && d.Status != StatusDraft {
		return ErrNotDraft
	}
	return err
}
