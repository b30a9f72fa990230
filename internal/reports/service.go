package reports

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/auth"
	"github.com/macroscoach/backend/internal/blob"
	"github.com/macroscoach/backend/internal/localtime"
	"github.com/macroscoach/backend/internal/storage"
)

var (
	ErrUnauthorized     = fmt.Errorf("unauthorized")
	ErrInvalidFormat    = fmt.Errorf("invalid format")
	ErrInvalidDate      = fmt.Errorf("invalid date format")
	ErrInvalidDateRange = fmt.Errorf("from date must be before to date")
	ErrRangeTooLarge    = fmt.Errorf("date range too large")
	ErrReportNotFound   = fmt.Errorf("report not found")
)

type Service struct {
	reportsStorage  storage.ReportsStorage
	usersStorage    storage.UsersStorage
	generator       *Generator
	blobStore       blob.Store
	maxRangeDays    int
	presignTTL      int
	localMode       bool // no blob store configured, payloads stay inline
	publicBaseURL   string
	preferPublicURL bool
}

func NewService(
	reportsStorage storage.ReportsStorage,
	usersStorage storage.UsersStorage,
	generator *Generator,
	blobStore blob.Store,
	maxRangeDays int,
	presignTTL int,
	publicBaseURL string,
	preferPublicURL bool,
) *Service {
	return &Service{
		reportsStorage:  reportsStorage,
		usersStorage:    usersStorage,
		generator:       generator,
		blobStore:       blobStore,
		maxRangeDays:    maxRangeDays,
		presignTTL:      presignTTL,
		localMode:       blobStore == nil,
		publicBaseURL:   publicBaseURL,
		preferPublicURL: preferPublicURL,
	}
}

// CreateReport validates the range, renders the export and stores it.
func (s *Service) CreateReport(ctx context.Context, req CreateReportRequest) (*storage.ReportMeta, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	if req.Format != FormatPDF && req.Format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	loc, err := s.userLocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	from, err := localtime.ParseDate(req.From, loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	to, err := localtime.ParseDate(req.To, loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if from.After(to) {
		return nil, ErrInvalidDateRange
	}
	if int(to.Sub(from).Hours()/24) > s.maxRangeDays {
		return nil, ErrRangeTooLarge
	}

	data, err := s.generator.Generate(ctx, userID, loc, from, to, req.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	report := &storage.ReportMeta{
		UserID:    userID,
		Format:    req.Format,
		FromDate:  req.From,
		ToDate:    req.To,
		SizeBytes: int64(len(data)),
		Status:    StatusReady,
	}

	if s.localMode {
		report.Data = data
	} else {
		objectKey := fmt.Sprintf("reports/%s/%s_%s_%s.%s",
			userID.String(), req.From, req.To, uuid.New().String(), req.Format)
		if _, err := s.blobStore.PutObject(ctx, objectKey, data, contentTypeFor(req.Format)); err != nil {
			return nil, fmt.Errorf("failed to upload report: %w", err)
		}
		report.ObjectKey = &objectKey
	}

	if err := s.reportsStorage.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report metadata: %w", err)
	}
	return report, nil
}

func (s *Service) GetReport(ctx context.Context, reportID uuid.UUID) (*storage.ReportMeta, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	meta, err := s.reportsStorage.GetReport(ctx, userID, reportID)
	if err != nil {
		return nil, ErrReportNotFound
	}
	return meta, nil
}

func (s *Service) ListReports(ctx context.Context, limit, offset int) ([]storage.ReportMeta, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	return s.reportsStorage.ListReports(ctx, userID, limit, offset)
}

func (s *Service) DeleteReport(ctx context.Context, reportID uuid.UUID) error {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return ErrUnauthorized
	}

	meta, err := s.reportsStorage.GetReport(ctx, userID, reportID)
	if err != nil {
		return ErrReportNotFound
	}

	if !s.localMode && meta.ObjectKey != nil {
		// metadata deletion wins; a stray object is tolerable
		if err := s.blobStore.DeleteObject(ctx, *meta.ObjectKey); err != nil {
			log.Printf("WARN reports: failed to delete object %s: %v", *meta.ObjectKey, err)
		}
	}

	return s.reportsStorage.DeleteReport(ctx, userID, reportID)
}

// DownloadURL returns where the report payload can be fetched. In local
// mode that is this server's own download endpoint.
func (s *Service) DownloadURL(ctx context.Context, reportID uuid.UUID, baseURL string) (string, error) {
	meta, err := s.GetReport(ctx, reportID)
	if err != nil {
		return "", err
	}

	if s.localMode {
		return fmt.Sprintf("%s/v1/reports/%s/download", strings.TrimSuffix(baseURL, "/"), reportID.String()), nil
	}
	if meta.ObjectKey == nil {
		return "", fmt.Errorf("object key is missing")
	}
	if s.preferPublicURL && s.publicBaseURL != "" {
		return strings.TrimSuffix(s.publicBaseURL, "/") + "/" + *meta.ObjectKey, nil
	}
	return s.blobStore.PresignGet(ctx, *meta.ObjectKey, s.presignTTL)
}

// Payload returns the raw bytes for a local-mode download.
func (s *Service) Payload(ctx context.Context, reportID uuid.UUID) ([]byte, string, error) {
	meta, err := s.GetReport(ctx, reportID)
	if err != nil {
		return nil, "", err
	}
	if !s.localMode {
		return nil, "", fmt.Errorf("payload is only stored inline in local mode")
	}
	return meta.Data, contentTypeFor(meta.Format), nil
}

func (s *Service) userLocation(ctx context.Context, userID uuid.UUID) (*time.Location, error) {
	user, err := s.usersStorage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return localtime.Resolve(user.Timezone), nil
}

func contentTypeFor(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}
