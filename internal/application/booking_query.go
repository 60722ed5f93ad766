package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.einride.tech/aip/ordering"
	"go.uber.org/zap"

	"github.com/example/roombooking/internal/scheduler"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// SortKey names a sortable booking attribute.
type SortKey string

const (
	SortByStart    SortKey = "start"
	SortByEnd      SortKey = "end"
	SortByStatus   SortKey = "status"
	SortByCreator  SortKey = "creator"
	SortByResource SortKey = "resourceId"
	SortByID       SortKey = "id"
)

var sortablePaths = []string{
	string(SortByStart),
	string(SortByEnd),
	string(SortByStatus),
	string(SortByCreator),
	string(SortByResource),
	string(SortByID),
}

// SortField is one term of an ORDER BY clause.
type SortField struct {
	Key  SortKey
	Desc bool
}

// TimeRange restricts bookings by interval. With Inclusive unset a booking
// matches when it strictly overlaps [From, To); with Inclusive set it matches
// when it touches [From, To]. A nil bound is open.
type TimeRange struct {
	From      *time.Time
	To        *time.Time
	Inclusive bool
}

// BookingListQuery is the normalized, storage-facing form of a list request.
// A nil Status selects every booking that is not cancelled.
type BookingListQuery struct {
	ResourceID *int64
	CreatorID  *int64
	Status     *BookingStatus
	Range      TimeRange
	Sort       []SortField
	Limit      int
	Offset     int
}

// BookingLister runs list queries against the store and reports the total
// number of matches ignoring Limit and Offset.
type BookingLister interface {
	ListBookings(ctx context.Context, query BookingListQuery) ([]Booking, int, error)
}

// ListBookingsParams captures the filters accepted by the listing endpoint.
// Date and the Start/End range are mutually exclusive.
type ListBookingsParams struct {
	ResourceID *int64         `validate:"omitempty,gt=0"`
	CreatorID  *int64         `validate:"omitempty,gt=0"`
	Status     *BookingStatus `validate:"omitempty,oneof=confirmed cancelled"`
	Date       *time.Time
	Start      *time.Time
	End        *time.Time
	Page       *int `validate:"omitempty,gte=1"`
	Limit      *int `validate:"omitempty,gte=1,lte=100"`
	// OrderBy uses the "field [asc|desc], ..." grammar, e.g. "start desc, id".
	OrderBy string
}

// BookingPage is one page of list results.
type BookingPage struct {
	Items           []Booking
	Page            int
	Limit           int
	TotalCount      int
	TotalPages      int
	HasNextPage     bool
	HasPreviousPage bool
}

// BookingQueryService filters, sorts and paginates bookings.
type BookingQueryService struct {
	bookings BookingLister
	location *time.Location
	validate *validator.Validate
	logger   *zap.Logger
}

// NewBookingQueryService wires the lister. loc is the zone used to expand
// calendar dates and defaults to UTC.
func NewBookingQueryService(bookings BookingLister, loc *time.Location, logger *zap.Logger) *BookingQueryService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingQueryService{
		bookings: bookings,
		location: loc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   defaultLogger(logger),
	}
}

// ListBookings validates params and returns the requested page. A page past
// the last one yields an empty item list.
func (s *BookingQueryService) ListBookings(ctx context.Context, params ListBookingsParams) (page BookingPage, err error) {
	if s == nil {
		err = fmt.Errorf("BookingQueryService is nil")
		return
	}

	logger := serviceLogger(ctx, s.logger, "BookingQueryService", "ListBookings")
	defer func() {
		if err != nil {
			logger.Error("failed to list bookings", zap.Error(err), zap.String("error_kind", ErrorKind(err)))
			return
		}
		logger.Debug("bookings listed", zap.Int("total", page.TotalCount), zap.Int("page", page.Page))
	}()

	var (
		query  BookingListQuery
		number int
	)
	query, number, err = s.buildQuery(params)
	if err != nil {
		return
	}

	if s.bookings == nil {
		err = infrastructureError("list bookings", errors.New("booking lister not configured"))
		return
	}

	items, total, err := s.bookings.ListBookings(ctx, query)
	if err != nil {
		err = infrastructureError("list bookings", err)
		return
	}
	if items == nil {
		items = []Booking{}
	}

	totalPages := (total + query.Limit - 1) / query.Limit
	page = BookingPage{
		Items:           items,
		Page:            number,
		Limit:           query.Limit,
		TotalCount:      total,
		TotalPages:      totalPages,
		HasNextPage:     number < totalPages,
		HasPreviousPage: number > 1,
	}
	return page, nil
}

func (s *BookingQueryService) buildQuery(params ListBookingsParams) (BookingListQuery, int, error) {
	vErr := &ValidationError{}

	if err := s.validate.Struct(params); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return BookingListQuery{}, 0, infrastructureError("validate list parameters", err)
		}
		for _, fe := range fieldErrs {
			vErr.add(filterFieldName(fe.StructField()), filterMessage(fe))
		}
	}

	if params.Date != nil && (params.Start != nil || params.End != nil) {
		vErr.add("date", "Date filter cannot be combined with start or end")
	}
	if params.Start != nil && params.End != nil && !params.Start.Before(*params.End) {
		vErr.add("start", "Start time cannot be after end time")
	}

	sort, sortErr := parseSort(params.OrderBy)
	if sortErr != nil {
		vErr.merge(sortErr)
	}

	if vErr.HasErrors() {
		return BookingListQuery{}, 0, vErr
	}

	pageNumber := defaultPage
	if params.Page != nil {
		pageNumber = *params.Page
	}
	limit := defaultLimit
	if params.Limit != nil {
		limit = *params.Limit
	}

	query := BookingListQuery{
		ResourceID: params.ResourceID,
		CreatorID:  params.CreatorID,
		Status:     params.Status,
		Sort:       sort,
		Limit:      limit,
		Offset:     pageOffset(pageNumber, limit),
	}

	switch {
	case params.Date != nil:
		day := scheduler.DayBounds(*params.Date, s.location)
		query.Range = TimeRange{From: &day.Start, To: &day.End, Inclusive: true}
	case params.Start != nil || params.End != nil:
		query.Range = TimeRange{From: params.Start, To: params.End}
	}

	return query, pageNumber, nil
}

// pageOffset returns the row offset of page. Pages whose offset does not fit
// in an int are clamped to math.MaxInt, which is past any stored row.
func pageOffset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

type orderByRequest string

func (r orderByRequest) GetOrderBy() string { return string(r) }

func parseSort(raw string) ([]SortField, *ValidationError) {
	if strings.TrimSpace(raw) == "" {
		return []SortField{{Key: SortByStart}}, nil
	}

	orderBy, err := ordering.ParseOrderBy(orderByRequest(raw))
	if err != nil {
		return nil, newValidationError("orderBy", "Invalid sort order")
	}
	if err := orderBy.ValidateForPaths(sortablePaths...); err != nil {
		return nil, newValidationError("orderBy", fmt.Sprintf("Sorting is only supported by %s", strings.Join(sortablePaths, ", ")))
	}

	seen := make(map[string]struct{}, len(orderBy.Fields))
	fields := make([]SortField, 0, len(orderBy.Fields))
	for _, f := range orderBy.Fields {
		if _, dup := seen[f.Path]; dup {
			return nil, newValidationError("orderBy", fmt.Sprintf("Duplicate sort field %s", f.Path))
		}
		seen[f.Path] = struct{}{}
		fields = append(fields, SortField{Key: SortKey(f.Path), Desc: f.Desc})
	}
	if len(fields) == 0 {
		fields = append(fields, SortField{Key: SortByStart})
	}
	return fields, nil
}

func filterFieldName(structField string) string {
	switch structField {
	case "ResourceID":
		return "resourceId"
	case "CreatorID":
		return "creatorId"
	default:
		return strings.ToLower(structField)
	}
}

func filterMessage(fe validator.FieldError) string {
	switch fe.StructField() {
	case "ResourceID":
		return "Invalid Room ID format"
	case "CreatorID":
		return "Invalid creator ID"
	case "Status":
		return "Invalid status provided"
	case "Page":
		return "Page must be greater than or equal to 1"
	case "Limit":
		return fmt.Sprintf("Limit must be between 1 and %d", maxLimit)
	default:
		return fmt.Sprintf("Invalid value for %s", fe.Field())
	}
}
