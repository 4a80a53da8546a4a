// Package dashboard filters, searches and sorts an already loaded list of
// bookings the way the customer dashboard presents it.
package dashboard

import (
	"sort"
	"strconv"
	"strings"

	"rentals/internal/db"
	"rentals/internal/utils"
)

// All disables a filter predicate.
const All = "all"

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sortable fields.
const (
	FieldStartDate     = "startDate"
	FieldEndDate       = "endDate"
	FieldCreatedAt     = "createdAt"
	FieldTotalAmount   = "totalAmount"
	FieldTotalDays     = "totalDays"
	FieldVehicle       = "vehicle"
	FieldStatus        = "status"
	FieldPaymentStatus = "paymentStatus"
	FieldPickup        = "pickupLocation"
	FieldDropoff       = "dropoffLocation"
)

type Filter struct {
	Status        string
	PaymentStatus string
}

type Sort struct {
	Field     string
	Direction Direction
}

// Toggle selects field. Choosing the active field again flips the direction;
// a new field starts ascending.
func (s Sort) Toggle(field string) Sort {
	if s.Field == field {
		if s.Direction == Asc {
			return Sort{Field: field, Direction: Desc}
		}
		return Sort{Field: field, Direction: Asc}
	}
	return Sort{Field: field, Direction: Asc}
}

type Query struct {
	Search string
	Filter Filter
	Sort   Sort
}

// Apply runs search, then filter, then sort. The input slice is not modified.
func Apply(bookings []db.Booking, q Query) []db.Booking {
	out := Search(bookings, q.Search)
	out = FilterBookings(out, q.Filter)
	SortBookings(out, q.Sort)
	return out
}

// Search keeps bookings where term is a case-insensitive substring of any
// searchable field. An empty term keeps everything.
func Search(bookings []db.Booking, term string) []db.Booking {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]db.Booking, 0, len(bookings))
	for _, b := range bookings {
		if term == "" || matches(b, term) {
			out = append(out, b)
		}
	}
	return out
}

func matches(b db.Booking, term string) bool {
	for _, field := range searchableFields(b) {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func searchableFields(b db.Booking) []string {
	fields := []string{
		b.Status,
		b.PaymentStatus,
		strconv.FormatInt(b.TotalAmount, 10),
		utils.FormatAmount(b.TotalAmount),
		b.StartDate.Format(utils.DisplayDateLayout),
		b.EndDate.Format(utils.DisplayDateLayout),
	}
	if b.Vehicle != nil {
		fields = append(fields,
			b.Vehicle.Make,
			b.Vehicle.Model,
			strconv.Itoa(b.Vehicle.Year),
			b.Vehicle.Plate,
		)
	}
	return fields
}

// FilterBookings ANDs the status and payment status predicates. Empty or All
// disables a predicate.
func FilterBookings(bookings []db.Booking, f Filter) []db.Booking {
	out := make([]db.Booking, 0, len(bookings))
	for _, b := range bookings {
		if !wildcard(f.Status) && !strings.EqualFold(b.Status, f.Status) {
			continue
		}
		if !wildcard(f.PaymentStatus) && !strings.EqualFold(b.PaymentStatus, f.PaymentStatus) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func wildcard(v string) bool {
	return v == "" || strings.EqualFold(v, All)
}

// SortBookings sorts in place. An empty field leaves the order untouched.
func SortBookings(bookings []db.Booking, s Sort) {
	if s.Field == "" {
		return
	}
	less := lessFunc(s.Field)
	sort.SliceStable(bookings, func(i, j int) bool {
		if s.Direction == Desc {
			return less(bookings[j], bookings[i])
		}
		return less(bookings[i], bookings[j])
	})
}

func lessFunc(field string) func(a, b db.Booking) bool {
	switch field {
	case FieldTotalAmount:
		return func(a, b db.Booking) bool { return a.TotalAmount < b.TotalAmount }
	case FieldTotalDays:
		return func(a, b db.Booking) bool { return a.TotalDays < b.TotalDays }
	case FieldStartDate:
		return func(a, b db.Booking) bool { return a.StartDate.Before(b.StartDate) }
	case FieldEndDate:
		return func(a, b db.Booking) bool { return a.EndDate.Before(b.EndDate) }
	case FieldCreatedAt:
		return func(a, b db.Booking) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case FieldVehicle:
		return func(a, b db.Booking) bool { return vehicleKey(a) < vehicleKey(b) }
	default:
		return func(a, b db.Booking) bool {
			return strings.ToLower(stringField(a, field)) < strings.ToLower(stringField(b, field))
		}
	}
}

func vehicleKey(b db.Booking) string {
	if b.Vehicle == nil {
		return ""
	}
	return strings.ToLower(b.Vehicle.Make + " " + b.Vehicle.Model)
}

func stringField(b db.Booking, field string) string {
	switch field {
	case FieldStatus:
		return b.Status
	case FieldPaymentStatus:
		return b.PaymentStatus
	case FieldPickup:
		return b.PickupLocation
	case FieldDropoff:
		return b.DropoffLocation
	default:
		return ""
	}
}

// ParseDirection maps "desc" (any case) to Desc and anything else to Asc.
func ParseDirection(v string) Direction {
	if strings.EqualFold(v, string(Desc)) {
		return Desc
	}
	return Asc
}
