package booking

import (
	"slices"
	"time"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/domain"
)

// Patch carries a partial update. A nil field is absent and keeps the stored value.
// String fields that are blank also keep the stored value. PetIDs replaces the pet set
// only when it is non-empty.
type Patch struct {
	Type             *BookingType
	CheckInDate      *time.Time
	CheckOutDate     *time.Time
	CheckInTime      *string
	CheckOutTime     *string
	Status           *BookingStatus
	ReasonOfStop     *ReasonOfStop
	ReasonOfCancel   *string
	Price            *float64
	Amount           *float64
	PrepaymentAmount *float64
	IsPrepaid        *bool
	Comment          *string
	FileURL          *string
	RoomID           *int64
	PetIDs           []int64
}

// Field names reported by ApplyPatch.
const (
	FieldType             = "type"
	FieldCheckInDate      = "checkInDate"
	FieldCheckOutDate     = "checkOutDate"
	FieldCheckInTime      = "checkInTime"
	FieldCheckOutTime     = "checkOutTime"
	FieldStatus           = "status"
	FieldReasonOfStop     = "reasonOfStop"
	FieldReasonOfCancel   = "reasonOfCancel"
	FieldPrice            = "price"
	FieldAmount           = "amount"
	FieldPrepaymentAmount = "prepaymentAmount"
	FieldIsPrepaid        = "isPrepaid"
	FieldComment          = "comment"
	FieldFileURL          = "fileUrl"
	FieldRoomID           = "roomId"
	FieldPetIDs           = "petIds"
)

// patchRule merges one field of a Patch into a booking draft and reports whether the
// stored value changed.
type patchRule struct {
	field string
	apply func(draft *Booking, p *Patch) bool
}

// patchRules lists every updatable field exactly once. Each rule touches only its own
// field, so the order of the table does not matter. The status rule only records the
// requested status; derivation from the reasons happens after all rules ran.
var patchRules = []patchRule{
	{FieldType, func(d *Booking, p *Patch) bool { return replaceIfSet(&d.bookingType, p.Type) }},
	{FieldCheckInDate, func(d *Booking, p *Patch) bool { return replaceDayIfSet(&d.period.checkIn, p.CheckInDate) }},
	{FieldCheckOutDate, func(d *Booking, p *Patch) bool { return replaceDayIfSet(&d.period.checkOut, p.CheckOutDate) }},
	{FieldCheckInTime, func(d *Booking, p *Patch) bool { return replaceIfNotBlank(&d.details.CheckInTime, p.CheckInTime) }},
	{FieldCheckOutTime, func(d *Booking, p *Patch) bool { return replaceIfNotBlank(&d.details.CheckOutTime, p.CheckOutTime) }},
	{FieldStatus, func(d *Booking, p *Patch) bool { return replaceIfSet(&d.status, p.Status) }},
	{FieldReasonOfStop, func(d *Booking, p *Patch) bool { return replaceIfNotBlankString(&d.reasonOfStop, p.ReasonOfStop) }},
	{FieldReasonOfCancel, func(d *Booking, p *Patch) bool { return replaceIfNotBlank(&d.reasonOfCancel, p.ReasonOfCancel) }},
	{FieldPrice, func(d *Booking, p *Patch) bool { return replaceIfSet(&d.details.Price, p.Price) }},
	{FieldAmount, func(d *Booking, p *Patch) bool { return replaceIfSet(&d.details.Amount, p.Amount) }},
	{FieldPrepaymentAmount, func(d *Booking, p *Patch) bool { return replaceIfSet(&d.details.PrepaymentAmount, p.PrepaymentAmount) }},
	{FieldIsPrepaid, func(d *Booking, p *Patch) bool { return replaceIfSet(&d.details.IsPrepaid, p.IsPrepaid) }},
	{FieldComment, func(d *Booking, p *Patch) bool { return replaceIfNotBlank(&d.details.Comment, p.Comment) }},
	{FieldFileURL, func(d *Booking, p *Patch) bool { return replaceIfNotBlank(&d.details.FileURL, p.FileURL) }},
	{FieldRoomID, func(d *Booking, p *Patch) bool { return replaceIfSet(&d.roomID, p.RoomID) }},
	{FieldPetIDs, func(d *Booking, p *Patch) bool { return replaceIDsIfNotEmpty(&d.petIDs, p.PetIDs) }},
}

func replaceIfSet[T comparable](dst *T, src *T) bool {
	if src == nil || *dst == *src {
		return false
	}
	*dst = *src
	return true
}

func replaceIfNotBlank(dst *string, src *string) bool {
	if src == nil || isBlank(*src) || *dst == *src {
		return false
	}
	*dst = *src
	return true
}

func replaceIfNotBlankString[T ~string](dst *T, src *T) bool {
	if src == nil || isBlank(string(*src)) || *dst == *src {
		return false
	}
	*dst = *src
	return true
}

func replaceDayIfSet(dst *time.Time, src *time.Time) bool {
	if src == nil {
		return false
	}
	day := CalendarDay(*src)
	if dst.Equal(day) {
		return false
	}
	*dst = day
	return true
}

func replaceIDsIfNotEmpty(dst *[]int64, src []int64) bool {
	if len(src) == 0 {
		return false
	}
	ids := normalizeIDs(src)
	if slices.Equal(*dst, ids) {
		return false
	}
	*dst = ids
	return true
}

// ApplyPatch merges p into the booking and returns the names of the fields whose value
// changed. Setting a cancellation reason moves the booking to cancelled; setting a stop
// reason moves it to stopped. The booking is left untouched when an error is returned.
func (b *Booking) ApplyPatch(p Patch) ([]string, error) {
	draft := b.clone()

	var changed []string
	for _, rule := range patchRules {
		if rule.apply(draft, &p) {
			changed = append(changed, rule.field)
		}
	}

	target, err := deriveStatus(b, draft, &p)
	if err != nil {
		return nil, err
	}
	if target != b.status {
		if !b.status.CanTransitionTo(target) {
			return nil, domain.NewInvalidStateError(string(b.status), string(target))
		}
		if !slices.Contains(changed, FieldStatus) {
			changed = append(changed, FieldStatus)
		}
	}
	draft.status = target

	if err := draft.validate(); err != nil {
		return nil, err
	}

	if len(changed) > 0 {
		draft.updatedAt = time.Now().UTC()
	}
	*b = *draft
	return changed, nil
}

// deriveStatus decides the status after a merge. A newly set reason implies its
// non-occupying status, and an explicit status must agree with it.
func deriveStatus(before, draft *Booking, p *Patch) (BookingStatus, error) {
	cancelSet := draft.reasonOfCancel != before.reasonOfCancel
	stopSet := draft.reasonOfStop != before.reasonOfStop

	if cancelSet && stopSet {
		return "", domain.NewValidationError("reason of cancel and reason of stop cannot be set together")
	}

	var implied BookingStatus
	switch {
	case cancelSet:
		implied = StatusCancelled
	case stopSet:
		implied = StatusStopped
	}

	if p.Status != nil {
		if !p.Status.IsValid() {
			return "", domain.NewValidationError("invalid booking status: " + string(*p.Status))
		}
		if implied != "" && *p.Status != implied {
			return "", domain.NewValidationError(
				"status " + string(*p.Status) + " contradicts the reason supplied, which implies " + string(implied))
		}
		return *p.Status, nil
	}
	if implied != "" {
		return implied, nil
	}
	return before.status, nil
}

// MovesStay reports whether any of the changed fields alters which nights of which room
// the booking holds. Status changes never need a new check since nothing leads back to
// an occupying status.
func MovesStay(changed []string) bool {
	for _, f := range changed {
		switch f {
		case FieldRoomID, FieldCheckInDate, FieldCheckOutDate:
			return true
		}
	}
	return false
}
