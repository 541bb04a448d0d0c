package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/villacarmen/bookprobe/pkg/gateway"
	"github.com/villacarmen/bookprobe/pkg/scenario"
	"github.com/villacarmen/bookprobe/pkg/storage"
)

// BookingFinder is the read-only storage query the verifier needs.
type BookingFinder interface {
	FindBookings(ctx context.Context, phoneLast9, dbDate, dbTime string) ([]storage.BookingRow, error)
}

// Verifier asserts a scenario's expected side effects after the driver ends.
type Verifier struct {
	store BookingFinder
}

// New creates a verifier over the given booking store.
func New(store BookingFinder) *Verifier {
	return &Verifier{store: store}
}

// AssertInserted checks that exactly one booking row exists for (phone, date,
// effective time) with the scenario's literal expected values, and that both
// the customer confirmation and the operator notification were captured.
// dbTime must be the effective negotiated time, which can differ from the
// originally requested slot.
func (v *Verifier) AssertInserted(
	ctx context.Context,
	sc scenario.Scenario,
	phoneLast9, phone, dbDate, dbTime string,
	captured []gateway.CapturedMessage,
) (*storage.BookingRow, error) {
	rows, err := v.store.FindBookings(ctx, phoneLast9, dbDate, dbTime)
	if err != nil {
		return nil, fmt.Errorf("%s: booking query failed: %w", sc.Key, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: expected booking to be inserted but none found for phone=%s, date=%s, time=%s",
			sc.Key, phoneLast9, dbDate, dbTime)
	}
	if len(rows) > 1 {
		return nil, fmt.Errorf("%s: expected exactly one booking row for phone=%s, date=%s, time=%s, found %d",
			sc.Key, phoneLast9, dbDate, dbTime, len(rows))
	}
	row := rows[0]

	if row.PartySize != sc.PartySize {
		return nil, fmt.Errorf("%s: expected party_size=%d, got %d (id=%d)",
			sc.Key, sc.PartySize, row.PartySize, row.ID)
	}
	if row.Status != "pending" {
		return nil, fmt.Errorf("%s: expected status=%q, got %q (id=%d)",
			sc.Key, "pending", row.Status, row.ID)
	}

	if sc.Rice == scenario.RiceRequested {
		if !row.RiceType.Valid || row.RiceType.String != sc.RiceType {
			return nil, fmt.Errorf("%s: expected arroz_type=%q, got %q (id=%d)",
				sc.Key, sc.RiceType, row.RiceType.ValueOrZero(), row.ID)
		}
		if sc.RiceServings > 0 && (!row.RiceServings.Valid || row.RiceServings.Int64 != int64(sc.RiceServings)) {
			return nil, fmt.Errorf("%s: expected arroz_servings=%d, got %v (id=%d)",
				sc.Key, sc.RiceServings, row.RiceServings.Ptr(), row.ID)
		}
	} else {
		if row.RiceType.Valid {
			return nil, fmt.Errorf("%s: expected arroz_type NULL, got %q (id=%d)",
				sc.Key, row.RiceType.String, row.ID)
		}
		if row.RiceServings.Valid {
			return nil, fmt.Errorf("%s: expected arroz_servings NULL, got %d (id=%d)",
				sc.Key, row.RiceServings.Int64, row.ID)
		}
	}

	if err := assertCustomerConfirmation(captured, phone, sc.Key); err != nil {
		return nil, err
	}
	if err := assertAdminNotification(captured, sc.Key); err != nil {
		return nil, err
	}
	return &row, nil
}

// AssertNotInserted checks that no booking row exists for (phone, date,
// effective time) and that neither the confirmation header nor the operator
// marker was captured for the phone.
func (v *Verifier) AssertNotInserted(
	ctx context.Context,
	sc scenario.Scenario,
	phoneLast9, phone, dbDate, dbTime string,
	captured []gateway.CapturedMessage,
) error {
	rows, err := v.store.FindBookings(ctx, phoneLast9, dbDate, dbTime)
	if err != nil {
		return fmt.Errorf("%s: booking query failed: %w", sc.Key, err)
	}
	if len(rows) > 0 {
		return fmt.Errorf("%s: expected NO booking insert, but found %d row(s), latest id=%d for phone=%s, date=%s, time=%s",
			sc.Key, len(rows), rows[0].ID, phoneLast9, dbDate, dbTime)
	}

	for _, m := range captured {
		if m.Phone != phone {
			continue
		}
		if strings.HasPrefix(m.Text, ConfirmationHeader) {
			return fmt.Errorf("%s: did not expect a customer confirmation for %s, but one was captured", sc.Key, phone)
		}
		if strings.Contains(m.Text, AdminNotificationMarker) {
			return fmt.Errorf("%s: did not expect an admin notification, but one was captured", sc.Key)
		}
	}
	return nil
}

// assertCustomerConfirmation requires a button-menu send to the customer
// whose text starts with the confirmation header.
func assertCustomerConfirmation(captured []gateway.CapturedMessage, phone, key string) error {
	for _, m := range captured {
		if m.Phone != phone {
			continue
		}
		if m.Type == "menu_button" && strings.HasPrefix(m.Text, ConfirmationHeader) {
			return nil
		}
	}
	return fmt.Errorf("%s: expected customer confirmation (menu_button) to %s, but did not find it", key, phone)
}

// assertAdminNotification requires a plain-text send containing the operator
// marker. The operator address is environment-specific, so any phone counts.
func assertAdminNotification(captured []gateway.CapturedMessage, key string) error {
	for _, m := range captured {
		if strings.Contains(m.Text, AdminNotificationMarker) {
			return nil
		}
	}
	return fmt.Errorf("%s: expected admin notification text to be sent, but did not find it in captured messages", key)
}
