// Package scenario defines the booking test matrix and the deterministic
// reservation date/time allocator used to keep scenario runs collision-free.
package scenario

// Category groups scenarios by the kind of customer behavior they simulate.
type Category string

const (
	// CategoryHappyPath covers straightforward bookings that must insert.
	CategoryHappyPath Category = "A"
	// CategoryFailure covers intentionally invalid input that must not insert.
	CategoryFailure Category = "B"
	// CategoryAbandonment covers customers who walk away mid-booking.
	CategoryAbandonment Category = "C"
	// CategoryTopicSwitch covers mid-booking topic changes.
	CategoryTopicSwitch Category = "D"
	// CategoryAdversarial covers contradictions and injection attempts.
	CategoryAdversarial Category = "E"
)

// IsValid checks if the category is one of the five known tags.
func (c Category) IsValid() bool {
	switch c {
	case CategoryHappyPath, CategoryFailure, CategoryAbandonment,
		CategoryTopicSwitch, CategoryAdversarial:
		return true
	default:
		return false
	}
}

// RiceIntent is the scenario's stance on ordering rice.
type RiceIntent string

const (
	// RiceDeclined — the simulated customer refuses rice.
	RiceDeclined RiceIntent = "declined"
	// RiceRequested — the customer orders a valid type and serving count.
	RiceRequested RiceIntent = "requested"
	// RiceUndecided — no fixed stance; used by failure paths where the
	// customer supplies invalid or ambiguous rice input on purpose.
	RiceUndecided RiceIntent = "undecided"
)

// Scenario is one immutable test case from the booking matrix.
type Scenario struct {
	Key          string
	Name         string
	Category     Category
	ExpectInsert bool
	PartySize    int
	Rice         RiceIntent
	RiceType     string // empty unless the scenario mentions a rice dish
	RiceServings int    // 0 when unset
}

// Matrix returns the fixed A–E scenario catalog:
//   - A: happy paths (insert)
//   - B: intentional failures (no insert)
//   - C: abandonment (no insert)
//   - D: topic switching (insert or not depending on completion)
//   - E: adversarial/messy inputs
func Matrix() []Scenario {
	return []Scenario{
		{
			Key:          "A1",
			Name:         "A1 Basic booking, no rice",
			Category:     CategoryHappyPath,
			ExpectInsert: true,
			PartySize:    2,
			Rice:         RiceDeclined,
		},
		{
			Key:          "A2",
			Name:         "A2 Booking with valid rice + servings",
			Category:     CategoryHappyPath,
			ExpectInsert: true,
			PartySize:    2,
			Rice:         RiceRequested,
			RiceType:     "Arroz de chorizo",
			RiceServings: 2,
		},
		{
			Key:          "A3",
			Name:         "A3 Rice-first then rest (still inserts)",
			Category:     CategoryHappyPath,
			ExpectInsert: true,
			PartySize:    4,
			Rice:         RiceRequested,
			RiceType:     "Arroz meloso de pulpo y gambones",
			RiceServings: 2,
		},
		{
			Key:          "A4",
			Name:         "A4 Extras yes then count (tronas/carritos)",
			Category:     CategoryHappyPath,
			ExpectInsert: true,
			PartySize:    3,
			Rice:         RiceRequested,
			RiceType:     "Arroz a banda",
			RiceServings: 2,
		},
		{
			Key:          "B1",
			Name:         "B1 Invalid rice (menu list, no insert)",
			Category:     CategoryFailure,
			ExpectInsert: false,
			PartySize:    2,
			Rice:         RiceUndecided,
			RiceType:     "Arroz de pollo",
			RiceServings: 2,
		},
		{
			Key:          "B2",
			Name:         "B2 Ambiguous rice (multiple options, no insert)",
			Category:     CategoryFailure,
			ExpectInsert: false,
			PartySize:    2,
			Rice:         RiceUndecided,
			RiceType:     "carrillada con boletus",
			RiceServings: 2,
		},
		{
			Key:          "B3",
			Name:         "B3 Rice servings <2 (no insert)",
			Category:     CategoryFailure,
			ExpectInsert: false,
			PartySize:    2,
			Rice:         RiceRequested,
			RiceType:     "Arroz de señoret",
			RiceServings: 1,
		},
		{
			Key:          "C1",
			Name:         "C1 Abort mid-path (no insert)",
			Category:     CategoryAbandonment,
			ExpectInsert: false,
			PartySize:    2,
			Rice:         RiceUndecided,
		},
		{
			Key:          "C2",
			Name:         "C2 Abrupt stop after data request (no insert)",
			Category:     CategoryAbandonment,
			ExpectInsert: false,
			PartySize:    2,
			Rice:         RiceUndecided,
		},
		{
			Key:          "D1",
			Name:         "D1 Switch topic mid-booking then resume (insert)",
			Category:     CategoryTopicSwitch,
			ExpectInsert: true,
			PartySize:    2,
			Rice:         RiceDeclined,
		},
		{
			Key:          "D2",
			Name:         "D2 Switch topic and never resume (no insert)",
			Category:     CategoryTopicSwitch,
			ExpectInsert: false,
			PartySize:    2,
			Rice:         RiceUndecided,
		},
		{
			Key:          "E1",
			Name:         "E1 Contradictions: change time/people, last value wins (insert)",
			Category:     CategoryAdversarial,
			ExpectInsert: true,
			PartySize:    4,
			Rice:         RiceDeclined,
		},
		{
			Key:          "E2",
			Name:         "E2 Prompt injection attempt (no insert)",
			Category:     CategoryAdversarial,
			ExpectInsert: false,
			PartySize:    2,
			Rice:         RiceUndecided,
		},
	}
}
