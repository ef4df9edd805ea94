package generator

import (
	// Go Internal Packages
	"context"
	"sync"
	"time"

	// Local Packages
	models "card-pipeline/models"

	// External Packages
	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

var (
	cardTypeWeights  = []int{5, 15, 20, 25, 35}
	cardColorWeights = []int{5, 15, 20, 25, 35}
	txTypeWeights    = []int{65, 35}
)

// Geocoder resolves the state of a coordinate.
type Geocoder interface {
	ReverseState(ctx context.Context, lat, lng float64) (string, error)
}

type Options struct {
	Seed     int64
	Places   []Place
	Geocoder Geocoder
	Clock    func() time.Time
}

// Generator produces synthetic card transactions. It is safe for concurrent use.
type Generator struct {
	mu       sync.Mutex
	faker    *gofakeit.Faker
	places   []Place
	geocoder Geocoder
	clock    func() time.Time
}

// New returns a generator; a zero seed picks a random one.
func New(opts Options) *Generator {
	if len(opts.Places) == 0 {
		opts.Places = BrazilianPlaces
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Generator{
		faker:    gofakeit.New(opts.Seed),
		places:   opts.Places,
		geocoder: opts.Geocoder,
		clock:    opts.Clock,
	}
}

// Next returns the next event. Only the geocoder can fail.
func (g *Generator) Next(ctx context.Context) (models.TransactionEvent, error) {
	g.mu.Lock()
	event, place := g.next()
	g.mu.Unlock()

	if g.geocoder != nil {
		state, err := g.geocoder.ReverseState(ctx, place.Lat, place.Lng)
		if err != nil {
			return models.TransactionEvent{}, err
		}
		if state != "" {
			event.Location.State = state
		}
	}
	return event, nil
}

func (g *Generator) next() (models.TransactionEvent, Place) {
	f := g.faker
	card := f.CreditCard()
	place := g.places[f.Number(0, len(g.places)-1)]
	amount := decimal.NewFromFloat(f.Float64Range(1, 9999)).Round(2)

	return models.TransactionEvent{
		CardholderName:  f.Name(),
		TaxID:           cpf(f),
		Amount:          amount,
		CardBrand:       card.Type,
		CardNumber:      card.Number,
		CVV:             card.Cvv,
		Expiry:          card.Exp,
		CardType:        weighted(f, models.CardTypes, cardTypeWeights),
		CardColor:       weighted(f, models.CardColors, cardColorWeights),
		TransactionType: weighted(f, models.TransactionTypes, txTypeWeights),
		Location: models.Location{
			Lat:   place.Lat,
			Lng:   place.Lng,
			City:  place.City,
			State: place.State,
		},
		Timestamp: g.clock().UTC(),
	}, place
}

// weighted picks one option with probability proportional to its weight.
func weighted[T any](f *gofakeit.Faker, options []T, weights []int) T {
	total := 0
	for _, w := range weights {
		total += w
	}
	n := f.Number(1, total)
	for i, w := range weights {
		if n <= w {
			return options[i]
		}
		n -= w
	}
	return options[len(options)-1]
}

// cpf returns an 11 digit Brazilian tax id with valid mod-11 check digits.
func cpf(f *gofakeit.Faker) string {
	digits := make([]int, 9, 11)
	for i := range digits {
		digits[i] = f.Number(0, 9)
	}
	for len(digits) < 11 {
		digits = append(digits, checkDigit(digits))
	}

	out := make([]byte, len(digits))
	for i, d := range digits {
		out[i] = byte('0' + d)
	}
	return string(out)
}

func checkDigit(digits []int) int {
	sum := 0
	for i, d := range digits {
		sum += (len(digits) + 1 - i) * d
	}
	if r := sum % 11; r > 1 {
		return 11 - r
	}
	return 0
}

// ValidCPF reports whether s is an 11 digit tax id with correct check digits.
func ValidCPF(s string) bool {
	if len(s) != 11 {
		return false
	}
	digits := make([]int, 11)
	for i, c := range s {
		if c < '0' || c > '9' {
			return false
		}
		digits[i] = int(c - '0')
	}
	return checkDigit(digits[:9]) == digits[9] && checkDigit(digits[:10]) == digits[10]
}
