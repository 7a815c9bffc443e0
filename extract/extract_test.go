package extract

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/dszqbsm/rentmonitor/listing"
)

const baseURL = "https://www.vivareal.com.br"

const fullCard = `
<article class="property-card__container js-property-card">
  <a class="property-card__content-link js-card-title" href="/imovel/apartamento-2-quartos-centro-florianopolis-70m2-aluguel-RS2500-id-2612345678/">
    <h2><span class="property-card__title js-cardLink js-card-title">
      Apartamento com 2 Quartos para Alugar, 70m²
    </span></h2>
    <span class="property-card__address">Rua Bocaiúva, 2125 - Centro, Florianópolis - SC</span>
  </a>
  <ul class="property-card__details">
    <li class="property-card__detail-item property-card__detail-area"><span class="property-card__detail-value js-property-card-value js-property-card-detail-area">70</span> m²</li>
    <li class="property-card__detail-item property-card__detail-room js-property-detail-rooms"><span class="property-card__detail-value js-property-card-value">2</span> Quartos</li>
    <li class="property-card__detail-item property-card__detail-bathroom"><span class="property-card__detail-value js-property-card-value">1</span> Banheiro</li>
    <li class="property-card__detail-item property-card__detail-garage"><span class="property-card__detail-value js-property-card-value">1</span> Vaga</li>
  </ul>
  <ul class="property-card__amenities">
    <li class="amenities__item"> Piscina </li>
    <li class="amenities__item">Elevador</li>
  </ul>
  <div class="property-card__price js-property-card-prices"><p>R$ 2.500 <span>/mês</span></p></div>
  <footer><strong class="js-condo-price">R$ 450</strong></footer>
</article>`

// 缺少价格，车位为"--"
const partialCard = `
<article class="property-card__container js-property-card">
  <a class="property-card__content-link js-card-title" href="/imovel/galpao-deposito-armazem-saco-grande-500m2-aluguel-id-42/">
    <span class="js-card-title">Galpão/Depósito/Armazém para Alugar, 500m²</span>
    <span class="property-card__address">Saco Grande, Florianópolis - SC</span>
  </a>
  <span class="js-property-card-detail-area">500</span>
  <li class="property-card__detail-room">--</li>
  <li class="property-card__detail-garage"><span class="property-card__detail-value">--</span></li>
</article>`

func parseCard(t *testing.T, fragment string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	require.NoError(t, err)
	card := doc.Find(DefaultSelectors.Card).First()
	require.Equal(t, 1, card.Length())
	return card
}

func newFormatter() *Formatter {
	clock := func() time.Time { return time.Date(2023, 11, 28, 10, 0, 0, 0, time.UTC) }
	return NewFormatter(NewRegistry(DefaultSelectors, baseURL),
		WithSource("vivareal"), WithCity("florianopolis"), WithClock(clock))
}

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		street       string
		number       int64
		neighborhood string
		wantNumber   bool
	}{
		{name: "full", raw: "Rua Bocaiúva, 2125 - Centro, Florianópolis - SC",
			street: "Rua Bocaiúva", number: 2125, neighborhood: "Centro", wantNumber: true},
		{name: "no number", raw: "Rua Lauro Linhares - Trindade, Florianópolis - SC",
			street: "Rua Lauro Linhares", neighborhood: "Trindade"},
		{name: "pipe and slash", raw: "Avenida Beira Mar Norte, 100 | Agronômica / Florianópolis; SC",
			street: "Avenida Beira Mar Norte", number: 100, neighborhood: "Agronômica", wantNumber: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := SplitAddress(tt.raw)
			street, err := a.Street()
			require.NoError(t, err)
			assert.Equal(t, tt.street, street)
			hood, err := a.Neighborhood()
			require.NoError(t, err)
			assert.Equal(t, tt.neighborhood, hood)
			n, err := a.Number()
			if tt.wantNumber {
				require.NoError(t, err)
				assert.Equal(t, tt.number, n)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSplitAddressWithoutStreet(t *testing.T) {
	a := SplitAddress("Centro, Florianópolis - SC")
	_, err := a.Street()
	assert.ErrorIs(t, err, ErrTokenIndex)
	hood, err := a.Neighborhood()
	require.NoError(t, err)
	assert.Equal(t, "Centro", hood)
	_, err = a.Number()
	assert.ErrorIs(t, err, ErrTokenIndex)
}

func TestSplitAddressShort(t *testing.T) {
	a := SplitAddress("Florianópolis")
	_, err := a.Street()
	assert.ErrorIs(t, err, ErrTokenIndex)
	_, err = a.Neighborhood()
	assert.ErrorIs(t, err, ErrTokenIndex)
	_, err = a.Number()
	assert.ErrorIs(t, err, ErrTokenIndex)
}

func TestRegistryResolvesEveryField(t *testing.T) {
	r := NewRegistry(DefaultSelectors, baseURL)
	for _, f := range listing.Fields {
		_, ok := r.Resolve(f)
		assert.True(t, ok, "field %s", f)
	}
	_, ok := r.Resolve(listing.Field("capture_timestamp"))
	assert.False(t, ok)
}

func TestFormatFullCard(t *testing.T) {
	res := newFormatter().Format(parseCard(t, fullCard))
	assert.Empty(t, res.Failures)

	l := res.Listing
	assert.Equal(t, int64(2612345678), l.ListingID)
	assert.Equal(t, "vivareal", l.Source)
	assert.Equal(t, "florianopolis", l.City)
	assert.Equal(t, "Apartamento com 2 Quartos para Alugar, 70m²", *l.Title)
	assert.Equal(t, "apartamento", *l.ListingType)
	assert.Equal(t, "Rua Bocaiúva, 2125 - Centro, Florianópolis - SC", *l.RawAddress)
	assert.Equal(t, "Rua Bocaiúva", *l.Street)
	assert.Equal(t, int64(2125), *l.StreetNumber)
	assert.Equal(t, "Centro", *l.Neighborhood)
	assert.Equal(t, 2500.0, *l.Price)
	assert.Equal(t, listing.PeriodMonth, *l.PricePeriod)
	assert.Equal(t, 450.0, *l.CondoFee)
	assert.Equal(t, 70.0, *l.Area)
	assert.Equal(t, int64(2), *l.RoomCount)
	assert.Equal(t, int64(1), *l.BathroomCount)
	assert.Equal(t, int64(1), *l.ParkingCount)
	assert.Equal(t, baseURL+"/imovel/apartamento-2-quartos-centro-florianopolis-70m2-aluguel-RS2500-id-2612345678/", *l.URL)
	assert.Equal(t, "Piscina; Elevador", l.Amenities)
	assert.Equal(t, time.Date(2023, 11, 28, 10, 0, 0, 0, time.UTC), l.CaptureTimestamp)
}

func TestFormatIsolatesFieldFailures(t *testing.T) {
	res := newFormatter().Format(parseCard(t, partialCard))
	l := res.Listing

	for _, f := range []listing.Field{
		listing.FieldPrice, listing.FieldPeriod, listing.FieldCondoFee,
		listing.FieldRoomCount, listing.FieldParkingCount, listing.FieldBathroomCount,
		listing.FieldStreetNumber, listing.FieldStreet,
	} {
		assert.True(t, res.Failed(f), "field %s should fail", f)
	}
	assert.Nil(t, l.Price)
	assert.Nil(t, l.PricePeriod)
	assert.Nil(t, l.CondoFee)
	assert.Nil(t, l.RoomCount)
	assert.Nil(t, l.ParkingCount)
	assert.Nil(t, l.StreetNumber)
	assert.Nil(t, l.Street)

	assert.Equal(t, int64(42), l.ListingID)
	assert.Equal(t, "galpão/depósito/armazém", *l.ListingType)
	assert.Equal(t, 500.0, *l.Area)
	assert.Equal(t, "Saco Grande", *l.Neighborhood)
	assert.Equal(t, "", l.Amenities)
	assert.False(t, res.Failed(listing.FieldAmenities))

	for _, fe := range res.Failures {
		if fe.Field == listing.FieldPrice {
			assert.ErrorIs(t, fe, ErrMissingElement)
		}
		if fe.Field == listing.FieldParkingCount {
			assert.ErrorIs(t, fe, ErrNoDigits)
		}
	}
}

func TestFormatRecoversFromPanickingRule(t *testing.T) {
	f := newFormatter()
	f.registry.rules[listing.FieldTitle] = func(*goquery.Selection) (any, error) {
		panic("boom")
	}
	f.registry.rules[listing.FieldArea] = func(*goquery.Selection) (any, error) {
		return "not a number", nil
	}

	res := f.Format(parseCard(t, fullCard))
	assert.Nil(t, res.Listing.Title)
	assert.Nil(t, res.Listing.Area)
	assert.True(t, res.Failed(listing.FieldTitle))
	assert.True(t, res.Failed(listing.FieldArea))
	assert.NotNil(t, res.Listing.Price)
	assert.NotNil(t, res.Listing.ListingType)

	for _, fe := range res.Failures {
		if fe.Field == listing.FieldArea {
			assert.True(t, errors.Is(fe, ErrTypeMismatch))
		}
	}
}

func TestFormatID(t *testing.T) {
	f := newFormatter()
	id, err := f.FormatID(parseCard(t, fullCard))
	require.NoError(t, err)
	assert.Equal(t, int64(2612345678), id)

	noLink := parseCard(t, `<article class="property-card__container"><span class="js-card-title">x</span></article>`)
	_, err = f.FormatID(noLink)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, listing.FieldID, fe.Field)
	assert.ErrorIs(t, err, ErrMissingElement)
}

func TestPricePeriodLabels(t *testing.T) {
	r := NewRegistry(DefaultSelectors, baseURL)
	rule, _ := r.Resolve(listing.FieldPeriod)
	tests := []struct {
		price string
		want  string
	}{
		{"R$ 300 /dia", listing.PeriodDay},
		{"R$ 1.500 /Mês", listing.PeriodMonth},
		{"R$ 9.000 /ano", "ano"},
	}
	for _, tt := range tests {
		card := parseCard(t, `<article class="property-card__container"><div class="property-card__price">`+tt.price+`</div></article>`)
		got, err := rule(card)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.price)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"R$ 2.500 /mês", 2500},
		{"R$ 1.500,50", 1500.5},
		{"R$ 450", 450},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.raw)
	}
	_, err := parseAmount("Sob consulta")
	assert.ErrorIs(t, err, ErrNoDigits)
}

func TestResultCount(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html><body><h1><strong class="results-summary__count js-total-records">1.234</strong> Imóveis</h1></body></html>`))
	require.NoError(t, err)
	n, err := ResultCount(doc, DefaultSelectors.ResultCount)
	require.NoError(t, err)
	assert.Equal(t, 1234, n)

	empty, err := html.Parse(strings.NewReader(`<html><body></body></html>`))
	require.NoError(t, err)
	_, err = ResultCount(empty, DefaultSelectors.ResultCount)
	assert.ErrorIs(t, err, ErrMissingElement)
}
