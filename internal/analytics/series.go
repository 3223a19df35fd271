package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultLabelLayout = "02.01"

// Point est le chiffre d'affaires d'un jour calendaire.
type Point struct {
	Day     time.Time
	Revenue decimal.Decimal
}

// Series est triée par jour croissant, sans doublon ni jour à zéro.
type Series struct {
	Points []Point
	layout string
}

// Response est la forme JSON attendue par le graphique.
type Response struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

func (s *Series) Labels() []string {
	layout := s.layout
	if layout == "" {
		layout = DefaultLabelLayout
	}
	labels := make([]string, 0, len(s.Points))
	for _, p := range s.Points {
		labels = append(labels, p.Day.Format(layout))
	}
	return labels
}

// Data arrondit chaque montant à deux décimales au moment de l'émission.
func (s *Series) Data() []float64 {
	data := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		data = append(data, p.Revenue.Round(2).InexactFloat64())
	}
	return data
}

func (s *Series) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Points {
		total = total.Add(p.Revenue)
	}
	return total
}

func (s *Series) Response() Response {
	return Response{Labels: s.Labels(), Data: s.Data()}
}
