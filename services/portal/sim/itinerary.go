package sim

import (
	"io/ioutil"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ItineraryStop is a stop of the simulated train.
type ItineraryStop struct {
	Label string `yaml:"label" validate:"required"`
	Code  string `yaml:"code"`
	// Offset is the scheduled time of the stop relative to departure.
	Offset      time.Duration `yaml:"offset" validate:"gte=0"`
	Delay       int           `yaml:"delay" validate:"gte=0"`
	DelayReason string        `yaml:"delayReason"`
}

// Itinerary describes the simulated train.
type Itinerary struct {
	Carrier string          `yaml:"carrier" validate:"required"`
	Number  string          `yaml:"number" validate:"required"`
	Stops   []ItineraryStop `yaml:"stops" validate:"required,min=2,dive"`
}

// Duration is the scheduled time between the first and last stop.
func (it *Itinerary) Duration() time.Duration {
	return it.Stops[len(it.Stops)-1].Offset - it.Stops[0].Offset
}

// DefaultItinerary is used when no itinerary file is supplied.
func DefaultItinerary() *Itinerary {
	return &Itinerary{
		Carrier: "TGV INOUI",
		Number:  "6611",
		Stops: []ItineraryStop{
			{Label: "Paris Gare de Lyon", Code: "87686006"},
			{Label: "Lyon Part Dieu", Code: "87723197", Offset: 2 * time.Hour, Delay: 12, DelayReason: "Panne de signalisation"},
			{Label: "Grenoble", Code: "87747006", Offset: 3*time.Hour + 5*time.Minute},
		},
	}
}

// LoadItinerary reads and validates an itinerary YAML file.
func LoadItinerary(path string) (*Itinerary, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var it Itinerary
	if err := yaml.Unmarshal(data, &it); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(it); err != nil {
		return nil, err
	}
	return &it, nil
}
