package domain

import (
	"math/rand"
	"strings"
)

// PersonAnalysis is the free-text description of the person in an uploaded
// photo. Values are opaque natural language and are never validated.
type PersonAnalysis struct {
	Age                 string `json:"age"`
	Gender              string `json:"gender"`
	SkinTone            string `json:"skinTone"`
	HairColor           string `json:"hairColor"`
	HairStyle           string `json:"hairStyle"`
	FacialFeatures      string `json:"facialFeatures"`
	BodyType            string `json:"bodyType"`
	Height              string `json:"height"`
	DistinctiveFeatures string `json:"distinctiveFeatures"`
}

// AnalysisField is a labelled PersonAnalysis value.
type AnalysisField struct {
	Label string
	Value string
}

// Fields lists every attribute in a stable order.
func (p PersonAnalysis) Fields() []AnalysisField {
	return []AnalysisField{
		{Label: "Age", Value: p.Age},
		{Label: "Gender", Value: p.Gender},
		{Label: "Skin tone", Value: p.SkinTone},
		{Label: "Hair color", Value: p.HairColor},
		{Label: "Hair style", Value: p.HairStyle},
		{Label: "Face", Value: p.FacialFeatures},
		{Label: "Body type", Value: p.BodyType},
		{Label: "Height", Value: p.Height},
		{Label: "Distinctive features", Value: p.DistinctiveFeatures},
	}
}

// IsZero reports whether every attribute is blank.
func (p PersonAnalysis) IsZero() bool {
	for _, f := range p.Fields() {
		if strings.TrimSpace(f.Value) != "" {
			return false
		}
	}
	return true
}

// IsFemale follows the analysis prompt convention of answering in Spanish.
func (p PersonAnalysis) IsFemale() bool {
	switch strings.ToLower(strings.TrimSpace(p.Gender)) {
	case "femenino", "femenina", "mujer", "female", "woman":
		return true
	}
	return false
}

// TennisAction is one of the fixed poses the generated player is shown in.
type TennisAction string

// TennisActions is the closed set of actions a request can draw from.
var TennisActions = []TennisAction{
	"golpeando un potente forehand con forma perfecta",
	"celebrando un punto ganador con el puño en alto",
	"ejecutando un saque profesional con técnica impecable",
	"realizando una volea precisa en la red",
	"en posición atlética lista para devolver el servicio",
}

// RandomAction picks an action uniformly. A nil source uses the global one.
func RandomAction(r *rand.Rand) TennisAction {
	if r == nil {
		return TennisActions[rand.Intn(len(TennisActions))]
	}
	return TennisActions[r.Intn(len(TennisActions))]
}
