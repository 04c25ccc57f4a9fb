package classify

import (
	"testing"

	"github.com/rahul4469/crisis-analyzer/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.EmergencyType
	}{
		{"smoke and flames", "I see smoke and flames", models.EmergencyFire},
		{"hurricane", "hurricane winds approaching", models.EmergencyHurricane},
		{"flood", "flood water rising", models.EmergencyFlood},
		{"nothing", "nothing unusual", models.EmergencyNone},
		{"upper case", "FIRE!!", models.EmergencyFire},
		{"mixed case", "Heavy RAIN tonight", models.EmergencyFlood},
		{"substring", "the heartburn is bad", models.EmergencyFire},
		{"empty", "", models.EmergencyNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	// fire keywords are checked before hurricane and flood
	assert.Equal(t, models.EmergencyFire, Classify("rain put out most of the fire"))
	assert.Equal(t, models.EmergencyFire, Classify("storm winds spread the smoke"))
	assert.Equal(t, models.EmergencyHurricane, Classify("storm surge water"))
}

func TestClassifyWith_OverlappingRules(t *testing.T) {
	overlapping := []rule{
		{models.EmergencyFire, []string{"alarm"}},
		{models.EmergencyFlood, []string{"alarm", "water"}},
	}
	assert.Equal(t, models.EmergencyFire, classifyWith(overlapping, "water alarm"))
	assert.Equal(t, models.EmergencyFlood, classifyWith(overlapping, "water"))
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"fire", "smoke", "burn"}, Keywords(models.EmergencyFire))
	assert.Nil(t, Keywords(models.EmergencyNone))

	kw := Keywords(models.EmergencyFlood)
	kw[0] = "mutated"
	assert.Equal(t, "flood", Keywords(models.EmergencyFlood)[0])
}
