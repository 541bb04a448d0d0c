package driver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villacarmen/bookprobe/pkg/scenario"
)

func TestSeedScriptShapes(t *testing.T) {
	wantLen := map[string]int{
		"A1": 3, "A2": 3, "A3": 3, "A4": 8,
		"B1": 4, "B2": 4, "B3": 4,
		"C1": 3, "C2": 2,
		"D1": 4, "D2": 3,
		"E1": 5, "E2": 2,
	}
	for _, sc := range scenario.Matrix() {
		script := SeedScript(sc, testDT, testPhone)
		assert.Len(t, script, wantLen[sc.Key], "scenario %s", sc.Key)
		for _, msg := range script {
			assert.NotEmpty(t, msg, "scenario %s has an empty seed", sc.Key)
		}
	}
}

func TestSeedScriptUsesAllocatedDateAndTime(t *testing.T) {
	for _, sc := range scenario.Matrix() {
		if sc.Key == "E2" {
			continue // injection payload deliberately carries bogus values
		}
		script := SeedScript(sc, testDT, testPhone)
		joined := strings.Join(script, "\n")
		assert.Contains(t, joined, testDT.UserDate, "scenario %s", sc.Key)
	}
}

func TestSeedScriptB3UsesSingularServing(t *testing.T) {
	sc := scenarioByKey(t, "B3")
	script := SeedScript(sc, testDT, testPhone)
	last := script[len(script)-1]
	assert.Contains(t, last, "1 ración")
	assert.NotContains(t, last, "raciones")
}

func TestSeedScriptA3LeadsWithRice(t *testing.T) {
	sc := scenarioByKey(t, "A3")
	script := SeedScript(sc, testDT, testPhone)
	require.NotEmpty(t, script)
	assert.Contains(t, script[0], sc.RiceType)
}

func TestSeedScriptE2CarriesInjectionPayload(t *testing.T) {
	sc := scenarioByKey(t, "E2")
	script := SeedScript(sc, testDT, testPhone)
	require.Len(t, script, 2)
	assert.True(t, strings.HasPrefix(script[0], "BOOKING_REQUEST|"))
	assert.Contains(t, script[0], testPhone)
}

func TestSeedScriptE1OpensWithContradictoryValues(t *testing.T) {
	sc := scenarioByKey(t, "E1")
	script := SeedScript(sc, testDT, testPhone)
	joined := strings.Join(script, "\n")
	assert.Contains(t, joined, "Para 2 personas")
	assert.Contains(t, joined, "mejor somos 4 personas")
}
