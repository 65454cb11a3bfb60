package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tmpl := Parse("#PBS -N {jobname}\n#PBS -t 1-{numexps}\nnetlogo-headless.sh --model {model} --experiment '{experiment}' --table {csvfpath}/{experiment}_${{PBS_ARRAYID}}.csv\n")

	out, unknown := tmpl.Render(map[string]string{
		KeyJobName:    "fire",
		KeyNumExps:    "6",
		KeyModel:      "/models/fire.nlogo",
		KeyExperiment: "density sweep",
		KeyCSVPath:    "/out",
	})

	assert.Empty(t, unknown)
	assert.Equal(t, "#PBS -N fire\n#PBS -t 1-6\nnetlogo-headless.sh --model /models/fire.nlogo --experiment 'density sweep' --table /out/density sweep_${PBS_ARRAYID}.csv\n", out)
}

func TestRenderLeavesUnknownKeys(t *testing.T) {
	tmpl := Parse("echo ${PBS_ARRAYID} {model} {queue} {queue}")

	out, unknown := tmpl.Render(map[string]string{KeyModel: "m.nlogo"})
	assert.Equal(t, "echo ${PBS_ARRAYID} m.nlogo {queue} {queue}", out)
	assert.Equal(t, []string{"PBS_ARRAYID", "queue"}, unknown)
}

func TestParseNonPlaceholders(t *testing.T) {
	tmpl := Parse("if [ x ]; then { echo; }; fi {1bad} {ok_1} {unterminated")

	assert.Equal(t, []string{"ok_1"}, tmpl.Keys())
	out, unknown := tmpl.Render(map[string]string{"ok_1": "yes"})
	assert.Equal(t, "if [ x ]; then { echo; }; fi {1bad} yes {unterminated", out)
	assert.Empty(t, unknown)
}

func TestKeysOrder(t *testing.T) {
	tmpl := Parse("{b}{a}{b}{c}")
	assert.Equal(t, []string{"b", "a", "c"}, tmpl.Keys())
	assert.Equal(t, []string{"a", "c"}, tmpl.Unknown(map[string]string{"b": ""}))
}
