package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/print-batcher/internal/config"
	"github.com/ChuLiYu/print-batcher/internal/optimizer"
	"github.com/ChuLiYu/print-batcher/internal/report"
)

const exampleJobsJSON = `[
  {"id": "M1", "volume": 100, "priority": 2, "print_time": 120},
  {"id": "M2", "volume": 150, "priority": 1, "print_time": 90},
  {"id": "M3", "volume": 120, "priority": 3, "print_time": 150}
]`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "Failed to write temp file")
	return path
}

// run executes the CLI with a config file that does not exist, so defaults apply.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := BuildCLI()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildCLI(t *testing.T) {
	cmd := BuildCLI()

	assert.NotNil(t, cmd, "BuildCLI should return a non-nil command")
	assert.Equal(t, "printbatch", cmd.Use, "Root command should be 'printbatch'")
	assert.Equal(t, "1.0.0", cmd.Version, "Version should be 1.0.0")

	commands := cmd.Commands()
	assert.Len(t, commands, 4, "Should have 4 subcommands")

	commandNames := make(map[string]bool)
	for _, c := range commands {
		commandNames[c.Name()] = true
	}

	assert.True(t, commandNames["minmax"], "Should have 'minmax' command")
	assert.True(t, commandNames["optimize"], "Should have 'optimize' command")
	assert.True(t, commandNames["show"], "Should have 'show' command")
	assert.True(t, commandNames["serve"], "Should have 'serve' command")

	configFlag := cmd.PersistentFlags().Lookup("config")
	assert.NotNil(t, configFlag, "Should have --config flag")
	assert.Equal(t, config.DefaultPath, configFlag.DefValue)
}

func TestBuildOptimizeCommand(t *testing.T) {
	cmd := buildOptimizeCommand()

	assert.Equal(t, "optimize", cmd.Use)
	assert.NotNil(t, cmd.RunE, "RunE function should be set")

	fileFlag := cmd.Flags().Lookup("file")
	require.NotNil(t, fileFlag, "Should have --file flag")
	assert.Equal(t, "f", fileFlag.Shorthand, "Should have -f shorthand")

	for _, name := range []string{"out", "max-volume", "max-items", "separate-priorities"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "Should have --%s flag", name)
	}
}

func TestMinMaxCommand(t *testing.T) {
	out, err := run(t, "minmax", "3", "1", "4", "1", "5", "9", "2", "6")
	require.NoError(t, err)
	assert.Equal(t, "min = 1, max = 9\n", out)
}

func TestMinMaxCommand_NegativeAndFloat(t *testing.T) {
	out, err := run(t, "minmax", "--", "-5", "3.14", "-10.5")
	require.NoError(t, err)
	assert.Equal(t, "min = -10.5, max = 3.14\n", out)
}

func TestMinMaxCommand_Errors(t *testing.T) {
	_, err := run(t, "minmax")
	assert.Error(t, err, "minmax needs at least one number")

	_, err = run(t, "minmax", "1", "two")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid number "two"`)

	for _, args := range [][]string{{"NaN", "1", "2"}, {"1", "2", "nan"}} {
		_, err = run(t, append([]string{"minmax"}, args...)...)
		require.Error(t, err, "minmax %v", args)
		assert.Contains(t, err.Error(), "NaN is not ordered")
	}
}

func TestOptimizeCommand_Defaults(t *testing.T) {
	jobs := writeTemp(t, "jobs.json", exampleJobsJSON)

	out, err := run(t, "optimize", "-f", jobs)
	require.NoError(t, err)

	assert.Contains(t, out, "max_volume=300 max_items=2 separate_priorities=false")
	assert.Contains(t, out, "Batch 1: priority=1 volume=250 items=2 duration=120 [M2, M1]")
	assert.Contains(t, out, "Batch 2: priority=3 volume=120 items=1 duration=150 [M3]")
	assert.Contains(t, out, "Print order: [M2, M1, M3]")
	assert.Contains(t, out, "Total time:  270")
}

func TestOptimizeCommand_FlagOverrides(t *testing.T) {
	jobs := writeTemp(t, "jobs.yaml", `
constraints:
  max_volume: 1000
  max_items: 10
jobs:
  - {id: M1, volume: 100, priority: 2, print_time: 120}
  - {id: M2, volume: 150, priority: 1, print_time: 90}
  - {id: M3, volume: 120, priority: 3, print_time: 150}
`)

	out, err := run(t, "optimize", "-f", jobs)
	require.NoError(t, err)
	assert.Contains(t, out, "Total time:  150", "file constraints allow a single batch")

	out, err = run(t, "optimize", "-f", jobs, "--separate-priorities")
	require.NoError(t, err)
	assert.Contains(t, out, "Total time:  360")

	out, err = run(t, "optimize", "-f", jobs, "--max-items", "2", "--max-volume", "300")
	require.NoError(t, err)
	assert.Contains(t, out, "Total time:  270")
}

func TestOptimizeCommand_PartialFileConstraints(t *testing.T) {
	jobs := writeTemp(t, "jobs.yaml", `
constraints:
  max_volume: 500
jobs:
  - {id: M1, volume: 100, priority: 2, print_time: 120}
  - {id: M2, volume: 150, priority: 1, print_time: 90}
  - {id: M3, volume: 120, priority: 3, print_time: 150}
`)

	out, err := run(t, "optimize", "-f", jobs)
	require.NoError(t, err)
	assert.Contains(t, out, "max_volume=500 max_items=2", "max_items comes from the config defaults")
	assert.Contains(t, out, "Total time:  270")
}

func TestOptimizeCommand_InvalidConstraint(t *testing.T) {
	jobs := writeTemp(t, "jobs.json", exampleJobsJSON)

	for _, v := range []string{"0", "NaN"} {
		_, err := run(t, "optimize", "-f", jobs, "--max-volume", v)
		require.Error(t, err, "--max-volume %s", v)
		assert.ErrorIs(t, err, optimizer.ErrInvalidConstraint)
		assert.Contains(t, err.Error(), "max_volume")
	}
}

func TestOptimizeCommand_MissingFile(t *testing.T) {
	_, err := run(t, "optimize")
	assert.Error(t, err, "--file is required")

	_, err = run(t, "optimize", "-f", "/nonexistent/jobs.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read job file")
}

func TestOptimizeCommand_WritesReportAndShow(t *testing.T) {
	jobs := writeTemp(t, "jobs.json", exampleJobsJSON)
	plan := filepath.Join(t.TempDir(), "plan.json")

	_, err := run(t, "optimize", "-f", jobs, "-o", plan)
	require.NoError(t, err)

	r, err := report.NewManager(plan).Load()
	require.NoError(t, err)
	assert.Equal(t, jobs, r.Source)
	assert.Equal(t, []string{"M2", "M1", "M3"}, r.Result.PrintOrder)
	assert.Equal(t, 270.0, r.Result.TotalTime)

	_, err = run(t, "optimize", "-f", jobs, "-o", plan, "--separate-priorities")
	require.NoError(t, err, "an existing report is overwritten")
	r, err = report.NewManager(plan).Load()
	require.NoError(t, err)
	assert.Equal(t, 360.0, r.Result.TotalTime)

	out, err := run(t, "show", plan)
	require.NoError(t, err)
	assert.Contains(t, out, "Source:    "+jobs)
	assert.Contains(t, out, "Print order: [M2, M1, M3]")
}

func TestShowCommand_Missing(t *testing.T) {
	_, err := run(t, "show", filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, report.ErrReportNotFound)
}

func TestLoadConfigFromFlag(t *testing.T) {
	cfgPath := writeTemp(t, "custom.yaml", `
printer:
  max_volume: 1000
  max_items: 5
logging:
  level: error
  format: text
`)
	jobs := writeTemp(t, "jobs.json", exampleJobsJSON)

	cmd := BuildCLI()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-c", cfgPath, "optimize", "-f", jobs})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "max_volume=1000 max_items=5")
	assert.Contains(t, out.String(), "Total time:  150")
}

func TestServeCommand_InvalidConfig(t *testing.T) {
	cfgPath := writeTemp(t, "bad.yaml", `
server:
  port: 70000
`)

	cmd := BuildCLI()
	cmd.SetArgs([]string{"-c", cfgPath, "serve"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
