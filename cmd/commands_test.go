package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hujh08/imfit/internal/config"
	"github.com/hujh08/imfit/internal/fit"
	"github.com/hujh08/imfit/internal/function"
	"github.com/hujh08/imfit/internal/model"
	"github.com/hujh08/imfit/internal/store"
)

const truthConfig = `ZERO_POINT 20
NPOINTS 41
X_MIN 0
X_MAX 40

X0 0
FUNCTION Exponential-1D
mu_0 20
h    8
`

const fitConfigTemplate = `ZERO_POINT 20
DATA_FILE %DATA%

X0 0 fixed
FUNCTION Exponential-1D
mu_0 21   18,23
h    12   2,20
`

func parseString(t *testing.T, text string, valuesOnly bool) *config.ParsedModelSpec {
	t.Helper()
	parse := config.Parse
	if valuesOnly {
		parse = config.ParseValues
	}
	spec, err := parse(strings.NewReader(text), config.ParseOptions{})
	require.NoError(t, err)
	return spec
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestApplyConfigOptions(t *testing.T) {
	t.Run("file values, last wins", func(t *testing.T) {
		spec := parseString(t, "ZERO_POINT 20\nZERO_POINT 25\nDATA_FILE a.dat\nNCOLS 50\nX_MIN 1\nX_MAX 9\n\nX0 0\nFUNCTION Delta-1D\nmu_0 0\n", true)
		var mo modelOptions
		require.NoError(t, applyConfigOptions(spec, &mo))
		assert.Equal(t, 25.0, mo.ZeroPoint)
		assert.Equal(t, "a.dat", mo.DataFile)
		assert.Equal(t, 50, mo.NPoints)
		assert.Equal(t, 1.0, mo.XMin)
		assert.Equal(t, 9.0, mo.XMax)
	})

	t.Run("flags win", func(t *testing.T) {
		spec := parseString(t, "ZERO_POINT 20\nDATA_FILE a.dat\n\nX0 0\nFUNCTION Delta-1D\nmu_0 0\n", true)
		mo := modelOptions{ZeroPoint: 30, zeroPointSet: true, DataFile: "b.dat", dataFileSet: true}
		require.NoError(t, applyConfigOptions(spec, &mo))
		assert.Equal(t, 30.0, mo.ZeroPoint)
		assert.Equal(t, "b.dat", mo.DataFile)
	})

	t.Run("unknown keyword ignored", func(t *testing.T) {
		spec := parseString(t, "GAIN 4\n\nX0 0\nFUNCTION Delta-1D\nmu_0 0\n", true)
		var mo modelOptions
		assert.NoError(t, applyConfigOptions(spec, &mo))
	})

	errorCases := map[string]string{
		"bad npoints":   "NPOINTS -3\n",
		"float npoints": "NCOLUMNS 2.5\n",
		"bad number":    "ZERO_POINT abc\n",
		"empty range":   "X_MIN 5\nX_MAX 5\n",
	}
	for name, opts := range errorCases {
		t.Run(name, func(t *testing.T) {
			spec := parseString(t, opts+"\nX0 0\nFUNCTION Delta-1D\nmu_0 0\n", true)
			var mo modelOptions
			assert.Error(t, applyConfigOptions(spec, &mo))
		})
	}
}

func TestSampleGrid(t *testing.T) {
	assert.Equal(t, []float64{0, 2.5, 5, 7.5, 10}, sampleGrid(5, 0, 10))
	assert.Equal(t, []float64{3}, sampleGrid(1, 3, 7))
}

func TestMakeProfile(t *testing.T) {
	spec := parseString(t, truthConfig, true)

	var buf bytes.Buffer
	require.NoError(t, makeProfile(&buf, spec, modelOptions{}, profileExtras{}))

	p, err := model.ReadProfile(&buf)
	require.NoError(t, err)
	require.Equal(t, 41, p.Len())
	assert.Equal(t, 0.0, p.X[0])
	assert.Equal(t, 40.0, p.X[40])
	assert.InDelta(t, 1.0, p.Y[0], 1e-12)
	assert.InDelta(t, 0.36787944117, p.Y[8], 1e-9)
}

func TestMakeProfile_FlagsOverrideFile(t *testing.T) {
	spec := parseString(t, truthConfig, true)

	var buf bytes.Buffer
	mo := modelOptions{NPoints: 3, nPointsSet: true, XMax: 8, xMaxSet: true}
	require.NoError(t, makeProfile(&buf, spec, mo, profileExtras{}))

	p, err := model.ReadProfile(&buf)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 4, 8}, p.X)
}

func TestMakeProfile_OutputFunctions(t *testing.T) {
	spec := parseString(t, "X0 0\nFUNCTION Exponential-1D\nmu_0 0\nh 8\n\nX0 20\nFUNCTION Gaussian-1D\nmu_0 0\nsigma 2\n", true)
	root := filepath.Join(t.TempDir(), "comp")

	var buf bytes.Buffer
	mo := modelOptions{NPoints: 41, nPointsSet: true, XMax: 40, xMaxSet: true}
	require.NoError(t, makeProfile(&buf, spec, mo, profileExtras{FunctionRoot: root}))

	total, err := model.ReadProfile(&buf)
	require.NoError(t, err)

	exp, err := model.ReadProfileFile(root + "1_Exponential-1D.dat")
	require.NoError(t, err)
	gauss, err := model.ReadProfileFile(root + "2_Gaussian-1D.dat")
	require.NoError(t, err)

	require.Equal(t, total.Len(), exp.Len())
	for i := range total.Y {
		assert.InDelta(t, total.Y[i], exp.Y[i]+gauss.Y[i], 1e-9, "x=%g", total.X[i])
	}
	// each component keeps its own set's X0
	assert.InDelta(t, 1.0, exp.Y[0], 1e-9)
	assert.InDelta(t, 1.0, gauss.Y[20], 1e-9)
}

func TestMakeProfile_PrintFluxes(t *testing.T) {
	spec := parseString(t, truthConfig, true)

	t.Run("with zero point", func(t *testing.T) {
		var report bytes.Buffer
		extras := profileExtras{PrintFluxes: true, Report: &report}
		require.NoError(t, makeProfile(nil, spec, modelOptions{}, extras))

		out := report.String()
		assert.Contains(t, out, "using zero point = 20")
		assert.Contains(t, out, "Exponential-1D")
		assert.Contains(t, out, "Total")

		// I_0 = 1 at mu_0 = ZERO_POINT, h = 8, on the 41-point grid over [0, 40]
		x := sampleGrid(41, 0, 40)
		y := make([]float64, len(x))
		for i, xi := range x {
			y[i] = math.Exp(-xi / 8)
		}
		flux := model.Flux(x, y)
		assert.InDelta(t, 8*(1-math.Exp(-5)), flux, 0.02)
		assert.Contains(t, out, fmt.Sprintf("%.4e", flux))
		assert.Contains(t, out, fmt.Sprintf("%.4f", model.Magnitude(flux, 20)))
		assert.Contains(t, out, "1.00000")
	})

	t.Run("without zero point", func(t *testing.T) {
		noZP := parseString(t, "X0 0\nFUNCTION Exponential-1D\nmu_0 0\nh 8\n", true)
		var report bytes.Buffer
		extras := profileExtras{PrintFluxes: true, Report: &report}
		require.NoError(t, makeProfile(nil, noZP, modelOptions{}, extras))

		assert.NotContains(t, report.String(), "zero point")
		assert.Contains(t, report.String(), "---")
	})
}

func TestMakeProfile_Timing(t *testing.T) {
	spec := parseString(t, truthConfig, true)

	var buf, report bytes.Buffer
	require.NoError(t, makeProfile(&buf, spec, modelOptions{}, profileExtras{Timing: 3, Report: &report}))

	assert.Contains(t, report.String(), "from 3 iterations")
	p, err := model.ReadProfile(&buf)
	require.NoError(t, err)
	assert.Equal(t, 41, p.Len())
}

func TestFunctionProfilePath(t *testing.T) {
	assert.Equal(t, "out/disk_1_Sersic-1D.dat", functionProfilePath("out/disk_", 0, "Sersic-1D"))
	assert.Equal(t, "comp3_Delta-1D.dat", functionProfilePath("comp", 2, "Delta-1D"))
}

func TestWriteSampleConfig(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSampleConfig(&buf))

	spec, err := config.Parse(&buf, config.ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sersic-1D", "Exponential-1D"}, spec.FunctionNames())
	assert.True(t, spec.LimitsFound)

	_, err = fit.SearchIntervals(spec.Parameters, spec.Bounds)
	assert.NoError(t, err, "sample config should be fittable as written")

	_, err = model.Assemble(function.Default(), spec, 0)
	assert.NoError(t, err)
}

func TestWriteDescriptions(t *testing.T) {
	descs := function.Default().Describe()

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeDescriptions(&buf, descs, "text"))
		assert.True(t, strings.HasPrefix(buf.String(), "FUNCTION Exponential-1D\nmu_0\nh\n"))
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeDescriptions(&buf, descs, "json"))
		var got []function.Description
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, descs, got)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeDescriptions(&buf, descs, "YAML"))
		var got []function.Description
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, descs, got)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, writeDescriptions(&bytes.Buffer{}, descs, "xml"))
	})
}

func TestSummarize(t *testing.T) {
	spec := parseString(t, "GAIN 4\n\nX0 0 fixed\nFUNCTION Exponential-1D\nmu_0 20 18,22\nh 5\n\nX0 10 5,15\nFUNCTION Delta-1D\nmu_0 1 fixed\n", false)

	var buf bytes.Buffer
	require.NoError(t, summarize(&buf, spec))
	out := buf.String()

	assert.Contains(t, out, "GAIN")
	assert.Contains(t, out, "Function sets: 2")
	assert.Contains(t, out, "Parameters:    6")
	assert.Contains(t, out, "limited: 2, fixed: 2, free: 1")
	assert.Contains(t, out, "fitting requires limits")
}

func TestCheckConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "ok.dat")
		writeFile(t, path, truthConfig)

		var buf bytes.Buffer
		require.NoError(t, checkConfig(&buf, path, config.ParseOptions{}, false))
		assert.Contains(t, buf.String(), path+": OK")
		assert.Contains(t, buf.String(), "Exponential-1D")
	})

	t.Run("unknown component", func(t *testing.T) {
		path := filepath.Join(dir, "typo.dat")
		writeFile(t, path, "X0 0\nFUNCTION Exponentail-1D\nmu_0 20\nh 8\n")

		var buf bytes.Buffer
		err := checkConfig(&buf, path, config.ParseOptions{}, false)
		require.ErrorIs(t, err, function.ErrUnknownComponent)
		assert.Contains(t, err.Error(), "Exponentail-1D")
		assert.Empty(t, buf.String())
	})

	t.Run("wrong parameter count", func(t *testing.T) {
		path := filepath.Join(dir, "short.dat")
		// four values in total, split 1 + 3 between two 2-parameter functions
		writeFile(t, path, "X0 0\nFUNCTION Exponential-1D\nmu_0 20\nFUNCTION Exponential-1D\nmu_0 21\nh 8\nextra 3\n")

		err := checkConfig(&bytes.Buffer{}, path, config.ParseOptions{}, false)
		var pce *model.ParameterCountError
		require.ErrorAs(t, err, &pce)
		assert.Equal(t, "Exponential-1D", pce.Function)
		assert.Equal(t, 2, pce.Line)
		assert.Equal(t, 2, pce.Expected)
		assert.Equal(t, 1, pce.Got)
	})

	t.Run("layout error", func(t *testing.T) {
		path := filepath.Join(dir, "empty.dat")
		writeFile(t, path, "GAIN 4\n")

		err := checkConfig(&bytes.Buffer{}, path, config.ParseOptions{}, false)
		require.ErrorIs(t, err, config.ErrNoFunctionSection)
		assert.Contains(t, err.Error(), "layout error")
	})

	t.Run("limit error", func(t *testing.T) {
		path := filepath.Join(dir, "limits.dat")
		writeFile(t, path, "X0 0\nFUNCTION Exponential-1D\nmu_0 20 25,18\nh 8\n")

		err := checkConfig(&bytes.Buffer{}, path, config.ParseOptions{}, false)
		require.ErrorIs(t, err, config.ErrInvalidLimit)
		assert.Contains(t, err.Error(), "limit error")
	})
}

func TestBatchOutPath(t *testing.T) {
	assert.Equal(t, filepath.Join("fits", "a.bestfit.dat"), batchOutPath(filepath.Join("fits", "a.conf"), ""))
	assert.Equal(t, filepath.Join("out", "b.bestfit.dat"), batchOutPath("b", "out"))
}

// setupFit writes a synthetic profile and a fit configuration into dir
func setupFit(t *testing.T, dir string) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, makeProfile(&buf, parseString(t, truthConfig, true), modelOptions{}, profileExtras{}))
	dataPath := filepath.Join(dir, "profile.dat")
	writeFile(t, dataPath, buf.String())

	configPath := filepath.Join(dir, "fit.conf")
	writeFile(t, configPath, strings.Replace(fitConfigTemplate, "%DATA%", dataPath, 1))
	return configPath
}

func TestRunFitJob(t *testing.T) {
	dir := t.TempDir()
	configPath := setupFit(t, dir)

	runStore, err := store.NewFSStore(filepath.Join(dir, "data"))
	require.NoError(t, err)

	job := fitJob{
		ConfigPath:  configPath,
		OutPath:     filepath.Join(dir, "best.dat"),
		Generations: 150,
		Seed:        7,
		Store:       runStore,
	}
	outcome, err := runFitJob(job)
	require.NoError(t, err)

	assert.Less(t, outcome.Result.BestCost, outcome.Result.InitialCost)
	assert.Less(t, outcome.Result.BestCost, 1e-3)

	best, err := config.ParseFile(job.OutPath, config.ParseOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 20.0, best.Parameters[1], 0.05)
	assert.InDelta(t, 8.0, best.Parameters[2], 0.1)
	assert.Equal(t, config.FixedBound(), best.Bounds[0])

	run, err := runStore.LoadRun(outcome.RunID)
	require.NoError(t, err)
	assert.Equal(t, fit.SolverDE, run.Solver)
	assert.Equal(t, []string{"X0", "mu_0", "h"}, run.Labels)

	tr, err := store.NewTraceReader(runStore.BaseDir(), outcome.RunID)
	require.NoError(t, err)
	defer tr.Close()
	entries, err := tr.ReadAll()
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestRunFitJob_MissingLimits(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "free.conf")
	writeFile(t, configPath, "DATA_FILE unused.dat\n\nX0 0 fixed\nFUNCTION Exponential-1D\nmu_0 20\nh 5 1,10\n")
	writeFile(t, filepath.Join(dir, "unused.dat"), "0 1\n1 0.5\n")

	t.Chdir(dir)
	runStore, err := store.NewFSStore(filepath.Join(dir, "data"))
	require.NoError(t, err)

	_, err = runFitJob(fitJob{ConfigPath: configPath, OutPath: "out.dat", Generations: 5, Store: runStore})
	require.ErrorIs(t, err, fit.ErrMissingBounds)
	assert.Contains(t, err.Error(), "(mu_0)")

	infos, err := runStore.ListRuns()
	require.NoError(t, err)
	assert.Empty(t, infos)
	entries, _ := os.ReadDir(filepath.Join(dir, "data", "runs"))
	assert.Empty(t, entries, "failed fit should leave no run directory")
}

func TestRunFitJob_NoData(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "nodata.conf")
	writeFile(t, configPath, "X0 0 fixed\nFUNCTION Delta-1D\nmu_0 1 0,2\n")

	_, err := runFitJob(fitJob{ConfigPath: configPath, OutPath: filepath.Join(dir, "out.dat")})
	assert.ErrorContains(t, err, "no data file")
}

func TestRunBatchJobs(t *testing.T) {
	dir := t.TempDir()
	good := setupFit(t, dir)
	bad := filepath.Join(dir, "bad.conf")
	writeFile(t, bad, "X0 0\nFUNCTION NoSuch-1D\np 1\n")

	jobs := []fitJob{
		{ConfigPath: good, OutPath: filepath.Join(dir, "a.out"), Generations: 20, Seed: 1},
		{ConfigPath: bad, OutPath: filepath.Join(dir, "b.out"), Generations: 20, Seed: 1},
		{ConfigPath: good, OutPath: filepath.Join(dir, "c.out"), Generations: 20, Seed: 1},
	}
	results := runBatchJobs(jobs, 2)

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, function.ErrUnknownComponent)
	assert.NoError(t, results[2].Err)

	// Same seed, same input: independent jobs agree
	assert.Equal(t, results[0].Outcome.Result.BestParams, results[2].Outcome.Result.BestParams)
	assert.FileExists(t, filepath.Join(dir, "a.out"))
	assert.NoFileExists(t, filepath.Join(dir, "b.out"))
}
