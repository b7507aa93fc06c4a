package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trainingCSV = `f1,f2,f3,label
5,0,0,0
4,1,0,0
0,0,5,1
0,1,4,1
1,4,0,2
0,5,1,2
3,0,1,0
0,1,3,1
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTrainThenInspect(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "train.csv", trainingCSV)
	output := filepath.Join(dir, "models", "nb.gob")

	out, err := execute(t, "train",
		"--input", input,
		"--output", output,
		"--label-size", "3",
		"--batch-size", "3",
		"--header",
		"--log-level", "error",
		"--param", "alpha=0.5",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "trained 3 batches (8 samples)")
	assert.Contains(t, out, "model saved to "+output)
	assert.FileExists(t, output)

	out, err = execute(t, "inspect", output)
	require.NoError(t, err)
	assert.Contains(t, out, "alpha: 0.5")
	assert.Contains(t, out, "classes: [0 1 2]")
	assert.Contains(t, out, "samples_seen: 8")
}

func TestTrainFromConfigFileWithDrift(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "train.csv", trainingCSV)
	output := filepath.Join(dir, "nb.gob")
	cfg := writeFile(t, dir, "run.yaml", strings.Join([]string{
		"input: " + input,
		"output: " + output,
		"label_size: 3",
		"batch_size: 4",
		"header: true",
		"log_level: error",
		"params:",
		"  fitPrior: false",
		"drift:",
		"  enabled: true",
		"  detector: adwin",
	}, "\n"))

	out, err := execute(t, "train", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "trained 2 batches (8 samples)")
	assert.Contains(t, out, "prequential accuracy")

	out, err = execute(t, "inspect", output)
	require.NoError(t, err)
	assert.Contains(t, out, "fit_prior: false")
}

func TestTrainFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "train.csv", trainingCSV)
	output := filepath.Join(dir, "nb.gob")
	cfg := writeFile(t, dir, "run.yaml", "input: "+input+"\noutput: "+output+"\nlabel_size: 3\nbatch_size: 100\nheader: true\nlog_level: error\n")

	out, err := execute(t, "train", "--config", cfg, "--batch-size", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "trained 4 batches")
}

func TestTrainFailures(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "train.csv", trainingCSV)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing label size",
			args:    []string{"--input", input, "--output", filepath.Join(dir, "a.gob")},
			wantErr: "label_size",
		},
		{
			name:    "unknown hyperparameter",
			args:    []string{"--input", input, "--output", filepath.Join(dir, "b.gob"), "--label-size", "3", "--header", "--param", "max_depth=3"},
			wantErr: "max_depth",
		},
		{
			name:    "label outside label space",
			args:    []string{"--input", input, "--output", filepath.Join(dir, "c.gob"), "--label-size", "2", "--header"},
			wantErr: "label",
		},
		{
			name:    "malformed param",
			args:    []string{"--input", input, "--output", filepath.Join(dir, "d.gob"), "--label-size", "3", "--param", "alpha"},
			wantErr: "key=value",
		},
		{
			name:    "missing input file",
			args:    []string{"--input", filepath.Join(dir, "nope.csv"), "--output", filepath.Join(dir, "e.gob"), "--label-size", "3"},
			wantErr: "open input",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"train", "--log-level", "error"}, tt.args...)
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
	// a failed run leaves no model behind
	for _, name := range []string{"b.gob", "c.gob"} {
		assert.NoFileExists(t, filepath.Join(dir, name))
	}
}

func TestInspectMissingModel(t *testing.T) {
	_, err := execute(t, "inspect", filepath.Join(t.TempDir(), "missing.gob"))
	assert.Error(t, err)
}
