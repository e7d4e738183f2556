package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/portrait/am"
	"github.com/teranos/portrait/diag"
	"github.com/teranos/portrait/runner"
)

const shapesSrc = `package shapes

//portrait:make
type Sizer interface {
	Size() int
}

type Box struct{}

//portrait:fill default
var _ Sizer = Box{}
`

// workspace creates a package in a fresh working directory
func workspace(t *testing.T, src string) string {
	t.Helper()
	root := t.TempDir()
	t.Chdir(root)
	am.Reset()
	t.Cleanup(am.Reset)

	dir := filepath.Join(root, "shapes")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shapes.go"), []byte(src), 0644))
	return root
}

func testCmd(dryRun bool) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("dry-run", dryRun, "")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetContext(context.Background())
	return cmd, &out, &errOut
}

func TestGenerateWritesFiles(t *testing.T) {
	root := workspace(t, shapesSrc)
	cmd, out, errOut := testCmd(false)

	require.NoError(t, execute(runGenerate)(cmd, []string{"./..."}))
	assert.Empty(t, errOut.String())
	assert.Contains(t, out.String(), "✓ Generated "+filepath.Join("shapes", "shapes_portrait.go"))
	assert.Contains(t, out.String(), "✓ Generated "+filepath.Join("shapes", "shapes"+am.DefaultFileSuffix))
	assert.FileExists(t, filepath.Join(root, "shapes", "shapes"+am.DefaultFileSuffix))
}

func TestGenerateDryRun(t *testing.T) {
	root := workspace(t, shapesSrc)
	cmd, out, _ := testCmd(true)

	require.NoError(t, execute(runGenerate)(cmd, []string{"shapes"}))
	assert.Contains(t, out.String(), "would write "+filepath.Join("shapes", "shapes"+am.DefaultFileSuffix))
	assert.NoFileExists(t, filepath.Join(root, "shapes", "shapes"+am.DefaultFileSuffix))
}

func TestGenerateFailsOnErrorDiagnostics(t *testing.T) {
	workspace(t, shapesSrc+"\nfunc (b Box) Weight() int { return 1 }\n")
	cmd, _, errOut := testCmd(false)

	err := execute(runGenerate)(cmd, []string{"shapes"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 error(s)")
	assert.Contains(t, errOut.String(), `"Weight" is not a member`)
}

func TestCheckReportsDrift(t *testing.T) {
	workspace(t, shapesSrc)

	cmd, out, _ := testCmd(false)
	err := runCheck(cmd, []string{"shapes"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 generated file(s) out of date")
	assert.Contains(t, out.String(), "(missing)")

	cmd, _, _ = testCmd(false)
	require.NoError(t, execute(runGenerate)(cmd, []string{"shapes"}))

	cmd, out, _ = testCmd(false)
	require.NoError(t, runCheck(cmd, []string{"shapes"}))
	assert.Contains(t, out.String(), "up to date")
}

func TestReportCountsOnlyErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	res := &runner.Result{
		Outputs: []runner.Output{{Path: "/nowhere/x_portrait_gen.go", Delete: true}},
		Diagnostics: diag.List{
			diag.New(diag.KindShape, "constrained by any").WithSeverity(diag.SeverityWarning),
		},
	}
	require.NoError(t, report(&out, &errOut, res, false))
	assert.Contains(t, out.String(), "✓ Removed")
	assert.Contains(t, errOut.String(), "constrained by any")
}

func TestAmInitShowAndValidate(t *testing.T) {
	root := workspace(t, shapesSrc)

	cmd, out, _ := testCmd(false)
	require.NoError(t, runAmInit(cmd, nil))
	assert.Contains(t, out.String(), "✓ Wrote")
	assert.FileExists(t, filepath.Join(root, am.ConfigFileName))

	err := runAmInit(cmd, nil)
	require.Error(t, err, "refuses to overwrite without --force")

	am.Reset()
	configFormat = am.FormatJSON
	t.Cleanup(func() { configFormat = am.FormatTOML })
	cmd, out, _ = testCmd(false)
	require.NoError(t, runAmShow(cmd, nil))
	var shown map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &shown))
	assert.Contains(t, shown, "fill")

	require.NoError(t, os.WriteFile(filepath.Join(root, am.ConfigFileName), []byte("[fill]\nfile_sufix = \"_x.go\"\n"), 0644))
	am.Reset()
	cmd, out, _ = testCmd(false)
	require.NoError(t, runAmValidate(cmd, nil))
	assert.Contains(t, out.String(), "unknown key fill.file_sufix")
	assert.Contains(t, out.String(), "✓ Configuration is valid")
}

func TestVersionJSON(t *testing.T) {
	cmd, out, _ := testCmd(false)
	cmd.Flags().Bool("json", true, "")
	require.NoError(t, VersionCmd.RunE(cmd, nil))

	var info map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, "1.0.0", info["format"])
}
