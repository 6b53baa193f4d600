package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giygas/drugcost-api/config"
)

const products = `Ingredient~DF;Route~Trade_Name~Applicant~Strength~Appl_Type~Appl_No~Product_No~TE_Code~Approval_Date~RLD~RS~Type~Applicant_Full_Name
ATORVASTATIN CALCIUM~TABLET;ORAL~LIPITOR~VIATRIS~EQ 20MG BASE~N~020702~002~AB~Approved Prior to Jan 1, 1982~Yes~Yes~RX~VIATRIS SPECIALTY LLC
ATORVASTATIN CALCIUM~TABLET;ORAL~ATORVASTATIN CALCIUM~ACCORD~EQ 20MG BASE~A~076477~002~AB~Nov 30, 2011~No~No~RX~ACCORD HEALTHCARE INC
`

const partD = `Brnd_Name,Gnrc_Name,Tot_Mftr,Mftr_Name,Tot_Spndng_2022,Avg_Spnd_Per_Dsg_Unt_Wghtd_2022,Outlier_Flag_2022,Avg_Spnd_Per_Dsg_Unt_Wghtd_2023,Outlier_Flag_2023
Lipitor,Atorvastatin Calcium,1,Viatris,"1,234",2.61,0,2.75,0
Atorvastatin Calcium,Atorvastatin Calcium,12,Overall,99,0.0512,0,0.0455,0
`

// setupEnv points the CLI at fixture files and the memory backend
func setupEnv(t *testing.T) string {
	t.Helper()
	for _, key := range config.GetEnvVars() {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	dir := t.TempDir()
	obFile := filepath.Join(dir, "products.txt")
	partDFile := filepath.Join(dir, "partd.csv")
	require.NoError(t, os.WriteFile(obFile, []byte(products), 0o644))
	require.NoError(t, os.WriteFile(partDFile, []byte(partD), 0o644))

	t.Setenv("ENV", "test")
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("CATALOG_BACKEND", config.BackendMemory)
	t.Setenv("ORANGE_BOOK_FILE", obFile)
	t.Setenv("PARTD_FILE", partDFile)
	t.Setenv("PRODUCTS_DB", filepath.Join(dir, "products.db"))
	t.Setenv("MEDICARE_DB", filepath.Join(dir, "medicare.db"))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--env-file", ""}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCompareText(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "compare", "Lipitor", "20mg", "tablets")
	require.NoError(t, err)
	assert.Contains(t, out, "Medicare Part D, 2023")
	assert.Contains(t, out, "1. ATORVASTATIN CALCIUM (Generic) - $0.0455 per dose unit")
	assert.Contains(t, out, "LIPITOR (Brand) - $2.75 per dose unit")
	assert.Contains(t, out, "Consult your pharmacist.")
}

func TestCompareJSON(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "-o", "json", "compare", "--year", "2022", "--top", "1", "lipitor 20mg")
	require.NoError(t, err)

	var res struct {
		OK   bool `json:"ok"`
		Data struct {
			Report     string `json:"report"`
			Comparison struct {
				Year int `json:"year"`
			} `json:"comparison"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.OK)
	assert.Equal(t, 2022, res.Data.Comparison.Year)
	assert.Contains(t, res.Data.Report, "... and 1 more")
}

func TestCompareNoMatch(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "compare", "qwxzvbnm")
	require.ErrorIs(t, err, errToolFailed)
	assert.Contains(t, out, "No matching drug was found")
}

func TestLatestYear(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "latest-year")
	require.NoError(t, err)
	assert.Equal(t, "2023\n", out)
}

func TestIngestBuildsDatabases(t *testing.T) {
	dir := setupEnv(t)

	out, err := run(t, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 products")
	assert.Contains(t, out, "years [2022 2023]")
	assert.FileExists(t, filepath.Join(dir, "products.db"))
	assert.FileExists(t, filepath.Join(dir, "medicare.db"))

	// The sqlite backend reads what ingest wrote.
	t.Setenv("CATALOG_BACKEND", config.BackendSQLite)
	out, err = run(t, "latest-year")
	require.NoError(t, err)
	assert.Equal(t, "2023\n", out)
}

func TestIngestFlagsOverrideConfig(t *testing.T) {
	dir := setupEnv(t)
	productsDB := filepath.Join(dir, "other-products.db")

	out, err := run(t, "-o", "json", "ingest", "--products-db", productsDB)
	require.NoError(t, err)
	assert.FileExists(t, productsDB)

	var report struct {
		Products   int `json:"products"`
		LatestYear int `json:"latest_year"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Products)
	assert.Equal(t, 2023, report.LatestYear)
}

func TestInvalidConfiguration(t *testing.T) {
	setupEnv(t)
	t.Setenv("CATALOG_BACKEND", "postgres")

	_, err := run(t, "latest-year")
	require.Error(t, err)
}

func TestUnsupportedOutput(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "-o", "yaml", "latest-year")
	require.ErrorContains(t, err, "unsupported output format")
}

func TestPipelineOptionsFromConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("STRENGTH_BONUS", "12.5")
	t.Setenv("LOOKUP_PARALLELISM", "2")

	cfg, err := config.Load()
	require.NoError(t, err)

	opts := (&app{cfg: cfg}).pipelineOptions()
	assert.Equal(t, 12.5, opts.Resolver.StrengthBonus)
	assert.Equal(t, cfg.IdentityRowCap, opts.Resolver.RowCap)
	assert.NotNil(t, opts.Resolver.Scorer)
	assert.Equal(t, cfg.EquivalentRowCap, opts.EquivalentRowCap)
	assert.Equal(t, 2, opts.Join.Parallelism)
	assert.Equal(t, cfg.FallbackTermLimit, opts.Join.FallbackTerms)
}
