package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frenchCNI = "République Française\nCarte Nationale d'Identité\nN° 1234 5678 9012\n" +
	"Nom: DUPONT\nPrénom: MARIE\nNé(e) le: 15/04/1985\n"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DB_URL", "")
	t.Setenv("PATTERNS_DIR", "")
	t.Setenv("ARTIFACT_CACHE_DIR", t.TempDir())
	extractText, extractImage, extractPersist = "", "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append(args, "--log-level", "error", "--ocr-engine", "none"))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExtractCommand_Text(t *testing.T) {
	out, err := run(t, "extract", "--text", frenchCNI)
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "cni", res["document_type"])
	assert.Equal(t, "fr", res["country"])
	assert.Equal(t, "123456789012", res["document_number"])
}

func TestExtractCommand_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cni.txt")
	require.NoError(t, os.WriteFile(path, []byte(frenchCNI), 0o644))

	out, err := run(t, "extract", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"document_type": "cni"`)
}

func TestExtractCommand_RequiresInput(t *testing.T) {
	_, err := run(t, "extract")
	assert.Error(t, err)
}

func TestPatternsValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"patterns": {"fr": {"cni": "\\d{12}"}}}`), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(`{"patterns": {"fr": {"cni": "(unclosed"}}}`), 0o644))

	out, err := run(t, "patterns", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok   "+good)

	out, err = run(t, "patterns", "validate", good, bad)
	assert.EqualError(t, err, "1 of 2 files invalid")
	assert.Contains(t, out, "FAIL "+bad)
}

func TestBatchCommand_WritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(frenchCNI), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("   "), 0o644))
	xlsx := filepath.Join(t.TempDir(), "out.xlsx")

	out, err := run(t, "batch", dir, "--xlsx", xlsx, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "matched=2 extracted=1")
	assert.Contains(t, out, "no_data=1")
	assert.FileExists(t, xlsx)
}

func TestServeCommand_AddressInUse(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	tests := []struct {
		name     string
		grpcAddr string
		httpAddr string
	}{
		{"grpc", busy.Addr().String(), ""},
		{"http after free grpc", "127.0.0.1:0", busy.Addr().String()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GRPC_ADDR", tt.grpcAddr)
			t.Setenv("HTTP_ADDR", tt.httpAddr)

			start := time.Now()
			_, err := run(t, "serve")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "address already in use")
			assert.Less(t, time.Since(start), 5*time.Second)
		})
	}
}
