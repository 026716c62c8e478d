package main

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/sage-x-project/sage-beckn-go/pkg/digest"
	"github.com/sage-x-project/sage-beckn-go/pkg/keys"
	"github.com/sage-x-project/sage-beckn-go/pkg/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "keys")

	code, out, errOut := runCmd(t, "", "generate", "-dir", dir)
	require.Equal(t, 0, code, errOut)

	kp, err := keys.Load(dir)
	require.NoError(t, err)
	assert.Contains(t, out, kp.PublicKeyBase64())
	assert.NotContains(t, out, "\033[", "no colour when not a terminal")

	info, err := os.Stat(keys.FilesIn(dir).PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestGenerate_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()

	code, _, _ := runCmd(t, "", "generate", "-dir", dir)
	require.Equal(t, 0, code)
	before, err := keys.Load(dir)
	require.NoError(t, err)

	// Test Case 1: second generate without -force keeps the key
	code, _, errOut := runCmd(t, "", "generate", "-dir", dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "-force")

	after, err := keys.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, before.RawPublicKey(), after.RawPublicKey())

	// Test Case 2: -force replaces it
	code, _, errOut = runCmd(t, "", "generate", "-dir", dir, "-force")
	require.Equal(t, 0, code, errOut)

	replaced, err := keys.Load(dir)
	require.NoError(t, err)
	assert.NotEqual(t, before.RawPublicKey(), replaced.RawPublicKey())
}

func TestShow(t *testing.T) {
	dir := t.TempDir()
	code, _, _ := runCmd(t, "", "generate", "-dir", dir)
	require.Equal(t, 0, code)

	kp, err := keys.Load(dir)
	require.NoError(t, err)

	code, out, errOut := runCmd(t, "", "show", "-dir", dir)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Public key (base64): "+kp.PublicKeyBase64())
	assert.Contains(t, out, "sign/verify self-check")
	assert.NotContains(t, out, "✗")
}

func TestShow_DetectsMismatch(t *testing.T) {
	dir := t.TempDir()
	code, _, _ := runCmd(t, "", "generate", "-dir", dir)
	require.Equal(t, 0, code)

	other, err := keys.Generate()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(keys.FilesIn(dir).PublicKeyB64, []byte(other.PublicKeyBase64()+"\n"), 0o644))

	code, out, errOut := runCmd(t, "", "show", "-dir", dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "✗")
	assert.Contains(t, errOut, "inconsistent")
}

func TestShow_MissingKey(t *testing.T) {
	code, _, errOut := runCmd(t, "", "show", "-dir", t.TempDir())

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "private key not found")
}

var authPattern = regexp.MustCompile(`^Signature keyId="bap\.example\.org",algorithm="ed25519",headers="digest",signature="([A-Za-z0-9+/]{86}==)"$`)

func TestSign(t *testing.T) {
	dir := t.TempDir()
	code, _, _ := runCmd(t, "", "generate", "-dir", dir)
	require.Equal(t, 0, code)
	kp, err := keys.Load(dir)
	require.NoError(t, err)

	payload := `{"message":{"intent":{}},"context":{"action":"search"}}`
	path := filepath.Join(t.TempDir(), "payload.json")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	fromFile, fileOut, errOut := runCmd(t, "", "sign", "-dir", dir, "-subscriber", "bap.example.org", "-file", path, "-body")
	require.Equal(t, 0, fromFile, errOut)
	fromStdin, stdinOut, errOut := runCmd(t, payload, "sign", "-dir", dir, "-subscriber", "bap.example.org", "-body")
	require.Equal(t, 0, fromStdin, errOut)
	assert.Equal(t, fileOut, stdinOut)

	lines := strings.Split(strings.TrimSpace(fileOut), "\n")
	require.Len(t, lines, 4)

	body := `{"context":{"action":"search"},"message":{"intent":{}}}`
	wantDigest := digest.OfBytes([]byte(body))
	assert.Equal(t, "Digest: "+wantDigest, lines[0])
	assert.Equal(t, body, lines[3])

	auth, ok := strings.CutPrefix(lines[1], "Authorization: ")
	require.True(t, ok)
	m := authPattern.FindStringSubmatch(auth)
	require.NotNil(t, m, auth)

	sig, err := base64.StdEncoding.DecodeString(m[1])
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(kp.RawPublicKey(), []byte(signer.SigningString(wantDigest)), sig))
}

func TestSign_Errors(t *testing.T) {
	dir := t.TempDir()
	code, _, _ := runCmd(t, "", "generate", "-dir", dir)
	require.Equal(t, 0, code)

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"missing subscriber", `{}`, []string{"sign", "-dir", dir}, "-subscriber is required"},
		{"invalid json", `{"a":`, []string{"sign", "-dir", dir, "-subscriber", "bap"}, "failed to parse payload"},
		{"quote in subscriber", `{}`, []string{"sign", "-dir", dir, "-subscriber", `a"b`}, "subscriber"},
		{"missing keys", `{}`, []string{"sign", "-dir", t.TempDir(), "-subscriber", "bap"}, "private key not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCmd(t, tt.stdin, tt.args...)
			assert.Equal(t, 1, code)
			assert.Empty(t, out)
			assert.Contains(t, errOut, tt.want)
		})
	}
}

func TestRun_Usage(t *testing.T) {
	code, _, errOut := runCmd(t, "")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "Usage:")

	code, _, errOut = runCmd(t, "", "rotate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "Unknown command: rotate")

	code, out, _ := runCmd(t, "", "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "beckn core 1.1.0")
}
