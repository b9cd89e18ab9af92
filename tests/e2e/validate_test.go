//go:build e2e

package e2e

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestE2E_ValidateGoodPolicy(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir, goodPolicy, goodServices)

	_, stderr, code := RunMiddleware(t, dir, nil, "validate")
	if code != 0 {
		t.Fatalf("validate (good policy) exited %d\nstderr: %s", code, stderr)
	}
}

func TestE2E_ValidateBadPolicy(t *testing.T) {
	dir := t.TempDir()
	badPolicy := "slo:\n  max_retries: not_a_number\n"
	writeFixtures(t, dir, badPolicy, goodServices)

	_, _, code := RunMiddleware(t, dir, nil, "validate")
	if code == 0 {
		t.Error("validate (bad policy) should exit non-zero")
	}
}

func TestE2E_ValidateExpectVersionTagMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir, goodPolicy, goodServices)

	_, stderr, code := RunMiddleware(t, dir, nil, "validate", "--expect-version-tag", "deadbeefcafe")
	if code == 0 {
		t.Fatalf("validate should reject a mismatched version tag, stderr: %s", stderr)
	}
}

func TestE2E_ValidateExpectVersionTagRejectsNonHex(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir, goodPolicy, goodServices)

	_, stderr, code := RunMiddleware(t, dir, nil, "validate", "--expect-version-tag", "not-hex!")
	if code == 0 {
		t.Fatalf("validate should reject a non-hex --expect-version-tag, stderr: %s", stderr)
	}
}

func TestE2E_DoctorReportsBrokerWarningButPasses(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir, goodPolicy, goodServices)

	stdout, stderr, code := RunMiddleware(t, dir, nil, "doctor")
	if code != 0 {
		t.Fatalf("doctor exited %d\nstdout: %s\nstderr: %s", code, stdout, stderr)
	}
	if !strings.Contains(stdout, "broker") {
		t.Errorf("doctor output missing broker check: %s", stdout)
	}
}

func TestE2E_DoctorFailsOnMissingServices(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "policy.yaml"), []byte(goodPolicy), 0o600); err != nil {
		t.Fatal(err)
	}

	_, _, code := RunMiddleware(t, dir, nil, "doctor")
	if code == 0 {
		t.Error("doctor should fail when services.yaml is missing")
	}
}
