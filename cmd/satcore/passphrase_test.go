package main

import (
	"os"
	"testing"
)

func TestObtainPassphraseUsesEnv(t *testing.T) {
	os.Setenv(envPassphrase, "correct horse battery staple")
	defer os.Unsetenv(envPassphrase)

	got, err := obtainPassphrase("unused prompt")
	if err != nil {
		t.Fatal(err)
	}
	if got != "correct horse battery staple" {
		t.Fatalf("got %q", got)
	}
}

func TestObtainPassphraseFailsWithoutEnvOrTTY(t *testing.T) {
	os.Unsetenv(envPassphrase)

	// go test runs with stdin/stdout not attached to a TTY, so this should
	// fail cleanly instead of blocking on a bubbletea program.
	if _, err := obtainPassphrase("prompt"); err == nil {
		t.Fatalf("expected an error without a TTY or env passphrase")
	}
}
