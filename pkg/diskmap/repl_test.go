package diskmap_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Valmach/HashMapper/internal/diskmaptest"
	"github.com/Valmach/HashMapper/pkg/diskmap"
)

func TestReplPutAndGet(t *testing.T) {
	dir := diskmaptest.TempDir(t)
	opts := diskmap.Options{BaseFolderLocation: dir}
	m, err := diskmap.Open(opts)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	r := diskmap.Repl(m, opts)
	var out strings.Builder
	r.Run(uuid.New(), "", strings.NewReader("put 1 100\nget 1\n"), &out)

	result := out.String()
	if !strings.Contains(result, "inserted") {
		t.Fatalf("expected the REPL to report an insert, got %q", result)
	}
	if !strings.Contains(result, "100") {
		t.Fatalf("expected the REPL to echo back value 100, got %q", result)
	}
}

func TestReplGetMissingKeyReportsError(t *testing.T) {
	m := diskmaptest.OpenTemp(t, diskmap.Options{})
	r := diskmap.Repl(m, diskmap.Options{})
	var out strings.Builder
	r.Run(uuid.New(), "", strings.NewReader("get 1\n"), &out)

	if !strings.Contains(out.String(), "ERROR") {
		t.Fatalf("expected get on a missing key to report an error, got %q", out.String())
	}
}

func TestReplUnknownCommand(t *testing.T) {
	m := diskmaptest.OpenTemp(t, diskmap.Options{})
	r := diskmap.Repl(m, diskmap.Options{})
	var out strings.Builder
	r.Run(uuid.New(), "", strings.NewReader("bogus\n"), &out)

	if !strings.Contains(out.String(), "ERROR") {
		t.Fatalf("expected an error for an unrecognized command, got %q", out.String())
	}
}
